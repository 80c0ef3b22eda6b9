package cmd

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/spf13/cobra"

	molview "github.com/molview3d/molview"
)

var (
	flagRate          float32
	flagPolicy        string
	flagScale         float32
	flagMinBrightness float32
	flagWidth         int
	flagHeight        int
	flagShader        string
	flagFont          string
	flagCache         string
	flagWatch         bool
	flagDebug         bool
)

var rootCmd = &cobra.Command{
	Use:   "molview <molecule.pdb>",
	Short: "molview - instanced molecular viewer",
	Long:  "Renders PDB files as spinning point clouds of spheres, with deterministic atom subsampling to keep huge structures interactive.",
	Args:  cobra.ExactArgs(1),
	RunE:  runView,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.Float32Var(&flagRate, "rate", 0, "fraction of atoms to drop, in [0,1)")
	pf.StringVar(&flagPolicy, "policy", "keep-multiples", "subsampling policy: keep-multiples or drop-multiples")
	pf.Float32Var(&flagScale, "sphere-scale", 0, "sphere radius per atom (0 = default)")
	pf.Float32Var(&flagMinBrightness, "min-brightness", 0, "floor for each color channel, in [0,1]")
	pf.IntVar(&flagWidth, "width", 1280, "window width")
	pf.IntVar(&flagHeight, "height", 720, "window height")
	pf.StringVar(&flagShader, "shader", "", "path to the atom WGSL shader (default shaders/atoms.wgsl)")
	pf.StringVar(&flagFont, "font", "", "TTF/OTF font for the HUD overlay (empty disables it)")
	pf.StringVar(&flagCache, "cache", "", "path to the molecule cache database (empty disables caching)")
	pf.BoolVar(&flagWatch, "watch", false, "reload molecules when their files change")
	pf.BoolVar(&flagDebug, "debug", false, "enable debug logging")

	rootCmd.AddCommand(sceneCmd)
	rootCmd.AddCommand(infoCmd)
}

func instanceOptionsFromFlags() (molview.InstanceOptions, error) {
	opts := molview.DefaultInstanceOptions()
	if flagRate < 0 || flagRate >= 1 {
		return opts, fmt.Errorf("--rate must be in [0,1), got %v", flagRate)
	}
	opts.RejectionRate = flagRate
	if flagScale > 0 {
		opts.InstanceScale = flagScale
	}
	opts.MinBrightness = flagMinBrightness

	policy, err := molview.ParseKeepPolicy(flagPolicy)
	if err != nil {
		return opts, err
	}
	opts.Policy = policy
	return opts, nil
}

func baseModules(title string) []molview.Module {
	modules := []molview.Module{
		molview.LoggingModule{Prefix: "molview", Debug: flagDebug},
		molview.TimeModule{},
		molview.NewWindow(flagWidth, flagHeight, title),
		molview.InputModule{},
		molview.AssetServerModule{CachePath: flagCache},
	}
	return modules
}

func rendererModule() molview.InstancedRendererModule {
	return molview.InstancedRendererModule{
		ShaderPath: flagShader,
		FontPath:   flagFont,
	}
}

func runView(cmd *cobra.Command, args []string) error {
	opts, err := instanceOptionsFromFlags()
	if err != nil {
		return err
	}

	builder := molview.NewAppBuilder()
	builder.UseModule(baseModules("molview - " + args[0])...)
	builder.UseModule(
		molview.MoleculeModule{
			Path:    args[0],
			Options: opts,
			Spin:    molview.SpinComponent{Axis: mgl32.Vec3{0, 1, 0}, Speed: 0.4, ScrollGain: 0.12},
		},
		rendererModule(),
	)
	if flagWatch {
		builder.UseModule(molview.WatchModule{})
	}

	builder.Build().Run()
	return nil
}
