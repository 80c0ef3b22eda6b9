package cmd

import (
	"github.com/spf13/cobra"

	molview "github.com/molview3d/molview"
)

var sceneCmd = &cobra.Command{
	Use:   "scene <scene.json>",
	Short: "View a scene file",
	Long:  "Loads a JSON scene definition (molecules, subsampling options, camera) and opens the viewer.",
	Args:  cobra.ExactArgs(1),
	RunE:  runScene,
}

func runScene(cmd *cobra.Command, args []string) error {
	// Validate before opening a window so bad files fail fast.
	if _, err := molview.LoadSceneFile(args[0]); err != nil {
		return err
	}

	builder := molview.NewAppBuilder()
	builder.UseModule(baseModules("molview - " + args[0])...)
	builder.UseModule(
		molview.SceneModule{Path: args[0]},
		rendererModule(),
	)
	if flagWatch {
		builder.UseModule(molview.WatchModule{})
	}

	builder.Build().Run()
	return nil
}
