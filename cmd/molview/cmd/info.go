package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	molview "github.com/molview3d/molview"
)

var infoCmd = &cobra.Command{
	Use:   "info <molecule.pdb>",
	Short: "Print molecule statistics without rendering",
	Long:  "Parses a PDB file and reports atom counts, element distribution, and how many instances the current subsampling flags would keep.",
	Args:  cobra.ExactArgs(1),
	RunE:  runInfo,
}

func runInfo(cmd *cobra.Command, args []string) error {
	opts, err := instanceOptionsFromFlags()
	if err != nil {
		return err
	}

	mol, err := molview.LoadPDB(args[0])
	if err != nil {
		return err
	}

	instances := molview.BuildInstances(mol.Atoms, opts)

	fmt.Printf("%s\n", mol.Name)
	fmt.Printf("  atoms:    %d\n", len(mol.Atoms))
	fmt.Printf("  rendered: %d (rate %.2f)\n", len(instances), opts.RejectionRate)

	byElement := map[string]int{}
	for _, atom := range mol.Atoms {
		byElement[atom.Element]++
	}
	fmt.Printf("  elements:\n")
	for element, count := range byElement {
		fmt.Printf("    %-2s %d\n", element, count)
	}
	return nil
}
