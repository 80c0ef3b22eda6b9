// molview renders PDB molecules as instanced spheres with deterministic
// atom subsampling.
package main

import (
	"os"

	"github.com/molview3d/molview/cmd/molview/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
