package molview

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func atomLine(serial int, name string, x, y, z float64, element string) string {
	return fmt.Sprintf("ATOM  %5d %-4s %-3s %s%4d    %8.3f%8.3f%8.3f%6.2f%6.2f          %2s",
		serial, name, "UNK", "A", 1, x, y, z, 1.0, 0.0, element)
}

func writePDB(t *testing.T, name string, lines ...string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	content := ""
	for _, line := range lines {
		content += line + "\n"
	}
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoadPDB_ParsesAtomRecords(t *testing.T) {
	path := writePDB(t, "water.pdb",
		"COMPND    WATER",
		atomLine(1, "O", 0, 0, 0, "O"),
		atomLine(2, "H1", 0.96, 0, 0, "H"),
		atomLine(3, "H2", -0.24, 0.93, 0, "H"),
	)

	mol, err := LoadPDB(path)
	require.NoError(t, err)

	assert.Equal(t, "WATER", mol.Name)
	require.Len(t, mol.Atoms, 3)
	assert.Equal(t, "O", mol.Atoms[0].Element)
	assert.Equal(t, "H", mol.Atoms[1].Element)
	assert.Equal(t, LookupElement("O").Color, mol.Atoms[0].Color)
}

func TestLoadPDB_NameFallsBackToFilename(t *testing.T) {
	path := writePDB(t, "caffeine.pdb",
		atomLine(1, "C1", 1, 2, 3, "C"),
	)

	mol, err := LoadPDB(path)
	require.NoError(t, err)
	assert.Equal(t, "caffeine", mol.Name)
}

func TestLoadPDB_ElementFromAtomName(t *testing.T) {
	// Old files leave columns 77-78 blank; truncate the line past the
	// coordinates to force the atom-name fallback.
	caLine := atomLine(1, "CA", 0, 0, 0, "")[:54]
	hLine := atomLine(2, "1HB", 1, 0, 0, "")[:54]
	feLine := atomLine(3, "FE", 2, 0, 0, "")[:54]

	mol, err := LoadPDB(writePDB(t, "old.pdb", caLine, hLine, feLine))
	require.NoError(t, err)
	require.Len(t, mol.Atoms, 3)

	// CA in a protein is an alpha carbon, not calcium.
	assert.Equal(t, "C", mol.Atoms[0].Element)
	// Leading digits are not part of the symbol.
	assert.Equal(t, "H", mol.Atoms[1].Element)
	// Genuine two-letter species survive.
	assert.Equal(t, "FE", mol.Atoms[2].Element)
}

func TestLoadPDB_UnknownElementGetsFallbackColor(t *testing.T) {
	mol, err := LoadPDB(writePDB(t, "odd.pdb",
		atomLine(1, "XX", 0, 0, 0, "XX"),
		atomLine(2, "C", 1, 0, 0, "C"),
	))
	require.NoError(t, err)
	assert.Equal(t, unknownElement.Color, mol.Atoms[0].Color)
	assert.Equal(t, unknownElement.Radius, mol.Atoms[0].Radius)
}

func TestLoadPDB_HetatmRecordsIncluded(t *testing.T) {
	hetatm := "HETATM" + atomLine(1, "ZN", 0, 0, 0, "ZN")[6:]
	mol, err := LoadPDB(writePDB(t, "zinc.pdb",
		hetatm,
		atomLine(2, "C", 4, 0, 0, "C"),
	))
	require.NoError(t, err)
	require.Len(t, mol.Atoms, 2)
	assert.Equal(t, "ZN", mol.Atoms[0].Element)
}

func TestLoadPDB_NormalizesPositions(t *testing.T) {
	mol, err := LoadPDB(writePDB(t, "line.pdb",
		atomLine(1, "C", 0, 0, 0, "C"),
		atomLine(2, "C", 10, 0, 0, "C"),
	))
	require.NoError(t, err)
	require.Len(t, mol.Atoms, 2)

	// Bounding box center is (5,0,0); after recentering and unit scaling
	// the atoms sit at ±1 on the X axis.
	assert.InDelta(t, -1, mol.Atoms[0].Position.X(), 1e-5)
	assert.InDelta(t, 1, mol.Atoms[1].Position.X(), 1e-5)
	assert.InDelta(t, 1, mol.Atoms[0].Position.Len(), 1e-5)
	assert.InDelta(t, 1, mol.Atoms[1].Position.Len(), 1e-5)
}

func TestLoadPDB_Errors(t *testing.T) {
	_, err := LoadPDB(filepath.Join(t.TempDir(), "missing.pdb"))
	assert.Error(t, err)

	_, err = LoadPDB(writePDB(t, "empty.pdb", "REMARK nothing here"))
	assert.ErrorContains(t, err, "no atom records")

	_, err = LoadPDB(writePDB(t, "short.pdb", "ATOM      1  C"))
	assert.ErrorContains(t, err, "truncated")

	_, err = LoadPDB(writePDB(t, "garbled.pdb",
		"ATOM      1  C   UNK A   1        abc   0.000   0.000  1.00  0.00           C"))
	assert.ErrorContains(t, err, "bad coordinates")
}
