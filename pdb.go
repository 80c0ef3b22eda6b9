package molview

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/go-gl/mathgl/mgl32"
)

// AtomRecord is one parsed atom: a position and an element-derived color.
// Records are immutable once parsed.
type AtomRecord struct {
	Position mgl32.Vec3 `json:"position"`
	Color    [3]float32 `json:"color"`
	Element  string     `json:"element"`
	Radius   float32    `json:"radius"`
}

// Molecule is the load-time result of parsing a structure file. Positions
// are centered on the bounding-box center and scaled so the furthest atom
// sits at unit distance from the origin.
type Molecule struct {
	Name  string       `json:"name"`
	Atoms []AtomRecord `json:"atoms"`
}

// LoadPDB parses ATOM and HETATM records from a PDB file.
//
// PDB is a fixed-column format: coordinates live in columns 31-54, the
// element symbol in columns 77-78 (older files leave it blank, in which
// case the symbol is recovered from the atom name in columns 13-16).
func LoadPDB(filename string) (*Molecule, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	mol := &Molecule{Name: moleculeName(filename)}

	scanner := bufio.NewScanner(file)
	lineNo := 0
	compndSeen := false
	for scanner.Scan() {
		lineNo++
		line := scanner.Text()
		if !strings.HasPrefix(line, "ATOM") && !strings.HasPrefix(line, "HETATM") {
			// The first COMPND line names the structure better than the
			// filename does.
			if strings.HasPrefix(line, "COMPND") && !compndSeen {
				if name := strings.TrimSpace(line[6:]); name != "" {
					mol.Name = name
					compndSeen = true
				}
			}
			continue
		}
		if len(line) < 54 {
			return nil, fmt.Errorf("pdb: line %d: truncated atom record", lineNo)
		}

		x, err1 := parseCoord(line[30:38])
		y, err2 := parseCoord(line[38:46])
		z, err3 := parseCoord(line[46:54])
		if err1 != nil || err2 != nil || err3 != nil {
			return nil, fmt.Errorf("pdb: line %d: bad coordinates", lineNo)
		}

		elem := LookupElement(elementSymbol(line))
		mol.Atoms = append(mol.Atoms, AtomRecord{
			Position: mgl32.Vec3{x, y, z},
			Color:    elem.Color,
			Element:  elem.Symbol,
			Radius:   elem.Radius,
		})
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	if len(mol.Atoms) == 0 {
		return nil, fmt.Errorf("pdb: %s contains no atom records", filename)
	}

	mol.normalize()
	return mol, nil
}

func parseCoord(field string) (float32, error) {
	v, err := strconv.ParseFloat(strings.TrimSpace(field), 32)
	return float32(v), err
}

func elementSymbol(line string) string {
	if len(line) >= 78 {
		if sym := strings.TrimSpace(line[76:78]); sym != "" {
			return sym
		}
	}
	// Fall back to the atom name; strip leading digits ("1HB" -> "HB"),
	// then take the leading alphabetic run.
	name := strings.TrimSpace(line[12:16])
	name = strings.TrimLeft(name, "0123456789")
	for i, r := range name {
		if r < 'A' || (r > 'Z' && r < 'a') || r > 'z' {
			name = name[:i]
			break
		}
	}
	if len(name) > 1 {
		// Two-letter symbols only when the second char is lower case in the
		// source; PDB atom names are upper case, so prefer one letter for
		// the common organic set.
		if _, ok := elementTable[strings.ToUpper(name[:2])]; ok && !isOrganicPrefix(name[:1]) {
			return name[:2]
		}
		return name[:1]
	}
	return name
}

func isOrganicPrefix(s string) bool {
	switch strings.ToUpper(s) {
	case "C", "N", "O", "H", "S", "P":
		return true
	}
	return false
}

// normalize recenters atoms on the bounding-box center and rescales so the
// furthest atom lies on the unit sphere. Keeps view framing independent of
// the structure's size.
func (mol *Molecule) normalize() {
	min := mol.Atoms[0].Position
	max := mol.Atoms[0].Position
	for _, a := range mol.Atoms[1:] {
		for i := 0; i < 3; i++ {
			if a.Position[i] < min[i] {
				min[i] = a.Position[i]
			}
			if a.Position[i] > max[i] {
				max[i] = a.Position[i]
			}
		}
	}
	center := min.Add(max).Mul(0.5)

	maxDist := float32(0)
	for i := range mol.Atoms {
		mol.Atoms[i].Position = mol.Atoms[i].Position.Sub(center)
		if d := mol.Atoms[i].Position.Len(); d > maxDist {
			maxDist = d
		}
	}
	if maxDist > 0 {
		inv := 1 / maxDist
		for i := range mol.Atoms {
			mol.Atoms[i].Position = mol.Atoms[i].Position.Mul(inv)
		}
	}
}

func moleculeName(filename string) string {
	base := filename
	if idx := strings.LastIndexByte(base, '/'); idx >= 0 {
		base = base[idx+1:]
	}
	if idx := strings.LastIndexByte(base, '.'); idx > 0 {
		base = base[:idx]
	}
	return base
}
