package molview

import (
	"strings"
)

// Element carries the per-species display properties used when turning atom
// records into sphere instances. Colors follow the CPK convention, radii are
// covalent radii in Angstrom.
type Element struct {
	Symbol string
	Color  [3]float32
	Radius float32
}

var elementTable = map[string]Element{
	"H":  {"H", [3]float32{1.00, 1.00, 1.00}, 0.31},
	"C":  {"C", [3]float32{0.20, 0.20, 0.20}, 0.76},
	"N":  {"N", [3]float32{0.19, 0.31, 0.97}, 0.71},
	"O":  {"O", [3]float32{1.00, 0.05, 0.05}, 0.66},
	"F":  {"F", [3]float32{0.56, 0.88, 0.31}, 0.57},
	"NA": {"NA", [3]float32{0.67, 0.36, 0.95}, 1.66},
	"MG": {"MG", [3]float32{0.54, 1.00, 0.00}, 1.41},
	"P":  {"P", [3]float32{1.00, 0.50, 0.00}, 1.07},
	"S":  {"S", [3]float32{1.00, 1.00, 0.19}, 1.05},
	"CL": {"CL", [3]float32{0.12, 0.94, 0.12}, 1.02},
	"K":  {"K", [3]float32{0.56, 0.25, 0.83}, 2.03},
	"CA": {"CA", [3]float32{0.24, 1.00, 0.00}, 1.76},
	"FE": {"FE", [3]float32{0.88, 0.40, 0.20}, 1.32},
	"ZN": {"ZN", [3]float32{0.49, 0.50, 0.69}, 1.22},
	"BR": {"BR", [3]float32{0.65, 0.16, 0.16}, 1.20},
	"I":  {"I", [3]float32{0.58, 0.00, 0.58}, 1.39},
}

// Unrecognized species render as pink spheres of roughly carbon size.
var unknownElement = Element{Symbol: "?", Color: [3]float32{0.78, 0.39, 0.78}, Radius: 0.70}

// LookupElement resolves an element symbol case-insensitively.
func LookupElement(symbol string) Element {
	if e, ok := elementTable[strings.ToUpper(strings.TrimSpace(symbol))]; ok {
		return e
	}
	return unknownElement
}
