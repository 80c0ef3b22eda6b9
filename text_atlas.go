package molview

import (
	"fmt"
	"image"
	"image/draw"
	"os"

	"golang.org/x/image/font"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"
)

type overlayVertex struct {
	pos   [2]float32 `molview:"layout" location:"0" format:"float2"`
	uv    [2]float32 `molview:"layout" location:"1" format:"float2"`
	color [4]float32 `molview:"layout" location:"2" format:"float4"`
}

type glyphInfo struct {
	uvMin [2]float32
	uvMax [2]float32
	size  [2]float32
	off   [2]float32
	adv   float32
}

// textAtlas rasterizes the printable ASCII range of a font into a single
// alpha texture. Overlay text is then just textured quads sampled from it.
type textAtlas struct {
	image  *image.Alpha
	glyphs map[rune]glyphInfo
	face   font.Face
}

const atlasSize = 512

func newTextAtlas(fontPath string, fontSize float64) (*textAtlas, error) {
	fontBytes, err := os.ReadFile(fontPath)
	if err != nil {
		return nil, fmt.Errorf("read font file: %w", err)
	}

	parsed, err := opentype.Parse(fontBytes)
	if err != nil {
		return nil, fmt.Errorf("parse font: %w", err)
	}

	face, err := opentype.NewFace(parsed, &opentype.FaceOptions{
		Size:    fontSize,
		DPI:     72,
		Hinting: font.HintingFull,
	})
	if err != nil {
		return nil, fmt.Errorf("create face: %w", err)
	}

	atlas := image.NewAlpha(image.Rect(0, 0, atlasSize, atlasSize))
	glyphs := make(map[rune]glyphInfo)

	x, y := 2, 2
	rowHeight := 0

	for r := rune(32); r < 127; r++ {
		bounds, mask, _, adv, ok := face.Glyph(fixed.Point26_6{}, r)
		if !ok {
			continue
		}

		w := mask.Bounds().Dx()
		h := mask.Bounds().Dy()

		if x+w >= atlasSize {
			x = 2
			y += rowHeight + 4
			rowHeight = 0
		}
		if y+h >= atlasSize {
			break
		}

		draw.Draw(atlas, image.Rect(x, y, x+w, y+h), mask, mask.Bounds().Min, draw.Src)

		glyphs[r] = glyphInfo{
			uvMin: [2]float32{float32(x) / atlasSize, float32(y) / atlasSize},
			uvMax: [2]float32{float32(x+w) / atlasSize, float32(y+h) / atlasSize},
			size:  [2]float32{float32(w), float32(h)},
			off:   [2]float32{float32(bounds.Min.X), float32(bounds.Min.Y)},
			adv:   float32(adv) / 64.0, // fixed 26.6 to float
		}

		x += w + 4
		if h > rowHeight {
			rowHeight = h
		}
	}

	return &textAtlas{
		image:  atlas,
		glyphs: glyphs,
		face:   face,
	}, nil
}

// buildVertices lays out text starting at a pixel position, two triangles
// per glyph, in normalized device coordinates for the given screen size.
func (ta *textAtlas) buildVertices(text string, posX, posY, scale float32, color [4]float32, screenW, screenH int) []overlayVertex {
	vertices := make([]overlayVertex, 0, len(text)*6)

	sw := float32(screenW)
	sh := float32(screenH)
	metrics := ta.face.Metrics()
	ascent := float32(metrics.Ascent.Ceil())
	lineHeight := float32(metrics.Height.Ceil())

	startX := posX
	penX := startX
	penY := posY + ascent*scale

	for _, r := range text {
		if r == '\n' {
			penX = startX
			penY += lineHeight * scale
			continue
		}

		g, ok := ta.glyphs[r]
		if !ok {
			continue
		}

		x0 := (penX+g.off[0]*scale)/sw*2.0 - 1.0
		y0 := 1.0 - (penY+g.off[1]*scale)/sh*2.0
		x1 := (penX+(g.off[0]+g.size[0])*scale)/sw*2.0 - 1.0
		y1 := 1.0 - (penY+(g.off[1]+g.size[1])*scale)/sh*2.0

		vertices = append(vertices,
			overlayVertex{pos: [2]float32{x0, y0}, uv: [2]float32{g.uvMin[0], g.uvMin[1]}, color: color},
			overlayVertex{pos: [2]float32{x1, y0}, uv: [2]float32{g.uvMax[0], g.uvMin[1]}, color: color},
			overlayVertex{pos: [2]float32{x0, y1}, uv: [2]float32{g.uvMin[0], g.uvMax[1]}, color: color},

			overlayVertex{pos: [2]float32{x1, y0}, uv: [2]float32{g.uvMax[0], g.uvMin[1]}, color: color},
			overlayVertex{pos: [2]float32{x1, y1}, uv: [2]float32{g.uvMax[0], g.uvMax[1]}, color: color},
			overlayVertex{pos: [2]float32{x0, y1}, uv: [2]float32{g.uvMin[0], g.uvMax[1]}, color: color},
		)

		penX += g.adv * scale
	}

	return vertices
}
