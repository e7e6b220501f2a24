package imaging

import (
	"image"
	"image/color"
	"image/draw"
	"strings"
	"sync"

	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/gomono"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"
)

// Parsed fonts are immutable and shared; faces are created per call.
var (
	regularFont = sync.OnceValues(func() (*opentype.Font, error) { return opentype.Parse(goregular.TTF) })
	boldFont    = sync.OnceValues(func() (*opentype.Font, error) { return opentype.Parse(gobold.TTF) })
	monoFont    = sync.OnceValues(func() (*opentype.Font, error) { return opentype.Parse(gomono.TTF) })
)

// newFace returns a face for the requested family. Families containing
// "mono" or "courier" map to Go Mono, "bold" to Go Bold; anything else
// (sans-serif, Arial, ...) uses Go Regular.
func newFace(family string, bold bool, size float64) (font.Face, error) {
	family = strings.ToLower(family)
	load := regularFont
	switch {
	case strings.Contains(family, "mono"), strings.Contains(family, "courier"):
		load = monoFont
	case bold, strings.Contains(family, "bold"):
		load = boldFont
	}

	f, err := load()
	if err != nil {
		return nil, err
	}
	if size < 1 {
		size = 1
	}
	return opentype.NewFace(f, &opentype.FaceOptions{
		Size:    size,
		DPI:     72,
		Hinting: font.HintingFull,
	})
}

// drawCenteredText draws text centered inside box.
func drawCenteredText(dst draw.Image, face font.Face, text string, c color.Color, box image.Rectangle) {
	m := face.Metrics()
	ascent, descent := m.Ascent.Ceil(), m.Descent.Ceil()
	width := font.MeasureString(face, text).Ceil()

	x := box.Min.X + (box.Dx()-width)/2
	y := box.Min.Y + (box.Dy()-(ascent+descent))/2 + ascent

	d := &font.Drawer{
		Dst:  dst,
		Src:  image.NewUniform(c),
		Face: face,
		Dot:  fixed.P(x, y),
	}
	d.DrawString(text)
}

// drawTextAt draws text with its baseline-left at (x, baseline).
func drawTextAt(dst draw.Image, face font.Face, text string, c color.Color, x, baseline int) {
	d := &font.Drawer{
		Dst:  dst,
		Src:  image.NewUniform(c),
		Face: face,
		Dot:  fixed.P(x, baseline),
	}
	d.DrawString(text)
}
