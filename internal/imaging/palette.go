package imaging

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/draw"

	"github.com/ironsheep/image-studio-mcp/internal/imgerr"
)

// PaletteEntry is one named color.
type PaletteEntry struct {
	Name string   `json:"name"`
	RGB  RGBColor `json:"rgb"`
	Hex  string   `json:"hex"`
}

func newPaletteEntry(name string, s Swatch) PaletteEntry {
	c := RGBFromFloats(s.R, s.G, s.B)
	return PaletteEntry{Name: name, RGB: c, Hex: c.Hex()}
}

// PaletteResult is the outcome of ExtractPalette.
type PaletteResult struct {
	Dominant PaletteEntry `json:"dominant"`
	// Buckets holds the swatches the quantizer produced, keyed by bucket name.
	Buckets map[string]PaletteEntry `json:"buckets"`
	// AllColors lists Buckets in BucketOrder.
	AllColors []PaletteEntry `json:"all_colors"`
}

// ExtractPalette quantizes the source bytes with q (VibrantQuantizer when
// nil) and picks the dominant color as the first bucket present in
// BucketOrder.
func ExtractPalette(data []byte, q Quantizer) (*PaletteResult, error) {
	if q == nil {
		q = VibrantQuantizer{}
	}
	data, err := EnsureQuantizable(data)
	if err != nil {
		return nil, err
	}
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, imgerr.Wrap(imgerr.EncodingFailure, err, "decode palette source")
	}

	swatches, err := q.Quantize(img)
	if err != nil {
		return nil, err
	}

	res := &PaletteResult{Buckets: make(map[string]PaletteEntry)}
	for _, name := range BucketOrder {
		s, ok := swatches[name]
		if !ok {
			continue
		}
		e := newPaletteEntry(name, s)
		res.Buckets[name] = e
		res.AllColors = append(res.AllColors, e)
	}
	if len(res.AllColors) == 0 {
		return nil, imgerr.New(imgerr.NoColorsExtracted, "no colors could be extracted from the image")
	}
	res.Dominant = res.AllColors[0]
	res.Dominant.Name = "dominant"
	return res, nil
}

// Palette visualization layout.
const (
	paletteWidth     = 480
	paletteRowHeight = 56
	palettePadding   = 16
	paletteSwatchW   = 160
	paletteFontSize  = 18
)

var (
	paletteBackground = color.NRGBA{255, 255, 255, 255}
	paletteInk        = color.NRGBA{0x33, 0x33, 0x33, 255}
	paletteBorder     = color.NRGBA{0xDD, 0xDD, 0xDD, 255}
)

// PaletteRows returns the rows RenderPalette draws: dominant first, then
// every bucket in BucketOrder.
func PaletteRows(res *PaletteResult) []PaletteEntry {
	return append([]PaletteEntry{res.Dominant}, res.AllColors...)
}

// PaletteCanvasSize returns the visualization size for n rows. Height grows
// linearly with n.
func PaletteCanvasSize(n int) (w, h int) {
	return paletteWidth, palettePadding*2 + n*paletteRowHeight
}

// RenderPalette draws one row per color showing its index, hex code and a
// filled swatch, and encodes the result as png.
func RenderPalette(res *PaletteResult) ([]byte, error) {
	rows := PaletteRows(res)
	w, h := PaletteCanvasSize(len(rows))
	canvas := image.NewNRGBA(image.Rect(0, 0, w, h))
	draw.Draw(canvas, canvas.Bounds(), image.NewUniform(paletteBackground), image.Point{}, draw.Src)

	face, err := newFace("mono", false, paletteFontSize)
	if err != nil {
		return nil, imgerr.Wrap(imgerr.EncodingFailure, err, "load palette font")
	}
	defer face.Close()
	ascent := face.Metrics().Ascent.Ceil()

	for i, e := range rows {
		top := palettePadding + i*paletteRowHeight
		baseline := top + (paletteRowHeight-ascent)/2 + ascent

		label := fmt.Sprintf("%d. %s", i+1, e.Hex)
		if e.Name == "dominant" {
			label += " (dominant)"
		}
		drawTextAt(canvas, face, label, paletteInk, palettePadding, baseline)

		sw := image.Rect(w-palettePadding-paletteSwatchW, top+4, w-palettePadding, top+paletteRowHeight-4)
		draw.Draw(canvas, sw.Inset(-1), image.NewUniform(paletteBorder), image.Point{}, draw.Src)
		draw.Draw(canvas, sw, image.NewUniform(e.RGB.NRGBA()), image.Point{}, draw.Src)
	}

	return Encode(canvas, FormatPNG, 0)
}
