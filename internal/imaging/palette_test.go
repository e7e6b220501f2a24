package imaging

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/image/bmp"

	"github.com/ironsheep/image-studio-mcp/internal/imgerr"
)

var (
	vividRed   = color.NRGBA{230, 30, 30, 255}
	mutedTaupe = color.NRGBA{120, 110, 100, 255}
)

// twoToneImage fills the left half with vividRed and the right with mutedTaupe.
func twoToneImage() *image.NRGBA {
	img := createInMemoryImage(100, 100, mutedTaupe)
	for y := 0; y < 100; y++ {
		for x := 0; x < 50; x++ {
			img.Set(x, y, vividRed)
		}
	}
	return img
}

func TestExtractPalette_Buckets(t *testing.T) {
	res, err := ExtractPalette(encodePNG(t, twoToneImage()), nil)
	require.NoError(t, err)

	assert.Equal(t, "#E61E1E", res.Dominant.Hex)
	assert.Equal(t, "dominant", res.Dominant.Name)
	assert.Equal(t, RGBColor{230, 30, 30}, res.Dominant.RGB)

	require.Contains(t, res.Buckets, BucketVibrant)
	require.Contains(t, res.Buckets, BucketMuted)
	assert.Equal(t, "#786E64", res.Buckets[BucketMuted].Hex)

	require.Len(t, res.AllColors, len(res.Buckets))
	assert.Equal(t, BucketVibrant, res.AllColors[0].Name)
	assert.Equal(t, BucketMuted, res.AllColors[1].Name)
}

func TestExtractPalette_Deterministic(t *testing.T) {
	data := encodePNG(t, createPatternImage(120, 90))

	first, err := ExtractPalette(data, nil)
	require.NoError(t, err)
	second, err := ExtractPalette(data, nil)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestExtractPalette_NoColors(t *testing.T) {
	transparent := image.NewNRGBA(image.Rect(0, 0, 20, 20))

	_, err := ExtractPalette(encodePNG(t, transparent), nil)
	assert.True(t, errors.Is(err, imgerr.ErrNoColorsExtracted), "got %v", err)
}

type fixedQuantizer map[string]Swatch

func (q fixedQuantizer) Quantize(image.Image) (map[string]Swatch, error) {
	return q, nil
}

func TestExtractPalette_DominantPriority(t *testing.T) {
	q := fixedQuantizer{
		BucketLightMuted:  {R: 200.4, G: 190.6, B: 180, Population: 5},
		BucketDarkVibrant: {R: 10, G: 20.5, B: 300, Population: 1},
	}

	res, err := ExtractPalette(encodePNG(t, twoToneImage()), q)
	require.NoError(t, err)

	// darkVibrant outranks lightMuted
	assert.Equal(t, "#0A15FF", res.Dominant.Hex)
	require.Len(t, res.AllColors, 2)
	assert.Equal(t, BucketDarkVibrant, res.AllColors[0].Name)
	assert.Equal(t, RGBColor{200, 191, 180}, res.AllColors[1].RGB)
}

func TestEnsureQuantizable(t *testing.T) {
	img := createPatternImage(16, 16)

	pngData := encodePNG(t, img)
	out, err := EnsureQuantizable(pngData)
	require.NoError(t, err)
	assert.Equal(t, pngData, out)

	var buf bytes.Buffer
	require.NoError(t, bmp.Encode(&buf, img))
	out, err = EnsureQuantizable(buf.Bytes())
	require.NoError(t, err)
	_, format, err := image.DecodeConfig(bytes.NewReader(out))
	require.NoError(t, err)
	assert.Equal(t, "png", format)

	_, err = EnsureQuantizable([]byte("not an image"))
	assert.Equal(t, imgerr.UnsupportedFormat, imgerr.KindOf(err))
}

func TestRenderPalette(t *testing.T) {
	res, err := ExtractPalette(encodePNG(t, twoToneImage()), nil)
	require.NoError(t, err)

	data, err := RenderPalette(res)
	require.NoError(t, err)

	img, format := decodeBytes(t, data)
	assert.Equal(t, "png", format)

	rows := len(PaletteRows(res))
	w, h := PaletteCanvasSize(rows)
	assert.Equal(t, image.Rect(0, 0, w, h), img.Bounds())

	// first swatch shows the dominant color
	swatchX := w - palettePadding - paletteSwatchW/2
	swatchY := palettePadding + paletteRowHeight/2
	assert.Equal(t, res.Dominant.RGB.NRGBA(), nrgbaAt(img, swatchX, swatchY))
}

func TestPaletteCanvasSize_Linear(t *testing.T) {
	_, h1 := PaletteCanvasSize(1)
	_, h2 := PaletteCanvasSize(2)
	_, h7 := PaletteCanvasSize(7)
	assert.Equal(t, h2-h1, paletteRowHeight)
	assert.Equal(t, h1+6*paletteRowHeight, h7)
}

func TestVibrantQuantizer_SkipsTranslucentPixels(t *testing.T) {
	img := createInMemoryImage(100, 100, color.NRGBA{120, 110, 100, 100})
	for y := 0; y < 100; y++ {
		for x := 0; x < 50; x++ {
			img.Set(x, y, vividRed)
		}
	}

	swatches, err := VibrantQuantizer{}.Quantize(img)
	require.NoError(t, err)

	require.Len(t, swatches, 1)
	s, ok := swatches[BucketVibrant]
	require.True(t, ok)
	assert.Equal(t, RGBColor{230, 30, 30}, RGBFromFloats(s.R, s.G, s.B))
	assert.Equal(t, 5000, s.Population)
}
