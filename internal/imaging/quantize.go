package imaging

import (
	"bytes"
	"image"
	"math"

	"github.com/cenkalti/dominantcolor"
	"github.com/disintegration/imaging"

	"github.com/ironsheep/image-studio-mcp/internal/imgerr"
)

// Palette bucket names, in dominant-color priority order.
const (
	BucketVibrant      = "vibrant"
	BucketMuted        = "muted"
	BucketDarkVibrant  = "darkVibrant"
	BucketLightVibrant = "lightVibrant"
	BucketDarkMuted    = "darkMuted"
	BucketLightMuted   = "lightMuted"
)

// BucketOrder is the fixed presentation and dominant-selection order.
var BucketOrder = []string{
	BucketVibrant,
	BucketMuted,
	BucketDarkVibrant,
	BucketLightVibrant,
	BucketDarkMuted,
	BucketLightMuted,
}

// Swatch is one quantized color with its pixel population. Channels are
// float so other quantizers can report unrounded averages.
type Swatch struct {
	R, G, B    float64
	Population int
}

// Quantizer reduces an image to named swatches. Buckets it cannot fill are
// omitted from the map.
type Quantizer interface {
	Quantize(img image.Image) (map[string]Swatch, error)
}

// EnsureQuantizable returns data unchanged for png, jpeg and gif sources and
// transcodes anything else the decoders understand (webp, avif, bmp, tiff)
// to png.
func EnsureQuantizable(data []byte) ([]byte, error) {
	_, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, imgerr.Wrap(imgerr.UnsupportedFormat, err, "unrecognized palette source format")
	}
	switch format {
	case "png", "jpeg", "gif":
		return data, nil
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, imgerr.Wrap(imgerr.EncodingFailure, err, "decode %s for palette", format)
	}
	return Encode(img, FormatPNG, 0)
}

// swatchTarget describes the HSL window of one bucket.
type swatchTarget struct {
	name                         string
	targetLuma, minLuma, maxLuma float64
	targetSat, minSat, maxSat    float64
}

// Targets are generated in this order; each swatch fills at most one bucket.
var swatchTargets = []swatchTarget{
	{BucketVibrant, 0.5, 0.3, 0.7, 1.0, 0.35, 1},
	{BucketLightVibrant, 0.74, 0.55, 1, 1.0, 0.35, 1},
	{BucketDarkVibrant, 0.26, 0, 0.45, 1.0, 0.35, 1},
	{BucketMuted, 0.5, 0.3, 0.7, 0.3, 0, 0.4},
	{BucketLightMuted, 0.74, 0.55, 1, 0.3, 0, 0.4},
	{BucketDarkMuted, 0.26, 0, 0.45, 0.3, 0, 0.4},
}

const (
	weightSaturation = 3.0
	weightLuma       = 6.5
	weightPopulation = 0.5

	// quantizeSampleSide bounds the image the clusters are built from.
	quantizeSampleSide = 256
	// minSwatchAlpha skips mostly transparent pixels.
	minSwatchAlpha = 125
	// quantizeClusters is the k-means cluster count handed to dominantcolor.
	quantizeClusters = 16
)

// VibrantQuantizer clusters the image with dominantcolor's k-means and
// picks, for each bucket, the cluster whose HSL saturation and lightness
// best match the bucket's target, weighted by population.
type VibrantQuantizer struct{}

type candidate struct {
	rank           int
	swatch         Swatch
	sat, lightness float64
}

// Quantize implements Quantizer. Results are deterministic for a given image.
func (VibrantQuantizer) Quantize(img image.Image) (map[string]Swatch, error) {
	b := img.Bounds()
	if b.Empty() {
		return nil, imgerr.New(imgerr.InvalidParameter, "palette source is empty")
	}
	if b.Dx() > quantizeSampleSide || b.Dy() > quantizeSampleSide {
		img = imaging.Fit(img, quantizeSampleSide, quantizeSampleSide, imaging.Box)
	}
	sample := imaging.Clone(img)
	for i := 3; i < len(sample.Pix); i += 4 {
		if sample.Pix[i] < minSwatchAlpha {
			sample.Pix[i] = 0
		}
	}
	pixels := float64(sample.Bounds().Dx() * sample.Bounds().Dy())

	// clusters arrive sorted by weight; rank breaks score ties
	var cands []candidate
	for rank, c := range dominantcolor.FindWeight(sample, quantizeClusters) {
		pop := int(math.Round(c.Weight * pixels))
		if pop == 0 {
			continue
		}
		s := Swatch{R: float64(c.R), G: float64(c.G), B: float64(c.B), Population: pop}
		_, sat, l := toColorful(c.R, c.G, c.B).Hsl()
		cands = append(cands, candidate{rank: rank, swatch: s, sat: sat, lightness: l})
	}

	maxPop := 0
	for _, c := range cands {
		if c.swatch.Population > maxPop {
			maxPop = c.swatch.Population
		}
	}

	out := make(map[string]Swatch)
	used := make(map[int]bool)
	for _, t := range swatchTargets {
		best, bestScore := -1, math.Inf(-1)
		for i, c := range cands {
			if used[c.rank] {
				continue
			}
			if c.sat < t.minSat || c.sat > t.maxSat || c.lightness < t.minLuma || c.lightness > t.maxLuma {
				continue
			}
			if score := swatchScore(t, c, maxPop); score > bestScore {
				best, bestScore = i, score
			}
		}
		if best >= 0 {
			used[cands[best].rank] = true
			out[t.name] = cands[best].swatch
		}
	}
	return out, nil
}

func swatchScore(t swatchTarget, c candidate, maxPop int) float64 {
	pop := 0.0
	if maxPop > 0 {
		pop = float64(c.swatch.Population) / float64(maxPop)
	}
	sum := weightSaturation*(1-math.Abs(c.sat-t.targetSat)) +
		weightLuma*(1-math.Abs(c.lightness-t.targetLuma)) +
		weightPopulation*pop
	return sum / (weightSaturation + weightLuma + weightPopulation)
}
