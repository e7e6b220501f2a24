package imaging

import (
	"fmt"
	"image"
	"image/color"
	"math"

	"github.com/anthonynsimon/bild/adjust"
	"github.com/disintegration/imaging"
	colorful "github.com/lucasb-eyer/go-colorful"

	"github.com/ironsheep/image-studio-mcp/internal/imgerr"
)

// Sigma bounds for blur and sharpen. Smaller sigmas are raised to the
// minimum the convolution kernel handles stably.
const (
	MinSigma = 0.3
	MaxSigma = 1000
)

// sepiaTone is composited at sepiaOpacity over the grayscale image.
var sepiaTone = color.NRGBA{R: 0x70, G: 0x42, B: 0x14, A: 0xff}

const sepiaOpacity = 0.4

// Adjustments are the tonal filters of a request. Zero values are no-ops.
type Adjustments struct {
	Blur       float64 `json:"blur,omitempty"`
	Sharpen    float64 `json:"sharpen,omitempty"`
	Grayscale  bool    `json:"grayscale,omitempty"`
	Sepia      bool    `json:"sepia,omitempty"`
	Brightness int     `json:"brightness,omitempty"` // -100..100
	Saturation int     `json:"saturation,omitempty"` // -100..100
	Contrast   int     `json:"contrast,omitempty"`   // -100..100
}

// IsZero reports whether no filter is requested.
func (a Adjustments) IsZero() bool {
	return a == Adjustments{}
}

// Validate checks the percentage ranges and that sigmas are not negative.
func (a Adjustments) Validate() error {
	for _, p := range []struct {
		name string
		v    int
	}{{"brightness", a.Brightness}, {"saturation", a.Saturation}, {"contrast", a.Contrast}} {
		if p.v < -100 || p.v > 100 {
			return imgerr.New(imgerr.InvalidParameter, "%s %d outside -100..100", p.name, p.v)
		}
	}
	if a.Blur < 0 || a.Sharpen < 0 {
		return imgerr.New(imgerr.InvalidParameter, "blur and sharpen sigma must not be negative")
	}
	return nil
}

// ApplyAdjustments runs the requested filters in the fixed order
// blur → sharpen → grayscale → sepia → brightness/saturation → contrast and
// returns the result with one token per applied filter, in application order.
func ApplyAdjustments(img image.Image, a Adjustments) (image.Image, []string, error) {
	if err := a.Validate(); err != nil {
		return nil, nil, err
	}

	applied := []string{}
	out := img

	if a.Blur > 0 {
		sigma := clampSigma(a.Blur)
		out = imaging.Blur(out, sigma)
		applied = append(applied, fmt.Sprintf("blur(%.1f)", sigma))
	}
	if a.Sharpen > 0 {
		sigma := clampSigma(a.Sharpen)
		out = imaging.Sharpen(out, sigma)
		applied = append(applied, fmt.Sprintf("sharpen(%.1f)", sigma))
	}
	if a.Grayscale {
		out = imaging.Grayscale(out)
		applied = append(applied, "grayscale")
	}
	if a.Sepia {
		out = Sepia(out)
		applied = append(applied, "sepia")
	}
	if a.Brightness != 0 {
		out = Brightness(out, a.Brightness)
		applied = append(applied, fmt.Sprintf("brightness(%d)", a.Brightness))
	}
	if a.Saturation != 0 {
		out = Saturation(out, a.Saturation)
		applied = append(applied, fmt.Sprintf("saturation(%d)", a.Saturation))
	}
	if a.Contrast != 0 {
		out = Contrast(out, a.Contrast)
		applied = append(applied, fmt.Sprintf("contrast(%d)", a.Contrast))
	}

	return out, applied, nil
}

func clampSigma(s float64) float64 {
	return math.Min(math.Max(s, MinSigma), MaxSigma)
}

// Sepia desaturates img and composites the sepia tone over it:
// out = tone*0.4 + gray*0.6.
func Sepia(img image.Image) *image.NRGBA {
	gray := imaging.Grayscale(img)
	b := gray.Bounds()
	tone := imaging.New(b.Dx(), b.Dy(), sepiaTone)
	// keep the source alpha: tint only where the image has coverage
	tinted := imaging.Overlay(gray, tone, image.Pt(0, 0), sepiaOpacity)
	for i := 3; i < len(tinted.Pix); i += 4 {
		tinted.Pix[i] = gray.Pix[i]
	}
	return tinted
}

// BrightnessFactor maps -100..100 to the multiplier 1 + b/100.
func BrightnessFactor(b int) float64 {
	return 1 + float64(b)/100
}

// SaturationFactor maps -100..100 to the multiplier 1 + s/100.
func SaturationFactor(s int) float64 {
	return 1 + float64(s)/100
}

// ContrastCoefficients returns (a, b) of out = a*in + b on normalized
// [0,1] channels: a = 1 + c/100; b = -0.5*(a-1) for c ≥ 0, else 0.25*(1-a).
func ContrastCoefficients(c int) (a, b float64) {
	a = 1 + float64(c)/100
	if c >= 0 {
		return a, -0.5 * (a - 1)
	}
	return a, 0.25 * (1 - a)
}

// Brightness multiplies every color channel by BrightnessFactor(b):
// 0 is the identity, 100 doubles, -100 yields black.
func Brightness(img image.Image, b int) *image.NRGBA {
	f := BrightnessFactor(b)
	return adjustNRGBA(img, func(c color.NRGBA) color.NRGBA {
		c.R = clampChannel(float64(c.R) * f)
		c.G = clampChannel(float64(c.G) * f)
		c.B = clampChannel(float64(c.B) * f)
		return c
	})
}

// Saturation scales HSL saturation by SaturationFactor(s): -100 is fully
// desaturated, 100 doubles saturation.
func Saturation(img image.Image, s int) *image.NRGBA {
	f := SaturationFactor(s)
	return adjustNRGBA(img, func(c color.NRGBA) color.NRGBA {
		h, sat, l := toColorful(c.R, c.G, c.B).Hsl()
		r, g, b := colorful.Hsl(h, math.Min(sat*f, 1), l).Clamped().RGB255()
		return color.NRGBA{R: r, G: g, B: b, A: c.A}
	})
}

// Contrast applies the linear transform from ContrastCoefficients(c).
func Contrast(img image.Image, c int) *image.NRGBA {
	a, b := ContrastCoefficients(c)
	lin := func(v uint8) uint8 {
		return clampChannel((a*float64(v)/255 + b) * 255)
	}
	return adjustNRGBA(img, func(px color.NRGBA) color.NRGBA {
		px.R, px.G, px.B = lin(px.R), lin(px.G), lin(px.B)
		return px
	})
}

// adjustNRGBA runs fn over straight-alpha pixels. bild hands out
// premultiplied color.RGBA values, so translucent pixels are converted
// around fn; fully transparent pixels are left untouched.
func adjustNRGBA(img image.Image, fn func(color.NRGBA) color.NRGBA) *image.NRGBA {
	rgba := adjust.Apply(img, func(c color.RGBA) color.RGBA {
		if c.A == 0 {
			return c
		}
		n := color.NRGBAModel.Convert(c).(color.NRGBA)
		n = fn(n)
		r, g, b, a := n.RGBA()
		return color.RGBA{R: uint8(r >> 8), G: uint8(g >> 8), B: uint8(b >> 8), A: uint8(a >> 8)}
	})
	return imaging.Clone(rgba)
}
