package imaging

import (
	"fmt"
	"image"
	"image/color"

	"github.com/disintegration/imaging"

	"github.com/ironsheep/image-studio-mcp/internal/imgerr"
)

// MaxPlaceholderSide bounds generated placeholder dimensions.
const MaxPlaceholderSide = 4096

var (
	defaultPlaceholderBackground = color.NRGBA{0xCC, 0xCC, 0xCC, 0xFF}
	defaultPlaceholderText       = color.NRGBA{0x66, 0x66, 0x66, 0xFF}
)

// PlaceholderSpec describes a generated placeholder.
type PlaceholderSpec struct {
	Width           int
	Height          int
	BackgroundColor string
	TextColor       string
	// Text replaces the default "{w} × {h}" label.
	Text string
	// Transparent yields an all-zero-alpha png and ignores the colors.
	Transparent bool
}

// Validate checks the dimensions.
func (s PlaceholderSpec) Validate() error {
	if s.Width <= 0 || s.Height <= 0 {
		return imgerr.New(imgerr.InvalidParameter, "placeholder size %dx%d must be positive", s.Width, s.Height)
	}
	if s.Width > MaxPlaceholderSide || s.Height > MaxPlaceholderSide {
		return imgerr.New(imgerr.InvalidParameter, "placeholder size %dx%d exceeds %d", s.Width, s.Height, MaxPlaceholderSide)
	}
	return nil
}

// Label returns the text drawn on a solid placeholder.
func (s PlaceholderSpec) Label() string {
	if s.Text != "" {
		return s.Text
	}
	return fmt.Sprintf("%d × %d", s.Width, s.Height)
}

// PlaceholderFormat returns png for transparent placeholders, otherwise the
// resolved format.
func PlaceholderFormat(s PlaceholderSpec, resolved Format) Format {
	if s.Transparent {
		return FormatPNG
	}
	return resolved
}

// RenderPlaceholder draws a solid rectangle with a centered bold label sized
// at min(w,h)/8, or an empty canvas when Transparent is set.
func RenderPlaceholder(s PlaceholderSpec) (*image.NRGBA, error) {
	if err := s.Validate(); err != nil {
		return nil, err
	}
	if s.Transparent {
		return image.NewNRGBA(image.Rect(0, 0, s.Width, s.Height)), nil
	}

	bg, err := parseColorOr(s.BackgroundColor, defaultPlaceholderBackground)
	if err != nil {
		return nil, imgerr.Wrap(imgerr.InvalidParameter, err, "background color")
	}
	fg, err := parseColorOr(s.TextColor, defaultPlaceholderText)
	if err != nil {
		return nil, imgerr.Wrap(imgerr.InvalidParameter, err, "text color")
	}

	canvas := imaging.New(s.Width, s.Height, bg)

	face, err := newFace("", true, float64(minInt(s.Width, s.Height))/8)
	if err != nil {
		return nil, imgerr.Wrap(imgerr.EncodingFailure, err, "load placeholder font")
	}
	defer face.Close()

	drawCenteredText(canvas, face, s.Label(), fg, canvas.Bounds())
	return canvas, nil
}

// FitPlaceholderPhoto fills a fetched photo to exactly w×h, covering the
// frame and cropping any overflow around the center.
func FitPlaceholderPhoto(photo image.Image, w, h int) *image.NRGBA {
	b := photo.Bounds()
	if b.Dx() == w && b.Dy() == h {
		return imaging.Clone(photo)
	}
	return imaging.Fill(photo, w, h, imaging.Center, imaging.Lanczos)
}
