package imaging

import (
	"bytes"
	"image"
	"image/color"
	_ "image/gif"  // Register GIF format decoder
	_ "image/jpeg" // Register JPEG format decoder
	_ "image/png"  // Register PNG format decoder
	"math"

	"github.com/disintegration/imaging"
	_ "github.com/gen2brain/avif" // Register AVIF format decoder
	"github.com/rwcarlsen/goexif/exif"
	_ "golang.org/x/image/bmp"  // Register BMP format decoder
	_ "golang.org/x/image/tiff" // Register TIFF format decoder
	_ "golang.org/x/image/webp" // Register WebP format decoder

	"github.com/ironsheep/image-studio-mcp/internal/imgerr"
)

// defaultDensity is reported when the source carries no resolution tag.
const defaultDensity = 72

// SourceImage is a decoded source plus the metadata callers report back.
//
// A SourceImage is owned by the call that decoded it and is never mutated
// after DecodeSource returns. Image has EXIF orientation already applied, so
// Width and Height are the displayed dimensions.
type SourceImage struct {
	Bytes []byte      `json:"-"`
	Image image.Image `json:"-"`

	Width  int `json:"width"`
	Height int `json:"height"`

	// Format is the decoder name: "jpeg", "png", "gif", "webp", "avif", "bmp" or "tiff".
	Format string `json:"format"`

	HasAlpha bool `json:"has_alpha"`

	// ColorSpace is "srgb", "b-w" (grayscale) or "cmyk".
	ColorSpace string `json:"color_space"`

	Channels int `json:"channels"`

	// Density is the horizontal resolution in DPI (72 when unknown).
	Density int `json:"density"`

	// Orientation is the EXIF orientation tag (1-8, 1 when absent).
	Orientation int `json:"orientation"`

	SizeBytes int `json:"size_bytes"`
}

// DecodeSource decodes data and collects its metadata.
//
// # Errors
//
//   - InvalidParameter if data is empty
//   - UnsupportedFormat if no registered decoder recognizes data
//   - EncodingFailure if the decoder rejects the pixel data
func DecodeSource(data []byte) (*SourceImage, error) {
	if len(data) == 0 {
		return nil, imgerr.New(imgerr.InvalidParameter, "source image is empty")
	}

	_, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, imgerr.Wrap(imgerr.UnsupportedFormat, err, "unrecognized source image format")
	}

	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, imgerr.Wrap(imgerr.EncodingFailure, err, "failed to decode %s image", format)
	}

	orientation, density := readEXIF(data)
	colorSpace, channels, hasAlpha := describeModel(img)
	if format == "jpeg" && hasAlpha {
		// auto-orientation re-encodes into NRGBA; JPEG itself never has alpha
		channels, hasAlpha = 3, false
	}
	bounds := img.Bounds()

	return &SourceImage{
		Bytes:       data,
		Image:       img,
		Width:       bounds.Dx(),
		Height:      bounds.Dy(),
		Format:      format,
		HasAlpha:    hasAlpha,
		ColorSpace:  colorSpace,
		Channels:    channels,
		Density:     density,
		Orientation: orientation,
		SizeBytes:   len(data),
	}, nil
}

// readEXIF returns the orientation and horizontal density, falling back to
// 1 and 72 for sources without an EXIF block.
func readEXIF(data []byte) (orientation, density int) {
	orientation, density = 1, defaultDensity

	x, err := exif.Decode(bytes.NewReader(data))
	if err != nil {
		return orientation, density
	}

	if tag, err := x.Get(exif.Orientation); err == nil {
		if v, err := tag.Int(0); err == nil && v >= 1 && v <= 8 {
			orientation = v
		}
	}
	if tag, err := x.Get(exif.XResolution); err == nil {
		if num, den, err := tag.Rat2(0); err == nil && den != 0 && num > 0 {
			density = int(math.Round(float64(num) / float64(den)))
		}
	}
	return orientation, density
}

// describeModel derives color space, channel count and alpha presence from
// the decoded image's concrete type.
func describeModel(img image.Image) (colorSpace string, channels int, hasAlpha bool) {
	switch m := img.(type) {
	case *image.Gray, *image.Gray16:
		return "b-w", 1, false
	case *image.CMYK:
		return "cmyk", 4, false
	case *image.YCbCr:
		return "srgb", 3, false
	case *image.NYCbCrA:
		return "srgb", 4, true
	case *image.Paletted:
		for _, c := range m.Palette {
			if _, _, _, a := c.RGBA(); a != 0xffff {
				return "srgb", 4, true
			}
		}
		return "srgb", 3, false
	}

	// RGBA/NRGBA and 16-bit variants carry an alpha channel even when every
	// pixel is opaque.
	if img.ColorModel() == color.GrayModel || img.ColorModel() == color.Gray16Model {
		return "b-w", 1, false
	}
	return "srgb", 4, true
}
