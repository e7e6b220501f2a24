package imaging

import (
	"image"

	"github.com/disintegration/imaging"

	"github.com/ironsheep/image-studio-mcp/internal/imgerr"
)

// CropRegion extracts the width×height rectangle at (x, y).
//
// The rectangle is validated against the source before cropping; an
// out-of-range rectangle fails with InvalidParameter naming the bound it
// exceeds rather than being silently intersected.
func CropRegion(img image.Image, r CropRect) (*image.NRGBA, error) {
	if err := ValidateCrop(img.Bounds().Dx(), img.Bounds().Dy(), r); err != nil {
		return nil, err
	}
	return imaging.Crop(img, r.Rect(img.Bounds().Min)), nil
}

// ValidateCrop checks r against a srcW×srcH source.
func ValidateCrop(srcW, srcH int, r CropRect) error {
	if r.Left < 0 || r.Top < 0 {
		return imgerr.New(imgerr.InvalidParameter,
			"crop origin (%d,%d) must not be negative", r.Left, r.Top)
	}
	if r.Width <= 0 || r.Height <= 0 {
		return imgerr.New(imgerr.InvalidParameter,
			"crop size %dx%d must be positive", r.Width, r.Height)
	}
	if r.Left+r.Width > srcW {
		return imgerr.New(imgerr.InvalidParameter,
			"crop exceeds source width: x + width = %d > %d", r.Left+r.Width, srcW)
	}
	if r.Top+r.Height > srcH {
		return imgerr.New(imgerr.InvalidParameter,
			"crop exceeds source height: y + height = %d > %d", r.Top+r.Height, srcH)
	}
	return nil
}
