package imaging

import (
	"image"
	"image/color"
	"image/draw"

	"github.com/disintegration/imaging"
	"golang.org/x/image/vector"
)

// kappa places cubic Bézier control points so four segments approximate a
// circle.
const kappa = 0.5522847498

// CircleMask square-crops img around its center, resizes it to an exact
// square if needed, and keeps only the inscribed circle. Pixels outside the
// circle become fully transparent; the result must be encoded as png.
func CircleMask(img image.Image) *image.NRGBA {
	b := img.Bounds()
	size := b.Dx()
	if b.Dy() < size {
		size = b.Dy()
	}

	square := imaging.CropCenter(img, size, size)
	if sb := square.Bounds(); sb.Dx() != size || sb.Dy() != size {
		square = imaging.Resize(square, size, size, imaging.Lanczos)
	}

	mask := circleAlpha(size)
	return destinationIn(square, mask)
}

// circleAlpha rasterizes a centered circle of radius size/2 into an alpha
// mask with anti-aliased edges.
func circleAlpha(size int) *image.Alpha {
	r := vector.NewRasterizer(size, size)
	c := float32(size) / 2
	rad := float32(size) / 2
	k := rad * kappa

	r.MoveTo(c+rad, c)
	r.CubeTo(c+rad, c+k, c+k, c+rad, c, c+rad)
	r.CubeTo(c-k, c+rad, c-rad, c+k, c-rad, c)
	r.CubeTo(c-rad, c-k, c-k, c-rad, c, c-rad)
	r.CubeTo(c+k, c-rad, c+rad, c-k, c+rad, c)
	r.ClosePath()

	mask := image.NewAlpha(image.Rect(0, 0, size, size))
	r.Draw(mask, mask.Bounds(), image.Opaque, image.Point{})
	return mask
}

// uniformAlpha is a mask scaling every pixel's alpha by opacity in [0,1].
func uniformAlpha(opacity float64) image.Image {
	return image.NewUniform(color.Alpha{A: clampChannel(opacity * 255)})
}

// destinationIn keeps src's color and multiplies its alpha by the mask's.
func destinationIn(src image.Image, mask image.Image) *image.NRGBA {
	b := src.Bounds()
	dst := image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.DrawMask(dst, dst.Bounds(), src, b.Min, mask, image.Point{}, draw.Src)
	return dst
}
