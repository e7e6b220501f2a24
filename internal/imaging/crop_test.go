package imaging

import (
	"image/color"
	"strings"
	"testing"

	"github.com/ironsheep/image-studio-mcp/internal/imgerr"
)

func TestCropRegion(t *testing.T) {
	img := createPatternImage(100, 100)

	out, err := CropRegion(img, CropRect{Left: 50, Top: 0, Width: 50, Height: 50})
	if err != nil {
		t.Fatalf("CropRegion failed: %v", err)
	}

	if b := out.Bounds(); b.Dx() != 50 || b.Dy() != 50 {
		t.Errorf("dimensions: got %dx%d, want 50x50", b.Dx(), b.Dy())
	}
	// Top-right quadrant is green
	if c := nrgbaAt(out, 25, 25); c != (color.NRGBA{0, 255, 0, 255}) {
		t.Errorf("center pixel: got %v, want green", c)
	}
}

func TestCropRegion_FullImage(t *testing.T) {
	img := createInMemoryImage(40, 30, color.NRGBA{1, 2, 3, 255})

	out, err := CropRegion(img, CropRect{Width: 40, Height: 30})
	if err != nil {
		t.Fatalf("full-image crop should succeed: %v", err)
	}
	if b := out.Bounds(); b.Dx() != 40 || b.Dy() != 30 {
		t.Errorf("dimensions: got %dx%d, want 40x30", b.Dx(), b.Dy())
	}
}

func TestCropRegion_OutOfBounds(t *testing.T) {
	img := createInMemoryImage(100, 100, color.NRGBA{255, 0, 0, 255})

	tests := []struct {
		name    string
		rect    CropRect
		wantMsg string
	}{
		{"x negative", CropRect{Left: -1, Width: 50, Height: 50}, "negative"},
		{"y negative", CropRect{Top: -1, Width: 50, Height: 50}, "negative"},
		{"zero width", CropRect{Width: 0, Height: 50}, "positive"},
		{"exceeds width", CropRect{Left: 60, Width: 50, Height: 50}, "source width"},
		{"exceeds height", CropRect{Top: 51, Width: 10, Height: 50}, "source height"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := CropRegion(img, tt.rect)
			if err == nil {
				t.Fatal("CropRegion should fail for out-of-bounds rectangles")
			}
			if imgerr.KindOf(err) != imgerr.InvalidParameter {
				t.Errorf("kind: got %q, want invalid_parameter", imgerr.KindOf(err))
			}
			if !strings.Contains(err.Error(), tt.wantMsg) {
				t.Errorf("error %q should mention %q", err, tt.wantMsg)
			}
		})
	}
}
