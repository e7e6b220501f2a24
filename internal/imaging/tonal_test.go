package imaging

import (
	"image"
	"image/color"
	"reflect"
	"testing"
)

func gradientImage(w, h int) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetNRGBA(x, y, color.NRGBA{
				R: uint8(x * 255 / (w - 1)),
				G: uint8(y * 255 / (h - 1)),
				B: uint8((x + y) * 127 / (w + h - 2)),
				A: 255,
			})
		}
	}
	return img
}

func assertImagesClose(t *testing.T, got, want image.Image, tol int) {
	t.Helper()
	b := want.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			g, w := nrgbaAt(got, x, y), nrgbaAt(want, x, y)
			if channelDiff(g.R, w.R) > tol || channelDiff(g.G, w.G) > tol || channelDiff(g.B, w.B) > tol || g.A != w.A {
				t.Fatalf("pixel (%d,%d): got %v, want %v", x, y, g, w)
			}
		}
	}
}

func TestTonal_IdentityAtZero(t *testing.T) {
	img := gradientImage(32, 32)

	assertImagesClose(t, Contrast(img, 0), img, 0)
	assertImagesClose(t, Brightness(img, 0), img, 0)
	assertImagesClose(t, Saturation(img, 0), img, 1)

	out, applied, err := ApplyAdjustments(img, Adjustments{})
	if err != nil {
		t.Fatalf("ApplyAdjustments failed: %v", err)
	}
	if len(applied) != 0 {
		t.Errorf("no filters expected, got %v", applied)
	}
	assertImagesClose(t, out, img, 0)
}

func TestBrightness(t *testing.T) {
	img := createInMemoryImage(4, 4, color.NRGBA{60, 100, 200, 255})

	if c := nrgbaAt(Brightness(img, 100), 1, 1); c != (color.NRGBA{120, 200, 255, 255}) {
		t.Errorf("brightness 100: got %v, want doubled and clamped", c)
	}
	if c := nrgbaAt(Brightness(img, -100), 1, 1); c != (color.NRGBA{0, 0, 0, 255}) {
		t.Errorf("brightness -100: got %v, want black", c)
	}
}

func TestSaturation_FullDesaturation(t *testing.T) {
	img := createInMemoryImage(4, 4, color.NRGBA{200, 40, 40, 255})

	c := nrgbaAt(Saturation(img, -100), 2, 2)
	if channelDiff(c.R, c.G) > 1 || channelDiff(c.G, c.B) > 1 {
		t.Errorf("saturation -100 should yield gray, got %v", c)
	}
}

func TestContrastCoefficients(t *testing.T) {
	tests := []struct {
		c     int
		wantA float64
		wantB float64
	}{
		{0, 1, 0},
		{50, 1.5, -0.25},
		{100, 2, -0.5},
		{-50, 0.5, 0.125},
		{-100, 0, 0.25},
	}

	for _, tt := range tests {
		a, b := ContrastCoefficients(tt.c)
		if a != tt.wantA || b != tt.wantB {
			t.Errorf("ContrastCoefficients(%d) = (%v, %v), want (%v, %v)", tt.c, a, b, tt.wantA, tt.wantB)
		}
	}
}

func TestContrast_MidGrayFixedForPositive(t *testing.T) {
	img := createInMemoryImage(2, 2, color.NRGBA{128, 128, 128, 255})
	c := nrgbaAt(Contrast(img, 60), 0, 0)
	if channelDiff(c.R, 128) > 1 {
		t.Errorf("mid-gray should stay near 128, got %v", c)
	}
}

func TestSepia(t *testing.T) {
	img := createInMemoryImage(4, 4, color.NRGBA{128, 128, 128, 255})
	c := nrgbaAt(Sepia(img), 0, 0)

	// tone*0.4 + gray*0.6
	want := color.NRGBA{122, 103, 85, 255}
	if channelDiff(c.R, want.R) > 2 || channelDiff(c.G, want.G) > 2 || channelDiff(c.B, want.B) > 2 {
		t.Errorf("sepia: got %v, want about %v", c, want)
	}
}

func TestSepia_KeepsTransparency(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 2, 2))
	if a := nrgbaAt(Sepia(img), 0, 0).A; a != 0 {
		t.Errorf("transparent pixel alpha: got %d, want 0", a)
	}
}

func TestApplyAdjustments_Order(t *testing.T) {
	img := gradientImage(16, 16)

	_, applied, err := ApplyAdjustments(img, Adjustments{
		Contrast:   10,
		Sepia:      true,
		Brightness: -20,
		Blur:       0.1,
		Grayscale:  true,
		Saturation: 5,
		Sharpen:    2,
	})
	if err != nil {
		t.Fatalf("ApplyAdjustments failed: %v", err)
	}

	want := []string{"blur(0.3)", "sharpen(2.0)", "grayscale", "sepia", "brightness(-20)", "saturation(5)", "contrast(10)"}
	if !reflect.DeepEqual(applied, want) {
		t.Errorf("applied: got %v, want %v", applied, want)
	}
}

func TestApplyAdjustments_Validation(t *testing.T) {
	for _, a := range []Adjustments{{Brightness: 101}, {Contrast: -101}, {Saturation: 200}, {Blur: -1}} {
		if _, _, err := ApplyAdjustments(gradientImage(4, 4), a); err == nil {
			t.Errorf("%+v should fail validation", a)
		}
	}
}
