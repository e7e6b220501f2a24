package imaging

import (
	"errors"
	"image/color"
	"testing"

	"github.com/ironsheep/image-studio-mcp/internal/imgerr"
)

func TestPlaceWatermark_BottomRight(t *testing.T) {
	left, top := PlaceWatermark(1000, 1000, 100, 100, PositionBottomRight, 0, 0)
	if left != 850 || top != 850 {
		t.Errorf("got (%d,%d), want (850,850)", left, top)
	}
}

func TestPlaceWatermark_Presets(t *testing.T) {
	tests := []struct {
		pos      Position
		wantLeft int
		wantTop  int
	}{
		{PositionTopLeft, 40, 20},
		{PositionTopRight, 660, 20},
		{PositionBottomLeft, 40, 280},
		{PositionBottomRight, 660, 280},
		{PositionCenter, 350, 150},
	}

	for _, tt := range tests {
		t.Run(string(tt.pos), func(t *testing.T) {
			left, top := PlaceWatermark(800, 400, 100, 100, tt.pos, 0, 0)
			if left != tt.wantLeft || top != tt.wantTop {
				t.Errorf("got (%d,%d), want (%d,%d)", left, top, tt.wantLeft, tt.wantTop)
			}
		})
	}
}

func TestPlaceWatermark_StaysInBounds(t *testing.T) {
	positions := []Position{PositionCenter, PositionTopLeft, PositionTopRight, PositionBottomLeft, PositionBottomRight, PositionCustom}
	customs := [][2]int{{-500, -500}, {0, 0}, {999, 999}, {10000, 3}}

	for _, pos := range positions {
		for imgW := 10; imgW <= 1000; imgW += 99 {
			for _, imgH := range []int{10, 333, 1000} {
				for _, wm := range [][2]int{{1, 1}, {10, 10}, {7, 3}} {
					for _, c := range customs {
						left, top := PlaceWatermark(imgW, imgH, wm[0], wm[1], pos, c[0], c[1])
						if left < 0 || top < 0 || left+wm[0] > imgW || top+wm[1] > imgH {
							t.Fatalf("%s %dx%d wm %dx%d custom %v: placed at (%d,%d)",
								pos, imgW, imgH, wm[0], wm[1], c, left, top)
						}
					}
				}
			}
		}
	}
}

func TestParsePosition(t *testing.T) {
	if p, err := ParsePosition(""); err != nil || p != PositionBottomRight {
		t.Errorf("empty position: got (%q, %v), want bottom-right", p, err)
	}
	if p, err := ParsePosition("Top-Left"); err != nil || p != PositionTopLeft {
		t.Errorf("Top-Left: got (%q, %v)", p, err)
	}
	if _, err := ParsePosition("middle"); imgerr.KindOf(err) != imgerr.InvalidParameter {
		t.Errorf("middle should be rejected, got %v", err)
	}
}

func TestTextMarkSize(t *testing.T) {
	w, h := TextMarkSize("abc", 20)
	if w != 56 || h != 44 {
		t.Errorf("got %dx%d, want 56x44", w, h)
	}
}

func TestDefaultFontSize(t *testing.T) {
	if fs := DefaultFontSize(1000, 400); fs != 20 {
		t.Errorf("got %v, want 20", fs)
	}
}

func TestWatermarkLongSide(t *testing.T) {
	tests := []struct {
		name string
		spec WatermarkSpec
		want int
	}{
		{"absolute wins", WatermarkSpec{SizeAbsolute: 77, SizePercent: 50}, 77},
		{"percent of short side", WatermarkSpec{SizePercent: 50}, 200},
		{"default 20 percent", WatermarkSpec{}, 80},
	}

	for _, tt := range tests {
		if got := WatermarkLongSide(tt.spec, 1000, 400); got != tt.want {
			t.Errorf("%s: got %d, want %d", tt.name, got, tt.want)
		}
	}
}

func TestApplyWatermark_MissingSource(t *testing.T) {
	base := createInMemoryImage(50, 50, color.White)

	_, _, err := ApplyWatermark(base, WatermarkSpec{Position: PositionCenter})
	if !errors.Is(err, imgerr.ErrMissingWatermarkSource) {
		t.Errorf("expected ErrMissingWatermarkSource, got %v", err)
	}
}

func TestApplyWatermark_Image(t *testing.T) {
	base := createInMemoryImage(200, 200, color.NRGBA{0, 0, 255, 255})
	mark := createInMemoryImage(100, 50, color.NRGBA{255, 0, 0, 255})

	out, placement, err := ApplyWatermark(base, WatermarkSpec{Image: mark, OpacityPercent: 50})
	if err != nil {
		t.Fatalf("ApplyWatermark failed: %v", err)
	}

	if placement.Kind != "image" || placement.Width != 40 || placement.Height != 20 {
		t.Errorf("placement: got %+v, want 40x20 image", placement)
	}
	if placement.Left != 150 || placement.Top != 170 {
		t.Errorf("position: got (%d,%d), want (150,170)", placement.Left, placement.Top)
	}

	c := nrgbaAt(out, 170, 180)
	if c.R < 100 || c.B < 100 || c.A != 255 {
		t.Errorf("half-opacity blend: got %v, want a red/blue mix", c)
	}
	if c := nrgbaAt(out, 10, 10); c != (color.NRGBA{0, 0, 255, 255}) {
		t.Errorf("outside watermark: got %v, want untouched base", c)
	}
}

func TestApplyWatermark_Text(t *testing.T) {
	base := createInMemoryImage(400, 200, color.NRGBA{0, 0, 0, 255})

	out, placement, err := ApplyWatermark(base, WatermarkSpec{
		Text:           "(c) Studio",
		Color:          "#FFFFFF",
		Position:       PositionTopLeft,
		OpacityPercent: 100,
	})
	if err != nil {
		t.Fatalf("ApplyWatermark failed: %v", err)
	}

	wantW, wantH := TextMarkSize("(c) Studio", DefaultFontSize(400, 200))
	if placement.Kind != "text" || placement.Width != wantW || placement.Height != wantH {
		t.Errorf("placement: got %+v, want %dx%d text", placement, wantW, wantH)
	}
	if placement.Left != 20 || placement.Top != 10 {
		t.Errorf("position: got (%d,%d), want (20,10)", placement.Left, placement.Top)
	}

	lit := 0
	for y := placement.Top; y < placement.Top+placement.Height; y++ {
		for x := placement.Left; x < placement.Left+placement.Width; x++ {
			if nrgbaAt(out, x, y).R > 128 {
				lit++
			}
		}
	}
	if lit == 0 {
		t.Error("expected rendered text pixels inside the watermark box")
	}
}
