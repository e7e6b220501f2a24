package imaging

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"testing"

	"github.com/ironsheep/image-studio-mcp/internal/imgerr"
)

func TestResolveFormat_Precedence(t *testing.T) {
	tests := []struct {
		name     string
		path     string
		explicit string
		def      Format
		want     Format
	}{
		{"explicit wins over extension", "out/a.png", "jpeg", FormatWebP, FormatJPEG},
		{"extension when no explicit", "out/a.png", "", FormatWebP, FormatPNG},
		{"jpg extension normalizes", "out/a.JPG", "", FormatWebP, FormatJPEG},
		{"unknown extension falls through", "out/a.gif", "", FormatAVIF, FormatAVIF},
		{"no path uses default", "", "", FormatWebP, FormatWebP},
		{"blank explicit is unset", "out/a.avif", "  ", FormatWebP, FormatAVIF},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ResolveFormat(tt.path, tt.explicit, tt.def)
			if err != nil {
				t.Fatalf("ResolveFormat(%q, %q, %q) error: %v", tt.path, tt.explicit, tt.def, err)
			}
			if got != tt.want {
				t.Errorf("ResolveFormat(%q, %q, %q) = %q, want %q", tt.path, tt.explicit, tt.def, got, tt.want)
			}
		})
	}
}

func TestResolveFormat_UnknownExplicitFails(t *testing.T) {
	for _, explicit := range []string{"gif", "heic", ".tiff"} {
		_, err := ResolveFormat("out/a.png", explicit, FormatWebP)
		if !errors.Is(err, imgerr.ErrUnsupportedFormat) {
			t.Errorf("ResolveFormat explicit %q: expected UnsupportedFormat, got %v", explicit, err)
		}
	}
}

func TestCorrectExtension(t *testing.T) {
	tests := []struct {
		path        string
		format      Format
		want        string
		wantChanged bool
	}{
		{"out/a.jpg", FormatPNG, "out/a.png", true},
		{"out/a.jpeg", FormatJPEG, "out/a.jpeg", false},
		{"out/a.webp", FormatWebP, "out/a.webp", false},
		{"out/a", FormatWebP, "out/a.webp", true},
		{"out/a.v2", FormatJPEG, "out/a.jpg", true},
		{"photos/pic.tiff", FormatWebP, "photos/pic.webp", true},
		{"out/a.gif", FormatPNG, "out/a.png", true},
		{"out/.cover", FormatPNG, "out/.cover.png", true},
	}

	for _, tt := range tests {
		got, changed := CorrectExtension(tt.path, tt.format)
		if got != tt.want || changed != tt.wantChanged {
			t.Errorf("CorrectExtension(%q, %s) = (%q, %v), want (%q, %v)",
				tt.path, tt.format, got, changed, tt.want, tt.wantChanged)
		}
	}
}

func TestNormalizeQuality(t *testing.T) {
	if q, err := NormalizeQuality(0, 0); err != nil || q != DefaultQuality {
		t.Errorf("NormalizeQuality(0, 0) = (%d, %v), want (%d, nil)", q, err, DefaultQuality)
	}
	if q, err := NormalizeQuality(0, 65); err != nil || q != 65 {
		t.Errorf("NormalizeQuality(0, 65) = (%d, %v), want (65, nil)", q, err)
	}
	for _, q := range []int{-1, 101} {
		_, err := NormalizeQuality(q, 80)
		if imgerr.KindOf(err) != imgerr.InvalidParameter {
			t.Errorf("NormalizeQuality(%d) kind = %q, want invalid_parameter", q, imgerr.KindOf(err))
		}
	}
}

func TestEncode_AllFormats(t *testing.T) {
	img := createPatternImage(32, 24)

	for _, f := range []Format{FormatJPEG, FormatPNG, FormatWebP, FormatAVIF} {
		t.Run(string(f), func(t *testing.T) {
			data, err := Encode(img, f, 75)
			if err != nil {
				t.Fatalf("Encode failed: %v", err)
			}
			cfg, name, err := image.DecodeConfig(bytes.NewReader(data))
			if err != nil {
				t.Fatalf("DecodeConfig failed: %v", err)
			}
			if name != string(f) {
				t.Errorf("decoded format: got %s, want %s", name, f)
			}
			if cfg.Width != 32 || cfg.Height != 24 {
				t.Errorf("dimensions: got %dx%d, want 32x24", cfg.Width, cfg.Height)
			}
		})
	}
}

func TestEncode_Unsupported(t *testing.T) {
	_, err := Encode(createInMemoryImage(4, 4, color.White), Format("heic"), 80)
	if !errors.Is(err, imgerr.ErrUnsupportedFormat) {
		t.Errorf("expected UnsupportedFormat, got %v", err)
	}
}
