package imaging

import (
	"bytes"
	"image"
	"image/png"
	"path/filepath"
	"strings"

	"github.com/chai2010/webp"
	"github.com/disintegration/imaging"
	"github.com/gen2brain/avif"

	"github.com/ironsheep/image-studio-mcp/internal/imgerr"
)

// Format is an output container format.
type Format string

const (
	FormatWebP Format = "webp"
	FormatJPEG Format = "jpeg"
	FormatPNG  Format = "png"
	FormatAVIF Format = "avif"
)

// DefaultQuality is used when a request leaves quality unset.
const DefaultQuality = 80

// ParseFormat normalizes a format name or file extension ("jpg", ".JPEG").
// The second result is false for anything outside webp, jpeg, png, avif.
func ParseFormat(s string) (Format, bool) {
	s = strings.TrimPrefix(strings.ToLower(strings.TrimSpace(s)), ".")
	switch s {
	case "jpg", "jpeg":
		return FormatJPEG, true
	case "webp":
		return FormatWebP, true
	case "png":
		return FormatPNG, true
	case "avif":
		return FormatAVIF, true
	}
	return "", false
}

// ResolveFormat picks the output format. Precedence: an explicit format, then
// the output path's extension, then the configured default. An unrecognized
// extension falls through to the default; an unrecognized explicit format
// is an UnsupportedFormat error.
func ResolveFormat(outputPath, explicit string, configuredDefault Format) (Format, error) {
	if strings.TrimSpace(explicit) != "" {
		f, ok := ParseFormat(explicit)
		if !ok {
			return "", imgerr.New(imgerr.UnsupportedFormat,
				"unsupported output format %q (use webp, jpeg, png or avif)", explicit)
		}
		return f, nil
	}
	if outputPath != "" {
		if f, ok := ParseFormat(filepath.Ext(outputPath)); ok {
			return f, nil
		}
	}
	return configuredDefault, nil
}

// ExtensionFor returns the file extension (with dot) used for f.
func ExtensionFor(f Format) string {
	if f == FormatJPEG {
		return ".jpg"
	}
	return "." + string(f)
}

// MimeType returns the media type for f.
func MimeType(f Format) string {
	return "image/" + string(f)
}

// CorrectExtension rewrites path so its extension matches f, replacing
// whatever extension it had. It reports whether the path changed. A ".jpeg"
// path is accepted for jpeg as-is.
func CorrectExtension(path string, f Format) (string, bool) {
	ext := filepath.Ext(path)
	if cur, ok := ParseFormat(ext); ok && cur == f {
		return path, false
	}
	// a dotfile name like ".cover" has no extension to replace
	if ext != "" && ext != filepath.Base(path) {
		path = strings.TrimSuffix(path, ext)
	}
	return path + ExtensionFor(f), true
}

// NormalizeQuality clamps q into 1-100; zero selects def.
func NormalizeQuality(q, def int) (int, error) {
	if q == 0 {
		if def <= 0 {
			def = DefaultQuality
		}
		return def, nil
	}
	if q < 1 || q > 100 {
		return 0, imgerr.New(imgerr.InvalidParameter, "quality %d outside 1-100", q)
	}
	return q, nil
}

// Encode encodes img in format f.
func Encode(img image.Image, f Format, quality int) ([]byte, error) {
	var buf bytes.Buffer

	switch f {
	case FormatJPEG:
		if err := imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(quality)); err != nil {
			return nil, imgerr.Wrap(imgerr.EncodingFailure, err, "encode jpeg")
		}
	case FormatPNG:
		if err := imaging.Encode(&buf, img, imaging.PNG, imaging.PNGCompressionLevel(png.DefaultCompression)); err != nil {
			return nil, imgerr.Wrap(imgerr.EncodingFailure, err, "encode png")
		}
	case FormatWebP:
		if err := webp.Encode(&buf, img, &webp.Options{Quality: float32(quality)}); err != nil {
			return nil, imgerr.Wrap(imgerr.EncodingFailure, err, "encode webp")
		}
	case FormatAVIF:
		opts := avif.Options{Quality: quality, QualityAlpha: quality, Speed: 8}
		if err := avif.Encode(&buf, img, opts); err != nil {
			return nil, imgerr.Wrap(imgerr.EncodingFailure, err, "encode avif")
		}
	default:
		return nil, imgerr.New(imgerr.UnsupportedFormat, "unsupported output format: %q", string(f))
	}

	return buf.Bytes(), nil
}

// EncodedAsset is the final output of a pipeline run.
type EncodedAsset struct {
	Bytes  []byte `json:"-"`
	Format Format `json:"format"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
}

// EncodeAsset encodes img and records its dimensions.
func EncodeAsset(img image.Image, f Format, quality int) (*EncodedAsset, error) {
	data, err := Encode(img, f, quality)
	if err != nil {
		return nil, err
	}
	b := img.Bounds()
	return &EncodedAsset{Bytes: data, Format: f, Width: b.Dx(), Height: b.Dy()}, nil
}
