package imaging

import (
	"image"
	"image/color"
	"math"
	"strings"
	"unicode/utf8"

	"github.com/disintegration/imaging"

	"github.com/ironsheep/image-studio-mcp/internal/imgerr"
)

// Position is a watermark anchor.
type Position string

const (
	PositionCenter      Position = "center"
	PositionTopLeft     Position = "top-left"
	PositionTopRight    Position = "top-right"
	PositionBottomLeft  Position = "bottom-left"
	PositionBottomRight Position = "bottom-right"
	PositionCustom      Position = "custom"
)

// ParsePosition validates p; empty selects bottom-right.
func ParsePosition(p string) (Position, error) {
	switch pos := Position(strings.ToLower(strings.TrimSpace(p))); pos {
	case "":
		return PositionBottomRight, nil
	case PositionCenter, PositionTopLeft, PositionTopRight, PositionBottomLeft, PositionBottomRight, PositionCustom:
		return pos, nil
	}
	return "", imgerr.New(imgerr.InvalidParameter, "unknown watermark position %q", p)
}

// Watermark defaults.
const (
	DefaultWatermarkOpacity = 50
	defaultWatermarkPercent = 20.0
	watermarkMarginFraction = 0.05
	textWidthPerChar        = 0.6
	textLineHeight          = 1.2
	textPaddingFraction     = 0.5
	defaultFontSizeDivisor  = 20
)

// WatermarkSpec describes a text or image watermark. Exactly one of Text and
// Image must be set; ImagePath is informational once the caller has loaded
// the file into Image.
type WatermarkSpec struct {
	Text       string
	Color      string
	FontSize   float64
	FontFamily string

	ImagePath string
	Image     image.Image

	Position Position
	CustomX  int
	CustomY  int

	// SizeAbsolute is the watermark's long side in pixels.
	SizeAbsolute int
	// SizePercent is the long side as a percentage of min(imgW, imgH).
	SizePercent float64

	// OpacityPercent is 1-100; zero selects DefaultWatermarkOpacity.
	OpacityPercent int
}

// Validate checks that a source is present and the numeric ranges.
func (s WatermarkSpec) Validate() error {
	if strings.TrimSpace(s.Text) == "" && s.Image == nil {
		if s.ImagePath != "" {
			return imgerr.New(imgerr.NotFound, "watermark image %s was not loaded", s.ImagePath)
		}
		return imgerr.ErrMissingWatermarkSource
	}
	if s.OpacityPercent < 0 || s.OpacityPercent > 100 {
		return imgerr.New(imgerr.InvalidParameter, "watermark opacity %d outside 0-100", s.OpacityPercent)
	}
	if s.SizePercent < 0 || s.SizePercent > 100 {
		return imgerr.New(imgerr.InvalidParameter, "watermark size percent %.1f outside 0-100", s.SizePercent)
	}
	if s.SizeAbsolute < 0 || s.FontSize < 0 {
		return imgerr.New(imgerr.InvalidParameter, "watermark size must not be negative")
	}
	return nil
}

func (s WatermarkSpec) opacity() float64 {
	if s.OpacityPercent == 0 {
		return DefaultWatermarkOpacity / 100.0
	}
	return float64(s.OpacityPercent) / 100
}

// WatermarkPlacement reports where the watermark landed.
type WatermarkPlacement struct {
	Kind   string `json:"kind"` // "text" or "image"
	Left   int    `json:"left"`
	Top    int    `json:"top"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
}

// ApplyWatermark renders the watermark described by spec and composites it
// over base with "over" blending.
func ApplyWatermark(base image.Image, spec WatermarkSpec) (*image.NRGBA, *WatermarkPlacement, error) {
	if err := spec.Validate(); err != nil {
		return nil, nil, err
	}
	pos := spec.Position
	if pos == "" {
		pos = PositionBottomRight
	}

	b := base.Bounds()
	imgW, imgH := b.Dx(), b.Dy()

	var (
		mark *image.NRGBA
		kind string
		err  error
	)
	if strings.TrimSpace(spec.Text) != "" {
		kind = "text"
		mark, err = renderTextMark(spec, imgW, imgH)
	} else {
		kind = "image"
		mark = scaleImageMark(spec, imgW, imgH)
	}
	if err != nil {
		return nil, nil, err
	}

	mb := mark.Bounds()
	left, top := PlaceWatermark(imgW, imgH, mb.Dx(), mb.Dy(), pos, spec.CustomX, spec.CustomY)

	out := imaging.Overlay(base, mark, image.Pt(left, top), 1.0)
	return out, &WatermarkPlacement{Kind: kind, Left: left, Top: top, Width: mb.Dx(), Height: mb.Dy()}, nil
}

// TextMarkSize returns the label box for text at fontSize:
// (len*fs*0.6 + 2p, fs*1.2 + 2p) with p = fs*0.5.
func TextMarkSize(text string, fontSize float64) (w, h int) {
	pad := fontSize * textPaddingFraction
	n := float64(utf8.RuneCountInString(text))
	w = int(math.Ceil(n*fontSize*textWidthPerChar + pad*2))
	h = int(math.Ceil(fontSize*textLineHeight + pad*2))
	return w, h
}

// DefaultFontSize is min(imgW, imgH)/20.
func DefaultFontSize(imgW, imgH int) float64 {
	return math.Max(1, float64(minInt(imgW, imgH))/defaultFontSizeDivisor)
}

func renderTextMark(spec WatermarkSpec, imgW, imgH int) (*image.NRGBA, error) {
	fs := spec.FontSize
	if fs <= 0 {
		fs = DefaultFontSize(imgW, imgH)
	}
	fill, err := parseColorOr(spec.Color, color.NRGBA{255, 255, 255, 255})
	if err != nil {
		return nil, imgerr.Wrap(imgerr.InvalidParameter, err, "watermark color")
	}
	// opacity is carried by the label's own alpha
	fill.A = clampChannel(float64(fill.A) * spec.opacity())

	face, err := newFace(spec.FontFamily, false, fs)
	if err != nil {
		return nil, imgerr.Wrap(imgerr.EncodingFailure, err, "load watermark font")
	}
	defer face.Close()

	w, h := TextMarkSize(spec.Text, fs)
	label := image.NewNRGBA(image.Rect(0, 0, w, h))
	drawCenteredText(label, face, spec.Text, fill, label.Bounds())
	return label, nil
}

// WatermarkLongSide picks the target long side: absolute size, then a
// percentage of min(imgW, imgH), then 20% of it.
func WatermarkLongSide(spec WatermarkSpec, imgW, imgH int) int {
	if spec.SizeAbsolute > 0 {
		return spec.SizeAbsolute
	}
	pct := spec.SizePercent
	if pct <= 0 {
		pct = defaultWatermarkPercent
	}
	return atLeastOne(roundInt(float64(minInt(imgW, imgH)) * pct / 100))
}

func scaleImageMark(spec WatermarkSpec, imgW, imgH int) *image.NRGBA {
	long := WatermarkLongSide(spec, imgW, imgH)
	wb := spec.Image.Bounds()

	var scaled *image.NRGBA
	if wb.Dx() >= wb.Dy() {
		scaled = imaging.Resize(spec.Image, long, 0, imaging.Lanczos)
	} else {
		scaled = imaging.Resize(spec.Image, 0, long, imaging.Lanczos)
	}

	if op := spec.opacity(); op < 1 {
		scaled = destinationIn(scaled, uniformAlpha(op))
	}
	return scaled
}

// PlaceWatermark computes the top-left corner for a wmW×wmH mark on an
// imgW×imgH image and clamps it so the mark stays inside the image.
// Corner presets keep a margin of 5% of the respective dimension.
func PlaceWatermark(imgW, imgH, wmW, wmH int, pos Position, customX, customY int) (left, top int) {
	marginX := roundInt(float64(imgW) * watermarkMarginFraction)
	marginY := roundInt(float64(imgH) * watermarkMarginFraction)

	switch pos {
	case PositionCenter:
		left, top = (imgW-wmW)/2, (imgH-wmH)/2
	case PositionTopLeft:
		left, top = marginX, marginY
	case PositionTopRight:
		left, top = imgW-wmW-marginX, marginY
	case PositionBottomLeft:
		left, top = marginX, imgH-wmH-marginY
	case PositionCustom:
		left, top = customX, customY
	default:
		left, top = imgW-wmW-marginX, imgH-wmH-marginY
	}

	left = clampInt(left, 0, maxInt(0, imgW-wmW))
	top = clampInt(top, 0, maxInt(0, imgH-wmH))
	return left, top
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
