package imaging

import (
	"fmt"
	"image"
	"math"
	"strconv"
	"strings"

	"github.com/disintegration/imaging"

	"github.com/ironsheep/image-studio-mcp/internal/imgerr"
)

// AspectRatio is a W:H pair of positive integers.
type AspectRatio struct {
	W int `json:"w"`
	H int `json:"h"`
}

// ParseAspectRatio parses "W:H", e.g. "16:9".
func ParseAspectRatio(s string) (AspectRatio, error) {
	parts := strings.Split(strings.TrimSpace(s), ":")
	if len(parts) != 2 {
		return AspectRatio{}, imgerr.New(imgerr.InvalidParameter, "aspect ratio %q must have the form W:H", s)
	}
	w, errW := strconv.Atoi(strings.TrimSpace(parts[0]))
	h, errH := strconv.Atoi(strings.TrimSpace(parts[1]))
	if errW != nil || errH != nil || w <= 0 || h <= 0 {
		return AspectRatio{}, imgerr.New(imgerr.InvalidParameter, "aspect ratio %q must be two positive integers", s)
	}
	return AspectRatio{W: w, H: h}, nil
}

// Ratio returns W/H.
func (a AspectRatio) Ratio() float64 {
	return float64(a.W) / float64(a.H)
}

func (a AspectRatio) String() string {
	return fmt.Sprintf("%d:%d", a.W, a.H)
}

// TransformRequest collects the sizing, encoding and filter options of one
// call. The sizing fields may all be set at once; Plan decides which wins.
type TransformRequest struct {
	Width       int
	Height      int
	MaxWidth    int
	AspectRatio *AspectRatio
	Format      string
	Quality     int
	Circle      bool

	// PreserveSize skips geometry entirely (adjust and watermark tools).
	PreserveSize bool

	Adjustments Adjustments
}

// SizingKind tags the variant of Sizing.
type SizingKind int

const (
	NoSizing SizingKind = iota
	ExactDims
	ExactWidth
	ExactHeight
	AspectRatioBound
	MaxWidthOnly
)

func (k SizingKind) String() string {
	switch k {
	case ExactDims:
		return "exact-dims"
	case ExactWidth:
		return "exact-width"
	case ExactHeight:
		return "exact-height"
	case AspectRatioBound:
		return "aspect-ratio"
	case MaxWidthOnly:
		return "max-width"
	default:
		return "none"
	}
}

// Sizing is the single resolved interpretation of a request's sizing fields.
type Sizing struct {
	Kind     SizingKind
	Width    int
	Height   int
	MaxWidth int
	Ratio    AspectRatio
}

// ResolveSizing applies the precedence rules once:
//
//  1. width and height → ExactDims
//  2. width or height → ExactWidth / ExactHeight
//  3. aspect ratio (or circle, which implies 1:1) → AspectRatioBound
//  4. otherwise → MaxWidthOnly with the request's or the default max width
//
// Circle mode outranks exact dimensions; its square edge is the first of
// maxWidth, width, height and the default max width that is set.
func ResolveSizing(req TransformRequest, defaultMaxWidth int) Sizing {
	if req.PreserveSize {
		return Sizing{Kind: NoSizing}
	}

	maxWidth := req.MaxWidth
	if maxWidth <= 0 {
		maxWidth = defaultMaxWidth
	}

	if req.Circle {
		edge := firstPositive(req.MaxWidth, req.Width, req.Height, defaultMaxWidth)
		return Sizing{Kind: AspectRatioBound, MaxWidth: edge, Ratio: AspectRatio{W: 1, H: 1}}
	}

	switch {
	case req.Width > 0 && req.Height > 0:
		return Sizing{Kind: ExactDims, Width: req.Width, Height: req.Height}
	case req.Width > 0:
		return Sizing{Kind: ExactWidth, Width: req.Width}
	case req.Height > 0:
		return Sizing{Kind: ExactHeight, Height: req.Height}
	case req.AspectRatio != nil:
		return Sizing{Kind: AspectRatioBound, MaxWidth: maxWidth, Ratio: *req.AspectRatio}
	case maxWidth > 0:
		return Sizing{Kind: MaxWidthOnly, MaxWidth: maxWidth}
	default:
		return Sizing{Kind: NoSizing}
	}
}

// Operation is the geometric operation a plan performs.
type Operation string

const (
	OpNone           Operation = "none"
	OpResizeFit      Operation = "resize-fit"
	OpResizeFill     Operation = "resize-fill"
	OpCropThenResize Operation = "crop-then-resize"
)

// CropRect is a crop rectangle in source pixel coordinates.
type CropRect struct {
	Left   int `json:"left"`
	Top    int `json:"top"`
	Width  int `json:"width"`
	Height int `json:"height"`
}

// Rect returns the rectangle relative to an origin.
func (c CropRect) Rect(origin image.Point) image.Rectangle {
	return image.Rect(c.Left, c.Top, c.Left+c.Width, c.Top+c.Height).Add(origin)
}

// GeometryPlan is the resolved crop/resize sequence for one request.
type GeometryPlan struct {
	Operation    Operation `json:"operation"`
	Sizing       string    `json:"sizing"`
	Crop         *CropRect `json:"crop,omitempty"`
	TargetWidth  int       `json:"target_width"`
	TargetHeight int       `json:"target_height"`

	// WithoutEnlargement is set when the target was capped at the crop's
	// natural resolution.
	WithoutEnlargement bool `json:"without_enlargement,omitempty"`

	// Distorts is set for resize-fill targets whose ratio differs from the
	// source, i.e. the output is stretched.
	Distorts bool `json:"distorts,omitempty"`

	// Circle and ForcedFormat are set in circle mode: the mask runs after
	// the resize and the output must be png.
	Circle       bool   `json:"circle,omitempty"`
	ForcedFormat Format `json:"forced_format,omitempty"`
}

// Plan computes the geometry plan for an origW×origH source.
func Plan(origW, origH int, req TransformRequest, defaultMaxWidth int) GeometryPlan {
	s := ResolveSizing(req, defaultMaxWidth)
	plan := planSizing(origW, origH, s)
	plan.Sizing = s.Kind.String()

	if req.Circle {
		plan.Circle = true
		plan.ForcedFormat = FormatPNG
	}
	return plan
}

func planSizing(origW, origH int, s Sizing) GeometryPlan {
	switch s.Kind {
	case ExactDims:
		return GeometryPlan{
			Operation:    OpResizeFill,
			TargetWidth:  s.Width,
			TargetHeight: s.Height,
			Distorts:     s.Width*origH != s.Height*origW,
		}

	case ExactWidth:
		return GeometryPlan{
			Operation:    OpResizeFit,
			TargetWidth:  s.Width,
			TargetHeight: atLeastOne(roundInt(float64(origH) * float64(s.Width) / float64(origW))),
		}

	case ExactHeight:
		return GeometryPlan{
			Operation:    OpResizeFit,
			TargetWidth:  atLeastOne(roundInt(float64(origW) * float64(s.Height) / float64(origH))),
			TargetHeight: s.Height,
		}

	case AspectRatioBound:
		return planAspect(origW, origH, s.Ratio, s.MaxWidth)

	case MaxWidthOnly:
		if origW <= s.MaxWidth {
			return GeometryPlan{Operation: OpNone, TargetWidth: origW, TargetHeight: origH}
		}
		return GeometryPlan{
			Operation:    OpResizeFit,
			TargetWidth:  s.MaxWidth,
			TargetHeight: atLeastOne(roundInt(float64(origH) * float64(s.MaxWidth) / float64(origW))),
		}
	}

	return GeometryPlan{Operation: OpNone, TargetWidth: origW, TargetHeight: origH}
}

// planAspect centers a crop at the target ratio and resizes it to
// (maxWidth, round(maxWidth/ratio)), never upscaling past the crop.
func planAspect(origW, origH int, ar AspectRatio, maxWidth int) GeometryPlan {
	target := ar.Ratio()
	original := float64(origW) / float64(origH)

	cropW, cropH := origW, origH
	switch {
	case original > target:
		cropW = roundInt(float64(origH) * target)
	case original < target:
		cropH = roundInt(float64(origW) / target)
	}
	cropW = clampInt(cropW, 1, origW)
	cropH = clampInt(cropH, 1, origH)

	plan := GeometryPlan{Operation: OpCropThenResize}
	if cropW != origW || cropH != origH {
		plan.Crop = &CropRect{
			Left:   (origW - cropW) / 2,
			Top:    (origH - cropH) / 2,
			Width:  cropW,
			Height: cropH,
		}
	}

	if maxWidth <= 0 || maxWidth > cropW {
		plan.TargetWidth, plan.TargetHeight = cropW, cropH
		plan.WithoutEnlargement = maxWidth > cropW
		return plan
	}
	plan.TargetWidth = maxWidth
	plan.TargetHeight = atLeastOne(roundInt(float64(maxWidth) / target))
	return plan
}

// ApplyPlan executes a plan against img.
func ApplyPlan(img image.Image, p GeometryPlan) *image.NRGBA {
	switch p.Operation {
	case OpResizeFit, OpResizeFill:
		return imaging.Resize(img, p.TargetWidth, p.TargetHeight, imaging.Lanczos)

	case OpCropThenResize:
		out := imaging.Clone(img)
		if p.Crop != nil {
			out = imaging.Crop(img, p.Crop.Rect(img.Bounds().Min))
		}
		b := out.Bounds()
		if b.Dx() != p.TargetWidth || b.Dy() != p.TargetHeight {
			out = imaging.Resize(out, p.TargetWidth, p.TargetHeight, imaging.Lanczos)
		}
		return out
	}
	return imaging.Clone(img)
}

func roundInt(v float64) int {
	return int(math.Round(v))
}

func atLeastOne(v int) int {
	if v < 1 {
		return 1
	}
	return v
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func firstPositive(vals ...int) int {
	for _, v := range vals {
		if v > 0 {
			return v
		}
	}
	return 0
}
