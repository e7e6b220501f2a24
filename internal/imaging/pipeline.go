package imaging

import (
	"fmt"
	"image"
	"math"

	"github.com/ironsheep/image-studio-mcp/internal/imgerr"
)

// Options are the configured defaults a pipeline run falls back to.
type Options struct {
	DefaultFormat   Format
	DefaultQuality  int
	DefaultMaxWidth int
}

func (o Options) format() Format {
	if o.DefaultFormat == "" {
		return FormatWebP
	}
	return o.DefaultFormat
}

// Result is the outcome of Process.
type Result struct {
	Asset     *EncodedAsset       `json:"asset"`
	Plan      GeometryPlan        `json:"plan"`
	Filters   []string            `json:"filters,omitempty"`
	Watermark *WatermarkPlacement `json:"watermark,omitempty"`
	Warnings  []string            `json:"warnings,omitempty"`
	// OutputPath is the caller's path with its extension matched to the
	// final format; empty when no path was given.
	OutputPath string `json:"output_path,omitempty"`
	Quality    int    `json:"quality"`
}

// Process runs one request against src: geometry plan, tonal filters,
// circle mask, watermark, then encoding. It has no side effects; writing
// Asset to OutputPath is left to the caller.
func Process(src *SourceImage, req TransformRequest, wm *WatermarkSpec, outputPath string, opts Options) (*Result, error) {
	if err := req.Adjustments.Validate(); err != nil {
		return nil, err
	}
	quality, err := NormalizeQuality(req.Quality, opts.DefaultQuality)
	if err != nil {
		return nil, err
	}
	if req.AspectRatio != nil && (req.AspectRatio.W <= 0 || req.AspectRatio.H <= 0) {
		return nil, imgerr.New(imgerr.InvalidParameter, "aspect ratio %s must be two positive integers", req.AspectRatio)
	}
	if wm != nil {
		if err := wm.Validate(); err != nil {
			return nil, err
		}
	}

	format, err := ResolveFormat(outputPath, req.Format, opts.format())
	if err != nil {
		return nil, err
	}
	res := &Result{Quality: quality}

	res.Plan = Plan(src.Width, src.Height, req, opts.DefaultMaxWidth)
	if res.Plan.ForcedFormat != "" && res.Plan.ForcedFormat != format {
		res.Warnings = append(res.Warnings,
			fmt.Sprintf("circle output needs transparency; format changed from %s to %s", format, res.Plan.ForcedFormat))
		format = res.Plan.ForcedFormat
	}
	if res.Plan.Distorts {
		res.Warnings = append(res.Warnings,
			fmt.Sprintf("resizing %dx%d to %dx%d does not preserve the aspect ratio; the output is stretched",
				src.Width, src.Height, res.Plan.TargetWidth, res.Plan.TargetHeight))
	}

	var img image.Image = ApplyPlan(src.Image, res.Plan)

	img, res.Filters, err = ApplyAdjustments(img, req.Adjustments)
	if err != nil {
		return nil, err
	}

	if res.Plan.Circle {
		img = CircleMask(img)
	}

	if wm != nil {
		img, res.Watermark, err = ApplyWatermark(img, *wm)
		if err != nil {
			return nil, err
		}
	}

	res.Asset, err = EncodeAsset(img, format, quality)
	if err != nil {
		return nil, err
	}

	if outputPath != "" {
		path, changed := CorrectExtension(outputPath, format)
		if changed {
			res.Warnings = append(res.Warnings, fmt.Sprintf("output path changed to %s to match %s", path, format))
		}
		res.OutputPath = path
	}
	return res, nil
}

// SizeComparison reports how an encoded output compares to its source.
// SavedBytes is negative when the output grew.
type SizeComparison struct {
	OriginalSize  int     `json:"original_size"`
	OptimizedSize int     `json:"optimized_size"`
	SavedBytes    int     `json:"saved_bytes"`
	SavedPercent  float64 `json:"saved_percent"`
}

// CompareSizes computes the comparison; the percentage is rounded to one
// decimal.
func CompareSizes(original, optimized int) SizeComparison {
	c := SizeComparison{
		OriginalSize:  original,
		OptimizedSize: optimized,
		SavedBytes:    original - optimized,
	}
	if original > 0 {
		c.SavedPercent = math.Round(float64(c.SavedBytes)/float64(original)*1000) / 10
	}
	return c
}

// OptimizeResult adds the size comparison to a Result.
type OptimizeResult struct {
	*Result
	SizeComparison
}

// Optimize re-encodes src bounded by maxWidth (never enlarging) and reports
// the size difference.
func Optimize(src *SourceImage, format string, quality, maxWidth int, outputPath string, opts Options) (*OptimizeResult, error) {
	req := TransformRequest{Format: format, Quality: quality, MaxWidth: maxWidth}
	res, err := Process(src, req, nil, outputPath, opts)
	if err != nil {
		return nil, err
	}
	return &OptimizeResult{
		Result:         res,
		SizeComparison: CompareSizes(src.SizeBytes, len(res.Asset.Bytes)),
	}, nil
}

// Crop cuts rect out of src and encodes it without resizing.
func Crop(src *SourceImage, rect CropRect, format string, quality int, outputPath string, opts Options) (*Result, error) {
	q, err := NormalizeQuality(quality, opts.DefaultQuality)
	if err != nil {
		return nil, err
	}
	f, err := ResolveFormat(outputPath, format, opts.format())
	if err != nil {
		return nil, err
	}
	cropped, err := CropRegion(src.Image, rect)
	if err != nil {
		return nil, err
	}

	res := &Result{
		Plan: GeometryPlan{
			Operation:    OpCropThenResize,
			Sizing:       NoSizing.String(),
			Crop:         &rect,
			TargetWidth:  rect.Width,
			TargetHeight: rect.Height,
		},
		Quality: q,
	}
	res.Asset, err = EncodeAsset(cropped, f, q)
	if err != nil {
		return nil, err
	}
	if outputPath != "" {
		res.OutputPath, _ = CorrectExtension(outputPath, f)
	}
	return res, nil
}
