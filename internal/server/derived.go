package server

import (
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"

	"github.com/ironsheep/image-studio-mcp/internal/imaging"
	"github.com/ironsheep/image-studio-mcp/internal/imgerr"
	"github.com/ironsheep/image-studio-mcp/internal/storage"
)

// Sources recorded in sidecars for generated assets.
const (
	sourceGenerated = "image-studio-mcp"
	sourcePicsum    = "Lorem Picsum"
)

// === Placeholder Handler ===

type imagePlaceholderArgs struct {
	outputArgs

	Width           int    `json:"width"`
	Height          int    `json:"height"`
	BackgroundColor string `json:"background_color"`
	TextColor       string `json:"text_color"`
	Text            string `json:"text"`
	Transparent     bool   `json:"transparent"`

	// Photo selects fetched stock imagery instead of a solid rectangle.
	Photo     bool `json:"photo"`
	Blur      int  `json:"blur"`
	Grayscale bool `json:"grayscale"`
}

type placeholderOutput struct {
	*assetOutput

	Kind     string   `json:"kind"` // "solid", "transparent" or "photo"
	PhotoURL string   `json:"photo_url,omitempty"`
	Warnings []string `json:"warnings,omitempty"`
}

func (s *Server) handleImagePlaceholder(ctx context.Context, args json.RawMessage) (interface{}, error) {
	var a imagePlaceholderArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	spec := imaging.PlaceholderSpec{
		Width:           a.Width,
		Height:          a.Height,
		BackgroundColor: a.BackgroundColor,
		TextColor:       a.TextColor,
		Text:            a.Text,
		Transparent:     a.Transparent,
	}
	if err := spec.Validate(); err != nil {
		return nil, err
	}
	quality, err := imaging.NormalizeQuality(a.Quality, s.cfg.Output.DefaultQuality)
	if err != nil {
		return nil, err
	}

	target := s.outputTarget(a.OutputPath)
	resolved, err := imaging.ResolveFormat(target, a.Format, s.options().DefaultFormat)
	if err != nil {
		return nil, err
	}
	format := imaging.PlaceholderFormat(spec, resolved)

	out := &placeholderOutput{Kind: "solid"}
	if format != resolved {
		out.Warnings = append(out.Warnings,
			fmt.Sprintf("transparent placeholders are png; format changed from %s", resolved))
	}

	credit := storage.Credit{Source: sourceGenerated}
	var asset *imaging.EncodedAsset
	switch {
	case a.Photo && !a.Transparent:
		photo, err := s.fetcher.RandomImage(ctx, a.Width, a.Height, a.Blur, a.Grayscale)
		if err != nil {
			return nil, err
		}
		src, err := imaging.DecodeSource(photo.Bytes)
		if err != nil {
			return nil, err
		}
		if asset, err = imaging.EncodeAsset(imaging.FitPlaceholderPhoto(src.Image, a.Width, a.Height), format, quality); err != nil {
			return nil, err
		}
		out.Kind, out.PhotoURL = "photo", photo.URL
		credit = storage.Credit{Source: sourcePicsum, PhotoID: photo.ID, PhotoURL: photo.URL}

	default:
		if a.Photo {
			out.Warnings = append(out.Warnings, "transparent placeholders ignore the photo option")
		}
		if a.Transparent {
			out.Kind = "transparent"
		}
		img, err := imaging.RenderPlaceholder(spec)
		if err != nil {
			return nil, err
		}
		if asset, err = imaging.EncodeAsset(img, format, quality); err != nil {
			return nil, err
		}
	}

	path := s.generatedPath("placeholder", format)
	if target != "" {
		var changed bool
		if path, changed = imaging.CorrectExtension(target, format); changed {
			out.Warnings = append(out.Warnings, fmt.Sprintf("output path changed to %s to match %s", path, format))
		}
	}
	if out.assetOutput, err = s.writeAsset(path, asset, quality, credit); err != nil {
		return nil, err
	}
	return out, nil
}

// === Favicon Handler ===

type imageFaviconArgs struct {
	sourceArgs

	OutputDir string `json:"output_dir"`
	Sizes     []int  `json:"sizes"`
}

type faviconFile struct {
	Path string `json:"path"`
	Size int    `json:"size"`
	Role string `json:"role"`
}

type faviconOutput struct {
	OutputDir     string        `json:"output_dir"`
	Files         []faviconFile `json:"files"`
	ManifestSizes []int         `json:"manifest_sizes,omitempty"`
	Links         []string      `json:"links"`
}

func (s *Server) handleImageFavicon(args json.RawMessage) (interface{}, error) {
	var a imageFaviconArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	src, credit, err := s.loadSource(a.sourceArgs)
	if err != nil {
		return nil, err
	}
	set, err := imaging.GenerateFavicons(src.Image, a.Sizes)
	if err != nil {
		return nil, err
	}

	dir := s.cfg.Output.Dir
	if a.OutputDir != "" {
		dir = s.outputTarget(a.OutputDir)
	}
	out := &faviconOutput{OutputDir: dir, ManifestSizes: set.ManifestSizes, Links: set.Links}

	for _, icon := range append(set.Icons, set.Root) {
		path := filepath.Join(dir, icon.Name)
		asset := &imaging.EncodedAsset{Bytes: icon.Bytes, Format: imaging.FormatPNG, Width: icon.Size, Height: icon.Size}
		if _, err := s.writeAsset(path, asset, 0, credit); err != nil {
			return nil, err
		}
		out.Files = append(out.Files, faviconFile{Path: path, Size: icon.Size, Role: icon.Role})
	}
	return out, nil
}

// === Palette Handler ===

type imagePaletteArgs struct {
	sourceArgs

	// Render writes a png swatch chart next to the text result.
	Render     bool   `json:"render"`
	OutputPath string `json:"output_path"`
}

type paletteOutput struct {
	*imaging.PaletteResult

	ImagePath string   `json:"image_path,omitempty"`
	Warnings  []string `json:"warnings,omitempty"`
}

func (s *Server) handleImagePalette(args json.RawMessage) (interface{}, error) {
	var a imagePaletteArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	src, credit, err := s.loadSource(a.sourceArgs)
	if err != nil {
		return nil, err
	}
	res, err := imaging.ExtractPalette(src.Bytes, s.quantizer)
	if err != nil {
		return nil, err
	}

	out := &paletteOutput{PaletteResult: res}
	if !a.Render {
		return out, nil
	}

	path, err := s.renderPalette(res, a.OutputPath, credit)
	if err != nil {
		// the colors are the result; the chart is optional
		s.logger.WithError(err).Warn("palette chart not written")
		out.Warnings = append(out.Warnings, "palette image unavailable: "+err.Error())
		return out, nil
	}
	out.ImagePath = path
	return out, nil
}

func (s *Server) renderPalette(res *imaging.PaletteResult, outputPath string, credit storage.Credit) (string, error) {
	data, err := imaging.RenderPalette(res)
	if err != nil {
		return "", err
	}
	path := s.generatedPath("palette", imaging.FormatPNG)
	if outputPath != "" {
		path, _ = imaging.CorrectExtension(s.outputTarget(outputPath), imaging.FormatPNG)
	}
	w, h := imaging.PaletteCanvasSize(len(imaging.PaletteRows(res)))
	asset := &imaging.EncodedAsset{Bytes: data, Format: imaging.FormatPNG, Width: w, Height: h}
	if _, err := s.writeAsset(path, asset, 0, credit); err != nil {
		return "", imgerr.Wrap(imgerr.KindOf(err), err, "write palette image")
	}
	return path, nil
}
