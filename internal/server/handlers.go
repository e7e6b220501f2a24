package server

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/mitchellh/mapstructure"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/ironsheep/image-studio-mcp/internal/imaging"
	"github.com/ironsheep/image-studio-mcp/internal/imgerr"
	"github.com/ironsheep/image-studio-mcp/internal/storage"
	"github.com/ironsheep/image-studio-mcp/internal/telemetry"
)

// ToolCallParams represents the parameters for a tools/call MCP request.
type ToolCallParams struct {
	// Name is the tool to invoke (e.g., "image_process", "image_crop").
	Name string `json:"name"`

	// Arguments contains the tool-specific parameters as JSON.
	Arguments json.RawMessage `json:"arguments"`
}

// toolError is the data member of a failed tools/call response.
type toolError struct {
	Kind    imgerr.Kind `json:"kind"`
	Message string      `json:"message"`
}

// handleToolsCall processes a tools/call request and executes the specified tool.
//
// The response wraps the tool result in MCP's content format:
//
//	{
//	  "content": [{"type": "text", "text": "<JSON result>"}]
//	}
//
// Tool execution errors return a JSON-RPC error response with code -32000
// whose data carries the error kind.
func (s *Server) handleToolsCall(ctx context.Context, req *MCPRequest) *MCPResponse {
	var params ToolCallParams
	if err := json.Unmarshal(req.Params, &params); err != nil {
		return s.errorResponse(req.ID, -32602, "Invalid params", err.Error())
	}

	ctx, span := telemetry.Tracer().Start(ctx, "tools/call "+params.Name)
	span.SetAttributes(attribute.String("mcp.tool", params.Name))
	defer span.End()

	start := time.Now()
	result, err := s.executeTool(ctx, params.Name, params.Arguments)
	elapsed := time.Since(start)
	s.metrics.ObserveToolCall(params.Name, elapsed, err)

	entry := s.logger.WithFields(logrus.Fields{
		"tool":     params.Name,
		"duration": elapsed.String(),
	})
	if err != nil {
		kind := imgerr.KindOf(err)
		if kind == "" {
			kind = imgerr.InvalidParameter
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, string(kind))
		entry.WithError(err).WithField("kind", kind).Warn("tool call failed")
		return s.errorResponse(req.ID, -32000, "Tool execution failed", toolError{Kind: kind, Message: err.Error()})
	}
	entry.Info("tool call completed")

	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result: map[string]interface{}{
			"content": []map[string]interface{}{
				{
					"type": "text",
					"text": mustMarshalJSON(result),
				},
			},
		},
	}
}

// executeTool dispatches tool execution to the appropriate handler function.
//
// Each tool handler:
//  1. Decodes arguments leniently (numbers may arrive as strings)
//  2. Loads the source from a path or inline base64 data
//  3. Runs the imaging pipeline
//  4. Writes the asset (and its sidecar when enabled)
//  5. Returns the result or error
func (s *Server) executeTool(ctx context.Context, name string, args json.RawMessage) (interface{}, error) {
	switch name {
	case "image_info":
		return s.handleImageInfo(args)

	// Transforms
	case "image_process":
		return s.handleImageProcess(args)
	case "image_optimize":
		return s.handleImageOptimize(args)
	case "image_crop":
		return s.handleImageCrop(args)
	case "image_adjust":
		return s.handleImageAdjust(args)
	case "image_circle":
		return s.handleImageCircle(args)
	case "image_watermark":
		return s.handleImageWatermark(args)

	// Derived assets
	case "image_placeholder":
		return s.handleImagePlaceholder(ctx, args)
	case "image_favicon":
		return s.handleImageFavicon(args)
	case "image_palette":
		return s.handleImagePalette(args)

	default:
		return nil, imgerr.New(imgerr.InvalidParameter, "unknown tool: %s", name)
	}
}

// errorResponse creates a JSON-RPC error response with the given details.
func (s *Server) errorResponse(id interface{}, code int, message string, data interface{}) *MCPResponse {
	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      id,
		Error: &MCPError{
			Code:    code,
			Message: message,
			Data:    data,
		},
	}
}

// mustMarshalJSON converts a value to pretty-printed JSON string.
// Panics are suppressed; on marshal failure, returns an empty string.
func mustMarshalJSON(v interface{}) string {
	b, _ := json.MarshalIndent(v, "", "  ")
	return string(b)
}

// decodeArgs decodes tool arguments into out. Decoding is weakly typed so
// "80" and 80.0 both fill an int field; embedded structs are flattened.
func decodeArgs(raw json.RawMessage, out interface{}) error {
	input := map[string]interface{}{}
	if len(raw) > 0 && string(raw) != "null" {
		if err := json.Unmarshal(raw, &input); err != nil {
			return imgerr.Wrap(imgerr.InvalidParameter, err, "arguments must be a JSON object")
		}
	}

	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		WeaklyTypedInput: true,
		TagName:          "json",
		Squash:           true,
		Result:           out,
	})
	if err != nil {
		return imgerr.Wrap(imgerr.InvalidParameter, err, "prepare argument decoder")
	}
	if err := dec.Decode(input); err != nil {
		return imgerr.Wrap(imgerr.InvalidParameter, err, "invalid arguments")
	}
	return nil
}

// === Source and output helpers ===

// sourceArgs selects the input image: a file path or inline base64 data.
type sourceArgs struct {
	Path string `json:"path"`
	Data string `json:"data"`
}

// outputArgs are the encoding options shared by every writing tool.
type outputArgs struct {
	OutputPath string `json:"output_path"`
	Format     string `json:"format"`
	Quality    int    `json:"quality"`
}

// loadSource reads and decodes the source and returns the credit a sidecar
// would record for it.
func (s *Server) loadSource(a sourceArgs) (*imaging.SourceImage, storage.Credit, error) {
	var (
		data   []byte
		credit storage.Credit
		err    error
	)
	switch {
	case a.Path != "" && a.Data != "":
		return nil, credit, imgerr.New(imgerr.InvalidParameter, "provide either path or data, not both")
	case a.Path != "":
		data, err = s.store.ReadSource(a.Path)
		credit = storage.Credit{Source: "local file " + filepath.Base(a.Path)}
	case a.Data != "":
		data, err = s.decodeInline(a.Data)
		credit = storage.Credit{Source: "inline data"}
	default:
		return nil, credit, imgerr.New(imgerr.InvalidParameter, "a source path or data is required")
	}
	if err != nil {
		return nil, credit, err
	}

	src, err := imaging.DecodeSource(data)
	if err != nil {
		return nil, credit, err
	}
	return src, credit, nil
}

// decodeInline decodes base64 image data, accepting a data: URL prefix.
func (s *Server) decodeInline(data string) ([]byte, error) {
	if strings.HasPrefix(data, "data:") {
		if i := strings.Index(data, ","); i >= 0 {
			data = data[i+1:]
		}
	}
	data = strings.TrimSpace(data)

	if limit := s.cfg.Input.MaxBytes; limit > 0 && int64(base64.StdEncoding.DecodedLen(len(data))) > limit+2 {
		return nil, imgerr.New(imgerr.InvalidParameter, "inline image exceeds the %d byte limit", limit)
	}
	out, err := base64.StdEncoding.DecodeString(data)
	if err != nil {
		return nil, imgerr.Wrap(imgerr.InvalidParameter, err, "data is not valid base64")
	}
	return out, nil
}

func (s *Server) options() imaging.Options {
	f, ok := imaging.ParseFormat(s.cfg.Output.DefaultFormat)
	if !ok {
		f = imaging.FormatWebP
	}
	return imaging.Options{
		DefaultFormat:   f,
		DefaultQuality:  s.cfg.Output.DefaultQuality,
		DefaultMaxWidth: s.cfg.Output.DefaultMaxWidth,
	}
}

// outputTarget places a relative output path under the configured output
// directory. An empty path stays empty so the format can be resolved first.
func (s *Server) outputTarget(p string) string {
	if p == "" || filepath.IsAbs(p) || s.cfg.Output.Dir == "" {
		return p
	}
	return filepath.Join(s.cfg.Output.Dir, p)
}

// generatedPath names an output the caller did not name.
func (s *Server) generatedPath(prefix string, f imaging.Format) string {
	name := fmt.Sprintf("%s-%s%s", prefix, s.now().UTC().Format("20060102-150405.000000000"), imaging.ExtensionFor(f))
	return s.outputTarget(name)
}

// assetOutput is the common part of every written-asset response.
type assetOutput struct {
	Path        string `json:"path"`
	Format      string `json:"format"`
	MimeType    string `json:"mime_type"`
	Width       int    `json:"width"`
	Height      int    `json:"height"`
	SizeBytes   int    `json:"size_bytes"`
	Quality     int    `json:"quality,omitempty"`
	SidecarPath string `json:"sidecar_path,omitempty"`
}

// writeAsset embeds EXIF attribution into jpeg output when enabled, writes
// the asset and, when metadata persistence is on, its sidecar.
func (s *Server) writeAsset(path string, asset *imaging.EncodedAsset, quality int, credit storage.Credit) (*assetOutput, error) {
	data := asset.Bytes
	if asset.Format == imaging.FormatJPEG && s.cfg.Output.EmbedEXIF {
		var err error
		if data, err = imaging.EmbedEXIF(data, exifFields(credit)); err != nil {
			return nil, err
		}
	}

	if err := s.store.WriteAsset(path, data); err != nil {
		return nil, err
	}
	s.metrics.ObserveAsset(string(asset.Format), len(data))

	out := &assetOutput{
		Path:      path,
		Format:    string(asset.Format),
		MimeType:  imaging.MimeType(asset.Format),
		Width:     asset.Width,
		Height:    asset.Height,
		SizeBytes: len(data),
		Quality:   quality,
	}

	if s.cfg.Output.SaveMetadata {
		sc := storage.NewSidecar(credit, storage.AssetInfo{
			Path:    path,
			Format:  out.Format,
			Width:   out.Width,
			Height:  out.Height,
			Quality: quality,
		}, s.now())
		sidecar, err := s.store.WriteSidecar(path, sc)
		if err != nil {
			return nil, err
		}
		out.SidecarPath = sidecar
	}

	s.logger.WithFields(logrus.Fields{
		"path":   path,
		"format": out.Format,
		"bytes":  out.SizeBytes,
	}).Debug("asset written")
	return out, nil
}

func exifFields(c storage.Credit) imaging.EXIFFields {
	attr := storage.NewAttribution(c)
	f := imaging.EXIFFields{ImageDescription: attr.Text}
	if c.Photographer != "" {
		f.Artist = c.Photographer
		f.Copyright = "© " + c.Photographer
	}
	return f
}

// transformOutput is the response of the pipeline-backed tools.
type transformOutput struct {
	*assetOutput
	*imaging.SizeComparison

	Plan      imaging.GeometryPlan        `json:"plan"`
	Filters   []string                    `json:"filters,omitempty"`
	Watermark *imaging.WatermarkPlacement `json:"watermark,omitempty"`
	Warnings  []string                    `json:"warnings,omitempty"`
}

// finish writes a pipeline result, naming the file when the caller did not.
func (s *Server) finish(prefix string, res *imaging.Result, credit storage.Credit) (*transformOutput, error) {
	path := res.OutputPath
	if path == "" {
		path = s.generatedPath(prefix, res.Asset.Format)
	}
	asset, err := s.writeAsset(path, res.Asset, res.Quality, credit)
	if err != nil {
		return nil, err
	}
	return &transformOutput{
		assetOutput: asset,
		Plan:        res.Plan,
		Filters:     res.Filters,
		Watermark:   res.Watermark,
		Warnings:    res.Warnings,
	}, nil
}

// === Image Information Handler ===

type imageInfoOutput struct {
	*imaging.SourceImage
	Path string `json:"path,omitempty"`
}

func (s *Server) handleImageInfo(args json.RawMessage) (interface{}, error) {
	var a sourceArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	src, _, err := s.loadSource(a)
	if err != nil {
		return nil, err
	}
	return &imageInfoOutput{SourceImage: src, Path: a.Path}, nil
}

// === Transform Handlers ===

type watermarkArgs struct {
	Text        string  `json:"text"`
	ImagePath   string  `json:"image_path"`
	Position    string  `json:"position"`
	X           int     `json:"x"`
	Y           int     `json:"y"`
	Size        int     `json:"size"`
	SizePercent float64 `json:"size_percent"`
	Opacity     int     `json:"opacity"`
	Color       string  `json:"color"`
	FontSize    float64 `json:"font_size"`
	FontFamily  string  `json:"font_family"`
}

// watermarkSpec validates the arguments and loads a watermark image from
// the store when no text is given.
func (s *Server) watermarkSpec(w watermarkArgs) (*imaging.WatermarkSpec, error) {
	pos, err := imaging.ParsePosition(w.Position)
	if err != nil {
		return nil, err
	}
	spec := &imaging.WatermarkSpec{
		Text:           w.Text,
		Color:          w.Color,
		FontSize:       w.FontSize,
		FontFamily:     w.FontFamily,
		ImagePath:      w.ImagePath,
		Position:       pos,
		CustomX:        w.X,
		CustomY:        w.Y,
		SizeAbsolute:   w.Size,
		SizePercent:    w.SizePercent,
		OpacityPercent: w.Opacity,
	}
	if strings.TrimSpace(w.Text) == "" && w.ImagePath != "" {
		data, err := s.store.ReadSource(w.ImagePath)
		if err != nil {
			return nil, err
		}
		mark, err := imaging.DecodeSource(data)
		if err != nil {
			return nil, err
		}
		spec.Image = mark.Image
	}
	return spec, spec.Validate()
}

type imageProcessArgs struct {
	sourceArgs
	outputArgs
	imaging.Adjustments

	Width       int            `json:"width"`
	Height      int            `json:"height"`
	MaxWidth    int            `json:"max_width"`
	AspectRatio string         `json:"aspect_ratio"`
	Circle      bool           `json:"circle"`
	Watermark   *watermarkArgs `json:"watermark"`
}

func (s *Server) handleImageProcess(args json.RawMessage) (interface{}, error) {
	var a imageProcessArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}

	req := imaging.TransformRequest{
		Width:       a.Width,
		Height:      a.Height,
		MaxWidth:    a.MaxWidth,
		Format:      a.Format,
		Quality:     a.Quality,
		Circle:      a.Circle,
		Adjustments: a.Adjustments,
	}
	if a.AspectRatio != "" {
		ar, err := imaging.ParseAspectRatio(a.AspectRatio)
		if err != nil {
			return nil, err
		}
		req.AspectRatio = &ar
	}

	var wm *imaging.WatermarkSpec
	if a.Watermark != nil {
		var err error
		if wm, err = s.watermarkSpec(*a.Watermark); err != nil {
			return nil, err
		}
	}

	src, credit, err := s.loadSource(a.sourceArgs)
	if err != nil {
		return nil, err
	}
	res, err := imaging.Process(src, req, wm, s.outputTarget(a.OutputPath), s.options())
	if err != nil {
		return nil, err
	}
	out, err := s.finish("process", res, credit)
	if err != nil {
		return nil, err
	}

	cmp := imaging.CompareSizes(src.SizeBytes, out.SizeBytes)
	out.SizeComparison = &cmp
	if cmp.SavedBytes > 0 {
		s.metrics.ObserveSaved(int64(cmp.SavedBytes))
	}
	return out, nil
}

type imageOptimizeArgs struct {
	sourceArgs
	outputArgs

	MaxWidth int `json:"max_width"`
}

func (s *Server) handleImageOptimize(args json.RawMessage) (interface{}, error) {
	var a imageOptimizeArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	src, credit, err := s.loadSource(a.sourceArgs)
	if err != nil {
		return nil, err
	}
	res, err := imaging.Optimize(src, a.Format, a.Quality, a.MaxWidth, s.outputTarget(a.OutputPath), s.options())
	if err != nil {
		return nil, err
	}
	out, err := s.finish("optimized", res.Result, credit)
	if err != nil {
		return nil, err
	}

	out.SizeComparison = &res.SizeComparison
	if out.SizeBytes != res.OptimizedSize {
		// EXIF embedding grew the file after encoding
		cmp := imaging.CompareSizes(src.SizeBytes, out.SizeBytes)
		out.SizeComparison = &cmp
	}
	if out.SavedBytes > 0 {
		s.metrics.ObserveSaved(int64(out.SavedBytes))
	}
	return out, nil
}

type imageCropArgs struct {
	sourceArgs
	outputArgs

	X      int `json:"x"`
	Y      int `json:"y"`
	Width  int `json:"width"`
	Height int `json:"height"`
}

func (s *Server) handleImageCrop(args json.RawMessage) (interface{}, error) {
	var a imageCropArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	src, credit, err := s.loadSource(a.sourceArgs)
	if err != nil {
		return nil, err
	}
	rect := imaging.CropRect{Left: a.X, Top: a.Y, Width: a.Width, Height: a.Height}
	res, err := imaging.Crop(src, rect, a.Format, a.Quality, s.outputTarget(a.OutputPath), s.options())
	if err != nil {
		return nil, err
	}
	return s.finish("crop", res, credit)
}

type imageAdjustArgs struct {
	sourceArgs
	outputArgs
	imaging.Adjustments
}

func (s *Server) handleImageAdjust(args json.RawMessage) (interface{}, error) {
	var a imageAdjustArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	if a.Adjustments.IsZero() {
		return nil, imgerr.New(imgerr.InvalidParameter, "no adjustment requested")
	}
	src, credit, err := s.loadSource(a.sourceArgs)
	if err != nil {
		return nil, err
	}
	req := imaging.TransformRequest{
		Format:       a.Format,
		Quality:      a.Quality,
		PreserveSize: true,
		Adjustments:  a.Adjustments,
	}
	res, err := imaging.Process(src, req, nil, s.outputTarget(a.OutputPath), s.options())
	if err != nil {
		return nil, err
	}
	return s.finish("adjusted", res, credit)
}

type imageCircleArgs struct {
	sourceArgs
	outputArgs

	Size int `json:"size"`
}

func (s *Server) handleImageCircle(args json.RawMessage) (interface{}, error) {
	var a imageCircleArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	src, credit, err := s.loadSource(a.sourceArgs)
	if err != nil {
		return nil, err
	}
	req := imaging.TransformRequest{
		MaxWidth: a.Size,
		Format:   a.Format,
		Quality:  a.Quality,
		Circle:   true,
	}
	res, err := imaging.Process(src, req, nil, s.outputTarget(a.OutputPath), s.options())
	if err != nil {
		return nil, err
	}
	return s.finish("circle", res, credit)
}

type imageWatermarkArgs struct {
	sourceArgs
	outputArgs
	watermarkArgs
}

func (s *Server) handleImageWatermark(args json.RawMessage) (interface{}, error) {
	var a imageWatermarkArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	wm, err := s.watermarkSpec(a.watermarkArgs)
	if err != nil {
		return nil, err
	}
	src, credit, err := s.loadSource(a.sourceArgs)
	if err != nil {
		return nil, err
	}
	req := imaging.TransformRequest{
		Format:       a.Format,
		Quality:      a.Quality,
		PreserveSize: true,
	}
	res, err := imaging.Process(src, req, wm, s.outputTarget(a.OutputPath), s.options())
	if err != nil {
		return nil, err
	}
	return s.finish("watermarked", res, credit)
}
