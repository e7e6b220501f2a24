package server

// Tool represents an MCP tool definition
type Tool struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	InputSchema map[string]interface{} `json:"inputSchema"`
}

type properties map[string]interface{}

func prop(typ, description string) map[string]interface{} {
	return map[string]interface{}{
		"type":        typ,
		"description": description,
	}
}

func enumProp(description string, values ...string) map[string]interface{} {
	return map[string]interface{}{
		"type":        "string",
		"enum":        values,
		"description": description,
	}
}

func rangeProp(typ, description string, lo, hi float64) map[string]interface{} {
	return map[string]interface{}{
		"type":        typ,
		"minimum":     lo,
		"maximum":     hi,
		"description": description,
	}
}

func withDefault(p map[string]interface{}, v interface{}) map[string]interface{} {
	p["default"] = v
	return p
}

// objectSchema merges property groups into one object schema.
func objectSchema(required []string, groups ...properties) map[string]interface{} {
	merged := properties{}
	for _, g := range groups {
		for k, v := range g {
			merged[k] = v
		}
	}
	schema := map[string]interface{}{
		"type":       "object",
		"properties": map[string]interface{}(merged),
	}
	if len(required) > 0 {
		schema["required"] = required
	}
	return schema
}

func sourceProperties() properties {
	return properties{
		"path": prop("string", "Path to the source image file"),
		"data": prop("string", "Base64-encoded source image (a data: URL prefix is accepted); alternative to path"),
	}
}

func outputProperties() properties {
	return properties{
		"output_path": prop("string", "Where to write the result; relative paths land in the output directory. The extension is corrected to match the format."),
		"format":      enumProp("Output format (default: output_path extension, then the configured default)", "webp", "jpeg", "png", "avif"),
		"quality":     withDefault(rangeProp("integer", "Encoder quality", 1, 100), 80),
	}
}

func adjustmentProperties() properties {
	return properties{
		"blur":       prop("number", "Gaussian blur sigma (0.3-1000)"),
		"sharpen":    prop("number", "Sharpen sigma (0.3-1000)"),
		"grayscale":  prop("boolean", "Convert to grayscale"),
		"sepia":      prop("boolean", "Apply a sepia tone"),
		"brightness": rangeProp("integer", "Brightness change in percent", -100, 100),
		"saturation": rangeProp("integer", "Saturation change in percent", -100, 100),
		"contrast":   rangeProp("integer", "Contrast change in percent", -100, 100),
	}
}

func watermarkProperties() properties {
	return properties{
		"text":         prop("string", "Watermark text; takes precedence over image_path"),
		"image_path":   prop("string", "Path to a watermark image (e.g. a logo)"),
		"position":     withDefault(enumProp("Anchor", "center", "top-left", "top-right", "bottom-left", "bottom-right", "custom"), "bottom-right"),
		"x":            prop("integer", "Left edge for custom position"),
		"y":            prop("integer", "Top edge for custom position"),
		"size":         prop("integer", "Watermark image long side in pixels"),
		"size_percent": withDefault(rangeProp("number", "Watermark image long side as a percentage of the shorter image side", 0, 100), 20.0),
		"opacity":      withDefault(rangeProp("integer", "Opacity in percent", 1, 100), 50),
		"color":        withDefault(prop("string", "Text color as hex"), "#FFFFFF"),
		"font_size":    prop("number", "Text size in pixels (default: shorter image side / 20)"),
		"font_family":  withDefault(enumProp("Text font", "sans", "mono"), "sans"),
	}
}

// GetToolDefinitions returns all available tools
func GetToolDefinitions() []Tool {
	return []Tool{
		{
			Name:        "image_info",
			Description: "Report an image's dimensions, format, alpha, color space, channels, density, EXIF orientation and file size.",
			InputSchema: objectSchema(nil, sourceProperties()),
		},

		// Transforms
		{
			Name: "image_process",
			Description: "Resize, crop to an aspect ratio, filter, mask and watermark an image in one pass, then encode it. " +
				"Sizing precedence: width+height, then width or height, then aspect_ratio, then max_width. " +
				"Reports the size saved against the source.",
			InputSchema: objectSchema(nil, sourceProperties(), outputProperties(), adjustmentProperties(), properties{
				"width":        prop("integer", "Exact output width"),
				"height":       prop("integer", "Exact output height; with width the image is stretched to fit"),
				"max_width":    prop("integer", "Upper bound on output width (default: 1920); never enlarges"),
				"aspect_ratio": prop("string", "Center-crop to W:H, e.g. \"16:9\""),
				"circle":       prop("boolean", "Crop to a circle with a transparent surround; forces png"),
				"watermark": map[string]interface{}{
					"type":        "object",
					"description": "Optional watermark applied last",
					"properties":  map[string]interface{}(watermarkProperties()),
				},
			}),
		},
		{
			Name:        "image_optimize",
			Description: "Re-encode an image for the web, bounded by max_width, and report original, optimized and saved byte counts.",
			InputSchema: objectSchema(nil, sourceProperties(), outputProperties(), properties{
				"max_width": prop("integer", "Upper bound on output width (default: 1920); never enlarges"),
			}),
		},
		{
			Name:        "image_crop",
			Description: "Cut a rectangle out of an image. The rectangle must lie inside the source.",
			InputSchema: objectSchema([]string{"x", "y", "width", "height"}, sourceProperties(), outputProperties(), properties{
				"x":      prop("integer", "Left edge (0-based)"),
				"y":      prop("integer", "Top edge (0-based)"),
				"width":  prop("integer", "Rectangle width"),
				"height": prop("integer", "Rectangle height"),
			}),
		},
		{
			Name: "image_adjust",
			Description: "Apply tonal filters without resizing. Order: blur, sharpen, grayscale, sepia, brightness, saturation, contrast. " +
				"Returns the applied filters in order.",
			InputSchema: objectSchema(nil, sourceProperties(), outputProperties(), adjustmentProperties()),
		},
		{
			Name:        "image_circle",
			Description: "Crop an image to a centered circle on a transparent square. Output is always png.",
			InputSchema: objectSchema(nil, sourceProperties(), outputProperties(), properties{
				"size": prop("integer", "Square edge in pixels (default: the configured max width, never enlarging)"),
			}),
		},
		{
			Name:        "image_watermark",
			Description: "Composite a text or image watermark onto an image without resizing it.",
			InputSchema: objectSchema(nil, sourceProperties(), outputProperties(), watermarkProperties()),
		},

		// Derived assets
		{
			Name: "image_placeholder",
			Description: "Generate a placeholder: a solid rectangle labelled \"{width} × {height}\", a transparent png, " +
				"or a random stock photo (photo=true) with optional blur and grayscale.",
			InputSchema: objectSchema([]string{"width", "height"}, outputProperties(), properties{
				"width":            rangeProp("integer", "Width in pixels", 1, 4096),
				"height":           rangeProp("integer", "Height in pixels", 1, 4096),
				"background_color": withDefault(prop("string", "Background hex color"), "#CCCCCC"),
				"text_color":       withDefault(prop("string", "Label hex color"), "#666666"),
				"text":             prop("string", "Label text (default: \"{width} × {height}\")"),
				"transparent":      prop("boolean", "Fully transparent png; ignores colors and photo"),
				"photo":            prop("boolean", "Use a random stock photo instead of a solid rectangle"),
				"blur":             rangeProp("integer", "Photo blur", 1, 10),
				"grayscale":        prop("boolean", "Grayscale photo"),
			}),
		},
		{
			Name:        "image_favicon",
			Description: "Export a favicon set (center-cropped square pngs) plus favicon.png and the HTML link tags to reference them.",
			InputSchema: objectSchema(nil, sourceProperties(), properties{
				"output_dir": prop("string", "Directory for the icons (default: the output directory)"),
				"sizes": map[string]interface{}{
					"type":        "array",
					"items":       map[string]interface{}{"type": "integer"},
					"description": "Icon sizes (default: 16, 32, 48, 180, 192, 512)",
				},
			}),
		},
		{
			Name:        "image_palette",
			Description: "Extract the vibrant, muted, dark and light swatches of an image and its dominant color. Optionally render a png swatch chart.",
			InputSchema: objectSchema(nil, sourceProperties(), properties{
				"render":      prop("boolean", "Also write a png swatch chart"),
				"output_path": prop("string", "Where to write the chart"),
			}),
		},
	}
}
