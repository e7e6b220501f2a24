package server

import (
	"encoding/json"
	"testing"
)

func TestGetToolDefinitions(t *testing.T) {
	tools := GetToolDefinitions()

	expectedTools := []string{
		"image_info",
		"image_process",
		"image_optimize",
		"image_crop",
		"image_adjust",
		"image_circle",
		"image_watermark",
		"image_placeholder",
		"image_favicon",
		"image_palette",
	}

	toolMap := make(map[string]Tool)
	for _, tool := range tools {
		if _, dup := toolMap[tool.Name]; dup {
			t.Errorf("Tool %s defined twice", tool.Name)
		}
		toolMap[tool.Name] = tool
	}

	for _, name := range expectedTools {
		if _, ok := toolMap[name]; !ok {
			t.Errorf("Expected tool %s not found", name)
		}
	}
	if len(tools) != len(expectedTools) {
		t.Errorf("Expected %d tools, got %d", len(expectedTools), len(tools))
	}
}

func TestToolDefinitions_Structure(t *testing.T) {
	for _, tool := range GetToolDefinitions() {
		t.Run(tool.Name, func(t *testing.T) {
			if tool.Description == "" {
				t.Error("Tool description is empty")
			}
			if tool.InputSchema["type"] != "object" {
				t.Errorf("InputSchema type: got %v, want 'object'", tool.InputSchema["type"])
			}
			props, ok := tool.InputSchema["properties"].(map[string]interface{})
			if !ok || len(props) == 0 {
				t.Error("InputSchema properties missing or empty")
			}

			// every required field must be a declared property
			if required, ok := tool.InputSchema["required"].([]string); ok {
				for _, r := range required {
					if _, ok := props[r]; !ok {
						t.Errorf("required field %s is not a property", r)
					}
				}
			}

			if _, err := json.Marshal(tool); err != nil {
				t.Errorf("tool does not marshal: %v", err)
			}
		})
	}
}

func TestToolDefinitions_SourceProperties(t *testing.T) {
	for _, tool := range GetToolDefinitions() {
		if tool.Name == "image_placeholder" {
			continue
		}
		props := tool.InputSchema["properties"].(map[string]interface{})
		for _, name := range []string{"path", "data"} {
			if _, ok := props[name]; !ok {
				t.Errorf("%s: missing source property %s", tool.Name, name)
			}
		}
	}
}

func TestToolDefinitions_CropRequiresRectangle(t *testing.T) {
	var crop Tool
	for _, tool := range GetToolDefinitions() {
		if tool.Name == "image_crop" {
			crop = tool
		}
	}

	required, ok := crop.InputSchema["required"].([]string)
	if !ok {
		t.Fatal("required should be a string slice")
	}

	want := map[string]bool{"x": true, "y": true, "width": true, "height": true}
	for _, r := range required {
		delete(want, r)
	}
	for missing := range want {
		t.Errorf("image_crop should require '%s' parameter", missing)
	}
}

func TestToolDefinitions_Defaults(t *testing.T) {
	toolDefaults := map[string]map[string]interface{}{
		"image_process":     {"quality": 80},
		"image_watermark":   {"position": "bottom-right", "opacity": 50, "size_percent": 20.0},
		"image_placeholder": {"background_color": "#CCCCCC", "text_color": "#666666"},
	}

	toolMap := make(map[string]Tool)
	for _, tool := range GetToolDefinitions() {
		toolMap[tool.Name] = tool
	}

	for toolName, defaults := range toolDefaults {
		props := toolMap[toolName].InputSchema["properties"].(map[string]interface{})
		for param, want := range defaults {
			p, ok := props[param].(map[string]interface{})
			if !ok {
				t.Errorf("%s.%s: parameter not found", toolName, param)
				continue
			}
			if got := p["default"]; got != want {
				t.Errorf("%s.%s: default got %v, want %v", toolName, param, got, want)
			}
		}
	}
}

func TestToolDefinitions_WatermarkPositions(t *testing.T) {
	props := watermarkProperties()
	enum, ok := props["position"].(map[string]interface{})["enum"].([]string)
	if !ok {
		t.Fatal("position should have enum")
	}

	want := []string{"center", "top-left", "top-right", "bottom-left", "bottom-right", "custom"}
	if len(enum) != len(want) {
		t.Fatalf("position enum: got %v, want %v", enum, want)
	}
	for i := range want {
		if enum[i] != want[i] {
			t.Errorf("position enum[%d]: got %s, want %s", i, enum[i], want[i])
		}
	}
}
