// Package config loads server settings from an optional TOML file and the
// environment. Environment variables always win over the file.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"code.cloudfoundry.org/bytefmt"
	"github.com/BurntSushi/toml"
)

// EnvConfigFile names the environment variable pointing at a TOML file.
const EnvConfigFile = "IMAGE_STUDIO_CONFIG"

// Config holds all server settings. Zero values are filled by Default.
type Config struct {
	Output      OutputConfig      `toml:"output"`
	Input       InputConfig       `toml:"input"`
	Placeholder PlaceholderConfig `toml:"placeholder"`
	Telemetry   TelemetryConfig   `toml:"telemetry"`
	LogLevel    string            `toml:"log_level"`
}

// OutputConfig controls where assets are written and how they are encoded
// when a request leaves format, quality or size unset.
type OutputConfig struct {
	Dir             string `toml:"dir"`
	DefaultFormat   string `toml:"default_format"`
	DefaultQuality  int    `toml:"default_quality"`
	DefaultMaxWidth int    `toml:"default_max_width"`
	SaveMetadata    bool   `toml:"save_metadata"`
	EmbedEXIF       bool   `toml:"embed_exif"`
}

// InputConfig bounds source images read from disk or passed inline.
type InputConfig struct {
	// MaxSize is a human size such as "25MB".
	MaxSize string `toml:"max_size"`
	// MaxBytes is derived from MaxSize by Load.
	MaxBytes int64 `toml:"-"`
}

// PlaceholderConfig points the photo placeholder fetcher at a Picsum-style
// service.
type PlaceholderConfig struct {
	BaseURL        string `toml:"base_url"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

// Timeout returns the fetch timeout as a duration.
func (p PlaceholderConfig) Timeout() time.Duration {
	return time.Duration(p.TimeoutSeconds) * time.Second
}

// TelemetryConfig enables the metrics listener and span export. An empty
// MetricsAddr disables the listener.
type TelemetryConfig struct {
	MetricsAddr   string `toml:"metrics_addr"`
	TraceExporter string `toml:"trace_exporter"`
	OTLPEndpoint  string `toml:"otlp_endpoint"`
	OTLPInsecure  bool   `toml:"otlp_insecure"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Output: OutputConfig{
			Dir:             "./output",
			DefaultFormat:   "webp",
			DefaultQuality:  80,
			DefaultMaxWidth: 1920,
		},
		Input: InputConfig{
			MaxSize: "50MB",
		},
		Placeholder: PlaceholderConfig{
			BaseURL:        "https://picsum.photos",
			TimeoutSeconds: 30,
		},
		Telemetry: TelemetryConfig{
			TraceExporter: "none",
		},
		LogLevel: "info",
	}
}

// Load builds the configuration: defaults, then the TOML file named by
// IMAGE_STUDIO_CONFIG (if set), then environment overrides.
func Load() (Config, error) {
	cfg := Default()

	if path := env(EnvConfigFile, ""); path != "" {
		if _, err := toml.DecodeFile(path, &cfg); err != nil {
			return Config{}, fmt.Errorf("read config file %s: %w", path, err)
		}
	}

	cfg.Output.Dir = env("IMAGE_STUDIO_OUTPUT_DIR", cfg.Output.Dir)
	cfg.Output.DefaultFormat = env("IMAGE_STUDIO_DEFAULT_FORMAT", cfg.Output.DefaultFormat)
	cfg.Output.DefaultQuality = envInt("IMAGE_STUDIO_DEFAULT_QUALITY", cfg.Output.DefaultQuality)
	cfg.Output.DefaultMaxWidth = envInt("IMAGE_STUDIO_DEFAULT_MAX_WIDTH", cfg.Output.DefaultMaxWidth)
	cfg.Output.SaveMetadata = envBool("IMAGE_STUDIO_SAVE_METADATA", cfg.Output.SaveMetadata)
	cfg.Output.EmbedEXIF = envBool("IMAGE_STUDIO_EMBED_EXIF", cfg.Output.EmbedEXIF)
	cfg.Input.MaxSize = env("IMAGE_STUDIO_MAX_INPUT_SIZE", cfg.Input.MaxSize)
	cfg.Placeholder.BaseURL = env("IMAGE_STUDIO_PLACEHOLDER_URL", cfg.Placeholder.BaseURL)
	cfg.Placeholder.TimeoutSeconds = envInt("IMAGE_STUDIO_HTTP_TIMEOUT", cfg.Placeholder.TimeoutSeconds)
	cfg.Telemetry.MetricsAddr = env("IMAGE_STUDIO_METRICS_ADDR", cfg.Telemetry.MetricsAddr)
	cfg.Telemetry.TraceExporter = env("IMAGE_STUDIO_TRACE_EXPORTER", cfg.Telemetry.TraceExporter)
	cfg.Telemetry.OTLPEndpoint = env("IMAGE_STUDIO_OTLP_ENDPOINT", cfg.Telemetry.OTLPEndpoint)
	cfg.Telemetry.OTLPInsecure = envBool("IMAGE_STUDIO_OTLP_INSECURE", cfg.Telemetry.OTLPInsecure)
	cfg.LogLevel = env("IMAGE_STUDIO_LOG_LEVEL", cfg.LogLevel)

	if err := cfg.normalize(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) normalize() error {
	c.Output.DefaultFormat = strings.ToLower(strings.TrimSpace(c.Output.DefaultFormat))
	if c.Output.DefaultFormat == "jpg" {
		c.Output.DefaultFormat = "jpeg"
	}
	switch c.Output.DefaultFormat {
	case "webp", "jpeg", "png", "avif":
	default:
		return fmt.Errorf("default format %q must be one of webp, jpeg, png, avif", c.Output.DefaultFormat)
	}

	if c.Output.DefaultQuality < 1 || c.Output.DefaultQuality > 100 {
		return fmt.Errorf("default quality %d outside 1-100", c.Output.DefaultQuality)
	}
	if c.Output.DefaultMaxWidth <= 0 {
		return fmt.Errorf("default max width must be positive, got %d", c.Output.DefaultMaxWidth)
	}
	if c.Placeholder.TimeoutSeconds <= 0 {
		c.Placeholder.TimeoutSeconds = 30
	}

	size, err := bytefmt.ToBytes(c.Input.MaxSize)
	if err != nil {
		return fmt.Errorf("invalid max input size %q: %w", c.Input.MaxSize, err)
	}
	c.Input.MaxBytes = int64(size)
	return nil
}

func env(key, fallback string) string {
	value, ok := os.LookupEnv(key)
	if !ok || value == "" {
		return fallback
	}
	return value
}

func envInt(key string, fallback int) int {
	value := env(key, "")
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func envBool(key string, fallback bool) bool {
	value := env(key, "")
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return fallback
	}
	return parsed
}
