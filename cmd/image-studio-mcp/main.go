package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ironsheep/image-studio-mcp/internal/config"
	"github.com/ironsheep/image-studio-mcp/internal/logging"
	"github.com/ironsheep/image-studio-mcp/internal/server"
	"github.com/ironsheep/image-studio-mcp/internal/telemetry"
)

// Version information - set by ldflags during build
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

func main() {
	// Handle --version and -v flags
	if len(os.Args) > 1 {
		switch os.Args[1] {
		case "--version", "-v", "version":
			fmt.Printf("image-studio-mcp %s\n", Version)
			fmt.Printf("  Build time: %s\n", BuildTime)
			fmt.Printf("  Git commit: %s\n", GitCommit)
			return
		case "--help", "-h", "help":
			printHelp()
			return
		}
	}

	if err := run(); err != nil {
		logging.Logger.WithError(err).Fatal("server stopped")
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	// stdout is reserved for the MCP protocol
	logging.Configure(os.Stderr, cfg.LogLevel)
	logger := logging.Logger
	logger.WithFields(map[string]interface{}{
		"version":    Version,
		"build_time": BuildTime,
		"commit":     GitCommit,
		"output_dir": cfg.Output.Dir,
	}).Debug("image studio MCP server starting")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := telemetry.SetupTracing(ctx, telemetry.TraceConfig{
		ServiceName:  "image-studio-mcp",
		Exporter:     cfg.Telemetry.TraceExporter,
		OTLPEndpoint: cfg.Telemetry.OTLPEndpoint,
		OTLPInsecure: cfg.Telemetry.OTLPInsecure,
	}, logger)
	if err != nil {
		return fmt.Errorf("setup tracing: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracing(shutdownCtx); err != nil {
			logger.WithError(err).Warn("tracing shutdown failed")
		}
	}()

	metrics := telemetry.NewMetrics()
	if srv := metrics.Serve(cfg.Telemetry.MetricsAddr, logger); srv != nil {
		defer srv.Close()
	}

	srv := server.New(cfg, server.WithMetrics(metrics), server.WithLogger(logger))
	if err := srv.Run(ctx, os.Stdin, os.Stdout); err != nil && ctx.Err() == nil {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}

func printHelp() {
	fmt.Println("image-studio-mcp - MCP server for image transforms and derived web assets")
	fmt.Println()
	fmt.Println("Usage: image-studio-mcp [options]")
	fmt.Println()
	fmt.Println("Options:")
	fmt.Println("  --version, -v    Print version information")
	fmt.Println("  --help, -h       Print this help message")
	fmt.Println()
	fmt.Println("Environment variables:")
	fmt.Println("  IMAGE_STUDIO_CONFIG=path.toml          Optional TOML config file")
	fmt.Println("  IMAGE_STUDIO_OUTPUT_DIR=./output       Directory for relative output paths")
	fmt.Println("  IMAGE_STUDIO_DEFAULT_FORMAT=webp       webp, jpeg, png or avif")
	fmt.Println("  IMAGE_STUDIO_DEFAULT_QUALITY=80        Encoder quality 1-100")
	fmt.Println("  IMAGE_STUDIO_DEFAULT_MAX_WIDTH=1920    Width bound when no size is given")
	fmt.Println("  IMAGE_STUDIO_SAVE_METADATA=false       Write <output>.json sidecars")
	fmt.Println("  IMAGE_STUDIO_EMBED_EXIF=false          Write attribution into jpeg EXIF")
	fmt.Println("  IMAGE_STUDIO_MAX_INPUT_SIZE=50MB       Largest accepted source image")
	fmt.Println("  IMAGE_STUDIO_PLACEHOLDER_URL=...       Random photo service base URL")
	fmt.Println("  IMAGE_STUDIO_METRICS_ADDR=:9090        Serve /metrics and /healthz")
	fmt.Println("  IMAGE_STUDIO_TRACE_EXPORTER=none       none, stdout or otlp")
	fmt.Println("  IMAGE_STUDIO_LOG_LEVEL=info            debug, info, warn or error")
	fmt.Println()
	fmt.Println("This server communicates via MCP protocol over stdin/stdout.")
	fmt.Println("Configure it in your MCP client (e.g., Claude Desktop).")
}
