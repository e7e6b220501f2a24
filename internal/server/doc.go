// Package server implements the MCP (Model Context Protocol) server for the
// image studio tools.
//
// This package provides a JSON-RPC 2.0 server that exposes the image
// transform pipeline through the MCP protocol. Every tool reads one source
// image, runs it through the pipeline and writes the encoded result to disk.
//
// # Protocol
//
// The server communicates over stdio using JSON-RPC 2.0:
//   - Input: JSON-RPC requests on stdin (one per line)
//   - Output: JSON-RPC responses on stdout
//
// Supported MCP methods:
//   - initialize: Protocol handshake
//   - tools/list: Enumerate available tools
//   - tools/call: Execute a tool with arguments
//   - ping: Health check
//
// # Available Tools
//
// Information:
//   - image_info: Dimensions, format, alpha, color space, density, orientation
//
// Transforms:
//   - image_process: Resize, aspect crop, filters, circle mask and watermark in one pass
//   - image_optimize: Re-encode bounded by a max width and report savings
//   - image_crop: Cut out a validated rectangle
//   - image_adjust: Tonal filters without resizing
//   - image_circle: Circular avatar on a transparent square
//   - image_watermark: Text or image watermark without resizing
//
// Derived assets:
//   - image_placeholder: Solid, transparent or stock-photo placeholders
//   - image_favicon: Favicon set plus HTML link tags
//   - image_palette: Vibrant/muted swatches, dominant color and an optional chart
//
// Sources are given as a file path ("path") or inline base64 ("data").
// Relative output paths are placed under the configured output directory;
// when no output path is given a timestamped name is generated.
//
// # Metadata
//
// With metadata persistence enabled every written asset gets a
// "<path>.json" sidecar with its provenance and attribution. With EXIF
// embedding enabled jpeg output carries the attribution as EXIF tags.
//
// # Error Handling
//
// Tool execution errors are returned as JSON-RPC error responses with:
//   - code: -32000 (tool execution failure) or standard JSON-RPC codes
//   - message: "Tool execution failed"
//   - data: {"kind": "<error kind>", "message": "<details>"}
//
// # Usage
//
//	srv := server.New(cfg, server.WithMetrics(metrics))
//	if err := srv.Run(ctx, os.Stdin, os.Stdout); err != nil {
//	    log.Fatal(err)
//	}
package server
