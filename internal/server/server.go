package server

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/ironsheep/image-studio-mcp/internal/config"
	"github.com/ironsheep/image-studio-mcp/internal/fetch"
	"github.com/ironsheep/image-studio-mcp/internal/imaging"
	"github.com/ironsheep/image-studio-mcp/internal/logging"
	"github.com/ironsheep/image-studio-mcp/internal/storage"
	"github.com/ironsheep/image-studio-mcp/internal/telemetry"
)

const (
	serverName    = "image-studio-mcp"
	serverVersion = "0.2.0"

	protocolVersion = "2024-11-05"
)

// Server handles MCP protocol communication. It holds only read-only
// collaborators, so tool calls share no mutable state.
type Server struct {
	cfg       config.Config
	store     *storage.Store
	fetcher   *fetch.Client
	quantizer imaging.Quantizer
	metrics   *telemetry.Metrics
	logger    *logrus.Logger
	now       func() time.Time
}

// Option customizes a Server.
type Option func(*Server)

// WithStore replaces the host-filesystem store.
func WithStore(st *storage.Store) Option {
	return func(s *Server) { s.store = st }
}

// WithFetcher replaces the placeholder photo client.
func WithFetcher(f *fetch.Client) Option {
	return func(s *Server) { s.fetcher = f }
}

// WithMetrics sets the collectors tool calls report to.
func WithMetrics(m *telemetry.Metrics) Option {
	return func(s *Server) { s.metrics = m }
}

// WithLogger replaces the shared logger.
func WithLogger(l *logrus.Logger) Option {
	return func(s *Server) { s.logger = l }
}

// WithClock overrides time.Now for sidecar timestamps and generated names.
func WithClock(now func() time.Time) Option {
	return func(s *Server) { s.now = now }
}

// MCPRequest represents an incoming JSON-RPC request
type MCPRequest struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      interface{}     `json:"id"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
}

// MCPResponse represents an outgoing JSON-RPC response
type MCPResponse struct {
	JSONRPC string      `json:"jsonrpc"`
	ID      interface{} `json:"id"`
	Result  interface{} `json:"result,omitempty"`
	Error   *MCPError   `json:"error,omitempty"`
}

// MCPError represents a JSON-RPC error
type MCPError struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// New creates a new MCP server instance
func New(cfg config.Config, opts ...Option) *Server {
	s := &Server{
		cfg:       cfg,
		quantizer: imaging.VibrantQuantizer{},
		logger:    logging.Logger,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.store == nil {
		s.store = storage.NewOS(cfg.Input.MaxBytes)
	}
	if s.fetcher == nil {
		s.fetcher = fetch.NewClient(cfg.Placeholder.BaseURL, cfg.Placeholder.Timeout(), cfg.Input.MaxBytes)
	}
	if s.metrics == nil {
		s.metrics = telemetry.NewMetrics()
	}
	return s
}

// Run reads one JSON-RPC request per line from in and writes responses to
// out until in is exhausted or ctx is cancelled.
func (s *Server) Run(ctx context.Context, in io.Reader, out io.Writer) error {
	scanner := bufio.NewScanner(in)
	// base64 sources make lines roughly 4/3 of the largest accepted image
	buf := make([]byte, 0, 64*1024)
	scanner.Buffer(buf, s.maxLineBytes())

	encoder := json.NewEncoder(out)

	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return err
		}

		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		var req MCPRequest
		if err := json.Unmarshal(line, &req); err != nil {
			s.logger.WithError(err).Warn("failed to parse request")
			continue
		}

		resp := s.handleRequest(ctx, &req)
		if resp != nil {
			if err := encoder.Encode(resp); err != nil {
				s.logger.WithError(err).Error("failed to encode response")
			}
		}
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("scanner error: %w", err)
	}

	return nil
}

func (s *Server) maxLineBytes() int {
	const floor = 1 << 20
	n := s.cfg.Input.MaxBytes*4/3 + floor
	if n < floor {
		return floor
	}
	return int(n)
}

// handleRequest routes requests to appropriate handlers
func (s *Server) handleRequest(ctx context.Context, req *MCPRequest) *MCPResponse {
	switch req.Method {
	case "initialize":
		return s.handleInitialize(req)
	case "notifications/initialized":
		// Client acknowledgment, no response needed
		return nil
	case "tools/list":
		return s.handleToolsList(req)
	case "tools/call":
		return s.handleToolsCall(ctx, req)
	case "ping":
		return &MCPResponse{
			JSONRPC: "2.0",
			ID:      req.ID,
			Result:  map[string]interface{}{},
		}
	default:
		return &MCPResponse{
			JSONRPC: "2.0",
			ID:      req.ID,
			Error: &MCPError{
				Code:    -32601,
				Message: fmt.Sprintf("Method not found: %s", req.Method),
			},
		}
	}
}

// handleInitialize responds to the initialize request
func (s *Server) handleInitialize(req *MCPRequest) *MCPResponse {
	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result: map[string]interface{}{
			"protocolVersion": protocolVersion,
			"capabilities": map[string]interface{}{
				"tools": map[string]interface{}{},
			},
			"serverInfo": map[string]interface{}{
				"name":    serverName,
				"version": serverVersion,
			},
		},
	}
}

// handleToolsList returns the tool catalog
func (s *Server) handleToolsList(req *MCPRequest) *MCPResponse {
	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result: map[string]interface{}{
			"tools": GetToolDefinitions(),
		},
	}
}
