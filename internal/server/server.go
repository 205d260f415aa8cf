package server

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/ironsheep/compositor-mcp/internal/config"
	"github.com/ironsheep/compositor-mcp/internal/pipeline"
	"github.com/ironsheep/compositor-mcp/internal/raster"
)

// Version is reported in the initialize handshake. The binary overrides it
// with its build version.
var Version = "dev"

// Server handles MCP protocol communication
type Server struct {
	cfg    config.Config
	worker *pipeline.Worker

	// slots holds the named images. Only the request loop touches it, and
	// it waits for every pipeline operation to finish, so no lock is needed.
	slots map[string]*raster.Buffer
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

// New creates a new MCP server instance and starts its pipeline worker.
// Call Close when done.
func New(cfg config.Config) *Server {
	p := pipeline.New(pipeline.Config{
		NormalizeKernels: cfg.NormalizeKernels,
		MaxDeconvolveDim: cfg.MaxDeconvolveDim,
		MaxPixels:        cfg.MaxPixels,
	})
	return &Server{
		cfg:    cfg,
		worker: pipeline.NewWorker(p, cfg.WorkerQueue),
		slots:  make(map[string]*raster.Buffer),
	}
}

// Close stops the pipeline worker after queued operations finish.
func (s *Server) Close() {
	s.worker.Close()
}

// Run starts the MCP server, reading from stdin and writing to stdout
func (s *Server) Run(ctx context.Context) error {
	return s.Serve(ctx, os.Stdin, os.Stdout)
}

// Serve reads one JSON-RPC request per line from r and writes responses to
// w until r is exhausted or ctx is cancelled. Cancellation returns at once
// even while a read on r is blocked; the reading goroutine exits once r
// yields.
func (s *Server) Serve(ctx context.Context, r io.Reader, w io.Writer) error {
	lines, scanErr, done := scanLines(r)
	defer close(done)

	encoder := json.NewEncoder(w)

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		var line []byte
		select {
		case <-ctx.Done():
			return ctx.Err()
		case l, ok := <-lines:
			if !ok {
				if err := <-scanErr; err != nil {
					return fmt.Errorf("scanner error: %w", err)
				}
				return nil
			}
			line = l
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if len(line) == 0 {
			continue
		}

		var req MCPRequest
		if err := json.Unmarshal(line, &req); err != nil {
			log.Printf("Failed to parse request: %v", err)
			continue
		}

		resp := s.handleRequest(ctx, &req)
		if resp != nil {
			if err := encoder.Encode(resp); err != nil {
				log.Printf("Failed to encode response: %v", err)
			}
		}
	}
}

// scanLines reads r line by line on its own goroutine. lines is closed when
// r is exhausted, after the scanner's error has been sent on errc. Closing
// done stops the goroutine at its next line.
func scanLines(r io.Reader) (lines <-chan []byte, errc <-chan error, done chan<- struct{}) {
	out := make(chan []byte)
	errs := make(chan error, 1)
	stop := make(chan struct{})

	go func() {
		defer close(out)

		scanner := bufio.NewScanner(r)
		// Increase buffer size for large requests
		buf := make([]byte, 0, 64*1024)
		scanner.Buffer(buf, 1024*1024)

		for scanner.Scan() {
			line := append([]byte(nil), scanner.Bytes()...)
			select {
			case out <- line:
			case <-stop:
				return
			}
		}
		errs <- scanner.Err()
	}()

	return out, errs, stop
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
			"protocolVersion": "2024-11-05",
			"capabilities": map[string]interface{}{
				"tools": map[string]interface{}{},
			},
			"serverInfo": map[string]interface{}{
				"name":    "compositor-mcp",
				"version": Version,
			},
		},
	}
}
