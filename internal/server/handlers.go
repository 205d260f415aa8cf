package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"

	"github.com/ironsheep/compositor-mcp/internal/codec"
	"github.com/ironsheep/compositor-mcp/internal/pixel"
	"github.com/ironsheep/compositor-mcp/internal/raster"
)

// ToolCallParams represents the parameters for a tools/call MCP request.
type ToolCallParams struct {
	// Name is the tool to invoke (e.g., "image_load", "image_gaussian_blur").
	Name string `json:"name"`

	// Arguments contains the tool-specific parameters as JSON.
	Arguments json.RawMessage `json:"arguments"`
}

// errUnknownSlot is returned when a tool names a slot that holds no image.
var errUnknownSlot = errors.New("unknown image slot")

// handleToolsCall processes a tools/call request and executes the specified tool.
//
// The response wraps the tool result in MCP's content format:
//
//	{
//	  "content": [{"type": "text", "text": "<JSON result>"}]
//	}
//
// Tool execution errors return a JSON-RPC error response with code -32000.
func (s *Server) handleToolsCall(ctx context.Context, req *MCPRequest) *MCPResponse {
	var params ToolCallParams
	if err := json.Unmarshal(req.Params, &params); err != nil {
		return s.errorResponse(req.ID, -32602, "Invalid params", err.Error())
	}
	if len(params.Arguments) == 0 {
		params.Arguments = json.RawMessage("{}")
	}

	result, err := s.executeTool(ctx, params.Name, params.Arguments)
	if err != nil {
		return s.errorResponse(req.ID, -32000, "Tool execution failed", err.Error())
	}

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
// Tools named image_<op> for a registered pipeline operation go through
// handleOperation.
func (s *Server) executeTool(ctx context.Context, name string, args json.RawMessage) (interface{}, error) {
	switch name {
	// Slot management
	case "image_load":
		return s.handleImageLoad(args)
	case "image_write":
		return s.handleImageWrite(args)
	case "image_new":
		return s.handleImageNew(args)
	case "image_info":
		return s.handleImageInfo(args)
	case "image_apply":
		return s.handleImageApply(args)

	// Inspection
	case "image_preview":
		return s.handleImagePreview(args)
	case "image_stats":
		return s.handleImageStats(args)
	case "image_sample_color":
		return s.handleImageSampleColor(args)

	// Rendering
	case "viewport_render":
		return s.handleViewportRender(args)
	}

	if op, ok := lookupOperationTool(name); ok {
		return s.handleOperation(ctx, op, args)
	}
	return nil, fmt.Errorf("unknown tool: %s", name)
}

// errorResponse creates a JSON-RPC error response with the given details.
func (s *Server) errorResponse(id interface{}, code int, message, data string) *MCPResponse {
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

// slot returns the buffer registered under name.
func (s *Server) slot(name string) (*raster.Buffer, error) {
	if name == "" {
		return nil, errors.New("slot name is required")
	}
	buf, ok := s.slots[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", errUnknownSlot, name)
	}
	return buf, nil
}

// slotForWrite returns the buffer for name, or a fresh one that finish
// registers once it holds an image.
func (s *Server) slotForWrite(name string) (*raster.Buffer, error) {
	if name == "" {
		return nil, errors.New("output slot name is required")
	}
	if buf, ok := s.slots[name]; ok {
		return buf, nil
	}
	return raster.NewBufferWithin(s.cfg.MaxPixels), nil
}

// finish commits or keeps a staged result and registers a new slot.
func (s *Server) finish(name string, buf *raster.Buffer, stage bool) SlotInfo {
	s.slots[name] = buf
	if !stage {
		buf.Commit()
	}
	return slotInfo(name, buf)
}

// SlotInfo describes one image slot.
type SlotInfo struct {
	Name   string `json:"name"`
	Width  int    `json:"width"`
	Height int    `json:"height"`

	// Pending is true when a staged result awaits image_apply.
	Pending      bool `json:"pending"`
	StagedWidth  int  `json:"staged_width,omitempty"`
	StagedHeight int  `json:"staged_height,omitempty"`
}

func slotInfo(name string, buf *raster.Buffer) SlotInfo {
	cur := buf.Current()
	info := SlotInfo{Name: name, Width: cur.Width, Height: cur.Height, Pending: buf.Pending()}
	if info.Pending {
		info.StagedWidth, info.StagedHeight = buf.Staging().Width, buf.Staging().Height
	}
	return info
}

// === Slot Management Handlers ===

type imageLoadArgs struct {
	Path  string `json:"path"`
	Slot  string `json:"slot"`
	Stage bool   `json:"stage"`
}

func (s *Server) handleImageLoad(args json.RawMessage) (interface{}, error) {
	var a imageLoadArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	if a.Path == "" {
		return nil, errors.New("path is required")
	}
	buf, err := s.slotForWrite(a.Slot)
	if err != nil {
		return nil, err
	}
	if err := codec.ReadWithin(a.Path, buf.Staging(), s.cfg.MaxPixels); err != nil {
		return nil, err
	}
	buf.MarkStaged()
	return s.finish(a.Slot, buf, a.Stage), nil
}

type imageWriteArgs struct {
	Slot string `json:"slot"`
	Path string `json:"path"`
}

type imageWriteResult struct {
	Path   string `json:"path"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
}

func (s *Server) handleImageWrite(args json.RawMessage) (interface{}, error) {
	var a imageWriteArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	buf, err := s.slot(a.Slot)
	if err != nil {
		return nil, err
	}
	img := buf.Current()
	if err := codec.Write(a.Path, img); err != nil {
		return nil, err
	}
	return imageWriteResult{Path: a.Path, Width: img.Width, Height: img.Height}, nil
}

type imageNewArgs struct {
	Slot   string   `json:"slot"`
	Width  int      `json:"width"`
	Height int      `json:"height"`
	Fill   colorArg `json:"fill"`
	Stage  bool     `json:"stage"`
}

func (s *Server) handleImageNew(args json.RawMessage) (interface{}, error) {
	var a imageNewArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	buf, err := s.slotForWrite(a.Slot)
	if err != nil {
		return nil, err
	}
	dst := buf.Staging()
	if err := dst.ResizeWithin(a.Width, a.Height, s.cfg.MaxPixels); err != nil {
		return nil, err
	}
	dst.Fill(a.Fill.or(pixel.Transparent))
	buf.MarkStaged()
	return s.finish(a.Slot, buf, a.Stage), nil
}

type imageInfoArgs struct {
	Slot string `json:"slot"`
}

type imageInfoResult struct {
	Slots []SlotInfo `json:"slots"`
}

func (s *Server) handleImageInfo(args json.RawMessage) (interface{}, error) {
	var a imageInfoArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	if a.Slot != "" {
		buf, err := s.slot(a.Slot)
		if err != nil {
			return nil, err
		}
		return slotInfo(a.Slot, buf), nil
	}

	names := make([]string, 0, len(s.slots))
	for name := range s.slots {
		names = append(names, name)
	}
	sort.Strings(names)

	res := imageInfoResult{Slots: make([]SlotInfo, 0, len(names))}
	for _, name := range names {
		res.Slots = append(res.Slots, slotInfo(name, s.slots[name]))
	}
	return res, nil
}

type imageApplyArgs struct {
	Slot    string `json:"slot"`
	Discard bool   `json:"discard"`
}

type imageApplyResult struct {
	SlotInfo
	Committed bool `json:"committed"`
	Discarded bool `json:"discarded"`
}

func (s *Server) handleImageApply(args json.RawMessage) (interface{}, error) {
	var a imageApplyArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	buf, err := s.slot(a.Slot)
	if err != nil {
		return nil, err
	}

	var res imageApplyResult
	if a.Discard {
		res.Discarded = buf.Pending()
		buf.Discard()
	} else {
		res.Committed = buf.Commit()
	}
	res.SlotInfo = slotInfo(a.Slot, buf)
	return res, nil
}

// === Inspection Handlers ===

type imagePreviewArgs struct {
	Slot    string `json:"slot"`
	MaxSize int    `json:"max_size"`
	Staged  bool   `json:"staged"`
}

func (s *Server) handleImagePreview(args json.RawMessage) (interface{}, error) {
	var a imagePreviewArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	if a.MaxSize == 0 {
		a.MaxSize = s.cfg.PreviewSize
	}
	img, err := s.view(a.Slot, a.Staged)
	if err != nil {
		return nil, err
	}
	return codec.Preview(img, a.MaxSize)
}

type imageStatsArgs struct {
	Slot      string `json:"slot"`
	Histogram bool   `json:"histogram"`
	Staged    bool   `json:"staged"`
}

func (s *Server) handleImageStats(args json.RawMessage) (interface{}, error) {
	var a imageStatsArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	img, err := s.view(a.Slot, a.Staged)
	if err != nil {
		return nil, err
	}
	return codec.Stats(img, a.Histogram)
}

type imageSampleColorArgs struct {
	Slot string `json:"slot"`
	X    int    `json:"x"`
	Y    int    `json:"y"`
}

type imageSampleColorResult struct {
	X     int        `json:"x"`
	Y     int        `json:"y"`
	Color pixel.RGBA `json:"color"`
	Hex   string     `json:"hex"`
}

func (s *Server) handleImageSampleColor(args json.RawMessage) (interface{}, error) {
	var a imageSampleColorArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	img, err := s.view(a.Slot, false)
	if err != nil {
		return nil, err
	}
	if a.X < 0 || a.Y < 0 || a.X >= img.Width || a.Y >= img.Height {
		return nil, fmt.Errorf("coordinates (%d, %d) out of bounds for %dx%d image", a.X, a.Y, img.Width, img.Height)
	}
	c := img.At(a.X, a.Y)
	return imageSampleColorResult{X: a.X, Y: a.Y, Color: c, Hex: hexColor(c)}, nil
}

// view returns the committed image of a slot, or its staged result.
func (s *Server) view(name string, staged bool) (*raster.Image, error) {
	buf, err := s.slot(name)
	if err != nil {
		return nil, err
	}
	if !staged {
		return buf.Current(), nil
	}
	if !buf.Pending() {
		return nil, fmt.Errorf("slot %q has no staged result", name)
	}
	return buf.Staging(), nil
}
