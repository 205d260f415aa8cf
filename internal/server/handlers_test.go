package server

import (
	"context"
	"encoding/json"
	"image"
	"image/color"
	"image/png"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ironsheep/compositor-mcp/internal/config"
)

// createTestImageFile writes a uniform PNG into a temp dir and returns its path
func createTestImageFile(t *testing.T, width, height int, c color.Color) string {
	t.Helper()

	img := image.NewNRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, c)
		}
	}

	path := filepath.Join(t.TempDir(), "input.png")
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("failed to create file: %v", err)
	}
	defer f.Close()

	if err := png.Encode(f, img); err != nil {
		t.Fatalf("failed to encode image: %v", err)
	}
	return path
}

// callTool runs a tools/call request and returns the response.
func callTool(t *testing.T, s *Server, name string, args interface{}) *MCPResponse {
	t.Helper()

	params, err := json.Marshal(map[string]interface{}{"name": name, "arguments": args})
	if err != nil {
		t.Fatalf("marshal params: %v", err)
	}
	resp := s.handleRequest(context.Background(), &MCPRequest{
		JSONRPC: "2.0",
		ID:      1,
		Method:  "tools/call",
		Params:  params,
	})
	if resp == nil {
		t.Fatal("handleRequest returned nil")
	}
	return resp
}

// mustCallTool runs a tool that must succeed and decodes its result into out.
func mustCallTool(t *testing.T, s *Server, name string, args, out interface{}) {
	t.Helper()

	resp := callTool(t, s, name, args)
	if resp.Error != nil {
		t.Fatalf("%s: unexpected error: %s: %v", name, resp.Error.Message, resp.Error.Data)
	}
	content := resp.Result.(map[string]interface{})["content"].([]map[string]interface{})
	if len(content) != 1 || content[0]["type"] != "text" {
		t.Fatalf("%s: unexpected content %v", name, content)
	}
	if out == nil {
		return
	}
	if err := json.Unmarshal([]byte(content[0]["text"].(string)), out); err != nil {
		t.Fatalf("%s: decode result: %v", name, err)
	}
}

// expectToolError runs a tool that must fail and returns the error detail.
func expectToolError(t *testing.T, s *Server, name string, args interface{}) string {
	t.Helper()

	resp := callTool(t, s, name, args)
	if resp.Error == nil {
		t.Fatalf("%s: expected an error", name)
	}
	if resp.Error.Code != -32000 {
		t.Errorf("%s: error code %d, want -32000", name, resp.Error.Code)
	}
	data, _ := resp.Error.Data.(string)
	return data
}

func near(a, b float32) bool {
	return math.Abs(float64(a-b)) < 1e-5
}

type rgba struct {
	R, G, B, A float32
}

func sampleColor(t *testing.T, s *Server, slot string, x, y int) rgba {
	t.Helper()
	var res struct {
		Color rgba   `json:"color"`
		Hex   string `json:"hex"`
	}
	mustCallTool(t, s, "image_sample_color", map[string]interface{}{"slot": slot, "x": x, "y": y}, &res)
	return res.Color
}

func assertColor(t *testing.T, got, want rgba) {
	t.Helper()
	if !near(got.R, want.R) || !near(got.G, want.G) || !near(got.B, want.B) || !near(got.A, want.A) {
		t.Errorf("colour: got %+v, want %+v", got, want)
	}
}

func TestHandleToolsCall_InvalidParams(t *testing.T) {
	s := newTestServer(t)
	resp := s.handleRequest(context.Background(), &MCPRequest{
		JSONRPC: "2.0", ID: 1, Method: "tools/call", Params: json.RawMessage(`"nope"`),
	})
	if resp.Error == nil || resp.Error.Code != -32602 {
		t.Fatalf("expected -32602, got %+v", resp.Error)
	}
}

func TestHandleToolsCall_UnknownTool(t *testing.T) {
	s := newTestServer(t)
	for _, name := range []string{"image_crop", "image_sharpen", "blur"} {
		data := expectToolError(t, s, name, map[string]interface{}{})
		if !strings.Contains(data, "unknown tool") {
			t.Errorf("%s: got %q", name, data)
		}
	}
}

func TestImageLoad(t *testing.T) {
	s := newTestServer(t)
	path := createTestImageFile(t, 10, 6, color.NRGBA{255, 0, 0, 255})

	var info SlotInfo
	mustCallTool(t, s, "image_load", map[string]interface{}{"path": path, "slot": "src"}, &info)

	if info.Name != "src" || info.Width != 10 || info.Height != 6 || info.Pending {
		t.Errorf("unexpected slot info %+v", info)
	}
	assertColor(t, sampleColor(t, s, "src", 3, 3), rgba{1, 0, 0, 1})
}

func TestImageLoad_FailureKeepsPreviousImage(t *testing.T) {
	s := newTestServer(t)
	path := createTestImageFile(t, 5, 5, color.NRGBA{0, 0, 255, 255})
	mustCallTool(t, s, "image_load", map[string]interface{}{"path": path, "slot": "src"}, nil)

	missing := filepath.Join(t.TempDir(), "missing.png")
	expectToolError(t, s, "image_load", map[string]interface{}{"path": missing, "slot": "src"})
	assertColor(t, sampleColor(t, s, "src", 0, 0), rgba{0, 0, 1, 1})

	// A failed load into a new slot does not create it.
	expectToolError(t, s, "image_load", map[string]interface{}{"path": missing, "slot": "other"})
	data := expectToolError(t, s, "image_info", map[string]interface{}{"slot": "other"})
	if !strings.Contains(data, "unknown image slot") {
		t.Errorf("got %q", data)
	}
}

func TestImageLoad_MissingArguments(t *testing.T) {
	s := newTestServer(t)
	path := createTestImageFile(t, 2, 2, color.White)

	expectToolError(t, s, "image_load", map[string]interface{}{"slot": "a"})
	expectToolError(t, s, "image_load", map[string]interface{}{"path": path})
}

func TestImageNewAndInfo(t *testing.T) {
	s := newTestServer(t)
	mustCallTool(t, s, "image_new", map[string]interface{}{"slot": "b", "width": 3, "height": 2, "fill": "#336699"}, nil)
	mustCallTool(t, s, "image_new", map[string]interface{}{"slot": "a", "width": 1, "height": 1}, nil)

	assertColor(t, sampleColor(t, s, "b", 2, 1), rgba{0.2, 0.4, 0.6, 1})
	assertColor(t, sampleColor(t, s, "a", 0, 0), rgba{})

	var all imageInfoResult
	mustCallTool(t, s, "image_info", map[string]interface{}{}, &all)
	if len(all.Slots) != 2 || all.Slots[0].Name != "a" || all.Slots[1].Name != "b" {
		t.Fatalf("slots not listed in order: %+v", all.Slots)
	}
	if all.Slots[1].Width != 3 || all.Slots[1].Height != 2 {
		t.Errorf("unexpected size %+v", all.Slots[1])
	}
}

func TestImageNew_Errors(t *testing.T) {
	s := newTestServer(t)
	s.cfg.MaxPixels = 100

	tests := []struct {
		name string
		args map[string]interface{}
	}{
		{"zero size", map[string]interface{}{"slot": "a", "width": 0, "height": 4}},
		{"too large", map[string]interface{}{"slot": "a", "width": 20, "height": 20}},
		{"bad colour", map[string]interface{}{"slot": "a", "width": 2, "height": 2, "fill": "#zzzzzz"}},
		{"colour not a string", map[string]interface{}{"slot": "a", "width": 2, "height": 2, "fill": 3}},
		{"no slot", map[string]interface{}{"width": 2, "height": 2}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			expectToolError(t, s, "image_new", tt.args)
		})
	}
}

func TestImageSampleColor_OutOfBounds(t *testing.T) {
	s := newTestServer(t)
	mustCallTool(t, s, "image_new", map[string]interface{}{"slot": "a", "width": 2, "height": 2}, nil)
	expectToolError(t, s, "image_sample_color", map[string]interface{}{"slot": "a", "x": 2, "y": 0})
	expectToolError(t, s, "image_sample_color", map[string]interface{}{"slot": "a", "x": 0, "y": -1})
}

func TestImageWrite(t *testing.T) {
	s := newTestServer(t)
	mustCallTool(t, s, "image_new", map[string]interface{}{"slot": "a", "width": 4, "height": 3, "fill": "#ff8000"}, nil)

	path := filepath.Join(t.TempDir(), "out.png")
	var res imageWriteResult
	mustCallTool(t, s, "image_write", map[string]interface{}{"slot": "a", "path": path}, &res)
	if res.Width != 4 || res.Height != 3 {
		t.Errorf("unexpected result %+v", res)
	}

	mustCallTool(t, s, "image_load", map[string]interface{}{"path": path, "slot": "b"}, nil)
	assertColor(t, sampleColor(t, s, "b", 1, 1), rgba{1, 128.0 / 255, 0, 1})

	expectToolError(t, s, "image_write", map[string]interface{}{"slot": "a", "path": filepath.Join(t.TempDir(), "out.xyz")})
	expectToolError(t, s, "image_write", map[string]interface{}{"slot": "missing", "path": path})
}

func TestImagePreviewAndStats(t *testing.T) {
	s := newTestServer(t)
	mustCallTool(t, s, "image_new", map[string]interface{}{"slot": "a", "width": 40, "height": 20, "fill": "#ffffff"}, nil)

	var preview struct {
		Width       int    `json:"width"`
		Height      int    `json:"height"`
		ImageBase64 string `json:"image_base64"`
	}
	mustCallTool(t, s, "image_preview", map[string]interface{}{"slot": "a", "max_size": 10}, &preview)
	if preview.Width != 10 || preview.Height != 5 || preview.ImageBase64 == "" {
		t.Errorf("unexpected preview %dx%d", preview.Width, preview.Height)
	}

	var stats struct {
		R struct {
			Min       float32 `json:"min"`
			Max       float32 `json:"max"`
			Histogram []int   `json:"histogram"`
		} `json:"r"`
	}
	mustCallTool(t, s, "image_stats", map[string]interface{}{"slot": "a", "histogram": true}, &stats)
	if stats.R.Min != 1 || stats.R.Max != 1 {
		t.Errorf("unexpected red range %+v", stats.R)
	}
	if len(stats.R.Histogram) != 256 || stats.R.Histogram[255] != 800 {
		t.Errorf("unexpected red histogram")
	}

	expectToolError(t, s, "image_preview", map[string]interface{}{"slot": "a", "staged": true})
}

func TestOperation_CommitsInPlace(t *testing.T) {
	s := newTestServer(t)
	mustCallTool(t, s, "image_new", map[string]interface{}{"slot": "a", "width": 2, "height": 2, "fill": "#336699"}, nil)

	var res operationResult
	mustCallTool(t, s, "image_negative", map[string]interface{}{"input": "a"}, &res)

	if res.Op != "negative" || res.Name != "a" || !res.Committed || res.Pending {
		t.Errorf("unexpected result %+v", res)
	}
	assertColor(t, sampleColor(t, s, "a", 0, 0), rgba{0.8, 0.6, 0.4, 1})
}

func TestOperation_StageApplyDiscard(t *testing.T) {
	s := newTestServer(t)
	mustCallTool(t, s, "image_new", map[string]interface{}{"slot": "a", "width": 2, "height": 2, "fill": "#ff0000"}, nil)

	var res operationResult
	mustCallTool(t, s, "image_brightness", map[string]interface{}{"input": "a", "factor": 0.5, "stage": true}, &res)
	if res.Committed || !res.Pending {
		t.Fatalf("expected a staged result, got %+v", res)
	}
	// Still the committed image.
	assertColor(t, sampleColor(t, s, "a", 0, 0), rgba{1, 0, 0, 1})

	var stats struct {
		R struct {
			Max float32 `json:"max"`
		} `json:"r"`
	}
	mustCallTool(t, s, "image_stats", map[string]interface{}{"slot": "a", "staged": true}, &stats)
	if !near(stats.R.Max, 0.5) {
		t.Errorf("staged red max: got %v", stats.R.Max)
	}

	var applied imageApplyResult
	mustCallTool(t, s, "image_apply", map[string]interface{}{"slot": "a"}, &applied)
	if !applied.Committed || applied.Pending {
		t.Errorf("unexpected apply result %+v", applied)
	}
	assertColor(t, sampleColor(t, s, "a", 0, 0), rgba{0.5, 0, 0, 1})

	mustCallTool(t, s, "image_brightness", map[string]interface{}{"input": "a", "factor": 0, "stage": true}, nil)
	mustCallTool(t, s, "image_apply", map[string]interface{}{"slot": "a", "discard": true}, &applied)
	if !applied.Discarded || applied.Committed || applied.Pending {
		t.Errorf("unexpected discard result %+v", applied)
	}
	assertColor(t, sampleColor(t, s, "a", 0, 0), rgba{0.5, 0, 0, 1})

	// Nothing left to commit.
	mustCallTool(t, s, "image_apply", map[string]interface{}{"slot": "a"}, &applied)
	if applied.Committed {
		t.Error("apply without a staged result should not commit")
	}
}

func TestOperation_OutputSlotAndTint(t *testing.T) {
	s := newTestServer(t)
	mustCallTool(t, s, "image_new", map[string]interface{}{"slot": "a", "width": 2, "height": 2, "fill": "#000000"}, nil)

	mustCallTool(t, s, "image_tint", map[string]interface{}{"input": "a", "output": "t", "tint": "#ffffff80"}, nil)

	got := sampleColor(t, s, "t", 1, 1)
	if !near(got.R, 128.0/255) || !near(got.A, 1) {
		t.Errorf("tinted colour: got %+v", got)
	}
	assertColor(t, sampleColor(t, s, "a", 1, 1), rgba{0, 0, 0, 1})
}

func TestOperation_CompositeAndMasks(t *testing.T) {
	s := newTestServer(t)
	mustCallTool(t, s, "image_new", map[string]interface{}{"slot": "red", "width": 8, "height": 4, "fill": "#ff0000"}, nil)
	mustCallTool(t, s, "image_new", map[string]interface{}{"slot": "blue", "width": 8, "height": 4, "fill": "#0000ff"}, nil)

	var mask operationResult
	mustCallTool(t, s, "image_mask_horizontal", map[string]interface{}{"like": "red", "output": "m", "feather": 0}, &mask)
	if mask.Width != 8 || mask.Height != 4 {
		t.Fatalf("mask size %dx%d", mask.Width, mask.Height)
	}

	mustCallTool(t, s, "image_composite", map[string]interface{}{"a": "red", "b": "blue", "mask": "m", "output": "out"}, nil)
	// Left of the cutoff the mask is 0 and b shows; right of it a shows.
	assertColor(t, sampleColor(t, s, "out", 0, 0), rgba{0, 0, 1, 1})
	assertColor(t, sampleColor(t, s, "out", 7, 0), rgba{1, 0, 0, 1})

	// Explicit size without a like input.
	mustCallTool(t, s, "image_mask_perlin", map[string]interface{}{"output": "p", "width": 5, "height": 3, "perlin": map[string]interface{}{"octaves": 2}}, &mask)
	if mask.Width != 5 || mask.Height != 3 {
		t.Errorf("perlin mask size %dx%d", mask.Width, mask.Height)
	}

	expectToolError(t, s, "image_mask_circle", map[string]interface{}{"width": 5, "height": 3})
	expectToolError(t, s, "image_composite", map[string]interface{}{"a": "red", "b": "blue"})
	expectToolError(t, s, "image_composite", map[string]interface{}{"a": "red", "b": "nope", "mask": "m"})
	expectToolError(t, s, "image_composite", map[string]interface{}{"a": "red", "b": 3, "mask": "m"})
}

func TestOperation_Temporal(t *testing.T) {
	s := newTestServer(t)
	for i, fill := range []string{"#000000", "#808080", "#ffffff"} {
		slot := []string{"f0", "f1", "f2"}[i]
		mustCallTool(t, s, "image_new", map[string]interface{}{"slot": slot, "width": 2, "height": 2, "fill": fill}, nil)
	}
	mustCallTool(t, s, "image_new", map[string]interface{}{"slot": "m", "width": 2, "height": 2, "fill": "#000000ff"}, nil)

	mustCallTool(t, s, "image_temporal", map[string]interface{}{
		"mask": "m", "frames": []string{"f0", "f1", "f2"}, "output": "out",
		"frame": 0, "min_offset": 2, "max_offset": 2,
	}, nil)
	assertColor(t, sampleColor(t, s, "out", 0, 0), rgba{1, 1, 1, 1})

	expectToolError(t, s, "image_temporal", map[string]interface{}{"mask": "m", "frames": "f0", "output": "out"})
}

func TestOperation_DeblurKeepsDegradedResult(t *testing.T) {
	s := newTestServer(t)
	mustCallTool(t, s, "image_new", map[string]interface{}{"slot": "a", "width": 4, "height": 4, "fill": "#808080"}, nil)

	var res operationResult
	mustCallTool(t, s, "image_gaussian_deblur", map[string]interface{}{"input": "a", "kernel_size": 9}, &res)
	if res.Warning == "" || !res.Committed {
		t.Errorf("expected a committed result with a warning, got %+v", res)
	}
	assertColor(t, sampleColor(t, s, "a", 1, 1), rgba{128.0 / 255, 128.0 / 255, 128.0 / 255, 1})
}

func TestOperation_FailureDropsStagedResult(t *testing.T) {
	s := newTestServer(t)
	mustCallTool(t, s, "image_new", map[string]interface{}{"slot": "a", "width": 2, "height": 2}, nil)
	mustCallTool(t, s, "image_negative", map[string]interface{}{"input": "a", "stage": true}, nil)

	expectToolError(t, s, "image_threshold", map[string]interface{}{"input": "a", "threshold": 1.5})

	var info SlotInfo
	mustCallTool(t, s, "image_info", map[string]interface{}{"slot": "a"}, &info)
	if info.Pending {
		t.Error("failed operation should drop the staged result")
	}
}

func TestOperation_OutputBoundedByMaxPixels(t *testing.T) {
	cfg := config.Default()
	cfg.MaxPixels = 1000
	s := New(cfg)
	t.Cleanup(s.Close)

	mustCallTool(t, s, "image_new", map[string]interface{}{"slot": "wide", "width": 1000, "height": 1}, nil)
	mustCallTool(t, s, "image_new", map[string]interface{}{"slot": "tall", "width": 1, "height": 1000}, nil)

	for _, name := range []string{"image_add", "image_subtract"} {
		msg := expectToolError(t, s, name, map[string]interface{}{"a": "wide", "b": "tall", "output": "sum"})
		if !strings.Contains(msg, "exceeds 1000 pixels") {
			t.Errorf("%s: unexpected error %q", name, msg)
		}
	}
	expectToolError(t, s, "image_add", map[string]interface{}{"a": "wide", "b": "tall"})

	var all imageInfoResult
	mustCallTool(t, s, "image_info", map[string]interface{}{}, &all)
	if len(all.Slots) != 2 {
		t.Errorf("refused outputs should not create slots: %+v", all.Slots)
	}
	var wide SlotInfo
	mustCallTool(t, s, "image_info", map[string]interface{}{"slot": "wide"}, &wide)
	if wide.Width != 1000 || wide.Height != 1 || wide.Pending {
		t.Errorf("in-place failure changed the slot: %+v", wide)
	}

	expectToolError(t, s, "viewport_render", map[string]interface{}{
		"output": "c", "width": 40, "height": 40,
		"layers": []map[string]interface{}{{"input": "wide"}},
	})
}

func TestViewportRender(t *testing.T) {
	s := newTestServer(t)
	mustCallTool(t, s, "image_new", map[string]interface{}{"slot": "src", "width": 8, "height": 8, "fill": "#00ff00"}, nil)

	var info SlotInfo
	mustCallTool(t, s, "viewport_render", map[string]interface{}{
		"output": "canvas",
		"width":  16,
		"height": 16,
		"clear":  "#000000",
		"layers": []map[string]interface{}{
			{"input": "src", "scale": map[string]float64{"x": 0.5, "y": 0.5}, "filter": "nearest"},
		},
	}, &info)
	if info.Width != 16 || info.Height != 16 {
		t.Fatalf("canvas size %dx%d", info.Width, info.Height)
	}

	assertColor(t, sampleColor(t, s, "canvas", 8, 8), rgba{0, 1, 0, 1})
	assertColor(t, sampleColor(t, s, "canvas", 0, 0), rgba{0, 0, 0, 1})
}

func TestViewportRender_Errors(t *testing.T) {
	s := newTestServer(t)
	mustCallTool(t, s, "image_new", map[string]interface{}{"slot": "src", "width": 4, "height": 4}, nil)

	tests := []struct {
		name string
		args map[string]interface{}
	}{
		{"no layers", map[string]interface{}{"output": "c"}},
		{"unknown slot", map[string]interface{}{"output": "c", "layers": []map[string]interface{}{{"input": "nope"}}}},
		{"unknown filter", map[string]interface{}{"output": "c", "layers": []map[string]interface{}{{"input": "src", "filter": "lanczos"}}}},
		{"zero scale", map[string]interface{}{"output": "c", "layers": []map[string]interface{}{{"input": "src", "scale": map[string]float64{"x": 0, "y": 1}}}}},
		{"no output", map[string]interface{}{"layers": []map[string]interface{}{{"input": "src"}}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			expectToolError(t, s, "viewport_render", tt.args)
		})
	}

	var all imageInfoResult
	mustCallTool(t, s, "image_info", map[string]interface{}{}, &all)
	if len(all.Slots) != 1 {
		t.Errorf("failed renders should not create slots: %+v", all.Slots)
	}
}

func TestParseColor(t *testing.T) {
	tests := []struct {
		in      string
		want    rgba
		wantErr bool
	}{
		{"#ff0000", rgba{1, 0, 0, 1}, false},
		{"00ff00", rgba{0, 1, 0, 1}, false},
		{"#00f", rgba{0, 0, 1, 1}, false},
		{"#ffffff00", rgba{1, 1, 1, 0}, false},
		{"#ffffffzz", rgba{}, true},
		{"red", rgba{}, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			c, err := parseColor(tt.in)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected an error, got %+v", c)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			assertColor(t, rgba{c.R, c.G, c.B, c.A}, tt.want)
		})
	}
}
