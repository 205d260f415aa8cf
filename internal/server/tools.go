package server

import (
	"github.com/ironsheep/compositor-mcp/internal/pipeline"
)

// Tool represents an MCP tool definition
type Tool struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	InputSchema map[string]interface{} `json:"inputSchema"`
}

func slotProperty(desc string) map[string]interface{} {
	return map[string]interface{}{
		"type":        "string",
		"description": desc,
	}
}

func colorProperty(desc string) map[string]interface{} {
	return map[string]interface{}{
		"type":        "string",
		"description": desc + " Hex \"#rrggbb\" or \"#rrggbbaa\".",
	}
}

var stageProperty = map[string]interface{}{
	"type":        "boolean",
	"description": "Keep the result staged instead of committing it; see image_apply. Default false",
	"default":     false,
}

// GetToolDefinitions returns all available tools
func GetToolDefinitions() []Tool {
	tools := []Tool{
		// Slot management
		{
			Name:        "image_load",
			Description: "Load an image file (PNG, JPEG, GIF, WebP, BMP, TIFF) into a named slot. On failure the slot keeps its previous image.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": map[string]interface{}{
						"type":        "string",
						"description": "Absolute path to the image file",
					},
					"slot":  slotProperty("Slot to load into; created if missing"),
					"stage": stageProperty,
				},
				"required": []string{"path", "slot"},
			},
		},
		{
			Name:        "image_write",
			Description: "Write a slot's committed image to a file. The format is chosen from the extension (.png, .jpg, .gif, .bmp, .tif).",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"slot": slotProperty("Slot to write"),
					"path": map[string]interface{}{
						"type":        "string",
						"description": "Absolute path of the output file",
					},
				},
				"required": []string{"slot", "path"},
			},
		},
		{
			Name:        "image_new",
			Description: "Create a blank image of the given size in a slot.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"slot": slotProperty("Slot to create or replace"),
					"width": map[string]interface{}{
						"type":        "integer",
						"description": "Width in pixels",
					},
					"height": map[string]interface{}{
						"type":        "integer",
						"description": "Height in pixels",
					},
					"fill":  colorProperty("Fill colour. Default transparent."),
					"stage": stageProperty,
				},
				"required": []string{"slot", "width", "height"},
			},
		},
		{
			Name:        "image_info",
			Description: "Report the size and pending state of one slot, or of every slot when none is given.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"slot": slotProperty("Slot to describe; omit to list all"),
				},
			},
		},
		{
			Name:        "image_apply",
			Description: "Commit a slot's staged result so it becomes the image later tools read, or discard it.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"slot": slotProperty("Slot with a staged result"),
					"discard": map[string]interface{}{
						"type":        "boolean",
						"description": "Drop the staged result instead of committing it. Default false",
						"default":     false,
					},
				},
				"required": []string{"slot"},
			},
		},

		// Inspection
		{
			Name:        "image_preview",
			Description: "Return a slot's image scaled to fit a bounding box as base64-encoded PNG. Use this to look at intermediate results.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"slot": slotProperty("Slot to preview"),
					"max_size": map[string]interface{}{
						"type":        "integer",
						"description": "Bounding box in pixels. Default from COMPOSITOR_PREVIEW_SIZE (512)",
					},
					"staged": map[string]interface{}{
						"type":        "boolean",
						"description": "Preview the staged result instead of the committed image. Default false",
						"default":     false,
					},
				},
				"required": []string{"slot"},
			},
		},
		{
			Name:        "image_stats",
			Description: "Per-channel minimum, maximum and mean of the float pixels, with optional 256-bin histograms.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"slot": slotProperty("Slot to measure"),
					"histogram": map[string]interface{}{
						"type":        "boolean",
						"description": "Include 8-bit histograms. Default false",
						"default":     false,
					},
					"staged": map[string]interface{}{
						"type":        "boolean",
						"description": "Measure the staged result. Default false",
						"default":     false,
					},
				},
				"required": []string{"slot"},
			},
		},
		{
			Name:        "image_sample_color",
			Description: "Get the float colour value at a pixel of a slot's committed image.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"slot": slotProperty("Slot to sample"),
					"x": map[string]interface{}{
						"type":        "integer",
						"description": "X coordinate (0-based, from left)",
					},
					"y": map[string]interface{}{
						"type":        "integer",
						"description": "Y coordinate (0-based, from top)",
					},
				},
				"required": []string{"slot", "x", "y"},
			},
		},

		// Rendering
		{
			Name:        "viewport_render",
			Description: "Draw slot images onto a new canvas with scale, rotation and translation, in layer order. Positions are in normalised viewport units where the canvas spans -1..1 vertically.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"output": slotProperty("Slot that receives the canvas"),
					"width": map[string]interface{}{
						"type":        "integer",
						"description": "Canvas width. Default: first layer's width",
					},
					"height": map[string]interface{}{
						"type":        "integer",
						"description": "Canvas height. Default: first layer's height",
					},
					"clear": colorProperty("Background colour. Default transparent."),
					"layers": map[string]interface{}{
						"type":        "array",
						"description": "Images to draw, bottom first",
						"items": map[string]interface{}{
							"type": "object",
							"properties": map[string]interface{}{
								"input": slotProperty("Slot to draw"),
								"scale": vec2Property("Scale per axis. Default {x:1, y:1} (full canvas height)"),
								"rotation": map[string]interface{}{
									"type":        "number",
									"description": "Rotation in degrees. Default 0",
								},
								"translation": vec2Property("Offset in normalised units; x=1 moves half the canvas width. Default {x:0, y:0}"),
								"filter": map[string]interface{}{
									"type":        "string",
									"enum":        []string{"bilinear", "bicubic", "nearest"},
									"description": "Resampling filter. Default bilinear",
								},
								"blend": map[string]interface{}{
									"type":        "boolean",
									"description": "Composite over the canvas using alpha instead of replacing pixels. Default false",
								},
							},
							"required": []string{"input"},
						},
					},
					"stage": stageProperty,
				},
				"required": []string{"output", "layers"},
			},
		},
	}

	for _, op := range pipeline.Operations() {
		tools = append(tools, operationTool(op))
	}
	return tools
}

func vec2Property(desc string) map[string]interface{} {
	return map[string]interface{}{
		"type":        "object",
		"description": desc,
		"properties": map[string]interface{}{
			"x": map[string]interface{}{"type": "number"},
			"y": map[string]interface{}{"type": "number"},
		},
	}
}

// operationTool builds the image_<op> tool for a pipeline operation from
// its input names and parameters.
func operationTool(op pipeline.Operation) Tool {
	props := map[string]interface{}{}
	var required []string

	for i, in := range op.Inputs {
		if op.MaxInputs < 0 && i == len(op.Inputs)-1 {
			props[in] = map[string]interface{}{
				"type":        "array",
				"items":       map[string]interface{}{"type": "string"},
				"description": "Slot names, in order",
			}
		} else {
			props[in] = slotProperty("Input slot")
		}
		if i < op.MinInputs {
			required = append(required, in)
		}
	}

	defaults := pipeline.DefaultParams()
	for _, name := range op.Params {
		props[name] = paramProperty(name, defaults)
	}

	outDesc := "Slot that receives the result. Default: the first input's slot"
	if op.MinInputs == 0 {
		outDesc = "Slot that receives the result"
		required = append(required, "output")
	}
	props["output"] = slotProperty(outDesc)
	props["stage"] = stageProperty

	schema := map[string]interface{}{
		"type":       "object",
		"properties": props,
	}
	if len(required) > 0 {
		schema["required"] = required
	}
	return Tool{
		Name:        operationToolPrefix + op.Name,
		Description: op.Description,
		InputSchema: schema,
	}
}

// paramProperty describes one pipeline.Params field by its JSON name.
func paramProperty(name string, d pipeline.Params) map[string]interface{} {
	number := func(desc string, def interface{}) map[string]interface{} {
		return map[string]interface{}{"type": "number", "description": desc, "default": def}
	}
	integer := func(desc string, def interface{}) map[string]interface{} {
		return map[string]interface{}{"type": "integer", "description": desc, "default": def}
	}

	switch name {
	case "contrast":
		return number("Contrast factor; the observed range maps to [1/contrast, contrast]", d.Contrast)
	case "lower":
		return number("Lower bound of the target range", d.Lower)
	case "upper":
		return number("Upper bound of the target range", d.Upper)
	case "tint":
		return colorProperty("Tint colour; its alpha is the blend strength. Default \"#ff00001a\".")
	case "threshold":
		return number("Brightness threshold, at most 1", d.Threshold)
	case "strength":
		return number("Multiplier for the kept or glowing pixels", d.Strength)
	case "hue":
		return number("Hue rotation in degrees", d.Hue)
	case "saturation":
		return number("Saturation multiplier", d.Saturation)
	case "value":
		return number("Value multiplier", d.Value)
	case "weights":
		return map[string]interface{}{
			"type":        "object",
			"description": "Channel weights. Default Rec. 601 luma {r:0.299, g:0.587, b:0.114}",
			"properties": map[string]interface{}{
				"r": map[string]interface{}{"type": "number"},
				"g": map[string]interface{}{"type": "number"},
				"b": map[string]interface{}{"type": "number"},
			},
		}
	case "factor":
		return number("Brightness multiplier", d.Factor)
	case "kernel_size":
		return integer("Gaussian kernel size; even sizes are rounded up to odd", d.KernelSize)
	case "cutoff":
		return number("Position of the mask edge as a fraction in [0, 1]", d.Cutoff)
	case "feather":
		return number("Width of the soft edge in pixels; 0 gives a hard edge", d.Feather)
	case "perlin":
		return map[string]interface{}{
			"type":        "object",
			"description": "Noise settings. Defaults {frequency:10, z:0, octaves:1, persistence:0.5}",
			"properties": map[string]interface{}{
				"frequency":   map[string]interface{}{"type": "number", "description": "Noise cells across the width"},
				"z":           map[string]interface{}{"type": "number", "description": "Slice of the 3D field"},
				"octaves":     map[string]interface{}{"type": "integer"},
				"persistence": map[string]interface{}{"type": "number", "description": "Amplitude ratio between octaves"},
			},
		}
	case "width":
		return integer("Mask width. Default: the like input's width", d.Width)
	case "height":
		return integer("Mask height. Default: the like input's height", d.Height)
	case "frame":
		return integer("Index of the frame being produced", d.Frame)
	case "min_offset":
		return integer("Frame offset where the mask alpha is 0", d.MinOffset)
	case "max_offset":
		return integer("Frame offset where the mask alpha is 1", d.MaxOffset)
	}
	return map[string]interface{}{"description": name}
}

// handleToolsList returns the list of available tools
func (s *Server) handleToolsList(req *MCPRequest) *MCPResponse {
	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result: map[string]interface{}{
			"tools": GetToolDefinitions(),
		},
	}
}
