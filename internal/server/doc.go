// Package server implements the MCP (Model Context Protocol) server for the
// compositor.
//
// This package provides a JSON-RPC 2.0 server that exposes the image
// processing pipeline through the MCP protocol, so an MCP client can load
// images, chain operations on them and inspect the results.
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
// # Slots
//
// Images live in named slots. Each slot is a raster.Buffer holding a
// committed image and a staging image. Tools read the committed image of
// their input slots and write into the staging image of their output slot,
// then commit it unless called with "stage": true. A staged result can be
// previewed or measured and is committed or discarded with image_apply.
// Because results are written to staging, a slot can be both input and
// output of one call.
//
// # Available Tools
//
// Slot management:
//   - image_load, image_write, image_new, image_info, image_apply
//
// Inspection:
//   - image_preview: base64 PNG scaled to fit a bounding box
//   - image_stats: per-channel extrema, means and histograms
//   - image_sample_color: float colour at a pixel
//
// Rendering:
//   - viewport_render: draw slots onto a canvas with affine transforms
//
// Pipeline operations, one tool per registered operation named
// image_<operation>, for example image_gaussian_blur, image_composite and
// image_mask_perlin. Their input and parameter properties are generated from
// the pipeline registry. All of them run on the pipeline worker goroutine.
//
// # Error Handling
//
// Tool execution errors are returned as JSON-RPC error responses with:
//   - code: -32000 (tool execution failure) or standard JSON-RPC codes
//   - message: Human-readable error description
//   - data: Additional error details (typically the Go error string)
//
// image_gaussian_deblur is the exception: when the band matrix is singular
// or ill-conditioned the degraded result is still stored and the problem is
// reported in the result's "warning" field.
//
// # Usage
//
//	srv := server.New(config.Load())
//	defer srv.Close()
//	if err := srv.Run(ctx); err != nil {
//	    log.Fatal(err)
//	}
package server
