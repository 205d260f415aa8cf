// Package raster provides the floating point image buffer used by every
// compositor operation.
//
// An Image owns a row-major slice of pixel.RGBA values; the pixel at (x, y)
// lives at index y*Width + x. Three access modes share the buffer:
//   - Pix[i]: direct index, unchecked.
//   - At(x, y) / Set(x, y, c): coordinate index, unchecked.
//   - Clamped(x, y): each coordinate clamped into [0, dim-1] before indexing,
//     replicating the nearest edge pixel. Convolution and resampling use this
//     at borders.
//
// View presents an Image as an image.Image with 8-bit non-premultiplied
// colours, so standard library and third-party encoders can consume it
// directly.
//
// # Ownership
//
// An Image is owned by its holder. Resizing to a different pixel count
// reallocates Pix and invalidates slices previously taken from it. Operations
// in this module never alias input and output buffers.
//
// # Double buffering
//
// Buffer replaces the pointer swap used by interactive editors: edits are
// written to Staging and promoted with Commit.
package raster
