// Package codec is the boundary between compositor images and files on disk.
//
// Decoding and encoding are delegated to github.com/disintegration/imaging,
// which understands PNG, JPEG, GIF, BMP and TIFF (plus WebP for decoding,
// registered here from golang.org/x/image). The compositor itself only sees
// tightly packed 8-bit RGBA buffers at this boundary and converts them to and
// from float pixels with pixel.FromByte and pixel.ToByte.
//
// # Failure semantics
//
// Read replaces the destination image only after a complete, successful
// decode. A missing file, a corrupt file or an oversize image returns an
// error and leaves the destination exactly as it was.
//
// # Previews and statistics
//
// Preview renders a bounded-size base64 PNG for clients that cannot read the
// output file directly. Stats reports float channel extrema alongside 8-bit
// histograms computed with github.com/anthonynsimon/bild/histogram.
package codec
