// Package convolve implements the separable Gaussian blur and its
// approximate inverse.
//
// # Blur
//
// The kernel is the analytic Gaussian density with sigma = (size-1)/6,
// truncated to the window and, unless asked, not renormalised. The blur
// runs a horizontal pass into an intermediate buffer and a vertical pass
// into the output, sampling the source with edge clamping. Only RGB is
// blurred; alpha is copied from the source.
//
// # Deblur
//
// The deconvolver models each blur pass as a banded matrix (entries
// kernel[|x-y|] inside the band, zero elsewhere, no edge clamping), inverts
// the row and column matrices with linalg, and multiplies every scanline by
// the inverses. The boundary model differs from the blur's clamped
// sampling, so pixels near the border are reconstructed less accurately
// than the interior. Inversion is O(n^3) per axis and is refused above
// Options.MaxDimension.
package convolve
