// Package linalg provides the dense square matrix used by deconvolution and
// a Gauss-Jordan inverse with partial pivoting.
//
// Entries are float64. Pixel data is float32, but the band matrices built
// from Gaussian kernels lose too much precision during elimination at
// single precision for widths in the hundreds.
package linalg
