// Package pixel implements per-pixel colour arithmetic for the compositor.
//
// Pixels are four float32 channels (RGBA) with a nominal range of [0,1].
// Intermediate results may leave that range (additive blends, contrast
// scaling); values are clamped only when converted to 8-bit with ToByte.
//
// # Arithmetic conventions
//
// The operators are deliberately asymmetric in how they treat alpha:
//   - Add and Sub combine the RGB channels and keep the first operand's alpha.
//   - Scale and Div touch only RGB; alpha is left alone.
//   - Mul multiplies all four channels.
//
// # Colour spaces
//
// HSVA uses hue in degrees [0,360) and saturation, value and alpha in [0,1].
// Achromatic colours (r == g == b) always map to hue 0 and saturation 0, so a
// hue round trip through an achromatic colour is lossy by construction.
//
// # Interpolation
//
// Lerp, Cubic, Bilinear, Bicubic and Nearest blend neighbouring samples for
// the viewport resampler. The cubic form passes through samples placed at
// offsets -1, 0, 1 and 2 and is evaluated between 0 and 1.
package pixel
