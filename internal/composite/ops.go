package composite

import (
	"errors"
	"fmt"

	"github.com/chewxy/math32"

	"github.com/ironsheep/compositor-mcp/internal/pixel"
	"github.com/ironsheep/compositor-mcp/internal/raster"
)

// ErrInvalidParameter is returned for out-of-range operator parameters.
var ErrInvalidParameter = errors.New("composite: invalid parameter")

// GreyWeights are the channel weights used by Greyscale.
type GreyWeights struct {
	R float32 `json:"r"`
	G float32 `json:"g"`
	B float32 `json:"b"`
}

var (
	// Luma is the Rec. 601 luma weighting.
	Luma = GreyWeights{R: 0.299, G: 0.587, B: 0.114}

	// Average weights the channels equally.
	Average = GreyWeights{R: 1.0 / 3, G: 1.0 / 3, B: 1.0 / 3}
)

// mapPixels resizes dst to src and writes fn(p) for every pixel.
func mapPixels(op string, src, dst *raster.Image, fn func(pixel.RGBA) pixel.RGBA) error {
	if src.Empty() {
		return fmt.Errorf("%s: %w: source is empty", op, raster.ErrInvalidDimensions)
	}
	if err := dst.ResizeLike(src); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	for i, p := range src.Pix {
		dst.Pix[i] = fn(p)
	}
	return nil
}

func invalid(op, format string, args ...any) error {
	return fmt.Errorf("%s: %w: %s", op, ErrInvalidParameter, fmt.Sprintf(format, args...))
}

// Threshold writes opaque white where the RGB mean of src exceeds t and
// transparent black elsewhere. t must not exceed 1, or a second pass would
// turn the white output black. For RGB in [0, 1] the operator is idempotent.
func Threshold(src, dst *raster.Image, t float32) error {
	if !(t <= 1) {
		return invalid("threshold", "threshold %v above 1", t)
	}
	return mapPixels("threshold", src, dst, func(p pixel.RGBA) pixel.RGBA {
		if pixel.Brightness(p) > t {
			return pixel.White
		}
		return pixel.Transparent
	})
}

// ThresholdColor keeps pixels whose RGB mean exceeds t, with RGB scaled by
// strength, and writes transparent black elsewhere.
func ThresholdColor(src, dst *raster.Image, t, strength float32) error {
	return mapPixels("threshold color", src, dst, func(p pixel.RGBA) pixel.RGBA {
		if pixel.Brightness(p) > t {
			return pixel.Scale(p, strength)
		}
		return pixel.Transparent
	})
}

// MinMax returns the per-channel minimum and maximum over all pixels.
func MinMax(img *raster.Image) (lo, hi pixel.RGBA, err error) {
	if img.Empty() {
		return lo, hi, fmt.Errorf("min max: %w: image is empty", raster.ErrInvalidDimensions)
	}
	lo, hi = img.Pix[0], img.Pix[0]
	for _, p := range img.Pix[1:] {
		lo = pixel.RGBA{R: math32.Min(lo.R, p.R), G: math32.Min(lo.G, p.G), B: math32.Min(lo.B, p.B), A: math32.Min(lo.A, p.A)}
		hi = pixel.RGBA{R: math32.Max(hi.R, p.R), G: math32.Max(hi.G, p.G), B: math32.Max(hi.B, p.B), A: math32.Max(hi.A, p.A)}
	}
	return lo, hi, nil
}

// ScaleContrast remaps the observed RGB range onto [1/contrast, contrast].
// contrast must be positive. Values above 1 widen the range past [0,1];
// the excess is kept until export.
func ScaleContrast(src, dst *raster.Image, contrast float32) error {
	if !(contrast > 0) {
		return invalid("contrast", "contrast %v must be positive", contrast)
	}
	return ScaleContrastRange(src, dst, 1/contrast, contrast)
}

// ScaleContrastRange remaps the observed RGB range of src linearly onto
// [lower, upper]. The range is taken over all three colour channels
// together so hues are not shifted. A flat image maps to the midpoint.
func ScaleContrastRange(src, dst *raster.Image, lower, upper float32) error {
	lo, hi, err := MinMax(src)
	if err != nil {
		return fmt.Errorf("contrast: %w", err)
	}
	minV := math32.Min(lo.R, math32.Min(lo.G, lo.B))
	maxV := math32.Max(hi.R, math32.Max(hi.G, hi.B))

	remap := func(v float32) float32 {
		return (lower + upper) / 2
	}
	if maxV > minV {
		scale := (upper - lower) / (maxV - minV)
		remap = func(v float32) float32 {
			return lower + (v-minV)*scale
		}
	}
	return mapPixels("contrast", src, dst, func(p pixel.RGBA) pixel.RGBA {
		return pixel.RGBA{R: remap(p.R), G: remap(p.G), B: remap(p.B), A: p.A}
	})
}

// ColorTint blends tint over every pixel with the Porter-Duff over
// operator; tint.A sets its strength.
func ColorTint(src, dst *raster.Image, tint pixel.RGBA) error {
	return mapPixels("tint", src, dst, func(p pixel.RGBA) pixel.RGBA {
		return pixel.BlendOver(tint, p)
	})
}

// AdjustHSV rotates hue by deltaHue degrees and multiplies saturation and
// value. Results are wrapped and clamped back into HSV range before
// converting to RGB.
func AdjustHSV(src, dst *raster.Image, deltaHue, satScale, valScale float32) error {
	return mapPixels("adjust hsv", src, dst, func(p pixel.RGBA) pixel.RGBA {
		c := pixel.ToHSVA(p)
		c.H += deltaHue
		c.S *= satScale
		c.V *= valScale
		return pixel.FromHSVA(c)
	})
}

// RotateHue is AdjustHSV with only a hue change.
func RotateHue(src, dst *raster.Image, degrees float32) error {
	return AdjustHSV(src, dst, degrees, 1, 1)
}

// ScaleSaturation is AdjustHSV with only a saturation change.
func ScaleSaturation(src, dst *raster.Image, s float32) error {
	return AdjustHSV(src, dst, 0, s, 1)
}

// ScaleValue is AdjustHSV with only a value change.
func ScaleValue(src, dst *raster.Image, v float32) error {
	return AdjustHSV(src, dst, 0, 1, v)
}

// Greyscale replaces RGB with the weighted sum of the channels.
func Greyscale(src, dst *raster.Image, w GreyWeights) error {
	return mapPixels("greyscale", src, dst, func(p pixel.RGBA) pixel.RGBA {
		v := w.R*p.R + w.G*p.G + w.B*p.B
		return pixel.RGBA{R: v, G: v, B: v, A: p.A}
	})
}

// Negative inverts RGB.
func Negative(src, dst *raster.Image) error {
	return mapPixels("negative", src, dst, pixel.Negative)
}

// ScaleBrightness multiplies RGB by factor.
func ScaleBrightness(src, dst *raster.Image, factor float32) error {
	return mapPixels("brightness", src, dst, func(p pixel.RGBA) pixel.RGBA {
		return pixel.Scale(p, factor)
	})
}

// Maskify converts an image into a mask whose alpha is the RGB mean of
// src, clamped to [0, 1].
func Maskify(src, dst *raster.Image) error {
	return mapPixels("maskify", src, dst, func(p pixel.RGBA) pixel.RGBA {
		return pixel.RGBA{A: pixel.Clamp(pixel.Brightness(p), 0, 1)}
	})
}
