package composite

import (
	"context"
	"fmt"

	"github.com/ironsheep/compositor-mcp/internal/convolve"
	"github.com/ironsheep/compositor-mcp/internal/pixel"
	"github.com/ironsheep/compositor-mcp/internal/raster"
)

// Composite writes a*m + b*(1-m) for every channel, alpha included, where m
// is the mask alpha. a, b and mask must have the same dimensions.
func Composite(a, b, dst, mask *raster.Image) error {
	if a.Empty() {
		return fmt.Errorf("composite: %w: input is empty", raster.ErrInvalidDimensions)
	}
	if !a.SameSize(b) || !a.SameSize(mask) {
		return fmt.Errorf("composite: %w: a %dx%d, b %dx%d, mask %dx%d", raster.ErrSizeMismatch,
			a.Width, a.Height, b.Width, b.Height, mask.Width, mask.Height)
	}
	if err := dst.ResizeLike(a); err != nil {
		return fmt.Errorf("composite: %w", err)
	}
	for i := range dst.Pix {
		dst.Pix[i] = pixel.Lerp(mask.Pix[i].A, b.Pix[i], a.Pix[i])
	}
	return nil
}

// Add sums the RGB channels of a and b, keeping a's alpha. See combine for
// how differently sized inputs are handled.
func Add(a, b, dst *raster.Image) error {
	return combine("add", a, b, dst, pixel.Add)
}

// Subtract writes a - b on the RGB channels, keeping a's alpha.
func Subtract(a, b, dst *raster.Image) error {
	return combine("subtract", a, b, dst, pixel.Sub)
}

// combine sizes dst to the larger of each dimension of a and b, writes
// fn(a, b) where both inputs overlap and transparent black everywhere else.
func combine(op string, a, b, dst *raster.Image, fn func(fg, bg pixel.RGBA) pixel.RGBA) error {
	if a.Empty() || b.Empty() {
		return fmt.Errorf("%s: %w: input is empty", op, raster.ErrInvalidDimensions)
	}

	out := dst
	if dst == a || dst == b {
		out = &raster.Image{MaxPixels: dst.MaxPixels}
	}
	w, h := max(a.Width, b.Width), max(a.Height, b.Height)
	if err := out.Resize(w, h); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	out.Fill(pixel.Transparent)

	ow, oh := min(a.Width, b.Width), min(a.Height, b.Height)
	for y := 0; y < oh; y++ {
		for x := 0; x < ow; x++ {
			out.Pix[y*w+x] = fn(a.At(x, y), b.At(x, y))
		}
	}

	if out != dst {
		dst.CopyFrom(out)
	}
	return nil
}

// BloomParams configures Bloom.
type BloomParams struct {
	// Threshold is the RGB mean above which pixels contribute to the glow.
	Threshold float32 `json:"threshold"`

	// KernelSize is the blur window of the glow, forced odd.
	KernelSize int `json:"kernel_size"`

	// Strength scales the glow before it is added back.
	Strength float32 `json:"strength"`
}

// DefaultBloom mirrors the editor's initial settings.
var DefaultBloom = BloomParams{Threshold: 0.5, KernelSize: 61, Strength: 1}

// Bloom extracts pixels brighter than the threshold, blurs them, scales the
// result by the strength and adds it to src. Output alpha is src's alpha.
// e supplies the blur scratch buffer; nil uses a throwaway engine.
func Bloom(ctx context.Context, e *convolve.Engine, src, dst *raster.Image, p BloomParams) error {
	if e == nil {
		e = convolve.NewEngine()
	}
	glow := &raster.Image{}
	if err := ThresholdColor(src, glow, p.Threshold, 1); err != nil {
		return fmt.Errorf("bloom: %w", err)
	}
	if err := e.Blur(ctx, glow, glow, p.KernelSize); err != nil {
		return fmt.Errorf("bloom: %w", err)
	}
	if err := ScaleBrightness(glow, glow, p.Strength); err != nil {
		return fmt.Errorf("bloom: %w", err)
	}
	return Add(src, glow, dst)
}
