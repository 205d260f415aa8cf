package convolve

import (
	"context"
	"fmt"

	"github.com/ironsheep/compositor-mcp/internal/pixel"
	"github.com/ironsheep/compositor-mcp/internal/raster"
)

// Engine runs separable blurs and owns the intermediate buffer between the
// two passes, so repeated blurs of the same size do not allocate.
//
// An Engine is not safe for concurrent use.
type Engine struct {
	Normalize bool

	tmp raster.Image
}

// NewEngine returns an engine with unnormalised kernels.
func NewEngine() *Engine {
	return &Engine{}
}

// Blur writes the Gaussian blur of src into dst, which is resized to match.
// src and dst may be the same image.
//
// ctx is checked once per scanline. On cancellation dst holds a partial
// result and ctx.Err() is returned.
func (e *Engine) Blur(ctx context.Context, src, dst *raster.Image, size int) error {
	if src.Empty() {
		return fmt.Errorf("blur: %w: source is empty", raster.ErrInvalidDimensions)
	}
	k := NewKernel(size, e.Normalize)

	if err := e.tmp.ResizeLike(src); err != nil {
		return fmt.Errorf("blur: %w", err)
	}
	if err := horizontalPass(ctx, src, &e.tmp, k); err != nil {
		return err
	}
	if err := dst.ResizeLike(src); err != nil {
		return fmt.Errorf("blur: %w", err)
	}
	return verticalPass(ctx, &e.tmp, dst, k)
}

// GaussianBlur blurs src into dst with a throwaway engine.
func GaussianBlur(ctx context.Context, src, dst *raster.Image, size int) error {
	return NewEngine().Blur(ctx, src, dst, size)
}

func horizontalPass(ctx context.Context, src, dst *raster.Image, k Kernel) error {
	w := src.Width
	for y := 0; y < src.Height; y++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		row := src.Pix[y*w : (y+1)*w]
		out := dst.Pix[y*w : (y+1)*w]
		for x := range out {
			var acc pixel.RGBA
			for i := -k.Radius; i <= k.Radius; i++ {
				c := row[clamp(x+i, w)]
				wt := k.Weights[abs(i)]
				acc.R += wt * c.R
				acc.G += wt * c.G
				acc.B += wt * c.B
			}
			acc.A = row[x].A
			out[x] = acc
		}
	}
	return nil
}

func verticalPass(ctx context.Context, src, dst *raster.Image, k Kernel) error {
	w, h := src.Width, src.Height
	for y := 0; y < h; y++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		for x := 0; x < w; x++ {
			var acc pixel.RGBA
			for j := -k.Radius; j <= k.Radius; j++ {
				c := src.Pix[clamp(y+j, h)*w+x]
				wt := k.Weights[abs(j)]
				acc.R += wt * c.R
				acc.G += wt * c.G
				acc.B += wt * c.B
			}
			acc.A = src.Pix[y*w+x].A
			dst.Pix[y*w+x] = acc
		}
	}
	return nil
}

func clamp(i, n int) int {
	if i < 0 {
		return 0
	}
	if i >= n {
		return n - 1
	}
	return i
}

func abs(i int) int {
	if i < 0 {
		return -i
	}
	return i
}
