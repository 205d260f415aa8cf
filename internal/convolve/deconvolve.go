package convolve

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/ironsheep/compositor-mcp/internal/linalg"
	"github.com/ironsheep/compositor-mcp/internal/logging"
	"github.com/ironsheep/compositor-mcp/internal/pixel"
	"github.com/ironsheep/compositor-mcp/internal/raster"
)

const (
	// DefaultMaxDimension is the largest width or height the deconvolver
	// accepts when Options.MaxDimension is zero.
	DefaultMaxDimension = 2048

	// DefaultMaxCondition is the condition estimate above which an inverse
	// is reported as ill-conditioned when Options.MaxCondition is zero.
	DefaultMaxCondition = 1e12
)

var (
	// ErrIllConditioned reports that an inverse was computed but is too
	// unstable to trust, or that the configuration cannot be inverted and
	// identity was substituted. The output is still written.
	ErrIllConditioned = errors.New("convolve: ill-conditioned deconvolution")

	// ErrTooLarge is returned when an image dimension exceeds the
	// deconvolution limit. No work is done.
	ErrTooLarge = errors.New("convolve: image too large to deconvolve")
)

// Options configures deconvolution.
type Options struct {
	// Normalize rescales the kernel to sum to 1 before building the band
	// matrices. It should match the setting used for the blur.
	Normalize bool

	// MaxDimension bounds width and height. Zero means DefaultMaxDimension.
	MaxDimension int

	// MaxCondition bounds the accepted condition estimate. Zero means
	// DefaultMaxCondition.
	MaxCondition float64
}

func (o Options) maxDimension() int {
	if o.MaxDimension > 0 {
		return o.MaxDimension
	}
	return DefaultMaxDimension
}

func (o Options) maxCondition() float64 {
	if o.MaxCondition > 0 {
		return o.MaxCondition
	}
	return DefaultMaxCondition
}

// BandMatrix returns the n x n matrix with entry (r, c) = kernel[|r-c|]
// inside the band and zero outside it. Rows near the edges are truncated,
// not clamped.
func BandMatrix(n int, k Kernel) *linalg.SquareMatrix {
	m := linalg.NewSquareMatrix(n)
	for r := 0; r < n; r++ {
		lo, hi := r-k.Radius, r+k.Radius
		if lo < 0 {
			lo = 0
		}
		if hi > n-1 {
			hi = n - 1
		}
		for c := lo; c <= hi; c++ {
			m.Set(r, c, float64(k.Weights[abs(r-c)]))
		}
	}
	return m
}

// Deconvolver holds the inverted row and column operators for one image
// size and kernel size.
//
// A Deconvolver is not safe for concurrent use; Apply reuses an internal
// buffer.
type Deconvolver struct {
	width  int
	height int
	rowInv *linalg.SquareMatrix
	colInv *linalg.SquareMatrix
	status error

	tmp raster.Image
	vin []float64
	out []float64
}

// NewDeconvolver builds and inverts the band matrices for a width x height
// image blurred with the given kernel size.
//
// A nil Deconvolver is returned only for invalid or oversized dimensions
// and for cancellation. Otherwise the Deconvolver is usable and the
// returned error, if any, describes numerical trouble (linalg.ErrSingular
// or ErrIllConditioned) with a degraded operator in place.
func NewDeconvolver(ctx context.Context, width, height, size int, opts Options) (*Deconvolver, error) {
	if err := raster.CheckDimensions(width, height, 0); err != nil {
		return nil, fmt.Errorf("deconvolve: %w", err)
	}
	if limit := opts.maxDimension(); width > limit || height > limit {
		logging.Logger().Warn("deconvolution refused",
			"width", width, "height", height, "max_dimension", limit)
		return nil, fmt.Errorf("%w: %dx%d exceeds %d", ErrTooLarge, width, height, limit)
	}

	k := NewKernel(size, opts.Normalize)
	d := &Deconvolver{width: width, height: height}

	var rowErr, colErr error
	d.rowInv, rowErr = invertAxis(ctx, "row", width, k, opts.maxCondition())
	if d.rowInv == nil {
		return nil, rowErr
	}
	d.colInv, colErr = invertAxis(ctx, "column", height, k, opts.maxCondition())
	if d.colInv == nil {
		return nil, colErr
	}
	d.status = errors.Join(rowErr, colErr)
	return d, d.status
}

func invertAxis(ctx context.Context, axis string, n int, k Kernel, maxCond float64) (*linalg.SquareMatrix, error) {
	if k.Size >= n {
		logging.Logger().Warn("deconvolution kernel covers the image",
			"axis", axis, "kernel", k.Size, "dimension", n)
		return linalg.Identity(n), fmt.Errorf("%w: kernel size %d >= %s dimension %d",
			ErrIllConditioned, k.Size, axis, n)
	}

	band := BandMatrix(n, k)
	inv, err := band.FindInverseContext(ctx)
	if ctxErr := ctx.Err(); ctxErr != nil {
		return nil, ctxErr
	}
	if err != nil {
		return inv, fmt.Errorf("%s matrix: %w", axis, err)
	}

	cond := linalg.ConditionEstimate(band, inv)
	if cond > maxCond || math.IsNaN(cond) || math.IsInf(cond, 0) {
		logging.Logger().Warn("deconvolution ill-conditioned",
			"axis", axis, "kernel", k.Size, "dimension", n, "condition", cond)
		return inv, fmt.Errorf("%w: %s condition estimate %.3g", ErrIllConditioned, axis, cond)
	}
	logging.Logger().Debug("deconvolution operator ready",
		"axis", axis, "kernel", k.Size, "dimension", n, "condition", cond)
	return inv, nil
}

// Status returns the numerical error recorded when the operators were
// built, or nil.
func (d *Deconvolver) Status() error {
	return d.status
}

// Apply deblurs src into dst, which is resized to match. src must have the
// dimensions the Deconvolver was built for. Each row is multiplied by the
// row inverse, then each column of that result by the column inverse. Alpha
// is copied from src. src and dst may be the same image.
//
// ctx is checked once per scanline.
func (d *Deconvolver) Apply(ctx context.Context, src, dst *raster.Image) error {
	if src.Width != d.width || src.Height != d.height {
		return fmt.Errorf("deconvolve: %w: got %dx%d, built for %dx%d",
			raster.ErrSizeMismatch, src.Width, src.Height, d.width, d.height)
	}
	if err := d.tmp.ResizeLike(src); err != nil {
		return fmt.Errorf("deconvolve: %w", err)
	}

	w, h := d.width, d.height
	n := w
	if h > n {
		n = h
	}
	if cap(d.vin) < n {
		d.vin = make([]float64, n)
		d.out = make([]float64, n)
	}

	// Rows.
	for y := 0; y < h; y++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		row := src.Pix[y*w : (y+1)*w]
		out := d.tmp.Pix[y*w : (y+1)*w]
		for ch := 0; ch < 3; ch++ {
			vin, vout := d.vin[:w], d.out[:w]
			for x, c := range row {
				vin[x] = float64(channel(c, ch))
			}
			d.rowInv.MulVec(vout, vin)
			for x := range out {
				setChannel(&out[x], ch, float32(vout[x]))
			}
		}
		for x, c := range row {
			out[x].A = c.A
		}
	}

	if err := dst.ResizeLike(src); err != nil {
		return fmt.Errorf("deconvolve: %w", err)
	}

	// Columns.
	for x := 0; x < w; x++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		for ch := 0; ch < 3; ch++ {
			vin, vout := d.vin[:h], d.out[:h]
			for y := 0; y < h; y++ {
				vin[y] = float64(channel(d.tmp.Pix[y*w+x], ch))
			}
			d.colInv.MulVec(vout, vin)
			for y := 0; y < h; y++ {
				setChannel(&dst.Pix[y*w+x], ch, float32(vout[y]))
			}
		}
		for y := 0; y < h; y++ {
			dst.Pix[y*w+x].A = d.tmp.Pix[y*w+x].A
		}
	}
	return nil
}

// GaussianDeblur approximately reverses a blur of the given kernel size.
// Numerical trouble does not prevent output: dst is written with the
// degraded result and the numerical error is returned alongside it.
func GaussianDeblur(ctx context.Context, src, dst *raster.Image, size int, opts Options) error {
	if src.Empty() {
		return fmt.Errorf("deblur: %w: source is empty", raster.ErrInvalidDimensions)
	}
	d, err := NewDeconvolver(ctx, src.Width, src.Height, size, opts)
	if d == nil {
		return err
	}
	if applyErr := d.Apply(ctx, src, dst); applyErr != nil {
		return applyErr
	}
	return err
}

func channel(c pixel.RGBA, ch int) float32 {
	switch ch {
	case 0:
		return c.R
	case 1:
		return c.G
	default:
		return c.B
	}
}

func setChannel(c *pixel.RGBA, ch int, v float32) {
	switch ch {
	case 0:
		c.R = v
	case 1:
		c.G = v
	default:
		c.B = v
	}
}
