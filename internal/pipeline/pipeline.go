package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ironsheep/compositor-mcp/internal/convolve"
	"github.com/ironsheep/compositor-mcp/internal/logging"
	"github.com/ironsheep/compositor-mcp/internal/noise"
	"github.com/ironsheep/compositor-mcp/internal/raster"
)

var (
	// ErrUnknownOperation is returned by Run for an unregistered name.
	ErrUnknownOperation = errors.New("pipeline: unknown operation")

	// ErrInputCount is returned when an Op has the wrong number of inputs.
	ErrInputCount = errors.New("pipeline: wrong number of inputs")
)

// Op describes one operation request.
type Op struct {
	Name   string
	Inputs []*raster.Image
	Output *raster.Image
	Params Params
}

// Config configures a Pipeline.
type Config struct {
	// NormalizeKernels rescales blur and deblur kernels to sum to 1.
	NormalizeKernels bool

	// MaxDeconvolveDim bounds the image dimensions accepted by
	// gaussian_deblur. Zero uses the convolve package default.
	MaxDeconvolveDim int

	// MaxPixels bounds outputs that carry no limit of their own. Zero
	// leaves raster.DefaultMaxPixels in force.
	MaxPixels int
}

type deconvKey struct {
	width, height, size int
}

// Pipeline runs operations and owns their shared scratch state.
type Pipeline struct {
	engine *convolve.Engine
	field  *noise.Perlin
	opts   convolve.Options

	maxPixels int

	deconv    *convolve.Deconvolver
	deconvKey deconvKey
}

// New returns a pipeline configured by cfg.
func New(cfg Config) *Pipeline {
	return &Pipeline{
		engine: &convolve.Engine{Normalize: cfg.NormalizeKernels},
		field:  noise.NewPerlin(),
		opts: convolve.Options{
			Normalize:    cfg.NormalizeKernels,
			MaxDimension: cfg.MaxDeconvolveDim,
		},
		maxPixels: cfg.MaxPixels,
	}
}

// Run validates op against the registered operation and executes it.
//
// For gaussian_deblur a numerical error (linalg.ErrSingular or
// convolve.ErrIllConditioned) is returned after the output has been
// written; callers decide whether to keep the degraded result.
func (p *Pipeline) Run(ctx context.Context, op Op) error {
	o, ok := Lookup(op.Name)
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownOperation, op.Name)
	}
	if op.Output == nil {
		return fmt.Errorf("%s: output image is nil", op.Name)
	}
	n := len(op.Inputs)
	if n < o.MinInputs || (o.MaxInputs >= 0 && n > o.MaxInputs) {
		return fmt.Errorf("%w: %s takes %s, got %d", ErrInputCount, op.Name, o.arity(), n)
	}
	for i, in := range op.Inputs {
		if in == nil {
			return fmt.Errorf("%s: input %d is nil", op.Name, i)
		}
	}

	if op.Output.MaxPixels == 0 {
		op.Output.MaxPixels = p.maxPixels
	}

	start := time.Now()
	err := o.run(ctx, p, op)
	logging.Logger().Debug("operation finished",
		"op", op.Name, "inputs", n, "elapsed", time.Since(start), "error", err)
	return err
}

// deblur reuses the cached deconvolver when the image and kernel sizes
// match the previous call.
func (p *Pipeline) deblur(ctx context.Context, src, dst *raster.Image, size int) error {
	if src.Empty() {
		return fmt.Errorf("deblur: %w: source is empty", raster.ErrInvalidDimensions)
	}
	key := deconvKey{src.Width, src.Height, convolve.OddSize(size)}
	if p.deconv == nil || p.deconvKey != key {
		d, err := convolve.NewDeconvolver(ctx, src.Width, src.Height, size, p.opts)
		if d == nil {
			return err
		}
		p.deconv, p.deconvKey = d, key
	}
	if err := p.deconv.Apply(ctx, src, dst); err != nil {
		return err
	}
	return p.deconv.Status()
}

// maskSize picks explicit mask dimensions or falls back to the first
// input's.
func maskSize(op Op) (int, int, error) {
	w, h := op.Params.Width, op.Params.Height
	if w == 0 && h == 0 && len(op.Inputs) > 0 {
		return op.Inputs[0].Width, op.Inputs[0].Height, nil
	}
	if err := raster.CheckDimensions(w, h, 0); err != nil {
		return 0, 0, fmt.Errorf("%s: %w", op.Name, err)
	}
	return w, h, nil
}
