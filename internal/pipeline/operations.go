package pipeline

import (
	"context"
	"fmt"

	"github.com/ironsheep/compositor-mcp/internal/composite"
	"github.com/ironsheep/compositor-mcp/internal/sequence"
)

// Operation describes a registered operation.
type Operation struct {
	Name        string
	Description string

	// Inputs names the input images in order. Only the first MinInputs
	// are required.
	Inputs    []string
	MinInputs int
	// MaxInputs is -1 when the last input name repeats without limit.
	MaxInputs int

	// Params lists the Params fields, by JSON name, the operation reads.
	Params []string

	run func(ctx context.Context, p *Pipeline, op Op) error
}

func (o Operation) arity() string {
	switch {
	case o.MaxInputs < 0:
		return fmt.Sprintf("at least %d inputs", o.MinInputs)
	case o.MinInputs == o.MaxInputs:
		return fmt.Sprintf("%d inputs", o.MinInputs)
	default:
		return fmt.Sprintf("%d to %d inputs", o.MinInputs, o.MaxInputs)
	}
}

func unary(name, desc string, params []string, fn func(ctx context.Context, p *Pipeline, op Op) error) Operation {
	return Operation{Name: name, Description: desc, Inputs: []string{"input"}, MinInputs: 1, MaxInputs: 1, Params: params, run: fn}
}

func mask(name, desc string, params []string, fn func(op Op, w, h int) error) Operation {
	return Operation{
		Name: name, Description: desc,
		Inputs: []string{"like"}, MinInputs: 0, MaxInputs: 1,
		Params: append([]string{"width", "height"}, params...),
		run: func(_ context.Context, _ *Pipeline, op Op) error {
			w, h, err := maskSize(op)
			if err != nil {
				return err
			}
			return fn(op, w, h)
		},
	}
}

var operations = []Operation{
	unary("greyscale", "Replace RGB with a weighted sum of the channels.", []string{"weights"},
		func(_ context.Context, _ *Pipeline, op Op) error {
			return composite.Greyscale(op.Inputs[0], op.Output, op.Params.Weights)
		}),
	unary("negative", "Invert the RGB channels.", nil,
		func(_ context.Context, _ *Pipeline, op Op) error {
			return composite.Negative(op.Inputs[0], op.Output)
		}),
	unary("contrast", "Remap the observed RGB range onto [1/contrast, contrast].", []string{"contrast"},
		func(_ context.Context, _ *Pipeline, op Op) error {
			return composite.ScaleContrast(op.Inputs[0], op.Output, op.Params.Contrast)
		}),
	unary("contrast_range", "Remap the observed RGB range onto [lower, upper].", []string{"lower", "upper"},
		func(_ context.Context, _ *Pipeline, op Op) error {
			return composite.ScaleContrastRange(op.Inputs[0], op.Output, op.Params.Lower, op.Params.Upper)
		}),
	unary("tint", "Blend a colour over every pixel; the tint alpha sets the strength.", []string{"tint"},
		func(_ context.Context, _ *Pipeline, op Op) error {
			return composite.ColorTint(op.Inputs[0], op.Output, op.Params.Tint)
		}),
	unary("threshold", "Opaque white where the RGB mean exceeds the threshold, transparent elsewhere.", []string{"threshold"},
		func(_ context.Context, _ *Pipeline, op Op) error {
			return composite.Threshold(op.Inputs[0], op.Output, op.Params.Threshold)
		}),
	unary("threshold_color", "Keep pixels brighter than the threshold, scaled by strength; transparent elsewhere.", []string{"threshold", "strength"},
		func(_ context.Context, _ *Pipeline, op Op) error {
			return composite.ThresholdColor(op.Inputs[0], op.Output, op.Params.Threshold, op.Params.Strength)
		}),
	unary("adjust_hsv", "Rotate hue by degrees and scale saturation and value.", []string{"hue", "saturation", "value"},
		func(_ context.Context, _ *Pipeline, op Op) error {
			return composite.AdjustHSV(op.Inputs[0], op.Output, op.Params.Hue, op.Params.Saturation, op.Params.Value)
		}),
	unary("brightness", "Multiply RGB by a factor.", []string{"factor"},
		func(_ context.Context, _ *Pipeline, op Op) error {
			return composite.ScaleBrightness(op.Inputs[0], op.Output, op.Params.Factor)
		}),
	unary("gaussian_blur", "Separable Gaussian blur of RGB; alpha is kept.", []string{"kernel_size"},
		func(ctx context.Context, p *Pipeline, op Op) error {
			return p.engine.Blur(ctx, op.Inputs[0], op.Output, op.Params.KernelSize)
		}),
	unary("gaussian_deblur", "Approximately reverse a Gaussian blur of the same kernel size by inverting its band matrices. Expensive: O(n^3) per dimension.", []string{"kernel_size"},
		func(ctx context.Context, p *Pipeline, op Op) error {
			return p.deblur(ctx, op.Inputs[0], op.Output, op.Params.KernelSize)
		}),
	unary("bloom", "Add a blurred, scaled copy of the pixels above the threshold.", []string{"threshold", "kernel_size", "strength"},
		func(ctx context.Context, p *Pipeline, op Op) error {
			return composite.Bloom(ctx, p.engine, op.Inputs[0], op.Output, composite.BloomParams{
				Threshold:  op.Params.Threshold,
				KernelSize: op.Params.KernelSize,
				Strength:   op.Params.Strength,
			})
		}),
	unary("maskify", "Turn an image into a mask whose alpha is the RGB mean.", nil,
		func(_ context.Context, _ *Pipeline, op Op) error {
			return composite.Maskify(op.Inputs[0], op.Output)
		}),
	mask("mask_horizontal", "Left-to-right wipe mask with a feathered edge at cutoff*width.", []string{"cutoff", "feather"},
		func(op Op, w, h int) error {
			return composite.HorizontalMask(op.Output, w, h, op.Params.Cutoff, op.Params.Feather)
		}),
	mask("mask_vertical", "Top-to-bottom wipe mask with a feathered edge at cutoff*height.", []string{"cutoff", "feather"},
		func(op Op, w, h int) error {
			return composite.VerticalMask(op.Output, w, h, op.Params.Cutoff, op.Params.Feather)
		}),
	mask("mask_circle", "Radial wipe mask: 0 inside a circle of radius cutoff*diagonal/2, 1 outside.", []string{"cutoff", "feather"},
		func(op Op, w, h int) error {
			return composite.CircleMask(op.Output, w, h, op.Params.Cutoff, op.Params.Feather)
		}),
	{
		Name: "mask_perlin", Description: "Perlin noise mask.",
		Inputs: []string{"like"}, MinInputs: 0, MaxInputs: 1,
		Params: []string{"width", "height", "perlin"},
		run: func(_ context.Context, p *Pipeline, op Op) error {
			w, h, err := maskSize(op)
			if err != nil {
				return err
			}
			return composite.PerlinMask(op.Output, w, h, p.field, op.Params.Perlin)
		},
	},
	{
		Name: "composite", Description: "a*mask + b*(1-mask) on every channel, using the mask alpha.",
		Inputs: []string{"a", "b", "mask"}, MinInputs: 3, MaxInputs: 3,
		run: func(_ context.Context, _ *Pipeline, op Op) error {
			return composite.Composite(op.Inputs[0], op.Inputs[1], op.Output, op.Inputs[2])
		},
	},
	{
		Name: "add", Description: "a + b on RGB with a's alpha; sized to the larger inputs, transparent outside the overlap.",
		Inputs: []string{"a", "b"}, MinInputs: 2, MaxInputs: 2,
		run: func(_ context.Context, _ *Pipeline, op Op) error {
			return composite.Add(op.Inputs[0], op.Inputs[1], op.Output)
		},
	},
	{
		Name: "subtract", Description: "a - b on RGB with a's alpha; sized to the larger inputs, transparent outside the overlap.",
		Inputs: []string{"a", "b"}, MinInputs: 2, MaxInputs: 2,
		run: func(_ context.Context, _ *Pipeline, op Op) error {
			return composite.Subtract(op.Inputs[0], op.Inputs[1], op.Output)
		},
	},
	{
		Name: "temporal", Description: "Per-pixel frame displacement: each pixel of frame reads from frame + lerp(mask alpha, min_offset, max_offset).",
		Inputs: []string{"mask", "frames"}, MinInputs: 2, MaxInputs: -1,
		Params: []string{"frame", "min_offset", "max_offset"},
		run: func(_ context.Context, _ *Pipeline, op Op) error {
			s := sequence.Sampler{Frames: op.Inputs[1:]}
			return s.ProcessFrame(op.Params.Frame, op.Params.MinOffset, op.Params.MaxOffset, op.Inputs[0], op.Output)
		},
	},
}

var operationIndex = func() map[string]int {
	m := make(map[string]int, len(operations))
	for i, o := range operations {
		m[o.Name] = i
	}
	return m
}()

// Operations returns the registered operations in a stable order.
func Operations() []Operation {
	out := make([]Operation, len(operations))
	copy(out, operations)
	return out
}

// Lookup returns the operation registered under name.
func Lookup(name string) (Operation, bool) {
	i, ok := operationIndex[name]
	if !ok {
		return Operation{}, false
	}
	return operations[i], true
}
