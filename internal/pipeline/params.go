package pipeline

import (
	"github.com/ironsheep/compositor-mcp/internal/composite"
	"github.com/ironsheep/compositor-mcp/internal/pixel"
)

// Params carries every scalar an operation may read. Each operation reads
// only the fields it documents; the JSON names double as tool argument
// names.
type Params struct {
	// contrast
	Contrast float32 `json:"contrast"`
	// contrast_range
	Lower float32 `json:"lower"`
	Upper float32 `json:"upper"`

	// tint
	Tint pixel.RGBA `json:"tint"`

	// threshold, threshold_color, bloom
	Threshold float32 `json:"threshold"`
	// threshold_color, bloom
	Strength float32 `json:"strength"`

	// adjust_hsv
	Hue        float32 `json:"hue"`
	Saturation float32 `json:"saturation"`
	Value      float32 `json:"value"`

	// greyscale
	Weights composite.GreyWeights `json:"weights"`

	// brightness
	Factor float32 `json:"factor"`

	// gaussian_blur, gaussian_deblur, bloom
	KernelSize int `json:"kernel_size"`

	// mask_horizontal, mask_vertical, mask_circle
	Cutoff  float32 `json:"cutoff"`
	Feather float32 `json:"feather"`

	// mask_perlin
	Perlin composite.PerlinParams `json:"perlin"`

	// Mask dimensions. Zero takes them from the first input, if any.
	Width  int `json:"width"`
	Height int `json:"height"`

	// temporal
	Frame     int `json:"frame"`
	MinOffset int `json:"min_offset"`
	MaxOffset int `json:"max_offset"`
}

// DefaultParams returns the editor's initial settings. Decode tool
// arguments over this value so omitted fields keep their defaults.
func DefaultParams() Params {
	return Params{
		Contrast:   1.5,
		Lower:      0,
		Upper:      1,
		Tint:       pixel.RGBA{R: 1, A: 0.1},
		Threshold:  composite.DefaultBloom.Threshold,
		Strength:   composite.DefaultBloom.Strength,
		Saturation: 1,
		Value:      1,
		Weights:    composite.Luma,
		Factor:     1,
		KernelSize: composite.DefaultBloom.KernelSize,
		Cutoff:     0.5,
		Feather:    30,
		Perlin:     composite.PerlinParams{Frequency: 10, Octaves: 1, Persistence: 0.5},
		MinOffset:  -5,
		MaxOffset:  5,
	}
}
