package composite

import (
	"fmt"

	"github.com/chewxy/math32"

	"github.com/ironsheep/compositor-mcp/internal/noise"
	"github.com/ironsheep/compositor-mcp/internal/pixel"
	"github.com/ironsheep/compositor-mcp/internal/raster"
)

// featherAlpha maps a signed distance past the cutoff to a mask weight.
// With a positive feather the weight ramps linearly from 0 to 1 across a
// band of that width centred on the cutoff; otherwise the edge is hard.
func featherAlpha(d, feather float32) float32 {
	if feather <= 0 {
		if d >= 0 {
			return 1
		}
		return 0
	}
	return pixel.Clamp(d/feather+0.5, 0, 1)
}

func checkCutoff(op string, cutoff, feather float32) error {
	if math32.IsNaN(cutoff) || math32.IsInf(cutoff, 0) {
		return invalid(op, "cutoff %v", cutoff)
	}
	if math32.IsNaN(feather) {
		return invalid(op, "feather %v", feather)
	}
	return nil
}

// HorizontalMask writes a width x height mask that wipes along x. Pixels
// left of cutoff*width have weight 0 and pixels to the right weight 1, with
// a feather-pixel transition band centred on the cutoff. Sweeping cutoff
// from 0 to 1 reveals the second composite input from the left.
func HorizontalMask(dst *raster.Image, width, height int, cutoff, feather float32) error {
	if err := checkCutoff("horizontal mask", cutoff, feather); err != nil {
		return err
	}
	if err := dst.Resize(width, height); err != nil {
		return fmt.Errorf("horizontal mask: %w", err)
	}
	edge := cutoff * float32(width)
	for x := 0; x < width; x++ {
		a := featherAlpha(float32(x)-edge, feather)
		for y := 0; y < height; y++ {
			dst.Pix[y*width+x] = pixel.RGBA{A: a}
		}
	}
	return nil
}

// VerticalMask is HorizontalMask along y, with the cutoff at
// cutoff*height.
func VerticalMask(dst *raster.Image, width, height int, cutoff, feather float32) error {
	if err := checkCutoff("vertical mask", cutoff, feather); err != nil {
		return err
	}
	if err := dst.Resize(width, height); err != nil {
		return fmt.Errorf("vertical mask: %w", err)
	}
	edge := cutoff * float32(height)
	for y := 0; y < height; y++ {
		row := dst.Pix[y*width : (y+1)*width]
		a := featherAlpha(float32(y)-edge, feather)
		for x := range row {
			row[x] = pixel.RGBA{A: a}
		}
	}
	return nil
}

// CircleMask feathers on the distance from the image centre. The cutoff
// radius is cutoff times half the diagonal, so 1 covers the corners.
// Weight is 0 inside the circle and 1 outside.
func CircleMask(dst *raster.Image, width, height int, cutoff, feather float32) error {
	if err := checkCutoff("circle mask", cutoff, feather); err != nil {
		return err
	}
	if err := dst.Resize(width, height); err != nil {
		return fmt.Errorf("circle mask: %w", err)
	}
	cx, cy := float32(width)/2, float32(height)/2
	radius := cutoff * math32.Hypot(float32(width), float32(height)) / 2
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			d := math32.Hypot(float32(x)-cx, float32(y)-cy)
			dst.Pix[y*width+x] = pixel.RGBA{A: featherAlpha(d-radius, feather)}
		}
	}
	return nil
}

// PerlinParams configures PerlinMask. Zero values select the defaults.
type PerlinParams struct {
	// Frequency is the number of noise cells across the image width.
	// Default 10.
	Frequency float32 `json:"frequency"`

	// Z selects the slice of the 3D field; animate it for evolving masks.
	Z float32 `json:"z"`

	// Octaves of detail. Default 1.
	Octaves int `json:"octaves"`

	// Persistence is the amplitude ratio between octaves. Default 0.5.
	Persistence float32 `json:"persistence"`
}

func (p PerlinParams) withDefaults() PerlinParams {
	if p.Frequency == 0 {
		p.Frequency = 10
	}
	if p.Octaves < 1 {
		p.Octaves = 1
	}
	if p.Persistence == 0 {
		p.Persistence = 0.5
	}
	return p
}

// PerlinMask samples field at (f*x/width, f*y/width, z) for every pixel.
// Both axes are divided by the width so noise cells stay square. A nil
// field uses the reference permutation.
func PerlinMask(dst *raster.Image, width, height int, field *noise.Perlin, p PerlinParams) error {
	if err := dst.Resize(width, height); err != nil {
		return fmt.Errorf("perlin mask: %w", err)
	}
	if field == nil {
		field = noise.NewPerlin()
	}
	p = p.withDefaults()
	step := p.Frequency / float32(width)
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			a := field.Octave(step*float32(x), step*float32(y), p.Z, p.Octaves, p.Persistence)
			dst.Pix[y*width+x] = pixel.RGBA{A: a}
		}
	}
	return nil
}
