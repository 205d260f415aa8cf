// Package sequence samples pixels across a sequence of frames, letting a
// mask choose how far ahead or behind each pixel reads.
package sequence

import (
	"fmt"

	"github.com/chewxy/math32"

	"github.com/ironsheep/compositor-mcp/internal/pixel"
	"github.com/ironsheep/compositor-mcp/internal/raster"
)

// Sampler holds an ordered frame sequence. All frames must share the same
// dimensions.
type Sampler struct {
	Frames []*raster.Image
}

// Len returns the number of frames.
func (s *Sampler) Len() int {
	return len(s.Frames)
}

// Validate checks that the sequence is non-empty and uniformly sized.
func (s *Sampler) Validate() error {
	if len(s.Frames) == 0 {
		return fmt.Errorf("sequence: %w: no frames", raster.ErrInvalidDimensions)
	}
	first := s.Frames[0]
	if first.Empty() {
		return fmt.Errorf("sequence: %w: frame 0 is empty", raster.ErrInvalidDimensions)
	}
	for i, f := range s.Frames[1:] {
		if !f.SameSize(first) {
			return fmt.Errorf("sequence: %w: frame %d is %dx%d, frame 0 is %dx%d",
				raster.ErrSizeMismatch, i+1, f.Width, f.Height, first.Width, first.Height)
		}
	}
	return nil
}

// ProcessFrame writes a time-displaced version of frame into out. Each
// pixel reads from frame + offset, where offset is interpolated between
// minOffset and maxOffset by the mask alpha and rounded to the nearest
// frame. The source index is clamped to the sequence.
func (s *Sampler) ProcessFrame(frame, minOffset, maxOffset int, mask, out *raster.Image) error {
	if err := s.Validate(); err != nil {
		return err
	}
	if frame < 0 || frame >= len(s.Frames) {
		return fmt.Errorf("sequence: frame %d outside [0,%d)", frame, len(s.Frames))
	}
	base := s.Frames[frame]
	if !mask.SameSize(base) {
		return fmt.Errorf("sequence: %w: mask %dx%d, frames %dx%d",
			raster.ErrSizeMismatch, mask.Width, mask.Height, base.Width, base.Height)
	}
	for _, f := range s.Frames {
		if f == out {
			return fmt.Errorf("sequence: output must not be one of the frames")
		}
	}
	if err := out.ResizeLike(base); err != nil {
		return fmt.Errorf("sequence: %w", err)
	}

	last := len(s.Frames) - 1
	lo, hi := float32(minOffset), float32(maxOffset)
	for i, m := range mask.Pix {
		offset := int(math32.Floor(pixel.LerpValue(m.A, lo, hi) + 0.5))
		idx := frame + offset
		if idx < 0 {
			idx = 0
		} else if idx > last {
			idx = last
		}
		out.Pix[i] = s.Frames[idx].Pix[i]
	}
	return nil
}
