package convolve

import (
	"github.com/chewxy/math32"
)

// Kernel is a one-sided Gaussian kernel. Weights[i] is the weight at offset
// i and -i for i in [0, Radius].
type Kernel struct {
	Size    int
	Radius  int
	Sigma   float32
	Weights []float32
}

// OddSize returns size forced odd (even sizes are incremented) and at
// least 1.
func OddSize(size int) int {
	if size < 1 {
		return 1
	}
	if size%2 == 0 {
		return size + 1
	}
	return size
}

// NewKernel builds a Gaussian kernel for the given window size, which is
// forced odd. Weight(i) = exp(-i^2 / 2s^2) / sqrt(2 pi s^2) with
// s = (size-1)/6. The truncated weights do not sum to exactly 1; pass
// normalize to rescale them so the full window does. A size of 1 yields the
// identity kernel.
func NewKernel(size int, normalize bool) Kernel {
	size = OddSize(size)
	k := Kernel{Size: size, Radius: size / 2}
	if k.Radius == 0 {
		k.Weights = []float32{1}
		return k
	}

	k.Sigma = float32(size-1) / 6
	variance := k.Sigma * k.Sigma
	scale := 1 / math32.Sqrt(2*math32.Pi*variance)
	k.Weights = make([]float32, k.Radius+1)
	for i := range k.Weights {
		fi := float32(i)
		k.Weights[i] = scale * math32.Exp(-fi*fi/(2*variance))
	}

	if normalize {
		sum := k.Sum()
		for i := range k.Weights {
			k.Weights[i] /= sum
		}
	}
	return k
}

// Weight returns the weight at a signed offset, zero outside the window.
func (k Kernel) Weight(offset int) float32 {
	if offset < 0 {
		offset = -offset
	}
	if offset > k.Radius {
		return 0
	}
	return k.Weights[offset]
}

// Sum returns the total of the two-sided window.
func (k Kernel) Sum() float32 {
	if len(k.Weights) == 0 {
		return 0
	}
	sum := k.Weights[0]
	for _, w := range k.Weights[1:] {
		sum += 2 * w
	}
	return sum
}
