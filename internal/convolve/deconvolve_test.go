package convolve

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ironsheep/compositor-mcp/internal/linalg"
	"github.com/ironsheep/compositor-mcp/internal/pixel"
	"github.com/ironsheep/compositor-mcp/internal/raster"
)

// smoothImage returns a low-frequency test pattern with values in [0.25, 0.75].
func smoothImage(w, h int) *raster.Image {
	img := raster.MustNew(w, h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			v := 0.5 + 0.25*math.Sin(float64(x)/5)*math.Cos(float64(y)/7)
			u := 0.5 + 0.2*math.Cos(float64(x+y)/6)
			img.Set(x, y, pixel.RGBA{R: float32(v), G: float32(u), B: float32(1 - v), A: 1})
		}
	}
	return img
}

func TestBandMatrix(t *testing.T) {
	k := NewKernel(3, false)
	m := BandMatrix(4, k)

	w0, w1 := float64(k.Weights[0]), float64(k.Weights[1])
	want := [][]float64{
		{w0, w1, 0, 0},
		{w1, w0, w1, 0},
		{0, w1, w0, w1},
		{0, 0, w1, w0},
	}
	for r := range want {
		assert.Equal(t, want[r], m.Row(r), "row %d", r)
	}
}

func TestGaussianDeblur_ReversesBlur(t *testing.T) {
	ctx := context.Background()
	orig := smoothImage(32, 28)
	blurred := &raster.Image{}
	restored := &raster.Image{}

	require.NoError(t, GaussianBlur(ctx, orig, blurred, 5))
	require.NoError(t, GaussianDeblur(ctx, blurred, restored, 5, Options{}))
	require.True(t, restored.SameSize(orig))

	// The band model truncates at the border where the blur clamps, so
	// only the interior is expected to match closely.
	const margin = 8
	var blurErr, restoredErr float64
	for y := margin; y < orig.Height-margin; y++ {
		for x := margin; x < orig.Width-margin; x++ {
			o, r := orig.At(x, y), restored.At(x, y)
			assert.InDelta(t, o.R, r.R, 1e-3, "R at (%d,%d)", x, y)
			assert.InDelta(t, o.G, r.G, 1e-3, "G at (%d,%d)", x, y)
			assert.InDelta(t, o.B, r.B, 1e-3, "B at (%d,%d)", x, y)
			assert.Equal(t, o.A, r.A)

			blurErr += math.Abs(float64(o.R - blurred.At(x, y).R))
			restoredErr += math.Abs(float64(o.R - r.R))
		}
	}
	assert.Less(t, restoredErr, blurErr, "deblur should move the image back toward the original")
}

func TestGaussianDeblur_ReversesNormalizedBlur(t *testing.T) {
	ctx := context.Background()
	orig := smoothImage(32, 28)
	blurred := &raster.Image{}
	restored := &raster.Image{}

	e := &Engine{Normalize: true}
	require.NoError(t, e.Blur(ctx, orig, blurred, 5))
	require.NoError(t, GaussianDeblur(ctx, blurred, restored, 5, Options{Normalize: true}))

	const margin = 8
	for y := margin; y < orig.Height-margin; y++ {
		for x := margin; x < orig.Width-margin; x++ {
			o, r := orig.At(x, y), restored.At(x, y)
			assert.InDelta(t, o.R, r.R, 1e-3, "R at (%d,%d)", x, y)
			assert.InDelta(t, o.G, r.G, 1e-3, "G at (%d,%d)", x, y)
			assert.InDelta(t, o.B, r.B, 1e-3, "B at (%d,%d)", x, y)
		}
	}
}

func TestGaussianDeblur_KernelCoversImage(t *testing.T) {
	src := smoothImage(4, 6)
	dst := &raster.Image{}

	err := GaussianDeblur(context.Background(), src, dst, 5, Options{})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrIllConditioned)

	// Width falls back to identity; the output still exists.
	require.True(t, dst.SameSize(src))
	for _, p := range dst.Pix {
		assert.False(t, math.IsNaN(float64(p.R)))
	}
}

func TestGaussianDeblur_KernelCoversBothAxes(t *testing.T) {
	src := smoothImage(3, 3)
	dst := &raster.Image{}

	err := GaussianDeblur(context.Background(), src, dst, 7, Options{})
	assert.ErrorIs(t, err, ErrIllConditioned)
	assert.Equal(t, src.Pix, dst.Pix, "identity on both axes leaves the image unchanged")
}

func TestGaussianDeblur_ConditionLimit(t *testing.T) {
	src := smoothImage(16, 16)
	dst := &raster.Image{}

	err := GaussianDeblur(context.Background(), src, dst, 5, Options{MaxCondition: 1.0001})
	assert.ErrorIs(t, err, ErrIllConditioned)
	assert.NotEqual(t, src.Pix, dst.Pix, "the inverse is still applied")
}

func TestGaussianDeblur_TooLarge(t *testing.T) {
	src := smoothImage(20, 4)
	dst := raster.MustNew(1, 1)

	err := GaussianDeblur(context.Background(), src, dst, 3, Options{MaxDimension: 16})
	assert.ErrorIs(t, err, ErrTooLarge)
	assert.Equal(t, 1, dst.PixelCount(), "no work is done")
}

func TestGaussianDeblur_EmptySource(t *testing.T) {
	err := GaussianDeblur(context.Background(), &raster.Image{}, &raster.Image{}, 3, Options{})
	assert.ErrorIs(t, err, raster.ErrInvalidDimensions)
}

func TestNewDeconvolver_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	d, err := NewDeconvolver(ctx, 16, 16, 5, Options{})
	assert.Nil(t, d)
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestDeconvolver_ReusableAndSizeChecked(t *testing.T) {
	ctx := context.Background()
	d, err := NewDeconvolver(ctx, 10, 8, 3, Options{})
	require.NoError(t, err)
	require.NoError(t, d.Status())

	a, b := &raster.Image{}, &raster.Image{}
	require.NoError(t, d.Apply(ctx, smoothImage(10, 8), a))
	require.NoError(t, d.Apply(ctx, smoothImage(10, 8), b))
	assert.Equal(t, a.Pix, b.Pix)

	err = d.Apply(ctx, smoothImage(8, 10), a)
	assert.ErrorIs(t, err, raster.ErrSizeMismatch)
}

func TestDeconvolver_UndoesBandOperatorExactly(t *testing.T) {
	// Applying the band matrix itself (no edge clamping) is exactly what
	// the deconvolver inverts.
	ctx := context.Background()
	k := NewKernel(5, false)
	orig := smoothImage(12, 10)
	rowOp, colOp := BandMatrix(12, k), BandMatrix(10, k)

	blurred := applyBand(orig, rowOp, colOp)
	restored := &raster.Image{}
	require.NoError(t, GaussianDeblur(ctx, blurred, restored, 5, Options{}))

	for i := range orig.Pix {
		assert.InDelta(t, orig.Pix[i].R, restored.Pix[i].R, 1e-4, "pixel %d", i)
		assert.InDelta(t, orig.Pix[i].B, restored.Pix[i].B, 1e-4, "pixel %d", i)
	}
}

func applyBand(src *raster.Image, rowOp, colOp *linalg.SquareMatrix) *raster.Image {
	w, h := src.Width, src.Height
	out := src.Clone()
	tmp := src.Clone()
	for ch := 0; ch < 3; ch++ {
		for y := 0; y < h; y++ {
			in := make([]float64, w)
			res := make([]float64, w)
			for x := 0; x < w; x++ {
				in[x] = float64(channel(src.At(x, y), ch))
			}
			rowOp.MulVec(res, in)
			for x := 0; x < w; x++ {
				setChannel(&tmp.Pix[y*w+x], ch, float32(res[x]))
			}
		}
		for x := 0; x < w; x++ {
			in := make([]float64, h)
			res := make([]float64, h)
			for y := 0; y < h; y++ {
				in[y] = float64(channel(tmp.At(x, y), ch))
			}
			colOp.MulVec(res, in)
			for y := 0; y < h; y++ {
				setChannel(&out.Pix[y*w+x], ch, float32(res[y]))
			}
		}
	}
	return out
}
