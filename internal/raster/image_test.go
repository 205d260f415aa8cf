package raster

import (
	"errors"
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ironsheep/compositor-mcp/internal/pixel"
)

func TestNew(t *testing.T) {
	img, err := New(4, 3)
	require.NoError(t, err)

	assert.Equal(t, 4, img.Width)
	assert.Equal(t, 3, img.Height)
	assert.Equal(t, 12, img.PixelCount())
	assert.InDelta(t, 4.0/3.0, img.AspectRatio(), 1e-6)
	for _, c := range img.Pix {
		assert.Equal(t, pixel.Transparent, c)
	}
}

func TestResize_RejectsInvalidDimensions(t *testing.T) {
	img := MustNew(2, 2)
	img.Fill(pixel.White)

	tests := []struct {
		name string
		w, h int
	}{
		{"negative width", -1, 4},
		{"negative height", 4, -1},
		{"zero width", 0, 4},
		{"zero height", 4, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := img.Resize(tt.w, tt.h)
			assert.True(t, errors.Is(err, ErrInvalidDimensions), "got %v", err)
			assert.Equal(t, 2, img.Width)
			assert.Equal(t, 2, img.Height)
			assert.Equal(t, pixel.White, img.Pix[3], "image must be left unresized")
		})
	}
}

func TestResize_TooLarge(t *testing.T) {
	img := MustNew(2, 2)
	err := img.ResizeWithin(100, 100, 5000)
	assert.ErrorIs(t, err, ErrTooLarge)
	assert.Equal(t, 4, img.PixelCount())
}

func TestResize_UsesImageLimit(t *testing.T) {
	img := &Image{MaxPixels: 10}
	assert.ErrorIs(t, img.Resize(4, 4), ErrTooLarge)
	require.NoError(t, img.Resize(5, 2))
	assert.Equal(t, 10, img.Limit())
	assert.Equal(t, DefaultMaxPixels, (&Image{}).Limit())
	assert.Equal(t, 10, img.Clone().MaxPixels)
}

func TestResizeLike_TakesLargerLimit(t *testing.T) {
	big := &Image{MaxPixels: 16}
	require.NoError(t, big.Resize(4, 4))

	scratch := &Image{MaxPixels: 4}
	require.NoError(t, scratch.ResizeLike(big))
	assert.True(t, scratch.SameSize(big))
	assert.ErrorIs(t, scratch.Resize(3, 3), ErrTooLarge)
}

func TestResize_ReusesBufferForSamePixelCount(t *testing.T) {
	img := MustNew(4, 2)
	img.Fill(pixel.White)
	before := &img.Pix[0]

	require.NoError(t, img.Resize(2, 4))

	assert.Same(t, before, &img.Pix[0])
	assert.Equal(t, 2, img.Width)
	assert.Equal(t, 4, img.Height)

	require.NoError(t, img.Resize(3, 3))
	assert.Equal(t, 9, img.PixelCount())
	assert.Equal(t, pixel.Transparent, img.Pix[0], "reallocated buffer starts zeroed")
}

func TestAccessors(t *testing.T) {
	img := MustNew(3, 2)
	for y := 0; y < img.Height; y++ {
		for x := 0; x < img.Width; x++ {
			img.Set(x, y, pixel.RGBA{R: float32(x), G: float32(y)})
		}
	}

	assert.Equal(t, 5, img.Index(2, 1))
	assert.Equal(t, img.Pix[5], img.At(2, 1))
	assert.Equal(t, pixel.RGBA{R: 2, G: 1}, img.At(2, 1))

	tests := []struct {
		x, y         int
		wantX, wantY float32
	}{
		{-5, 0, 0, 0},
		{1, -1, 1, 0},
		{10, 1, 2, 1},
		{2, 7, 2, 1},
		{-1, 9, 0, 1},
	}
	for _, tt := range tests {
		got := img.Clamped(tt.x, tt.y)
		assert.Equal(t, pixel.RGBA{R: tt.wantX, G: tt.wantY}, got, "Clamped(%d,%d)", tt.x, tt.y)
	}
}

func TestCloneAndCopyFrom(t *testing.T) {
	src := MustNew(2, 2)
	src.Fill(pixel.RGBA{R: 0.1, G: 0.2, B: 0.3, A: 0.4})

	clone := src.Clone()
	clone.Pix[0] = pixel.White
	assert.NotEqual(t, src.Pix[0], clone.Pix[0], "clone must not share the buffer")

	dst := MustNew(5, 5)
	dst.CopyFrom(src)
	assert.True(t, dst.SameSize(src))
	assert.Equal(t, src.Pix, dst.Pix)
}

func TestView(t *testing.T) {
	img := MustNew(2, 1)
	img.Set(0, 0, pixel.RGBA{R: 1, G: 0.5, B: 0, A: 1})
	img.Set(1, 0, pixel.RGBA{R: 0, G: 0, B: 1, A: 0.5})

	v := img.View()
	assert.Equal(t, image.Rect(0, 0, 2, 1), v.Bounds())
	assert.Equal(t, color.NRGBA{255, 127, 0, 255}, v.At(0, 0))
	assert.Equal(t, color.NRGBA{0, 0, 255, 127}, v.At(1, 0))
	assert.Equal(t, color.NRGBA{}, v.At(5, 5))
}

func TestBytesRoundTrip(t *testing.T) {
	raw := []uint8{0, 64, 128, 255, 255, 0, 10, 200}
	img, err := FromBytes(2, 1, raw)
	require.NoError(t, err)
	assert.InDelta(t, 64.0/255.0, img.Pix[0].G, 1e-6)
	assert.Equal(t, raw, img.Bytes())

	_, err = FromBytes(3, 1, raw)
	assert.ErrorIs(t, err, ErrSizeMismatch)
}

func TestToNRGBA(t *testing.T) {
	img := MustNew(2, 1)
	img.Set(0, 0, pixel.RGBA{R: 1, G: 0, B: 0, A: 1})
	img.Set(1, 0, pixel.RGBA{R: 2, G: -1, B: 0.5, A: 0})

	nrgba := img.ToNRGBA()
	assert.Equal(t, image.Rect(0, 0, 2, 1), nrgba.Rect)
	assert.Equal(t, color.NRGBA{255, 0, 127, 0}, nrgba.NRGBAAt(1, 0))
	assert.Equal(t, color.NRGBA{255, 0, 0, 255}, nrgba.NRGBAAt(0, 0))
}
