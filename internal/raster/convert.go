package raster

import (
	"fmt"
	"image"

	"github.com/ironsheep/compositor-mcp/internal/pixel"
)

// FromBytes builds an image from a tightly packed RGBA byte buffer, dividing
// each channel by 255.
func FromBytes(width, height int, pix []uint8) (*Image, error) {
	if len(pix) != width*height*4 {
		return nil, fmt.Errorf("%w: %d bytes for %dx%d", ErrSizeMismatch, len(pix), width, height)
	}
	if err := CheckDimensions(width, height, 0); err != nil {
		return nil, err
	}
	img := &Image{Width: width, Height: height, Pix: make([]pixel.RGBA, width*height)}
	for i := range img.Pix {
		j := i * 4
		img.Pix[i] = pixel.FromByte(pixel.RGBA8{R: pix[j], G: pix[j+1], B: pix[j+2], A: pix[j+3]})
	}
	return img, nil
}

// Bytes returns the image as a tightly packed RGBA byte buffer using
// pixel.ToByte.
func (m *Image) Bytes() []uint8 {
	out := make([]uint8, len(m.Pix)*4)
	for i, c := range m.Pix {
		b := pixel.ToByte(c)
		j := i * 4
		out[j], out[j+1], out[j+2], out[j+3] = b.R, b.G, b.B, b.A
	}
	return out
}

// ToNRGBA copies the image into a standard non-premultiplied 8-bit image.
func (m *Image) ToNRGBA() *image.NRGBA {
	return &image.NRGBA{
		Pix:    m.Bytes(),
		Stride: m.Width * 4,
		Rect:   m.Bounds(),
	}
}
