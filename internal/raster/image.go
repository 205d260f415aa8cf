package raster

import (
	"errors"
	"fmt"
	"image"
	"image/color"

	"github.com/ironsheep/compositor-mcp/internal/logging"
	"github.com/ironsheep/compositor-mcp/internal/pixel"
)

// DefaultMaxPixels bounds width*height for Resize when an image has no
// MaxPixels of its own.
const DefaultMaxPixels = 64 * 1024 * 1024

var (
	// ErrInvalidDimensions is returned when a width or height is not positive.
	ErrInvalidDimensions = errors.New("raster: invalid dimensions")

	// ErrTooLarge is returned when a requested buffer exceeds the pixel limit.
	ErrTooLarge = errors.New("raster: image too large")

	// ErrSizeMismatch is returned when operands must share dimensions and do not.
	ErrSizeMismatch = errors.New("raster: image size mismatch")
)

// Image is a width x height buffer of float RGBA pixels in row-major order.
// The zero value is an empty 0x0 image ready for Resize.
type Image struct {
	Width  int
	Height int
	Pix    []pixel.RGBA

	// MaxPixels bounds Resize. Zero means DefaultMaxPixels.
	MaxPixels int
}

// New allocates a transparent black image.
func New(width, height int) (*Image, error) {
	img := &Image{}
	if err := img.Resize(width, height); err != nil {
		return nil, err
	}
	return img, nil
}

// MustNew is New for dimensions known to be valid, such as in tests and
// fixed-size scratch buffers. It panics on invalid dimensions.
func MustNew(width, height int) *Image {
	img, err := New(width, height)
	if err != nil {
		panic(err)
	}
	return img
}

// PixelCount returns Width*Height, which always equals len(Pix).
func (m *Image) PixelCount() int {
	return len(m.Pix)
}

// AspectRatio returns Width/Height, or 0 for an empty image.
func (m *Image) AspectRatio() float32 {
	if m.Height == 0 {
		return 0
	}
	return float32(m.Width) / float32(m.Height)
}

// Empty reports whether the image has no pixels.
func (m *Image) Empty() bool {
	return len(m.Pix) == 0
}

// Resize sets the dimensions, bounded by the image's pixel limit.
// See ResizeWithin.
func (m *Image) Resize(width, height int) error {
	return m.ResizeWithin(width, height, m.Limit())
}

// Limit returns the pixel limit Resize applies.
func (m *Image) Limit() int {
	if m.MaxPixels > 0 {
		return m.MaxPixels
	}
	return DefaultMaxPixels
}

// ResizeWithin sets the dimensions to width x height.
//
// Non-positive dimensions are rejected with ErrInvalidDimensions and a pixel
// count above maxPixels with ErrTooLarge; in both cases the image is left as
// it was. When the pixel count is unchanged the existing buffer is reused and
// its contents are kept; otherwise a new zeroed buffer is allocated.
func (m *Image) ResizeWithin(width, height, maxPixels int) error {
	if err := CheckDimensions(width, height, maxPixels); err != nil {
		return err
	}

	count := width * height
	if count != len(m.Pix) {
		m.Pix = make([]pixel.RGBA, count)
	}
	m.Width = width
	m.Height = height
	return nil
}

// CheckDimensions validates a width x height request against maxPixels
// without allocating. A maxPixels of zero or less disables the size limit.
func CheckDimensions(width, height, maxPixels int) error {
	if width <= 0 || height <= 0 {
		return fmt.Errorf("%w: %dx%d", ErrInvalidDimensions, width, height)
	}
	if maxPixels > 0 && width > maxPixels/height {
		logging.Logger().Warn("refusing allocation", "width", width, "height", height, "max_pixels", maxPixels)
		return fmt.Errorf("%w: %dx%d exceeds %d pixels", ErrTooLarge, width, height, maxPixels)
	}
	return nil
}

// ResizeLike resizes m to the dimensions of other. The larger of the two
// images' limits applies, so scratch buffers can always follow an image that
// was admitted under a raised limit.
func (m *Image) ResizeLike(other *Image) error {
	return m.ResizeWithin(other.Width, other.Height, max(m.Limit(), other.Limit()))
}

// SameSize reports whether both images have identical dimensions.
func (m *Image) SameSize(other *Image) bool {
	return m.Width == other.Width && m.Height == other.Height
}

// Index converts a coordinate to a buffer index. Not bounds checked.
func (m *Image) Index(x, y int) int {
	return y*m.Width + x
}

// At returns the pixel at (x, y). Not bounds checked.
func (m *Image) At(x, y int) pixel.RGBA {
	return m.Pix[y*m.Width+x]
}

// Set stores c at (x, y). Not bounds checked.
func (m *Image) Set(x, y int, c pixel.RGBA) {
	m.Pix[y*m.Width+x] = c
}

// Clamped returns the pixel at (x, y) after clamping each coordinate into the
// image, so out-of-range reads replicate the nearest edge.
func (m *Image) Clamped(x, y int) pixel.RGBA {
	return m.Pix[clampInt(y, 0, m.Height-1)*m.Width+clampInt(x, 0, m.Width-1)]
}

// Fill sets every pixel to c.
func (m *Image) Fill(c pixel.RGBA) {
	for i := range m.Pix {
		m.Pix[i] = c
	}
}

// Clone returns an independent copy of m.
func (m *Image) Clone() *Image {
	out := &Image{Width: m.Width, Height: m.Height, Pix: make([]pixel.RGBA, len(m.Pix)), MaxPixels: m.MaxPixels}
	copy(out.Pix, m.Pix)
	return out
}

// CopyFrom makes m a full copy of src, reusing m's buffer when the pixel
// count matches.
func (m *Image) CopyFrom(src *Image) {
	if len(m.Pix) != len(src.Pix) {
		m.Pix = make([]pixel.RGBA, len(src.Pix))
	}
	m.Width = src.Width
	m.Height = src.Height
	copy(m.Pix, src.Pix)
}

// Bounds returns the image rectangle with its origin at (0, 0).
func (m *Image) Bounds() image.Rectangle {
	return image.Rect(0, 0, m.Width, m.Height)
}

// RGBA8At returns the 8-bit conversion of the pixel at (x, y).
func (m *Image) RGBA8At(x, y int) pixel.RGBA8 {
	return pixel.ToByte(m.At(x, y))
}

// View returns an image.Image presenting m as 8-bit non-premultiplied
// colours. The view shares m's buffer.
func (m *Image) View() image.Image {
	return view{m}
}

type view struct {
	m *Image
}

func (v view) ColorModel() color.Model {
	return color.NRGBAModel
}

func (v view) Bounds() image.Rectangle {
	return v.m.Bounds()
}

func (v view) At(x, y int) color.Color {
	if x < 0 || y < 0 || x >= v.m.Width || y >= v.m.Height {
		return color.NRGBA{}
	}
	c := v.m.RGBA8At(x, y)
	return color.NRGBA{R: c.R, G: c.G, B: c.B, A: c.A}
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
