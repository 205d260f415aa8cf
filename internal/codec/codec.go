package codec

import (
	"errors"
	"fmt"
	"image"
	_ "image/gif"  // Register GIF format decoder
	_ "image/jpeg" // Register JPEG format decoder
	_ "image/png"  // Register PNG format decoder

	"github.com/disintegration/imaging"
	_ "golang.org/x/image/bmp"  // Register BMP format decoder
	_ "golang.org/x/image/tiff" // Register TIFF format decoder
	_ "golang.org/x/image/webp" // Register WebP format decoder

	"github.com/ironsheep/compositor-mcp/internal/logging"
	"github.com/ironsheep/compositor-mcp/internal/raster"
)

var (
	// ErrDecode is returned when a file cannot be opened or decoded.
	ErrDecode = errors.New("codec: decode failed")

	// ErrEncode is returned when an image cannot be encoded or written.
	ErrEncode = errors.New("codec: encode failed")
)

// Decode reads an image file and returns its dimensions and pixels as a
// tightly packed, non-premultiplied RGBA byte buffer. EXIF orientation is
// applied for JPEG files.
func Decode(path string) (width, height int, pix []uint8, err error) {
	img, err := imaging.Open(path, imaging.AutoOrientation(true))
	if err != nil {
		return 0, 0, nil, fmt.Errorf("%w: %s: %v", ErrDecode, path, err)
	}

	nrgba := imaging.Clone(img)
	b := nrgba.Bounds()
	return b.Dx(), b.Dy(), nrgba.Pix, nil
}

// Encode writes a tightly packed RGBA byte buffer to path. The format is
// chosen from the file extension.
func Encode(path string, width, height int, pix []uint8) error {
	if len(pix) != width*height*4 {
		return fmt.Errorf("%w: %d bytes for %dx%d", ErrEncode, len(pix), width, height)
	}
	img := &image.NRGBA{Pix: pix, Stride: width * 4, Rect: image.Rect(0, 0, width, height)}
	if err := imaging.Save(img, path); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrEncode, path, err)
	}
	return nil
}

// Read decodes path into dst, bounded by raster.DefaultMaxPixels.
// See ReadWithin.
func Read(path string, dst *raster.Image) error {
	return ReadWithin(path, dst, raster.DefaultMaxPixels)
}

// ReadWithin decodes path into dst. On any failure dst keeps its previous
// dimensions and pixels and the error is logged and returned.
func ReadWithin(path string, dst *raster.Image, maxPixels int) error {
	w, h, pix, err := Decode(path)
	if err != nil {
		logging.Logger().Warn("image load failed", "path", path, "error", err)
		return err
	}

	if err := raster.CheckDimensions(w, h, maxPixels); err != nil {
		logging.Logger().Warn("image load failed", "path", path, "error", err)
		return fmt.Errorf("load %s: %w", path, err)
	}
	converted, err := raster.FromBytes(w, h, pix)
	if err != nil {
		return fmt.Errorf("load %s: %w", path, err)
	}

	dst.CopyFrom(converted)
	logging.Logger().Debug("image loaded", "path", path, "width", w, "height", h)
	return nil
}

// Write encodes img to path using pixel.ToByte for the float to byte step.
func Write(path string, img *raster.Image) error {
	if img.Empty() {
		return fmt.Errorf("%w: %s: image is empty", ErrEncode, path)
	}
	if err := Encode(path, img.Width, img.Height, img.Bytes()); err != nil {
		logging.Logger().Warn("image write failed", "path", path, "error", err)
		return err
	}
	return nil
}
