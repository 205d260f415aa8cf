package codec

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image/png"

	"github.com/anthonynsimon/bild/histogram"
	"github.com/disintegration/imaging"

	"github.com/ironsheep/compositor-mcp/internal/raster"
)

// PreviewResult contains a downscaled rendering of an image as base64 PNG.
type PreviewResult struct {
	// Width of the preview in pixels.
	Width int `json:"width"`

	// Height of the preview in pixels.
	Height int `json:"height"`

	// SourceWidth and SourceHeight are the full image dimensions.
	SourceWidth  int `json:"source_width"`
	SourceHeight int `json:"source_height"`

	// ImageBase64 is the preview encoded as base64 PNG.
	ImageBase64 string `json:"image_base64"`

	// MimeType is always "image/png".
	MimeType string `json:"mime_type"`
}

// Preview scales img to fit within maxSize x maxSize (never enlarging) and
// returns it as a base64 PNG. Channels are clamped to [0,1] on the way out.
func Preview(img *raster.Image, maxSize int) (*PreviewResult, error) {
	if img.Empty() {
		return nil, fmt.Errorf("%w: image is empty", ErrEncode)
	}
	if maxSize <= 0 {
		return nil, fmt.Errorf("%w: preview size %d", raster.ErrInvalidDimensions, maxSize)
	}

	scaled := imaging.Fit(img.ToNRGBA(), maxSize, maxSize, imaging.Lanczos)

	var buf bytes.Buffer
	if err := png.Encode(&buf, scaled); err != nil {
		return nil, fmt.Errorf("%w: preview: %v", ErrEncode, err)
	}

	return &PreviewResult{
		Width:        scaled.Bounds().Dx(),
		Height:       scaled.Bounds().Dy(),
		SourceWidth:  img.Width,
		SourceHeight: img.Height,
		ImageBase64:  base64.StdEncoding.EncodeToString(buf.Bytes()),
		MimeType:     "image/png",
	}, nil
}

// ChannelStats summarises one channel.
type ChannelStats struct {
	// Min, Max and Mean are computed on the float values, so they can lie
	// outside [0,1] for intermediate results.
	Min  float32 `json:"min"`
	Max  float32 `json:"max"`
	Mean float32 `json:"mean"`

	// Histogram has 256 bins over the 8-bit export of the channel. RGB bins
	// count premultiplied values.
	Histogram []int `json:"histogram,omitempty"`
}

// StatsResult summarises all four channels of an image.
type StatsResult struct {
	Width  int          `json:"width"`
	Height int          `json:"height"`
	R      ChannelStats `json:"r"`
	G      ChannelStats `json:"g"`
	B      ChannelStats `json:"b"`
	A      ChannelStats `json:"a"`
}

// Stats computes per-channel extrema, means and 8-bit histograms. When
// withHistogram is false the histogram slices are omitted.
func Stats(img *raster.Image, withHistogram bool) (*StatsResult, error) {
	if img.Empty() {
		return nil, fmt.Errorf("stats: %w: image is empty", raster.ErrInvalidDimensions)
	}

	res := &StatsResult{Width: img.Width, Height: img.Height}
	first := img.Pix[0]
	res.R = ChannelStats{Min: first.R, Max: first.R}
	res.G = ChannelStats{Min: first.G, Max: first.G}
	res.B = ChannelStats{Min: first.B, Max: first.B}
	res.A = ChannelStats{Min: first.A, Max: first.A}

	var sumR, sumG, sumB, sumA float64
	for _, c := range img.Pix {
		res.R.observe(c.R)
		res.G.observe(c.G)
		res.B.observe(c.B)
		res.A.observe(c.A)
		sumR += float64(c.R)
		sumG += float64(c.G)
		sumB += float64(c.B)
		sumA += float64(c.A)
	}
	n := float64(len(img.Pix))
	res.R.Mean = float32(sumR / n)
	res.G.Mean = float32(sumG / n)
	res.B.Mean = float32(sumB / n)
	res.A.Mean = float32(sumA / n)

	if withHistogram {
		h := histogram.NewRGBAHistogram(img.View())
		res.R.Histogram = h.R.Bins
		res.G.Histogram = h.G.Bins
		res.B.Histogram = h.B.Bins
		res.A.Histogram = h.A.Bins
	}

	return res, nil
}

func (s *ChannelStats) observe(v float32) {
	if v < s.Min {
		s.Min = v
	}
	if v > s.Max {
		s.Max = v
	}
}
