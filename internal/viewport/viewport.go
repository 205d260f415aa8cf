// Package viewport renders transformed images onto a fixed-size raster.
//
// The viewport spans [-1, 1] on both axes in normalised coordinates. To
// keep rotation free of shear, geometry is computed in aspect-corrected
// space where x is multiplied by the viewport's aspect ratio, so one unit
// covers the same number of pixels on both axes. An untransformed source
// is two units tall and as wide as its own aspect ratio demands, centred
// on the viewport.
package viewport

import (
	"errors"
	"fmt"

	"github.com/chewxy/math32"

	"github.com/ironsheep/compositor-mcp/internal/pixel"
	"github.com/ironsheep/compositor-mcp/internal/raster"
)

// ErrDegenerateTransform is returned when a transform collapses the source
// to a line or point.
var ErrDegenerateTransform = errors.New("viewport: degenerate transform")

// Filter selects the resampling scheme.
type Filter int

const (
	Bilinear Filter = iota
	Bicubic
	Nearest
)

// String returns the filter name used in tool arguments.
func (f Filter) String() string {
	switch f {
	case Bicubic:
		return "bicubic"
	case Nearest:
		return "nearest"
	default:
		return "bilinear"
	}
}

// ParseFilter maps a name to a Filter. The empty string selects Bilinear.
func ParseFilter(name string) (Filter, error) {
	switch name {
	case "", "bilinear":
		return Bilinear, nil
	case "bicubic":
		return Bicubic, nil
	case "nearest":
		return Nearest, nil
	}
	return Bilinear, fmt.Errorf("viewport: unknown filter %q", name)
}

// Vec2 is a 2D vector.
type Vec2 struct {
	X float32 `json:"x"`
	Y float32 `json:"y"`
}

func (v Vec2) add(o Vec2) Vec2      { return Vec2{v.X + o.X, v.Y + o.Y} }
func (v Vec2) sub(o Vec2) Vec2      { return Vec2{v.X - o.X, v.Y - o.Y} }
func (v Vec2) mul(o Vec2) Vec2      { return Vec2{v.X * o.X, v.Y * o.Y} }
func (v Vec2) dot(o Vec2) float32   { return v.X*o.X + v.Y*o.Y }
func (v Vec2) length() float32      { return math32.Hypot(v.X, v.Y) }
func (v Vec2) scale(s float32) Vec2 { return Vec2{v.X * s, v.Y * s} }

func (v Vec2) rotate(sin, cos float32) Vec2 {
	return Vec2{cos*v.X - sin*v.Y, sin*v.X + cos*v.Y}
}

// Transform places a source image: scale, then rotate, then translate.
type Transform struct {
	// Scale multiplies the placement per axis. (1, 1) keeps the source at
	// full viewport height.
	Scale Vec2 `json:"scale"`

	// Rotation in degrees.
	Rotation float32 `json:"rotation"`

	// Translation in normalised viewport units; (1, 0) moves the source
	// half the viewport width to the right.
	Translation Vec2 `json:"translation"`

	Filter Filter `json:"filter"`

	// Blend composites samples over the existing pixels with the
	// Porter-Duff over operator instead of replacing them.
	Blend bool `json:"blend"`
}

// Identity is the transform that places the source untransformed.
var Identity = Transform{Scale: Vec2{1, 1}}

// Frame is the transformed placement of a source in aspect-corrected
// viewport space: the top-left corner and the vectors along the source's
// top and left edges.
type Frame struct {
	Origin Vec2
	EdgeX  Vec2
	EdgeY  Vec2
}

// Viewport owns a destination raster.
type Viewport struct {
	img    *raster.Image
	aspect float32
}

// New returns a width x height viewport cleared to transparent black.
func New(width, height int) (*Viewport, error) {
	return NewWithin(width, height, 0)
}

// NewWithin is New with the destination bounded by maxPixels instead of
// raster.DefaultMaxPixels.
func NewWithin(width, height, maxPixels int) (*Viewport, error) {
	img := &raster.Image{MaxPixels: maxPixels}
	if err := img.Resize(width, height); err != nil {
		return nil, fmt.Errorf("viewport: %w", err)
	}
	return &Viewport{img: img, aspect: img.AspectRatio()}, nil
}

// Image returns the destination raster.
func (v *Viewport) Image() *raster.Image {
	return v.img
}

// Clear fills the destination with c.
func (v *Viewport) Clear(c pixel.RGBA) {
	v.img.Fill(c)
}

// Frame computes where src lands under t.
func (v *Viewport) Frame(src *raster.Image, t Transform) Frame {
	sa := src.AspectRatio()
	f := Frame{
		Origin: Vec2{-sa, -1},
		EdgeX:  Vec2{2 * sa, 0},
		EdgeY:  Vec2{0, 2},
	}

	f.Origin = f.Origin.mul(t.Scale)
	f.EdgeX = f.EdgeX.mul(t.Scale)
	f.EdgeY = f.EdgeY.mul(t.Scale)

	rad := t.Rotation * math32.Pi / 180
	sin, cos := math32.Sin(rad), math32.Cos(rad)
	f.Origin = f.Origin.rotate(sin, cos)
	f.EdgeX = f.EdgeX.rotate(sin, cos)
	f.EdgeY = f.EdgeY.rotate(sin, cos)

	f.Origin = f.Origin.add(Vec2{t.Translation.X * v.aspect, t.Translation.Y})
	return f
}

// DrawImage resamples src onto the viewport under t.
//
// Each destination pixel is projected onto the transformed source edges to
// find fractional source coordinates. Only pixels whose integer sample and
// its right and lower neighbours lie inside the source are written; all
// others keep their current value.
func (v *Viewport) DrawImage(src *raster.Image, t Transform) error {
	if src.Empty() {
		return fmt.Errorf("viewport: %w: source is empty", raster.ErrInvalidDimensions)
	}
	f := v.Frame(src, t)
	lenX, lenY := f.EdgeX.length(), f.EdgeY.length()
	if !(lenX > 0) || !(lenY > 0) || math32.IsInf(lenX, 0) || math32.IsInf(lenY, 0) {
		return fmt.Errorf("%w: scale (%v, %v)", ErrDegenerateTransform, t.Scale.X, t.Scale.Y)
	}

	// Unit edge directions divided by the per-pixel step length.
	axisX := f.EdgeX.scale(float32(src.Width) / (lenX * lenX))
	axisY := f.EdgeY.scale(float32(src.Height) / (lenY * lenY))

	dst := v.img
	w, h := float32(dst.Width), float32(dst.Height)
	for py := 0; py < dst.Height; py++ {
		ny := 2*float32(py)/h - 1
		for px := 0; px < dst.Width; px++ {
			p := Vec2{(2*float32(px)/w - 1) * v.aspect, ny}
			d := p.sub(f.Origin)
			c, ok := sample(src, d.dot(axisX), d.dot(axisY), t.Filter)
			if !ok {
				continue
			}
			i := py*dst.Width + px
			if t.Blend {
				c = pixel.BlendOver(c, dst.Pix[i])
			}
			dst.Pix[i] = c
		}
	}
	return nil
}

// sample interpolates src at fractional coordinates (sx, sy). It reports
// false when the sample's 2x2 footprint is not inside src.
func sample(src *raster.Image, sx, sy float32, filter Filter) (pixel.RGBA, bool) {
	fx, fy := math32.Floor(sx), math32.Floor(sy)
	if !(fx >= 0 && fy >= 0 && fx+1 < float32(src.Width) && fy+1 < float32(src.Height)) {
		return pixel.RGBA{}, false
	}
	x0, y0 := int(fx), int(fy)
	tx, ty := sx-fx, sy-fy

	if filter == Bicubic {
		var g pixel.Grid
		for r := range g {
			for c := range g[r] {
				g[r][c] = src.Clamped(x0-1+c, y0-1+r)
			}
		}
		return pixel.Bicubic(tx, ty, g), true
	}

	q := pixel.Quad{
		TopLeft:     src.At(x0, y0),
		TopRight:    src.At(x0+1, y0),
		BottomLeft:  src.At(x0, y0+1),
		BottomRight: src.At(x0+1, y0+1),
	}
	if filter == Nearest {
		return pixel.Nearest(tx, ty, q), true
	}
	return pixel.Bilinear(tx, ty, q), true
}
