package pixel

import (
	"github.com/chewxy/math32"
)

// RGBA is a floating point pixel with unassociated alpha.
type RGBA struct {
	R float32 `json:"r"`
	G float32 `json:"g"`
	B float32 `json:"b"`
	A float32 `json:"a"`
}

// RGBA8 is an 8-bit pixel. It exists only at the load and export boundary.
type RGBA8 struct {
	R uint8 `json:"r"`
	G uint8 `json:"g"`
	B uint8 `json:"b"`
	A uint8 `json:"a"`
}

// HSVA is a colour in hue/saturation/value space with alpha.
type HSVA struct {
	H float32 `json:"h"` // Hue: [0,360) degrees
	S float32 `json:"s"` // Saturation: [0,1]
	V float32 `json:"v"` // Value: [0,1]
	A float32 `json:"a"` // Alpha: [0,1]
}

// Common colours.
var (
	Transparent = RGBA{}
	Black       = RGBA{0, 0, 0, 1}
	White       = RGBA{1, 1, 1, 1}
)

// byteScale is slightly above 255 so values just under 1.0 (float error)
// still truncate to 255.
const byteScale = 255.99

// Clamp constrains v to [lo, hi].
func Clamp(v, lo, hi float32) float32 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// Add sums the RGB channels and keeps fg's alpha.
func Add(fg, bg RGBA) RGBA {
	return RGBA{fg.R + bg.R, fg.G + bg.G, fg.B + bg.B, fg.A}
}

// Sub subtracts bg's RGB channels from fg's and keeps fg's alpha.
func Sub(fg, bg RGBA) RGBA {
	return RGBA{fg.R - bg.R, fg.G - bg.G, fg.B - bg.B, fg.A}
}

// Scale multiplies the RGB channels by s. Alpha is untouched.
func Scale(c RGBA, s float32) RGBA {
	return RGBA{c.R * s, c.G * s, c.B * s, c.A}
}

// Div divides the RGB channels by s. Alpha is untouched.
func Div(c RGBA, s float32) RGBA {
	return RGBA{c.R / s, c.G / s, c.B / s, c.A}
}

// Mul multiplies all four channels pairwise.
func Mul(a, b RGBA) RGBA {
	return RGBA{a.R * b.R, a.G * b.G, a.B * b.B, a.A * b.A}
}

// Negative inverts the RGB channels, keeping alpha.
func Negative(c RGBA) RGBA {
	return RGBA{1 - c.R, 1 - c.G, 1 - c.B, c.A}
}

// Brightness is the mean of the RGB channels.
func Brightness(c RGBA) float32 {
	return (c.R + c.G + c.B) / 3
}

// BlendOver places fg over bg with the Porter-Duff "over" operator.
//
// The output alpha is clamped to [0.001, 1]; the lower bound only guards the
// division and does not model a physical minimum opacity.
func BlendOver(fg, bg RGBA) RGBA {
	aOut := Clamp(fg.A+bg.A*(1-fg.A), 0.001, 1)
	bgWeight := bg.A * (1 - fg.A)
	return RGBA{
		R: (fg.R*fg.A + bg.R*bgWeight) / aOut,
		G: (fg.G*fg.A + bg.G*bgWeight) / aOut,
		B: (fg.B*fg.A + bg.B*bgWeight) / aOut,
		A: aOut,
	}
}

// ToByte converts a float pixel to 8 bits: floor(255.99 * clamp(c, 0, 1)).
func ToByte(c RGBA) RGBA8 {
	return RGBA8{
		R: channelToByte(c.R),
		G: channelToByte(c.G),
		B: channelToByte(c.B),
		A: channelToByte(c.A),
	}
}

func channelToByte(v float32) uint8 {
	return uint8(byteScale * Clamp(v, 0, 1))
}

// FromByte converts an 8-bit pixel to float by dividing each channel by 255.
func FromByte(c RGBA8) RGBA {
	return RGBA{
		R: float32(c.R) / 255,
		G: float32(c.G) / 255,
		B: float32(c.B) / 255,
		A: float32(c.A) / 255,
	}
}

// ToHSVA converts an RGBA pixel to HSVA. Alpha passes through.
//
// When max == min the colour is achromatic and both hue and saturation are 0.
func ToHSVA(c RGBA) HSVA {
	cMax := math32.Max(math32.Max(c.R, c.G), c.B)
	cMin := math32.Min(math32.Min(c.R, c.G), c.B)
	delta := cMax - cMin

	var h, s float32
	if delta > 0 {
		switch cMax {
		case c.R:
			h = 60 * math32.Mod((c.G-c.B)/delta, 6)
		case c.G:
			h = 60 * ((c.B-c.R)/delta + 2)
		default:
			h = 60 * ((c.R-c.G)/delta + 4)
		}
		if cMax > 0 {
			s = delta / cMax
		}
	}

	if h < 0 {
		h += 360
	}
	if h >= 360 {
		h -= 360
	}

	return HSVA{H: h, S: s, V: cMax, A: c.A}
}

// FromHSVA converts an HSVA colour to RGBA. Hue is wrapped into [0,360) and
// saturation and value are clamped to [0,1] first. Alpha passes through.
func FromHSVA(c HSVA) RGBA {
	h := math32.Mod(c.H, 360)
	if h < 0 {
		h += 360
	}
	s := Clamp(c.S, 0, 1)
	v := Clamp(c.V, 0, 1)

	chroma := v * s
	x := chroma * (1 - math32.Abs(math32.Mod(h/60, 2)-1))
	m := v - chroma

	var r, g, b float32
	switch {
	case h < 60:
		r, g, b = chroma, x, 0
	case h < 120:
		r, g, b = x, chroma, 0
	case h < 180:
		r, g, b = 0, chroma, x
	case h < 240:
		r, g, b = 0, x, chroma
	case h < 300:
		r, g, b = x, 0, chroma
	case h < 360:
		r, g, b = chroma, 0, x
	}

	return RGBA{R: r + m, G: g + m, B: b + m, A: c.A}
}
