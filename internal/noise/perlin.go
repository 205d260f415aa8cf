// Package noise provides 3D Perlin gradient noise for mask generation.
package noise

import (
	"github.com/chewxy/math32"
)

// permutation is Ken Perlin's reference hash table: 0-255 in a fixed
// pseudo-random order.
var permutation = [256]int{
	151, 160, 137, 91, 90, 15, 131, 13, 201, 95, 96, 53, 194, 233, 7, 225,
	140, 36, 103, 30, 69, 142, 8, 99, 37, 240, 21, 10, 23, 190, 6, 148,
	247, 120, 234, 75, 0, 26, 197, 62, 94, 252, 219, 203, 117, 35, 11, 32,
	57, 177, 33, 88, 237, 149, 56, 87, 174, 20, 125, 136, 171, 168, 68, 175,
	74, 165, 71, 134, 139, 48, 27, 166, 77, 146, 158, 231, 83, 111, 229, 122,
	60, 211, 133, 230, 220, 105, 92, 41, 55, 46, 245, 40, 244, 102, 143, 54,
	65, 25, 63, 161, 1, 216, 80, 73, 209, 76, 132, 187, 208, 89, 18, 169,
	200, 196, 135, 130, 116, 188, 159, 86, 164, 100, 109, 198, 173, 186, 3, 64,
	52, 217, 226, 250, 124, 123, 5, 202, 38, 147, 118, 126, 255, 82, 85, 212,
	207, 206, 59, 227, 47, 16, 58, 17, 182, 189, 28, 42, 223, 183, 170, 213,
	119, 248, 152, 2, 44, 154, 163, 70, 221, 153, 101, 155, 167, 43, 172, 9,
	129, 22, 39, 253, 19, 98, 108, 110, 79, 113, 224, 232, 178, 185, 112, 104,
	218, 246, 97, 228, 251, 34, 242, 193, 238, 210, 144, 12, 191, 179, 162, 241,
	81, 51, 145, 235, 249, 14, 239, 107, 49, 192, 214, 31, 181, 199, 106, 157,
	184, 84, 204, 176, 115, 121, 50, 45, 127, 4, 150, 254, 138, 236, 205, 93,
	222, 114, 67, 29, 24, 72, 243, 141, 128, 195, 78, 66, 215, 61, 156, 180,
}

// Perlin is an immutable noise field. It is safe for concurrent use.
type Perlin struct {
	p      [512]int
	repeat int
}

// NewPerlin returns a field using the reference permutation that tiles only
// at the lattice period of 256.
func NewPerlin() *Perlin {
	return NewPerlinRepeat(0)
}

// NewPerlinRepeat returns a field that tiles every repeat units on each
// axis. A repeat of zero or less disables tiling.
func NewPerlinRepeat(repeat int) *Perlin {
	f := &Perlin{}
	for i := range f.p {
		f.p[i] = permutation[i%256]
	}
	if repeat > 0 {
		f.repeat = repeat
	}
	return f
}

// Repeat returns the tiling period, or 0.
func (f *Perlin) Repeat() int {
	return f.repeat
}

// Noise samples the field at (x, y, z). The result lies in [0, 1] and is
// exactly 0.5 at every integer lattice point.
func (f *Perlin) Noise(x, y, z float32) float32 {
	if f.repeat > 0 {
		r := float32(f.repeat)
		x = wrap(x, r)
		y = wrap(y, r)
		z = wrap(z, r)
	}

	fx, fy, fz := math32.Floor(x), math32.Floor(y), math32.Floor(z)
	xi, yi, zi := int(fx)&255, int(fy)&255, int(fz)&255
	xf, yf, zf := x-fx, y-fy, z-fz
	u, v, w := fade(xf), fade(yf), fade(zf)

	p := &f.p
	aaa := p[p[p[xi]+yi]+zi]
	aba := p[p[p[xi]+f.inc(yi)]+zi]
	aab := p[p[p[xi]+yi]+f.inc(zi)]
	abb := p[p[p[xi]+f.inc(yi)]+f.inc(zi)]
	baa := p[p[p[f.inc(xi)]+yi]+zi]
	bba := p[p[p[f.inc(xi)]+f.inc(yi)]+zi]
	bab := p[p[p[f.inc(xi)]+yi]+f.inc(zi)]
	bbb := p[p[p[f.inc(xi)]+f.inc(yi)]+f.inc(zi)]

	x1 := lerp(u, grad(aaa, xf, yf, zf), grad(baa, xf-1, yf, zf))
	x2 := lerp(u, grad(aba, xf, yf-1, zf), grad(bba, xf-1, yf-1, zf))
	y1 := lerp(v, x1, x2)
	x1 = lerp(u, grad(aab, xf, yf, zf-1), grad(bab, xf-1, yf, zf-1))
	x2 = lerp(u, grad(abb, xf, yf-1, zf-1), grad(bbb, xf-1, yf-1, zf-1))
	y2 := lerp(v, x1, x2)

	n := (lerp(w, y1, y2) + 1) / 2
	return clamp01(n)
}

// Octave sums octaves layers of noise, doubling the frequency and scaling
// the amplitude by persistence at each layer, and normalises the total back
// into [0, 1]. octaves below 1 is treated as 1.
func (f *Perlin) Octave(x, y, z float32, octaves int, persistence float32) float32 {
	if octaves < 1 {
		octaves = 1
	}
	var total, maxValue float32
	frequency, amplitude := float32(1), float32(1)
	for i := 0; i < octaves; i++ {
		total += f.Noise(x*frequency, y*frequency, z*frequency) * amplitude
		maxValue += amplitude
		amplitude *= persistence
		frequency *= 2
	}
	if maxValue == 0 {
		return 0.5
	}
	return total / maxValue
}

func (f *Perlin) inc(n int) int {
	n++
	if f.repeat > 0 {
		n %= f.repeat
	}
	return n
}

func fade(t float32) float32 {
	return t * t * t * (t*(t*6-15) + 10)
}

func lerp(t, a, b float32) float32 {
	return a + t*(b-a)
}

// grad returns the dot product of (x, y, z) with one of twelve cube-edge
// gradients chosen by the low four bits of hash.
func grad(hash int, x, y, z float32) float32 {
	switch hash & 0xF {
	case 0x0:
		return x + y
	case 0x1:
		return -x + y
	case 0x2:
		return x - y
	case 0x3:
		return -x - y
	case 0x4:
		return x + z
	case 0x5:
		return -x + z
	case 0x6:
		return x - z
	case 0x7:
		return -x - z
	case 0x8:
		return y + z
	case 0x9:
		return -y + z
	case 0xA:
		return y - z
	case 0xB:
		return -y - z
	case 0xC:
		return y + x
	case 0xD:
		return -y + x
	case 0xE:
		return y - x
	default:
		return -y - x
	}
}

func wrap(v, r float32) float32 {
	v = math32.Mod(v, r)
	if v < 0 {
		v += r
	}
	return v
}

func clamp01(v float32) float32 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
