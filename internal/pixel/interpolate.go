package pixel

// Quad holds the four samples surrounding a fractional coordinate.
type Quad struct {
	TopLeft     RGBA
	TopRight    RGBA
	BottomLeft  RGBA
	BottomRight RGBA
}

// Grid holds a 4x4 neighbourhood indexed [row][column]. Row and column 1 are
// the sample at the integer floor of the coordinate; 0 is offset -1 and 3 is
// offset +2.
type Grid [4][4]RGBA

// LerpValue interpolates linearly between a (t=0) and b (t=1).
func LerpValue(t, a, b float32) float32 {
	return t*(b-a) + a
}

// CubicValue evaluates the cubic through (-1,pm1), (0,p0), (1,p1), (2,p2) at t.
//
// Solving for f(t) = a0 + a1 t + a2 t^2 + a3 t^3 through those points gives
//
//	a0 = p0
//	a1 = -pm1/3 - p0/2 + p1 - p2/6
//	a2 = pm1/2 - p0 + p1/2
//	a3 = -pm1/6 + p0/2 - p1/2 + p2/6
func CubicValue(t, pm1, p0, p1, p2 float32) float32 {
	a1 := -pm1/3 - p0/2 + p1 - p2/6
	a2 := pm1/2 - p0 + p1/2
	a3 := -pm1/6 + p0/2 - p1/2 + p2/6
	return p0 + t*(a1+t*(a2+t*a3))
}

// Lerp interpolates all four channels linearly.
func Lerp(t float32, a, b RGBA) RGBA {
	return RGBA{
		R: LerpValue(t, a.R, b.R),
		G: LerpValue(t, a.G, b.G),
		B: LerpValue(t, a.B, b.B),
		A: LerpValue(t, a.A, b.A),
	}
}

// Cubic interpolates all four channels with CubicValue.
func Cubic(t float32, pm1, p0, p1, p2 RGBA) RGBA {
	return RGBA{
		R: CubicValue(t, pm1.R, p0.R, p1.R, p2.R),
		G: CubicValue(t, pm1.G, p0.G, p1.G, p2.G),
		B: CubicValue(t, pm1.B, p0.B, p1.B, p2.B),
		A: CubicValue(t, pm1.A, p0.A, p1.A, p2.A),
	}
}

// Bilinear blends a quad: along x on the top and bottom edges, then along y.
// tx=0 is the left column and ty=0 the top row.
func Bilinear(tx, ty float32, q Quad) RGBA {
	top := Lerp(tx, q.TopLeft, q.TopRight)
	bottom := Lerp(tx, q.BottomLeft, q.BottomRight)
	return Lerp(ty, top, bottom)
}

// Bicubic blends a 4x4 grid: a cubic along x for each row, then along y.
func Bicubic(tx, ty float32, g Grid) RGBA {
	var rows [4]RGBA
	for i := range rows {
		rows[i] = Cubic(tx, g[i][0], g[i][1], g[i][2], g[i][3])
	}
	return Cubic(ty, rows[0], rows[1], rows[2], rows[3])
}

// Nearest picks the quad corner closest to (tx, ty).
func Nearest(tx, ty float32, q Quad) RGBA {
	switch {
	case tx < 0.5 && ty < 0.5:
		return q.TopLeft
	case ty < 0.5:
		return q.TopRight
	case tx < 0.5:
		return q.BottomLeft
	default:
		return q.BottomRight
	}
}
