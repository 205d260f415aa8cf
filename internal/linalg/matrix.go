package linalg

import (
	"fmt"
	"math"
)

// SquareMatrix is an n x n matrix stored row-major.
type SquareMatrix struct {
	n    int
	data []float64
}

// NewSquareMatrix returns an n x n zero matrix. A negative side is treated
// as zero.
func NewSquareMatrix(n int) *SquareMatrix {
	if n < 0 {
		n = 0
	}
	return &SquareMatrix{n: n, data: make([]float64, n*n)}
}

// Identity returns the n x n identity matrix.
func Identity(n int) *SquareMatrix {
	m := NewSquareMatrix(n)
	for i := 0; i < m.n; i++ {
		m.data[i*m.n+i] = 1
	}
	return m
}

// FromRows builds a matrix from equal-length rows. It returns an error if
// the rows do not form a square.
func FromRows(rows [][]float64) (*SquareMatrix, error) {
	m := NewSquareMatrix(len(rows))
	for r, row := range rows {
		if len(row) != m.n {
			return nil, fmt.Errorf("linalg: row %d has %d entries, want %d", r, len(row), m.n)
		}
		copy(m.data[r*m.n:], row)
	}
	return m, nil
}

// Side returns n.
func (m *SquareMatrix) Side() int {
	return m.n
}

// At returns the entry in row r, column c. Not bounds checked beyond the
// slice access.
func (m *SquareMatrix) At(r, c int) float64 {
	return m.data[r*m.n+c]
}

// Set assigns the entry in row r, column c.
func (m *SquareMatrix) Set(r, c int, v float64) {
	m.data[r*m.n+c] = v
}

// Row returns row r as a slice sharing the matrix storage.
func (m *SquareMatrix) Row(r int) []float64 {
	return m.data[r*m.n : (r+1)*m.n]
}

// Clone returns an independent copy.
func (m *SquareMatrix) Clone() *SquareMatrix {
	out := &SquareMatrix{n: m.n, data: make([]float64, len(m.data))}
	copy(out.data, m.data)
	return out
}

// ScaleRow multiplies row r by s.
func (m *SquareMatrix) ScaleRow(r int, s float64) {
	row := m.Row(r)
	for i := range row {
		row[i] *= s
	}
}

// AddScaledRow adds s times row src to row dst.
func (m *SquareMatrix) AddScaledRow(dst, src int, s float64) {
	d, sr := m.Row(dst), m.Row(src)
	for i := range d {
		d[i] += s * sr[i]
	}
}

// SwapRows exchanges rows a and b.
func (m *SquareMatrix) SwapRows(a, b int) {
	if a == b {
		return
	}
	ra, rb := m.Row(a), m.Row(b)
	for i := range ra {
		ra[i], rb[i] = rb[i], ra[i]
	}
}

// MulVec computes dst = m * v. dst and v must both have length n and must
// not overlap.
func (m *SquareMatrix) MulVec(dst, v []float64) {
	for r := 0; r < m.n; r++ {
		row := m.Row(r)
		var sum float64
		for c, x := range row {
			sum += x * v[c]
		}
		dst[r] = sum
	}
}

// Mul returns the product m * o. Both must have the same side.
func (m *SquareMatrix) Mul(o *SquareMatrix) *SquareMatrix {
	out := NewSquareMatrix(m.n)
	for r := 0; r < m.n; r++ {
		for k := 0; k < m.n; k++ {
			a := m.data[r*m.n+k]
			if a == 0 {
				continue
			}
			orow := o.Row(k)
			dst := out.Row(r)
			for c := range dst {
				dst[c] += a * orow[c]
			}
		}
	}
	return out
}

// NormInf returns the maximum absolute row sum.
func (m *SquareMatrix) NormInf() float64 {
	var best float64
	for r := 0; r < m.n; r++ {
		var sum float64
		for _, x := range m.Row(r) {
			sum += math.Abs(x)
		}
		if sum > best {
			best = sum
		}
	}
	return best
}

// ConditionEstimate returns ||m||inf * ||inv||inf, the infinity-norm
// condition number when inv is the inverse of m.
func ConditionEstimate(m, inv *SquareMatrix) float64 {
	return m.NormInf() * inv.NormInf()
}
