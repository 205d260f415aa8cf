package linalg

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/ironsheep/compositor-mcp/internal/logging"
)

// PivotEpsilon is the smallest pivot magnitude accepted during elimination.
const PivotEpsilon = 1e-8

// ErrSingular is returned when elimination finds no usable pivot.
var ErrSingular = errors.New("linalg: matrix is singular")

// FindInverse inverts m by Gauss-Jordan elimination. See FindInverseContext.
func (m *SquareMatrix) FindInverse() (*SquareMatrix, error) {
	return m.FindInverseContext(context.Background())
}

// FindInverseContext inverts m by Gauss-Jordan elimination with partial
// pivoting. m is not modified.
//
// For each column the row with the largest magnitude entry at or below the
// diagonal becomes the pivot. When that magnitude is below PivotEpsilon the
// elimination stops and the partially reduced accumulator is returned with
// an error wrapping ErrSingular. The accumulator is never nil, so callers
// that prefer a degraded result to none can still use it.
//
// ctx is checked once per pivot column; on cancellation the partial
// accumulator is returned with ctx.Err().
func (m *SquareMatrix) FindInverseContext(ctx context.Context) (*SquareMatrix, error) {
	work := m.Clone()
	inv := Identity(m.n)

	for c := 0; c < m.n; c++ {
		if err := ctx.Err(); err != nil {
			return inv, err
		}

		pivotRow := c
		pivotMag := math.Abs(work.At(c, c))
		for r := c + 1; r < m.n; r++ {
			if v := math.Abs(work.At(r, c)); v > pivotMag {
				pivotRow, pivotMag = r, v
			}
		}
		if pivotMag < PivotEpsilon || math.IsNaN(pivotMag) {
			logging.Logger().Warn("matrix not invertible",
				"side", m.n, "column", c, "pivot", pivotMag)
			return inv, fmt.Errorf("%w: pivot %g in column %d of %d", ErrSingular, pivotMag, c, m.n)
		}

		work.SwapRows(c, pivotRow)
		inv.SwapRows(c, pivotRow)

		s := 1 / work.At(c, c)
		work.ScaleRow(c, s)
		inv.ScaleRow(c, s)

		for r := 0; r < m.n; r++ {
			if r == c {
				continue
			}
			f := work.At(r, c)
			if f == 0 {
				continue
			}
			work.AddScaledRow(r, c, -f)
			inv.AddScaledRow(r, c, -f)
		}
	}

	return inv, nil
}
