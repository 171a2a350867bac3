package poisson

import (
	"github.com/pkg/errors"
)

var (
	ErrSingular      = errors.New("singular tridiagonal system")
	ErrShapeMismatch = errors.New("diagonals of different lengths")
)

// Solver solves a tridiagonal system without pivoting. The solution
// replaces b; the diagonals may be overwritten.
type Solver interface {
	SolveNoPivot(dl, d, du, b []float64) error
}

// Thomas is the sequential Thomas algorithm.
type Thomas struct{}

func (Thomas) SolveNoPivot(dl, d, du, b []float64) error {
	n := len(d)
	if len(dl) != n || len(du) != n || len(b) != n {
		return errors.Wrapf(ErrShapeMismatch, "%d %d %d %d", len(dl), len(d), len(du), len(b))
	}
	if n == 0 {
		return nil
	}
	c := make([]float64, n)
	if d[0] == 0 {
		return errors.Wrap(ErrSingular, "zero pivot in row 0")
	}
	c[0] = du[0] / d[0]
	b[0] = b[0] / d[0]
	for i := 1; i < n; i++ {
		m := d[i] - dl[i]*c[i-1]
		if m == 0 {
			return errors.Wrapf(ErrSingular, "zero pivot in row %d", i)
		}
		if i < n-1 {
			c[i] = du[i] / m
		}
		b[i] = (b[i] - dl[i]*b[i-1]) / m
	}
	for i := n - 2; i >= 0; i-- {
		b[i] -= c[i] * b[i+1]
	}
	return nil
}
