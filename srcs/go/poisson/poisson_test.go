package poisson

import (
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_Assemble(t *testing.T) {
	s := Problem{N: 5, Omega: 1}.Assemble()
	want := &System{
		DL: []float64{0, 1, 1, 1, 0},
		D:  []float64{-2, -2, -2, -2, -2},
		DU: []float64{0, 1, 1, 1, 0},
	}
	if diff := cmp.Diff(want, s, cmpopts.IgnoreFields(System{}, "RHS")); diff != "" {
		t.Errorf("Assemble() mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, 0.0, s.RHS[0])
	assert.InDelta(t, 0, s.RHS[4], 1e-15)
	assert.InDelta(t, -math.Pi*math.Pi/16, s.RHS[2], 1e-15)
}

func Test_Thomas(t *testing.T) {
	// [2 1 0; 1 2 1; 0 1 2] x = [4 8 8] => x = [1 2 3]
	dl := []float64{0, 1, 1}
	d := []float64{2, 2, 2}
	du := []float64{1, 1, 0}
	b := []float64{4, 8, 8}
	require.NoError(t, Thomas{}.SolveNoPivot(dl, d, du, b))
	if diff := cmp.Diff([]float64{1, 2, 3}, b, cmpopts.EquateApprox(0, 1e-12)); diff != "" {
		t.Errorf("solution mismatch (-want +got):\n%s", diff)
	}
}

func Test_Thomas_singular(t *testing.T) {
	err := Thomas{}.SolveNoPivot([]float64{0, 1}, []float64{0, 1}, []float64{1, 0}, []float64{1, 1})
	assert.ErrorIs(t, err, ErrSingular)

	// [1 1; 1 1] fails at the second pivot
	err = Thomas{}.SolveNoPivot([]float64{0, 1}, []float64{1, 1}, []float64{1, 0}, []float64{1, 1})
	assert.ErrorIs(t, err, ErrSingular)

	err = Thomas{}.SolveNoPivot([]float64{0}, []float64{1, 1}, []float64{1, 0}, []float64{1, 1})
	assert.ErrorIs(t, err, ErrShapeMismatch)
}

func Test_Solve(t *testing.T) {
	var prev float64
	for _, n := range []int{11, 101, 1001} {
		p := Problem{N: n, Omega: 1}
		u, err := p.Solve(Thomas{})
		require.NoError(t, err)
		require.Len(t, u, n)
		e := p.MaxAbsError(u)
		assert.Less(t, e, 1e-2, "N=%d", n)
		if prev > 0 {
			// second order: 10x finer grid, ~100x smaller error
			assert.Less(t, e, prev/50, "N=%d", n)
		}
		prev = e
	}
}

func Test_Solve_omega(t *testing.T) {
	p := Problem{N: 2001, Omega: 3}
	u, err := p.Solve(Thomas{})
	require.NoError(t, err)
	assert.Less(t, p.MaxAbsError(u), 1e-4)
}

func Test_Validate(t *testing.T) {
	_, err := Problem{N: 2, Omega: 1}.Solve(Thomas{})
	assert.Error(t, err)
	assert.NoError(t, Problem{N: 3, Omega: 1}.Validate())
}

func Test_MaxAbsError(t *testing.T) {
	p := Problem{N: 3, Omega: 1}
	assert.InDelta(t, 0.5, p.MaxAbsError([]float64{0, 1.5, 0}), 1e-12)
	assert.Equal(t, 0.0, p.MaxAbsError(nil))
}
