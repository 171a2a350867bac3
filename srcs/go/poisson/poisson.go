// Package poisson solves the 1D Poisson equation Δu = f on [0, 1] with
// u(0) = u(1) = 0 for the manufactured solution u = sin(ωπx).
package poisson

import (
	"math"

	"github.com/pkg/errors"
)

const MinPoints = 3

type Problem struct {
	N     int
	Omega float64
}

func (p Problem) Validate() error {
	if p.N < MinPoints {
		return errors.Errorf("need at least %d points, got %d", MinPoints, p.N)
	}
	return nil
}

func (p Problem) Dx() float64 {
	return 1 / float64(p.N-1)
}

// Exact is the solution at grid point i.
func (p Problem) Exact(i int) float64 {
	return math.Sin(p.Omega * float64(i) * p.Dx() * math.Pi)
}

// System is a tridiagonal system: row i reads
// DL[i] x[i-1] + D[i] x[i] + DU[i] x[i+1] = RHS[i].
// DL[0] and DU[N-1] are not used.
type System struct {
	DL, D, DU, RHS []float64
}

// Assemble discretizes the problem with second order central differences,
// scaled by Δx². The first and last rows hold the Dirichlet conditions.
func (p Problem) Assemble() *System {
	n := p.N
	s := &System{
		DL:  make([]float64, n),
		D:   make([]float64, n),
		DU:  make([]float64, n),
		RHS: make([]float64, n),
	}
	dx := p.Dx()
	w2pi2 := p.Omega * p.Omega * math.Pi * math.Pi
	for i := 0; i < n; i++ {
		s.D[i] = -2
		s.RHS[i] = -w2pi2 * math.Sin(p.Omega*float64(i)*dx*math.Pi) * dx * dx
	}
	for i := 1; i < n; i++ {
		s.DL[i] = 1
		s.DU[i-1] = 1
	}
	s.DU[0] = 0
	s.DL[n-1] = 0
	return s
}

// MaxAbsError is the L∞ distance between u and the exact solution.
func (p Problem) MaxAbsError(u []float64) float64 {
	var e float64
	for i, x := range u {
		if d := math.Abs(x - p.Exact(i)); d > e {
			e = d
		}
	}
	return e
}

// Solve assembles the system, solves it with s and returns the solution.
func (p Problem) Solve(s Solver) ([]float64, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	sys := p.Assemble()
	if err := s.SolveNoPivot(sys.DL, sys.D, sys.DU, sys.RHS); err != nil {
		return nil, err
	}
	return sys.RHS, nil
}
