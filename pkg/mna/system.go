// Package mna builds and solves the complex-valued modified-nodal-analysis
// system for a single frequency point.
//
// Grounded on the teacher's pkg/matrix/circuit.go (CircuitMatrix), which
// wraps github.com/edp1096/sparse for both real and complex stamping. That
// dual-mode matrix is generalized here to a complex-only System: AC transfer
// and AC noise analysis never need a real-valued solve, so the real-vector
// bookkeeping and transient-only helpers (LoadGmin, real Solve) are dropped.
package mna

import (
	"fmt"
	"math"
	"math/cmplx"

	"github.com/edp1096/sparse"
)

// System is a complex linear system A*x = b of a fixed size, built by
// repeated calls to AddElement/AddRHS and solved once per frequency point.
//
// Transpose, when set, swaps the (row, col) arguments of every AddElement
// call before it reaches the underlying matrix. A Component's matrix stamps
// never need to know whether they build A or Aᵀ: the noise analysis
// (pkg/analysis) stamps the circuit with Transpose set to get the adjoint
// system for C5 without a second stamping code path (and, for
// input-referral, stamps it once more normally). The one Transpose-aware
// stamp is the input's excitation, which pkg/circuit leaves out of the
// adjoint RHS.
type System struct {
	Size      int
	Transpose bool

	// DisablePrescale skips the power-of-two diagonal scaling Solve
	// otherwise applies. Since prescaling is built to be numerically
	// idempotent (spec.md §8), this flag exists so a test can solve the
	// same stamped system both ways and compare, not for any caller to
	// tune conditioning.
	DisablePrescale bool

	matrix *sparse.Matrix
	config *sparse.Configuration

	rhs    []float64 // interleaved real/imag, 1-based, length 2*(Size+1)
	sol    []float64
	scale  []float64 // per-unknown power-of-two prescale factor, 1-based
}

// New allocates a System of the given size (total unknowns: node voltages
// plus one branch current per component, per spec.md's stamping rules).
func New(size int) (*System, error) {
	config := &sparse.Configuration{
		Real:                    true,
		Complex:                 true,
		SeparatedComplexVectors: false,
		Expandable:              true,
		ModifiedNodal:           true,
		TiesMultiplier:          5,
		PrinterWidth:            140,
	}

	mat, err := sparse.Create(int64(size), config)
	if err != nil {
		return nil, fmt.Errorf("mna: creating sparse matrix: %w", err)
	}

	return &System{
		Size:   size,
		matrix: mat,
		config: config,
		rhs:    make([]float64, 2*(size+1)),
		sol:    make([]float64, 2*(size+1)),
		scale:  make([]float64, size+1),
	}, nil
}

// Clear zeroes the matrix and RHS for reuse at the next frequency point.
func (s *System) Clear() {
	s.matrix.Clear()
	for i := range s.rhs {
		s.rhs[i] = 0
	}
	for i := range s.scale {
		s.scale[i] = 0
	}
}

// AddElement adds real+j*imag to A[row,col] (1-based). Under Transpose, row
// and col are swapped before the underlying matrix sees them, so the same
// stamping call builds Aᵀ instead of A.
func (s *System) AddElement(row, col int, real, imag float64) {
	if s.Transpose {
		row, col = col, row
	}
	if row <= 0 || col <= 0 || row > s.Size || col > s.Size {
		return
	}
	e := s.matrix.GetElement(int64(row), int64(col))
	e.Real += real
	e.Imag += imag
}

// AddRHS adds real+j*imag to b[row] (1-based). RHS is never transposed: the
// adjoint solve (C5) supplies its own unit excitation at the sink row
// regardless of which side of the system is being built.
func (s *System) AddRHS(row int, real, imag float64) {
	if row <= 0 || row > s.Size {
		return
	}
	s.rhs[2*row] += real
	s.rhs[2*row+1] += imag
}

// prescale applies a reversible power-of-two diagonal scale S = diag(s_i),
// s_i the largest power of two not exceeding unknown i's own diagonal
// magnitude, replacing A with S⁻¹AS⁻¹ and b with S⁻¹b so that widely
// differing component values (a femtofarad next to a megohm) don't by
// themselves produce an ill-conditioned system. Because every s_i is an
// exact power of two, both this scaling and its inverse (applied to the
// solution in unscale) are exact floating-point operations: the only
// rounding introduced is the solve's own.
func (s *System) prescale() {
	for i := 1; i <= s.Size; i++ {
		d := s.matrix.GetElement(int64(i), int64(i))
		mag := cmplx.Abs(complex(d.Real, d.Imag))
		if mag == 0 {
			s.scale[i] = 1
			continue
		}
		s.scale[i] = math.Pow(2, math.Floor(math.Log2(mag)))
	}

	for i := 1; i <= s.Size; i++ {
		for j := 1; j <= s.Size; j++ {
			e := s.matrix.GetElement(int64(i), int64(j))
			if e.Real == 0 && e.Imag == 0 {
				continue
			}
			d := s.scale[i] * s.scale[j]
			e.Real /= d
			e.Imag /= d
		}
		s.rhs[2*i] /= s.scale[i]
		s.rhs[2*i+1] /= s.scale[i]
	}
}

// unscale recovers x = S⁻¹x' from the scaled solution x' in place.
func (s *System) unscale(realSol, imagSol []float64) {
	for i := 1; i <= s.Size; i++ {
		realSol[i] /= s.scale[i]
		imagSol[i] /= s.scale[i]
	}
}

// Solve factors and solves the system, applying and then reversing the
// diagonal prescale. Errors are returned plain (fmt.Errorf-wrapped): the
// frequency a solve failed at is only meaningful to the caller driving the
// sweep, so pkg/analysis is the one that wraps these into a
// circuiterr.SingularMatrix carrying that frequency.
func (s *System) Solve() error {
	if !s.DisablePrescale {
		s.prescale()
	}

	if err := s.matrix.Factor(); err != nil {
		return fmt.Errorf("mna: factor: %w", err)
	}

	realSol, imagSol, err := s.matrix.SolveComplex(s.rhsReal(), s.rhsImag())
	if err != nil {
		return fmt.Errorf("mna: solve: %w", err)
	}

	if !s.DisablePrescale {
		s.unscale(realSol, imagSol)
	}
	s.sol = interleave(realSol, imagSol)
	return nil
}

func (s *System) rhsReal() []float64 {
	out := make([]float64, s.Size+1)
	for i := 1; i <= s.Size; i++ {
		out[i] = s.rhs[2*i]
	}
	return out
}

func (s *System) rhsImag() []float64 {
	out := make([]float64, s.Size+1)
	for i := 1; i <= s.Size; i++ {
		out[i] = s.rhs[2*i+1]
	}
	return out
}

func interleave(real, imag []float64) []float64 {
	out := make([]float64, 2*len(real))
	for i := range real {
		out[2*i] = real[i]
		if i < len(imag) {
			out[2*i+1] = imag[i]
		}
	}
	return out
}

// At returns the complex solution value of unknown i (1-based: node voltage
// or branch current, depending on what the caller assigned to that index).
func (s *System) At(i int) complex128 {
	if i <= 0 || i > s.Size {
		return 0
	}
	return complex(s.sol[2*i], s.sol[2*i+1])
}
