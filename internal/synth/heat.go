// Package synth writes synthetic simulation runs in the on-disk layout the
// collector reads: one directory per run, one raw float64 snapshot per
// timestep.
package synth

import (
	"math"

	"github.com/san-kum/pdegraph/internal/field"
	"github.com/san-kum/pdegraph/internal/graphseq"
)

// MaxCourant is the stability limit of the explicit 5-point scheme.
const MaxCourant = 0.25

// Heat integrates u_t = alpha * (u_xx + u_yy) on a square grid with zero
// Dirichlet boundaries using forward Euler in time.
type Heat struct {
	Side    int
	Courant float64 // alpha * dt / dx^2

	u, next []float64
}

func NewHeat(side int, courant float64) (*Heat, error) {
	if side < 3 {
		return nil, graphseq.Configf("side", "must be at least 3, got %d", side)
	}
	if courant <= 0 || courant > MaxCourant {
		return nil, graphseq.Configf("courant", "must be in (0, %g], got %g", MaxCourant, courant)
	}
	n := side * side
	return &Heat{Side: side, Courant: courant, u: make([]float64, n), next: make([]float64, n)}, nil
}

// AddGaussian adds a hot spot centred at (cx, cy) in grid units.
func (h *Heat) AddGaussian(cx, cy, amp, width float64) {
	w2 := 2 * width * width
	for y := 1; y < h.Side-1; y++ {
		for x := 1; x < h.Side-1; x++ {
			dx, dy := float64(x)-cx, float64(y)-cy
			h.u[y*h.Side+x] += amp * math.Exp(-(dx*dx+dy*dy)/w2)
		}
	}
}

func (h *Heat) Step() {
	n, r := h.Side, h.Courant
	for y := 0; y < n; y++ {
		for x := 0; x < n; x++ {
			i := y*n + x
			if x == 0 || y == 0 || x == n-1 || y == n-1 {
				h.next[i] = 0
				continue
			}
			lap := h.u[i-1] + h.u[i+1] + h.u[i-n] + h.u[i+n] - 4*h.u[i]
			h.next[i] = h.u[i] + r*lap
		}
	}
	h.u, h.next = h.next, h.u
}

// Field returns a copy of the current state.
func (h *Heat) Field() *field.ScalarField {
	values := make([]float64, len(h.u))
	copy(values, h.u)
	return &field.ScalarField{Side: h.Side, Values: values}
}

// Energy is the sum of u over the grid; it decays monotonically.
func (h *Heat) Energy() float64 {
	e := 0.0
	for _, v := range h.u {
		e += v
	}
	return e
}
