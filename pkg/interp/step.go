package interp

import (
	"time"

	"github.com/andrewbuckingham/chargeplan-sub000/pkg/types"
)

// step holds each sample's value until the next sample. Before the first
// sample it holds the first value.
type step struct {
	axis
	ys []float64
}

func newStep(samples []types.Sample) *step {
	a, ys := newAxis(samples)
	return &step{axis: a, ys: ys}
}

func (s *step) at(x float64) float64 {
	return s.ys[s.last(x)]
}

func (s *step) Interpolate(t time.Time) float64 {
	return s.at(s.x(t))
}

func (s *step) Integrate(a, b time.Time) float64 {
	return s.integrate(s.x(a), s.x(b), func(lo, hi float64) float64 {
		return (hi - lo) * s.at(lo)
	})
}
