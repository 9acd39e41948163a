// Package interp turns sampled profiles into continuous functions of time.
package interp

import (
	"fmt"
	"sort"
	"time"

	"github.com/andrewbuckingham/chargeplan-sub000/pkg/types"
)

// Function is a continuous function of time built from samples. It must be
// safe for concurrent use.
type Function interface {
	// Interpolate returns the instantaneous value at t.
	Interpolate(t time.Time) float64
	// Integrate returns the definite integral between a and b with time
	// measured in hours, so integrating kW yields kWh.
	Integrate(a, b time.Time) float64
}

// Strategy selects how samples are joined.
type Strategy int

const (
	// StrategyCubic fits a smooth cubic spline, used for baseload demand and
	// generation.
	StrategyCubic Strategy = iota + 1
	// StrategyStep holds each sample until the next one, used for prices,
	// charge windows and shiftable demands.
	StrategyStep
)

func (s Strategy) String() string {
	switch s {
	case StrategyCubic:
		return "cubic"
	case StrategyStep:
		return "step"
	default:
		return fmt.Sprintf("strategy(%d)", int(s))
	}
}

// StrategyFor returns the strategy used for a kind of profile.
func StrategyFor(kind types.ProfileKind) Strategy {
	switch kind {
	case types.ProfileKindDemand, types.ProfileKindGeneration:
		return StrategyCubic
	default:
		return StrategyStep
	}
}

// New builds a function from samples. No samples yields a function that is
// zero everywhere and a single sample yields a constant.
func New(strategy Strategy, samples []types.Sample) (Function, error) {
	if err := (types.Profile{Kind: "samples", Samples: samples}).Validate(); err != nil {
		return nil, err
	}
	switch len(samples) {
	case 0:
		return constant(0), nil
	case 1:
		return constant(samples[0].Value), nil
	}
	switch strategy {
	case StrategyCubic:
		return newCubic(samples)
	case StrategyStep:
		return newStep(samples), nil
	default:
		return nil, fmt.Errorf("%w: unknown interpolation strategy %d", types.ErrInvalidState, int(strategy))
	}
}

// constant is the same value for all time.
type constant float64

func (c constant) Interpolate(time.Time) float64 {
	return float64(c)
}

func (c constant) Integrate(a, b time.Time) float64 {
	return float64(c) * b.Sub(a).Hours()
}

// axis converts between instants and hours since the first sample.
type axis struct {
	origin time.Time
	xs     []float64
}

func newAxis(samples []types.Sample) (axis, []float64) {
	a := axis{
		origin: samples[0].TS,
		xs:     make([]float64, len(samples)),
	}
	ys := make([]float64, len(samples))
	for i, s := range samples {
		a.xs[i] = s.TS.Sub(a.origin).Hours()
		ys[i] = s.Value
	}
	return a, ys
}

func (a axis) x(t time.Time) float64 {
	return t.Sub(a.origin).Hours()
}

// last returns the index of the last knot at or before x, or 0 when x is
// before the first knot.
func (a axis) last(x float64) int {
	i := sort.Search(len(a.xs), func(i int) bool { return a.xs[i] > x }) - 1
	return max(i, 0)
}

// integrate sums f over [x0, x1] one knot segment at a time. segment must
// integrate exactly over a range containing no interior knots.
func (a axis) integrate(x0, x1 float64, segment func(lo, hi float64) float64) float64 {
	if x1 < x0 {
		return -a.integrate(x1, x0, segment)
	}
	var total float64
	// first knot after x0
	i := sort.Search(len(a.xs), func(i int) bool { return a.xs[i] > x0 })
	for x0 < x1 {
		hi := x1
		if i < len(a.xs) && a.xs[i] < hi {
			hi = a.xs[i]
			i++
		}
		total += segment(x0, hi)
		x0 = hi
	}
	return total
}
