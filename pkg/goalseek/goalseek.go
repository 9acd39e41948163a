// Package goalseek tunes a single parameter of a black box model until its
// output approaches a goal.
package goalseek

import (
	"iter"
	"math"
)

// DefaultLimit is the number of iterations Seek yields unless WithLimit is
// used.
const DefaultLimit = 64

type options struct {
	limit   int
	limiter func(float64) float64
}

// Option configures Seek.
type Option func(*options)

// WithLimit caps the number of iterations.
func WithLimit(n int) Option {
	return func(o *options) {
		o.limit = n
	}
}

// WithLimiter is applied to every parameter after it's advanced, typically
// to clamp it into a valid range.
func WithLimiter(limiter func(float64) float64) Option {
	return func(o *options) {
		o.limiter = limiter
	}
}

// Seek returns a lazy sequence of (output - goal, model) pairs. Each iteration
// builds the model at the current parameter, passing the previous model so
// it can be revised rather than rebuilt, and evaluates it.
//
// The parameter starts at start and moves by a step of start/2 in the
// negative direction. Whenever the delta changes sign or grows, the direction
// flips and the step halves. This isn't guaranteed to converge, so callers
// should stop once the delta is close enough or use Closest.
func Seek[M any](goal, start float64, build func(param float64, prev M) M, evaluate func(M) float64, opts ...Option) iter.Seq2[float64, M] {
	o := options{limit: DefaultLimit}
	for _, opt := range opts {
		opt(&o)
	}

	return func(yield func(float64, M) bool) {
		param := start
		step := start / 2
		direction := -1.0
		prevDelta := math.NaN()

		var model M
		for range o.limit {
			model = build(param, model)
			delta := evaluate(model) - goal

			if !math.IsNaN(prevDelta) && (math.Signbit(delta) != math.Signbit(prevDelta) || math.Abs(delta) > math.Abs(prevDelta)) {
				direction = -direction
				step /= 2
			}
			prevDelta = delta

			if !yield(delta, model) {
				return
			}

			param += direction * step
			if o.limiter != nil {
				param = o.limiter(param)
			}
		}
	}
}

// Closest consumes seq and returns the pair with the smallest absolute delta.
// The first pair wins a tie. ok is false if seq was empty.
func Closest[M any](seq iter.Seq2[float64, M]) (delta float64, model M, ok bool) {
	for d, m := range seq {
		if !ok || math.Abs(d) < math.Abs(delta) {
			delta, model, ok = d, m, true
		}
	}
	return delta, model, ok
}

// Clamp returns a limiter that keeps the parameter within [lo, hi].
func Clamp(lo, hi float64) func(float64) float64 {
	return func(v float64) float64 {
		return min(max(v, lo), hi)
	}
}
