package interp

import (
	"fmt"
	"time"

	"gonum.org/v1/gonum/integrate/quad"
	ginterp "gonum.org/v1/gonum/interp"

	"github.com/andrewbuckingham/chargeplan-sub000/pkg/types"
)

// cubic is an Akima spline. Akima keeps flat runs flat, so an on/off shaped
// generation curve doesn't ring below zero or above its plateau. Outside the
// samples it holds the first and last values.
type cubic struct {
	axis
	firstY, lastY float64
	spline        ginterp.AkimaSpline
}

func newCubic(samples []types.Sample) (*cubic, error) {
	a, ys := newAxis(samples)
	c := &cubic{
		axis:   a,
		firstY: ys[0],
		lastY:  ys[len(ys)-1],
	}
	if err := c.spline.Fit(a.xs, ys); err != nil {
		return nil, fmt.Errorf("%w: failed to fit cubic spline: %w", types.ErrValidation, err)
	}
	return c, nil
}

func (c *cubic) at(x float64) float64 {
	switch {
	case x <= c.xs[0]:
		return c.firstY
	case x >= c.xs[len(c.xs)-1]:
		return c.lastY
	}
	return c.spline.Predict(x)
}

func (c *cubic) Interpolate(t time.Time) float64 {
	return c.at(c.x(t))
}

func (c *cubic) Integrate(a, b time.Time) float64 {
	return c.integrate(c.x(a), c.x(b), func(lo, hi float64) float64 {
		if hi <= c.xs[0] {
			return (hi - lo) * c.firstY
		}
		if lo >= c.xs[len(c.xs)-1] {
			return (hi - lo) * c.lastY
		}
		// two point Gauss-Legendre is exact for a cubic
		return quad.Fixed(c.at, lo, hi, 2, nil, 1)
	})
}
