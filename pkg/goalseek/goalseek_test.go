package goalseek

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type model struct {
	param  float64
	builds int
}

func build(param float64, prev model) model {
	return model{param: param, builds: prev.builds + 1}
}

func TestSeek(t *testing.T) {
	t.Run("Converges on a linear model", func(t *testing.T) {
		delta, m, ok := Closest(Seek(3, 10, build, func(m model) float64 { return m.param }))
		require.True(t, ok)
		assert.InDelta(t, 0, delta, 1e-6)
		assert.InDelta(t, 3, m.param, 1e-6)
		assert.Equal(t, DefaultLimit, m.builds)
	})

	t.Run("First steps", func(t *testing.T) {
		var params []float64
		for _, m := range Seek(3, 10, build, func(m model) float64 { return m.param }, WithLimit(4)) {
			params = append(params, m.param)
		}
		// 10 -> 5 -> 0 overshoots so the direction flips and the step halves
		assert.Equal(t, []float64{10, 5, 0, 2.5}, params)
	})

	t.Run("Limit", func(t *testing.T) {
		var n int
		for range Seek(0, 1, build, func(m model) float64 { return m.param }, WithLimit(5)) {
			n++
		}
		assert.Equal(t, 5, n)
	})

	t.Run("Stops with the consumer", func(t *testing.T) {
		var builds int
		for range Seek(0, 8, func(p float64, prev model) model {
			builds++
			return build(p, prev)
		}, func(m model) float64 { return m.param }) {
			if builds == 3 {
				break
			}
		}
		assert.Equal(t, 3, builds)
	})

	t.Run("Limiter", func(t *testing.T) {
		// the goal is unreachable below 4 so the parameter pins at the limit
		var params []float64
		seq := Seek(1, 10, build, func(m model) float64 { return m.param }, WithLimiter(Clamp(4, 10)), WithLimit(20))
		for _, m := range seq {
			params = append(params, m.param)
		}
		for _, p := range params {
			assert.GreaterOrEqual(t, p, 4.0)
			assert.LessOrEqual(t, p, 10.0)
		}
		_, m, ok := Closest(seq)
		require.True(t, ok)
		assert.Equal(t, 4.0, m.param)
	})

	t.Run("Quadratic", func(t *testing.T) {
		// solve x^2 = 2 starting high
		_, m, ok := Closest(Seek(2, 4, build, func(m model) float64 { return m.param * m.param }))
		require.True(t, ok)
		assert.InDelta(t, math.Sqrt2, m.param, 1e-6)
	})
}

func TestClosest(t *testing.T) {
	_, _, ok := Closest(Seek(0, 1, build, func(m model) float64 { return m.param }, WithLimit(0)))
	assert.False(t, ok)
}
