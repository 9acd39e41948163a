package calculator

import (
	"context"
	"fmt"
	"log/slog"
	"math"

	"github.com/andrewbuckingham/chargeplan-sub000/pkg/goalseek"
	"github.com/andrewbuckingham/chargeplan-sub000/pkg/log"
	"github.com/andrewbuckingham/chargeplan-sub000/pkg/types"
)

// seekToleranceKWH is how close to the goal SeekChargeRate needs to get
// before it stops early.
const seekToleranceKWH = 0.01

// SeekChargeRate searches for the charge rate limit whose undercharge is
// closest to goalKWH, starting from the plant's maximum charge rate. It
// returns the evaluation of the closest rate found.
func (c *Calculator) SeekChargeRate(ctx context.Context, in Input, goalKWH float64) (types.Evaluation, error) {
	if in.Plant == nil {
		return types.Evaluation{}, fmt.Errorf("%w: no plant", types.ErrInvalidState)
	}
	maxKW := in.Plant.Template().MaxChargeKW
	if maxKW <= 0 {
		return c.Calculate(ctx, in)
	}

	var runErr error
	seq := goalseek.Seek(
		goalKWH,
		maxKW,
		func(rate float64, _ types.Evaluation) types.Evaluation {
			trial := in
			trial.ChargeRateLimitKW = &rate
			eval, err := c.Calculate(ctx, trial)
			if err != nil {
				runErr = err
			}
			return eval
		},
		func(e types.Evaluation) float64 {
			return e.Undercharge()
		},
		goalseek.WithLimiter(goalseek.Clamp(0, maxKW)),
	)

	var best types.Evaluation
	bestDelta := math.Inf(1)
	var iterations int
	for delta, eval := range seq {
		if runErr != nil {
			return types.Evaluation{}, runErr
		}
		iterations++
		if math.Abs(delta) < math.Abs(bestDelta) {
			best, bestDelta = eval, delta
		}
		if math.Abs(delta) < seekToleranceKWH {
			break
		}
	}

	log.Ctx(ctx).DebugContext(
		ctx,
		"sought charge rate",
		slog.Float64("goalKWH", goalKWH),
		slog.Float64("deltaKWH", bestDelta),
		slog.Int("iterations", iterations),
	)
	return best, nil
}
