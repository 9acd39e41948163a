package calculator

import (
	"time"

	"github.com/andrewbuckingham/chargeplan-sub000/pkg/types"
)

// risingEpsilon is the smallest increase in a cumulative metric that counts
// as a rise.
const risingEpsilon = 1e-9

// Periods coalesces the steps over which the cumulative metric rises into
// windows. Each rising step covers [TS, TS+step). A rising step that starts
// within tolerance of the end of the current window extends it, otherwise it
// starts a new one.
func Periods(steps []types.IntegrationStep, metric func(types.IntegrationStep) float64, step, tolerance time.Duration) []types.Period {
	periods := []types.Period{}
	var prev float64
	for _, s := range steps {
		v := metric(s)
		rise := v - prev
		prev = v
		if rise <= risingEpsilon {
			continue
		}

		if n := len(periods); n > 0 {
			current := &periods[n-1]
			if gap := s.TS.Sub(current.To); gap <= 0 || gap < tolerance {
				current.To = s.TS.Add(step)
				current.Energy += rise
				continue
			}
		}
		periods = append(periods, types.Period{
			From:   s.TS,
			To:     s.TS.Add(step),
			Energy: rise,
		})
	}
	return periods
}
