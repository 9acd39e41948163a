package calculator

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/andrewbuckingham/chargeplan-sub000/pkg/types"
)

func cumulative(values ...float64) []types.IntegrationStep {
	steps := make([]types.IntegrationStep, len(values))
	for i, v := range values {
		steps[i] = types.IntegrationStep{
			TS:                   day.Add(time.Duration(i) * 5 * time.Minute),
			CumulativeOvercharge: v,
		}
	}
	return steps
}

func overcharge(s types.IntegrationStep) float64 {
	return s.CumulativeOvercharge
}

func TestPeriods(t *testing.T) {
	step := 5 * time.Minute

	t.Run("Flat", func(t *testing.T) {
		assert.Empty(t, Periods(cumulative(0, 0, 0), overcharge, step, 10*time.Minute))
		assert.Empty(t, Periods(nil, overcharge, step, 10*time.Minute))
	})

	t.Run("Single run", func(t *testing.T) {
		periods := Periods(cumulative(0, 1, 2, 3, 3), overcharge, step, 0)
		assert.Equal(t, []types.Period{{
			From:   day.Add(5 * time.Minute),
			To:     day.Add(20 * time.Minute),
			Energy: 3,
		}}, periods)
	})

	t.Run("First step rises from zero", func(t *testing.T) {
		periods := Periods(cumulative(1, 1), overcharge, step, 0)
		assert.Equal(t, []types.Period{{From: day, To: day.Add(5 * time.Minute), Energy: 1}}, periods)
	})

	t.Run("Small gap merges", func(t *testing.T) {
		// one flat step leaves a 5 minute gap
		periods := Periods(cumulative(1, 1, 2), overcharge, step, 10*time.Minute)
		assert.Equal(t, []types.Period{{From: day, To: day.Add(15 * time.Minute), Energy: 2}}, periods)
	})

	t.Run("Gap at tolerance splits", func(t *testing.T) {
		periods := Periods(cumulative(1, 1, 1, 2), overcharge, step, 10*time.Minute)
		assert.Equal(t, []types.Period{
			{From: day, To: day.Add(5 * time.Minute), Energy: 1},
			{From: day.Add(15 * time.Minute), To: day.Add(20 * time.Minute), Energy: 1},
		}, periods)
	})

	t.Run("Noise is not a rise", func(t *testing.T) {
		assert.Empty(t, Periods(cumulative(1e-12, 2e-12), overcharge, step, 0))
	})
}
