package types

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestProfileValidate(t *testing.T) {
	t0 := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)

	t.Run("ordered", func(t *testing.T) {
		p := Profile{Kind: ProfileKindDemand, Samples: []Sample{{TS: t0, Value: 1}, {TS: t0.Add(time.Hour), Value: 2}}}
		assert.NoError(t, p.Validate())
		assert.Equal(t, t0, p.Start())
		assert.Equal(t, t0.Add(time.Hour), p.End())
	})

	t.Run("out of order", func(t *testing.T) {
		p := Profile{Kind: ProfileKindDemand, Samples: []Sample{{TS: t0.Add(time.Hour), Value: 1}, {TS: t0, Value: 2}}}
		assert.ErrorIs(t, p.Validate(), ErrValidation)
	})

	t.Run("not finite", func(t *testing.T) {
		p := Profile{Kind: ProfileKindImportPrice, Samples: []Sample{{TS: t0, Value: math.NaN()}}}
		assert.ErrorIs(t, p.Validate(), ErrValidation)
	})

	t.Run("empty", func(t *testing.T) {
		p := Profile{Kind: ProfileKindGeneration}
		assert.True(t, p.Empty())
		assert.True(t, p.Start().IsZero())
		assert.NoError(t, p.Validate())
	})
}

func TestPriority(t *testing.T) {
	for _, p := range []Priority{PriorityEssential, PriorityHigh, PriorityMedium, PriorityLow} {
		parsed, err := ParsePriority(p.String())
		assert.NoError(t, err)
		assert.Equal(t, p, parsed)
	}
	assert.Less(t, int(PriorityEssential), int(PriorityLow))

	_, err := ParsePriority("urgent")
	assert.ErrorIs(t, err, ErrValidation)
}

func TestTimeOfDay(t *testing.T) {
	tod, err := ParseTimeOfDay("07:45")
	assert.NoError(t, err)
	day := time.Date(2024, 6, 1, 13, 0, 0, 0, time.UTC)
	assert.Equal(t, time.Date(2024, 6, 1, 7, 45, 0, 0, time.UTC), tod.On(day))
	assert.Equal(t, TimeOfDay(13*time.Hour), Of(day))

	_, err = ParseTimeOfDay("7pm")
	assert.ErrorIs(t, err, ErrValidation)
}
