package types

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMigrateSettings(t *testing.T) {
	t.Run("v1: initial defaults", func(t *testing.T) {
		s, changed, err := MigrateSettings(Settings{}, 0)
		require.NoError(t, err)
		assert.True(t, changed)
		assert.Equal(t, 5, s.IterateInPercents)
		assert.Equal(t, 5, s.StepMinutes)
		assert.Equal(t, 15, s.TrialIntervalMinutes)
		assert.Equal(t, 256, s.CacheSize)
		assert.Equal(t, 10, s.GapToleranceMinutes)
	})

	t.Run("v1 to v3: keeps explicit values", func(t *testing.T) {
		s, changed, err := MigrateSettings(Settings{
			IterateInPercents:    10,
			StepMinutes:          1,
			TrialIntervalMinutes: 30,
		}, 1)
		require.NoError(t, err)
		assert.True(t, changed)
		assert.Equal(t, 10, s.IterateInPercents)
		assert.Equal(t, 1, s.StepMinutes)
		assert.Equal(t, 30, s.TrialIntervalMinutes)
		assert.Equal(t, 256, s.CacheSize)
	})

	t.Run("no change: current version", func(t *testing.T) {
		current := Settings{IterateInPercents: 20}
		s, changed, err := MigrateSettings(current, CurrentSettingsVersion)
		require.NoError(t, err)
		assert.False(t, changed)
		assert.Equal(t, current, s)
	})
}

func TestSettingsDurations(t *testing.T) {
	s := DefaultSettings()
	require.NoError(t, s.Validate())
	assert.Equal(t, 5*time.Minute, s.Step())
	assert.Equal(t, 15*time.Minute, s.TrialInterval())
	assert.Equal(t, 10*time.Minute, s.GapTolerance())
}

func TestSettingsValidate(t *testing.T) {
	s := DefaultSettings()
	s.IterateInPercents = 0
	assert.ErrorIs(t, s.Validate(), ErrInvalidState)

	s = DefaultSettings()
	s.StepMinutes = -1
	assert.ErrorIs(t, s.Validate(), ErrInvalidState)

	s = DefaultSettings()
	s.Parallelism = -2
	assert.ErrorIs(t, s.Validate(), ErrInvalidState)

	s = DefaultSettings()
	s.CacheSize = -1
	assert.ErrorIs(t, s.Validate(), ErrInvalidState)

	s = DefaultSettings()
	s.GapToleranceMinutes = -5
	assert.ErrorIs(t, s.Validate(), ErrInvalidState)

	assert.NoError(t, DefaultSettings().Validate())
}
