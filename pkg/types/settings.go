package types

import (
	"fmt"
	"time"
)

// CurrentSettingsVersion is the current version of the settings struct.
// Increment this value when adding new fields that require default values.
const CurrentSettingsVersion = 3

// Settings tunes the simulation and the search. They can be changed without
// redeploying.
type Settings struct {
	// Resolution of the charge rate grid search, as a percentage of the
	// plant's maximum charge rate. 5 means 0%, 5%, ..., 100%.
	IterateInPercents int `json:"iterateInPercents"`

	// Simulation increment.
	StepMinutes int `json:"stepMinutes"`

	// Granularity of trial start times for shiftable demands.
	TrialIntervalMinutes int `json:"trialIntervalMinutes"`

	// Maximum number of interpolated functions kept in the cache.
	CacheSize int `json:"cacheSize"`

	// Maximum number of simulations run at once. 0 uses GOMAXPROCS.
	Parallelism int `json:"parallelism"`

	// Rising runs of overcharge/undercharge closer than this are merged into
	// one period.
	GapToleranceMinutes int `json:"gapToleranceMinutes"`
}

// Step returns the simulation increment.
func (s Settings) Step() time.Duration {
	return time.Duration(s.StepMinutes) * time.Minute
}

// TrialInterval returns the spacing between trial start times.
func (s Settings) TrialInterval() time.Duration {
	return time.Duration(s.TrialIntervalMinutes) * time.Minute
}

// GapTolerance returns the coalescing tolerance between periods.
func (s Settings) GapTolerance() time.Duration {
	return time.Duration(s.GapToleranceMinutes) * time.Minute
}

// DefaultSettings returns fully migrated settings.
func DefaultSettings() Settings {
	s, _, _ := MigrateSettings(Settings{}, 0)
	return s
}

// MigrateSettings migrates the settings to the current version.
// It returns the migrated settings, a boolean indicating if changes were made, and an error if migration failed.
func MigrateSettings(s Settings, currentVersion int) (Settings, bool, error) {
	if currentVersion >= CurrentSettingsVersion {
		return s, false, nil
	}

	migrated := false
	for version := currentVersion + 1; version <= CurrentSettingsVersion; version++ {
		switch version {
		case 1:
			// version 1: initial
			if s.IterateInPercents == 0 {
				s.IterateInPercents = 5
				migrated = true
			}
			if s.StepMinutes == 0 {
				s.StepMinutes = 5
				migrated = true
			}
			if s.TrialIntervalMinutes == 0 {
				s.TrialIntervalMinutes = 15
				migrated = true
			}
		case 2:
			// version 2: bounded interpolation cache
			if s.CacheSize == 0 {
				s.CacheSize = 256
				migrated = true
			}
		case 3:
			// version 3: period coalescing tolerance
			if s.GapToleranceMinutes == 0 {
				s.GapToleranceMinutes = 10
				migrated = true
			}
		default:
			return s, false, fmt.Errorf("unknown settings version: %d", version)
		}
	}

	return s, migrated, nil
}

// Validate checks that the settings can drive a simulation.
func (s Settings) Validate() error {
	if s.IterateInPercents <= 0 || s.IterateInPercents > 100 {
		return fmt.Errorf("%w: iterateInPercents must be within (0, 100], got %d", ErrInvalidState, s.IterateInPercents)
	}
	if s.StepMinutes <= 0 {
		return fmt.Errorf("%w: stepMinutes must be positive, got %d", ErrInvalidState, s.StepMinutes)
	}
	if s.TrialIntervalMinutes <= 0 {
		return fmt.Errorf("%w: trialIntervalMinutes must be positive, got %d", ErrInvalidState, s.TrialIntervalMinutes)
	}
	if s.Parallelism < 0 {
		return fmt.Errorf("%w: parallelism cannot be negative, got %d", ErrInvalidState, s.Parallelism)
	}
	if s.CacheSize < 0 {
		return fmt.Errorf("%w: cacheSize cannot be negative, got %d", ErrInvalidState, s.CacheSize)
	}
	if s.GapToleranceMinutes < 0 {
		return fmt.Errorf("%w: gapToleranceMinutes cannot be negative, got %d", ErrInvalidState, s.GapToleranceMinutes)
	}
	return nil
}
