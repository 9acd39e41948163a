package types

import (
	"fmt"
	"math"
	"time"
)

// ProfileKind identifies which signal a Profile carries.
type ProfileKind string

const (
	ProfileKindDemand      ProfileKind = "demand"
	ProfileKindGeneration  ProfileKind = "generation"
	ProfileKindCharge      ProfileKind = "charge"
	ProfileKindImportPrice ProfileKind = "importPrice"
	ProfileKindExportPrice ProfileKind = "exportPrice"
	ProfileKindShiftable   ProfileKind = "shiftable"
)

// Sample is a single timestamped value. For demand and generation the value
// is power in kW, for prices it is currency per kWh and for the charge window
// it is a control scalar between 0 and 1.
type Sample struct {
	TS    time.Time `json:"ts" yaml:"ts"`
	Value float64   `json:"value" yaml:"value"`
}

// Profile is an ordered series of samples for one signal. Profiles are not
// modified once built.
type Profile struct {
	Name    string      `json:"name,omitempty"`
	Kind    ProfileKind `json:"kind"`
	Samples []Sample    `json:"samples"`
}

// Empty returns true if the profile has no samples.
func (p Profile) Empty() bool {
	return len(p.Samples) == 0
}

// Start returns the timestamp of the first sample or the zero time.
func (p Profile) Start() time.Time {
	if len(p.Samples) == 0 {
		return time.Time{}
	}
	return p.Samples[0].TS
}

// End returns the timestamp of the last sample or the zero time.
func (p Profile) End() time.Time {
	if len(p.Samples) == 0 {
		return time.Time{}
	}
	return p.Samples[len(p.Samples)-1].TS
}

// Validate checks that samples are strictly increasing in time and that every
// value is finite.
func (p Profile) Validate() error {
	for i, s := range p.Samples {
		if math.IsNaN(s.Value) || math.IsInf(s.Value, 0) {
			return fmt.Errorf("%w: %s profile %q sample %d is not finite", ErrValidation, p.Kind, p.Name, i)
		}
		if i > 0 && !s.TS.After(p.Samples[i-1].TS) {
			return fmt.Errorf(
				"%w: %s profile %q sample %d (%s) is not after %s",
				ErrValidation,
				p.Kind,
				p.Name,
				i,
				s.TS.Format(time.RFC3339),
				p.Samples[i-1].TS.Format(time.RFC3339),
			)
		}
	}
	return nil
}
