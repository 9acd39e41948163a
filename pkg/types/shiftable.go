package types

import (
	"crypto/sha256"
	"encoding/hex"
	"time"
)

// RelativeSample is a point on a shiftable demand's power curve, offset from
// whenever the demand starts.
type RelativeSample struct {
	Offset time.Duration `json:"offset" yaml:"offset"`
	KW     float64       `json:"kw" yaml:"kw"`
}

// ShiftableDemand is a deferrable load, like a dishwasher cycle, that can be
// started at any time inside its allowed windows.
type ShiftableDemand struct {
	Name     string   `json:"name" yaml:"name"`
	Type     string   `json:"type,omitempty" yaml:"type"`
	Priority Priority `json:"priority" yaml:"priority"`

	// Profile is evaluated as a step function. The last sample marks the end
	// of the demand and its value is ignored.
	Profile []RelativeSample `json:"profile" yaml:"profile"`

	// Earliest and Latest bound the time of day the demand may run in. When
	// Latest is before Earliest the window wraps past midnight. When both are
	// zero the whole day is allowed.
	Earliest TimeOfDay `json:"earliest" yaml:"earliest"`
	Latest   TimeOfDay `json:"latest" yaml:"latest"`

	// WithinStart and WithinEnd optionally restrict the absolute instants the
	// demand may start at.
	WithinStart *time.Time `json:"withinStart,omitempty" yaml:"withinStart"`
	WithinEnd   *time.Time `json:"withinEnd,omitempty" yaml:"withinEnd"`

	// DontRepeatWithin stops another demand of the same Type from starting
	// within this duration of an already scheduled one.
	DontRepeatWithin time.Duration `json:"dontRepeatWithin,omitempty" yaml:"dontRepeatWithin"`
}

// Hash returns a stable identity for this occurrence of the demand, derived
// from its allowed date range and name. It's used to mark occurrences as
// completed.
func (d ShiftableDemand) Hash() string {
	h := sha256.New()
	writeTime := func(t *time.Time) {
		if t == nil {
			h.Write([]byte{0})
			return
		}
		b, _ := t.UTC().MarshalBinary()
		h.Write([]byte{1})
		h.Write(b)
	}
	writeTime(d.WithinStart)
	writeTime(d.WithinEnd)
	h.Write([]byte(d.Name))
	return hex.EncodeToString(h.Sum(nil))[:16]
}

// Duration is how long the demand runs for.
func (d ShiftableDemand) Duration() time.Duration {
	if len(d.Profile) == 0 {
		return 0
	}
	return d.Profile[len(d.Profile)-1].Offset
}

// TotalEnergy is the energy in kWh the demand consumes over its duration.
func (d ShiftableDemand) TotalEnergy() float64 {
	var total float64
	for i := 0; i+1 < len(d.Profile); i++ {
		dt := d.Profile[i+1].Offset - d.Profile[i].Offset
		total += d.Profile[i].KW * dt.Hours()
	}
	return total
}

// AsDemandProfile anchors the demand at start.
func (d ShiftableDemand) AsDemandProfile(start time.Time) Profile {
	samples := make([]Sample, len(d.Profile))
	for i, s := range d.Profile {
		samples[i] = Sample{TS: start.Add(s.Offset), Value: s.KW}
	}
	if n := len(samples); n > 0 {
		samples[n-1].Value = 0
	}
	return Profile{
		Name:    d.Name,
		Kind:    ProfileKindShiftable,
		Samples: samples,
	}
}

// AllowedAt returns true if running the demand from start fits inside its
// time-of-day window.
func (d ShiftableDemand) AllowedAt(start time.Time) bool {
	if d.Earliest == 0 && d.Latest == 0 {
		return true
	}
	const day = 24 * time.Hour
	window := (time.Duration(d.Latest) - time.Duration(d.Earliest) + day) % day
	if window == 0 {
		window = day
	}
	rel := (time.Duration(Of(start)) - time.Duration(d.Earliest) + day) % day
	return rel+d.Duration() <= window
}

// WithinRange returns true if start is inside the optional absolute range.
func (d ShiftableDemand) WithinRange(start time.Time) bool {
	if d.WithinStart != nil && start.Before(*d.WithinStart) {
		return false
	}
	if d.WithinEnd != nil && !start.Before(*d.WithinEnd) {
		return false
	}
	return true
}
