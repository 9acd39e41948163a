// Package templates expands typical days into profiles across a horizon.
package templates

import (
	"fmt"
	"slices"
	"time"

	"github.com/andrewbuckingham/chargeplan-sub000/pkg/types"
)

// Band applies Value for the hours [HourStart, HourEnd) of a day. When
// DaysOfTheWeek is set it only applies on those days. Overlapping bands add
// up.
type Band struct {
	HourStart     int            `json:"hourStart" yaml:"hourStart"`
	HourEnd       int            `json:"hourEnd" yaml:"hourEnd"`
	DaysOfTheWeek []time.Weekday `json:"daysOfTheWeek,omitempty" yaml:"daysOfTheWeek"`
	Value         float64        `json:"value" yaml:"value"`
}

// Contains checks if t, in its own location, falls within the band.
func (b Band) Contains(t time.Time) bool {
	if h := t.Hour(); h < b.HourStart || h >= b.HourEnd {
		return false
	}
	if len(b.DaysOfTheWeek) > 0 && !slices.Contains(b.DaysOfTheWeek, t.Weekday()) {
		return false
	}
	return true
}

func sum(bands []Band, t time.Time) float64 {
	var v float64
	for _, b := range bands {
		if b.Contains(t) {
			v += b.Value
		}
	}
	return v
}

// DayTemplate describes a typical day. A template without DaysOfTheWeek is
// the default for days no other template names.
type DayTemplate struct {
	Name          string         `json:"name" yaml:"name"`
	DaysOfTheWeek []time.Weekday `json:"daysOfTheWeek,omitempty" yaml:"daysOfTheWeek"`

	// Demand is the baseload in kW.
	Demand      []Band `json:"demand" yaml:"demand"`
	ImportPrice []Band `json:"importPrice" yaml:"importPrice"`
	ExportPrice []Band `json:"exportPrice" yaml:"exportPrice"`

	// Charge is the grid charge scalar between 0 and 1.
	Charge []Band `json:"charge" yaml:"charge"`

	// ShiftableDemands may run once on each day the template is used.
	ShiftableDemands []types.ShiftableDemand `json:"shiftableDemands" yaml:"shiftableDemands"`
}

// Templates is the set of typical days.
type Templates []DayTemplate

// Validate checks that every band is a valid hour window.
func (ts Templates) Validate() error {
	for _, tmpl := range ts {
		for _, bands := range [][]Band{tmpl.Demand, tmpl.ImportPrice, tmpl.ExportPrice, tmpl.Charge} {
			for _, b := range bands {
				if b.HourStart < 0 || b.HourEnd > 24 || b.HourStart >= b.HourEnd {
					return fmt.Errorf("%w: template %q has an invalid band [%d, %d)", types.ErrInvalidState, tmpl.Name, b.HourStart, b.HourEnd)
				}
			}
		}
	}
	return nil
}

// For returns the template for the day of t. A template naming t's weekday
// wins over the default.
func (ts Templates) For(t time.Time) (DayTemplate, error) {
	var fallback *DayTemplate
	for i, tmpl := range ts {
		if len(tmpl.DaysOfTheWeek) == 0 {
			if fallback == nil {
				fallback = &ts[i]
			}
			continue
		}
		if slices.Contains(tmpl.DaysOfTheWeek, t.Weekday()) {
			return tmpl, nil
		}
	}
	if fallback == nil {
		return DayTemplate{}, fmt.Errorf("%w: no day template for %s %s", types.ErrInvalidState, t.Weekday(), t.Format(time.DateOnly))
	}
	return *fallback, nil
}

// Expanded holds the profiles built from templates across a horizon.
type Expanded struct {
	Baseload    types.Profile
	ImportPrice types.Profile
	ExportPrice types.Profile
	Charge      types.Profile

	// ShiftableDemands holds one occurrence of each template's demands per
	// day, limited to starting on that day.
	ShiftableDemands []types.ShiftableDemand
}

// Expand builds hourly profiles covering [from, to] with the days evaluated
// in loc. Every profile ends with a sample at to.
func (ts Templates) Expand(from, to time.Time, loc *time.Location) (Expanded, error) {
	if !to.After(from) {
		return Expanded{}, fmt.Errorf("%w: horizon end %s is not after start %s", types.ErrValidation, to.Format(time.RFC3339), from.Format(time.RFC3339))
	}
	if err := ts.Validate(); err != nil {
		return Expanded{}, err
	}
	if loc == nil {
		loc = time.UTC
	}

	e := Expanded{
		Baseload:    types.Profile{Name: "baseload", Kind: types.ProfileKindDemand},
		ImportPrice: types.Profile{Name: "import", Kind: types.ProfileKindImportPrice},
		ExportPrice: types.Profile{Name: "export", Kind: types.ProfileKindExportPrice},
		Charge:      types.Profile{Name: "charge", Kind: types.ProfileKindCharge},
	}
	add := func(t time.Time, tmpl DayTemplate) {
		e.Baseload.Samples = append(e.Baseload.Samples, types.Sample{TS: t, Value: sum(tmpl.Demand, t)})
		e.ImportPrice.Samples = append(e.ImportPrice.Samples, types.Sample{TS: t, Value: sum(tmpl.ImportPrice, t)})
		e.ExportPrice.Samples = append(e.ExportPrice.Samples, types.Sample{TS: t, Value: sum(tmpl.ExportPrice, t)})
		e.Charge.Samples = append(e.Charge.Samples, types.Sample{TS: t, Value: sum(tmpl.Charge, t)})
	}

	from = from.In(loc)
	to = to.In(loc)
	var tmpl DayTemplate
	var day time.Time
	for t := from.Truncate(time.Hour); t.Before(to); t = t.Add(time.Hour) {
		if d := midnight(t); !d.Equal(day) {
			var err error
			tmpl, err = ts.For(t)
			if err != nil {
				return Expanded{}, err
			}
			day = d
			e.ShiftableDemands = append(e.ShiftableDemands, occurrences(tmpl, d)...)
		}
		add(t, tmpl)
	}
	// the closing sample belongs to the last day in the horizon, not the day
	// that starts at to
	if last := e.Baseload.End(); last.Before(to) {
		add(to, tmpl)
	}
	return e, nil
}

// occurrences anchors each of tmpl's shiftable demands to the day starting
// at day so every day has its own hash.
func occurrences(tmpl DayTemplate, day time.Time) []types.ShiftableDemand {
	next := time.Date(day.Year(), day.Month(), day.Day()+1, 0, 0, 0, 0, day.Location())
	demands := make([]types.ShiftableDemand, len(tmpl.ShiftableDemands))
	for i, d := range tmpl.ShiftableDemands {
		start, end := day, next
		d.WithinStart, d.WithinEnd = &start, &end
		demands[i] = d
	}
	return demands
}

func midnight(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
