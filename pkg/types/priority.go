package types

import (
	"fmt"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Priority ranks shiftable demands. Lower values are scheduled first.
type Priority int

const (
	PriorityEssential Priority = 0
	PriorityHigh      Priority = 1
	PriorityMedium    Priority = 2
	PriorityLow       Priority = 3
)

func (p Priority) String() string {
	switch p {
	case PriorityEssential:
		return "essential"
	case PriorityHigh:
		return "high"
	case PriorityMedium:
		return "medium"
	case PriorityLow:
		return "low"
	default:
		return fmt.Sprintf("priority(%d)", int(p))
	}
}

// ParsePriority parses the case-insensitive name of a priority.
func ParsePriority(s string) (Priority, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "essential":
		return PriorityEssential, nil
	case "high":
		return PriorityHigh, nil
	case "medium", "":
		return PriorityMedium, nil
	case "low":
		return PriorityLow, nil
	default:
		return PriorityMedium, fmt.Errorf("%w: unknown priority %q", ErrValidation, s)
	}
}

// UnmarshalYAML accepts either the priority name or its ordinal.
func (p *Priority) UnmarshalYAML(value *yaml.Node) error {
	var n int
	if err := value.Decode(&n); err == nil {
		*p = Priority(n)
		return nil
	}
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	parsed, err := ParsePriority(s)
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}

// TimeOfDay is an offset from local midnight.
type TimeOfDay time.Duration

// ParseTimeOfDay parses "15:04" or "15:04:05".
func ParseTimeOfDay(s string) (TimeOfDay, error) {
	for _, layout := range []string{"15:04", "15:04:05"} {
		t, err := time.Parse(layout, s)
		if err == nil {
			return TimeOfDay(time.Duration(t.Hour())*time.Hour + time.Duration(t.Minute())*time.Minute + time.Duration(t.Second())*time.Second), nil
		}
	}
	return 0, fmt.Errorf("%w: invalid time of day %q", ErrValidation, s)
}

// Of returns the time of day of t in t's location.
func Of(t time.Time) TimeOfDay {
	h, m, s := t.Clock()
	return TimeOfDay(time.Duration(h)*time.Hour + time.Duration(m)*time.Minute + time.Duration(s)*time.Second + time.Duration(t.Nanosecond()))
}

// On returns the instant at this time of day on the date of day.
func (t TimeOfDay) On(day time.Time) time.Time {
	y, m, d := day.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, day.Location()).Add(time.Duration(t))
}

func (t TimeOfDay) String() string {
	d := time.Duration(t)
	return fmt.Sprintf("%02d:%02d", int(d.Hours()), int(d.Minutes())%60)
}

// UnmarshalYAML parses a "15:04" string.
func (t *TimeOfDay) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	parsed, err := ParseTimeOfDay(s)
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}
