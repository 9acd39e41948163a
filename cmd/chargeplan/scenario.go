package main

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/andrewbuckingham/chargeplan-sub000/pkg/algorithm"
	"github.com/andrewbuckingham/chargeplan-sub000/pkg/calculator"
	"github.com/andrewbuckingham/chargeplan-sub000/pkg/plant"
	"github.com/andrewbuckingham/chargeplan-sub000/pkg/templates"
	"github.com/andrewbuckingham/chargeplan-sub000/pkg/types"
)

// scenario is a decision request read from YAML.
type scenario struct {
	PlantType         string  `yaml:"plantType"`
	InitialBatteryKWH float64 `yaml:"initialBatteryKWH"`

	// Start defaults to now. The horizon runs from midnight of Start's day
	// for Days days.
	Start    time.Time `yaml:"start"`
	Days     int       `yaml:"days"`
	Location string    `yaml:"location"`

	Templates  templates.Templates `yaml:"templates"`
	Generation []types.Sample      `yaml:"generation"`
	Completed  []string            `yaml:"completed"`
}

func loadScenario(path string) (scenario, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return scenario{}, err
	}
	s := scenario{
		PlantType: plant.TypeHy36,
		Days:      2,
	}
	if err := yaml.Unmarshal(raw, &s); err != nil {
		return scenario{}, fmt.Errorf("failed to parse scenario: %w", err)
	}
	if s.Days <= 0 {
		return scenario{}, fmt.Errorf("%w: days must be positive, got %d", types.ErrValidation, s.Days)
	}
	return s, nil
}

func (s scenario) input(plants *plant.Map, now time.Time) (algorithm.Input, error) {
	p, err := plants.Create(s.PlantType)
	if err != nil {
		return algorithm.Input{}, err
	}

	loc := time.UTC
	if s.Location != "" {
		loc, err = time.LoadLocation(s.Location)
		if err != nil {
			return algorithm.Input{}, fmt.Errorf("failed to load location %s: %w", s.Location, err)
		}
	}

	start := s.Start
	if start.IsZero() {
		start = now
	}
	start = start.In(loc)
	from := time.Date(start.Year(), start.Month(), start.Day(), 0, 0, 0, 0, loc)
	to := from.AddDate(0, 0, s.Days)

	expanded, err := s.Templates.Expand(from, to, loc)
	if err != nil {
		return algorithm.Input{}, err
	}

	in := algorithm.Input{
		Input: calculator.Input{
			Plant:    p,
			Baseload: expanded.Baseload,
			Generation: types.Profile{
				Name:    "generation",
				Kind:    types.ProfileKindGeneration,
				Samples: s.Generation,
			},
			Charge:            expanded.Charge,
			ImportPrice:       expanded.ImportPrice,
			ExportPrice:       expanded.ExportPrice,
			InitialBatteryKWH: s.InitialBatteryKWH,
			Now:               now,
		},
		ShiftableDemands: expanded.ShiftableDemands,
		CompletedHashes:  s.Completed,
	}
	if !s.Start.IsZero() {
		in.Start = &start
	}
	return in, nil
}
