package plant

import (
	"fmt"
	"math"

	"github.com/andrewbuckingham/chargeplan-sub000/pkg/types"
)

// Template is the fixed configuration of a plant.
type Template struct {
	CapacityKWH     float64 `json:"capacityKWH"`
	MaxChargeKW     float64 `json:"maxChargeKW"`
	MaxDischargeKW  float64 `json:"maxDischargeKW"`
	MaxThroughputKW float64 `json:"maxThroughputKW"`

	// Efficiency is the round trip efficiency between 0 and 1. Half of the
	// loss is taken when charging and half when discharging.
	Efficiency float64 `json:"efficiency"`

	// I2RLoss scales the resistive loss, which grows with the square of the
	// ratio of power to the rated maximum.
	I2RLoss float64 `json:"i2rLoss"`

	DepthOfDischargePercent float64 `json:"depthOfDischargePercent"`
	ReservePercent          float64 `json:"reservePercent"`
}

// ReserveKWH is the floor the battery is never discharged below.
func (t Template) ReserveKWH() float64 {
	return t.CapacityKWH * t.ReservePercent / 100
}

// CeilingKWH is the most the battery is charged to.
func (t Template) CeilingKWH() float64 {
	return t.CapacityKWH * t.DepthOfDischargePercent / 100
}

// Validate returns an error if the template cannot describe a real plant.
func (t Template) Validate() error {
	for _, f := range []struct {
		name  string
		value float64
	}{
		{"capacityKWH", t.CapacityKWH},
		{"maxChargeKW", t.MaxChargeKW},
		{"maxDischargeKW", t.MaxDischargeKW},
		{"maxThroughputKW", t.MaxThroughputKW},
		{"i2rLoss", t.I2RLoss},
	} {
		if math.IsNaN(f.value) || math.IsInf(f.value, 0) || f.value < 0 {
			return fmt.Errorf("%w: %s must be finite and non-negative, got %v", types.ErrInvalidState, f.name, f.value)
		}
	}
	if t.MaxThroughputKW == 0 {
		return fmt.Errorf("%w: maxThroughputKW must be positive", types.ErrInvalidState)
	}
	if !(t.Efficiency > 0 && t.Efficiency <= 1) {
		return fmt.Errorf("%w: efficiency must be within (0, 1], got %v", types.ErrInvalidState, t.Efficiency)
	}
	if !(t.DepthOfDischargePercent >= 0 && t.DepthOfDischargePercent <= 100) {
		return fmt.Errorf("%w: depthOfDischargePercent must be within [0, 100], got %v", types.ErrInvalidState, t.DepthOfDischargePercent)
	}
	if !(t.ReservePercent >= 0 && t.ReservePercent <= t.DepthOfDischargePercent) {
		return fmt.Errorf("%w: reservePercent must be within [0, depthOfDischargePercent], got %v", types.ErrInvalidState, t.ReservePercent)
	}
	return nil
}

// State is the energy held by the battery.
type State struct {
	BatteryKWH float64 `json:"batteryKWH"`
}

// Integration is the energy flow of a single step. All values are in kWh.
type Integration struct {
	GridCharged float64 `json:"gridCharged"`
	Export      float64 `json:"export"`
	Shortfall   float64 `json:"shortfall"`
	Wasted      float64 `json:"wasted"`
}

// Validate returns an error unless every flow is finite and non-negative.
func (i Integration) Validate() error {
	for _, f := range []struct {
		name  string
		value float64
	}{
		{"gridCharged", i.GridCharged},
		{"export", i.Export},
		{"shortfall", i.Shortfall},
		{"wasted", i.Wasted},
	} {
		if math.IsNaN(f.value) || math.IsInf(f.value, 0) || f.value < 0 {
			return fmt.Errorf("%w: integration %s must be finite and non-negative, got %v", types.ErrValidation, f.name, f.value)
		}
	}
	return nil
}
