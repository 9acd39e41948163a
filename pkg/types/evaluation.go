package types

import "time"

// IntegrationStep is one row of a simulation trace. Energies are in kWh for
// the step; the Cumulative fields are running totals since the start.
type IntegrationStep struct {
	TS                    time.Time `json:"ts"`
	BatteryKWH            float64   `json:"batteryKWH"`
	DemandKWH             float64   `json:"demandKWH"`
	GenerationKWH         float64   `json:"generationKWH"`
	ChargeKWH             float64   `json:"chargeKWH"`
	ExportKWH             float64   `json:"exportKWH"`
	CumulativeCost        float64   `json:"cumulativeCost"`
	CumulativeUndercharge float64   `json:"cumulativeUndercharge"`
	CumulativeOvercharge  float64   `json:"cumulativeOvercharge"`

	// ShiftableKWH holds the energy of each shiftable demand for this step, in
	// the same order as Evaluation.ShiftableNames.
	ShiftableKWH []float64 `json:"shiftableKWH,omitempty"`
}

// Period is a coalesced window of overcharge or undercharge.
type Period struct {
	From   time.Time `json:"from"`
	To     time.Time `json:"to"`
	Energy float64   `json:"energy"`
}

// Evaluation is the outcome of simulating one complete candidate schedule.
type Evaluation struct {
	ChargeRateLimitKW    *float64          `json:"chargeRateLimitKW,omitempty"`
	DischargeRateLimitKW *float64          `json:"dischargeRateLimitKW,omitempty"`
	Cost                 float64           `json:"cost"`
	ShiftableNames       []string          `json:"shiftableNames,omitempty"`
	Steps                []IntegrationStep `json:"steps"`
	OverchargePeriods    []Period          `json:"overchargePeriods"`
	UnderchargePeriods   []Period          `json:"underchargePeriods"`
}

// Undercharge returns the total energy the plant failed to supply.
func (e Evaluation) Undercharge() float64 {
	if len(e.Steps) == 0 {
		return 0
	}
	return e.Steps[len(e.Steps)-1].CumulativeUndercharge
}

// Overcharge returns the total energy the battery could not absorb.
func (e Evaluation) Overcharge() float64 {
	if len(e.Steps) == 0 {
		return 0
	}
	return e.Steps[len(e.Steps)-1].CumulativeOvercharge
}

// ShiftableDemandRecommendation is the chosen start for one shiftable demand.
type ShiftableDemandRecommendation struct {
	Demand    ShiftableDemand `json:"demand"`
	Start     time.Time       `json:"start"`
	AddedCost float64         `json:"addedCost"`
	Hash      string          `json:"hash"`
}

// Recommendations is the final output of a decision.
type Recommendations struct {
	Evaluation       Evaluation                      `json:"evaluation"`
	ShiftableDemands []ShiftableDemandRecommendation `json:"shiftableDemands"`
}
