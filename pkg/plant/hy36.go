package plant

import (
	"fmt"
	"math"
	"time"

	"github.com/andrewbuckingham/chargeplan-sub000/pkg/types"
)

// DefaultHy36Template returns the template of a 3.6kW hybrid inverter with a
// 5.2kWh battery.
func DefaultHy36Template() Template {
	return Template{
		CapacityKWH:             5.2,
		MaxChargeKW:             2.6,
		MaxDischargeKW:          2.6,
		MaxThroughputKW:         3.6,
		Efficiency:              0.92,
		I2RLoss:                 0.02,
		DepthOfDischargePercent: 95,
		ReservePercent:          10,
	}
}

// Hy36 is a hybrid inverter with DC coupled solar, where solar and grid
// charging share the inverter's throughput.
type Hy36 struct {
	template Template
	state    State
	last     Integration
}

// NewHy36 returns a Hy36 with the battery at its reserve.
func NewHy36(t Template) Hy36 {
	return Hy36{
		template: t,
		state:    State{BatteryKWH: t.ReserveKWH()},
	}
}

func (p Hy36) Template() Template {
	return p.template
}

func (p Hy36) State() State {
	return p.state
}

func (p Hy36) LastIntegration() Integration {
	return p.last
}

func (p Hy36) ChargeRateAtScalar(s float64) float64 {
	return clampScalar(s) * p.template.MaxChargeKW
}

func (p Hy36) DischargeRateAtScalar(s float64) float64 {
	return clampScalar(s) * p.template.MaxDischargeKW
}

func (p Hy36) WithState(s State) Plant {
	p.state = State{BatteryKWH: p.clampBattery(s.BatteryKWH)}
	p.last = Integration{}
	return p
}

func (p Hy36) IntegratedBy(solar, charge, demand float64, period time.Duration, dischargeOverrideKW *float64) (Plant, error) {
	if period <= 0 {
		return nil, fmt.Errorf("%w: period must be positive, got %s", types.ErrValidation, period)
	}
	if err := finite("solar", solar); err != nil {
		return nil, err
	}
	if err := finite("charge", charge); err != nil {
		return nil, err
	}
	if err := finite("demand", demand); err != nil {
		return nil, err
	}
	if dischargeOverrideKW != nil {
		if err := finite("discharge override", *dischargeOverrideKW); err != nil {
			return nil, err
		}
	}

	h := period.Hours()
	solar = max(0, solar)
	charge = max(0, charge)
	demand = max(0, demand)

	var in Integration

	// solar and grid charge share the inverter
	throughput := p.template.MaxThroughputKW * h
	if solar > throughput {
		in.Wasted = solar - throughput
		solar = throughput
	}
	charge = min(charge, throughput-solar)

	offset := min(solar, demand)
	solar -= offset
	demand -= offset

	battery := p.state.BatteryKWH
	budget := max(0, p.template.MaxChargeKW) * h

	stored, used := p.charge(solar, budget, battery, h)
	battery += stored
	budget -= used
	in.Export = solar - used

	stored, used = p.charge(charge, budget, battery, h)
	battery += stored
	in.GridCharged = used

	if in.GridCharged > 0 {
		// no discharging in a step that charged from the grid
		in.Shortfall = demand
	} else {
		delivered, drawn := p.discharge(demand, battery, h, dischargeOverrideKW)
		battery -= drawn
		in.Shortfall = demand - delivered
	}

	// rounding can leave tiny negatives
	in.Export = max(0, in.Export)
	in.Shortfall = max(0, in.Shortfall)
	if err := in.Validate(); err != nil {
		return nil, err
	}

	p.state = State{BatteryKWH: p.clampBattery(battery)}
	p.last = in
	return p, nil
}

// charge stores up to e kWh limited by budget and the ceiling. It returns the
// energy stored after losses and the energy consumed to store it.
func (p Hy36) charge(e, budget, battery, h float64) (stored, used float64) {
	t := p.template
	if e <= 0 || budget <= 0 || t.MaxChargeKW <= 0 {
		return 0, 0
	}
	usable := min(e, budget)
	ratio := usable / h / t.MaxChargeKW
	adjusted := max(0, usable-usable*(1-t.Efficiency)/2-usable*t.I2RLoss*ratio*ratio)

	headroom := max(0, t.CeilingKWH()-battery)
	if adjusted <= headroom {
		return adjusted, usable
	}
	return headroom, usable * headroom / adjusted
}

// discharge delivers up to demand kWh. It returns the energy delivered and
// the larger amount drawn from the battery to deliver it.
func (p Hy36) discharge(demand, battery, h float64, overrideKW *float64) (delivered, drawn float64) {
	t := p.template
	rate := t.MaxDischargeKW
	if overrideKW != nil {
		rate = min(rate, *overrideKW)
	}
	if demand <= 0 || rate <= 0 {
		return 0, 0
	}
	delivered = min(demand, rate*h)
	ratio := delivered / h / t.MaxDischargeKW
	drawn = delivered * (1 + (1-t.Efficiency)/2 + t.I2RLoss*ratio*ratio)

	available := max(0, battery-t.ReserveKWH())
	if drawn > available {
		delivered *= available / drawn
		drawn = available
	}
	return delivered, drawn
}

func (p Hy36) clampBattery(kwh float64) float64 {
	return min(max(kwh, p.template.ReserveKWH()), p.template.CeilingKWH())
}

func clampScalar(s float64) float64 {
	if math.IsNaN(s) {
		return 0
	}
	return min(max(s, 0), 1)
}

func finite(name string, v float64) error {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return fmt.Errorf("%w: %s energy must be finite, got %v", types.ErrValidation, name, v)
	}
	return nil
}
