// Package plant models a battery and inverter stepping through time.
package plant

import (
	"fmt"
	"sync"
	"time"

	"github.com/levenlabs/go-lflag"

	"github.com/andrewbuckingham/chargeplan-sub000/pkg/types"
)

// Plant is an immutable battery and inverter. Integrating a step returns a
// new Plant and leaves the receiver untouched so a Plant can be shared
// between goroutines.
type Plant interface {
	Template() Template
	State() State

	// LastIntegration returns the flows of the step that produced this Plant.
	LastIntegration() Integration

	// ChargeRateAtScalar maps s in [0, 1] linearly onto the charge rate in kW.
	// Values outside the range are clamped.
	ChargeRateAtScalar(s float64) float64

	// DischargeRateAtScalar maps s in [0, 1] linearly onto the discharge rate
	// in kW. Values outside the range are clamped.
	DischargeRateAtScalar(s float64) float64

	// IntegratedBy runs one step of length period. solar, charge and demand
	// are energies in kWh over the step. dischargeOverrideKW optionally lowers
	// the discharge rate for this step.
	IntegratedBy(solar, charge, demand float64, period time.Duration, dischargeOverrideKW *float64) (Plant, error)

	// WithState returns a copy of the Plant holding s, clamped to the usable
	// range of the battery.
	WithState(s State) Plant
}

// TypeHy36 is the id of the Hy36 plant.
const TypeHy36 = "hy36"

// Configured registers the known plant types. The hy36 template can be
// overridden with flags.
func Configured() *Map {
	m := NewMap()
	template := DefaultHy36Template()
	lflag.JSON(&template, "hy36-template", template, "JSON object overriding the hy36 plant template (capacityKWH, maxChargeKW, efficiency, ...)")

	lflag.Do(func() {
		if err := template.Validate(); err != nil {
			panic(fmt.Errorf("invalid hy36-template: %w", err))
		}
		m.SetPlant(TypeHy36, NewHy36(template))
	})

	return m
}

// Map holds one prototype Plant per type id.
type Map struct {
	mu     sync.Mutex
	plants map[string]Plant
}

// NewMap creates an empty Map.
func NewMap() *Map {
	return &Map{
		plants: make(map[string]Plant),
	}
}

// Create returns a new Plant of the given type with the battery at its
// reserve.
func (m *Map) Create(id string) (Plant, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	p, ok := m.plants[id]
	if !ok {
		return nil, fmt.Errorf("%w: unknown plant type: %q", types.ErrInvalidState, id)
	}
	return p.WithState(State{BatteryKWH: p.Template().ReserveKWH()}), nil
}

// SetPlant sets the prototype for the given type id.
func (m *Map) SetPlant(id string, p Plant) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.plants[id] = p
}
