// Package calculator simulates a fixed schedule through a plant and prices
// the result.
package calculator

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"github.com/andrewbuckingham/chargeplan-sub000/pkg/interp"
	"github.com/andrewbuckingham/chargeplan-sub000/pkg/log"
	"github.com/andrewbuckingham/chargeplan-sub000/pkg/plant"
	"github.com/andrewbuckingham/chargeplan-sub000/pkg/types"
)

// cancelCheckSteps is how many steps run between checks of the context.
const cancelCheckSteps = 256

// Input is everything needed to simulate one schedule.
type Input struct {
	Plant plant.Plant

	// Baseload is the fixed demand. Its first and last samples bound the
	// simulation.
	Baseload types.Profile

	// Shiftable are anchored shiftable demands added on top of the baseload.
	Shiftable []types.Profile

	// Generation, Charge, ImportPrice and ExportPrice are treated as zero
	// when empty. Charge is a scalar between 0 and 1 of the plant's maximum
	// charge rate.
	Generation  types.Profile
	Charge      types.Profile
	ImportPrice types.Profile
	ExportPrice types.Profile

	InitialBatteryKWH float64

	// ChargeRateLimitKW caps grid charging.
	ChargeRateLimitKW *float64

	// DischargeRateLimitKW caps discharging.
	DischargeRateLimitKW *float64

	// Start overrides Now as the earliest start of the simulation.
	Start *time.Time

	// Now is the current time. The zero value uses the wall clock.
	Now time.Time
}

// Calculator runs simulations. It's safe for concurrent use.
type Calculator struct {
	settings types.Settings
	cache    *interp.Cache
}

// New returns a Calculator sharing cache between simulations. cache may be
// nil.
func New(settings types.Settings, cache *interp.Cache) *Calculator {
	return &Calculator{
		settings: settings,
		cache:    cache,
	}
}

// Settings returns the settings the Calculator was built with.
func (c *Calculator) Settings() types.Settings {
	return c.settings
}

// StartTime returns the first step of a simulation of in: the later of the
// baseload's start and the requested start, truncated to the hour.
func (c *Calculator) StartTime(in Input) time.Time {
	start := in.Now
	if in.Start != nil {
		start = *in.Start
	} else if start.IsZero() {
		start = time.Now()
	}
	if first := in.Baseload.Start(); first.After(start) {
		start = first
	}
	return start.Truncate(time.Hour)
}

type window struct {
	fn       interp.Function
	from, to time.Time
}

// Calculate simulates in and returns its cost along with a trace of every
// step. The last step ends at least one step before the end of the baseload.
func (c *Calculator) Calculate(ctx context.Context, in Input) (types.Evaluation, error) {
	step := c.settings.Step()
	if step <= 0 {
		return types.Evaluation{}, fmt.Errorf("%w: simulation step must be positive, got %s", types.ErrInvalidState, step)
	}
	if in.Plant == nil {
		return types.Evaluation{}, fmt.Errorf("%w: no plant", types.ErrInvalidState)
	}
	if in.Baseload.Empty() {
		return types.Evaluation{}, fmt.Errorf("%w: baseload demand profile is empty", types.ErrInvalidState)
	}
	if err := ctx.Err(); err != nil {
		return types.Evaluation{}, err
	}

	baseload, err := c.cache.Profile(in.Baseload)
	if err != nil {
		return types.Evaluation{}, fmt.Errorf("error interpolating baseload: %w", err)
	}
	generation, err := c.cache.Profile(in.Generation)
	if err != nil {
		return types.Evaluation{}, fmt.Errorf("error interpolating generation: %w", err)
	}
	charge, err := c.cache.Profile(in.Charge)
	if err != nil {
		return types.Evaluation{}, fmt.Errorf("error interpolating charge: %w", err)
	}
	importPrice, err := c.cache.Profile(in.ImportPrice)
	if err != nil {
		return types.Evaluation{}, fmt.Errorf("error interpolating import price: %w", err)
	}
	exportPrice, err := c.cache.Profile(in.ExportPrice)
	if err != nil {
		return types.Evaluation{}, fmt.Errorf("error interpolating export price: %w", err)
	}

	// every trial anchors its shiftable demand differently so caching them
	// would only evict the shared profiles
	shiftable := make([]window, 0, len(in.Shiftable))
	names := make([]string, 0, len(in.Shiftable))
	for _, p := range in.Shiftable {
		if p.Empty() {
			continue
		}
		fn, err := interp.New(interp.StrategyFor(p.Kind), p.Samples)
		if err != nil {
			return types.Evaluation{}, fmt.Errorf("error interpolating shiftable demand %q: %w", p.Name, err)
		}
		shiftable = append(shiftable, window{fn: fn, from: p.Start(), to: p.End()})
		names = append(names, p.Name)
	}

	start := c.StartTime(in)
	end := in.Baseload.End()
	h := step.Hours()

	p := in.Plant.WithState(plant.State{BatteryKWH: in.InitialBatteryKWH})
	var cost, undercharge, overcharge float64
	var steps []types.IntegrationStep
	if end.After(start) {
		steps = make([]types.IntegrationStep, 0, int(end.Sub(start)/step))
	}

	for t := start; t.Add(step).Before(end); t = t.Add(step) {
		if len(steps)%cancelCheckSteps == 0 {
			if err := ctx.Err(); err != nil {
				return types.Evaluation{}, err
			}
		}
		next := t.Add(step)

		demand := max(0, baseload.Integrate(t, next))
		var shiftableKWH []float64
		if len(shiftable) > 0 {
			shiftableKWH = make([]float64, len(shiftable))
		}
		for i, w := range shiftable {
			from, to := later(t, w.from), earlier(next, w.to)
			if !from.Before(to) {
				continue
			}
			shiftableKWH[i] = max(0, w.fn.Integrate(from, to))
			demand += shiftableKWH[i]
		}

		solar := max(0, generation.Integrate(t, next))

		chargeKWH := p.ChargeRateAtScalar(charge.Integrate(t, next)/h) * h
		if in.ChargeRateLimitKW != nil {
			chargeKWH = min(chargeKWH, max(0, *in.ChargeRateLimitKW)*h)
		}

		p, err = p.IntegratedBy(solar, chargeKWH, demand, step, in.DischargeRateLimitKW)
		if err != nil {
			return types.Evaluation{}, fmt.Errorf("error integrating step at %s: %w", t.Format(time.RFC3339), err)
		}
		flow := p.LastIntegration()

		importUnit := importPrice.Integrate(t, next) / h
		exportUnit := exportPrice.Integrate(t, next) / h
		cost += (flow.GridCharged+flow.Shortfall)*max(0, importUnit) - flow.Export*max(0, exportUnit)
		undercharge += flow.Shortfall
		overcharge += flow.Export + flow.Wasted

		steps = append(steps, types.IntegrationStep{
			TS:                    t,
			BatteryKWH:            p.State().BatteryKWH,
			DemandKWH:             demand,
			GenerationKWH:         solar,
			ChargeKWH:             flow.GridCharged,
			ExportKWH:             flow.Export,
			CumulativeCost:        cost,
			CumulativeUndercharge: undercharge,
			CumulativeOvercharge:  overcharge,
			ShiftableKWH:          shiftableKWH,
		})
	}

	rounded, _ := decimal.NewFromFloat(cost).Round(2).Float64()
	over := Periods(steps, func(s types.IntegrationStep) float64 {
		return s.CumulativeOvercharge
	}, step, c.settings.GapTolerance())
	under := Periods(steps, func(s types.IntegrationStep) float64 {
		return s.CumulativeUndercharge
	}, step, c.settings.GapTolerance())

	eval := types.Evaluation{
		ChargeRateLimitKW:    in.ChargeRateLimitKW,
		DischargeRateLimitKW: in.DischargeRateLimitKW,
		Cost:                 rounded,
		ShiftableNames:       names,
		Steps:                steps,
		OverchargePeriods:    over,
		UnderchargePeriods:   under,
	}

	log.Ctx(ctx).DebugContext(
		ctx,
		"calculated evaluation",
		slog.Time("start", start),
		slog.Int("steps", len(steps)),
		slog.Float64("cost", eval.Cost),
		slog.Float64("undercharge", undercharge),
		slog.Float64("overcharge", overcharge),
		slog.Int("shiftable", len(shiftable)),
	)
	return eval, nil
}

func later(a, b time.Time) time.Time {
	if b.After(a) {
		return b
	}
	return a
}

func earlier(a, b time.Time) time.Time {
	if b.Before(a) {
		return b
	}
	return a
}
