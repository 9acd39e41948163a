// Package algorithm decides how to run the battery and when to start
// shiftable demands.
package algorithm

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime"
	"slices"
	"time"

	"github.com/levenlabs/go-lflag"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/andrewbuckingham/chargeplan-sub000/pkg/calculator"
	"github.com/andrewbuckingham/chargeplan-sub000/pkg/interp"
	"github.com/andrewbuckingham/chargeplan-sub000/pkg/log"
	"github.com/andrewbuckingham/chargeplan-sub000/pkg/types"
)

// now is replaced in tests.
var now = time.Now

// Input is a decision request.
type Input struct {
	// Shiftable profiles in the embedded input are treated as fixed demand.
	calculator.Input

	ShiftableDemands []types.ShiftableDemand

	// CompletedHashes are the hashes of demand occurrences that already ran.
	CompletedHashes []string
}

// Algorithm searches for the cheapest charge rate and shiftable demand
// schedule. It's safe for concurrent use.
type Algorithm struct {
	settings   types.Settings
	calculator *calculator.Calculator
}

// Configured returns an Algorithm whose settings can be overridden with
// flags.
func Configured() *Algorithm {
	a := &Algorithm{}
	settings := types.DefaultSettings()
	lflag.JSON(&settings, "algorithm-settings", settings, "JSON object overriding the algorithm settings (iterateInPercents, stepMinutes, parallelism, ...)")

	lflag.Do(func() {
		// fields left out of the flag fall back to their defaults
		migrated, _, err := types.MigrateSettings(settings, 0)
		if err != nil {
			panic(fmt.Errorf("failed to migrate algorithm-settings: %w", err))
		}
		if err := migrated.Validate(); err != nil {
			panic(fmt.Errorf("invalid algorithm-settings: %w", err))
		}
		*a = *New(migrated)
	})

	return a
}

// New returns an Algorithm with its own interpolation cache.
func New(settings types.Settings) *Algorithm {
	return &Algorithm{
		settings:   settings,
		calculator: calculator.New(settings, interp.NewCache(settings.CacheSize)),
	}
}

// Settings returns the settings the Algorithm was built with.
func (a *Algorithm) Settings() types.Settings {
	return a.settings
}

// DecideStrategy finds the cheapest charge rate limit, then greedily places
// each shiftable demand at the start that adds the least cost. Demands are
// placed in order of their allowed range, then priority, then largest energy
// first. Demands with no valid start are left out.
func (a *Algorithm) DecideStrategy(ctx context.Context, in Input) (types.Recommendations, error) {
	if err := a.settings.Validate(); err != nil {
		return types.Recommendations{}, err
	}
	if in.Plant == nil {
		return types.Recommendations{}, fmt.Errorf("%w: no plant", types.ErrInvalidState)
	}
	if in.Baseload.Empty() {
		return types.Recommendations{}, fmt.Errorf("%w: baseload demand profile is empty", types.ErrInvalidState)
	}
	if in.Generation.Empty() {
		return types.Recommendations{}, fmt.Errorf("%w: generation forecast is empty", types.ErrInvalidState)
	}
	// every simulation in this decision must share one start
	if in.Start == nil && in.Now.IsZero() {
		in.Now = now()
	}

	fixed := slices.Clone(in.Shiftable)
	baseline, err := a.search(ctx, in.Input, [][]types.Profile{fixed})
	if err != nil {
		return types.Recommendations{}, err
	}
	if baseline[0].err != nil {
		return types.Recommendations{}, fmt.Errorf("error evaluating baseline: %w", baseline[0].err)
	}
	current := baseline[0].eval
	log.Ctx(ctx).DebugContext(ctx, "evaluated baseline", slog.Float64("cost", current.Cost))

	start := a.calculator.StartTime(in.Input)
	end := in.Baseload.End()

	accepted := fixed
	placed := []types.ShiftableDemandRecommendation{}
	for _, d := range order(in.ShiftableDemands, in.CompletedHashes) {
		l := log.Ctx(ctx).With(slog.String("demand", d.Name), slog.String("hash", d.Hash()))

		var starts []time.Time
		for t := start; !t.Add(d.Duration()).After(end); t = t.Add(a.settings.TrialInterval()) {
			if !d.AllowedAt(t) || !d.WithinRange(t) || tooSoon(d, t, placed) {
				continue
			}
			starts = append(starts, t)
		}
		if len(starts) == 0 {
			l.DebugContext(ctx, "no valid start for shiftable demand")
			continue
		}

		trials := make([][]types.Profile, len(starts))
		for i, t := range starts {
			trials[i] = append(slices.Clone(accepted), d.AsDemandProfile(t))
		}
		results, err := a.search(ctx, in.Input, trials)
		if err != nil {
			return types.Recommendations{}, err
		}

		best := -1
		for i, r := range results {
			if r.err != nil {
				l.WarnContext(ctx, "failed to evaluate trial", slog.Time("start", starts[i]), slog.Any("error", r.err))
				continue
			}
			if best < 0 || r.eval.Cost < results[best].eval.Cost {
				best = i
			}
		}
		if best < 0 {
			l.WarnContext(ctx, "every trial failed for shiftable demand")
			continue
		}

		added, _ := decimal.NewFromFloat(results[best].eval.Cost).Sub(decimal.NewFromFloat(current.Cost)).Float64()
		placed = append(placed, types.ShiftableDemandRecommendation{
			Demand:    d,
			Start:     starts[best],
			AddedCost: added,
			Hash:      d.Hash(),
		})
		accepted = trials[best]
		current = results[best].eval

		l.DebugContext(
			ctx,
			"placed shiftable demand",
			slog.Time("start", starts[best]),
			slog.Float64("addedCost", added),
			slog.Int("trials", len(starts)),
		)
	}

	slices.SortStableFunc(placed, func(x, y types.ShiftableDemandRecommendation) int {
		return x.Start.Compare(y.Start)
	})

	log.Ctx(ctx).InfoContext(
		ctx,
		"decided strategy",
		slog.Float64("cost", current.Cost),
		slog.Int("placed", len(placed)),
		slog.Int("demands", len(in.ShiftableDemands)),
	)
	return types.Recommendations{
		Evaluation:       current,
		ShiftableDemands: placed,
	}, nil
}

// order drops completed demands and sorts the rest into placement order.
func order(demands []types.ShiftableDemand, completed []string) []types.ShiftableDemand {
	done := make(map[string]bool, len(completed))
	for _, h := range completed {
		done[h] = true
	}
	remaining := make([]types.ShiftableDemand, 0, len(demands))
	for _, d := range demands {
		if !done[d.Hash()] {
			remaining = append(remaining, d)
		}
	}

	slices.SortStableFunc(remaining, func(a, b types.ShiftableDemand) int {
		switch {
		case a.WithinStart == nil && b.WithinStart != nil:
			return 1
		case a.WithinStart != nil && b.WithinStart == nil:
			return -1
		case a.WithinStart != nil && b.WithinStart != nil:
			if c := a.WithinStart.Compare(*b.WithinStart); c != 0 {
				return c
			}
		}
		if c := cmp.Compare(a.Priority, b.Priority); c != 0 {
			return c
		}
		return cmp.Compare(b.TotalEnergy(), a.TotalEnergy())
	})
	return remaining
}

// tooSoon returns true if a demand of the same type was placed less than
// d.DontRepeatWithin before start.
func tooSoon(d types.ShiftableDemand, start time.Time, placed []types.ShiftableDemandRecommendation) bool {
	if d.Type == "" || d.DontRepeatWithin <= 0 {
		return false
	}
	for _, p := range placed {
		if p.Demand.Type == d.Type && p.Start.Add(d.DontRepeatWithin).After(start) {
			return true
		}
	}
	return false
}

type result struct {
	eval types.Evaluation
	err  error
}

// search runs the charge rate grid for every trial and returns the cheapest
// evaluation of each. A trial with any failed candidate carries its error. The
// returned error is only set when ctx is done.
func (a *Algorithm) search(ctx context.Context, base calculator.Input, trials [][]types.Profile) ([]result, error) {
	rates := a.chargeRates(base.Plant.Template().MaxChargeKW)
	evals := make([][]result, len(trials))
	for i := range evals {
		evals[i] = make([]result, len(rates))
	}

	g, gctx := errgroup.WithContext(ctx)
	parallelism := a.settings.Parallelism
	if parallelism <= 0 {
		parallelism = runtime.GOMAXPROCS(0)
	}
	g.SetLimit(parallelism)

jobs:
	for i, trial := range trials {
		for j, rate := range rates {
			if gctx.Err() != nil {
				break jobs
			}
			g.Go(func() error {
				in := base
				in.Shiftable = trial
				in.ChargeRateLimitKW = &rate
				eval, err := a.calculator.Calculate(gctx, in)
				if err != nil {
					if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
						return err
					}
					evals[i][j].err = err
					return nil
				}
				evals[i][j].eval = eval
				return nil
			})
		}
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	results := make([]result, len(trials))
	for i, candidates := range evals {
		best := -1
		for j, c := range candidates {
			if c.err != nil {
				results[i].err = fmt.Errorf("error evaluating charge rate %.3fkW: %w", rates[j], c.err)
				best = -1
				break
			}
			// first minimum wins so ties go to the lower rate
			if best < 0 || c.eval.Cost < candidates[best].eval.Cost {
				best = j
			}
		}
		if best >= 0 {
			results[i].eval = candidates[best].eval
		}
	}
	return results, nil
}

// chargeRates returns the charge rate limits to try, from zero up to maxKW
// in IterateInPercents steps. maxKW is always included. A plant that can't
// charge only has the zero rate.
func (a *Algorithm) chargeRates(maxKW float64) []float64 {
	if maxKW <= 0 {
		return []float64{0}
	}
	var rates []float64
	for pct := 0; pct < 100; pct += a.settings.IterateInPercents {
		rates = append(rates, maxKW*float64(pct)/100)
	}
	return append(rates, maxKW)
}
