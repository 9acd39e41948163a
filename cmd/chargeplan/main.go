package main

import (
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/levenlabs/go-lflag"

	"github.com/andrewbuckingham/chargeplan-sub000/pkg/algorithm"
	"github.com/andrewbuckingham/chargeplan-sub000/pkg/log"
	"github.com/andrewbuckingham/chargeplan-sub000/pkg/plant"
)

func main() {
	// init packages
	plants := plant.Configured()
	algo := algorithm.Configured()

	scenarioPath := lflag.RequiredString("scenario", "Path to the YAML scenario to decide")
	plantType := lflag.String("plant-type", "", "Plant type overriding the scenario's (available: hy36)")

	// parse flags
	lflag.Configure()

	// lflag automatically sets llog's level, but we need to set the slog level
	level, err := log.LLogLevel()
	if err != nil {
		panic(err)
	}
	log.SetDefaultLogLevel(level)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	s, err := loadScenario(*scenarioPath)
	if err != nil {
		log.Ctx(ctx).ErrorContext(ctx, "failed to load scenario", slog.String("path", *scenarioPath), slog.Any("error", err))
		os.Exit(1)
	}
	if *plantType != "" {
		s.PlantType = *plantType
	}
	ctx = log.WithAttrs(ctx, slog.String("scenario", *scenarioPath), slog.String("plantType", s.PlantType))

	in, err := s.input(plants, time.Now())
	if err != nil {
		log.Ctx(ctx).ErrorContext(ctx, "failed to build input", slog.Any("error", err))
		os.Exit(1)
	}

	started := time.Now()
	recs, err := algo.DecideStrategy(ctx, in)
	if err != nil {
		log.Ctx(ctx).ErrorContext(ctx, "failed to decide strategy", slog.Any("error", err))
		os.Exit(1)
	}
	log.Ctx(ctx).InfoContext(
		ctx,
		"decided",
		slog.Float64("cost", recs.Evaluation.Cost),
		slog.Int("shiftableDemands", len(recs.ShiftableDemands)),
		slog.Duration("took", time.Since(started)),
	)

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(recs); err != nil {
		log.Ctx(ctx).ErrorContext(ctx, "failed to write recommendations", slog.Any("error", err))
		os.Exit(1)
	}
}
