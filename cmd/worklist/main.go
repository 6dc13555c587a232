// Package main is the entry point for the worklist CLI.
// It loads patient fixtures, derives each worklist view and prints it as
// JSON on stdout.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/pitabwire/worklist/internal/config"
	"github.com/pitabwire/worklist/internal/fixture"
	"github.com/pitabwire/worklist/internal/observability"
	"github.com/pitabwire/worklist/internal/worklist"
)

// Build-time variables set via ldflags:
//
//	go build -ldflags "-X main.version=1.0.0 -X main.commit=abc1234"
var (
	version = "dev"
	commit  = "unknown"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	// Step 1: Parse CLI flags.
	fs := flag.NewFlagSet("worklist", flag.ContinueOnError)
	fs.SetOutput(stderr)
	configPath := fs.String("config", "", "path to configuration file (defaults when empty)")
	patientID := fs.String("patient", "", "derive only this patient (default all)")
	stateID := fs.String("state", "", "demo snapshot to derive at (default from config)")
	advance := fs.Bool("advance", false, "derive at the snapshot after -state")
	dumpMetrics := fs.Bool("metrics", false, "write metrics in text format to stderr on exit")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	// Step 2: Load configuration.
	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(stderr, "configuration error: %v\n", err)
		return 1
	}

	// Step 3: Initialize telemetry (logger, tracer, metrics).
	logger, err := observability.NewLogger(cfg.Observability)
	if err != nil {
		fmt.Fprintf(stderr, "logger error: %v\n", err)
		return 1
	}
	defer logger.Sync()
	logger = logger.With(
		zap.String("run_id", uuid.NewString()),
		zap.String("version", version),
		zap.String("commit", commit),
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()
	ctx = observability.WithLogger(ctx, logger)

	tracingShutdown, err := observability.InitTracing(ctx, cfg.Observability.Tracing, "worklist", version)
	if err != nil {
		logger.Error("tracing initialization failed", zap.Error(err))
		return 1
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tracingShutdown(shutdownCtx); err != nil {
			logger.Error("tracing shutdown error", zap.Error(err))
		}
	}()

	var metrics *observability.Metrics
	promRegistry := prometheus.NewRegistry()
	if cfg.Observability.Metrics.Enabled {
		metrics = observability.InitMetrics(promRegistry)
	}
	if *dumpMetrics {
		defer func() {
			if err := observability.WriteText(stderr, promRegistry); err != nil {
				logger.Error("metrics dump failed", zap.Error(err))
			}
		}()
	}

	// Step 4: Load fixtures, validate, build registry.
	registry, ok := loadFixtures(ctx, cfg, logger, metrics)
	if !ok {
		return 1
	}

	// Step 5: Derive and print views.
	provider := worklist.NewProvider(registry, cfg, logger, metrics)

	ids := registry.IDs()
	if *patientID != "" {
		ids = []string{*patientID}
	}

	enc := json.NewEncoder(stdout)
	enc.SetIndent("", "  ")

	failed := 0
	for _, id := range ids {
		if ctx.Err() != nil {
			logger.Info("interrupted")
			return 1
		}

		state := *stateID
		if *advance {
			next, err := provider.Advance(id, state)
			if err != nil {
				logger.Warn("advance failed", zap.String("patient_id", id), zap.Error(err))
				failed++
				continue
			}
			state = next
		}

		view, err := provider.Derive(ctx, id, worklist.Request{StateID: state})
		if err != nil {
			logger.Warn("derivation failed", zap.String("patient_id", id), zap.Error(err))
			failed++
			continue
		}
		if err := enc.Encode(view); err != nil {
			logger.Error("writing view", zap.String("patient_id", id), zap.Error(err))
			return 1
		}
	}

	logger.Info("worklist derived",
		zap.Int("patients", len(ids)),
		zap.Int("failed", failed),
	)
	if failed > 0 {
		return 1
	}
	return 0
}

// loadFixtures loads every fixture, reports each validation error and
// builds the registry. It reports false when loading or validation fails.
func loadFixtures(ctx context.Context, cfg *config.Config, logger *zap.Logger, metrics *observability.Metrics) (*fixture.Registry, bool) {
	_, span := observability.StartSpan(ctx, "worklist.fixtures.load")

	records, err := fixture.NewLoader().LoadAll(cfg.Fixtures.Directories)
	if err != nil {
		logger.Error("fixture loading failed", zap.Error(err))
		observability.EndSpanWithError(span, err)
		return nil, false
	}

	verrs := fixture.NewValidator().Validate(records)
	if len(verrs) > 0 {
		for _, ve := range verrs {
			metrics.RecordFixtureValidationError(ve.Code)
			logger.Error("fixture validation error",
				zap.String("path", ve.Path),
				zap.String("code", ve.Code),
				zap.String("error", ve.Message),
			)
		}
		err := fmt.Errorf("%d fixture validation errors", len(verrs))
		logger.Error("fixture validation failed", zap.Int("errors", len(verrs)))
		observability.EndSpanWithError(span, err)
		return nil, false
	}

	registry := fixture.NewRegistry(records)
	metrics.SetFixturesLoaded(registry.Len())
	span.SetAttributes(observability.AttrFixtures.Int(registry.Len()))
	observability.EndSpanWithError(span, nil)

	logger.Info("fixtures loaded",
		zap.Int("patients", registry.Len()),
		zap.String("checksum", registry.Checksum()),
		zap.Strings("directories", cfg.Fixtures.Directories),
	)
	return registry, true
}
