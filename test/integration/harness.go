// Package integration provides a reusable test harness for end-to-end
// testing of the worklist pipeline. It loads the demo fixtures shipped with
// the repository, validates them and derives views through the provider.
package integration

import (
	"context"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/pitabwire/worklist/internal/config"
	"github.com/pitabwire/worklist/internal/fixture"
	"github.com/pitabwire/worklist/internal/observability"
	"github.com/pitabwire/worklist/internal/worklist"
)

// TestHarness wires a provider over a validated fixture registry.
type TestHarness struct {
	t *testing.T

	Config   *config.Config
	Registry *fixture.Registry
	Provider *worklist.Provider
	Metrics  *observability.Metrics
	Gatherer *prometheus.Registry
}

type harnessConfig struct {
	fixtureDirs []string
	mutate      func(*config.Config)
	now         time.Time
}

// HarnessOption configures a TestHarness.
type HarnessOption func(*harnessConfig)

// WithFixtureDirs replaces the default fixture directories.
func WithFixtureDirs(dirs ...string) HarnessOption {
	return func(hc *harnessConfig) { hc.fixtureDirs = dirs }
}

// WithConfig adjusts the configuration before the provider is built.
func WithConfig(fn func(*config.Config)) HarnessOption {
	return func(hc *harnessConfig) { hc.mutate = fn }
}

// NewTestHarness loads and validates fixtures, failing the test on any
// loader or validation error.
func NewTestHarness(t *testing.T, opts ...HarnessOption) *TestHarness {
	t.Helper()

	hc := &harnessConfig{
		fixtureDirs: []string{FixturesDir()},
		now:         time.Date(2025, 3, 4, 9, 0, 0, 0, time.UTC),
	}
	for _, opt := range opts {
		opt(hc)
	}

	cfg := config.Defaults()
	cfg.Fixtures.Directories = hc.fixtureDirs
	if hc.mutate != nil {
		hc.mutate(cfg)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("invalid harness config: %v", err)
	}

	records, err := fixture.NewLoader().LoadAll(cfg.Fixtures.Directories)
	if err != nil {
		t.Fatalf("load fixtures: %v", err)
	}
	if verrs := fixture.NewValidator().Validate(records); len(verrs) > 0 {
		for _, ve := range verrs {
			t.Errorf("fixture validation: %v", ve)
		}
		t.FailNow()
	}

	gatherer := prometheus.NewRegistry()
	metrics := observability.InitMetrics(gatherer)
	registry := fixture.NewRegistry(records)
	metrics.SetFixturesLoaded(registry.Len())

	now := hc.now
	return &TestHarness{
		t:        t,
		Config:   cfg,
		Registry: registry,
		Metrics:  metrics,
		Gatherer: gatherer,
		Provider: worklist.NewProvider(registry, cfg, nil, metrics,
			worklist.WithNow(func() time.Time { return now })),
	}
}

// Derive returns the view for a patient at a snapshot, failing the test on
// error.
func (h *TestHarness) Derive(patientID, stateID string) worklist.View {
	h.t.Helper()
	view, err := h.Provider.Derive(context.Background(), patientID, worklist.Request{StateID: stateID})
	if err != nil {
		h.t.Fatalf("Derive(%q, %q): %v", patientID, stateID, err)
	}
	return view
}

// States returns "" followed by every snapshot id of the patient, in order.
func (h *TestHarness) States(patientID string) []string {
	h.t.Helper()
	rec, ok := h.Registry.Get(patientID)
	if !ok {
		h.t.Fatalf("patient %q not loaded", patientID)
	}
	states := []string{""}
	for _, s := range rec.DemoStates {
		states = append(states, s.StateID)
	}
	return states
}

// FixturesDir returns the absolute path of the repository's demo fixtures.
func FixturesDir() string {
	_, file, _, _ := runtime.Caller(0)
	return filepath.Join(filepath.Dir(file), "..", "..", "fixtures")
}
