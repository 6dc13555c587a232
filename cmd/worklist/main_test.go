package main

import (
	"bytes"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const testPatient = `{
  "patient_id": "P100",
  "as_of_local": "2025-03-04T09:00:00",
  "profile": {"name": "Test Patient"},
  "worklist_view_state": {"disposition": "Home with PT"},
  "blockers": [
    {"blocker_id": "B1", "severity": "RED", "status": "ACTIVE", "description": "Auth", "due_by_local": "2025-03-04T09:30:00"}
  ],
  "proposed_actions": [],
  "demo_states": [
    {"state_id": "S1", "timestamp_local": "2025-03-04T09:00:00"},
    {"state_id": "S2", "timestamp_local": "2025-03-04T12:00:00", "blocker_status_overrides": {"B1": "RESOLVED"}}
  ]
}`

// writeFixtures creates a fixtures directory and a config file pointing at
// it, returning the config path.
func writeFixtures(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	fixtures := filepath.Join(dir, "fixtures")
	if err := os.MkdirAll(fixtures, 0o755); err != nil {
		t.Fatal(err)
	}
	for name, content := range files {
		if err := os.WriteFile(filepath.Join(fixtures, name), []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	cfgPath := filepath.Join(dir, "config.yaml")
	cfg := "fixtures:\n  directories:\n    - " + fixtures + "\nobservability:\n  log_level: error\n"
	if err := os.WriteFile(cfgPath, []byte(cfg), 0o644); err != nil {
		t.Fatal(err)
	}
	return cfgPath
}

func decodeViews(t *testing.T, r io.Reader) []map[string]any {
	t.Helper()
	var views []map[string]any
	dec := json.NewDecoder(r)
	for dec.More() {
		var v map[string]any
		if err := dec.Decode(&v); err != nil {
			t.Fatalf("decoding view: %v", err)
		}
		views = append(views, v)
	}
	return views
}

func TestRun_printsViews(t *testing.T) {
	cfgPath := writeFixtures(t, map[string]string{"p100.json": testPatient})
	var stdout, stderr bytes.Buffer

	if code := run([]string{"-config", cfgPath}, &stdout, &stderr); code != 0 {
		t.Fatalf("run() = %d, stderr:\n%s", code, stderr.String())
	}

	views := decodeViews(t, &stdout)
	if len(views) != 1 {
		t.Fatalf("got %d views, want 1", len(views))
	}
	if views[0]["patient_id"] != "P100" {
		t.Errorf("patient_id = %v, want P100", views[0]["patient_id"])
	}
	disp, _ := views[0]["disposition"].(map[string]any)
	if disp["destination_label"] != "Home" {
		t.Errorf("disposition = %v, want Home destination", disp)
	}
}

func TestRun_advance(t *testing.T) {
	cfgPath := writeFixtures(t, map[string]string{"p100.json": testPatient})
	var stdout, stderr bytes.Buffer

	code := run([]string{"-config", cfgPath, "-state", "S1", "-advance"}, &stdout, &stderr)
	if code != 0 {
		t.Fatalf("run() = %d, stderr:\n%s", code, stderr.String())
	}
	views := decodeViews(t, &stdout)
	if len(views) != 1 || views[0]["state_id"] != "S2" {
		t.Fatalf("state_id = %v, want S2", views[0]["state_id"])
	}
}

func TestRun_metricsDump(t *testing.T) {
	cfgPath := writeFixtures(t, map[string]string{"p100.json": testPatient})
	var stdout, stderr bytes.Buffer

	if code := run([]string{"-config", cfgPath, "-metrics"}, &stdout, &stderr); code != 0 {
		t.Fatalf("run() = %d", code)
	}
	if !strings.Contains(stderr.String(), "worklist_fixtures_loaded 1") {
		t.Errorf("metrics dump missing fixture gauge:\n%s", stderr.String())
	}
}

func TestRun_unknownPatient(t *testing.T) {
	cfgPath := writeFixtures(t, map[string]string{"p100.json": testPatient})
	var stdout, stderr bytes.Buffer

	if code := run([]string{"-config", cfgPath, "-patient", "NOPE"}, &stdout, &stderr); code != 1 {
		t.Errorf("run() = %d, want 1", code)
	}
	if stdout.Len() != 0 {
		t.Errorf("no view should be printed, got:\n%s", stdout.String())
	}
}

func TestRun_unknownState(t *testing.T) {
	cfgPath := writeFixtures(t, map[string]string{"p100.json": testPatient})
	var stdout, stderr bytes.Buffer

	if code := run([]string{"-config", cfgPath, "-state", "S9"}, &stdout, &stderr); code != 1 {
		t.Errorf("run() = %d, want 1", code)
	}
}

func TestRun_validationFailure(t *testing.T) {
	cfgPath := writeFixtures(t, map[string]string{
		"a.json": testPatient,
		"b.json": testPatient,
	})
	var stdout, stderr bytes.Buffer

	if code := run([]string{"-config", cfgPath}, &stdout, &stderr); code != 1 {
		t.Errorf("run() = %d, want 1 for duplicate patient ids", code)
	}
	if stdout.Len() != 0 {
		t.Error("no view should be printed when validation fails")
	}
}

func TestRun_missingConfig(t *testing.T) {
	var stdout, stderr bytes.Buffer
	if code := run([]string{"-config", filepath.Join(t.TempDir(), "missing.yaml")}, &stdout, &stderr); code != 1 {
		t.Errorf("run() = %d, want 1", code)
	}
	if !strings.Contains(stderr.String(), "configuration error") {
		t.Errorf("stderr = %q", stderr.String())
	}
}

func TestRun_badFlag(t *testing.T) {
	var stdout, stderr bytes.Buffer
	if code := run([]string{"-bogus"}, &stdout, &stderr); code != 2 {
		t.Errorf("run() = %d, want 2", code)
	}
}
