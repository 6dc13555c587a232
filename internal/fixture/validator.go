package fixture

import (
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/pitabwire/worklist/model"
)

// Validation error codes.
const (
	CodeRequired    = "REQUIRED"
	CodeDuplicateID = "DUPLICATE_ID"
	CodeInvalidEnum = "INVALID_ENUM"
)

// VError describes a single validation error in a fixture.
type VError struct {
	Path    string `json:"path"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (e VError) Error() string {
	return fmt.Sprintf("%s: %s", e.Path, e.Message)
}

// Validator checks fixtures for the conditions that indicate a malformed
// file: missing ids, duplicate ids and unknown enum values. Dangling
// references between entities are allowed.
type Validator struct{}

// NewValidator creates a new Validator.
func NewValidator() *Validator {
	return &Validator{}
}

// Validate checks all records and returns every problem found.
func (v *Validator) Validate(records []model.PatientRecord) []VError {
	var errs []VError
	seen := make(map[string]string)
	for i, rec := range records {
		prefix := fmt.Sprintf("patients[%d]", i)
		if rec.SourceFile != "" {
			prefix = rec.SourceFile
		}
		errs = append(errs, v.validatePatient(prefix, rec)...)

		if rec.PatientID == "" {
			continue
		}
		if first, dup := seen[rec.PatientID]; dup {
			errs = append(errs, VError{
				Path:    prefix + ".patient_id",
				Code:    CodeDuplicateID,
				Message: fmt.Sprintf("patient %q already defined in %s", rec.PatientID, first),
			})
			continue
		}
		seen[rec.PatientID] = prefix
	}
	return errs
}

func (v *Validator) validatePatient(prefix string, rec model.PatientRecord) []VError {
	var errs []VError
	if rec.PatientID == "" {
		errs = append(errs, required(prefix+".patient_id"))
	}

	ids := newIDSet()
	for i, b := range rec.Blockers {
		bp := fmt.Sprintf("%s.blockers[%d]", prefix, i)
		errs = append(errs, ids.check(bp+".blocker_id", "blocker", b.BlockerID)...)
		if !b.Severity.Valid() {
			errs = append(errs, invalidEnum(bp+".severity", string(b.Severity)))
		}
		if !b.Status.Valid() {
			errs = append(errs, invalidEnum(bp+".status", string(b.Status)))
		}
	}

	ids = newIDSet()
	for i, a := range rec.ProposedActions {
		ap := fmt.Sprintf("%s.proposed_actions[%d]", prefix, i)
		errs = append(errs, ids.check(ap+".action_id", "action", a.ActionID)...)
		if !a.Status.Valid() {
			errs = append(errs, invalidEnum(ap+".status", string(a.Status)))
		}
		if a.Priority != "" && !a.Priority.Valid() {
			errs = append(errs, invalidEnum(ap+".priority", string(a.Priority)))
		}
		if a.ExecutionModeDefault != "" && !a.ExecutionModeDefault.Valid() {
			errs = append(errs, invalidEnum(ap+".execution_mode_default", string(a.ExecutionModeDefault)))
		}
	}

	ids = newIDSet()
	for i, m := range rec.Milestones {
		mp := fmt.Sprintf("%s.milestones[%d]", prefix, i)
		errs = append(errs, ids.check(mp+".milestone_id", "milestone", m.MilestoneID)...)
		if !m.Status.Valid() {
			errs = append(errs, invalidEnum(mp+".status", string(m.Status)))
		}
	}

	ids = newIDSet()
	for i, e := range rec.Evidence {
		errs = append(errs, ids.check(fmt.Sprintf("%s.evidence[%d].evidence_id", prefix, i), "evidence", e.EvidenceID)...)
	}

	ids = newIDSet()
	for i, l := range rec.ExecutionLog {
		errs = append(errs, ids.check(fmt.Sprintf("%s.execution_log[%d].log_id", prefix, i), "log entry", l.LogID)...)
	}

	ids = newIDSet()
	for i, s := range rec.DemoStates {
		sp := fmt.Sprintf("%s.demo_states[%d]", prefix, i)
		errs = append(errs, ids.check(sp+".state_id", "demo state", s.StateID)...)
		for _, id := range slices.Sorted(maps.Keys(s.BlockerStatusOverrides)) {
			if st := s.BlockerStatusOverrides[id]; !st.Valid() {
				errs = append(errs, invalidEnum(sp+".blocker_status_overrides."+id, string(st)))
			}
		}
		for _, id := range slices.Sorted(maps.Keys(s.ActionStatusOverrides)) {
			if st := s.ActionStatusOverrides[id]; !st.Valid() {
				errs = append(errs, invalidEnum(sp+".action_status_overrides."+id, string(st)))
			}
		}
	}
	return errs
}

// idSet tracks ids of one entity kind within a patient.
type idSet map[string]bool

func newIDSet() idSet { return make(idSet) }

func (s idSet) check(path, kind, id string) []VError {
	if id == "" {
		return []VError{required(path)}
	}
	if s[id] {
		return []VError{{Path: path, Code: CodeDuplicateID, Message: fmt.Sprintf("duplicate %s id %q", kind, id)}}
	}
	s[id] = true
	return nil
}

func required(path string) VError {
	return VError{Path: path, Code: CodeRequired, Message: path[strings.LastIndex(path, ".")+1:] + " is required"}
}

func invalidEnum(path, value string) VError {
	return VError{Path: path, Code: CodeInvalidEnum, Message: fmt.Sprintf("invalid value %q", value)}
}
