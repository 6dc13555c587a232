// Package agents derives automation status rows from proposed actions, their
// overrides and the execution log.
package agents

import (
	"cmp"
	"regexp"
	"slices"
	"strings"
	"time"

	"github.com/pitabwire/worklist/internal/actions"
	"github.com/pitabwire/worklist/model"
)

// State of an automation row.
type State string

const (
	StateFailed  State = "Failed"
	StateRunning State = "Running"
	StatePaused  State = "Paused"
	StateIdle    State = "Idle"
)

var stateRank = map[State]int{
	StateFailed:  0,
	StateRunning: 1,
	StatePaused:  2,
	StateIdle:    3,
}

// GenericFailureText is shown for a failed action with no logged result.
const GenericFailureText = "Automation failed. No details were logged."

var outreach = regexp.MustCompile(`\b(call\w*|fax\w*|e-?mail\w*|outreach|follow[- ]?up|contact\w*|notify|remind\w*|portal|auth\w*|payer|insurance|referral\w*|send|submit\w*|check\w*|escalat\w*|appeal|p2p|peer[- ]to[- ]peer)\b`)

// Row is one automation line on the worklist.
type Row struct {
	ActionID    string              `json:"action_id"`
	Name        string              `json:"name"`
	State       State               `json:"state"`
	Status      model.ActionStatus  `json:"status"`
	Mode        model.ExecutionMode `json:"mode"`
	Priority    model.Priority      `json:"priority"`
	LastRun     string              `json:"last_run,omitempty"`
	NextRun     string              `json:"next_run,omitempty"`
	FailureText string              `json:"failure_text,omitempty"`
	RunCount    int                 `json:"run_count"`
}

// Build returns the automation rows for actions that relate to an active
// blocker, sorted by state then name. Timestamps are read and rendered in
// loc.
func Build(p *model.PatientRecord, overrides *model.Overrides, loc *time.Location) []Row {
	var active []string
	for _, b := range p.Blockers {
		if overrides.IsBlockerActive(b) {
			active = append(active, b.BlockerID)
		}
	}

	rows := []Row{}
	for _, a := range p.ProposedActions {
		if !IsBlockerLinked(a, active) {
			continue
		}
		rows = append(rows, buildRow(p, a, overrides, loc))
	}
	slices.SortStableFunc(rows, func(a, b Row) int {
		if c := cmp.Compare(stateRank[a.State], stateRank[b.State]); c != 0 {
			return c
		}
		return strings.Compare(a.Name, b.Name)
	})
	return rows
}

// IsBlockerLinked reports whether a depends on one of the active blocker ids
// or reads like outreach/authorization work.
func IsBlockerLinked(a model.ProposedAction, activeBlockerIDs []string) bool {
	for _, id := range activeBlockerIDs {
		if actions.DependsOn(a, id) {
			return true
		}
	}
	return outreach.MatchString(strings.ToLower(a.Title + " " + a.Reason))
}

// Derive runs the row state machine: FAILED dominates; BACKGROUND actions
// that are executed, proposed or snoozed are Running and dismissed ones are
// Paused; everything else is Idle.
func Derive(status model.ActionStatus, mode model.ExecutionMode) State {
	if status == model.ActionFailed {
		return StateFailed
	}
	if mode == model.ModeBackground {
		switch status {
		case model.ActionExecuted, model.ActionProposed, model.ActionSnoozed:
			return StateRunning
		case model.ActionDismissed:
			return StatePaused
		}
	}
	return StateIdle
}

func buildRow(p *model.PatientRecord, a model.ProposedAction, overrides *model.Overrides, loc *time.Location) Row {
	status := overrides.EffectiveActionStatus(a)
	mode := overrides.EffectiveMode(a)
	row := Row{
		ActionID: a.ActionID,
		Name:     a.Title,
		State:    Derive(status, mode),
		Status:   status,
		Mode:     mode,
		Priority: a.Priority,
	}

	last, lastAt, runs := latestRun(p, a.ActionID, loc)
	row.RunCount = runs
	if lastAt != model.UnknownTime {
		row.LastRun = model.FormatLocal(lastAt, loc)
		if mode == model.ModeBackground && row.State == StateRunning && a.BackgroundPolicy != nil && a.BackgroundPolicy.CadenceHours > 0 {
			cadence := time.Duration(a.BackgroundPolicy.CadenceHours * float64(time.Hour))
			row.NextRun = model.FormatLocal(lastAt+cadence.Milliseconds(), loc)
		}
	}
	if row.State == StateFailed {
		row.FailureText = GenericFailureText
		if last != nil && strings.TrimSpace(last.Result) != "" {
			row.FailureText = last.Result
		}
	}
	return row
}

// latestRun returns the most recent log entry for actionID, its time, and
// the number of entries. Later entries win ties.
func latestRun(p *model.PatientRecord, actionID string, loc *time.Location) (*model.ExecutionLogEntry, int64, int) {
	var latest *model.ExecutionLogEntry
	latestAt := model.UnknownTime
	runs := 0
	if actionID == "" {
		return latest, latestAt, runs
	}
	for i := range p.ExecutionLog {
		l := &p.ExecutionLog[i]
		if l.RelatedActionID != actionID {
			continue
		}
		runs++
		at := model.TimestampOrUnknown(l.TimestampLocal, loc)
		if latest == nil || at >= latestAt {
			latest, latestAt = l, at
		}
	}
	return latest, latestAt, runs
}
