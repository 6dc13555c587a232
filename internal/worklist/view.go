package worklist

import (
	"github.com/pitabwire/worklist/internal/actions"
	"github.com/pitabwire/worklist/internal/agents"
	"github.com/pitabwire/worklist/internal/chips"
	"github.com/pitabwire/worklist/internal/deadline"
	"github.com/pitabwire/worklist/internal/disposition"
	"github.com/pitabwire/worklist/internal/evidence"
	"github.com/pitabwire/worklist/internal/journey"
	"github.com/pitabwire/worklist/internal/timeline"
	"github.com/pitabwire/worklist/model"
)

// Request selects the snapshot and local edits a view is derived under.
type Request struct {
	StateID   string           `json:"state_id,omitempty"`
	Overrides *model.Overrides `json:"overrides,omitempty"`
}

// View is every display structure derived for one patient. Views may be
// shared through the cache and must be treated as read-only.
type View struct {
	PatientID          string                  `json:"patient_id"`
	StateID            string                  `json:"state_id,omitempty"`
	NextStateID        string                  `json:"next_state_id,omitempty"`
	ReferenceTimeLocal string                  `json:"reference_time_local"`
	Profile            model.PatientProfile    `json:"profile"`
	Owner              string                  `json:"owner,omitempty"`
	Disposition        disposition.Disposition `json:"disposition"`
	Deadline           *deadline.Info          `json:"deadline,omitempty"`
	Chips              []chips.ChipGroup       `json:"chips"`
	Blockers           []BlockerCard           `json:"blockers"`
	Timeline           []timeline.Entry        `json:"timeline"`
	CompactTimeline    []timeline.Card         `json:"compact_timeline"`
	Journey            journey.Journey         `json:"journey"`
	Agents             []agents.Row            `json:"agents"`
}

// BlockerCard is a blocker with its effective status, deadline and the
// actions selected for it.
type BlockerCard struct {
	BlockerID   string              `json:"blocker_id"`
	Description string              `json:"description"`
	SummaryLine string              `json:"summary_line,omitempty"`
	Severity    model.Severity      `json:"severity"`
	Status      model.BlockerStatus `json:"status"`
	Due         *deadline.Info      `json:"due,omitempty"`
	Selection   actions.Selection   `json:"selection"`
	Evidence    []evidence.Ref      `json:"evidence"`
}
