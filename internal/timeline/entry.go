// Package timeline merges blockers, milestones and execution-log entries into
// one typed, deduplicated, sorted list.
package timeline

import (
	"time"

	"github.com/pitabwire/worklist/internal/evidence"
	"github.com/pitabwire/worklist/model"
)

// Kind of a timeline entry.
type Kind string

const (
	KindBlocker   Kind = "blocker"
	KindDecision  Kind = "decision"
	KindMilestone Kind = "milestone"
	KindExecution Kind = "execution"
	KindEncounter Kind = "encounter"
)

var kindPriority = map[Kind]int{
	KindBlocker:   0,
	KindDecision:  1,
	KindMilestone: 2,
	KindExecution: 3,
	KindEncounter: 4,
}

// State is the visual treatment of an entry.
type State string

const (
	StateBlocked  State = "blocked"
	StateComplete State = "complete"
	StatePending  State = "pending"
	StateNeutral  State = "neutral"
)

// SortMode selects the ordering of Build's output.
type SortMode string

const (
	// SortBlockerFirst orders by kind priority, then newest first, then label.
	SortBlockerFirst SortMode = "blocker-first"
	// SortChronological orders newest first, then label.
	SortChronological SortMode = "chronological"
)

// Valid reports whether m is a known sort mode. The empty mode is valid and
// means SortBlockerFirst.
func (m SortMode) Valid() bool {
	return m == "" || m == SortBlockerFirst || m == SortChronological
}

// Entry is one row of the merged timeline.
type Entry struct {
	ID             string         `json:"id"`
	Kind           Kind           `json:"kind"`
	State          State          `json:"state"`
	Label          string         `json:"label"`
	Detail         string         `json:"detail,omitempty"`
	Actor          string         `json:"actor,omitempty"`
	TimestampLocal string         `json:"timestamp_local,omitempty"`
	Major          bool           `json:"major"`
	Evidence       []evidence.Ref `json:"evidence"`

	// At is TimestampLocal in epoch ms, or model.UnknownTime.
	At int64 `json:"-"`
}

// Options controls Build.
type Options struct {
	SortMode             SortMode
	FallbackToEncounters bool
	Overrides            *model.Overrides
	Location             *time.Location
}
