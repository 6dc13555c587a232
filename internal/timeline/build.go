package timeline

import (
	"cmp"
	"regexp"
	"slices"
	"strings"

	"github.com/pitabwire/worklist/internal/evidence"
	"github.com/pitabwire/worklist/model"
)

var decisionLabel = regexp.MustCompile(`\b(decision|decide[sd]?|choose|choice|select\w*|consent|goals of care|family meeting|approv\w*|accept\w*)\b`)

type stateRule struct {
	state   State
	pattern *regexp.Regexp
}

// executionStates is evaluated in order over "event result".
var executionStates = []stateRule{
	{StateBlocked, regexp.MustCompile(`fail\w*|error|denied|reject\w*|bounced?|busy|timed? ?out|unable|no answer|undeliverable`)},
	{StateComplete, regexp.MustCompile(`success\w*|complete[d]?|confirmed|\bsent\b|delivered|received|approved|\bdone\b|accepted|signed`)},
	{StatePending, regexp.MustCompile(`pending|queued|scheduled|waiting|awaiting|in progress|retry\w*|submitted`)},
}

// Build merges the patient's blockers, milestones and execution log into a
// deduplicated, sorted timeline. When that merge is empty and
// FallbackToEncounters is set, raw encounter events are used instead.
func Build(p *model.PatientRecord, opts Options) []Entry {
	var merged []Entry
	merged = append(merged, blockerEntries(p, opts)...)
	merged = append(merged, milestoneEntries(p, opts)...)
	merged = append(merged, executionEntries(p, opts)...)

	if len(merged) == 0 && opts.FallbackToEncounters {
		merged = encounterEntries(p, opts)
	}

	out := dedup(merged)
	sortEntries(out, opts.SortMode)
	return out
}

func blockerEntries(p *model.PatientRecord, opts Options) []Entry {
	out := make([]Entry, 0, len(p.Blockers))
	for _, b := range p.Blockers {
		state := StateBlocked
		ts := firstNonEmpty(b.SurfacedAtLocal, b.EvidenceSummary.LastUpdatedLocal)
		if !opts.Overrides.IsBlockerActive(b) {
			state = StateComplete
			ts = firstNonEmpty(b.ResolvedAtLocal, b.SurfacedAtLocal, b.EvidenceSummary.LastUpdatedLocal)
		}
		out = append(out, Entry{
			ID:             b.BlockerID,
			Kind:           KindBlocker,
			State:          state,
			Label:          b.Description,
			Detail:         b.SummaryLine,
			TimestampLocal: ts,
			Major:          b.Severity == model.SeverityRed || b.Severity == model.SeverityOrange,
			Evidence:       evidence.Dedup(evidence.ForBlockers(p, b.BlockerID)),
			At:             model.TimestampOrUnknown(ts, opts.Location),
		})
	}
	return out
}

func milestoneEntries(p *model.PatientRecord, opts Options) []Entry {
	var out []Entry
	for _, m := range p.Milestones {
		if m.Tier != model.TierScaffold && m.Tier != model.TierCMCritical {
			continue
		}
		if m.Status == model.MilestoneNotNeeded {
			continue
		}
		kind := KindMilestone
		if IsDecision(m) {
			kind = KindDecision
		}
		out = append(out, Entry{
			ID:             m.MilestoneID,
			Kind:           kind,
			State:          milestoneState(m.Status),
			Label:          m.Label,
			Detail:         m.StatusReason,
			TimestampLocal: m.LastUpdatedLocal,
			Major:          kind == KindDecision || isEmphasized(m.DisplayEmphasis),
			Evidence:       evidence.ForMilestone(p, m),
			At:             model.TimestampOrUnknown(m.LastUpdatedLocal, opts.Location),
		})
	}
	return out
}

func executionEntries(p *model.PatientRecord, opts Options) []Entry {
	out := make([]Entry, 0, len(p.ExecutionLog))
	for _, l := range p.ExecutionLog {
		state := ExecutionState(l.Event, l.Result)
		var ev []evidence.Ref
		if l.RelatedActionID != "" {
			ev = evidence.ForAction(p, l.RelatedActionID)
		}
		out = append(out, Entry{
			ID:             l.LogID,
			Kind:           KindExecution,
			State:          state,
			Label:          l.Event,
			Detail:         l.Result,
			Actor:          l.Actor,
			TimestampLocal: l.TimestampLocal,
			Major:          state == StateBlocked,
			Evidence:       evidence.Dedup(ev),
			At:             model.TimestampOrUnknown(l.TimestampLocal, opts.Location),
		})
	}
	return out
}

func encounterEntries(p *model.PatientRecord, opts Options) []Entry {
	out := make([]Entry, 0, len(p.EncounterTimeline))
	for _, ev := range p.EncounterTimeline {
		out = append(out, Entry{
			ID:             ev.EventID,
			Kind:           KindEncounter,
			State:          StateNeutral,
			Label:          ev.Label,
			Detail:         ev.Detail,
			Actor:          ev.Source,
			TimestampLocal: ev.TimestampLocal,
			Major:          true,
			Evidence:       []evidence.Ref{},
			At:             model.TimestampOrUnknown(ev.TimestampLocal, opts.Location),
		})
	}
	return out
}

// IsDecision reports whether a milestone renders as a decision point.
func IsDecision(m model.MilestoneItem) bool {
	return m.Tier == model.TierCMCritical || m.ChangesNextAction ||
		decisionLabel.MatchString(strings.ToLower(m.Label))
}

// ExecutionState classifies a log entry by its event and result text.
func ExecutionState(event, result string) State {
	text := strings.ToLower(event + " " + result)
	for _, r := range executionStates {
		if r.pattern.MatchString(text) {
			return r.state
		}
	}
	return StateNeutral
}

func milestoneState(s model.MilestoneStatus) State {
	switch s {
	case model.MilestoneDone:
		return StateComplete
	case model.MilestonePending:
		return StatePending
	}
	return StateNeutral
}

func isEmphasized(emphasis string) bool {
	switch strings.ToUpper(emphasis) {
	case "MAJOR", "HIGH", "PRIMARY":
		return true
	}
	return false
}

func dedup(in []Entry) []Entry {
	seen := make(map[string]struct{}, len(in))
	out := make([]Entry, 0, len(in))
	for _, e := range in {
		if _, dup := seen[e.ID]; dup {
			continue
		}
		seen[e.ID] = struct{}{}
		out = append(out, e)
	}
	return out
}

func sortEntries(entries []Entry, mode SortMode) {
	byKind := mode != SortChronological
	slices.SortStableFunc(entries, func(a, b Entry) int {
		if byKind {
			if c := cmp.Compare(kindPriority[a.Kind], kindPriority[b.Kind]); c != 0 {
				return c
			}
		}
		if c := cmp.Compare(b.At, a.At); c != 0 {
			return c
		}
		return strings.Compare(a.Label, b.Label)
	})
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
