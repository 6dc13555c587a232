// Package evidence resolves the evidence join table and encounter source
// references into flat, deduplicated lists. Dangling ids resolve to nothing.
package evidence

import (
	"slices"

	"github.com/pitabwire/worklist/model"
)

// ClinicalSourceLabel labels a source ref that names no known encounter event.
const ClinicalSourceLabel = "Clinical source"

// Source types produced here in addition to the fixture's own.
const (
	SourceEncounter = "ENCOUNTER"
	SourceClinical  = "CLINICAL"
)

// Ref is one piece of evidence attached to a derived entry or node.
type Ref struct {
	ID             string `json:"id"`
	SourceType     string `json:"source_type"`
	SourceLabel    string `json:"source_label"`
	TimestampLocal string `json:"timestamp_local,omitempty"`
	Snippet        string `json:"snippet,omitempty"`
	Synthetic      bool   `json:"synthetic,omitempty"`
}

// ForBlockers returns evidence items linked to any of the given blocker ids,
// in fixture order.
func ForBlockers(p *model.PatientRecord, blockerIDs ...string) []Ref {
	if len(blockerIDs) == 0 {
		return nil
	}
	var out []Ref
	for _, e := range p.Evidence {
		if intersects(e.LinkedTo.BlockerIDs, blockerIDs) {
			out = append(out, fromItem(e))
		}
	}
	return out
}

// ForAction returns evidence items linked to actionID.
func ForAction(p *model.PatientRecord, actionID string) []Ref {
	var out []Ref
	for _, e := range p.Evidence {
		if slices.Contains(e.LinkedTo.ActionIDs, actionID) {
			out = append(out, fromItem(e))
		}
	}
	return out
}

// ForSourceRefs resolves encounter event ids. A ref that names no event
// becomes a synthetic "Clinical source" entry so the reference stays visible.
func ForSourceRefs(p *model.PatientRecord, refs []string) []Ref {
	var out []Ref
	for _, ref := range refs {
		if ref == "" {
			continue
		}
		if ev, ok := findEvent(p, ref); ok {
			out = append(out, Ref{
				ID:             ev.EventID,
				SourceType:     SourceEncounter,
				SourceLabel:    ev.Label,
				TimestampLocal: ev.TimestampLocal,
				Snippet:        ev.Detail,
			})
			continue
		}
		out = append(out, Ref{
			ID:          ref,
			SourceType:  SourceClinical,
			SourceLabel: ClinicalSourceLabel,
			Synthetic:   true,
		})
	}
	return out
}

// LinkedBlockerIDs returns the ids of blockers that list milestoneID in their
// related milestones.
func LinkedBlockerIDs(p *model.PatientRecord, milestoneID string) []string {
	var out []string
	for _, b := range p.Blockers {
		if slices.Contains(b.RelatedMilestones, milestoneID) {
			out = append(out, b.BlockerID)
		}
	}
	return out
}

// ForMilestone combines the evidence of blockers related to m with m's own
// source refs.
func ForMilestone(p *model.PatientRecord, m model.MilestoneItem) []Ref {
	return Dedup(
		ForBlockers(p, LinkedBlockerIDs(p, m.MilestoneID)...),
		ForSourceRefs(p, m.SourceRefs),
	)
}

// Dedup concatenates lists keeping the first occurrence of each id. It never
// returns nil.
func Dedup(lists ...[]Ref) []Ref {
	seen := make(map[string]struct{})
	out := []Ref{}
	for _, list := range lists {
		for _, r := range list {
			if _, dup := seen[r.ID]; dup {
				continue
			}
			seen[r.ID] = struct{}{}
			out = append(out, r)
		}
	}
	return out
}

func fromItem(e model.EvidenceItem) Ref {
	return Ref{
		ID:             e.EvidenceID,
		SourceType:     e.SourceType,
		SourceLabel:    e.SourceLabel,
		TimestampLocal: e.TimestampLocal,
		Snippet:        e.Snippet,
	}
}

func findEvent(p *model.PatientRecord, id string) (model.EncounterEvent, bool) {
	for _, ev := range p.EncounterTimeline {
		if ev.EventID == id {
			return ev, true
		}
	}
	return model.EncounterEvent{}, false
}

func intersects(a, b []string) bool {
	for _, x := range a {
		if slices.Contains(b, x) {
			return true
		}
	}
	return false
}
