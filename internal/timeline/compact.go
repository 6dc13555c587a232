package timeline

import (
	"github.com/pitabwire/worklist/model"
)

// DefaultCompactLimit caps BuildCompact when no positive limit is given.
const DefaultCompactLimit = 5

// Card is the compact worklist rendering of an Entry.
type Card struct {
	ID             string `json:"id"`
	Kind           Kind   `json:"kind"`
	State          State  `json:"state"`
	Title          string `json:"title"`
	Subtitle       string `json:"subtitle,omitempty"`
	TimestampLocal string `json:"timestamp_local,omitempty"`
	EvidenceCount  int    `json:"evidence_count"`
}

// BuildCompact runs Build and keeps the first limit entries as cards. A
// non-positive limit means DefaultCompactLimit.
func BuildCompact(p *model.PatientRecord, opts Options, limit int) []Card {
	if limit <= 0 {
		limit = DefaultCompactLimit
	}
	entries := Build(p, opts)
	if len(entries) > limit {
		entries = entries[:limit]
	}
	cards := make([]Card, len(entries))
	for i, e := range entries {
		cards[i] = Card{
			ID:             e.ID,
			Kind:           e.Kind,
			State:          e.State,
			Title:          e.Label,
			Subtitle:       subtitle(e, opts),
			TimestampLocal: e.TimestampLocal,
			EvidenceCount:  len(e.Evidence),
		}
	}
	return cards
}

// subtitle is the entry detail, else its time as "Jan 2 15:04".
func subtitle(e Entry, opts Options) string {
	if e.Detail != "" {
		return e.Detail
	}
	if e.At == model.UnknownTime {
		return ""
	}
	return model.ReferenceClock{NowMs: e.At, Location: opts.Location}.Time().Format("Jan 2 15:04")
}
