// Package deadline finds the most urgent deadline on a patient and renders it
// as a label with a proximity bucket.
package deadline

import (
	"fmt"
	"math"
	"regexp"
	"strings"
	"time"

	"github.com/pitabwire/worklist/model"
)

// Proximity buckets a deadline relative to the reference clock.
type Proximity string

const (
	Overdue Proximity = "overdue"
	Urgent  Proximity = "urgent"
	Soon    Proximity = "soon"
	Today   Proximity = "today"
	Future  Proximity = "future"
)

// AuthSource is the source label used for the insurance auth deadline.
const AuthSource = "Auth"

// Info is a formatted deadline.
type Info struct {
	DeadlineMs   int64     `json:"deadline_ms"`
	Source       string    `json:"source"`
	BlockerID    string    `json:"blocker_id,omitempty"`
	Proximity    Proximity `json:"proximity"`
	DiffMinutes  int64     `json:"diff_minutes"`
	ClockText    string    `json:"clock_text,omitempty"`
	RelativeText string    `json:"relative_text,omitempty"`
	Label        string    `json:"label"`
}

// ScenarioNow returns the patient's as_of_local as epoch ms when present and
// parseable, else the clock's own instant.
func ScenarioNow(p *model.PatientRecord, clock model.ReferenceClock) int64 {
	if ms, ok := model.ParseTimestamp(p.AsOfLocal, clock.Loc()); ok {
		return ms
	}
	return clock.NowMs
}

// MostUrgent scans active blockers with a parseable due_by_local and the
// insurance auth deadline and returns the earliest, formatted against clock.
// Equal timestamps keep the first one seen: blockers in order, auth last.
func MostUrgent(p *model.PatientRecord, overrides *model.Overrides, clock model.ReferenceClock) (Info, bool) {
	loc := clock.Loc()
	best := int64(math.MaxInt64)
	source := ""
	blockerID := ""
	found := false

	for _, b := range p.Blockers {
		if !overrides.IsBlockerActive(b) {
			continue
		}
		ms, ok := model.ParseTimestamp(b.DueByLocal, loc)
		if !ok {
			continue
		}
		if !found || ms < best {
			best, source, blockerID, found = ms, SourceLabel(b.Description), b.BlockerID, true
		}
	}
	if ms, ok := model.ParseTimestamp(p.Insurance.AuthDeadlineLocal, loc); ok {
		if !found || ms < best {
			best, source, blockerID, found = ms, AuthSource, "", true
		}
	}
	if !found {
		return Info{}, false
	}

	info := Format(best, source, clock)
	info.BlockerID = blockerID
	return info, true
}

var tokenSplit = regexp.MustCompile(`[\s-]+`)

// SourceLabel shortens a blocker description: descriptions longer than 15
// characters are cut to their first whitespace- or hyphen-delimited token.
func SourceLabel(description string) string {
	d := strings.TrimSpace(description)
	if len(d) <= 15 {
		return d
	}
	for _, tok := range tokenSplit.Split(d, -1) {
		if tok != "" {
			return tok
		}
	}
	return d
}

// Format classifies a deadline into a proximity bucket and renders its label.
func Format(deadlineMs int64, source string, clock model.ReferenceClock) Info {
	diff := roundMinutes(deadlineMs - clock.NowMs)
	info := Info{DeadlineMs: deadlineMs, Source: source, DiffMinutes: diff}

	deadline := model.ReferenceClock{NowMs: deadlineMs, Location: clock.Location}.Time()
	now := clock.Time()

	switch {
	case diff < 0:
		info.Proximity = Overdue
		info.RelativeText = "overdue " + hoursMinutes(-diff, true)
	case diff <= 60:
		info.Proximity = Urgent
		info.RelativeText = hoursMinutes(diff, true)
	case diff <= 240:
		info.Proximity = Soon
		info.RelativeText = hoursMinutes(diff, false)
	case sameDay(deadline, now):
		info.Proximity = Today
		info.RelativeText = "today"
	default:
		info.Proximity = Future
		info.Label = fmt.Sprintf("%s by %s", source, deadline.Format("Jan 2"))
		return info
	}

	info.ClockText = deadline.Format("15:04")
	info.Label = fmt.Sprintf("%s by %s (%s)", source, info.ClockText, info.RelativeText)
	return info
}

// roundMinutes rounds a millisecond span to minutes, halves toward +Inf.
func roundMinutes(ms int64) int64 {
	return int64(math.Floor(float64(ms)/60000 + 0.5))
}

// hoursMinutes renders "{h}h {m}m", or "{m}m" when h is zero and dropZero is
// set.
func hoursMinutes(total int64, dropZero bool) string {
	h, m := total/60, total%60
	if h == 0 && dropZero {
		return fmt.Sprintf("%dm", m)
	}
	return fmt.Sprintf("%dh %dm", h, m)
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}
