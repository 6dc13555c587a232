package journey

import (
	"regexp"
	"strings"
)

// Admission stages of the scaffold backbone.
const (
	StageEDArrival      = 0
	StageInpatientBed   = 1
	StageFirstAttending = 2
	StageDispositionSet = 3
	StageMedicallyReady = 4
	StageDischargeOrder = 5
	StageDeparture      = 6
	StageUnrecognized   = 50
)

type stageRule struct {
	stage   int
	pattern *regexp.Regexp
	// exclude vetoes a match, so the label falls through to later rules.
	exclude *regexp.Regexp
}

// stageRules is evaluated in order against the lowercased label. The generic
// "discharge" rule sits last so the more specific discharge stages win.
var stageRules = []stageRule{
	{StageDischargeOrder, regexp.MustCompile(`discharge order|\bdc order|order(ed)? (to|for) discharge`), nil},
	{StageMedicallyReady, regexp.MustCompile(`medically (fit|ready|stable|cleared)|(fit|ready|cleared) for discharge`), nil},
	{StageEDArrival, regexp.MustCompile(`\b(ed|er|emergency( department)?|triage)\b`), nil},
	{StageInpatientBed, regexp.MustCompile(`inpatient|\bbed\b|admitted to|arriv\w* (on|to) (the )?(unit|floor)`), nil},
	{StageFirstAttending, regexp.MustCompile(`attending|hospitalist|first (md|physician|provider)|\bh&p\b`), nil},
	{StageDispositionSet, regexp.MustCompile(`disposition|\bdispo\b|\bedd\b|(expected|anticipated|estimated|planned|target) (discharge )?(date|destination)|discharge (date|destination|plan)`), nil},
	{StageDeparture, regexp.MustCompile(`\bdepart\w*|discharged|left (the )?(hospital|unit|facility)|\bdischarge\b`), plannedDischarge},
}

var plannedDischarge = regexp.MustCompile(`\bdischarge (date|destination|plan\w*|target|goal)\b|\bedd\b`)

// StageRank maps a scaffold label to its admission stage.
func StageRank(label string) int {
	text := strings.ToLower(strings.Join(strings.Fields(label), " "))
	for _, r := range stageRules {
		if r.pattern.MatchString(text) && (r.exclude == nil || !r.exclude.MatchString(text)) {
			return r.stage
		}
	}
	return StageUnrecognized
}
