// Package actions links proposed actions to the blocker they address.
package actions

import (
	"regexp"
	"slices"
	"strings"

	"github.com/pitabwire/worklist/model"
)

// Linkage names the rule that produced a selection.
type Linkage string

const (
	LinkDependency Linkage = "dependency"
	LinkKeyword    Linkage = "keyword"
	// LinkFallback means nothing linked, so every action is returned.
	LinkFallback Linkage = "fallback"
)

// Selection is the result of linking actions to one blocker.
type Selection struct {
	BlockerID string                 `json:"blocker_id"`
	Linkage   Linkage                `json:"linkage"`
	Domain    string                 `json:"domain,omitempty"`
	Actions   []model.ProposedAction `json:"actions"`
}

type domainRule struct {
	name    string
	pattern *regexp.Regexp
}

// domains is evaluated in order against the blocker text; the first match
// picks the pattern actions are tested against.
var domains = []domainRule{
	{"auth", regexp.MustCompile(`auth\w*|payer|insurance|appeal|p2p|peer[- ]to[- ]peer|precert\w*|denial|denied`)},
	{"placement", regexp.MustCompile(`placement|facilit(y|ies)|snf|irf|ltach|\bbed\b|referral|rehab|accept`)},
	{"family", regexp.MustCompile(`family|caregiver|decision|daughter|\bson\b|spouse|\bpoa\b|guardian|goals of care`)},
	{"sign", regexp.MustCompile(`sign|\bmd\b|physician|attending|hospitalist|\border\b`)},
}

var nonAlnum = regexp.MustCompile(`[^a-z0-9]+`)

// PriorityRank orders priorities HIGH, MEDIUM, LOW; unknown sorts last.
func PriorityRank(p model.Priority) int {
	switch p {
	case model.PriorityHigh:
		return 0
	case model.PriorityMedium:
		return 1
	case model.PriorityLow:
		return 2
	}
	return 3
}

// SortByPriority returns a priority-ordered copy; ties keep input order.
func SortByPriority(in []model.ProposedAction) []model.ProposedAction {
	out := slices.Clone(in)
	if out == nil {
		out = []model.ProposedAction{}
	}
	slices.SortStableFunc(out, func(a, b model.ProposedAction) int {
		return PriorityRank(a.Priority) - PriorityRank(b.Priority)
	})
	return out
}

// Select links actions to b. Rules, in order: actions whose dependencies
// mention the blocker id; actions matching the blocker's keyword domain (or,
// with no domain, its longest summary tokens); otherwise every action.
// The result is always priority-sorted and never aliases the input.
func Select(b model.Blocker, all []model.ProposedAction) Selection {
	sel := Selection{BlockerID: b.BlockerID}

	if linked := filter(all, func(a model.ProposedAction) bool { return DependsOn(a, b.BlockerID) }); len(linked) > 0 {
		sel.Linkage = LinkDependency
		sel.Actions = SortByPriority(linked)
		return sel
	}

	domain, match := keywordMatcher(b)
	if linked := filter(all, func(a model.ProposedAction) bool { return match(actionText(a)) }); len(linked) > 0 {
		sel.Linkage = LinkKeyword
		sel.Domain = domain
		sel.Actions = SortByPriority(linked)
		return sel
	}

	sel.Linkage = LinkFallback
	sel.Actions = SortByPriority(all)
	return sel
}

// ForBlocker returns only the selected actions.
func ForBlocker(b model.Blocker, all []model.ProposedAction) []model.ProposedAction {
	return Select(b, all).Actions
}

// DependsOn reports whether any dependency of a contains blockerID,
// case-insensitively.
func DependsOn(a model.ProposedAction, blockerID string) bool {
	id := strings.ToLower(strings.TrimSpace(blockerID))
	if id == "" {
		return false
	}
	for _, dep := range a.Dependencies {
		if strings.Contains(strings.ToLower(dep), id) {
			return true
		}
	}
	return false
}

// Domain classifies a blocker into one of the keyword domains, or "".
func Domain(b model.Blocker) string {
	if d := domainFor(b); d != nil {
		return d.name
	}
	return ""
}

func domainFor(b model.Blocker) *domainRule {
	text := blockerText(b)
	for i := range domains {
		if domains[i].pattern.MatchString(text) {
			return &domains[i]
		}
	}
	return nil
}

func keywordMatcher(b model.Blocker) (string, func(string) bool) {
	if d := domainFor(b); d != nil {
		return d.name, d.pattern.MatchString
	}
	tokens := SummaryTokens(b.SummaryLine)
	return "", func(s string) bool {
		for _, tok := range tokens {
			if strings.Contains(s, tok) {
				return true
			}
		}
		return false
	}
}

// SummaryTokens returns up to three of the longest distinct alphanumeric
// tokens longer than four characters, lowercased. Equal lengths keep text
// order.
func SummaryTokens(summary string) []string {
	var tokens []string
	for _, tok := range nonAlnum.Split(strings.ToLower(summary), -1) {
		if len(tok) > 4 && !slices.Contains(tokens, tok) {
			tokens = append(tokens, tok)
		}
	}
	slices.SortStableFunc(tokens, func(a, b string) int { return len(b) - len(a) })
	if len(tokens) > 3 {
		tokens = tokens[:3]
	}
	return tokens
}

func blockerText(b model.Blocker) string {
	return strings.ToLower(strings.Join([]string{b.Type, b.Description, b.SummaryLine}, " "))
}

func actionText(a model.ProposedAction) string {
	return strings.ToLower(a.Title + " " + a.Reason)
}

func filter(in []model.ProposedAction, keep func(model.ProposedAction) bool) []model.ProposedAction {
	var out []model.ProposedAction
	for _, a := range in {
		if keep(a) {
			out = append(out, a)
		}
	}
	return out
}
