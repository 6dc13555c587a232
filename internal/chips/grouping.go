package chips

import (
	"regexp"
	"strings"
)

// NeedsAttentionLabel is the synthesized parent when tags arrive without any
// parent chip.
const NeedsAttentionLabel = "Needs Attention"

// Subchip is a formatted sub-tag with its classification.
type Subchip struct {
	Label string   `json:"label"`
	Type  ChipType `json:"type"`
}

// ChipGroup is a parent status chip and the sub-tags it claimed.
type ChipGroup struct {
	Chip   string    `json:"chip"`
	Raw    string    `json:"raw"`
	Family string    `json:"family,omitempty"`
	Tags   []Subchip `json:"tags"`
}

type parentFamily struct {
	name   string
	detect *regexp.Regexp
	claims *regexp.Regexp
}

// parentFamilies picks the keyword family for a parent chip; the first family
// whose detect pattern matches the parent text wins.
var parentFamilies = []parentFamily{
	{
		name:   "auth",
		detect: regexp.MustCompile(`\b(auth\w*|payer|insurance|appeal|p2p|peer[- ]to[- ]peer|precert\w*|denial)\b`),
		claims: regexp.MustCompile(`\b(auth\w*|payer|insurance|appeal|p2p|peer[- ]to[- ]peer|precert\w*|denial|denied|portal|clinicals|fax\w*|ur|um)\b`),
	},
	{
		name:   "placement",
		detect: regexp.MustCompile(`\b(placement|facility|facilities|snf|irf|ltach|alf|rehab|bed|referral\w*)\b`),
		claims: regexp.MustCompile(`\b(placement|facility|facilities|snf|irf|ltach|alf|rehab|bed|referral\w*|accept\w*|packet|intake|admissions?)\b`),
	},
	{
		name:   "md",
		detect: regexp.MustCompile(`\b(md|sign[- ]?off|physician|attending|hospitalist|clearance)\b`),
		claims: regexp.MustCompile(`\b(md|sign[- ]?off|signed|signature|physician|attending|hospitalist|clearance|order\w*|note)\b`),
	},
	{
		name:   "family",
		detect: regexp.MustCompile(`\b(family|decision|caregiver|goals of care|poa|guardian)\b`),
		claims: regexp.MustCompile(`\b(family|decision|decide\w*|caregiver|goals of care|poa|guardian|consent|meeting|daughter|son|spouse|wife|husband)\b`),
	},
	{
		name:   "discharge",
		detect: regexp.MustCompile(`\b(discharge|teaching|education|transport\w*|dme|home health)\b`),
		claims: regexp.MustCompile(`\b(discharge|teaching|education|transport\w*|dme|home health|ride|wheelchair|oxygen|meds|pharmacy|instructions)\b`),
	},
}

var matchNothing = regexp.MustCompile(`[^\s\S]`)

// familyFor returns the family name and claim pattern for a parent chip.
func familyFor(parent string) (string, *regexp.Regexp) {
	text := strings.ToLower(normalize(parent))
	for _, f := range parentFamilies {
		if f.detect.MatchString(text) {
			return f.name, f.claims
		}
	}
	return "", matchNothing
}

// Group assigns sub-tags to parent chips. Parents are scanned in order and
// each claims the first unclaimed tag its family matches; a tag is never
// claimed twice. Leftover tags go to the first parent. With tags but no
// parents a "Needs Attention" parent is synthesized. Empty input yields an
// empty result. Tags are sorted and formatted in their parent's context.
func Group(parents, tags []string) []ChipGroup {
	if len(parents) == 0 && len(tags) == 0 {
		return []ChipGroup{}
	}
	if len(parents) == 0 {
		return []ChipGroup{buildGroup(NeedsAttentionLabel, NeedsAttentionLabel, "", tags)}
	}

	claimed := make([]bool, len(tags))
	assigned := make([][]string, len(parents))
	families := make([]string, len(parents))
	for pi, parent := range parents {
		family, pattern := familyFor(parent)
		families[pi] = family
		for ti, tag := range tags {
			if claimed[ti] {
				continue
			}
			if pattern.MatchString(strings.ToLower(normalize(tag))) {
				claimed[ti] = true
				assigned[pi] = append(assigned[pi], tag)
				break
			}
		}
	}
	for ti, tag := range tags {
		if !claimed[ti] {
			assigned[0] = append(assigned[0], tag)
		}
	}

	groups := make([]ChipGroup, len(parents))
	for pi, parent := range parents {
		groups[pi] = buildGroup(TitleCase(normalize(parent)), parent, families[pi], assigned[pi])
	}
	return groups
}

func buildGroup(label, raw, family string, tags []string) ChipGroup {
	sorted := Sort(tags, raw)
	subs := make([]Subchip, len(sorted))
	for i, t := range sorted {
		subs[i] = Subchip{Label: Format(t), Type: Classify(t, raw)}
	}
	return ChipGroup{Chip: label, Raw: raw, Family: family, Tags: subs}
}
