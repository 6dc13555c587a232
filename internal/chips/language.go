// Package chips classifies, formats and groups the free-text status tags shown
// on a worklist row.
package chips

import (
	"regexp"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"
)

// ChipType is the fixed taxonomy a sub-chip is classified into.
type ChipType string

const (
	TypeRequirement ChipType = "Requirement"
	TypeDependency  ChipType = "Dependency"
	TypeDeadline    ChipType = "Deadline"
	TypeStatus      ChipType = "Status"
	TypeFailure     ChipType = "Failure"
	TypeTask        ChipType = "Task"
	TypeRisk        ChipType = "Risk"
	TypeOwner       ChipType = "Owner"
	TypeNote        ChipType = "Note"
)

var typeRank = map[ChipType]int{
	TypeRequirement: 1,
	TypeDependency:  2,
	TypeDeadline:    3,
	TypeStatus:      4,
	TypeFailure:     5,
	TypeTask:        6,
	TypeRisk:        7,
	TypeOwner:       8,
	TypeNote:        9,
}

// Rank returns the display rank of t; unknown types sort with Note.
func Rank(t ChipType) int {
	if r, ok := typeRank[t]; ok {
		return r
	}
	return typeRank[TypeNote]
}

// classifyRule maps a pattern over normalized text to a chip type.
type classifyRule struct {
	chipType ChipType
	pattern  *regexp.Regexp
}

// classifyRules is evaluated top to bottom; the first match wins.
var classifyRules = []classifyRule{
	{TypeFailure, regexp.MustCompile(`\b(fail(ed|ure|ing)?|error|rejected|denied|denial|bounced|busy signal|no answer|unable|declined|undeliverable)\b`)},
	{TypeDeadline, regexp.MustCompile(`\b(due|deadline|expires?|expiring|overdue|eod|by (noon|tomorrow|today|\d{1,2}(:\d{2})?\s*(am|pm)?))\b|\b\d{1,2}:\d{2}\b`)},
	{TypeRequirement, regexp.MustCompile(`\b(required|requires?|needs?|must|missing|prior auth|documentation|signature)\b`)},
	{TypeDependency, regexp.MustCompile(`\b(waiting (on|for)|awaiting|depends? on|pending|blocked by|until|contingent)\b`)},
	{TypeRisk, regexp.MustCompile(`\b(risk|readmi(t|ssion)|fall|concern|unsafe|delay(ed)?|escalat\w*|barrier)\b`)},
	{TypeOwner, regexp.MustCompile(`\b(owner|assigned|case manager|social work(er)?|cm|sw|rn)\b|@\w+`)},
	{TypeStatus, regexp.MustCompile(`\b(submitted|approved|accepted|in review|under review|received|sent|confirmed|scheduled|completed?|done|verified|active|on hold)\b`)},
	{TypeTask, regexp.MustCompile(`\b(call|fax|send|follow[- ]?up|f/u|submit|schedule|verify|contact|email|request|book|arrange|upload|review)\b`)},
}

var typePrefix = regexp.MustCompile(`^\s*([A-Za-z]+)\s*:\s*`)

var whitespace = regexp.MustCompile(`\s+`)

func normalize(s string) string {
	return strings.TrimSpace(whitespace.ReplaceAllString(s, " "))
}

// parsePrefix returns the chip type named by a leading "Type: " prefix and
// the remaining text.
func parsePrefix(raw string) (ChipType, string, bool) {
	m := typePrefix.FindStringSubmatchIndex(raw)
	if m == nil {
		return "", raw, false
	}
	word := strings.ToLower(raw[m[2]:m[3]])
	for t := range typeRank {
		if strings.ToLower(string(t)) == word {
			return t, raw[m[1]:], true
		}
	}
	return "", raw, false
}

// Classify assigns raw to a chip type. A "Type: " prefix is authoritative.
// Unmatched text inherits Failure or Risk from parentContext, else is a Note.
func Classify(raw, parentContext string) ChipType {
	if t, _, ok := parsePrefix(raw); ok {
		return t
	}
	if t, ok := matchRules(raw); ok {
		return t
	}
	if parentContext != "" {
		if t, ok := matchRules(parentContext); ok && (t == TypeFailure || t == TypeRisk) {
			return t
		}
	}
	return TypeNote
}

func matchRules(raw string) (ChipType, bool) {
	text := strings.ToLower(normalize(raw))
	if text == "" {
		return "", false
	}
	for _, r := range classifyRules {
		if r.pattern.MatchString(text) {
			return r.chipType, true
		}
	}
	return "", false
}

// Format strips any "Type: " prefix, collapses whitespace and applies
// sentence case. All-caps tokens are lowered unless they are known acronyms;
// mixed-case tokens such as names keep their casing.
func Format(raw string) string {
	_, rest, _ := parsePrefix(raw)
	words := strings.Fields(normalize(rest))
	for i, w := range words {
		words[i] = sentenceWord(w)
	}
	return upperFirst(strings.Join(words, " "))
}

// clinicalAcronyms are all-caps tokens Format keeps in addition to acronyms.
var clinicalAcronyms = map[string]bool{
	"ED": true, "ER": true, "ICU": true, "DME": true, "UR": true, "CM": true,
	"SW": true, "MRN": true, "EDD": true, "P2P": true, "HH": true, "PCP": true,
	"CT": true, "MRI": true, "ADL": true,
}

func sentenceWord(w string) string {
	if !isAllCaps(w) {
		return w
	}
	parts := strings.FieldsFunc(w, func(r rune) bool { return !unicode.IsLetter(r) && !unicode.IsDigit(r) })
	for _, part := range parts {
		if !acronyms[part] && !clinicalAcronyms[part] {
			return strings.ToLower(w)
		}
	}
	return w
}

func upperFirst(s string) string {
	if s == "" {
		return s
	}
	r, size := utf8.DecodeRuneInString(s)
	return string(unicode.ToUpper(r)) + s[size:]
}

// Sort returns a copy of raw ordered by (chip type rank, case-insensitive
// text). Equal keys keep their input order.
func Sort(raw []string, parentContext string) []string {
	type keyed struct {
		text string
		rank int
		key  string
	}
	items := make([]keyed, len(raw))
	for i, s := range raw {
		items[i] = keyed{text: s, rank: Rank(Classify(s, parentContext)), key: strings.ToLower(Format(s))}
	}
	sort.SliceStable(items, func(i, j int) bool {
		if items[i].rank != items[j].rank {
			return items[i].rank < items[j].rank
		}
		return items[i].key < items[j].key
	})
	out := make([]string, len(items))
	for i, it := range items {
		out[i] = it.text
	}
	return out
}

var acronyms = map[string]bool{
	"SNF": true, "IRF": true, "MD": true, "LOS": true, "EHR": true,
	"PT": true, "OT": true, "SLP": true, "IV": true,
}

// TitleCase renders a parent chip label. Acronyms and all-caps tokens are kept
// verbatim, tokens starting with a digit are unchanged, everything else is
// capitalized.
func TitleCase(label string) string {
	words := strings.Fields(label)
	for i, w := range words {
		words[i] = titleWord(w)
	}
	return strings.Join(words, " ")
}

func titleWord(w string) string {
	first, _ := utf8.DecodeRuneInString(w)
	if unicode.IsDigit(first) {
		return w
	}
	core := strings.TrimFunc(w, func(r rune) bool { return !unicode.IsLetter(r) && !unicode.IsDigit(r) })
	if core == "" {
		return w
	}
	if acronyms[strings.ToUpper(core)] {
		return strings.Replace(w, core, strings.ToUpper(core), 1)
	}
	if isAllCaps(core) {
		return w
	}
	return upperFirst(strings.ToLower(w))
}

func isAllCaps(s string) bool {
	letters := 0
	for _, r := range s {
		if unicode.IsLetter(r) {
			if !unicode.IsUpper(r) {
				return false
			}
			letters++
		}
	}
	return letters > 1
}
