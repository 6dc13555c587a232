// Package disposition parses the free-text discharge disposition into a
// destination and an optional dependency.
package disposition

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// UnknownDestination is the destination for an empty disposition.
const UnknownDestination = "TBD"

// Disposition is the parsed destination/dependency pair. DependencyLabel is
// empty when the disposition carries no dependency.
type Disposition struct {
	DestinationLabel string `json:"destination_label"`
	DependencyLabel  string `json:"dependency_label,omitempty"`
}

// HasDependency reports whether a dependency was parsed.
func (d Disposition) HasDependency() bool {
	return d.DependencyLabel != ""
}

var homePrefixes = []string{"home with ", "home w/"}

// Parse applies, in order: empty text gives TBD; text mentioning home health
// gives Home with a home health dependency; "home with X" or "home w/X" gives
// Home with "X required"; anything else is the normalized text verbatim.
func Parse(text string) Disposition {
	norm := strings.Join(strings.Fields(text), " ")
	if norm == "" {
		return Disposition{DestinationLabel: UnknownDestination}
	}
	lower := strings.ToLower(norm)

	if strings.Contains(lower, "home health") && strings.Contains(lower, "home") {
		return Disposition{DestinationLabel: "Home", DependencyLabel: "Home health required"}
	}
	for _, prefix := range homePrefixes {
		if !strings.HasPrefix(lower+" ", prefix) {
			continue
		}
		rest := ""
		if len(norm) > len(prefix) {
			rest = strings.TrimSpace(norm[len(prefix):])
		}
		d := Disposition{DestinationLabel: "Home"}
		if rest != "" {
			d.DependencyLabel = capitalize(rest) + " required"
		}
		return d
	}
	return Disposition{DestinationLabel: norm}
}

// capitalize upper-cases the first letter and lower-cases the rest.
func capitalize(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	return string(unicode.ToUpper(r)) + strings.ToLower(s[size:])
}
