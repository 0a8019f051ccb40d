package slug

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var slugRegexp = regexp.MustCompile(`[^a-z0-9]+`)

// Generate turns a display name into a lowercase slug safe for file names
// and storage keys. Accents are stripped rather than dropped.
//
// Examples:
//   - "Field Team (North)" → "field-team-north"
//   - "Renée's Laptop" → "renee-s-laptop"
//   - "  " → ""
func Generate(name string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	s, _, err := transform.String(t, name)
	if err != nil {
		s = name
	}

	s = strings.ToLower(strings.TrimSpace(s))
	s = slugRegexp.ReplaceAllString(s, "-")
	return strings.Trim(s, "-")
}

// Or returns the slug of name, or fallback when name has no usable characters.
func Or(name, fallback string) string {
	if s := Generate(name); s != "" {
		return s
	}
	return fallback
}
