// Package slug derives the kebab-case identifiers used for catalog URLs and
// stylesheet file names.
package slug

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var (
	camelBoundary = regexp.MustCompile(`([A-Za-z])([A-Z][a-z])`)
	strippedChars = regexp.MustCompile(`[&()']`)
	nonAlnumRun   = regexp.MustCompile(`[^A-Za-z0-9]+`)
	hyphenRun     = regexp.MustCompile(`-{2,}`)
)

// KebabCase converts a component name into its slug, e.g. ButtonGroup to
// button-group and OTPInput to otp-input. The output is stable; catalog
// URLs and stylesheet paths depend on it.
func KebabCase(s string) string {
	s = stripMarks(s)

	// Two passes: matches cannot overlap, so runs like "aBcDe" need a second.
	s = camelBoundary.ReplaceAllString(s, "$1-$2")
	s = camelBoundary.ReplaceAllString(s, "$1-$2")

	s = strippedChars.ReplaceAllString(s, "")
	s = nonAlnumRun.ReplaceAllString(s, "-")
	s = strings.Trim(s, "-")
	s = hyphenRun.ReplaceAllString(s, "-")
	return strings.ToLower(s)
}

// stripMarks decomposes s and drops combining marks, so "é" becomes "e".
func stripMarks(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)))
	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return out
}
