// Package slug derives filesystem-safe names from user-entered layer and
// file names.
package slug

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var unsafe = regexp.MustCompile(`[^a-z0-9_-]+`)

// Make turns a name into a filesystem-safe slug. Names are frequently
// Turkish, so combining marks are stripped after NFD decomposition before
// the ASCII filter runs.
func Make(name string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	ascii, _, err := transform.String(t, name)
	if err != nil {
		ascii = name
	}
	// Dotless ı and ş/ğ pass NFD untouched; fold the common ones directly.
	ascii = strings.NewReplacer("ı", "i", "ş", "s", "ğ", "g", "İ", "i", "Ş", "s", "Ğ", "g").Replace(ascii)
	s := unsafe.ReplaceAllString(strings.ToLower(ascii), "_")
	s = strings.Trim(s, "_")
	if s == "" {
		return "layer"
	}
	return s
}
