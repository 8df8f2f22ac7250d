// Package text holds the string normalization rules shared by the catalog
// entities: UID cleaning, map-key cleaning and URL path canonicalization.
package text

import (
	"math"
	"net/url"
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var (
	uidStrip   = regexp.MustCompile(`[^. a-zA-Z0-9_-]`)
	keyStrip   = regexp.MustCompile(`[^a-zA-Z0-9_-]`)
	multiSpace = regexp.MustCompile(` +`)

	asciiFold = transform.Chain(norm.NFKD, runes.Remove(runes.Predicate(func(r rune) bool {
		return r > unicode.MaxASCII
	})))
)

func fold(s string) string {
	out, _, err := transform.String(asciiFold, s)
	if err != nil {
		return s
	}
	return out
}

// CleanUID lowercases s, folds accents to ASCII, drops everything but
// letters, digits, '.', '_', '-' and single spaces.
func CleanUID(s string) string {
	s = strings.TrimSpace(strings.ToLower(fold(s)))
	return multiSpace.ReplaceAllString(uidStrip.ReplaceAllString(s, ""), " ")
}

// CleanKey is CleanUID without spaces, for keys of extracted property maps.
func CleanKey(s string) string {
	s = strings.TrimSpace(strings.ToLower(fold(s)))
	return keyStrip.ReplaceAllString(s, "")
}

// URLPath returns only the path component of rawURL. Unparseable input is
// returned unchanged.
func URLPath(rawURL string) string {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return rawURL
	}
	return u.Path
}

// Percentage returns part/total as a whole percentage rounded up.
func Percentage(part, total int) int {
	if total <= 0 {
		return 100
	}
	return int(math.Ceil(float64(part) / float64(total) * 100))
}
