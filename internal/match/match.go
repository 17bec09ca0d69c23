// Package match implements identity resolution between local library items and
// remote Trakt entries.
//
// Matching is strict: a shared external provider id is a match, and the only
// fallback is normalized-title plus release-year equality. There is no fuzzy
// or partial string matching.
package match

import (
	"strings"
	"unicode"

	"github.com/desertthunder/tsync/internal/models"
)

// Entry is anything that carries an identity key: local items and remote entries both qualify.
type Entry interface {
	Ident() models.Ident
}

// Find returns the first candidate judged to be the same title as local, in input order.
//
// Callers must treat the candidate order as stable input; when duplicate remote records
// match, the first wins and no ambiguity is reported.
func Find[T Entry](local Entry, candidates []T) (T, bool) {
	key := local.Ident()
	for _, c := range candidates {
		if Same(key, c.Ident()) {
			return c, true
		}
	}
	var zero T
	return zero, false
}

// FindAll returns every candidate judged to be the same title as local, preserving input order.
func FindAll[T Entry](local Entry, candidates []T) []T {
	var out []T
	key := local.Ident()
	for _, c := range candidates {
		if Same(key, c.Ident()) {
			out = append(out, c)
		}
	}
	return out
}

// Same reports whether two identity keys refer to the same real-world title.
//
// Any shared non-empty provider id is a match. Without an id overlap, both the
// normalized title and the release year must be equal.
func Same(a, b models.Ident) bool {
	if a.IDs.Overlaps(b.IDs) {
		return true
	}
	if a.Title == "" || b.Title == "" {
		return false
	}
	return NormalizeTitle(a.Title) == NormalizeTitle(b.Title) && a.Year == b.Year
}

// NormalizeTitle lowercases a title and strips punctuation so that formatting
// differences ("WALL·E" vs "WALL-E") don't break pairing.
func NormalizeTitle(title string) string {
	var b strings.Builder
	b.Grow(len(title))
	for _, r := range strings.ToLower(title) {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
		case unicode.IsSpace(r):
			b.WriteRune(' ')
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}
