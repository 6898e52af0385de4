package models

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var descricaoTransformer = transform.Chain(
	norm.NFD,
	runes.Remove(runes.In(unicode.Mn)),
	norm.NFC,
)

// NormalizeDescricao prepares a description for similarity comparison:
// lowercase, diacritics stripped (João -> joao), punctuation replaced by
// spaces, whitespace collapsed.
func NormalizeDescricao(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	if out, _, err := transform.String(descricaoTransformer, s); err == nil {
		s = out
	}
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		} else {
			b.WriteRune(' ')
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

// TokensDescricao returns the normalized tokens of a description.
func TokensDescricao(s string) []string {
	normalized := NormalizeDescricao(s)
	if normalized == "" {
		return nil
	}
	return strings.Fields(normalized)
}
