package profile

import (
	"slices"
	"strings"
	"unicode"
)

// KeywordSet is a set of lower-cased skill tokens.
type KeywordSet map[string]struct{}

func (k KeywordSet) Has(token string) bool {
	_, ok := k[token]
	return ok
}

func (k KeywordSet) Len() int {
	return len(k)
}

// Sorted returns the tokens in lexical order, for logs and tests.
func (k KeywordSet) Sorted() []string {
	out := make([]string, 0, len(k))
	for token := range k {
		out = append(out, token)
	}
	slices.Sort(out)
	return out
}

// Extract splits every skill on whitespace, commas and parentheses and returns the
// union of the lower-cased tokens.
func Extract(p *Profile) KeywordSet {
	keywords := make(KeywordSet)
	if p == nil {
		return keywords
	}

	for _, skill := range p.Skills {
		for _, token := range strings.FieldsFunc(strings.ToLower(skill), isSeparator) {
			keywords[token] = struct{}{}
		}
	}

	return keywords
}

func isSeparator(r rune) bool {
	return unicode.IsSpace(r) || r == ',' || r == '(' || r == ')'
}
