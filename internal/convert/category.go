package convert

import (
	"strings"
	"unicode"

	imperrors "golang-bank-import-service/pkg/errors"
)

// CategoryMap resolves spending categories from notes tags and from the
// bank-provided category column. It is built once from configuration and
// read-only afterwards.
//
// Resolution precedence is load-bearing: a #tag in the free-text notes
// always wins over the category column, because a tag typed by the user is
// more specific than what the bank guessed.
type CategoryMap struct {
	// tags maps "#eatingout" style tokens to canonical category names.
	tags map[string]string
	// aliases maps category-column values to canonical names and contains
	// the identity mapping for every canonical name.
	aliases map[string]string
}

// NewCategoryMap builds a CategoryMap from the canonical category names and
// extra alias mappings. Alias keys starting with '#' are treated as extra
// tags and matched case-insensitively; all other keys match the category
// column verbatim.
func NewCategoryMap(categories []string, extra map[string]string) (*CategoryMap, error) {
	m := &CategoryMap{
		tags:    make(map[string]string, len(categories)),
		aliases: make(map[string]string, len(categories)+len(extra)),
	}

	canonical := make(map[string]bool, len(categories))
	for _, name := range categories {
		if strings.TrimSpace(name) == "" {
			return nil, imperrors.ConfigError(imperrors.CodeInvalidConfig,
				"category names must not be empty", nil)
		}
		canonical[name] = true
		m.tags[TagForCategory(name)] = name
		m.aliases[name] = name
	}

	for alias, name := range extra {
		if !canonical[name] {
			return nil, imperrors.ConfigError(imperrors.CodeInvalidConfig,
				"alias targets an unknown category", nil).
				WithContext("alias", alias).
				WithContext("category", name)
		}
		if strings.HasPrefix(alias, "#") {
			m.tags[strings.ToLower(alias)] = name
		} else {
			m.aliases[alias] = name
		}
	}

	return m, nil
}

// TagForCategory derives the notes tag for a canonical category name:
// lower-cased, stripped of whitespace and punctuation, prefixed with '#'.
// "Eating Out" becomes "#eatingout".
func TagForCategory(name string) string {
	var b strings.Builder
	b.WriteByte('#')
	for _, r := range strings.ToLower(name) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// Resolve returns the canonical category for a row, or "" when neither the
// notes nor the category column match. Tags are scanned left to right and
// the first known tag wins; only if no tag matches is the category column
// consulted.
func (m *CategoryMap) Resolve(notes, category string) string {
	for _, word := range strings.Fields(notes) {
		if !strings.HasPrefix(word, "#") {
			continue
		}
		if name, ok := m.tags[strings.ToLower(word)]; ok {
			return name
		}
	}

	return m.aliases[category]
}
