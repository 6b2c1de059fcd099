package deid

import "strings"

// strippedPunct is the punctuation set removed from non-identifier text.
// Hyphens are kept: they are significant in names.
const strippedPunct = `.,!?;:'"()`

// identifierKeywords mark entity types whose punctuation carries meaning
// (123-45-6789 and 123456789 are different identifiers).
var identifierKeywords = []string{
	"ssn", "social security", "identifier", "id", "number", "account",
	"license", "licence", "phone", "date", "card", "code", "passport",
}

// Normalize canonicalizes raw entity text into a comparison key: casefold,
// trim, collapse internal whitespace, and strip punctuation unless the entity
// type looks like an identifier. Pure; returns an empty key for empty input.
func Normalize(text, entityType string) string {
	normalized := strings.ToLower(text)
	normalized = strings.Join(strings.Fields(normalized), " ")

	if !IsIdentifierType(entityType) {
		normalized = strings.Map(func(r rune) rune {
			if strings.ContainsRune(strippedPunct, r) {
				return -1
			}
			return r
		}, normalized)
	}

	return strings.TrimSpace(normalized)
}

// IsIdentifierType reports whether the entity type names an identifier-like
// field, based on its configured name.
func IsIdentifierType(entityType string) bool {
	lower := strings.ToLower(entityType)
	for _, kw := range identifierKeywords {
		if kw == "id" {
			// "id" on its own is too short for a substring match
			for _, tok := range strings.FieldsFunc(lower, func(r rune) bool {
				return r == ' ' || r == '_' || r == '-'
			}) {
				if tok == "id" {
					return true
				}
			}
			continue
		}
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}
