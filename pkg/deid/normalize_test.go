package deid

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	testCases := []struct {
		name       string
		text       string
		entityType string
		expected   string
	}{
		{
			name:       "casefold and trim",
			text:       "  John DOE  ",
			entityType: "Full Name",
			expected:   "john doe",
		},
		{
			name:       "collapse internal whitespace",
			text:       "John \t  Doe",
			entityType: "Full Name",
			expected:   "john doe",
		},
		{
			name:       "strip punctuation for names",
			text:       `Doe, John (Jr.)`,
			entityType: "Full Name",
			expected:   "doe john jr",
		},
		{
			name:       "keep hyphens in names",
			text:       "Mary-Jane Watson",
			entityType: "Full Name",
			expected:   "mary-jane watson",
		},
		{
			name:       "preserve punctuation for identifiers",
			text:       "123-45-6789",
			entityType: "SSN",
			expected:   "123-45-6789",
		},
		{
			name:       "preserve punctuation for phone numbers",
			text:       "(555) 123-4567",
			entityType: "Phone Number",
			expected:   "(555) 123-4567",
		},
		{
			name:       "empty input yields empty key",
			text:       "   ",
			entityType: "Full Name",
			expected:   "",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, Normalize(tc.text, tc.entityType))
		})
	}
}

func TestNormalizeDeterministic(t *testing.T) {
	a := Normalize("John Doe", "Full Name")
	b := Normalize("JOHN   doe", "Full Name")
	assert.Equal(t, a, b)
}

func TestIsIdentifierType(t *testing.T) {
	assert.True(t, IsIdentifierType("SSN"))
	assert.True(t, IsIdentifierType("Account Number"))
	assert.True(t, IsIdentifierType("Date of Birth"))
	assert.True(t, IsIdentifierType("Patient ID"))
	assert.False(t, IsIdentifierType("Full Name"))
	assert.False(t, IsIdentifierType("Email Address"))
	// "id" must match as a whole token only
	assert.False(t, IsIdentifierType("Residence"))
}
