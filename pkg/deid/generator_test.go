package deid

import (
	"regexp"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/docveil/docveil/pkg/models"
)

func fakeDataField(name string) models.FieldDefinition {
	return models.FieldDefinition{
		Name:        name,
		Description: "test field",
		Strategy:    models.StrategyFakeData,
	}
}

func TestGenerateFakeDataCategories(t *testing.T) {
	g := NewGenerator(testSeed)

	testCases := []struct {
		fieldName string
		original  string
		pattern   string
	}{
		{"Email Address", "john@example.com", `^\S+@\S+$`},
		{"SSN", "123-45-6789", `^\d{3}-\d{2}-\d{4}$`},
		{"Zip Code", "90210", `^\d`},
		{"Website URL", "http://example.com", `^https?://`},
		{"License Number", "ABC-1234", `^[A-Z]{3}-\d{4}$`},
	}

	for _, tc := range testCases {
		t.Run(tc.fieldName, func(t *testing.T) {
			value, err := g.Generate(fakeDataField(tc.fieldName), tc.original, 0)
			require.NoError(t, err)
			assert.Regexp(t, regexp.MustCompile(tc.pattern), value)
			assert.NotEqual(t, tc.original, value)
		})
	}
}

func TestGenerateFakeDataNameSubtypes(t *testing.T) {
	g := NewGenerator(testSeed)

	first, err := g.Generate(fakeDataField("First Name"), "John", 0)
	require.NoError(t, err)
	assert.NotContains(t, first, " ")

	full, err := g.Generate(fakeDataField("Full Name"), "John Doe", 0)
	require.NoError(t, err)
	assert.Contains(t, full, " ")
}

func TestGenerateFallbackMatchesShape(t *testing.T) {
	g := NewGenerator(testSeed)

	numeric, err := g.Generate(fakeDataField("Case Reference"), "483920", 0)
	require.NoError(t, err)
	assert.Len(t, numeric, 6)
	assert.Regexp(t, `^\d{6}$`, numeric)

	emailish, err := g.Generate(fakeDataField("Contact"), "someone@host.org", 0)
	require.NoError(t, err)
	assert.Contains(t, emailish, "@")
}

func TestGenerateBlackOut(t *testing.T) {
	g := NewGenerator(testSeed)

	value, err := g.Generate(models.FieldDefinition{
		Name:     "SSN",
		Strategy: models.StrategyBlackOut,
	}, "123-45-6789", 0)
	require.NoError(t, err)
	assert.Empty(t, value)
}

func TestGenerateEntityLabel(t *testing.T) {
	g := NewGenerator(testSeed)

	value, err := g.Generate(models.FieldDefinition{
		Name:     "Full Name",
		Strategy: models.StrategyEntityLabel,
	}, "John Doe", 3)
	require.NoError(t, err)
	assert.Equal(t, "Full_Name_3", value)
}

func TestGenerateUnknownStrategy(t *testing.T) {
	g := NewGenerator(testSeed)

	_, err := g.Generate(models.FieldDefinition{
		Name:     "Full Name",
		Strategy: "cipher",
	}, "John Doe", 0)
	require.Error(t, err)

	var configErr *models.ConfigurationError
	assert.ErrorAs(t, err, &configErr)
}

func TestSameYearDatePreservesYearAndFormat(t *testing.T) {
	g := NewGenerator(testSeed)

	testCases := []struct {
		original string
		pattern  string
	}{
		{"1987-03-15", `^1987-\d{2}-\d{2}$`},
		{"03/15/1987", `^\d{2}/\d{2}/1987$`},
		{"March 15, 1987", `^[A-Z][a-z]+ \d{1,2}, 1987$`},
	}

	for _, tc := range testCases {
		t.Run(tc.original, func(t *testing.T) {
			value, err := g.Generate(fakeDataField("Date of Birth"), tc.original, 0)
			require.NoError(t, err)
			assert.Regexp(t, regexp.MustCompile(tc.pattern), value)
		})
	}
}

func TestSameYearDateNoYearFallsBack(t *testing.T) {
	g := NewGenerator(testSeed)

	value, err := g.Generate(fakeDataField("Date of Birth"), "sometime in spring", 0)
	require.NoError(t, err)
	assert.Regexp(t, `^\d{2}/\d{2}/\d{4}$`, value)
}

func TestGenerateDeterministicWithSeed(t *testing.T) {
	first := NewGenerator(testSeed)
	second := NewGenerator(testSeed)

	for _, field := range []string{"Full Name", "Email Address", "Company"} {
		a, err := first.Generate(fakeDataField(field), "original", 0)
		require.NoError(t, err)
		b, err := second.Generate(fakeDataField(field), "original", 0)
		require.NoError(t, err)
		assert.Equal(t, a, b)
	}
}

func TestEntityLabelSanitizesType(t *testing.T) {
	assert.Equal(t, "Date_of_Birth_1", entityLabel("Date of Birth", 1))
	assert.Equal(t, "E_mail_2", entityLabel("E-mail", 2))
	assert.False(t, strings.Contains(entityLabel("Full Name", 9), " "))
}
