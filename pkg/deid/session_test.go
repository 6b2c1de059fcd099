package deid

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/docveil/docveil/pkg/models"
)

const testSeed = 42

var personField = models.FieldDefinition{
	Name:        "Full Name",
	Description: "The person's full legal name",
	Strategy:    models.StrategyFakeData,
}

var personLabelField = models.FieldDefinition{
	Name:        "Person",
	Description: "Any person mentioned in the document",
	Strategy:    models.StrategyEntityLabel,
}

func candidate(entityType, text string, page int) models.EntityCandidate {
	return models.EntityCandidate{
		Type:       entityType,
		Text:       text,
		Box:        models.BoundingBox{X: 0.1, Y: 0.1, Width: 0.2, Height: 0.02},
		PageNumber: page,
		Confidence: 0.9,
	}
}

func TestSessionConsistencyInvariant(t *testing.T) {
	session := NewSession(testSeed)

	first, err := session.Resolve(candidate("Full Name", "John Doe", 1), personField)
	require.NoError(t, err)
	second, err := session.Resolve(candidate("Full Name", "JOHN  DOE", 2), personField)
	require.NoError(t, err)

	assert.Equal(t, first.ReplacementText, second.ReplacementText)
	assert.Equal(t, first.CanonicalKey, second.CanonicalKey)
	assert.NotEmpty(t, first.ReplacementText)
	assert.NotEqual(t, "John Doe", first.ReplacementText)
}

func TestSessionCandidateTypeCaseVariants(t *testing.T) {
	session := NewSession(testSeed)

	// Extraction may capitalize the field name differently per mention; both
	// spellings resolve against the same configured field and must share one
	// replacement.
	first, err := session.Resolve(candidate("Full Name", "John Doe", 1), personField)
	require.NoError(t, err)
	second, err := session.Resolve(candidate("FULL NAME", "John Doe", 2), personField)
	require.NoError(t, err)

	assert.Equal(t, first.ReplacementText, second.ReplacementText)
	assert.Equal(t, first.CanonicalKey, second.CanonicalKey)
	assert.Equal(t, personField.Name, second.Type)
}

func TestSessionTypoTolerance(t *testing.T) {
	session := NewSession(testSeed)

	first, err := session.Resolve(candidate("Full Name", "Kranti", 1), personField)
	require.NoError(t, err)
	second, err := session.Resolve(candidate("Full Name", "Kranthi", 1), personField)
	require.NoError(t, err)

	assert.Equal(t, first.ReplacementText, second.ReplacementText)
	assert.Equal(t, "kranti", second.CanonicalKey)
}

func TestSessionTypeScopesIdentity(t *testing.T) {
	session := NewSession(testSeed)

	name, err := session.Resolve(candidate("Full Name", "Jordan", 1), personField)
	require.NoError(t, err)
	company, err := session.Resolve(
		candidate("Company", "Jordan", 1),
		models.FieldDefinition{Name: "Company", Description: "employer", Strategy: models.StrategyFakeData},
	)
	require.NoError(t, err)

	// Same text under different types resolves independently
	assert.NotEqual(t, name.ReplacementText, company.ReplacementText)
}

func TestSessionDeterminism(t *testing.T) {
	texts := []string{"John Doe", "Jane Smith", "John Doe", "Acme Corp"}

	run := func() []string {
		session := NewSession(testSeed)
		out := make([]string, 0, len(texts))
		for _, text := range texts {
			resolved, err := session.Resolve(candidate("Full Name", text, 1), personField)
			require.NoError(t, err)
			out = append(out, resolved.ReplacementText)
		}
		return out
	}

	assert.Equal(t, run(), run())
}

func TestSessionLabelMonotonicity(t *testing.T) {
	session := NewSession(testSeed)

	for i := 1; i <= 30; i++ {
		resolved, err := session.Resolve(
			candidate("Person", fmt.Sprintf("Person Number %d", i), 1),
			personLabelField,
		)
		require.NoError(t, err)
		assert.Equal(t, fmt.Sprintf("Person_%d", i), resolved.ReplacementText)
	}

	// Repeat mention keeps its original label; the counter does not advance
	resolved, err := session.Resolve(candidate("Person", "Person Number 7", 2), personLabelField)
	require.NoError(t, err)
	assert.Equal(t, "Person_7", resolved.ReplacementText)
}

func TestSessionEmptyTextNeverDeduplicated(t *testing.T) {
	session := NewSession(testSeed)

	first, err := session.Resolve(candidate("Person", "  ", 1), personLabelField)
	require.NoError(t, err)
	second, err := session.Resolve(candidate("Person", "", 1), personLabelField)
	require.NoError(t, err)

	assert.Empty(t, first.CanonicalKey)
	assert.Empty(t, second.CanonicalKey)
	// Each unresolved mention is its own identity
	assert.NotEqual(t, first.ReplacementText, second.ReplacementText)
}

func TestSessionBlackOutProducesNoText(t *testing.T) {
	session := NewSession(testSeed)

	resolved, err := session.Resolve(
		candidate("SSN", "123-45-6789", 1),
		models.FieldDefinition{Name: "SSN", Description: "social security number", Strategy: models.StrategyBlackOut},
	)
	require.NoError(t, err)
	assert.Empty(t, resolved.ReplacementText)

	// The empty replacement is still stored and reused
	again, err := session.Resolve(
		candidate("SSN", "123-45-6789", 2),
		models.FieldDefinition{Name: "SSN", Description: "social security number", Strategy: models.StrategyBlackOut},
	)
	require.NoError(t, err)
	assert.Equal(t, resolved.CanonicalKey, again.CanonicalKey)
}

func TestSessionUnknownStrategyFatal(t *testing.T) {
	session := NewSession(testSeed)

	_, err := session.Resolve(
		candidate("Full Name", "John Doe", 1),
		models.FieldDefinition{Name: "Full Name", Description: "name", Strategy: "rot13"},
	)
	require.Error(t, err)

	var configErr *models.ConfigurationError
	assert.ErrorAs(t, err, &configErr)
}

func TestSessionConcurrentGetOrCreate(t *testing.T) {
	session := NewSession(testSeed)

	const goroutines = 16
	results := make([]string, goroutines)
	var wg sync.WaitGroup
	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			resolved, err := session.Resolve(candidate("Full Name", "John Doe", 1), personField)
			assert.NoError(t, err)
			results[i] = resolved.ReplacementText
		}(i)
	}
	wg.Wait()

	for _, r := range results {
		assert.Equal(t, results[0], r)
	}
}

func TestAddManualMapping(t *testing.T) {
	session := NewSession(testSeed)

	require.NoError(t, session.AddManualMapping("Full Name", "John Doe", "REVIEWED"))

	resolved, err := session.Resolve(candidate("Full Name", "John Doe", 1), personField)
	require.NoError(t, err)
	assert.Equal(t, "REVIEWED", resolved.ReplacementText)

	// Re-adding the same value is a no-op; a different value breaks the invariant
	assert.NoError(t, session.AddManualMapping("Full Name", "John Doe", "REVIEWED"))
	assert.ErrorIs(
		t,
		session.AddManualMapping("Full Name", "John Doe", "OTHER"),
		models.ErrConsistencyViolation,
	)
}

func TestCheckConsistency(t *testing.T) {
	session := NewSession(testSeed)

	var entities []models.ResolvedEntity
	for _, text := range []string{"John Doe", "Jane Smith", "john doe"} {
		resolved, err := session.Resolve(candidate("Full Name", text, 1), personField)
		require.NoError(t, err)
		entities = append(entities, resolved)
	}

	report, err := CheckConsistency(entities)
	require.NoError(t, err)
	assert.Equal(t, 2, report.UniqueOriginals)
	assert.Equal(t, 2, report.UniqueReplacements)
	assert.Equal(t, 3, report.TotalEntities)
	assert.True(t, report.IsConsistent)
}

func TestCheckConsistencyDetectsViolation(t *testing.T) {
	entities := []models.ResolvedEntity{
		{Type: "Full Name", CanonicalKey: "john doe", ReplacementText: "A"},
		{Type: "Full Name", CanonicalKey: "john doe", ReplacementText: "B"},
	}
	_, err := CheckConsistency(entities)
	assert.ErrorIs(t, err, models.ErrConsistencyViolation)
}
