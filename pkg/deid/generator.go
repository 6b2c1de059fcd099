package deid

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/brianvoe/gofakeit/v6"

	"github.com/docveil/docveil/pkg/models"
)

// Generator mints replacement values for newly-seen canonical identities.
// It is strategy-dispatched and deterministic when the faker is seeded.
// Not safe for concurrent use; the owning Session serializes access.
type Generator struct {
	faker *gofakeit.Faker
}

// NewGenerator returns a Generator backed by a faker seeded with seed.
// A zero seed produces non-reproducible values.
func NewGenerator(seed uint64) *Generator {
	return &Generator{faker: gofakeit.NewUnlocked(int64(seed))}
}

// Generate produces the replacement for one new canonical identity.
// occurrence is the already-incremented label counter value for the entity
// type; it is only used by the EntityLabel strategy.
func (g *Generator) Generate(
	field models.FieldDefinition,
	originalText string,
	occurrence int,
) (string, error) {
	switch field.Strategy {
	case models.StrategyFakeData:
		return g.fakeData(field, originalText), nil
	case models.StrategyBlackOut:
		// Redact only: the Spatial Masker draws no replacement text.
		return "", nil
	case models.StrategyEntityLabel:
		return entityLabel(field.Name, occurrence), nil
	default:
		return "", models.NewConfigurationError(
			fmt.Sprintf("unknown replacement strategy %q for field %q", field.Strategy, field.Name),
			nil,
		)
	}
}

// entityLabel produces labels of the form Full_Name_1, Full_Name_2, ...
// numbered once per distinct canonical identity, never per mention.
func entityLabel(entityType string, occurrence int) string {
	prefix := strings.ReplaceAll(entityType, " ", "_")
	prefix = strings.ReplaceAll(prefix, "-", "_")
	return fmt.Sprintf("%s_%d", prefix, occurrence)
}

// fakeData produces a synthetic value whose shape matches the entity type's
// category. The category is derived from the field's name and description,
// not from AI inference, so this step stays deterministic and offline.
func (g *Generator) fakeData(field models.FieldDefinition, originalText string) string {
	f := g.faker
	// Keyed off the field name only: descriptions are free-form sentences and
	// would trip keyword matching.
	hint := strings.ToLower(field.Name)

	switch {
	case strings.Contains(hint, "name"):
		switch {
		case strings.Contains(hint, "first"), strings.Contains(hint, "given"),
			strings.Contains(hint, "middle"):
			return f.FirstName()
		case strings.Contains(hint, "last"), strings.Contains(hint, "surname"),
			strings.Contains(hint, "family"):
			return f.LastName()
		default:
			return f.Name()
		}

	case strings.Contains(hint, "email"), strings.Contains(hint, "e-mail"):
		return f.Email()

	case strings.Contains(hint, "phone"), strings.Contains(hint, "telephone"),
		strings.Contains(hint, "mobile"):
		return f.PhoneFormatted()

	case strings.Contains(hint, "address"):
		switch {
		case strings.Contains(hint, "street"):
			return f.Street()
		case strings.Contains(hint, "city"):
			return f.City()
		case strings.Contains(hint, "state"):
			return f.State()
		case strings.Contains(hint, "zip"), strings.Contains(hint, "postal"):
			return f.Zip()
		default:
			a := f.Address()
			return fmt.Sprintf("%s, %s, %s %s", a.Street, a.City, a.State, a.Zip)
		}

	case strings.Contains(hint, "ssn"), strings.Contains(hint, "social security"):
		return f.SSN()

	case strings.Contains(hint, "zip"), strings.Contains(hint, "postal"):
		return f.Zip()

	case strings.Contains(hint, "date"), strings.Contains(hint, "dob"),
		strings.Contains(hint, "birth"):
		return g.sameYearDate(originalText)

	case strings.Contains(hint, "company"), strings.Contains(hint, "organization"),
		strings.Contains(hint, "employer"):
		return f.Company()

	case strings.Contains(hint, "job"), strings.Contains(hint, "title"),
		strings.Contains(hint, "position"):
		return f.JobTitle()

	case strings.Contains(hint, "credit"), strings.Contains(hint, "card"):
		return f.CreditCardNumber(nil)

	case strings.Contains(hint, "account"), strings.Contains(hint, "bank"):
		return f.AchAccount()

	case strings.Contains(hint, "license"), strings.Contains(hint, "licence"):
		return strings.ToUpper(f.LetterN(3)) + "-" + f.DigitN(4)

	case strings.Contains(hint, "url"), strings.Contains(hint, "website"):
		return f.URL()

	case strings.Contains(hint, "ip"):
		return f.IPv4Address()

	case strings.Contains(hint, "username"), strings.Contains(hint, "user"):
		return f.Username()

	default:
		return g.fakeByShape(originalText)
	}
}

// fakeByShape is the fallback when no category keyword matches: mirror the
// shape of the original text.
func (g *Generator) fakeByShape(originalText string) string {
	trimmed := strings.TrimSpace(originalText)
	if trimmed != "" && isAllDigits(trimmed) {
		return g.faker.Numerify(strings.Repeat("#", len(trimmed)))
	}
	if strings.Contains(trimmed, "@") {
		return g.faker.Email()
	}
	return g.faker.Name()
}

func isAllDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// dateLayouts maps detection patterns to Go time layouts, most specific
// first. Mirrors the formats commonly produced by document OCR.
var dateLayouts = []struct {
	pattern *regexp.Regexp
	layout  string
}{
	{regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`), "2006-01-02"},
	{regexp.MustCompile(`^\d{2}/\d{2}/\d{4}$`), "01/02/2006"},
	{regexp.MustCompile(`^\d{2}-\d{2}-\d{4}$`), "01-02-2006"},
	{regexp.MustCompile(`^\d{4}/\d{2}/\d{2}$`), "2006/01/02"},
	{regexp.MustCompile(`^\d{1,2}/\d{1,2}/\d{4}$`), "1/2/2006"},
	{regexp.MustCompile(`^\d{1,2}-\d{1,2}-\d{4}$`), "1-2-2006"},
	{regexp.MustCompile(`^[A-Za-z]+ \d{1,2}, \d{4}$`), "January 2, 2006"},
	{regexp.MustCompile(`^[A-Za-z]+ \d{1,2} \d{4}$`), "January 2 2006"},
	{regexp.MustCompile(`^\d{1,2} [A-Za-z]+ \d{4}$`), "2 January 2006"},
}

var yearPattern = regexp.MustCompile(`\b(19|20)\d{2}\b`)

// sameYearDate generates a fake date in the same year as the original,
// preserving the original's format where it can be detected. Keeping the year
// retains the document's temporal context while hiding the actual date.
func (g *Generator) sameYearDate(dateStr string) string {
	trimmed := strings.TrimSpace(dateStr)

	layout := "01/02/2006"
	for _, dl := range dateLayouts {
		if dl.pattern.MatchString(trimmed) {
			layout = dl.layout
			break
		}
	}

	match := yearPattern.FindString(trimmed)
	if match == "" {
		// No recoverable year: fall back to a random date of birth
		return g.faker.DateRange(
			time.Date(1950, 1, 1, 0, 0, 0, 0, time.UTC),
			time.Date(2005, 12, 31, 0, 0, 0, 0, time.UTC),
		).Format(layout)
	}

	var year int
	fmt.Sscanf(match, "%d", &year)
	start := time.Date(year, 1, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(year, 12, 31, 0, 0, 0, 0, time.UTC)
	return g.faker.DateRange(start, end).Format(layout)
}
