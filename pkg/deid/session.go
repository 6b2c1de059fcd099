package deid

import (
	"sync"

	"github.com/google/uuid"

	"github.com/docveil/docveil/internal"
	"github.com/docveil/docveil/pkg/models"
)

var log = internal.GetLogger()

type entryKey struct {
	entityType   string
	canonicalKey string
}

// Session is the consistency scope for one processing run: it owns the
// map of canonical identities to replacements and the per-type label
// counters. Scope is per-document; two documents in the same batch may assign
// different fake values to the same real-world entity. Create at document
// start, discard at completion.
//
// Entries are never mutated after creation; that immutability is what
// guarantees the consistency invariant. Get-or-create is atomic per canonical
// key, so concurrent per-page resolution within one document is safe.
type Session struct {
	ID uuid.UUID

	mu        sync.Mutex
	generator *Generator
	entries   map[entryKey]string
	// keysByType preserves insertion order so fuzzy resolution stays
	// deterministic and first-seen-wins.
	keysByType map[string][]string
	counters   map[string]int
}

// NewSession creates a fresh consistency scope. seed makes fake-data
// generation reproducible; 0 seeds from entropy.
func NewSession(seed uint64) *Session {
	return &Session{
		ID:         uuid.New(),
		generator:  NewGenerator(seed),
		entries:    make(map[entryKey]string),
		keysByType: make(map[string][]string),
		counters:   make(map[string]int),
	}
}

// Resolve normalizes a candidate, collapses it onto an existing canonical
// identity where one is within fuzzy-match distance, and returns the entity
// with its session-consistent replacement. New identities mint a replacement
// exactly once; every later mention of the same identity reuses it.
//
// Identity is scoped by the configured field name, not the raw candidate
// type: extraction may report the same field with varying capitalization, and
// case-variant mentions must still land in the same bucket.
func (s *Session) Resolve(
	candidate models.EntityCandidate,
	field models.FieldDefinition,
) (models.ResolvedEntity, error) {
	resolved := models.ResolvedEntity{
		ID:         uuid.New(),
		Type:       field.Name,
		Text:       candidate.Text,
		Box:        candidate.Box,
		PageNumber: candidate.PageNumber,
		Confidence: candidate.Confidence,
		Approved:   true,
		Strategy:   field.Strategy,
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	normalized := Normalize(candidate.Text, field.Name)
	if normalized == "" {
		// Unresolved mention: never deduplicated, always a fresh replacement
		replacement, err := s.generator.Generate(field, candidate.Text, s.nextCounter(field))
		if err != nil {
			return models.ResolvedEntity{}, err
		}
		resolved.ReplacementText = replacement
		return resolved, nil
	}

	canonical := resolveKey(normalized, s.keysByType[field.Name])
	resolved.CanonicalKey = canonical

	key := entryKey{entityType: field.Name, canonicalKey: canonical}
	if existing, ok := s.entries[key]; ok {
		log.Debugf("session %s: reusing mapping %q -> %q", s.ID, candidate.Text, existing)
		resolved.ReplacementText = existing
		return resolved, nil
	}

	replacement, err := s.generator.Generate(field, candidate.Text, s.nextCounter(field))
	if err != nil {
		return models.ResolvedEntity{}, err
	}

	s.entries[key] = replacement
	s.keysByType[field.Name] = append(s.keysByType[field.Name], canonical)
	log.Debugf("session %s: new mapping %q -> %q", s.ID, candidate.Text, replacement)

	resolved.ReplacementText = replacement
	return resolved, nil
}

// nextCounter advances the label counter for the field's type. Counters only
// feed the EntityLabel strategy; advancing them per new identity (not per
// mention) keeps labels gap-free and monotonic. Callers hold s.mu.
func (s *Session) nextCounter(field models.FieldDefinition) int {
	if field.Strategy != models.StrategyEntityLabel {
		return s.counters[field.Name]
	}
	s.counters[field.Name]++
	return s.counters[field.Name]
}

// AddManualMapping pre-seeds a replacement for an entity before resolution,
// e.g. from a reviewer's edit. Overwriting an existing mapping with a
// different value would break the consistency invariant and is rejected.
func (s *Session) AddManualMapping(entityType, originalText, replacement string) error {
	normalized := Normalize(originalText, entityType)
	if normalized == "" {
		return models.NewConfigurationError("manual mapping for empty text", nil)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	key := entryKey{entityType: entityType, canonicalKey: normalized}
	if existing, ok := s.entries[key]; ok {
		if existing == replacement {
			return nil
		}
		return models.ErrConsistencyViolation
	}

	s.entries[key] = replacement
	s.keysByType[entityType] = append(s.keysByType[entityType], normalized)
	return nil
}

// Mappings returns a snapshot of all current mappings keyed by
// "type\x00canonical".
func (s *Session) Mappings() map[string]string {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make(map[string]string, len(s.entries))
	for k, v := range s.entries {
		out[k.entityType+"\x00"+k.canonicalKey] = v
	}
	return out
}

// ConsistencyReport summarizes replacement consistency over a set of resolved
// entities.
type ConsistencyReport struct {
	UniqueOriginals    int  `json:"unique_originals"`
	UniqueReplacements int  `json:"unique_replacements"`
	TotalEntities      int  `json:"total_entities"`
	IsConsistent       bool `json:"is_consistent"`
}

// CheckConsistency verifies the core invariant over resolved entities: two
// mentions sharing a canonical key must share a replacement. A violation is a
// bug, not a user-facing condition.
func CheckConsistency(entities []models.ResolvedEntity) (ConsistencyReport, error) {
	originals := make(map[string]string)
	replacements := make(map[string]struct{})

	for _, e := range entities {
		key := e.Type + "\x00" + e.CanonicalKey
		if prev, ok := originals[key]; ok && e.CanonicalKey != "" && prev != e.ReplacementText {
			return ConsistencyReport{}, models.ErrConsistencyViolation
		}
		originals[key] = e.ReplacementText
		replacements[e.ReplacementText] = struct{}{}
	}

	return ConsistencyReport{
		UniqueOriginals:    len(originals),
		UniqueReplacements: len(replacements),
		TotalEntities:      len(entities),
		IsConsistent:       len(originals) == len(replacements),
	}, nil
}
