package deid

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBoundedLevenshtein(t *testing.T) {
	testCases := []struct {
		a, b     string
		limit    int
		expected int
	}{
		{"kranti", "kranti", 1, 0},
		{"kranti", "kranthi", 1, 1},
		{"john", "jon", 1, 1},
		{"john", "jane", 1, -1},
		{"john", "jane", 3, 3},
		{"", "abc", 1, -1},
		{"", "a", 1, 1},
		{"abcdef", "abcdefgh", 1, -1},
	}

	for _, tc := range testCases {
		assert.Equal(
			t, tc.expected, boundedLevenshtein(tc.a, tc.b, tc.limit),
			"distance(%q, %q) limit %d", tc.a, tc.b, tc.limit,
		)
	}
}

func TestResolveKeyCollapsesTypos(t *testing.T) {
	existing := []string{"kranti"}
	assert.Equal(t, "kranti", resolveKey("kranthi", existing))
}

func TestResolveKeyNewIdentity(t *testing.T) {
	existing := []string{"john doe"}
	assert.Equal(t, "jane smith", resolveKey("jane smith", existing))
}

func TestResolveKeyExactMatchWins(t *testing.T) {
	existing := []string{"jon", "john"}
	assert.Equal(t, "john", resolveKey("john", existing))
}

func TestResolveKeyTieBreaksFirstSeen(t *testing.T) {
	// Both candidates are distance 1 from "jahn"; the earliest inserted wins
	existing := []string{"john", "jain"}
	assert.Equal(t, "john", resolveKey("jahn", existing))
}

func TestResolveKeyEmpty(t *testing.T) {
	assert.Equal(t, "", resolveKey("", []string{"john"}))
}

func TestResolveKeyThresholdScalesWithLength(t *testing.T) {
	// 13 chars allow distance 2
	existing := []string{"kranthi kumar"}
	assert.Equal(t, "kranthi kumar", resolveKey("kranti kumar", existing))

	// Short keys only allow distance 1
	assert.Equal(t, "kim", resolveKey("kim", []string{"tom"}))
}
