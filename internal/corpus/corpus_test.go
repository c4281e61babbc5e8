package corpus

import (
	"slices"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func usage(c *Corpus) map[string]int {
	out := make(map[string]int)
	for _, e := range c.Entries() {
		out[e.Intent] = e.UsageCount
	}
	return out
}

func TestRecordUsage(t *testing.T) {
	now := time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name       string
		transcript string
		want       []string
	}{
		{name: "variation of one entry", transcript: "मिलाउनुहोस्", want: []string{"compare_programs"}},
		{name: "canonical text", transcript: "ऋण खोज्नुहोस्", want: []string{"search_loans"}},
		{name: "transcript contains variation", transcript: "कृपया महिला सहायता दिनुहोस्", want: []string{"search_women_programs"}},
		{name: "variation contains transcript", transcript: "इच्छा", want: []string{"open_wishlist"}},
		{name: "unrelated", transcript: "xyz123 unrelated text", want: nil},
		{name: "empty", transcript: "   ", want: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := New(Seed())
			before := usage(c)

			c.RecordUsage(tt.transcript, now)

			after := usage(c)
			for intent, n := range before {
				if assert.Contains(t, after, intent) {
					delta := after[intent] - n
					if slices.Contains(tt.want, intent) {
						assert.Equal(t, 1, delta, intent)
					} else {
						assert.Equal(t, 0, delta, intent)
					}
				}
			}
		})
	}
}

func TestRecordUsage_FirstPhraseWinsPerEntry(t *testing.T) {
	c := New([]CommandEntry{{
		Command:    "ऋण खोज्नुहोस्",
		Variations: []string{"ऋण", "खोज्नुहोस्"},
		Intent:     "search_loans",
		Confidence: 0.9,
		Response:   "...",
	}})

	now := time.Now()
	touched := c.RecordUsage("ऋण खोज्नुहोस्", now)

	assert.Equal(t, []string{"ऋण खोज्नुहोस्"}, touched)
	e := c.Entries()[0]
	assert.Equal(t, 1, e.UsageCount)
	assert.True(t, e.LastUsed.Equal(now))
}

func TestFindBestMatches(t *testing.T) {
	c := New(ServerSeed())

	matches := c.FindBestMatches("महिला सहायता", 0.6, 3)
	require.NotEmpty(t, matches)
	assert.Equal(t, "search_women_programs", matches[0].Intent)
	assert.Equal(t, 1.0, matches[0].Similarity)

	for i := 1; i < len(matches); i++ {
		assert.GreaterOrEqual(t, matches[i-1].Similarity, matches[i].Similarity)
	}
}

func TestFindBestMatches_LimitAndThreshold(t *testing.T) {
	c := New(ServerSeed())

	// "ऋण" alone overlaps many phrases by half at best
	assert.Empty(t, c.FindBestMatches("ऋण", 0.6, 3))

	all := c.FindBestMatches("ऋण", 0.0, 10)
	assert.NotEmpty(t, all)
	assert.Len(t, c.FindBestMatches("ऋण", 0.0, 1), 1)
}

func TestMerge(t *testing.T) {
	c := New(Seed())
	v := c.Version()
	require.Equal(t, 4, c.Len())

	added := c.Merge(ServerSeed()...)

	assert.Equal(t, 1, added, "only the youth entry is new")
	assert.Equal(t, 5, c.Len())
	assert.Greater(t, c.Version(), v)

	var compare CommandEntry
	for _, e := range c.Entries() {
		if e.Intent == "compare_programs" {
			compare = e
		}
	}
	assert.Contains(t, compare.Variations, "फरक देखाउनुहोस्")

	v = c.Version()
	assert.Zero(t, c.Merge(ServerSeed()...))
	assert.Equal(t, v, c.Version(), "no-op merge keeps the version")
}

func TestMerge_SkipsInvalid(t *testing.T) {
	c := New(nil)

	added := c.Merge(
		CommandEntry{Command: "", Intent: "x"},
		CommandEntry{Command: "a", Intent: ""},
		CommandEntry{Command: "a", Intent: "x", Variations: []string{" "}},
		CommandEntry{Command: "a", Intent: "x", Confidence: 1.5},
		CommandEntry{Command: "ok", Intent: "x", Confidence: 0.5},
	)

	assert.Equal(t, 1, added)
	assert.Equal(t, 1, c.Len())
}

func TestEntries_IsCopy(t *testing.T) {
	c := New(Seed())

	entries := c.Entries()
	entries[0].Variations[0] = "changed"
	entries[0].UsageCount = 99

	fresh := c.Entries()
	assert.NotEqual(t, "changed", fresh[0].Variations[0])
	assert.Zero(t, fresh[0].UsageCount)
}

func TestConfidenceFor(t *testing.T) {
	tests := []struct {
		name       string
		transcript string
		want       float64
	}{
		{name: "empty", transcript: "", want: 0.5},
		{name: "unknown words", transcript: "xyz abc", want: 0.5},
		{name: "all known with verb", transcript: "ऋण खोज्नुहोस्", want: 1.0},
		{name: "half known no verb", transcript: "महिला कार्यक्रम", want: 0.7},
		{name: "verb only bonus", transcript: "कार्यक्रम खोल्नुहोस्", want: 0.6},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, ConfidenceFor(tt.transcript), 1e-9)
		})
	}
}
