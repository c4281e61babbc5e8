// Package corpus holds the in-memory command corpus: known Nepali command
// phrasings, their intents and usage statistics.
package corpus

import (
	log "log/slog"
	"slices"
	"sort"
	"strings"
	"sync"
	"time"

	"thaili/pkg/similarity"
)

// Corpus is safe for concurrent use. The training API mutates usage stats
// while the dialogue loop reads.
type Corpus struct {
	mu      sync.RWMutex
	entries []CommandEntry
	version uint64
}

func New(seed []CommandEntry) *Corpus {
	c := &Corpus{}
	c.Merge(seed...)
	return c
}

// Merge adds entries. An entry whose canonical text is already known only
// contributes its new variations. Invalid entries are skipped.
// Returns the number of entries added.
func (c *Corpus) Merge(entries ...CommandEntry) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	added := 0
	changed := false

	for _, e := range entries {
		if err := e.Validate(); err != nil {
			log.Warn("Skipping command entry", "command", e.Command, "err", err)
			continue
		}

		idx := c.indexOf(e.Command)
		if idx < 0 {
			c.entries = append(c.entries, e.clone())
			added++
			changed = true
			continue
		}

		existing := &c.entries[idx]
		for _, v := range e.Variations {
			if !slices.Contains(existing.Variations, v) {
				existing.Variations = append(existing.Variations, v)
				changed = true
			}
		}
	}

	if changed {
		c.version++
	}

	return added
}

func (c *Corpus) indexOf(command string) int {
	for i, e := range c.entries {
		if e.Command == command {
			return i
		}
	}
	return -1
}

// Entries returns a deep copy of the corpus.
func (c *Corpus) Entries() []CommandEntry {
	entries, _ := c.Snapshot()
	return entries
}

// Snapshot returns a deep copy of the entries together with the version
// they belong to.
func (c *Corpus) Snapshot() ([]CommandEntry, uint64) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]CommandEntry, len(c.entries))
	for i, e := range c.entries {
		out[i] = e.clone()
	}
	return out, c.version
}

func (c *Corpus) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Version changes whenever phrases are added. Usage stats do not bump it.
func (c *Corpus) Version() uint64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.version
}

// FindBestMatches scores transcript against every entry with word overlap
// and returns those scoring above minScore, best first, at most limit.
func (c *Corpus) FindBestMatches(transcript string, minScore float64, limit int) []Match {
	c.mu.RLock()
	defer c.mu.RUnlock()

	var matches []Match
	for _, e := range c.entries {
		best := 0.0
		for _, p := range e.Phrases() {
			best = max(best, similarity.WordOverlap(transcript, p))
		}
		if best <= minScore {
			continue
		}
		matches = append(matches, Match{
			Command:    e.Command,
			Intent:     e.Intent,
			Similarity: best,
			Confidence: e.Confidence,
		})
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Similarity > matches[j].Similarity
	})

	if limit >= 0 && len(matches) > limit {
		matches = matches[:limit]
	}
	return matches
}

// RecordUsage bumps the usage stats of every entry that has a phrase in a
// substring relation with transcript. Returns the canonical texts touched.
func (c *Corpus) RecordUsage(transcript string, now time.Time) []string {
	t := similarity.Normalize(transcript)
	if t == "" {
		return nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	var touched []string
	for i := range c.entries {
		e := &c.entries[i]
		for _, p := range e.Phrases() {
			p = similarity.Normalize(p)
			if strings.Contains(t, p) || strings.Contains(p, t) {
				e.UsageCount++
				e.LastUsed = now
				touched = append(touched, e.Command)
				break
			}
		}
	}

	return touched
}

var (
	knownVocabulary = []string{"ऋण", "लोन", "महिला", "युवा", "खोज्नुहोस्", "देखाउनुहोस्", "इच्छा", "सूची"}
	actionVerbs     = []string{"खोज्नुहोस्", "देखाउनुहोस्", "खोल्नुहोस्"}
)

// ConfidenceFor is a heuristic of how command-like transcript is.
func ConfidenceFor(transcript string) float64 {
	confidence := 0.5

	words := strings.Fields(transcript)
	if len(words) > 0 {
		found := 0
		for _, w := range words {
			if slices.Contains(knownVocabulary, w) {
				found++
			}
		}
		confidence += float64(found) / float64(len(words)) * 0.4
	}

	for _, v := range actionVerbs {
		if strings.Contains(transcript, v) {
			confidence += 0.1
			break
		}
	}

	return min(confidence, 1.0)
}

