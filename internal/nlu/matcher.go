package nlu

import (
	"fmt"
	log "log/slog"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"

	"thaili/internal/corpus"
	"thaili/pkg/similarity"
)

const (
	corpusThreshold  = 0.6
	defaultCacheSize = 256
)

type corpusHit struct {
	found bool
	score float64
	entry corpus.CommandEntry
}

// Matcher scores alternatives against the corpus, the keyword tables and,
// as a last resort, the loan extractor.
type Matcher struct {
	corpus *corpus.Corpus
	cache  *lru.Cache[string, corpusHit]
}

func NewMatcher(c *corpus.Corpus, cacheSize int) (*Matcher, error) {
	if cacheSize <= 0 {
		cacheSize = defaultCacheSize
	}

	cache, err := lru.New[string, corpusHit](cacheSize)
	if err != nil {
		return nil, fmt.Errorf("create match cache: %w", err)
	}

	return &Matcher{corpus: c, cache: cache}, nil
}

// Match returns the highest scoring candidate over every alternative. A later
// candidate replaces the incumbent only with a strictly greater score.
func (m *Matcher) Match(alts []Alternative) (MatchResult, bool) {
	var (
		best  MatchResult
		found bool
	)

	offer := func(r MatchResult) {
		if !found || r.Score > best.Score {
			best, found = r, true
		}
	}

	texts := make([]string, 0, len(alts))
	for _, a := range alts {
		text := strings.ToLower(strings.TrimSpace(a.Text))
		if text == "" {
			continue
		}
		texts = append(texts, text)

		if hit := m.scoreCorpus(text); hit.found {
			offer(MatchResult{
				Score:         hit.score,
				Intent:        hit.entry.Intent,
				Response:      hit.entry.Response,
				SourceCommand: hit.entry.Command,
				Source:        SourceCorpus,
			})
		}

		if r, ok := MatchKeywords(text); ok {
			offer(r)
		}
	}

	if !found {
		for _, text := range texts {
			if r, ok := Extract(text); ok {
				offer(r)
				break
			}
		}
	}

	if found {
		log.Debug("Matched", "intent", best.Intent, "score", best.Score, "source", best.Source)
	}

	return best, found
}

func (m *Matcher) scoreCorpus(text string) corpusHit {
	if hit, ok := m.cache.Get(cacheKey(m.corpus.Version(), text)); ok {
		return hit
	}

	entries, version := m.corpus.Snapshot()

	var hit corpusHit
	for _, e := range entries {
		raw := 0.0
		for _, p := range e.Phrases() {
			raw = max(raw, similarity.Edit(text, p))
		}
		if raw <= corpusThreshold {
			continue
		}

		score := raw * e.Confidence
		if !hit.found || score > hit.score {
			hit = corpusHit{found: true, score: score, entry: e}
		}
	}

	m.cache.Add(cacheKey(version, text), hit)
	return hit
}

func cacheKey(version uint64, text string) string {
	return fmt.Sprintf("%d:%s", version, text)
}

// MatchKeywords checks the keyword tables in order by substring containment.
func MatchKeywords(text string) (MatchResult, bool) {
	for _, set := range keywordSets {
		for _, p := range set.Phrases {
			if strings.Contains(text, p) {
				return MatchResult{
					Score:         set.Score,
					Intent:        set.Intent,
					Response:      set.Response,
					SourceCommand: text,
					Source:        SourceKeyword,
				}, true
			}
		}
	}
	return MatchResult{}, false
}
