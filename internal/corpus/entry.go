package corpus

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

var ErrInvalidEntry = errors.New("invalid command entry")

// CommandEntry is one known command: a canonical phrase, its alternate
// phrasings and the intent they map to.
type CommandEntry struct {
	Command    string    `json:"command"`
	Variations []string  `json:"variations"`
	Intent     string    `json:"intent"`
	Confidence float64   `json:"confidence"`
	Response   string    `json:"response"`
	UsageCount int       `json:"usage_count"`
	LastUsed   time.Time `json:"last_used"`
}

// Phrases returns the canonical text followed by every variation.
func (e CommandEntry) Phrases() []string {
	out := make([]string, 0, 1+len(e.Variations))
	out = append(out, e.Command)
	return append(out, e.Variations...)
}

func (e CommandEntry) Validate() error {
	if strings.TrimSpace(e.Command) == "" {
		return fmt.Errorf("%w: empty command", ErrInvalidEntry)
	}
	if e.Intent == "" {
		return fmt.Errorf("%w: %q has no intent", ErrInvalidEntry, e.Command)
	}
	for i, v := range e.Variations {
		if strings.TrimSpace(v) == "" {
			return fmt.Errorf("%w: %q variation %d is empty", ErrInvalidEntry, e.Command, i)
		}
	}
	if e.Confidence < 0 || e.Confidence > 1 {
		return fmt.Errorf("%w: %q confidence %.2f out of range", ErrInvalidEntry, e.Command, e.Confidence)
	}
	return nil
}

func (e CommandEntry) clone() CommandEntry {
	e.Variations = append([]string(nil), e.Variations...)
	return e
}

// Match is one corpus entry scored against a transcript.
type Match struct {
	Command    string  `json:"command"`
	Intent     string  `json:"intent"`
	Similarity float64 `json:"similarity"`
	Confidence float64 `json:"confidence"`
}
