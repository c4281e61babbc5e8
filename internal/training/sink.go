package training

import (
	"context"
	log "log/slog"
	"sync"
	"time"

	"thaili/internal/corpus"
)

const defaultSendTimeout = 10 * time.Second

// Sink records transcripts into the local corpus and forwards them to the
// training endpoint without waiting. Endpoint failures are only logged.
type Sink struct {
	corpus  *corpus.Corpus
	client  *Client
	timeout time.Duration
	now     func() time.Time

	wg sync.WaitGroup
}

// NewSink with a nil client only updates the local corpus.
func NewSink(c *corpus.Corpus, client *Client) *Sink {
	return &Sink{
		corpus:  c,
		client:  client,
		timeout: defaultSendTimeout,
		now:     time.Now,
	}
}

func (s *Sink) Record(transcript string) {
	now := s.now()

	if touched := s.corpus.RecordUsage(transcript, now); len(touched) > 0 {
		log.Debug("Usage recorded", "transcript", transcript, "commands", touched)
	}

	if s.client == nil {
		return
	}

	sample := Sample{
		Input:     transcript,
		Language:  Language,
		Timestamp: now,
		SessionID: NewSessionID(),
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()

		ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
		defer cancel()

		if err := s.client.Send(ctx, sample); err != nil {
			log.Debug("Training endpoint unavailable", "err", err)
		}
	}()
}

// Wait blocks until every forwarded sample has been sent or dropped.
func (s *Sink) Wait() {
	s.wg.Wait()
}

// LoadRemote merges the endpoint's commands into c. Failures leave the
// corpus untouched.
func LoadRemote(ctx context.Context, client *Client, c *corpus.Corpus) int {
	entries, err := client.Fetch(ctx)
	if err != nil {
		log.Info("Remote commands unavailable, using local corpus", "err", err)
		return 0
	}

	added := c.Merge(entries...)
	log.Info("Remote commands loaded", "received", len(entries), "added", added, "total", c.Len())
	return added
}
