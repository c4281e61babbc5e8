// Package listener turns an audio source and a speech-to-text engine into a
// single-shot recognizer for the dialogue controller.
package listener

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	log "log/slog"
	"strings"
	"sync"
	"time"

	"thaili/internal/audio/vad"
	"thaili/internal/dialogue"
	"thaili/internal/nlu"
	"thaili/pkg/stt"
)

var (
	ErrBusy      = errors.New("recognition already running")
	ErrExhausted = errors.New("audio source exhausted")
)

// Source captures one utterance of 16 kHz mono PCM.
type Source interface {
	Record(ctx context.Context) ([]float32, error)
}

// Finite sources report when nothing is left to record.
type Finite interface {
	Drained() bool
}

type Ducker interface {
	Duck(ctx context.Context) error
	Restore(ctx context.Context) error
}

type Cue interface {
	Play() error
}

type Option func(*Listener)

// WithCue plays a sound right before capture starts.
func WithCue(c Cue) Option {
	return func(l *Listener) { l.cue = c }
}

// WithDucker lowers other audio while capturing.
func WithDucker(d Ducker) Option {
	return func(l *Listener) { l.duck = d }
}

// WithTimeout bounds transcription of one utterance.
func WithTimeout(d time.Duration) Option {
	return func(l *Listener) { l.timeout = d }
}

type Listener struct {
	src     Source
	engine  stt.Engine
	cue     Cue
	duck    Ducker
	timeout time.Duration

	mu  sync.Mutex
	cur *session
	wg  sync.WaitGroup
}

// session is one Start. A stopped session keeps running until its source or
// engine returns, but it no longer holds the slot.
type session struct {
	cancel  context.CancelFunc
	stopped bool
}

func New(src Source, engine stt.Engine, opts ...Option) *Listener {
	l := &Listener{
		src:     src,
		engine:  engine,
		timeout: 30 * time.Second,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

func (l *Listener) Supported() bool {
	return l.src != nil && l.engine != nil
}

// Start begins a session. It fails with ErrBusy only while a session that
// has not been stopped is still running.
func (l *Listener) Start(lang string, h dialogue.RecognitionHandler) error {
	if !l.Supported() {
		return dialogue.ErrUnsupported
	}
	if f, ok := l.src.(Finite); ok && f.Drained() {
		return ErrExhausted
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if l.cur != nil && !l.cur.stopped {
		return ErrBusy
	}

	ctx, cancel := context.WithCancel(context.Background())
	s := &session{cancel: cancel}
	l.cur = s
	l.wg.Add(1)

	go func() {
		defer l.wg.Done()
		h.Started()
		report := l.listen(ctx, lang)
		if ctx.Err() != nil {
			// stopped while the engine was still busy
			report = silent
		}

		// the slot is free again before the handler hears back
		l.finish(s)
		report(h)
		h.Ended()
	}()
	return nil
}

// Stop aborts the running capture and frees the slot for the next Start.
// The handler of the stopped session still gets Ended, and nothing else.
func (l *Listener) Stop() {
	l.mu.Lock()
	s := l.cur
	if s != nil {
		s.stopped = true
	}
	l.mu.Unlock()

	if s != nil {
		s.cancel()
	}
}

// Wait blocks until every session started so far has delivered Ended.
func (l *Listener) Wait() {
	l.wg.Wait()
}

func (l *Listener) finish(s *session) {
	s.cancel()
	l.mu.Lock()
	if l.cur == s {
		l.cur = nil
	}
	l.mu.Unlock()
}

type outcome func(h dialogue.RecognitionHandler)

func silent(dialogue.RecognitionHandler) {}

func failed(kind dialogue.ErrorKind) outcome {
	return func(h dialogue.RecognitionHandler) { h.Failed(kind) }
}

func (l *Listener) listen(ctx context.Context, lang string) outcome {
	if l.cue != nil {
		if err := l.cue.Play(); err != nil {
			log.Warn("Failed to play listening cue", "err", err)
		}
	}

	pcm, err := l.capture(ctx)
	if err != nil {
		kind, report := classify(ctx, err)
		if !report {
			return silent
		}
		log.Debug("Capture failed", "kind", kind, "err", err)
		return failed(kind)
	}

	tctx, cancel := context.WithTimeout(ctx, l.timeout)
	defer cancel()

	start := time.Now()
	res, err := l.engine.Transcribe(tctx, pcm)
	if err != nil {
		kind, report := classify(ctx, err)
		if !report {
			return silent
		}
		log.Error("Transcription failed", "err", err)
		return failed(kind)
	}

	log.Info("Heard", "text", res.Text, "confidence", fmt.Sprintf("%.2f", res.Confidence),
		"lang", lang, "took", time.Since(start).Round(time.Millisecond))

	if res.Empty() {
		return failed(dialogue.ErrorNoSpeech)
	}
	alts := []nlu.Alternative{{Text: strings.TrimSpace(res.Text), Confidence: res.Confidence}}
	return func(h dialogue.RecognitionHandler) { h.Result(alts) }
}

func (l *Listener) capture(ctx context.Context) ([]float32, error) {
	if l.duck != nil {
		if err := l.duck.Duck(ctx); err != nil {
			log.Warn("Failed to duck other audio", "err", err)
		}
		defer func() {
			// restore even when ctx is already cancelled
			rctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			if err := l.duck.Restore(rctx); err != nil {
				log.Warn("Failed to restore other audio", "err", err)
			}
		}()
	}
	return l.src.Record(ctx)
}

// classify maps a capture or transcription error to what the dialogue
// reports. Cancelled sessions report nothing.
func classify(ctx context.Context, err error) (dialogue.ErrorKind, bool) {
	switch {
	case ctx.Err() != nil:
		return 0, false
	case errors.Is(err, vad.ErrNoSpeech), errors.Is(err, stt.ErrNoAudio):
		return dialogue.ErrorNoSpeech, true
	case errors.Is(err, fs.ErrPermission):
		return dialogue.ErrorNotAllowed, true
	case errors.As(err, new(*CaptureError)):
		return dialogue.ErrorAudioCapture, true
	default:
		return dialogue.ErrorOther, true
	}
}
