// Package console stands in for the microphone and the speaker: it reads
// transcripts from a terminal and prints what the assistant would say.
package console

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"

	"thaili/internal/dialogue"
	"thaili/internal/nlu"
)

// Recognizer reads one line per recognition. Alternatives are separated by
// "|" and an empty line counts as silence.
type Recognizer struct {
	lines  chan string
	prompt io.Writer

	mu     sync.Mutex
	cancel chan struct{}
	eof    bool
}

// NewRecognizer starts reading r in the background. After EOF, Start
// fails with io.EOF.
func NewRecognizer(r io.Reader, prompt io.Writer) *Recognizer {
	rec := &Recognizer{
		lines:  make(chan string),
		prompt: prompt,
	}
	go func() {
		defer close(rec.lines)
		sc := bufio.NewScanner(r)
		for sc.Scan() {
			rec.lines <- sc.Text()
		}
	}()
	return rec
}

func (r *Recognizer) Supported() bool { return true }

func (r *Recognizer) Start(lang string, h dialogue.RecognitionHandler) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.eof {
		return io.EOF
	}
	if r.cancel != nil {
		return errors.New("console recognizer busy")
	}
	cancel := make(chan struct{})
	r.cancel = cancel

	if r.prompt != nil {
		fmt.Fprintf(r.prompt, "[%s] > ", lang)
	}

	go func() {
		defer h.Ended()
		defer r.release(cancel)
		h.Started()

		select {
		case <-cancel:
		case line, ok := <-r.lines:
			if !ok {
				r.mu.Lock()
				r.eof = true
				r.mu.Unlock()
				h.Failed(dialogue.ErrorAudioCapture)
				return
			}
			alts := Parse(line)
			if len(alts) == 0 {
				h.Failed(dialogue.ErrorNoSpeech)
				return
			}
			h.Result(alts)
		}
	}()
	return nil
}

func (r *Recognizer) Stop() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.cancel != nil {
		close(r.cancel)
		r.cancel = nil
	}
}

func (r *Recognizer) release(cancel chan struct{}) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.cancel == cancel {
		r.cancel = nil
	}
}

// Parse splits a typed line into recognition alternatives, best first.
// Confidence falls off with position.
func Parse(line string) []nlu.Alternative {
	var alts []nlu.Alternative
	for _, part := range strings.Split(line, "|") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		alts = append(alts, nlu.Alternative{
			Text:       part,
			Confidence: 1 / float64(len(alts)+1),
		})
	}
	return alts
}

// Speaker prints utterances. Speech finishes as soon as it is printed.
type Speaker struct {
	mu  sync.Mutex
	out io.Writer
}

func NewSpeaker(out io.Writer) *Speaker {
	return &Speaker{out: out}
}

func (s *Speaker) Speak(u dialogue.Utterance, h dialogue.SpeechHandler) error {
	s.mu.Lock()
	_, err := fmt.Fprintf(s.out, "🔊 %s\n", u.Text)
	s.mu.Unlock()
	if err != nil {
		return err
	}

	go func() {
		h.Started()
		h.Ended()
	}()
	return nil
}

func (s *Speaker) Cancel() {}
