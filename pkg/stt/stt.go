// Package stt holds the speech-to-text engines. Audio is always mono
// 16 kHz float32 PCM in [-1, 1].
package stt

import (
	"context"
	"errors"
	"strings"
)

const SampleRate = 16000

var ErrNoAudio = errors.New("no audio samples provided")

type Segment struct {
	Text     string
	StartSec float64
	EndSec   float64
}

// Result is one transcription. Confidence is in [0, 1] when the engine
// reports one, otherwise 1.
type Result struct {
	Text       string
	Confidence float64
	Language   string
	Segments   []Segment
}

func (r Result) Empty() bool {
	return strings.TrimSpace(r.Text) == ""
}

type Engine interface {
	Transcribe(ctx context.Context, pcm []float32) (Result, error)
}
