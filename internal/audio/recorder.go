// Package audio captures microphone input through PortAudio.
package audio

import (
	"context"
	"errors"
	"fmt"
	log "log/slog"

	"github.com/gordonklaus/portaudio"

	"thaili/internal/audio/vad"
)

const (
	SampleRate = 16000
	frameSize  = 320 // 20ms
)

type Recorder struct {
	vad vad.Config
}

func NewRecorder(cfg vad.Config) *Recorder {
	cfg.SampleRate = SampleRate
	return &Recorder{vad: cfg}
}

func (r *Recorder) Init() error {
	return portaudio.Initialize()
}

func (r *Recorder) Close() {
	portaudio.Terminate()
}

// Record captures one utterance from the default input device. It returns
// vad.ErrNoSpeech when nothing loud enough arrives in time, and ctx.Err() when
// cancelled.
func (r *Recorder) Record(ctx context.Context) ([]float32, error) {
	buf := make([]float32, frameSize)

	stream, err := portaudio.OpenDefaultStream(1, 0, SampleRate, len(buf), buf)
	if err != nil {
		return nil, fmt.Errorf("open input stream: %w", err)
	}
	defer stream.Close()

	if err := stream.Start(); err != nil {
		return nil, fmt.Errorf("start input stream: %w", err)
	}
	defer stream.Stop()

	det := vad.New(r.vad)
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		if err := stream.Read(); err != nil && !errors.Is(err, portaudio.InputOverflowed) {
			return nil, fmt.Errorf("read input stream: %w", err)
		}

		switch det.Feed(buf) {
		case vad.Timeout:
			return nil, vad.ErrNoSpeech
		case vad.Done:
			pcm := det.Utterance()
			log.Debug("Captured utterance", "samples", len(pcm))
			return pcm, nil
		}
	}
}
