package listener

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"sync"

	"thaili/internal/audio/vad"
)

// CaptureError marks a failure of the audio device itself.
type CaptureError struct {
	Err error
}

func (e *CaptureError) Error() string { return "audio capture: " + e.Err.Error() }
func (e *CaptureError) Unwrap() error { return e.Err }

// Mic adapts a microphone recorder. Errors other than no-speech and
// permission denials are reported as capture failures.
type Mic struct {
	Recorder Source
}

func (m Mic) Record(ctx context.Context) ([]float32, error) {
	pcm, err := m.Recorder.Record(ctx)
	if err == nil {
		return pcm, nil
	}
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}
	if errors.Is(err, vad.ErrNoSpeech) || errors.Is(err, fs.ErrPermission) {
		return nil, err
	}
	return nil, &CaptureError{Err: err}
}

// Files replays audio files, one per recording, in order.
type Files struct {
	decode func(path string) ([]float32, error)

	mu    sync.Mutex
	paths []string
}

func NewFiles(decode func(path string) ([]float32, error), paths ...string) *Files {
	return &Files{decode: decode, paths: paths}
}

func (f *Files) Record(ctx context.Context) ([]float32, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	f.mu.Lock()
	if len(f.paths) == 0 {
		f.mu.Unlock()
		return nil, ErrExhausted
	}
	path := f.paths[0]
	f.paths = f.paths[1:]
	f.mu.Unlock()

	pcm, err := f.decode(path)
	if err != nil {
		return nil, &CaptureError{Err: fmt.Errorf("decode %s: %w", path, err)}
	}
	return pcm, nil
}

func (f *Files) Drained() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.paths) == 0
}
