// Package whisper runs speech-to-text locally on a whisper.cpp model.
package whisper

import (
	"context"
	"errors"
	"fmt"
	"io"
	"runtime"
	"strings"
	"sync"

	"github.com/ggerganov/whisper.cpp/bindings/go/pkg/whisper"

	"thaili/pkg/stt"
)

type Options struct {
	Language      string // "ne" for Nepali, "auto" to detect
	Threads       int    // <=0 => NumCPU()
	InitialPrompt string // biases decoding towards known commands
	BeamSize      int    // 0 = greedy
	Temperature   float32
}

type Transcriber struct {
	mu    sync.Mutex
	model whisper.Model
	opt   Options
}

func New(modelPath string, opt Options) (*Transcriber, error) {
	if modelPath == "" {
		return nil, errors.New("empty model path")
	}
	m, err := whisper.New(modelPath)
	if err != nil {
		return nil, fmt.Errorf("load model: %w", err)
	}
	if opt.Language == "" {
		opt.Language = "ne"
	}
	return &Transcriber{model: m, opt: opt}, nil
}

func (t *Transcriber) Close() error {
	if t.model == nil {
		return nil
	}
	return t.model.Close()
}

// Transcribe decodes pcm. Confidence is the mean token probability.
func (t *Transcriber) Transcribe(ctx context.Context, pcm []float32) (stt.Result, error) {
	if len(pcm) == 0 {
		return stt.Result{}, stt.ErrNoAudio
	}

	// one context at a time, the model is shared
	t.mu.Lock()
	defer t.mu.Unlock()

	wctx, err := t.model.NewContext()
	if err != nil {
		return stt.Result{}, fmt.Errorf("new context: %w", err)
	}

	if err := wctx.SetLanguage(t.opt.Language); err != nil {
		return stt.Result{}, fmt.Errorf("set language %q: %w", t.opt.Language, err)
	}
	wctx.SetTranslate(false)

	threads := t.opt.Threads
	if threads <= 0 {
		threads = runtime.NumCPU()
	}
	wctx.SetThreads(uint(threads))

	if t.opt.BeamSize > 0 {
		wctx.SetBeamSize(t.opt.BeamSize)
	}
	if t.opt.InitialPrompt != "" {
		wctx.SetInitialPrompt(t.opt.InitialPrompt)
	}
	if t.opt.Temperature != 0 {
		wctx.SetTemperature(t.opt.Temperature)
	}

	if err := wctx.Process(pcm, nil, nil, nil); err != nil {
		return stt.Result{}, fmt.Errorf("process: %w", err)
	}

	var (
		segs   []stt.Segment
		texts  []string
		pSum   float64
		tokens int
	)
	for {
		if err := ctx.Err(); err != nil {
			return stt.Result{}, err
		}

		s, err := wctx.NextSegment()
		if err == io.EOF {
			break
		}
		if err != nil {
			return stt.Result{}, fmt.Errorf("next segment: %w", err)
		}

		segs = append(segs, stt.Segment{
			Text:     s.Text,
			StartSec: s.Start.Seconds(),
			EndSec:   s.End.Seconds(),
		})
		texts = append(texts, strings.TrimSpace(s.Text))

		for _, tok := range s.Tokens {
			pSum += float64(tok.P)
			tokens++
		}
	}

	confidence := 1.0
	if tokens > 0 {
		confidence = pSum / float64(tokens)
	}

	lang := wctx.DetectedLanguage()
	if lang == "" {
		lang = wctx.Language()
	}

	return stt.Result{
		Text:       strings.Join(texts, " "),
		Confidence: confidence,
		Language:   lang,
		Segments:   segs,
	}, nil
}
