package main

import (
	"fmt"
	log "log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	openai "github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"

	"thaili/internal/audio"
	"thaili/internal/audio/duck"
	"thaili/internal/audio/vad"
	"thaili/internal/config"
	"thaili/internal/console"
	"thaili/internal/corpus"
	"thaili/internal/dialogue"
	"thaili/internal/listener"
	"thaili/internal/notify"
	"thaili/internal/tts"
	"thaili/pkg/audioconv"
	"thaili/pkg/stt"
	"thaili/pkg/stt/whisper"
)

const maxFileSamples = 30 * audioconv.TargetRate

// newRecognizer builds the configured recognizer. The returned func releases
// audio devices and models.
func newRecognizer(cfg *config.Config, hc *http.Client, cmds *corpus.Corpus) (dialogue.Recognizer, func(), error) {
	if cfg.Recognizer.Backend == config.BackendConsole {
		return console.NewRecognizer(os.Stdin, os.Stdout), func() {}, nil
	}

	var closers []func()
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	var engine stt.Engine
	switch cfg.Recognizer.Backend {
	case config.BackendOpenAI:
		client := openai.NewClient(
			option.WithAPIKey(cfg.OpenAIKey),
			option.WithHTTPClient(hc),
		)
		engine = stt.NewOpenAI(client, "ne")
		log.Debug("Loaded OpenAI transcription")

	case config.BackendWhisper:
		w, err := whisper.New(cfg.Recognizer.Model, whisper.Options{
			Language:      "ne",
			Threads:       cfg.Recognizer.Threads,
			InitialPrompt: prompt(cmds),
		})
		if err != nil {
			return nil, nil, fmt.Errorf("init whisper: %w", err)
		}
		closers = append(closers, func() { w.Close() })
		engine = w
		log.Debug("Loaded whisper", "model", cfg.Recognizer.Model)
	}

	var opts []listener.Option

	var src listener.Source
	if files := cfg.Recognizer.Files; len(files) > 0 {
		src = listener.NewFiles(func(path string) ([]float32, error) {
			return audioconv.DecodeFile(path, audioconv.Options{MaxSamples: maxFileSamples})
		}, files...)
	} else {
		rec := audio.NewRecorder(vad.DefaultConfig())
		if err := rec.Init(); err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("init audio: %w", err)
		}
		closers = append(closers, rec.Close)
		src = listener.Mic{Recorder: rec}

		if cfg.Duck {
			opts = append(opts, listener.WithDucker(duck.New(duck.Config{
				Skip:      []string{"thaili", "espeak-ng"},
				Factor:    0.3,
				MinVolume: 10,
				Fade:      250 * time.Millisecond,
			}, nil)))
		}
	}

	if cfg.CueFile != "" {
		cue, err := notify.NewCue(cfg.CueFile)
		if err != nil {
			log.Warn("Listening cue disabled", "err", err)
		} else {
			opts = append(opts, listener.WithCue(cue))
		}
	}

	return listener.New(src, engine, opts...), cleanup, nil
}

func newSynthesizer(cfg *config.Config) (dialogue.Synthesizer, error) {
	if cfg.TTS == config.TTSConsole {
		return console.NewSpeaker(os.Stdout), nil
	}
	return tts.NewEspeak()
}

// prompt nudges whisper towards the known command phrases.
func prompt(cmds *corpus.Corpus) string {
	var phrases []string
	for _, e := range cmds.Entries() {
		phrases = append(phrases, e.Command)
	}
	return strings.Join(phrases, "। ")
}
