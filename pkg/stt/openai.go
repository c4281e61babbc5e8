package stt

import (
	"context"
	"fmt"
	"io"
	log "log/slog"
	"os"

	openai "github.com/openai/openai-go/v3"
)

// OpenAI transcribes through the hosted transcription API.
type OpenAI struct {
	client   openai.Client
	model    openai.AudioModel
	language string
}

func NewOpenAI(client openai.Client, language string) *OpenAI {
	return &OpenAI{
		client:   client,
		model:    openai.AudioModelWhisper1,
		language: language,
	}
}

func (o *OpenAI) Transcribe(ctx context.Context, pcm []float32) (Result, error) {
	if len(pcm) == 0 {
		return Result{}, ErrNoAudio
	}

	f, err := os.CreateTemp("", "thaili-*.wav")
	if err != nil {
		return Result{}, fmt.Errorf("create temp wav: %w", err)
	}
	defer os.Remove(f.Name())
	defer f.Close()

	if err := EncodeWAV(f, pcm); err != nil {
		return Result{}, err
	}
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return Result{}, fmt.Errorf("rewind wav: %w", err)
	}

	params := openai.AudioTranscriptionNewParams{
		File:  openai.File(f, "utterance.wav", "audio/wav"),
		Model: o.model,
	}
	if o.language != "" {
		params.Language = openai.String(o.language)
	}

	resp, err := o.client.Audio.Transcriptions.New(ctx, params)
	if err != nil {
		return Result{}, fmt.Errorf("transcription request: %w", err)
	}

	log.Debug("Transcribed remotely", "model", o.model, "chars", len(resp.Text))

	return Result{
		Text:       resp.Text,
		Confidence: 1,
		Language:   o.language,
	}, nil
}
