package stt

import (
	"fmt"
	"io"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

// EncodeWAV writes pcm as 16-bit mono WAV at SampleRate.
func EncodeWAV(w io.WriteSeeker, pcm []float32) error {
	data := make([]int, len(pcm))
	for i, x := range pcm {
		x = min(max(x, -1), 1)
		data[i] = int(x * 32767)
	}

	enc := wav.NewEncoder(w, SampleRate, 16, 1, 1)
	buf := &audio.IntBuffer{
		Format:         &audio.Format{NumChannels: 1, SampleRate: SampleRate},
		Data:           data,
		SourceBitDepth: 16,
	}

	if err := enc.Write(buf); err != nil {
		return fmt.Errorf("write wav: %w", err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("close wav: %w", err)
	}
	return nil
}
