package vad

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const frame = 320 // 20ms at 16 kHz

func tone(level float32) []float32 {
	f := make([]float32, frame)
	for i := range f {
		if i%2 == 0 {
			f[i] = level
		} else {
			f[i] = -level
		}
	}
	return f
}

func testConfig() Config {
	return Config{
		SampleRate: 16000,
		Threshold:  0.05,
		Hangover:   100 * time.Millisecond, // 5 frames
		MaxSpeech:  time.Second,
		MaxWait:    200 * time.Millisecond, // 10 frames
	}
}

func TestRMS(t *testing.T) {
	assert.Zero(t, RMS(nil))
	assert.InDelta(t, 0.5, RMS(tone(0.5)), 1e-6)
}

func TestDetectorEndsAfterHangover(t *testing.T) {
	d := New(testConfig())

	for range 3 {
		require.Equal(t, Continue, d.Feed(tone(0)))
	}
	for range 10 {
		require.Equal(t, Continue, d.Feed(tone(0.3)))
	}
	for range 4 {
		require.Equal(t, Continue, d.Feed(tone(0)))
	}
	assert.Equal(t, Done, d.Feed(tone(0)))

	assert.True(t, d.Heard())
	// leading silence is dropped, trailing silence kept
	assert.Len(t, d.Utterance(), 15*frame)
}

func TestDetectorSpeechResetsSilence(t *testing.T) {
	d := New(testConfig())

	d.Feed(tone(0.3))
	for range 4 {
		require.Equal(t, Continue, d.Feed(tone(0)))
	}
	require.Equal(t, Continue, d.Feed(tone(0.3)))
	for range 4 {
		require.Equal(t, Continue, d.Feed(tone(0)))
	}
	assert.Equal(t, Done, d.Feed(tone(0)))
}

func TestDetectorTimeoutWithoutSpeech(t *testing.T) {
	d := New(testConfig())

	for range 9 {
		require.Equal(t, Continue, d.Feed(tone(0.01)))
	}
	assert.Equal(t, Timeout, d.Feed(tone(0.01)))
	assert.False(t, d.Heard())
	assert.Empty(t, d.Utterance())
}

func TestDetectorMaxSpeech(t *testing.T) {
	d := New(testConfig())

	var v Verdict
	n := 0
	for v = Continue; v == Continue; n++ {
		v = d.Feed(tone(0.3))
	}
	assert.Equal(t, Done, v)
	assert.Equal(t, 50, n)
}

func TestNewFillsDefaults(t *testing.T) {
	d := New(Config{})
	assert.Equal(t, DefaultConfig(), d.cfg)
}
