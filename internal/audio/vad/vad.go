// Package vad finds the end of an utterance in a stream of PCM frames by
// watching frame energy.
package vad

import (
	"errors"
	"math"
	"time"
)

// ErrNoSpeech is returned by capture loops that hit Timeout.
var ErrNoSpeech = errors.New("no speech detected")

type Config struct {
	SampleRate int
	Threshold  float64       // RMS above which a frame counts as speech
	Hangover   time.Duration // trailing silence that ends the utterance
	MaxSpeech  time.Duration // hard cap once speech started
	MaxWait    time.Duration // give up when nobody speaks for this long
}

func DefaultConfig() Config {
	return Config{
		SampleRate: 16000,
		Threshold:  0.015,
		Hangover:   600 * time.Millisecond,
		MaxSpeech:  10 * time.Second,
		MaxWait:    8 * time.Second,
	}
}

type Verdict int

const (
	Continue Verdict = iota
	Done             // utterance complete
	Timeout          // no speech within MaxWait
)

// Detector accumulates frames. It is not safe for concurrent use.
type Detector struct {
	cfg Config

	out      []float32
	speaking bool
	silence  int // samples of trailing silence
	waited   int // samples before speech started
	spoken   int // samples since speech started
}

func New(cfg Config) *Detector {
	def := DefaultConfig()
	if cfg.SampleRate <= 0 {
		cfg.SampleRate = def.SampleRate
	}
	if cfg.Threshold <= 0 {
		cfg.Threshold = def.Threshold
	}
	if cfg.Hangover <= 0 {
		cfg.Hangover = def.Hangover
	}
	if cfg.MaxSpeech <= 0 {
		cfg.MaxSpeech = def.MaxSpeech
	}
	if cfg.MaxWait <= 0 {
		cfg.MaxWait = def.MaxWait
	}
	return &Detector{cfg: cfg}
}

func (d *Detector) samples(dur time.Duration) int {
	return int(dur.Seconds() * float64(d.cfg.SampleRate))
}

// Feed consumes one frame. The frame is copied.
func (d *Detector) Feed(frame []float32) Verdict {
	loud := RMS(frame) > d.cfg.Threshold

	if !d.speaking {
		if !loud {
			d.waited += len(frame)
			if d.waited >= d.samples(d.cfg.MaxWait) {
				return Timeout
			}
			return Continue
		}
		d.speaking = true
	}

	d.out = append(d.out, frame...)
	d.spoken += len(frame)

	if loud {
		d.silence = 0
	} else {
		d.silence += len(frame)
		if d.silence >= d.samples(d.cfg.Hangover) {
			return Done
		}
	}

	if d.spoken >= d.samples(d.cfg.MaxSpeech) {
		return Done
	}
	return Continue
}

// Heard reports whether any frame crossed the threshold.
func (d *Detector) Heard() bool { return d.speaking }

// Utterance returns the captured audio, starting at the first loud frame.
func (d *Detector) Utterance() []float32 { return d.out }

func RMS(frame []float32) float64 {
	if len(frame) == 0 {
		return 0
	}
	var s float64
	for _, x := range frame {
		s += float64(x) * float64(x)
	}
	return math.Sqrt(s / float64(len(frame)))
}
