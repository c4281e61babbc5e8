// Package tts speaks through espeak-ng.
package tts

/*
#cgo LDFLAGS: -lespeak-ng
#include <stdlib.h>
#include <espeak-ng/speak_lib.h>

static int
tts_init(void)
{
	return espeak_Initialize(AUDIO_OUTPUT_SYNCH_PLAYBACK, 0, NULL, 0);
}

static int
tts_voice(const char *name)
{
	return espeak_SetVoiceByName(name) == EE_OK ? 0 : -1;
}

static void
tts_params(int rate, int pitch, int volume)
{
	espeak_SetParameter(espeakRATE, rate, 0);
	espeak_SetParameter(espeakPITCH, pitch, 0);
	espeak_SetParameter(espeakVOLUME, volume, 0);
}

static int
tts_say(const char *text)
{
	espeak_ERROR rc = espeak_Synth(text, 0, 0, POS_CHARACTER, 0, espeakCHARS_UTF8, NULL, NULL);
	if (rc != EE_OK)
	{ return (int)rc; }

	espeak_Synchronize();
	return 0;
}
*/
import "C"

import (
	"errors"
	"fmt"
	log "log/slog"
	"strings"
	"sync"
	"unsafe"

	"thaili/internal/dialogue"
)

const (
	baseRate   = 175
	basePitch  = 50
	baseVolume = 100
)

var (
	initOnce sync.Once
	initErr  error
)

func initialize() error {
	initOnce.Do(func() {
		if rc := C.tts_init(); rc < 0 {
			initErr = fmt.Errorf("espeak_Initialize failed: %d", int(rc))
		}
	})
	return initErr
}

// Espeak plays one utterance at a time on the default output.
type Espeak struct {
	mu    sync.Mutex // serializes synthesis
	voice string     // last voice that was set
}

func NewEspeak() (*Espeak, error) {
	if err := initialize(); err != nil {
		return nil, err
	}
	return &Espeak{}, nil
}

func (e *Espeak) Speak(u dialogue.Utterance, h dialogue.SpeechHandler) error {
	if strings.TrimSpace(u.Text) == "" {
		return errors.New("empty utterance")
	}

	go func() {
		e.mu.Lock()
		defer e.mu.Unlock()

		h.Started()
		if err := e.say(u); err != nil {
			h.Failed(err)
			return
		}
		h.Ended()
	}()
	return nil
}

// Cancel stops playback in progress.
func (e *Espeak) Cancel() {
	C.espeak_Cancel()
}

func (e *Espeak) say(u dialogue.Utterance) error {
	e.pickVoice(u)

	C.tts_params(
		C.int(scale(baseRate, u.Rate)),
		C.int(scale(basePitch, u.Pitch)),
		C.int(scale(baseVolume, u.Volume)),
	)

	ctext := C.CString(u.Text)
	defer C.free(unsafe.Pointer(ctext))

	if rc := C.tts_say(ctext); rc != 0 {
		return fmt.Errorf("espeak_Synth failed: %d", int(rc))
	}
	return nil
}

// pickVoice tries the language first, then each hint in order.
func (e *Espeak) pickVoice(u dialogue.Utterance) {
	var names []string
	if lang, _, _ := strings.Cut(u.Lang, "-"); lang != "" {
		names = append(names, strings.ToLower(lang))
	}
	names = append(names, u.VoiceHints...)

	for _, name := range names {
		if name == e.voice {
			return
		}
		cname := C.CString(name)
		rc := C.tts_voice(cname)
		C.free(unsafe.Pointer(cname))
		if rc == 0 {
			e.voice = name
			return
		}
		log.Debug("Voice not available", "voice", name)
	}
	log.Warn("No requested voice available, keeping default", "tried", names)
}

func scale(base int, factor float64) int {
	if factor <= 0 {
		return base
	}
	return int(float64(base) * factor)
}
