package dialogue

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"thaili/internal/corpus"
	"thaili/internal/nlu"
)

const (
	waitFor = time.Second
	tick    = 5 * time.Millisecond
)

type fakeRecognizer struct {
	supported bool
	startErr  error

	mu       sync.Mutex
	handlers []RecognitionHandler
	stops    int
}

func (r *fakeRecognizer) Supported() bool { return r.supported }

func (r *fakeRecognizer) Start(lang string, h RecognitionHandler) error {
	if r.startErr != nil {
		return r.startErr
	}
	r.mu.Lock()
	r.handlers = append(r.handlers, h)
	r.mu.Unlock()
	h.Started()
	return nil
}

func (r *fakeRecognizer) Stop() {
	r.mu.Lock()
	r.stops++
	r.mu.Unlock()
}

func (r *fakeRecognizer) starts() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.handlers)
}

func (r *fakeRecognizer) last() RecognitionHandler {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.handlers[len(r.handlers)-1]
}

func (r *fakeRecognizer) say(texts ...string) {
	alts := make([]nlu.Alternative, len(texts))
	for i, t := range texts {
		alts[i] = nlu.Alternative{Text: t, Confidence: 0.9}
	}
	h := r.last()
	h.Result(alts)
	h.Ended()
}

// fakeSynthesizer finishes every utterance at once unless hold is set.
type fakeSynthesizer struct {
	hold bool

	mu       sync.Mutex
	spoken   []Utterance
	pending  SpeechHandler
	canceled int
}

func (s *fakeSynthesizer) Speak(u Utterance, h SpeechHandler) error {
	s.mu.Lock()
	s.spoken = append(s.spoken, u)
	hold := s.hold
	if hold {
		s.pending = h
	}
	s.mu.Unlock()

	if !hold {
		go func() {
			h.Started()
			h.Ended()
		}()
	}
	return nil
}

func (s *fakeSynthesizer) Cancel() {
	s.mu.Lock()
	s.canceled++
	s.mu.Unlock()
}

func (s *fakeSynthesizer) texts() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.spoken))
	for i, u := range s.spoken {
		out[i] = u.Text
	}
	return out
}

func (s *fakeSynthesizer) said(text string) bool {
	for _, t := range s.texts() {
		if t == text {
			return true
		}
	}
	return false
}

func (s *fakeSynthesizer) finish() {
	s.mu.Lock()
	h := s.pending
	s.pending = nil
	s.mu.Unlock()
	if h != nil {
		h.Ended()
	}
}

type fakeRecorder struct {
	mu    sync.Mutex
	heard []string
}

func (r *fakeRecorder) Record(t string) {
	r.mu.Lock()
	r.heard = append(r.heard, t)
	r.mu.Unlock()
}

type hostLog struct {
	mu        sync.Mutex
	searches  []string
	navigates []string
	intents   []string
	states    []State
	statuses  []Status
	selected  bool
}

func (h *hostLog) callbacks() Callbacks {
	return Callbacks{
		OnSearch: func(q string) {
			h.mu.Lock()
			h.searches = append(h.searches, q)
			h.mu.Unlock()
		},
		OnNavigate: func(t string) {
			h.mu.Lock()
			h.navigates = append(h.navigates, t)
			h.mu.Unlock()
		},
		OnIntent: func(r nlu.MatchResult) {
			h.mu.Lock()
			h.intents = append(h.intents, r.Intent)
			h.mu.Unlock()
		},
		OnStatusChange: func(s Status) {
			h.mu.Lock()
			h.states = append(h.states, s.State)
			h.statuses = append(h.statuses, s)
			h.mu.Unlock()
		},
		HasSelection: func() bool {
			h.mu.Lock()
			defer h.mu.Unlock()
			return h.selected
		},
	}
}

func (h *hostLog) snapshot() (searches, navigates, intents []string, states []State) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]string(nil), h.searches...),
		append([]string(nil), h.navigates...),
		append([]string(nil), h.intents...),
		append([]State(nil), h.states...)
}

func (h *hostLog) statusCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.statuses)
}

func (h *hostLog) statusesFrom(i int) []Status {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]Status(nil), h.statuses[i:]...)
}

type harness struct {
	ctrl  *Controller
	rec   *fakeRecognizer
	synth *fakeSynthesizer
	train *fakeRecorder
	host  *hostLog
}

func newHarness(t *testing.T, rec *fakeRecognizer, synth *fakeSynthesizer) *harness {
	t.Helper()

	c := corpus.New(corpus.Seed())
	m, err := nlu.NewMatcher(c, 16)
	require.NoError(t, err)

	h := &harness{rec: rec, synth: synth, train: &fakeRecorder{}, host: &hostLog{}}
	h.ctrl, err = New(Config{
		Recognizer:      rec,
		Synthesizer:     synth,
		Matcher:         m,
		Corpus:          c,
		Recorder:        h.train,
		Callbacks:       h.host.callbacks(),
		ActivationDelay: 10 * time.Millisecond,
		StopDelay:       20 * time.Millisecond,
	})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = h.ctrl.Run(ctx)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})

	return h
}

func (h *harness) listening(t *testing.T, sessions int) {
	t.Helper()
	require.Eventually(t, func() bool {
		st := h.ctrl.Status()
		return st.State == Listening && st.Listening && h.rec.starts() == sessions
	}, waitFor, tick)
}

func (h *harness) activate(t *testing.T) {
	t.Helper()
	require.True(t, h.ctrl.Activate())
	h.listening(t, 1)
}

func TestController_StopCommandEndsIdle(t *testing.T) {
	h := newHarness(t, &fakeRecognizer{supported: true}, &fakeSynthesizer{})
	h.activate(t)

	h.rec.say("बन्द गर्नुहोस्")

	require.Eventually(t, func() bool {
		return h.ctrl.Status().State == Idle && h.synth.said(MsgFarewell)
	}, waitFor, tick)

	_, _, intents, states := h.host.snapshot()
	assert.Equal(t, []string{nlu.IntentStop}, intents)
	assert.Subset(t, states, []State{Listening, Processing, Speaking, Idle})
	assert.True(t, h.synth.said(nlu.StopResponse))
	assert.Equal(t, 1, h.rec.starts(), "no listening after stop")
	assert.False(t, h.ctrl.Status().Active)
}

func TestController_StopDelayIsNotSpeaking(t *testing.T) {
	synth := &fakeSynthesizer{hold: true}
	h := newHarness(t, &fakeRecognizer{supported: true}, synth)
	h.activate(t)

	h.rec.say("बन्द गर्नुहोस्")
	require.Eventually(t, func() bool { return synth.said(nlu.StopResponse) }, waitFor, tick)

	mark := h.host.statusCount()
	synth.finish()
	require.Eventually(t, func() bool {
		return h.ctrl.Status().State == Idle && synth.said(MsgFarewell)
	}, waitFor, tick)

	var sawDelay bool
	for _, st := range h.host.statusesFrom(mark) {
		assert.False(t, st.State == Speaking && !st.Speaking, "status %+v", st)
		if st.State == Processing && st.Active && !st.Speaking {
			sawDelay = true
		}
	}
	assert.True(t, sawDelay, "stop delay published as processing")
}

func TestController_FallbackResumesListening(t *testing.T) {
	h := newHarness(t, &fakeRecognizer{supported: true}, &fakeSynthesizer{})
	h.activate(t)

	h.rec.say("xyz123 unrelated text")

	h.listening(t, 2)
	assert.True(t, h.synth.said(MsgNotUnderstood))

	searches, navigates, intents, _ := h.host.snapshot()
	assert.Empty(t, searches)
	assert.Empty(t, navigates)
	assert.Empty(t, intents)
}

func TestController_SearchDispatch(t *testing.T) {
	h := newHarness(t, &fakeRecognizer{supported: true}, &fakeSynthesizer{})
	h.activate(t)

	h.rec.say("ऋण खोज्नुहोस्", "रिन खोज्नुहोस्")

	h.listening(t, 2)
	searches, _, intents, _ := h.host.snapshot()
	assert.Equal(t, []string{"loan खोज्नुहोस्"}, searches)
	assert.Equal(t, []string{"search_loans"}, intents)
	assert.True(t, h.synth.said("ऋण कार्यक्रमहरू खोजिरहेको छु..."))

	h.train.mu.Lock()
	defer h.train.mu.Unlock()
	assert.Equal(t, []string{"ऋण खोज्नुहोस्", "रिन खोज्नुहोस्"}, h.train.heard)
}

func TestController_CompareNeedsSelection(t *testing.T) {
	h := newHarness(t, &fakeRecognizer{supported: true}, &fakeSynthesizer{})
	h.activate(t)

	h.rec.say("तुलना गर्नुहोस्")
	h.listening(t, 2)

	h.host.mu.Lock()
	h.host.selected = true
	h.host.mu.Unlock()

	h.rec.say("तुलना गर्नुहोस्")
	h.listening(t, 3)

	_, navigates, intents, _ := h.host.snapshot()
	assert.Equal(t, []string{nlu.IntentCompareEmpty, nlu.IntentCompare}, intents)
	assert.Equal(t, []string{nlu.TargetCompare}, navigates)
}

func TestController_ActivateIsIdempotent(t *testing.T) {
	h := newHarness(t, &fakeRecognizer{supported: true}, &fakeSynthesizer{})

	require.True(t, h.ctrl.Activate())
	require.True(t, h.ctrl.Activate())
	h.listening(t, 1)
	require.True(t, h.ctrl.Activate())

	assert.Never(t, func() bool { return h.rec.starts() > 1 }, 60*time.Millisecond, tick)

	activations := 0
	for _, text := range h.synth.texts() {
		if text == MsgActivated {
			activations++
		}
	}
	assert.Equal(t, 1, activations)
}

func TestController_Unsupported(t *testing.T) {
	h := newHarness(t, &fakeRecognizer{supported: false}, &fakeSynthesizer{})

	assert.False(t, h.ctrl.Supported())
	assert.False(t, h.ctrl.Activate())
	assert.ErrorIs(t, h.ctrl.Toggle(), ErrUnsupported)

	assert.Never(t, func() bool { return h.rec.starts() > 0 }, 50*time.Millisecond, tick)
	st := h.ctrl.Status()
	assert.False(t, st.Supported)
	assert.False(t, st.Active)
	assert.Equal(t, Idle, st.State)
	assert.Empty(t, h.synth.texts())
}

func TestController_RecognitionErrors(t *testing.T) {
	for _, kind := range []ErrorKind{ErrorNoSpeech, ErrorAudioCapture, ErrorNotAllowed, ErrorOther} {
		t.Run(kind.String(), func(t *testing.T) {
			h := newHarness(t, &fakeRecognizer{supported: true}, &fakeSynthesizer{})
			h.activate(t)

			r := h.rec.last()
			r.Failed(kind)
			r.Ended()

			h.listening(t, 2)
			assert.True(t, h.synth.said(ErrorMessage(kind)))
		})
	}
}

func TestController_EndedWithoutResultRestarts(t *testing.T) {
	h := newHarness(t, &fakeRecognizer{supported: true}, &fakeSynthesizer{})
	h.activate(t)

	h.rec.last().Ended()

	h.listening(t, 2)
}

func TestController_ToggleOffWhileListening(t *testing.T) {
	h := newHarness(t, &fakeRecognizer{supported: true}, &fakeSynthesizer{})
	h.activate(t)
	stale := h.rec.last()

	require.NoError(t, h.ctrl.Toggle())

	require.Eventually(t, func() bool {
		return h.ctrl.Status().State == Idle && h.synth.said(MsgFarewell)
	}, waitFor, tick)

	h.rec.mu.Lock()
	assert.Equal(t, 1, h.rec.stops)
	h.rec.mu.Unlock()

	// a late result of the stopped session changes nothing
	stale.Result([]nlu.Alternative{{Text: "ऋण खोज्नुहोस्"}})
	assert.Never(t, func() bool {
		searches, _, _, _ := h.host.snapshot()
		return len(searches) > 0 || h.ctrl.Status().State != Idle
	}, 50*time.Millisecond, tick)
}

func TestController_DeactivateCancelsActivationTimer(t *testing.T) {
	h := newHarness(t, &fakeRecognizer{supported: true}, &fakeSynthesizer{hold: true})

	require.True(t, h.ctrl.Activate())
	h.ctrl.Deactivate()

	require.Eventually(t, func() bool { return h.synth.said(MsgFarewell) }, waitFor, tick)
	assert.Never(t, func() bool { return h.rec.starts() > 0 }, 50*time.Millisecond, tick)
	assert.Equal(t, Idle, h.ctrl.Status().State)
}

func TestController_StopSpeakingResumesListening(t *testing.T) {
	synth := &fakeSynthesizer{hold: true}
	h := newHarness(t, &fakeRecognizer{supported: true}, synth)

	require.True(t, h.ctrl.Activate())
	h.listening(t, 1)

	h.rec.say("xyz123 unrelated text")
	require.Eventually(t, func() bool {
		st := h.ctrl.Status()
		return st.State == Speaking && st.Speaking && synth.said(MsgNotUnderstood)
	}, waitFor, tick)

	h.ctrl.StopSpeaking()

	h.listening(t, 2)
	synth.mu.Lock()
	assert.GreaterOrEqual(t, synth.canceled, 1)
	synth.mu.Unlock()
}

func TestController_StaleSpeechEndIgnored(t *testing.T) {
	synth := &fakeSynthesizer{hold: true}
	h := newHarness(t, &fakeRecognizer{supported: true}, synth)

	require.True(t, h.ctrl.Activate())
	h.listening(t, 1)

	h.rec.say("xyz123 unrelated text")
	require.Eventually(t, func() bool { return synth.said(MsgNotUnderstood) }, waitFor, tick)

	synth.mu.Lock()
	fallback := synth.pending
	synth.mu.Unlock()

	// farewell replaces the fallback utterance
	h.ctrl.Deactivate()
	require.Eventually(t, func() bool { return synth.said(MsgFarewell) }, waitFor, tick)

	fallback.Ended()
	assert.Never(t, func() bool { return h.rec.starts() > 1 }, 50*time.Millisecond, tick)
}

func TestController_StartFailureGoesIdle(t *testing.T) {
	h := newHarness(t, &fakeRecognizer{supported: true, startErr: errors.New("no device")}, &fakeSynthesizer{})

	require.True(t, h.ctrl.Activate())

	require.Eventually(t, func() bool {
		return h.synth.said(ErrorMessage(ErrorAudioCapture)) && h.ctrl.Status().State == Idle
	}, waitFor, tick)
}

func TestController_StatusCarriesCorpusSize(t *testing.T) {
	h := newHarness(t, &fakeRecognizer{supported: true}, &fakeSynthesizer{})

	st := h.ctrl.Status()
	assert.Equal(t, len(corpus.Seed()), st.CorpusSize)
	assert.True(t, st.Supported)
}

func TestController_UtteranceSettings(t *testing.T) {
	h := newHarness(t, &fakeRecognizer{supported: true}, &fakeSynthesizer{})
	h.activate(t)

	h.synth.mu.Lock()
	defer h.synth.mu.Unlock()
	require.NotEmpty(t, h.synth.spoken)
	u := h.synth.spoken[0]
	assert.Equal(t, DefaultLang, u.Lang)
	assert.Equal(t, DefaultVoice(), Voice{Rate: u.Rate, Pitch: u.Pitch, Volume: u.Volume, Hints: u.VoiceHints})
}
