// Package dialogue runs the voice assistant conversation: it activates,
// listens, matches what was heard, speaks back and drives host actions.
//
// All state is owned by the goroutine running Controller.Run. Public
// methods and collaborator callbacks only post events to it.
package dialogue

import (
	"context"
	"errors"
	log "log/slog"
	"strings"
	"sync"
	"time"

	"thaili/internal/nlu"
)

var ErrUnsupported = errors.New("speech recognition not supported")

const (
	DefaultLang            = "ne-NP"
	DefaultActivationDelay = 2 * time.Second
	DefaultStopDelay       = 2 * time.Second
)

// Voice holds the synthesis settings applied to every utterance.
type Voice struct {
	Rate   float64
	Pitch  float64
	Volume float64
	Hints  []string
}

func DefaultVoice() Voice {
	return Voice{Rate: 0.8, Pitch: 1.1, Volume: 0.9, Hints: []string{"ne", "hi", "en"}}
}

type Config struct {
	Recognizer  Recognizer
	Synthesizer Synthesizer
	Matcher     Matcher
	Corpus      Sizer
	Recorder    Recorder
	Callbacks   Callbacks

	Lang            string
	Voice           Voice
	ActivationDelay time.Duration
	StopDelay       time.Duration
}

// what happens once the current utterance is done
type afterSpeech int

const (
	thenNothing afterSpeech = iota
	thenListen
	thenStop
	thenIdle
)

type Controller struct {
	cfg       Config
	supported bool

	events chan func()
	quit   chan struct{}

	// owned by the Run goroutine
	state     State
	listening bool
	listenID  uint64
	speaking  bool
	speechID  uint64
	after     afterSpeech
	timer     *time.Timer
	timerGen  uint64

	mu     sync.RWMutex
	status Status
}

func New(cfg Config) (*Controller, error) {
	if cfg.Recognizer == nil || cfg.Synthesizer == nil || cfg.Matcher == nil {
		return nil, errors.New("dialogue: missing collaborator")
	}

	if cfg.Lang == "" {
		cfg.Lang = DefaultLang
	}
	if cfg.ActivationDelay <= 0 {
		cfg.ActivationDelay = DefaultActivationDelay
	}
	if cfg.StopDelay <= 0 {
		cfg.StopDelay = DefaultStopDelay
	}
	if cfg.Voice.Rate == 0 && cfg.Voice.Pitch == 0 && cfg.Voice.Volume == 0 {
		hints := cfg.Voice.Hints
		cfg.Voice = DefaultVoice()
		if len(hints) > 0 {
			cfg.Voice.Hints = hints
		}
	}

	c := &Controller{
		cfg:       cfg,
		supported: cfg.Recognizer.Supported(),
		events:    make(chan func(), 64),
		quit:      make(chan struct{}),
	}
	if !c.supported {
		log.Warn("Speech recognition not supported, assistant disabled")
	}
	c.status = c.snapshot()

	return c, nil
}

// Run processes events until ctx is done. It must be called exactly once.
func (c *Controller) Run(ctx context.Context) error {
	defer close(c.quit)

	for {
		select {
		case <-ctx.Done():
			c.shutdown()
			return ctx.Err()
		case fn := <-c.events:
			fn()
		}
	}
}

func (c *Controller) post(fn func()) {
	select {
	case c.events <- fn:
	case <-c.quit:
	}
}

func (c *Controller) Supported() bool {
	return c.supported
}

// Activate starts the assistant. It is a no-op while already active and
// reports false only when recognition is unsupported.
func (c *Controller) Activate() bool {
	if !c.supported {
		return false
	}
	c.post(c.activate)
	return true
}

func (c *Controller) Deactivate() {
	c.post(c.deactivate)
}

func (c *Controller) Toggle() error {
	if !c.supported {
		return ErrUnsupported
	}
	c.post(func() {
		if c.state == Idle {
			c.activate()
		} else {
			c.deactivate()
		}
	})
	return nil
}

// StopSpeaking cuts the current utterance short and continues as if it had
// finished.
func (c *Controller) StopSpeaking() {
	c.post(c.stopSpeaking)
}

func (c *Controller) Status() Status {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.status
}

func (c *Controller) activate() {
	if c.state != Idle {
		return
	}

	log.Info("Activating assistant")
	c.setState(Activating)
	c.speak(MsgActivated, thenNothing)
	c.arm(c.cfg.ActivationDelay, func() {
		if c.state == Activating {
			c.startListening()
		}
	})
}

func (c *Controller) deactivate() {
	if c.state == Idle {
		return
	}

	log.Info("Deactivating assistant")
	c.disarm()
	c.stopListening()
	c.setState(Idle)
	c.speak(MsgFarewell, thenNothing)
}

// goIdle is deactivate without the farewell.
func (c *Controller) goIdle() {
	c.disarm()
	c.stopListening()
	c.setState(Idle)
}

func (c *Controller) shutdown() {
	c.disarm()
	c.stopListening()
	if c.speaking {
		c.cfg.Synthesizer.Cancel()
		c.speaking = false
	}
	c.setState(Idle)
}

func (c *Controller) startListening() {
	if c.listening || c.state == Idle {
		return
	}

	c.listenID++
	h := &recognition{c: c, id: c.listenID}

	if err := c.cfg.Recognizer.Start(c.cfg.Lang, h); err != nil {
		log.Error("Failed to start recognition", "err", err)
		c.setState(Speaking)
		c.speak(ErrorMessage(ErrorAudioCapture), thenIdle)
		return
	}

	log.Debug("Listening", "session", c.listenID)
	c.listening = true
	c.setState(Listening)
}

func (c *Controller) stopListening() {
	if c.listening {
		c.cfg.Recognizer.Stop()
		c.listening = false
	}
	// late events of the stopped session are stale now
	c.listenID++
}

func (c *Controller) onRecognitionStarted(id uint64) {
	if id != c.listenID {
		return
	}
	log.Debug("Recognition started", "session", id)
}

func (c *Controller) onResult(id uint64, alts []nlu.Alternative) {
	if id != c.listenID || c.state != Listening {
		return
	}
	c.listening = false
	c.process(alts)
}

func (c *Controller) onRecognitionFailed(id uint64, kind ErrorKind) {
	if id != c.listenID {
		return
	}
	c.listening = false
	if c.state != Listening {
		return
	}

	log.Warn("Recognition failed", "kind", kind)
	c.setState(Speaking)
	c.speak(ErrorMessage(kind), thenListen)
}

func (c *Controller) onRecognitionEnded(id uint64) {
	if id != c.listenID || !c.listening {
		return
	}
	c.listening = false

	if c.state == Listening {
		log.Debug("Recognition ended without result, restarting")
		c.startListening()
	}
}

func (c *Controller) process(alts []nlu.Alternative) {
	c.setState(Processing)

	if c.cfg.Recorder != nil {
		for _, a := range alts {
			if t := strings.TrimSpace(a.Text); t != "" {
				c.cfg.Recorder.Record(t)
			}
		}
	}

	res, ok := c.cfg.Matcher.Match(alts)
	if !ok {
		var hint string
		if len(alts) > 0 {
			hint = nlu.Category(alts[0].Text)
		}
		log.Info("No command matched", "alternatives", len(alts), "category", hint)
		c.setState(Speaking)
		c.speak(MsgNotUnderstood, thenListen)
		return
	}

	act := nlu.Dispatch(res, c.hasSelection())
	res.Intent = act.Intent

	log.Info("Matched command", "intent", res.Intent, "score", res.Score, "source", res.Source, "action", act.Kind)

	if cb := c.cfg.Callbacks.OnIntent; cb != nil {
		cb(res)
	}

	next := thenListen
	if act.Kind == nlu.ActionStop {
		next = thenStop
	}

	c.setState(Speaking)
	c.speak(res.Response, next)

	switch act.Kind {
	case nlu.ActionSearch:
		if cb := c.cfg.Callbacks.OnSearch; cb != nil {
			cb(act.Query)
		}
	case nlu.ActionNavigate:
		if cb := c.cfg.Callbacks.OnNavigate; cb != nil {
			cb(act.Target)
		}
	}
}

func (c *Controller) hasSelection() bool {
	if cb := c.cfg.Callbacks.HasSelection; cb != nil {
		return cb()
	}
	return false
}

// speak replaces any utterance in flight.
func (c *Controller) speak(text string, next afterSpeech) {
	if c.speaking {
		c.cfg.Synthesizer.Cancel()
	}

	c.speechID++
	id := c.speechID
	c.after = next
	c.speaking = true

	u := Utterance{
		Text:       text,
		Lang:       c.cfg.Lang,
		Rate:       c.cfg.Voice.Rate,
		Pitch:      c.cfg.Voice.Pitch,
		Volume:     c.cfg.Voice.Volume,
		VoiceHints: c.cfg.Voice.Hints,
	}

	if err := c.cfg.Synthesizer.Speak(u, &speech{c: c, id: id}); err != nil {
		log.Error("Failed to speak", "err", err)
		c.speechDone(id)
		return
	}
	c.publish()
}

func (c *Controller) stopSpeaking() {
	if !c.speaking {
		return
	}
	c.cfg.Synthesizer.Cancel()
	c.speechDone(c.speechID)
}

func (c *Controller) speechDone(id uint64) {
	if id != c.speechID || !c.speaking {
		return
	}
	c.speaking = false

	next := c.after
	c.after = thenNothing

	switch next {
	case thenListen:
		c.startListening()
	case thenStop:
		// nothing is spoken until the farewell
		c.setState(Processing)
		c.arm(c.cfg.StopDelay, c.deactivate)
	case thenIdle:
		c.goIdle()
	}
	c.publish()
}

func (c *Controller) arm(d time.Duration, fn func()) {
	c.disarm()
	gen := c.timerGen

	c.timer = time.AfterFunc(d, func() {
		c.post(func() {
			if gen != c.timerGen {
				return
			}
			c.timer = nil
			fn()
		})
	})
}

func (c *Controller) disarm() {
	c.timerGen++
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
}

func (c *Controller) setState(s State) {
	if c.state != s {
		log.Debug("State", "from", c.state, "to", s)
	}
	c.state = s
	c.publish()
}

func (c *Controller) snapshot() Status {
	size := 0
	if c.cfg.Corpus != nil {
		size = c.cfg.Corpus.Len()
	}
	return Status{
		Active:     c.state != Idle,
		Listening:  c.listening,
		Speaking:   c.speaking,
		CorpusSize: size,
		State:      c.state,
		Supported:  c.supported,
	}
}

func (c *Controller) publish() {
	st := c.snapshot()

	c.mu.Lock()
	changed := st != c.status
	c.status = st
	c.mu.Unlock()

	if changed && c.cfg.Callbacks.OnStatusChange != nil {
		c.cfg.Callbacks.OnStatusChange(st)
	}
}

type recognition struct {
	c  *Controller
	id uint64
}

func (r *recognition) Started() {
	r.c.post(func() { r.c.onRecognitionStarted(r.id) })
}

func (r *recognition) Result(alts []nlu.Alternative) {
	r.c.post(func() { r.c.onResult(r.id, alts) })
}

func (r *recognition) Failed(kind ErrorKind) {
	r.c.post(func() { r.c.onRecognitionFailed(r.id, kind) })
}

func (r *recognition) Ended() {
	r.c.post(func() { r.c.onRecognitionEnded(r.id) })
}

type speech struct {
	c  *Controller
	id uint64
}

func (s *speech) Started() {
	s.c.post(func() { log.Debug("Speaking", "utterance", s.id) })
}

func (s *speech) Ended() {
	s.c.post(func() { s.c.speechDone(s.id) })
}

func (s *speech) Failed(err error) {
	s.c.post(func() {
		if s.id == s.c.speechID {
			log.Warn("Speech failed", "err", err)
		}
		s.c.speechDone(s.id)
	})
}
