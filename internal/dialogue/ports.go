package dialogue

import (
	"thaili/internal/nlu"
)

// Recognizer is a single-shot speech recognizer. Start returns immediately;
// the handler receives exactly one Result or Failed, then Ended.
type Recognizer interface {
	Supported() bool
	Start(lang string, h RecognitionHandler) error
	Stop()
}

type RecognitionHandler interface {
	Started()
	Result(alts []nlu.Alternative)
	Failed(kind ErrorKind)
	Ended()
}

// Synthesizer plays one utterance at a time. Speak returns immediately and
// reports progress through the handler.
type Synthesizer interface {
	Speak(u Utterance, h SpeechHandler) error
	Cancel()
}

type SpeechHandler interface {
	Started()
	Ended()
	Failed(err error)
}

// Utterance carries the text and voice settings. VoiceHints are tried in
// order by synthesizers that can pick a voice.
type Utterance struct {
	Text       string
	Lang       string
	Rate       float64
	Pitch      float64
	Volume     float64
	VoiceHints []string
}

type Matcher interface {
	Match(alts []nlu.Alternative) (nlu.MatchResult, bool)
}

// Recorder receives every transcript heard, for training.
type Recorder interface {
	Record(transcript string)
}

type Sizer interface {
	Len() int
}

// Callbacks are invoked on the controller goroutine. Nil fields are skipped.
type Callbacks struct {
	OnSearch       func(query string)
	OnNavigate     func(target string)
	OnStatusChange func(Status)
	OnIntent       func(nlu.MatchResult)
	HasSelection   func() bool
}
