package dialogue

type State int

const (
	Idle State = iota
	Activating
	Listening
	Processing
	Speaking
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Activating:
		return "activating"
	case Listening:
		return "listening"
	case Processing:
		return "processing"
	case Speaking:
		return "speaking"
	default:
		return "unknown"
	}
}

func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Status is published to the host on every transition.
type Status struct {
	Active     bool  `json:"is_active"`
	Listening  bool  `json:"is_listening"`
	Speaking   bool  `json:"is_speaking"`
	CorpusSize int   `json:"training_data_count"`
	State      State `json:"state"`
	Supported  bool  `json:"is_supported"`
}
