package bus

import (
	"encoding/json"
	"fmt"
	"strconv"
)

// Message kinds sent to the host page.
const (
	KindStatus   = "status"
	KindSearch   = "search"
	KindNavigate = "navigate"
	KindIntent   = "intent"
)

// Message kinds accepted from the host page.
const (
	KindToggle     = "toggle"
	KindActivate   = "activate"
	KindDeactivate = "deactivate"
	KindHush       = "hush"
	KindSelection  = "selection"
)

const Broadcast = "all"

type Message struct {
	From    string `json:"from"`
	To      string `json:"to"`
	Kind    string `json:"kind"`
	Content string `json:"content,omitempty"`
}

func decode(raw []byte) (Message, error) {
	var m Message
	if err := json.Unmarshal(raw, &m); err != nil {
		return Message{}, err
	}
	if m.Kind == "" {
		return Message{}, fmt.Errorf("message without kind")
	}
	return m, nil
}

// selectionCount reads the number of selected programs.
func selectionCount(content string) (int, error) {
	n, err := strconv.Atoi(content)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("invalid selection count %q", content)
	}
	return n, nil
}
