// Package training reports heard transcripts to the voice training endpoint
// and loads extra commands from it.
package training

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"thaili/internal/corpus"
)

const Language = "nepali"

// Sample is one transcript posted for training.
type Sample struct {
	Input     string    `json:"input"`
	Language  string    `json:"language"`
	Timestamp time.Time `json:"timestamp"`
	SessionID string    `json:"session_id"`
}

func NewSessionID() string {
	return "nepali_voice_" + uuid.NewString()
}

type Client struct {
	base string
	http *http.Client
}

// NewClient talks to the endpoint at base, e.g.
// http://localhost:8090/api/voice-training. A nil hc uses the default client.
func NewClient(base string, hc *http.Client) *Client {
	if hc == nil {
		hc = http.DefaultClient
	}
	return &Client{base: strings.TrimRight(base, "/"), http: hc}
}

// Fetch returns the endpoint's command list.
func (c *Client) Fetch(ctx context.Context) ([]corpus.CommandEntry, error) {
	u, err := url.Parse(c.base)
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	q := u.Query()
	q.Set("endpoint", "nepali-commands")
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch commands: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch commands: unexpected status %s", resp.Status)
	}

	var entries []corpus.CommandEntry
	if err := json.NewDecoder(resp.Body).Decode(&entries); err != nil {
		return nil, fmt.Errorf("decode commands: %w", err)
	}

	return entries, nil
}

// Send posts a sample to <base>/train.
func (c *Client) Send(ctx context.Context, s Sample) error {
	body, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("marshal sample: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.base+"/train", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("post sample: %w", err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("post sample: unexpected status %s", resp.Status)
	}

	return nil
}
