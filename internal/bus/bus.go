// Package bus connects the assistant to the host page over a WebSocket
// message bus. It reports status and actions and takes remote control
// commands and the page's selection state.
package bus

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	log "log/slog"
	"sync"
	"sync/atomic"
	"time"

	ws "github.com/gorilla/websocket"

	"thaili/internal/dialogue"
	"thaili/internal/nlu"
)

var ErrNotConnected = errors.New("bus not connected")

// Handlers run on the bus reader goroutine. Nil fields are skipped.
type Handlers struct {
	Toggle     func()
	Activate   func()
	Deactivate func()
	Hush       func()
}

type Config struct {
	URL       string
	Name      string // our address on the bus
	Peer      string // host page address
	Reconnect time.Duration
	Handlers  Handlers
}

type Bus struct {
	cfg    Config
	dialer *ws.Dialer

	writeMu sync.Mutex
	conn    *ws.Conn

	selected atomic.Int64
}

func New(cfg Config) *Bus {
	if cfg.Name == "" {
		cfg.Name = "thaili"
	}
	if cfg.Peer == "" {
		cfg.Peer = Broadcast
	}
	if cfg.Reconnect <= 0 {
		cfg.Reconnect = 3 * time.Second
	}
	return &Bus{
		cfg:    cfg,
		dialer: &ws.Dialer{HandshakeTimeout: 10 * time.Second},
	}
}

// Run keeps a connection open and dispatches incoming messages until ctx
// is done, reconnecting after failures.
func (b *Bus) Run(ctx context.Context) error {
	for {
		conn, _, err := b.dialer.DialContext(ctx, b.cfg.URL, nil)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			log.Warn("Failed to dial bus, retrying", "url", b.cfg.URL, "err", err, "in", b.cfg.Reconnect)
			if !sleep(ctx, b.cfg.Reconnect) {
				return ctx.Err()
			}
			continue
		}

		log.Info("Connected to bus", "url", b.cfg.URL)
		b.setConn(conn)

		stop := context.AfterFunc(ctx, func() { conn.Close() })
		err = b.readLoop(conn)
		stop()
		b.setConn(nil)
		conn.Close()

		if ctx.Err() != nil {
			return ctx.Err()
		}
		if isClosed(err) {
			log.Warn("Bus connection closed, reconnecting", "err", err)
		} else {
			log.Error("Bus read failed, reconnecting", "err", err)
		}
		if !sleep(ctx, b.cfg.Reconnect) {
			return ctx.Err()
		}
	}
}

func (b *Bus) readLoop(conn *ws.Conn) error {
	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			return err
		}

		m, err := decode(raw)
		if err != nil {
			log.Warn("Dropping malformed bus message", "msg", string(raw), "err", err)
			continue
		}
		if m.To != b.cfg.Name && m.To != Broadcast {
			continue
		}
		b.dispatch(m)
	}
}

func (b *Bus) dispatch(m Message) {
	log.Debug("Bus message", "from", m.From, "kind", m.Kind)

	h := b.cfg.Handlers
	var fn func()
	switch m.Kind {
	case KindToggle:
		fn = h.Toggle
	case KindActivate:
		fn = h.Activate
	case KindDeactivate:
		fn = h.Deactivate
	case KindHush:
		fn = h.Hush
	case KindSelection:
		n, err := selectionCount(m.Content)
		if err != nil {
			log.Warn("Ignoring selection update", "err", err)
			return
		}
		b.selected.Store(int64(n))
		return
	default:
		log.Debug("Unknown bus message kind", "kind", m.Kind)
		return
	}
	if fn != nil {
		fn()
	}
}

// HasSelection reports whether the host page has programs selected for
// comparison.
func (b *Bus) HasSelection() bool {
	return b.selected.Load() > 0
}

func (b *Bus) Send(kind, content string) error {
	data, err := json.Marshal(Message{From: b.cfg.Name, To: b.cfg.Peer, Kind: kind, Content: content})
	if err != nil {
		return err
	}

	b.writeMu.Lock()
	defer b.writeMu.Unlock()

	if b.conn == nil {
		return ErrNotConnected
	}
	if err := b.conn.WriteMessage(ws.TextMessage, data); err != nil {
		return fmt.Errorf("write bus message: %w", err)
	}
	return nil
}

func (b *Bus) PublishStatus(st dialogue.Status) {
	data, err := json.Marshal(st)
	if err != nil {
		log.Error("Failed to encode status", "err", err)
		return
	}
	b.publish(KindStatus, string(data))
}

func (b *Bus) PublishSearch(query string) { b.publish(KindSearch, query) }

func (b *Bus) PublishNavigate(target string) { b.publish(KindNavigate, target) }

func (b *Bus) PublishIntent(res nlu.MatchResult) {
	data, err := json.Marshal(res)
	if err != nil {
		log.Error("Failed to encode intent", "err", err)
		return
	}
	b.publish(KindIntent, string(data))
}

func (b *Bus) publish(kind, content string) {
	if err := b.Send(kind, content); err != nil {
		log.Debug("Bus message not delivered", "kind", kind, "err", err)
	}
}

func (b *Bus) setConn(c *ws.Conn) {
	b.writeMu.Lock()
	b.conn = c
	b.writeMu.Unlock()
}

func isClosed(err error) bool {
	return ws.IsCloseError(err,
		ws.CloseNormalClosure,
		ws.CloseGoingAway,
		ws.CloseAbnormalClosure)
}

func sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
