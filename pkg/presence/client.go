package presence

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/jaehyun-p/overwatch/internal/log"
	"github.com/jaehyun-p/overwatch/pkg/fusion"
)

// Client is the participant-side presence connection. Upserts are
// fire-and-forget: a failed write is logged and the next tick re-sends the
// full state, so the record is naturally self-healing.
type Client struct {
	serverURL string

	// OnThresholds receives runtime threshold updates pushed by the
	// server. Set before Join.
	OnThresholds func(fusion.Thresholds)

	mu     sync.Mutex
	ws     *websocket.Conn
	key    string
	closed bool
}

// NewClient creates a presence client for ws://host:port/ws/join.
func NewClient(serverURL string) *Client {
	return &Client{serverURL: serverURL}
}

// Join dials the server and announces identity. Returns the participant key.
func (c *Client) Join(name, studentID string) (string, error) {
	dialer := websocket.Dialer{HandshakeTimeout: 10 * time.Second}

	ws, _, err := dialer.Dial(c.serverURL, nil)
	if err != nil {
		return "", fmt.Errorf("presence: connect %s: %w", c.serverURL, err)
	}

	msg, err := NewMessage(TypeJoin, JoinData{Name: name, StudentID: studentID})
	if err != nil {
		ws.Close()
		return "", err
	}
	data, err := msg.Bytes()
	if err != nil {
		ws.Close()
		return "", err
	}
	if err := ws.WriteMessage(websocket.TextMessage, data); err != nil {
		ws.Close()
		return "", fmt.Errorf("presence: join: %w", err)
	}

	c.mu.Lock()
	c.ws = ws
	c.key = ParticipantKey(name, studentID)
	c.mu.Unlock()

	go c.readLoop(ws)

	return c.key, nil
}

// readLoop consumes server-initiated messages until the connection drops.
func (c *Client) readLoop(ws *websocket.Conn) {
	for {
		_, data, err := ws.ReadMessage()
		if err != nil {
			return
		}

		var msg Message
		if err := json.Unmarshal(data, &msg); err != nil {
			log.Warn("presence: malformed server message", "error", err)
			continue
		}

		switch msg.Type {
		case TypeThresholds:
			var t fusion.Thresholds
			if err := msg.ParseData(&t); err != nil {
				log.Warn("presence: malformed thresholds", "error", err)
				continue
			}
			if c.OnThresholds != nil {
				c.OnThresholds(t)
				log.Info("thresholds updated from server", "strictness", t.Strictness)
			}
		case TypePong:
			// Keepalive reply, nothing to do.
		}
	}
}

// Upsert replicates the owner's current state. Errors are logged, not
// returned: every tick re-sends full state, so nothing is lost for long.
func (c *Client) Upsert(update UpdateData) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.ws == nil || c.closed {
		return
	}

	msg, err := NewMessage(TypeUpdate, update)
	if err != nil {
		log.Warn("presence: encode update", "error", err)
		return
	}
	data, err := msg.Bytes()
	if err != nil {
		log.Warn("presence: encode update", "error", err)
		return
	}

	c.ws.SetWriteDeadline(time.Now().Add(5 * time.Second))
	if err := c.ws.WriteMessage(websocket.TextMessage, data); err != nil {
		log.Warn("presence: upsert failed, will retry next tick", "error", err)
	}
}

// Key returns the participant key established by Join.
func (c *Client) Key() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.key
}

// Close drops the connection; the server's disconnect cleanup removes the
// record.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed || c.ws == nil {
		c.closed = true
		return nil
	}
	c.closed = true

	c.ws.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(time.Second))
	return c.ws.Close()
}
