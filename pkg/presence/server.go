package presence

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/jaehyun-p/overwatch/internal/log"
	"github.com/jaehyun-p/overwatch/pkg/fusion"
)

// participantConn is one registered connection. The write mutex serializes
// the handler's pong replies with server-initiated broadcasts.
type participantConn struct {
	ws *websocket.Conn
	mu sync.Mutex
}

func (p *participantConn) write(data []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.ws.WriteMessage(websocket.TextMessage, data)
}

// Server accepts participant websocket connections and replicates their
// state into the store. One connection owns one key; when the connection
// drops, the registered disconnect cleanup removes the record.
type Server struct {
	store *Store

	mu    sync.Mutex
	conns map[*participantConn]bool
}

// NewServer creates a presence server over the given store.
func NewServer(store *Store) *Server {
	return &Server{
		store: store,
		conns: make(map[*participantConn]bool),
	}
}

// RegisterRoutes registers the participant websocket endpoint on a Fiber app.
func (s *Server) RegisterRoutes(app *fiber.App) {
	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			c.Locals("allowed", true)
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})

	app.Get("/ws/join", websocket.New(s.handleParticipant))
}

// BroadcastThresholds pushes a runtime threshold update to every connected
// participant. Delivery is best-effort; a participant that misses it keeps
// its current thresholds.
func (s *Server) BroadcastThresholds(t fusion.Thresholds) {
	msg, err := NewMessage(TypeThresholds, t)
	if err != nil {
		log.Warn("presence: encode thresholds", "error", err)
		return
	}
	data, err := msg.Bytes()
	if err != nil {
		log.Warn("presence: encode thresholds", "error", err)
		return
	}

	s.mu.Lock()
	conns := make([]*participantConn, 0, len(s.conns))
	for pc := range s.conns {
		conns = append(conns, pc)
	}
	s.mu.Unlock()

	for _, pc := range conns {
		if err := pc.write(data); err != nil {
			log.Debug("presence: thresholds push failed", "error", err)
		}
	}
	log.Info("thresholds broadcast", "participants", len(conns), "strictness", t.Strictness)
}

// handleParticipant handles one participant connection for its lifetime.
func (s *Server) handleParticipant(c *websocket.Conn) {
	// First message must be a join.
	var msg Message
	if err := readMessage(c, &msg); err != nil || msg.Type != TypeJoin {
		log.Warn("presence: connection without join message")
		c.Close()
		return
	}

	var join JoinData
	if err := msg.ParseData(&join); err != nil || join.Name == "" {
		log.Warn("presence: malformed join", "error", err)
		c.Close()
		return
	}
	if join.StudentID == "" {
		// Key must still be unique per participant.
		join.StudentID = uuid.NewString()[:8]
	}

	rec := NewRecord(join.Name, join.StudentID)
	key := rec.Key

	pc := &participantConn{ws: c}
	s.mu.Lock()
	s.conns[pc] = true
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		delete(s.conns, pc)
		s.mu.Unlock()
	}()

	// Register cleanup before the record becomes visible, so a crash
	// between the two cannot leak a row.
	onDisconnect := s.store.RemoveOnDisconnect(key)
	defer onDisconnect()

	s.store.Upsert(key, rec)
	log.Info("participant joined", "key", key, "total", s.store.Len())

	for {
		if err := readMessage(c, &msg); err != nil {
			break
		}

		switch msg.Type {
		case TypeUpdate:
			var update UpdateData
			if err := msg.ParseData(&update); err != nil {
				log.Warn("presence: malformed update", "key", key, "error", err)
				continue
			}
			rec.Alert = fusion.AlertState(update.Alert)
			rec.Stack = update.Stack
			rec.Label = update.Label
			rec.Mouth = update.Mouth
			rec.Score = update.Score
			rec.LastUpdate = time.Now()
			s.store.Upsert(key, rec)

		case TypePing:
			pong, _ := NewMessage(TypePong, nil)
			data, _ := pong.Bytes()
			pc.write(data)
		}
	}

	log.Info("participant disconnected", "key", key)
}

func readMessage(c *websocket.Conn, msg *Message) error {
	_, data, err := c.ReadMessage()
	if err != nil {
		return err
	}
	return json.Unmarshal(data, msg)
}
