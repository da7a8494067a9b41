package presence

import (
	"encoding/json"
	"fmt"
	"time"
)

// MessageType identifies a presence websocket message.
type MessageType string

const (
	// Participant → server messages
	TypeJoin   MessageType = "join"   // Announce identity, create record
	TypeUpdate MessageType = "update" // Whole-record state upsert

	// Server → participant messages
	TypeThresholds MessageType = "thresholds" // Runtime threshold update

	// Bidirectional
	TypePing MessageType = "ping"
	TypePong MessageType = "pong"
)

// Message is the base wrapper for presence websocket messages.
type Message struct {
	Type      MessageType     `json:"type"`
	Timestamp int64           `json:"ts,omitempty"` // Unix milliseconds
	Data      json.RawMessage `json:"data,omitempty"`
}

// NewMessage creates a message with the current timestamp.
func NewMessage(msgType MessageType, data interface{}) (*Message, error) {
	var rawData json.RawMessage
	if data != nil {
		var err error
		rawData, err = json.Marshal(data)
		if err != nil {
			return nil, fmt.Errorf("presence: marshal message data: %w", err)
		}
	}
	return &Message{
		Type:      msgType,
		Timestamp: time.Now().UnixMilli(),
		Data:      rawData,
	}, nil
}

// ParseData unmarshals the message data into v.
func (m *Message) ParseData(v interface{}) error {
	if m.Data == nil {
		return nil
	}
	return json.Unmarshal(m.Data, v)
}

// Bytes serializes the message to JSON.
func (m *Message) Bytes() ([]byte, error) {
	return json.Marshal(m)
}

// JoinData is the payload of a join message.
type JoinData struct {
	Name      string `json:"name"`
	StudentID string `json:"student_id"`
}

// UpdateData is the payload of an update message: the owner's full current
// state. The server ignores any key supplied here and always writes to the
// key established at join time, so no participant can write another's record.
type UpdateData struct {
	Alert string  `json:"alert"`
	Stack int     `json:"stack"`
	Label string  `json:"label"`
	Mouth string  `json:"mouth"`
	Score float64 `json:"score"`
}
