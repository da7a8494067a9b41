// Package presence provides the shared participant-state store: a keyed
// map with change notification and automatic removal on disconnect, plus
// the websocket transport participants use to replicate their state into it.
package presence

import (
	"fmt"
	"time"

	"github.com/jaehyun-p/overwatch/pkg/fusion"
)

// Record is one participant's replicated state. Exactly one producer owns
// each key and rewrites the whole record every tick; readers only observe.
type Record struct {
	Key        string            `json:"key"`
	Name       string            `json:"name"`
	StudentID  string            `json:"student_id"`
	Alert      fusion.AlertState `json:"alert"`
	Stack      int               `json:"stack"` // Current episode repeat count, 0 when clear
	Label      string            `json:"label"`
	Mouth      string            `json:"mouth"`
	Score      float64           `json:"score"`
	LastUpdate time.Time         `json:"last_update"`
}

// NewRecord creates a record with join-time defaults.
func NewRecord(name, studentID string) Record {
	return Record{
		Key:        ParticipantKey(name, studentID),
		Name:       name,
		StudentID:  studentID,
		Alert:      fusion.AlertGreen,
		Label:      "noise",
		Mouth:      string(fusion.MouthNoFace),
		LastUpdate: time.Now(),
	}
}

// ParticipantKey builds the session key, studentID_name.
func ParticipantKey(name, studentID string) string {
	return fmt.Sprintf("%s_%s", studentID, name)
}

// ResetDefaults returns a copy of r with the monitored fields back at their
// join-time values. Identity fields are preserved.
func (r Record) ResetDefaults() Record {
	r.Alert = fusion.AlertGreen
	r.Stack = 0
	r.Score = 0
	r.Label = "noise"
	r.Mouth = string(fusion.MouthNoFace)
	r.LastUpdate = time.Now()
	return r
}
