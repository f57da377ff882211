package amqp

import (
	"encoding/json"
	"time"
)

// MirrorMessage announces that a stream received a successful write and
// should be reconciled into the spreadsheet mirror. It deliberately carries
// no row data: the worker reads the authoritative rows from the primary
// backend, so a stale or duplicated message can never corrupt the mirror.
type MirrorMessage struct {
	Stream    string    `json:"stream"`
	Timestamp time.Time `json:"timestamp"`
}

// NewMirrorMessage creates a message for the given stream.
func NewMirrorMessage(stream string) *MirrorMessage {
	return &MirrorMessage{Stream: stream, Timestamp: time.Now()}
}

// ToJSON converts the message to JSON bytes.
func (m *MirrorMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// MirrorMessageFromJSON decodes a message from JSON bytes.
func MirrorMessageFromJSON(data []byte) (*MirrorMessage, error) {
	var msg MirrorMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
