// Package events announces session snapshot changes to downstream consumers
// (for example a worker that re-renders shared summaries).
package events

import (
	"context"
	"encoding/json"
	"time"
)

// Publisher announces that a session snapshot was written.
type Publisher interface {
	PublishSessionChanged(ctx context.Context, sessionID string, version int64) error
	Close() error
}

// SessionChangedMessage carries only the ID and version; consumers load the
// snapshot from the store themselves.
type SessionChangedMessage struct {
	SessionID string    `json:"session_id"`
	Version   int64     `json:"version"`
	Timestamp time.Time `json:"timestamp"`
}

// NewSessionChangedMessage stamps a message with the current time.
func NewSessionChangedMessage(sessionID string, version int64) *SessionChangedMessage {
	return &SessionChangedMessage{
		SessionID: sessionID,
		Version:   version,
		Timestamp: time.Now(),
	}
}

// ToJSON converts the message to JSON bytes
func (m *SessionChangedMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// SessionChangedMessageFromJSON decodes a message produced by ToJSON.
func SessionChangedMessageFromJSON(data []byte) (*SessionChangedMessage, error) {
	var msg SessionChangedMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}

// Noop discards every event. Used when no broker is configured.
type Noop struct{}

func (Noop) PublishSessionChanged(context.Context, string, int64) error { return nil }
func (Noop) Close() error                                               { return nil }
