package storage

import (
	"encoding/json"
	"fmt"

	"github.com/kndrckm/splitbill/internal/models"
)

// MarshalSnapshot encodes the serializable part of a session.
func MarshalSnapshot(session *models.Session) ([]byte, error) {
	data, err := json.Marshal(session)
	if err != nil {
		return nil, fmt.Errorf("failed to encode snapshot: %w", err)
	}
	return data, nil
}

// UnmarshalSnapshot decodes a snapshot written by MarshalSnapshot.
func UnmarshalSnapshot(data []byte) (*models.Session, error) {
	session := &models.Session{}
	if err := json.Unmarshal(data, session); err != nil {
		return nil, fmt.Errorf("failed to decode snapshot: %w", err)
	}
	return session, nil
}

// Clone returns a deep copy of the session, so callers can mutate it freely.
func Clone(session *models.Session) (*models.Session, error) {
	data, err := MarshalSnapshot(session)
	if err != nil {
		return nil, err
	}
	clone, err := UnmarshalSnapshot(data)
	if err != nil {
		return nil, err
	}
	clone.PasscodeHash = session.PasscodeHash
	return clone, nil
}
