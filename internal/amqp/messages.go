package amqp

import (
	"encoding/json"
	"errors"
	"time"
)

// PreferenceMessage carries one persisted dashboard preference, such as the
// first bill date seen by the last load.
type PreferenceMessage struct {
	Key       string    `json:"key"`
	Value     string    `json:"value"`
	Timestamp time.Time `json:"timestamp"`
}

// NewPreferenceMessage creates a message stamped with the current time.
func NewPreferenceMessage(key, value string) *PreferenceMessage {
	return &PreferenceMessage{
		Key:       key,
		Value:     value,
		Timestamp: time.Now(),
	}
}

// ToJSON converts the message to JSON bytes
func (m *PreferenceMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// PreferenceMessageFromJSON decodes a message. A message without a key is
// rejected.
func PreferenceMessageFromJSON(data []byte) (*PreferenceMessage, error) {
	var msg PreferenceMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	if msg.Key == "" {
		return nil, errors.New("preference message without key")
	}
	return &msg, nil
}
