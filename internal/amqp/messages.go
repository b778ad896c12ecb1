package amqp

import (
	"encoding/json"
	"time"
)

// ImportSyncMessage represents a lightweight message for syncing an import batch
// to the export backend. Contains only the ID and version, the worker will fetch
// the full transaction batch from the database.
type ImportSyncMessage struct {
	ID        int64     `json:"id"`
	Version   int64     `json:"version"`
	Timestamp time.Time `json:"timestamp"`
}

// NewImportSyncMessage creates a new sync message with just ID and version
func NewImportSyncMessage(id, version int64) *ImportSyncMessage {
	return &ImportSyncMessage{
		ID:        id,
		Version:   version,
		Timestamp: time.Now(),
	}
}

// ToJSON converts the message to JSON bytes
func (m *ImportSyncMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// FromJSON creates a message from JSON bytes
func ImportSyncMessageFromJSON(data []byte) (*ImportSyncMessage, error) {
	var msg ImportSyncMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
