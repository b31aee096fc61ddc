package amqp

import (
	"encoding/json"
	"time"
)

// RecordCreatedMessage announces a row appended to one of the tables.
// It carries the full row so the mirror worker can insert it without
// reading the spreadsheet back.
type RecordCreatedMessage struct {
	Table     string    `json:"table"`
	ID        int64     `json:"id"`
	Row       []string  `json:"row"`
	Timestamp time.Time `json:"timestamp"`
}

// NewRecordCreatedMessage creates a message for a freshly appended row
func NewRecordCreatedMessage(table string, id int64, row []string) *RecordCreatedMessage {
	return &RecordCreatedMessage{
		Table:     table,
		ID:        id,
		Row:       row,
		Timestamp: time.Now(),
	}
}

// ToJSON converts the message to JSON bytes
func (m *RecordCreatedMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// FromJSON creates a message from JSON bytes
func RecordCreatedMessageFromJSON(data []byte) (*RecordCreatedMessage, error) {
	var msg RecordCreatedMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
