package amqp

import (
	"encoding/json"
	"time"
)

// Ledger event names carried in LedgerEventMessage.
const (
	EventTransactionCreated = "transaction.created"
	EventTransactionUpdated = "transaction.updated"
	EventTransactionDeleted = "transaction.deleted"
)

// LedgerEventMessage is a lightweight notification that a transaction
// changed. It carries only the event name and the row id; consumers fetch
// whatever they need from the store.
type LedgerEventMessage struct {
	Event     string    `json:"event"`
	ID        int64     `json:"id"`
	Timestamp time.Time `json:"timestamp"`
}

// NewLedgerEventMessage creates an event message stamped with the current time.
func NewLedgerEventMessage(event string, id int64) *LedgerEventMessage {
	return &LedgerEventMessage{
		Event:     event,
		ID:        id,
		Timestamp: time.Now(),
	}
}

// ToJSON converts the message to JSON bytes.
func (m *LedgerEventMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// LedgerEventMessageFromJSON creates a message from JSON bytes.
func LedgerEventMessageFromJSON(data []byte) (*LedgerEventMessage, error) {
	var msg LedgerEventMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
