package amqp

import (
	"encoding/json"
	"time"
)

// BillSyncMessage queues one bill for export to the society ledger.
// It carries only the ID and version; the worker fetches the full bill
// from the database so the export always reflects the latest state.
type BillSyncMessage struct {
	BillID    string    `json:"bill_id"`
	Version   int64     `json:"version"`
	Timestamp time.Time `json:"timestamp"`
}

// NewBillSyncMessage creates a sync message for a bill at a given version.
func NewBillSyncMessage(billID string, version int64) *BillSyncMessage {
	return &BillSyncMessage{
		BillID:    billID,
		Version:   version,
		Timestamp: time.Now(),
	}
}

// ToJSON converts the message to JSON bytes
func (m *BillSyncMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// BillSyncMessageFromJSON creates a message from JSON bytes
func BillSyncMessageFromJSON(data []byte) (*BillSyncMessage, error) {
	var msg BillSyncMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
