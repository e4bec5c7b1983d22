package amqp

import (
	"encoding/json"
	"errors"
	"time"

	"financas/internal/ports"
)

// PurchaseMessage announces that an installment group changed. It carries
// only the group key; the worker reloads the records from storage.
type PurchaseMessage struct {
	UserID     string    `json:"userId"`
	PurchaseID string    `json:"purchaseId"`
	Action     string    `json:"action"`
	Count      int       `json:"count"`
	Timestamp  time.Time `json:"timestamp"`
}

func NewPurchaseMessage(ev ports.PurchaseEvent) *PurchaseMessage {
	return &PurchaseMessage{
		UserID:     ev.UserID,
		PurchaseID: ev.PurchaseID,
		Action:     ev.Action,
		Count:      ev.Count,
		Timestamp:  time.Now(),
	}
}

// ToJSON converts the message to JSON bytes
func (m *PurchaseMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// PurchaseMessageFromJSON decodes a message and checks the group key.
func PurchaseMessageFromJSON(data []byte) (*PurchaseMessage, error) {
	var msg PurchaseMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	if msg.UserID == "" || msg.PurchaseID == "" {
		return nil, errors.New("purchase message without user or purchase id")
	}
	return &msg, nil
}
