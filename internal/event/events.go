package event

import (
	"encoding/json"
	"time"
)

const (
	EventOrderCreated       = "OrderCreated"
	EventOrderStatusChanged = "OrderStatusChanged"
)

const producerName = "freshleap-api"

type Envelope struct {
	EventID      string          `json:"event_id"`      // uuid
	EventType    string          `json:"event_type"`    // 上のconstのどれか
	EventVersion int             `json:"event_version"` // 1
	OccurredAt   time.Time       `json:"occurred_at"`   // RFC3339
	Producer     string          `json:"producer"`
	Payload      json.RawMessage `json:"payload"`
}

type ItemPayload struct {
	ProductID int64 `json:"product_id"`
	Qty       int64 `json:"qty"`
	UnitPrice int64 `json:"unit_price"`
}

type OrderCreatedPayload struct {
	OrderID          int64         `json:"order_id"`
	PaymentSessionID string        `json:"payment_session_id"`
	UserID           *int64        `json:"user_id,omitempty"`
	GuestID          string        `json:"guest_id,omitempty"`
	Items            []ItemPayload `json:"items"`
	Total            int64         `json:"total"`
}

type OrderStatusChangedPayload struct {
	OrderID int64  `json:"order_id"`
	From    string `json:"from"`
	To      string `json:"to"`
}
