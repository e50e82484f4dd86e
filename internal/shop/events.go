package shop

import (
	"encoding/json"
	"time"
)

const EventBillSettled = "BillSettled"

type Envelope struct {
	EventID       string          `json:"event_id"`
	EventType     string          `json:"event_type"`
	EventVersion  int             `json:"event_version"`
	OccurredAt    time.Time       `json:"occurred_at"`
	Producer      string          `json:"producer"`
	TraceID       string          `json:"trace_id,omitempty"`
	CorrelationID string          `json:"correlation_id,omitempty"` // bill id
	Payload       json.RawMessage `json:"payload"`
}

type SettledVariant struct {
	ColorSizeID int64 `json:"color_size_id"`
	Quantity    int   `json:"quantity"`
	Stock       int   `json:"stock"` // after the decrement
}

type BillSettledPayload struct {
	BillID        int64            `json:"bill_id"`
	UserID        int64            `json:"user_id"`
	BankName      string           `json:"bank_name"`
	AccountNumber string           `json:"account_number"`
	Variants      []SettledVariant `json:"variants"`
}
