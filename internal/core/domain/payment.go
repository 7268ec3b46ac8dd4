package domain

import (
	"time"

	"github.com/google/uuid"
)

// PaymentStatus represents the lifecycle state of a payment.
type PaymentStatus string

const (
	PaymentStatusPending   PaymentStatus = "pending"
	PaymentStatusCompleted PaymentStatus = "completed"
	PaymentStatusFailed    PaymentStatus = "failed"
	PaymentStatusCancelled PaymentStatus = "cancelled"
)

// IsValid reports whether the status is one of the enumerated values.
func (s PaymentStatus) IsValid() bool {
	switch s {
	case PaymentStatusPending, PaymentStatusCompleted, PaymentStatusFailed, PaymentStatusCancelled:
		return true
	}
	return false
}

// Customer is the payer sub-entity attached to a payment.
type Customer struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
	Phone string `json:"phone,omitempty"`
}

// PaymentTransaction is one on-ledger movement backing a payment.
type PaymentTransaction struct {
	ID                 string    `json:"id"`
	TransactionHash    string    `json:"transaction_hash"`
	Amount             int64     `json:"amount"`
	Currency           string    `json:"currency"`
	SourceAccount      string    `json:"source_account"`
	DestinationAccount string    `json:"destination_account"`
	Status             string    `json:"status"`
	CreatedAt          time.Time `json:"created_at"`
}

// TimelineEvent is one entry in a payment's activity timeline.
type TimelineEvent struct {
	ID          string    `json:"id"`
	EventType   string    `json:"event_type"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
}

// Payment is a read-model of one merchant payment. It is purely queried
// by this service — mutations happen elsewhere in the platform.
type Payment struct {
	ID              string               `json:"id"`
	MerchantID      uuid.UUID            `json:"merchant_id"`
	PaymentID       string               `json:"payment_id"`
	OrderID         string               `json:"order_id"`
	Amount          int64                `json:"amount"` // Smallest currency unit
	Currency        string               `json:"currency"`
	Status          PaymentStatus        `json:"status"`
	TransactionHash *string              `json:"transaction_hash,omitempty"`
	Customer        *Customer            `json:"customer,omitempty"`
	Transactions    []PaymentTransaction `json:"transactions,omitempty"`
	TimelineEvents  []TimelineEvent      `json:"timeline_events,omitempty"`
	CreatedAt       time.Time            `json:"created_at"`
}
