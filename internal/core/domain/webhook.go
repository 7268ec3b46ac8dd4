package domain

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// WebhookStatus represents the delivery state of a webhook log entry.
type WebhookStatus string

const (
	WebhookStatusSuccess WebhookStatus = "success"
	WebhookStatusPending WebhookStatus = "pending"
	WebhookStatusFailed  WebhookStatus = "failed"
)

// IsValid reports whether the status is one of the enumerated values.
func (s WebhookStatus) IsValid() bool {
	switch s {
	case WebhookStatusSuccess, WebhookStatusPending, WebhookStatusFailed:
		return true
	}
	return false
}

// WebhookResponse captures the endpoint's reply to a delivery attempt.
type WebhookResponse struct {
	Status int    `json:"status"`
	Body   string `json:"body"`
}

// WebhookLog records one outbound notification attempt to a merchant endpoint.
// Every log belongs to exactly one merchant; attempts never decreases.
type WebhookLog struct {
	ID          string           `json:"id"`
	MerchantID  uuid.UUID        `json:"merchant_id"`
	EventType   string           `json:"event_type"`
	URL         string           `json:"url"`
	Status      WebhookStatus    `json:"status"`
	Payload     json.RawMessage  `json:"payload"`
	Response    *WebhookResponse `json:"response,omitempty"`
	Attempts    int              `json:"attempts"`
	CreatedAt   time.Time        `json:"created_at"`
	LastAttempt *time.Time       `json:"last_attempt,omitempty"`
	NextRetry   *time.Time       `json:"next_retry,omitempty"`
}

// NeverAttempted reports whether a delivery was ever tried for this log.
func (l *WebhookLog) NeverAttempted() bool {
	return l.Attempts == 0
}
