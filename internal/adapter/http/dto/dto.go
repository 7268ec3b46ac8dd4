package dto

import (
	"encoding/json"
	"time"

	"fluxapay/internal/core/domain"
)

// RegisterRequest is the request body for merchant registration.
type RegisterRequest struct {
	Username     string `json:"username" binding:"required,min=3,max=50,safe_id"`
	Password     string `json:"password" binding:"required,min=8,max=128"`
	MerchantName string `json:"merchant_name" binding:"required,min=1,max=100"`
}

// LoginRequest is the request body for merchant login.
type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// RegisterResponse is the response body for successful registration.
type RegisterResponse struct {
	MerchantID string `json:"merchant_id"`
}

// LoginResponse is the response body for successful login.
type LoginResponse struct {
	Token  string `json:"token"`
	Expiry int64  `json:"expiry"` // Unix timestamp
}

// ResendWebhookRequest is the request body for POST /api/webhooks/resend.
type ResendWebhookRequest struct {
	ID string `json:"id" binding:"required,max=100,safe_id"`
}

// TestWebhookRequest is the request body for POST /api/webhooks/test.
type TestWebhookRequest struct {
	EventType string `json:"eventType" binding:"required,max=100"`
	URL       string `json:"url" binding:"required,max=2048,safe_url"`
}

// Pagination is the shared pagination block on list responses.
type Pagination struct {
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"totalPages"`
}

// NewPagination computes totalPages = ceil(total/limit).
func NewPagination(page, limit int, total int64) Pagination {
	totalPages := int((total + int64(limit) - 1) / int64(limit))
	return Pagination{
		Page:       page,
		Limit:      limit,
		Total:      total,
		TotalPages: totalPages,
	}
}

// WebhookResponseBody is the recorded endpoint response on a delivery log.
type WebhookResponseBody struct {
	Status int    `json:"status"`
	Body   string `json:"body"`
}

// WebhookLogResponse is the wire form of a webhook delivery log.
type WebhookLogResponse struct {
	ID          string               `json:"id"`
	EventType   string               `json:"eventType"`
	URL         string               `json:"url"`
	Status      string               `json:"status"`
	Payload     json.RawMessage      `json:"payload"`
	Response    *WebhookResponseBody `json:"response"`
	Attempts    int                  `json:"attempts"`
	CreatedAt   string               `json:"createdAt"`
	LastAttempt *string              `json:"lastAttempt"`
	NextRetry   *string              `json:"nextRetry,omitempty"`
}

// WebhookListResponse is the body of GET /api/webhooks.
type WebhookListResponse struct {
	Logs       []WebhookLogResponse `json:"logs"`
	Pagination Pagination           `json:"pagination"`
}

// WebhookActionResponse is the body of the resend and test endpoints.
type WebhookActionResponse struct {
	Message string             `json:"message"`
	Log     WebhookLogResponse `json:"log"`
}

// FromWebhookLog converts a domain log to its wire form.
func FromWebhookLog(log *domain.WebhookLog) WebhookLogResponse {
	resp := WebhookLogResponse{
		ID:          log.ID,
		EventType:   log.EventType,
		URL:         log.URL,
		Status:      string(log.Status),
		Payload:     log.Payload,
		Attempts:    log.Attempts,
		CreatedAt:   formatTime(log.CreatedAt),
		LastAttempt: formatTimePtr(log.LastAttempt),
		NextRetry:   formatTimePtr(log.NextRetry),
	}
	if log.Response != nil {
		resp.Response = &WebhookResponseBody{
			Status: log.Response.Status,
			Body:   log.Response.Body,
		}
	}
	return resp
}

// FromWebhookLogs converts a slice, never returning nil so the JSON field
// renders as [] rather than null.
func FromWebhookLogs(logs []domain.WebhookLog) []WebhookLogResponse {
	out := make([]WebhookLogResponse, 0, len(logs))
	for i := range logs {
		out = append(out, FromWebhookLog(&logs[i]))
	}
	return out
}

// CustomerResponse is the wire form of a payment's customer.
type CustomerResponse struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
	Phone string `json:"phone,omitempty"`
}

// TransactionResponse is the wire form of an on-chain transaction record.
type TransactionResponse struct {
	ID                 string `json:"id"`
	TransactionHash    string `json:"transaction_hash"`
	Amount             int64  `json:"amount"`
	Currency           string `json:"currency"`
	SourceAccount      string `json:"source_account,omitempty"`
	DestinationAccount string `json:"destination_account,omitempty"`
	Status             string `json:"status"`
	CreatedAt          string `json:"created_at"`
}

// TimelineEventResponse is the wire form of a payment timeline entry.
type TimelineEventResponse struct {
	ID          string `json:"id"`
	EventType   string `json:"event_type"`
	Description string `json:"description"`
	CreatedAt   string `json:"created_at"`
}

// PaymentResponse is the wire form of a payment. TimelineEvents is only
// populated on the detail endpoint.
type PaymentResponse struct {
	ID              string                  `json:"id"`
	PaymentID       string                  `json:"payment_id"`
	OrderID         string                  `json:"order_id"`
	Amount          int64                   `json:"amount"`
	Currency        string                  `json:"currency"`
	Status          string                  `json:"status"`
	TransactionHash *string                 `json:"transaction_hash"`
	Customer        *CustomerResponse       `json:"customer"`
	Transactions    []TransactionResponse   `json:"transactions"`
	TimelineEvents  []TimelineEventResponse `json:"timeline_events,omitempty"`
	CreatedAt       string                  `json:"created_at"`
}

// PaymentListResponse is the body of GET /api/payments.
type PaymentListResponse struct {
	Data       []PaymentResponse `json:"data"`
	Pagination Pagination        `json:"pagination"`
}

// FromPayment converts a domain payment to its wire form.
func FromPayment(p *domain.Payment) PaymentResponse {
	resp := PaymentResponse{
		ID:              p.ID,
		PaymentID:       p.PaymentID,
		OrderID:         p.OrderID,
		Amount:          p.Amount,
		Currency:        p.Currency,
		Status:          string(p.Status),
		TransactionHash: p.TransactionHash,
		Transactions:    make([]TransactionResponse, 0, len(p.Transactions)),
		CreatedAt:       formatTime(p.CreatedAt),
	}
	if p.Customer != nil {
		resp.Customer = &CustomerResponse{
			ID:    p.Customer.ID,
			Email: p.Customer.Email,
			Name:  p.Customer.Name,
			Phone: p.Customer.Phone,
		}
	}
	for i := range p.Transactions {
		tx := &p.Transactions[i]
		resp.Transactions = append(resp.Transactions, TransactionResponse{
			ID:                 tx.ID,
			TransactionHash:    tx.TransactionHash,
			Amount:             tx.Amount,
			Currency:           tx.Currency,
			SourceAccount:      tx.SourceAccount,
			DestinationAccount: tx.DestinationAccount,
			Status:             tx.Status,
			CreatedAt:          formatTime(tx.CreatedAt),
		})
	}
	for i := range p.TimelineEvents {
		ev := &p.TimelineEvents[i]
		resp.TimelineEvents = append(resp.TimelineEvents, TimelineEventResponse{
			ID:          ev.ID,
			EventType:   ev.EventType,
			Description: ev.Description,
			CreatedAt:   formatTime(ev.CreatedAt),
		})
	}
	return resp
}

// FromPayments converts a slice, never returning nil.
func FromPayments(payments []domain.Payment) []PaymentResponse {
	out := make([]PaymentResponse, 0, len(payments))
	for i := range payments {
		out = append(out, FromPayment(&payments[i]))
	}
	return out
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

func formatTimePtr(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := formatTime(*t)
	return &s
}
