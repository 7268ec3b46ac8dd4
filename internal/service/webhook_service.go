package service

import (
	"context"
	"crypto/rand"
	"encoding/json"
	"fmt"
	"time"

	"fluxapay/internal/core/domain"
	"fluxapay/internal/core/ports"
	"fluxapay/pkg/apperror"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// testEventPayload is the synthetic body recorded by test-send. Its shape is
// the same for every event type.
type testEventPayload struct {
	ID      string               `json:"id"`
	Type    string               `json:"type"`
	Created int64                `json:"created"`
	Data    testEventPayloadData `json:"data"`
}

type testEventPayloadData struct {
	Object testEventObject `json:"object"`
}

type testEventObject struct {
	ID       string `json:"id"`
	Status   string `json:"status"`
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
}

// webhookService implements ports.WebhookService.
type webhookService struct {
	webhookRepo ports.WebhookRepository
	log         zerolog.Logger
}

// NewWebhookService creates a new webhook service.
func NewWebhookService(webhookRepo ports.WebhookRepository, log zerolog.Logger) ports.WebhookService {
	return &webhookService{
		webhookRepo: webhookRepo,
		log:         log,
	}
}

// List returns a page of webhook logs, newest first.
func (s *webhookService) List(ctx context.Context, params ports.WebhookListParams) ([]domain.WebhookLog, int64, error) {
	logs, total, err := s.webhookRepo.List(ctx, params)
	if err != nil {
		return nil, 0, apperror.InternalError(err)
	}
	return logs, total, nil
}

// Resend marks a log for redelivery. The store-level update is atomic and
// scoped by merchant, so concurrent resends each count exactly once and a
// foreign merchant's log is indistinguishable from a missing one.
func (s *webhookService) Resend(ctx context.Context, merchantID uuid.UUID, id string) (*domain.WebhookLog, error) {
	log, err := s.webhookRepo.MarkResend(ctx, merchantID, id)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("mark resend: %w", err))
	}
	if log == nil {
		return nil, apperror.ErrNotFound("Webhook log")
	}

	s.log.Info().
		Str("webhook_id", log.ID).
		Str("merchant_id", merchantID.String()).
		Int("attempts", log.Attempts).
		Msg("webhook retry triggered")

	return log, nil
}

// SendTest fabricates a sample event and records a synthetic successful
// delivery. No request is made to url; the canned response stands in for one.
func (s *webhookService) SendTest(ctx context.Context, merchantID uuid.UUID, eventType, url string) (*domain.WebhookLog, error) {
	payload := testEventPayload{
		ID:      "evt_" + randomID(9),
		Type:    eventType,
		Created: time.Now().Unix(),
		Data: testEventPayloadData{
			Object: testEventObject{
				ID:       "obj_" + randomID(9),
				Status:   "succeeded",
				Amount:   5000,
				Currency: "USD",
			},
		},
	}

	payloadJSON, err := json.Marshal(payload)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("marshal test payload: %w", err))
	}

	now := time.Now().UTC()
	log := &domain.WebhookLog{
		ID:         "wh_" + randomID(10),
		MerchantID: merchantID,
		EventType:  eventType,
		URL:        url,
		Status:     domain.WebhookStatusSuccess,
		Payload:    payloadJSON,
		Response: &domain.WebhookResponse{
			Status: 200,
			Body:   `{"received": true}`,
		},
		Attempts:    1,
		CreatedAt:   now,
		LastAttempt: &now,
	}

	if err := s.webhookRepo.Create(ctx, log); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("create test webhook log: %w", err))
	}

	s.log.Info().
		Str("webhook_id", log.ID).
		Str("merchant_id", merchantID.String()).
		Str("event_type", eventType).
		Str("url", url).
		Msg("test webhook recorded")

	return log, nil
}

const idAlphabet = "0123456789abcdefghijklmnopqrstuvwxyz"

// randomID generates n random characters from a base36 alphabet.
func randomID(n int) string {
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		// crypto/rand failing means the process is in no state to serve.
		panic(fmt.Sprintf("rand.Read: %v", err))
	}
	for i := range buf {
		buf[i] = idAlphabet[int(buf[i])%len(idAlphabet)]
	}
	return string(buf)
}
