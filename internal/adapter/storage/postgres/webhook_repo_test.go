package postgres

import (
	"context"
	"testing"
	"time"

	"fluxapay/internal/core/domain"
	"fluxapay/internal/core/ports"

	"github.com/google/uuid"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func webhookLogRow(l *domain.WebhookLog, responseJSON []byte) *pgxmock.Rows {
	return pgxmock.NewRows([]string{
		"id", "merchant_id", "event_type", "url", "status",
		"payload", "response", "attempts", "created_at", "last_attempt", "next_retry",
	}).AddRow(
		l.ID, l.MerchantID, l.EventType, l.URL, l.Status,
		[]byte(l.Payload), responseJSON, l.Attempts, l.CreatedAt, l.LastAttempt, l.NextRetry,
	)
}

func newTestWebhookLog(merchantID uuid.UUID) *domain.WebhookLog {
	created := time.Now().UTC().Truncate(time.Microsecond)
	return &domain.WebhookLog{
		ID:         "wh_1234567890",
		MerchantID: merchantID,
		EventType:  "payment.succeeded",
		URL:        "https://api.merchant.com/webhooks",
		Status:     domain.WebhookStatusFailed,
		Payload:    []byte(`{"id":"evt_abc"}`),
		Attempts:   3,
		CreatedAt:  created,
	}
}

func TestWebhookRepo_Create(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewWebhookRepo(mock)
	merchantID := uuid.New()
	log := newTestWebhookLog(merchantID)
	now := time.Now().UTC()
	log.LastAttempt = &now
	log.Response = &domain.WebhookResponse{Status: 200, Body: `{"received": true}`}

	mock.ExpectExec("INSERT INTO webhook_logs").
		WithArgs(log.ID, log.MerchantID, log.EventType, log.URL, log.Status,
			[]byte(log.Payload), []byte(`{"status":200,"body":"{\"received\": true}"}`),
			log.Attempts, log.CreatedAt, log.LastAttempt, log.NextRetry).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	err = repo.Create(context.Background(), log)
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWebhookRepo_List_FiltersAndPagination(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewWebhookRepo(mock)
	merchantID := uuid.New()
	log := newTestWebhookLog(merchantID)

	status := domain.WebhookStatusFailed
	search := "wh_12"
	params := ports.WebhookListParams{
		MerchantID: merchantID,
		Status:     &status,
		Search:     &search,
		Page:       2,
		Limit:      10,
	}

	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM webhook_logs`).
		WithArgs(merchantID, status, "%wh\\_12%").
		WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(int64(11)))

	mock.ExpectQuery("SELECT .+ FROM webhook_logs .+ ORDER BY created_at DESC").
		WithArgs(merchantID, status, "%wh\\_12%", 10, 10).
		WillReturnRows(webhookLogRow(log, nil))

	logs, total, err := repo.List(context.Background(), params)
	require.NoError(t, err)
	assert.Equal(t, int64(11), total)
	require.Len(t, logs, 1)
	assert.Equal(t, log.ID, logs[0].ID)
	assert.Nil(t, logs[0].Response)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWebhookRepo_MarkResend(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewWebhookRepo(mock)
	merchantID := uuid.New()
	log := newTestWebhookLog(merchantID)
	log.Status = domain.WebhookStatusPending
	log.Attempts = 4
	now := time.Now().UTC()
	log.LastAttempt = &now

	mock.ExpectQuery("UPDATE webhook_logs").
		WithArgs(domain.WebhookStatusPending, log.ID, merchantID).
		WillReturnRows(webhookLogRow(log, []byte(`{"status":500,"body":"err"}`)))

	updated, err := repo.MarkResend(context.Background(), merchantID, log.ID)
	require.NoError(t, err)
	require.NotNil(t, updated)
	assert.Equal(t, 4, updated.Attempts)
	assert.Equal(t, domain.WebhookStatusPending, updated.Status)
	require.NotNil(t, updated.Response)
	assert.Equal(t, 500, updated.Response.Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWebhookRepo_MarkResend_NoRow(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewWebhookRepo(mock)
	merchantID := uuid.New()

	mock.ExpectQuery("UPDATE webhook_logs").
		WithArgs(domain.WebhookStatusPending, "wh_missing", merchantID).
		WillReturnRows(pgxmock.NewRows([]string{
			"id", "merchant_id", "event_type", "url", "status",
			"payload", "response", "attempts", "created_at", "last_attempt", "next_retry",
		}))

	updated, err := repo.MarkResend(context.Background(), merchantID, "wh_missing")
	assert.NoError(t, err)
	assert.Nil(t, updated)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLikePattern(t *testing.T) {
	assert.Equal(t, "%wh\\_12%", likePattern("wh_12"))
	assert.Equal(t, "%50\\%%", likePattern("50%"))
	assert.Equal(t, "%plain%", likePattern("plain"))
}
