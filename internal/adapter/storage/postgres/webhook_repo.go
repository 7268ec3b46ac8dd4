package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"fluxapay/internal/core/domain"
	"fluxapay/internal/core/ports"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const webhookLogColumns = `id, merchant_id, event_type, url, status, payload, response, attempts, created_at, last_attempt, next_retry`

// WebhookRepo implements ports.WebhookRepository.
type WebhookRepo struct {
	pool Pool
}

// NewWebhookRepo creates a new WebhookRepo.
func NewWebhookRepo(pool Pool) *WebhookRepo {
	return &WebhookRepo{pool: pool}
}

// Create inserts a new webhook delivery log.
func (r *WebhookRepo) Create(ctx context.Context, log *domain.WebhookLog) error {
	var responseJSON []byte
	if log.Response != nil {
		var err error
		responseJSON, err = json.Marshal(log.Response)
		if err != nil {
			return fmt.Errorf("marshal webhook response: %w", err)
		}
	}

	query := `INSERT INTO webhook_logs (` + webhookLogColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`

	_, err := r.pool.Exec(ctx, query,
		log.ID, log.MerchantID, log.EventType, log.URL, log.Status,
		[]byte(log.Payload), responseJSON, log.Attempts,
		log.CreatedAt, log.LastAttempt, log.NextRetry,
	)
	if err != nil {
		return fmt.Errorf("insert webhook log: %w", err)
	}
	return nil
}

// List fetches webhook logs with filtering and pagination, newest first.
func (r *WebhookRepo) List(ctx context.Context, params ports.WebhookListParams) ([]domain.WebhookLog, int64, error) {
	var conditions []string
	var args []any
	argIdx := 1

	conditions = append(conditions, fmt.Sprintf("merchant_id = $%d", argIdx))
	args = append(args, params.MerchantID)
	argIdx++

	if params.Status != nil {
		conditions = append(conditions, fmt.Sprintf("status = $%d", argIdx))
		args = append(args, *params.Status)
		argIdx++
	}
	if params.EventType != nil {
		conditions = append(conditions, fmt.Sprintf("event_type = $%d", argIdx))
		args = append(args, *params.EventType)
		argIdx++
	}
	if params.Search != nil {
		// ILIKE on the escaped pattern gives case-insensitive substring match.
		conditions = append(conditions, fmt.Sprintf("(id ILIKE $%d OR url ILIKE $%d)", argIdx, argIdx))
		args = append(args, likePattern(*params.Search))
		argIdx++
	}

	where := "WHERE " + strings.Join(conditions, " AND ")

	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM webhook_logs %s", where)
	var total int64
	if err := r.pool.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count webhook logs: %w", err)
	}

	offset := (params.Page - 1) * params.Limit
	dataQuery := fmt.Sprintf(`SELECT %s FROM webhook_logs %s ORDER BY created_at DESC LIMIT $%d OFFSET $%d`,
		webhookLogColumns, where, argIdx, argIdx+1)
	args = append(args, params.Limit, offset)

	rows, err := r.pool.Query(ctx, dataQuery, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list webhook logs: %w", err)
	}
	defer rows.Close()

	var logs []domain.WebhookLog
	for rows.Next() {
		log, err := scanWebhookLog(rows)
		if err != nil {
			return nil, 0, err
		}
		logs = append(logs, *log)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate webhook logs: %w", err)
	}

	return logs, total, nil
}

// MarkResend atomically increments attempts, resets status to pending and
// stamps last_attempt, in a single UPDATE scoped by (id, merchant_id).
// Concurrent calls each count exactly once. Returns nil, nil when no row
// matched — a foreign merchant's log looks the same as a missing one.
func (r *WebhookRepo) MarkResend(ctx context.Context, merchantID uuid.UUID, id string) (*domain.WebhookLog, error) {
	query := `UPDATE webhook_logs
		SET attempts = attempts + 1, status = $1, last_attempt = NOW()
		WHERE id = $2 AND merchant_id = $3
		RETURNING ` + webhookLogColumns

	log, err := scanWebhookLog(r.pool.QueryRow(ctx, query, domain.WebhookStatusPending, id, merchantID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("mark webhook resend: %w", err)
	}
	return log, nil
}

func scanWebhookLog(row pgx.Row) (*domain.WebhookLog, error) {
	l := &domain.WebhookLog{}
	var payload, responseJSON []byte

	err := row.Scan(
		&l.ID, &l.MerchantID, &l.EventType, &l.URL, &l.Status,
		&payload, &responseJSON, &l.Attempts,
		&l.CreatedAt, &l.LastAttempt, &l.NextRetry,
	)
	if err != nil {
		return nil, err
	}

	l.Payload = json.RawMessage(payload)
	if len(responseJSON) > 0 {
		l.Response = &domain.WebhookResponse{}
		if err := json.Unmarshal(responseJSON, l.Response); err != nil {
			return nil, fmt.Errorf("unmarshal webhook response: %w", err)
		}
	}
	return l, nil
}

// likePattern escapes LIKE metacharacters in a raw search term and wraps it
// in wildcards so it matches as a substring.
func likePattern(term string) string {
	escaped := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(term)
	return "%" + escaped + "%"
}
