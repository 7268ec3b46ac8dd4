package ports

import (
	"context"
	"time"

	"fluxapay/internal/core/domain"

	"github.com/google/uuid"
)

// MerchantRepository defines persistence operations for merchants.
type MerchantRepository interface {
	Create(ctx context.Context, merchant *domain.Merchant) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Merchant, error)
	GetByUsername(ctx context.Context, username string) (*domain.Merchant, error)
}

// PaymentSortField selects the column a payment listing is ordered by.
type PaymentSortField string

const (
	PaymentSortDate   PaymentSortField = "date"
	PaymentSortAmount PaymentSortField = "amount"
	PaymentSortStatus PaymentSortField = "status"
)

// SortOrder is the listing direction.
type SortOrder string

const (
	SortAsc  SortOrder = "asc"
	SortDesc SortOrder = "desc"
)

// PaymentFilter holds the optional filter predicates for payment queries.
// Each nil field means "not filtered". MerchantID is always applied.
type PaymentFilter struct {
	MerchantID uuid.UUID
	Status     *domain.PaymentStatus
	Currency   *string
	DateFrom   *time.Time
	DateTo     *time.Time
	AmountMin  *int64
	AmountMax  *int64
	Search     *string // case-insensitive substring over payment_id, order_id, customer email
}

// PaymentListParams is PaymentFilter plus sorting and pagination.
type PaymentListParams struct {
	PaymentFilter
	SortBy PaymentSortField
	Order  SortOrder
	Page   int
	Limit  int
}

// PaymentRepository defines read-only persistence operations for payments.
type PaymentRepository interface {
	// List returns one page of payments (with customer and transactions
	// embedded) and the total match count.
	List(ctx context.Context, params PaymentListParams) ([]domain.Payment, int64, error)
	// GetByID fetches a single payment with customer, transactions, and the
	// timeline ordered ascending by time. Returns nil, nil when the payment
	// does not exist for this merchant.
	GetByID(ctx context.Context, merchantID uuid.UUID, paymentID string) (*domain.Payment, error)
	// ListForExport returns every match for filter, newest first, unpaged.
	ListForExport(ctx context.Context, filter PaymentFilter) ([]domain.Payment, error)
}

// WebhookListParams holds filter + pagination for listing webhook logs.
// Ordering is fixed: created_at descending.
type WebhookListParams struct {
	MerchantID uuid.UUID
	Status     *domain.WebhookStatus
	EventType  *string
	Search     *string // case-insensitive substring over id, url
	Page       int
	Limit      int
}

// WebhookRepository defines persistence operations for webhook delivery logs.
type WebhookRepository interface {
	Create(ctx context.Context, log *domain.WebhookLog) error
	List(ctx context.Context, params WebhookListParams) ([]domain.WebhookLog, int64, error)
	// MarkResend atomically increments attempts, sets status to pending and
	// stamps last_attempt, scoped by (id, merchant_id). It returns the updated
	// log, or nil, nil when no such log exists for this merchant.
	MarkResend(ctx context.Context, merchantID uuid.UUID, id string) (*domain.WebhookLog, error)
}

// AuditRepository defines persistence for audit log entries.
type AuditRepository interface {
	Create(ctx context.Context, entry *domain.AuditLog) error
}
