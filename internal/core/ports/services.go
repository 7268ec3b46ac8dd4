package ports

import (
	"context"
	"time"

	"fluxapay/internal/core/domain"

	"github.com/google/uuid"
)

// HashService handles password hashing (Argon2id).
type HashService interface {
	Hash(password string) (string, error)
	Verify(password string, hash string) (bool, error)
}

// TokenService handles JWT token operations.
type TokenService interface {
	Generate(merchantID uuid.UUID, username string) (string, time.Time, error)
	Validate(tokenString string) (*TokenClaims, error)
}

// TokenClaims holds the parsed JWT claims.
type TokenClaims struct {
	MerchantID uuid.UUID
	Username   string
}

// --- Service Ports (Business Logic) ---

// AuthService defines authentication business logic.
type AuthService interface {
	Register(ctx context.Context, req RegisterRequest) (*RegisterResponse, error)
	Login(ctx context.Context, username, password string) (string, time.Time, error) // token, expiry, error
}

// RegisterRequest holds input for merchant registration.
type RegisterRequest struct {
	Username     string
	Password     string
	MerchantName string
}

// RegisterResponse holds the registration result.
type RegisterResponse struct {
	MerchantID uuid.UUID
}

// PaymentService defines the payment read-model: list, detail, export.
type PaymentService interface {
	List(ctx context.Context, params PaymentListParams) ([]domain.Payment, int64, error)
	Get(ctx context.Context, merchantID uuid.UUID, paymentID string) (*domain.Payment, error)
	// ExportCSV renders every payment matching filter as CSV text with a
	// fixed column order and a single header row.
	ExportCSV(ctx context.Context, filter PaymentFilter) (string, error)
}

// WebhookService defines webhook log inspection, resend, and test-send.
type WebhookService interface {
	List(ctx context.Context, params WebhookListParams) ([]domain.WebhookLog, int64, error)
	// Resend marks the log for redelivery: attempts += 1, status reset to
	// pending, last_attempt stamped. NotFound when the log does not exist
	// for this merchant.
	Resend(ctx context.Context, merchantID uuid.UUID, id string) (*domain.WebhookLog, error)
	// SendTest fabricates a sample event for eventType and records a
	// synthetic successful delivery to url. No network I/O is performed.
	SendTest(ctx context.Context, merchantID uuid.UUID, eventType, url string) (*domain.WebhookLog, error)
}

// AuditService records audited actions (fire-and-forget).
type AuditService interface {
	Log(ctx context.Context, entry *domain.AuditLog)
}
