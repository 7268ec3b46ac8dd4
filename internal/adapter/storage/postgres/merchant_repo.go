package postgres

import (
	"context"
	"errors"
	"fmt"

	"fluxapay/internal/core/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// MerchantRepo implements ports.MerchantRepository.
type MerchantRepo struct {
	pool Pool
}

// NewMerchantRepo creates a new MerchantRepo.
func NewMerchantRepo(pool Pool) *MerchantRepo {
	return &MerchantRepo{pool: pool}
}

// Create inserts a new merchant into the database.
func (r *MerchantRepo) Create(ctx context.Context, m *domain.Merchant) error {
	query := `INSERT INTO merchants (id, username, password_hash, merchant_name, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`

	_, err := r.pool.Exec(ctx, query,
		m.ID, m.Username, m.PasswordHash, m.MerchantName,
		m.Status, m.CreatedAt, m.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert merchant: %w", err)
	}
	return nil
}

// GetByID fetches a merchant by its UUID.
func (r *MerchantRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Merchant, error) {
	query := `SELECT id, username, password_hash, merchant_name, status, created_at, updated_at
		FROM merchants WHERE id = $1`

	return r.scanMerchant(r.pool.QueryRow(ctx, query, id), "id")
}

// GetByUsername fetches a merchant by username.
func (r *MerchantRepo) GetByUsername(ctx context.Context, username string) (*domain.Merchant, error) {
	query := `SELECT id, username, password_hash, merchant_name, status, created_at, updated_at
		FROM merchants WHERE username = $1`

	return r.scanMerchant(r.pool.QueryRow(ctx, query, username), "username")
}

func (r *MerchantRepo) scanMerchant(row pgx.Row, by string) (*domain.Merchant, error) {
	m := &domain.Merchant{}
	err := row.Scan(
		&m.ID, &m.Username, &m.PasswordHash, &m.MerchantName,
		&m.Status, &m.CreatedAt, &m.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get merchant by %s: %w", by, err)
	}
	return m, nil
}
