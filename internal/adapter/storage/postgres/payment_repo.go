package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"fluxapay/internal/core/domain"
	"fluxapay/internal/core/ports"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const paymentColumns = `p.id, p.merchant_id, p.payment_id, p.order_id, p.amount, p.currency, p.status, p.transaction_hash, p.created_at,
		c.id, c.email, c.name, c.phone`

// PaymentRepo implements ports.PaymentRepository. Payments are read-only
// from this service's perspective.
type PaymentRepo struct {
	pool Pool
}

// NewPaymentRepo creates a new PaymentRepo.
func NewPaymentRepo(pool Pool) *PaymentRepo {
	return &PaymentRepo{pool: pool}
}

// buildFilter renders the filter as WHERE conditions. The customer join is
// always present so the email search predicate can reference it.
func buildFilter(filter ports.PaymentFilter) (where string, args []any, nextIdx int) {
	var conditions []string
	argIdx := 1

	conditions = append(conditions, fmt.Sprintf("p.merchant_id = $%d", argIdx))
	args = append(args, filter.MerchantID)
	argIdx++

	if filter.Status != nil {
		conditions = append(conditions, fmt.Sprintf("p.status = $%d", argIdx))
		args = append(args, *filter.Status)
		argIdx++
	}
	if filter.Currency != nil {
		conditions = append(conditions, fmt.Sprintf("p.currency = $%d", argIdx))
		args = append(args, *filter.Currency)
		argIdx++
	}
	if filter.DateFrom != nil {
		conditions = append(conditions, fmt.Sprintf("p.created_at >= $%d", argIdx))
		args = append(args, *filter.DateFrom)
		argIdx++
	}
	if filter.DateTo != nil {
		conditions = append(conditions, fmt.Sprintf("p.created_at <= $%d", argIdx))
		args = append(args, *filter.DateTo)
		argIdx++
	}
	if filter.AmountMin != nil {
		conditions = append(conditions, fmt.Sprintf("p.amount >= $%d", argIdx))
		args = append(args, *filter.AmountMin)
		argIdx++
	}
	if filter.AmountMax != nil {
		conditions = append(conditions, fmt.Sprintf("p.amount <= $%d", argIdx))
		args = append(args, *filter.AmountMax)
		argIdx++
	}
	if filter.Search != nil {
		conditions = append(conditions,
			fmt.Sprintf("(p.payment_id ILIKE $%d OR p.order_id ILIKE $%d OR c.email ILIKE $%d)", argIdx, argIdx, argIdx))
		args = append(args, likePattern(*filter.Search))
		argIdx++
	}

	return "WHERE " + strings.Join(conditions, " AND "), args, argIdx
}

// sortColumn whitelists the ORDER BY target. The sort field is validated at
// the handler, but the repo never interpolates caller input regardless.
func sortColumn(field ports.PaymentSortField) string {
	switch field {
	case ports.PaymentSortAmount:
		return "p.amount"
	case ports.PaymentSortStatus:
		return "p.status"
	default:
		return "p.created_at"
	}
}

func sortDirection(order ports.SortOrder) string {
	if order == ports.SortAsc {
		return "ASC"
	}
	return "DESC"
}

// List fetches one page of payments with customer and transactions embedded,
// plus the total match count.
func (r *PaymentRepo) List(ctx context.Context, params ports.PaymentListParams) ([]domain.Payment, int64, error) {
	where, args, argIdx := buildFilter(params.PaymentFilter)

	countQuery := fmt.Sprintf(
		"SELECT COUNT(*) FROM payments p LEFT JOIN customers c ON c.id = p.customer_id %s", where)
	var total int64
	if err := r.pool.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count payments: %w", err)
	}

	offset := (params.Page - 1) * params.Limit
	dataQuery := fmt.Sprintf(`SELECT %s
		FROM payments p LEFT JOIN customers c ON c.id = p.customer_id
		%s ORDER BY %s %s LIMIT $%d OFFSET $%d`,
		paymentColumns, where, sortColumn(params.SortBy), sortDirection(params.Order), argIdx, argIdx+1)
	args = append(args, params.Limit, offset)

	payments, err := r.queryPayments(ctx, dataQuery, args...)
	if err != nil {
		return nil, 0, err
	}

	if err := r.attachTransactions(ctx, payments); err != nil {
		return nil, 0, err
	}

	return payments, total, nil
}

// GetByID fetches a single payment with customer, transactions, and the
// timeline ordered ascending. Returns nil, nil when the payment does not
// exist for this merchant.
func (r *PaymentRepo) GetByID(ctx context.Context, merchantID uuid.UUID, paymentID string) (*domain.Payment, error) {
	query := fmt.Sprintf(`SELECT %s
		FROM payments p LEFT JOIN customers c ON c.id = p.customer_id
		WHERE p.id = $1 AND p.merchant_id = $2`, paymentColumns)

	p, err := scanPayment(r.pool.QueryRow(ctx, query, paymentID, merchantID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get payment: %w", err)
	}

	payments := []domain.Payment{*p}
	if err := r.attachTransactions(ctx, payments); err != nil {
		return nil, err
	}

	events, err := r.listTimelineEvents(ctx, p.ID)
	if err != nil {
		return nil, err
	}
	payments[0].TimelineEvents = events

	return &payments[0], nil
}

// ListForExport fetches every payment matching filter, newest first, unpaged.
func (r *PaymentRepo) ListForExport(ctx context.Context, filter ports.PaymentFilter) ([]domain.Payment, error) {
	where, args, _ := buildFilter(filter)

	query := fmt.Sprintf(`SELECT %s
		FROM payments p LEFT JOIN customers c ON c.id = p.customer_id
		%s ORDER BY p.created_at DESC`, paymentColumns, where)

	return r.queryPayments(ctx, query, args...)
}

func (r *PaymentRepo) queryPayments(ctx context.Context, query string, args ...any) ([]domain.Payment, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query payments: %w", err)
	}
	defer rows.Close()

	var payments []domain.Payment
	for rows.Next() {
		p, err := scanPayment(rows)
		if err != nil {
			return nil, fmt.Errorf("scan payment: %w", err)
		}
		payments = append(payments, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate payments: %w", err)
	}
	return payments, nil
}

// attachTransactions loads the transactions of the given payments in one
// query and distributes them in memory.
func (r *PaymentRepo) attachTransactions(ctx context.Context, payments []domain.Payment) error {
	if len(payments) == 0 {
		return nil
	}

	ids := make([]string, 0, len(payments))
	index := make(map[string]*domain.Payment, len(payments))
	for i := range payments {
		ids = append(ids, payments[i].ID)
		index[payments[i].ID] = &payments[i]
	}

	query := `SELECT payment_id, id, transaction_hash, amount, currency, source_account, destination_account, status, created_at
		FROM payment_transactions WHERE payment_id = ANY($1) ORDER BY created_at ASC`

	rows, err := r.pool.Query(ctx, query, ids)
	if err != nil {
		return fmt.Errorf("query payment transactions: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var paymentID string
		var tx domain.PaymentTransaction
		if err := rows.Scan(
			&paymentID, &tx.ID, &tx.TransactionHash, &tx.Amount, &tx.Currency,
			&tx.SourceAccount, &tx.DestinationAccount, &tx.Status, &tx.CreatedAt,
		); err != nil {
			return fmt.Errorf("scan payment transaction: %w", err)
		}
		if p, ok := index[paymentID]; ok {
			p.Transactions = append(p.Transactions, tx)
		}
	}
	return rows.Err()
}

func (r *PaymentRepo) listTimelineEvents(ctx context.Context, paymentID string) ([]domain.TimelineEvent, error) {
	query := `SELECT id, event_type, description, created_at
		FROM payment_timeline_events WHERE payment_id = $1 ORDER BY created_at ASC`

	rows, err := r.pool.Query(ctx, query, paymentID)
	if err != nil {
		return nil, fmt.Errorf("query timeline events: %w", err)
	}
	defer rows.Close()

	var events []domain.TimelineEvent
	for rows.Next() {
		var ev domain.TimelineEvent
		if err := rows.Scan(&ev.ID, &ev.EventType, &ev.Description, &ev.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan timeline event: %w", err)
		}
		events = append(events, ev)
	}
	return events, rows.Err()
}

func scanPayment(row pgx.Row) (*domain.Payment, error) {
	p := &domain.Payment{}
	var custID, custEmail, custName, custPhone *string

	err := row.Scan(
		&p.ID, &p.MerchantID, &p.PaymentID, &p.OrderID, &p.Amount,
		&p.Currency, &p.Status, &p.TransactionHash, &p.CreatedAt,
		&custID, &custEmail, &custName, &custPhone,
	)
	if err != nil {
		return nil, err
	}

	if custID != nil {
		p.Customer = &domain.Customer{ID: *custID}
		if custEmail != nil {
			p.Customer.Email = *custEmail
		}
		if custName != nil {
			p.Customer.Name = *custName
		}
		if custPhone != nil {
			p.Customer.Phone = *custPhone
		}
	}
	return p, nil
}
