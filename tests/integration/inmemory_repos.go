package integration

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"fluxapay/internal/core/domain"
	"fluxapay/internal/core/ports"

	"github.com/google/uuid"
)

// --- In-Memory Merchant Repo ---

type inMemoryMerchantRepo struct {
	mu        sync.RWMutex
	merchants map[uuid.UUID]*domain.Merchant
}

func newInMemoryMerchantRepo() *inMemoryMerchantRepo {
	return &inMemoryMerchantRepo{merchants: make(map[uuid.UUID]*domain.Merchant)}
}

func (r *inMemoryMerchantRepo) Create(ctx context.Context, m *domain.Merchant) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.merchants {
		if existing.Username == m.Username {
			return fmt.Errorf("username already exists")
		}
	}
	cp := *m
	r.merchants[m.ID] = &cp
	return nil
}

func (r *inMemoryMerchantRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Merchant, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	m, ok := r.merchants[id]
	if !ok {
		return nil, nil
	}
	cp := *m
	return &cp, nil
}

func (r *inMemoryMerchantRepo) GetByUsername(ctx context.Context, username string) (*domain.Merchant, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, m := range r.merchants {
		if m.Username == username {
			cp := *m
			return &cp, nil
		}
	}
	return nil, nil
}

// --- In-Memory Payment Repo ---

type inMemoryPaymentRepo struct {
	mu       sync.RWMutex
	payments []domain.Payment
}

func newInMemoryPaymentRepo() *inMemoryPaymentRepo {
	return &inMemoryPaymentRepo{}
}

func (r *inMemoryPaymentRepo) seed(payments ...domain.Payment) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.payments = append(r.payments, payments...)
}

func matchesPaymentFilter(p *domain.Payment, f ports.PaymentFilter) bool {
	if p.MerchantID != f.MerchantID {
		return false
	}
	if f.Status != nil && p.Status != *f.Status {
		return false
	}
	if f.Currency != nil && p.Currency != *f.Currency {
		return false
	}
	if f.DateFrom != nil && p.CreatedAt.Before(*f.DateFrom) {
		return false
	}
	if f.DateTo != nil && p.CreatedAt.After(*f.DateTo) {
		return false
	}
	if f.AmountMin != nil && p.Amount < *f.AmountMin {
		return false
	}
	if f.AmountMax != nil && p.Amount > *f.AmountMax {
		return false
	}
	if f.Search != nil {
		needle := strings.ToLower(*f.Search)
		email := ""
		if p.Customer != nil {
			email = strings.ToLower(p.Customer.Email)
		}
		if !strings.Contains(strings.ToLower(p.PaymentID), needle) &&
			!strings.Contains(strings.ToLower(p.OrderID), needle) &&
			!strings.Contains(email, needle) {
			return false
		}
	}
	return true
}

func sortPayments(payments []domain.Payment, field ports.PaymentSortField, order ports.SortOrder) {
	less := func(a, b *domain.Payment) bool {
		switch field {
		case ports.PaymentSortAmount:
			return a.Amount < b.Amount
		case ports.PaymentSortStatus:
			return a.Status < b.Status
		default:
			return a.CreatedAt.Before(b.CreatedAt)
		}
	}
	sort.SliceStable(payments, func(i, j int) bool {
		if order == ports.SortAsc {
			return less(&payments[i], &payments[j])
		}
		return less(&payments[j], &payments[i])
	})
}

func (r *inMemoryPaymentRepo) List(ctx context.Context, params ports.PaymentListParams) ([]domain.Payment, int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var matched []domain.Payment
	for i := range r.payments {
		if matchesPaymentFilter(&r.payments[i], params.PaymentFilter) {
			matched = append(matched, r.payments[i])
		}
	}
	total := int64(len(matched))
	sortPayments(matched, params.SortBy, params.Order)

	offset := (params.Page - 1) * params.Limit
	if offset >= len(matched) {
		return nil, total, nil
	}
	end := offset + params.Limit
	if end > len(matched) {
		end = len(matched)
	}
	return matched[offset:end], total, nil
}

func (r *inMemoryPaymentRepo) GetByID(ctx context.Context, merchantID uuid.UUID, paymentID string) (*domain.Payment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for i := range r.payments {
		if r.payments[i].ID == paymentID && r.payments[i].MerchantID == merchantID {
			cp := r.payments[i]
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *inMemoryPaymentRepo) ListForExport(ctx context.Context, filter ports.PaymentFilter) ([]domain.Payment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var matched []domain.Payment
	for i := range r.payments {
		if matchesPaymentFilter(&r.payments[i], filter) {
			matched = append(matched, r.payments[i])
		}
	}
	sortPayments(matched, ports.PaymentSortDate, ports.SortDesc)
	return matched, nil
}

// --- In-Memory Webhook Repo ---

type inMemoryWebhookRepo struct {
	mu   sync.Mutex
	logs []domain.WebhookLog
}

func newInMemoryWebhookRepo() *inMemoryWebhookRepo {
	return &inMemoryWebhookRepo{}
}

func (r *inMemoryWebhookRepo) seed(logs ...domain.WebhookLog) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.logs = append(r.logs, logs...)
}

func (r *inMemoryWebhookRepo) Create(ctx context.Context, log *domain.WebhookLog) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.logs = append(r.logs, *log)
	return nil
}

func matchesWebhookFilter(l *domain.WebhookLog, params ports.WebhookListParams) bool {
	if l.MerchantID != params.MerchantID {
		return false
	}
	if params.Status != nil && l.Status != *params.Status {
		return false
	}
	if params.EventType != nil && l.EventType != *params.EventType {
		return false
	}
	if params.Search != nil {
		needle := strings.ToLower(*params.Search)
		if !strings.Contains(strings.ToLower(l.ID), needle) &&
			!strings.Contains(strings.ToLower(l.URL), needle) {
			return false
		}
	}
	return true
}

func (r *inMemoryWebhookRepo) List(ctx context.Context, params ports.WebhookListParams) ([]domain.WebhookLog, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var matched []domain.WebhookLog
	for i := range r.logs {
		if matchesWebhookFilter(&r.logs[i], params) {
			matched = append(matched, r.logs[i])
		}
	}
	total := int64(len(matched))
	sort.SliceStable(matched, func(i, j int) bool {
		return matched[j].CreatedAt.Before(matched[i].CreatedAt)
	})

	offset := (params.Page - 1) * params.Limit
	if offset >= len(matched) {
		return nil, total, nil
	}
	end := offset + params.Limit
	if end > len(matched) {
		end = len(matched)
	}
	return matched[offset:end], total, nil
}

func (r *inMemoryWebhookRepo) MarkResend(ctx context.Context, merchantID uuid.UUID, id string) (*domain.WebhookLog, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.logs {
		if r.logs[i].ID == id && r.logs[i].MerchantID == merchantID {
			now := time.Now().UTC()
			r.logs[i].Attempts++
			r.logs[i].Status = domain.WebhookStatusPending
			r.logs[i].LastAttempt = &now
			cp := r.logs[i]
			return &cp, nil
		}
	}
	return nil, nil
}
