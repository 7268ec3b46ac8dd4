package service

import (
	"context"
	"strconv"
	"strings"
	"time"

	"fluxapay/internal/core/domain"
	"fluxapay/internal/core/ports"
	"fluxapay/pkg/apperror"

	"github.com/google/uuid"
)

// csvHeader is the fixed export column order.
var csvHeader = []string{
	"Payment ID",
	"Order ID",
	"Customer Email",
	"Customer Name",
	"Amount",
	"Currency",
	"Status",
	"Created At",
	"Transaction Hash",
}

// paymentService implements ports.PaymentService. Payments are a read-model
// here: the service never mutates them.
type paymentService struct {
	paymentRepo ports.PaymentRepository
}

// NewPaymentService creates a new payment service.
func NewPaymentService(paymentRepo ports.PaymentRepository) ports.PaymentService {
	return &paymentService{paymentRepo: paymentRepo}
}

// List returns a page of payments with their total match count.
func (s *paymentService) List(ctx context.Context, params ports.PaymentListParams) ([]domain.Payment, int64, error) {
	payments, total, err := s.paymentRepo.List(ctx, params)
	if err != nil {
		return nil, 0, apperror.InternalError(err)
	}
	return payments, total, nil
}

// Get fetches one payment scoped by merchant, including timeline events.
func (s *paymentService) Get(ctx context.Context, merchantID uuid.UUID, paymentID string) (*domain.Payment, error) {
	payment, err := s.paymentRepo.GetByID(ctx, merchantID, paymentID)
	if err != nil {
		return nil, apperror.InternalError(err)
	}
	if payment == nil {
		return nil, apperror.ErrNotFound("Payment")
	}
	return payment, nil
}

// ExportCSV renders all payments matching filter as CSV text.
func (s *paymentService) ExportCSV(ctx context.Context, filter ports.PaymentFilter) (string, error) {
	payments, err := s.paymentRepo.ListForExport(ctx, filter)
	if err != nil {
		return "", apperror.InternalError(err)
	}
	return generateCSV(payments), nil
}

// generateCSV builds the export document: one header row plus one row per
// payment. A field is quoted only when it contains a comma or a quote;
// embedded quotes are doubled. No other escaping is applied.
func generateCSV(payments []domain.Payment) string {
	var b strings.Builder

	writeCSVRow(&b, csvHeader)
	for i := range payments {
		p := &payments[i]

		var email, name string
		if p.Customer != nil {
			email = p.Customer.Email
			name = p.Customer.Name
		}
		var txHash string
		if p.TransactionHash != nil {
			txHash = *p.TransactionHash
		}

		writeCSVRow(&b, []string{
			p.PaymentID,
			p.OrderID,
			email,
			name,
			strconv.FormatInt(p.Amount, 10),
			p.Currency,
			string(p.Status),
			p.CreatedAt.UTC().Format(time.RFC3339),
			txHash,
		})
	}

	// No trailing newline after the final row.
	return strings.TrimSuffix(b.String(), "\n")
}

func writeCSVRow(b *strings.Builder, fields []string) {
	for i, f := range fields {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(escapeCSVField(f))
	}
	b.WriteByte('\n')
}

func escapeCSVField(field string) string {
	if !strings.ContainsAny(field, `,"`) {
		return field
	}
	return `"` + strings.ReplaceAll(field, `"`, `""`) + `"`
}
