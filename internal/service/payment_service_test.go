package service

import (
	"context"
	"net/http"
	"strings"
	"testing"
	"time"

	"fluxapay/internal/core/domain"
	"fluxapay/internal/core/ports"
	"fluxapay/internal/core/ports/mocks"
	"fluxapay/pkg/apperror"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func strPtr(s string) *string { return &s }

func TestPaymentService_Get(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	repo := mocks.NewMockPaymentRepository(ctrl)
	svc := NewPaymentService(repo)

	merchantID := uuid.New()
	payment := &domain.Payment{PaymentID: "pay_abc123", MerchantID: merchantID, Amount: 15000}
	repo.EXPECT().GetByID(gomock.Any(), merchantID, "pay_abc123").Return(payment, nil)

	got, err := svc.Get(context.Background(), merchantID, "pay_abc123")
	require.NoError(t, err)
	assert.Equal(t, payment, got)
}

func TestPaymentService_Get_NotFound(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	repo := mocks.NewMockPaymentRepository(ctrl)
	svc := NewPaymentService(repo)

	merchantID := uuid.New()
	repo.EXPECT().GetByID(gomock.Any(), merchantID, "pay_nope").Return(nil, nil)

	_, err := svc.Get(context.Background(), merchantID, "pay_nope")

	var appErr *apperror.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, http.StatusNotFound, appErr.HTTPStatus)
	assert.Equal(t, "Payment not found", appErr.Message)
}

func TestPaymentService_ExportCSV(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	repo := mocks.NewMockPaymentRepository(ctrl)
	svc := NewPaymentService(repo)

	merchantID := uuid.New()
	createdAt := time.Date(2026, 3, 14, 9, 26, 53, 0, time.UTC)
	payments := []domain.Payment{
		{
			PaymentID:       "pay_001",
			OrderID:         "ord_001",
			Amount:          250000,
			Currency:        "USD",
			Status:          domain.PaymentStatusCompleted,
			TransactionHash: strPtr("0xdeadbeef"),
			Customer:        &domain.Customer{Email: "jane@example.com", Name: `Jane "JJ" O'Brien, Jr.`},
			CreatedAt:       createdAt,
		},
		{
			PaymentID: "pay_002",
			OrderID:   "ord_002",
			Amount:    9900,
			Currency:  "EUR",
			Status:    domain.PaymentStatusPending,
			CreatedAt: createdAt,
		},
	}

	filter := ports.PaymentFilter{MerchantID: merchantID}
	repo.EXPECT().ListForExport(gomock.Any(), filter).Return(payments, nil)

	csv, err := svc.ExportCSV(context.Background(), filter)
	require.NoError(t, err)

	lines := strings.Split(csv, "\n")
	require.Len(t, lines, 3, "header plus one line per payment, no trailing newline")
	assert.Equal(t, "Payment ID,Order ID,Customer Email,Customer Name,Amount,Currency,Status,Created At,Transaction Hash", lines[0])
	assert.Equal(t, `pay_001,ord_001,jane@example.com,"Jane ""JJ"" O'Brien, Jr.",250000,USD,completed,2026-03-14T09:26:53Z,0xdeadbeef`, lines[1])
	assert.Equal(t, "pay_002,ord_002,,,9900,EUR,pending,2026-03-14T09:26:53Z,", lines[2])
}

func TestPaymentService_ExportCSV_Empty(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	repo := mocks.NewMockPaymentRepository(ctrl)
	svc := NewPaymentService(repo)

	filter := ports.PaymentFilter{MerchantID: uuid.New()}
	repo.EXPECT().ListForExport(gomock.Any(), filter).Return(nil, nil)

	csv, err := svc.ExportCSV(context.Background(), filter)
	require.NoError(t, err)
	assert.Equal(t, "Payment ID,Order ID,Customer Email,Customer Name,Amount,Currency,Status,Created At,Transaction Hash", csv)
}

func TestEscapeCSVField(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain", "hello", "hello"},
		{"comma", "a,b", `"a,b"`},
		{"quote", `say "hi"`, `"say ""hi"""`},
		{"both", `x,"y"`, `"x,""y"""`},
		{"newline untouched", "a\nb", "a\nb"},
		{"empty", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, escapeCSVField(tt.in))
		})
	}
}
