package handler

import (
	"fmt"
	"strconv"
	"time"

	"fluxapay/internal/adapter/http/dto"
	"fluxapay/internal/adapter/http/middleware"
	"fluxapay/internal/core/domain"
	"fluxapay/internal/core/ports"
	"fluxapay/pkg/apperror"
	"fluxapay/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// PaymentHandler serves the payment read-model: list, detail, CSV export.
type PaymentHandler struct {
	paymentSvc ports.PaymentService
}

// NewPaymentHandler creates a new PaymentHandler.
func NewPaymentHandler(paymentSvc ports.PaymentService) *PaymentHandler {
	return &PaymentHandler{paymentSvc: paymentSvc}
}

// List handles GET /api/payments.
func (h *PaymentHandler) List(c *gin.Context) {
	merchantID, ok := c.Get(middleware.CtxMerchantID)
	if !ok {
		response.Error(c, apperror.ErrUnauthorized())
		return
	}

	filter, err := parsePaymentFilter(c, merchantID.(uuid.UUID))
	if err != nil {
		response.Error(c, err)
		return
	}

	params := ports.PaymentListParams{
		PaymentFilter: filter,
		SortBy:        ports.PaymentSortDate,
		Order:         ports.SortDesc,
		Page:          1,
		Limit:         10,
	}

	if s := c.Query("sort_by"); s != "" {
		switch ports.PaymentSortField(s) {
		case ports.PaymentSortDate, ports.PaymentSortAmount, ports.PaymentSortStatus:
			params.SortBy = ports.PaymentSortField(s)
		default:
			response.Error(c, apperror.Validation(fmt.Sprintf("invalid sort_by: %s", s)))
			return
		}
	}
	if o := c.Query("order"); o != "" {
		switch ports.SortOrder(o) {
		case ports.SortAsc, ports.SortDesc:
			params.Order = ports.SortOrder(o)
		default:
			response.Error(c, apperror.Validation(fmt.Sprintf("invalid order: %s", o)))
			return
		}
	}

	params.Page, params.Limit = parsePageLimit(c)

	payments, total, err := h.paymentSvc.List(c.Request.Context(), params)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, dto.PaymentListResponse{
		Data:       dto.FromPayments(payments),
		Pagination: dto.NewPagination(params.Page, params.Limit, total),
	})
}

// Detail handles GET /api/payments/:paymentId.
func (h *PaymentHandler) Detail(c *gin.Context) {
	merchantID, ok := c.Get(middleware.CtxMerchantID)
	if !ok {
		response.Error(c, apperror.ErrUnauthorized())
		return
	}

	payment, err := h.paymentSvc.Get(c.Request.Context(), merchantID.(uuid.UUID), c.Param("paymentId"))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, dto.FromPayment(payment))
}

// Export handles GET /api/payments/export. Same filters as List, no paging.
func (h *PaymentHandler) Export(c *gin.Context) {
	merchantID, ok := c.Get(middleware.CtxMerchantID)
	if !ok {
		response.Error(c, apperror.ErrUnauthorized())
		return
	}

	filter, err := parsePaymentFilter(c, merchantID.(uuid.UUID))
	if err != nil {
		response.Error(c, err)
		return
	}

	csv, err := h.paymentSvc.ExportCSV(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}

	filename := fmt.Sprintf("payments-export-%s.csv", time.Now().UTC().Format("2006-01-02"))
	response.CSV(c, filename, csv)
}

// parsePaymentFilter extracts the shared filter query parameters. Malformed
// values are a 400, not silently dropped.
func parsePaymentFilter(c *gin.Context, merchantID uuid.UUID) (ports.PaymentFilter, error) {
	filter := ports.PaymentFilter{MerchantID: merchantID}

	if s := c.Query("status"); s != "" {
		status := domain.PaymentStatus(s)
		if !status.IsValid() {
			return filter, apperror.Validation(fmt.Sprintf("invalid status: %s", s))
		}
		filter.Status = &status
	}
	if cur := c.Query("currency"); cur != "" {
		filter.Currency = &cur
	}
	if d := c.Query("date_from"); d != "" {
		t, err := time.Parse(time.RFC3339, d)
		if err != nil {
			return filter, apperror.Validation(fmt.Sprintf("invalid date_from: %s", d))
		}
		filter.DateFrom = &t
	}
	if d := c.Query("date_to"); d != "" {
		t, err := time.Parse(time.RFC3339, d)
		if err != nil {
			return filter, apperror.Validation(fmt.Sprintf("invalid date_to: %s", d))
		}
		filter.DateTo = &t
	}
	if a := c.Query("amount_min"); a != "" {
		v, err := strconv.ParseInt(a, 10, 64)
		if err != nil {
			return filter, apperror.Validation(fmt.Sprintf("invalid amount_min: %s", a))
		}
		filter.AmountMin = &v
	}
	if a := c.Query("amount_max"); a != "" {
		v, err := strconv.ParseInt(a, 10, 64)
		if err != nil {
			return filter, apperror.Validation(fmt.Sprintf("invalid amount_max: %s", a))
		}
		filter.AmountMax = &v
	}
	if s := c.Query("search"); s != "" {
		filter.Search = &s
	}

	return filter, nil
}

// parsePageLimit parses page/limit with defaults. Out-of-range values fall
// back to the default rather than erroring.
func parsePageLimit(c *gin.Context) (int, int) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "10"))
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 10
	}
	return page, limit
}
