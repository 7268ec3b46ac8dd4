package handler

import (
	"fmt"

	"fluxapay/internal/adapter/http/dto"
	"fluxapay/internal/adapter/http/middleware"
	"fluxapay/internal/core/domain"
	"fluxapay/internal/core/ports"
	"fluxapay/pkg/apperror"
	"fluxapay/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// WebhookHandler serves the webhook delivery-log endpoints.
type WebhookHandler struct {
	webhookSvc ports.WebhookService
}

// NewWebhookHandler creates a new WebhookHandler.
func NewWebhookHandler(webhookSvc ports.WebhookService) *WebhookHandler {
	return &WebhookHandler{webhookSvc: webhookSvc}
}

// List handles GET /api/webhooks. Ordering is fixed: newest first.
func (h *WebhookHandler) List(c *gin.Context) {
	merchantID, ok := c.Get(middleware.CtxMerchantID)
	if !ok {
		response.Error(c, apperror.ErrUnauthorized())
		return
	}

	params := ports.WebhookListParams{MerchantID: merchantID.(uuid.UUID)}

	// "all" is the frontend's cleared-filter sentinel, same as absent.
	if s := c.Query("status"); s != "" && s != "all" {
		status := domain.WebhookStatus(s)
		if !status.IsValid() {
			response.Error(c, apperror.Validation(fmt.Sprintf("invalid status: %s", s)))
			return
		}
		params.Status = &status
	}
	if et := c.Query("eventType"); et != "" && et != "all" {
		params.EventType = &et
	}
	if s := c.Query("search"); s != "" {
		params.Search = &s
	}
	params.Page, params.Limit = parsePageLimit(c)

	logs, total, err := h.webhookSvc.List(c.Request.Context(), params)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, dto.WebhookListResponse{
		Logs:       dto.FromWebhookLogs(logs),
		Pagination: dto.NewPagination(params.Page, params.Limit, total),
	})
}

// Resend handles POST /api/webhooks/resend.
func (h *WebhookHandler) Resend(c *gin.Context) {
	merchantID, ok := c.Get(middleware.CtxMerchantID)
	if !ok {
		response.Error(c, apperror.ErrUnauthorized())
		return
	}

	var req dto.ResendWebhookRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}

	log, err := h.webhookSvc.Resend(c.Request.Context(), merchantID.(uuid.UUID), req.ID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, dto.WebhookActionResponse{
		Message: "Webhook retry triggered",
		Log:     dto.FromWebhookLog(log),
	})
}

// SendTest handles POST /api/webhooks/test.
func (h *WebhookHandler) SendTest(c *gin.Context) {
	merchantID, ok := c.Get(middleware.CtxMerchantID)
	if !ok {
		response.Error(c, apperror.ErrUnauthorized())
		return
	}

	var req dto.TestWebhookRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}

	log, err := h.webhookSvc.SendTest(c.Request.Context(), merchantID.(uuid.UUID), req.EventType, req.URL)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, dto.WebhookActionResponse{
		Message: "Test webhook sent successfully",
		Log:     dto.FromWebhookLog(log),
	})
}
