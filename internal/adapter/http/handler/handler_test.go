package handler

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"fluxapay/internal/adapter/http/dto"
	"fluxapay/internal/adapter/http/middleware"
	"fluxapay/internal/core/domain"
	"fluxapay/internal/core/ports"
	"fluxapay/internal/core/ports/mocks"
	"fluxapay/pkg/apperror"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// withMerchant injects an authenticated merchant, standing in for JWTAuth.
func withMerchant(merchantID uuid.UUID) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(middleware.CtxMerchantID, merchantID)
		c.Next()
	}
}

// --- Auth Handler Tests ---

func TestRegister_Success(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockAuth := mocks.NewMockAuthService(ctrl)
	h := NewAuthHandler(mockAuth)

	merchantID := uuid.New()
	mockAuth.EXPECT().Register(gomock.Any(), ports.RegisterRequest{
		Username:     "testuser",
		Password:     "password123",
		MerchantName: "Test Shop",
	}).Return(&ports.RegisterResponse{MerchantID: merchantID}, nil)

	body, _ := json.Marshal(dto.RegisterRequest{
		Username:     "testuser",
		Password:     "password123",
		MerchantName: "Test Shop",
	})

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodPost, "/api/auth/register", bytes.NewReader(body))
	c.Request.Header.Set("Content-Type", "application/json")

	h.Register(c)

	assert.Equal(t, http.StatusCreated, w.Code)
	var resp map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, merchantID.String(), resp["merchant_id"])
}

func TestRegister_ValidationError(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	h := NewAuthHandler(mocks.NewMockAuthService(ctrl))

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodPost, "/api/auth/register", bytes.NewReader([]byte("{}")))
	c.Request.Header.Set("Content-Type", "application/json")

	h.Register(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRegister_UsernameConflict(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockAuth := mocks.NewMockAuthService(ctrl)
	h := NewAuthHandler(mockAuth)

	mockAuth.EXPECT().Register(gomock.Any(), gomock.Any()).Return(nil, apperror.ErrUsernameExists())

	body, _ := json.Marshal(dto.RegisterRequest{
		Username:     "taken",
		Password:     "password123",
		MerchantName: "Test Shop",
	})

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodPost, "/api/auth/register", bytes.NewReader(body))
	c.Request.Header.Set("Content-Type", "application/json")

	h.Register(c)

	assert.Equal(t, http.StatusConflict, w.Code)
	assert.JSONEq(t, `{"message":"Username already exists"}`, w.Body.String())
}

func TestLogin_Success(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockAuth := mocks.NewMockAuthService(ctrl)
	h := NewAuthHandler(mockAuth)

	expiry := time.Now().Add(24 * time.Hour)
	mockAuth.EXPECT().Login(gomock.Any(), "testuser", "password123").Return("jwt-token", expiry, nil)

	body, _ := json.Marshal(dto.LoginRequest{Username: "testuser", Password: "password123"})

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodPost, "/api/auth/login", bytes.NewReader(body))
	c.Request.Header.Set("Content-Type", "application/json")

	h.Login(c)

	assert.Equal(t, http.StatusOK, w.Code)
	var resp dto.LoginResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "jwt-token", resp.Token)
	assert.Equal(t, expiry.Unix(), resp.Expiry)
}

func TestLogin_BadCredentials(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockAuth := mocks.NewMockAuthService(ctrl)
	h := NewAuthHandler(mockAuth)

	mockAuth.EXPECT().Login(gomock.Any(), "testuser", "wrong").
		Return("", time.Time{}, apperror.ErrInvalidCredentials())

	body, _ := json.Marshal(dto.LoginRequest{Username: "testuser", Password: "wrong"})

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodPost, "/api/auth/login", bytes.NewReader(body))
	c.Request.Header.Set("Content-Type", "application/json")

	h.Login(c)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

// --- Payment Handler Tests ---

func paymentTestRouter(svc ports.PaymentService, merchantID uuid.UUID) *gin.Engine {
	h := NewPaymentHandler(svc)
	router := gin.New()
	g := router.Group("/api/payments", withMerchant(merchantID))
	g.GET("", h.List)
	g.GET("/export", h.Export)
	g.GET("/:paymentId", h.Detail)
	return router
}

func TestPaymentList_DefaultsAndEnvelope(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	merchantID := uuid.New()
	svc := mocks.NewMockPaymentService(ctrl)

	svc.EXPECT().List(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ any, params ports.PaymentListParams) ([]domain.Payment, int64, error) {
			assert.Equal(t, merchantID, params.MerchantID)
			assert.Equal(t, ports.PaymentSortDate, params.SortBy)
			assert.Equal(t, ports.SortDesc, params.Order)
			assert.Equal(t, 1, params.Page)
			assert.Equal(t, 10, params.Limit)
			assert.Nil(t, params.Status)
			assert.Nil(t, params.Search)
			return []domain.Payment{{
				ID:         "pm_1",
				MerchantID: merchantID,
				PaymentID:  "pay_1",
				OrderID:    "ord_1",
				Amount:     5000,
				Currency:   "USD",
				Status:     domain.PaymentStatusCompleted,
				CreatedAt:  time.Now().UTC(),
			}}, 25, nil
		})

	router := paymentTestRouter(svc, merchantID)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/payments", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	var resp dto.PaymentListResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Data, 1)
	assert.Equal(t, "pay_1", resp.Data[0].PaymentID)
	assert.Equal(t, int64(25), resp.Pagination.Total)
	assert.Equal(t, 3, resp.Pagination.TotalPages)
}

func TestPaymentList_FiltersParsed(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	merchantID := uuid.New()
	svc := mocks.NewMockPaymentService(ctrl)

	svc.EXPECT().List(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ any, params ports.PaymentListParams) ([]domain.Payment, int64, error) {
			require.NotNil(t, params.Status)
			assert.Equal(t, domain.PaymentStatusFailed, *params.Status)
			require.NotNil(t, params.Currency)
			assert.Equal(t, "EUR", *params.Currency)
			require.NotNil(t, params.DateFrom)
			assert.Equal(t, 2026, params.DateFrom.Year())
			require.NotNil(t, params.AmountMin)
			assert.Equal(t, int64(100), *params.AmountMin)
			require.NotNil(t, params.Search)
			assert.Equal(t, "ord_9", *params.Search)
			assert.Equal(t, ports.PaymentSortAmount, params.SortBy)
			assert.Equal(t, ports.SortAsc, params.Order)
			assert.Equal(t, 3, params.Page)
			assert.Equal(t, 50, params.Limit)
			return nil, 0, nil
		})

	url := "/api/payments?status=failed&currency=EUR&date_from=2026-01-01T00:00:00Z" +
		"&amount_min=100&search=ord_9&sort_by=amount&order=asc&page=3&limit=50"

	router := paymentTestRouter(svc, merchantID)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, url, nil))

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestPaymentList_BadQueryValues(t *testing.T) {
	tests := []struct {
		name  string
		query string
	}{
		{"unknown status", "status=exploded"},
		{"malformed date", "date_from=yesterday"},
		{"non-numeric amount", "amount_max=lots"},
		{"unknown sort field", "sort_by=chaos"},
		{"unknown order", "order=sideways"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			// The service must never see a malformed filter.
			svc := mocks.NewMockPaymentService(ctrl)
			router := paymentTestRouter(svc, uuid.New())

			w := httptest.NewRecorder()
			router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/payments?"+tt.query, nil))
			assert.Equal(t, http.StatusBadRequest, w.Code)
		})
	}
}

func TestPaymentDetail_NotFound(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	merchantID := uuid.New()
	svc := mocks.NewMockPaymentService(ctrl)
	svc.EXPECT().Get(gomock.Any(), merchantID, "pm_ghost").Return(nil, apperror.ErrNotFound("Payment"))

	router := paymentTestRouter(svc, merchantID)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/payments/pm_ghost", nil))

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.JSONEq(t, `{"message":"Payment not found"}`, w.Body.String())
}

func TestPaymentExport(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	merchantID := uuid.New()
	svc := mocks.NewMockPaymentService(ctrl)
	svc.EXPECT().ExportCSV(gomock.Any(), ports.PaymentFilter{MerchantID: merchantID}).
		Return("Payment ID,Order ID\npay_1,ord_1", nil)

	router := paymentTestRouter(svc, merchantID)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/payments/export", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Type"), "text/csv")

	wantName := fmt.Sprintf("payments-export-%s.csv", time.Now().UTC().Format("2006-01-02"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), wantName)
	assert.Equal(t, "Payment ID,Order ID\npay_1,ord_1", w.Body.String())
}

// --- Webhook Handler Tests ---

func webhookTestRouter(svc ports.WebhookService, merchantID uuid.UUID) *gin.Engine {
	h := NewWebhookHandler(svc)
	router := gin.New()
	g := router.Group("/api/webhooks", withMerchant(merchantID))
	g.GET("", h.List)
	g.POST("/resend", h.Resend)
	g.POST("/test", h.SendTest)
	return router
}

func TestWebhookList_AllSentinelDropsFilters(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	merchantID := uuid.New()
	svc := mocks.NewMockWebhookService(ctrl)

	svc.EXPECT().List(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ any, params ports.WebhookListParams) ([]domain.WebhookLog, int64, error) {
			assert.Nil(t, params.Status)
			assert.Nil(t, params.EventType)
			return nil, 0, nil
		})

	router := webhookTestRouter(svc, merchantID)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/webhooks?status=all&eventType=all", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	var resp dto.WebhookListResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.NotNil(t, resp.Logs)
	assert.Empty(t, resp.Logs)
}

func TestWebhookList_InvalidStatus(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	svc := mocks.NewMockWebhookService(ctrl)
	router := webhookTestRouter(svc, uuid.New())

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/webhooks?status=exploded", nil))

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestWebhookResend_Success(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	merchantID := uuid.New()
	svc := mocks.NewMockWebhookService(ctrl)

	now := time.Now().UTC()
	svc.EXPECT().Resend(gomock.Any(), merchantID, "wh_1234567890").Return(&domain.WebhookLog{
		ID:          "wh_1234567890",
		MerchantID:  merchantID,
		EventType:   "payment.succeeded",
		URL:         "https://example.com",
		Status:      domain.WebhookStatusPending,
		Payload:     []byte(`{}`),
		Attempts:    4,
		CreatedAt:   now,
		LastAttempt: &now,
	}, nil)

	router := webhookTestRouter(svc, merchantID)
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/webhooks/resend",
		bytes.NewBufferString(`{"id":"wh_1234567890"}`))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	var resp dto.WebhookActionResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "Webhook retry triggered", resp.Message)
	assert.Equal(t, "pending", resp.Log.Status)
	assert.Equal(t, 4, resp.Log.Attempts)
}

func TestWebhookResend_MissingID(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	svc := mocks.NewMockWebhookService(ctrl)
	router := webhookTestRouter(svc, uuid.New())

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/webhooks/resend", bytes.NewBufferString(`{}`))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestWebhookSendTest_Success(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	merchantID := uuid.New()
	svc := mocks.NewMockWebhookService(ctrl)

	now := time.Now().UTC()
	svc.EXPECT().SendTest(gomock.Any(), merchantID, "payment.succeeded", "https://example.com/hook").
		Return(&domain.WebhookLog{
			ID:          "wh_testlog",
			MerchantID:  merchantID,
			EventType:   "payment.succeeded",
			URL:         "https://example.com/hook",
			Status:      domain.WebhookStatusSuccess,
			Payload:     []byte(`{"id":"evt_x"}`),
			Response:    &domain.WebhookResponse{Status: 200, Body: `{"received": true}`},
			Attempts:    1,
			CreatedAt:   now,
			LastAttempt: &now,
		}, nil)

	router := webhookTestRouter(svc, merchantID)
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/webhooks/test",
		bytes.NewBufferString(`{"eventType":"payment.succeeded","url":"https://example.com/hook"}`))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	var resp dto.WebhookActionResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "Test webhook sent successfully", resp.Message)
	assert.Equal(t, "success", resp.Log.Status)
	assert.Equal(t, 1, resp.Log.Attempts)
	require.NotNil(t, resp.Log.Response)
	assert.Equal(t, 200, resp.Log.Response.Status)
}

func TestWebhookSendTest_RejectsNonHTTPURL(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	svc := mocks.NewMockWebhookService(ctrl)
	router := webhookTestRouter(svc, uuid.New())

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/webhooks/test",
		bytes.NewBufferString(`{"eventType":"payment.succeeded","url":"ftp://example.com"}`))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}
