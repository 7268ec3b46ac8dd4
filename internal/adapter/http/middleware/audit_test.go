package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"fluxapay/internal/core/domain"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type captureAuditService struct {
	mu      sync.Mutex
	entries []*domain.AuditLog
}

func (s *captureAuditService) Log(_ context.Context, entry *domain.AuditLog) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = append(s.entries, entry)
}

func (s *captureAuditService) all() []*domain.AuditLog {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]*domain.AuditLog(nil), s.entries...)
}

func auditTestRouter(svc *captureAuditService, status int) *gin.Engine {
	router := gin.New()
	router.Use(AuditLog(svc))
	handler := func(c *gin.Context) { c.JSON(status, gin.H{}) }
	router.POST("/api/auth/register", handler)
	router.POST("/api/webhooks/resend", handler)
	router.POST("/api/unknown", handler)
	router.GET("/api/webhooks", handler)
	return router
}

func TestAuditLog_RecordsMappedWrites(t *testing.T) {
	svc := &captureAuditService{}
	router := auditTestRouter(svc, http.StatusOK)

	req := httptest.NewRequest(http.MethodPost, "/api/webhooks/resend", nil)
	router.ServeHTTP(httptest.NewRecorder(), req)

	entries := svc.all()
	require.Len(t, entries, 1)
	assert.Equal(t, domain.AuditActionWebhookResend, entries[0].Action)
	assert.Equal(t, "webhook_log", entries[0].ResourceType)
}

func TestAuditLog_SkipsReadsAndFailures(t *testing.T) {
	svc := &captureAuditService{}

	router := auditTestRouter(svc, http.StatusOK)
	router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/webhooks", nil))
	router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/api/unknown", nil))

	failing := auditTestRouter(svc, http.StatusBadRequest)
	failing.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/api/auth/register", nil))

	assert.Empty(t, svc.all())
}

func TestMapPathToAction(t *testing.T) {
	action, resource := mapPathToAction("/api/auth/login", "POST")
	assert.Equal(t, domain.AuditActionLogin, action)
	assert.Equal(t, "session", resource)

	action, _ = mapPathToAction("/api/payments", "GET")
	assert.Empty(t, action)
}
