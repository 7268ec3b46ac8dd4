package handler

import (
	"fluxapay/internal/adapter/http/middleware"
	redisStore "fluxapay/internal/adapter/storage/redis"
	"fluxapay/internal/core/ports"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// RouterDeps holds all dependencies needed to set up routes.
type RouterDeps struct {
	AuthSvc        ports.AuthService
	PaymentSvc     ports.PaymentService
	WebhookSvc     ports.WebhookService
	TokenSvc       ports.TokenService
	RateLimitStore *redisStore.RateLimitStore // nil = rate limiting disabled
	HealthCheckers []ports.HealthChecker
	AuditSvc       ports.AuditService // nil = audit logging disabled
	Logger         zerolog.Logger
}

// SetupRouter initialises the Gin engine with all routes and middleware.
func SetupRouter(deps RouterDeps) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()

	// Global middleware
	r.Use(middleware.Recovery(deps.Logger))
	r.Use(middleware.RequestLogger(deps.Logger))
	r.Use(middleware.MaxBodySize(1 << 20)) // 1 MB request body limit

	// Audit logging (after response)
	if deps.AuditSvc != nil {
		r.Use(middleware.AuditLog(deps.AuditSvc))
	}

	// Health check (deep — verifies PostgreSQL + Redis)
	r.GET("/health", HealthCheck(deps.HealthCheckers...))

	// Rate limit rules
	rules := middleware.DefaultRateLimitRules()

	// Helper: return rate limiter middleware if store is available, else noop.
	rl := func(group string) gin.HandlerFunc {
		if deps.RateLimitStore == nil {
			return func(c *gin.Context) { c.Next() }
		}
		rule, ok := rules[group]
		if !ok {
			return func(c *gin.Context) { c.Next() }
		}
		return middleware.RateLimiter(deps.RateLimitStore, group, rule, deps.Logger)
	}

	api := r.Group("/api")

	// --- Public routes (no auth) ---
	authHandler := NewAuthHandler(deps.AuthSvc)
	auth := api.Group("/auth")
	{
		auth.POST("/register", rl("auth_register"), authHandler.Register)
		auth.POST("/login", rl("auth_login"), authHandler.Login)
	}

	// --- JWT-authenticated routes (merchant dashboard) ---
	jwtAuth := middleware.JWTAuth(deps.TokenSvc, deps.Logger)

	paymentHandler := NewPaymentHandler(deps.PaymentSvc)
	payments := api.Group("/payments", jwtAuth)
	{
		payments.GET("", rl("dashboard"), paymentHandler.List)
		// Registered before :paymentId so "export" is not captured as an ID.
		payments.GET("/export", rl("export"), paymentHandler.Export)
		payments.GET("/:paymentId", rl("dashboard"), paymentHandler.Detail)
	}

	webhookHandler := NewWebhookHandler(deps.WebhookSvc)
	webhooks := api.Group("/webhooks", jwtAuth)
	{
		webhooks.GET("", rl("dashboard"), webhookHandler.List)
		webhooks.POST("/resend", rl("webhook_actions"), webhookHandler.Resend)
		webhooks.POST("/test", rl("webhook_actions"), webhookHandler.SendTest)
	}

	return r
}
