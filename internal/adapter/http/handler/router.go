package handler

import (
	"net/http"

	"storefront-payments/internal/adapter/http/middleware"
	"storefront-payments/internal/core/ports"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// RouterDeps holds all dependencies needed to set up routes.
type RouterDeps struct {
	WebhookSvc       ports.WebhookService
	CheckoutSvc      ports.CheckoutService
	OrderSvc         ports.OrderQueryService
	AuthSvc          ports.AuthService
	TokenSvc         ports.TokenService
	RateLimitStore   middleware.RateLimitChecker // nil = rate limiting disabled
	HealthCheckers   []ports.HealthChecker
	MetricsHandler   http.Handler // nil = /metrics not exposed
	Checkout         CheckoutOptions
	MaxBodyBytes     int64
	WebhookRateLimit int64 // deliveries per minute per client IP, 0 = unlimited
	Logger           zerolog.Logger
}

// SetupRouter initialises the Gin engine with all routes and middleware.
func SetupRouter(deps RouterDeps) *gin.Engine {
	r := gin.New()

	// Global middleware
	r.Use(middleware.RequestID())
	r.Use(middleware.Recovery(deps.Logger))
	r.Use(middleware.RequestLogger(deps.Logger))
	r.Use(middleware.MaxBodySize(deps.MaxBodyBytes))

	// Health check (deep: verifies PostgreSQL + Redis)
	r.GET("/health", HealthCheck(deps.HealthCheckers...))
	if deps.MetricsHandler != nil {
		r.GET("/metrics", gin.WrapH(deps.MetricsHandler))
	}

	rules := middleware.DefaultRateLimitRules(deps.WebhookRateLimit)

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

	// --- Gateway webhooks ---
	webhookHandler := NewWebhookHandler(deps.WebhookSvc, deps.Logger)
	r.POST("/payments/webhookhandler", rl("webhook"), webhookHandler.Handle)

	// --- Storefront checkout callbacks ---
	checkoutHandler := NewCheckoutHandler(deps.CheckoutSvc, deps.Checkout, deps.Logger)
	paypal := r.Group("/paypal", rl("checkout"))
	{
		paypal.POST("/init-transaction", checkoutHandler.InitTransaction)
		paypal.GET("/redirection-success", checkoutHandler.RedirectionSuccess)
		paypal.GET("/redirection-cancel", checkoutHandler.RedirectionCancel)
	}

	// API v1 routes
	v1 := r.Group("/api/v1")

	authHandler := NewAuthHandler(deps.AuthSvc)
	v1.POST("/auth/login", rl("auth_login"), authHandler.Login)

	// --- JWT-authenticated operator routes ---
	jwtAuth := middleware.JWTAuth(deps.TokenSvc, deps.Logger)
	orderHandler := NewOrderHandler(deps.OrderSvc)
	orders := v1.Group("/orders", jwtAuth)
	{
		orders.GET("/:guid", rl("orders"), orderHandler.GetOrder)
	}

	return r
}
