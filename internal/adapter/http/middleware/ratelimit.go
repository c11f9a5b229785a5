package middleware

import (
	"context"
	"fmt"
	"strconv"
	"time"

	redisStore "storefront-payments/internal/adapter/storage/redis"
	"storefront-payments/pkg/apperror"
	"storefront-payments/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// RateLimitRule defines a rate limit for an endpoint group.
type RateLimitRule struct {
	Limit  int64
	Window time.Duration
}

// RateLimitChecker is satisfied by the Redis fixed-window store.
type RateLimitChecker interface {
	Allow(ctx context.Context, key string, limit int64, window time.Duration) (*redisStore.RateLimitResult, error)
}

// DefaultRateLimitRules returns the rate limits per endpoint group.
// webhookPerMinute of zero leaves the webhook endpoint unlimited.
func DefaultRateLimitRules(webhookPerMinute int64) map[string]RateLimitRule {
	rules := map[string]RateLimitRule{
		"auth_login": {Limit: 10, Window: time.Minute},
		"checkout":   {Limit: 30, Window: time.Minute},
		"orders":     {Limit: 120, Window: time.Minute},
	}
	if webhookPerMinute > 0 {
		rules["webhook"] = RateLimitRule{Limit: webhookPerMinute, Window: time.Minute}
	}
	return rules
}

// RateLimiter creates a rate-limiting middleware for a given endpoint group.
// Store errors degrade to allowing the request.
func RateLimiter(store RateLimitChecker, group string, rule RateLimitRule, log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := fmt.Sprintf("%s:%s", extractIdentifier(c), group)

		result, err := store.Allow(c.Request.Context(), key, rule.Limit, rule.Window)
		if err != nil {
			log.Warn().Err(err).Str("group", group).Msg("rate limit check failed, allowing request (degraded mode)")
			c.Next()
			return
		}

		// Always set rate limit headers
		c.Header("X-RateLimit-Limit", strconv.FormatInt(result.Limit, 10))
		c.Header("X-RateLimit-Remaining", strconv.FormatInt(result.Remaining, 10))
		c.Header("X-RateLimit-Reset", strconv.FormatInt(result.ResetAt, 10))

		if !result.Allowed {
			retryAfter := result.ResetAt - time.Now().Unix()
			if retryAfter < 1 {
				retryAfter = 1
			}
			c.Header("Retry-After", strconv.FormatInt(retryAfter, 10))
			response.Error(c, apperror.ErrRateLimitExceeded())
			c.Abort()
			return
		}

		c.Next()
	}
}

// extractIdentifier keys authenticated operators by id and everyone else by client IP.
func extractIdentifier(c *gin.Context) string {
	if id, exists := c.Get(CtxOperatorID); exists {
		return fmt.Sprintf("operator:%v", id)
	}
	return c.ClientIP()
}
