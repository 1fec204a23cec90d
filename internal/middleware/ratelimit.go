package middleware

import (
	"fmt"
	"strconv"
	"time"

	"github.com/abisalde/marketplace-service/internal/database"
	customErrors "github.com/abisalde/marketplace-service/internal/errors"
	"github.com/abisalde/marketplace-service/internal/metrics"
	"github.com/abisalde/marketplace-service/pkg/logger"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// RateLimiter counts requests per client IP in fixed windows.
type RateLimiter struct {
	store database.CounterStore
	ips   *ClientIPResolver
}

func NewRateLimiter(store database.CounterStore, ips *ClientIPResolver) *RateLimiter {
	return &RateLimiter{store: store, ips: ips}
}

// Limit allows limit requests per window for each client IP on the route
// named scope. Counter failures let the request through.
func (rl *RateLimiter) Limit(scope string, limit int, window time.Duration) fiber.Handler {
	return func(c *fiber.Ctx) error {
		key := fmt.Sprintf("ratelimit:%s:%s", scope, rl.ips.ClientIP(c))

		count, ttl, err := rl.store.Incr(c.UserContext(), key, window)
		if err != nil {
			logger.FromContext(c.UserContext()).Warn("rate limiter unavailable", zap.Error(err))
			return c.Next()
		}

		remaining := int64(limit) - count
		if remaining < 0 {
			remaining = 0
		}
		c.Set("X-RateLimit-Limit", strconv.Itoa(limit))
		c.Set("X-RateLimit-Remaining", strconv.FormatInt(remaining, 10))

		if count > int64(limit) {
			seconds := int(ttl.Round(time.Second).Seconds())
			if seconds < 1 {
				seconds = 1
			}
			c.Set(fiber.HeaderRetryAfter, strconv.Itoa(seconds))
			metrics.RecordRateLimited(scope)
			return customErrors.RateLimited(fmt.Sprintf("Request was throttled. Expected available in %d seconds.", seconds))
		}
		return c.Next()
	}
}
