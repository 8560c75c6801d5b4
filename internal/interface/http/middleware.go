package http

import (
	"context"
	"fmt"
	"runtime/debug"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/maestros-hub/maestros-community-backend/internal/auth"
	"github.com/maestros-hub/maestros-community-backend/internal/domain/shared"
	"github.com/maestros-hub/maestros-community-backend/internal/infrastructure/persistence/redis"
)

// RequestTimeout bounds handler execution by deadline on the user context.
func RequestTimeout(timeout time.Duration) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if timeout <= 0 {
			return c.Next()
		}
		ctx, cancel := context.WithTimeout(c.UserContext(), timeout)
		defer cancel()
		c.SetUserContext(ctx)
		return c.Next()
	}
}

// Recover converts handler panics into 500 responses instead of taking the
// process down.
func Recover(logger *zap.Logger) fiber.Handler {
	return func(c *fiber.Ctx) (err error) {
		defer func() {
			if r := recover(); r != nil {
				logger.Error("panic recovered",
					zap.Any("panic", r),
					zap.String("path", c.Path()),
					zap.ByteString("stack", debug.Stack()),
				)
				err = fiber.ErrInternalServerError
			}
		}()
		return c.Next()
	}
}

// RequestLogger emits one structured line per request.
func RequestLogger(logger *zap.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		started := time.Now()
		err := c.Next()

		fields := []zap.Field{
			zap.String("method", c.Method()),
			zap.String("path", c.Path()),
			zap.Int("status", c.Response().StatusCode()),
			zap.Duration("duration", time.Since(started)),
		}
		if principal, ok := auth.PrincipalFromContext(c); ok {
			fields = append(fields, zap.String("user_id", principal.UserID))
		}
		if err != nil {
			fields = append(fields, zap.Error(err))
		}

		logger.Info("request", fields...)
		return err
	}
}

// RateLimit enforces a fixed-window per-caller request budget backed by
// redis. The window key prefers the authenticated principal and falls back
// to the client IP for unauthenticated requests. A redis outage disables
// limiting rather than failing requests.
func RateLimit(cache *redis.Cache, perMinute int, logger *zap.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if perMinute <= 0 || cache == nil {
			return c.Next()
		}

		caller := c.IP()
		if principal, ok := auth.PrincipalFromContext(c); ok {
			caller = principal.UserID
		}

		key := fmt.Sprintf("%s%s", redis.PrefixRateLimit, caller)
		count, err := cache.IncrWithWindow(c.UserContext(), key, redis.TTLRateLimitWindow)
		if err != nil {
			logger.Warn("rate limit check failed, allowing request", zap.Error(err))
			return c.Next()
		}
		if count > int64(perMinute) {
			return shared.ErrRateLimited
		}

		return c.Next()
	}
}
