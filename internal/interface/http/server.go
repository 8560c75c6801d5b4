// Package http implements the REST API for the Maestros community backend.
// Every lifecycle operation the Discord interface offers is also reachable
// here, behind bearer authentication, so web tooling and the bot drive the
// same command handlers.
package http

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/maestros-hub/maestros-community-backend/internal/application/command"
	"github.com/maestros-hub/maestros-community-backend/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// SERVER CONFIGURATION
// ══════════════════════════════════════════════════════════════════════════════

// Config contains HTTP server configuration.
type Config struct {
	// Host - address to bind (default: "0.0.0.0").
	Host string

	// Port - port to listen on (default: 8080).
	Port int

	// ReadTimeout - maximum duration for reading the entire request.
	ReadTimeout time.Duration

	// WriteTimeout - maximum duration for writing the response.
	WriteTimeout time.Duration

	// RequestTimeout bounds handler execution per request.
	RequestTimeout time.Duration

	// BodyLimit - maximum request body size in bytes.
	BodyLimit int

	// RateLimitPerMinute - requests per minute per caller (0 = disabled).
	RateLimitPerMinute int
}

// DefaultConfig returns default server configuration.
func DefaultConfig() Config {
	return Config{
		Host:               "0.0.0.0",
		Port:               8080,
		ReadTimeout:        15 * time.Second,
		WriteTimeout:       15 * time.Second,
		RequestTimeout:     10 * time.Second,
		BodyLimit:          1 << 20, // 1 MB
		RateLimitPerMinute: 60,
	}
}

// Address returns the server address string.
func (c Config) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// ══════════════════════════════════════════════════════════════════════════════
// SERVER
// ══════════════════════════════════════════════════════════════════════════════

// Server wraps the fiber application.
type Server struct {
	app    *fiber.App
	config Config
	logger *zap.Logger
}

// NewServer builds the fiber app with the shared error handler installed.
// Routes are attached separately via RegisterRoutes.
func NewServer(config Config, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	logger = logger.With(zap.String("component", "http"))

	app := fiber.New(fiber.Config{
		AppName:               "maestros-community-api",
		ReadTimeout:           config.ReadTimeout,
		WriteTimeout:          config.WriteTimeout,
		BodyLimit:             config.BodyLimit,
		DisableStartupMessage: true,
		ErrorHandler:          errorHandler(logger),
	})

	return &Server{app: app, config: config, logger: logger}
}

// App exposes the underlying fiber app for route registration and tests.
func (s *Server) App() *fiber.App {
	return s.app
}

// Start listens on the configured address. It blocks until the listener
// fails or Shutdown is called.
func (s *Server) Start() error {
	s.logger.Info("http server listening", zap.String("address", s.config.Address()))
	return s.app.Listen(s.config.Address())
}

// Shutdown drains in-flight requests within the given context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("http server shutting down")
	return s.app.ShutdownWithContext(ctx)
}

// ══════════════════════════════════════════════════════════════════════════════
// ERROR MAPPING
// ══════════════════════════════════════════════════════════════════════════════

// errorHandler translates the domain error taxonomy into HTTP statuses.
// Handlers return domain errors untouched; the mapping lives here once.
func errorHandler(logger *zap.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		// Field-level validation failures carry their field map.
		var validationErr *command.ValidationError
		if errors.As(err, &validationErr) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error":  "validation_failed",
				"fields": validationErr.Fields,
			})
		}

		// Eligibility refusals carry the full decision payload so clients
		// can render the reason without a second round trip.
		var notEligible *command.NotEligibleError
		if errors.As(err, &notEligible) {
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{
				"error":    "not_eligible",
				"reason":   notEligible.Reason,
				"decision": notEligible.Decision,
			})
		}

		var fiberErr *fiber.Error
		if errors.As(err, &fiberErr) {
			return c.Status(fiberErr.Code).JSON(fiber.Map{
				"error":   "request_failed",
				"message": fiberErr.Message,
			})
		}

		status := fiber.StatusInternalServerError
		code := "internal_error"
		switch {
		case shared.IsValidation(err):
			status, code = fiber.StatusBadRequest, "validation_failed"
		case shared.IsNotFound(err):
			status, code = fiber.StatusNotFound, "not_found"
		case shared.IsConflict(err):
			status, code = fiber.StatusConflict, "conflict"
		case errors.Is(err, shared.ErrForbidden):
			status, code = fiber.StatusForbidden, "forbidden"
		case errors.Is(err, shared.ErrUnauthorized):
			status, code = fiber.StatusUnauthorized, "unauthorized"
		case errors.Is(err, shared.ErrRateLimited):
			status, code = fiber.StatusTooManyRequests, "rate_limited"
		case shared.IsUnavailable(err):
			status, code = fiber.StatusServiceUnavailable, "service_unavailable"
		}

		if status >= 500 {
			logger.Error("request failed",
				zap.String("method", c.Method()),
				zap.String("path", c.Path()),
				zap.Error(err),
			)
			// Do not leak internals on 5xx.
			return c.Status(status).JSON(fiber.Map{"error": code})
		}

		return c.Status(status).JSON(fiber.Map{
			"error":   code,
			"message": err.Error(),
		})
	}
}
