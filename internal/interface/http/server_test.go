package http

import (
	"encoding/json"
	"io"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/maestros-hub/maestros-community-backend/internal/application/command"
	"github.com/maestros-hub/maestros-community-backend/internal/domain/application"
	"github.com/maestros-hub/maestros-community-backend/internal/domain/shared"
)

// errorRoute mounts a handler that fails with err and returns the response.
func errorRoute(t *testing.T, err error) (int, map[string]any) {
	t.Helper()

	server := NewServer(DefaultConfig(), zap.NewNop())
	server.App().Get("/fail", func(c *fiber.Ctx) error {
		return err
	})

	resp, testErr := server.App().Test(httptest.NewRequest("GET", "/fail", nil))
	require.NoError(t, testErr)
	defer resp.Body.Close()

	raw, readErr := io.ReadAll(resp.Body)
	require.NoError(t, readErr)

	var body map[string]any
	require.NoError(t, json.Unmarshal(raw, &body))
	return resp.StatusCode, body
}

func TestErrorHandlerValidation(t *testing.T) {
	status, body := errorRoute(t, &command.ValidationError{
		Fields: application.FieldErrors{"motivation": "answer is required"},
	})

	assert.Equal(t, fiber.StatusBadRequest, status)
	assert.Equal(t, "validation_failed", body["error"])
	fields, ok := body["fields"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "answer is required", fields["motivation"])
}

func TestErrorHandlerNotEligible(t *testing.T) {
	status, body := errorRoute(t, &command.NotEligibleError{
		Reason: "cooldown_active",
	})

	assert.Equal(t, fiber.StatusConflict, status)
	assert.Equal(t, "not_eligible", body["error"])
	assert.Equal(t, "cooldown_active", body["reason"])
}

func TestErrorHandlerDomainTaxonomy(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"not found", shared.ErrApplicationNotFound, fiber.StatusNotFound, "not_found"},
		{"state conflict", shared.ErrNotPending, fiber.StatusConflict, "conflict"},
		{"forbidden", shared.ErrForbidden, fiber.StatusForbidden, "forbidden"},
		{"unauthorized", shared.ErrUnauthorized, fiber.StatusUnauthorized, "unauthorized"},
		{"rate limited", shared.ErrRateLimited, fiber.StatusTooManyRequests, "rate_limited"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, body := errorRoute(t, tt.err)
			assert.Equal(t, tt.status, status)
			assert.Equal(t, tt.code, body["error"])
		})
	}
}

func TestErrorHandlerHidesInternals(t *testing.T) {
	status, body := errorRoute(t, assert.AnError)

	assert.Equal(t, fiber.StatusInternalServerError, status)
	assert.Equal(t, "internal_error", body["error"])
	assert.NotContains(t, body, "message")
}

func TestErrorHandlerPassesThroughFiberErrors(t *testing.T) {
	status, body := errorRoute(t, fiber.ErrMethodNotAllowed)

	assert.Equal(t, fiber.StatusMethodNotAllowed, status)
	assert.Equal(t, "request_failed", body["error"])
}
