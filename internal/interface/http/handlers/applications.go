// Package handlers contains the fiber request handlers for the REST API.
// Handlers parse transport concerns and delegate to the command and query
// handlers; domain errors pass through to the shared error mapper.
package handlers

import (
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/maestros-hub/maestros-community-backend/internal/application/command"
	"github.com/maestros-hub/maestros-community-backend/internal/application/query"
	"github.com/maestros-hub/maestros-community-backend/internal/auth"
	"github.com/maestros-hub/maestros-community-backend/internal/domain/application"
)

// ══════════════════════════════════════════════════════════════════════════════
// APPLICATIONS HANDLER
// ══════════════════════════════════════════════════════════════════════════════

// ApplicationsHandler serves the applicant-facing endpoints.
type ApplicationsHandler struct {
	eligibility *query.CheckEligibilityHandler
	submit      *command.SubmitApplicationHandler
	reads       *query.ApplicationReads
}

// NewApplicationsHandler constructs the handler.
func NewApplicationsHandler(
	eligibility *query.CheckEligibilityHandler,
	submit *command.SubmitApplicationHandler,
	reads *query.ApplicationReads,
) *ApplicationsHandler {
	return &ApplicationsHandler{
		eligibility: eligibility,
		submit:      submit,
		reads:       reads,
	}
}

// Eligibility GET /applications/eligibility.
// Returns the caller's full eligibility decision. An unreachable platform
// surfaces as 503 rather than a guessed decision.
func (h *ApplicationsHandler) Eligibility(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return fiber.ErrUnauthorized
	}

	decision, err := h.eligibility.Handle(c.UserContext(), principal.UserID)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": decision})
}

// Submit POST /applications.
func (h *ApplicationsHandler) Submit(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return fiber.ErrUnauthorized
	}

	var answers map[string]any
	if err := c.BodyParser(&answers); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "malformed request body")
	}

	result, err := h.submit.Handle(c.UserContext(), command.SubmitApplicationCommand{
		ApplicantID: principal.UserID,
		RawAnswers:  answers,
	})
	if err != nil {
		return err
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"data": fiber.Map{
		"application_id": result.ApplicationID,
		"status":         application.StatusPending,
		"dm_delivered":   result.DMDelivered,
	}})
}

// Get GET /applications/:id.
// Owners see their own applications; reviewers see any.
func (h *ApplicationsHandler) Get(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return fiber.ErrUnauthorized
	}

	app, err := h.reads.GetForCaller(c.UserContext(), c.Params("id"), principal.UserID, principal.Reviewer)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": applicationDetail(app)})
}

// ListOwn GET /applications.
// Lists the caller's own applications, optionally filtered by ?status=.
func (h *ApplicationsHandler) ListOwn(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return fiber.ErrUnauthorized
	}

	var status *application.Status
	if raw := c.Query("status"); raw != "" {
		parsed := application.ParseStatus(raw)
		status = &parsed
	}

	apps, err := h.reads.ListOwn(c.UserContext(), principal.UserID, status, parseLimit(c, 50))
	if err != nil {
		return err
	}

	items := make([]fiber.Map, 0, len(apps))
	for _, app := range apps {
		items = append(items, applicationSummary(app))
	}
	return c.JSON(fiber.Map{"data": items})
}

// ══════════════════════════════════════════════════════════════════════════════
// VIEW MAPPING
// ══════════════════════════════════════════════════════════════════════════════

func applicationSummary(app *application.Application) fiber.Map {
	return fiber.Map{
		"id":           app.ID,
		"applicant_id": app.ApplicantID,
		"status":       app.Status,
		"score":        app.Score,
		"submitted_at": app.SubmittedAt,
		"reviewed_at":  app.ReviewedAt,
	}
}

func applicationDetail(app *application.Application) fiber.Map {
	detail := applicationSummary(app)
	detail["username"] = app.Username
	detail["payload"] = app.Payload
	detail["analysis"] = app.Analysis
	detail["notification_status"] = app.NotificationStatus
	if app.Status.IsTerminal() {
		detail["reviewed_by"] = app.ReviewedBy
		detail["decision_reason"] = app.DecisionReason
	}
	if app.OverrideGranted {
		detail["override"] = fiber.Map{
			"granted_by": app.OverrideGrantedBy,
			"granted_at": app.OverrideGrantedAt,
			"expires_at": app.OverrideExpiresAt,
		}
	}
	return detail
}

func parseLimit(c *fiber.Ctx, fallback int) int {
	raw := c.Query("limit")
	if raw == "" {
		return fallback
	}
	limit, err := strconv.Atoi(raw)
	if err != nil || limit <= 0 || limit > 200 {
		return fallback
	}
	return limit
}
