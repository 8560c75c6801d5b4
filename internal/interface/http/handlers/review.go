package handlers

import (
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/maestros-hub/maestros-community-backend/internal/application/command"
	"github.com/maestros-hub/maestros-community-backend/internal/application/query"
	"github.com/maestros-hub/maestros-community-backend/internal/auth"
)

// ══════════════════════════════════════════════════════════════════════════════
// REVIEW HANDLER
// ══════════════════════════════════════════════════════════════════════════════

// ReviewHandler serves the privileged review endpoints. Route-level guards
// ensure only reviewers (and, for overrides, admins) reach these.
type ReviewHandler struct {
	reads    *query.ApplicationReads
	accept   *command.AcceptApplicationHandler
	reject   *command.RejectApplicationHandler
	override *command.GrantOverrideHandler
}

// NewReviewHandler constructs the handler.
func NewReviewHandler(
	reads *query.ApplicationReads,
	accept *command.AcceptApplicationHandler,
	reject *command.RejectApplicationHandler,
	override *command.GrantOverrideHandler,
) *ReviewHandler {
	return &ReviewHandler{
		reads:    reads,
		accept:   accept,
		reject:   reject,
		override: override,
	}
}

// ListPending GET /review/applications.
// Returns the pending queue in submission order.
func (h *ReviewHandler) ListPending(c *fiber.Ctx) error {
	limit := parseLimit(c, 25)
	offset := 0
	if raw := c.Query("offset"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 {
			offset = parsed
		}
	}

	apps, err := h.reads.ListPending(c.UserContext(), limit, offset)
	if err != nil {
		return err
	}

	items := make([]fiber.Map, 0, len(apps))
	for _, app := range apps {
		item := applicationSummary(app)
		item["username"] = app.Username
		item["analysis"] = app.Analysis
		items = append(items, item)
	}
	return c.JSON(fiber.Map{"data": items})
}

// acceptRequest is the optional body of an accept call.
type acceptRequest struct {
	Notes string `json:"notes"`
}

// Accept POST /review/applications/:id/accept.
func (h *ReviewHandler) Accept(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return fiber.ErrUnauthorized
	}

	var req acceptRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "malformed request body")
		}
	}

	result, err := h.accept.Handle(c.UserContext(), command.AcceptApplicationCommand{
		ApplicationID: c.Params("id"),
		ReviewerID:    principal.UserID,
		Notes:         req.Notes,
	})
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{"data": fiber.Map{
		"application_id": result.ApplicationID,
		"applicant_id":   result.ApplicantID,
		"dm_delivered":   result.DMDelivered,
	}})
}

// rejectRequest carries the mandatory rejection reason.
type rejectRequest struct {
	Reason string `json:"reason"`
}

// Reject POST /review/applications/:id/reject.
func (h *ReviewHandler) Reject(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return fiber.ErrUnauthorized
	}

	var req rejectRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "malformed request body")
	}

	result, err := h.reject.Handle(c.UserContext(), command.RejectApplicationCommand{
		ApplicationID: c.Params("id"),
		ReviewerID:    principal.UserID,
		Reason:        req.Reason,
	})
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{"data": fiber.Map{
		"application_id": result.ApplicationID,
		"applicant_id":   result.ApplicantID,
		"dm_delivered":   result.DMDelivered,
	}})
}

// Override POST /review/overrides/:applicantID.
// Grants a time-boxed cooldown bypass on the applicant's latest rejection.
func (h *ReviewHandler) Override(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return fiber.ErrUnauthorized
	}

	result, err := h.override.Handle(c.UserContext(), command.GrantOverrideCommand{
		ApplicantID: c.Params("applicantID"),
		RequesterID: principal.UserID,
	})
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{"data": fiber.Map{
		"application_id": result.ApplicationID,
		"valid_until":    result.ValidUntil,
	}})
}
