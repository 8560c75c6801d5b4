package command

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/maestros-hub/maestros-community-backend/internal/domain/application"
	"github.com/maestros-hub/maestros-community-backend/internal/domain/audit"
	"github.com/maestros-hub/maestros-community-backend/internal/domain/notification"
)

// GrantOverrideCommand lets an elevated-privilege user open an early
// reapplication window for one rejected applicant. Privilege is verified
// upstream; this handler trusts the requester identity.
type GrantOverrideCommand struct {
	ApplicantID string
	RequesterID string
}

// GrantOverrideResult reports the granted window.
type GrantOverrideResult struct {
	ApplicationID string
	ValidUntil    time.Time
}

// GrantOverrideHandler mutates the most recent rejected record of the
// applicant; the active pending record, if any, is never touched.
type GrantOverrideHandler struct {
	applications application.Repository
	dispatcher   notification.Dispatcher
	auditor      Auditor
	logger       *zap.Logger
	now          func() time.Time
}

// NewGrantOverrideHandler wires the handler.
func NewGrantOverrideHandler(
	applications application.Repository,
	dispatcher notification.Dispatcher,
	auditor Auditor,
	logger *zap.Logger,
) *GrantOverrideHandler {
	return &GrantOverrideHandler{
		applications: applications,
		dispatcher:   dispatcher,
		auditor:      auditor,
		logger:       logger.With(zap.String("component", "lifecycle.override")),
		now:          time.Now,
	}
}

// WithClock overrides the time source, for tests.
func (h *GrantOverrideHandler) WithClock(now func() time.Time) *GrantOverrideHandler {
	h.now = now
	return h
}

// Handle grants a 7-day reapply override on the applicant's most recent
// rejected application.
func (h *GrantOverrideHandler) Handle(ctx context.Context, cmd GrantOverrideCommand) (*GrantOverrideResult, error) {
	app, err := h.applications.GetLatestRejected(ctx, cmd.ApplicantID)
	if err != nil {
		return nil, err
	}

	if err := app.GrantOverride(cmd.RequesterID, h.now()); err != nil {
		return nil, err
	}

	if err := h.applications.UpdateOverride(ctx, app); err != nil {
		return nil, err
	}

	h.dispatcher.NotifyUser(ctx, cmd.ApplicantID, overrideGrantedMessage(*app.OverrideExpiresAt))

	h.auditor.Record(ctx, cmd.RequesterID, audit.ActionOverrideGranted, cmd.ApplicantID, map[string]any{
		"application_id": app.ID,
		"valid_until":    app.OverrideExpiresAt.Format(time.RFC3339),
	})

	h.logger.Info("reapply override granted",
		zap.String("application_id", app.ID),
		zap.String("applicant_id", cmd.ApplicantID),
		zap.String("granted_by", cmd.RequesterID),
		zap.Time("valid_until", *app.OverrideExpiresAt))

	return &GrantOverrideResult{
		ApplicationID: app.ID,
		ValidUntil:    *app.OverrideExpiresAt,
	}, nil
}

func overrideGrantedMessage(validUntil time.Time) notification.Message {
	msg := notification.Message{
		Title: "Early Reapplication Granted",
		Body:  "An admin has granted you permission to reapply before the 30-day cooldown!",
	}
	msg.AddField("Valid Until", validUntil.Format("2006-01-02 15:04 UTC"), false)
	msg.AddField("Next Steps", "Visit the application portal to submit your new application.", false)
	return msg
}
