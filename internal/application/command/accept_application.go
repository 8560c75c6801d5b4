package command

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/maestros-hub/maestros-community-backend/internal/domain/application"
	"github.com/maestros-hub/maestros-community-backend/internal/domain/audit"
	"github.com/maestros-hub/maestros-community-backend/internal/domain/notification"
)

// DefaultAcceptanceNotes is used when the reviewer leaves the notes empty.
const DefaultAcceptanceNotes = "Welcome to Maestros!"

// AcceptApplicationCommand carries an acceptance decision.
type AcceptApplicationCommand struct {
	ApplicationID string
	ReviewerID    string
	Notes         string
}

// AcceptApplicationResult reports the outcome.
type AcceptApplicationResult struct {
	ApplicationID string
	ApplicantID   string
	DMDelivered   bool
}

// AcceptApplicationHandler performs the pending -> approved transition.
type AcceptApplicationHandler struct {
	applications application.Repository
	roles        RoleSyncer
	dispatcher   notification.Dispatcher
	auditor      Auditor
	logger       *zap.Logger
	now          func() time.Time
}

// NewAcceptApplicationHandler wires the handler.
func NewAcceptApplicationHandler(
	applications application.Repository,
	roles RoleSyncer,
	dispatcher notification.Dispatcher,
	auditor Auditor,
	logger *zap.Logger,
) *AcceptApplicationHandler {
	return &AcceptApplicationHandler{
		applications: applications,
		roles:        roles,
		dispatcher:   dispatcher,
		auditor:      auditor,
		logger:       logger.With(zap.String("component", "lifecycle.accept")),
		now:          time.Now,
	}
}

// WithClock overrides the time source, for tests.
func (h *AcceptApplicationHandler) WithClock(now func() time.Time) *AcceptApplicationHandler {
	h.now = now
	return h
}

// Handle accepts a pending application. The store update is the authoritative
// transition; role and notification side effects run after it and never roll
// it back.
func (h *AcceptApplicationHandler) Handle(ctx context.Context, cmd AcceptApplicationCommand) (*AcceptApplicationResult, error) {
	app, err := h.applications.GetByID(ctx, cmd.ApplicationID)
	if err != nil {
		return nil, err
	}

	notes := cmd.Notes
	if notes == "" {
		notes = DefaultAcceptanceNotes
	}

	if err := app.Approve(cmd.ReviewerID, notes, h.now()); err != nil {
		return nil, err
	}

	// Guarded by status='pending' in the store: a concurrent decision on
	// the same record surfaces here as a conflict, not a double write.
	if err := h.applications.UpdateDecision(ctx, app); err != nil {
		return nil, err
	}

	h.roles.RevokePendingMarker(ctx, app.ApplicantID)
	h.roles.GrantFullMember(ctx, app.ApplicantID)

	dmDelivered := h.dispatcher.NotifyUser(ctx, app.ApplicantID, acceptanceMessage(notes))
	app.MarkNotification(dmDelivered)
	if err := h.applications.UpdateNotificationStatus(ctx, app.ID, app.NotificationStatus); err != nil {
		h.logger.Warn("failed to persist notification status",
			zap.String("application_id", app.ID), zap.Error(err))
	}

	h.dispatcher.Announce(ctx, notification.BroadcastAcceptedLog, acceptedLogMessage(app, cmd.ReviewerID, notes))

	h.auditor.Record(ctx, cmd.ReviewerID, audit.ActionApplicationApproved, app.ApplicantID, map[string]any{
		"application_id": app.ID,
		"dm_delivered":   dmDelivered,
	})

	h.logger.Info("application approved",
		zap.String("application_id", app.ID),
		zap.String("applicant_id", app.ApplicantID),
		zap.String("reviewer_id", cmd.ReviewerID),
		zap.Bool("dm_delivered", dmDelivered))

	return &AcceptApplicationResult{
		ApplicationID: app.ID,
		ApplicantID:   app.ApplicantID,
		DMDelivered:   dmDelivered,
	}, nil
}

func acceptanceMessage(notes string) notification.Message {
	msg := notification.Message{
		Title:  "Application Accepted!",
		Body:   "Congratulations! Your application has been approved.",
		Footer: "Welcome to the Maestros community!",
	}
	msg.AddField("Welcome Message", notes, false)
	msg.AddField("Next Steps", "You now have full access to the community!", false)
	return msg
}

func acceptedLogMessage(app *application.Application, reviewerID, notes string) notification.Message {
	msg := notification.Message{
		Title: "Application Accepted",
		Body:  fmt.Sprintf("Welcome to our server, %s!", app.Username),
	}
	msg.AddField("Applicant", app.Username, true)
	msg.AddField("User ID", app.ApplicantID, true)
	msg.AddField("Application ID", shortID(app.ID), true)
	msg.AddField("Accepted By", reviewerID, false)
	msg.AddField("Acceptance Notes", truncate(notes, 500), false)
	return msg
}
