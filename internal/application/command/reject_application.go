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

// RejectApplicationCommand carries a rejection decision. Reason is mandatory.
type RejectApplicationCommand struct {
	ApplicationID string
	ReviewerID    string
	Reason        string
}

// RejectApplicationResult reports the outcome.
type RejectApplicationResult struct {
	ApplicationID string
	ApplicantID   string
	DMDelivered   bool
}

// RejectApplicationHandler performs the pending -> rejected transition.
type RejectApplicationHandler struct {
	applications application.Repository
	roles        RoleSyncer
	dispatcher   notification.Dispatcher
	auditor      Auditor
	logger       *zap.Logger
	now          func() time.Time
}

// NewRejectApplicationHandler wires the handler.
func NewRejectApplicationHandler(
	applications application.Repository,
	roles RoleSyncer,
	dispatcher notification.Dispatcher,
	auditor Auditor,
	logger *zap.Logger,
) *RejectApplicationHandler {
	return &RejectApplicationHandler{
		applications: applications,
		roles:        roles,
		dispatcher:   dispatcher,
		auditor:      auditor,
		logger:       logger.With(zap.String("component", "lifecycle.reject")),
		now:          time.Now,
	}
}

// WithClock overrides the time source, for tests.
func (h *RejectApplicationHandler) WithClock(now func() time.Time) *RejectApplicationHandler {
	h.now = now
	return h
}

// Handle rejects a pending application. The reason length check runs before
// any state is touched; a too-short reason is a validation error with no
// side effects.
func (h *RejectApplicationHandler) Handle(ctx context.Context, cmd RejectApplicationCommand) (*RejectApplicationResult, error) {
	app, err := h.applications.GetByID(ctx, cmd.ApplicationID)
	if err != nil {
		return nil, err
	}

	if err := app.Reject(cmd.ReviewerID, cmd.Reason, h.now()); err != nil {
		return nil, err
	}

	if err := h.applications.UpdateDecision(ctx, app); err != nil {
		return nil, err
	}

	// The applicant may have left the community by now; the synchronizer
	// swallows that.
	h.roles.RevokePendingMarker(ctx, app.ApplicantID)

	dmDelivered := h.dispatcher.NotifyUser(ctx, app.ApplicantID, rejectionMessage(app, cmd.Reason))
	app.MarkNotification(dmDelivered)
	if err := h.applications.UpdateNotificationStatus(ctx, app.ID, app.NotificationStatus); err != nil {
		h.logger.Warn("failed to persist notification status",
			zap.String("application_id", app.ID), zap.Error(err))
	}

	h.dispatcher.Announce(ctx, notification.BroadcastRejectedLog, rejectedLogMessage(app, cmd.ReviewerID, cmd.Reason))

	h.auditor.Record(ctx, cmd.ReviewerID, audit.ActionApplicationRejected, app.ApplicantID, map[string]any{
		"application_id": app.ID,
		"dm_delivered":   dmDelivered,
		"reason":         truncate(cmd.Reason, 100),
	})

	h.logger.Info("application rejected",
		zap.String("application_id", app.ID),
		zap.String("applicant_id", app.ApplicantID),
		zap.String("reviewer_id", cmd.ReviewerID),
		zap.Bool("dm_delivered", dmDelivered))

	return &RejectApplicationResult{
		ApplicationID: app.ID,
		ApplicantID:   app.ApplicantID,
		DMDelivered:   dmDelivered,
	}, nil
}

func rejectionMessage(app *application.Application, reason string) notification.Message {
	reapplyAt := app.SubmittedAt.Add(application.Cooldown)

	msg := notification.Message{
		Title:  "Application Decision",
		Body:   "Thank you for your interest in the Maestros community.",
		Footer: "Thank you for your understanding",
	}
	msg.AddField("Status", "Your application has been reviewed and was not approved at this time.", false)
	msg.AddField("Feedback", reason, false)
	msg.AddField("Reapplication", fmt.Sprintf(
		"You may reapply after %d days (%s).",
		application.CooldownDays, reapplyAt.Format("2006-01-02")), false)
	return msg
}

func rejectedLogMessage(app *application.Application, reviewerID, reason string) notification.Message {
	msg := notification.Message{
		Title: "Application Rejected",
		Body:  "An application has been reviewed and rejected.",
	}
	msg.AddField("Applicant", app.Username, true)
	msg.AddField("User ID", app.ApplicantID, true)
	msg.AddField("Application ID", shortID(app.ID), true)
	msg.AddField("Rejected By", reviewerID, false)
	msg.AddField("Rejection Reason", truncate(reason, 500), false)
	return msg
}
