package command

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/maestros-hub/maestros-community-backend/internal/application/query"
	"github.com/maestros-hub/maestros-community-backend/internal/domain/application"
	"github.com/maestros-hub/maestros-community-backend/internal/domain/audit"
	"github.com/maestros-hub/maestros-community-backend/internal/domain/member"
	"github.com/maestros-hub/maestros-community-backend/internal/domain/notification"
)

// SubmitApplicationCommand carries one submission attempt.
type SubmitApplicationCommand struct {
	// ApplicantID is the platform user ID of the caller, already
	// authenticated upstream.
	ApplicantID string

	// RawAnswers is the submitted answer set before schema validation.
	RawAnswers map[string]any
}

// SubmitApplicationResult reports the outcome of a successful submission.
type SubmitApplicationResult struct {
	ApplicationID string
	Score         float64
	Analysis      application.Analysis
	DMDelivered   bool
}

// SubmitApplicationHandler performs the submit transition: validate, gate,
// score, insert, then the best-effort fan-out.
type SubmitApplicationHandler struct {
	eligibility  *query.CheckEligibilityHandler
	applications application.Repository
	roster       member.Roster
	roles        RoleSyncer
	dispatcher   notification.Dispatcher
	auditor      Auditor
	logger       *zap.Logger
	now          func() time.Time
}

// NewSubmitApplicationHandler wires the handler.
func NewSubmitApplicationHandler(
	eligibility *query.CheckEligibilityHandler,
	applications application.Repository,
	roster member.Roster,
	roles RoleSyncer,
	dispatcher notification.Dispatcher,
	auditor Auditor,
	logger *zap.Logger,
) *SubmitApplicationHandler {
	return &SubmitApplicationHandler{
		eligibility:  eligibility,
		applications: applications,
		roster:       roster,
		roles:        roles,
		dispatcher:   dispatcher,
		auditor:      auditor,
		logger:       logger.With(zap.String("component", "lifecycle.submit")),
		now:          time.Now,
	}
}

// WithClock overrides the time source, for tests.
func (h *SubmitApplicationHandler) WithClock(now func() time.Time) *SubmitApplicationHandler {
	h.now = now
	return h
}

// Handle runs one submission. Validation failure creates no record, computes
// no score, and sends nothing. The pending-uniqueness invariant is enforced
// by the store at insert time: the eligibility read alone cannot guarantee it
// under concurrent submissions.
func (h *SubmitApplicationHandler) Handle(ctx context.Context, cmd SubmitApplicationCommand) (*SubmitApplicationResult, error) {
	payload, fieldErrs := application.ValidatePayload(cmd.RawAnswers)
	if !fieldErrs.Empty() {
		h.logger.Info("submission validation failed",
			zap.String("applicant_id", cmd.ApplicantID),
			zap.Int("error_count", len(fieldErrs)))
		return nil, &ValidationError{Fields: fieldErrs}
	}

	decision, err := h.eligibility.Handle(ctx, cmd.ApplicantID)
	if err != nil {
		return nil, err
	}
	if !decision.Eligible {
		return nil, &NotEligibleError{Decision: decision, Reason: string(decision.Reason)}
	}

	m, err := h.roster.FetchMember(ctx, cmd.ApplicantID)
	if err != nil {
		return nil, err
	}

	score, analysis := application.Score(payload)
	app := application.New(uuid.NewString(), cmd.ApplicantID, m.DisplayName, payload, score, analysis, h.now())

	if err := h.applications.Create(ctx, app); err != nil {
		// A concurrent submission may have won the race between the
		// eligibility read and this insert.
		return nil, err
	}

	h.roles.GrantPendingMarker(ctx, cmd.ApplicantID)

	dmDelivered := h.dispatcher.NotifyUser(ctx, cmd.ApplicantID, submissionReceivedMessage(app))
	app.MarkNotification(dmDelivered)
	if err := h.applications.UpdateNotificationStatus(ctx, app.ID, app.NotificationStatus); err != nil {
		h.logger.Warn("failed to persist notification status",
			zap.String("application_id", app.ID), zap.Error(err))
	}

	h.dispatcher.Announce(ctx, notification.BroadcastReviewQueue, reviewQueueMessage(app, m))

	h.auditor.Record(ctx, cmd.ApplicantID, audit.ActionApplicationSubmitted, cmd.ApplicantID, map[string]any{
		"application_id": app.ID,
		"score":          score,
		"dm_delivered":   dmDelivered,
	})

	h.logger.Info("application submitted",
		zap.String("application_id", app.ID),
		zap.String("applicant_id", cmd.ApplicantID),
		zap.Float64("score", score),
		zap.Bool("dm_delivered", dmDelivered))

	return &SubmitApplicationResult{
		ApplicationID: app.ID,
		Score:         score,
		Analysis:      analysis,
		DMDelivered:   dmDelivered,
	}, nil
}

func submissionReceivedMessage(app *application.Application) notification.Message {
	msg := notification.Message{
		Title:  "Application Received",
		Body:   "Thank you for your application to the Maestros community!",
		Footer: "You will be notified once your application is reviewed.",
	}
	msg.AddField("Application ID", shortID(app.ID), false)
	msg.AddField("Next Steps", "A Manager will review your application soon.", false)
	msg.AddField("Estimated Review Time", "24-48 hours", false)
	return msg
}

func reviewQueueMessage(app *application.Application, m *member.Member) notification.Message {
	msg := notification.Message{
		Title:  "New Application Submitted",
		Body:   fmt.Sprintf("%s has submitted a membership application", m.DisplayName),
		Footer: "Status: PENDING - review in the Manager Panel",
		Ref:    app.ID,
	}
	msg.AddField("User ID", app.ApplicantID, true)
	msg.AddField("Primary Game", app.Payload.PrimaryGame, true)
	msg.AddField("Gameplay Hours", fmt.Sprintf("%d hrs", app.Payload.GameplayHours), true)
	msg.AddField("Rank", app.Payload.Rank, true)
	msg.AddField("Availability", fmt.Sprintf("%d hrs/week", app.Payload.Availability), true)
	msg.AddField("Score", fmt.Sprintf("%.1f/100", app.Score), true)
	msg.AddField("Application ID", shortID(app.ID), true)
	msg.AddField("Experience", truncate(app.Payload.Experience, 1024), false)
	msg.AddField("Why Join", truncate(app.Payload.Reason, 1024), false)
	msg.AddField("Contribution Plans", truncate(app.Payload.Contribution, 1024), false)
	if len(app.Analysis.Strengths) > 0 {
		msg.AddField("Strengths", bulletList(app.Analysis.Strengths, 3), true)
	}
	if len(app.Analysis.Weaknesses) > 0 {
		msg.AddField("Weaknesses", bulletList(app.Analysis.Weaknesses, 3), true)
	}
	return msg
}
