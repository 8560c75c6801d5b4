// Package application contains the membership application aggregate: the
// lifecycle entity, the validated submission payload, and the scoring engine.
// The package holds pure domain logic and has no infrastructure dependencies.
package application

import (
	"strings"
	"time"
	"unicode/utf8"

	"github.com/maestros-hub/maestros-community-backend/internal/domain/shared"
)

// Status represents the lifecycle state of an application.
type Status string

const (
	// StatusPending means the application awaits a reviewer decision.
	StatusPending Status = "pending"
	// StatusApproved is the terminal accepted state.
	StatusApproved Status = "approved"
	// StatusRejected is the terminal rejected state.
	StatusRejected Status = "rejected"
)

// ParseStatus normalizes a stored status value. Historical records written by
// an earlier generation of the review endpoints used "accepted" for the
// approved terminal state; it is treated as an alias on read.
func ParseStatus(s string) Status {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "accepted", "approved":
		return StatusApproved
	case "rejected":
		return StatusRejected
	default:
		return StatusPending
	}
}

// IsTerminal reports whether the status permits no further transitions.
func (s Status) IsTerminal() bool {
	return s == StatusApproved || s == StatusRejected
}

const (
	// CooldownDays is the minimum interval between submissions from the
	// same applicant.
	CooldownDays = 30
	// OverrideDays is the validity window of a reapply override.
	OverrideDays = 7
	// MinRejectReasonLen is the minimum length of a rejection reason.
	MinRejectReasonLen = 10
)

// Cooldown is the resubmission cooldown as a duration.
const Cooldown = CooldownDays * 24 * time.Hour

// NotificationStatus records whether the best-effort direct message to the
// applicant was delivered.
type NotificationStatus string

const (
	NotificationUnsent NotificationStatus = ""
	NotificationSent   NotificationStatus = "sent"
	NotificationFailed NotificationStatus = "failed"
)

// Application is the central lifecycle entity. It is created by submission,
// mutated exactly once by a reviewer decision, and never physically deleted
// outside of an administrative purge.
type Application struct {
	ID          string
	ApplicantID string
	Username    string

	Payload Payload
	Status  Status

	// Score is computed once at submission time and is immutable afterward.
	Score    float64
	Analysis Analysis

	SubmittedAt time.Time

	// Populated only on transition out of pending.
	ReviewedAt     *time.Time
	ReviewedBy     string
	DecisionReason string

	// Override fields let a privileged user bypass the resubmission
	// cooldown for this specific applicant. Expiry is evaluated at read
	// time, never swept by a background job.
	OverrideGranted   bool
	OverrideGrantedBy string
	OverrideGrantedAt *time.Time
	OverrideExpiresAt *time.Time

	NotificationStatus NotificationStatus
}

// New creates a pending application with its score fixed at submission time.
func New(id, applicantID, username string, payload Payload, score float64, analysis Analysis, now time.Time) *Application {
	return &Application{
		ID:          id,
		ApplicantID: applicantID,
		Username:    username,
		Payload:     payload,
		Status:      StatusPending,
		Score:       score,
		Analysis:    analysis,
		SubmittedAt: now.UTC(),
	}
}

// Approve transitions pending -> approved. Any other starting state is a
// state-conflict, not a retryable condition.
func (a *Application) Approve(reviewerID, notes string, now time.Time) error {
	if a.Status != StatusPending {
		return shared.ErrNotPending
	}
	ts := now.UTC()
	a.Status = StatusApproved
	a.ReviewedAt = &ts
	a.ReviewedBy = reviewerID
	a.DecisionReason = notes
	return nil
}

// Reject transitions pending -> rejected. The reason is mandatory and must
// carry at least MinRejectReasonLen characters.
func (a *Application) Reject(reviewerID, reason string, now time.Time) error {
	if utf8.RuneCountInString(reason) < MinRejectReasonLen {
		return shared.ErrReasonTooShort
	}
	if a.Status != StatusPending {
		return shared.ErrNotPending
	}
	ts := now.UTC()
	a.Status = StatusRejected
	a.ReviewedAt = &ts
	a.ReviewedBy = reviewerID
	a.DecisionReason = reason
	return nil
}

// GrantOverride marks this record with a reapply override valid for
// OverrideDays. Overrides are only meaningful on the most recent rejected
// record of an applicant; the caller is responsible for selecting it.
func (a *Application) GrantOverride(grantedBy string, now time.Time) error {
	if a.Status != StatusRejected {
		return shared.ErrNoRejectedRecord
	}
	grantedAt := now.UTC()
	expiresAt := grantedAt.Add(OverrideDays * 24 * time.Hour)
	a.OverrideGranted = true
	a.OverrideGrantedBy = grantedBy
	a.OverrideGrantedAt = &grantedAt
	a.OverrideExpiresAt = &expiresAt
	return nil
}

// HasValidOverride reports whether a cooldown override is active at the given
// instant. An expired override no longer suppresses the cooldown rule.
func (a *Application) HasValidOverride(now time.Time) bool {
	return a.OverrideGranted && a.OverrideExpiresAt != nil && now.Before(*a.OverrideExpiresAt)
}

// InCooldown reports whether the record still blocks a new submission at the
// given instant, together with the instant the cooldown lifts.
func (a *Application) InCooldown(now time.Time) (bool, time.Time) {
	liftsAt := a.SubmittedAt.Add(Cooldown)
	if now.Before(liftsAt) && !a.HasValidOverride(now) {
		return true, liftsAt
	}
	return false, liftsAt
}

// MarkNotification records the delivery outcome of the applicant DM.
func (a *Application) MarkNotification(delivered bool) {
	if delivered {
		a.NotificationStatus = NotificationSent
		return
	}
	a.NotificationStatus = NotificationFailed
}
