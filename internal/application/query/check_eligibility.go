// Package query contains read operations (CQRS - Queries).
package query

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/maestros-hub/maestros-community-backend/internal/domain/application"
	"github.com/maestros-hub/maestros-community-backend/internal/domain/member"
	"github.com/maestros-hub/maestros-community-backend/internal/domain/shared"
	"github.com/maestros-hub/maestros-community-backend/pkg/timeutil"
)

// IneligibilityReason names why a submission is currently blocked.
type IneligibilityReason string

const (
	ReasonNotInCommunity IneligibilityReason = "NOT_IN_COMMUNITY"
	ReasonAlreadyMember  IneligibilityReason = "ALREADY_MEMBER"
	ReasonPending        IneligibilityReason = "PENDING"
	ReasonCooldown       IneligibilityReason = "COOLDOWN"
)

// EligibilityAction tells the frontend what the applicant should do next.
type EligibilityAction string

const (
	ActionJoinCommunity EligibilityAction = "JOIN_COMMUNITY"
	ActionApply         EligibilityAction = "APPLY"
	ActionWait          EligibilityAction = "WAIT"
	ActionNone          EligibilityAction = "NONE"
)

// EligibilityDecision is the full decision object returned to callers.
type EligibilityDecision struct {
	Eligible bool                `json:"eligible"`
	Reason   IneligibilityReason `json:"reason,omitempty"`
	Message  string              `json:"message"`
	Action   EligibilityAction   `json:"action"`

	// Populated per reason.
	InviteURL     string     `json:"invite_url,omitempty"`
	EstimatedTime string     `json:"estimated_time,omitempty"`
	DaysRemaining int        `json:"days_remaining,omitempty"`
	CanApplyAfter *time.Time `json:"can_apply_after,omitempty"`
}

// CheckEligibilityHandler runs the ordered eligibility checks. The ordering
// matters: membership and role-flag checks are cheap platform reads, the
// cooldown check needs a historical store query and runs last.
type CheckEligibilityHandler struct {
	roster       member.Roster
	roles        member.RoleManager
	applications application.Repository
	roleSet      member.RoleSet
	inviteURL    string
	logger       *zap.Logger
	now          func() time.Time
}

// NewCheckEligibilityHandler wires the handler.
func NewCheckEligibilityHandler(
	roster member.Roster,
	roles member.RoleManager,
	applications application.Repository,
	roleSet member.RoleSet,
	inviteURL string,
	logger *zap.Logger,
) *CheckEligibilityHandler {
	return &CheckEligibilityHandler{
		roster:       roster,
		roles:        roles,
		applications: applications,
		roleSet:      roleSet,
		inviteURL:    inviteURL,
		logger:       logger.With(zap.String("component", "eligibility")),
		now:          time.Now,
	}
}

// WithClock overrides the time source, for tests.
func (h *CheckEligibilityHandler) WithClock(now func() time.Time) *CheckEligibilityHandler {
	h.now = now
	return h
}

// Handle evaluates eligibility for one applicant. This query depends entirely
// on live platform data: when the platform is unreachable it fails closed
// with shared.ErrPlatformUnavailable rather than guessing.
func (h *CheckEligibilityHandler) Handle(ctx context.Context, applicantID string) (*EligibilityDecision, error) {
	m, err := h.roster.FetchMember(ctx, applicantID)
	if err != nil {
		if errors.Is(err, shared.ErrNotInCommunity) {
			return &EligibilityDecision{
				Eligible:  false,
				Reason:    ReasonNotInCommunity,
				Message:   "You must be a member of the community server to apply.",
				Action:    ActionJoinCommunity,
				InviteURL: h.inviteURL,
			}, nil
		}
		return nil, shared.WrapError("application", "CheckEligibility", shared.ErrServiceUnavailable,
			"live membership data unavailable", err)
	}

	if m.HasRole(h.roleSet[member.RoleKindMember]) {
		return &EligibilityDecision{
			Eligible: false,
			Reason:   ReasonAlreadyMember,
			Message:  "You are already a community member.",
			Action:   ActionNone,
		}, nil
	}

	if m.HasRole(h.roleSet[member.RoleKindPending]) {
		if decision, handled := h.checkPendingFlag(ctx, applicantID); handled {
			return decision, nil
		}
		// Orphaned flag: fall through to the cooldown check as if the
		// role were absent.
	}

	decision, err := h.checkCooldown(ctx, applicantID)
	if err != nil {
		return nil, err
	}
	if decision != nil {
		return decision, nil
	}

	return &EligibilityDecision{
		Eligible: true,
		Message:  "You are eligible to submit an application.",
		Action:   ActionApply,
	}, nil
}

// checkPendingFlag resolves the pending-marker role against the store. A flag
// with no matching pending record is orphaned: it gets revoked (best-effort)
// and the evaluation continues.
func (h *CheckEligibilityHandler) checkPendingFlag(ctx context.Context, applicantID string) (*EligibilityDecision, bool) {
	_, err := h.applications.GetPendingByApplicant(ctx, applicantID)
	if err == nil {
		return &EligibilityDecision{
			Eligible:      false,
			Reason:        ReasonPending,
			Message:       "Your application is under review. Contact a Manager for updates.",
			Action:        ActionWait,
			EstimatedTime: "24-48 hours",
		}, true
	}

	if !shared.IsNotFound(err) {
		h.logger.Error("pending lookup failed, treating flag as valid",
			zap.String("applicant_id", applicantID), zap.Error(err))
		return &EligibilityDecision{
			Eligible:      false,
			Reason:        ReasonPending,
			Message:       "Your application is under review. Contact a Manager for updates.",
			Action:        ActionWait,
			EstimatedTime: "24-48 hours",
		}, true
	}

	// Role present, no pending record. Revoke the stale marker; a failed
	// revoke only leaves the cosmetic role in place.
	if revokeErr := h.roles.RemoveRole(ctx, applicantID, h.roleSet[member.RoleKindPending], "no pending application found"); revokeErr != nil {
		h.logger.Warn("failed to revoke orphaned pending role",
			zap.String("applicant_id", applicantID), zap.Error(revokeErr))
	} else {
		h.logger.Info("revoked orphaned pending role", zap.String("applicant_id", applicantID))
	}
	return nil, false
}

// checkCooldown inspects the most recent application of any status. Override
// validity is evaluated here, at read time; nothing sweeps expired overrides.
func (h *CheckEligibilityHandler) checkCooldown(ctx context.Context, applicantID string) (*EligibilityDecision, error) {
	last, err := h.applications.GetLatestByApplicant(ctx, applicantID)
	if err != nil {
		if shared.IsNotFound(err) {
			return nil, nil
		}
		// Fail closed: a mid-cooldown applicant must not slip through on
		// a transient store error.
		h.logger.Error("cooldown lookup failed",
			zap.String("applicant_id", applicantID), zap.Error(err))
		return nil, shared.WrapError("application", "CheckEligibility", shared.ErrServiceUnavailable,
			"application history unavailable", err)
	}

	now := h.now().UTC()
	blocked, liftsAt := last.InCooldown(now)
	if !blocked {
		return nil, nil
	}

	daysLeft := timeutil.DaysUntilCeil(now, liftsAt)
	return &EligibilityDecision{
		Eligible: false,
		Reason:   ReasonCooldown,
		Message: fmt.Sprintf(
			"You can apply only once every %d days. Wait %d days or ask an admin for an early reapplication override.",
			application.CooldownDays, daysLeft),
		Action:        ActionWait,
		DaysRemaining: daysLeft,
		CanApplyAfter: &liftsAt,
	}, nil
}
