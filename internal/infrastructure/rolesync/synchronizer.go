// Package rolesync keeps platform roles aligned with application lifecycle
// state. Role mutations are best-effort and idempotent: the store is the
// source of truth and a failed role write never rolls back a transition.
package rolesync

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/maestros-hub/maestros-community-backend/internal/domain/member"
	"github.com/maestros-hub/maestros-community-backend/internal/domain/shared"
)

// Synchronizer implements the lifecycle role side effects over the platform
// role manager.
type Synchronizer struct {
	roles   member.RoleManager
	roleSet member.RoleSet
	logger  *zap.Logger
}

// NewSynchronizer creates a Synchronizer.
func NewSynchronizer(roles member.RoleManager, roleSet member.RoleSet, logger *zap.Logger) *Synchronizer {
	return &Synchronizer{
		roles:   roles,
		roleSet: roleSet,
		logger:  logger.With(zap.String("component", "rolesync")),
	}
}

// GrantPendingMarker flags the applicant as having an application under
// review.
func (s *Synchronizer) GrantPendingMarker(ctx context.Context, applicantID string) {
	s.apply(ctx, "grant pending marker", applicantID, func() error {
		return s.roles.AddRole(ctx, applicantID, s.roleSet[member.RoleKindPending], "application submitted")
	})
}

// RevokePendingMarker clears the under-review flag after a decision.
func (s *Synchronizer) RevokePendingMarker(ctx context.Context, applicantID string) {
	s.apply(ctx, "revoke pending marker", applicantID, func() error {
		return s.roles.RemoveRole(ctx, applicantID, s.roleSet[member.RoleKindPending], "application decided")
	})
}

// GrantFullMember promotes an accepted applicant.
func (s *Synchronizer) GrantFullMember(ctx context.Context, applicantID string) {
	s.apply(ctx, "grant member role", applicantID, func() error {
		return s.roles.AddRole(ctx, applicantID, s.roleSet[member.RoleKindMember], "application accepted")
	})
}

// apply runs one role mutation, swallowing the expected benign outcomes: the
// user left the guild, or the role was already in the target state.
func (s *Synchronizer) apply(ctx context.Context, op, applicantID string, fn func() error) {
	err := fn()
	if err == nil {
		return
	}

	if errors.Is(err, shared.ErrNotInCommunity) {
		s.logger.Info("skipping role change, user not in community",
			zap.String("op", op), zap.String("applicant_id", applicantID))
		return
	}
	if errors.Is(err, shared.ErrRoleNotFound) {
		s.logger.Warn("role not found, check role configuration",
			zap.String("op", op), zap.String("applicant_id", applicantID))
		return
	}

	s.logger.Error("role change failed",
		zap.String("op", op),
		zap.String("applicant_id", applicantID),
		zap.Error(err))
}
