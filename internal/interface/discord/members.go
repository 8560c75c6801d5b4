package discord

import (
	"context"
	"fmt"
	"time"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"

	"github.com/maestros-hub/maestros-community-backend/internal/domain/application"
	"github.com/maestros-hub/maestros-community-backend/internal/domain/member"
	"github.com/maestros-hub/maestros-community-backend/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// MEMBERSHIP EVENTS
// ══════════════════════════════════════════════════════════════════════════════

// MemberEventsHandler keeps the membership mirror warm between scheduled
// reconcile runs.
type MemberEventsHandler struct {
	members      member.Repository
	applications application.Repository
	logger       *zap.Logger
}

// NewMemberEventsHandler constructs the handler.
func NewMemberEventsHandler(
	members member.Repository,
	applications application.Repository,
	logger *zap.Logger,
) *MemberEventsHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &MemberEventsHandler{
		members:      members,
		applications: applications,
		logger:       logger.With(zap.String("component", "discord.members")),
	}
}

// MemberJoined mirrors an arriving member.
func (h *MemberEventsHandler) MemberJoined(ctx context.Context, m *discordgo.Member) error {
	if m == nil || m.User == nil {
		return nil
	}

	mirrored := &member.Member{
		ID:           m.User.ID,
		Username:     m.User.Username,
		DisplayName:  m.DisplayName(),
		LastSyncedAt: time.Now().UTC(),
	}
	for _, r := range m.Roles {
		mirrored.Roles = append(mirrored.Roles, member.Role(r))
	}
	if !m.JoinedAt.IsZero() {
		joined := m.JoinedAt
		mirrored.JoinedAt = &joined
	}

	if err := h.members.Upsert(ctx, mirrored); err != nil {
		return fmt.Errorf("mirror join: %w", err)
	}

	h.logger.Info("member joined", zap.String("user_id", m.User.ID))
	return nil
}

// MemberLeft marks the mirrored member as departed. Leaving with a pending
// application is tolerated: the application stays reviewable and the
// decision lands in the record even if the applicant is gone.
func (h *MemberEventsHandler) MemberLeft(ctx context.Context, userID string) error {
	if err := h.members.MarkLeft(ctx, userID); err != nil && !shared.IsNotFound(err) {
		return fmt.Errorf("mirror leave: %w", err)
	}

	if pending, err := h.applications.GetPendingByApplicant(ctx, userID); err == nil {
		h.logger.Info("applicant left while pending, application stays reviewable",
			zap.String("user_id", userID),
			zap.String("application_id", pending.ID),
		)
	}

	h.logger.Info("member left", zap.String("user_id", userID))
	return nil
}
