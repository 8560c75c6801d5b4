// Package discord implements the Discord platform adapter. It wraps a
// discordgo session behind the domain ports: live roster reads, role
// mutations, and message delivery. The guild is the single source of truth
// for membership; this package never caches roster answers.
package discord

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"

	"github.com/maestros-hub/maestros-community-backend/internal/domain/member"
	"github.com/maestros-hub/maestros-community-backend/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// CONFIGURATION
// ══════════════════════════════════════════════════════════════════════════════

// ClientConfig contains configuration for the Discord client.
type ClientConfig struct {
	// Token is the bot token.
	Token string

	// GuildID is the community guild the backend manages.
	GuildID string

	// RequestTimeout bounds every REST call.
	RequestTimeout time.Duration

	// MemberPageSize is the page size for roster listing (Discord caps
	// this at 1000).
	MemberPageSize int
}

// DefaultClientConfig returns sensible defaults.
func DefaultClientConfig(token, guildID string) ClientConfig {
	return ClientConfig{
		Token:          token,
		GuildID:        guildID,
		RequestTimeout: 15 * time.Second,
		MemberPageSize: 1000,
	}
}

// ══════════════════════════════════════════════════════════════════════════════
// CLIENT
// ══════════════════════════════════════════════════════════════════════════════

// Client adapts a discordgo session to the member domain ports. It
// implements member.Roster and member.RoleManager.
type Client struct {
	session *discordgo.Session
	config  ClientConfig
	logger  *zap.Logger
}

// NewClient creates a Client on top of an already-opened session. The caller
// owns the session lifecycle; the API process uses a session that never
// opens a gateway connection, the bot process shares its gateway session.
func NewClient(session *discordgo.Session, config ClientConfig, logger *zap.Logger) *Client {
	if config.MemberPageSize <= 0 || config.MemberPageSize > 1000 {
		config.MemberPageSize = 1000
	}
	if config.RequestTimeout <= 0 {
		config.RequestTimeout = 15 * time.Second
	}
	if session.Client != nil {
		session.Client.Timeout = config.RequestTimeout
	}
	return &Client{
		session: session,
		config:  config,
		logger:  logger.With(zap.String("component", "discord.client")),
	}
}

// Session returns the underlying session for gateway wiring.
func (c *Client) Session() *discordgo.Session {
	return c.session
}

// ─────────────────────────────────────────────────────────────────────────────
// Roster
// ─────────────────────────────────────────────────────────────────────────────

// FetchMember returns the live guild member, or shared.ErrNotInCommunity
// when the user is not in the guild.
func (c *Client) FetchMember(ctx context.Context, userID string) (*member.Member, error) {
	gm, err := c.session.GuildMember(c.config.GuildID, userID, c.requestOptions(ctx)...)
	if err != nil {
		if isUnknownMember(err) {
			return nil, shared.ErrNotInCommunity
		}
		return nil, c.classify("FetchMember", err)
	}

	return mapMember(gm), nil
}

// ListMembers pages through the full guild roster.
func (c *Client) ListMembers(ctx context.Context) ([]*member.Member, error) {
	var (
		members []*member.Member
		after   string
	)

	for {
		page, err := c.session.GuildMembers(c.config.GuildID, after, c.config.MemberPageSize, c.requestOptions(ctx)...)
		if err != nil {
			return nil, c.classify("ListMembers", err)
		}
		if len(page) == 0 {
			break
		}

		for _, gm := range page {
			members = append(members, mapMember(gm))
		}
		after = page[len(page)-1].User.ID

		if len(page) < c.config.MemberPageSize {
			break
		}
	}

	return members, nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Role management
// ─────────────────────────────────────────────────────────────────────────────

// AddRole grants a role. The reason lands in the guild audit log.
func (c *Client) AddRole(ctx context.Context, userID string, role member.Role, reason string) error {
	opts := c.requestOptions(ctx)
	if reason != "" {
		opts = append(opts, discordgo.WithAuditLogReason(reason))
	}

	if err := c.session.GuildMemberRoleAdd(c.config.GuildID, userID, string(role), opts...); err != nil {
		if isUnknownMember(err) {
			return shared.ErrNotInCommunity
		}
		if isUnknownRole(err) {
			return shared.ErrRoleNotFound
		}
		return c.classify("AddRole", err)
	}

	c.logger.Debug("role granted",
		zap.String("user_id", userID), zap.String("role_id", string(role)))
	return nil
}

// RemoveRole revokes a role. The reason lands in the guild audit log.
func (c *Client) RemoveRole(ctx context.Context, userID string, role member.Role, reason string) error {
	opts := c.requestOptions(ctx)
	if reason != "" {
		opts = append(opts, discordgo.WithAuditLogReason(reason))
	}

	if err := c.session.GuildMemberRoleRemove(c.config.GuildID, userID, string(role), opts...); err != nil {
		if isUnknownMember(err) {
			return shared.ErrNotInCommunity
		}
		if isUnknownRole(err) {
			return shared.ErrRoleNotFound
		}
		return c.classify("RemoveRole", err)
	}

	c.logger.Debug("role revoked",
		zap.String("user_id", userID), zap.String("role_id", string(role)))
	return nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Internals
// ─────────────────────────────────────────────────────────────────────────────

func (c *Client) requestOptions(ctx context.Context) []discordgo.RequestOption {
	return []discordgo.RequestOption{discordgo.WithContext(ctx)}
}

// classify maps transport-level failures to domain errors so callers can
// fail closed on an unreachable platform without knowing about discordgo.
func (c *Client) classify(op string, err error) error {
	var restErr *discordgo.RESTError
	if errors.As(err, &restErr) {
		if restErr.Response != nil && restErr.Response.StatusCode >= http.StatusInternalServerError {
			return shared.WrapError("platform", op, shared.ErrServiceUnavailable,
				fmt.Sprintf("discord returned %d", restErr.Response.StatusCode), err)
		}
		return shared.WrapError("platform", op, shared.ErrExternalService, "discord request rejected", err)
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return shared.WrapError("platform", op, shared.ErrTimeout, "discord request timed out", err)
	}

	return shared.WrapError("platform", op, shared.ErrServiceUnavailable, "discord unreachable", err)
}

func isUnknownMember(err error) bool {
	var restErr *discordgo.RESTError
	if errors.As(err, &restErr) && restErr.Message != nil {
		return restErr.Message.Code == discordgo.ErrCodeUnknownMember ||
			restErr.Message.Code == discordgo.ErrCodeUnknownUser
	}
	return false
}

func isUnknownRole(err error) bool {
	var restErr *discordgo.RESTError
	if errors.As(err, &restErr) && restErr.Message != nil {
		return restErr.Message.Code == discordgo.ErrCodeUnknownRole
	}
	return false
}

// mapMember converts a guild member to the domain shape.
func mapMember(gm *discordgo.Member) *member.Member {
	m := &member.Member{
		ID:          gm.User.ID,
		Username:    gm.User.Username,
		DisplayName: gm.DisplayName(),
		Roles:       make([]member.Role, 0, len(gm.Roles)),
	}
	for _, roleID := range gm.Roles {
		m.Roles = append(m.Roles, member.Role(roleID))
	}
	if !gm.JoinedAt.IsZero() {
		joined := gm.JoinedAt
		m.JoinedAt = &joined
	}
	return m
}
