package discord

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"

	"github.com/maestros-hub/maestros-community-backend/internal/domain/notification"
)

// ══════════════════════════════════════════════════════════════════════════════
// NOTIFIER
// ══════════════════════════════════════════════════════════════════════════════

// embedColor is the accent color used on all outgoing embeds.
const embedColor = 0x5865F2

// ChannelMap binds each broadcast destination to a guild channel ID.
type ChannelMap map[notification.Broadcast]string

// Notifier implements notification.Sink on top of Discord embeds. Direct
// messages go through a freshly resolved DM channel; a user with DMs closed
// yields a failed delivery, not an error.
type Notifier struct {
	session  *discordgo.Session
	channels ChannelMap
	logger   *zap.Logger
}

// NewNotifier creates a Notifier.
func NewNotifier(session *discordgo.Session, channels ChannelMap, logger *zap.Logger) *Notifier {
	return &Notifier{
		session:  session,
		channels: channels,
		logger:   logger.With(zap.String("component", "discord.notifier")),
	}
}

// SendDirect delivers a message to the user's DM channel.
func (n *Notifier) SendDirect(ctx context.Context, userID string, msg notification.Message) notification.DeliveryResult {
	dm, err := n.session.UserChannelCreate(userID, discordgo.WithContext(ctx))
	if err != nil {
		return notification.FailureResult(fmt.Errorf("open dm channel: %w", err), isRetryable(err))
	}

	sent, err := n.session.ChannelMessageSendEmbed(dm.ID, buildEmbed(msg), discordgo.WithContext(ctx))
	if err != nil {
		if isDMClosed(err) {
			// Closed DMs are a user setting, not a transient fault.
			n.logger.Info("user has direct messages disabled", zap.String("user_id", userID))
			return notification.FailureResult(fmt.Errorf("send dm: %w", err), false)
		}
		return notification.FailureResult(fmt.Errorf("send dm: %w", err), isRetryable(err))
	}

	return notification.SuccessResult(sent.ID)
}

// SendBroadcast posts a message to the channel bound to the destination. An
// unmapped destination is a configuration gap and reported as a failure.
func (n *Notifier) SendBroadcast(ctx context.Context, dest notification.Broadcast, msg notification.Message) notification.DeliveryResult {
	channelID, ok := n.channels[dest]
	if channelID == "" || !ok {
		return notification.FailureResult(fmt.Errorf("no channel mapped for destination %q", dest), false)
	}

	send := &discordgo.MessageSend{Embed: buildEmbed(msg)}
	if dest == notification.BroadcastReviewQueue && msg.Ref != "" {
		send.Components = reviewComponents(msg.Ref)
	}

	sent, err := n.session.ChannelMessageSendComplex(channelID, send, discordgo.WithContext(ctx))
	if err != nil {
		return notification.FailureResult(fmt.Errorf("send to %s: %w", dest, err), isRetryable(err))
	}

	return notification.SuccessResult(sent.ID)
}

// reviewComponents builds the accept/reject buttons attached to review queue
// posts. Custom IDs carry the application ID so the interaction router can
// dispatch without extra lookups.
func reviewComponents(applicationID string) []discordgo.MessageComponent {
	return []discordgo.MessageComponent{
		discordgo.ActionsRow{
			Components: []discordgo.MessageComponent{
				discordgo.Button{
					Label:    "Accept",
					Style:    discordgo.SuccessButton,
					CustomID: "application:accept:" + applicationID,
				},
				discordgo.Button{
					Label:    "Reject",
					Style:    discordgo.DangerButton,
					CustomID: "application:reject:" + applicationID,
				},
			},
		},
	}
}

// buildEmbed converts the transport-neutral message into a Discord embed.
func buildEmbed(msg notification.Message) *discordgo.MessageEmbed {
	embed := &discordgo.MessageEmbed{
		Title:       msg.Title,
		Description: msg.Body,
		Color:       embedColor,
		Timestamp:   time.Now().UTC().Format(time.RFC3339),
	}
	if msg.Footer != "" {
		embed.Footer = &discordgo.MessageEmbedFooter{Text: msg.Footer}
	}
	for _, f := range msg.Fields {
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
			Name:   f.Name,
			Value:  f.Value,
			Inline: f.Inline,
		})
	}
	return embed
}

// isRetryable reports whether a send failure is worth retrying: server-side
// errors and timeouts are, rejected requests are not.
func isRetryable(err error) bool {
	var restErr *discordgo.RESTError
	if errors.As(err, &restErr) {
		return restErr.Response != nil && restErr.Response.StatusCode >= http.StatusInternalServerError
	}
	return errors.Is(err, context.DeadlineExceeded)
}

// isDMClosed reports whether the user cannot receive direct messages.
func isDMClosed(err error) bool {
	var restErr *discordgo.RESTError
	if errors.As(err, &restErr) {
		if restErr.Message != nil && restErr.Message.Code == discordgo.ErrCodeCannotSendMessagesToThisUser {
			return true
		}
		return restErr.Response != nil && restErr.Response.StatusCode == http.StatusForbidden
	}
	return false
}
