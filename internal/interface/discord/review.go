package discord

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"

	"github.com/maestros-hub/maestros-community-backend/internal/application/command"
	"github.com/maestros-hub/maestros-community-backend/internal/domain/application"
	"github.com/maestros-hub/maestros-community-backend/internal/domain/member"
	"github.com/maestros-hub/maestros-community-backend/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// REVIEW INTERACTIONS
// ══════════════════════════════════════════════════════════════════════════════

// InteractionPrefix routes all application review interactions.
const InteractionPrefix = "application:"

const (
	actionAccept      = "accept"
	actionReject      = "reject"
	actionAcceptModal = "accept_modal"
	actionRejectModal = "reject_modal"
)

// ReviewHandler serves the accept/reject buttons on review queue posts and
// the modals they open. Decisions go through the same command handlers the
// REST API uses.
type ReviewHandler struct {
	accept  *command.AcceptApplicationHandler
	reject  *command.RejectApplicationHandler
	roleSet member.RoleSet
	logger  *zap.Logger
}

// NewReviewHandler constructs the handler.
func NewReviewHandler(
	accept *command.AcceptApplicationHandler,
	reject *command.RejectApplicationHandler,
	roleSet member.RoleSet,
	logger *zap.Logger,
) *ReviewHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReviewHandler{
		accept:  accept,
		reject:  reject,
		roleSet: roleSet,
		logger:  logger.With(zap.String("component", "discord.review")),
	}
}

// Handle dispatches one review interaction.
func (h *ReviewHandler) Handle(ctx context.Context, s *discordgo.Session, i *discordgo.InteractionCreate) error {
	action, applicationID, ok := parseCustomID(interactionCustomID(i))
	if !ok {
		return fmt.Errorf("malformed custom id %q", interactionCustomID(i))
	}

	if !h.isReviewer(i.Member) {
		return respondEphemeral(s, i, "You need the Manager role to review applications.")
	}

	switch action {
	case actionAccept:
		return h.openAcceptModal(s, i, applicationID)
	case actionReject:
		return h.openRejectModal(s, i, applicationID)
	case actionAcceptModal:
		return h.submitAccept(ctx, s, i, applicationID)
	case actionRejectModal:
		return h.submitReject(ctx, s, i, applicationID)
	default:
		return fmt.Errorf("unknown review action %q", action)
	}
}

// isReviewer checks the manager or admin role on the interacting member.
func (h *ReviewHandler) isReviewer(m *discordgo.Member) bool {
	if m == nil {
		return false
	}
	managerRole := string(h.roleSet[member.RoleKindManager])
	adminRole := string(h.roleSet[member.RoleKindAdmin])
	for _, role := range m.Roles {
		if role != "" && (role == managerRole || role == adminRole) {
			return true
		}
	}
	return false
}

func (h *ReviewHandler) openAcceptModal(s *discordgo.Session, i *discordgo.InteractionCreate, applicationID string) error {
	return s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseModal,
		Data: &discordgo.InteractionResponseData{
			CustomID: InteractionPrefix + actionAcceptModal + ":" + applicationID,
			Title:    "Accept Application",
			Components: []discordgo.MessageComponent{
				discordgo.ActionsRow{
					Components: []discordgo.MessageComponent{
						discordgo.TextInput{
							CustomID:  "notes",
							Label:     "Acceptance Notes (Optional)",
							Style:     discordgo.TextInputParagraph,
							Required:  false,
							MaxLength: 500,
						},
					},
				},
			},
		},
	})
}

func (h *ReviewHandler) openRejectModal(s *discordgo.Session, i *discordgo.InteractionCreate, applicationID string) error {
	return s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseModal,
		Data: &discordgo.InteractionResponseData{
			CustomID: InteractionPrefix + actionRejectModal + ":" + applicationID,
			Title:    "Reject Application",
			Components: []discordgo.MessageComponent{
				discordgo.ActionsRow{
					Components: []discordgo.MessageComponent{
						discordgo.TextInput{
							CustomID:  "reason",
							Label:     "Rejection Reason (Required)",
							Style:     discordgo.TextInputParagraph,
							Required:  true,
							MinLength: application.MinRejectReasonLen,
							MaxLength: 500,
						},
					},
				},
			},
		},
	})
}

func (h *ReviewHandler) submitAccept(ctx context.Context, s *discordgo.Session, i *discordgo.InteractionCreate, applicationID string) error {
	result, err := h.accept.Handle(ctx, command.AcceptApplicationCommand{
		ApplicationID: applicationID,
		ReviewerID:    i.Member.User.ID,
		Notes:         modalValue(i, "notes"),
	})
	if err != nil {
		return respondEphemeral(s, i, decisionFailureText(err))
	}

	h.logger.Info("application accepted via interaction",
		zap.String("application_id", applicationID),
		zap.String("reviewer_id", i.Member.User.ID),
	)

	text := fmt.Sprintf("Application accepted. Member role granted to <@%s>.", result.ApplicantID)
	if !result.DMDelivered {
		text += " (Could not DM the applicant.)"
	}
	return respondEphemeral(s, i, text)
}

func (h *ReviewHandler) submitReject(ctx context.Context, s *discordgo.Session, i *discordgo.InteractionCreate, applicationID string) error {
	result, err := h.reject.Handle(ctx, command.RejectApplicationCommand{
		ApplicationID: applicationID,
		ReviewerID:    i.Member.User.ID,
		Reason:        modalValue(i, "reason"),
	})
	if err != nil {
		return respondEphemeral(s, i, decisionFailureText(err))
	}

	h.logger.Info("application rejected via interaction",
		zap.String("application_id", applicationID),
		zap.String("reviewer_id", i.Member.User.ID),
	)

	text := fmt.Sprintf("Application rejected. <@%s> enters the %d-day cooldown.", result.ApplicantID, application.CooldownDays)
	if !result.DMDelivered {
		text += " (Could not DM the applicant.)"
	}
	return respondEphemeral(s, i, text)
}

// decisionFailureText maps decision errors to reviewer-facing text.
func decisionFailureText(err error) string {
	switch {
	case errors.Is(err, shared.ErrNotPending):
		return "This application has already been decided."
	case errors.Is(err, shared.ErrReasonTooShort):
		return fmt.Sprintf("The rejection reason must be at least %d characters.", application.MinRejectReasonLen)
	case shared.IsNotFound(err):
		return "Application not found."
	default:
		return "Something went wrong processing the decision. Please try again."
	}
}

// ══════════════════════════════════════════════════════════════════════════════
// INTERACTION HELPERS
// ══════════════════════════════════════════════════════════════════════════════

// parseCustomID splits "application:<action>:<id>".
func parseCustomID(customID string) (action, applicationID string, ok bool) {
	rest, found := strings.CutPrefix(customID, InteractionPrefix)
	if !found {
		return "", "", false
	}
	action, applicationID, found = strings.Cut(rest, ":")
	if !found || action == "" || applicationID == "" {
		return "", "", false
	}
	return action, applicationID, true
}

// modalValue extracts a text input value from a modal submission.
func modalValue(i *discordgo.InteractionCreate, customID string) string {
	if i.Type != discordgo.InteractionModalSubmit {
		return ""
	}
	for _, row := range i.ModalSubmitData().Components {
		actionsRow, ok := row.(*discordgo.ActionsRow)
		if !ok {
			continue
		}
		for _, comp := range actionsRow.Components {
			input, ok := comp.(*discordgo.TextInput)
			if ok && input.CustomID == customID {
				return input.Value
			}
		}
	}
	return ""
}

// respondEphemeral sends a reviewer-only reply to the interaction.
func respondEphemeral(s *discordgo.Session, i *discordgo.InteractionCreate, content string) error {
	return s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Content: content,
			Flags:   discordgo.MessageFlagsEphemeral,
		},
	})
}
