package handler

import (
	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"
)

// InteractionUser returns who triggered the interaction, in a guild or in DMs.
func InteractionUser(i *discordgo.InteractionCreate) *discordgo.User {
	if i.Member != nil && i.Member.User != nil {
		return i.Member.User
	}
	return i.User
}

// InteractionRoles returns the guild roles of the caller. It is empty in DMs.
func InteractionRoles(i *discordgo.InteractionCreate) []string {
	if i.Member == nil {
		return nil
	}
	return i.Member.Roles
}

// DisplayName prefers the global display name over the account name.
func DisplayName(u *discordgo.User) string {
	if u == nil {
		return ""
	}
	if u.GlobalName != "" {
		return u.GlobalName
	}
	return u.Username
}

// Respond answers an interaction with a message.
func Respond(s *discordgo.Session, i *discordgo.InteractionCreate, log *zap.SugaredLogger, content string, ephemeral bool, components ...discordgo.MessageComponent) {
	data := &discordgo.InteractionResponseData{
		Content:    content,
		Components: components,
	}
	if ephemeral {
		data.Flags = discordgo.MessageFlagsEphemeral
	}
	err := s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: data,
	})
	if err != nil {
		log.Warnw("responding to interaction failed", "interaction", i.ID, "error", err)
	}
}

// Defer acknowledges an interaction whose answer comes later through Followup.
func Defer(s *discordgo.Session, i *discordgo.InteractionCreate, log *zap.SugaredLogger, ephemeral bool) {
	resp := &discordgo.InteractionResponse{Type: discordgo.InteractionResponseDeferredChannelMessageWithSource}
	if ephemeral {
		resp.Data = &discordgo.InteractionResponseData{Flags: discordgo.MessageFlagsEphemeral}
	}
	if err := s.InteractionRespond(i.Interaction, resp); err != nil {
		log.Warnw("deferring interaction failed", "interaction", i.ID, "error", err)
	}
}

// Followup answers a deferred interaction.
func Followup(s *discordgo.Session, i *discordgo.InteractionCreate, log *zap.SugaredLogger, content string, components ...discordgo.MessageComponent) {
	_, err := s.FollowupMessageCreate(i.Interaction, true, &discordgo.WebhookParams{
		Content:    content,
		Components: components,
	})
	if err != nil {
		log.Warnw("interaction followup failed", "interaction", i.ID, "error", err)
	}
}

// RespondModal opens a modal.
func RespondModal(s *discordgo.Session, i *discordgo.InteractionCreate, log *zap.SugaredLogger, customID, title string, components ...discordgo.MessageComponent) {
	err := s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseModal,
		Data: &discordgo.InteractionResponseData{
			CustomID:   customID,
			Title:      title,
			Components: components,
		},
	})
	if err != nil {
		log.Warnw("opening modal failed", "interaction", i.ID, "error", err)
	}
}

// ModalValue returns the value of the text input with the given custom id.
func ModalValue(data discordgo.ModalSubmitInteractionData, customID string) string {
	for _, c := range data.Components {
		row, ok := c.(*discordgo.ActionsRow)
		if !ok {
			continue
		}
		for _, rc := range row.Components {
			if in, ok := rc.(*discordgo.TextInput); ok && in.CustomID == customID {
				return in.Value
			}
		}
	}
	return ""
}
