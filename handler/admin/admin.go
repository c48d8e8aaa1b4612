// Package admin handles moderator controls and commands.
package admin

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"feedbackbot/handler"
	"feedbackbot/model"
	"feedbackbot/moderation"
	"feedbackbot/transport"
	"feedbackbot/utils"
	"feedbackbot/watermark"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"
)

const (
	CommandStats = "stats"
	CommandList  = "list"
	CommandID    = "id"

	replyInputID   = "reply_text"
	listPreviewLen = 100
)

type Handler struct {
	coord *moderation.Coordinator
	log   *zap.SugaredLogger
}

func New(coord *moderation.Coordinator, log *zap.SugaredLogger) *Handler {
	return &Handler{coord: coord, log: log}
}

func (h *Handler) Register(r *handler.Router) {
	r.AddComponentHandler(moderation.PrefixReply, h.replyMenuHandler)
	r.AddComponentHandler(moderation.PrefixQuickReply, h.quickReplyHandler)
	r.AddComponentHandler(moderation.PrefixCustomReply, h.customReplyHandler)
	r.AddComponentHandler(moderation.PrefixPublish, h.publishHandler)
	r.AddComponentHandler(moderation.PrefixReject, h.rejectHandler)
	r.AddModalHandler(moderation.PrefixReplyModal, h.replyModalHandler)
	r.AddCommandHandler(CommandStats, h.statsHandler)
	r.AddCommandHandler(CommandList, h.listHandler)
	r.AddCommandHandler(CommandID, h.idHandler)
}

func actor(i *discordgo.InteractionCreate) moderation.Actor {
	return moderation.Actor{ID: handler.InteractionUser(i).ID, Roles: handler.InteractionRoles(i)}
}

// submissionArg parses the submission id that follows the prefix of a
// custom id.
func submissionArg(customID string) (int64, []string, error) {
	args := handler.CustomIDArgs(customID)
	if len(args) == 0 {
		return 0, nil, fmt.Errorf("custom id %q has no submission", customID)
	}
	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return 0, nil, fmt.Errorf("custom id %q: %w", customID, err)
	}
	return id, args[1:], nil
}

func (h *Handler) replyMenuHandler(s *discordgo.Session, i *discordgo.InteractionCreate) {
	id, _, err := submissionArg(i.MessageComponentData().CustomID)
	if err != nil {
		handler.Respond(s, i, h.log, "Bad control.", true)
		return
	}
	sub, err := h.coord.Get(context.Background(), actor(i), id)
	if err != nil {
		handler.Respond(s, i, h.log, moderatorMessage(err), true)
		return
	}
	text := fmt.Sprintf("💬 **Reply to %s**\n\n📝 Their message: `%s`\n\nPick a ready answer or write your own:",
		submitter(sub), utils.Truncate(sub.Content, 200))
	handler.Respond(s, i, h.log, text, false, transport.Components(moderation.ReplyControls(id))...)
}

func (h *Handler) quickReplyHandler(s *discordgo.Session, i *discordgo.InteractionCreate) {
	id, rest, err := submissionArg(i.MessageComponentData().CustomID)
	if err != nil || len(rest) != 1 {
		handler.Respond(s, i, h.log, "Bad control.", true)
		return
	}
	handler.Defer(s, i, h.log, false)
	sub, err := h.coord.QuickReply(context.Background(), actor(i), id, rest[0])
	handler.Followup(s, i, h.log, replyResult(sub, err))
}

func (h *Handler) customReplyHandler(s *discordgo.Session, i *discordgo.InteractionCreate) {
	id, _, err := submissionArg(i.MessageComponentData().CustomID)
	if err != nil {
		handler.Respond(s, i, h.log, "Bad control.", true)
		return
	}
	if _, err := h.coord.Get(context.Background(), actor(i), id); err != nil {
		handler.Respond(s, i, h.log, moderatorMessage(err), true)
		return
	}
	handler.RespondModal(s, i, h.log, fmt.Sprintf("%s:%d", moderation.PrefixReplyModal, id), "Reply to submission",
		discordgo.ActionsRow{Components: []discordgo.MessageComponent{
			discordgo.TextInput{
				CustomID:    replyInputID,
				Label:       "Your reply",
				Style:       discordgo.TextInputParagraph,
				Placeholder: "Write the answer the user will receive",
				Required:    true,
				MaxLength:   1800,
			},
		}},
	)
}

func (h *Handler) replyModalHandler(s *discordgo.Session, i *discordgo.InteractionCreate) {
	data := i.ModalSubmitData()
	id, _, err := submissionArg(data.CustomID)
	if err != nil {
		handler.Respond(s, i, h.log, "Bad form.", true)
		return
	}
	handler.Defer(s, i, h.log, false)
	sub, err := h.coord.Reply(context.Background(), actor(i), id, handler.ModalValue(data, replyInputID))
	handler.Followup(s, i, h.log, replyResult(sub, err))
}

func replyResult(sub *model.Submission, err error) string {
	if err != nil {
		return moderatorMessage(err)
	}
	return "✅ Reply sent to " + submitter(sub) + "!"
}

func (h *Handler) publishHandler(s *discordgo.Session, i *discordgo.InteractionCreate) {
	id, rest, err := submissionArg(i.MessageComponentData().CustomID)
	mode := watermark.ModeNone
	if len(rest) == 1 {
		var ok bool
		if mode, ok = watermark.ParseMode(rest[0]); !ok {
			err = fmt.Errorf("unknown publish mode %q", rest[0])
		}
	}
	if err != nil {
		handler.Respond(s, i, h.log, "Bad control.", true)
		return
	}

	handler.Defer(s, i, h.log, false)
	report, err := h.coord.Publish(context.Background(), actor(i), id, mode)
	if err != nil {
		handler.Followup(s, i, h.log, moderatorMessage(err))
		return
	}
	handler.Followup(s, i, h.log, publishResult(id, report))
}

func publishResult(id int64, r moderation.PublishReport) string {
	text := fmt.Sprintf("✅ Submission #%d published", id)
	if r.Items > 0 {
		text += fmt.Sprintf(" with %d file(s)", r.Items)
	}
	if r.Transformed > 0 {
		text += fmt.Sprintf(", %d watermarked", r.Transformed)
	}
	if r.Fallbacks > 0 {
		text += fmt.Sprintf(", %d sent without watermark", r.Fallbacks)
	}
	return text + "."
}

func (h *Handler) rejectHandler(s *discordgo.Session, i *discordgo.InteractionCreate) {
	id, _, err := submissionArg(i.MessageComponentData().CustomID)
	if err != nil {
		handler.Respond(s, i, h.log, "Bad control.", true)
		return
	}
	if err := h.coord.Reject(context.Background(), actor(i), id); err != nil {
		handler.Respond(s, i, h.log, moderatorMessage(err), true)
		return
	}
	handler.Respond(s, i, h.log, fmt.Sprintf("🚫 Submission #%d rejected.", id), false)
}

func (h *Handler) statsHandler(s *discordgo.Session, i *discordgo.InteractionCreate) {
	stats, err := h.coord.Stats(context.Background(), actor(i))
	if err != nil {
		handler.Respond(s, i, h.log, moderatorMessage(err), true)
		return
	}
	handler.Respond(s, i, h.log, formatStats(stats), true)
}

func formatStats(s moderation.Stats) string {
	section := func(counts []model.CategoryCount) string {
		if len(counts) == 0 {
			return "none"
		}
		lines := make([]string, 0, len(counts))
		for _, c := range counts {
			lines = append(lines, fmt.Sprintf("%s %s: %d", c.Category.Emoji(), c.Category, c.Count))
		}
		return strings.Join(lines, "\n")
	}
	return fmt.Sprintf("📊 **Statistics**\n\n📰 Last day:\n%s\n\n📆 Last week:\n%s\n\n📋 All time:\n%s",
		section(s.Day), section(s.Week), section(s.All))
}

func (h *Handler) listHandler(s *discordgo.Session, i *discordgo.InteractionCreate) {
	category, ok := listCategory(i.ApplicationCommandData().Options)
	if !ok {
		handler.Respond(s, i, h.log, "Unknown category.", true)
		return
	}
	subs, err := h.coord.Recent(context.Background(), actor(i), category, 0)
	if err != nil {
		handler.Respond(s, i, h.log, moderatorMessage(err), true)
		return
	}
	handler.Respond(s, i, h.log, utils.Truncate(formatList(category, subs), 2000), true)
}

func listCategory(opts []*discordgo.ApplicationCommandInteractionDataOption) (model.Category, bool) {
	for _, opt := range opts {
		if opt.Name == "category" {
			return model.ParseCategory(opt.StringValue())
		}
	}
	return "", false
}

func formatList(category model.Category, subs []*model.Submission) string {
	if len(subs) == 0 {
		return fmt.Sprintf("%s Nothing here yet.", category.Emoji())
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%s **Latest (%d)**\n\n", category.Emoji(), len(subs))
	for _, sub := range subs {
		fmt.Fprintf(&b, "ID %d | %s | %s\n%s\n\n", sub.ID, submitter(sub), sub.Status,
			utils.Truncate(sub.Content, listPreviewLen))
	}
	return strings.TrimRight(b.String(), "\n")
}

func (h *Handler) idHandler(s *discordgo.Session, i *discordgo.InteractionCreate) {
	a := actor(i)
	if !h.coord.Auth.Allowed(a) {
		handler.Respond(s, i, h.log, moderatorMessage(moderation.ErrUnauthorized), true)
		return
	}
	handler.Respond(s, i, h.log, fmt.Sprintf("Your ID: `%s`", a.ID), true)
}

func submitter(sub *model.Submission) string {
	if sub == nil {
		return "the user"
	}
	if sub.Anonymous {
		return "👻 anonymous"
	}
	if sub.DisplayName == "" {
		return "@no username"
	}
	return "@" + sub.DisplayName
}

func moderatorMessage(err error) string {
	switch {
	case errors.Is(err, moderation.ErrUnauthorized):
		return "Moderators only! 🚫"
	case errors.Is(err, model.ErrNotFound):
		return "Submission not found!"
	case errors.Is(err, model.ErrAlreadyActioned):
		return "This submission has already been handled."
	case errors.Is(err, moderation.ErrEmptyReply):
		return "The reply is empty."
	case errors.Is(err, moderation.ErrUnknownQuickReply):
		return "Unknown ready answer."
	case errors.Is(err, moderation.ErrInvalidCategory):
		return "Unknown category."
	case errors.Is(err, moderation.ErrDelivery):
		return "❌ Delivery failed: " + err.Error()
	}
	return "❌ Error: " + err.Error()
}
