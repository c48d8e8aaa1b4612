// Package feedback handles the submitter side: the category menu, incoming
// direct messages and confirmation.
package feedback

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strconv"
	"time"

	"feedbackbot/admission"
	"feedbackbot/album"
	"feedbackbot/conversation"
	"feedbackbot/handler"
	"feedbackbot/model"
	"feedbackbot/transport"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"
)

const (
	CommandName    = "feedback"
	prefixCategory = "category"
	prefixAnon     = "anon"
	idConfirm      = "confirm_send"
	idCancel       = "cancel_send"

	deliverTimeout = 30 * time.Second
)

// Handler wires the submission flow to discord.
type Handler struct {
	machine   *conversation.Machine
	albums    *album.Aggregator
	admission *admission.Controller
	sender    transport.Sender
	log       *zap.SugaredLogger
}

// New builds the handler. The album aggregator is created here so its
// batches flow into the conversation.
func New(machine *conversation.Machine, gate *admission.Controller, sender transport.Sender, debounce time.Duration, log *zap.SugaredLogger) *Handler {
	h := &Handler{
		machine:   machine,
		admission: gate,
		sender:    sender,
		log:       log,
	}
	h.albums = album.NewAggregator(debounce, h.deliver, log)
	return h
}

func (h *Handler) Register(r *handler.Router) {
	r.AddCommandHandler(CommandName, h.menuHandler)
	r.AddComponentHandler(prefixCategory, h.categoryHandler)
	r.AddComponentHandler(prefixAnon, h.anonymousHandler)
	r.AddComponentHandler(idConfirm, h.confirmHandler)
	r.AddComponentHandler(idCancel, h.cancelHandler)
	r.AddMessageHandler(h.messageHandler)
}

func (h *Handler) user(i *discordgo.InteractionCreate) conversation.User {
	u := handler.InteractionUser(i)
	return conversation.User{ID: u.ID, DisplayName: handler.DisplayName(u)}
}

func (h *Handler) menuHandler(s *discordgo.Session, i *discordgo.InteractionCreate) {
	user := h.user(i)
	if err := h.machine.Start(context.Background(), user); err != nil {
		handler.Respond(s, i, h.log, h.startError(user.ID, err), true)
		return
	}
	handler.Respond(s, i, h.log, "Hi! This is the feedback bot. Choose what you want to send:", true,
		transport.Components(categoryControls())...)
}

func categoryControls() []transport.Control {
	controls := make([]transport.Control, 0, len(model.Categories))
	for _, c := range model.Categories {
		controls = append(controls, transport.Control{
			Label: c.Emoji() + " " + c.Title(),
			ID:    prefixCategory + ":" + string(c),
		})
	}
	return controls
}

func (h *Handler) categoryHandler(s *discordgo.Session, i *discordgo.InteractionCreate) {
	ctx := context.Background()
	user := h.user(i)
	category, ok := categoryFromID(i.MessageComponentData().CustomID)
	if !ok {
		handler.Respond(s, i, h.log, "Unknown category.", true)
		return
	}

	err := h.machine.ChooseCategory(ctx, user.ID, category)
	if errors.Is(err, conversation.ErrNoDraft) || errors.Is(err, conversation.ErrExpired) || errors.Is(err, conversation.ErrWrongStep) {
		// An old menu was clicked; open a new draft straight at this category.
		err = h.machine.StartWithCategory(ctx, user, category)
		if err != nil {
			handler.Respond(s, i, h.log, h.startError(user.ID, err), true)
			return
		}
	} else if err != nil {
		handler.Respond(s, i, h.log, userMessage(err), true)
		return
	}

	handler.Respond(s, i, h.log,
		fmt.Sprintf("%s Send your message now. Text, photos, videos and files are all fine, several files can go in one message.", category.Emoji()),
		true, transport.Components(draftControls(false))...)
}

func categoryFromID(customID string) (model.Category, bool) {
	args := handler.CustomIDArgs(customID)
	if len(args) != 1 {
		return "", false
	}
	return model.ParseCategory(args[0])
}

func draftControls(anonymous bool) []transport.Control {
	anon := transport.Control{Label: "👻 Send anonymously", ID: prefixAnon + ":true", Style: transport.StyleSecondary}
	if anonymous {
		anon = transport.Control{Label: "👤 Show my name", ID: prefixAnon + ":false", Style: transport.StyleSecondary}
	}
	return []transport.Control{anon, {Label: "❌ Cancel", ID: idCancel, Style: transport.StyleDanger}}
}

func (h *Handler) anonymousHandler(s *discordgo.Session, i *discordgo.InteractionCreate) {
	user := h.user(i)
	args := handler.CustomIDArgs(i.MessageComponentData().CustomID)
	anonymous := len(args) == 1 && args[0] == "true"

	if err := h.machine.SetAnonymous(context.Background(), user.ID, anonymous); err != nil {
		handler.Respond(s, i, h.log, userMessage(err), true)
		return
	}
	text := "👤 Moderators will see your name."
	if anonymous {
		text = "👻 Your message will be sent anonymously."
	}
	handler.Respond(s, i, h.log, text, true, transport.Components(draftControls(anonymous))...)
}

func (h *Handler) confirmHandler(s *discordgo.Session, i *discordgo.InteractionCreate) {
	handler.Defer(s, i, h.log, false)
	user := h.user(i)

	if _, err := h.machine.Confirm(context.Background(), user.ID); err != nil {
		handler.Followup(s, i, h.log, userMessage(err))
		return
	}
	handler.Followup(s, i, h.log, "Thank you! Your message has been sent ❤️")
}

func (h *Handler) cancelHandler(s *discordgo.Session, i *discordgo.InteractionCreate) {
	user := h.user(i)
	if err := h.machine.Cancel(context.Background(), user.ID); err != nil {
		handler.Respond(s, i, h.log, userMessage(err), true)
		return
	}
	handler.Respond(s, i, h.log, "Cancelled. Use /feedback whenever you want to send something.", false)
}

func (h *Handler) messageHandler(s *discordgo.Session, m *discordgo.MessageCreate) {
	if m.GuildID != "" {
		return
	}
	groupID, frags := Fragments(m.Message, time.Now())
	for _, f := range frags {
		h.albums.Ingest(groupID, f, f.ReceivedAt)
	}
}

// deliver receives complete batches from the album aggregator.
func (h *Handler) deliver(batch []model.Fragment) {
	if len(batch) == 0 {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), deliverTimeout)
	defer cancel()
	userID := batch[0].UserID

	preview, err := h.machine.Deliver(ctx, userID, batch)
	var payload transport.Payload
	switch {
	case errors.Is(err, conversation.ErrNoDraft), errors.Is(err, conversation.ErrExpired):
		payload.Text = "Use /feedback to send us a message."
	case err != nil:
		payload.Text = userMessage(err)
	default:
		payload = transport.Payload{
			Text: previewText(preview),
			Controls: []transport.Control{
				{Label: "✅ Send", ID: idConfirm, Style: transport.StyleSuccess},
				{Label: "❌ Cancel", ID: idCancel, Style: transport.StyleDanger},
			},
		}
	}

	if _, err := h.sender.SendToIdentity(ctx, userID, payload); err != nil {
		h.log.Warnw("sending preview failed", "user", userID, "error", err)
	}
}

func previewText(p conversation.Preview) string {
	text := "Is this right?\n\n📝 **Text:** " + p.Content
	if p.Attachments > 0 {
		text += "\n📎 **Files:** " + strconv.Itoa(p.Attachments)
	}
	if p.Anonymous {
		text += "\n👻 Sent anonymously"
	}
	return text
}

func (h *Handler) startError(userID string, err error) string {
	if !errors.Is(err, conversation.ErrAdmissionDenied) {
		return userMessage(err)
	}
	left, rerr := h.admission.Remaining(context.Background(), userID, time.Now())
	if rerr != nil || left <= 0 {
		return userMessage(err)
	}
	return fmt.Sprintf("Please wait %d more seconds before sending again 🚫", int(math.Ceil(left.Seconds())))
}

func userMessage(err error) string {
	switch {
	case errors.Is(err, conversation.ErrAdmissionDenied):
		return "Please wait a minute before sending again 🚫"
	case errors.Is(err, conversation.ErrNoDraft):
		return "There is nothing in progress. Use /feedback to start."
	case errors.Is(err, conversation.ErrExpired):
		return "This message timed out. Use /feedback to start again."
	case errors.Is(err, conversation.ErrWrongStep):
		return "That does not fit here. Pick a category first or finish the current message."
	case errors.Is(err, conversation.ErrInvalidCategory):
		return "Unknown category."
	case errors.Is(err, conversation.ErrPersistence):
		return "We could not save your message. Please press Send again."
	}
	return "Something went wrong, please try again later."
}
