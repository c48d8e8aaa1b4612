package handler

import (
	"strings"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"
)

// HandlerFunc handles one interaction.
type HandlerFunc func(s *discordgo.Session, i *discordgo.InteractionCreate)

// MessageFunc handles one created message.
type MessageFunc func(s *discordgo.Session, m *discordgo.MessageCreate)

// Router dispatches discord events. Components and modals are matched on
// the part of their custom id before the first ':'.
type Router struct {
	commandHandlers   map[string]HandlerFunc
	componentHandlers map[string]HandlerFunc
	modalHandlers     map[string]HandlerFunc
	messageHandlers   []MessageFunc
	log               *zap.SugaredLogger
}

func NewRouter(log *zap.SugaredLogger) *Router {
	return &Router{
		commandHandlers:   make(map[string]HandlerFunc),
		componentHandlers: make(map[string]HandlerFunc),
		modalHandlers:     make(map[string]HandlerFunc),
		log:               log,
	}
}

// AddCommandHandler registers a handler for a slash command.
func (r *Router) AddCommandHandler(name string, handler HandlerFunc) {
	r.commandHandlers[name] = handler
}

// AddComponentHandler registers a handler for a message component.
func (r *Router) AddComponentHandler(prefix string, handler HandlerFunc) {
	r.componentHandlers[prefix] = handler
}

// AddModalHandler registers a handler for a modal submission.
func (r *Router) AddModalHandler(prefix string, handler HandlerFunc) {
	r.modalHandlers[prefix] = handler
}

// AddMessageHandler registers a handler for every created message.
func (r *Router) AddMessageHandler(handler MessageFunc) {
	r.messageHandlers = append(r.messageHandlers, handler)
}

// OnInteractionCreate is the main interaction router.
// It should be registered as the primary interaction handler of the session.
func (r *Router) OnInteractionCreate(s *discordgo.Session, i *discordgo.InteractionCreate) {
	var (
		handler HandlerFunc
		ok      bool
		key     string
	)
	switch i.Type {
	case discordgo.InteractionApplicationCommand:
		key = i.ApplicationCommandData().Name
		handler, ok = r.commandHandlers[key]
	case discordgo.InteractionMessageComponent:
		key = prefix(i.MessageComponentData().CustomID)
		handler, ok = r.componentHandlers[key]
	case discordgo.InteractionModalSubmit:
		key = prefix(i.ModalSubmitData().CustomID)
		handler, ok = r.modalHandlers[key]
	default:
		return
	}
	if !ok {
		r.log.Debugw("no handler for interaction", "type", i.Type.String(), "key", key)
		return
	}
	handler(s, i)
}

// OnMessageCreate passes messages from people to every message handler.
func (r *Router) OnMessageCreate(s *discordgo.Session, m *discordgo.MessageCreate) {
	if m.Author == nil || m.Author.Bot {
		return
	}
	for _, h := range r.messageHandlers {
		h(s, m)
	}
}

func prefix(customID string) string {
	p, _, _ := strings.Cut(customID, ":")
	return p
}

// CustomIDArgs returns the ':' separated parts of a custom id after its prefix.
func CustomIDArgs(customID string) []string {
	parts := strings.Split(customID, ":")
	return parts[1:]
}
