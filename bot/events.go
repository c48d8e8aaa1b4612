package bot

import (
	"feedbackbot/handler"

	"github.com/bwmarrin/discordgo"
)

func (b *Bot) registerEventHandlers(router *handler.Router) {
	b.session.AddHandler(router.OnInteractionCreate)
	b.session.AddHandler(router.OnMessageCreate)
	b.session.AddHandler(func(s *discordgo.Session, r *discordgo.Ready) {
		b.log.Infow("connected to discord", "user", r.User.Username, "guilds", len(r.Guilds))
	})

	// Submissions arrive as direct messages.
	b.session.Identify.Intents = discordgo.IntentsGuilds | discordgo.IntentsDirectMessages
}
