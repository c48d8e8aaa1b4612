package bot

import (
	"context"
	"fmt"

	"feedbackbot/command"
	"feedbackbot/handler"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"
)

// Bot owns the discord session.
type Bot struct {
	session *discordgo.Session
	guilds  []string
	log     *zap.SugaredLogger
}

// New creates the session without connecting it.
func New(token string, guilds []string, log *zap.SugaredLogger) (*Bot, error) {
	dg, err := discordgo.New("Bot " + token)
	if err != nil {
		return nil, fmt.Errorf("bot: create session: %w", err)
	}
	return &Bot{session: dg, guilds: guilds, log: log}, nil
}

// Session returns the discord session.
func (b *Bot) Session() *discordgo.Session {
	return b.session
}

// Run connects, registers the slash commands and blocks until ctx is done.
func (b *Bot) Run(ctx context.Context, router *handler.Router) error {
	b.registerEventHandlers(router)

	if err := b.session.Open(); err != nil {
		return fmt.Errorf("bot: open connection: %w", err)
	}
	defer b.session.Close()

	if err := b.registerCommands(); err != nil {
		return err
	}

	b.log.Infow("bot is now running", "user", b.session.State.User.Username)
	<-ctx.Done()
	b.log.Info("shutting down")
	return nil
}

// registerCommands creates the commands in every allowed guild, or globally
// when no guild is configured.
func (b *Bot) registerCommands() error {
	guilds := b.guilds
	if len(guilds) == 0 {
		guilds = []string{""}
	}
	appID := b.session.State.User.ID
	for _, guildID := range guilds {
		for _, cmd := range command.AllCommands {
			if _, err := b.session.ApplicationCommandCreate(appID, guildID, cmd); err != nil {
				return fmt.Errorf("bot: create command %q in guild %q: %w", cmd.Name, guildID, err)
			}
		}
		b.log.Debugw("commands registered", "guild", guildID, "count", len(command.AllCommands))
	}
	return nil
}
