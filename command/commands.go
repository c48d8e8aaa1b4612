package command

import (
	"feedbackbot/command/def"

	"github.com/bwmarrin/discordgo"
)

// AllCommands contains all of the commands
var AllCommands = []*discordgo.ApplicationCommand{
	def.FeedbackCommand,
	def.StatsCommand,
	def.ListCommand,
	def.IDCommand,
}
