package def

import (
	"github.com/bwmarrin/discordgo"
)

var dmAllowed = true

var FeedbackCommand = &discordgo.ApplicationCommand{
	Name:         "feedback",
	Description:  "Send news, an ad request or feedback to the moderators",
	DMPermission: &dmAllowed,
}
