package def

import (
	"feedbackbot/model"

	"github.com/bwmarrin/discordgo"
)

var StatsCommand = &discordgo.ApplicationCommand{
	Name:         "stats",
	Description:  "Submission statistics (moderators)",
	DMPermission: &dmAllowed,
}

var ListCommand = &discordgo.ApplicationCommand{
	Name:         "list",
	Description:  "Latest submissions of a category (moderators)",
	DMPermission: &dmAllowed,
	Options: []*discordgo.ApplicationCommandOption{
		{
			Type:        discordgo.ApplicationCommandOptionString,
			Name:        "category",
			Description: "Which submissions to show",
			Required:    true,
			Choices:     categoryChoices(),
		},
	},
}

var IDCommand = &discordgo.ApplicationCommand{
	Name:         "id",
	Description:  "Show your user id (moderators)",
	DMPermission: &dmAllowed,
}

func categoryChoices() []*discordgo.ApplicationCommandOptionChoice {
	choices := make([]*discordgo.ApplicationCommandOptionChoice, 0, len(model.Categories))
	for _, c := range model.Categories {
		choices = append(choices, &discordgo.ApplicationCommandOptionChoice{
			Name:  c.Emoji() + " " + c.Title(),
			Value: string(c),
		})
	}
	return choices
}
