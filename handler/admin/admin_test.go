package admin

import (
	"fmt"
	"testing"

	"feedbackbot/model"
	"feedbackbot/moderation"

	"github.com/bwmarrin/discordgo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSubmissionArg(t *testing.T) {
	id, rest, err := submissionArg("publish:42:watermark")
	require.NoError(t, err)
	assert.Equal(t, int64(42), id)
	assert.Equal(t, []string{"watermark"}, rest)

	_, _, err = submissionArg("reject")
	assert.Error(t, err)
	_, _, err = submissionArg("reject:abc")
	assert.Error(t, err)
}

func TestModeratorMessage(t *testing.T) {
	assert.Equal(t, "Moderators only! 🚫", moderatorMessage(moderation.ErrUnauthorized))
	assert.Equal(t, "This submission has already been handled.",
		moderatorMessage(fmt.Errorf("db: %w", model.ErrAlreadyActioned)))
	assert.Contains(t, moderatorMessage(fmt.Errorf("%w: timeout", moderation.ErrDelivery)), "Delivery failed")
}

func TestFormatStats(t *testing.T) {
	text := formatStats(moderation.Stats{
		Day: []model.CategoryCount{{Category: model.CategoryNews, Count: 2}},
		All: []model.CategoryCount{{Category: model.CategoryNews, Count: 5}, {Category: model.CategoryAd, Count: 1}},
	})
	assert.Contains(t, text, "Last day:\n📰 news: 2")
	assert.Contains(t, text, "Last week:\nnone")
	assert.Contains(t, text, "📢 ad: 1")
}

func TestFormatList(t *testing.T) {
	assert.Contains(t, formatList(model.CategoryAd, nil), "Nothing here yet")

	text := formatList(model.CategoryNews, []*model.Submission{
		{ID: 3, DisplayName: "bob", Content: "first", Status: model.StatusPublished},
		{ID: 2, Anonymous: true, DisplayName: "eve", Content: "second", Status: model.StatusPending},
	})
	assert.Contains(t, text, "ID 3 | @bob | published\nfirst")
	assert.Contains(t, text, "ID 2 | 👻 anonymous | pending")
	assert.NotContains(t, text, "eve")
}

func TestPublishResult(t *testing.T) {
	assert.Equal(t, "✅ Submission #1 published.", publishResult(1, moderation.PublishReport{}))
	assert.Equal(t, "✅ Submission #1 published with 2 file(s), 1 watermarked, 1 sent without watermark.",
		publishResult(1, moderation.PublishReport{Items: 2, Transformed: 1, Fallbacks: 1}))
}

func TestListCategory(t *testing.T) {
	opt := func(name, value string) *discordgo.ApplicationCommandInteractionDataOption {
		return &discordgo.ApplicationCommandInteractionDataOption{
			Name: name, Type: discordgo.ApplicationCommandOptionString, Value: value,
		}
	}

	c, ok := listCategory([]*discordgo.ApplicationCommandInteractionDataOption{opt("category", "ad")})
	assert.True(t, ok)
	assert.Equal(t, model.CategoryAd, c)

	_, ok = listCategory([]*discordgo.ApplicationCommandInteractionDataOption{opt("category", "spam")})
	assert.False(t, ok)
	_, ok = listCategory(nil)
	assert.False(t, ok)
}
