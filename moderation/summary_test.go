package moderation

import (
	"strings"
	"testing"
	"unicode/utf8"

	"feedbackbot/model"
	"feedbackbot/transport"

	"github.com/stretchr/testify/assert"
)

func TestSummary(t *testing.T) {
	sub := &model.Submission{
		ID: 7, UserID: "42", DisplayName: "bob", Category: model.CategoryAd,
		Content: strings.Repeat("я", 1200),
	}
	s := Summary(sub)
	assert.True(t, strings.HasPrefix(s, "📢 **New AD request** from @bob (ID: 42)"))
	assert.Contains(t, s, "Submission #7")

	body := s[strings.Index(s, "\n\n")+2:]
	assert.Equal(t, summaryContentLimit, utf8.RuneCountInString(body))

	sub.DisplayName = ""
	assert.Contains(t, Summary(sub), "@no username")
}

func TestControls(t *testing.T) {
	text := &model.Submission{ID: 3}
	ids := controlIDs(Controls(text))
	assert.Equal(t, []string{"reply_to:3", "publish:3:original", "reject:3"}, ids)

	withPhoto := &model.Submission{ID: 3, Attachments: []model.MediaAttachment{{Kind: model.MediaPhoto}}}
	assert.Contains(t, controlIDs(Controls(withPhoto)), "publish:3:watermark")

	ids = controlIDs(ReplyControls(3))
	assert.Equal(t, "quick_reply:3:published", ids[0])
	assert.Equal(t, "reply_custom:3", ids[len(ids)-1])
}

func TestPublishCaption(t *testing.T) {
	assert.Equal(t, "#feedback\n\nhi", PublishCaption("#feedback", &model.Submission{Content: "hi"}))
	assert.Equal(t, "#feedback", PublishCaption("#feedback", &model.Submission{Content: model.NoTextPlaceholder}))
	assert.Equal(t, "hi", PublishCaption("", &model.Submission{Content: "hi"}))
}

func TestAuthorizer(t *testing.T) {
	a := NewAuthorizer([]string{"1"}, []string{"r"})
	assert.True(t, a.Allowed(Actor{ID: "1"}))
	assert.True(t, a.Allowed(Actor{ID: "2", Roles: []string{"x", "r"}}))
	assert.False(t, a.Allowed(Actor{ID: "2", Roles: []string{"x"}}))
	assert.False(t, a.IsModerator(""))
	assert.Equal(t, []string{"1"}, a.Moderators())
}

func controlIDs(cs []transport.Control) []string {
	ids := make([]string, len(cs))
	for i, c := range cs {
		ids[i] = c.ID
	}
	return ids
}
