package moderation

import (
	"fmt"
	"strconv"
	"strings"

	"feedbackbot/model"
	"feedbackbot/transport"
	"feedbackbot/utils"
	"feedbackbot/watermark"
)

const summaryContentLimit = 900

// Component id prefixes of the moderator controls.
const (
	PrefixReply       = "reply_to"
	PrefixQuickReply  = "quick_reply"
	PrefixCustomReply = "reply_custom"
	PrefixReplyModal  = "reply_modal"
	PrefixPublish     = "publish"
	PrefixReject      = "reject"
)

// Summary is the text moderators see for a new submission.
func Summary(sub *model.Submission) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s **%s**", sub.Category.Emoji(), sub.Category.Label())
	if sub.Anonymous {
		b.WriteString(" (👻 anonymous)")
	} else {
		name := sub.DisplayName
		if name == "" {
			name = "no username"
		}
		fmt.Fprintf(&b, " from @%s (ID: %s)", name, sub.UserID)
	}
	fmt.Fprintf(&b, "\nSubmission #%d", sub.ID)
	if n := len(sub.Attachments); n > 1 {
		fmt.Fprintf(&b, " · album of %d files", n)
	}
	b.WriteString("\n\n")
	b.WriteString(utils.Truncate(sub.Content, summaryContentLimit))
	return b.String()
}

// Controls are the actions offered next to a submission summary.
func Controls(sub *model.Submission) []transport.Control {
	id := strconv.FormatInt(sub.ID, 10)
	controls := []transport.Control{
		{Label: "💬 Reply", ID: PrefixReply + ":" + id, Style: transport.StylePrimary},
		{Label: "✅ Publish", ID: PrefixPublish + ":" + id + ":" + watermark.ModeNone.String(), Style: transport.StyleSuccess},
	}
	if hasVisualMedia(sub) {
		controls = append(controls, transport.Control{
			Label: "🎨 Publish with watermark",
			ID:    PrefixPublish + ":" + id + ":" + watermark.ModeWatermark.String(),
			Style: transport.StyleSuccess,
		})
	}
	return append(controls, transport.Control{Label: "🚫 Reject", ID: PrefixReject + ":" + id, Style: transport.StyleDanger})
}

// ReplyControls offer the canned replies and a custom answer.
func ReplyControls(submissionID int64) []transport.Control {
	id := strconv.FormatInt(submissionID, 10)
	controls := make([]transport.Control, 0, len(QuickReplies)+1)
	for _, q := range QuickReplies {
		controls = append(controls, transport.Control{
			Label: q.Label,
			ID:    PrefixQuickReply + ":" + id + ":" + q.Key,
			Style: transport.StyleSecondary,
		})
	}
	return append(controls, transport.Control{
		Label: "💬 Custom reply",
		ID:    PrefixCustomReply + ":" + id,
		Style: transport.StylePrimary,
	})
}

func hasVisualMedia(sub *model.Submission) bool {
	for _, a := range sub.Attachments {
		if a.Kind == model.MediaPhoto || a.Kind == model.MediaVideo {
			return true
		}
	}
	return false
}

// PublishCaption is the text that goes out with a published submission.
func PublishCaption(tag string, sub *model.Submission) string {
	if sub.Content == "" || sub.Content == model.NoTextPlaceholder {
		return tag
	}
	if tag == "" {
		return sub.Content
	}
	return tag + "\n\n" + sub.Content
}

func replyText(text string) string {
	return "📬 **A moderator replied to your message!**\n\n" + text
}
