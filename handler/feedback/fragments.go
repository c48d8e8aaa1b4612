package feedback

import (
	"strings"
	"time"

	"feedbackbot/handler"
	"feedbackbot/model"
	"feedbackbot/transport"

	"github.com/bwmarrin/discordgo"
)

// Fragments converts a direct message into album fragments. A message with
// several attachments is one group keyed by its id, ordered by attachment
// index; the text rides on the first attachment.
func Fragments(m *discordgo.Message, now time.Time) (string, []model.Fragment) {
	base := model.Fragment{
		UserID:      m.Author.ID,
		DisplayName: handler.DisplayName(m.Author),
		ChannelID:   m.ChannelID,
		MessageID:   m.ID,
		ReceivedAt:  now,
	}

	switch len(m.Attachments) {
	case 0:
		f := base
		f.Text = m.Content
		return "", []model.Fragment{f}
	case 1:
		f := withAttachment(base, m, m.Attachments[0])
		f.Caption = m.Content
		return "", []model.Fragment{f}
	}

	frags := make([]model.Fragment, 0, len(m.Attachments))
	for i, a := range m.Attachments {
		f := withAttachment(base, m, a)
		f.GroupID = m.ID
		f.Sequence = int64(i)
		if i == 0 {
			f.Caption = m.Content
		}
		frags = append(frags, f)
	}
	return m.ID, frags
}

// withAttachment stores the attachment by id; the url Discord sends along is
// signed and expires.
func withAttachment(f model.Fragment, m *discordgo.Message, a *discordgo.MessageAttachment) model.Fragment {
	ref := transport.AttachmentRef(m.ChannelID, m.ID, a.ID)
	switch kind := mediaKind(a); kind {
	case model.MediaPhoto:
		f.Photo = []model.PhotoVariant{{Ref: ref, Filename: a.Filename, Width: a.Width, Height: a.Height}}
	default:
		f.File = &model.MediaRef{Ref: ref, Kind: kind, Filename: a.Filename}
	}
	return f
}

func mediaKind(a *discordgo.MessageAttachment) model.MediaKind {
	switch ct := strings.ToLower(a.ContentType); {
	case strings.HasPrefix(ct, "image/"):
		return model.MediaPhoto
	case strings.HasPrefix(ct, "video/"):
		return model.MediaVideo
	}
	return model.MediaDocument
}
