package transport

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/bwmarrin/discordgo"
)

const attachmentScheme = "discord-attachment:"

// ErrAttachmentGone is returned when the message or attachment behind a
// reference no longer exists.
var ErrAttachmentGone = errors.New("transport: attachment no longer exists")

// AttachmentRef names an attachment by ids that stay valid, unlike the
// signed CDN url Discord hands out with the message.
func AttachmentRef(channelID, messageID, attachmentID string) string {
	return attachmentScheme + channelID + "/" + messageID + "/" + attachmentID
}

func parseAttachmentRef(ref string) (channelID, messageID, attachmentID string, ok bool) {
	rest, found := strings.CutPrefix(ref, attachmentScheme)
	if !found {
		return "", "", "", false
	}
	parts := strings.Split(rest, "/")
	if len(parts) != 3 || parts[0] == "" || parts[1] == "" || parts[2] == "" {
		return "", "", "", false
	}
	return parts[0], parts[1], parts[2], true
}

type messageGetter interface {
	ChannelMessage(channelID, messageID string, options ...discordgo.RequestOption) (*discordgo.Message, error)
}

// AttachmentFetcher resolves attachment references to a fresh url before
// downloading. Any other reference is downloaded as is.
type AttachmentFetcher struct {
	messages messageGetter
	download Fetcher
}

func NewAttachmentFetcher(session *discordgo.Session, download Fetcher) *AttachmentFetcher {
	return &AttachmentFetcher{messages: session, download: download}
}

func (f *AttachmentFetcher) Fetch(ctx context.Context, ref string) ([]byte, error) {
	url, err := f.resolve(ctx, ref)
	if err != nil {
		return nil, err
	}
	return f.download.Fetch(ctx, url)
}

func (f *AttachmentFetcher) resolve(ctx context.Context, ref string) (string, error) {
	channelID, messageID, attachmentID, ok := parseAttachmentRef(ref)
	if !ok {
		return ref, nil
	}
	msg, err := f.messages.ChannelMessage(channelID, messageID, discordgo.WithContext(ctx))
	if err != nil {
		var rerr *discordgo.RESTError
		if errors.As(err, &rerr) && rerr.Response != nil && rerr.Response.StatusCode == http.StatusNotFound {
			return "", fmt.Errorf("%w: message %s", ErrAttachmentGone, messageID)
		}
		return "", fmt.Errorf("transport: load message %s: %w", messageID, err)
	}
	for _, a := range msg.Attachments {
		if a.ID == attachmentID {
			return a.URL, nil
		}
	}
	return "", fmt.Errorf("%w: %s in message %s", ErrAttachmentGone, attachmentID, messageID)
}
