package transport

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"path"
	"strings"

	"feedbackbot/model"
	"feedbackbot/utils"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"
)

const (
	maxFilesPerMessage   = 10
	maxControlsPerRow    = 5
	maxMessageContentLen = 2000
)

// Discord delivers payloads through a discordgo session. Hosted items are
// downloaded and uploaded again since Discord cannot reuse another
// message's attachment.
type Discord struct {
	session *discordgo.Session
	fetcher Fetcher
	log     *zap.SugaredLogger
}

func NewDiscord(session *discordgo.Session, fetcher Fetcher, log *zap.SugaredLogger) *Discord {
	return &Discord{session: session, fetcher: fetcher, log: log}
}

func (d *Discord) SendToIdentity(ctx context.Context, identity string, p Payload) (string, error) {
	ch, err := d.session.UserChannelCreate(identity, discordgo.WithContext(ctx))
	if err != nil {
		return "", fmt.Errorf("transport: open DM with %s: %w", identity, err)
	}
	return d.send(ctx, ch.ID, p, false)
}

func (d *Discord) SendGroup(ctx context.Context, identities []string, p Payload) error {
	var errs []error
	for _, id := range identities {
		if _, err := d.SendToIdentity(ctx, id, p); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Publish re-uploads every item. Nothing is posted if any item cannot be
// fetched.
func (d *Discord) Publish(ctx context.Context, target string, p Payload) error {
	_, err := d.send(ctx, target, p, true)
	return err
}

// send posts p to a channel and returns the id of the first message.
func (d *Discord) send(ctx context.Context, channelID string, p Payload, strict bool) (string, error) {
	files, links, err := d.files(ctx, p.Attachments, strict)
	if err != nil {
		return "", err
	}
	content := p.Text
	if len(links) > 0 {
		content = strings.TrimSpace(content + "\n" + strings.Join(links, "\n"))
	}

	first := &discordgo.MessageSend{
		Content:    utils.Truncate(content, maxMessageContentLen),
		Components: Components(p.Controls),
	}
	if len(files) > maxFilesPerMessage {
		first.Files, files = files[:maxFilesPerMessage], files[maxFilesPerMessage:]
	} else {
		first.Files, files = files, nil
	}

	msg, err := d.session.ChannelMessageSendComplex(channelID, first, discordgo.WithContext(ctx))
	if err != nil {
		return "", fmt.Errorf("transport: send to %s: %w", channelID, err)
	}

	for len(files) > 0 {
		n := min(len(files), maxFilesPerMessage)
		_, err := d.session.ChannelMessageSendComplex(channelID,
			&discordgo.MessageSend{Files: files[:n]}, discordgo.WithContext(ctx))
		if err != nil {
			return msg.ID, fmt.Errorf("transport: send files to %s: %w", channelID, err)
		}
		files = files[n:]
	}
	return msg.ID, nil
}

// files turns items into uploads. Unless strict, a hosted item that cannot
// be fetched is mentioned in the text instead.
func (d *Discord) files(ctx context.Context, items []Item, strict bool) ([]*discordgo.File, []string, error) {
	var (
		files []*discordgo.File
		links []string
	)
	for i, it := range items {
		data := it.Data
		if !it.Inline() {
			b, err := d.fetcher.Fetch(ctx, it.Ref)
			if err != nil {
				if strict {
					return nil, nil, fmt.Errorf("transport: fetch %s: %w", fileName(it, i), err)
				}
				d.log.Warnw("fetch attachment failed, linking instead", "ref", it.Ref, "error", err)
				links = append(links, fallbackLink(it, i))
				continue
			}
			data = b
		}
		files = append(files, &discordgo.File{
			Name:        fileName(it, i),
			ContentType: contentType(it),
			Reader:      bytes.NewReader(data),
		})
	}
	return files, links, nil
}

func fallbackLink(it Item, i int) string {
	if strings.HasPrefix(it.Ref, "http://") || strings.HasPrefix(it.Ref, "https://") {
		return it.Ref
	}
	return "📎 " + fileName(it, i) + " (unavailable)"
}

func fileName(it Item, i int) string {
	if it.Filename != "" {
		return path.Base(it.Filename)
	}
	switch it.Kind {
	case model.MediaPhoto:
		return fmt.Sprintf("photo-%d.jpg", i+1)
	case model.MediaVideo:
		return fmt.Sprintf("video-%d.mp4", i+1)
	}
	return fmt.Sprintf("file-%d", i+1)
}

func contentType(it Item) string {
	switch it.Kind {
	case model.MediaPhoto:
		return "image/jpeg"
	case model.MediaVideo:
		return "video/mp4"
	}
	return "application/octet-stream"
}

// Components lays controls out in rows of buttons.
func Components(controls []Control) []discordgo.MessageComponent {
	var rows []discordgo.MessageComponent
	for start := 0; start < len(controls); start += maxControlsPerRow {
		end := min(start+maxControlsPerRow, len(controls))
		row := discordgo.ActionsRow{}
		for _, c := range controls[start:end] {
			row.Components = append(row.Components, discordgo.Button{
				Label:    c.Label,
				Style:    buttonStyle(c.Style),
				CustomID: c.ID,
			})
		}
		rows = append(rows, row)
	}
	return rows
}

func buttonStyle(s ControlStyle) discordgo.ButtonStyle {
	switch s {
	case StyleSuccess:
		return discordgo.SuccessButton
	case StyleDanger:
		return discordgo.DangerButton
	case StyleSecondary:
		return discordgo.SecondaryButton
	}
	return discordgo.PrimaryButton
}
