// Package transport is the outbound side of the bot: delivering payloads
// to users, moderators and the publication channel.
package transport

import (
	"context"

	"feedbackbot/model"
)

// Item is one media entry of a payload. It either points at an already
// hosted file (Ref) or carries new bytes (Data).
type Item struct {
	Ref      string
	Kind     model.MediaKind
	Filename string
	Data     []byte
}

// Inline reports whether the item carries its own bytes.
func (i Item) Inline() bool {
	return len(i.Data) > 0
}

// ControlStyle picks the look of an action control.
type ControlStyle int

const (
	StylePrimary ControlStyle = iota
	StyleSuccess
	StyleDanger
	StyleSecondary
)

// Control is an action affordance attached to a message.
type Control struct {
	Label string
	ID    string
	Style ControlStyle
}

// Payload is what gets delivered: optional text, media and controls.
// More than one attachment is delivered as one grouped unit.
type Payload struct {
	Text        string
	Attachments []Item
	Controls    []Control
}

// Sender delivers payloads.
type Sender interface {
	// SendToIdentity delivers p privately to a user and returns the id of
	// the message that carries the text and controls.
	SendToIdentity(ctx context.Context, identity string, p Payload) (string, error)
	// SendGroup delivers p to every identity; failures are joined.
	SendGroup(ctx context.Context, identities []string, p Payload) error
	// Publish delivers p to a publication target. It fails rather than
	// post without one of the attachments.
	Publish(ctx context.Context, target string, p Payload) error
}

// Fetcher downloads the bytes behind a media reference.
type Fetcher interface {
	Fetch(ctx context.Context, ref string) ([]byte, error)
}

// ItemsFromAttachments converts stored attachments into payload items
// preserving their order.
func ItemsFromAttachments(atts []model.MediaAttachment) []Item {
	items := make([]Item, 0, len(atts))
	for _, a := range atts {
		items = append(items, Item{Ref: a.Ref, Kind: a.Kind, Filename: a.Filename})
	}
	return items
}
