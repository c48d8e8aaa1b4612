// Package moderation routes submissions to moderators and carries out
// their replies, publications and rejections.
package moderation

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"
	"time"

	"feedbackbot/events"
	"feedbackbot/model"
	"feedbackbot/transport"
	"feedbackbot/watermark"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const (
	defaultListLimit = 20
	transformWorkers = 4
)

var (
	ErrUnauthorized      = errors.New("moderation: not a moderator")
	ErrDelivery          = errors.New("moderation: delivery failed")
	ErrEmptyReply        = errors.New("moderation: reply text is empty")
	ErrUnknownQuickReply = errors.New("moderation: unknown quick reply")
	ErrInvalidCategory   = errors.New("moderation: unknown category")
)

// Store is the part of the feedback store moderation works with.
type Store interface {
	GetSubmission(ctx context.Context, id int64) (*model.Submission, error)
	AddReply(ctx context.Context, r model.ReplyRecord) (int64, error)
	TransitionStatus(ctx context.Context, id int64, from, to model.Status) error
	SetEchoMessage(ctx context.Context, id int64, messageID string) error
	ListByCategory(ctx context.Context, category model.Category, limit int) ([]*model.Submission, error)
	AggregateCounts(ctx context.Context, period model.Period, now time.Time) ([]model.CategoryCount, error)
}

// Transformer rewrites media bytes for publication.
type Transformer interface {
	Transform(ctx context.Context, data []byte, kind model.MediaKind, mode watermark.Mode) ([]byte, error)
}

// Deps are the collaborators of a Coordinator.
type Deps struct {
	Auth        *Authorizer
	Store       Store
	Sender      transport.Sender
	Fetcher     transport.Fetcher
	Transformer Transformer
	Events      events.Publisher
}

// Coordinator carries out moderator actions. Every action other than
// Notify is authorized first and has no side effect when denied.
type Coordinator struct {
	Deps
	publishChannel string
	publishTag     string
	log            *zap.SugaredLogger
	now            func() time.Time
}

func NewCoordinator(deps Deps, cfg model.Moderation, log *zap.SugaredLogger) *Coordinator {
	if deps.Events == nil {
		deps.Events = events.Nop{}
	}
	return &Coordinator{
		Deps:           deps,
		publishChannel: cfg.PublishChannel,
		publishTag:     cfg.PublishTag,
		log:            log,
		now:            time.Now,
	}
}

func (c *Coordinator) authorize(actor Actor) error {
	if !c.Auth.Allowed(actor) {
		c.log.Warnw("unauthorized moderation attempt", "actor", actor.ID)
		return ErrUnauthorized
	}
	return nil
}

func (c *Coordinator) load(ctx context.Context, id int64) (*model.Submission, error) {
	sub, err := c.Store.GetSubmission(ctx, id)
	if err != nil {
		return nil, err
	}
	if sub == nil {
		return nil, fmt.Errorf("submission %d: %w", id, model.ErrNotFound)
	}
	return sub, nil
}

func (c *Coordinator) emit(ctx context.Context, ev events.ModerationEvent) {
	if err := c.Events.Emit(ctx, ev); err != nil {
		c.log.Warnw("emitting moderation event failed", "type", ev.Type, "submission", ev.SubmissionID, "error", err)
	}
}

// Notify sends a new submission to every moderator. A moderator who cannot
// be reached is logged and skipped.
func (c *Coordinator) Notify(ctx context.Context, sub *model.Submission) {
	summary := Summary(sub)
	controls := Controls(sub)
	items := transport.ItemsFromAttachments(sub.Attachments)

	var echo string
	for _, mod := range c.Auth.Moderators() {
		msgID, err := c.notifyOne(ctx, mod, summary, controls, items)
		if err != nil {
			c.log.Errorw("notifying moderator failed", "moderator", mod, "submission", sub.ID, "error", err)
			continue
		}
		if echo == "" {
			echo = msgID
		}
	}

	if echo != "" {
		if err := c.Store.SetEchoMessage(ctx, sub.ID, echo); err != nil {
			c.log.Warnw("storing echo message failed", "submission", sub.ID, "error", err)
		}
	}
	c.emit(ctx, events.New(events.TypeNotified, sub.ID, "", c.now()))
}

// notifyOne sends one message when there is at most one attachment, else
// the grouped media followed by the summary with its controls.
func (c *Coordinator) notifyOne(ctx context.Context, mod, summary string, controls []transport.Control, items []transport.Item) (string, error) {
	if len(items) <= 1 {
		return c.Sender.SendToIdentity(ctx, mod, transport.Payload{
			Text:        summary,
			Attachments: items,
			Controls:    controls,
		})
	}
	if _, err := c.Sender.SendToIdentity(ctx, mod, transport.Payload{Attachments: items}); err != nil {
		return "", err
	}
	return c.Sender.SendToIdentity(ctx, mod, transport.Payload{Text: summary, Controls: controls})
}

// Get loads a submission for a moderator.
func (c *Coordinator) Get(ctx context.Context, actor Actor, id int64) (*model.Submission, error) {
	if err := c.authorize(actor); err != nil {
		return nil, err
	}
	return c.load(ctx, id)
}

// Reply records text as an answer to a submission and delivers it to the
// submitter. Replies can be sent any number of times.
func (c *Coordinator) Reply(ctx context.Context, actor Actor, id int64, text string) (*model.Submission, error) {
	if err := c.authorize(actor); err != nil {
		return nil, err
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, ErrEmptyReply
	}
	sub, err := c.load(ctx, id)
	if err != nil {
		return nil, err
	}

	if _, err := c.Store.AddReply(ctx, model.ReplyRecord{
		SubmissionID: id,
		ModeratorID:  actor.ID,
		Text:         text,
		CreatedAt:    c.now(),
	}); err != nil {
		return nil, err
	}

	if _, err := c.Sender.SendToIdentity(ctx, sub.UserID, transport.Payload{Text: replyText(text)}); err != nil {
		return sub, fmt.Errorf("%w: %v", ErrDelivery, err)
	}
	c.log.Infow("reply sent", "submission", id, "moderator", actor.ID)
	c.emit(ctx, events.New(events.TypeReplied, id, actor.ID, c.now()))
	return sub, nil
}

// QuickReply sends one of the canned replies.
func (c *Coordinator) QuickReply(ctx context.Context, actor Actor, id int64, key string) (*model.Submission, error) {
	if err := c.authorize(actor); err != nil {
		return nil, err
	}
	q, ok := quickReply(key)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownQuickReply, key)
	}
	return c.Reply(ctx, actor, id, q.Text)
}

// PublishReport describes what a publication sent out.
type PublishReport struct {
	Items       int
	Transformed int
	Fallbacks   int
}

// Publish posts a pending submission to the publication channel. Only the
// first publish of a submission goes through; later ones get
// model.ErrAlreadyActioned.
func (c *Coordinator) Publish(ctx context.Context, actor Actor, id int64, mode watermark.Mode) (PublishReport, error) {
	if err := c.authorize(actor); err != nil {
		return PublishReport{}, err
	}
	sub, err := c.load(ctx, id)
	if err != nil {
		return PublishReport{}, err
	}
	if err := c.Store.TransitionStatus(ctx, id, model.StatusPending, model.StatusPublished); err != nil {
		return PublishReport{}, err
	}

	items, report := c.prepare(ctx, sub.Attachments, mode)
	payload := transport.Payload{
		Text:        PublishCaption(c.publishTag, sub),
		Attachments: items,
	}
	if err := c.Sender.Publish(ctx, c.publishChannel, payload); err != nil {
		if rerr := c.Store.TransitionStatus(ctx, id, model.StatusPublished, model.StatusPending); rerr != nil {
			c.log.Errorw("reverting publish status failed", "submission", id, "error", rerr)
		}
		return report, fmt.Errorf("%w: %v", ErrDelivery, err)
	}

	c.log.Infow("submission published", "submission", id, "moderator", actor.ID, "mode", mode,
		"items", report.Items, "transformed", report.Transformed, "fallbacks", report.Fallbacks)
	ev := events.New(events.TypePublished, id, actor.ID, c.now())
	ev.Mode = mode.String()
	c.emit(ctx, ev)
	return report, nil
}

// prepare turns attachments into publish items, in order. With a watermark
// every photo and video is transformed concurrently; any item that fails
// falls back to its original reference.
func (c *Coordinator) prepare(ctx context.Context, atts []model.MediaAttachment, mode watermark.Mode) ([]transport.Item, PublishReport) {
	items := transport.ItemsFromAttachments(atts)
	report := PublishReport{Items: len(items)}
	if mode == watermark.ModeNone || len(items) == 0 {
		return items, report
	}

	transformed := make([]bool, len(items))
	var g errgroup.Group
	g.SetLimit(transformWorkers)
	for i, it := range items {
		if it.Kind == model.MediaDocument {
			continue
		}
		i, it := i, it
		g.Go(func() error {
			out, err := c.transform(ctx, it, mode)
			if err != nil {
				c.log.Warnw("watermark failed, publishing original", "ref", it.Ref, "kind", it.Kind, "error", err)
				return nil
			}
			items[i] = out
			transformed[i] = true
			return nil
		})
	}
	g.Wait()

	for i, ok := range transformed {
		switch {
		case ok:
			report.Transformed++
		case items[i].Kind != model.MediaDocument:
			report.Fallbacks++
		}
	}
	return items, report
}

func (c *Coordinator) transform(ctx context.Context, it transport.Item, mode watermark.Mode) (transport.Item, error) {
	data, err := c.Fetcher.Fetch(ctx, it.Ref)
	if err != nil {
		return it, fmt.Errorf("fetch: %w", err)
	}
	out, err := c.Transformer.Transform(ctx, data, it.Kind, mode)
	if err != nil {
		return it, err
	}
	return transport.Item{
		Kind:     it.Kind,
		Filename: transformedName(it),
		Data:     out,
	}, nil
}

func transformedName(it transport.Item) string {
	name := strings.TrimSuffix(path.Base(it.Filename), path.Ext(it.Filename))
	if it.Filename == "" || name == "" || name == "." {
		name = "media"
	}
	if it.Kind == model.MediaPhoto {
		return name + ".jpg"
	}
	return name + ".mp4"
}

// Reject marks a pending submission as rejected. Nothing is sent.
func (c *Coordinator) Reject(ctx context.Context, actor Actor, id int64) error {
	if err := c.authorize(actor); err != nil {
		return err
	}
	if err := c.Store.TransitionStatus(ctx, id, model.StatusPending, model.StatusRejected); err != nil {
		return err
	}
	c.log.Infow("submission rejected", "submission", id, "moderator", actor.ID)
	c.emit(ctx, events.New(events.TypeRejected, id, actor.ID, c.now()))
	return nil
}

// Recent lists the newest submissions of a category.
func (c *Coordinator) Recent(ctx context.Context, actor Actor, category model.Category, limit int) ([]*model.Submission, error) {
	if err := c.authorize(actor); err != nil {
		return nil, err
	}
	if !category.Valid() {
		return nil, ErrInvalidCategory
	}
	if limit <= 0 {
		limit = defaultListLimit
	}
	return c.Store.ListByCategory(ctx, category, limit)
}

// Stats counts submissions per category over the last day, the last week
// and all time.
type Stats struct {
	Day  []model.CategoryCount
	Week []model.CategoryCount
	All  []model.CategoryCount
}

func (c *Coordinator) Stats(ctx context.Context, actor Actor) (Stats, error) {
	if err := c.authorize(actor); err != nil {
		return Stats{}, err
	}
	now := c.now()
	var (
		s   Stats
		err error
	)
	if s.Day, err = c.Store.AggregateCounts(ctx, model.PeriodDay, now); err != nil {
		return Stats{}, err
	}
	if s.Week, err = c.Store.AggregateCounts(ctx, model.PeriodWeek, now); err != nil {
		return Stats{}, err
	}
	if s.All, err = c.Store.AggregateCounts(ctx, model.PeriodAll, now); err != nil {
		return Stats{}, err
	}
	return s, nil
}
