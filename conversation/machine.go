// Package conversation drives a user through choosing a category, sending
// content and confirming it.
package conversation

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"feedbackbot/actor"
	"feedbackbot/model"
	"feedbackbot/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const previewLength = 200

var (
	ErrAdmissionDenied = errors.New("conversation: cooldown active")
	ErrNoDraft         = errors.New("conversation: no submission in progress")
	ErrWrongStep       = errors.New("conversation: action not valid at this step")
	ErrInvalidCategory = errors.New("conversation: unknown category")
	ErrPersistence     = errors.New("conversation: submission could not be saved")
	ErrExpired         = errors.New("conversation: submission expired")
)

// Gate is the per-user cooldown. Allow only checks; Accept starts the
// window once a submission has been stored.
type Gate interface {
	Allow(ctx context.Context, userID string, now time.Time) (bool, error)
	Accept(ctx context.Context, userID string, at time.Time) error
}

// Store persists a confirmed submission with its attachments atomically.
type Store interface {
	SaveSubmission(ctx context.Context, f model.SubmissionFields, atts []model.MediaAttachment) (int64, error)
}

// Notifier is told about every persisted submission exactly once.
type Notifier interface {
	Notify(ctx context.Context, sub *model.Submission)
}

// User identifies the person a draft belongs to.
type User struct {
	ID          string
	DisplayName string
}

// Draft is the in-progress submission of one user.
type Draft struct {
	ID           uuid.UUID
	User         User
	Step         Step
	Category     model.Category
	Anonymous    bool
	Content      string
	Attachments  []model.MediaRef
	LastActivity time.Time
}

// Preview is shown to the user before confirmation.
type Preview struct {
	Category    model.Category
	Content     string
	Attachments int
	Anonymous   bool
}

// Machine holds at most one draft per user. All operations on one user are
// serialized; different users proceed in parallel.
type Machine struct {
	gate     Gate
	store    Store
	notifier Notifier
	timeout  time.Duration
	log      *zap.SugaredLogger

	keys   *actor.Group
	drafts sync.Map // user id -> *Draft

	now func() time.Time
}

func NewMachine(gate Gate, store Store, notifier Notifier, timeout time.Duration, log *zap.SugaredLogger) *Machine {
	return &Machine{
		gate:     gate,
		store:    store,
		notifier: notifier,
		timeout:  timeout,
		log:      log,
		keys:     actor.NewGroup(),
		now:      time.Now,
	}
}

// Start opens a fresh draft at the category choice, replacing any draft in
// progress. Only a user without a live draft goes through admission; a
// denied admission leaves the current state untouched.
func (m *Machine) Start(ctx context.Context, user User) error {
	return m.open(ctx, user, "", StepChoosingCategory)
}

// StartWithCategory opens a fresh draft that already has its category.
func (m *Machine) StartWithCategory(ctx context.Context, user User, category model.Category) error {
	if !category.Valid() {
		return ErrInvalidCategory
	}
	return m.open(ctx, user, category, StepAwaitingContent)
}

func (m *Machine) open(ctx context.Context, user User, category model.Category, step Step) error {
	var err error
	m.keys.Do(user.ID, func() {
		now := m.now()
		old, live := m.live(user.ID, now)
		if !live {
			if err = m.admit(ctx, user.ID, now); err != nil {
				return
			}
		} else {
			m.log.Infow("replacing draft", "user", user.ID, "draft", old.ID)
		}
		m.drafts.Store(user.ID, &Draft{
			ID:           uuid.New(),
			User:         user,
			Step:         step,
			Category:     category,
			LastActivity: now,
		})
	})
	return err
}

// live returns the user's unexpired draft. An expired one is discarded.
func (m *Machine) live(userID string, now time.Time) (*Draft, bool) {
	v, ok := m.drafts.Load(userID)
	if !ok {
		return nil, false
	}
	d := v.(*Draft)
	if m.expired(d, now) {
		m.expire(userID, d)
		return nil, false
	}
	return d, true
}

func (m *Machine) admit(ctx context.Context, userID string, now time.Time) error {
	allowed, err := m.gate.Allow(ctx, userID, now)
	if err != nil {
		return fmt.Errorf("conversation: admission: %w", err)
	}
	if !allowed {
		return ErrAdmissionDenied
	}
	return nil
}

// ChooseCategory records the category and waits for content.
func (m *Machine) ChooseCategory(ctx context.Context, userID string, category model.Category) error {
	return m.update(userID, func(d *Draft) error {
		if d.Step != StepChoosingCategory {
			return ErrWrongStep
		}
		if !category.Valid() {
			return ErrInvalidCategory
		}
		d.Category = category
		d.Step = StepAwaitingContent
		return nil
	})
}

// SetAnonymous toggles whether moderators see the submitter's name.
func (m *Machine) SetAnonymous(ctx context.Context, userID string, anonymous bool) error {
	return m.update(userID, func(d *Draft) error {
		switch d.Step {
		case StepChoosingCategory, StepAwaitingContent, StepConfirming:
			d.Anonymous = anonymous
			return nil
		}
		return ErrWrongStep
	})
}

// Deliver records a batch of fragments as the draft's content. The text is
// the first non-empty caption or text of the batch, and every fragment that
// carries media adds one attachment in batch order.
func (m *Machine) Deliver(ctx context.Context, userID string, batch []model.Fragment) (Preview, error) {
	var p Preview
	err := m.update(userID, func(d *Draft) error {
		if d.Step != StepAwaitingContent {
			return ErrWrongStep
		}
		d.Content = contentOf(batch)
		d.Attachments = d.Attachments[:0]
		for _, f := range batch {
			if ref, ok := f.Attachment(); ok {
				d.Attachments = append(d.Attachments, ref)
			}
		}
		d.Step = StepConfirming
		p = Preview{
			Category:    d.Category,
			Content:     utils.Truncate(d.Content, previewLength),
			Attachments: len(d.Attachments),
			Anonymous:   d.Anonymous,
		}
		return nil
	})
	return p, err
}

func contentOf(batch []model.Fragment) string {
	for _, f := range batch {
		if body := f.Body(); body != "" {
			return body
		}
	}
	return model.NoTextPlaceholder
}

// Confirm persists the draft and notifies moderators. If saving fails the
// draft stays at the confirmation step so the user can try again.
func (m *Machine) Confirm(ctx context.Context, userID string) (*model.Submission, error) {
	var sub *model.Submission
	err := m.update(userID, func(d *Draft) error {
		if d.Step != StepConfirming {
			return ErrWrongStep
		}
		// Another replica may have accepted a submission for this user.
		if err := m.admit(ctx, userID, m.now()); err != nil {
			return err
		}
		s, err := m.persist(ctx, d)
		if err != nil {
			m.log.Errorw("saving submission failed", "user", userID, "draft", d.ID, "error", err)
			return fmt.Errorf("%w: %v", ErrPersistence, err)
		}
		if err := m.gate.Accept(ctx, userID, s.CreatedAt); err != nil {
			m.log.Warnw("recording cooldown failed", "user", userID, "submission", s.ID, "error", err)
		}
		d.Step = StepConfirmed
		m.drafts.Delete(userID)
		sub = s
		return nil
	})
	if err != nil {
		return nil, err
	}

	m.log.Infow("submission confirmed", "id", sub.ID, "user", userID,
		"category", sub.Category, "attachments", len(sub.Attachments))
	m.notifier.Notify(ctx, sub)
	return sub, nil
}

func (m *Machine) persist(ctx context.Context, d *Draft) (*model.Submission, error) {
	fields := model.SubmissionFields{
		UserID:      d.User.ID,
		DisplayName: d.User.DisplayName,
		Category:    d.Category,
		Content:     d.Content,
		Anonymous:   d.Anonymous,
		CreatedAt:   m.now(),
	}
	atts := make([]model.MediaAttachment, len(d.Attachments))
	for i, ref := range d.Attachments {
		atts[i] = model.MediaAttachment{Ref: ref.Ref, Kind: ref.Kind, Filename: ref.Filename, Position: i}
	}

	id, err := m.store.SaveSubmission(ctx, fields, atts)
	if err != nil {
		return nil, err
	}
	for i := range atts {
		atts[i].SubmissionID = id
	}
	return &model.Submission{
		ID:          id,
		UserID:      fields.UserID,
		DisplayName: fields.DisplayName,
		Category:    fields.Category,
		Content:     fields.Content,
		Anonymous:   fields.Anonymous,
		CreatedAt:   fields.CreatedAt,
		Status:      model.StatusPending,
		Attachments: atts,
	}, nil
}

// Cancel discards the draft without writing anything.
func (m *Machine) Cancel(ctx context.Context, userID string) error {
	return m.update(userID, func(d *Draft) error {
		switch d.Step {
		case StepAwaitingContent, StepConfirming:
			d.Step = StepCancelled
			m.drafts.Delete(userID)
			return nil
		}
		return ErrWrongStep
	})
}

// State returns a copy of the user's draft. A missing or expired draft is
// reported as StepIdle.
func (m *Machine) State(userID string) Draft {
	var d Draft
	m.keys.Do(userID, func() {
		v, ok := m.drafts.Load(userID)
		if !ok || m.expired(v.(*Draft), m.now()) {
			d = Draft{Step: StepIdle}
			return
		}
		d = *v.(*Draft)
		d.Attachments = append([]model.MediaRef(nil), d.Attachments...)
	})
	return d
}

// update runs fn on the live draft of userID. An expired draft is discarded
// and reported as ErrExpired.
func (m *Machine) update(userID string, fn func(d *Draft) error) error {
	var err error
	m.keys.Do(userID, func() {
		now := m.now()
		v, ok := m.drafts.Load(userID)
		if !ok {
			err = ErrNoDraft
			return
		}
		d := v.(*Draft)
		if m.expired(d, now) {
			m.expire(userID, d)
			err = ErrExpired
			return
		}
		if err = fn(d); err == nil || errors.Is(err, ErrPersistence) {
			d.LastActivity = now
		}
	})
	return err
}

func (m *Machine) expired(d *Draft, now time.Time) bool {
	return m.timeout > 0 && now.Sub(d.LastActivity) >= m.timeout
}

func (m *Machine) expire(userID string, d *Draft) {
	d.Step = StepExpired
	m.drafts.Delete(userID)
	m.log.Infow("draft expired", "user", userID, "draft", d.ID)
}
