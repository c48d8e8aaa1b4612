// Package admission decides whether a user may start a new submission.
package admission

import (
	"context"
	"fmt"
	"sync"
	"time"

	"feedbackbot/actor"
)

// Store keeps the time of each user's last accepted submission.
type Store interface {
	LastAccepted(ctx context.Context, userID string) (time.Time, bool, error)
	SetLastAccepted(ctx context.Context, userID string, at time.Time) error
}

// Controller is a per-user cooldown gate.
type Controller struct {
	store    Store
	cooldown time.Duration
	keys     *actor.Group
}

func NewController(store Store, cooldown time.Duration) *Controller {
	return &Controller{store: store, cooldown: cooldown, keys: actor.NewGroup()}
}

// Cooldown returns the configured window.
func (c *Controller) Cooldown() time.Duration {
	return c.cooldown
}

// Allow reports whether userID may start a submission at now. It changes
// nothing; the timestamp moves only when a submission is accepted.
func (c *Controller) Allow(ctx context.Context, userID string, now time.Time) (bool, error) {
	var (
		allowed bool
		err     error
	)
	c.keys.Do(userID, func() {
		allowed, err = c.allow(ctx, userID, now)
	})
	return allowed, err
}

func (c *Controller) allow(ctx context.Context, userID string, now time.Time) (bool, error) {
	last, ok, err := c.store.LastAccepted(ctx, userID)
	if err != nil {
		return false, fmt.Errorf("admission: load %s: %w", userID, err)
	}
	if !ok {
		return true, nil
	}
	// A clock running backwards counts as inside the window.
	if now.Before(last) {
		return false, nil
	}
	return now.Sub(last) >= c.cooldown, nil
}

// Accept records at as the time of userID's last accepted submission.
func (c *Controller) Accept(ctx context.Context, userID string, at time.Time) error {
	var err error
	c.keys.Do(userID, func() {
		if serr := c.store.SetLastAccepted(ctx, userID, at); serr != nil {
			err = fmt.Errorf("admission: record %s: %w", userID, serr)
		}
	})
	return err
}

// Remaining returns how long userID still has to wait at now.
func (c *Controller) Remaining(ctx context.Context, userID string, now time.Time) (time.Duration, error) {
	last, ok, err := c.store.LastAccepted(ctx, userID)
	if err != nil || !ok {
		return 0, err
	}
	left := c.cooldown - now.Sub(last)
	if left < 0 {
		return 0, nil
	}
	return left, nil
}

// MemoryStore keeps entries in process memory.
type MemoryStore struct {
	mu      sync.Mutex
	entries map[string]time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{entries: make(map[string]time.Time)}
}

func (s *MemoryStore) LastAccepted(_ context.Context, userID string) (time.Time, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.entries[userID]
	return t, ok, nil
}

func (s *MemoryStore) SetLastAccepted(_ context.Context, userID string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if prev, ok := s.entries[userID]; ok && at.Before(prev) {
		return nil
	}
	s.entries[userID] = at
	return nil
}
