package admission

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestController_FirstSubmissionAllowed(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	c := NewController(store, 10*time.Second)
	now := time.Unix(1_700_000_000, 0)

	ok, err := c.Allow(ctx, "u1", now)
	require.NoError(t, err)
	assert.True(t, ok)

	_, found, _ := store.LastAccepted(ctx, "u1")
	assert.False(t, found, "checking records nothing")
}

func TestController_AcceptStartsCooldown(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	c := NewController(store, 10*time.Second)
	first := time.Unix(1_700_000_000, 0)

	require.NoError(t, c.Accept(ctx, "u1", first))
	last, found, _ := store.LastAccepted(ctx, "u1")
	require.True(t, found)
	assert.Equal(t, first, last)

	ok, err := c.Allow(ctx, "u1", first.Add(5*time.Second))
	require.NoError(t, err)
	assert.False(t, ok)

	last, _, _ = store.LastAccepted(ctx, "u1")
	assert.Equal(t, first, last, "denial must not touch the stored timestamp")
}

func TestController_Boundaries(t *testing.T) {
	tests := []struct {
		name    string
		elapsed time.Duration
		want    bool
	}{
		{"just inside", 9*time.Second + 999*time.Millisecond, false},
		{"exactly cooldown", 10 * time.Second, true},
		{"after cooldown", 11 * time.Second, true},
		{"clock went back", -time.Second, false},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			store := NewMemoryStore()
			c := NewController(store, 10*time.Second)
			base := time.Unix(1_700_000_000, 0)
			require.NoError(t, c.Accept(ctx, "u", base))

			got, err := c.Allow(ctx, "u", base.Add(tt.elapsed))
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)

			last, _, _ := store.LastAccepted(ctx, "u")
			assert.Equal(t, base, last)
		})
	}
}

func TestController_UsersIndependent(t *testing.T) {
	ctx := context.Background()
	c := NewController(NewMemoryStore(), time.Minute)
	now := time.Now()

	require.NoError(t, c.Accept(ctx, "a", now))
	ok, _ := c.Allow(ctx, "b", now)
	assert.True(t, ok)
	ok, _ = c.Allow(ctx, "a", now.Add(time.Second))
	assert.False(t, ok)
}

func TestController_Remaining(t *testing.T) {
	ctx := context.Background()
	c := NewController(NewMemoryStore(), 10*time.Second)
	now := time.Unix(1_700_000_000, 0)

	left, err := c.Remaining(ctx, "u", now)
	require.NoError(t, err)
	assert.Zero(t, left)

	require.NoError(t, c.Accept(ctx, "u", now))
	left, err = c.Remaining(ctx, "u", now.Add(4*time.Second))
	require.NoError(t, err)
	assert.Equal(t, 6*time.Second, left)
}

type failingStore struct{}

func (failingStore) LastAccepted(context.Context, string) (time.Time, bool, error) {
	return time.Time{}, false, errors.New("down")
}

func (failingStore) SetLastAccepted(context.Context, string, time.Time) error {
	return errors.New("down")
}

func TestController_StoreError(t *testing.T) {
	c := NewController(failingStore{}, time.Second)
	ok, err := c.Allow(context.Background(), "u", time.Now())
	assert.Error(t, err)
	assert.False(t, ok)
	assert.Error(t, c.Accept(context.Background(), "u", time.Now()))
}
