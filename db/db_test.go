package db

import (
	"context"
	"testing"
	"time"

	"feedbackbot/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(context.Background(), ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func createWithMedia(t *testing.T, s *Store, cat model.Category, content string, at time.Time, refs ...string) int64 {
	t.Helper()
	ctx := context.Background()
	id, err := s.CreateSubmission(ctx, model.SubmissionFields{
		UserID: "u1", DisplayName: "alice", Category: cat, Content: content, CreatedAt: at,
	})
	require.NoError(t, err)
	for i, ref := range refs {
		require.NoError(t, s.AddAttachment(ctx, model.MediaAttachment{
			SubmissionID: id, Ref: ref, Kind: model.MediaPhoto, Position: i,
		}))
	}
	return id
}

func TestStore_CreateAndGet(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	at := time.UnixMilli(1_700_000_000_123)

	id := createWithMedia(t, s, model.CategoryNews, "Hello", at, "a", "b", "c")

	sub, err := s.GetSubmission(ctx, id)
	require.NoError(t, err)
	require.NotNil(t, sub)
	assert.Equal(t, id, sub.ID)
	assert.Equal(t, "u1", sub.UserID)
	assert.Equal(t, "alice", sub.DisplayName)
	assert.Equal(t, model.CategoryNews, sub.Category)
	assert.Equal(t, "Hello", sub.Content)
	assert.Equal(t, model.StatusPending, sub.Status)
	assert.True(t, sub.CreatedAt.Equal(at))
	require.Len(t, sub.Attachments, 3)
	for i, a := range sub.Attachments {
		assert.Equal(t, i, a.Position)
		assert.Equal(t, model.MediaPhoto, a.Kind)
	}
	assert.Equal(t, []string{"a", "b", "c"},
		[]string{sub.Attachments[0].Ref, sub.Attachments[1].Ref, sub.Attachments[2].Ref})
}

func TestStore_GetIsSideEffectFree(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	id := createWithMedia(t, s, model.CategoryOther, "x", time.Now(), "r1")

	first, err := s.GetSubmission(ctx, id)
	require.NoError(t, err)
	second, err := s.GetSubmission(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestStore_SaveSubmission(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	id, err := s.SaveSubmission(ctx, model.SubmissionFields{
		UserID: "u2", Category: model.CategoryOther, Content: "hi", Anonymous: true,
	}, []model.MediaAttachment{
		{Ref: "x", Kind: model.MediaVideo, Position: 7},
		{Ref: "y", Kind: model.MediaDocument, Filename: "doc.pdf"},
	})
	require.NoError(t, err)

	sub, err := s.GetSubmission(ctx, id)
	require.NoError(t, err)
	require.NotNil(t, sub)
	assert.True(t, sub.Anonymous)
	require.Len(t, sub.Attachments, 2)
	assert.Equal(t, 0, sub.Attachments[0].Position)
	assert.Equal(t, "x", sub.Attachments[0].Ref)
	assert.Equal(t, 1, sub.Attachments[1].Position)
	assert.Equal(t, "doc.pdf", sub.Attachments[1].Filename)

	_, err = s.SaveSubmission(ctx, model.SubmissionFields{UserID: "u2", Category: "spam"}, nil)
	require.Error(t, err)
	counts, err := s.AggregateCounts(ctx, model.PeriodAll, time.Now())
	require.NoError(t, err)
	total := 0
	for _, c := range counts {
		total += c.Count
	}
	assert.Equal(t, 1, total)
}

func TestStore_GetMissing(t *testing.T) {
	s := newTestStore(t)
	sub, err := s.GetSubmission(context.Background(), 42)
	assert.NoError(t, err)
	assert.Nil(t, sub)
}

func TestStore_DuplicatePositionRejected(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	id := createWithMedia(t, s, model.CategoryNews, "x", time.Now(), "a")

	err := s.AddAttachment(ctx, model.MediaAttachment{SubmissionID: id, Ref: "b", Kind: model.MediaVideo, Position: 0})
	assert.Error(t, err)
}

func TestStore_InvalidCategory(t *testing.T) {
	s := newTestStore(t)
	_, err := s.CreateSubmission(context.Background(), model.SubmissionFields{UserID: "u", Category: "spam", Content: "x"})
	assert.Error(t, err)
}

func TestStore_Replies(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	id := createWithMedia(t, s, model.CategoryAd, "buy", time.Now())

	_, err := s.AddReply(ctx, model.ReplyRecord{SubmissionID: id, ModeratorID: "m1", Text: "thanks"})
	require.NoError(t, err)
	_, err = s.AddReply(ctx, model.ReplyRecord{SubmissionID: id, ModeratorID: "m2", Text: "again"})
	require.NoError(t, err)

	replies, err := s.Replies(ctx, id)
	require.NoError(t, err)
	require.Len(t, replies, 2)
	assert.Equal(t, "thanks", replies[0].Text)
	assert.Equal(t, "m2", replies[1].ModeratorID)

	sub, err := s.GetSubmission(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, 2, sub.ReplyCount)

	_, err = s.AddReply(ctx, model.ReplyRecord{SubmissionID: 999, ModeratorID: "m1", Text: "x"})
	assert.ErrorIs(t, err, model.ErrNotFound)
	replies, err = s.Replies(ctx, 999)
	require.NoError(t, err)
	assert.Empty(t, replies, "failed reply must roll back")
}

func TestStore_TransitionStatus(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	id := createWithMedia(t, s, model.CategoryNews, "x", time.Now())

	require.NoError(t, s.TransitionStatus(ctx, id, model.StatusPending, model.StatusPublished))
	err := s.TransitionStatus(ctx, id, model.StatusPending, model.StatusPublished)
	assert.ErrorIs(t, err, model.ErrAlreadyActioned)

	err = s.TransitionStatus(ctx, 404, model.StatusPending, model.StatusRejected)
	assert.ErrorIs(t, err, model.ErrNotFound)

	sub, err := s.GetSubmission(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, model.StatusPublished, sub.Status)
	assert.Equal(t, "x", sub.Content, "annotations never touch content")
}

func TestStore_EchoMessage(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	id := createWithMedia(t, s, model.CategoryNews, "x", time.Now())

	require.NoError(t, s.SetEchoMessage(ctx, id, "msg-1"))
	sub, err := s.GetSubmission(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "msg-1", sub.EchoMessageID)
}

func TestStore_ListByCategory(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	base := time.Now()
	createWithMedia(t, s, model.CategoryNews, "old", base.Add(-time.Hour))
	createWithMedia(t, s, model.CategoryNews, "new", base)
	createWithMedia(t, s, model.CategoryAd, "ad", base)

	list, err := s.ListByCategory(ctx, model.CategoryNews, 20)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "new", list[0].Content)
	assert.Equal(t, "old", list[1].Content)

	list, err = s.ListByCategory(ctx, model.CategoryNews, 1)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestStore_AggregateCounts(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	now := time.Now()
	createWithMedia(t, s, model.CategoryNews, "a", now.Add(-time.Hour))
	createWithMedia(t, s, model.CategoryNews, "b", now.Add(-3*24*time.Hour))
	createWithMedia(t, s, model.CategoryAd, "c", now.Add(-30*24*time.Hour))

	tests := []struct {
		period model.Period
		want   []model.CategoryCount
	}{
		{model.PeriodDay, []model.CategoryCount{{Category: model.CategoryNews, Count: 1}}},
		{model.PeriodWeek, []model.CategoryCount{{Category: model.CategoryNews, Count: 2}}},
		{model.PeriodAll, []model.CategoryCount{
			{Category: model.CategoryAd, Count: 1},
			{Category: model.CategoryNews, Count: 2},
		}},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(string(tt.period), func(t *testing.T) {
			got, err := s.AggregateCounts(ctx, tt.period, now)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestStore_RateLimits(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	_, ok, err := s.LastAccepted(ctx, "u")
	require.NoError(t, err)
	assert.False(t, ok)

	t1 := time.Unix(1_700_000_000, 0)
	require.NoError(t, s.SetLastAccepted(ctx, "u", t1))
	require.NoError(t, s.SetLastAccepted(ctx, "u", t1.Add(-time.Minute)))

	got, ok, err := s.LastAccepted(ctx, "u")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.True(t, got.Equal(t1), "timestamp must be monotonic")
}
