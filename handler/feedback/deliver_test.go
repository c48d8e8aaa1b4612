package feedback

import (
	"context"
	"sync"
	"testing"
	"time"

	"feedbackbot/admission"
	"feedbackbot/conversation"
	"feedbackbot/model"
	"feedbackbot/transport"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type nopStore struct{}

func (nopStore) SaveSubmission(context.Context, model.SubmissionFields, []model.MediaAttachment) (int64, error) {
	return 1, nil
}

type nopNotifier struct{}

func (nopNotifier) Notify(context.Context, *model.Submission) {}

type sentDM struct {
	to      string
	payload transport.Payload
}

type recordingSender struct {
	mu   sync.Mutex
	sent []sentDM
}

func (s *recordingSender) SendToIdentity(_ context.Context, identity string, p transport.Payload) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sent = append(s.sent, sentDM{identity, p})
	return "msg", nil
}

func (s *recordingSender) SendGroup(context.Context, []string, transport.Payload) error { return nil }

func (s *recordingSender) Publish(context.Context, string, transport.Payload) error { return nil }

func (s *recordingSender) messages() []sentDM {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]sentDM(nil), s.sent...)
}

func newTestHandler(t *testing.T, debounce time.Duration) (*Handler, *conversation.Machine, *recordingSender) {
	t.Helper()
	log := zap.NewNop().Sugar()
	gate := admission.NewController(admission.NewMemoryStore(), time.Minute)
	machine := conversation.NewMachine(gate, nopStore{}, nopNotifier{}, 10*time.Minute, log)
	sender := &recordingSender{}
	return New(machine, gate, sender, debounce, log), machine, sender
}

func TestDeliver_WithoutDraftPointsToCommand(t *testing.T) {
	h, _, sender := newTestHandler(t, time.Second)

	h.deliver([]model.Fragment{{UserID: "u1", Text: "hello?"}})

	got := sender.messages()
	require.Len(t, got, 1)
	assert.Equal(t, "u1", got[0].to)
	assert.Contains(t, got[0].payload.Text, "/feedback")
	assert.Empty(t, got[0].payload.Controls)
}

func TestDeliver_SendsPreviewWithConfirmControls(t *testing.T) {
	h, machine, sender := newTestHandler(t, time.Second)
	ctx := context.Background()
	require.NoError(t, machine.StartWithCategory(ctx, conversation.User{ID: "u1"}, model.CategoryNews))

	h.deliver([]model.Fragment{{UserID: "u1", Text: "Road closed"}})

	got := sender.messages()
	require.Len(t, got, 1)
	assert.Contains(t, got[0].payload.Text, "Road closed")
	require.Len(t, got[0].payload.Controls, 2)
	assert.Equal(t, idConfirm, got[0].payload.Controls[0].ID)
	assert.Equal(t, idCancel, got[0].payload.Controls[1].ID)
	assert.Equal(t, conversation.StepConfirming, machine.State("u1").Step)

	// A second message while confirming is answered with an explanation.
	h.deliver([]model.Fragment{{UserID: "u1", Text: "one more thing"}})
	got = sender.messages()
	require.Len(t, got, 2)
	assert.Equal(t, userMessage(conversation.ErrWrongStep), got[1].payload.Text)
}

func TestDeliver_EmptyBatchSendsNothing(t *testing.T) {
	h, _, sender := newTestHandler(t, time.Second)
	h.deliver(nil)
	assert.Empty(t, sender.messages())
}

func TestDeliver_AlbumArrivesAsOnePreview(t *testing.T) {
	h, machine, sender := newTestHandler(t, 20*time.Millisecond)
	ctx := context.Background()
	require.NoError(t, machine.StartWithCategory(ctx, conversation.User{ID: "u1"}, model.CategoryOther))

	now := time.Now()
	for i, ref := range []string{"p1", "p2", "p3"} {
		f := model.Fragment{
			UserID:   "u1",
			GroupID:  "g1",
			Sequence: int64(i),
			Photo:    []model.PhotoVariant{{Ref: ref, Width: 10, Height: 10}},
		}
		h.albums.Ingest("g1", f, now)
	}

	require.Eventually(t, func() bool { return len(sender.messages()) == 1 }, time.Second, 5*time.Millisecond)
	assert.Contains(t, sender.messages()[0].payload.Text, "**Files:** 3")
	assert.Equal(t, 3, len(machine.State("u1").Attachments))
}
