package events

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeWriter struct {
	msgs   []kafka.Message
	err    error
	closed bool
}

func (w *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if w.err != nil {
		return w.err
	}
	w.msgs = append(w.msgs, msgs...)
	return nil
}

func (w *fakeWriter) Close() error {
	w.closed = true
	return nil
}

func TestKafkaPublisher_Emit(t *testing.T) {
	w := &fakeWriter{}
	p := &KafkaPublisher{writer: w, topic: "feedback.moderation"}

	at := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	ev := New(TypePublished, 42, "mod-1", at)
	ev.Mode = "watermark"
	require.NoError(t, p.Emit(context.Background(), ev))

	require.Len(t, w.msgs, 1)
	assert.Equal(t, "42", string(w.msgs[0].Key))
	assert.Equal(t, at, w.msgs[0].Time)

	var got ModerationEvent
	require.NoError(t, json.Unmarshal(w.msgs[0].Value, &got))
	assert.Equal(t, ev, got)

	require.NoError(t, p.Close())
	assert.True(t, w.closed)
}

func TestKafkaPublisher_WriteError(t *testing.T) {
	boom := errors.New("broker down")
	p := &KafkaPublisher{writer: &fakeWriter{err: boom}, topic: "t"}
	err := p.Emit(context.Background(), New(TypeRejected, 1, "m", time.Now()))
	assert.ErrorIs(t, err, boom)
}

func TestNew_UniqueIDs(t *testing.T) {
	a := New(TypeReplied, 1, "m", time.Now())
	b := New(TypeReplied, 1, "m", time.Now())
	assert.NotEqual(t, a.ID, b.ID)
	assert.NoError(t, Nop{}.Emit(context.Background(), a))
}

func TestNewWriter_DoesNotBlockActions(t *testing.T) {
	w := newWriter([]string{"localhost:9092"}, "feedback.moderation", zap.NewNop().Sugar())
	defer w.Close()

	assert.True(t, w.Async)
	assert.LessOrEqual(t, w.BatchTimeout, 50*time.Millisecond)
	assert.Equal(t, "feedback.moderation", w.Topic)
	require.NotNil(t, w.Completion)
	w.Completion([]kafka.Message{{Value: []byte("x")}}, errors.New("broker down"))
}
