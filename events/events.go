// Package events emits an audit trail of moderator actions.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// batchTimeout bounds how long a moderator action waits on the writer.
const batchTimeout = 10 * time.Millisecond

// Type names a moderator action.
type Type string

const (
	TypeNotified  Type = "notified"
	TypeReplied   Type = "replied"
	TypePublished Type = "published"
	TypeRejected  Type = "rejected"
)

// ModerationEvent records one action on one submission.
type ModerationEvent struct {
	ID           uuid.UUID `json:"id"`
	Type         Type      `json:"type"`
	SubmissionID int64     `json:"submission_id"`
	ActorID      string    `json:"actor_id,omitempty"`
	Mode         string    `json:"mode,omitempty"`
	At           time.Time `json:"at"`
}

// New stamps a fresh event.
func New(t Type, submissionID int64, actorID string, at time.Time) ModerationEvent {
	return ModerationEvent{
		ID:           uuid.New(),
		Type:         t,
		SubmissionID: submissionID,
		ActorID:      actorID,
		At:           at,
	}
}

// Publisher emits moderation events.
type Publisher interface {
	Emit(ctx context.Context, ev ModerationEvent) error
	Close() error
}

// Nop drops every event. It is used when no brokers are configured.
type Nop struct{}

func (Nop) Emit(context.Context, ModerationEvent) error { return nil }
func (Nop) Close() error                                { return nil }

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaPublisher writes events as JSON, keyed by submission id so the
// history of one submission stays in one partition.
type KafkaPublisher struct {
	writer messageWriter
	topic  string
}

func NewKafkaPublisher(brokers []string, topic string, log *zap.SugaredLogger) *KafkaPublisher {
	return &KafkaPublisher{writer: newWriter(brokers, topic, log), topic: topic}
}

// newWriter returns an async writer. Emit only enqueues; delivery failures
// surface in the completion callback.
func newWriter(brokers []string, topic string, log *zap.SugaredLogger) *kafka.Writer {
	return &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.LeastBytes{},
		BatchTimeout: batchTimeout,
		Async:        true,
		Completion: func(msgs []kafka.Message, err error) {
			if err != nil {
				log.Warnw("moderation events lost", "topic", topic, "count", len(msgs), "error", err)
			}
		},
	}
}

func (p *KafkaPublisher) Emit(ctx context.Context, ev ModerationEvent) error {
	b, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("events: marshal: %w", err)
	}
	msg := kafka.Message{
		Key:   []byte(strconv.FormatInt(ev.SubmissionID, 10)),
		Value: b,
		Time:  ev.At,
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("events: write to %s: %w", p.topic, err)
	}
	return nil
}

func (p *KafkaPublisher) Close() error {
	if p.writer == nil {
		return nil
	}
	return p.writer.Close()
}
