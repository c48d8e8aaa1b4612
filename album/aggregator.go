// Package album groups the fragments of a multi-part message into one batch.
package album

import (
	"sort"
	"sync"
	"time"

	"feedbackbot/actor"
	"feedbackbot/model"

	"go.uber.org/zap"
)

// Deliver receives one complete, sequence-ordered batch.
type Deliver func(batch []model.Fragment)

type buffer struct {
	groupID     string
	fragments   []model.Fragment
	lastArrival time.Time
}

// Aggregator buffers fragments per group and flushes each group once, a
// fixed debounce after its first fragment.
type Aggregator struct {
	debounce time.Duration
	deliver  Deliver
	log      *zap.SugaredLogger

	keys    *actor.Group
	buffers sync.Map // group id -> *buffer
	flushed sync.Map // group id -> flush time

	// schedule runs f after d. Tests replace it to fire flushes by hand.
	schedule func(d time.Duration, f func())
}

func NewAggregator(debounce time.Duration, deliver Deliver, log *zap.SugaredLogger) *Aggregator {
	return &Aggregator{
		debounce: debounce,
		deliver:  deliver,
		log:      log,
		keys:     actor.NewGroup(),
		schedule: func(d time.Duration, f func()) { time.AfterFunc(d, f) },
	}
}

// Ingest accepts one fragment. Fragments without a group are delivered
// immediately as a batch of one.
func (a *Aggregator) Ingest(groupID string, f model.Fragment, now time.Time) {
	if groupID == "" {
		a.deliver([]model.Fragment{f})
		return
	}

	a.keys.Do(groupID, func() {
		if _, done := a.flushed.Load(groupID); done {
			a.log.Warnw("dropping fragment of flushed album",
				"group", groupID, "message", f.MessageID, "user", f.UserID)
			return
		}

		v, ok := a.buffers.Load(groupID)
		if !ok {
			v = &buffer{groupID: groupID}
			a.buffers.Store(groupID, v)
			// The timer is not reset by later fragments so a steady trickle
			// cannot postpone the flush.
			a.schedule(a.debounce, func() { a.flush(groupID) })
		}
		b := v.(*buffer)
		b.fragments = append(b.fragments, f)
		b.lastArrival = now
	})
}

// Pending returns the number of groups still buffering.
func (a *Aggregator) Pending() int {
	n := 0
	a.buffers.Range(func(_, _ any) bool {
		n++
		return true
	})
	return n
}

func (a *Aggregator) flush(groupID string) {
	var batch []model.Fragment
	a.keys.Do(groupID, func() {
		v, ok := a.buffers.LoadAndDelete(groupID)
		if _, already := a.flushed.LoadOrStore(groupID, time.Now()); already || !ok {
			return
		}
		batch = v.(*buffer).fragments
	})
	a.schedule(10*a.debounce, func() { a.flushed.Delete(groupID) })

	if len(batch) == 0 {
		a.log.Infow("album flush found no fragments", "group", groupID)
		return
	}

	sort.SliceStable(batch, func(i, j int) bool {
		return batch[i].Sequence < batch[j].Sequence
	})
	a.log.Debugw("album flushed", "group", groupID, "fragments", len(batch))
	a.deliver(batch)
}
