// Package actor serializes work per key so state owned by one user or one
// album is only touched by one task at a time, while different keys run
// concurrently.
package actor

import "sync"

// Group owns one mailbox per live key. A mailbox exists only while it has
// pending work; its goroutine exits once drained.
type Group struct {
	// OnPanic, when set, receives panics raised by tasks. The mailbox keeps
	// draining either way.
	OnPanic func(key string, v any)

	mu    sync.Mutex
	boxes map[string]*mailbox
}

type mailbox struct {
	pending []func()
}

func NewGroup() *Group {
	return &Group{boxes: make(map[string]*mailbox)}
}

// Go enqueues fn on key's mailbox and returns immediately.
func (g *Group) Go(key string, fn func()) {
	g.mu.Lock()
	if g.boxes == nil {
		g.boxes = make(map[string]*mailbox)
	}
	if mb, ok := g.boxes[key]; ok {
		mb.pending = append(mb.pending, fn)
		g.mu.Unlock()
		return
	}
	mb := &mailbox{pending: []func(){fn}}
	g.boxes[key] = mb
	g.mu.Unlock()

	go g.drain(key, mb)
}

// Do runs fn on key's mailbox and waits for it. Calling Do for a key from a
// task already running on that key deadlocks.
func (g *Group) Do(key string, fn func()) {
	done := make(chan struct{})
	g.Go(key, func() {
		defer close(done)
		fn()
	})
	<-done
}

// Active returns the number of keys with pending or running work.
func (g *Group) Active() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.boxes)
}

func (g *Group) drain(key string, mb *mailbox) {
	for {
		g.mu.Lock()
		if len(mb.pending) == 0 {
			delete(g.boxes, key)
			g.mu.Unlock()
			return
		}
		fn := mb.pending[0]
		mb.pending[0] = nil
		mb.pending = mb.pending[1:]
		g.mu.Unlock()

		g.run(key, fn)
	}
}

func (g *Group) run(key string, fn func()) {
	defer func() {
		if v := recover(); v != nil {
			if g.OnPanic == nil {
				panic(v)
			}
			g.OnPanic(key, v)
		}
	}()
	fn()
}
