package actor

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGroup_SerializesPerKey(t *testing.T) {
	g := NewGroup()

	var inFlight, maxInFlight int32
	var order []int
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		i := i
		g.Go("user-1", func() {
			defer wg.Done()
			n := atomic.AddInt32(&inFlight, 1)
			if n > atomic.LoadInt32(&maxInFlight) {
				atomic.StoreInt32(&maxInFlight, n)
			}
			order = append(order, i)
			time.Sleep(time.Millisecond)
			atomic.AddInt32(&inFlight, -1)
		})
	}
	wg.Wait()

	assert.Equal(t, int32(1), maxInFlight)
	require.Len(t, order, 20)
	for i, v := range order {
		assert.Equal(t, i, v)
	}
}

func TestGroup_KeysRunConcurrently(t *testing.T) {
	g := NewGroup()
	release := make(chan struct{})
	started := make(chan struct{})

	g.Go("a", func() {
		close(started)
		<-release
	})
	<-started

	done := make(chan struct{})
	go g.Do("b", func() { close(done) })

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("key b blocked behind key a")
	}
	close(release)
}

func TestGroup_DoWaitsAndCleansUp(t *testing.T) {
	g := NewGroup()
	var ran bool
	g.Do("k", func() { ran = true })
	assert.True(t, ran)

	assert.Eventually(t, func() bool { return g.Active() == 0 }, time.Second, time.Millisecond)
}

func TestGroup_PanicHandler(t *testing.T) {
	var got any
	g := NewGroup()
	g.OnPanic = func(key string, v any) { got = v }

	g.Do("k", func() { panic("boom") })
	var after bool
	g.Do("k", func() { after = true })

	assert.Equal(t, "boom", got)
	assert.True(t, after)
}
