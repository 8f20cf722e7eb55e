package engine

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEventQueue_FIFO(t *testing.T) {
	q := newEventQueue()

	for _, name := range []string{"a", "b", "c"} {
		require.True(t, q.Enqueue(Event{Type: EventSelect, Machine: name}))
	}

	for _, want := range []string{"a", "b", "c"} {
		got, ok := q.TryDequeue()
		require.True(t, ok)
		assert.Equal(t, want, got.Machine)
	}

	_, ok := q.TryDequeue()
	assert.False(t, ok, "dequeue from empty queue should return false")
}

func TestEventQueue_EnqueueAfterClose(t *testing.T) {
	q := newEventQueue()
	q.Close()
	q.Close() // idempotent

	assert.False(t, q.Enqueue(Event{Type: EventDescribe}))
	assert.True(t, q.Drained())
}

func TestEventQueue_DrainedOnlyWhenClosedAndEmpty(t *testing.T) {
	q := newEventQueue()
	q.Enqueue(Event{Type: EventDescribe})
	assert.False(t, q.Drained())

	q.Close()
	assert.False(t, q.Drained(), "closed but one event left")

	_, ok := q.TryDequeue()
	require.True(t, ok)
	assert.True(t, q.Drained())
}

func TestEventQueue_SignalCoalesces(t *testing.T) {
	q := newEventQueue()
	q.Enqueue(Event{Type: EventDescribe})
	q.Enqueue(Event{Type: EventDescribe})

	<-q.Wait()
	select {
	case <-q.Wait():
		t.Fatal("expected a single coalesced signal")
	default:
	}
	assert.Equal(t, 2, q.Len())
}

func TestEventQueue_ConcurrentEnqueue(t *testing.T) {
	q := newEventQueue()
	const producers, each = 20, 50

	var wg sync.WaitGroup
	wg.Add(producers)
	for i := 0; i < producers; i++ {
		go func() {
			defer wg.Done()
			for j := 0; j < each; j++ {
				q.Enqueue(Event{Type: EventDescribe})
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, producers*each, q.Len())
}
