package testutil

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDeterministicClock_StartsAtZero(t *testing.T) {
	clock := NewDeterministicClock()
	assert.Equal(t, int64(0), clock.Current())
}

func TestDeterministicClock_NextIncrements(t *testing.T) {
	clock := NewDeterministicClock()

	assert.Equal(t, int64(1), clock.Next())
	assert.Equal(t, int64(2), clock.Next())
	assert.Equal(t, int64(3), clock.Next())
	assert.Equal(t, int64(3), clock.Current())
}

func TestDeterministicClock_Reset(t *testing.T) {
	clock := NewDeterministicClock()
	clock.Next()
	clock.Next()

	clock.Reset()
	assert.Equal(t, int64(0), clock.Current())
	assert.Equal(t, int64(1), clock.Next())
}

func TestDeterministicClock_ConcurrentNextIsUnique(t *testing.T) {
	clock := NewDeterministicClock()
	const workers, calls = 50, 100

	var mu sync.Mutex
	seen := make(map[int64]bool, workers*calls)

	var wg sync.WaitGroup
	wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func() {
			defer wg.Done()
			for j := 0; j < calls; j++ {
				v := clock.Next()
				mu.Lock()
				seen[v] = true
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	require.Len(t, seen, workers*calls)
	assert.Equal(t, int64(workers*calls), clock.Current())
}
