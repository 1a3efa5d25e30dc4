package locker

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLockSerializesSameKey(t *testing.T) {
	t.Parallel()

	l := New()
	var (
		wg      sync.WaitGroup
		active  atomic.Int32
		overlap atomic.Bool
	)
	for range 8 {
		wg.Go(func() {
			unlock := l.Lock("/repo")
			defer unlock()
			if active.Add(1) > 1 {
				overlap.Store(true)
			}
			time.Sleep(time.Millisecond)
			active.Add(-1)
		})
	}
	wg.Wait()
	assert.False(t, overlap.Load())
	assert.Zero(t, l.size())
}

func TestLockDifferentKeysIndependent(t *testing.T) {
	t.Parallel()

	l := New()
	unlockA := l.Lock("/a")
	defer unlockA()

	done := make(chan struct{})
	go func() {
		unlock := l.Lock("/b")
		unlock()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("lock on /b blocked by /a")
	}
}

func TestTryLock(t *testing.T) {
	t.Parallel()

	l := New()
	unlock, ok := l.TryLock("/a")
	require.True(t, ok)

	_, ok = l.TryLock("/a")
	assert.False(t, ok)

	unlock()
	unlock() // second call is a no-op
	unlock, ok = l.TryLock("/a")
	require.True(t, ok)
	unlock()
	assert.Zero(t, l.size())
}
