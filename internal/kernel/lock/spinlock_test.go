package lock

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSpinlockLockUnlock(t *testing.T) {
	l := New()
	assert.False(t, l.Holding())

	l.Lock()
	assert.True(t, l.Holding())

	l.Unlock()
	assert.False(t, l.Holding())
}

func TestSpinlockTryLock(t *testing.T) {
	l := New()
	require.True(t, l.TryLock())
	assert.False(t, l.TryLock(), "second TryLock must fail while held")
	l.Unlock()
	assert.True(t, l.TryLock())
	l.Unlock()
}

func TestSpinlockUnlockUnheldPanics(t *testing.T) {
	l := New()
	assert.Panics(t, func() { l.Unlock() })
}

func TestSpinlockCrossGoroutineRelease(t *testing.T) {
	// Mirrors the scheduler/process split: one goroutine acquires, another
	// releases on its behalf.
	l := New()
	l.Lock()

	done := make(chan struct{})
	go func() {
		l.Unlock()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("cross-goroutine unlock did not complete")
	}
	assert.False(t, l.Holding())
}
