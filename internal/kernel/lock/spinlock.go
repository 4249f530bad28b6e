// Package lock provides the slot and table locks the process table is built
// on. A real kernel would disable interrupts and spin; Go gives us a mutex
// for the critical section and a goroutine-park/unpark pair for the
// scheduler handoff, so Spinlock only adds the introspective Holding check
// the core relies on (see proc.Sched's precondition assertions).
package lock

import "sync/atomic"

// Spinlock is a one-slot buffered channel used as a lock, plus a Holding
// predicate. It may be released by a goroutine other than the one that
// acquired it: the
// scheduler loop locks a slot on the process's behalf and releases it again
// once that slot has given up the CPU.
type Spinlock struct {
	ch   chan struct{}
	held atomic.Bool
}

// New returns an unlocked Spinlock.
func New() *Spinlock {
	return &Spinlock{ch: make(chan struct{}, 1)}
}

// Lock acquires the lock, blocking until it is free.
func (s *Spinlock) Lock() {
	s.ch <- struct{}{}
	s.held.Store(true)
}

// TryLock acquires the lock without blocking, reporting whether it succeeded.
func (s *Spinlock) TryLock() bool {
	select {
	case s.ch <- struct{}{}:
		s.held.Store(true)
		return true
	default:
		return false
	}
}

// Unlock releases the lock. Unlocking a lock that is not held is a caller
// bug and panics.
func (s *Spinlock) Unlock() {
	if !s.held.CompareAndSwap(true, false) {
		panic("lock: release of unheld spinlock")
	}
	<-s.ch
}

// Holding reports whether the lock is currently held by anyone. It is an
// assertion helper, not a synchronization primitive; freeproc and sched use
// it to enforce their locking preconditions.
func (s *Spinlock) Holding() bool {
	return s.held.Load()
}
