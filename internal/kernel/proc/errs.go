package proc

import "errors"

var (
	// ErrNoFreeSlot means allocproc scanned the whole table and found no
	// UNUSED slot.
	ErrNoFreeSlot = errors.New("proc: no free process slot")

	// ErrNoChild means wait/join found no descendant of the required kind.
	ErrNoChild = errors.New("proc: no eligible child")

	// ErrKilled means the calling process was killed while blocked in
	// wait or join.
	ErrKilled = errors.New("proc: killed while waiting")

	// ErrNoSuchPID means a pid-addressed operation (kill, setpriority)
	// found no matching slot.
	ErrNoSuchPID = errors.New("proc: no such pid")

	// ErrBadPriority means setpriority was given a priority outside 0..3.
	ErrBadPriority = errors.New("proc: priority out of range")

	// ErrAlreadyInMode means mlfqmode/fcfsmode was called while already in
	// that mode.
	ErrAlreadyInMode = errors.New("proc: scheduler already in requested mode")
)
