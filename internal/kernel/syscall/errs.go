package syscall

import "github.com/oscore/teachkernel/internal/kernel/proc"

// These re-export proc's sentinel errors under the names a syscall-layer
// caller would look for. No new sentinels are needed here; every syscall's
// failure mode already has a proc.Err* behind it.
var (
	ErrNoFreeSlot    = proc.ErrNoFreeSlot
	ErrNoChild       = proc.ErrNoChild
	ErrKilled        = proc.ErrKilled
	ErrNoSuchPID     = proc.ErrNoSuchPID
	ErrBadPriority   = proc.ErrBadPriority
	ErrAlreadyInMode = proc.ErrAlreadyInMode
)
