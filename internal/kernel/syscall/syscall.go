// Package syscall is the thin shim layer between a process's user-mode
// Program and the process table: typed method calls on a Runtime bound to
// one slot, rather than integers fetched out of a trapframe.
package syscall

import (
	"github.com/oscore/teachkernel/internal/kernel/proc"
)

// Runtime is the proc.Runtime a slot's Program runs against. It is bound to
// exactly one *proc.Proc and the owning *proc.Table; every method is one
// syscall.
type Runtime struct {
	t *proc.Table
	p *proc.Proc
}

// New builds the Runtime for a freshly allocated slot. It is the function a
// caller wires up as proc.Table.NewRuntime.
func New(t *proc.Table, p *proc.Proc) *Runtime {
	return &Runtime{t: t, p: p}
}

var _ proc.Runtime = (*Runtime)(nil)

// Fork implements the fork syscall: child PID to the parent, or an error.
// child replaces the "0 to the child" return value; see proc.Runtime.Fork
// for why the child body is explicit instead of one call site returning
// twice.
func (r *Runtime) Fork(child proc.Program) (int, error) {
	return r.t.Fork(r.p, child)
}

// Clone implements the clone syscall: child PID or an error.
func (r *Runtime) Clone(userStack uintptr, arg1, arg2 uint64, fn proc.Program) (int, error) {
	return r.t.Clone(r.p, userStack, arg1, arg2, fn)
}

// Exit implements the exit syscall. It never returns.
func (r *Runtime) Exit(status int) {
	r.t.Exit(r.p, status)
}

// Wait implements the wait syscall: child PID and its exit status, or
// ErrNoChild/ErrKilled.
func (r *Runtime) Wait() (int, int, error) {
	var status int
	pid, err := r.t.Wait(r.p, &status)
	if err != nil {
		return pid, 0, err
	}
	return pid, status, nil
}

// Join implements the join syscall: child PID and its clone-provided
// stack.
func (r *Runtime) Join() (int, uintptr, error) {
	var stack uintptr
	pid, err := r.t.Join(r.p, &stack)
	if err != nil {
		return pid, 0, err
	}
	return pid, stack, nil
}

// GetPid implements the getpid syscall.
func (r *Runtime) GetPid() int {
	r.p.Lock()
	defer r.p.Unlock()
	return r.p.Pid
}

// GetPPid implements the getppid syscall. The parent back-reference is
// read under Table.WaitLock.
func (r *Runtime) GetPPid() int {
	return r.t.ParentPid(r.p)
}

// Kill implements the kill syscall.
func (r *Runtime) Kill(pid int) error {
	return r.t.Kill(pid)
}

// Sleep implements the sleep syscall: 0, or -1 if killed while waiting.
func (r *Runtime) Sleep(ticks int) int {
	return r.t.SleepTicks(r.p, ticks)
}

// Uptime implements the uptime syscall.
func (r *Runtime) Uptime() int {
	return int(r.t.NewTick.Load())
}

// Sbrk implements the sbrk syscall: the slot's size before the change, or
// an error on allocation failure.
func (r *Runtime) Sbrk(delta int) (int, error) {
	r.p.Lock()
	oldSz := int(r.p.Sz)
	r.p.Unlock()
	if _, err := r.t.Growproc(r.p, delta); err != nil {
		return -1, err
	}
	return oldSz, nil
}

// Yield implements the yield syscall.
func (r *Runtime) Yield() {
	r.t.Yield(r.p)
}

// GetLev implements the getlev syscall: 99 under FCFS, else the slot's
// MLFQ level.
func (r *Runtime) GetLev() int {
	return r.t.GetLev(r.p)
}

// SetPriority implements the setpriority syscall.
func (r *Runtime) SetPriority(pid, priority int) error {
	return r.t.SetPriority(pid, priority)
}

// MLFQMode implements the mlfqmode syscall.
func (r *Runtime) MLFQMode() error {
	return r.t.MLFQMode()
}

// FCFSMode implements the fcfsmode syscall.
func (r *Runtime) FCFSMode() error {
	return r.t.FCFSMode()
}
