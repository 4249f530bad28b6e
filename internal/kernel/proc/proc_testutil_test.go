package proc

import (
	"context"
	"log/slog"

	"github.com/oscore/teachkernel/internal/kernel/fs"
)

// newTestTable builds a small table whose NewRuntime wires up testRuntime, a
// minimal in-package Runtime so Program closures in tests can call Fork,
// Exit, Wait, and friends without depending on the syscall package.
func newTestTable(nproc, ncpu int) *Table {
	log := slog.New(slog.NewTextHandler(discard{}, nil))
	table := NewTable(nproc, ncpu, fs.New(), log)
	table.NewRuntime = func(p *Proc) Runtime { return &testRuntime{t: table, p: p} }
	return table
}

// testRuntime is a bare-bones proc.Runtime for tests, standing in for
// internal/kernel/syscall.Runtime without importing it.
type testRuntime struct {
	t *Table
	p *Proc
}

func (r *testRuntime) Fork(child Program) (int, error) { return r.t.Fork(r.p, child) }
func (r *testRuntime) Clone(userStack uintptr, a1, a2 uint64, fn Program) (int, error) {
	return r.t.Clone(r.p, userStack, a1, a2, fn)
}
func (r *testRuntime) Exit(status int) { r.t.Exit(r.p, status) }
func (r *testRuntime) Wait() (int, int, error) {
	var status int
	pid, err := r.t.Wait(r.p, &status)
	return pid, status, err
}
func (r *testRuntime) Join() (int, uintptr, error) {
	var stack uintptr
	pid, err := r.t.Join(r.p, &stack)
	return pid, stack, err
}
func (r *testRuntime) GetPid() int { r.p.Lock(); defer r.p.Unlock(); return r.p.Pid }
func (r *testRuntime) GetPPid() int { return r.t.ParentPid(r.p) }
func (r *testRuntime) Kill(pid int) error { return r.t.Kill(pid) }
func (r *testRuntime) Sleep(ticks int) int { return r.t.SleepTicks(r.p, ticks) }
func (r *testRuntime) Uptime() int { return int(r.t.NewTick.Load()) }
func (r *testRuntime) Yield() { r.t.Yield(r.p) }
func (r *testRuntime) GetLev() int { return r.t.GetLev(r.p) }
func (r *testRuntime) SetPriority(pid, priority int) error { return r.t.SetPriority(pid, priority) }
func (r *testRuntime) MLFQMode() error { return r.t.MLFQMode() }
func (r *testRuntime) FCFSMode() error { return r.t.FCFSMode() }
func (r *testRuntime) Sbrk(delta int) (int, error) {
	r.p.Lock()
	oldSz := int(r.p.Sz)
	r.p.Unlock()
	if _, err := r.t.Growproc(r.p, delta); err != nil {
		return -1, err
	}
	return oldSz, nil
}

var _ Runtime = (*testRuntime)(nil)

// startTable launches the scheduler loops and returns a cancel func that
// stops them. Tests that need RUNNABLE slots to actually run call this.
func startTable(table *Table) context.CancelFunc {
	ctx, cancel := context.WithCancel(context.Background())
	go table.Start(ctx)
	return cancel
}

type discard struct{}

func (discard) Write(p []byte) (int, error) { return len(p), nil }
