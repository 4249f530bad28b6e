// Package proc implements the process table, process lifecycle, the
// per-CPU scheduler loop, sleep/wakeup, and the pluggable FCFS/MLFQ
// scheduling policies of the kernel. The shape follows xv6's proc.c: a
// fixed table of slots, per-slot spinlocks, and a scheduler loop per CPU.
package proc

import (
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/oscore/teachkernel/internal/kernel/cpu"
	"github.com/oscore/teachkernel/internal/kernel/fs"
	"github.com/oscore/teachkernel/internal/kernel/lock"
	"github.com/oscore/teachkernel/internal/kernel/trap"
	"github.com/oscore/teachkernel/internal/kernel/vm"
)

// State is one of a process slot's lifecycle states.
type State int

const (
	UNUSED State = iota
	USED
	SLEEPING
	RUNNABLE
	RUNNING
	ZOMBIE
)

// String renders a state the way procdump's states[] table does.
func (s State) String() string {
	switch s {
	case UNUSED:
		return "unused"
	case USED:
		return "used"
	case SLEEPING:
		return "sleep "
	case RUNNABLE:
		return "runble"
	case RUNNING:
		return "run   "
	case ZOMBIE:
		return "zombie"
	default:
		return "???"
	}
}

// NOFILE bounds the per-process open-file table.
const NOFILE = 16

// SentinelUnset is the MLFQ field value used while running under FCFS.
const SentinelUnset = -1

// Runtime is the set of syscalls a Program may perform against the slot it
// is running in, the typed replacement for fetching arguments out of a
// trapframe. The concrete implementation (internal/kernel/syscall.Runtime)
// is bound to one *Proc and the owning *Table; Program/Runtime are declared
// here, as an interface, so proc never has to import its own syscall-shim
// layer (which must import proc to reach *Proc).
type Runtime interface {
	// Fork's child argument stands in for the fact that a real fork
	// returns twice from the same call site, which a goroutine's call
	// stack can't replicate. The spawned child runs this Program instead
	// of resuming the parent's.
	Fork(child Program) (int, error)
	Clone(userStack uintptr, arg1, arg2 uint64, fn Program) (int, error)
	Exit(status int)
	Wait() (pid int, status int, err error)
	Join() (pid int, stack uintptr, err error)
	GetPid() int
	GetPPid() int
	Kill(pid int) error
	Sleep(ticks int) int
	Uptime() int
	Sbrk(delta int) (int, error)
	Yield()
	GetLev() int
	SetPriority(pid, priority int) error
	MLFQMode() error
	FCFSMode() error
}

// Program is the "user-mode" body a process slot runs. It is this
// repository's stand-in for a compiled user binary: instead of a trap into
// the kernel via a syscall instruction, a Program calls methods directly on
// the Runtime handed to it.
type Program func(rt Runtime)

// Proc is one process-table slot. Identity is the table index.
type Proc struct {
	Idx int

	lock *lock.Spinlock

	state State

	Pid       int
	parent    *Proc // guarded by Table.WaitLock, not lock
	Pagetable *vm.PageTable
	Sz        vm.Size
	KStack    uint64
	Trapframe *trap.Frame
	Chan      uintptr
	Killed    atomic.Bool
	XState    int
	Ofile     [NOFILE]*fs.File
	Cwd       *fs.Inode
	Name      string
	UserStack uint64

	Level     int
	TicksUsed int
	Priority  int

	Program Program

	ctx    *procContext
	curCPU *cpu.CPU // CPU currently running this slot; set by the scheduler loop right before resume
}

// Lock acquires the slot's lock.
func (p *Proc) Lock() { p.lock.Lock() }

// Unlock releases the slot's lock.
func (p *Proc) Unlock() { p.lock.Unlock() }

// Holding reports whether the slot's lock is currently held, for the
// precondition assertions in freeproc and sched.
func (p *Proc) Holding() bool { return p.lock.Holding() }

// State returns the slot's current lifecycle state. Callers typically hold
// p.Lock() already; State does not acquire it itself so it can be called
// from code that has already taken the lock as part of a larger check.
func (p *Proc) State() State { return p.state }

// setState assigns the slot's state. Every call site holds p.lock already;
// the field stays private so the chan/state coherence rule (SLEEPING iff
// chan is set) can be audited from one place.
func (p *Proc) setState(s State) { p.state = s }

// SchedulingMode selects which Policy the scheduler consults.
type SchedulingMode int32

const (
	ModeFCFS SchedulingMode = iota
	ModeMLFQ
)

// String renders a SchedulingMode for logs.
func (m SchedulingMode) String() string {
	switch m {
	case ModeFCFS:
		return "FCFS"
	case ModeMLFQ:
		return "MLFQ"
	default:
		return "unknown"
	}
}

// Table is the fixed-size process table plus its global locks and the PID
// allocator: a fixed slice allocated once at boot, slot identity = index.
type Table struct {
	Procs []*Proc

	PidLock  sync.Mutex
	WaitLock sync.Mutex
	MemLock  sync.Mutex
	TickLock sync.Mutex // guards the tick-sleep wait condition (SleepTicks)

	nextPid int32

	InitProc *Proc

	mode    atomic.Int32
	NewTick atomic.Int64

	// Quantum holds the per-level tick allowance MLFQ demotes a slot after
	// (index 0..2); BoostPeriod is how many ticks elapse between priority
	// boost sweeps.
	Quantum     [3]int
	BoostPeriod int

	CPUs []*cpu.CPU

	FS *fs.FS

	Log *slog.Logger

	// NewRuntime builds the syscall.Runtime a slot's Program is handed. It is
	// wired up by the caller that owns both proc and syscall packages (e.g.
	// cmd/teachkernel's boot sequence), keeping proc free of any import on
	// its own syscall-shim layer.
	NewRuntime func(*Proc) Runtime

	// wakeMu/wakeCh implement a broadcast-once channel: wakeSchedulers closes
	// the current channel (waking every idle CPU loop parked on it) and
	// installs a fresh one. This is the channel equivalent of a
	// sync.Cond.Broadcast that idle loops can still select against a
	// context's Done channel.
	wakeMu sync.Mutex
	wakeCh chan struct{}
}

// NewTable allocates an nproc-slot table and ncpu per-CPU records. nextPid
// starts at 1. Quantum/BoostPeriod take teaching defaults; override them
// directly or through config.Config before Start.
func NewTable(nproc, ncpu int, fsys *fs.FS, log *slog.Logger) *Table {
	if log == nil {
		log = slog.Default()
	}
	t := &Table{
		Procs:       make([]*Proc, nproc),
		nextPid:     1,
		FS:          fsys,
		Log:         log,
		Quantum:     [3]int{1, 2, 4},
		BoostPeriod: 64,
		wakeCh:      make(chan struct{}),
	}
	for i := range t.Procs {
		t.Procs[i] = &Proc{
			Idx:      i,
			lock:     lock.New(),
			KStack:   uint64(i) * vm.PageSize,
			Priority: SentinelUnset,
			Level:    SentinelUnset,
		}
	}
	t.CPUs = make([]*cpu.CPU, ncpu)
	for i := range t.CPUs {
		t.CPUs[i] = &cpu.CPU{ID: i}
	}
	return t
}

// Mode returns the active scheduling mode.
func (t *Table) Mode() SchedulingMode { return SchedulingMode(t.mode.Load()) }

func (t *Table) setMode(m SchedulingMode) { t.mode.Store(int32(m)) }

// SetInitialMode sets the scheduler's starting mode before Start is called.
// Unlike MLFQMode/FCFSMode it does not reset any slot's scheduling fields or
// check for an already-in-mode error, since the table has no RUNNABLE slots
// yet at boot.
func (t *Table) SetInitialMode(m SchedulingMode) { t.setMode(m) }

// AllocPid returns a fresh, monotonically increasing PID. PIDs are not
// wraparound-guarded.
func (t *Table) AllocPid() int {
	t.PidLock.Lock()
	defer t.PidLock.Unlock()
	pid := int(t.nextPid)
	t.nextPid++
	return pid
}

// wakeSchedulers notifies every CPU loop parked waiting for a RUNNABLE slot.
func (t *Table) wakeSchedulers() {
	t.wakeMu.Lock()
	close(t.wakeCh)
	t.wakeCh = make(chan struct{})
	t.wakeMu.Unlock()
}

// parkChan returns the channel an idle CPU loop should select on to notice
// the next wakeSchedulers call.
func (t *Table) parkChan() <-chan struct{} {
	t.wakeMu.Lock()
	defer t.wakeMu.Unlock()
	return t.wakeCh
}
