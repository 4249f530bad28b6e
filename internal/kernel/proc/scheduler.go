package proc

import (
	"context"
	"runtime"
	"time"

	"github.com/oscore/teachkernel/internal/kernel/cpu"
	"github.com/oscore/teachkernel/internal/kernel/trap"
)

// procContext replaces saved callee registers: instead of a real swtch, a
// slot's goroutine parks on resume until the scheduler hands it a turn, and
// hands control back by sending on yielded from inside sched.
type procContext struct {
	resume  chan struct{}
	yielded chan struct{}
}

func newProcContext() *procContext {
	return &procContext{
		resume:  make(chan struct{}),
		yielded: make(chan struct{}),
	}
}

// spawn starts the goroutine backing a freshly allocated slot. It parks on
// the slot's resume channel, waiting for the scheduler's first handoff.
// allocproc is the only caller, and it does so while still holding p.lock,
// so the context handed to runSlot is the one allocproc just installed, even
// if the slot is freed (and p.ctx cleared) before it ever runs.
func (t *Table) spawn(p *Proc) {
	go t.runSlot(p, p.ctx)
}

// runSlot is forkret plus the slot's entire run, collapsed into one
// function: a goroutine, unlike a per-process kernel stack, doesn't need a
// separate first-landing trampoline distinct from the rest of the process's
// execution.
func (t *Table) runSlot(p *Proc, ctx *procContext) {
	<-ctx.resume
	p.Unlock() // taken by the policy when it selected p; the first handoff releases it

	// fsinit must run from inside a process (it needs sleep to recover the
	// log); FS.Init is idempotent, so whichever slot lands here first across
	// the whole table actually performs it.
	t.FS.Init()

	defer func() {
		if r := recover(); r != nil {
			t.Log.Error("program panicked", "pid", p.Pid, "name", p.Name, "panic", r)
		}
	}()

	trap.Return(p.Trapframe)
	if p.Program != nil && t.NewRuntime != nil {
		p.Program(t.NewRuntime(p))
	}

	// Only reached when the Program returned instead of calling Exit, which
	// never comes back here.
	if p == t.InitProc {
		t.initLoop(p)
	}
	t.Exit(p, 0)
}

// initLoop keeps the first process alive forever once its own program body is
// done: reparented orphans land on initproc, so it must keep reaping them, or
// their slots would stay ZOMBIE for good. initproc exiting is fatal (Exit
// panics on it), so this never returns.
func (t *Table) initLoop(p *Proc) {
	for {
		if _, err := t.Wait(p, nil); err == nil {
			continue
		}
		// No children right now; sleep until an exiting process reparents
		// one onto us and wakes our channel.
		t.WaitLock.Lock()
		t.Sleep(p, procChan(p), &t.WaitLock)
		t.WaitLock.Unlock()
	}
}

// sched is the only legal way to leave a slot's run: the caller must hold
// exactly p's lock, with p.State() already changed away from RUNNING, and
// exactly one lock nested on the CPU (cpu.Noff == 1). willResume is false
// only from exit, which never runs again: sched then hands the CPU back and
// returns without touching p, since the reaper may recycle the slot the
// moment the scheduler releases it.
func (t *Table) sched(p *Proc, willResume bool) {
	if !p.Holding() {
		panic("sched: slot lock not held")
	}
	if p.State() == RUNNING {
		panic("sched: still RUNNING")
	}
	c := p.curCPU
	if c.Noff != 1 {
		panic("sched: must hold exactly one lock")
	}
	intena := c.Intena

	p.ctx.yielded <- struct{}{}
	if !willResume {
		return
	}
	<-p.ctx.resume

	// p.curCPU may now point at a different CPU than the one that put us to
	// sleep (any CPU runs any process); restore onto whichever one resumed us.
	p.curCPU.Intena = intena
}

// Yield gives up the CPU for one scheduling round without blocking. The
// caller must not hold p's lock.
func (t *Table) Yield(p *Proc) {
	p.Lock()
	p.setState(RUNNABLE)
	t.wakeSchedulers()
	t.sched(p, true)
	p.Unlock()
}

// Start launches one scheduler loop per configured CPU; it returns once ctx
// is done and every loop has exited.
func (t *Table) Start(ctx context.Context) {
	done := make(chan struct{}, len(t.CPUs))
	for _, c := range t.CPUs {
		c := c
		go func() {
			t.runCPU(ctx, c)
			done <- struct{}{}
		}()
	}
	for range t.CPUs {
		<-done
	}
}

// runCPU is one CPU's scheduler loop: pick a RUNNABLE slot per the active
// policy (returned with its lock held), run it, release the lock once the
// slot gives the CPU back, or park until something becomes RUNNABLE.
func (t *Table) runCPU(ctx context.Context, c *cpu.CPU) {
	for {
		if ctx.Err() != nil {
			return
		}
		p, ok := t.selectProc(c)
		if !ok {
			// Idle: the park channel is this scheduler's wfi.
			select {
			case <-t.parkChan():
			case <-time.After(5 * time.Millisecond): // safety net against a missed wakeSchedulers
			case <-ctx.Done():
				return
			}
			continue
		}

		c.PushOff()
		p.curCPU = c
		p.setState(RUNNING)
		c.SetProc(p)

		p.ctx.resume <- struct{}{}
		<-p.ctx.yielded

		c.SetProc(nil)
		c.PopOff()
		p.Unlock()
	}
}

// selectProc asks the active policy for a RUNNABLE slot, returning it with
// its lock held.
func (t *Table) selectProc(c *cpu.CPU) (*Proc, bool) {
	switch t.Mode() {
	case ModeMLFQ:
		return selectMLFQ(t)
	default:
		return selectFCFS(t)
	}
}

// exitSlot is the tail of Exit: hand the CPU back for the last time and end
// the goroutine. runtime.Goexit runs the slot goroutine's deferred calls and
// guarantees no instruction of the Program runs after its Exit call.
func (t *Table) exitSlot(p *Proc) {
	t.sched(p, false)
	runtime.Goexit()
}

// Tick is the timer interrupt's entry point. Each call represents one tick:
// it advances new_tick, accounts one tick of CPU time against whatever is
// RUNNING under MLFQ, and demotes or boosts as thresholds are crossed.
//
// A running goroutine's Program can't be preempted mid-instruction, so Tick
// only updates the scheduling fields; actual relinquishment of the CPU stays
// cooperative (the Program must still call Yield or Sleep).
func (t *Table) Tick() {
	t.NewTick.Add(1)
	t.Wakeup(ticksChan, nil) // wake SleepTicks waiters so they recheck their deadline
	if t.Mode() != ModeMLFQ {
		return
	}
	for _, c := range t.CPUs {
		rp, _ := c.Proc().(*Proc)
		if rp == nil {
			continue
		}
		rp.Lock()
		if rp.State() == RUNNING {
			rp.TicksUsed++
			lvl := rp.Level
			if lvl < 0 || lvl > 2 {
				lvl = 0
			}
			if rp.TicksUsed >= t.Quantum[lvl] {
				rp.TicksUsed = 0
				if rp.Level < 2 {
					rp.Level++
				} else if rp.Priority > 0 {
					rp.Priority--
				}
			}
		}
		rp.Unlock()
	}
	if t.BoostPeriod > 0 && int(t.NewTick.Load())%t.BoostPeriod == 0 {
		t.boostPriorityAll()
	}
}
