package proc

import (
	"github.com/oscore/teachkernel/internal/kernel/fs"
	"github.com/oscore/teachkernel/internal/kernel/trap"
	"github.com/oscore/teachkernel/internal/kernel/vm"
)

// allocproc scans the table for an UNUSED slot, claims it, and returns it
// with its lock held. The vm stand-in never fails allocation, so the only
// failure mode left is an exhausted table; freeproc is still the rollback
// path a fallible page allocator would use.
func (t *Table) allocproc() (*Proc, error) {
	for _, p := range t.Procs {
		p.Lock()
		if p.State() != UNUSED {
			p.Unlock()
			continue
		}

		p.Pid = t.AllocPid()
		p.setState(USED)
		if t.Mode() == ModeMLFQ {
			p.Level, p.TicksUsed, p.Priority = 0, 0, 3
		} else {
			p.Level, p.TicksUsed, p.Priority = SentinelUnset, 0, SentinelUnset
		}

		p.Pagetable = vm.Create()
		p.Trapframe = &trap.Frame{}
		p.Sz = 0
		p.Chan = 0
		p.XState = 0
		p.Name = ""
		p.UserStack = 0
		p.Ofile = [NOFILE]*fs.File{}
		p.Killed.Store(false)
		p.ctx = newProcContext()

		t.spawn(p)
		return p, nil
	}
	return nil, ErrNoFreeSlot
}

// freeproc releases kernel-owned resources and returns the slot to UNUSED.
// The caller must already hold p's lock and continues to hold it afterward;
// freeproc never releases it.
func (t *Table) freeproc(p *Proc) {
	if !p.Holding() {
		panic("freeproc: slot lock not held")
	}
	if p.Trapframe != nil {
		p.Trapframe = nil
	}
	if p.Pagetable != nil {
		p.Pagetable.Release()
		p.Pagetable = nil
	}
	p.Pid = 0
	p.parent = nil
	p.Name = ""
	p.Ofile = [NOFILE]*fs.File{}
	p.Cwd = nil
	p.Chan = 0
	p.XState = 0
	p.Sz = 0
	p.UserStack = 0
	p.Level, p.TicksUsed, p.Priority = SentinelUnset, 0, SentinelUnset
	p.Killed.Store(false)
	p.ctx = nil
	p.curCPU = nil
	p.setState(UNUSED)
}
