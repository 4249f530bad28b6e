package proc

import "github.com/oscore/teachkernel/internal/kernel/vm"

// ParentPid returns the parent's PID, or 0 if p has no parent (only ever
// true for initproc). The parent back-reference is guarded by WaitLock.
func (t *Table) ParentPid(p *Proc) int {
	t.WaitLock.Lock()
	defer t.WaitLock.Unlock()
	if p.parent == nil {
		return 0
	}
	return p.parent.Pid
}

// procChan returns the stable, opaque wakeup-channel value for a slot.
// xv6 uses the slot's address; a slot's table index is just as stable and
// avoids unsafe.Pointer.
func procChan(p *Proc) uintptr { return uintptr(p.Idx) + 1 }

// Fork creates a child that copies the parent's address space, trapframe,
// descriptors, and name. child is what the new slot runs: a real fork
// resumes twice from one call site, which a goroutine's call stack can't
// replicate, so the child body is passed explicitly.
func (t *Table) Fork(parent *Proc, child Program) (int, error) {
	c, err := t.allocproc()
	if err != nil {
		return -1, err
	}

	old := c.Pagetable
	c.Pagetable = parent.Pagetable.Fork()
	old.Release()
	c.Sz = parent.Sz

	*c.Trapframe = parent.Trapframe.Copy()
	c.Trapframe.A0 = 0 // return value register: 0 to the child

	dupDescriptors(parent, c)
	c.Name = parent.Name
	c.Program = child
	pid := c.Pid
	c.Unlock()

	// WaitLock is ordered before slot locks, so the child's lock is dropped
	// before the parent link is published and retaken to mark it RUNNABLE.
	t.WaitLock.Lock()
	c.parent = parent
	t.WaitLock.Unlock()

	c.Lock()
	c.setState(RUNNABLE)
	c.Unlock()
	t.wakeSchedulers()
	return pid, nil
}

// Clone creates a thread sibling: like Fork, except the page table is shared
// (not copied) and the child starts at fn with stack and argument registers
// set from the caller-supplied values instead of copying the parent's
// trapframe.
func (t *Table) Clone(parent *Proc, userStack uintptr, arg1, arg2 uint64, fn Program) (int, error) {
	c, err := t.allocproc()
	if err != nil {
		return -1, err
	}

	old := c.Pagetable
	c.Pagetable = parent.Pagetable.Share()
	old.Release()
	c.Sz = parent.Sz

	c.UserStack = uint64(userStack)
	c.Trapframe.PC = 0
	c.Trapframe.SP = uint64(userStack) + vm.PageSize
	c.Trapframe.A0 = arg1
	c.Trapframe.A1 = arg2

	dupDescriptors(parent, c)
	c.Name = parent.Name
	c.Program = fn
	pid := c.Pid
	c.Unlock()

	t.WaitLock.Lock()
	c.parent = parent
	t.WaitLock.Unlock()

	c.Lock()
	c.setState(RUNNABLE)
	c.Unlock()
	t.wakeSchedulers()
	return pid, nil
}

func dupDescriptors(parent, child *Proc) {
	for i, f := range parent.Ofile {
		if f != nil {
			child.Ofile[i] = f.Dup()
		}
	}
	if parent.Cwd != nil {
		child.Cwd = parent.Cwd.Dup()
	}
}

// Exit terminates the calling process: close descriptors, release cwd, hand
// children to initproc, become ZOMBIE, give the CPU back for good. It never
// returns: the slot's goroutine ends here.
//
// WaitLock stays held from the parent wakeup through the ZOMBIE write, so a
// parent blocked in Wait cannot scan between the two, observe a live child,
// and go back to sleep after its one wakeup has already been spent.
func (t *Table) Exit(p *Proc, status int) {
	if p == t.InitProc {
		panic("proc: initproc exiting")
	}

	t.FS.BeginOp()
	for i, f := range p.Ofile {
		if f != nil {
			f.Close()
			p.Ofile[i] = nil
		}
	}
	if p.Cwd != nil {
		p.Cwd.Put()
		p.Cwd = nil
	}
	t.FS.EndOp()

	t.WaitLock.Lock()
	t.reparent(p)
	if p.parent != nil {
		t.Wakeup(procChan(p.parent), p)
	}

	p.Lock()
	p.XState = status
	p.setState(ZOMBIE)
	t.WaitLock.Unlock()

	t.exitSlot(p)
}

// reparent hands every child of p to initproc, waking initproc if any were
// moved. Callers must hold t.WaitLock.
func (t *Table) reparent(p *Proc) {
	moved := false
	for _, c := range t.Procs {
		if c.parent == p {
			c.parent = t.InitProc
			moved = true
		}
	}
	if moved {
		t.Wakeup(procChan(t.InitProc), p)
	}
}

// Wait reaps one zombie child of p, blocks until one appears, or fails if p
// has no children or has been killed.
func (t *Table) Wait(p *Proc, xstateOut *int) (int, error) {
	return t.reap(p, xstateOut, nil)
}

// Join reaps a child exactly as Wait does (any child, fork- or
// clone-created) and reports the child's clone-provided user stack instead
// of its exit status.
func (t *Table) Join(p *Proc, stackOut *uintptr) (int, error) {
	return t.reap(p, nil, stackOut)
}

func (t *Table) reap(p *Proc, xstateOut *int, stackOut *uintptr) (int, error) {
	t.WaitLock.Lock()
	for {
		haveChild := false
		for _, c := range t.Procs {
			if c == p {
				continue
			}
			c.Lock()
			if c.parent != p {
				c.Unlock()
				continue
			}
			haveChild = true
			if c.State() == ZOMBIE {
				pid := c.Pid
				if xstateOut != nil {
					*xstateOut = c.XState
				}
				if stackOut != nil {
					*stackOut = uintptr(c.UserStack)
				}
				t.freeproc(c)
				c.Unlock()
				t.WaitLock.Unlock()
				return pid, nil
			}
			c.Unlock()
		}

		if !haveChild {
			t.WaitLock.Unlock()
			return -1, ErrNoChild
		}
		if p.Killed.Load() {
			t.WaitLock.Unlock()
			return -1, ErrKilled
		}

		t.Sleep(p, procChan(p), &t.WaitLock)
	}
}

// Kill marks every slot sharing the target's page table (its whole thread
// group) killed, and flips any of them from SLEEPING to RUNNABLE so they
// wake and notice the flag. Termination itself happens at the victim's next
// return toward user mode.
func (t *Table) Kill(pid int) error {
	var target *Proc
	for _, p := range t.Procs {
		p.Lock()
		if p.State() != UNUSED && p.Pid == pid {
			target = p
			p.Unlock()
			break
		}
		p.Unlock()
	}
	if target == nil {
		return ErrNoSuchPID
	}

	for _, p := range t.Procs {
		p.Lock()
		if p.State() != UNUSED && p.Pagetable == target.Pagetable {
			p.Killed.Store(true)
			if p.State() == SLEEPING {
				p.setState(RUNNABLE)
			}
		}
		p.Unlock()
	}
	t.wakeSchedulers()
	t.Log.Info("kill", "pid", pid)
	return nil
}

// Growproc grows (n>0) or shrinks (n<0) the calling process's address space
// and propagates the new size to every slot sharing the page table. Sz is
// the one slot field not guarded by the slot's own lock: MemLock must never
// be held together with a slot lock, so every sibling's Sz is written here
// under MemLock alone, which also serializes concurrent growers.
func (t *Table) Growproc(p *Proc, n int) (int, error) {
	t.MemLock.Lock()
	defer t.MemLock.Unlock()

	var newSz vm.Size
	if n >= 0 {
		var err error
		newSz, err = p.Pagetable.Alloc(vm.Size(n))
		if err != nil {
			return -1, err
		}
	} else {
		newSz = p.Pagetable.Dealloc(vm.Size(-n))
	}

	for _, q := range t.Procs {
		if q.Pagetable == p.Pagetable {
			q.Sz = newSz
		}
	}
	return int(newSz), nil
}
