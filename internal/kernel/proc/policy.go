package proc

import "fmt"

// selectFCFS picks the RUNNABLE slot with the smallest PID, or (nil, false)
// if none is runnable. Every slot visited is locked once and unlocked unless
// it is the current best; exactly one lock (the winner's) survives the scan.
func selectFCFS(t *Table) (*Proc, bool) {
	var best *Proc
	for _, p := range t.Procs {
		p.Lock()
		if p.State() != RUNNABLE {
			p.Unlock()
			continue
		}
		if best == nil || p.Pid < best.Pid {
			if best != nil {
				best.Unlock()
			}
			best = p
		} else {
			p.Unlock()
		}
	}
	return best, best != nil
}

// selectMLFQ picks the first RUNNABLE L0 slot in table order, else the
// first RUNNABLE L1 slot, else the highest-priority RUNNABLE L2 slot (ties
// broken by table order).
func selectMLFQ(t *Table) (*Proc, bool) {
	if p, ok := firstRunnableAtLevel(t, 0); ok {
		return p, true
	}
	if p, ok := firstRunnableAtLevel(t, 1); ok {
		return p, true
	}
	return bestPriorityAtLevel(t, 2)
}

func firstRunnableAtLevel(t *Table, level int) (*Proc, bool) {
	for _, p := range t.Procs {
		p.Lock()
		if p.State() == RUNNABLE && p.Level == level {
			return p, true
		}
		p.Unlock()
	}
	return nil, false
}

func bestPriorityAtLevel(t *Table, level int) (*Proc, bool) {
	var best *Proc
	for _, p := range t.Procs {
		p.Lock()
		if p.State() != RUNNABLE || p.Level != level {
			p.Unlock()
			continue
		}
		if best == nil || p.Priority > best.Priority {
			if best != nil {
				best.Unlock()
			}
			best = p
		} else {
			p.Unlock()
		}
	}
	return best, best != nil
}

// boostPriorityAll resets every RUNNABLE/RUNNING/SLEEPING slot to level 0,
// zero ticks used, priority 3. Applying it twice in a row is a no-op: the
// reset values don't depend on the prior ones.
func (t *Table) boostPriorityAll() {
	for _, p := range t.Procs {
		p.Lock()
		switch p.State() {
		case RUNNABLE, RUNNING, SLEEPING:
			p.Level = 0
			p.TicksUsed = 0
			p.Priority = 3
		}
		p.Unlock()
	}
}

// MLFQMode switches the scheduler into MLFQ, or returns ErrAlreadyInMode.
func (t *Table) MLFQMode() error { return t.switchMode(ModeMLFQ) }

// FCFSMode switches the scheduler into FCFS, or returns ErrAlreadyInMode.
func (t *Table) FCFSMode() error { return t.switchMode(ModeFCFS) }

// switchMode resets every scheduled slot's scheduling fields, flips the
// mode, and zeroes new_tick. RUNNING slots are included: the caller of the
// mode syscall is itself RUNNING, and leaving it with sentinel fields would
// make it unschedulable until the next boost.
func (t *Table) switchMode(m SchedulingMode) error {
	if t.Mode() == m {
		return fmt.Errorf("%w: already in %s", ErrAlreadyInMode, m)
	}
	for _, p := range t.Procs {
		p.Lock()
		if p.State() == RUNNABLE || p.State() == SLEEPING || p.State() == RUNNING {
			if m == ModeMLFQ {
				p.Level, p.TicksUsed, p.Priority = 0, 0, 3
			} else {
				p.Level, p.TicksUsed, p.Priority = SentinelUnset, 0, SentinelUnset
			}
		}
		p.Unlock()
	}
	t.setMode(m)
	t.NewTick.Store(0)
	t.Log.Info("scheduler mode switch", "mode", m)
	return nil
}

// SetPriority sets a slot's MLFQ priority: ErrBadPriority if priority is
// outside 0..3, ErrNoSuchPID if pid doesn't name a live slot. A rejected
// priority never touches any slot's fields.
func (t *Table) SetPriority(pid, priority int) error {
	if priority < 0 || priority > 3 {
		return ErrBadPriority
	}
	for _, p := range t.Procs {
		p.Lock()
		if p.State() != UNUSED && p.Pid == pid {
			p.Priority = priority
			p.Unlock()
			return nil
		}
		p.Unlock()
	}
	return ErrNoSuchPID
}

// GetLev returns a slot's MLFQ level, or 99 under FCFS.
func (t *Table) GetLev(p *Proc) int {
	if t.Mode() != ModeMLFQ {
		return 99
	}
	p.Lock()
	defer p.Unlock()
	return p.Level
}
