package proc

import "sync"

// ticksChan is the reserved wakeup-channel value SleepTicks waiters block
// on; procChan never produces this value (it's always p.Idx+1, well below
// the maximum uintptr).
const ticksChan = ^uintptr(0)

// SleepTicks blocks until n timer ticks have elapsed or the caller is
// killed. Every wake, spurious or not, rechecks both conditions.
func (t *Table) SleepTicks(p *Proc, n int) int {
	t.TickLock.Lock()
	target := t.NewTick.Load() + int64(n)
	for t.NewTick.Load() < target {
		if p.Killed.Load() {
			t.TickLock.Unlock()
			return -1
		}
		t.Sleep(p, ticksChan, &t.TickLock)
	}
	t.TickLock.Unlock()
	return 0
}

// Sleep atomically releases lk and parks the slot on chanAddr. Acquiring
// self's lock before releasing lk is what makes a concurrent Wakeup unable
// to race past a sleeper: Wakeup also takes self's lock before checking
// state, so whichever of the two gets there first is the one observed.
func (t *Table) Sleep(p *Proc, chanAddr uintptr, lk sync.Locker) {
	p.Lock()
	lk.Unlock()

	p.Chan = chanAddr
	p.setState(SLEEPING)

	t.sched(p, true)

	p.Chan = 0
	p.Unlock()
	lk.Lock()
}

// Wakeup makes every slot other than skip that is SLEEPING on chanAddr
// RUNNABLE.
func (t *Table) Wakeup(chanAddr uintptr, skip *Proc) {
	woke := false
	for _, p := range t.Procs {
		if p == skip {
			continue
		}
		p.Lock()
		if p.State() == SLEEPING && p.Chan == chanAddr {
			p.setState(RUNNABLE)
			woke = true
		}
		p.Unlock()
	}
	if woke {
		t.wakeSchedulers()
	}
}
