package proc

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

// TestSleepWakeupLiveness: a sleep followed by a wakeup on the same channel
// wakes the sleeper. Sleep is driven from inside initproc's own Program,
// exactly as a real caller would use it, because sched's preconditions only
// hold for a slot actually being run by the scheduler loop.
func TestSleepWakeupLiveness(t *testing.T) {
	table := newTestTable(4, 1)
	var lk sync.Mutex
	lk.Lock()
	awake := make(chan struct{})

	table.Userinit(func(rt Runtime) {
		table.Sleep(table.InitProc, 0xBEEF, &lk)
		close(awake)
	})

	cancel := startTable(table)
	defer cancel()

	assertEventuallyState(t, table.InitProc, SLEEPING)
	table.Wakeup(0xBEEF, nil)

	select {
	case <-awake:
	case <-time.After(time.Second):
		t.Fatal("sleeper was not woken")
	}
}

func TestWakeupIgnoresOtherChannels(t *testing.T) {
	table := newTestTable(4, 1)
	p, err := table.allocproc()
	if err != nil {
		t.Fatal(err)
	}
	p.Chan = 1
	p.setState(SLEEPING)
	p.Unlock()

	table.Wakeup(2, nil)

	p.Lock()
	assert.Equal(t, SLEEPING, p.State())
	p.Unlock()
}

func TestWakeupSkipsGivenProc(t *testing.T) {
	table := newTestTable(4, 1)
	p, err := table.allocproc()
	if err != nil {
		t.Fatal(err)
	}
	p.Chan = 5
	p.setState(SLEEPING)
	p.Unlock()

	table.Wakeup(5, p)

	p.Lock()
	assert.Equal(t, SLEEPING, p.State())
	p.Unlock()
}

// TestSleepTicksWakesOnDeadline drives a three-tick sleep from inside
// initproc and feeds the deadline with real Tick calls, as the timer would.
func TestSleepTicksWakesOnDeadline(t *testing.T) {
	table := newTestTable(4, 1)
	result := make(chan int, 1)

	table.Userinit(func(rt Runtime) {
		result <- rt.Sleep(3)
	})

	cancel := startTable(table)
	defer cancel()

	assertEventuallyState(t, table.InitProc, SLEEPING)

	for i := 0; i < 3; i++ {
		time.Sleep(5 * time.Millisecond)
		table.Tick()
	}

	select {
	case got := <-result:
		assert.Equal(t, 0, got)
	case <-time.After(time.Second):
		t.Fatal("tick sleep never woke after its deadline")
	}
}

func TestSleepTicksReturnsNegativeOneIfKilled(t *testing.T) {
	table := newTestTable(4, 1)
	result := make(chan int, 1)

	table.Userinit(func(rt Runtime) {
		result <- rt.Sleep(1000)
	})

	cancel := startTable(table)
	defer cancel()

	assertEventuallyState(t, table.InitProc, SLEEPING)
	table.InitProc.Killed.Store(true)
	table.Tick()

	select {
	case got := <-result:
		assert.Equal(t, -1, got)
	case <-time.After(time.Second):
		t.Fatal("tick sleep never noticed killed")
	}
}

func assertEventuallyState(t *testing.T, p *Proc, want State) {
	t.Helper()
	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		p.Lock()
		got := p.State()
		p.Unlock()
		if got == want {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatalf("proc never reached state %s", want)
}
