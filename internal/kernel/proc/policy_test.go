package proc

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSelectFCFSPicksSmallestPID(t *testing.T) {
	table := newTestTable(4, 1)
	var procs []*Proc
	for i := 0; i < 3; i++ {
		p, err := table.allocproc()
		require.NoError(t, err)
		p.setState(RUNNABLE)
		p.Unlock()
		procs = append(procs, p)
	}

	best, ok := selectFCFS(table)
	require.True(t, ok)
	assert.Equal(t, procs[0].Pid, best.Pid)
	best.Unlock()
}

func TestSelectFCFSNoneRunnable(t *testing.T) {
	table := newTestTable(2, 1)
	_, ok := selectFCFS(table)
	assert.False(t, ok)
}

// TestSelectMLFQPrecedence: no L2 slot is chosen while an L0/L1 slot is
// RUNNABLE, and among L2 slots the highest priority wins.
func TestSelectMLFQPrecedence(t *testing.T) {
	table := newTestTable(4, 1)

	l2hi, err := table.allocproc()
	require.NoError(t, err)
	l2hi.Level, l2hi.Priority = 2, 3
	l2hi.setState(RUNNABLE)
	l2hi.Unlock()

	l2lo, err := table.allocproc()
	require.NoError(t, err)
	l2lo.Level, l2lo.Priority = 2, 1
	l2lo.setState(RUNNABLE)
	l2lo.Unlock()

	best, ok := selectMLFQ(table)
	require.True(t, ok)
	assert.Equal(t, l2hi.Pid, best.Pid)
	best.Unlock()

	l0, err := table.allocproc()
	require.NoError(t, err)
	l0.Level = 0
	l0.setState(RUNNABLE)
	l0.Unlock()

	best, ok = selectMLFQ(table)
	require.True(t, ok)
	assert.Equal(t, l0.Pid, best.Pid, "an L0 slot must preempt any L2 slot")
	best.Unlock()
}

func TestBoostIdempotence(t *testing.T) {
	table := newTestTable(2, 1)
	p, err := table.allocproc()
	require.NoError(t, err)
	p.setState(RUNNABLE)
	p.Level, p.TicksUsed, p.Priority = 2, 4, 0
	p.Unlock()

	table.boostPriorityAll()
	p.Lock()
	first := [3]int{p.Level, p.TicksUsed, p.Priority}
	p.Unlock()

	table.boostPriorityAll()
	p.Lock()
	second := [3]int{p.Level, p.TicksUsed, p.Priority}
	p.Unlock()

	assert.Equal(t, first, second)
	assert.Equal(t, [3]int{0, 0, 3}, first)
}

func TestModeChangeIdempotenceFailure(t *testing.T) {
	table := newTestTable(2, 1)
	assert.Equal(t, ModeFCFS, table.Mode())

	err := table.FCFSMode()
	assert.ErrorIs(t, err, ErrAlreadyInMode)
	assert.Equal(t, ModeFCFS, table.Mode())

	require.NoError(t, table.MLFQMode())
	assert.Equal(t, ModeMLFQ, table.Mode())

	err = table.MLFQMode()
	assert.ErrorIs(t, err, ErrAlreadyInMode)
	assert.Equal(t, ModeMLFQ, table.Mode())
}

func TestSetPriorityValidation(t *testing.T) {
	table := newTestTable(2, 1)
	p, err := table.allocproc()
	require.NoError(t, err)
	p.Unlock()

	assert.ErrorIs(t, table.SetPriority(p.Pid, 5), ErrBadPriority)
	assert.ErrorIs(t, table.SetPriority(12345, 2), ErrNoSuchPID)

	require.NoError(t, table.SetPriority(p.Pid, 2))
	p.Lock()
	assert.Equal(t, 2, p.Priority)
	p.Unlock()
}

func TestGetLevUnderFCFSIs99(t *testing.T) {
	table := newTestTable(2, 1)
	p, err := table.allocproc()
	require.NoError(t, err)
	p.Unlock()
	assert.Equal(t, 99, table.GetLev(p))
}
