package main

import (
	"log/slog"

	"github.com/oscore/teachkernel/internal/kernel/proc"
)

// scenarios maps a demo name to the Program initproc runs; "init" is a
// trivial no-op used by `boot` to exercise nothing but startup/shutdown.
var scenarios = map[string]proc.Program{
	"init":          func(rt proc.Runtime) {},
	"fork-wait":     scenarioForkWait,
	"fcfs-order":    scenarioFCFSOrder,
	"mlfq-priority": scenarioMLFQPriority,
	"priority-args": scenarioPriorityArgs,
	"clone-shared":  scenarioCloneShared,
	"clone-join":    scenarioCloneJoin,
}

// scenarioForkWait: fork, parent waits on a child that exits with status 7.
func scenarioForkWait(rt proc.Runtime) {
	pid, err := rt.Fork(func(child proc.Runtime) {
		child.Exit(7)
	})
	if err != nil {
		slog.Error("fork-wait: fork failed", "err", err)
		return
	}
	childPid, status, err := rt.Wait()
	if err != nil {
		slog.Error("fork-wait: wait failed", "err", err)
		return
	}
	slog.Info("fork-wait done", "forked_pid", pid, "reaped_pid", childPid, "status", status)
}

// scenarioFCFSOrder: under FCFS, spawn A, B, C in order; each yields a fixed
// number of times and then exits. On a single CPU, C can't run until B exits
// and B can't until A does; with more CPUs, each idle CPU takes the smallest
// remaining RUNNABLE PID, so their runs overlap.
func scenarioFCFSOrder(rt proc.Runtime) {
	if err := rt.FCFSMode(); err != nil {
		// already FCFS at boot; not fatal
		slog.Info("fcfs-order: fcfsmode", "err", err)
	}
	spin := func(self proc.Runtime, rounds int) {
		for i := 0; i < rounds; i++ {
			self.Yield()
		}
		self.Exit(0)
	}
	_, _ = rt.Fork(func(a proc.Runtime) { spin(a, 50) })
	_, _ = rt.Fork(func(b proc.Runtime) { spin(b, 50) })
	_, _ = rt.Fork(func(c proc.Runtime) {
		slog.Info("fcfs-order: C got the CPU", "level", c.GetLev())
		spin(c, 10)
	})
	for i := 0; i < 3; i++ {
		if _, _, err := rt.Wait(); err != nil {
			break
		}
	}
}

// scenarioMLFQPriority: under MLFQ, fork two processes with priorities 3
// and 1. Both start at level 0; the priorities decide the order only among
// level-2 slots, which they reach only after timer ticks demote them.
func scenarioMLFQPriority(rt proc.Runtime) {
	if err := rt.MLFQMode(); err != nil {
		slog.Info("mlfq-priority: mlfqmode", "err", err)
	}
	_, _ = rt.Fork(func(hi proc.Runtime) {
		_ = hi.SetPriority(hi.GetPid(), 3)
		for i := 0; i < 20; i++ {
			hi.Yield()
		}
		hi.Exit(0)
	})
	_, _ = rt.Fork(func(lo proc.Runtime) {
		_ = lo.SetPriority(lo.GetPid(), 1)
		for i := 0; i < 20; i++ {
			lo.Yield()
		}
		slog.Info("mlfq-priority: low-priority slot ran", "level", lo.GetLev())
		lo.Exit(0)
	})
	for i := 0; i < 2; i++ {
		if _, _, err := rt.Wait(); err != nil {
			break
		}
	}
}

// scenarioPriorityArgs: setpriority argument validation.
func scenarioPriorityArgs(rt proc.Runtime) {
	if err := rt.MLFQMode(); err != nil {
		slog.Info("priority-args: mlfqmode", "err", err)
	}
	if err := rt.SetPriority(rt.GetPid(), 5); err == nil {
		slog.Error("priority-args: expected error for out-of-range priority")
	}
	if err := rt.SetPriority(42, 2); err == nil {
		slog.Error("priority-args: expected error for nonexistent pid")
	}
	if err := rt.SetPriority(rt.GetPid(), 2); err != nil {
		slog.Error("priority-args: unexpected error setting own priority", "err", err)
	}
	slog.Info("priority-args done")
}

// scenarioCloneShared: clone shares the address space; growproc on the
// parent is visible to the child; killing the child also kills the parent.
func scenarioCloneShared(rt proc.Runtime) {
	const stackPage = 0x2000
	if _, err := rt.Sbrk(4096); err != nil {
		slog.Error("clone-shared: sbrk failed", "err", err)
		return
	}
	_, err := rt.Clone(stackPage, 11, 22, func(child proc.Runtime) {
		for i := 0; i < 5; i++ {
			child.Yield()
		}
		child.Exit(0)
	})
	if err != nil {
		slog.Error("clone-shared: clone failed", "err", err)
		return
	}
	if _, err := rt.Sbrk(4096); err != nil {
		slog.Error("clone-shared: growproc failed", "err", err)
	}
	if _, _, err := rt.Join(); err != nil {
		slog.Error("clone-shared: join failed", "err", err)
	}
	slog.Info("clone-shared done")
}

// scenarioCloneJoin: clone a child that exits immediately; join reports its
// PID and clone-provided stack.
func scenarioCloneJoin(rt proc.Runtime) {
	const stackPage = 0x3000
	pid, err := rt.Clone(stackPage, 0, 0, func(child proc.Runtime) {
		child.Exit(0)
	})
	if err != nil {
		slog.Error("clone-join: clone failed", "err", err)
		return
	}
	joinedPid, stack, err := rt.Join()
	if err != nil {
		slog.Error("clone-join: join failed", "err", err)
		return
	}
	slog.Info("clone-join done", "cloned_pid", pid, "joined_pid", joinedPid, "stack", stack)
}
