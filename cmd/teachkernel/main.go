// Command teachkernel boots the process table and scheduler core and runs
// one of its demo scenarios to completion.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/oscore/teachkernel/internal/kernel/config"
	"github.com/oscore/teachkernel/internal/kernel/fs"
	"github.com/oscore/teachkernel/internal/kernel/proc"
	syscallrt "github.com/oscore/teachkernel/internal/kernel/syscall"
)

var (
	cfgPath          string
	debugOnInterrupt bool
	tickInterval     time.Duration
)

func main() {
	root := &cobra.Command{
		Use:   "teachkernel",
		Short: "A teaching kernel's process table and scheduler core",
		Long: `teachkernel boots a fixed-size process table, a per-CPU scheduler loop
running either FCFS or MLFQ, and the clone/join thread primitives, then
drives it through one of a handful of scenario programs.`,
	}

	root.PersistentFlags().StringVar(&cfgPath, "config", "", "path to a YAML boot config (defaults built in if omitted)")
	root.PersistentFlags().BoolVar(&debugOnInterrupt, "debug-on-interrupt", true, "on SIGINT/SIGTERM, print the process table before exiting")
	root.PersistentFlags().DurationVar(&tickInterval, "tick", 10*time.Millisecond, "simulated timer-tick period")

	root.AddCommand(newBootCmd())
	root.AddCommand(newDemoCmd())

	if err := root.Execute(); err != nil {
		slog.Error(err.Error())
		os.Exit(1)
	}
}

func newBootCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "boot",
		Short: "boot the kernel and run the init scenario to completion",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runScenario(cmd.Context(), "init")
		},
	}
}

func newDemoCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "demo <scenario>",
		Short: "run one of the named demo scenarios",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runScenario(cmd.Context(), args[0])
		},
	}
}

// boot wires a *proc.Table up end to end: config, filesystem, logger, and
// the syscall.Runtime bridge each slot's Program runs against. It also
// returns a context that ends on SIGINT/SIGTERM. This is the one place that
// is allowed to import both proc and syscall.
func boot(ctx context.Context, log *slog.Logger) (*proc.Table, context.Context, context.CancelFunc, error) {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return nil, nil, nil, err
	}

	fsys := fs.New()
	table := proc.NewTable(cfg.NPROC, cfg.NCPU, fsys, log)
	table.Quantum = cfg.Quantum
	table.BoostPeriod = cfg.BoostPeriod
	table.SetInitialMode(cfg.SchedulingMode())
	table.NewRuntime = func(p *proc.Proc) proc.Runtime { return syscallrt.New(table, p) }

	runCtx, cancel := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	return table, runCtx, cancel, nil
}

func runScenario(ctx context.Context, name string) error {
	log := slog.Default()
	table, runCtx, cancel, err := boot(ctx, log)
	if err != nil {
		return err
	}
	defer cancel()

	scenario, ok := scenarios[name]
	if !ok {
		return fmt.Errorf("teachkernel: no such scenario %q", name)
	}

	schedCtx, stopSched := context.WithCancel(ctx)
	defer stopSched()

	done := make(chan struct{})
	table.Userinit(func(rt proc.Runtime) {
		defer close(done)
		scenario(rt)
	})

	ticker := time.NewTicker(tickInterval)
	defer ticker.Stop()
	go func() {
		for {
			select {
			case <-ticker.C:
				table.Tick()
			case <-schedCtx.Done():
				return
			}
		}
	}()

	go table.Start(schedCtx)

	select {
	case <-done:
		log.Info("scenario finished", "name", name)
	case <-runCtx.Done():
		if debugOnInterrupt {
			table.Dump(os.Stdout)
		}
		log.Info("interrupted")
	}
	return nil
}
