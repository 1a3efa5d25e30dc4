package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/thiagokokada/gitsync-go/internal/dash"
	"github.com/thiagokokada/gitsync-go/internal/scheduler"
	"github.com/thiagokokada/gitsync-go/internal/session"
	"github.com/thiagokokada/gitsync-go/internal/watch"
)

var _ scheduler.Source = (*session.Session)(nil)

func (a *app) scheduler() (*scheduler.Scheduler, error) {
	interval, err := a.cfg.PollInterval()
	if err != nil {
		return nil, err
	}
	return scheduler.New(a.sess, interval), nil
}

func (a *app) watchCmd() *cobra.Command {
	var once bool
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Poll tracked repositories and print sync status changes",
		Long: "Classify every tracked repository, then fetch one repository per poll\n" +
			"interval and print each status as it is published. With --once only the\n" +
			"initial classification runs.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			if err := a.load(ctx); err != nil {
				return err
			}
			if err := a.sess.Runner().CheckVersion(ctx); err != nil {
				return err
			}
			sched, err := a.scheduler()
			if err != nil {
				return err
			}
			if once {
				return a.classifyOnce(ctx, sched)
			}
			return a.watchLoop(ctx, sched)
		},
	}
	cmd.Flags().BoolVar(&once, "once", false, "classify once without fetching and exit")
	return cmd
}

func (a *app) classifyOnce(ctx context.Context, sched *scheduler.Scheduler) error {
	if err := sched.Startup(ctx); err != nil {
		return err
	}
	dirs, err := a.sess.Repositories(ctx)
	if err != nil {
		return err
	}
	for _, dir := range dirs {
		fmt.Fprintf(a.stdout, "%s  %s\n", a.render.Status(a.sess.Status(dir)), dir)
	}
	return nil
}

func (a *app) watchLoop(ctx context.Context, sched *scheduler.Scheduler) error {
	events, unsubscribe := a.sess.Subscribe()
	defer unsubscribe()

	if d, ok := a.sess.Active(); ok && a.cfg.App.Watch {
		w, err := watch.New(d.Directory, watch.DefaultDelay, func() {
			sched.WhenIdle(func() { a.reportRefresh(ctx) })
		})
		if err != nil {
			slog.Error("auto reload disabled", slog.Any("error", err))
		} else {
			defer w.Close()
		}
	}

	sched.Start(ctx)
	defer sched.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-events:
			if !ok {
				return nil
			}
			fmt.Fprintf(a.stdout, "%s  %s\n", a.render.Status(ev.Status), ev.Directory)
		}
	}
}

// reportRefresh prints a summary when the active repository's branches or
// changes differ from the last refresh.
func (a *app) reportRefresh(ctx context.Context) {
	snap, res := a.sess.Refresh(ctx)
	if res.Failed() {
		slog.Warn("refresh failed", slog.Any("err", res.Err))
		return
	}
	if !snap.BranchesChanged && !snap.ChangesChanged {
		return
	}
	d, _ := a.sess.Active()
	fmt.Fprintf(a.stdout, "%s: %d branches, %d changed files\n", d.Directory, len(snap.Branches), len(snap.Changes))
}

func (a *app) dashCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "dash",
		Short: "Open the interactive dashboard",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			if err := a.load(ctx); err != nil {
				return err
			}
			if err := a.sess.Runner().CheckVersion(ctx); err != nil {
				return err
			}
			sched, err := a.scheduler()
			if err != nil {
				return err
			}
			if err := dash.Run(ctx, a.sess, sched, a.render, a.cfg.App.Watch); err != nil {
				return fmt.Errorf("dashboard: %w", err)
			}
			return nil
		},
	}
}
