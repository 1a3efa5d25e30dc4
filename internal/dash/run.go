package dash

import (
	"context"
	"log/slog"
	"sync"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/thiagokokada/gitsync-go/internal/render"
	"github.com/thiagokokada/gitsync-go/internal/scheduler"
	"github.com/thiagokokada/gitsync-go/internal/session"
	"github.com/thiagokokada/gitsync-go/internal/watch"
)

// Run shows the dashboard until the user quits or ctx ends. The scheduler
// polls in the background meanwhile; when watchRepo is set, changes to the
// active repository trigger a refresh once the scheduler is idle.
func Run(ctx context.Context, sess *session.Session, sched *scheduler.Scheduler, r *render.Renderer, watchRepo bool) error {
	events, unsubscribe := sess.Subscribe()
	defer unsubscribe()

	var (
		mu      sync.Mutex
		watcher *watch.Watcher
		program *tea.Program
	)
	rewatch := func(dir string) {
		mu.Lock()
		defer mu.Unlock()
		if watcher != nil {
			if err := watcher.Close(); err != nil {
				slog.Error("watcher close", slog.Any("error", err))
			}
			watcher = nil
		}
		if !watchRepo || dir == "" {
			return
		}
		w, err := watch.New(dir, watch.DefaultDelay, func() {
			sched.WhenIdle(func() { program.Send(ReloadMsg{}) })
		})
		if err != nil {
			slog.Error("auto reload disabled", slog.Any("error", err))
			return
		}
		watcher = w
	}

	program = tea.NewProgram(New(sess, events, r, rewatch), tea.WithAltScreen(), tea.WithContext(ctx))
	if d, ok := sess.Active(); ok {
		rewatch(d.Directory)
	}
	defer rewatch("")

	sched.Start(ctx)
	defer sched.Stop()

	_, err := program.Run()
	return err
}
