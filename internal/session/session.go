// Package session holds the state shared by the CLI, the dashboard and the
// scheduler: settings, tracked repositories, the active repository and the
// latest sync status of each repository.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"sync"
	"time"

	"github.com/thiagokokada/gitsync-go/internal/config"
	"github.com/thiagokokada/gitsync-go/internal/git"
	"github.com/thiagokokada/gitsync-go/internal/git/backend"
	"github.com/thiagokokada/gitsync-go/internal/locker"
	"github.com/thiagokokada/gitsync-go/internal/store"
)

var ErrNoActiveRepository = errors.New("no active repository")

// StatusEvent is delivered to subscribers whenever a status is published.
type StatusEvent struct {
	Directory string
	Status    git.SyncStatus
}

type Session struct {
	cfg     *config.Config
	cfgPath string
	store   *store.Store

	runner     *backend.Runner
	querier    git.Querier
	locker     *locker.Locker
	netTimeout time.Duration

	mu       sync.Mutex
	active   *store.Descriptor
	drawn    drawCache
	statuses map[string]git.SyncStatus
	subs     map[int]chan StatusEvent
	nextSub  int
}

type drawCache struct {
	dir      string
	branches string
	changes  string
}

// New builds a session. cfgPath may be empty, in which case settings are
// never written back. An active repository that is no longer tracked is
// cleared.
func New(ctx context.Context, cfg *config.Config, cfgPath string, st *store.Store) (*Session, error) {
	netTimeout, err := cfg.NetworkTimeout()
	if err != nil {
		return nil, err
	}
	runner := backend.NewRunner(cfg.App.GitBin)
	var querier git.Querier = git.CLIQuerier{Runner: runner}
	if cfg.App.Backend == config.BackendNative {
		querier = git.NativeQuerier{}
	}
	s := &Session{
		cfg:        cfg,
		cfgPath:    cfgPath,
		store:      st,
		runner:     runner,
		querier:    querier,
		locker:     locker.New(),
		netTimeout: netTimeout,
		statuses:   make(map[string]git.SyncStatus),
		subs:       make(map[int]chan StatusEvent),
	}
	if dir := cfg.App.Active; dir != "" {
		d, err := st.Lookup(ctx, dir)
		if err != nil {
			slog.Warn("dropping invalid active repository", slog.String("dir", dir), slog.Any("err", err))
			cfg.App.Active = ""
			if err := s.SaveConfig(); err != nil {
				return nil, err
			}
		} else {
			s.active = &d
		}
	}
	return s, nil
}

func (s *Session) Config() *config.Config { return s.cfg }

func (s *Session) Runner() *backend.Runner { return s.runner }

// SaveConfig writes the settings file when the session has one.
func (s *Session) SaveConfig() error {
	if s.cfgPath == "" {
		return nil
	}
	if err := s.cfg.Save(s.cfgPath); err != nil {
		return fmt.Errorf("save config: %w", err)
	}
	return nil
}

// Service returns the git service of dir sharing the session's runner,
// querier and directory locks.
func (s *Session) Service(dir string) (*git.Service, error) {
	return git.Open(dir, git.Options{
		Runner:         s.runner,
		Locker:         s.locker,
		Querier:        s.querier,
		NetworkTimeout: s.netTimeout,
		NativeDiff:     s.cfg.App.Backend == config.BackendNative,
	})
}

func (s *Session) Repositories(ctx context.Context) ([]string, error) {
	return s.store.Directories(ctx)
}

// Validate checks that dir has a consistent descriptor.
func (s *Session) Validate(ctx context.Context, dir string) error {
	_, err := s.store.Lookup(ctx, dir)
	return err
}

func (s *Session) Lookup(ctx context.Context, dir string) (store.Descriptor, error) {
	return s.store.Lookup(ctx, dir)
}

func (s *Session) Fetch(ctx context.Context, dir string) backend.Result {
	svc, err := s.Service(dir)
	if err != nil {
		return failure(err)
	}
	return svc.Fetch(ctx)
}

func (s *Session) Compare(ctx context.Context, dir string) (git.SyncStatus, backend.Result) {
	svc, err := s.Service(dir)
	if err != nil {
		return git.StatusError, failure(err)
	}
	return svc.Compare(ctx)
}

func failure(err error) backend.Result {
	return backend.Failed("Error: "+err.Error(), &backend.Error{
		Kind:     backend.KindInvocationFailure,
		ExitCode: -1,
		Err:      err,
	})
}

// Publish records status for dir and notifies subscribers. Slow subscribers
// miss events rather than block the publisher; Statuses is always current.
func (s *Session) Publish(dir string, status git.SyncStatus) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.statuses[dir] = status
	ev := StatusEvent{Directory: dir, Status: status}
	for id, ch := range s.subs {
		select {
		case ch <- ev:
		default:
			slog.Debug("status event dropped", slog.Int("subscriber", id), slog.String("dir", dir))
		}
	}
}

func (s *Session) Status(dir string) git.SyncStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.statuses[dir]
}

// Statuses returns a copy of the status map.
func (s *Session) Statuses() map[string]git.SyncStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]git.SyncStatus, len(s.statuses))
	for k, v := range s.statuses {
		out[k] = v
	}
	return out
}

// Subscribe returns a channel of status events and a function that
// unsubscribes and closes it.
func (s *Session) Subscribe() (<-chan StatusEvent, func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.nextSub
	s.nextSub++
	ch := make(chan StatusEvent, 32)
	s.subs[id] = ch
	var once sync.Once
	return ch, func() {
		once.Do(func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			delete(s.subs, id)
			close(ch)
		})
	}
}

// Active returns the active repository.
func (s *Session) Active() (store.Descriptor, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.active == nil {
		return store.Descriptor{}, false
	}
	return *s.active, true
}

// Open makes dir the active repository after validating its descriptor.
func (s *Session) Open(ctx context.Context, dir string) (store.Descriptor, error) {
	d, err := s.store.Lookup(ctx, dir)
	if err != nil {
		return store.Descriptor{}, err
	}
	s.mu.Lock()
	s.active = &d
	s.drawn = drawCache{}
	s.mu.Unlock()

	s.cfg.App.Active = d.Directory
	if err := s.SaveConfig(); err != nil {
		return store.Descriptor{}, err
	}
	return d, nil
}

// Refreshed is the outcome of Refresh. The Changed flags are false when the
// raw listing is identical to the previous refresh of the same repository,
// so presentation can skip redrawing.
type Refreshed struct {
	git.Snapshot
	BranchesChanged bool
	ChangesChanged  bool
}

// Refresh reloads branches and then changes of the active repository.
func (s *Session) Refresh(ctx context.Context) (Refreshed, backend.Result) {
	d, ok := s.Active()
	if !ok {
		return Refreshed{}, failure(ErrNoActiveRepository)
	}
	svc, err := s.Service(d.Directory)
	if err != nil {
		return Refreshed{}, failure(err)
	}
	snap, res := svc.Refresh(ctx)
	if res.Failed() {
		return Refreshed{Snapshot: snap}, res
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	out := Refreshed{Snapshot: snap, BranchesChanged: true, ChangesChanged: true}
	if s.drawn.dir == d.Directory {
		out.BranchesChanged = s.drawn.branches != snap.BranchesRaw
		out.ChangesChanged = s.drawn.changes != snap.ChangesRaw
	}
	s.drawn = drawCache{dir: d.Directory, branches: snap.BranchesRaw, changes: snap.ChangesRaw}
	return out, res
}

// Import starts tracking an existing working tree.
func (s *Session) Import(ctx context.Context, dir, address string) (store.Descriptor, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return store.Descriptor{}, err
	}
	d := store.Descriptor{Address: address, Directory: abs}
	if err := s.store.Put(ctx, d); err != nil {
		return store.Descriptor{}, err
	}
	return d, nil
}

// Clone clones address into dir, tracks it, makes it active and remembers
// its parent as the next clone location.
func (s *Session) Clone(ctx context.Context, address, dir string) (store.Descriptor, backend.Result) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return store.Descriptor{}, failure(err)
	}
	res := git.Clone(ctx, s.runner.WithTimeout(s.netTimeout), address, abs)
	if res.Failed() {
		return store.Descriptor{}, res
	}
	d, err := s.Import(ctx, abs, address)
	if err != nil {
		return store.Descriptor{}, res.Append(failure(err))
	}
	s.cfg.App.LastPath = filepath.Dir(abs)
	if _, err := s.Open(ctx, abs); err != nil {
		return d, res.Append(failure(err))
	}
	return d, res
}

// Remove stops tracking dir. When dir was active the repository before it
// (or the first one) becomes active.
func (s *Session) Remove(ctx context.Context, dir string) error {
	dirs, err := s.store.Directories(ctx)
	if err != nil {
		return err
	}
	idx := slices.Index(dirs, dir)
	if err := s.store.Delete(ctx, dir); err != nil {
		return err
	}
	s.mu.Lock()
	delete(s.statuses, dir)
	wasActive := s.active != nil && s.active.Directory == dir
	if wasActive {
		s.active = nil
		s.drawn = drawCache{}
	}
	s.mu.Unlock()

	if !wasActive {
		return nil
	}
	dirs = slices.Delete(dirs, idx, idx+1)
	if len(dirs) == 0 {
		s.cfg.App.Active = ""
		return s.SaveConfig()
	}
	if idx > 0 {
		idx--
	}
	_, err = s.Open(ctx, dirs[idx])
	return err
}

// ConfigureIdentity applies the identity settings to git's global config
// and saves them.
func (s *Session) ConfigureIdentity(ctx context.Context, name, email string, savePassword bool) backend.Result {
	s.cfg.User = config.UserConfig{Name: name, Email: email, SavePassword: savePassword}
	if err := s.SaveConfig(); err != nil {
		return failure(err)
	}
	return git.ConfigureIdentity(ctx, s.runner, name, email, savePassword)
}

// HardReset replaces the working tree of dir with a fresh shallow clone of
// its tracked address.
func (s *Session) HardReset(ctx context.Context, dir string) backend.Result {
	d, err := s.store.Lookup(ctx, dir)
	if err != nil {
		return failure(err)
	}
	// a previous reset may have failed after removing the tree
	if err := os.MkdirAll(d.Directory, 0o755); err != nil {
		return failure(err)
	}
	svc, err := s.Service(d.Directory)
	if err != nil {
		return failure(err)
	}
	return svc.HardReset(ctx, d.Address)
}
