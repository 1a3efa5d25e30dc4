package git

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/thiagokokada/gitsync-go/internal/git/backend"
	"github.com/thiagokokada/gitsync-go/internal/locker"
	"github.com/thiagokokada/gitsync-go/internal/task"
)

var (
	ErrRepositoryNotSet = errors.New("repository root not set")
	errBranchMissing    = errors.New("branch not specified")
	errFileMissing      = errors.New("file not specified")
	errCommitMissing    = errors.New("commit not specified")
	errOptionLike       = errors.New("value must not start with '-'")
)

// Commander runs git command lines. *backend.Runner implements it.
type Commander interface {
	Run(ctx context.Context, line string) backend.Result
	Porcelain(ctx context.Context, line string) backend.Result
}

type Options struct {
	Runner *backend.Runner
	// Locker serializes commands per directory; a private one is used when
	// nil.
	Locker *locker.Locker
	// Querier defaults to CLIQuerier.
	Querier Querier
	// NetworkTimeout bounds clone, fetch, pull and push. Zero disables it.
	NetworkTimeout time.Duration
	// NativeDiff renders file diffs with go-git instead of "git diff".
	NativeDiff bool
}

// Service runs the operations of one working tree. Every operation holds
// the directory lock for its whole pipeline.
type Service struct {
	dir        string
	local      Commander
	network    Commander
	locker     *locker.Locker
	querier    Querier
	nativeDiff bool
}

func Open(dir string, opts Options) (*Service, error) {
	if strings.TrimSpace(dir) == "" {
		return nil, ErrRepositoryNotSet
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, err
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, fmt.Errorf("open repository: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("open repository: %s is not a directory", abs)
	}
	runner := opts.Runner
	if runner == nil {
		runner = backend.NewRunner("git")
	}
	querier := opts.Querier
	if querier == nil {
		querier = CLIQuerier{Runner: runner}
	}
	s := NewWithBackend(abs, runner.In(abs), runner.In(abs).WithTimeout(opts.NetworkTimeout), querier)
	s.nativeDiff = opts.NativeDiff
	if opts.Locker != nil {
		s.locker = opts.Locker
	}
	return s, nil
}

// NewWithBackend builds a service around explicit collaborators without
// touching the filesystem.
func NewWithBackend(dir string, local, network Commander, querier Querier) *Service {
	return &Service{
		dir:     dir,
		local:   local,
		network: network,
		locker:  locker.New(),
		querier: querier,
	}
}

func (s *Service) Dir() string { return s.dir }

func (s *Service) lock(op string) (*slog.Logger, func()) {
	log := slog.With(
		slog.String("op", op),
		slog.String("op_id", uuid.NewString()),
		slog.String("repo", s.dir),
	)
	start := time.Now()
	unlock := s.locker.Lock(s.dir)
	log.Debug("git operation start")
	return log, func() {
		unlock()
		log.Debug("git operation done", slog.Duration("elapsed", time.Since(start)))
	}
}

// checkRef rejects an empty branch or commit and one git would parse as an
// option.
func checkRef(value string, missing error) error {
	switch v := strings.TrimSpace(value); {
	case v == "":
		return missing
	case strings.HasPrefix(v, "-"):
		return fmt.Errorf("%q: %w", value, errOptionLike)
	}
	return nil
}

func invalid(err error) backend.Result {
	return backend.Failed("Error: "+err.Error(), &backend.Error{
		Kind:     backend.KindInvocationFailure,
		ExitCode: -1,
		Err:      err,
	})
}

// Status returns "git status" output verbatim; it is never parsed.
func (s *Service) Status(ctx context.Context) backend.Result {
	_, done := s.lock("status")
	defer done()
	return s.local.Porcelain(ctx, backend.StatusCmd())
}

func (s *Service) Branches(ctx context.Context) ([]Branch, backend.Result) {
	_, done := s.lock("branches")
	defer done()
	return s.branches(ctx)
}

func (s *Service) branches(ctx context.Context) ([]Branch, backend.Result) {
	res := s.local.Porcelain(ctx, backend.BranchesCmd())
	out, ok := res.Stdout()
	if !ok {
		return nil, res
	}
	return ParseBranches(out), res
}

func (s *Service) Changes(ctx context.Context) ([]ChangedFile, backend.Result) {
	_, done := s.lock("changes")
	defer done()
	return s.changes(ctx)
}

func (s *Service) changes(ctx context.Context) ([]ChangedFile, backend.Result) {
	res := s.local.Porcelain(ctx, backend.ChangesCmd())
	out, ok := res.Stdout()
	if !ok {
		return nil, res
	}
	return ParseChanges(out), res
}

// Snapshot is the parsed state shown for the active repository. The raw
// listings are kept so callers can skip redraws when nothing changed.
type Snapshot struct {
	Branches    []Branch
	Changes     []ChangedFile
	BranchesRaw string
	ChangesRaw  string
}

// Refresh lists branches and then changes. The change listing is not run
// when the branch listing failed.
func (s *Service) Refresh(ctx context.Context) (Snapshot, backend.Result) {
	_, done := s.lock("refresh")
	defer done()

	var snap Snapshot
	res := task.Run(ctx,
		func(ctx context.Context) (backend.Result, task.Outcome) {
			res := s.local.Porcelain(ctx, backend.BranchesCmd())
			if out, ok := res.Stdout(); ok {
				snap.BranchesRaw = out
				snap.Branches = ParseBranches(out)
			}
			return res, task.Continue
		},
		func(ctx context.Context) (backend.Result, task.Outcome) {
			res := s.local.Porcelain(ctx, backend.ChangesCmd())
			if out, ok := res.Stdout(); ok {
				snap.ChangesRaw = out
				snap.Changes = ParseChanges(out)
			}
			return res, task.Continue
		},
	)
	return snap, res
}

// FileDiff returns the working tree diff of one file. Stdout carries the
// diff text.
func (s *Service) FileDiff(ctx context.Context, file string) backend.Result {
	if strings.TrimSpace(file) == "" {
		return invalid(errFileMissing)
	}
	log, done := s.lock("diff")
	defer done()
	if !s.nativeDiff {
		return s.local.Porcelain(ctx, backend.FileDiffCmd(file))
	}
	line := "native diff -- " + backend.Quote(file)
	text, err := NativeFileDiff(s.dir, file)
	if err != nil {
		log.Warn("native diff failed", slog.String("file", file), slog.Any("err", err))
		return backend.Failed(">>> "+line+"\nError: "+err.Error(), &backend.Error{
			Kind:     backend.KindInvocationFailure,
			Line:     line,
			ExitCode: -1,
			Err:      err,
		})
	}
	formatted := ">>> " + line + "\n"
	if text != "" {
		formatted += text + "\n"
	}
	return backend.OKWithStdout(formatted, text)
}

func (s *Service) Fetch(ctx context.Context) backend.Result {
	_, done := s.lock("fetch")
	defer done()
	return s.network.Run(ctx, backend.FetchCmd())
}

func (s *Service) pullSteps() []task.Step {
	return []task.Step{
		task.Command(s.network, backend.PruneCmd()),
		task.Command(s.network, backend.PullCmd()),
	}
}

func (s *Service) commitSteps(message string) []task.Step {
	return []task.Step{
		task.Command(s.local, backend.StageCmd()),
		task.Command(s.local, backend.CommitCmd(message)),
	}
}

// Pull prunes stale remote branches and rebases onto the upstream.
func (s *Service) Pull(ctx context.Context) backend.Result {
	_, done := s.lock("pull")
	defer done()
	return task.Run(ctx, s.pullSteps()...)
}

func (s *Service) Push(ctx context.Context) backend.Result {
	_, done := s.lock("push")
	defer done()
	return s.network.Run(ctx, backend.PushCmd())
}

// Commit stages everything and commits. A blank message is replaced by
// backend.DefaultCommitMessage.
func (s *Service) Commit(ctx context.Context, message string) backend.Result {
	_, done := s.lock("commit")
	defer done()
	return task.Run(ctx, s.commitSteps(message)...)
}

func (s *Service) CommitAndPush(ctx context.Context, message string) backend.Result {
	_, done := s.lock("commit-push")
	defer done()
	steps := append(s.commitSteps(message), task.Command(s.network, backend.PushCmd()))
	return task.Run(ctx, steps...)
}

// Sync pulls and then pushes.
func (s *Service) Sync(ctx context.Context) backend.Result {
	_, done := s.lock("sync")
	defer done()
	steps := append(s.pullSteps(), task.Command(s.network, backend.PushCmd()))
	return task.Run(ctx, steps...)
}

func (s *Service) ForcePush(ctx context.Context, branch string) backend.Result {
	if err := checkRef(branch, errBranchMissing); err != nil {
		return invalid(err)
	}
	_, done := s.lock("force-push")
	defer done()
	return s.network.Run(ctx, backend.ForcePushCmd(branch))
}

func (s *Service) Revert(ctx context.Context, commit string) backend.Result {
	if err := checkRef(commit, errCommitMissing); err != nil {
		return invalid(err)
	}
	_, done := s.lock("revert")
	defer done()
	return s.local.Run(ctx, backend.RevertCmd(commit))
}

func (s *Service) SwitchBranch(ctx context.Context, branch string) backend.Result {
	if err := checkRef(branch, errBranchMissing); err != nil {
		return invalid(err)
	}
	_, done := s.lock("switch")
	defer done()
	return s.local.Run(ctx, backend.SwitchCmd(branch))
}

func (s *Service) DeleteBranch(ctx context.Context, branch string) backend.Result {
	if err := checkRef(branch, errBranchMissing); err != nil {
		return invalid(err)
	}
	_, done := s.lock("delete-branch")
	defer done()
	return s.local.Run(ctx, backend.DeleteBranchCmd(branch))
}

// Rollback discards working tree changes of one file.
func (s *Service) Rollback(ctx context.Context, file string) backend.Result {
	if strings.TrimSpace(file) == "" {
		return invalid(errFileMissing)
	}
	_, done := s.lock("rollback")
	defer done()
	return s.local.Run(ctx, backend.RollbackCmd(file))
}

// Compare classifies the repository against its upstream without fetching.
func (s *Service) Compare(ctx context.Context) (SyncStatus, backend.Result) {
	log, done := s.lock("compare")
	defer done()
	status, res := Compare(ctx, s.querier, s.dir)
	log.Debug("compared", slog.String("status", status.String()))
	return status, res
}
