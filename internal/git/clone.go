package git

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/thiagokokada/gitsync-go/internal/git/backend"
	"github.com/thiagokokada/gitsync-go/internal/task"
)

const (
	// CloneDepth is the history depth fetched by Clone.
	CloneDepth = 5
	// ResetDepth is the history depth fetched by HardReset.
	ResetDepth = 1
)

var errUnsafeDirectory = errors.New("refusing to remove directory")

// Clone creates dir when missing and clones address into it. A mkdir
// failure is left for git to report.
func Clone(ctx context.Context, c Commander, address, dir string) backend.Result {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		slog.Debug("create clone directory", slog.String("dir", dir), slog.Any("err", err))
	}
	return c.Run(ctx, backend.CloneCmd(address, dir, CloneDepth))
}

// HardReset throws the working tree away and clones address again with a
// depth of one. Removal errors are reported in the text but do not stop the
// clone; failing to recreate the directory does.
func (s *Service) HardReset(ctx context.Context, address string) backend.Result {
	if err := checkRemovable(s.dir); err != nil {
		return invalid(err)
	}
	log, done := s.lock("hard-reset")
	defer done()

	removeLine := "remove " + backend.Quote(s.dir)
	return task.Run(ctx,
		func(context.Context) (backend.Result, task.Outcome) {
			text := ">>> " + removeLine + "\n"
			if err := os.RemoveAll(s.dir); err != nil {
				log.Warn("remove working tree", slog.Any("err", err))
				text += "Error: " + err.Error() + "\n"
			}
			return backend.OK(text), task.Continue
		},
		func(context.Context) (backend.Result, task.Outcome) {
			if err := os.Mkdir(s.dir, 0o755); err != nil {
				return backend.Failed("Could not create local repository directory:\n"+err.Error(), &backend.Error{
					Kind:     backend.KindInvocationFailure,
					ExitCode: -1,
					Err:      err,
				}), task.Continue
			}
			return backend.OK(""), task.Continue
		},
		task.Command(s.network, backend.CloneCmd(address, s.dir, ResetDepth)),
	)
}

// checkRemovable rejects paths whose removal would obviously be a mistake.
func checkRemovable(dir string) error {
	clean := filepath.Clean(dir)
	if !filepath.IsAbs(clean) {
		return fmt.Errorf("%w: %q is not absolute", errUnsafeDirectory, dir)
	}
	if clean == filepath.VolumeName(clean)+string(filepath.Separator) {
		return fmt.Errorf("%w: %q is a filesystem root", errUnsafeDirectory, dir)
	}
	if home, err := os.UserHomeDir(); err == nil && clean == filepath.Clean(home) {
		return fmt.Errorf("%w: %q is the home directory", errUnsafeDirectory, dir)
	}
	return nil
}

// ConfigureIdentity sets the global user name and email, then either stores
// credentials or unsets the credential helper. The credential step may fail
// (unset on a missing key exits 5) without failing the whole operation.
func ConfigureIdentity(ctx context.Context, c Commander, name, email string, savePassword bool) backend.Result {
	helper := backend.UnsetConfigCmd("credential.helper")
	if savePassword {
		helper = backend.ConfigCmd("credential.helper", "store")
	}
	return task.Run(ctx,
		task.Command(c, backend.ConfigCmd("user.name", name)),
		task.Command(c, backend.ConfigCmd("user.email", email)),
		func(ctx context.Context) (backend.Result, task.Outcome) {
			res := c.Run(ctx, helper)
			return backend.OK(res.Text), task.Continue
		},
	)
}

// DirectoryForAddress suggests a clone directory under parent named after
// the last path segment of address without its extension, e.g.
// ".../gitsync.git" becomes parent/gitsync. ok is false when address has no
// extension to strip.
func DirectoryForAddress(parent, address string) (dir string, ok bool) {
	address = strings.TrimRight(strings.TrimSpace(address), "/")
	last := address[strings.LastIndexAny(address, "/:")+1:]
	parts := strings.Split(last, ".")
	if len(parts) < 2 || parts[len(parts)-2] == "" {
		return "", false
	}
	return filepath.Join(parent, parts[len(parts)-2]), true
}
