// Package cmd is the gitsync command line.
package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/thiagokokada/gitsync-go/internal/config"
	"github.com/thiagokokada/gitsync-go/internal/git"
	"github.com/thiagokokada/gitsync-go/internal/git/backend"
	"github.com/thiagokokada/gitsync-go/internal/logging"
	"github.com/thiagokokada/gitsync-go/internal/render"
	"github.com/thiagokokada/gitsync-go/internal/session"
	"github.com/thiagokokada/gitsync-go/internal/store"
)

// errFailed marks a git operation whose output was already printed.
var errFailed = errors.New("git operation failed")

func Run() error {
	return execute(context.Background(), os.Args[1:], os.Stdin, os.Stdout, os.Stderr)
}

// run is the testable entry point: args includes the program name and the
// exit code is returned instead of terminating the process.
func run(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	if err := execute(context.Background(), args[1:], stdin, stdout, stderr); err != nil {
		fmt.Fprintf(stderr, "gitsync: %v\n", err)
		return 1
	}
	return 0
}

func execute(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) error {
	a := &app{stdin: stdin, stdout: stdout, stderr: stderr}
	defer a.close()
	root := a.rootCmd()
	root.SetArgs(args)
	root.SetIn(stdin)
	root.SetOut(stdout)
	root.SetErr(stderr)
	return root.ExecuteContext(ctx)
}

// app carries the flags and the lazily opened session shared by every
// subcommand.
type app struct {
	stdin          io.Reader
	stdout, stderr io.Writer

	configPath string
	dataPath   string
	repo       string
	verbose    bool

	cfg    *config.Config
	store  *store.Store
	sess   *session.Session
	render *render.Renderer
}

func (a *app) rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "gitsync",
		Short:         "Keep a set of git repositories in sync with their remotes",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			logging.Setup(a.stderr, a.verbose)
			return nil
		},
	}
	pf := root.PersistentFlags()
	pf.StringVar(&a.configPath, "config", "", "settings file (default: user config dir)")
	pf.StringVar(&a.dataPath, "data", "", "repository database (default: user data dir)")
	pf.StringVarP(&a.repo, "repo", "C", "", "repository directory (default: the active one)")
	pf.BoolVarP(&a.verbose, "verbose", "v", false, "enable verbose logging")

	root.AddCommand(
		a.versionCmd(),
		a.listCmd(),
		a.importCmd(),
		a.cloneCmd(),
		a.removeCmd(),
		a.openCmd(),
		a.hardResetCmd(),
		a.statusCmd(),
		a.refreshCmd(),
		a.diffCmd(),
		a.fetchCmd(),
		a.compareCmd(),
		a.pullCmd(),
		a.pushCmd(),
		a.syncCmd(),
		a.commitCmd(),
		a.revertCmd(),
		a.forcePushCmd(),
		a.switchCmd(),
		a.deleteBranchCmd(),
		a.rollbackCmd(),
		a.configCmd(),
		a.watchCmd(),
		a.dashCmd(),
	)
	return root
}

// load opens the settings, the repository database and the session.
func (a *app) load(ctx context.Context) error {
	if a.sess != nil {
		return nil
	}
	if a.configPath == "" {
		p, err := config.DefaultPath()
		if err != nil {
			return err
		}
		a.configPath = p
	}
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return err
	}
	if a.dataPath == "" {
		p, err := store.DefaultPath()
		if err != nil {
			return err
		}
		a.dataPath = p
	}
	st, err := store.Open(a.dataPath)
	if err != nil {
		return err
	}
	sess, err := session.New(ctx, cfg, a.configPath, st)
	if err != nil {
		return errors.Join(err, st.Close())
	}
	a.cfg, a.store, a.sess = cfg, st, sess
	a.render = render.New(a.stdout, cfg.App.Theme)
	return nil
}

func (a *app) close() {
	if a.store != nil {
		_ = a.store.Close()
	}
}

// directory resolves --repo, which must be tracked, falling back to the
// active repository.
func (a *app) directory(ctx context.Context) (string, error) {
	if a.repo != "" {
		dir, err := filepath.Abs(a.repo)
		if err != nil {
			return "", err
		}
		if err := a.sess.Validate(ctx, dir); err != nil {
			return "", err
		}
		return dir, nil
	}
	d, ok := a.sess.Active()
	if !ok {
		return "", session.ErrNoActiveRepository
	}
	return d.Directory, nil
}

// service loads the session, checks the git version and opens the target
// repository.
func (a *app) service(ctx context.Context) (*git.Service, error) {
	if err := a.load(ctx); err != nil {
		return nil, err
	}
	if err := a.sess.Runner().CheckVersion(ctx); err != nil {
		return nil, err
	}
	dir, err := a.directory(ctx)
	if err != nil {
		return nil, err
	}
	return a.sess.Service(dir)
}

// report prints the text of res and turns a failure into errFailed.
func (a *app) report(res backend.Result) error {
	if text := strings.TrimRight(res.Text, "\n"); text != "" {
		fmt.Fprintln(a.stdout, text)
	}
	if res.Failed() {
		return errFailed
	}
	return nil
}

// serviceCmd builds a subcommand that runs op against the target repository.
func (a *app) serviceCmd(use, short string, nargs cobra.PositionalArgs, op func(ctx context.Context, svc *git.Service, args []string) backend.Result) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  nargs,
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := a.service(cmd.Context())
			if err != nil {
				return err
			}
			return a.report(op(cmd.Context(), svc, args))
		},
	}
}
