package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/thiagokokada/gitsync-go/internal/git"
	"github.com/thiagokokada/gitsync-go/internal/git/backend"
)

func (a *app) statusCmd() *cobra.Command {
	return a.serviceCmd("status", "Show git status of the repository", cobra.NoArgs,
		func(ctx context.Context, svc *git.Service, _ []string) backend.Result {
			return svc.Status(ctx)
		})
}

func (a *app) refreshCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "refresh",
		Short: "List branches and changed files of the repository",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			svc, err := a.service(cmd.Context())
			if err != nil {
				return err
			}
			snap, res := svc.Refresh(cmd.Context())
			if res.Failed() {
				return a.report(res)
			}
			fmt.Fprintln(a.stdout, "Branches:")
			for _, b := range snap.Branches {
				fmt.Fprintln(a.stdout, a.render.Branch(b))
			}
			fmt.Fprintln(a.stdout, "Changes:")
			for _, c := range snap.Changes {
				fmt.Fprintln(a.stdout, a.render.Change(c))
			}
			return nil
		},
	}
}

func (a *app) diffCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "diff <file>",
		Short: "Show the working tree diff of one file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := a.service(cmd.Context())
			if err != nil {
				return err
			}
			res := svc.FileDiff(cmd.Context(), args[0])
			out, ok := res.Stdout()
			if !ok {
				return a.report(res)
			}
			if out = strings.TrimRight(out, "\n"); out != "" {
				fmt.Fprintln(a.stdout, a.render.Diff(out))
			}
			return nil
		},
	}
}

func (a *app) fetchCmd() *cobra.Command {
	return a.serviceCmd("fetch", "Fetch from the remote", cobra.NoArgs,
		func(ctx context.Context, svc *git.Service, _ []string) backend.Result {
			return svc.Fetch(ctx)
		})
}

func (a *app) compareCmd() *cobra.Command {
	var fetch bool
	cmd := &cobra.Command{
		Use:   "compare",
		Short: "Compare the current branch with its upstream",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			svc, err := a.service(ctx)
			if err != nil {
				return err
			}
			if fetch {
				if res := svc.Fetch(ctx); res.Failed() {
					a.sess.Publish(svc.Dir(), git.StatusError)
					return a.report(res)
				}
			}
			status, res := svc.Compare(ctx)
			a.sess.Publish(svc.Dir(), status)
			if a.verbose || res.Failed() {
				fmt.Fprint(a.stdout, res.Text)
			}
			fmt.Fprintln(a.stdout, a.render.Status(status))
			if res.Failed() {
				return errFailed
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&fetch, "fetch", false, "fetch before comparing")
	return cmd
}

func (a *app) pullCmd() *cobra.Command {
	return a.serviceCmd("pull", "Prune stale remote branches and pull with rebase", cobra.NoArgs,
		func(ctx context.Context, svc *git.Service, _ []string) backend.Result {
			return svc.Pull(ctx)
		})
}

func (a *app) pushCmd() *cobra.Command {
	return a.serviceCmd("push", "Push the current branch", cobra.NoArgs,
		func(ctx context.Context, svc *git.Service, _ []string) backend.Result {
			return svc.Push(ctx)
		})
}

func (a *app) syncCmd() *cobra.Command {
	return a.serviceCmd("sync", "Pull and then push", cobra.NoArgs,
		func(ctx context.Context, svc *git.Service, _ []string) backend.Result {
			return svc.Sync(ctx)
		})
}

func (a *app) commitCmd() *cobra.Command {
	var (
		message string
		push    bool
	)
	cmd := &cobra.Command{
		Use:   "commit",
		Short: "Stage everything and commit",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			svc, err := a.service(cmd.Context())
			if err != nil {
				return err
			}
			if push {
				return a.report(svc.CommitAndPush(cmd.Context(), message))
			}
			return a.report(svc.Commit(cmd.Context(), message))
		},
	}
	cmd.Flags().StringVarP(&message, "message", "m", "", "commit message; each line becomes a paragraph")
	cmd.Flags().BoolVar(&push, "push", false, "push after committing")
	return cmd
}

func (a *app) revertCmd() *cobra.Command {
	return a.serviceCmd("revert <commit>", "Revert a commit", cobra.ExactArgs(1),
		func(ctx context.Context, svc *git.Service, args []string) backend.Result {
			return svc.Revert(ctx, args[0])
		})
}

func (a *app) forcePushCmd() *cobra.Command {
	return a.serviceCmd("force-push <branch>", "Force push a branch with lease", cobra.ExactArgs(1),
		func(ctx context.Context, svc *git.Service, args []string) backend.Result {
			return svc.ForcePush(ctx, args[0])
		})
}

func (a *app) switchCmd() *cobra.Command {
	return a.serviceCmd("switch <branch>", "Check out a branch", cobra.ExactArgs(1),
		func(ctx context.Context, svc *git.Service, args []string) backend.Result {
			return svc.SwitchBranch(ctx, args[0])
		})
}

func (a *app) deleteBranchCmd() *cobra.Command {
	return a.serviceCmd("delete-branch <branch>", "Delete a local branch", cobra.ExactArgs(1),
		func(ctx context.Context, svc *git.Service, args []string) backend.Result {
			return svc.DeleteBranch(ctx, args[0])
		})
}

func (a *app) rollbackCmd() *cobra.Command {
	return a.serviceCmd("rollback <file>", "Discard working tree changes of one file", cobra.ExactArgs(1),
		func(ctx context.Context, svc *git.Service, args []string) backend.Result {
			return svc.Rollback(ctx, args[0])
		})
}
