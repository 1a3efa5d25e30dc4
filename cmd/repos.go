package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/thiagokokada/gitsync-go/internal/git"
)

var errNeedConfirm = errors.New("hard-reset deletes the working tree; pass --confirm")

func (a *app) listCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List tracked repositories",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			if err := a.load(ctx); err != nil {
				return err
			}
			dirs, err := a.sess.Repositories(ctx)
			if err != nil {
				return err
			}
			active, _ := a.sess.Active()
			for _, dir := range dirs {
				marker := " "
				if dir == active.Directory {
					marker = "*"
				}
				address := "(invalid)"
				if d, err := a.sess.Lookup(ctx, dir); err == nil {
					address = d.Address
				}
				fmt.Fprintf(a.stdout, "%s %s\t%s\n", marker, dir, address)
			}
			return nil
		},
	}
}

func (a *app) importCmd() *cobra.Command {
	var open bool
	cmd := &cobra.Command{
		Use:   "import <directory> <address>",
		Short: "Track an existing working tree",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if err := a.load(ctx); err != nil {
				return err
			}
			d, err := a.sess.Import(ctx, args[0], args[1])
			if err != nil {
				return err
			}
			fmt.Fprintf(a.stdout, "tracking %s\n", d.Directory)
			if !open {
				return nil
			}
			_, err = a.sess.Open(ctx, d.Directory)
			return err
		},
	}
	cmd.Flags().BoolVar(&open, "open", false, "make it the active repository")
	return cmd
}

func (a *app) cloneCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "clone <address> [directory]",
		Short: "Clone a repository, track it and make it active",
		Long: "Clone a repository with a shallow history, track it and make it active.\n" +
			"Without a directory the clone goes under the last clone location, named\n" +
			"after the address.",
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if err := a.load(ctx); err != nil {
				return err
			}
			if err := a.sess.Runner().CheckVersion(ctx); err != nil {
				return err
			}
			address := args[0]
			var dir string
			if len(args) == 2 {
				dir = args[1]
			} else {
				var ok bool
				dir, ok = git.DirectoryForAddress(a.cfg.ClonePath(), address)
				if !ok {
					return fmt.Errorf("cannot derive a directory from %q; pass one", address)
				}
			}
			_, res := a.sess.Clone(ctx, address, dir)
			return a.report(res)
		},
	}
}

func (a *app) removeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "remove <directory>",
		Short: "Stop tracking a repository; its files are kept",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if err := a.load(ctx); err != nil {
				return err
			}
			if err := a.sess.Remove(ctx, args[0]); err != nil {
				return err
			}
			if d, ok := a.sess.Active(); ok {
				fmt.Fprintf(a.stdout, "active: %s\n", d.Directory)
			}
			return nil
		},
	}
}

func (a *app) openCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "open <directory>",
		Short: "Make a tracked repository the active one",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if err := a.load(ctx); err != nil {
				return err
			}
			d, err := a.sess.Open(ctx, args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(a.stdout, "active: %s\n", d.Directory)
			return nil
		},
	}
}

func (a *app) hardResetCmd() *cobra.Command {
	var confirm bool
	cmd := &cobra.Command{
		Use:   "hard-reset",
		Short: "Delete the working tree and clone it again",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if !confirm {
				return errNeedConfirm
			}
			ctx := cmd.Context()
			if err := a.load(ctx); err != nil {
				return err
			}
			if err := a.sess.Runner().CheckVersion(ctx); err != nil {
				return err
			}
			dir, err := a.directory(ctx)
			if err != nil {
				return err
			}
			return a.report(a.sess.HardReset(ctx, dir))
		},
	}
	cmd.Flags().BoolVar(&confirm, "confirm", false, "confirm that local changes may be lost")
	return cmd
}
