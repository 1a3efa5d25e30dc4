package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/thiagokokada/gitsync-go/internal/buildinfo"
)

func (a *app) versionCmd() *cobra.Command {
	var withGit bool
	cmd := &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			fmt.Fprintf(a.stdout, "gitsync %s\n", buildinfo.String())
			if !withGit {
				return nil
			}
			if err := a.load(cmd.Context()); err != nil {
				return err
			}
			v, err := a.sess.Runner().Version(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintln(a.stdout, v)
			return nil
		},
	}
	cmd.Flags().BoolVar(&withGit, "git", false, "also print the git version")
	return cmd
}
