package cmd

import (
	"fmt"

	"github.com/pelletier/go-toml/v2"
	"github.com/spf13/cobra"
)

func (a *app) configCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Show or change settings",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := a.load(cmd.Context()); err != nil {
				return err
			}
			data, err := toml.Marshal(a.cfg)
			if err != nil {
				return fmt.Errorf("encode config: %w", err)
			}
			fmt.Fprintf(a.stdout, "# %s\n%s", a.configPath, data)
			return nil
		},
	}
	cmd.AddCommand(a.configSetCmd(), a.identityCmd())
	return cmd
}

func (a *app) configSetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "set <key> <value>",
		Short: "Change one setting, e.g. app.theme dark",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.load(cmd.Context()); err != nil {
				return err
			}
			if err := a.cfg.Set(args[0], args[1]); err != nil {
				return err
			}
			return a.sess.SaveConfig()
		},
	}
}

func (a *app) identityCmd() *cobra.Command {
	var (
		name, email  string
		savePassword bool
	)
	cmd := &cobra.Command{
		Use:   "identity",
		Short: "Set the global git user name, email and credential helper",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			if err := a.load(ctx); err != nil {
				return err
			}
			if err := a.sess.Runner().CheckVersion(ctx); err != nil {
				return err
			}
			return a.report(a.sess.ConfigureIdentity(ctx, name, email, savePassword))
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "user.name")
	cmd.Flags().StringVar(&email, "email", "", "user.email")
	cmd.Flags().BoolVar(&savePassword, "save-password", false, "store credentials with the store helper")
	_ = cmd.MarkFlagRequired("name")
	_ = cmd.MarkFlagRequired("email")
	return cmd
}
