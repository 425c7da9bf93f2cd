package cli

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/extkeeper/internal/keyring"
	"github.com/spf13/cobra"
)

// Seams for tests.
var (
	setBackendPassword    = keyring.SetBackendPassword
	deleteBackendPassword = keyring.DeleteBackendPassword
)

func (r *root) backendCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "backend",
		Short: "Hash store maintenance",
	}

	ping := &cobra.Command{
		Use:   "ping",
		Short: "Check that the configured backend is reachable",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return r.withApp(cmd, func(ctx context.Context, app *App) error {
				ctx, cancel := app.withTimeout(ctx)
				defer cancel()

				if err := app.store.Ping(ctx); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s backend is reachable\n", r.config.Backend)
				return nil
			})
		},
	}

	setPassword := &cobra.Command{
		Use:   "set-password",
		Short: "Save the backend password in the OS keychain (use with --keyring)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			pw, err := r.prompter(cmd).Secret(fmt.Sprintf("Enter %s password: ", r.config.Backend))
			if err != nil {
				return err
			}
			if err := setBackendPassword(r.config.Backend, pw); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "saved %s password to the keychain\n", r.config.Backend)
			return nil
		},
	}

	deletePassword := &cobra.Command{
		Use:   "delete-password",
		Short: "Remove the backend password from the OS keychain",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := deleteBackendPassword(r.config.Backend); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "removed %s password from the keychain\n", r.config.Backend)
			return nil
		},
	}

	cmd.AddCommand(ping, setPassword, deletePassword)
	return cmd
}
