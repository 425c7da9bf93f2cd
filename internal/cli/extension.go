package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

func (r *root) extensionCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "extension",
		Short: "Manage registered browser extensions",
	}
	cmd.AddCommand(r.extensionRegisterCmd(), r.extensionShowCmd(), r.extensionURLCmd())
	return cmd
}

func (r *root) extensionRegisterCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "register <name> <id>",
		Short: "Record the extension id installed under name",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return r.withApp(cmd, func(ctx context.Context, app *App) error {
				ctx, cancel := app.withTimeout(ctx)
				defer cancel()

				ext, err := app.registry.Register(ctx, args[0], args[1])
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "registered %s at %s\n", ext.Name, ext.BaseURL)
				return nil
			})
		},
	}
}

func (r *root) extensionShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <name>",
		Short: "Print the id and base URL of an extension",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return r.withApp(cmd, func(ctx context.Context, app *App) error {
				ctx, cancel := app.withTimeout(ctx)
				defer cancel()

				ext, err := app.registry.Lookup(ctx, args[0])
				if err != nil {
					return fmt.Errorf("extension %s: %w", args[0], err)
				}
				w := cmd.OutOrStdout()
				fmt.Fprintf(w, "name:     %s\n", ext.Name)
				fmt.Fprintf(w, "id:       %s\n", ext.ID)
				fmt.Fprintf(w, "base url: %s\n", ext.BaseURL)
				return nil
			})
		},
	}
}

func (r *root) extensionURLCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "url <name> [page]",
		Short: "Print the URL of an extension page (home.html by default)",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			page := "home.html"
			if len(args) == 2 {
				page = args[1]
			}

			return r.withApp(cmd, func(ctx context.Context, app *App) error {
				ctx, cancel := app.withTimeout(ctx)
				defer cancel()

				u, err := app.registry.PageURL(ctx, args[0], page)
				if err != nil {
					return fmt.Errorf("extension %s: %w", args[0], err)
				}
				fmt.Fprintln(cmd.OutOrStdout(), u)
				return nil
			})
		},
	}
}
