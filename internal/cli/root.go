// Package cli implements the extkeeper command line: storing and verifying
// wallet credentials, managing the extension registry and a few key and
// phrase helpers.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/dmitrijs2005/extkeeper/internal/common"
	"github.com/dmitrijs2005/extkeeper/internal/config"
	"github.com/dmitrijs2005/extkeeper/internal/logging"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

// errRejected makes verify exit non-zero without printing an error.
var errRejected = errors.New("rejected")

type root struct {
	config *config.Config
	logger logging.Logger
}

// NewRootCommand builds the command tree around cfg. Flags parsed by the
// command override the values already in cfg.
func NewRootCommand(cfg *config.Config) *cobra.Command {
	r := &root{config: cfg, logger: logging.Discard()}

	cmd := &cobra.Command{
		Use:           "extkeeper",
		Short:         "Keep wallet extension credentials as salted hashes",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			l, err := logging.New(cmd.ErrOrStderr(), r.config.LogLevel, r.config.LogFormat)
			if err != nil {
				return fmt.Errorf("%w: %w", common.ErrInvalidInput, err)
			}
			r.logger = l.With("run_id", uuid.NewString())
			return nil
		},
	}

	config.BindFlags(cmd.PersistentFlags(), cfg)

	cmd.AddCommand(
		r.storeCmd(),
		r.verifyCmd(),
		r.revokeCmd(),
		r.extensionCmd(),
		r.phraseCmd(),
		r.addressCmd(),
		r.backendCmd(),
	)
	return cmd
}

// withApp opens the backend for the duration of fn.
func (r *root) withApp(cmd *cobra.Command, fn func(ctx context.Context, app *App) error) error {
	ctx := cmd.Context()
	app, err := NewApp(ctx, r.config, r.logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := app.Close(); err != nil {
			r.logger.Warn(ctx, "error closing hash store", "error", err)
		}
	}()
	return fn(ctx, app)
}

func (r *root) prompter(cmd *cobra.Command) *prompter {
	return newPrompter(cmd.InOrStdin(), cmd.ErrOrStderr())
}

// Execute runs the CLI with args and returns the process exit code.
func Execute(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	cfg, err := config.Load(args)
	if err != nil {
		fmt.Fprintln(stderr, "error:", err)
		return 2
	}

	cmd := NewRootCommand(cfg)
	cmd.SetArgs(args)
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)

	return exitCode(cmd.ExecuteContext(ctx), stderr)
}

func exitCode(err error, stderr io.Writer) int {
	switch {
	case err == nil:
		return 0
	case errors.Is(err, errRejected):
		return 1
	}

	fmt.Fprintln(stderr, "error:", err)
	switch {
	case errors.Is(err, common.ErrBackendUnavailable):
		return 3
	case errors.Is(err, common.ErrRateLimited):
		return 4
	}
	return 2
}
