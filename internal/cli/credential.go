package cli

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/dmitrijs2005/extkeeper/internal/common"
	"github.com/dmitrijs2005/extkeeper/internal/phrase"
	"github.com/dmitrijs2005/extkeeper/internal/validate"
	"github.com/dmitrijs2005/extkeeper/internal/vault"
	"github.com/spf13/cobra"
)

func (r *root) storeCmd() *cobra.Command {
	var withPassword, withPhrase bool

	cmd := &cobra.Command{
		Use:   "store <subject>",
		Short: "Hash and store a password and/or recovery phrase",
		Long: "Prompts for the selected secrets and stores their salted hashes.\n" +
			"Without flags only the password is asked for.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !withPassword && !withPhrase {
				withPassword = true
			}
			p := r.prompter(cmd)

			var secrets vault.Secrets
			if withPassword {
				pw, err := askNewPassword(p)
				if err != nil {
					return err
				}
				secrets.Password = pw
			}
			if withPhrase {
				rp, err := p.Secret("Enter recovery phrase: ")
				if err != nil {
					return err
				}
				rp = phrase.Normalize(rp)
				if rp == "" {
					return fmt.Errorf("%w: empty recovery phrase", common.ErrInvalidInput)
				}
				if !phrase.IsBIP39(rp) {
					fmt.Fprintln(cmd.ErrOrStderr(), "warning: recovery phrase is not a valid BIP-39 mnemonic")
				}
				secrets.RecoveryPhrase = rp
			}

			return r.withApp(cmd, func(ctx context.Context, app *App) error {
				ctx, cancel := app.withTimeout(ctx)
				defer cancel()

				hashes, err := app.vault.Store(ctx, args[0], secrets)
				if err != nil {
					return err
				}

				kinds := make([]string, 0, len(hashes))
				for k := range hashes {
					kinds = append(kinds, string(k))
				}
				sort.Strings(kinds)
				fmt.Fprintf(cmd.OutOrStdout(), "stored %s for %s\n", strings.Join(kinds, ", "), args[0])
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&withPassword, "password", false, "store the unlock password")
	cmd.Flags().BoolVar(&withPhrase, "recovery-phrase", false, "store the recovery phrase")
	return cmd
}

func askNewPassword(p *prompter) (string, error) {
	pw, err := p.Secret("Enter password: ")
	if err != nil {
		return "", err
	}
	if err := validate.Password(pw); err != nil {
		return "", fmt.Errorf("%w: %w", common.ErrInvalidInput, err)
	}

	confirm, err := p.Secret("Confirm password: ")
	if err != nil {
		return "", err
	}
	if !validate.Match(pw, confirm) {
		return "", fmt.Errorf("%w: passwords do not match", common.ErrInvalidInput)
	}
	return strings.TrimSpace(pw), nil
}

func (r *root) verifyCmd() *cobra.Command {
	var fieldName string

	cmd := &cobra.Command{
		Use:   "verify <subject>",
		Short: "Check a secret against the stored hash",
		Long:  "Prints ok or rejected. Exits with status 1 when rejected.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			field, err := vault.ParseField(fieldName)
			if err != nil {
				return err
			}

			prompt := "Enter password: "
			if field == vault.FieldRecoveryPhrase {
				prompt = "Enter recovery phrase: "
			}
			candidate, err := r.prompter(cmd).Secret(prompt)
			if err != nil {
				return err
			}
			switch field {
			case vault.FieldPassword:
				candidate = strings.TrimSpace(candidate)
			case vault.FieldRecoveryPhrase:
				candidate = phrase.Normalize(candidate)
			}

			return r.withApp(cmd, func(ctx context.Context, app *App) error {
				ctx, cancel := app.withTimeout(ctx)
				defer cancel()

				ok, err := app.vault.Verify(ctx, args[0], field, candidate)
				if err != nil {
					return err
				}
				if !ok {
					fmt.Fprintln(cmd.OutOrStdout(), "rejected")
					return errRejected
				}
				fmt.Fprintln(cmd.OutOrStdout(), "ok")
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&fieldName, "field", string(vault.FieldPassword), "password_hash or recovery_phrase_hash")
	return cmd
}

func (r *root) revokeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "revoke <subject> [field...]",
		Short: "Delete stored hashes (all fields when none are named)",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			fields := make([]vault.Field, 0, len(args)-1)
			for _, a := range args[1:] {
				f, err := vault.ParseField(a)
				if err != nil {
					return err
				}
				fields = append(fields, f)
			}

			return r.withApp(cmd, func(ctx context.Context, app *App) error {
				ctx, cancel := app.withTimeout(ctx)
				defer cancel()

				n, err := app.vault.Revoke(ctx, args[0], fields...)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "removed %d hash(es) for %s\n", n, args[0])
				return nil
			})
		},
	}
}

