package cli

import (
	"fmt"

	"github.com/dmitrijs2005/extkeeper/internal/keys"
	"github.com/dmitrijs2005/extkeeper/internal/phrase"
	"github.com/spf13/cobra"
)

func (r *root) phraseCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "phrase",
		Short: "Recovery phrase helpers",
	}

	var words int
	gen := &cobra.Command{
		Use:   "generate",
		Short: "Print a new BIP-39 mnemonic",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := phrase.Generate(words)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), m)
			return nil
		},
	}
	gen.Flags().IntVar(&words, "words", 12, "number of words: 12 or 24")

	cmd.AddCommand(gen)
	return cmd
}

func (r *root) addressCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "address",
		Short: "Derive the Ethereum address of a private key",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			key, err := r.prompter(cmd).Secret("Enter your private key: ")
			if err != nil {
				return err
			}
			addr, err := keys.AddressFromPrivateKey(key)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), addr)
			return nil
		},
	}
}
