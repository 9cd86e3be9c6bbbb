package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func importCmd() *cobra.Command {
	var secret string
	cmd := &cobra.Command{
		Use:   "import <name>",
		Short: "Seal an existing base58 secret key",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := requirePassphrase(); err != nil {
				return err
			}
			if secret == "" {
				secret = os.Getenv("SENDER_SECRET_KEY")
			}
			if secret == "" {
				return fmt.Errorf("secret key required (--secret or SENDER_SECRET_KEY)")
			}
			sender, err := ids.Import(cmd.Context(), args[0], secret, passphrase)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Identity %q imported.\nAddress: %s\n", args[0], sender.Address())
			return nil
		},
	}
	cmd.Flags().StringVar(&secret, "secret", "", "base58 secret key (default $SENDER_SECRET_KEY)")
	return cmd
}
