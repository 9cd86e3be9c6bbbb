package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

func showCmd() *cobra.Command {
	var verify bool
	cmd := &cobra.Command{
		Use:   "show <name>",
		Short: "Print the public address of a stored identity",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if verify {
				if err := requirePassphrase(); err != nil {
					return err
				}
				sender, err := ids.Unlock(cmd.Context(), args[0], passphrase)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Address: %s (unlocked)\n", sender.Address())
				return nil
			}
			addr, err := ids.PublicAddress(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Address: %s\n", addr)
			return nil
		},
	}
	cmd.Flags().BoolVar(&verify, "verify", false, "unlock with the passphrase to check it")
	return cmd
}
