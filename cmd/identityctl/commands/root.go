package commands

import (
	"fmt"
	"os"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/memochat/memochat/internal/identity"
	"github.com/memochat/memochat/internal/infra"
)

var (
	databaseURL string
	passphrase  string

	pool *pgxpool.Pool
	ids  *identity.Service
)

// Execute runs the identityctl root command.
func Execute() error {
	_ = godotenv.Load()

	root := &cobra.Command{
		Use:          "identityctl",
		Short:        "Manage sealed sender identities for memochat",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if databaseURL == "" {
				databaseURL = os.Getenv("DATABASE_URL")
			}
			if databaseURL == "" {
				return fmt.Errorf("database url required (--database-url or DATABASE_URL)")
			}
			if passphrase == "" {
				passphrase = os.Getenv("IDENTITY_PASSPHRASE")
			}

			db, err := infra.NewPostgresPool(cmd.Context(), databaseURL)
			if err != nil {
				return err
			}
			repo := identity.NewPostgresRepository(db)
			if err := repo.EnsureSchema(cmd.Context()); err != nil {
				db.Close()
				return err
			}
			pool = db
			ids = identity.NewService(repo)
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if pool != nil {
				pool.Close()
			}
		},
	}

	root.PersistentFlags().StringVar(&databaseURL, "database-url", "", "postgres url (default $DATABASE_URL)")
	root.PersistentFlags().StringVarP(&passphrase, "passphrase", "p", "", "passphrase sealing the key (default $IDENTITY_PASSPHRASE)")

	root.AddCommand(keygenCmd(), importCmd(), showCmd())
	return root.Execute()
}

func requirePassphrase() error {
	if passphrase == "" {
		return fmt.Errorf("passphrase required (-p or IDENTITY_PASSPHRASE)")
	}
	return nil
}
