package infra

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/memochat/memochat/internal/config"
	"github.com/memochat/memochat/internal/identity"
)

// NewIdentityProvider resolves the sender from SENDER_SECRET_KEY or from the
// sealed keystore in Postgres. The keystore is unlocked eagerly so a wrong
// passphrase fails at startup instead of on the first send.
func NewIdentityProvider(ctx context.Context, cfg config.Config, db *pgxpool.Pool) (identity.Provider, error) {
	recipient, err := identity.RecipientFromBase58(cfg.RecipientAddress)
	if err != nil {
		return nil, fmt.Errorf("parse RECIPIENT_ADDRESS: %w", err)
	}

	if cfg.SenderSecretKey != "" {
		sender, err := identity.SenderFromBase58(cfg.SenderSecretKey)
		if err != nil {
			return nil, fmt.Errorf("parse SENDER_SECRET_KEY: %w", err)
		}
		return identity.NewStaticProvider(sender, recipient), nil
	}

	if db == nil {
		return nil, fmt.Errorf("identity %q requires a database", cfg.IdentityName)
	}
	repo := identity.NewPostgresRepository(db)
	if err := repo.EnsureSchema(ctx); err != nil {
		return nil, err
	}
	provider := identity.NewKeystoreProvider(identity.NewService(repo), cfg.IdentityName, cfg.IdentityPassphrase, recipient)
	if _, err := provider.Sender(ctx); err != nil {
		return nil, fmt.Errorf("unlock identity %q: %w", cfg.IdentityName, err)
	}
	return provider, nil
}
