package identity

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository persists sealed sender identities.
type Repository interface {
	Create(ctx context.Context, identity StoredIdentity) error
	FindByName(ctx context.Context, name string) (StoredIdentity, error)
}

// PostgresRepository implements Repository using PostgreSQL.
type PostgresRepository struct {
	db *pgxpool.Pool
}

// NewPostgresRepository builds a Postgres-backed identity repository.
func NewPostgresRepository(db *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// EnsureSchema creates the identities table when missing.
func (r *PostgresRepository) EnsureSchema(ctx context.Context) error {
	_, err := r.db.Exec(ctx, `CREATE TABLE IF NOT EXISTS sender_identities (
        name          TEXT PRIMARY KEY,
        public_key    TEXT NOT NULL,
        sealed_secret BYTEA NOT NULL,
        created_at    TIMESTAMPTZ NOT NULL
    )`)
	return err
}

// Create inserts a new sealed identity.
func (r *PostgresRepository) Create(ctx context.Context, identity StoredIdentity) error {
	cmd, err := r.db.Exec(ctx, `INSERT INTO sender_identities (name, public_key, sealed_secret, created_at)
        VALUES ($1, $2, $3, $4) ON CONFLICT (name) DO NOTHING`,
		identity.Name, identity.PublicKey, identity.SealedSecret, identity.CreatedAt.UTC())
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return errors.New("identity exists")
	}
	return nil
}

// FindByName fetches a sealed identity by name.
func (r *PostgresRepository) FindByName(ctx context.Context, name string) (StoredIdentity, error) {
	row := r.db.QueryRow(ctx, `SELECT name, public_key, sealed_secret, created_at FROM sender_identities WHERE name = $1`, name)
	var (
		identity  StoredIdentity
		createdAt time.Time
	)
	if err := row.Scan(&identity.Name, &identity.PublicKey, &identity.SealedSecret, &createdAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return StoredIdentity{}, ErrNotFound
		}
		return StoredIdentity{}, err
	}
	identity.CreatedAt = createdAt.UTC()
	return identity, nil
}
