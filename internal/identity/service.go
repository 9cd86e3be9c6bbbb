package identity

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/gagliardetto/solana-go"
)

// Service manages the sealed sender identity lifecycle.
type Service struct {
	repo Repository
}

// NewService creates a new identity service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Generate creates a random sender identity and stores it sealed under passphrase.
func (s *Service) Generate(ctx context.Context, name, passphrase string) (*Sender, error) {
	sender, err := GenerateSender()
	if err != nil {
		return nil, err
	}
	if err := s.store(ctx, name, passphrase, sender); err != nil {
		return nil, err
	}
	return sender, nil
}

// Import seals an existing base58 secret key under passphrase.
func (s *Service) Import(ctx context.Context, name, secretBase58, passphrase string) (*Sender, error) {
	sender, err := SenderFromBase58(strings.TrimSpace(secretBase58))
	if err != nil {
		return nil, err
	}
	if err := s.store(ctx, name, passphrase, sender); err != nil {
		return nil, err
	}
	return sender, nil
}

// Unlock opens the stored identity and verifies the public key it was saved with.
func (s *Service) Unlock(ctx context.Context, name, passphrase string) (*Sender, error) {
	stored, err := s.repo.FindByName(ctx, name)
	if err != nil {
		return nil, err
	}
	raw, err := open(passphrase, stored.SealedSecret)
	if err != nil {
		return nil, err
	}
	sender, err := NewSender(solana.PrivateKey(raw))
	if err != nil {
		return nil, err
	}
	if sender.Address() != stored.PublicKey {
		return nil, errors.New("stored public key does not match sealed secret")
	}
	return sender, nil
}

// PublicAddress returns the stored public address without unsealing the secret.
func (s *Service) PublicAddress(ctx context.Context, name string) (string, error) {
	stored, err := s.repo.FindByName(ctx, name)
	if err != nil {
		return "", err
	}
	return stored.PublicKey, nil
}

func (s *Service) store(ctx context.Context, name, passphrase string, sender *Sender) error {
	if strings.TrimSpace(name) == "" {
		return errors.New("identity name is required")
	}
	blob, err := seal(passphrase, sender.secret)
	if err != nil {
		return err
	}
	return s.repo.Create(ctx, StoredIdentity{
		Name:         name,
		PublicKey:    sender.Address(),
		SealedSecret: blob,
		CreatedAt:    time.Now().UTC(),
	})
}
