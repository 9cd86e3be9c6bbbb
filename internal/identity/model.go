package identity

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/gagliardetto/solana-go"
)

// ErrNotFound is returned when no stored identity matches the requested name.
var ErrNotFound = errors.New("identity not found")

// Sender is the signing identity messages are sent from. The private key is
// never exported; callers only see the public address and signatures.
type Sender struct {
	public solana.PublicKey
	secret solana.PrivateKey
}

// NewSender wraps an ed25519 private key.
func NewSender(secret solana.PrivateKey) (*Sender, error) {
	if len(secret) != 64 {
		return nil, fmt.Errorf("secret key must be 64 bytes, got %d", len(secret))
	}
	return &Sender{public: secret.PublicKey(), secret: append(solana.PrivateKey(nil), secret...)}, nil
}

// SenderFromBase58 decodes a base58 encoded 64-byte secret key.
func SenderFromBase58(encoded string) (*Sender, error) {
	secret, err := solana.PrivateKeyFromBase58(encoded)
	if err != nil {
		return nil, fmt.Errorf("decode secret key: %w", err)
	}
	return NewSender(secret)
}

// GenerateSender creates a fresh random identity.
func GenerateSender() (*Sender, error) {
	secret, err := solana.NewRandomPrivateKey()
	if err != nil {
		return nil, err
	}
	return NewSender(secret)
}

// PublicKey returns the sender's public key.
func (s *Sender) PublicKey() solana.PublicKey { return s.public }

// Address returns the base58 public address.
func (s *Sender) Address() string { return s.public.String() }

// Sign signs payload with the sender's private key.
func (s *Sender) Sign(payload []byte) (solana.Signature, error) {
	return s.secret.Sign(payload)
}

// String renders only the public address.
func (s *Sender) String() string { return s.Address() }

// LogValue keeps key material out of structured logs.
func (s *Sender) LogValue() slog.Value { return slog.StringValue(s.Address()) }

// Recipient is the fixed counterparty for the session.
type Recipient struct {
	Address solana.PublicKey
}

// RecipientFromBase58 parses a recipient address.
func RecipientFromBase58(encoded string) (Recipient, error) {
	key, err := solana.PublicKeyFromBase58(encoded)
	if err != nil {
		return Recipient{}, fmt.Errorf("decode recipient address: %w", err)
	}
	return Recipient{Address: key}, nil
}

// String returns the base58 address.
func (r Recipient) String() string { return r.Address.String() }

// StoredIdentity is the at-rest form of a sender identity. SealedSecret is the
// passphrase-encrypted secret key.
type StoredIdentity struct {
	Name         string
	PublicKey    string
	SealedSecret []byte
	CreatedAt    time.Time
}
