package wallet

import (
	"context"
	"fmt"
	"time"

	"github.com/gagliardetto/solana-go"

	"github.com/memochat/memochat/internal/chat"
	"github.com/memochat/memochat/internal/identity"
)

// BalanceReader reads lamport balances from the ledger.
type BalanceReader interface {
	Balance(ctx context.Context, address solana.PublicKey) (uint64, error)
}

// Service exposes wallet information backed by the ledger.
type Service struct {
	identities identity.Provider
	ledger     BalanceReader
}

// NewService builds a wallet service instance.
func NewService(identities identity.Provider, ledger BalanceReader) *Service {
	return &Service{identities: identities, ledger: ledger}
}

// Info loads both parties and queries the sender balance. The balance is
// never cached.
func (s *Service) Info(ctx context.Context) (Info, error) {
	sender, err := s.identities.Sender(ctx)
	if err != nil {
		return Info{}, fmt.Errorf("load sender: %w", err)
	}
	recipient, err := s.identities.Recipient(ctx)
	if err != nil {
		return Info{}, fmt.Errorf("load recipient: %w", err)
	}

	balance, err := s.ledger.Balance(ctx, sender.PublicKey())
	if err != nil {
		return Info{}, fmt.Errorf("get balance: %w", err)
	}

	return Info{
		Sender:         sender.Address(),
		SenderShort:    chat.ShortenAddress(sender.Address()),
		Recipient:      recipient.String(),
		RecipientShort: chat.ShortenAddress(recipient.String()),
		Balance:        balance,
		AsOf:           time.Now().UTC(),
	}, nil
}
