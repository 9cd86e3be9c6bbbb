package funding

import (
	"context"

	"github.com/gagliardetto/solana-go"
)

// Faucet is the subset of the ledger client the guard needs to inspect and
// top up a balance.
type Faucet interface {
	Balance(ctx context.Context, address solana.PublicKey) (uint64, error)
	RequestFunds(ctx context.Context, address solana.PublicKey, lamports uint64) (solana.Signature, error)
	AwaitConfirmation(ctx context.Context, signature solana.Signature) error
}
