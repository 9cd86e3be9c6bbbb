package ledger

import (
	"context"
	"errors"
	"fmt"

	"github.com/gagliardetto/solana-go"
)

var (
	// ErrInsufficientFunds occurs when the fee payer cannot cover the transfer
	// amount plus the network fee.
	ErrInsufficientFunds = errors.New("insufficient funds")

	// ErrFaucetUnavailable indicates the configured cluster has no faucet
	// (airdrops exist only on test networks).
	ErrFaucetUnavailable = errors.New("faucet unavailable on this cluster")

	// ErrTransactionFailed is returned when a submitted or airdropped
	// transaction lands on chain with an execution error.
	ErrTransactionFailed = errors.New("transaction failed")

	// ErrNoSigners is returned by Submit when no signer was provided.
	ErrNoSigners = errors.New("at least one signer is required")
)

const (
	// ClusterDevnet is the default test network.
	ClusterDevnet = "devnet"
	// ClusterTestnet is the secondary public test network.
	ClusterTestnet = "testnet"
	// ClusterMainnet is the production network; it has no faucet.
	ClusterMainnet = "mainnet-beta"

	// SignatureFee is the base fee charged per required signature.
	SignatureFee uint64 = 5_000
)

// Signer produces signatures for transaction messages. Implementations keep
// their private key material to themselves.
type Signer interface {
	PublicKey() solana.PublicKey
	Sign(payload []byte) (solana.Signature, error)
}

// Client defines the contract implemented by ledger backends (RPC or in-memory).
// Clients never retry; retry policy belongs to the caller.
type Client interface {
	Balance(ctx context.Context, address solana.PublicKey) (uint64, error)
	RequestFunds(ctx context.Context, address solana.PublicKey, lamports uint64) (solana.Signature, error)
	AwaitConfirmation(ctx context.Context, signature solana.Signature) error
	Submit(ctx context.Context, instructions []solana.Instruction, signers ...Signer) (solana.Signature, error)
}

// HasFaucet reports whether the named cluster exposes an airdrop faucet.
func HasFaucet(cluster string) bool {
	return cluster != ClusterMainnet
}

// compile builds a transaction paid by the first signer and signs every
// required signature slot with the matching signer.
func compile(instructions []solana.Instruction, blockhash solana.Hash, signers []Signer) (*solana.Transaction, error) {
	if len(signers) == 0 {
		return nil, ErrNoSigners
	}

	tx, err := solana.NewTransaction(instructions, blockhash, solana.TransactionPayer(signers[0].PublicKey()))
	if err != nil {
		return nil, err
	}

	payload, err := tx.Message.MarshalBinary()
	if err != nil {
		return nil, err
	}

	required := int(tx.Message.Header.NumRequiredSignatures)
	tx.Signatures = make([]solana.Signature, 0, required)
	for i := 0; i < required; i++ {
		key := tx.Message.AccountKeys[i]
		signer := findSigner(signers, key)
		if signer == nil {
			return nil, fmt.Errorf("missing signer for %s", key)
		}
		sig, err := signer.Sign(payload)
		if err != nil {
			return nil, err
		}
		tx.Signatures = append(tx.Signatures, sig)
	}
	return tx, nil
}

func findSigner(signers []Signer, key solana.PublicKey) Signer {
	for _, s := range signers {
		if s.PublicKey().Equals(key) {
			return s
		}
	}
	return nil
}
