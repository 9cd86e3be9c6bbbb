package ledger

import (
	"context"
	"crypto/rand"
	"fmt"
	"sync"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/programs/system"
)

// Posting captures a transaction executed by the in-memory ledger.
type Posting struct {
	Signature solana.Signature
	From      solana.PublicKey
	To        solana.PublicKey
	Amount    uint64
	Fee       uint64
	Memo      []byte
	Programs  []solana.PublicKey
}

type inMemoryLedger struct {
	mu            sync.RWMutex
	balances      map[solana.PublicKey]uint64
	confirmations map[solana.Signature]error
	postings      []Posting
	fundsRequests int
	faucet        bool
	submitErr     error
}

// NewInMemory creates a concurrency-safe in-memory ledger useful for unit tests
// and offline runs. Faucet requests are credited immediately.
func NewInMemory() Client {
	return &inMemoryLedger{
		balances:      make(map[solana.PublicKey]uint64),
		confirmations: make(map[solana.Signature]error),
		faucet:        true,
	}
}

func (l *inMemoryLedger) Balance(_ context.Context, address solana.PublicKey) (uint64, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.balances[address], nil
}

func (l *inMemoryLedger) RequestFunds(_ context.Context, address solana.PublicKey, lamports uint64) (solana.Signature, error) {
	if lamports == 0 {
		return solana.Signature{}, fmt.Errorf("airdrop amount must be positive")
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if !l.faucet {
		return solana.Signature{}, ErrFaucetUnavailable
	}

	sig, err := randomSignature()
	if err != nil {
		return solana.Signature{}, err
	}
	l.fundsRequests++
	l.balances[address] += lamports
	l.confirmations[sig] = nil
	return sig, nil
}

func (l *inMemoryLedger) AwaitConfirmation(_ context.Context, signature solana.Signature) error {
	l.mu.RLock()
	defer l.mu.RUnlock()
	txErr, ok := l.confirmations[signature]
	if !ok {
		return fmt.Errorf("signature %s not found", signature)
	}
	return txErr
}

func (l *inMemoryLedger) Submit(_ context.Context, instructions []solana.Instruction, signers ...Signer) (solana.Signature, error) {
	var blockhash solana.Hash
	if _, err := rand.Read(blockhash[:]); err != nil {
		return solana.Signature{}, err
	}
	tx, err := compile(instructions, blockhash, signers)
	if err != nil {
		return solana.Signature{}, err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if l.submitErr != nil {
		err := l.submitErr
		l.submitErr = nil
		return solana.Signature{}, err
	}

	payer := signers[0].PublicKey()
	posting := Posting{
		Signature: tx.Signatures[0],
		Fee:       SignatureFee * uint64(len(tx.Signatures)),
	}

	var debit uint64
	for _, ix := range instructions {
		posting.Programs = append(posting.Programs, ix.ProgramID())
		data, err := ix.Data()
		if err != nil {
			return solana.Signature{}, err
		}
		switch {
		case ix.ProgramID().Equals(solana.SystemProgramID):
			decoded, err := system.DecodeInstruction(ix.Accounts(), data)
			if err != nil {
				return solana.Signature{}, fmt.Errorf("decode system instruction: %w", err)
			}
			transfer, ok := decoded.Impl.(*system.Transfer)
			if !ok {
				return solana.Signature{}, fmt.Errorf("unsupported system instruction")
			}
			posting.From = transfer.GetFundingAccount().PublicKey
			posting.To = transfer.GetRecipientAccount().PublicKey
			posting.Amount = *transfer.Lamports
			debit += posting.Amount
		case ix.ProgramID().Equals(solana.MemoProgramID):
			posting.Memo = append([]byte(nil), data...)
		default:
			return solana.Signature{}, fmt.Errorf("unknown program %s", ix.ProgramID())
		}
	}

	if !posting.From.IsZero() && !posting.From.Equals(payer) {
		return solana.Signature{}, fmt.Errorf("transfer source %s is not the fee payer", posting.From)
	}
	if l.balances[payer] < debit+posting.Fee {
		return solana.Signature{}, fmt.Errorf("simulate transaction: %w", ErrInsufficientFunds)
	}

	l.balances[payer] -= debit + posting.Fee
	if !posting.To.IsZero() {
		l.balances[posting.To] += posting.Amount
	}
	l.postings = append(l.postings, posting)
	l.confirmations[posting.Signature] = nil
	return posting.Signature, nil
}

func randomSignature() (solana.Signature, error) {
	var sig solana.Signature
	if _, err := rand.Read(sig[:]); err != nil {
		return solana.Signature{}, err
	}
	return sig, nil
}
