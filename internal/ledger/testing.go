package ledger

import "github.com/gagliardetto/solana-go"

// SeedBalance is a test helper that seeds the balance for an address when using the in-memory ledger.
func SeedBalance(l Client, address solana.PublicKey, lamports uint64) {
	if mem, ok := l.(*inMemoryLedger); ok {
		mem.mu.Lock()
		defer mem.mu.Unlock()
		mem.balances[address] = lamports
	}
}

// FailNextSubmit makes the next Submit on the in-memory ledger return err.
func FailNextSubmit(l Client, err error) {
	if mem, ok := l.(*inMemoryLedger); ok {
		mem.mu.Lock()
		defer mem.mu.Unlock()
		mem.submitErr = err
	}
}

// DisableFaucet turns the in-memory ledger into a cluster without airdrops.
func DisableFaucet(l Client) {
	if mem, ok := l.(*inMemoryLedger); ok {
		mem.mu.Lock()
		defer mem.mu.Unlock()
		mem.faucet = false
	}
}

// FundsRequests returns how many faucet requests the in-memory ledger has served.
func FundsRequests(l Client) int {
	if mem, ok := l.(*inMemoryLedger); ok {
		mem.mu.RLock()
		defer mem.mu.RUnlock()
		return mem.fundsRequests
	}
	return 0
}

// Postings returns a copy of the transactions executed by the in-memory ledger.
func Postings(l Client) []Posting {
	if mem, ok := l.(*inMemoryLedger); ok {
		mem.mu.RLock()
		defer mem.mu.RUnlock()
		return append([]Posting(nil), mem.postings...)
	}
	return nil
}
