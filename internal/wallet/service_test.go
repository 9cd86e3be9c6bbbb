package wallet

import (
	"context"
	"errors"
	"testing"

	"github.com/gagliardetto/solana-go"

	"github.com/memochat/memochat/internal/identity"
	"github.com/memochat/memochat/internal/ledger"
)

type unavailableLedger struct{}

func (unavailableLedger) Balance(context.Context, solana.PublicKey) (uint64, error) {
	return 0, errors.New("connection refused")
}

func TestServiceInfo(t *testing.T) {
	sender, err := identity.GenerateSender()
	if err != nil {
		t.Fatalf("generate sender: %v", err)
	}
	other, err := identity.GenerateSender()
	if err != nil {
		t.Fatalf("generate recipient: %v", err)
	}
	led := ledger.NewInMemory()
	svc := NewService(identity.NewStaticProvider(sender, identity.Recipient{Address: other.PublicKey()}), led)

	ctx := context.Background()
	ledger.SeedBalance(led, sender.PublicKey(), 2_500)

	info, err := svc.Info(ctx)
	if err != nil {
		t.Fatalf("info: %v", err)
	}
	if info.Balance != 2_500 {
		t.Fatalf("expected balance 2500, got %d", info.Balance)
	}
	addr := sender.Address()
	if info.SenderShort != addr[:4]+"..."+addr[len(addr)-4:] {
		t.Fatalf("unexpected short sender %s", info.SenderShort)
	}
	if info.Recipient != other.Address() {
		t.Fatalf("expected recipient %s, got %s", other.Address(), info.Recipient)
	}

	ledger.SeedBalance(led, sender.PublicKey(), 7_000)
	info, _ = svc.Info(ctx)
	if info.Balance != 7_000 {
		t.Fatalf("balance must be read fresh, got %d", info.Balance)
	}
}

func TestServiceInfoLedgerError(t *testing.T) {
	sender, _ := identity.GenerateSender()
	svc := NewService(identity.NewStaticProvider(sender, identity.Recipient{}), unavailableLedger{})
	if _, err := svc.Info(context.Background()); err == nil {
		t.Fatal("expected ledger error")
	}
}
