package chat

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/gagliardetto/solana-go"

	"github.com/memochat/memochat/internal/funding"
	"github.com/memochat/memochat/internal/identity"
	"github.com/memochat/memochat/internal/ledger"
	"github.com/memochat/memochat/internal/message"
	"github.com/memochat/memochat/internal/notification"
)

func newLedgerSession(t *testing.T, policy funding.Policy) (*Session, ledger.Client, *identity.Sender) {
	t.Helper()
	sender, recipient := newParties(t)
	l := ledger.NewInMemory()
	guard, err := funding.NewGuard(l, nil, nil)
	if err != nil {
		t.Fatalf("new guard: %v", err)
	}
	session, err := NewSession(SessionConfig{
		Submitter:  l,
		Identities: identity.NewStaticProvider(sender, recipient),
		Guard:      guard,
		Policy:     policy,
	})
	if err != nil {
		t.Fatalf("new session: %v", err)
	}
	return session, l, sender
}

func TestSessionMountFundsOnce(t *testing.T) {
	session, l, sender := newLedgerSession(t, funding.PolicyStartup)
	ctx := context.Background()

	res, err := session.Mount(ctx)
	if err != nil {
		t.Fatalf("mount: %v", err)
	}
	if !res.ToppedUp || res.TopUpAmount != funding.DefaultTopUp {
		t.Fatalf("expected a 1 SOL top up, got %+v", res)
	}
	if _, err := session.Mount(ctx); err != nil {
		t.Fatalf("second mount: %v", err)
	}
	if ledger.FundsRequests(l) != 1 {
		t.Fatalf("expected exactly 1 faucet request, got %d", ledger.FundsRequests(l))
	}
	balance, _ := l.Balance(ctx, sender.PublicKey())
	if balance != solana.LAMPORTS_PER_SOL {
		t.Fatalf("expected 1 SOL after mount, got %d", balance)
	}
}

func TestSessionMountRetriesAfterFailure(t *testing.T) {
	session, l, sender := newLedgerSession(t, funding.PolicyStartup)
	ctx := context.Background()
	ledger.DisableFaucet(l)

	if _, err := session.Mount(ctx); !errors.Is(err, ledger.ErrFaucetUnavailable) {
		t.Fatalf("expected faucet unavailable, got %v", err)
	}

	ledger.SeedBalance(l, sender.PublicKey(), solana.LAMPORTS_PER_SOL)
	res, err := session.Mount(ctx)
	if err != nil {
		t.Fatalf("second mount: %v", err)
	}
	if res.ToppedUp || res.Balance != solana.LAMPORTS_PER_SOL {
		t.Fatalf("expected funded account without top up, got %+v", res)
	}
}

func TestSessionSendRecordsMessage(t *testing.T) {
	session, l, sender := newLedgerSession(t, funding.PolicyStartup)
	ctx := context.Background()
	if _, err := session.Mount(ctx); err != nil {
		t.Fatalf("mount: %v", err)
	}

	record, err := session.Send(ctx, "hello")
	if err != nil {
		t.Fatalf("send: %v", err)
	}
	if session.Draft() != "" {
		t.Fatalf("draft must be cleared after success, got %q", session.Draft())
	}
	msgs := session.Messages()
	if len(msgs) != 1 || msgs[0].Signature != record.Signature {
		t.Fatalf("expected the record in the list, got %+v", msgs)
	}

	postings := ledger.Postings(l)
	if len(postings) != 1 {
		t.Fatalf("expected 1 posting, got %d", len(postings))
	}
	if string(postings[0].Memo) != "hello" || postings[0].Amount != message.TransferLamports {
		t.Fatalf("unexpected posting %+v", postings[0])
	}
	if !postings[0].From.Equals(sender.PublicKey()) {
		t.Fatal("posting must be paid by the sender")
	}
}

func TestSessionSendInsufficientFundsKeepsDraft(t *testing.T) {
	sender, recipient := newParties(t)
	l := ledger.NewInMemory()
	notifier := &testNotifier{}
	session, err := NewSession(SessionConfig{
		Submitter:  l,
		Identities: identity.NewStaticProvider(sender, recipient),
		Notifier:   notifier,
	})
	if err != nil {
		t.Fatalf("new session: %v", err)
	}

	_, err = session.Send(context.Background(), "hello")
	var sendErr *SendError
	if !errors.As(err, &sendErr) || sendErr.Category != CategoryInsufficientFunds {
		t.Fatalf("expected insufficient funds, got %v", err)
	}
	if len(session.Messages()) != 0 {
		t.Fatal("failed send must not add a message")
	}
	if session.Draft() != "hello" {
		t.Fatalf("draft must be preserved, got %q", session.Draft())
	}
	got := notifier.last()
	if got.Kind != notification.KindInsufficientFunds || got.Title != "Insufficient Funds" {
		t.Fatalf("unexpected notification %+v", got)
	}
}

func TestSessionSendGenericFailure(t *testing.T) {
	session, l, _ := newLedgerSession(t, funding.PolicyStartup)
	ctx := context.Background()
	if _, err := session.Mount(ctx); err != nil {
		t.Fatalf("mount: %v", err)
	}
	ledger.FailNextSubmit(l, errors.New("blockhash not found"))

	_, err := session.Send(ctx, "retry me")
	var sendErr *SendError
	if !errors.As(err, &sendErr) || sendErr.Category != CategoryFailed {
		t.Fatalf("expected generic failure, got %v", err)
	}
	if session.Draft() != "retry me" || len(session.Messages()) != 0 {
		t.Fatal("failure must keep the draft and the list")
	}

	if _, err := session.Send(ctx, "retry me"); err != nil {
		t.Fatalf("retry: %v", err)
	}
	if len(session.Messages()) != 1 {
		t.Fatal("retry should record the message")
	}
}

func TestSessionAppendsInCompletionOrder(t *testing.T) {
	session, _, _ := newLedgerSession(t, funding.PolicyStartup)
	ctx := context.Background()
	if _, err := session.Mount(ctx); err != nil {
		t.Fatalf("mount: %v", err)
	}

	for _, text := range []string{"one", "two", "three"} {
		if _, err := session.Send(ctx, text); err != nil {
			t.Fatalf("send %s: %v", text, err)
		}
	}
	msgs := session.Messages()
	for i, want := range []string{"one", "two", "three"} {
		if msgs[i].Text != want {
			t.Fatalf("expected %s at %d, got %s", want, i, msgs[i].Text)
		}
	}
}

func TestSessionSendAsyncSerializes(t *testing.T) {
	sender, recipient := newParties(t)
	sub := &fixedSubmitter{sig: testSignature(), delay: 2 * time.Millisecond}
	session, err := NewSession(SessionConfig{
		Submitter:  sub,
		Identities: identity.NewStaticProvider(sender, recipient),
	})
	if err != nil {
		t.Fatalf("new session: %v", err)
	}

	const sends = 5
	outcomes := make([]<-chan Outcome, 0, sends)
	for i := 0; i < sends; i++ {
		outcomes = append(outcomes, session.SendAsync(context.Background(), "async"))
	}

	var wg sync.WaitGroup
	for _, ch := range outcomes {
		wg.Add(1)
		go func(ch <-chan Outcome) {
			defer wg.Done()
			if out := <-ch; out.Err != nil {
				t.Errorf("async send: %v", out.Err)
			}
		}(ch)
	}
	wg.Wait()

	if sub.overlap.Load() {
		t.Fatal("async sends overlapped")
	}
	if len(session.Messages()) != sends {
		t.Fatalf("expected %d messages, got %d", sends, len(session.Messages()))
	}
}

func TestSessionBeforeSendPolicy(t *testing.T) {
	session, l, _ := newLedgerSession(t, funding.PolicyBeforeSend)

	if _, err := session.Send(context.Background(), "no mount needed"); err != nil {
		t.Fatalf("send: %v", err)
	}
	if ledger.FundsRequests(l) != 1 {
		t.Fatalf("expected the pre-send check to fund once, got %d", ledger.FundsRequests(l))
	}

	if _, err := NewSession(SessionConfig{
		Submitter:  l,
		Identities: identity.NewStaticProvider(nil, identity.Recipient{}),
		Policy:     funding.PolicyBeforeSend,
	}); err == nil {
		t.Fatal("before_send without a guard must be rejected")
	}
}

func TestSessionIdentityFailure(t *testing.T) {
	notifier := &testNotifier{}
	var states []State
	session, err := NewSession(SessionConfig{
		Submitter:  ledger.NewInMemory(),
		Identities: failingProvider{err: identity.ErrNotFound},
		Notifier:   notifier,
		StateHook:  func(s State) { states = append(states, s) },
	})
	if err != nil {
		t.Fatalf("new session: %v", err)
	}
	_, err = session.Send(context.Background(), "hi")
	var sendErr *SendError
	if !errors.As(err, &sendErr) || sendErr.Category != CategoryFailed {
		t.Fatalf("expected a failed SendError, got %v", err)
	}
	if !errors.Is(err, identity.ErrNotFound) {
		t.Fatalf("expected wrapped ErrNotFound, got %v", err)
	}
	if got := notifier.last(); got.Kind != notification.KindSendFailed || got.Title != "Error" {
		t.Fatalf("identity failures must notify subscribers, got %+v", got)
	}
	assertStates(t, states, StateRejected, StateIdle)
	if session.Draft() != "hi" || len(session.Messages()) != 0 {
		t.Fatal("identity failure must keep the draft and the list")
	}
}

type failingProvider struct{ err error }

func (p failingProvider) Sender(context.Context) (*identity.Sender, error) { return nil, p.err }

func (p failingProvider) Recipient(context.Context) (identity.Recipient, error) {
	return identity.Recipient{}, p.err
}
