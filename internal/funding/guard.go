package funding

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/gagliardetto/solana-go"

	"github.com/memochat/memochat/internal/identity"
	"github.com/memochat/memochat/internal/logging"
	"github.com/memochat/memochat/internal/notification"
)

const (
	// DefaultTopUp is one full faucet top-up.
	DefaultTopUp = solana.LAMPORTS_PER_SOL
	// DefaultThreshold is 1% of a top-up.
	DefaultThreshold = solana.LAMPORTS_PER_SOL / 100
)

// Policy selects when the guard runs.
type Policy string

const (
	// PolicyStartup runs the guard once when the session mounts.
	PolicyStartup Policy = "startup"
	// PolicyBeforeSend additionally runs the guard before every send.
	PolicyBeforeSend Policy = "before_send"
)

// ParsePolicy validates a policy name. Empty means PolicyStartup.
func ParsePolicy(s string) (Policy, error) {
	switch Policy(s) {
	case "", PolicyStartup:
		return PolicyStartup, nil
	case PolicyBeforeSend:
		return PolicyBeforeSend, nil
	default:
		return "", fmt.Errorf("unknown funding policy %q", s)
	}
}

// Result captures the outcome of a funding check.
type Result struct {
	Address      string
	Balance      uint64
	Threshold    uint64
	ToppedUp     bool
	TopUpAmount  uint64
	TopUpRequest string
	CheckedAt    time.Time
}

// Guard keeps the sender solvent by topping it up from the faucet.
type Guard struct {
	faucet    Faucet
	notifier  notification.Notifier
	logger    *slog.Logger
	threshold uint64
	topUp     uint64
}

// Option customises a Guard.
type Option func(*Guard)

// WithThreshold overrides the minimum balance.
func WithThreshold(lamports uint64) Option {
	return func(g *Guard) { g.threshold = lamports }
}

// WithTopUp overrides the amount requested per top-up.
func WithTopUp(lamports uint64) Option {
	return func(g *Guard) { g.topUp = lamports }
}

// NewGuard builds a funding guard.
func NewGuard(faucet Faucet, notifier notification.Notifier, logger *slog.Logger, opts ...Option) (*Guard, error) {
	if faucet == nil {
		return nil, fmt.Errorf("faucet is required")
	}
	g := &Guard{
		faucet:    faucet,
		notifier:  notifier,
		logger:    logger,
		threshold: DefaultThreshold,
		topUp:     DefaultTopUp,
	}
	if g.logger == nil {
		g.logger = logging.Discard()
	}
	for _, opt := range opts {
		opt(g)
	}
	if g.topUp == 0 {
		return nil, fmt.Errorf("top-up amount must be positive")
	}
	return g, nil
}

// Threshold returns the configured minimum balance.
func (g *Guard) Threshold() uint64 { return g.threshold }

// Status reports the current balance against the threshold without topping up.
func (g *Guard) Status(ctx context.Context, sender *identity.Sender) (Result, error) {
	balance, err := g.faucet.Balance(ctx, sender.PublicKey())
	if err != nil {
		return Result{}, err
	}
	return Result{
		Address:   sender.Address(),
		Balance:   balance,
		Threshold: g.threshold,
		CheckedAt: time.Now().UTC(),
	}, nil
}

// EnsureFunded queries the balance and, when it is below the threshold,
// requests exactly one top-up and waits for its confirmation.
func (g *Guard) EnsureFunded(ctx context.Context, sender *identity.Sender) (Result, error) {
	res, err := g.Status(ctx, sender)
	if err != nil {
		return Result{}, fmt.Errorf("check balance: %w", err)
	}
	g.logger.Info("sender balance", "address", res.Address, "lamports", res.Balance)

	if res.Balance >= g.threshold {
		return res, nil
	}

	g.logger.Info("requesting airdrop", "address", res.Address, "lamports", g.topUp)
	sig, err := g.faucet.RequestFunds(ctx, sender.PublicKey(), g.topUp)
	if err != nil {
		return res, fmt.Errorf("request funds: %w", err)
	}
	g.notify(ctx, notification.Message{
		Kind:        notification.KindFundingRequested,
		Destination: res.Address,
		Title:       "Funding",
		Body:        fmt.Sprintf("Requested %d lamports from the faucet", g.topUp),
		Reference:   sig.String(),
	})

	if err := g.faucet.AwaitConfirmation(ctx, sig); err != nil {
		return res, fmt.Errorf("confirm funds request %s: %w", sig, err)
	}

	res.ToppedUp = true
	res.TopUpAmount = g.topUp
	res.TopUpRequest = sig.String()
	res.Balance += g.topUp
	res.CheckedAt = time.Now().UTC()

	g.logger.Info("airdrop confirmed", "address", res.Address, "signature", sig.String())
	g.notify(ctx, notification.Message{
		Kind:        notification.KindFunded,
		Destination: res.Address,
		Title:       "Funded",
		Body:        fmt.Sprintf("Received %d lamports from the faucet", g.topUp),
		Reference:   sig.String(),
	})
	return res, nil
}

func (g *Guard) notify(ctx context.Context, msg notification.Message) {
	if g.notifier == nil {
		return
	}
	msg.At = time.Now().UTC()
	if err := g.notifier.Send(ctx, msg); err != nil {
		g.logger.Warn("notification failed", "kind", msg.Kind, "error", err)
	}
}
