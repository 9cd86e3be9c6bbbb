package chat

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/memochat/memochat/internal/funding"
	"github.com/memochat/memochat/internal/identity"
	"github.com/memochat/memochat/internal/logging"
	"github.com/memochat/memochat/internal/notification"
)

// SessionConfig wires a Session.
type SessionConfig struct {
	Submitter  Submitter
	Identities identity.Provider
	Guard      *funding.Guard
	Policy     funding.Policy
	Notifier   notification.Notifier
	Logger     *slog.Logger
	Explorer   Explorer
	StateHook  func(State)
}

// Outcome is the eventual result of SendAsync.
type Outcome struct {
	Record Record
	Err    error
}

// Session is the surface a UI talks to: mount once, send text, render messages.
type Session struct {
	identities identity.Provider
	guard      *funding.Guard
	engine     *Engine
	logger     *slog.Logger

	mountMu sync.Mutex
	mounted bool
	funded  funding.Result

	mu      sync.RWMutex
	records []Record
	draft   string
}

// NewSession builds a session and its engine.
func NewSession(cfg SessionConfig) (*Session, error) {
	if cfg.Identities == nil {
		return nil, fmt.Errorf("identity provider is required")
	}
	if cfg.Logger == nil {
		cfg.Logger = logging.Discard()
	}
	if cfg.Explorer == (Explorer{}) {
		cfg.Explorer = DefaultExplorer
	}

	s := &Session{identities: cfg.Identities, guard: cfg.Guard, logger: cfg.Logger}

	opts := []EngineOption{
		WithNotifier(cfg.Notifier),
		WithLogger(cfg.Logger),
		WithExplorer(cfg.Explorer),
	}
	if cfg.StateHook != nil {
		opts = append(opts, WithStateHook(cfg.StateHook))
	}
	if cfg.Policy == funding.PolicyBeforeSend {
		if cfg.Guard == nil {
			return nil, fmt.Errorf("funding policy %s requires a guard", cfg.Policy)
		}
		opts = append(opts, WithFundingGuard(cfg.Guard))
	}

	engine, err := NewEngine(cfg.Submitter, s, opts...)
	if err != nil {
		return nil, err
	}
	s.engine = engine
	return s, nil
}

// Mount runs the funding check. After one successful run later calls return
// the cached result without touching the ledger.
func (s *Session) Mount(ctx context.Context) (funding.Result, error) {
	s.mountMu.Lock()
	defer s.mountMu.Unlock()

	if s.mounted {
		return s.funded, nil
	}
	sender, err := s.identities.Sender(ctx)
	if err != nil {
		return funding.Result{}, fmt.Errorf("load sender: %w", err)
	}
	if s.guard == nil {
		s.mounted = true
		return funding.Result{Address: sender.Address()}, nil
	}
	res, err := s.guard.EnsureFunded(ctx, sender)
	if err != nil {
		s.logger.Error("funding check failed", "address", sender.Address(), "error", err)
		return res, err
	}
	s.mounted = true
	s.funded = res
	return res, nil
}

// Send submits text and, on success, appends the record and clears the draft.
// On failure the draft keeps the text so the user can retry.
func (s *Session) Send(ctx context.Context, text string) (Record, error) {
	s.setDraft(text)

	sender, err := s.identities.Sender(ctx)
	if err != nil {
		return Record{}, s.engine.fail(ctx, fmt.Errorf("load sender: %w", err))
	}
	recipient, err := s.identities.Recipient(ctx)
	if err != nil {
		return Record{}, s.engine.fail(ctx, fmt.Errorf("load recipient: %w", err))
	}

	record, err := s.engine.Send(ctx, sender, recipient, text)
	if err != nil {
		return Record{}, err
	}
	s.clearDraft(text)
	return record, nil
}

// SendAsync runs Send in the background. The channel yields exactly one Outcome.
func (s *Session) SendAsync(ctx context.Context, text string) <-chan Outcome {
	out := make(chan Outcome, 1)
	go func() {
		defer close(out)
		record, err := s.Send(ctx, text)
		out <- Outcome{Record: record, Err: err}
	}()
	return out
}

// Append implements Recorder.
func (s *Session) Append(record Record) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = append(s.records, record)
}

// Messages returns a snapshot of the accepted messages in order.
func (s *Session) Messages() []Record {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]Record(nil), s.records...)
}

// Draft returns the pending input text.
func (s *Session) Draft() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.draft
}

// State returns the engine state.
func (s *Session) State() State {
	return s.engine.State()
}

// Identities returns the session's identity provider.
func (s *Session) Identities() identity.Provider {
	return s.identities
}

func (s *Session) setDraft(text string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.draft = text
}

// clearDraft empties the draft unless a newer input replaced it meanwhile.
func (s *Session) clearDraft(sent string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.draft == sent {
		s.draft = ""
	}
}
