package chat

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/google/uuid"

	"github.com/memochat/memochat/internal/funding"
	"github.com/memochat/memochat/internal/identity"
	"github.com/memochat/memochat/internal/ledger"
	"github.com/memochat/memochat/internal/logging"
	"github.com/memochat/memochat/internal/message"
	"github.com/memochat/memochat/internal/notification"
)

// Submitter sends signed instructions to the ledger.
type Submitter interface {
	Submit(ctx context.Context, instructions []solana.Instruction, signers ...ledger.Signer) (solana.Signature, error)
}

// Recorder receives every accepted message, in completion order.
type Recorder interface {
	Append(record Record)
}

// Engine turns text into a ledger transaction and reconciles the result into a
// Record. Calls to Send are serialized: at most one submission is in flight.
type Engine struct {
	submitter Submitter
	recorder  Recorder
	notifier  notification.Notifier
	logger    *slog.Logger
	explorer  Explorer
	guard     *funding.Guard
	hook      func(State)
	now       func() time.Time

	sendMu  sync.Mutex
	stateMu sync.RWMutex
	state   State
}

// EngineOption customises an Engine.
type EngineOption func(*Engine)

// WithNotifier sets the notifier for success and failure notifications.
func WithNotifier(n notification.Notifier) EngineOption {
	return func(e *Engine) { e.notifier = n }
}

// WithLogger sets the engine logger.
func WithLogger(l *slog.Logger) EngineOption {
	return func(e *Engine) { e.logger = l }
}

// WithExplorer sets the explorer used for proof references.
func WithExplorer(x Explorer) EngineOption {
	return func(e *Engine) { e.explorer = x }
}

// WithFundingGuard runs the guard before building each transaction.
func WithFundingGuard(g *funding.Guard) EngineOption {
	return func(e *Engine) { e.guard = g }
}

// WithStateHook observes every state transition.
func WithStateHook(fn func(State)) EngineOption {
	return func(e *Engine) { e.hook = fn }
}

// NewEngine builds an engine submitting through submitter and appending to recorder.
func NewEngine(submitter Submitter, recorder Recorder, opts ...EngineOption) (*Engine, error) {
	if submitter == nil {
		return nil, fmt.Errorf("submitter is required")
	}
	if recorder == nil {
		return nil, fmt.Errorf("recorder is required")
	}
	e := &Engine{
		submitter: submitter,
		recorder:  recorder,
		explorer:  DefaultExplorer,
		now:       func() time.Time { return time.Now().UTC() },
		state:     StateIdle,
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.logger == nil {
		e.logger = logging.Discard()
	}
	return e, nil
}

// State returns the current lifecycle state.
func (e *Engine) State() State {
	e.stateMu.RLock()
	defer e.stateMu.RUnlock()
	return e.state
}

// Send builds, submits and records one message. Failures come back as
// *SendError and leave the recorder untouched. Submission is detached from
// ctx cancellation: once submitted, a send cannot be aborted.
func (e *Engine) Send(ctx context.Context, sender *identity.Sender, recipient identity.Recipient, text string) (Record, error) {
	e.sendMu.Lock()
	defer e.sendMu.Unlock()
	defer e.transition(StateIdle)

	e.transition(StateBuilding)
	if e.guard != nil && sender != nil {
		if _, err := e.guard.EnsureFunded(ctx, sender); err != nil {
			e.logger.Warn("pre-send funding check failed", "address", sender.Address(), "error", err)
		}
	}

	tx, err := message.Build(sender, recipient, text)
	if err != nil {
		return Record{}, e.reject(ctx, sender, err)
	}

	e.transition(StateSubmitting)
	sig, err := e.submitter.Submit(context.WithoutCancel(ctx), tx.Instructions(), tx.Signers...)
	if err != nil {
		return Record{}, e.reject(ctx, sender, err)
	}

	record := Record{
		ID:             uuid.Must(uuid.NewV7()).String(),
		Text:           tx.Text(),
		DisplayText:    DisplayText(sender.Address(), tx.Text()),
		Sender:         sender.Address(),
		Signature:      sig.String(),
		ProofReference: e.explorer.TransactionURL(sig.String()),
		CreatedAt:      e.now(),
	}
	e.recorder.Append(record)
	e.transition(StateRecorded)

	e.logger.Info("message sent", "signature", record.Signature, "url", record.ProofReference)
	e.notify(ctx, notification.Message{
		Kind:        notification.KindMessageSent,
		Destination: sender.Address(),
		Title:       "Success",
		Body:        "Message sent successfully!",
		Reference:   record.ProofReference,
	})
	return record, nil
}

// fail reports a send that could not start, for example because the identity
// failed to load. It follows the same rejection path as Send.
func (e *Engine) fail(ctx context.Context, err error) error {
	e.sendMu.Lock()
	defer e.sendMu.Unlock()
	defer e.transition(StateIdle)
	return e.reject(ctx, nil, err)
}

func (e *Engine) reject(ctx context.Context, sender *identity.Sender, err error) error {
	e.transition(StateRejected)
	sendErr := &SendError{Category: Classify(err), Err: err}

	kind := notification.KindSendFailed
	switch sendErr.Category {
	case CategoryInsufficientFunds:
		kind = notification.KindInsufficientFunds
	case CategoryValidation:
		kind = notification.KindInvalidMessage
	}

	var destination string
	if sender != nil {
		destination = sender.Address()
	}

	e.logger.Error("failed to send message", "category", string(sendErr.Category), "error", err)
	e.notify(ctx, notification.Message{
		Kind:        kind,
		Destination: destination,
		Title:       sendErr.Title(),
		Body:        sendErr.Body(),
	})
	return sendErr
}

func (e *Engine) transition(s State) {
	e.stateMu.Lock()
	e.state = s
	e.stateMu.Unlock()
	if e.hook != nil {
		e.hook(s)
	}
}

func (e *Engine) notify(ctx context.Context, msg notification.Message) {
	if e.notifier == nil {
		return
	}
	msg.At = e.now()
	if err := e.notifier.Send(context.WithoutCancel(ctx), msg); err != nil {
		e.logger.Warn("notification failed", "kind", msg.Kind, "error", err)
	}
}
