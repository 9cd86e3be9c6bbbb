package notification

import (
	"context"
	"log/slog"
	"time"
)

const (
	// KindMessageSent indicates a message transaction was accepted.
	KindMessageSent = "message_sent"
	// KindInsufficientFunds indicates a send failed because the sender ran dry.
	KindInsufficientFunds = "insufficient_funds"
	// KindSendFailed indicates a send failed for any other reason.
	KindSendFailed = "send_failed"
	// KindInvalidMessage indicates the text was rejected before submission.
	KindInvalidMessage = "invalid_message"
	// KindFundingRequested indicates a faucet top-up was requested.
	KindFundingRequested = "funding_requested"
	// KindFunded indicates a faucet top-up was confirmed.
	KindFunded = "funded"
)

// Message describes a notification payload.
type Message struct {
	Kind        string    `json:"kind"`
	Destination string    `json:"destination"`
	Title       string    `json:"title"`
	Body        string    `json:"body"`
	Reference   string    `json:"reference,omitempty"`
	At          time.Time `json:"at"`
}

// Notifier delivers notifications to downstream systems.
type Notifier interface {
	Send(ctx context.Context, message Message) error
}

// LoggerNotifier writes notifications to the logger.
type LoggerNotifier struct {
	logger *slog.Logger
}

// NewLoggerNotifier constructs a logging notifier.
func NewLoggerNotifier(logger *slog.Logger) *LoggerNotifier {
	return &LoggerNotifier{logger: logger}
}

// Send writes the message to the structured logger.
func (n *LoggerNotifier) Send(_ context.Context, message Message) error {
	if n == nil || n.logger == nil {
		return nil
	}
	n.logger.Info("notification",
		"kind", message.Kind,
		"destination", message.Destination,
		"title", message.Title,
		"body", message.Body,
		"reference", message.Reference,
	)
	return nil
}

// Multi fans a notification out to several notifiers, returning the first error.
type Multi []Notifier

// Send delivers message to every notifier.
func (m Multi) Send(ctx context.Context, message Message) error {
	var first error
	for _, n := range m {
		if n == nil {
			continue
		}
		if err := n.Send(ctx, message); err != nil && first == nil {
			first = err
		}
	}
	return first
}
