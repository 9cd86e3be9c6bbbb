package chat

import (
	"errors"
	"strings"

	"github.com/samber/lo"

	"github.com/memochat/memochat/internal/ledger"
	"github.com/memochat/memochat/internal/message"
)

// Category is the user-facing class of a failed send.
type Category string

const (
	// CategoryInsufficientFunds means the sender cannot pay for the transfer.
	CategoryInsufficientFunds Category = "insufficient_funds"
	// CategoryValidation means the text was rejected before submission.
	CategoryValidation Category = "validation"
	// CategoryFailed covers transport errors and ledger rejections.
	CategoryFailed Category = "failed"
)

// insufficientFundsIndicators are matched case-insensitively against error text.
var insufficientFundsIndicators = []string{
	"insufficient funds",
	"insufficient lamports",
	"no record of a prior credit",
}

// SendError is the only error type Send returns.
type SendError struct {
	Category Category
	Err      error
}

func (e *SendError) Error() string {
	return string(e.Category) + ": " + e.Err.Error()
}

func (e *SendError) Unwrap() error { return e.Err }

// Title is the short notification heading for the category.
func (e *SendError) Title() string {
	switch e.Category {
	case CategoryInsufficientFunds:
		return "Insufficient Funds"
	case CategoryValidation:
		return "Invalid Message"
	default:
		return "Error"
	}
}

// Body is the notification text for the category.
func (e *SendError) Body() string {
	switch e.Category {
	case CategoryInsufficientFunds:
		return "Not enough SOL to complete the transaction. Consider airdropping more SOL to your account."
	case CategoryValidation:
		return e.Err.Error()
	default:
		return "Failed to send message. Please try again."
	}
}

// Classify maps any send failure to its category. The result depends only on err.
func Classify(err error) Category {
	switch {
	case err == nil:
		return ""
	case message.IsValidationError(err):
		return CategoryValidation
	case errors.Is(err, ledger.ErrInsufficientFunds):
		return CategoryInsufficientFunds
	}
	desc := strings.ToLower(err.Error())
	if lo.SomeBy(insufficientFundsIndicators, func(indicator string) bool {
		return strings.Contains(desc, indicator)
	}) {
		return CategoryInsufficientFunds
	}
	return CategoryFailed
}
