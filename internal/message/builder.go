// Package message encodes chat text into a single Solana transaction: a
// minimal SOL transfer to the recipient followed by a memo instruction that
// carries the raw text bytes.
package message

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/programs/system"

	"github.com/memochat/memochat/internal/identity"
	"github.com/memochat/memochat/internal/ledger"
)

const (
	// TransferLamports is the nominal amount moved with every message.
	TransferLamports uint64 = 1_000

	// MaxAnnotationBytes is a conservative memo cap, not the packet bound.
	// A signed transfer + memo transaction at this size serializes to about
	// 820 bytes, comfortably under PacketSize.
	MaxAnnotationBytes = 566

	// PacketSize is the largest serialized transaction a cluster accepts.
	PacketSize = 1232
)

var (
	// ErrEmptyMessage is returned when the text is empty after trimming.
	ErrEmptyMessage = errors.New("message is empty")
	// ErrMessageTooLarge is returned when the payload exceeds MaxAnnotationBytes.
	ErrMessageTooLarge = errors.New("message exceeds annotation size limit")
	// ErrInvalidEncoding is returned for text that is not valid UTF-8.
	ErrInvalidEncoding = errors.New("message is not valid UTF-8")
)

// Transaction is one message ready for submission.
type Transaction struct {
	Sender     solana.PublicKey
	Recipient  solana.PublicKey
	Amount     uint64
	Annotation []byte
	Signers    []ledger.Signer

	instructions []solana.Instruction
}

// Instructions returns the instructions in execution order: transfer, then memo.
func (t Transaction) Instructions() []solana.Instruction {
	return append([]solana.Instruction(nil), t.instructions...)
}

// Text returns the annotation as a string.
func (t Transaction) Text() string {
	return string(t.Annotation)
}

// Build validates text and assembles the transfer + memo transaction.
func Build(sender *identity.Sender, recipient identity.Recipient, text string) (Transaction, error) {
	if sender == nil {
		return Transaction{}, errors.New("sender is required")
	}
	if recipient.Address.IsZero() {
		return Transaction{}, errors.New("recipient is required")
	}

	payload, err := Payload(text)
	if err != nil {
		return Transaction{}, err
	}

	transfer := system.NewTransferInstruction(TransferLamports, sender.PublicKey(), recipient.Address).Build()
	memo := solana.NewInstruction(solana.MemoProgramID, solana.AccountMetaSlice{}, payload)

	return Transaction{
		Sender:       sender.PublicKey(),
		Recipient:    recipient.Address,
		Amount:       TransferLamports,
		Annotation:   payload,
		Signers:      []ledger.Signer{sender},
		instructions: []solana.Instruction{transfer, memo},
	}, nil
}

// Payload trims text and returns its raw bytes, enforcing the memo constraints.
func Payload(text string) ([]byte, error) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return nil, ErrEmptyMessage
	}
	if !utf8.ValidString(trimmed) {
		return nil, ErrInvalidEncoding
	}
	if len(trimmed) > MaxAnnotationBytes {
		return nil, fmt.Errorf("%w: %d bytes, limit %d", ErrMessageTooLarge, len(trimmed), MaxAnnotationBytes)
	}
	return []byte(trimmed), nil
}

// DecodeAnnotation extracts the memo text from an instruction list.
func DecodeAnnotation(instructions []solana.Instruction) (string, error) {
	for _, ix := range instructions {
		if !ix.ProgramID().Equals(solana.MemoProgramID) {
			continue
		}
		data, err := ix.Data()
		if err != nil {
			return "", err
		}
		return string(data), nil
	}
	return "", errors.New("no memo instruction")
}

// IsValidationError reports whether err is a build-time rejection.
func IsValidationError(err error) bool {
	return errors.Is(err, ErrEmptyMessage) || errors.Is(err, ErrMessageTooLarge) || errors.Is(err, ErrInvalidEncoding)
}
