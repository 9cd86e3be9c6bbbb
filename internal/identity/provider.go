package identity

import (
	"context"
	"sync"
)

// Provider supplies the session's sender and recipient. Implementations load
// them once; identities are never rotated while a session runs.
type Provider interface {
	Sender(ctx context.Context) (*Sender, error)
	Recipient(ctx context.Context) (Recipient, error)
}

// StaticProvider serves identities resolved at startup.
type StaticProvider struct {
	sender    *Sender
	recipient Recipient
}

// NewStaticProvider wraps an already decoded sender and recipient.
func NewStaticProvider(sender *Sender, recipient Recipient) *StaticProvider {
	return &StaticProvider{sender: sender, recipient: recipient}
}

// Sender returns the configured sender.
func (p *StaticProvider) Sender(context.Context) (*Sender, error) { return p.sender, nil }

// Recipient returns the configured recipient.
func (p *StaticProvider) Recipient(context.Context) (Recipient, error) { return p.recipient, nil }

// KeystoreProvider unlocks a sealed identity from the repository on first use
// and serves the same Sender afterwards.
type KeystoreProvider struct {
	service    *Service
	name       string
	passphrase string
	recipient  Recipient

	mu     sync.Mutex
	sender *Sender
}

// NewKeystoreProvider builds a provider backed by a sealed identity.
func NewKeystoreProvider(service *Service, name, passphrase string, recipient Recipient) *KeystoreProvider {
	return &KeystoreProvider{service: service, name: name, passphrase: passphrase, recipient: recipient}
}

// Sender unlocks the identity once and caches it for the process lifetime.
func (p *KeystoreProvider) Sender(ctx context.Context) (*Sender, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.sender != nil {
		return p.sender, nil
	}
	sender, err := p.service.Unlock(ctx, p.name, p.passphrase)
	if err != nil {
		return nil, err
	}
	p.sender = sender
	p.passphrase = ""
	return sender, nil
}

// Recipient returns the configured recipient.
func (p *KeystoreProvider) Recipient(context.Context) (Recipient, error) { return p.recipient, nil }
