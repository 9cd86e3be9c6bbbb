package identity

import (
	"context"
	"errors"
	"sync"
)

type memoryRepository struct {
	mu         sync.RWMutex
	identities map[string]StoredIdentity
}

// NewMemoryRepository builds an in-memory identity store for testing.
func NewMemoryRepository() Repository {
	return &memoryRepository{identities: make(map[string]StoredIdentity)}
}

func (r *memoryRepository) Create(_ context.Context, identity StoredIdentity) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.identities[identity.Name]; exists {
		return errors.New("identity exists")
	}
	r.identities[identity.Name] = identity
	return nil
}

func (r *memoryRepository) FindByName(_ context.Context, name string) (StoredIdentity, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	identity, ok := r.identities[name]
	if !ok {
		return StoredIdentity{}, ErrNotFound
	}
	return identity, nil
}
