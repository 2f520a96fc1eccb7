package session

import (
	"sync"

	"github.com/goliatone/go-errors"
	"github.com/zalando/go-keyring"
)

// KeyringStore persists values in the OS keychain/credential manager,
// namespaced by service name.
type KeyringStore struct {
	service string
}

var _ Store = (*KeyringStore)(nil)

// NewKeyringStore returns a Store backed by the OS keyring.
func NewKeyringStore(service string) *KeyringStore {
	if service == "" {
		service = defaultServiceName
	}
	return &KeyringStore{service: service}
}

func (s *KeyringStore) Set(key, value string) error {
	if err := keyring.Set(s.service, key, value); err != nil {
		return errors.Wrap(err, errors.CategoryInternal, "failed to persist value")
	}
	return nil
}

func (s *KeyringStore) Get(key string) (string, error) {
	value, err := keyring.Get(s.service, key)
	if err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return "", ErrKeyNotFound
		}
		return "", errors.Wrap(err, errors.CategoryInternal, "failed to read value")
	}
	return value, nil
}

func (s *KeyringStore) Delete(key string) error {
	if err := keyring.Delete(s.service, key); err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return nil
		}
		return errors.Wrap(err, errors.CategoryInternal, "failed to delete value")
	}
	return nil
}

// MemoryStore is an in-memory Store for tests and ephemeral sessions.
type MemoryStore struct {
	mu     sync.RWMutex
	values map[string]string
}

var _ Store = (*MemoryStore)(nil)

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{values: map[string]string{}}
}

func (s *MemoryStore) Set(key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[key] = value
	return nil
}

func (s *MemoryStore) Get(key string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	value, ok := s.values[key]
	if !ok {
		return "", ErrKeyNotFound
	}
	return value, nil
}

func (s *MemoryStore) Delete(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.values, key)
	return nil
}
