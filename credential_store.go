package session

import "github.com/goliatone/go-errors"

// CredentialStore owns the single persisted bearer credential. It is the
// only component allowed to write it, and every write synchronously updates
// the registered header mirrors before returning, so request initiation can
// never race ahead of a credential change.
type CredentialStore struct {
	store   Store
	key     string
	mirrors []HeaderMirror
	logger  Logger
}

// CredentialStoreOption customizes CredentialStore construction.
type CredentialStoreOption func(*CredentialStore)

// WithCredentialKey overrides the storage key for the credential.
func WithCredentialKey(key string) CredentialStoreOption {
	return func(cs *CredentialStore) {
		if key != "" {
			cs.key = key
		}
	}
}

// WithCredentialLogger overrides the logger.
func WithCredentialLogger(logger Logger) CredentialStoreOption {
	return func(cs *CredentialStore) {
		if logger != nil {
			cs.logger = logger
		}
	}
}

// NewCredentialStore wires durable storage to the header mirrors. Mirrors
// are typically the shared authority client; tests register fakes.
func NewCredentialStore(store Store, mirrors []HeaderMirror, opts ...CredentialStoreOption) *CredentialStore {
	cs := &CredentialStore{
		store:   store,
		key:     defaultCredentialKey,
		mirrors: mirrors,
		logger:  defLogger{},
	}

	for _, opt := range opts {
		if opt != nil {
			opt(cs)
		}
	}

	return cs
}

// Set persists the credential and then mirrors it into every registered
// header, in that order. If persistence fails the mirrors are left untouched
// and the old credential stays effective.
func (cs *CredentialStore) Set(token string) error {
	if err := cs.store.Set(cs.key, token); err != nil {
		return errors.Wrap(err, errors.CategoryInternal, "failed to persist credential")
	}
	cs.mirror(token)
	return nil
}

// Get returns the persisted credential, or ErrNoCredential when nothing is
// stored.
func (cs *CredentialStore) Get() (string, error) {
	token, err := cs.store.Get(cs.key)
	if err != nil {
		if errors.Is(err, ErrKeyNotFound) {
			return "", ErrNoCredential
		}
		return "", err
	}
	if token == "" {
		return "", ErrNoCredential
	}
	return token, nil
}

// Restore reads the persisted credential and mirrors it into the headers so
// the next request carries it. Used once at bootstrap, before the first
// identity check.
func (cs *CredentialStore) Restore() (string, error) {
	token, err := cs.Get()
	if err != nil {
		return "", err
	}
	cs.mirror(token)
	return token, nil
}

// Clear erases the credential and empties the mirrored headers. It is
// idempotent.
func (cs *CredentialStore) Clear() error {
	if err := cs.store.Delete(cs.key); err != nil {
		return errors.Wrap(err, errors.CategoryInternal, "failed to clear credential")
	}
	cs.mirror("")
	return nil
}

func (cs *CredentialStore) mirror(token string) {
	for _, m := range cs.mirrors {
		if m != nil {
			m.SetAuthorization(token)
		}
	}
}
