package client

import (
	"sync"

	"github.com/pkg/errors"
	"github.com/zalando/go-keyring"
)

const (
	KeyringService = "incidentes"
	TokenKey       = "my-jwt"
)

// ErrNoToken is returned by Load when nothing is stored.
var ErrNoToken = errors.New("no stored token")

// TokenStore persists the single session token.
type TokenStore interface {
	Load() (string, error)
	Save(token string) error
	Delete() error
}

// KeyringStore keeps the token in the OS secret store.
type KeyringStore struct {
	Service string
	Key     string
}

func NewKeyringStore() *KeyringStore {
	return &KeyringStore{Service: KeyringService, Key: TokenKey}
}

func (k *KeyringStore) Load() (string, error) {
	token, err := keyring.Get(k.Service, k.Key)
	if err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return "", ErrNoToken
		}
		return "", errors.Wrap(err, "keyring get")
	}
	return token, nil
}

func (k *KeyringStore) Save(token string) error {
	return errors.Wrap(keyring.Set(k.Service, k.Key, token), "keyring set")
}

// Delete succeeds when nothing is stored.
func (k *KeyringStore) Delete() error {
	err := keyring.Delete(k.Service, k.Key)
	if err != nil && !errors.Is(err, keyring.ErrNotFound) {
		return errors.Wrap(err, "keyring delete")
	}
	return nil
}

// MemoryStore is a process-local TokenStore.
type MemoryStore struct {
	mu    sync.Mutex
	token string
}

func (m *MemoryStore) Load() (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.token == "" {
		return "", ErrNoToken
	}
	return m.token, nil
}

func (m *MemoryStore) Save(token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.token = token
	return nil
}

func (m *MemoryStore) Delete() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.token = ""
	return nil
}
