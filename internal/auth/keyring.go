package auth

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/zalando/go-keyring"
)

const serviceName = "tracker"

// KeyringBackend stores credentials in the system keychain.
type KeyringBackend struct {
	service string
}

// NewKeyringBackend creates a keychain backend.
func NewKeyringBackend() *KeyringBackend {
	return &KeyringBackend{service: serviceName}
}

// KeyringAvailable checks the system keychain with a throwaway entry.
func KeyringAvailable() bool {
	testKey := serviceName + "::availability-check"
	if err := keyring.Set(serviceName, testKey, "ok"); err != nil {
		return false
	}
	_ = keyring.Delete(serviceName, testKey) // Best-effort cleanup
	return true
}

// key returns the keyring key for an origin.
func key(origin string) string {
	return fmt.Sprintf("%s::%s", serviceName, origin)
}

func (k *KeyringBackend) Name() string { return "keyring" }

func (k *KeyringBackend) Load(origin string) (*Credentials, error) {
	data, err := keyring.Get(k.service, key(origin))
	if err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("keyring get: %w", err)
	}

	var creds Credentials
	if err := json.Unmarshal([]byte(data), &creds); err != nil {
		return nil, fmt.Errorf("invalid credentials: %w", err)
	}
	return &creds, nil
}

func (k *KeyringBackend) Save(origin string, creds *Credentials) error {
	data, err := json.Marshal(creds)
	if err != nil {
		return err
	}
	return keyring.Set(k.service, key(origin), string(data))
}

func (k *KeyringBackend) Delete(origin string) error {
	err := keyring.Delete(k.service, key(origin))
	if errors.Is(err, keyring.ErrNotFound) {
		return ErrNotFound
	}
	return err
}
