package auth

import (
	"errors"

	"github.com/zalando/go-keyring"
)

// KeyringStore keeps sessions in the OS keychain, one entry per profile.
type KeyringStore struct {
	serviceName string
}

func NewKeyringStore(serviceName string) *KeyringStore {
	if serviceName == "" {
		serviceName = ServiceName
	}
	return &KeyringStore{serviceName: serviceName}
}

func (k *KeyringStore) SetToken(profile string, token string) error {
	return keyring.Set(k.serviceName, NormalizeProfile(profile), token)
}

func (k *KeyringStore) GetToken(profile string) (string, error) {
	token, err := keyring.Get(k.serviceName, NormalizeProfile(profile))
	if err == nil {
		return token, nil
	}
	if errors.Is(err, keyring.ErrNotFound) {
		return "", ErrTokenNotFound
	}
	return "", err
}

func (k *KeyringStore) DeleteToken(profile string) error {
	err := keyring.Delete(k.serviceName, NormalizeProfile(profile))
	if errors.Is(err, keyring.ErrNotFound) {
		return ErrTokenNotFound
	}
	return err
}
