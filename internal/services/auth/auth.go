package auth

import (
	"encoding/json"
	"errors"
	"fmt"

	"stopro/roster/internal/domain"
	"stopro/roster/internal/util"
)

const ServiceName = "roster"

var ErrTokenNotFound = errors.New("auth token not found")

// Store persists one secret per profile.
type Store interface {
	SetToken(profile string, token string) error
	GetToken(profile string) (string, error)
	DeleteToken(profile string) error
}

// DefaultStore returns the standard auth store backed by the OS keychain.
func DefaultStore() Store {
	return NewKeyringStore(ServiceName)
}

// NormalizeProfile normalizes a profile name for consistent key lookup.
func NormalizeProfile(profile string) string {
	return util.NormalizeKey(profile)
}

type storedSession struct {
	AccessToken  string      `json:"accessToken"`
	RefreshToken string      `json:"refreshToken,omitempty"`
	User         domain.User `json:"user"`
}

// SaveSession serializes s into the store under profile.
func SaveSession(store Store, profile string, s domain.Session) error {
	if s.AccessToken == "" {
		return fmt.Errorf("auth: refusing to store a session without an access token")
	}
	data, err := json.Marshal(storedSession{
		AccessToken:  s.AccessToken,
		RefreshToken: s.RefreshToken,
		User:         s.User,
	})
	if err != nil {
		return fmt.Errorf("auth: failed to encode session: %w", err)
	}
	return store.SetToken(profile, string(data))
}

// LoadSession returns the session stored under profile. A bare token (not
// JSON) is accepted as an access token without a profile.
func LoadSession(store Store, profile string) (domain.Session, error) {
	raw, err := store.GetToken(profile)
	if err != nil {
		return domain.Session{}, err
	}

	var stored storedSession
	if err := json.Unmarshal([]byte(raw), &stored); err != nil || stored.AccessToken == "" {
		return domain.Session{AccessToken: raw}, nil
	}
	return domain.Session{
		AccessToken:  stored.AccessToken,
		RefreshToken: stored.RefreshToken,
		User:         stored.User,
	}, nil
}

// TokenSource returns a function yielding the current access token for
// profile, suitable for the API client.
func TokenSource(store Store, profile string) func() (string, error) {
	return func() (string, error) {
		s, err := LoadSession(store, profile)
		if err != nil {
			return "", err
		}
		return s.AccessToken, nil
	}
}
