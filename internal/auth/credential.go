package auth

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/planwell/calsync/internal/store"
)

// expiryMargin is subtracted from the credential's expiry when checking
// validity, so a token is refreshed before it actually lapses mid-request.
const expiryMargin = 60 * time.Second

// Credential is a persisted access token with its absolute expiry.
// ExpiresAt is epoch milliseconds. RefreshToken, when the provider grants
// one, allows silent re-acquisition after the access token lapses.
type Credential struct {
	AccessToken  string `json:"accessToken"`
	ExpiresAt    int64  `json:"expiresAt"`
	RefreshToken string `json:"refreshToken,omitempty"`
}

// Valid reports whether the credential can still be used at the given
// instant, keeping a safety margin before the real expiry.
func (c *Credential) Valid(now time.Time) bool {
	if c == nil || c.AccessToken == "" {
		return false
	}
	return now.UnixMilli() < c.ExpiresAt-expiryMargin.Milliseconds()
}

// CredentialStore persists the credential across restarts.
type CredentialStore struct {
	store *store.Store
}

func NewCredentialStore(s *store.Store) *CredentialStore {
	return &CredentialStore{store: s}
}

// Load returns the stored credential, or nil when none is saved.
func (s *CredentialStore) Load() (*Credential, error) {
	raw, ok, err := s.store.Get(store.KeyCredential)
	if err != nil {
		return nil, fmt.Errorf("failed to load credential: %w", err)
	}
	if !ok {
		return nil, nil
	}
	var cred Credential
	if err := json.Unmarshal(raw, &cred); err != nil {
		return nil, fmt.Errorf("failed to decode credential: %w", err)
	}
	return &cred, nil
}

func (s *CredentialStore) Save(cred *Credential) error {
	raw, err := json.Marshal(cred)
	if err != nil {
		return fmt.Errorf("failed to encode credential: %w", err)
	}
	if err := s.store.Put(store.KeyCredential, raw); err != nil {
		return fmt.Errorf("failed to save credential: %w", err)
	}
	return nil
}

func (s *CredentialStore) Clear() error {
	if err := s.store.Delete(store.KeyCredential); err != nil {
		return fmt.Errorf("failed to clear credential: %w", err)
	}
	return nil
}
