package auth

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/oauth2"
)

// RefreshAuthenticator acquires tokens silently by redeeming the OAuth
// refresh token persisted alongside the credential. The provider may
// rotate the refresh token on use; the previous one is kept when the
// response omits a new one.
type RefreshAuthenticator struct {
	OAuth *oauth2.Config
	Creds *CredentialStore
}

func (r *RefreshAuthenticator) AcquireSilent(ctx context.Context) (*Credential, error) {
	cred, err := r.Creds.Load()
	if err != nil {
		return nil, err
	}
	if cred == nil || cred.RefreshToken == "" {
		return nil, errors.New("no refresh token available")
	}

	src := r.OAuth.TokenSource(ctx, &oauth2.Token{RefreshToken: cred.RefreshToken})
	tok, err := src.Token()
	if err != nil {
		return nil, fmt.Errorf("failed to redeem refresh token: %w", err)
	}

	next := &Credential{
		AccessToken:  tok.AccessToken,
		ExpiresAt:    tok.Expiry.UnixMilli(),
		RefreshToken: tok.RefreshToken,
	}
	if next.RefreshToken == "" {
		next.RefreshToken = cred.RefreshToken
	}
	return next, nil
}
