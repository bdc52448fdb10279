package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"golang.org/x/oauth2"

	"github.com/planwell/calsync/internal/store"
)

func newRefreshFixture(t *testing.T, tokenHandler http.HandlerFunc) (*RefreshAuthenticator, *CredentialStore) {
	t.Helper()
	srv := httptest.NewServer(tokenHandler)
	t.Cleanup(srv.Close)

	s, err := store.Open(t.TempDir())
	if err != nil {
		t.Fatalf("failed to open store: %v", err)
	}
	t.Cleanup(func() { s.Close() })

	creds := NewCredentialStore(s)
	cfg := &oauth2.Config{
		ClientID: "client",
		Endpoint: oauth2.Endpoint{TokenURL: srv.URL + "/token"},
	}
	return &RefreshAuthenticator{OAuth: cfg, Creds: creds}, creds
}

func TestRefreshAuthenticatorRedeemsToken(t *testing.T) {
	var grantType, refreshToken string
	r, creds := newRefreshFixture(t, func(w http.ResponseWriter, req *http.Request) {
		if err := req.ParseForm(); err != nil {
			t.Errorf("failed to parse token request: %v", err)
		}
		grantType = req.FormValue("grant_type")
		refreshToken = req.FormValue("refresh_token")
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"access_token":"renewed","refresh_token":"r2","expires_in":3600,"token_type":"Bearer"}`))
	})

	if err := creds.Save(&Credential{
		AccessToken:  "expired",
		ExpiresAt:    time.Now().Add(-time.Hour).UnixMilli(),
		RefreshToken: "r1",
	}); err != nil {
		t.Fatalf("failed to seed credential: %v", err)
	}

	cred, err := r.AcquireSilent(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if grantType != "refresh_token" || refreshToken != "r1" {
		t.Errorf("unexpected token request: grant_type=%q refresh_token=%q", grantType, refreshToken)
	}
	if cred.AccessToken != "renewed" {
		t.Errorf("expected renewed access token, got %q", cred.AccessToken)
	}
	if cred.RefreshToken != "r2" {
		t.Errorf("expected rotated refresh token, got %q", cred.RefreshToken)
	}
	if !cred.Valid(time.Now()) {
		t.Error("expected renewed credential to be fresh")
	}
}

func TestRefreshAuthenticatorKeepsTokenWhenNotRotated(t *testing.T) {
	r, creds := newRefreshFixture(t, func(w http.ResponseWriter, req *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"access_token":"renewed","expires_in":3600,"token_type":"Bearer"}`))
	})

	if err := creds.Save(&Credential{AccessToken: "old", RefreshToken: "r1"}); err != nil {
		t.Fatalf("failed to seed credential: %v", err)
	}

	cred, err := r.AcquireSilent(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cred.RefreshToken != "r1" {
		t.Errorf("expected previous refresh token kept, got %q", cred.RefreshToken)
	}
}

func TestRefreshAuthenticatorWithoutRefreshToken(t *testing.T) {
	r, creds := newRefreshFixture(t, func(w http.ResponseWriter, req *http.Request) {
		t.Error("token endpoint must not be called")
	})

	if _, err := r.AcquireSilent(context.Background()); err == nil {
		t.Error("expected an error with no stored credential")
	}

	if err := creds.Save(&Credential{AccessToken: "tok"}); err != nil {
		t.Fatalf("failed to seed credential: %v", err)
	}
	if _, err := r.AcquireSilent(context.Background()); err == nil {
		t.Error("expected an error with no refresh token")
	}
}
