package auth

import (
	"context"
	"errors"
	"strings"
	"testing"

	"golang.org/x/oauth2"
)

type recordingOpener struct {
	urls []string
	err  error
}

func (o *recordingOpener) OpenExternal(url string) error {
	o.urls = append(o.urls, url)
	return o.err
}

func testOAuthConfig() *oauth2.Config {
	return &oauth2.Config{
		ClientID:    "client",
		RedirectURL: "http://localhost:53682/callback",
		Endpoint: oauth2.Endpoint{
			AuthURL:  "https://login.example.com/authorize",
			TokenURL: "https://login.example.com/token",
		},
		Scopes: []string{"Calendars.ReadWrite"},
	}
}

func TestShellFlowPrefersSilentSession(t *testing.T) {
	opener := &recordingOpener{}
	flow := &ShellFlow{
		OAuth:  testOAuthConfig(),
		Opener: opener,
		SSO:    &fakeSilent{cred: freshCred()},
	}

	cred, err := flow.SignIn(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cred == nil || cred.AccessToken != "fresh" {
		t.Errorf("expected silent credential, got %+v", cred)
	}
	if len(opener.urls) != 0 {
		t.Errorf("expected no browser to open, got %v", opener.urls)
	}
}

func TestShellFlowFallsBackToExternalBrowser(t *testing.T) {
	opener := &recordingOpener{}
	flow := &ShellFlow{
		OAuth:  testOAuthConfig(),
		Opener: opener,
		SSO:    &fakeSilent{err: errors.New("no OS session")},
	}

	cred, err := flow.SignIn(context.Background())
	if !errors.Is(err, ErrExternalPending) {
		t.Fatalf("expected ErrExternalPending, got %v", err)
	}
	if cred != nil {
		t.Errorf("expected no credential yet, got %+v", cred)
	}
	if len(opener.urls) != 1 {
		t.Fatalf("expected one browser launch, got %d", len(opener.urls))
	}
	if !strings.HasPrefix(opener.urls[0], "https://login.example.com/authorize?") {
		t.Errorf("unexpected consent URL %q", opener.urls[0])
	}
	if !strings.Contains(opener.urls[0], "state=") {
		t.Errorf("consent URL missing state parameter: %q", opener.urls[0])
	}
}

func TestShellFlowOpenerFailure(t *testing.T) {
	opener := &recordingOpener{err: errors.New("no browser installed")}
	flow := &ShellFlow{OAuth: testOAuthConfig(), Opener: opener}

	_, err := flow.SignIn(context.Background())
	if err == nil || errors.Is(err, ErrExternalPending) {
		t.Fatalf("expected a hard error, got %v", err)
	}
}

func TestWebFlowPopup(t *testing.T) {
	popup := &fakeInteractive{cred: freshCred()}
	flow := &WebFlow{Interactive: popup}

	cred, err := flow.SignIn(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cred == nil || cred.AccessToken != "fresh" {
		t.Errorf("expected popup credential, got %+v", cred)
	}
}

func TestWebFlowPopupBlockedFallsBackToRedirect(t *testing.T) {
	blocked := &fakeInteractive{popupErr: ErrPopupBlocked}
	flow := &WebFlow{Interactive: blocked}

	cred, err := flow.SignIn(context.Background())
	if !errors.Is(err, ErrRedirectPending) {
		t.Fatalf("expected ErrRedirectPending, got %v", err)
	}
	if cred != nil {
		t.Errorf("expected no credential from redirect handoff, got %+v", cred)
	}
}
