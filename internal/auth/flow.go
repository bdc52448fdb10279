package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"golang.org/x/oauth2"

	"github.com/planwell/calsync/internal/logging"
)

// Sentinel results a sign-in flow can end in without producing a
// credential. They signal that the flow continues outside the process.
var (
	// ErrPopupBlocked is returned by an interactive authenticator when
	// the environment refuses to open a popup window.
	ErrPopupBlocked = errors.New("auth popup blocked")

	// ErrExternalPending means the provider's consent page was opened in
	// an external browser and the flow completes later via
	// CompleteExternalAuth.
	ErrExternalPending = errors.New("external authentication pending")

	// ErrRedirectPending means the flow handed control to a full-page
	// redirect; the session resumes after the navigation returns.
	ErrRedirectPending = errors.New("redirect authentication pending")
)

// AuthFlow acquires a credential interactively. Implementations differ in
// how much of a UI the host environment offers.
type AuthFlow interface {
	SignIn(ctx context.Context) (*Credential, error)
}

// BrowserOpener opens a URL in the user's external browser.
type BrowserOpener interface {
	OpenExternal(url string) error
}

// Notifier surfaces a short message to the user outside the log stream.
type Notifier interface {
	Notify(title, message string)
}

// SilentAuthenticator attempts a non-interactive sign-in against an
// OS-level or previously established session.
type SilentAuthenticator interface {
	AcquireSilent(ctx context.Context) (*Credential, error)
}

// InteractiveAuthenticator drives browser-based consent directly.
type InteractiveAuthenticator interface {
	AcquirePopup(ctx context.Context) (*Credential, error)
	AcquireRedirect(ctx context.Context) (*Credential, error)
}

// ShellFlow signs in by trying an OS-backed silent session first and
// falling back to opening the provider's consent page in the external
// browser. The browser fallback cannot complete inline, so SignIn returns
// ErrExternalPending and the caller later exchanges the authorization
// code via Manager.CompleteExternalAuth.
type ShellFlow struct {
	OAuth    *oauth2.Config
	Opener   BrowserOpener
	Notifier Notifier
	SSO      SilentAuthenticator
	Logger   *slog.Logger
}

func (f *ShellFlow) SignIn(ctx context.Context) (*Credential, error) {
	logger := f.Logger
	if logger == nil {
		logger = slog.Default()
	}

	if f.SSO != nil {
		cred, err := f.SSO.AcquireSilent(ctx)
		if err == nil && cred != nil {
			logger.Info("signed in via silent session", logging.Operation("sign_in"))
			return cred, nil
		}
		if err != nil {
			logger.Debug("silent session unavailable",
				logging.Operation("sign_in"), logging.Err(err))
		}
	}

	state := uuid.NewString()
	authURL := f.OAuth.AuthCodeURL(state, oauth2.AccessTypeOffline)
	if err := f.Opener.OpenExternal(authURL); err != nil {
		return nil, fmt.Errorf("failed to open browser for sign-in: %w", err)
	}
	if f.Notifier != nil {
		f.Notifier.Notify("Sign in", "Complete the sign-in in your browser.")
	}
	logger.Info("opened external consent page", logging.Operation("sign_in"))
	return nil, ErrExternalPending
}

// WebFlow signs in through an in-environment popup, falling back to a
// full-page redirect when popups are blocked.
type WebFlow struct {
	Interactive InteractiveAuthenticator
	Logger      *slog.Logger
}

func (f *WebFlow) SignIn(ctx context.Context) (*Credential, error) {
	logger := f.Logger
	if logger == nil {
		logger = slog.Default()
	}

	cred, err := f.Interactive.AcquirePopup(ctx)
	if err == nil {
		return cred, nil
	}
	if !errors.Is(err, ErrPopupBlocked) {
		return nil, fmt.Errorf("failed to sign in via popup: %w", err)
	}

	logger.Info("popup blocked, switching to redirect", logging.Operation("sign_in"))
	if _, err := f.Interactive.AcquireRedirect(ctx); err != nil {
		return nil, fmt.Errorf("failed to start redirect sign-in: %w", err)
	}
	return nil, ErrRedirectPending
}
