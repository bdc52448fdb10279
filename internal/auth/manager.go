package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/oauth2"

	"github.com/planwell/calsync/internal/instrumentation"
	"github.com/planwell/calsync/internal/logging"
	"github.com/planwell/calsync/internal/provider"
)

// Mode describes how the session talks to the remote provider.
type Mode int

const (
	// ModeUnauthenticated means no usable credential exists.
	ModeUnauthenticated Mode = iota
	// ModeAuthenticated means remote calls carry a real token.
	ModeAuthenticated
	// ModeSimulated means remote calls are replaced by local fabrication
	// after authentication could not be established.
	ModeSimulated
)

func (m Mode) String() string {
	switch m {
	case ModeAuthenticated:
		return "authenticated"
	case ModeSimulated:
		return "simulated"
	default:
		return "unauthenticated"
	}
}

// ExpiredEvent is delivered to listeners when the session definitively
// loses its authentication.
type ExpiredEvent struct {
	Message   string
	Timestamp time.Time
}

// call tracks a single in-flight silent refresh shared by concurrent
// callers.
type call struct {
	done chan struct{}
	err  error
}

// Manager owns the session lifecycle: sign-in, credential persistence,
// silent refresh, and the transition into simulation when nothing else
// works. It satisfies provider.TokenSource.
type Manager struct {
	flow        AuthFlow
	creds       *CredentialStore
	oauth       *oauth2.Config
	silent      SilentAuthenticator
	interactive InteractiveAuthenticator
	logger      *slog.Logger
	metrics     *instrumentation.Metrics
	now         func() time.Time

	mu        sync.Mutex
	cred      *Credential
	mode      Mode
	inflight  *call
	listeners map[int]func(ExpiredEvent)
	nextID    int
}

// ManagerOption configures optional Manager collaborators.
type ManagerOption func(*Manager)

func WithLogger(logger *slog.Logger) ManagerOption {
	return func(m *Manager) { m.logger = logger }
}

func WithMetrics(metrics *instrumentation.Metrics) ManagerOption {
	return func(m *Manager) { m.metrics = metrics }
}

// WithSilentAuthenticator supplies the non-interactive refresher used by
// AcquireTokenSilently.
func WithSilentAuthenticator(s SilentAuthenticator) ManagerOption {
	return func(m *Manager) { m.silent = s }
}

// WithInteractiveAuthenticator supplies the popup fallback used when a
// silent refresh reports that user interaction is required.
func WithInteractiveAuthenticator(i InteractiveAuthenticator) ManagerOption {
	return func(m *Manager) { m.interactive = i }
}

func WithClock(now func() time.Time) ManagerOption {
	return func(m *Manager) { m.now = now }
}

func NewManager(flow AuthFlow, creds *CredentialStore, oauth *oauth2.Config, opts ...ManagerOption) *Manager {
	m := &Manager{
		flow:      flow,
		creds:     creds,
		oauth:     oauth,
		now:       time.Now,
		listeners: make(map[int]func(ExpiredEvent)),
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.logger == nil {
		m.logger = slog.Default()
	}
	m.logger = logging.WithComponent(m.logger, "auth")
	return m
}

// Mode returns the current session mode.
func (m *Manager) Mode() Mode {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.mode
}

// Simulated reports whether the session fabricates results locally.
func (m *Manager) Simulated() bool {
	return m.Mode() == ModeSimulated
}

// EnterSimulation switches the session into local fabrication.
func (m *Manager) EnterSimulation() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.mode != ModeSimulated {
		m.logger.Warn("entering simulation mode", logging.Mode(ModeSimulated.String()))
		m.mode = ModeSimulated
	}
}

// SignIn runs the configured interactive flow. It reports whether the
// session is usable afterwards; a pending external flow returns false
// without an error because completion happens via CompleteExternalAuth.
func (m *Manager) SignIn(ctx context.Context) (bool, error) {
	cred, err := m.flow.SignIn(ctx)
	switch {
	case err == nil:
		if err := m.adopt(cred); err != nil {
			return false, err
		}
		return true, nil
	case errors.Is(err, ErrExternalPending):
		return false, nil
	case errors.Is(err, ErrRedirectPending):
		// The redirect completes the session out of band; callers treat
		// the navigation itself as success.
		return true, nil
	default:
		m.logger.Error("sign-in failed", logging.Operation("sign_in"), logging.Err(err))
		m.EnterSimulation()
		return false, err
	}
}

// CompleteExternalAuth exchanges the authorization code produced by an
// external-browser flow and adopts the resulting credential.
func (m *Manager) CompleteExternalAuth(ctx context.Context, code string) error {
	tok, err := m.oauth.Exchange(ctx, code)
	if err != nil {
		return fmt.Errorf("failed to exchange authorization code: %w", err)
	}
	return m.adopt(&Credential{
		AccessToken:  tok.AccessToken,
		ExpiresAt:    tok.Expiry.UnixMilli(),
		RefreshToken: tok.RefreshToken,
	})
}

func (m *Manager) adopt(cred *Credential) error {
	if err := m.creds.Save(cred); err != nil {
		return err
	}
	m.mu.Lock()
	m.cred = cred
	m.mode = ModeAuthenticated
	m.mu.Unlock()
	m.logger.Info("session established", logging.Mode(ModeAuthenticated.String()))
	return nil
}

// ReloadToken restores a previously persisted credential. It reports
// whether a still-fresh credential was found.
func (m *Manager) ReloadToken() bool {
	cred, err := m.creds.Load()
	if err != nil {
		m.logger.Error("failed to reload credential", logging.Err(err))
		return false
	}
	if !cred.Valid(m.now()) {
		return false
	}
	m.mu.Lock()
	m.cred = cred
	m.mode = ModeAuthenticated
	m.mu.Unlock()
	return true
}

// SignOut discards the credential and returns the session to the
// unauthenticated mode.
func (m *Manager) SignOut() error {
	if err := m.creds.Clear(); err != nil {
		return err
	}
	m.mu.Lock()
	m.cred = nil
	m.mode = ModeUnauthenticated
	m.mu.Unlock()
	m.logger.Info("signed out", logging.Mode(ModeUnauthenticated.String()))
	return nil
}

// AccessToken returns a token fresh enough for a remote call, refreshing
// silently when the cached one is near expiry.
func (m *Manager) AccessToken(ctx context.Context) (string, error) {
	m.mu.Lock()
	if m.mode == ModeSimulated {
		m.mu.Unlock()
		return "", errors.New("session is in simulation mode")
	}
	cred := m.cred
	m.mu.Unlock()

	if cred.Valid(m.now()) {
		return cred.AccessToken, nil
	}

	if err := m.AcquireTokenSilently(ctx); err != nil {
		return "", err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.cred == nil {
		return "", errors.New("no credential after refresh")
	}
	return m.cred.AccessToken, nil
}

// AcquireTokenSilently refreshes the credential without user interaction.
// Concurrent callers join a single in-flight refresh and share its result.
func (m *Manager) AcquireTokenSilently(ctx context.Context) error {
	m.mu.Lock()
	if c := m.inflight; c != nil {
		m.mu.Unlock()
		select {
		case <-c.done:
			return c.err
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	c := &call{done: make(chan struct{})}
	m.inflight = c
	m.mu.Unlock()

	c.err = m.refresh(ctx)

	m.mu.Lock()
	m.inflight = nil
	m.mu.Unlock()
	close(c.done)
	return c.err
}

func (m *Manager) refresh(ctx context.Context) error {
	if m.silent == nil {
		m.metrics.RecordTokenRefresh(ctx, "failure")
		m.EnterSimulation()
		return errors.New("no silent authenticator configured")
	}

	cred, err := m.silent.AcquireSilent(ctx)
	if err == nil {
		m.metrics.RecordTokenRefresh(ctx, "success")
		return m.adopt(cred)
	}

	var interaction *provider.InteractionRequiredError
	if errors.As(err, &interaction) {
		// The provider demands consent; try exactly one interactive
		// recovery before giving up on the remote session.
		m.logger.Warn("silent refresh requires interaction", logging.Operation("refresh"))
		cred, popupErr := m.acquireInteractive(ctx)
		if popupErr == nil {
			m.metrics.RecordTokenRefresh(ctx, "interactive")
			return m.adopt(cred)
		}
		m.metrics.RecordTokenRefresh(ctx, "failure")
		m.EnterSimulation()
		return fmt.Errorf("failed interactive recovery: %w", popupErr)
	}

	// Anything other than an interaction demand means silent acquisition
	// cannot succeed; degrade immediately instead of retrying.
	m.metrics.RecordTokenRefresh(ctx, "failure")
	m.logger.Error("silent refresh failed", logging.Operation("refresh"), logging.Err(err))
	m.EnterSimulation()
	return fmt.Errorf("failed to refresh token: %w", err)
}

func (m *Manager) acquireInteractive(ctx context.Context) (*Credential, error) {
	if m.interactive == nil {
		return nil, errors.New("no interactive authenticator available")
	}
	return m.interactive.AcquirePopup(ctx)
}

// HandleAuthenticationFailure records a definitive loss of the session:
// the credential is dropped and every listener is told the session
// expired.
func (m *Manager) HandleAuthenticationFailure() {
	if err := m.creds.Clear(); err != nil {
		m.logger.Error("failed to clear credential", logging.Err(err))
	}

	m.mu.Lock()
	m.cred = nil
	m.mode = ModeUnauthenticated
	listeners := make([]func(ExpiredEvent), 0, len(m.listeners))
	for _, fn := range m.listeners {
		listeners = append(listeners, fn)
	}
	m.mu.Unlock()

	m.logger.Warn("authentication expired", logging.Mode(ModeUnauthenticated.String()))
	evt := ExpiredEvent{
		Message:   "Your session has expired. Please sign in again.",
		Timestamp: m.now(),
	}
	for _, fn := range listeners {
		fn(evt)
	}
}

// OnAuthExpired registers a listener for session expiry. The returned
// function removes it.
func (m *Manager) OnAuthExpired(fn func(ExpiredEvent)) func() {
	m.mu.Lock()
	id := m.nextID
	m.nextID++
	m.listeners[id] = fn
	m.mu.Unlock()

	return func() {
		m.mu.Lock()
		delete(m.listeners, id)
		m.mu.Unlock()
	}
}
