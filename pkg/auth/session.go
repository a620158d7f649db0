// Package auth owns the OAuth credential lifecycle and the single
// session state of a running client.
package auth

import (
	"context"
	"fmt"
	"net/http"
	"sync"

	"github.com/sheetdash/sheetdash/internal/utils"
	"github.com/sheetdash/sheetdash/pkg/faults"
	"golang.org/x/oauth2"
)

// State is the session state machine.
type State int

const (
	Unauthenticated State = iota
	Authenticating
	Authenticated
)

func (s State) String() string {
	switch s {
	case Authenticating:
		return "authenticating"
	case Authenticated:
		return "authenticated"
	default:
		return "unauthenticated"
	}
}

// Scopes requested from the delegated-authorization endpoint: read-only
// spreadsheet access plus mail send for status emails.
var oauthScopes = []string{
	"https://www.googleapis.com/auth/spreadsheets.readonly",
	"https://www.googleapis.com/auth/gmail.send",
}

var googleEndpoint = oauth2.Endpoint{
	AuthURL:  "https://accounts.google.com/o/oauth2/auth",
	TokenURL: "https://oauth2.googleapis.com/token",
}

// Config is the OAuth client configuration.
type Config struct {
	ClientID     string
	ClientSecret string
	RedirectURI  string
}

// SessionManager owns the authorization URL, the code exchange step and
// the authenticated/unauthenticated state. One instance exists per
// running client; every remote fetch is gated through RequireClient.
type SessionManager struct {
	conf  *oauth2.Config
	store *CredentialStore

	mu    sync.Mutex
	state State
	creds *Credentials
}

func NewSessionManager(cfg Config, store *CredentialStore) *SessionManager {
	return &SessionManager{
		conf: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURI,
			Scopes:       oauthScopes,
			Endpoint:     googleEndpoint,
		},
		store: store,
	}
}

// AuthURL builds the delegated-authorization URL. Pure: no network call.
func (m *SessionManager) AuthURL() (string, error) {
	if m.conf.ClientID == "" {
		return "", fmt.Errorf("%w: empty client id", ErrInvalidConfig)
	}
	return m.conf.AuthCodeURL("",
		oauth2.AccessTypeOffline,
		oauth2.SetAuthURLParam("prompt", "consent"),
	), nil
}

// Authenticate exchanges a one-time authorization code for credentials.
// On success the session becomes Authenticated and the credentials are
// persisted; on failure it returns to Unauthenticated.
func (m *SessionManager) Authenticate(ctx context.Context, code string) (Credentials, error) {
	m.mu.Lock()
	m.state = Authenticating
	m.mu.Unlock()

	tok, err := m.conf.Exchange(ctx, code)
	if err != nil {
		m.mu.Lock()
		m.state = Unauthenticated
		m.creds = nil
		m.mu.Unlock()
		return Credentials{}, fmt.Errorf("%w: %s", ErrExchangeFailed, faults.Normalize("", err))
	}

	creds := credentialsFromToken(tok)
	if err := m.store.Save(ctx, creds); err != nil {
		// The in-memory session is still usable; it just won't survive restart.
		utils.Log.Warn("Could not persist credentials: ", err)
	}

	m.mu.Lock()
	m.creds = &creds
	m.state = Authenticated
	m.mu.Unlock()

	utils.Log.Debug("Session authenticated")
	return creds, nil
}

// Restore adopts stored credentials if present and valid. Idempotent.
func (m *SessionManager) Restore(ctx context.Context) (bool, error) {
	m.mu.Lock()
	if m.state == Authenticated {
		m.mu.Unlock()
		return true, nil
	}
	m.mu.Unlock()

	creds, ok, err := m.store.Load(ctx)
	if err != nil {
		return false, err
	}
	if !ok {
		return false, nil
	}

	m.mu.Lock()
	m.creds = &creds
	m.state = Authenticated
	m.mu.Unlock()

	utils.Log.Debug("Session restored from stored credentials")
	return true, nil
}

// SignOut clears the credential record, stored and in-memory. Idempotent.
func (m *SessionManager) SignOut(ctx context.Context) error {
	m.mu.Lock()
	m.state = Unauthenticated
	m.creds = nil
	m.mu.Unlock()
	return m.store.Clear(ctx)
}

// Invalidate has the same effect as SignOut but is invoked internally
// when a failure indicates a revoked or expired grant.
func (m *SessionManager) Invalidate(ctx context.Context) {
	utils.Log.Warn("Invalidating session after a session-fatal failure")
	if err := m.SignOut(ctx); err != nil {
		utils.Log.Warn("Could not clear stored credentials: ", err)
	}
}

// State returns the current session state.
func (m *SessionManager) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Authenticated reports whether the session is active.
func (m *SessionManager) Authenticated() bool {
	return m.State() == Authenticated
}

// RequireClient returns an HTTP client carrying the session credentials,
// or ErrNotAuthenticated when no active session exists. The client
// refreshes the access token transparently when a refresh token is held.
func (m *SessionManager) RequireClient(ctx context.Context) (*http.Client, error) {
	m.mu.Lock()
	if m.state != Authenticated || m.creds == nil {
		m.mu.Unlock()
		return nil, ErrNotAuthenticated
	}
	creds := *m.creds
	m.mu.Unlock()
	return m.conf.Client(ctx, creds.Token()), nil
}
