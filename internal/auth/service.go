// Package auth owns the upstream OAuth2 Authorization-Code-with-PKCE flow and
// the dashboard's own session tokens. The upstream bearer credential never
// leaves the server; the browser only ever holds a session JWT issued after a
// successful code exchange.
package auth

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/oauth2"

	"github.com/marcus/quote-desk/internal/config"
	"github.com/marcus/quote-desk/internal/credstore"
)

// ErrStateMismatch means the callback carried a state with no stored
// verifier: either a replay, an expired attempt, or a second tab.
var ErrStateMismatch = errors.New("no verifier stored for state")

// ReauthRequiredError signals that the caller must send the operator through
// the authorization redirect. Any upstream call may end this way; callers
// treat it as "this request produced a redirect, not a value".
type ReauthRequiredError struct {
	LoginURL string
}

func (e *ReauthRequiredError) Error() string {
	return "authentication required"
}

// IsReauthRequired reports whether err is (or wraps) a ReauthRequiredError.
func IsReauthRequired(err error) bool {
	var re *ReauthRequiredError
	return errors.As(err, &re)
}

// Service drives the PKCE flow and holds the in-memory authorization header.
// One instance per process; the credential store is the durable side of it.
type Service struct {
	store *credstore.Store
	oauth *oauth2.Config

	appID    string
	portalID string

	mu     sync.RWMutex
	header string // cached Authorization header value
}

func NewService(store *credstore.Store, cfg config.Config) *Service {
	return &Service{
		store: store,
		oauth: &oauth2.Config{
			ClientID:    cfg.ClientID,
			RedirectURL: cfg.RedirectURL,
			Endpoint: oauth2.Endpoint{
				AuthURL:  cfg.AuthorizeURL,
				TokenURL: cfg.TokenURL,
			},
		},
		appID:    cfg.AppID,
		portalID: cfg.PortalID,
	}
}

// EnsureAuthenticated returns the Authorization header value for upstream
// calls. It is idempotent: the cached header wins, then the durable slot.
// With neither present it returns a ReauthRequiredError carrying a fresh
// authorization URL, which is the server-side equivalent of redirecting the
// browser and never returning.
func (s *Service) EnsureAuthenticated(ctx context.Context) (string, error) {
	s.mu.RLock()
	header := s.header
	s.mu.RUnlock()
	if header != "" {
		return header, nil
	}

	cred, err := s.store.LoadCredential()
	if err != nil {
		return "", fmt.Errorf("reading credential slot: %w", err)
	}
	if cred != nil {
		header = cred.AuthorizationValue()
		s.mu.Lock()
		s.header = header
		s.mu.Unlock()
		return header, nil
	}

	loginURL, err := s.BeginLogin(false)
	if err != nil {
		return "", err
	}
	return "", &ReauthRequiredError{LoginURL: loginURL}
}

// BeginLogin synthesizes a fresh verifier/challenge/state triple, persists
// the verifier keyed by state, and returns the upstream authorization URL.
// force adds a consent prompt so the upstream re-confirms the grant.
func (s *Service) BeginLogin(force bool) (string, error) {
	verifier := oauth2.GenerateVerifier()
	state := uuid.NewString()

	if err := s.store.PutVerifier(state, verifier); err != nil {
		return "", fmt.Errorf("persisting verifier: %w", err)
	}

	opts := []oauth2.AuthCodeOption{
		oauth2.S256ChallengeOption(verifier),
		oauth2.SetAuthURLParam("app_id", s.appID),
	}
	if s.portalID != "" {
		opts = append(opts, oauth2.SetAuthURLParam("portal_id", s.portalID))
	}
	if force {
		opts = append(opts, oauth2.SetAuthURLParam("prompt", "consent"))
	}

	return s.oauth.AuthCodeURL(state, opts...), nil
}

// CompleteLogin exchanges an authorization code for a bearer token. The
// verifier stored for state is consumed whether or not the exchange succeeds,
// so a failed exchange falls back to a fresh login rather than looping on a
// dead verifier.
func (s *Service) CompleteLogin(ctx context.Context, code, state string) error {
	verifier, ok, err := s.store.TakeVerifier(state)
	if err != nil {
		return fmt.Errorf("reading verifier slot: %w", err)
	}
	if !ok {
		return ErrStateMismatch
	}

	tok, err := s.oauth.Exchange(ctx, code, oauth2.VerifierOption(verifier))
	if err != nil {
		s.Invalidate()
		return fmt.Errorf("code exchange rejected: %w", err)
	}

	cred := credstore.Credential{AccessToken: tok.AccessToken, TokenType: tok.TokenType}
	if err := s.store.SaveCredential(cred); err != nil {
		return fmt.Errorf("persisting credential: %w", err)
	}

	s.mu.Lock()
	s.header = cred.AuthorizationValue()
	s.mu.Unlock()
	return nil
}

// Invalidate drops the in-memory header and the durable credential. Called on
// upstream 401 responses and on failed exchanges.
func (s *Service) Invalidate() {
	s.mu.Lock()
	s.header = ""
	s.mu.Unlock()
	if err := s.store.ClearCredential(); err != nil {
		log.Printf("[auth] clearing credential: %v", err)
	}
}

// Logout clears all credential and verifier state, then returns a forced
// re-confirmation login URL.
func (s *Service) Logout() (string, error) {
	s.Invalidate()
	if err := s.store.ClearVerifiers(); err != nil {
		log.Printf("[auth] clearing verifiers: %v", err)
	}
	return s.BeginLogin(true)
}
