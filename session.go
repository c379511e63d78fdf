// Package oauth implements the client side of an OAuth 2.0 implicit-grant
// flow against Discord: login initiation, redirect-result validation with
// anti-forgery state checking, token lifecycle, and the teardown rules for
// the dependent authenticated fetches.
//
// The flow is a state machine: LoggedOut -> AwaitingRedirect -> LoggedIn,
// with an implicit edge back to LoggedOut on any authentication failure.
// The token never leaves the session store except as an Authorization
// header on the two resource fetches.
package oauth

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/oauth2"

	"github.com/guildview/discord-oauth/discord"
	"github.com/guildview/discord-oauth/fragment"
	"github.com/guildview/discord-oauth/instrumentation"
	"github.com/guildview/discord-oauth/security"
	"github.com/guildview/discord-oauth/storage"
	memorystore "github.com/guildview/discord-oauth/storage/memory"
)

// SessionState is the controller's position in the login state machine.
type SessionState int

const (
	// StateLoggedOut means no token is held and no login is in flight.
	StateLoggedOut SessionState = iota

	// StateAwaitingRedirect means a login attempt has navigated away and
	// the controller is waiting for the provider callback.
	StateAwaitingRedirect

	// StateLoggedIn means a validated token is held.
	StateLoggedIn
)

// String returns the state name.
func (s SessionState) String() string {
	switch s {
	case StateLoggedOut:
		return "logged_out"
	case StateAwaitingRedirect:
		return "awaiting_redirect"
	case StateLoggedIn:
		return "logged_in"
	default:
		return fmt.Sprintf("unknown(%d)", int(s))
	}
}

// Session owns the implicit-grant flow: it is the only writer to the
// session store, and every change to the held token is announced to
// subscribers so dependent resources can refetch or clear themselves.
type Session struct {
	clientID string
	provider *discord.Provider
	store    storage.SessionStore
	nav      fragment.Navigator
	logger   *slog.Logger
	auditor  *security.Auditor
	metrics  *instrumentation.Metrics
	tracer   trace.Tracer

	mu          sync.Mutex
	state       SessionState
	subscribers []func(token string)
}

// NewSession creates a session controller. Optional collaborators default
// to in-memory implementations; a browser host injects its own store and
// navigator. The initial state is recovered from the store, so a reloaded
// host picks up an existing session rather than starting a new one.
func NewSession(cfg *Config) (*Session, error) {
	if cfg == nil {
		cfg = &Config{}
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	store := cfg.Store
	if store == nil {
		store = memorystore.NewWithLogger(logger)
	}

	nav := cfg.Navigator
	if nav == nil {
		nav = fragment.NewMemory()
	}

	inst := cfg.Instrumentation
	if inst == nil {
		var err error
		inst, err = instrumentation.New(instrumentation.Config{Enabled: false})
		if err != nil {
			return nil, fmt.Errorf("failed to create instrumentation: %w", err)
		}
	}

	provider, err := discord.NewProvider(&discord.Config{
		ClientID:       cfg.ClientID,
		RedirectURL:    cfg.RedirectURL,
		Scopes:         cfg.Scopes,
		HTTPClient:     cfg.HTTPClient,
		RequestTimeout: cfg.RequestTimeout,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create provider: %w", err)
	}
	provider.SetMetrics(inst.Metrics())

	s := &Session{
		clientID: cfg.ClientID,
		provider: provider,
		store:    store,
		nav:      nav,
		logger:   logger,
		auditor:  security.NewAuditor(logger, cfg.EnableAuditLogging),
		metrics:  inst.Metrics(),
		tracer:   inst.Tracer("session"),
	}
	s.state = s.recoverState(context.Background())
	return s, nil
}

// recoverState derives the initial machine state from whatever the store
// still holds: a token means a prior session survived the host reload, a
// lone nonce means a round-trip is still in flight.
func (s *Session) recoverState(ctx context.Context) SessionState {
	if token, err := s.store.Get(ctx, TokenKey); err == nil && token != "" {
		return StateLoggedIn
	}
	if nonce, err := s.store.Get(ctx, StateKey); err == nil && nonce != "" {
		return StateAwaitingRedirect
	}
	return StateLoggedOut
}

// Provider returns the Discord provider, for wiring resource fetches.
func (s *Session) Provider() *discord.Provider {
	return s.provider
}

// State returns the controller's current state.
func (s *Session) State() SessionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Subscribe registers a callback invoked on every token change: with the
// token when a redirect validates, with "" on logout or teardown.
// Components interested in authenticated resources subscribe and re-run
// their fetch (or clear their data) when called.
func (s *Session) Subscribe(fn func(token string)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.subscribers = append(s.subscribers, fn)
}

// notify announces a token change to all subscribers. Callbacks run
// outside the session lock so they may call back into the session.
func (s *Session) notify(token string) {
	s.mu.Lock()
	subs := make([]func(string), len(s.subscribers))
	copy(subs, s.subscribers)
	s.mu.Unlock()
	for _, fn := range subs {
		fn(token)
	}
}

// StartLogin begins a login attempt: it generates a fresh anti-forgery
// nonce, stores it, and navigates to the provider's authorization URL.
// Calling it while a previous attempt is awaiting its redirect restarts
// the attempt; the prior nonce is discarded and can never validate.
func (s *Session) StartLogin(ctx context.Context) error {
	ctx, span := s.tracer.Start(ctx, "session.start_login")
	defer span.End()

	nonce := security.GenerateState()
	if err := s.store.Set(ctx, StateKey, nonce); err != nil {
		instrumentation.RecordError(span, err)
		return fmt.Errorf("failed to store state nonce: %w", err)
	}

	s.mu.Lock()
	s.state = StateAwaitingRedirect
	s.mu.Unlock()

	s.metrics.LoginStarted.Add(ctx, 1)
	s.auditor.LogLoginStarted(s.clientID, s.provider.Scope())
	s.logger.Debug("Starting login attempt",
		"client_id", s.clientID,
		"scope", s.provider.Scope())

	s.nav.Navigate(s.provider.AuthorizationURL(nonce))
	instrumentation.SetSpanSuccess(span)
	return nil
}

// HandleRedirect validates the current navigation fragment as a provider
// callback. Call it whenever the fragment changes.
//
// It returns (true, nil) when all five expected parameters are present and
// the echoed state matches the stored nonce: the token is committed, the
// nonce consumed, and the fragment cleared so the credential cannot leak
// via history or copy/paste.
//
// A structurally complete callback with a mismatched state returns
// ErrStateMismatch: the token is NOT committed, the stored token (if any)
// is untouched, and the stale nonce is cleared - a superseded nonce can
// never validate, so keeping it would only widen the replay window. The
// fragment is left in place for diagnosis.
//
// A missing or partial fragment is not a token delivery: no state changes.
// It returns ErrMissingRedirectParams when a fragment is present but
// incomplete, and (false, nil) when there is no fragment at all.
func (s *Session) HandleRedirect(ctx context.Context) (bool, error) {
	ctx, span := s.tracer.Start(ctx, "session.handle_redirect")
	defer span.End()

	frag := s.nav.Fragment()
	if frag == "" {
		return false, nil
	}

	result := ParseRedirectResult(fragment.Parse(frag))
	if !result.Complete() {
		s.metrics.MissingParams.Add(ctx, 1)
		s.logger.Debug("Ignoring redirect with missing parameters")
		instrumentation.SetSpanError(span, "missing redirect parameters")
		return false, ErrMissingRedirectParams
	}

	nonce, err := s.store.Get(ctx, StateKey)
	if err != nil {
		instrumentation.RecordError(span, err)
		return false, fmt.Errorf("failed to read state nonce: %w", err)
	}

	if !security.StateEqual(result.State, nonce) {
		s.metrics.StateMismatch.Add(ctx, 1)
		s.auditor.LogStateMismatch(s.clientID)
		s.logger.Warn("Redirect state does not match stored nonce",
			"nonce_present", nonce != "")
		// Consume the stale nonce; only a fresh StartLogin can produce a
		// callback that validates.
		if err := s.store.Delete(ctx, StateKey); err != nil {
			s.logger.Warn("Failed to clear stale state nonce", "error", err)
		}
		instrumentation.SetSpanAttributes(span, attribute.Bool(instrumentation.AttrStateValid, false))
		instrumentation.SetSpanError(span, "state mismatch")
		return false, ErrStateMismatch
	}

	if err := s.commit(ctx, result); err != nil {
		instrumentation.RecordError(span, err)
		return false, err
	}

	instrumentation.SetSpanAttributes(span,
		attribute.Bool(instrumentation.AttrStateValid, true),
		attribute.String(instrumentation.AttrTokenType, result.TokenType),
		attribute.String(instrumentation.AttrExpiresIn, result.ExpiresIn),
	)
	instrumentation.SetSpanSuccess(span)
	return true, nil
}

// commit writes a validated token into the store, consumes the nonce, and
// clears the fragment.
func (s *Session) commit(ctx context.Context, result RedirectResult) error {
	if err := s.store.Set(ctx, TokenKey, result.AccessToken); err != nil {
		return fmt.Errorf("failed to store token: %w", err)
	}
	if secs, err := strconv.ParseInt(result.ExpiresIn, 10, 64); err == nil && secs > 0 {
		expiry := time.Now().Add(time.Duration(secs) * time.Second).Unix()
		if err := s.store.Set(ctx, TokenExpiryKey, strconv.FormatInt(expiry, 10)); err != nil {
			return fmt.Errorf("failed to store token expiry: %w", err)
		}
	}
	if err := s.store.Delete(ctx, StateKey); err != nil {
		return fmt.Errorf("failed to consume state nonce: %w", err)
	}
	s.nav.ClearFragment()

	s.mu.Lock()
	s.state = StateLoggedIn
	s.mu.Unlock()

	s.metrics.RedirectValidated.Add(ctx, 1)
	s.auditor.LogSessionEstablished(s.clientID, result.AccessToken)
	s.logger.Info("Session established",
		"token_type", result.TokenType,
		"scope", result.Scope)

	s.notify(result.AccessToken)
	return nil
}

// Token returns the held bearer token, or nil when none is held or the
// held token is past its expiry. The expiry check treats an expired token
// as absent rather than as an error; the guard contract is no-op, not
// failure.
func (s *Session) Token(ctx context.Context) (*oauth2.Token, error) {
	access, err := s.store.Get(ctx, TokenKey)
	if err != nil {
		return nil, fmt.Errorf("failed to read token: %w", err)
	}
	if access == "" {
		return nil, nil
	}

	var expiry time.Time
	if v, err := s.store.Get(ctx, TokenExpiryKey); err == nil && v != "" {
		if unix, err := strconv.ParseInt(v, 10, 64); err == nil {
			expiry = time.Unix(unix, 0)
		}
	}
	if security.IsTokenExpired(expiry) {
		return nil, nil
	}

	return &oauth2.Token{
		AccessToken: access,
		TokenType:   "Bearer",
		Expiry:      expiry,
	}, nil
}

// Logout clears the token, the nonce, and the fragment, and announces the
// teardown to subscribers so their cached data is cleared. Idempotent and
// valid from any state.
func (s *Session) Logout(ctx context.Context) error {
	ctx, span := s.tracer.Start(ctx, "session.logout")
	defer span.End()

	if err := s.clearSession(ctx); err != nil {
		instrumentation.RecordError(span, err)
		return err
	}

	s.metrics.Logout.Add(ctx, 1)
	s.logger.Debug("Logged out")
	s.notify("")
	instrumentation.SetSpanSuccess(span)
	return nil
}

// authFailure tears the session down after an authenticated fetch failed.
// Any failure - transport or non-2xx - revokes the whole session: partial
// success states are transient, never durable. It logs and never panics;
// the user can always retry with a fresh StartLogin.
func (s *Session) authFailure(ctx context.Context, resource string, cause error) {
	s.metrics.SessionRevoked.Add(ctx, 1)
	s.auditor.LogFetchFailure(s.clientID, resource, cause.Error())
	s.auditor.LogSessionRevoked(s.clientID, "authenticated fetch failure")
	s.logger.Warn("Authenticated fetch failed, revoking session",
		"resource", resource,
		"error", cause)

	if err := s.clearSession(ctx); err != nil {
		s.logger.Error("Failed to clear session during teardown", "error", err)
	}
	s.notify("")
}

// clearSession removes every persisted session value and the fragment,
// and moves the machine to LoggedOut.
func (s *Session) clearSession(ctx context.Context) error {
	if err := s.store.Delete(ctx, TokenKey); err != nil {
		return fmt.Errorf("failed to clear token: %w", err)
	}
	if err := s.store.Delete(ctx, TokenExpiryKey); err != nil {
		return fmt.Errorf("failed to clear token expiry: %w", err)
	}
	if err := s.store.Delete(ctx, StateKey); err != nil {
		return fmt.Errorf("failed to clear state nonce: %w", err)
	}
	s.nav.ClearFragment()

	s.mu.Lock()
	s.state = StateLoggedOut
	s.mu.Unlock()
	return nil
}
