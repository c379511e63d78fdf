package oauth

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/guildview/discord-oauth/fragment"
	"github.com/guildview/discord-oauth/instrumentation"
	"github.com/guildview/discord-oauth/storage"
)

// Config holds the session controller configuration
type Config struct {
	// ClientID is the public application client ID (required).
	// The implicit grant is a public-client flow; no secret exists.
	ClientID string

	// RedirectURL is the callback target the provider redirects to,
	// typically the application's own origin (required).
	RedirectURL string

	// Scopes are the permissions requested at authorization.
	// Defaults to the two scopes the dependent fetches need:
	// "identify" and "guilds".
	Scopes []string

	// Store is the ephemeral key/value store holding the token and the
	// state nonce. Defaults to an in-memory store; a browser host plugs
	// in its tab-scoped storage instead.
	Store storage.SessionStore

	// Navigator is the navigation-target collaborator through which
	// redirects are initiated and fragments read. Defaults to an
	// in-process navigator.
	Navigator fragment.Navigator

	// Logger for structured logging (optional, uses default if not provided)
	Logger *slog.Logger

	// HTTPClient is a custom HTTP client for provider API calls.
	// If not provided, a default client with RequestTimeout is used.
	HTTPClient *http.Client

	// RequestTimeout is the timeout for provider API calls (default: 30s).
	RequestTimeout time.Duration

	// EnableAuditLogging enables security audit logging. Auth events are
	// logged with sensitive data hashed.
	EnableAuditLogging bool

	// Instrumentation provides metrics and tracing. If nil, a disabled
	// (no-op) instance is created.
	Instrumentation *instrumentation.Instrumentation
}

// validate checks the required fields.
func (c *Config) validate() error {
	if c.ClientID == "" {
		return NewFlowError(ErrorCodeInvalidConfig, "client ID is required")
	}
	if c.RedirectURL == "" {
		return NewFlowError(ErrorCodeInvalidConfig, "redirect URL is required")
	}
	return nil
}
