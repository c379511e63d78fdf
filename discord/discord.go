// Package discord implements the Discord side of the implicit-grant flow:
// authorization URL construction and the two authenticated read endpoints
// the session depends on (current user, current user's guilds).
package discord

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/endpoints"
	"golang.org/x/time/rate"

	"github.com/guildview/discord-oauth/instrumentation"
	"github.com/guildview/discord-oauth/internal/util"
)

// providerName is the name returned by Provider.Name().
const providerName = "discord"

// Discord API endpoints
const (
	userEndpoint   = "https://discord.com/api/v10/users/@me"
	guildsEndpoint = "https://discord.com/api/v10/users/@me/guilds"
)

// DefaultScopes are the two permissions the session needs: reading the
// user's identity and listing their guilds.
var DefaultScopes = []string{"identify", "guilds"}

// Provider implements Discord authorization and resource calls.
type Provider struct {
	*oauth2.Config
	httpClient     *http.Client
	requestTimeout time.Duration
	limiter        *rate.Limiter
	metrics        *instrumentation.Metrics
}

// Config holds Discord OAuth configuration.
type Config struct {
	// ClientID is the public application client ID (required).
	// The implicit grant is a public-client flow; there is no secret.
	ClientID string

	// RedirectURL is where Discord redirects after authorization,
	// typically the application's own origin.
	RedirectURL string

	// Scopes are optional custom scopes (defaults to DefaultScopes).
	Scopes []string

	// HTTPClient is an optional custom HTTP client.
	HTTPClient *http.Client

	// RequestTimeout is the timeout for Discord API calls (default: 30s).
	RequestTimeout time.Duration

	// APIRate and APIBurst shape the client-side limiter ahead of every
	// API call. Discord throttles per token; staying under its limits
	// avoids 429 responses that would tear the session down.
	// Defaults: 10 requests/second, burst 10.
	APIRate  float64
	APIBurst int
}

// NewProvider creates a new Discord provider.
func NewProvider(cfg *Config) (*Provider, error) {
	if cfg.ClientID == "" {
		return nil, fmt.Errorf("client ID is required")
	}
	if cfg.RedirectURL == "" {
		return nil, fmt.Errorf("redirect URL is required")
	}

	scopes := cfg.Scopes
	if len(scopes) == 0 {
		scopes = DefaultScopes
	}
	scopesCopy := make([]string, len(scopes))
	copy(scopesCopy, scopes)
	scopes = scopesCopy

	requestTimeout := cfg.RequestTimeout
	if requestTimeout == 0 {
		requestTimeout = 30 * time.Second
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{
			Timeout: requestTimeout,
		}
	}

	apiRate := cfg.APIRate
	if apiRate <= 0 {
		apiRate = 10
	}
	apiBurst := cfg.APIBurst
	if apiBurst <= 0 {
		apiBurst = 10
	}

	return &Provider{
		Config: &oauth2.Config{
			ClientID:    cfg.ClientID,
			RedirectURL: cfg.RedirectURL,
			Scopes:      scopes,
			Endpoint:    endpoints.Discord,
		},
		httpClient:     httpClient,
		requestTimeout: requestTimeout,
		limiter:        rate.NewLimiter(rate.Limit(apiRate), apiBurst),
	}, nil
}

// SetMetrics attaches metric instruments for API call counts and latency.
// Without it the provider runs unmetered.
func (p *Provider) SetMetrics(m *instrumentation.Metrics) {
	p.metrics = m
}

// Name returns the provider name.
func (p *Provider) Name() string {
	return providerName
}

// Scope returns the space-joined scope list sent to the authorize endpoint.
func (p *Provider) Scope() string {
	return util.JoinScopes(p.Scopes)
}

// AuthorizationURL generates the implicit-grant authorization URL.
// The token comes back directly in the redirect fragment
// (response_type=token, no code exchange), and prompt=consent forces an
// explicit user consent screen on every attempt so a stale silent
// authorization can never be replayed.
func (p *Provider) AuthorizationURL(state string) string {
	return p.AuthCodeURL(state,
		oauth2.SetAuthURLParam("response_type", "token"),
		oauth2.SetAuthURLParam("prompt", "consent"),
	)
}

// ensureContextTimeout ensures the context has a deadline, adding one if
// needed. If the context already has a deadline, returns the original
// context with a no-op cancel.
func (p *Provider) ensureContextTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if _, hasDeadline := ctx.Deadline(); hasDeadline {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, p.requestTimeout)
}

// get issues an authenticated GET against a Discord API endpoint and
// decodes the JSON response into out.
func (p *Provider) get(ctx context.Context, endpoint, accessToken string, out any) error {
	ctx, cancel := p.ensureContextTimeout(ctx)
	defer cancel()

	if err := p.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limiter wait: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "GET", endpoint, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := p.httpClient.Do(req)
	if p.metrics != nil {
		p.metrics.ProviderAPICallsTotal.Add(ctx, 1)
		p.metrics.ProviderAPIDuration.Record(ctx, float64(time.Since(start).Milliseconds()))
	}
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("request to %s failed with status %d", endpoint, resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}

	return nil
}

// CurrentUser fetches the authenticated user's profile.
// Requires the "identify" scope.
func (p *Provider) CurrentUser(ctx context.Context, accessToken string) (*User, error) {
	var user User
	if err := p.get(ctx, userEndpoint, accessToken, &user); err != nil {
		return nil, fmt.Errorf("failed to fetch user: %w", err)
	}
	return &user, nil
}

// CurrentUserGuilds fetches the guilds the authenticated user belongs to.
// Requires the "guilds" scope. The order Discord returns is not meaningful.
func (p *Provider) CurrentUserGuilds(ctx context.Context, accessToken string) ([]Guild, error) {
	var guilds []Guild
	if err := p.get(ctx, guildsEndpoint, accessToken, &guilds); err != nil {
		return nil, fmt.Errorf("failed to fetch guilds: %w", err)
	}
	return guilds, nil
}
