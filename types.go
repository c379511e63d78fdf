package oauth

import (
	"github.com/guildview/discord-oauth/fragment"
)

// Session store keys. Both values are plain strings; the store's
// session-scoped lifetime is what bounds them, not any logic here.
const (
	// TokenKey is the store key holding the bearer access token.
	TokenKey = "discord_token"

	// TokenExpiryKey is the store key holding the token's absolute expiry
	// as unix seconds, derived from the redirect's expires_in.
	TokenExpiryKey = "discord_token_expiry"

	// StateKey is the store key holding the anti-forgery state nonce.
	// Non-empty exactly while a login round-trip is in flight.
	StateKey = "oauth_state"
)

// RedirectResult holds the raw parameters extracted from a provider
// redirect fragment. It is transient: it exists for the duration of one
// validation pass and is never persisted.
type RedirectResult struct {
	AccessToken string
	TokenType   string
	ExpiresIn   string
	Scope       string
	State       string
}

// ParseRedirectResult extracts the implicit-grant parameters from parsed
// fragment values. Missing keys yield empty fields; fragment.Parse has
// already dropped present-but-empty values.
func ParseRedirectResult(values fragment.Values) RedirectResult {
	return RedirectResult{
		AccessToken: values.Get("access_token"),
		TokenType:   values.Get("token_type"),
		ExpiresIn:   values.Get("expires_in"),
		Scope:       values.Get("scope"),
		State:       values.Get("state"),
	}
}

// Complete reports whether all five expected parameters are present and
// non-empty. Anything less and the redirect is not a token delivery.
func (r RedirectResult) Complete() bool {
	return r.AccessToken != "" &&
		r.TokenType != "" &&
		r.ExpiresIn != "" &&
		r.Scope != "" &&
		r.State != ""
}
