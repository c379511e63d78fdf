package oauth

import (
	"context"
	"errors"
	"net/url"
	"strings"
	"testing"

	"github.com/guildview/discord-oauth/fragment"
	"github.com/guildview/discord-oauth/internal/testutil"
	"github.com/guildview/discord-oauth/storage/memory"
)

const testClientID = "123456789012345678"

// newTestSession builds a session wired to an in-memory store and
// navigator, returning all three for direct inspection.
func newTestSession(t *testing.T) (*Session, *memory.Store, *fragment.Memory) {
	t.Helper()
	store := memory.New()
	nav := fragment.NewMemory()
	session, err := NewSession(&Config{
		ClientID:    testClientID,
		RedirectURL: "https://guildview.example/",
		Store:       store,
		Navigator:   nav,
	})
	if err != nil {
		t.Fatalf("NewSession() error = %v", err)
	}
	return session, store, nav
}

func storedValue(t *testing.T, store *memory.Store, key string) string {
	t.Helper()
	v, err := store.Get(context.Background(), key)
	if err != nil {
		t.Fatalf("store.Get(%q) error = %v", key, err)
	}
	return v
}

// ============================================================
// StartLogin
// ============================================================

func TestSession_StartLogin(t *testing.T) {
	session, store, nav := newTestSession(t)
	ctx := context.Background()

	if err := session.StartLogin(ctx); err != nil {
		t.Fatalf("StartLogin() error = %v", err)
	}

	nonce := storedValue(t, store, StateKey)
	if nonce == "" {
		t.Fatal("StartLogin() did not store a state nonce")
	}

	if got := session.State(); got != StateAwaitingRedirect {
		t.Errorf("State() = %v, want %v", got, StateAwaitingRedirect)
	}

	parsed, err := url.Parse(nav.URL())
	if err != nil {
		t.Fatalf("navigated to unparsable URL: %v", err)
	}
	query := parsed.Query()
	if got := query.Get("response_type"); got != "token" {
		t.Errorf("response_type = %q, want %q", got, "token")
	}
	if got := query.Get("state"); got != nonce {
		t.Errorf("state param = %q, want stored nonce %q", got, nonce)
	}
	if got := query.Get("prompt"); got != "consent" {
		t.Errorf("prompt = %q, want %q", got, "consent")
	}
	if got := query.Get("scope"); got != "identify guilds" {
		t.Errorf("scope = %q, want %q", got, "identify guilds")
	}
	if got := query.Get("client_id"); got != testClientID {
		t.Errorf("client_id = %q, want %q", got, testClientID)
	}
}

func TestSession_StartLogin_RestartDiscardsNonce(t *testing.T) {
	session, store, _ := newTestSession(t)
	ctx := context.Background()

	if err := session.StartLogin(ctx); err != nil {
		t.Fatalf("StartLogin() error = %v", err)
	}
	first := storedValue(t, store, StateKey)

	// Restarting while awaiting the redirect is not an error; the prior
	// nonce is discarded and can never validate again.
	if err := session.StartLogin(ctx); err != nil {
		t.Fatalf("StartLogin() restart error = %v", err)
	}
	second := storedValue(t, store, StateKey)

	if first == second {
		t.Error("restarted login reused the previous nonce")
	}
	if got := session.State(); got != StateAwaitingRedirect {
		t.Errorf("State() = %v, want %v", got, StateAwaitingRedirect)
	}
}

// ============================================================
// HandleRedirect
// ============================================================

func TestSession_HandleRedirect_Success(t *testing.T) {
	session, store, nav := newTestSession(t)
	ctx := context.Background()

	if err := store.Set(ctx, StateKey, "abc"); err != nil {
		t.Fatalf("store.Set() error = %v", err)
	}
	nav.SetFragment("access_token=T1&token_type=Bearer&expires_in=3600&scope=identify+guilds&state=abc")

	committed, err := session.HandleRedirect(ctx)
	if err != nil {
		t.Fatalf("HandleRedirect() error = %v", err)
	}
	if !committed {
		t.Fatal("HandleRedirect() = false, want committed")
	}

	if got := storedValue(t, store, TokenKey); got != "T1" {
		t.Errorf("stored token = %q, want %q", got, "T1")
	}
	if got := storedValue(t, store, StateKey); got != "" {
		t.Errorf("stored nonce = %q, want cleared", got)
	}
	if got := nav.Fragment(); got != "" {
		t.Errorf("fragment = %q, want cleared", got)
	}
	if got := session.State(); got != StateLoggedIn {
		t.Errorf("State() = %v, want %v", got, StateLoggedIn)
	}

	token, err := session.Token(ctx)
	if err != nil {
		t.Fatalf("Token() error = %v", err)
	}
	if token == nil || token.AccessToken != "T1" {
		t.Errorf("Token() = %+v, want access token T1", token)
	}
}

func TestSession_HandleRedirect_StateMismatch(t *testing.T) {
	session, store, nav := newTestSession(t)
	ctx := context.Background()

	if err := store.Set(ctx, StateKey, "abc"); err != nil {
		t.Fatalf("store.Set() error = %v", err)
	}
	if err := store.Set(ctx, TokenKey, "previous-token"); err != nil {
		t.Fatalf("store.Set() error = %v", err)
	}
	nav.SetFragment("access_token=T1&token_type=Bearer&expires_in=3600&scope=identify+guilds&state=xyz")

	committed, err := session.HandleRedirect(ctx)
	if !errors.Is(err, ErrStateMismatch) {
		t.Fatalf("HandleRedirect() error = %v, want ErrStateMismatch", err)
	}
	if committed {
		t.Fatal("HandleRedirect() committed a token on state mismatch")
	}

	// The previously stored token is untouched.
	if got := storedValue(t, store, TokenKey); got != "previous-token" {
		t.Errorf("stored token = %q, want unchanged %q", got, "previous-token")
	}
	// The stale nonce is consumed; only a fresh StartLogin can validate.
	if got := storedValue(t, store, StateKey); got != "" {
		t.Errorf("stored nonce = %q, want cleared", got)
	}
	// The fragment is left for diagnostics.
	if got := nav.Fragment(); got == "" {
		t.Error("fragment cleared on mismatch, want left intact")
	}
}

func TestSession_HandleRedirect_MissingParams(t *testing.T) {
	required := []string{"access_token", "token_type", "expires_in", "scope", "state"}

	for _, missing := range required {
		t.Run("missing_"+missing, func(t *testing.T) {
			session, store, nav := newTestSession(t)
			ctx := context.Background()

			if err := store.Set(ctx, StateKey, "abc"); err != nil {
				t.Fatalf("store.Set() error = %v", err)
			}
			nav.SetFragment(testutil.RedirectFragment("T1", "abc", map[string]string{missing: ""}))

			committed, err := session.HandleRedirect(ctx)
			if !errors.Is(err, ErrMissingRedirectParams) {
				t.Fatalf("HandleRedirect() error = %v, want ErrMissingRedirectParams", err)
			}
			if committed {
				t.Fatal("HandleRedirect() committed with a missing parameter")
			}
			if got := storedValue(t, store, TokenKey); got != "" {
				t.Errorf("stored token = %q, want none", got)
			}
			// Partial fragments do not consume the nonce; the real
			// callback may still arrive.
			if got := storedValue(t, store, StateKey); got != "abc" {
				t.Errorf("stored nonce = %q, want untouched", got)
			}
		})
	}
}

func TestSession_HandleRedirect_EmptyValueCountsAsAbsent(t *testing.T) {
	session, store, nav := newTestSession(t)
	ctx := context.Background()

	if err := store.Set(ctx, StateKey, "abc"); err != nil {
		t.Fatalf("store.Set() error = %v", err)
	}
	// token_type key present but value empty
	nav.SetFragment("access_token=T1&token_type=&expires_in=3600&scope=identify&state=abc")

	committed, err := session.HandleRedirect(ctx)
	if !errors.Is(err, ErrMissingRedirectParams) {
		t.Fatalf("HandleRedirect() error = %v, want ErrMissingRedirectParams", err)
	}
	if committed {
		t.Fatal("HandleRedirect() committed with an empty parameter value")
	}
}

func TestSession_HandleRedirect_NoFragment(t *testing.T) {
	session, _, _ := newTestSession(t)

	committed, err := session.HandleRedirect(context.Background())
	if err != nil {
		t.Fatalf("HandleRedirect() error = %v, want nil for no fragment", err)
	}
	if committed {
		t.Fatal("HandleRedirect() committed without a fragment")
	}
}

func TestSession_HandleRedirect_NoNonceNeverMatches(t *testing.T) {
	session, store, nav := newTestSession(t)
	ctx := context.Background()

	// No login in flight: a complete callback must never validate.
	nav.SetFragment(testutil.RedirectFragment("T1", "abc", nil))

	committed, err := session.HandleRedirect(ctx)
	if !errors.Is(err, ErrStateMismatch) {
		t.Fatalf("HandleRedirect() error = %v, want ErrStateMismatch", err)
	}
	if committed {
		t.Fatal("HandleRedirect() committed without a stored nonce")
	}
	if got := storedValue(t, store, TokenKey); got != "" {
		t.Errorf("stored token = %q, want none", got)
	}
}

func TestSession_HandleRedirect_FullRoundTrip(t *testing.T) {
	session, store, nav := newTestSession(t)
	ctx := context.Background()

	if err := session.StartLogin(ctx); err != nil {
		t.Fatalf("StartLogin() error = %v", err)
	}
	nonce := storedValue(t, store, StateKey)

	// Simulate the provider redirect echoing the nonce.
	nav.SetFragment(testutil.RedirectFragment("T1", nonce, nil))

	committed, err := session.HandleRedirect(ctx)
	if err != nil || !committed {
		t.Fatalf("HandleRedirect() = (%v, %v), want (true, nil)", committed, err)
	}
	if got := session.State(); got != StateLoggedIn {
		t.Errorf("State() = %v, want %v", got, StateLoggedIn)
	}
}

// ============================================================
// Logout
// ============================================================

func TestSession_Logout(t *testing.T) {
	session, store, nav := newTestSession(t)
	ctx := context.Background()

	if err := store.Set(ctx, StateKey, "abc"); err != nil {
		t.Fatalf("store.Set() error = %v", err)
	}
	nav.SetFragment(testutil.RedirectFragment("T1", "abc", nil))
	if _, err := session.HandleRedirect(ctx); err != nil {
		t.Fatalf("HandleRedirect() error = %v", err)
	}

	if err := session.Logout(ctx); err != nil {
		t.Fatalf("Logout() error = %v", err)
	}

	if got := storedValue(t, store, TokenKey); got != "" {
		t.Errorf("stored token = %q, want cleared", got)
	}
	if got := storedValue(t, store, StateKey); got != "" {
		t.Errorf("stored nonce = %q, want cleared", got)
	}
	if got := nav.Fragment(); got != "" {
		t.Errorf("fragment = %q, want cleared", got)
	}
	if got := session.State(); got != StateLoggedOut {
		t.Errorf("State() = %v, want %v", got, StateLoggedOut)
	}

	token, err := session.Token(ctx)
	if err != nil {
		t.Fatalf("Token() error = %v", err)
	}
	if token != nil {
		t.Errorf("Token() = %+v, want nil after logout", token)
	}
}

func TestSession_Logout_Idempotent(t *testing.T) {
	session, _, _ := newTestSession(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if err := session.Logout(ctx); err != nil {
			t.Fatalf("Logout() call %d error = %v", i+1, err)
		}
	}
	if got := session.State(); got != StateLoggedOut {
		t.Errorf("State() = %v, want %v", got, StateLoggedOut)
	}
}

// ============================================================
// Subscription and token lifecycle
// ============================================================

func TestSession_Subscribe_TokenTransitions(t *testing.T) {
	session, store, nav := newTestSession(t)
	ctx := context.Background()

	var seen []string
	session.Subscribe(func(token string) {
		seen = append(seen, token)
	})

	if err := store.Set(ctx, StateKey, "abc"); err != nil {
		t.Fatalf("store.Set() error = %v", err)
	}
	nav.SetFragment(testutil.RedirectFragment("T1", "abc", nil))
	if _, err := session.HandleRedirect(ctx); err != nil {
		t.Fatalf("HandleRedirect() error = %v", err)
	}
	if err := session.Logout(ctx); err != nil {
		t.Fatalf("Logout() error = %v", err)
	}

	if len(seen) != 2 || seen[0] != "T1" || seen[1] != "" {
		t.Errorf("subscriber saw %v, want [T1, \"\"]", seen)
	}
}

func TestSession_Token_ExpiredIsAbsent(t *testing.T) {
	session, store, _ := newTestSession(t)
	ctx := context.Background()

	if err := store.Set(ctx, TokenKey, "T1"); err != nil {
		t.Fatalf("store.Set() error = %v", err)
	}
	// Expired an hour ago, well past any clock-skew grace.
	if err := store.Set(ctx, TokenExpiryKey, "1000000000"); err != nil {
		t.Fatalf("store.Set() error = %v", err)
	}

	token, err := session.Token(ctx)
	if err != nil {
		t.Fatalf("Token() error = %v", err)
	}
	if token != nil {
		t.Errorf("Token() = %+v, want nil for expired token", token)
	}
}

func TestNewSession_RecoversStateFromStore(t *testing.T) {
	ctx := context.Background()

	store := memory.New()
	if err := store.Set(ctx, TokenKey, "T1"); err != nil {
		t.Fatalf("store.Set() error = %v", err)
	}
	session, err := NewSession(&Config{
		ClientID:    testClientID,
		RedirectURL: "https://guildview.example/",
		Store:       store,
	})
	if err != nil {
		t.Fatalf("NewSession() error = %v", err)
	}
	if got := session.State(); got != StateLoggedIn {
		t.Errorf("State() = %v, want %v for store with token", got, StateLoggedIn)
	}

	store = memory.New()
	if err := store.Set(ctx, StateKey, "abc"); err != nil {
		t.Fatalf("store.Set() error = %v", err)
	}
	session, err = NewSession(&Config{
		ClientID:    testClientID,
		RedirectURL: "https://guildview.example/",
		Store:       store,
	})
	if err != nil {
		t.Fatalf("NewSession() error = %v", err)
	}
	if got := session.State(); got != StateAwaitingRedirect {
		t.Errorf("State() = %v, want %v for store with nonce", got, StateAwaitingRedirect)
	}
}

func TestSessionState_String(t *testing.T) {
	states := map[SessionState]string{
		StateLoggedOut:        "logged_out",
		StateAwaitingRedirect: "awaiting_redirect",
		StateLoggedIn:         "logged_in",
	}
	for state, want := range states {
		if got := state.String(); got != want {
			t.Errorf("%d.String() = %q, want %q", int(state), got, want)
		}
	}
	if got := SessionState(99).String(); !strings.Contains(got, "unknown") {
		t.Errorf("SessionState(99).String() = %q, want unknown", got)
	}
}
