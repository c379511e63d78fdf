// Package testutil provides testing utilities and helpers for the
// discord-oauth library.
package testutil

import (
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"
)

// GenerateRandomString generates a random base64url string of roughly n
// characters for use as test tokens and nonces.
func GenerateRandomString(n int) string {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		panic(fmt.Sprintf("crypto/rand.Read failed: %v", err))
	}
	return base64.RawURLEncoding.EncodeToString(b)[:n]
}

// NewJSONServer creates a test HTTP server that responds to every request
// with the given status and JSON body. The returned recorder captures the
// requests the server saw for header assertions.
func NewJSONServer(t *testing.T, status int, body any) (*httptest.Server, *RequestRecorder) {
	t.Helper()
	rec := &RequestRecorder{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec.record(r)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		if body != nil {
			_ = json.NewEncoder(w).Encode(body)
		}
	}))
	t.Cleanup(srv.Close)
	return srv, rec
}

// RequestRecorder captures requests seen by a test server.
type RequestRecorder struct {
	requests []*http.Request
}

func (r *RequestRecorder) record(req *http.Request) {
	clone := req.Clone(req.Context())
	r.requests = append(r.requests, clone)
}

// Count returns the number of requests recorded.
func (r *RequestRecorder) Count() int {
	return len(r.requests)
}

// Last returns the most recent request, or nil when none were recorded.
func (r *RequestRecorder) Last() *http.Request {
	if len(r.requests) == 0 {
		return nil
	}
	return r.requests[len(r.requests)-1]
}

// RedirectFragment builds a provider callback fragment with the five
// implicit-grant parameters. Pass overrides to replace or (with an empty
// value) drop individual keys.
func RedirectFragment(accessToken, state string, overrides map[string]string) string {
	params := map[string]string{
		"access_token": accessToken,
		"token_type":   "Bearer",
		"expires_in":   "604800",
		"scope":        "identify guilds",
		"state":        state,
	}
	for k, v := range overrides {
		if v == "" {
			delete(params, k)
		} else {
			params[k] = v
		}
	}
	values := url.Values{}
	for k, v := range params {
		values.Set(k, v)
	}
	return values.Encode()
}

// WaitFor polls the condition until it returns true or the deadline
// passes, failing the test on timeout. Used for observing the outcome of
// fetches that run on their own goroutine.
func WaitFor(t *testing.T, timeout time.Duration, cond func() bool, msg string) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("condition not met within %v: %s", timeout, msg)
}
