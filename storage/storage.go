// Package storage defines the interface for the ephemeral key/value store
// that holds session state across an OAuth redirect round-trip.
// Implementations are scope-bound: when the hosting context ends (a browser
// tab, a CLI invocation), the store and everything in it is discarded.
package storage

import "context"

// SessionStore is a string key/value store with session-scoped lifetime.
// It holds exactly the values a login round-trip needs to survive a
// navigation: the bearer token and the anti-forgery state nonce.
//
// Absence is represented as the empty string: Get on a missing key returns
// ("", nil). This mirrors the redirect-fragment rule that a
// present-but-empty value counts as absent.
//
// All methods accept context.Context for tracing and cancellation.
type SessionStore interface {
	// Get retrieves the value for a key, or "" if the key is not set.
	Get(ctx context.Context, key string) (string, error)

	// Set stores a value under a key, replacing any previous value.
	Set(ctx context.Context, key, value string) error

	// Delete removes a key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Clear removes all keys. Used on logout and session teardown.
	Clear(ctx context.Context) error
}
