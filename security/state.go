package security

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"fmt"
)

// StateLength is the length in characters of a generated state nonce:
// 16 bytes (128 bits) of entropy as unpadded base64url.
const StateLength = 22

// GenerateState generates a cryptographically secure anti-forgery state
// nonce. The nonce binds a provider callback to the login attempt that
// initiated it; it is single-use and never reused across attempts.
//
// The function panics if the system's random number generator fails,
// which indicates a critical system-level security failure.
func GenerateState() string {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		// CRITICAL: System RNG failure - cannot generate secure state nonces
		panic(fmt.Sprintf("crypto/rand.Read failed: %v", err))
	}
	return base64.RawURLEncoding.EncodeToString(b)
}

// StateEqual compares the state echoed back by the provider against the
// stored nonce in constant time. An empty stored nonce never matches:
// a callback arriving when no login attempt is in flight is always invalid.
func StateEqual(echoed, stored string) bool {
	if stored == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(echoed), []byte(stored)) == 1
}
