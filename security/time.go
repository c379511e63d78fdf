package security

import "time"

// DefaultClockSkewGracePeriod is the grace period applied to token
// expiration checks. The provider's clock stamped expires_in; the host's
// clock evaluates it. 5 seconds absorbs typical NTP drift at the cost of
// honoring a token marginally past its true expiry.
const DefaultClockSkewGracePeriod = 5 * time.Second

// IsTokenExpired checks if a token is expired with the default clock skew
// grace period. A zero expiry means the token does not expire.
func IsTokenExpired(expiresAt time.Time) bool {
	return IsTokenExpiredWithGracePeriod(expiresAt, DefaultClockSkewGracePeriod)
}

// IsTokenExpiredWithGracePeriod checks if a token is expired with a custom
// clock skew grace period.
func IsTokenExpiredWithGracePeriod(expiresAt time.Time, gracePeriod time.Duration) bool {
	if expiresAt.IsZero() {
		return false
	}
	return time.Now().After(expiresAt.Add(gracePeriod))
}
