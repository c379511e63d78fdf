package security

import (
	"crypto/sha256"
	"encoding/hex"
	"log/slog"
	"time"
)

// Auditor handles security event logging. Credentials are never logged
// raw; anything sensitive is hashed first.
type Auditor struct {
	logger  *slog.Logger
	enabled bool
}

// NewAuditor creates a new security auditor
func NewAuditor(logger *slog.Logger, enabled bool) *Auditor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Auditor{
		logger:  logger,
		enabled: enabled,
	}
}

// Event represents a security audit event
type Event struct {
	Type      string
	ClientID  string
	Details   map[string]any
	Timestamp time.Time
}

// LogEvent logs a security event
func (a *Auditor) LogEvent(event Event) {
	if !a.enabled {
		return
	}

	event.Timestamp = time.Now()

	a.logger.Info("security_audit",
		"event_type", event.Type,
		"client_id", event.ClientID,
		"details", event.Details,
		"timestamp", event.Timestamp,
	)
}

// LogLoginStarted logs the start of a login attempt
func (a *Auditor) LogLoginStarted(clientID, scope string) {
	a.LogEvent(Event{
		Type:     "login_started",
		ClientID: clientID,
		Details: map[string]any{
			"scope": scope,
		},
	})
}

// LogSessionEstablished logs a successful redirect validation
func (a *Auditor) LogSessionEstablished(clientID, accessToken string) {
	a.LogEvent(Event{
		Type:     "session_established",
		ClientID: clientID,
		Details: map[string]any{
			"token_hash": HashForLogging(accessToken),
		},
	})
}

// LogStateMismatch logs a callback whose state did not match the stored
// nonce. Such callbacks are either forged, replayed, or stale.
func (a *Auditor) LogStateMismatch(clientID string) {
	a.LogEvent(Event{
		Type:     "state_mismatch",
		ClientID: clientID,
	})
}

// LogSessionRevoked logs a session teardown
func (a *Auditor) LogSessionRevoked(clientID, reason string) {
	a.LogEvent(Event{
		Type:     "session_revoked",
		ClientID: clientID,
		Details: map[string]any{
			"reason": reason,
		},
	})
}

// LogFetchFailure logs a failed authenticated resource fetch
func (a *Auditor) LogFetchFailure(clientID, endpoint, reason string) {
	a.LogEvent(Event{
		Type:     "fetch_failure",
		ClientID: clientID,
		Details: map[string]any{
			"endpoint": endpoint,
			"reason":   reason,
		},
	})
}

// HashForLogging creates a SHA256 hash of sensitive data for logging
func HashForLogging(sensitive string) string {
	if sensitive == "" {
		return "<empty>"
	}
	hash := sha256.Sum256([]byte(sensitive))
	return hex.EncodeToString(hash[:])[:16]
}
