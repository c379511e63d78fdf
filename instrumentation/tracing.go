package instrumentation

import (
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Common span attribute keys.
//
// SECURITY WARNING: Never log actual credential values (access tokens,
// state nonces) in traces or metrics. Only log metadata such as token
// types, expiry, and validation results. Traces are persisted longer and
// read more widely than the systems they describe.
const (
	// OAuth flow attributes - metadata only
	AttrClientID     = "oauth.client_id"     // Client identifier (non-secret)
	AttrScope        = "oauth.scope"         // Requested scopes
	AttrTokenType    = "oauth.token_type"    //nolint:gosec // Token type (Bearer), NOT the token
	AttrTokenPresent = "oauth.token_present" // Whether a token is held (boolean)
	AttrExpiresIn    = "oauth.expires_in"    // Token expiry duration
	AttrStateValid   = "oauth.state_valid"   // Whether the state nonce matched (boolean)
	AttrSessionState = "oauth.session_state" // Controller state name

	// Resource fetch attributes
	AttrFetchEndpoint   = "fetch.endpoint"
	AttrFetchStatusCode = "fetch.status_code"

	// Provider attributes
	AttrProviderName      = "provider.name"
	AttrProviderOperation = "provider.operation"
)

// RecordError records an error on a span with proper status codes (nil-safe)
func RecordError(span trace.Span, err error) {
	if span != nil && err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
}

// SetSpanSuccess marks a span as successful (nil-safe)
func SetSpanSuccess(span trace.Span) {
	if span != nil {
		span.SetStatus(codes.Ok, "")
	}
}

// SetSpanError sets an error status on a span (nil-safe)
func SetSpanError(span trace.Span, message string) {
	if span != nil {
		span.SetStatus(codes.Error, message)
	}
}

// SetSpanAttributes sets attributes on a span (nil-safe)
func SetSpanAttributes(span trace.Span, attrs ...attribute.KeyValue) {
	if span != nil {
		span.SetAttributes(attrs...)
	}
}

// AddFetchAttributes adds resource fetch attributes to a span (nil-safe)
func AddFetchAttributes(span trace.Span, endpoint string, statusCode int) {
	SetSpanAttributes(span,
		attribute.String(AttrFetchEndpoint, endpoint),
		attribute.Int(AttrFetchStatusCode, statusCode),
	)
}

// AddProviderAttributes adds provider attributes to a span (nil-safe)
func AddProviderAttributes(span trace.Span, providerName, operation string) {
	SetSpanAttributes(span,
		attribute.String(AttrProviderName, providerName),
		attribute.String(AttrProviderOperation, operation),
	)
}
