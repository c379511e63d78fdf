// Package instrumentation provides OpenTelemetry metrics and tracing for
// the implicit-grant session library. When disabled it falls back to no-op
// providers with zero overhead, so callers can instrument unconditionally.
package instrumentation
