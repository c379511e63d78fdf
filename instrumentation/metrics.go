package instrumentation

import (
	"fmt"

	"go.opentelemetry.io/otel/metric"
)

// Metrics holds all metric instruments for the session library
type Metrics struct {
	// Session flow metrics
	LoginStarted      metric.Int64Counter
	RedirectValidated metric.Int64Counter
	StateMismatch     metric.Int64Counter
	MissingParams     metric.Int64Counter
	SessionRevoked    metric.Int64Counter
	Logout            metric.Int64Counter

	// Resource fetch metrics
	FetchTotal    metric.Int64Counter
	FetchFailures metric.Int64Counter
	FetchDuration metric.Float64Histogram

	// Provider API metrics
	ProviderAPICallsTotal metric.Int64Counter
	ProviderAPIDuration   metric.Float64Histogram
}

// newMetrics creates and registers all metric instruments
func newMetrics(inst *Instrumentation) (*Metrics, error) {
	m := &Metrics{}
	sessionMeter := inst.Meter("session")
	resourceMeter := inst.Meter("resource")
	providerMeter := inst.Meter("provider")

	var err error
	m.LoginStarted, err = sessionMeter.Int64Counter(
		"oauth.login.started",
		metric.WithDescription("Number of login attempts initiated"),
		metric.WithUnit("{attempt}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create login.started counter: %w", err)
	}

	m.RedirectValidated, err = sessionMeter.Int64Counter(
		"oauth.redirect.validated",
		metric.WithDescription("Number of provider redirects that validated and committed a token"),
		metric.WithUnit("{redirect}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create redirect.validated counter: %w", err)
	}

	m.StateMismatch, err = sessionMeter.Int64Counter(
		"oauth.redirect.state_mismatch",
		metric.WithDescription("Number of redirects rejected because the state nonce did not match"),
		metric.WithUnit("{redirect}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create redirect.state_mismatch counter: %w", err)
	}

	m.MissingParams, err = sessionMeter.Int64Counter(
		"oauth.redirect.missing_params",
		metric.WithDescription("Number of redirects ignored for missing or empty parameters"),
		metric.WithUnit("{redirect}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create redirect.missing_params counter: %w", err)
	}

	m.SessionRevoked, err = sessionMeter.Int64Counter(
		"oauth.session.revoked",
		metric.WithDescription("Number of sessions torn down after an authenticated fetch failure"),
		metric.WithUnit("{session}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create session.revoked counter: %w", err)
	}

	m.Logout, err = sessionMeter.Int64Counter(
		"oauth.session.logout",
		metric.WithDescription("Number of explicit logouts"),
		metric.WithUnit("{session}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create session.logout counter: %w", err)
	}

	m.FetchTotal, err = resourceMeter.Int64Counter(
		"oauth.fetch.total",
		metric.WithDescription("Number of authenticated resource fetches attempted"),
		metric.WithUnit("{fetch}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create fetch.total counter: %w", err)
	}

	m.FetchFailures, err = resourceMeter.Int64Counter(
		"oauth.fetch.failures",
		metric.WithDescription("Number of authenticated resource fetches that failed"),
		metric.WithUnit("{fetch}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create fetch.failures counter: %w", err)
	}

	m.FetchDuration, err = resourceMeter.Float64Histogram(
		"oauth.fetch.duration",
		metric.WithDescription("Authenticated resource fetch duration in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create fetch.duration histogram: %w", err)
	}

	m.ProviderAPICallsTotal, err = providerMeter.Int64Counter(
		"oauth.provider.api.calls",
		metric.WithDescription("Number of provider API calls"),
		metric.WithUnit("{call}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create provider.api.calls counter: %w", err)
	}

	m.ProviderAPIDuration, err = providerMeter.Float64Histogram(
		"oauth.provider.api.duration",
		metric.WithDescription("Provider API call duration in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create provider.api.duration histogram: %w", err)
	}

	return m, nil
}
