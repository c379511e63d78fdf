package instrumentation

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	"go.opentelemetry.io/otel/sdk/resource"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"
	tracenoop "go.opentelemetry.io/otel/trace/noop"
)

const (
	// DefaultServiceName is used when the host provides no service name
	DefaultServiceName = "discord-oauth"

	// DefaultServiceVersion is used when no version is provided
	DefaultServiceVersion = "unknown"
)

// Config holds instrumentation configuration
type Config struct {
	// ServiceName is the name of the host application
	ServiceName string

	// ServiceVersion is the version of the host application
	ServiceVersion string

	// Enabled controls whether instrumentation is active.
	// When false, uses no-op providers (zero overhead).
	Enabled bool

	// Resource allows custom resource attributes.
	// If nil, a default resource is created from service name and version.
	Resource *resource.Resource

	// MeterProvider and TracerProvider let a host plug in its own
	// providers (OTLP, Prometheus bridge). Nil falls back to no-op.
	MeterProvider  metric.MeterProvider
	TracerProvider trace.TracerProvider
}

// Instrumentation provides OpenTelemetry instrumentation components
type Instrumentation struct {
	config   Config
	resource *resource.Resource

	meterProvider  metric.MeterProvider
	tracerProvider trace.TracerProvider

	// Metrics holder provides pre-configured metric instruments
	metrics *Metrics
}

// New creates a new instrumentation instance
func New(config Config) (*Instrumentation, error) {
	if config.ServiceName == "" {
		config.ServiceName = DefaultServiceName
	}
	if config.ServiceVersion == "" {
		config.ServiceVersion = DefaultServiceVersion
	}

	var res *resource.Resource
	var err error
	if config.Resource != nil {
		res = config.Resource
	} else {
		res, err = resource.New(
			context.Background(),
			resource.WithAttributes(
				semconv.ServiceName(config.ServiceName),
				semconv.ServiceVersion(config.ServiceVersion),
			),
		)
		if err != nil {
			return nil, fmt.Errorf("failed to create resource: %w", err)
		}
	}

	inst := &Instrumentation{
		config:   config,
		resource: res,
	}

	if config.Enabled {
		inst.meterProvider = config.MeterProvider
		inst.tracerProvider = config.TracerProvider
	}
	if inst.meterProvider == nil {
		inst.meterProvider = noop.NewMeterProvider()
	}
	if inst.tracerProvider == nil {
		inst.tracerProvider = tracenoop.NewTracerProvider()
	}

	inst.metrics, err = newMetrics(inst)
	if err != nil {
		return nil, fmt.Errorf("failed to create metrics: %w", err)
	}

	return inst, nil
}

// Meter returns a named meter for the given scope.
// Scopes are layer names like "session", "resource", "provider".
func (i *Instrumentation) Meter(scope string) metric.Meter {
	return i.meterProvider.Meter("github.com/guildview/discord-oauth/" + scope)
}

// Tracer returns a named tracer for the given scope.
func (i *Instrumentation) Tracer(scope string) trace.Tracer {
	return i.tracerProvider.Tracer("github.com/guildview/discord-oauth/" + scope)
}

// Metrics returns the metrics holder for recording metric values
func (i *Instrumentation) Metrics() *Metrics {
	return i.metrics
}

// TracerProvider returns the underlying tracer provider
func (i *Instrumentation) TracerProvider() trace.TracerProvider {
	return i.tracerProvider
}

// MeterProvider returns the underlying meter provider
func (i *Instrumentation) MeterProvider() metric.MeterProvider {
	return i.meterProvider
}
