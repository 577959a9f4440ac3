package observability

import (
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
)

var noopMeter = noop.NewMeterProvider().Meter(instrumentationName)

// Meter returns the named meter from the global provider.
func Meter(component string) metric.Meter {
	return otel.Meter(instrumentationName + "/" + component)
}

// Counter creates an int64 counter, falling back to a no-op instrument when
// the provider rejects the definition.
func Counter(meter metric.Meter, name, description string) metric.Int64Counter {
	counter, err := meter.Int64Counter(name, metric.WithDescription(description))
	if err != nil {
		counter, _ = noopMeter.Int64Counter(name)
	}
	return counter
}
