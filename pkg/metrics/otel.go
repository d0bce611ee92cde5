package metrics

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// OTelExporter exports statistics through an OpenTelemetry meter.
type OTelExporter struct {
	meter      metric.Meter
	names      Names
	opDuration metric.Float64Histogram

	mu         sync.Mutex
	counters   map[string]metric.Int64Counter
	histograms map[string]metric.Float64Histogram
	gauges     map[string]metric.Float64Gauge
}

// NewOTelExporter creates an OpenTelemetry exporter. A nil meter falls back
// to the global meter provider.
func NewOTelExporter(config *Config, meter metric.Meter) (*OTelExporter, error) {
	if config == nil {
		config = NewDefaultConfig()
	}
	if meter == nil {
		meter = otel.Meter("github.com/vnykmshr/docmap-go")
	}

	e := &OTelExporter{
		meter:      meter,
		names:      NamesFor(config.Namespace),
		counters:   make(map[string]metric.Int64Counter),
		histograms: make(map[string]metric.Float64Histogram),
		gauges:     make(map[string]metric.Float64Gauge),
	}

	opDuration, err := meter.Float64Histogram(
		e.names.OperationDuration,
		metric.WithUnit("s"),
		metric.WithDescription("Duration of docmap operations"),
	)
	if err != nil {
		return nil, fmt.Errorf("metrics: create %s: %w", e.names.OperationDuration, err)
	}
	e.opDuration = opDuration

	return e, nil
}

// attributes converts labels to OpenTelemetry attributes.
func attributes(labels Labels) []attribute.KeyValue {
	attrs := make([]attribute.KeyValue, 0, len(labels))
	for k, v := range labels {
		attrs = append(attrs, attribute.String(k, v))
	}
	return attrs
}

// ExportStats sets the stat gauges from the snapshot.
func (e *OTelExporter) ExportStats(stats Stats, labels Labels) error {
	snapshot := map[string]float64{
		e.names.CacheHitsTotal:          float64(stats.Hits()),
		e.names.CacheMissesTotal:        float64(stats.Misses()),
		e.names.CacheWritesTotal:        float64(stats.Writes()),
		e.names.CacheInvalidationsTotal: float64(stats.Invalidations()),
		e.names.CacheHitRate:            stats.HitRate(),
		e.names.ConnectAttemptsTotal:    float64(stats.ConnectAttempts()),
		e.names.ConnectFailuresTotal:    float64(stats.ConnectFailures()),
	}
	for name, value := range snapshot {
		if err := e.SetGauge(name, value, labels); err != nil {
			return err
		}
	}
	return nil
}

// RecordCacheOperation observes the operation duration.
func (e *OTelExporter) RecordCacheOperation(op Operation, d time.Duration, labels Labels) error {
	attrs := append(attributes(labels), attribute.String("operation", string(op)))
	e.opDuration.Record(context.Background(), d.Seconds(), metric.WithAttributes(attrs...))
	return nil
}

// IncrementCounter increments the named counter, creating it on first use.
func (e *OTelExporter) IncrementCounter(name string, labels Labels) error {
	e.mu.Lock()
	counter, ok := e.counters[name]
	if !ok {
		var err error
		counter, err = e.meter.Int64Counter(name)
		if err != nil {
			e.mu.Unlock()
			return fmt.Errorf("metrics: create %s: %w", name, err)
		}
		e.counters[name] = counter
	}
	e.mu.Unlock()

	counter.Add(context.Background(), 1, metric.WithAttributes(attributes(labels)...))
	return nil
}

// RecordHistogram observes the named histogram, creating it on first use.
func (e *OTelExporter) RecordHistogram(name string, value float64, labels Labels) error {
	e.mu.Lock()
	histogram, ok := e.histograms[name]
	if !ok {
		var err error
		histogram, err = e.meter.Float64Histogram(name)
		if err != nil {
			e.mu.Unlock()
			return fmt.Errorf("metrics: create %s: %w", name, err)
		}
		e.histograms[name] = histogram
	}
	e.mu.Unlock()

	histogram.Record(context.Background(), value, metric.WithAttributes(attributes(labels)...))
	return nil
}

// SetGauge sets the named gauge, creating it on first use.
func (e *OTelExporter) SetGauge(name string, value float64, labels Labels) error {
	e.mu.Lock()
	gauge, ok := e.gauges[name]
	if !ok {
		var err error
		gauge, err = e.meter.Float64Gauge(name)
		if err != nil {
			e.mu.Unlock()
			return fmt.Errorf("metrics: create %s: %w", name, err)
		}
		e.gauges[name] = gauge
	}
	e.mu.Unlock()

	gauge.Record(context.Background(), value, metric.WithAttributes(attributes(labels)...))
	return nil
}

// Close is a no-op; the meter is owned by the caller's provider.
func (e *OTelExporter) Close() error { return nil }

var _ Exporter = (*OTelExporter)(nil)
