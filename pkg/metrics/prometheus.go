package metrics

import (
	"fmt"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// PrometheusConfig configures the Prometheus exporter.
type PrometheusConfig struct {
	// Registry receives the collectors. Defaults to the default registerer.
	Registry prometheus.Registerer

	// LabelNames fixes the label dimensions of every metric; label values
	// missing from a call are exported empty. Prometheus requires the
	// dimension set to be known up front.
	LabelNames []string
}

// PrometheusExporter exports statistics as Prometheus collectors. Stats
// snapshots are exported as gauges since they are absolute totals.
type PrometheusExporter struct {
	registry   prometheus.Registerer
	names      Names
	labelNames []string

	statsGauges map[string]*prometheus.GaugeVec
	opDuration  *prometheus.HistogramVec

	mu         sync.Mutex
	counters   map[string]*prometheus.CounterVec
	histograms map[string]*prometheus.HistogramVec
	gauges     map[string]*prometheus.GaugeVec
}

// NewPrometheusExporter creates and registers a Prometheus exporter.
func NewPrometheusExporter(config *Config, promConfig *PrometheusConfig) (*PrometheusExporter, error) {
	if config == nil {
		config = NewDefaultConfig()
	}
	if promConfig == nil {
		promConfig = &PrometheusConfig{}
	}

	registry := promConfig.Registry
	if registry == nil {
		registry = prometheus.DefaultRegisterer
	}

	e := &PrometheusExporter{
		registry:    registry,
		names:       NamesFor(config.Namespace),
		labelNames:  promConfig.LabelNames,
		statsGauges: make(map[string]*prometheus.GaugeVec),
		counters:    make(map[string]*prometheus.CounterVec),
		histograms:  make(map[string]*prometheus.HistogramVec),
		gauges:      make(map[string]*prometheus.GaugeVec),
	}

	statNames := []string{
		e.names.CacheHitsTotal,
		e.names.CacheMissesTotal,
		e.names.CacheWritesTotal,
		e.names.CacheInvalidationsTotal,
		e.names.CacheHitRate,
		e.names.ConnectAttemptsTotal,
		e.names.ConnectFailuresTotal,
	}
	for _, name := range statNames {
		gauge := prometheus.NewGaugeVec(prometheus.GaugeOpts{Name: name}, e.labelNames)
		if err := registry.Register(gauge); err != nil {
			return nil, fmt.Errorf("metrics: register %s: %w", name, err)
		}
		e.statsGauges[name] = gauge
	}

	e.opDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    e.names.OperationDuration,
			Buckets: prometheus.DefBuckets,
		},
		append([]string{"operation"}, e.labelNames...),
	)
	if err := registry.Register(e.opDuration); err != nil {
		return nil, fmt.Errorf("metrics: register %s: %w", e.names.OperationDuration, err)
	}

	return e, nil
}

// labelValues orders the label values to match the fixed dimension set.
func (e *PrometheusExporter) labelValues(labels Labels) []string {
	values := make([]string, len(e.labelNames))
	for i, name := range e.labelNames {
		values[i] = labels[name]
	}
	return values
}

// ExportStats sets the stat gauges from the snapshot.
func (e *PrometheusExporter) ExportStats(stats Stats, labels Labels) error {
	values := e.labelValues(labels)
	e.statsGauges[e.names.CacheHitsTotal].WithLabelValues(values...).Set(float64(stats.Hits()))
	e.statsGauges[e.names.CacheMissesTotal].WithLabelValues(values...).Set(float64(stats.Misses()))
	e.statsGauges[e.names.CacheWritesTotal].WithLabelValues(values...).Set(float64(stats.Writes()))
	e.statsGauges[e.names.CacheInvalidationsTotal].WithLabelValues(values...).Set(float64(stats.Invalidations()))
	e.statsGauges[e.names.CacheHitRate].WithLabelValues(values...).Set(stats.HitRate())
	e.statsGauges[e.names.ConnectAttemptsTotal].WithLabelValues(values...).Set(float64(stats.ConnectAttempts()))
	e.statsGauges[e.names.ConnectFailuresTotal].WithLabelValues(values...).Set(float64(stats.ConnectFailures()))
	return nil
}

// RecordCacheOperation observes the operation duration.
func (e *PrometheusExporter) RecordCacheOperation(op Operation, d time.Duration, labels Labels) error {
	values := append([]string{string(op)}, e.labelValues(labels)...)
	e.opDuration.WithLabelValues(values...).Observe(d.Seconds())
	return nil
}

// IncrementCounter increments the named counter, registering it on first use.
func (e *PrometheusExporter) IncrementCounter(name string, labels Labels) error {
	e.mu.Lock()
	counter, ok := e.counters[name]
	if !ok {
		counter = prometheus.NewCounterVec(prometheus.CounterOpts{Name: name}, e.labelNames)
		if err := e.registry.Register(counter); err != nil {
			e.mu.Unlock()
			return fmt.Errorf("metrics: register %s: %w", name, err)
		}
		e.counters[name] = counter
	}
	e.mu.Unlock()

	counter.WithLabelValues(e.labelValues(labels)...).Inc()
	return nil
}

// RecordHistogram observes the named histogram, registering it on first use.
func (e *PrometheusExporter) RecordHistogram(name string, value float64, labels Labels) error {
	e.mu.Lock()
	histogram, ok := e.histograms[name]
	if !ok {
		histogram = prometheus.NewHistogramVec(
			prometheus.HistogramOpts{Name: name, Buckets: prometheus.DefBuckets},
			e.labelNames,
		)
		if err := e.registry.Register(histogram); err != nil {
			e.mu.Unlock()
			return fmt.Errorf("metrics: register %s: %w", name, err)
		}
		e.histograms[name] = histogram
	}
	e.mu.Unlock()

	histogram.WithLabelValues(e.labelValues(labels)...).Observe(value)
	return nil
}

// SetGauge sets the named gauge, registering it on first use.
func (e *PrometheusExporter) SetGauge(name string, value float64, labels Labels) error {
	e.mu.Lock()
	gauge, ok := e.gauges[name]
	if !ok {
		gauge = prometheus.NewGaugeVec(prometheus.GaugeOpts{Name: name}, e.labelNames)
		if err := e.registry.Register(gauge); err != nil {
			e.mu.Unlock()
			return fmt.Errorf("metrics: register %s: %w", name, err)
		}
		e.gauges[name] = gauge
	}
	e.mu.Unlock()

	gauge.WithLabelValues(e.labelValues(labels)...).Set(value)
	return nil
}

// Close is a no-op; collectors stay registered for scraping.
func (e *PrometheusExporter) Close() error { return nil }

var _ Exporter = (*PrometheusExporter)(nil)
