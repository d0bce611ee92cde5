// Package metrics exports docmap connection and cache statistics to pluggable
// monitoring backends. A NoOpExporter, a Prometheus exporter, and an
// OpenTelemetry exporter ship with the package; custom backends implement the
// Exporter interface.
package metrics

import (
	"time"
)

// Labels are the dimension key/value pairs attached to every exported metric.
type Labels map[string]string

// Operation identifies a timed operation.
type Operation string

const (
	OperationGet     Operation = "get"
	OperationSet     Operation = "set"
	OperationClear   Operation = "clear"
	OperationConnect Operation = "connect"
	OperationFind    Operation = "find"
	OperationInsert  Operation = "insert"
	OperationSave    Operation = "save"
	OperationDelete  Operation = "delete"
)

// Result classifies the outcome of a cache read.
type Result string

const (
	ResultHit   Result = "hit"
	ResultMiss  Result = "miss"
	ResultError Result = "error"
)

// Stats is the read-only statistics surface exported by a connection.
type Stats interface {
	Hits() int64
	Misses() int64
	Writes() int64
	Invalidations() int64
	ConnectAttempts() int64
	ConnectFailures() int64
	HitRate() float64
}

// Exporter pushes statistics and operation timings to a monitoring backend.
type Exporter interface {
	// ExportStats exports a full statistics snapshot.
	ExportStats(stats Stats, labels Labels) error

	// RecordCacheOperation records one timed operation.
	RecordCacheOperation(operation Operation, duration time.Duration, labels Labels) error

	// IncrementCounter increments a named counter.
	IncrementCounter(name string, labels Labels) error

	// RecordHistogram records a named histogram observation.
	RecordHistogram(name string, value float64, labels Labels) error

	// SetGauge sets a named gauge.
	SetGauge(name string, value float64, labels Labels) error

	// Close releases backend resources.
	Close() error
}

// Config controls metrics export.
type Config struct {
	// Enabled toggles export entirely.
	Enabled bool

	// Namespace prefixes every metric name.
	Namespace string

	// Labels are attached to every exported metric.
	Labels Labels

	// ReportingInterval is how often periodic exporters push a snapshot.
	ReportingInterval time.Duration
}

// NewDefaultConfig returns the default metrics configuration.
func NewDefaultConfig() *Config {
	return &Config{
		Enabled:           true,
		Namespace:         "docmap",
		Labels:            Labels{},
		ReportingInterval: 30 * time.Second,
	}
}

// WithNamespace sets the metric name prefix.
func (c *Config) WithNamespace(ns string) *Config {
	c.Namespace = ns
	return c
}

// WithLabels sets the shared labels.
func (c *Config) WithLabels(labels Labels) *Config {
	c.Labels = labels
	return c
}

// WithReportingInterval sets the periodic snapshot interval.
func (c *Config) WithReportingInterval(d time.Duration) *Config {
	c.ReportingInterval = d
	return c
}

// Names are the metric names used by the shipped exporters.
type Names struct {
	CacheHitsTotal          string
	CacheMissesTotal        string
	CacheWritesTotal        string
	CacheInvalidationsTotal string
	CacheHitRate            string
	ConnectAttemptsTotal    string
	ConnectFailuresTotal    string
	OperationDuration       string
}

// DefaultNames returns the metric names under the default namespace.
func DefaultNames() Names {
	return NamesFor("docmap")
}

// NamesFor returns the metric names under the given namespace.
func NamesFor(namespace string) Names {
	return Names{
		CacheHitsTotal:          namespace + "_cache_hits_total",
		CacheMissesTotal:        namespace + "_cache_misses_total",
		CacheWritesTotal:        namespace + "_cache_writes_total",
		CacheInvalidationsTotal: namespace + "_cache_invalidations_total",
		CacheHitRate:            namespace + "_cache_hit_rate",
		ConnectAttemptsTotal:    namespace + "_connect_attempts_total",
		ConnectFailuresTotal:    namespace + "_connect_failures_total",
		OperationDuration:       namespace + "_operation_duration_seconds",
	}
}

// NoOpExporter discards everything.
type NoOpExporter struct{}

// NewNoOpExporter creates a NoOpExporter.
func NewNoOpExporter() *NoOpExporter { return &NoOpExporter{} }

// ExportStats does nothing.
func (*NoOpExporter) ExportStats(Stats, Labels) error { return nil }

// RecordCacheOperation does nothing.
func (*NoOpExporter) RecordCacheOperation(Operation, time.Duration, Labels) error { return nil }

// IncrementCounter does nothing.
func (*NoOpExporter) IncrementCounter(string, Labels) error { return nil }

// RecordHistogram does nothing.
func (*NoOpExporter) RecordHistogram(string, float64, Labels) error { return nil }

// SetGauge does nothing.
func (*NoOpExporter) SetGauge(string, float64, Labels) error { return nil }

// Close does nothing.
func (*NoOpExporter) Close() error { return nil }

// MultiExporter fans every call out to multiple exporters, stopping at the
// first error.
type MultiExporter struct {
	exporters []Exporter
}

// NewMultiExporter creates a MultiExporter over the given exporters.
func NewMultiExporter(exporters ...Exporter) *MultiExporter {
	return &MultiExporter{exporters: exporters}
}

// ExportStats exports to every exporter.
func (m *MultiExporter) ExportStats(stats Stats, labels Labels) error {
	for _, e := range m.exporters {
		if err := e.ExportStats(stats, labels); err != nil {
			return err
		}
	}
	return nil
}

// RecordCacheOperation records to every exporter.
func (m *MultiExporter) RecordCacheOperation(op Operation, d time.Duration, labels Labels) error {
	for _, e := range m.exporters {
		if err := e.RecordCacheOperation(op, d, labels); err != nil {
			return err
		}
	}
	return nil
}

// IncrementCounter increments on every exporter.
func (m *MultiExporter) IncrementCounter(name string, labels Labels) error {
	for _, e := range m.exporters {
		if err := e.IncrementCounter(name, labels); err != nil {
			return err
		}
	}
	return nil
}

// RecordHistogram records on every exporter.
func (m *MultiExporter) RecordHistogram(name string, value float64, labels Labels) error {
	for _, e := range m.exporters {
		if err := e.RecordHistogram(name, value, labels); err != nil {
			return err
		}
	}
	return nil
}

// SetGauge sets on every exporter.
func (m *MultiExporter) SetGauge(name string, value float64, labels Labels) error {
	for _, e := range m.exporters {
		if err := e.SetGauge(name, value, labels); err != nil {
			return err
		}
	}
	return nil
}

// Close closes every exporter, returning the first error after closing all.
func (m *MultiExporter) Close() error {
	var firstErr error
	for _, e := range m.exporters {
		if err := e.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

var (
	_ Exporter = (*NoOpExporter)(nil)
	_ Exporter = (*MultiExporter)(nil)
)
