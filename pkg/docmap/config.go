package docmap

import (
	"time"

	"go.uber.org/zap"

	"github.com/vnykmshr/docmap-go/pkg/metrics"
)

// defaultHost is used when no host is configured at all.
const defaultHost = "localhost"

// defaultDatabase is the database the driver falls back to when the
// configuration names none.
const defaultDatabase = "test"

// HostPort identifies a single store host. Port 0 means "use the shared
// default port, or none".
type HostPort struct {
	Address string
	Port    int
}

// Config holds the structured connection parameters and the collaborators of
// a Connection. The zero value is usable; New applies defaults for anything
// left unset.
type Config struct {
	// Credentials. Password is only used when Username is set.
	Username string
	Password string

	// Host is the primary store host and HostPort its own port. Hosts lists
	// additional hosts. Any host without its own port, the primary included,
	// falls back to the shared default Port; with both unset the host is
	// rendered without a port segment.
	Host     string
	HostPort int
	Port     int
	Hosts    []HostPort

	// Database is the database name segment of the connection target.
	Database string

	// Driver options.
	ConnectTimeout time.Duration
	MaxPoolSize    uint64
	MinPoolSize    uint64

	// Cache is the initial cache backend. Defaults to NoopCache.
	Cache Cache

	// Lifecycle receives the connection establishment callbacks. Defaults to
	// NopLifecycle.
	Lifecycle Lifecycle

	// Logger records connection lifecycle events. Defaults to zap.NewNop().
	Logger *zap.Logger

	// Metrics optionally exports connection and cache statistics.
	Metrics *MetricsConfig
}

// MetricsConfig configures statistics export for a Connection.
type MetricsConfig struct {
	Exporter metrics.Exporter
	Enabled  bool
	Name     string
	Labels   metrics.Labels
}

// NewConfig creates an empty configuration.
func NewConfig() *Config {
	return &Config{}
}

// WithCredentials sets the username and password.
func (c *Config) WithCredentials(username, password string) *Config {
	c.Username = username
	c.Password = password
	return c
}

// WithHost sets the primary host and its own port.
func (c *Config) WithHost(address string, port int) *Config {
	c.Host = address
	c.HostPort = port
	return c
}

// WithDefaultPort sets the shared default port used by hosts without one of
// their own.
func (c *Config) WithDefaultPort(port int) *Config {
	c.Port = port
	return c
}

// WithHosts sets the additional host list.
func (c *Config) WithHosts(hosts ...HostPort) *Config {
	c.Hosts = hosts
	return c
}

// WithDatabase sets the database name.
func (c *Config) WithDatabase(name string) *Config {
	c.Database = name
	return c
}

// WithConnectTimeout sets the timeout applied to connection establishment.
func (c *Config) WithConnectTimeout(d time.Duration) *Config {
	c.ConnectTimeout = d
	return c
}

// WithPoolSize sets the driver connection pool bounds.
func (c *Config) WithPoolSize(minSize, maxSize uint64) *Config {
	c.MinPoolSize = minSize
	c.MaxPoolSize = maxSize
	return c
}

// WithCache sets the initial cache backend.
func (c *Config) WithCache(cache Cache) *Config {
	c.Cache = cache
	return c
}

// WithLifecycle sets the connection lifecycle observer.
func (c *Config) WithLifecycle(lc Lifecycle) *Config {
	c.Lifecycle = lc
	return c
}

// WithLogger sets the logger.
func (c *Config) WithLogger(logger *zap.Logger) *Config {
	c.Logger = logger
	return c
}

// WithMetrics sets the metrics export configuration.
func (c *Config) WithMetrics(mc *MetricsConfig) *Config {
	c.Metrics = mc
	return c
}
