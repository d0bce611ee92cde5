package docmap

import (
	"context"
	"strconv"
	"strings"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"github.com/vnykmshr/docmap-go/pkg/metrics"
)

// connState tracks the explicit connection state machine.
type connState int32

const (
	stateDisconnected connState = iota
	stateConnecting
	stateConnected
)

// Lifecycle receives callbacks during connection establishment. Implementers
// may replace the raw client in OnConnecting (for example to authenticate)
// and run async initialization such as index creation in OnConnected. Errors
// from either callback fail the connect attempt.
type Lifecycle interface {
	// OnConnecting is invoked with the freshly connected client before it is
	// stored. Returning a non-nil client replaces the raw connection.
	OnConnecting(ctx context.Context, client *mongo.Client) (*mongo.Client, error)

	// OnConnected is invoked once the connection is stored, before Connect
	// resolves.
	OnConnected(ctx context.Context, conn *Connection) error
}

// NopLifecycle is the default Lifecycle; both callbacks are no-ops.
type NopLifecycle struct{}

// OnConnecting returns the client unchanged.
func (NopLifecycle) OnConnecting(_ context.Context, client *mongo.Client) (*mongo.Client, error) {
	return client, nil
}

// OnConnected does nothing.
func (NopLifecycle) OnConnected(context.Context, *Connection) error { return nil }

// connectAttempt is the shared outcome of one in-flight connect. Every caller
// that arrives while it is pending waits on done and observes err.
type connectAttempt struct {
	done chan struct{}
	err  error
}

// Connection owns the single logical connection to the document store: it
// derives the connection target from configuration, performs deduplicated
// connection establishment, exposes the live client handle, and tears it
// down. It also carries the process-wide cache instance shared by every model
// bound to it.
type Connection struct {
	uri       string
	config    *Config
	lifecycle Lifecycle
	logger    *zap.Logger
	stats     *Stats
	exporter  metrics.Exporter
	labels    metrics.Labels

	mu      sync.Mutex
	state   connState
	client  *mongo.Client
	attempt *connectAttempt
	cache   Cache
	plugins []any
}

// New creates a Connection from a connection string, a configuration, or
// both. A literal uri takes precedence over the structured fields when the
// target is resolved. Supplying neither fails with ErrInvalidConstruction.
func New(uri string, config *Config) (*Connection, error) {
	if uri == "" && config == nil {
		return nil, ErrInvalidConstruction
	}
	if config == nil {
		config = NewConfig()
	}

	conn := &Connection{
		uri:       uri,
		config:    config,
		lifecycle: config.Lifecycle,
		logger:    config.Logger,
		stats:     &Stats{},
		cache:     config.Cache,
	}
	if conn.lifecycle == nil {
		conn.lifecycle = NopLifecycle{}
	}
	if conn.logger == nil {
		conn.logger = zap.NewNop()
	}
	if conn.cache == nil {
		conn.cache = NoopCache{}
	}

	conn.exporter = metrics.NewNoOpExporter()
	if mc := config.Metrics; mc != nil && mc.Enabled && mc.Exporter != nil {
		conn.exporter = mc.Exporter
		conn.labels = metrics.Labels{"connection": mc.Name}
		for k, v := range mc.Labels {
			conn.labels[k] = v
		}
	}

	return conn, nil
}

// Target resolves the connection string. A literal string supplied at
// construction is returned unchanged; otherwise the target is built from the
// structured configuration as
// mongodb://[user[:password]@]host1[:port1][,host2[:port2],...][/database],
// falling back to the local host when no host is configured. New guarantees a
// configuration is present, so resolution always succeeds.
func (c *Connection) Target() string {
	if c.uri != "" {
		return c.uri
	}

	var b strings.Builder
	b.WriteString("mongodb://")

	if c.config.Username != "" {
		b.WriteString(c.config.Username)
		if c.config.Password != "" {
			b.WriteByte(':')
			b.WriteString(c.config.Password)
		}
		b.WriteByte('@')
	}

	b.WriteString(strings.Join(c.hostList(), ","))

	if c.config.Database != "" {
		b.WriteByte('/')
		b.WriteString(c.config.Database)
	}

	return b.String()
}

// hostList renders the de-duplicated, order-preserving union of the primary
// host and the additional host entries. Hosts without their own port fall
// back to the shared default port; with no host configured at all the list is
// a single local host.
func (c *Connection) hostList() []string {
	var hosts []string
	seen := make(map[string]struct{})

	add := func(address string, port int) {
		if address == "" {
			return
		}
		rendered := address
		if port > 0 {
			rendered += ":" + strconv.Itoa(port)
		}
		if _, dup := seen[rendered]; dup {
			return
		}
		seen[rendered] = struct{}{}
		hosts = append(hosts, rendered)
	}

	primaryPort := c.config.HostPort
	if primaryPort == 0 {
		primaryPort = c.config.Port
	}
	add(c.config.Host, primaryPort)

	for _, h := range c.config.Hosts {
		port := h.Port
		if port == 0 {
			port = c.config.Port
		}
		add(h.Address, port)
	}

	if len(hosts) == 0 {
		hosts = []string{defaultHost}
	}
	return hosts
}

// Connect establishes the connection. It is idempotent and single-flight:
// when already connected it returns immediately, and concurrent callers of a
// pending attempt share its outcome without issuing duplicate connects. On
// failure the partial connection is closed and all connection state is
// cleared, so a later call starts a fresh attempt; failures are never retried
// automatically.
func (c *Connection) Connect(ctx context.Context) (*Connection, error) {
	c.mu.Lock()
	switch c.state {
	case stateConnected:
		c.mu.Unlock()
		return c, nil
	case stateConnecting:
		att := c.attempt
		c.mu.Unlock()
		<-att.done
		if att.err != nil {
			return nil, att.err
		}
		return c, nil
	}

	att := &connectAttempt{done: make(chan struct{})}
	c.state = stateConnecting
	c.attempt = att
	c.mu.Unlock()

	c.stats.incConnectAttempts()
	start := time.Now()
	err := c.establish(ctx)

	c.mu.Lock()
	if c.attempt == att {
		if err != nil {
			c.state = stateDisconnected
			c.client = nil
		}
		c.attempt = nil
	}
	c.mu.Unlock()

	att.err = err
	close(att.done)

	c.record(metrics.OperationConnect, time.Since(start))
	if err != nil {
		c.stats.incConnectFailures()
		c.logger.Error("connect failed", zap.Error(err))
		return nil, err
	}
	return c, nil
}

// establish runs one underlying connect, the OnConnecting hook, connection
// storage, and the OnConnected hook, in that order. Any failure closes
// whatever was partially established and propagates the original error.
func (c *Connection) establish(ctx context.Context) error {
	opts := options.Client().ApplyURI(c.Target())
	if c.config.ConnectTimeout > 0 {
		opts.SetConnectTimeout(c.config.ConnectTimeout)
	}
	if c.config.MaxPoolSize > 0 {
		opts.SetMaxPoolSize(c.config.MaxPoolSize)
	}
	if c.config.MinPoolSize > 0 {
		opts.SetMinPoolSize(c.config.MinPoolSize)
	}

	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return err
	}

	replaced, err := c.lifecycle.OnConnecting(ctx, client)
	if err != nil {
		_ = client.Disconnect(context.Background())
		return err
	}
	if replaced != nil {
		client = replaced
	}

	c.mu.Lock()
	c.client = client
	c.state = stateConnected
	c.mu.Unlock()

	if err := c.lifecycle.OnConnected(ctx, c); err != nil {
		c.mu.Lock()
		c.client = nil
		c.state = stateDisconnected
		c.mu.Unlock()
		_ = client.Disconnect(context.Background())
		return err
	}

	c.logger.Info("connected",
		zap.Strings("hosts", c.hostList()),
		zap.String("database", c.config.Database),
	)
	return nil
}

// Close tears down the established connection. The established state is
// cleared first, so concurrent readers observe "disconnected" immediately;
// the underlying release is best-effort and its error is logged, never
// surfaced. Closing a never-connected Connection is a no-op.
//
// Close does not cancel an in-flight Connect: an attempt that settles after
// Close was called silently becomes the current connection. Callers that need
// stronger guarantees must serialize Close against Connect themselves.
func (c *Connection) Close(ctx context.Context) error {
	c.mu.Lock()
	client := c.client
	c.client = nil
	c.state = stateDisconnected
	c.mu.Unlock()

	if client == nil {
		return nil
	}

	if err := client.Disconnect(ctx); err != nil {
		c.logger.Warn("disconnect failed", zap.Error(err))
	}
	c.exportStats()
	c.logger.Info("closed")
	return nil
}

// Client returns the established connection handle. It never blocks and never
// triggers a connect; when no connection is established it fails with
// ErrNotConnected.
func (c *Connection) Client() (*mongo.Client, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != stateConnected || c.client == nil {
		return nil, ErrNotConnected
	}
	return c.client, nil
}

// Database returns a handle to the configured database, or the driver's
// default database when none is configured.
func (c *Connection) Database() (*mongo.Database, error) {
	client, err := c.Client()
	if err != nil {
		return nil, err
	}
	name := c.config.Database
	if name == "" {
		name = defaultDatabase
	}
	return client.Database(name), nil
}

// Register appends a plugin to the connection's plugin list and returns the
// connection for chaining. The list is storage only: no uniqueness or
// ordering guarantees beyond insertion order for iteration.
func (c *Connection) Register(plugin any) *Connection {
	c.mu.Lock()
	c.plugins = append(c.plugins, plugin)
	c.mu.Unlock()
	return c
}

// Plugins returns the registered plugins in insertion order.
func (c *Connection) Plugins() []any {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]any, len(c.plugins))
	copy(out, c.plugins)
	return out
}

// SetCache replaces the cache backend. The replacement takes effect for all
// subsequent cache operations issued by any model bound to this connection.
func (c *Connection) SetCache(cache Cache) {
	if cache == nil {
		cache = NoopCache{}
	}
	c.mu.Lock()
	c.cache = cache
	c.mu.Unlock()
	c.logger.Info("cache replaced")
}

// Cache returns the cache backend currently in effect.
func (c *Connection) Cache() Cache {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.cache
}

// Stats returns the connection's cumulative statistics.
func (c *Connection) Stats() *Stats {
	return c.stats
}

// record exports one timed operation when a metrics exporter is configured.
func (c *Connection) record(op metrics.Operation, d time.Duration) {
	_ = c.exporter.RecordCacheOperation(op, d, c.labels)
}

// exportStats pushes the current counters to the configured exporter.
func (c *Connection) exportStats() {
	_ = c.exporter.ExportStats(c.stats, c.labels)
}
