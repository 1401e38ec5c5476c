package dbapi

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"sync"

	"github.com/leapstack-labs/s2http/pkg/converters"
	"github.com/leapstack-labs/s2http/pkg/core"
	"github.com/leapstack-labs/s2http/pkg/transport"
	"github.com/leapstack-labs/s2http/pkg/types"
)

// Default connection settings.
const (
	DefaultHost     = "localhost"
	DefaultPort     = 3306
	DefaultProtocol = "http"
	DefaultVersion  = "v1"
)

// Session is the HTTP transport a Connection issues requests through.
// transport.Session is the standard implementation.
type Session interface {
	// Do sends a request to an absolute URL. A non-nil body is sent as JSON.
	Do(ctx context.Context, method, url string, body any, authenticated bool) (core.Response, error)

	// Close releases the session's resources.
	Close() error
}

// TypeResolver maps a column's dataType value to a type name.
type TypeResolver func(dataType any) (string, error)

// Config holds the settings used to open a Connection.
type Config struct {
	Host     string
	Port     int
	User     string
	Password string

	// Database is sent with every statement when set.
	Database string

	// Protocol is "http" or "https".
	Protocol string

	// Version is the API version path segment.
	Version string

	// HTTPClient is used by the default session. Timeouts belong here.
	HTTPClient *http.Client

	// Headers are sent with every request of the default session.
	Headers map[string]string

	// Converters override entries of the default converter registry.
	Converters map[string]converters.Converter

	// TypeResolver replaces types.GetName.
	TypeResolver TypeResolver

	// Logger receives debug output; nil discards it.
	Logger *slog.Logger
}

// Connection is an open handle to the HTTP SQL endpoint.
type Connection struct {
	mu         sync.RWMutex
	session    Session
	baseURL    *url.URL
	pingURL    string
	database   string
	autocommit bool
	converters *converters.Registry
	resolve    TypeResolver
	logger     *slog.Logger
}

// Connect opens a Connection using the default HTTP session.
func Connect(cfg Config) (*Connection, error) {
	session := transport.NewSession(transport.Options{
		Client:   cfg.HTTPClient,
		Username: cfg.User,
		Password: cfg.Password,
		Headers:  cfg.Headers,
	})
	conn, err := NewConnection(cfg, session)
	if err != nil {
		_ = session.Close()
		return nil, err
	}
	return conn, nil
}

// NewConnection opens a Connection over the given session. The session's
// credentials are its own concern; cfg.User and cfg.Password are not applied.
func NewConnection(cfg Config, session Session) (*Connection, error) {
	host := cfg.Host
	if host == "" {
		host = DefaultHost
	}
	port := cfg.Port
	if port == 0 {
		port = DefaultPort
	}
	protocol := cfg.Protocol
	if protocol == "" {
		protocol = DefaultProtocol
	}
	if protocol != "http" && protocol != "https" {
		return nil, fmt.Errorf("unsupported protocol %q (expected http or https)", protocol)
	}
	version := cfg.Version
	if version == "" {
		version = DefaultVersion
	}

	base, err := url.Parse(fmt.Sprintf("%s://%s:%d/api/%s/", protocol, host, port, version))
	if err != nil {
		return nil, fmt.Errorf("invalid connection URL: %w", err)
	}

	registry := converters.Default()
	if len(cfg.Converters) > 0 {
		registry = registry.Clone()
		for name, conv := range cfg.Converters {
			registry.Register(name, conv)
		}
	}

	resolve := cfg.TypeResolver
	if resolve == nil {
		resolve = types.GetName
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	return &Connection{
		session:    session,
		baseURL:    base,
		pingURL:    fmt.Sprintf("%s://%s/ping", base.Scheme, base.Host),
		database:   cfg.Database,
		autocommit: true,
		converters: registry,
		resolve:    resolve,
		logger:     logger,
	}, nil
}

// URL returns the base URL of the API.
func (c *Connection) URL() string {
	return c.baseURL.String()
}

// Database returns the default database sent with each statement.
func (c *Connection) Database() string {
	return c.database
}

// Autocommit reports whether autocommit is enabled.
func (c *Connection) Autocommit() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.autocommit
}

// SetAutocommit toggles autocommit. The API has no transaction control, so
// with autocommit off Commit and Rollback fail as unsupported.
func (c *Connection) SetAutocommit(on bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.autocommit = on
}

// Closed reports whether Close has been called.
func (c *Connection) Closed() bool {
	return c.currentSession() == nil
}

func (c *Connection) currentSession() Session {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.session
}

// Close discards the session. Calling Close more than once is a no-op.
func (c *Connection) Close() error {
	c.mu.Lock()
	session := c.session
	c.session = nil
	c.mu.Unlock()

	if session == nil {
		return nil
	}
	c.logger.Debug("closing connection", slog.String("url", c.baseURL.String()))
	return session.Close()
}

// Commit is a no-op under autocommit.
func (c *Connection) Commit() error {
	return c.endTransaction()
}

// Rollback is a no-op under autocommit.
func (c *Connection) Rollback() error {
	return c.endTransaction()
}

func (c *Connection) endTransaction() error {
	if c.Closed() {
		return ErrConnectionClosed
	}
	if c.Autocommit() {
		return nil
	}
	return notSupported("operation not supported")
}

// Cursor returns a new cursor bound to this connection.
func (c *Connection) Cursor() *Cursor {
	return newCursor(c)
}

// IsConnected probes the server's ping endpoint without credentials. It
// returns false without a network call once the connection is closed.
// Transport failures are reported as connectivity errors that wrap the
// underlying cause.
func (c *Connection) IsConnected(ctx context.Context) (bool, error) {
	session := c.currentSession()
	if session == nil {
		return false, nil
	}

	resp, err := session.Do(ctx, http.MethodGet, c.pingURL, nil, false)
	if err != nil {
		c.logger.Debug("health check failed", slog.String("url", c.pingURL), slog.Any("error", err))
		return false, connectivityError(err)
	}
	return resp.StatusCode() <= http.StatusBadRequest && resp.Text() == "pong", nil
}

// Ping fails with a connectivity error (code 2006) when the server does not
// answer the health check.
func (c *Connection) Ping(ctx context.Context) error {
	ok, err := c.IsConnected(ctx)
	if err != nil {
		return err
	}
	if !ok {
		return connectivityError(nil)
	}
	return nil
}

func (c *Connection) get(ctx context.Context, path string) (core.Response, error) {
	return c.do(ctx, http.MethodGet, path, nil)
}

func (c *Connection) post(ctx context.Context, path string, body any) (core.Response, error) {
	return c.do(ctx, http.MethodPost, path, body)
}

func (c *Connection) delete(ctx context.Context, path string) (core.Response, error) {
	return c.do(ctx, http.MethodDelete, path, nil)
}

// do resolves path against the base URL and issues the request.
func (c *Connection) do(ctx context.Context, method, path string, body any) (core.Response, error) {
	session := c.currentSession()
	if session == nil {
		return nil, ErrConnectionClosed
	}

	ref, err := url.Parse(path)
	if err != nil {
		return nil, fmt.Errorf("invalid request path %q: %w", path, err)
	}
	target := c.baseURL.ResolveReference(ref).String()

	c.logger.Debug("issuing request", slog.String("method", method), slog.String("url", target))

	resp, err := session.Do(ctx, method, target, body, true)
	if err != nil {
		return nil, err
	}

	attrs := []any{slog.String("method", method), slog.String("url", target), slog.Int("status", resp.StatusCode())}
	if r, ok := resp.(interface{ RequestID() string }); ok {
		attrs = append(attrs, slog.String("request_id", r.RequestID()))
	}
	c.logger.Debug("received response", attrs...)

	return resp, nil
}
