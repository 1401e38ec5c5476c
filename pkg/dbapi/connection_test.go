package dbapi

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"testing"

	"github.com/leapstack-labs/s2http/pkg/converters"
	"github.com/leapstack-labs/s2http/pkg/core"
	"github.com/leapstack-labs/s2http/pkg/transport"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubSession records requests and returns canned responses.
type stubSession struct {
	requests []string
	resp     core.Response
	err      error
	closed   int
}

func (s *stubSession) Do(_ context.Context, method, url string, _ any, _ bool) (core.Response, error) {
	s.requests = append(s.requests, method+" "+url)
	if s.err != nil {
		return nil, s.err
	}
	return s.resp, nil
}

func (s *stubSession) Close() error {
	s.closed++
	return nil
}

func TestNewConnection_URL(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantURL string
	}{
		{
			name:    "defaults",
			cfg:     Config{},
			wantURL: "http://localhost:3306/api/v1/",
		},
		{
			name:    "https with version",
			cfg:     Config{Host: "db.example.com", Port: 443, Protocol: "https", Version: "v2"},
			wantURL: "https://db.example.com:443/api/v2/",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			conn, err := NewConnection(tt.cfg, &stubSession{})
			require.NoError(t, err)
			assert.Equal(t, tt.wantURL, conn.URL())
			assert.True(t, conn.Autocommit(), "autocommit defaults to true")
			assert.False(t, conn.Closed())
		})
	}
}

func TestNewConnection_InvalidProtocol(t *testing.T) {
	_, err := NewConnection(Config{Protocol: "ftp"}, &stubSession{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported protocol")

	_, err = Connect(Config{Protocol: "mysql"})
	assert.Error(t, err)
}

func TestConnect_BasicAuth(t *testing.T) {
	api := newFakeAPI(t, apiHandler)

	tests := []struct {
		name     string
		user     string
		password string
		wantAuth bool
	}{
		{name: "user and password", user: "admin", password: "secret", wantAuth: true},
		{name: "user only", user: "admin", wantAuth: true},
		{name: "no credentials", wantAuth: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			conn := api.connect(func(c *Config) {
				c.User = tt.user
				c.Password = tt.password
			})
			require.NoError(t, conn.Cursor().Execute(context.Background(), "DELETE FROM t"))

			call := api.LastCall()
			assert.Equal(t, tt.wantAuth, call.HasAuth)
			assert.Equal(t, tt.user, call.User)
		})
	}
}

func TestConnection_RequestPaths(t *testing.T) {
	api := newFakeAPI(t, apiHandler)
	conn := api.connect()
	ctx := context.Background()

	_, err := conn.get(ctx, "status")
	require.NoError(t, err)
	assert.Equal(t, apiCall{Method: http.MethodGet, Path: "/api/v1/status"}, api.LastCall())

	_, err = conn.delete(ctx, "sessions/42")
	require.NoError(t, err)
	assert.Equal(t, http.MethodDelete, api.LastCall().Method)
	assert.Equal(t, "/api/v1/sessions/42", api.LastCall().Path)

	resp, err := conn.post(ctx, "exec", map[string]any{"sql": "SET x = 1"})
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode())
	assert.Equal(t, "/api/v1/exec", api.LastCall().Path)
	assert.Equal(t, "SET x = 1", api.LastCall().Body["sql"])
}

func TestConnection_Close(t *testing.T) {
	session := &stubSession{resp: transport.NewResponse(200, "pong")}
	conn, err := NewConnection(Config{}, session)
	require.NoError(t, err)

	require.NoError(t, conn.Close())
	require.NoError(t, conn.Close(), "close is idempotent")
	assert.Equal(t, 1, session.closed)
	assert.True(t, conn.Closed())

	ctx := context.Background()

	ok, err := conn.IsConnected(ctx)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Empty(t, session.requests, "no network call after close")

	_, err = conn.post(ctx, "exec", nil)
	assert.ErrorIs(t, err, ErrConnectionClosed)
	_, err = conn.get(ctx, "x")
	assert.ErrorIs(t, err, ErrConnectionClosed)
	_, err = conn.delete(ctx, "x")
	assert.ErrorIs(t, err, ErrConnectionClosed)

	assert.ErrorIs(t, conn.Commit(), ErrConnectionClosed)
	assert.ErrorIs(t, conn.Rollback(), ErrConnectionClosed)
	assert.ErrorIs(t, conn.Cursor().Execute(ctx, "SELECT 1"), ErrConnectionClosed)
	assert.ErrorIs(t, conn.Ping(ctx), ErrConnectivity)
}

func TestConnection_CommitRollback(t *testing.T) {
	session := &stubSession{}
	conn, err := NewConnection(Config{}, session)
	require.NoError(t, err)

	require.NoError(t, conn.Commit())
	require.NoError(t, conn.Rollback())
	assert.Empty(t, session.requests, "autocommit commit/rollback must not touch the network")

	conn.SetAutocommit(false)
	assert.False(t, conn.Autocommit())
	assert.ErrorIs(t, conn.Commit(), ErrNotSupported)
	assert.ErrorIs(t, conn.Rollback(), ErrNotSupported)
}

func TestConnection_IsConnected(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		want   bool
	}{
		{name: "pong", status: 200, body: "pong", want: true},
		{name: "pong with 400", status: 400, body: "pong", want: true},
		{name: "pong with 500", status: 500, body: "pong", want: false},
		{name: "wrong body", status: 200, body: "ok", want: false},
		{name: "empty body", status: 200, body: "", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			api := newFakeAPI(t, func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			})
			conn := api.connect(func(c *Config) { c.User = "admin"; c.Password = "secret" })

			ok, err := conn.IsConnected(context.Background())
			require.NoError(t, err)
			assert.Equal(t, tt.want, ok)

			call := api.LastCall()
			assert.Equal(t, "/ping", call.Path)
			assert.False(t, call.HasAuth, "health check is unauthenticated")

			err = conn.Ping(context.Background())
			if tt.want {
				assert.NoError(t, err)
			} else {
				var dbErr *Error
				require.ErrorAs(t, err, &dbErr)
				assert.Equal(t, CodeServerGone, dbErr.Code)
				assert.ErrorIs(t, err, ErrConnectivity)
			}
		})
	}
}

func TestConnection_IsConnected_TransportFailure(t *testing.T) {
	api := newFakeAPI(t, apiHandler)
	conn := api.connect()
	api.srv.Close()

	ok, err := conn.IsConnected(context.Background())
	assert.False(t, ok)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrConnectivity)

	var urlErr *url.Error
	assert.True(t, errors.As(err, &urlErr), "transport error stays reachable through Unwrap")

	assert.ErrorIs(t, conn.Ping(context.Background()), ErrConnectivity)
}

func TestConnection_ConverterOverrides(t *testing.T) {
	api := newFakeAPI(t, apiHandler)
	conn := api.connect(func(c *Config) {
		c.Converters = map[string]converters.Converter{
			"VARCHAR": func(v any) (any, error) {
				if v == nil {
					return "<null>", nil
				}
				return "name:" + v.(string), nil
			},
		}
	})

	cur := conn.Cursor()
	require.NoError(t, cur.Execute(context.Background(), "SELECT id, name FROM users"))
	rows, err := cur.FetchAll()
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, core.Row{int64(1), "name:alice"}, rows[0])
	assert.Equal(t, core.Row{int64(3), "<null>"}, rows[2])

	// the shared default registry is untouched
	got, err := converters.Default().Lookup("VARCHAR")("x")
	require.NoError(t, err)
	assert.Equal(t, "x", got)
}

func TestConnection_TypeResolver(t *testing.T) {
	api := newFakeAPI(t, apiHandler)
	conn := api.connect(func(c *Config) {
		c.TypeResolver = func(any) (string, error) { return "", errors.New("resolver offline") }
	})

	err := conn.Cursor().Execute(context.Background(), "SELECT id FROM users")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "resolver offline")
}
