package dbapi

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"sync"
	"testing"

	"github.com/leapstack-labs/s2http/internal/testutil"
	"github.com/stretchr/testify/require"
)

// apiCall records one request received by the fake API.
type apiCall struct {
	Method  string
	Path    string
	Body    map[string]any
	HasAuth bool
	User    string
}

// fakeAPI is an httptest server speaking the HTTP SQL API.
type fakeAPI struct {
	t       *testing.T
	srv     *httptest.Server
	mu      sync.Mutex
	calls   []apiCall
	handler http.HandlerFunc
}

func newFakeAPI(t *testing.T, handler http.HandlerFunc) *fakeAPI {
	t.Helper()
	api := &fakeAPI{t: t, handler: handler}
	api.srv = httptest.NewServer(http.HandlerFunc(api.serve))
	t.Cleanup(api.srv.Close)
	return api
}

func (a *fakeAPI) serve(w http.ResponseWriter, r *http.Request) {
	data, _ := io.ReadAll(r.Body)
	var body map[string]any
	if len(data) > 0 {
		_ = json.Unmarshal(data, &body)
	}
	user, _, hasAuth := r.BasicAuth()

	a.mu.Lock()
	a.calls = append(a.calls, apiCall{Method: r.Method, Path: r.URL.Path, Body: body, HasAuth: hasAuth, User: user})
	a.mu.Unlock()

	if a.handler != nil {
		a.handler(w, r)
	}
}

func (a *fakeAPI) Calls() []apiCall {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]apiCall(nil), a.calls...)
}

func (a *fakeAPI) LastCall() apiCall {
	calls := a.Calls()
	require.NotEmpty(a.t, calls, "expected at least one request")
	return calls[len(calls)-1]
}

// config returns a Config pointing at the fake server.
func (a *fakeAPI) config() Config {
	u, err := url.Parse(a.srv.URL)
	require.NoError(a.t, err)
	port, err := strconv.Atoi(u.Port())
	require.NoError(a.t, err)
	return Config{
		Host:       u.Hostname(),
		Port:       port,
		HTTPClient: a.srv.Client(),
		Logger:     testutil.NewTestLogger(a.t),
	}
}

// connect opens a Connection to the fake server.
func (a *fakeAPI) connect(mutate ...func(*Config)) *Connection {
	cfg := a.config()
	for _, m := range mutate {
		m(&cfg)
	}
	conn, err := Connect(cfg)
	require.NoError(a.t, err)
	a.t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

// usersResult is a two-column, three-row query result.
var usersResult = map[string]any{
	"results": []any{
		map[string]any{
			"columns": []any{
				map[string]any{"name": "id", "dataType": "BIGINT", "nullable": false},
				map[string]any{"name": "name", "dataType": "VARCHAR", "nullable": true},
			},
			"rows": []any{
				[]any{1, "alice"},
				[]any{2, "bob"},
				[]any{3, nil},
			},
		},
	},
}

// apiHandler answers query/tuples with usersResult, exec with 5 affected
// rows and ping with pong.
func apiHandler(w http.ResponseWriter, r *http.Request) {
	switch r.URL.Path {
	case "/api/v1/query/tuples":
		writeJSON(w, usersResult)
	case "/api/v1/exec":
		writeJSON(w, map[string]any{"rowsAffected": 5})
	case "/ping":
		_, _ = w.Write([]byte("pong"))
	default:
		http.NotFound(w, r)
	}
}
