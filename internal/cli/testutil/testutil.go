// Package testutil provides test utilities for CLI testing.
package testutil

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"testing"

	"github.com/leapstack-labs/s2http/internal/cli/output"
)

// Statement is a request body received by FakeServer.
type Statement struct {
	Path     string `json:"-"`
	SQL      string `json:"sql"`
	Args     []any  `json:"args"`
	Database string `json:"database"`
}

type failure struct {
	status int
	body   string
}

// FakeServer is an in-process HTTP SQL endpoint. Query results are replayed
// by SQL prefix; exec statements report one affected row unless configured.
type FakeServer struct {
	*httptest.Server

	mu       sync.Mutex
	stmts    []Statement
	results  map[string]string
	failures map[string]failure
	affected int64
	down     bool
}

// NewFakeServer starts a server replaying results, keyed by SQL prefix.
func NewFakeServer(t *testing.T, results map[string]string) *FakeServer {
	t.Helper()
	f := &FakeServer{
		results:  results,
		failures: map[string]failure{},
		affected: 1,
	}
	f.Server = httptest.NewServer(http.HandlerFunc(f.handle))
	t.Cleanup(f.Close)
	return f
}

// FailOn makes statements starting with prefix fail with status and body.
func (f *FakeServer) FailOn(prefix string, status int, body string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failures[prefix] = failure{status: status, body: body}
}

// SetRowsAffected sets the count reported for exec statements.
func (f *FakeServer) SetRowsAffected(n int64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.affected = n
}

// SetDown makes the health check fail.
func (f *FakeServer) SetDown(down bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.down = down
}

// Statements returns the statements received so far.
func (f *FakeServer) Statements() []Statement {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]Statement(nil), f.stmts...)
}

// Host returns the listening host.
func (f *FakeServer) Host() string {
	u, _ := url.Parse(f.URL)
	return u.Hostname()
}

// Port returns the listening port.
func (f *FakeServer) Port() int {
	u, _ := url.Parse(f.URL)
	p, _ := strconv.Atoi(u.Port())
	return p
}

// Flags returns the connection flags pointing a command at the server.
func (f *FakeServer) Flags() []string {
	return []string{
		"--host", f.Host(),
		"--port", strconv.Itoa(f.Port()),
		"--user", "admin",
		"--password", "secret",
		"--database", "app",
	}
}

func (f *FakeServer) handle(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	down := f.down
	f.mu.Unlock()

	if r.URL.Path == "/ping" {
		if down {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte("pong"))
		return
	}

	data, _ := io.ReadAll(r.Body)
	st := Statement{Path: r.URL.Path}
	_ = json.Unmarshal(data, &st)
	sql := strings.TrimSpace(st.SQL)

	f.mu.Lock()
	f.stmts = append(f.stmts, st)
	affected := f.affected
	var fail *failure
	for prefix, fl := range f.failures {
		if strings.HasPrefix(sql, prefix) {
			fail = &fl
			break
		}
	}
	f.mu.Unlock()

	if fail != nil {
		w.WriteHeader(fail.status)
		_, _ = w.Write([]byte(fail.body))
		return
	}

	if strings.HasSuffix(r.URL.Path, "/exec") {
		_, _ = w.Write([]byte(`{"rowsAffected": ` + strconv.FormatInt(affected, 10) + `}`))
		return
	}
	for prefix, body := range f.results {
		if strings.HasPrefix(sql, prefix) {
			_, _ = w.Write([]byte(body))
			return
		}
	}
	w.WriteHeader(http.StatusInternalServerError)
	_, _ = w.Write([]byte("Error 1064: You have an error in your SQL syntax"))
}

// TestRenderer wraps a Renderer for testing with captured output buffers.
type TestRenderer struct {
	*output.Renderer
	Out    *bytes.Buffer
	ErrOut *bytes.Buffer
}

// NewTestRenderer creates a new test renderer with the specified mode and TTY state.
func NewTestRenderer(mode output.Mode, isTTY bool) *TestRenderer {
	out := &bytes.Buffer{}
	errOut := &bytes.Buffer{}
	return &TestRenderer{
		Renderer: output.NewRendererWithTTY(out, errOut, isTTY, mode),
		Out:      out,
		ErrOut:   errOut,
	}
}

// Output returns the stdout output as a string.
func (tr *TestRenderer) Output() string {
	return tr.Out.String()
}

// ErrorOutput returns the stderr output as a string.
func (tr *TestRenderer) ErrorOutput() string {
	return tr.ErrOut.String()
}

// ansiPattern matches ANSI escape codes.
var ansiPattern = regexp.MustCompile(`\x1b\[[0-9;]*[a-zA-Z]`)

// AssertNoANSI checks that a string contains no ANSI escape codes.
func AssertNoANSI(t *testing.T, s string) {
	t.Helper()
	if ansiPattern.MatchString(s) {
		t.Errorf("string contains ANSI escape codes: %q", s)
	}
}
