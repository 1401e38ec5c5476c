// Package transport provides the HTTP session used to talk to the SQL
// endpoint: default JSON headers, basic auth, request IDs, and a response
// type implementing core.Response.
package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/leapstack-labs/s2http/pkg/core"
)

// RequestIDHeader carries the per-request identifier.
const RequestIDHeader = "X-Request-ID"

// Options configures a Session.
type Options struct {
	// Client is the underlying HTTP client. Timeouts, TLS and proxies are
	// configured there. Defaults to http.DefaultClient.
	Client *http.Client

	// Username and Password enable HTTP Basic auth when Username is set.
	Username string
	Password string

	// Headers are sent with every request, after the JSON defaults.
	Headers map[string]string
}

// Session issues JSON requests with shared headers and credentials.
type Session struct {
	client   *http.Client
	headers  http.Header
	username string
	password string
	useAuth  bool
}

// NewSession creates a session with JSON content negotiation headers.
func NewSession(opts Options) *Session {
	client := opts.Client
	if client == nil {
		client = http.DefaultClient
	}

	headers := http.Header{}
	headers.Set("Content-Type", "application/json")
	headers.Set("Accept", "application/json")
	for k, v := range opts.Headers {
		headers.Set(k, v)
	}

	return &Session{
		client:   client,
		headers:  headers,
		username: opts.Username,
		password: opts.Password,
		useAuth:  opts.Username != "",
	}
}

// Do issues a request to an absolute URL. A non-nil body is encoded as JSON.
// When authenticated is false the basic auth credentials are not sent.
func (s *Session) Do(ctx context.Context, method, url string, body any, authenticated bool) (core.Response, error) {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to encode request body: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	for k, v := range s.headers {
		req.Header[k] = v
	}
	req.Header.Set(RequestIDHeader, uuid.NewString())
	if authenticated && s.useAuth {
		req.SetBasicAuth(s.username, s.password)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	return &Response{
		status:    resp.StatusCode,
		body:      data,
		requestID: req.Header.Get(RequestIDHeader),
	}, nil
}

// Close releases idle keep-alive connections held by the client.
func (s *Session) Close() error {
	s.client.CloseIdleConnections()
	return nil
}

// Response is a fully read HTTP response.
type Response struct {
	status    int
	body      []byte
	requestID string
}

// NewResponse builds a Response from its parts.
func NewResponse(status int, body string) *Response {
	return &Response{status: status, body: []byte(body)}
}

// StatusCode returns the HTTP status code.
func (r *Response) StatusCode() int {
	return r.status
}

// Text returns the raw body.
func (r *Response) Text() string {
	return string(r.body)
}

// RequestID returns the identifier sent with the request.
func (r *Response) RequestID() string {
	return r.requestID
}

// JSON decodes the body into v. Numbers decode as json.Number so that
// converters see the exact server text.
func (r *Response) JSON(v any) error {
	dec := json.NewDecoder(strings.NewReader(string(r.body)))
	dec.UseNumber()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

var _ core.Response = (*Response)(nil)
