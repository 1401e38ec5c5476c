package dbapi

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// CodeServerGone is the error code reported when the server cannot be reached.
const CodeServerGone = 2006

// Kind classifies an Error.
type Kind int

const (
	// KindInterface covers misuse of the client itself: closed resources,
	// malformed responses, values that fail conversion.
	KindInterface Kind = iota + 1

	// KindOperational covers connectivity failures.
	KindOperational

	// KindServer covers error responses returned by the server.
	KindServer

	// KindNotSupported covers operations the HTTP API cannot provide.
	KindNotSupported

	// KindNotImplemented covers operations this client does not implement yet.
	KindNotImplemented
)

// String implements fmt.Stringer.
func (k Kind) String() string {
	switch k {
	case KindInterface:
		return "interface"
	case KindOperational:
		return "operational"
	case KindServer:
		return "server"
	case KindNotSupported:
		return "not supported"
	case KindNotImplemented:
		return "not implemented"
	default:
		return "unknown"
	}
}

// Error is the error type returned by connections and cursors.
type Error struct {
	Kind    Kind
	Code    int
	Message string
	Err     error
}

func (e *Error) Error() string {
	msg := e.Message
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	if e.Code != 0 {
		return fmt.Sprintf("%s error %d: %s", e.Kind, e.Code, msg)
	}
	return fmt.Sprintf("%s error: %s", e.Kind, msg)
}

// Unwrap returns the underlying cause, if any.
func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches target when it is an *Error of the same kind whose non-zero
// Code and Message also match.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	if t.Kind != e.Kind {
		return false
	}
	if t.Code != 0 && t.Code != e.Code {
		return false
	}
	if t.Message != "" && t.Message != e.Message {
		return false
	}
	return true
}

const msgConnectivity = "could not connect to database"

var (
	// ErrConnectionClosed is returned by any operation on a closed
	// connection or cursor.
	ErrConnectionClosed = &Error{Kind: KindInterface, Message: "connection is closed"}

	// ErrConnectivity matches failed health checks.
	ErrConnectivity = &Error{Kind: KindOperational, Code: CodeServerGone, Message: msgConnectivity}

	// ErrServer matches any error response from the server.
	ErrServer = &Error{Kind: KindServer}

	// ErrNotSupported matches operations the HTTP API cannot provide.
	ErrNotSupported = &Error{Kind: KindNotSupported}

	// ErrNotImplemented matches operations that are not implemented.
	ErrNotImplemented = &Error{Kind: KindNotImplemented}

	// ErrNoMoreRows is returned by FetchOne once the row buffer is empty.
	ErrNoMoreRows = errors.New("no more rows")
)

func notSupported(msg string) error {
	return &Error{Kind: KindNotSupported, Message: msg}
}

func notImplemented(op string) error {
	return &Error{Kind: KindNotImplemented, Message: op + " is not implemented"}
}

func interfaceError(format string, args ...any) error {
	return &Error{Kind: KindInterface, Message: fmt.Sprintf(format, args...)}
}

func connectivityError(cause error) error {
	return &Error{Kind: KindOperational, Code: CodeServerGone, Message: msgConnectivity, Err: cause}
}

// newServerError derives an error from a failed response.
//
// A body of the form "... 1146: Table 'x' doesn't exist" yields code 1146 and
// the text after the first colon. A body without a colon keeps the HTTP
// status as the code. An empty body reports "HTTP Error".
func newServerError(status int, body string) *Error {
	if body == "" {
		return &Error{Kind: KindServer, Code: status, Message: "HTTP Error"}
	}

	prefix, rest, found := strings.Cut(body, ":")
	if !found {
		return &Error{Kind: KindServer, Code: status, Message: strings.TrimSpace(body)}
	}

	fields := strings.Fields(prefix)
	if len(fields) > 0 {
		if code, err := strconv.Atoi(fields[len(fields)-1]); err == nil {
			return &Error{Kind: KindServer, Code: code, Message: strings.TrimSpace(rest)}
		}
	}

	// colon present but no numeric code before it
	return &Error{Kind: KindServer, Code: status, Message: strings.TrimSpace(body)}
}
