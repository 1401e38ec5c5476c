package core

// ParamStyle is the placeholder style understood by the server.
const ParamStyle = "qmark"

// Row is one converted result row, in column order.
type Row []any

// ColumnDescriptor is the fixed nine-field description of a result column.
// The HTTP API does not report sizes, precision or scale, so those stay nil.
type ColumnDescriptor struct {
	Name         string
	TypeName     string
	DisplaySize  *int
	InternalSize *int
	Precision    *int
	Scale        *int
	NullOK       bool
	Flags        int
	Charset      int
}

// Response is the minimal view of an HTTP response the client consumes.
type Response interface {
	// StatusCode returns the HTTP status code.
	StatusCode() int

	// Text returns the raw response body.
	Text() string

	// JSON decodes the body into v.
	JSON(v any) error
}
