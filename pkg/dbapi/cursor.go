package dbapi

import (
	"context"
	"errors"
	"iter"
	"log/slog"
	"regexp"

	"github.com/leapstack-labs/s2http/pkg/converters"
	"github.com/leapstack-labs/s2http/pkg/core"
)

// DefaultArraySize is the number of rows FetchMany returns when no size is given.
const DefaultArraySize = 1000

const (
	queryPath = "query/tuples"
	execPath  = "exec"
)

var queryPattern = regexp.MustCompile(`(?i)^\s*(select|show)\s+`)

// IsQuery reports whether a statement returns rows and is therefore sent to
// the query endpoint.
func IsQuery(sql string) bool {
	return queryPattern.MatchString(sql)
}

// Cursor executes statements on a Connection and buffers their results.
type Cursor struct {
	conn   *Connection
	closed bool

	// ArraySize is the default batch size of FetchMany.
	ArraySize int

	description []core.ColumnDescriptor
	rows        []core.Row
	rowCount    int64
}

func newCursor(conn *Connection) *Cursor {
	return &Cursor{
		conn:      conn,
		ArraySize: DefaultArraySize,
	}
}

type executeRequest struct {
	SQL      string `json:"sql"`
	Args     []any  `json:"args,omitempty"`
	Database string `json:"database,omitempty"`
}

type queryResponse struct {
	Results []struct {
		Columns []struct {
			Name     string `json:"name"`
			DataType any    `json:"dataType"`
			Nullable bool   `json:"nullable"`
		} `json:"columns"`
		Rows [][]any `json:"rows"`
	} `json:"results"`
}

type execResponse struct {
	RowsAffected int64 `json:"rowsAffected"`
}

// Connection returns the bound connection, or nil once the cursor is closed.
func (c *Cursor) Connection() *Connection {
	if c.closed {
		return nil
	}
	return c.conn
}

// Close unbinds the cursor. Calling Close more than once is a no-op.
func (c *Cursor) Close() error {
	if c.closed {
		return nil
	}
	c.closed = true
	c.conn = nil
	c.description = nil
	c.rows = nil
	return nil
}

// Execute runs one statement. SELECT and SHOW statements fill the row buffer
// and description; other statements set RowCount to the affected row count.
// On failure the results of the previous Execute are left untouched.
func (c *Cursor) Execute(ctx context.Context, query string, args ...any) error {
	if c.closed {
		return ErrConnectionClosed
	}

	isQuery := IsQuery(query)
	req := executeRequest{SQL: query, Database: c.conn.database}
	if len(args) > 0 {
		req.Args = args
	}

	path := execPath
	if isQuery {
		path = queryPath
	}

	c.conn.logger.Debug("executing statement", slog.String("endpoint", path), slog.Int("args", len(args)))

	resp, err := c.conn.post(ctx, path, req)
	if err != nil {
		return err
	}
	if resp.StatusCode() >= 400 {
		return newServerError(resp.StatusCode(), resp.Text())
	}

	if !isQuery {
		var out execResponse
		if err := resp.JSON(&out); err != nil {
			return interfaceError("malformed exec response: %v", err)
		}
		c.reset()
		c.rowCount = out.RowsAffected
		return nil
	}

	description, rows, err := c.decodeResultSet(resp)
	if err != nil {
		return err
	}
	c.reset()
	c.description = description
	c.rows = rows
	c.rowCount = int64(len(rows))

	c.conn.logger.Debug("buffered result set", slog.Int("columns", len(description)), slog.Int("rows", len(rows)))
	return nil
}

func (c *Cursor) reset() {
	c.description = nil
	c.rows = nil
	c.rowCount = 0
}

// decodeResultSet parses the first result set and converts every row.
func (c *Cursor) decodeResultSet(resp core.Response) ([]core.ColumnDescriptor, []core.Row, error) {
	var out queryResponse
	if err := resp.JSON(&out); err != nil {
		return nil, nil, interfaceError("malformed query response: %v", err)
	}
	if len(out.Results) == 0 {
		return nil, nil, interfaceError("malformed query response: no result set")
	}
	result := out.Results[0]

	description := make([]core.ColumnDescriptor, len(result.Columns))
	convs := make([]converters.Converter, len(result.Columns))
	for i, col := range result.Columns {
		typeName, err := c.conn.resolve(col.DataType)
		if err != nil {
			return nil, nil, interfaceError("column %q: %v", col.Name, err)
		}
		description[i] = core.ColumnDescriptor{
			Name:     col.Name,
			TypeName: typeName,
			NullOK:   col.Nullable,
		}
		convs[i] = c.conn.converters.Lookup(typeName)
	}

	rows := make([]core.Row, len(result.Rows))
	for i, raw := range result.Rows {
		if len(raw) != len(convs) {
			return nil, nil, interfaceError("row %d has %d values, expected %d", i, len(raw), len(convs))
		}
		row := make(core.Row, len(raw))
		for j, v := range raw {
			converted, err := convs[j](v)
			if err != nil {
				return nil, nil, interfaceError("row %d column %q: %v", i, description[j].Name, err)
			}
			row[j] = converted
		}
		rows[i] = row
	}

	return description, rows, nil
}

// ExecuteMany runs query once per parameter set. Only the state of the last
// execution is kept; results are not aggregated. With no parameter sets the
// query runs once without arguments. Execution stops at the first error.
func (c *Cursor) ExecuteMany(ctx context.Context, query string, paramSeq [][]any) error {
	if len(paramSeq) == 0 {
		return c.Execute(ctx, query)
	}
	for _, params := range paramSeq {
		if err := c.Execute(ctx, query, params...); err != nil {
			return err
		}
	}
	return nil
}

// FetchOne pops the next buffered row. When the buffer is empty it clears the
// description and returns ErrNoMoreRows.
func (c *Cursor) FetchOne() (core.Row, error) {
	if c.closed {
		return nil, ErrConnectionClosed
	}
	if len(c.rows) == 0 {
		c.description = nil
		return nil, ErrNoMoreRows
	}
	row := c.rows[0]
	c.rows[0] = nil
	c.rows = c.rows[1:]
	return row, nil
}

// FetchMany returns up to size rows. A size of zero or less uses ArraySize.
func (c *Cursor) FetchMany(size int) ([]core.Row, error) {
	if c.closed {
		return nil, ErrConnectionClosed
	}
	if size <= 0 {
		size = c.ArraySize
	}
	if size <= 0 {
		size = DefaultArraySize
	}

	out := make([]core.Row, 0, min(size, len(c.rows)))
	for len(out) < size {
		row, err := c.FetchOne()
		if errors.Is(err, ErrNoMoreRows) {
			break
		}
		if err != nil {
			return out, err
		}
		out = append(out, row)
	}
	return out, nil
}

// FetchAll drains the row buffer.
func (c *Cursor) FetchAll() ([]core.Row, error) {
	if c.closed {
		return nil, ErrConnectionClosed
	}
	out := make([]core.Row, 0, len(c.rows))
	for {
		row, err := c.FetchOne()
		if errors.Is(err, ErrNoMoreRows) {
			return out, nil
		}
		if err != nil {
			return out, err
		}
		out = append(out, row)
	}
}

// Rows iterates over the remaining rows, consuming them exactly like
// repeated FetchOne calls. A closed cursor yields ErrConnectionClosed once.
func (c *Cursor) Rows() iter.Seq2[core.Row, error] {
	return func(yield func(core.Row, error) bool) {
		for {
			row, err := c.FetchOne()
			if errors.Is(err, ErrNoMoreRows) {
				return
			}
			if !yield(row, err) || err != nil {
				return
			}
		}
	}
}

// Description returns the column descriptors of the current result set, or
// nil when there is none.
func (c *Cursor) Description() []core.ColumnDescriptor {
	return c.description
}

// RowCount is the number of rows returned by the last query, or the number
// of rows affected by the last statement.
func (c *Cursor) RowCount() int64 {
	return c.rowCount
}

// RowNumber is the number of rows already fetched from the current result.
func (c *Cursor) RowNumber() int64 {
	return c.rowCount - int64(len(c.rows))
}

// LastRowID is never reported by the HTTP API.
func (c *Cursor) LastRowID() (int64, bool) {
	return 0, false
}

// Scroll is not supported: results are forward-only.
func (c *Cursor) Scroll(_ int, _ string) error {
	if c.closed {
		return ErrConnectionClosed
	}
	return notSupported("scroll is not supported")
}

// CallProc is not implemented.
func (c *Cursor) CallProc(_ context.Context, _ string, _ ...any) error {
	if c.closed {
		return ErrConnectionClosed
	}
	return notImplemented("callproc")
}

// NextSet is not implemented: only the first result set is read.
func (c *Cursor) NextSet() (bool, error) {
	if c.closed {
		return false, ErrConnectionClosed
	}
	return false, notImplemented("nextset")
}

// SetInputSizes is accepted and ignored.
func (c *Cursor) SetInputSizes(_ ...int) error {
	if c.closed {
		return ErrConnectionClosed
	}
	return nil
}

// SetOutputSize is accepted and ignored.
func (c *Cursor) SetOutputSize(_ int, _ string) error {
	if c.closed {
		return ErrConnectionClosed
	}
	return nil
}

// IsConnected reports whether the bound connection answers its health
// check. A closed cursor is never connected.
func (c *Cursor) IsConnected(ctx context.Context) (bool, error) {
	if c.closed {
		return false, nil
	}
	return c.conn.IsConnected(ctx)
}
