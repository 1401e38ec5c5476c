package driver

import (
	"context"
	"database/sql/driver"
	"errors"
	"fmt"

	"github.com/leapstack-labs/s2http/pkg/dbapi"
)

// ErrTransactionsNotSupported is returned by Begin; every statement is
// committed on its own.
var ErrTransactionsNotSupported = errors.New("s2http: transactions are not supported")

// Conn adapts a dbapi.Connection to database/sql.
type Conn struct {
	conn *dbapi.Connection
}

// Prepare records the query; nothing is sent to the server until execution.
func (c *Conn) Prepare(query string) (driver.Stmt, error) {
	return c.PrepareContext(context.Background(), query)
}

// PrepareContext implements driver.ConnPrepareContext.
func (c *Conn) PrepareContext(_ context.Context, query string) (driver.Stmt, error) {
	if c.conn.Closed() {
		return nil, driver.ErrBadConn
	}
	return &Stmt{conn: c, query: query}, nil
}

// Close closes the connection.
func (c *Conn) Close() error {
	return c.conn.Close()
}

// Begin always fails.
func (c *Conn) Begin() (driver.Tx, error) {
	return nil, ErrTransactionsNotSupported
}

// BeginTx always fails.
func (c *Conn) BeginTx(_ context.Context, _ driver.TxOptions) (driver.Tx, error) {
	return nil, ErrTransactionsNotSupported
}

// QueryContext executes query and buffers its rows.
func (c *Conn) QueryContext(ctx context.Context, query string, args []driver.NamedValue) (driver.Rows, error) {
	cur, err := c.execute(ctx, query, args)
	if err != nil {
		return nil, err
	}
	return newRows(cur), nil
}

// ExecContext executes a statement and reports the affected row count.
func (c *Conn) ExecContext(ctx context.Context, query string, args []driver.NamedValue) (driver.Result, error) {
	cur, err := c.execute(ctx, query, args)
	if err != nil {
		return nil, err
	}
	defer func() { _ = cur.Close() }()
	return Result{rowsAffected: cur.RowCount()}, nil
}

func (c *Conn) execute(ctx context.Context, query string, args []driver.NamedValue) (*dbapi.Cursor, error) {
	if c.conn.Closed() {
		return nil, driver.ErrBadConn
	}
	values, err := positional(args)
	if err != nil {
		return nil, err
	}
	cur := c.conn.Cursor()
	if err := cur.Execute(ctx, query, values...); err != nil {
		_ = cur.Close()
		return nil, err
	}
	return cur, nil
}

// Ping checks the server health endpoint.
func (c *Conn) Ping(ctx context.Context) error {
	if c.conn.Closed() {
		return driver.ErrBadConn
	}
	return c.conn.Ping(ctx)
}

// IsValid reports whether the connection may be reused by the pool.
func (c *Conn) IsValid() bool {
	return !c.conn.Closed()
}

// positional converts driver arguments into qmark parameters.
func positional(args []driver.NamedValue) ([]any, error) {
	values := make([]any, len(args))
	for i, arg := range args {
		if arg.Name != "" {
			return nil, fmt.Errorf("s2http: named parameter %q is not supported, use ? placeholders", arg.Name)
		}
		values[i] = arg.Value
	}
	return values, nil
}

var (
	_ driver.Conn               = (*Conn)(nil)
	_ driver.ConnBeginTx        = (*Conn)(nil)
	_ driver.ConnPrepareContext = (*Conn)(nil)
	_ driver.QueryerContext     = (*Conn)(nil)
	_ driver.ExecerContext      = (*Conn)(nil)
	_ driver.Pinger             = (*Conn)(nil)
	_ driver.Validator          = (*Conn)(nil)
)
