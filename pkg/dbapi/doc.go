// Package dbapi implements a connection/cursor client for SQL engines that
// expose an HTTP/JSON API instead of a binary wire protocol.
//
// A Connection owns the HTTP session and knows the base URL
// (protocol://host:port/api/version/). Cursors created from it send each
// statement as JSON, either to query/tuples (SELECT and SHOW) or to exec
// (everything else), buffer the converted rows, and hand them out
// forward-only:
//
//	conn, err := dbapi.Connect(dbapi.Config{Host: "db", User: "admin", Password: pw})
//	if err != nil {
//		return err
//	}
//	defer conn.Close()
//
//	cur := conn.Cursor()
//	defer cur.Close()
//
//	if err := cur.Execute(ctx, "SELECT id, name FROM users WHERE id > ?", 10); err != nil {
//		return err
//	}
//	for row, err := range cur.Rows() {
//		...
//	}
//
// Cursors are not safe for concurrent use. Several cursors may share one
// Connection.
package dbapi
