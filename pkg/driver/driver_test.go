package driver

import (
	"context"
	"database/sql"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"reflect"
	"sync"
	"testing"
	"time"

	"github.com/leapstack-labs/s2http/internal/testutil"
	"github.com/leapstack-labs/s2http/pkg/dbapi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type request struct {
	Path string
	Body map[string]any
}

type server struct {
	srv  *httptest.Server
	mu   sync.Mutex
	reqs []request
}

func newServer(t *testing.T) *server {
	t.Helper()
	s := &server{}
	s.srv = httptest.NewServer(http.HandlerFunc(s.handle))
	t.Cleanup(s.srv.Close)
	return s
}

func (s *server) handle(w http.ResponseWriter, r *http.Request) {
	data, _ := io.ReadAll(r.Body)
	var body map[string]any
	_ = json.Unmarshal(data, &body)

	s.mu.Lock()
	s.reqs = append(s.reqs, request{Path: r.URL.Path, Body: body})
	s.mu.Unlock()

	switch {
	case r.URL.Path == "/ping":
		_, _ = w.Write([]byte("pong"))
	case r.URL.Path == "/api/v1/exec":
		if body["sql"] == "DROP TABLE missing" {
			w.WriteHeader(http.StatusInternalServerError)
			_, _ = w.Write([]byte("Error 1051: Unknown table 'missing'"))
			return
		}
		_, _ = w.Write([]byte(`{"rowsAffected": 2}`))
	case r.URL.Path == "/api/v1/query/tuples":
		_, _ = w.Write([]byte(`{"results":[{
			"columns":[
				{"name":"id","dataType":"BIGINT","nullable":false},
				{"name":"name","dataType":"VARCHAR","nullable":true},
				{"name":"created","dataType":"DATETIME","nullable":true}
			],
			"rows":[[1,"alice","2024-01-02 03:04:05"],[2,null,null]]
		}]}`))
	default:
		http.NotFound(w, r)
	}
}

func (s *server) requests() []request {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]request(nil), s.reqs...)
}

func (s *server) openDB(t *testing.T) *sql.DB {
	t.Helper()
	cfg, err := ParseDSN(s.srv.URL + "/app")
	require.NoError(t, err)
	cfg.HTTPClient = s.srv.Client()
	cfg.Logger = testutil.NewTestLogger(t)

	db := sql.OpenDB(NewConnector(cfg))
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestDriver_Registered(t *testing.T) {
	assert.Contains(t, sql.Drivers(), DriverName)
}

func TestDriver_OpenFromDSN(t *testing.T) {
	s := newServer(t)

	db, err := sql.Open(DriverName, s.srv.URL)
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	require.NoError(t, db.PingContext(context.Background()))
	assert.Equal(t, "/ping", s.requests()[0].Path)
}

func TestDriver_OpenInvalidDSN(t *testing.T) {
	db, err := sql.Open(DriverName, "ftp://nowhere")
	require.Error(t, err)
	assert.Nil(t, db)
}

func TestDriver_Query(t *testing.T) {
	s := newServer(t)
	db := s.openDB(t)

	rows, err := db.QueryContext(context.Background(), "SELECT id, name, created FROM users WHERE id > ?", 0)
	require.NoError(t, err)
	defer func() { _ = rows.Close() }()

	cols, err := rows.Columns()
	require.NoError(t, err)
	assert.Equal(t, []string{"id", "name", "created"}, cols)

	types, err := rows.ColumnTypes()
	require.NoError(t, err)
	assert.Equal(t, "BIGINT", types[0].DatabaseTypeName())
	assert.Equal(t, reflect.TypeOf(int64(0)), types[0].ScanType())
	nullable, ok := types[1].Nullable()
	assert.True(t, ok)
	assert.True(t, nullable)
	assert.Equal(t, reflect.TypeOf(time.Time{}), types[2].ScanType())

	type user struct {
		ID      int64
		Name    sql.NullString
		Created sql.NullTime
	}
	var got []user
	for rows.Next() {
		var u user
		require.NoError(t, rows.Scan(&u.ID, &u.Name, &u.Created))
		got = append(got, u)
	}
	require.NoError(t, rows.Err())

	require.Len(t, got, 2)
	assert.Equal(t, int64(1), got[0].ID)
	assert.Equal(t, "alice", got[0].Name.String)
	assert.Equal(t, time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC), got[0].Created.Time)
	assert.False(t, got[1].Name.Valid)
	assert.False(t, got[1].Created.Valid)

	req := s.requests()[0]
	assert.Equal(t, "/api/v1/query/tuples", req.Path)
	assert.Equal(t, "app", req.Body["database"])
	assert.Equal(t, []any{float64(0)}, req.Body["args"])
}

func TestDriver_Exec(t *testing.T) {
	s := newServer(t)
	db := s.openDB(t)

	res, err := db.ExecContext(context.Background(), "UPDATE users SET name = ? WHERE id = ?", "bob", 2)
	require.NoError(t, err)

	n, err := res.RowsAffected()
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	_, err = res.LastInsertId()
	assert.ErrorIs(t, err, ErrLastInsertIDNotSupported)

	req := s.requests()[0]
	assert.Equal(t, "/api/v1/exec", req.Path)
	assert.Equal(t, []any{"bob", float64(2)}, req.Body["args"])
}

func TestDriver_PreparedStatement(t *testing.T) {
	s := newServer(t)
	db := s.openDB(t)

	stmt, err := db.PrepareContext(context.Background(), "INSERT INTO users VALUES (?, ?)")
	require.NoError(t, err)
	defer func() { _ = stmt.Close() }()

	for i, name := range []string{"carol", "dave"} {
		_, err := stmt.Exec(i+3, name)
		require.NoError(t, err)
	}

	reqs := s.requests()
	require.Len(t, reqs, 2)
	assert.Equal(t, []any{float64(4), "dave"}, reqs[1].Body["args"])
}

func TestDriver_ServerError(t *testing.T) {
	s := newServer(t)
	db := s.openDB(t)

	_, err := db.ExecContext(context.Background(), "DROP TABLE missing")
	require.Error(t, err)

	var dbErr *dbapi.Error
	require.ErrorAs(t, err, &dbErr)
	assert.Equal(t, 1051, dbErr.Code)
	assert.Equal(t, "Unknown table 'missing'", dbErr.Message)
}

func TestDriver_NamedArgsRejected(t *testing.T) {
	s := newServer(t)
	db := s.openDB(t)

	_, err := db.ExecContext(context.Background(), "DELETE FROM users WHERE id = :id", sql.Named("id", 1))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "named parameter")
	assert.Empty(t, s.requests())
}

func TestDriver_TransactionsUnsupported(t *testing.T) {
	s := newServer(t)
	db := s.openDB(t)

	_, err := db.BeginTx(context.Background(), nil)
	assert.ErrorIs(t, err, ErrTransactionsNotSupported)
}

func TestScanType(t *testing.T) {
	tests := []struct {
		typeName string
		want     reflect.Type
	}{
		{"INT", typeInt64},
		{"DOUBLE", typeFloat64},
		{"DECIMAL", typeString},
		{"TIME", typeDuration},
		{"LONGBLOB", typeBytes},
		{"SET", typeStrings},
		{"JSON", typeAny},
		{"GEOGRAPHY", typeString},
	}

	for _, tt := range tests {
		t.Run(tt.typeName, func(t *testing.T) {
			assert.Equal(t, tt.want, scanType(tt.typeName))
		})
	}
}
