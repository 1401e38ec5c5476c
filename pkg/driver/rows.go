package driver

import (
	"database/sql/driver"
	"errors"
	"io"
	"reflect"
	"time"

	"github.com/leapstack-labs/s2http/pkg/core"
	"github.com/leapstack-labs/s2http/pkg/dbapi"
)

// Rows streams a cursor's buffered result set.
type Rows struct {
	cur         *dbapi.Cursor
	columns     []string
	description []core.ColumnDescriptor
}

func newRows(cur *dbapi.Cursor) *Rows {
	// the cursor drops its description once drained, so keep a copy
	description := cur.Description()
	columns := make([]string, len(description))
	for i, col := range description {
		columns[i] = col.Name
	}
	return &Rows{cur: cur, columns: columns, description: description}
}

// Columns returns the column names.
func (r *Rows) Columns() []string {
	return r.columns
}

// Close releases the cursor.
func (r *Rows) Close() error {
	return r.cur.Close()
}

// Next copies the next row into dest, returning io.EOF after the last row.
func (r *Rows) Next(dest []driver.Value) error {
	row, err := r.cur.FetchOne()
	if errors.Is(err, dbapi.ErrNoMoreRows) {
		return io.EOF
	}
	if err != nil {
		return err
	}
	for i := range dest {
		if i < len(row) {
			dest[i] = row[i]
		}
	}
	return nil
}

// ColumnTypeDatabaseTypeName returns the resolved type name, e.g. "BIGINT".
func (r *Rows) ColumnTypeDatabaseTypeName(index int) string {
	return r.description[index].TypeName
}

// ColumnTypeNullable reports the nullable flag sent by the server.
func (r *Rows) ColumnTypeNullable(index int) (nullable, ok bool) {
	return r.description[index].NullOK, true
}

// ColumnTypeScanType returns the Go type the default converters produce for
// the column.
func (r *Rows) ColumnTypeScanType(index int) reflect.Type {
	return scanType(r.description[index].TypeName)
}

var (
	typeInt64    = reflect.TypeOf(int64(0))
	typeFloat64  = reflect.TypeOf(float64(0))
	typeString   = reflect.TypeOf("")
	typeBytes    = reflect.TypeOf([]byte(nil))
	typeTime     = reflect.TypeOf(time.Time{})
	typeDuration = reflect.TypeOf(time.Duration(0))
	typeStrings  = reflect.TypeOf([]string(nil))
	typeAny      = reflect.TypeOf((*any)(nil)).Elem()
)

func scanType(typeName string) reflect.Type {
	switch typeName {
	case "TINYINT", "SMALLINT", "MEDIUMINT", "INT", "BIGINT", "YEAR":
		return typeInt64
	case "FLOAT", "DOUBLE":
		return typeFloat64
	case "DATE", "DATETIME", "TIMESTAMP":
		return typeTime
	case "TIME":
		return typeDuration
	case "BIT", "BINARY", "VARBINARY", "TINYBLOB", "BLOB", "MEDIUMBLOB", "LONGBLOB", "BSON":
		return typeBytes
	case "SET":
		return typeStrings
	case "JSON", "NULL":
		return typeAny
	default:
		return typeString
	}
}

var (
	_ driver.Rows                           = (*Rows)(nil)
	_ driver.RowsColumnTypeDatabaseTypeName = (*Rows)(nil)
	_ driver.RowsColumnTypeNullable         = (*Rows)(nil)
	_ driver.RowsColumnTypeScanType         = (*Rows)(nil)
)
