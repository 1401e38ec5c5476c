// Package types resolves the column type codes reported by the server into
// canonical type names.
//
// The HTTP API reports a column's dataType either as a protocol type code or
// as a declared type name such as "BIGINT UNSIGNED" or "VARCHAR(255)". Both
// forms resolve to the same canonical name, which keys the converter registry.
package types

import (
	"encoding/json"
	"fmt"
	"strings"
)

// ColumnType is a protocol-level column type code.
type ColumnType int

// Column type codes, numbered as on the wire.
const (
	Decimal    ColumnType = 0
	Tiny       ColumnType = 1
	Short      ColumnType = 2
	Long       ColumnType = 3
	Float      ColumnType = 4
	Double     ColumnType = 5
	Null       ColumnType = 6
	Timestamp  ColumnType = 7
	LongLong   ColumnType = 8
	Int24      ColumnType = 9
	Date       ColumnType = 10
	Time       ColumnType = 11
	Datetime   ColumnType = 12
	Year       ColumnType = 13
	Varchar    ColumnType = 15
	Bit        ColumnType = 16
	Vector     ColumnType = 1001
	BSON       ColumnType = 1002
	JSON       ColumnType = 245
	NewDecimal ColumnType = 246
	Enum       ColumnType = 247
	Set        ColumnType = 248
	TinyBlob   ColumnType = 249
	MediumBlob ColumnType = 250
	LongBlob   ColumnType = 251
	Blob       ColumnType = 252
	VarString  ColumnType = 253
	String     ColumnType = 254
	Geometry   ColumnType = 255
)

var codeNames = map[ColumnType]string{
	Decimal:    "DECIMAL",
	Tiny:       "TINYINT",
	Short:      "SMALLINT",
	Long:       "INT",
	Float:      "FLOAT",
	Double:     "DOUBLE",
	Null:       "NULL",
	Timestamp:  "TIMESTAMP",
	LongLong:   "BIGINT",
	Int24:      "MEDIUMINT",
	Date:       "DATE",
	Time:       "TIME",
	Datetime:   "DATETIME",
	Year:       "YEAR",
	Varchar:    "VARCHAR",
	Bit:        "BIT",
	Vector:     "VECTOR",
	BSON:       "BSON",
	JSON:       "JSON",
	NewDecimal: "DECIMAL",
	Enum:       "ENUM",
	Set:        "SET",
	TinyBlob:   "TINYBLOB",
	MediumBlob: "MEDIUMBLOB",
	LongBlob:   "LONGBLOB",
	Blob:       "BLOB",
	VarString:  "VARBINARY",
	String:     "CHAR",
	Geometry:   "GEOGRAPHY",
}

// aliases maps declared type names onto their canonical form.
var aliases = map[string]string{
	"INTEGER":        "INT",
	"INT4":           "INT",
	"INT8":           "BIGINT",
	"BOOL":           "TINYINT",
	"BOOLEAN":        "TINYINT",
	"DEC":            "DECIMAL",
	"NUMERIC":        "DECIMAL",
	"FIXED":          "DECIMAL",
	"REAL":           "DOUBLE",
	"FLOAT8":         "DOUBLE",
	"FLOAT4":         "FLOAT",
	"NEWDECIMAL":     "DECIMAL",
	"VAR_STRING":     "VARBINARY",
	"STRING":         "CHAR",
	"LONG":           "INT",
	"LONGLONG":       "BIGINT",
	"TINY":           "TINYINT",
	"SHORT":          "SMALLINT",
	"INT24":          "MEDIUMINT",
	"GEOMETRY":       "GEOGRAPHY",
	"GEOGRAPHYPOINT": "GEOGRAPHY",
}

// Name returns the canonical name of a type code.
func (t ColumnType) Name() string {
	if name, ok := codeNames[t]; ok {
		return name
	}
	return fmt.Sprintf("UNKNOWN(%d)", int(t))
}

// String implements fmt.Stringer.
func (t ColumnType) String() string {
	return t.Name()
}

// UnknownTypeError is returned when a numeric type code has no known name.
type UnknownTypeError struct {
	Code int64
}

func (e *UnknownTypeError) Error() string {
	return fmt.Sprintf("unknown column type code %d", e.Code)
}

// GetName resolves a dataType value into its canonical type name.
// Numeric codes may arrive as Go integers, float64 or json.Number.
// Unrecognized type names are returned upper-cased.
func GetName(v any) (string, error) {
	switch x := v.(type) {
	case ColumnType:
		return lookupCode(int64(x))
	case int:
		return lookupCode(int64(x))
	case int32:
		return lookupCode(int64(x))
	case int64:
		return lookupCode(x)
	case float64:
		return lookupCode(int64(x))
	case json.Number:
		n, err := x.Int64()
		if err != nil {
			return "", fmt.Errorf("invalid column type code %q: %w", x.String(), err)
		}
		return lookupCode(n)
	case string:
		return normalizeName(x), nil
	case nil:
		return "", fmt.Errorf("missing column type")
	default:
		return "", fmt.Errorf("unsupported column type value %T", v)
	}
}

func lookupCode(code int64) (string, error) {
	name, ok := codeNames[ColumnType(code)]
	if !ok {
		return "", &UnknownTypeError{Code: code}
	}
	return name, nil
}

// normalizeName upper-cases a declared type and drops length/precision
// suffixes and attribute words: "bigint(20) unsigned" -> "BIGINT".
func normalizeName(s string) string {
	name := strings.ToUpper(strings.TrimSpace(s))
	if i := strings.IndexByte(name, '('); i >= 0 {
		name = name[:i]
	}
	if fields := strings.Fields(name); len(fields) > 0 {
		name = fields[0]
	}
	if canonical, ok := aliases[name]; ok {
		return canonical
	}
	return name
}
