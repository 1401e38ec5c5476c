package converters

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault_ConvertsByTypeName(t *testing.T) {
	tests := []struct {
		typeName string
		input    any
		want     any
	}{
		{"BIGINT", json.Number("42"), int64(42)},
		{"BIGINT", json.Number("18446744073709551615"), uint64(18446744073709551615)},
		{"INT", "7", int64(7)},
		{"TINYINT", true, int64(1)},
		{"YEAR", json.Number("2024"), int64(2024)},
		{"DOUBLE", json.Number("1.5"), 1.5},
		{"FLOAT", "2.25", 2.25},
		{"DECIMAL", json.Number("12345678901234567890.12"), "12345678901234567890.12"},
		{"VARCHAR", "hello", "hello"},
		{"ENUM", "small", "small"},
		{"DATE", "2024-03-01", time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)},
		{"DATE", "0000-00-00", "0000-00-00"},
		{"DATETIME", "2024-03-01 12:30:45.123456", time.Date(2024, 3, 1, 12, 30, 45, 123456000, time.UTC)},
		{"TIMESTAMP", "2024-03-01 12:30:45", time.Date(2024, 3, 1, 12, 30, 45, 0, time.UTC)},
		{"TIME", "-01:02:03.5", -(time.Hour + 2*time.Minute + 3*time.Second + 500*time.Millisecond)},
		{"TIME", "838:59:59", 838*time.Hour + 59*time.Minute + 59*time.Second},
		{"BLOB", "aGVsbG8=", []byte("hello")},
		{"SET", "a,b", []string{"a", "b"}},
		{"SET", "", []string{}},
		{"JSON", `{"a":1}`, map[string]any{"a": json.Number("1")}},
		{"JSON", map[string]any{"b": true}, map[string]any{"b": true}},
	}

	for _, tt := range tests {
		t.Run(tt.typeName, func(t *testing.T) {
			conv := Default().Lookup(tt.typeName)
			got, err := conv(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDefault_NilStaysNil(t *testing.T) {
	for _, name := range Default().Names() {
		got, err := Default().Lookup(name)(nil)
		require.NoError(t, err, name)
		assert.Nil(t, got, name)
	}
}

func TestConverters_Errors(t *testing.T) {
	tests := []struct {
		name  string
		conv  Converter
		input any
	}{
		{"int from garbage", ToInt, "abc"},
		{"int from fraction", ToInt, 1.5},
		{"int from slice", ToInt, []any{}},
		{"float from garbage", ToFloat, "x"},
		{"bytes from bad base64", ToBytes, "!!!"},
		{"json from bad text", ToJSON, "{"},
		{"set from number", ToSet, json.Number("1")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.conv(tt.input)
			assert.Error(t, err)
		})
	}
}

func TestRegistry(t *testing.T) {
	r := NewRegistry()
	_, ok := r.Get("INT")
	assert.False(t, ok)

	// unregistered names fall back to identity
	got, err := r.Lookup("INT")(json.Number("5"))
	require.NoError(t, err)
	assert.Equal(t, json.Number("5"), got)

	r.Register("int", ToInt)
	_, ok = r.Get("INT")
	assert.True(t, ok, "names are case-insensitive")
	assert.Equal(t, []string{"INT"}, r.Names())

	clone := r.Clone()
	clone.Register("DOUBLE", ToFloat)
	assert.Equal(t, []string{"INT"}, r.Names(), "clone must not affect the original")
	assert.Equal(t, []string{"DOUBLE", "INT"}, clone.Names())
}

func TestDefault_IsShared(t *testing.T) {
	assert.Same(t, Default(), Default())
	assert.Contains(t, Default().Names(), "BIGINT")
}
