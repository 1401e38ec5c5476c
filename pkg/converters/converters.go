// Package converters maps canonical column type names to functions that turn
// raw JSON scalars into Go values.
//
// Values arrive from a JSON decoder configured with UseNumber, so numbers are
// json.Number and everything else is a string, bool, nil, or a nested
// JSON structure. A converter is always handed nil for SQL NULL and must
// return nil for it.
package converters

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"
)

// Converter turns one raw JSON value into a typed Go value.
type Converter func(any) (any, error)

// Registry maps canonical type names to converters.
// It is safe for concurrent use.
type Registry struct {
	mu         sync.RWMutex
	converters map[string]Converter
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{converters: make(map[string]Converter)}
}

// Register adds or replaces the converter for a type name.
func (r *Registry) Register(name string, conv Converter) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.converters[strings.ToUpper(name)] = conv
}

// Get retrieves the converter registered for a type name.
func (r *Registry) Get(name string) (Converter, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	conv, ok := r.converters[strings.ToUpper(name)]
	return conv, ok
}

// Lookup returns the converter for a type name, or Identity when none is
// registered.
func (r *Registry) Lookup(name string) Converter {
	if conv, ok := r.Get(name); ok {
		return conv
	}
	return Identity
}

// Names returns all registered type names (sorted).
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.converters))
	for name := range r.converters {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Clone returns an independent copy of the registry.
func (r *Registry) Clone() *Registry {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c := NewRegistry()
	for name, conv := range r.converters {
		c.converters[name] = conv
	}
	return c
}

var (
	defaultOnce     sync.Once
	defaultRegistry *Registry
)

// Default returns the shared registry pre-populated with converters for
// every type the server reports.
func Default() *Registry {
	defaultOnce.Do(func() {
		r := NewRegistry()
		for _, name := range []string{"TINYINT", "SMALLINT", "MEDIUMINT", "INT", "BIGINT", "YEAR"} {
			r.Register(name, ToInt)
		}
		for _, name := range []string{"FLOAT", "DOUBLE"} {
			r.Register(name, ToFloat)
		}
		r.Register("DECIMAL", ToDecimalString)
		r.Register("DATE", ToDate)
		r.Register("DATETIME", ToDatetime)
		r.Register("TIMESTAMP", ToDatetime)
		r.Register("TIME", ToDuration)
		for _, name := range []string{"BIT", "BINARY", "VARBINARY", "TINYBLOB", "MEDIUMBLOB", "LONGBLOB", "BLOB", "BSON"} {
			r.Register(name, ToBytes)
		}
		r.Register("JSON", ToJSON)
		r.Register("SET", ToSet)
		for _, name := range []string{"CHAR", "VARCHAR", "TEXT", "TINYTEXT", "MEDIUMTEXT", "LONGTEXT", "ENUM", "GEOGRAPHY", "VECTOR"} {
			r.Register(name, ToString)
		}
		r.Register("NULL", func(any) (any, error) { return nil, nil })
		defaultRegistry = r
	})
	return defaultRegistry
}

// Identity returns the value unchanged.
func Identity(v any) (any, error) {
	return v, nil
}

// ToInt converts integer columns to int64, or uint64 when the value exceeds
// the int64 range (BIGINT UNSIGNED).
func ToInt(v any) (any, error) {
	switch x := v.(type) {
	case nil:
		return nil, nil
	case json.Number:
		return parseInt(x.String())
	case string:
		return parseInt(x)
	case float64:
		if x != math.Trunc(x) {
			return nil, fmt.Errorf("non-integer value %v", x)
		}
		return int64(x), nil
	case bool:
		if x {
			return int64(1), nil
		}
		return int64(0), nil
	case int64, uint64:
		return x, nil
	default:
		return nil, fmt.Errorf("cannot convert %T to integer", v)
	}
}

func parseInt(s string) (any, error) {
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return n, nil
	}
	u, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid integer %q", s)
	}
	return u, nil
}

// ToFloat converts FLOAT and DOUBLE columns to float64.
func ToFloat(v any) (any, error) {
	switch x := v.(type) {
	case nil:
		return nil, nil
	case json.Number:
		return x.Float64()
	case string:
		f, err := strconv.ParseFloat(x, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid float %q", x)
		}
		return f, nil
	case float64:
		return x, nil
	default:
		return nil, fmt.Errorf("cannot convert %T to float", v)
	}
}

// ToDecimalString keeps DECIMAL values as their exact decimal text.
func ToDecimalString(v any) (any, error) {
	switch x := v.(type) {
	case nil:
		return nil, nil
	case json.Number:
		return x.String(), nil
	case string:
		return x, nil
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64), nil
	default:
		return nil, fmt.Errorf("cannot convert %T to decimal", v)
	}
}

// ToString converts character columns to string.
func ToString(v any) (any, error) {
	switch x := v.(type) {
	case nil:
		return nil, nil
	case string:
		return x, nil
	case json.Number:
		return x.String(), nil
	default:
		return fmt.Sprint(x), nil
	}
}

// ToBytes decodes base64 encoded binary columns.
func ToBytes(v any) (any, error) {
	switch x := v.(type) {
	case nil:
		return nil, nil
	case string:
		b, err := base64.StdEncoding.DecodeString(x)
		if err != nil {
			return nil, fmt.Errorf("invalid base64 value: %w", err)
		}
		return b, nil
	default:
		return nil, fmt.Errorf("cannot convert %T to bytes", v)
	}
}

// ToJSON decodes JSON columns. The API sends them either as already
// structured values or as JSON text.
func ToJSON(v any) (any, error) {
	s, ok := v.(string)
	if !ok {
		return v, nil
	}
	dec := json.NewDecoder(strings.NewReader(s))
	dec.UseNumber()
	var out any
	if err := dec.Decode(&out); err != nil {
		return nil, fmt.Errorf("invalid JSON value: %w", err)
	}
	return out, nil
}

// ToSet splits SET columns into their members.
func ToSet(v any) (any, error) {
	switch x := v.(type) {
	case nil:
		return nil, nil
	case string:
		if x == "" {
			return []string{}, nil
		}
		return strings.Split(x, ","), nil
	default:
		return nil, fmt.Errorf("cannot convert %T to set", v)
	}
}

const (
	dateLayout     = "2006-01-02"
	datetimeLayout = "2006-01-02 15:04:05.999999"
)

// ToDate parses DATE columns. Values that are not valid dates, such as the
// zero date "0000-00-00", are returned unchanged.
func ToDate(v any) (any, error) {
	s, ok := v.(string)
	if !ok {
		return v, nil
	}
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return s, nil
	}
	return t, nil
}

// ToDatetime parses DATETIME and TIMESTAMP columns as UTC. Invalid values are
// returned unchanged.
func ToDatetime(v any) (any, error) {
	s, ok := v.(string)
	if !ok {
		return v, nil
	}
	layout := datetimeLayout
	if strings.Contains(s, "T") {
		layout = "2006-01-02T15:04:05.999999"
	}
	t, err := time.Parse(layout, s)
	if err != nil {
		if d, derr := time.Parse(dateLayout, s); derr == nil {
			return d, nil
		}
		return s, nil
	}
	return t, nil
}

// ToDuration parses TIME columns ("-838:59:59.000000") into a time.Duration.
// Invalid values are returned unchanged.
func ToDuration(v any) (any, error) {
	s, ok := v.(string)
	if !ok {
		return v, nil
	}
	d, err := parseTime(s)
	if err != nil {
		return s, nil
	}
	return d, nil
}

func parseTime(s string) (time.Duration, error) {
	neg := strings.HasPrefix(s, "-")
	s = strings.TrimPrefix(s, "-")

	parts := strings.Split(s, ":")
	if len(parts) != 3 {
		return 0, fmt.Errorf("invalid time %q", s)
	}
	hours, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0, err
	}
	minutes, err := strconv.Atoi(parts[1])
	if err != nil {
		return 0, err
	}
	secPart, fracPart, _ := strings.Cut(parts[2], ".")
	seconds, err := strconv.Atoi(secPart)
	if err != nil {
		return 0, err
	}

	var micros int
	if fracPart != "" {
		if len(fracPart) > 6 {
			fracPart = fracPart[:6]
		}
		fracPart += strings.Repeat("0", 6-len(fracPart))
		if micros, err = strconv.Atoi(fracPart); err != nil {
			return 0, err
		}
	}

	d := time.Duration(hours)*time.Hour +
		time.Duration(minutes)*time.Minute +
		time.Duration(seconds)*time.Second +
		time.Duration(micros)*time.Microsecond
	if neg {
		d = -d
	}
	return d, nil
}
