package output

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
)

// Result is a rendered result set.
type Result struct {
	Columns []string
	Rows    [][]any
}

// RenderResult writes res in the renderer's effective mode.
func (r *Renderer) RenderResult(res Result) error {
	mode := r.EffectiveMode()
	if mode == ModeJSON {
		return renderJSON(r.out, res)
	}

	if len(res.Rows) == 0 && mode != ModeCSV {
		r.Println("(0 rows)")
		return nil
	}

	t := table.NewWriter()
	t.SetOutputMirror(r.out)
	t.AppendHeader(toRow(res.Columns))
	for _, row := range res.Rows {
		out := make(table.Row, len(row))
		for i, v := range row {
			out[i] = FormatValue(v)
		}
		t.AppendRow(out)
	}

	switch mode {
	case ModeCSV:
		t.RenderCSV()
		return nil
	case ModeMarkdown:
		t.RenderMarkdown()
	default:
		t.SetStyle(table.StyleLight)
		t.Render()
	}
	r.Printf("(%d %s)\n", len(res.Rows), plural(len(res.Rows), "row", "rows"))
	return nil
}

// RenderRecords writes key/value records with fixed headers, such as the
// output of tables or schema. JSON output is the encoding of v.
func (r *Renderer) RenderRecords(headers []string, rows [][]any, v any) error {
	if r.EffectiveMode() == ModeJSON {
		return r.JSON(v)
	}
	return r.RenderResult(Result{Columns: headers, Rows: rows})
}

// JSON writes v as indented JSON.
func (r *Renderer) JSON(v any) error {
	enc := json.NewEncoder(r.out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func renderJSON(w io.Writer, res Result) error {
	records := make([]map[string]any, 0, len(res.Rows))
	for _, row := range res.Rows {
		rec := make(map[string]any, len(res.Columns))
		for i, col := range res.Columns {
			if i < len(row) {
				rec[col] = jsonValue(row[i])
			}
		}
		records = append(records, rec)
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(records)
}

func jsonValue(v any) any {
	switch x := v.(type) {
	case []byte:
		return base64.StdEncoding.EncodeToString(x)
	case time.Duration:
		return formatDuration(x)
	default:
		return v
	}
}

// FormatValue renders a converted column value for text output.
func FormatValue(v any) string {
	switch x := v.(type) {
	case nil:
		return "NULL"
	case string:
		return x
	case []byte:
		return string(x)
	case time.Time:
		if x.Hour() == 0 && x.Minute() == 0 && x.Second() == 0 && x.Nanosecond() == 0 {
			return x.Format(time.DateOnly)
		}
		return x.Format("2006-01-02 15:04:05.999999")
	case time.Duration:
		return formatDuration(x)
	case []string:
		return strings.Join(x, ",")
	case map[string]any, []any:
		b, err := json.Marshal(x)
		if err != nil {
			return fmt.Sprint(x)
		}
		return string(b)
	default:
		return fmt.Sprint(x)
	}
}

// formatDuration prints a TIME value as [-]H:MM:SS[.ffffff].
func formatDuration(d time.Duration) string {
	sign := ""
	if d < 0 {
		sign = "-"
		d = -d
	}
	h := d / time.Hour
	d -= h * time.Hour
	m := d / time.Minute
	d -= m * time.Minute
	s := d / time.Second
	d -= s * time.Second
	out := fmt.Sprintf("%s%d:%02d:%02d", sign, h, m, s)
	if d > 0 {
		out += fmt.Sprintf(".%06d", d/time.Microsecond)
	}
	return out
}

func toRow(cols []string) table.Row {
	row := make(table.Row, len(cols))
	for i, c := range cols {
		row[i] = c
	}
	return row
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}
