package adapter

import (
	"context"
	"database/sql"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/leapstack-labs/s2http/pkg/core"
)

// ErrNotConnected is returned by BaseSQLAdapter methods before Connect.
var ErrNotConnected = errors.New("database connection not established")

// BaseSQLAdapter implements the database/sql parts of Adapter. Concrete
// adapters embed it and set DB in Connect.
type BaseSQLAdapter struct {
	DB     *sql.DB
	Cfg    core.AdapterConfig
	Logger *slog.Logger
}

func (b *BaseSQLAdapter) log() *slog.Logger {
	if b.Logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return b.Logger
}

// Close closes the database handle.
func (b *BaseSQLAdapter) Close() error {
	if b.DB == nil {
		return nil
	}
	b.log().Debug("closing database connection")
	return b.DB.Close()
}

// Exec runs a statement that returns no rows.
func (b *BaseSQLAdapter) Exec(ctx context.Context, query string, args ...any) error {
	if b.DB == nil {
		return ErrNotConnected
	}
	if _, err := b.DB.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to execute SQL: %w", err)
	}
	return nil
}

// Query runs a statement that returns rows. The caller closes the result.
func (b *BaseSQLAdapter) Query(ctx context.Context, query string, args ...any) (*core.Rows, error) {
	if b.DB == nil {
		return nil, ErrNotConnected
	}
	//nolint:rowserrcheck // rows.Err() is checked by the caller after iteration
	rows, err := b.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to execute query: %w", err)
	}
	return &core.Rows{Rows: rows}, nil
}

// IsConnected reports whether Connect has set a database handle.
func (b *BaseSQLAdapter) IsConnected() bool {
	return b.DB != nil
}

// ParseQualifiedName splits "schema.table". A bare table name gets
// defaultSchema.
func ParseQualifiedName(table, defaultSchema string) (schema, name string) {
	if s, n, ok := strings.Cut(table, "."); ok {
		return s, n
	}
	return defaultSchema, table
}

// ListTablesCommon lists base tables from information_schema.tables. An
// empty schema selects DATABASE().
func (b *BaseSQLAdapter) ListTablesCommon(ctx context.Context, schema string) ([]string, error) {
	if b.DB == nil {
		return nil, ErrNotConnected
	}

	query := `SELECT table_name FROM information_schema.tables
		WHERE table_schema = ? AND table_type = 'BASE TABLE'
		ORDER BY table_name`
	args := []any{schema}
	if schema == "" {
		query = strings.Replace(query, "table_schema = ?", "table_schema = DATABASE()", 1)
		args = nil
	}

	rows, err := b.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list tables: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var tables []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("failed to scan table name: %w", err)
		}
		tables = append(tables, name)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating tables: %w", err)
	}
	return tables, nil
}

// GetTableMetadataCommon reads column metadata from
// information_schema.columns and counts the table's rows. A failing count
// leaves RowCount at zero.
func (b *BaseSQLAdapter) GetTableMetadataCommon(ctx context.Context, table, defaultSchema string) (*core.TableMetadata, error) {
	if b.DB == nil {
		return nil, ErrNotConnected
	}

	schema, tableName := ParseQualifiedName(table, defaultSchema)

	rows, err := b.DB.QueryContext(ctx, `
		SELECT column_name, data_type, is_nullable, column_key, ordinal_position
		FROM information_schema.columns
		WHERE table_schema = ? AND table_name = ?
		ORDER BY ordinal_position`, schema, tableName)
	if err != nil {
		return nil, fmt.Errorf("failed to query column metadata: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var columns []core.Column
	for rows.Next() {
		var col core.Column
		var nullable, key string
		if err := rows.Scan(&col.Name, &col.Type, &nullable, &key, &col.Position); err != nil {
			return nil, fmt.Errorf("failed to scan column metadata: %w", err)
		}
		col.Nullable = nullable == "YES"
		col.PrimaryKey = key == "PRI"
		columns = append(columns, col)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating column metadata: %w", err)
	}

	if len(columns) == 0 {
		return nil, fmt.Errorf("table %s not found", table)
	}

	var rowCount int64
	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM %s.%s", QuoteIdentifier(schema), QuoteIdentifier(tableName))
	if err := b.DB.QueryRowContext(ctx, countQuery).Scan(&rowCount); err != nil {
		b.log().Debug("row count failed", slog.String("table", table), slog.Any("error", err))
		rowCount = 0
	}

	return &core.TableMetadata{
		Schema:   schema,
		Name:     tableName,
		Columns:  columns,
		RowCount: rowCount,
	}, nil
}

// LoadCSVCommon replaces tableName with a table of TEXT columns named after
// the CSV header, then inserts every record with ? placeholders.
func (b *BaseSQLAdapter) LoadCSVCommon(ctx context.Context, tableName, filePath string) error {
	if b.DB == nil {
		return ErrNotConnected
	}

	file, err := os.Open(filePath) //nolint:gosec // path comes from the user
	if err != nil {
		return fmt.Errorf("failed to open CSV file: %w", err)
	}
	defer func() { _ = file.Close() }()

	reader := csv.NewReader(file)
	headers, err := reader.Read()
	if err != nil {
		return fmt.Errorf("failed to read CSV header: %w", err)
	}

	table := QuoteIdentifier(tableName)
	if err := b.createTextTable(ctx, table, headers); err != nil {
		return fmt.Errorf("failed to create table: %w", err)
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(headers)), ", ")
	insertSQL := fmt.Sprintf("INSERT INTO %s VALUES (%s)", table, placeholders) //nolint:gosec // identifiers are quoted

	loaded := 0
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return fmt.Errorf("failed to read CSV record %d: %w", loaded+1, err)
		}
		args := make([]any, len(record))
		for i, v := range record {
			args[i] = v
		}
		if _, err := b.DB.ExecContext(ctx, insertSQL, args...); err != nil {
			return fmt.Errorf("failed to insert CSV record %d: %w", loaded+1, err)
		}
		loaded++
	}

	b.log().Debug("loaded CSV", slog.String("table", tableName), slog.Int("rows", loaded))
	return nil
}

func (b *BaseSQLAdapter) createTextTable(ctx context.Context, table string, columns []string) error {
	if _, err := b.DB.ExecContext(ctx, "DROP TABLE IF EXISTS "+table); err != nil {
		return err
	}

	colDefs := make([]string, len(columns))
	for i, col := range columns {
		colDefs[i] = QuoteIdentifier(col) + " TEXT"
	}
	_, err := b.DB.ExecContext(ctx, fmt.Sprintf("CREATE TABLE %s (%s)", table, strings.Join(colDefs, ", ")))
	return err
}

// QuoteIdentifier wraps name in backticks, doubling embedded backticks.
// A dotted name is quoted part by part.
func QuoteIdentifier(name string) string {
	parts := strings.Split(name, ".")
	for i, p := range parts {
		parts[i] = "`" + strings.ReplaceAll(p, "`", "``") + "`"
	}
	return strings.Join(parts, ".")
}
