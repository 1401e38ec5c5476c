package core

import (
	"context"
	"database/sql"
)

// Adapter defines the interface that all database adapters must implement.
type Adapter interface {
	// Connect establishes a connection to the database.
	Connect(ctx context.Context, cfg AdapterConfig) error

	// Close closes the database connection.
	Close() error

	// Exec executes a SQL statement that doesn't return rows.
	Exec(ctx context.Context, sql string, args ...any) error

	// Query executes a SQL statement that returns rows.
	Query(ctx context.Context, sql string, args ...any) (*Rows, error)

	// ListTables returns the base tables of a schema, sorted by name. An
	// empty schema means the connection's current database.
	ListTables(ctx context.Context, schema string) ([]string, error)

	// GetTableMetadata retrieves metadata for a table.
	GetTableMetadata(ctx context.Context, table string) (*TableMetadata, error)

	// LoadCSV loads data from a CSV file into a table.
	LoadCSV(ctx context.Context, tableName, filePath string) error

	// DialectName returns the SQL dialect spoken by the adapter.
	DialectName() string
}

// AdapterConfig holds configuration for connecting to a database.
type AdapterConfig struct {
	Type     string
	Host     string
	Port     int
	Database string
	Username string
	Password string
	Params   map[string]any
}

// AdapterConfigFromTarget builds an AdapterConfig from a target.
// Protocol and Version travel as params so adapters decode them alongside
// their own settings.
func AdapterConfigFromTarget(t *TargetConfig) AdapterConfig {
	if t == nil {
		return AdapterConfig{}
	}
	params := make(map[string]any, len(t.Params)+2)
	for k, v := range t.Params {
		params[k] = v
	}
	if t.Protocol != "" {
		params["protocol"] = t.Protocol
	}
	if t.Version != "" {
		params["version"] = t.Version
	}
	return AdapterConfig{
		Type:     t.Type,
		Host:     t.Host,
		Port:     t.Port,
		Database: t.Database,
		Username: t.User,
		Password: t.Password,
		Params:   params,
	}
}

// Column represents a column in a database table.
type Column struct {
	Name       string
	Type       string
	Nullable   bool
	PrimaryKey bool
	Position   int
}

// TableMetadata holds metadata about a database table.
type TableMetadata struct {
	Schema   string
	Name     string
	Columns  []Column
	RowCount int64
}

// Rows wraps sql.Rows to provide a consistent interface.
type Rows struct {
	*sql.Rows
}
