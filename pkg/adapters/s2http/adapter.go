// Package s2http provides the adapter for the HTTP SQL API. It opens a
// database/sql handle through the s2http driver.
package s2http

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/leapstack-labs/s2http/pkg/adapter"
	"github.com/leapstack-labs/s2http/pkg/dbapi"
	"github.com/leapstack-labs/s2http/pkg/driver"
)

// Name is the target type this adapter registers under.
const Name = "s2http"

// Adapter implements adapter.Adapter for the HTTP SQL API.
type Adapter struct {
	adapter.BaseSQLAdapter

	// client overrides the HTTP client built from Params.
	client *http.Client
}

// New creates an unconnected adapter. A nil logger discards output.
func New(logger *slog.Logger) *Adapter {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Adapter{
		BaseSQLAdapter: adapter.BaseSQLAdapter{Logger: logger},
	}
}

// WithHTTPClient makes Connect use client instead of building one.
func (a *Adapter) WithHTTPClient(client *http.Client) *Adapter {
	a.client = client
	return a
}

// DialectName returns the SQL dialect spoken by the server.
func (a *Adapter) DialectName() string {
	return "mysql"
}

// Connect opens the database handle and checks the health endpoint.
func (a *Adapter) Connect(ctx context.Context, cfg adapter.Config) error {
	dbCfg, params, err := a.dbapiConfig(cfg)
	if err != nil {
		return err
	}

	a.Logger.Debug("connecting to s2http",
		slog.String("host", dbCfg.Host),
		slog.Int("port", dbCfg.Port),
		slog.String("database", dbCfg.Database))

	db := sql.OpenDB(driver.NewConnector(dbCfg))
	if params.MaxOpenConns > 0 {
		db.SetMaxOpenConns(params.MaxOpenConns)
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to ping s2http: %w", err)
	}

	a.DB = db
	a.Cfg = cfg
	return nil
}

func (a *Adapter) dbapiConfig(cfg adapter.Config) (dbapi.Config, *Params, error) {
	params, err := ParseParams(cfg.Params)
	if err != nil {
		return dbapi.Config{}, nil, err
	}

	client := a.client
	if client == nil {
		client = &http.Client{Timeout: params.Timeout}
	}

	return dbapi.Config{
		Host:       cfg.Host,
		Port:       cfg.Port,
		User:       cfg.Username,
		Password:   cfg.Password,
		Database:   cfg.Database,
		Protocol:   params.Protocol,
		Version:    params.Version,
		HTTPClient: client,
		Headers:    params.Headers,
		Logger:     a.Logger,
	}, params, nil
}

// ListTables lists base tables of schema, or of the target database when
// schema is empty.
func (a *Adapter) ListTables(ctx context.Context, schema string) ([]string, error) {
	if schema == "" {
		schema = a.Cfg.Database
	}
	return a.ListTablesCommon(ctx, schema)
}

// GetTableMetadata describes table. Unqualified names resolve against the
// target database.
func (a *Adapter) GetTableMetadata(ctx context.Context, table string) (*adapter.Metadata, error) {
	return a.GetTableMetadataCommon(ctx, table, a.Cfg.Database)
}

// LoadCSV replaces tableName with the contents of a CSV file. Every column
// is created as TEXT.
func (a *Adapter) LoadCSV(ctx context.Context, tableName, filePath string) error {
	return a.LoadCSVCommon(ctx, tableName, filePath)
}

var _ adapter.Adapter = (*Adapter)(nil)
