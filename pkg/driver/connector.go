package driver

import (
	"context"
	"database/sql/driver"

	"github.com/leapstack-labs/s2http/pkg/dbapi"
)

// Connector opens connections from a fixed dbapi.Config.
type Connector struct {
	driver *Driver
	cfg    dbapi.Config
}

// NewConnector returns a connector for cfg, for use with sql.OpenDB when the
// configuration carries an HTTP client or logger a DSN cannot express.
func NewConnector(cfg dbapi.Config) *Connector {
	return &Connector{driver: &Driver{}, cfg: cfg}
}

// Connect opens a new dbapi connection.
func (c *Connector) Connect(_ context.Context) (driver.Conn, error) {
	conn, err := dbapi.Connect(c.cfg)
	if err != nil {
		return nil, err
	}
	return &Conn{conn: conn}, nil
}

// Driver returns the underlying Driver.
func (c *Connector) Driver() driver.Driver {
	return c.driver
}

var _ driver.Connector = (*Connector)(nil)
