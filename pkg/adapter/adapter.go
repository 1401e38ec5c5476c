// Package adapter holds the database adapter contract used by the CLI and
// the registry that maps target types to adapter implementations.
//
// Concrete adapters live under pkg/adapters and register themselves in
// init(). Import them for side effects:
//
//	import _ "github.com/leapstack-labs/s2http/pkg/adapters/s2http"
package adapter

import "github.com/leapstack-labs/s2http/pkg/core"

// Aliases for the contract types defined in pkg/core.
type (
	// Adapter is the interface every adapter implements.
	Adapter = core.Adapter

	// Config is an alias for core.AdapterConfig.
	Config = core.AdapterConfig

	// Column is an alias for core.Column.
	Column = core.Column

	// Metadata is an alias for core.TableMetadata.
	Metadata = core.TableMetadata

	// Rows is an alias for core.Rows.
	Rows = core.Rows
)
