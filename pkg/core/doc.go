// Package core defines the shared language of the s2http client.
//
// This package contains:
//   - Result shapes (Row, ColumnDescriptor)
//   - The transport response contract (Response)
//   - Configuration types (TargetConfig, AdapterConfig)
//   - Table metadata returned by adapters
//
// The Golden Rule: pkg/core imports ONLY stdlib.
// All other packages depend on core, not the reverse.
package core
