// Package config holds target defaults, validation and config-file discovery
// shared by the CLI and library callers that read s2http.yaml.
package config

import (
	"github.com/leapstack-labs/s2http/pkg/core"
	"github.com/leapstack-labs/s2http/pkg/dbapi"
)

// DefaultTargetType is the adapter used when a target names none.
const DefaultTargetType = "s2http"

// ApplyTargetDefaults fills unset target fields. The port follows the
// protocol: 443 for https, otherwise the server's default HTTP API port.
func ApplyTargetDefaults(t *core.TargetConfig) {
	if t == nil {
		return
	}
	if t.Type == "" {
		t.Type = DefaultTargetType
	}
	if t.Host == "" {
		t.Host = dbapi.DefaultHost
	}
	if t.Protocol == "" {
		t.Protocol = dbapi.DefaultProtocol
	}
	if t.Version == "" {
		t.Version = dbapi.DefaultVersion
	}
	if t.Port == 0 {
		if t.Protocol == "https" {
			t.Port = 443
		} else {
			t.Port = dbapi.DefaultPort
		}
	}
}
