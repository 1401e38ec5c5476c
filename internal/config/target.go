package config

import (
	"fmt"
	"maps"
	"os"
	"regexp"
	"strings"

	"github.com/leapstack-labs/s2http/pkg/adapter"
	"github.com/leapstack-labs/s2http/pkg/core"
)

// ValidateTarget checks the target against the adapter registry and the
// supported protocols.
func ValidateTarget(t *core.TargetConfig) error {
	if t == nil {
		return fmt.Errorf("target is required")
	}
	if t.Type == "" {
		return fmt.Errorf("target type is required")
	}
	if !adapter.IsRegistered(strings.ToLower(t.Type)) {
		return &adapter.UnknownAdapterError{
			Type:      t.Type,
			Available: adapter.ListAdapters(),
		}
	}
	if t.Protocol != "" && t.Protocol != "http" && t.Protocol != "https" {
		return fmt.Errorf("target protocol must be http or https, got %q", t.Protocol)
	}
	if t.Port < 0 || t.Port > 65535 {
		return fmt.Errorf("target port %d out of range", t.Port)
	}
	return nil
}

// MergeTarget returns base with the non-zero fields of override applied.
// Params are merged key by key. Neither argument is modified.
func MergeTarget(base, override *core.TargetConfig) *core.TargetConfig {
	if base == nil && override == nil {
		return nil
	}
	if base == nil {
		base = &core.TargetConfig{}
	}
	merged := *base
	merged.Params = maps.Clone(base.Params)
	if override == nil {
		return &merged
	}

	if override.Type != "" {
		merged.Type = override.Type
	}
	if override.Host != "" {
		merged.Host = override.Host
	}
	if override.Port != 0 {
		merged.Port = override.Port
	}
	if override.User != "" {
		merged.User = override.User
	}
	if override.Password != "" {
		merged.Password = override.Password
	}
	if override.Database != "" {
		merged.Database = override.Database
	}
	if override.Protocol != "" {
		merged.Protocol = override.Protocol
	}
	if override.Version != "" {
		merged.Version = override.Version
	}
	if len(override.Params) > 0 {
		if merged.Params == nil {
			merged.Params = make(map[string]any, len(override.Params))
		}
		maps.Copy(merged.Params, override.Params)
	}
	return &merged
}

var envVarPattern = regexp.MustCompile(`\$\{([^}]+)\}`)

// ExpandEnvVars replaces ${VAR} with the variable's value. Unset variables
// are left as written.
func ExpandEnvVars(s string) string {
	return envVarPattern.ReplaceAllStringFunc(s, func(match string) string {
		if val, ok := os.LookupEnv(match[2 : len(match)-1]); ok {
			return val
		}
		return match
	})
}

// ExpandTargetEnvVars expands ${VAR} in the target's host, credentials and
// database.
func ExpandTargetEnvVars(t *core.TargetConfig) {
	if t == nil {
		return
	}
	t.Host = ExpandEnvVars(t.Host)
	t.User = ExpandEnvVars(t.User)
	t.Password = ExpandEnvVars(t.Password)
	t.Database = ExpandEnvVars(t.Database)
}
