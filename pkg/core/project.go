package core

// TargetConfig holds the connection target of the HTTP SQL endpoint.
type TargetConfig struct {
	Type string `koanf:"type" yaml:"type"` // adapter name, "s2http" by default

	Host     string `koanf:"host" yaml:"host"`
	Port     int    `koanf:"port" yaml:"port"`
	User     string `koanf:"user" yaml:"user"`
	Password string `koanf:"password" yaml:"password"`

	// Database is sent with every request as the default database.
	Database string `koanf:"database" yaml:"database"`

	// Protocol is the URL scheme: http or https.
	Protocol string `koanf:"protocol" yaml:"protocol"`

	// Version is the API path segment, e.g. "v1".
	Version string `koanf:"version" yaml:"version"`

	// Params holds adapter-specific configuration
	Params map[string]any `koanf:"params" yaml:"params,omitempty"`
}

// Redacted returns a copy of the target with the password masked.
func (t *TargetConfig) Redacted() *TargetConfig {
	if t == nil {
		return nil
	}
	c := *t
	if c.Password != "" {
		c.Password = "********"
	}
	return &c
}
