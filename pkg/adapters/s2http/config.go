package s2http

import (
	"fmt"
	"time"

	"github.com/go-viper/mapstructure/v2"
)

// Params holds the adapter settings read from adapter.Config.Params.
type Params struct {
	// Protocol is "http" or "https".
	Protocol string `mapstructure:"protocol"`

	// Version is the API version path segment, e.g. "v1".
	Version string `mapstructure:"version"`

	// Timeout bounds each HTTP request. Accepts Go durations ("30s").
	Timeout time.Duration `mapstructure:"timeout"`

	// Headers are added to every request.
	Headers map[string]string `mapstructure:"headers"`

	// MaxOpenConns caps the sql.DB pool. Zero leaves it unlimited.
	MaxOpenConns int `mapstructure:"max_open_conns"`
}

// ParseParams decodes raw params. Unknown keys are rejected so typos in
// s2http.yaml surface as errors.
func ParseParams(raw map[string]any) (*Params, error) {
	p := &Params{}
	if len(raw) == 0 {
		return p, nil
	}

	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           p,
		ErrorUnused:      true,
		WeaklyTypedInput: true,
		DecodeHook:       mapstructure.StringToTimeDurationHookFunc(),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create params decoder: %w", err)
	}
	if err := dec.Decode(raw); err != nil {
		return nil, fmt.Errorf("invalid s2http params: %w", err)
	}

	if p.Protocol != "" && p.Protocol != "http" && p.Protocol != "https" {
		return nil, fmt.Errorf("invalid s2http params: protocol must be http or https, got %q", p.Protocol)
	}
	return p, nil
}
