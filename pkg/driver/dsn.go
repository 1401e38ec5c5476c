package driver

import (
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/leapstack-labs/s2http/pkg/dbapi"
)

// ParseDSN converts a DSN into a dbapi.Config. A missing port defaults to 80
// for http and 443 for https.
func ParseDSN(dsn string) (dbapi.Config, error) {
	u, err := url.Parse(dsn)
	if err != nil {
		return dbapi.Config{}, fmt.Errorf("invalid DSN: %w", err)
	}

	var cfg dbapi.Config
	switch u.Scheme {
	case "http", "https":
		cfg.Protocol = u.Scheme
	default:
		return dbapi.Config{}, fmt.Errorf("invalid DSN: unsupported scheme %q (expected http or https)", u.Scheme)
	}

	cfg.Host = u.Hostname()
	if cfg.Host == "" {
		return dbapi.Config{}, fmt.Errorf("invalid DSN: missing host")
	}

	if p := u.Port(); p != "" {
		port, err := strconv.Atoi(p)
		if err != nil {
			return dbapi.Config{}, fmt.Errorf("invalid DSN port %q: %w", p, err)
		}
		cfg.Port = port
	} else {
		cfg.Port = defaultPort(cfg.Protocol)
	}

	if u.User != nil {
		cfg.User = u.User.Username()
		cfg.Password, _ = u.User.Password()
	}
	cfg.Database = strings.Trim(u.Path, "/")

	q := u.Query()
	cfg.Version = q.Get("version")
	if t := q.Get("timeout"); t != "" {
		timeout, err := time.ParseDuration(t)
		if err != nil {
			return dbapi.Config{}, fmt.Errorf("invalid DSN timeout %q: %w", t, err)
		}
		cfg.HTTPClient = &http.Client{Timeout: timeout}
	}

	return cfg, nil
}

// FormatDSN is the inverse of ParseDSN. Fields without a DSN form, such as
// HTTPClient, Headers and Logger, are dropped.
func FormatDSN(cfg dbapi.Config) string {
	protocol := cfg.Protocol
	if protocol == "" {
		protocol = dbapi.DefaultProtocol
	}
	host := cfg.Host
	if host == "" {
		host = dbapi.DefaultHost
	}

	u := url.URL{Scheme: protocol, Host: host, Path: "/" + cfg.Database}
	if cfg.Port != 0 {
		u.Host = fmt.Sprintf("%s:%d", host, cfg.Port)
	}
	if cfg.User != "" {
		if cfg.Password != "" {
			u.User = url.UserPassword(cfg.User, cfg.Password)
		} else {
			u.User = url.User(cfg.User)
		}
	}
	if cfg.Version != "" {
		u.RawQuery = url.Values{"version": {cfg.Version}}.Encode()
	}
	return u.String()
}

func defaultPort(protocol string) int {
	if protocol == "https" {
		return 443
	}
	return 80
}
