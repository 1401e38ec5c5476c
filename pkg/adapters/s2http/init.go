package s2http

import (
	"log/slog"

	"github.com/leapstack-labs/s2http/pkg/adapter"
)

func init() {
	adapter.Register(Name, func(logger *slog.Logger) adapter.Adapter { return New(logger) })
}
