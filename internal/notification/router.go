package notification

import (
	"github.com/stocksentry/stocksentry/internal/domain"
	"github.com/stocksentry/stocksentry/pkg/logging"
)

// Router selects the active transport adapter from a static registry built
// at startup. Unknown configuration falls back to the noop adapter with a
// warning; it never fails at selection time and never crashes the
// evaluation loop.
type Router struct {
	adapters map[domain.Path]Adapter
	fallback Adapter
	logger   *logging.Logger
}

// NewRouter builds a router over statically known adapters.
func NewRouter(logger *logging.Logger, fallback Adapter, adapters ...Adapter) *Router {
	registry := make(map[domain.Path]Adapter, len(adapters))
	for _, adapter := range adapters {
		registry[adapter.Path()] = adapter
	}
	return &Router{
		adapters: registry,
		fallback: fallback,
		logger:   logger.WithComponent("notification-router"),
	}
}

// Select resolves the configured path identifier to an adapter.
func (r *Router) Select(configured string) Adapter {
	path, err := domain.ParsePath(configured)
	if err == nil {
		if adapter, ok := r.adapters[path]; ok {
			return adapter
		}
	}

	r.logger.Warn("Configured notification path not recognized, using noop adapter",
		"configured", configured,
	)
	return r.fallback
}
