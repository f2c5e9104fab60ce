package graph

import (
	"log/slog"
)

// StoreOption configures store construction behavior.
type StoreOption func(*storeConfig)

// storeConfig holds internal configuration for a Store.
type storeConfig struct {
	logger *slog.Logger
}

// WithLogger enables debug logging for store operations.
//
// When set, the store logs detail about node/edge mutations, pending
// dependency resolution, and path-map changes. Pass nil to disable
// logging (the default).
func WithLogger(logger *slog.Logger) StoreOption {
	return func(cfg *storeConfig) {
		cfg.logger = logger
	}
}
