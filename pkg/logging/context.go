package logging

import (
	"log/slog"

	"treestore/pkg/primitives"
)

// WithPage creates a logger with page context. Useful for storage
// operations.
//
// Example:
//
//	log := logging.WithPage(pageKey)
//	log.Debug("page committed", "overflow", count)
func WithPage(pageKey primitives.PageKey) *slog.Logger {
	return GetLogger().With("page_key", int64(pageKey))
}

// WithResource creates a logger with resource context.
func WithResource(name string) *slog.Logger {
	return GetLogger().With("resource", name)
}

// WithRevision creates a logger with revision context.
func WithRevision(revision primitives.Revision) *slog.Logger {
	return GetLogger().With("revision", uint32(revision))
}
