package session

import (
	"io"
	"log/slog"

	"github.com/roach88/mockvm/internal/store"
)

// Config holds session construction settings.
type Config struct {
	// Backend selects the store backend kind (see store.Kinds).
	// Empty means memory.
	Backend string

	// Path places an embedded database on disk. Empty keeps it in memory.
	Path string

	// Logger receives debug output. Nil discards it.
	Logger *slog.Logger

	// ID fixes the session ID. Empty draws one from IDs.
	ID string

	// IDs generates the session ID when ID is empty.
	IDs IDGenerator
}

// Option mutates a Config.
type Option func(*Config)

// WithBackend selects the store backend kind.
func WithBackend(kind string) Option {
	return func(c *Config) { c.Backend = kind }
}

// WithPath places the backend database at path.
func WithPath(path string) Option {
	return func(c *Config) { c.Path = path }
}

// WithLogger sets the session logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Config) { c.Logger = l }
}

// WithID fixes the session ID.
func WithID(id string) Option {
	return func(c *Config) { c.ID = id }
}

// WithIDGenerator sets the generator used when no ID is fixed.
func WithIDGenerator(g IDGenerator) Option {
	return func(c *Config) { c.IDs = g }
}

func defaultConfig() Config {
	return Config{
		Backend: store.KindMemory,
		Logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
		IDs:     UUIDv7Generator{},
	}
}
