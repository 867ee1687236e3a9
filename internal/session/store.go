package session

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/yndnr/portalshell-go/internal/core/domain"
)

// DefaultKey is the name of the slot holding the token.
const DefaultKey = "token"

// Backend names accepted by Open.
const (
	BackendMemory = "memory"
	BackendFile   = "file"
	BackendBadger = "badger"
)

// Store holds the current token.
type Store interface {
	// Get returns the current token, or false when none is stored.
	// Backend read failures are logged and reported as absent.
	Get(ctx context.Context) (domain.Token, bool)

	// Set overwrites the stored token.
	Set(ctx context.Context, token domain.Token) error

	// Clear removes the stored token. Clearing an empty store is a no-op.
	Clear(ctx context.Context) error

	// Close releases backend resources.
	Close() error
}

// Config selects and configures a backend.
type Config struct {
	// Backend is one of memory, file, badger.
	Backend string
	// File is the YAML document used by the file backend.
	File string
	// Dir is the database directory used by the badger backend.
	Dir string
	// Key is the slot name. Defaults to DefaultKey.
	Key string
	// Passphrase seals the token at rest (file backend) when non-empty.
	Passphrase string
	// Watch makes the file backend cache the token and drop the cache when
	// the file changes on disk.
	Watch bool
}

// Open creates the configured backend.
func Open(cfg Config, logger *slog.Logger) (Store, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Key == "" {
		cfg.Key = DefaultKey
	}

	switch strings.ToLower(cfg.Backend) {
	case "", BackendMemory:
		return NewMemoryStore(), nil
	case BackendFile:
		opts := []FileOption{WithFileKey(cfg.Key), WithFileLogger(logger)}
		if cfg.Passphrase != "" {
			opts = append(opts, WithPassphrase(cfg.Passphrase))
		}
		if cfg.Watch {
			opts = append(opts, WithWatch())
		}
		return NewFileStore(cfg.File, opts...)
	case BackendBadger:
		return NewBadgerStore(BadgerConfig{Dir: cfg.Dir, Key: cfg.Key}, logger)
	default:
		return nil, domain.ErrUnknownBackend.WithDetails(fmt.Sprintf("%q", cfg.Backend))
	}
}
