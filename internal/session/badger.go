package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/dgraph-io/badger/v3"

	"github.com/yndnr/portalshell-go/internal/core/domain"
)

// badgerKeyPrefix namespaces session slots inside the database.
const badgerKeyPrefix = "session/"

// BadgerConfig configures a BadgerStore.
type BadgerConfig struct {
	// Dir is the database directory. Required unless InMemory is set.
	Dir string
	// Key is the slot name. Defaults to DefaultKey.
	Key string
	// InMemory keeps the database in memory (tests).
	InMemory bool
}

// BadgerStore keeps the token under a key of an embedded Badger database.
type BadgerStore struct {
	db     *badger.DB
	key    []byte
	logger *slog.Logger
}

// NewBadgerStore opens (or creates) the database.
func NewBadgerStore(cfg BadgerConfig, logger *slog.Logger) (*BadgerStore, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Dir == "" && !cfg.InMemory {
		return nil, domain.ErrMissingArgument.WithDetails("badger dir")
	}
	if cfg.Key == "" {
		cfg.Key = DefaultKey
	}

	opts := badger.DefaultOptions(cfg.Dir)
	if cfg.InMemory {
		opts = badger.DefaultOptions("").WithInMemory(true)
	}
	opts.Logger = &badgerLogger{logger: logger}
	// A single small value: keep the value log small. The memtable stays at
	// the default, badger sizes its batch limit from it.
	opts.NumVersionsToKeep = 1
	opts.ValueLogFileSize = 1 << 20

	db, err := badger.Open(opts)
	if err != nil {
		return nil, domain.ErrSessionStore.WithCause(fmt.Errorf("badger: open db: %w", err))
	}

	logger.Debug("badger session store opened", "dir", cfg.Dir, "in_memory", cfg.InMemory)

	return &BadgerStore{
		db:     db,
		key:    []byte(badgerKeyPrefix + cfg.Key),
		logger: logger,
	}, nil
}

// Get implements Store.
func (s *BadgerStore) Get(ctx context.Context) (domain.Token, bool) {
	var value []byte
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(s.key)
		if err != nil {
			return err
		}
		value, err = item.ValueCopy(nil)
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return "", false
	}
	if err != nil {
		s.logger.Warn("session read failed, treating as logged out", "error", err)
		return "", false
	}
	token := domain.Token(value)
	return token, !token.IsZero()
}

// Set implements Store.
func (s *BadgerStore) Set(ctx context.Context, token domain.Token) error {
	if err := token.Validate(); err != nil {
		return err
	}
	err := s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(s.key, []byte(token))
	})
	if err != nil {
		return domain.ErrSessionStore.WithCause(err)
	}
	return nil
}

// Clear implements Store. Deleting a missing key is not an error.
func (s *BadgerStore) Clear(ctx context.Context) error {
	err := s.db.Update(func(txn *badger.Txn) error {
		return txn.Delete(s.key)
	})
	if err != nil {
		return domain.ErrSessionStore.WithCause(err)
	}
	return nil
}

// Close implements Store.
func (s *BadgerStore) Close() error {
	return s.db.Close()
}

// badgerLogger adapts slog.Logger to Badger's Logger interface.
// Badger is chatty at info level, so info is demoted to debug.
type badgerLogger struct {
	logger *slog.Logger
}

func (l *badgerLogger) Errorf(format string, args ...interface{}) {
	l.logger.Error(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Warningf(format string, args ...interface{}) {
	l.logger.Warn(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Infof(format string, args ...interface{}) {
	l.logger.Debug(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Debugf(format string, args ...interface{}) {
	l.logger.Debug(fmt.Sprintf(format, args...))
}
