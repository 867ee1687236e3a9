package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/yndnr/portalshell-go/internal/core/domain"
	"github.com/yndnr/portalshell-go/internal/infra/fswatch"
	"github.com/yndnr/portalshell-go/pkg/crypto/seal"
)

// FileStore keeps the token in a named slot of a YAML document:
//
//	token: eyJhbGciOi...
//
// Other keys in the document are preserved, so the file can be shared with
// other tools. With a passphrase the slot holds a sealed value.
type FileStore struct {
	path   string
	key    string
	sealer *seal.Sealer
	logger *slog.Logger

	mu sync.Mutex

	// Cache, only used when watching.
	watcher *fswatch.Watcher
	cached  domain.Token
	valid   bool
}

// FileOption configures a FileStore.
type FileOption func(*fileOptions)

type fileOptions struct {
	key        string
	passphrase string
	watch      bool
	logger     *slog.Logger
}

// WithFileKey sets the slot name.
func WithFileKey(key string) FileOption {
	return func(o *fileOptions) {
		o.key = key
	}
}

// WithPassphrase seals the token at rest.
func WithPassphrase(passphrase string) FileOption {
	return func(o *fileOptions) {
		o.passphrase = passphrase
	}
}

// WithWatch caches the token in memory and reloads it when the file
// changes, e.g. when another process logs in.
func WithWatch() FileOption {
	return func(o *fileOptions) {
		o.watch = true
	}
}

// WithFileLogger sets the logger.
func WithFileLogger(logger *slog.Logger) FileOption {
	return func(o *fileOptions) {
		o.logger = logger
	}
}

// NewFileStore creates a store backed by the YAML document at path. The file
// is created on the first Set.
func NewFileStore(path string, opts ...FileOption) (*FileStore, error) {
	if path == "" {
		return nil, domain.ErrMissingArgument.WithDetails("session file path")
	}
	o := fileOptions{key: DefaultKey, logger: slog.Default()}
	for _, opt := range opts {
		opt(&o)
	}

	s := &FileStore{
		path:   path,
		key:    o.key,
		logger: o.logger,
	}

	if o.passphrase != "" {
		sealer, err := seal.New(o.passphrase)
		if err != nil {
			return nil, domain.ErrSessionStore.WithCause(err)
		}
		s.sealer = sealer
	}

	if o.watch {
		if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
			return nil, domain.ErrSessionStore.WithCause(err)
		}
		w, err := fswatch.New(fswatch.WithLogger(o.logger))
		if err != nil {
			return nil, domain.ErrSessionStore.WithCause(err)
		}
		if err := w.Watch(path); err != nil {
			w.Stop()
			return nil, domain.ErrSessionStore.WithCause(err)
		}
		w.OnChange(func(string) { s.invalidate() })
		w.StartAsync()
		s.watcher = w
	}

	return s, nil
}

// Path returns the document path.
func (s *FileStore) Path() string {
	return s.path
}

// Get implements Store.
func (s *FileStore) Get(ctx context.Context) (domain.Token, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.watcher != nil && s.valid {
		return s.cached, !s.cached.IsZero()
	}

	token, err := s.load()
	if err != nil {
		s.logger.Warn("session file unreadable, treating as logged out",
			"path", s.path,
			"error", err,
		)
		return "", false
	}
	if s.watcher != nil {
		s.cached, s.valid = token, true
	}
	return token, !token.IsZero()
}

// Set implements Store.
func (s *FileStore) Set(ctx context.Context, token domain.Token) error {
	if err := token.Validate(); err != nil {
		return err
	}

	value := token.String()
	if s.sealer != nil {
		sealed, err := s.sealer.Seal([]byte(value), []byte(s.key))
		if err != nil {
			return domain.ErrSessionStore.WithCause(err)
		}
		value = sealed
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.readDocument()
	if err != nil {
		return domain.ErrSessionStore.WithCause(err)
	}
	doc[s.key] = value
	if err := s.writeDocument(doc); err != nil {
		return domain.ErrSessionStore.WithCause(err)
	}
	s.cached, s.valid = token, s.watcher != nil
	return nil
}

// Clear implements Store.
func (s *FileStore) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.cached, s.valid = "", s.watcher != nil

	doc, err := s.readDocument()
	if err != nil {
		return domain.ErrSessionStore.WithCause(err)
	}
	if _, ok := doc[s.key]; !ok {
		return nil
	}
	delete(doc, s.key)
	if err := s.writeDocument(doc); err != nil {
		return domain.ErrSessionStore.WithCause(err)
	}
	return nil
}

// Close implements Store.
func (s *FileStore) Close() error {
	if s.watcher != nil {
		return s.watcher.Stop()
	}
	return nil
}

func (s *FileStore) invalidate() {
	s.mu.Lock()
	s.valid = false
	s.mu.Unlock()
}

// load reads the slot. Caller holds mu.
func (s *FileStore) load() (domain.Token, error) {
	doc, err := s.readDocument()
	if err != nil {
		return "", err
	}
	value, ok := doc[s.key]
	if !ok || value == nil {
		return "", nil
	}
	raw, ok := value.(string)
	if !ok {
		return "", domain.ErrTokenMalformed.WithDetails(fmt.Sprintf("slot %q is not a string", s.key))
	}
	if raw == "" {
		return "", nil
	}

	if seal.IsSealed(raw) {
		if s.sealer == nil {
			return "", domain.ErrSessionSealed.WithDetails("no passphrase configured")
		}
		plain, err := s.sealer.Open(raw, []byte(s.key))
		if err != nil {
			return "", domain.ErrSessionSealed.WithCause(err)
		}
		return domain.Token(plain), nil
	}
	return domain.Token(raw), nil
}

// readDocument decodes the whole file. Values other than the slot are kept
// as decoded so they survive a rewrite.
func (s *FileStore) readDocument() (map[string]any, error) {
	doc := make(map[string]any)
	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return doc, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", s.path, err)
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse %s: %w", s.path, err)
	}
	if doc == nil {
		doc = make(map[string]any)
	}
	return doc, nil
}

// writeDocument replaces the file atomically with 0600 permissions.
func (s *FileStore) writeDocument(doc map[string]any) error {
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("create %s: %w", dir, err)
	}

	data, err := yaml.Marshal(doc)
	if err != nil {
		return fmt.Errorf("encode session document: %w", err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(s.path)+".*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if err := tmp.Chmod(0600); err != nil {
		tmp.Close()
		return fmt.Errorf("chmod temp file: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		return fmt.Errorf("replace %s: %w", s.path, err)
	}
	return nil
}
