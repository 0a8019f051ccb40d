// Package file stores the session as a JSON document on disk, the CLI's
// equivalent of device storage.
package file

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"maps"
	"os"
	"path/filepath"
	"sync"

	"github.com/utafrali/salesonboard/internal/session"
	"github.com/utafrali/salesonboard/pkg/logger"
	"github.com/utafrali/salesonboard/pkg/slug"
)

// ErrCorrupt marks a session file that exists but is not a JSON object.
var ErrCorrupt = errors.New("session file is corrupt")

// Store keeps all keys in one file. Every write replaces the file through a
// temp file and rename, so a crash never leaves a half-written document.
type Store struct {
	mu     sync.Mutex
	path   string
	logger *slog.Logger
}

// Option configures a Store.
type Option func(*Store)

// WithLogger sets where recoveries from a corrupt file are reported.
func WithLogger(l *slog.Logger) Option {
	return func(s *Store) { s.logger = l }
}

// New returns a store backed by path. The file is created on first write.
func New(path string, opts ...Option) *Store {
	s := &Store{path: path, logger: logger.Discard()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// DefaultPath returns ~/.config/salesonboard/session.json, or the
// platform's equivalent. Profiles other than "default" get their own
// session-<profile>.json next to it.
func DefaultPath(profile string) (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("resolve config dir: %w", err)
	}
	name := "session.json"
	if p := slug.Or(profile, "default"); p != "default" {
		name = "session-" + p + ".json"
	}
	return filepath.Join(dir, "salesonboard", name), nil
}

// Path returns the backing file.
func (s *Store) Path() string { return s.path }

func (s *Store) Get(_ context.Context, key string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, err := s.read()
	if err != nil {
		return "", err
	}
	v, ok := data[key]
	if !ok {
		return "", session.ErrKeyNotFound
	}
	return v, nil
}

func (s *Store) SetMany(ctx context.Context, pairs map[string]string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, _, err := s.readForWrite(ctx)
	if err != nil {
		return err
	}
	maps.Copy(data, pairs)
	return s.write(data)
}

func (s *Store) Remove(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, reset, err := s.readForWrite(ctx)
	if err != nil {
		return err
	}
	if _, ok := data[key]; !ok && !reset {
		return nil
	}
	delete(data, key)
	return s.write(data)
}

// readForWrite is read for the write paths: a corrupt document is replaced
// by an empty one so logout and the next login can still succeed. reset
// reports that the file must be rewritten even if nothing else changes.
func (s *Store) readForWrite(ctx context.Context) (data map[string]string, reset bool, err error) {
	data, err = s.read()
	if errors.Is(err, ErrCorrupt) {
		s.logger.WarnContext(ctx, "discarding corrupt session file",
			slog.String("path", s.path),
			slog.String("error", err.Error()),
		)
		return map[string]string{}, true, nil
	}
	return data, false, err
}

// Ping verifies the session directory is usable.
func (s *Store) Ping(context.Context) error {
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("create session dir: %w", err)
	}
	f, err := os.CreateTemp(dir, ".ping-*")
	if err != nil {
		return fmt.Errorf("session dir not writable: %w", err)
	}
	name := f.Name()
	_ = f.Close()
	return os.Remove(name)
}

func (s *Store) read() (map[string]string, error) {
	raw, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return map[string]string{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read session file: %w", err)
	}
	data := map[string]string{}
	if len(raw) == 0 {
		return data, nil
	}
	if err := json.Unmarshal(raw, &data); err != nil {
		return nil, fmt.Errorf("decode session file %s: %w: %w", s.path, ErrCorrupt, err)
	}
	return data, nil
}

func (s *Store) write(data map[string]string) error {
	if len(data) == 0 {
		if err := os.Remove(s.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("remove session file: %w", err)
		}
		return nil
	}

	raw, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return fmt.Errorf("encode session file: %w", err)
	}
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("create session dir: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".session-*")
	if err != nil {
		return fmt.Errorf("create temp session file: %w", err)
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	if err := tmp.Chmod(0o600); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("chmod session file: %w", err)
	}
	if _, err := tmp.Write(raw); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write session file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("sync session file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close session file: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("replace session file: %w", err)
	}
	return nil
}
