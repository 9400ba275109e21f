package settings

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// Store is a file-backed Provider. The format follows the file
// extension: .json, .yaml or .yml; anything else is TOML.
//
// A missing, unreadable or malformed file never fails a query: the store
// logs a warning and serves Default until a later load succeeds.
type Store struct {
	path   string
	logger *slog.Logger

	mu  sync.RWMutex
	cur Settings

	// OnChange, if set, is called after the file is reloaded by Watch.
	OnChange func(Settings)
}

var (
	_ Provider = (*Store)(nil)
	_ Writer   = (*Store)(nil)
)

// Open returns a store for path and loads it. Load failures are logged
// and leave the defaults in place.
func Open(path string, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Store{path: path, logger: logger, cur: Default()}
	if err := s.Load(); err != nil {
		if os.IsNotExist(err) {
			logger.Debug("settings file not found, using defaults", "path", path)
		} else {
			logger.Warn("settings unreadable, using defaults", "path", path, "err", err)
		}
	}
	return s
}

// Path returns the backing file.
func (s *Store) Path() string { return s.path }

// Load re-reads the file. On error the current settings are reset to
// Default and the error is returned.
func (s *Store) Load() error {
	st, err := readFile(s.path)
	s.mu.Lock()
	defer s.mu.Unlock()
	if err != nil {
		s.cur = Default()
		return err
	}
	s.cur = st
	return nil
}

func readFile(path string) (Settings, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return Default(), err
	}
	st := Default()
	switch format(path) {
	case "json":
		err = json.Unmarshal(b, &st)
	case "yaml":
		err = yaml.Unmarshal(b, &st)
	default:
		err = toml.Unmarshal(b, &st)
	}
	if err != nil {
		return Default(), fmt.Errorf("settings: parse %s: %w", path, err)
	}
	return st, nil
}

func format(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return "json"
	case ".yaml", ".yml":
		return "yaml"
	}
	return "toml"
}

// Save writes the current settings to the file, creating its directory.
func (s *Store) Save() error {
	st := s.Settings()
	var (
		b   []byte
		err error
	)
	switch format(s.path) {
	case "json":
		b, err = json.MarshalIndent(st, "", "  ")
	case "yaml":
		b, err = yaml.Marshal(st)
	default:
		var buf bytes.Buffer
		err = toml.NewEncoder(&buf).Encode(st)
		b = buf.Bytes()
	}
	if err != nil {
		return fmt.Errorf("settings: encode: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("settings: %w", err)
	}
	if err := os.WriteFile(s.path, b, 0o644); err != nil {
		return fmt.Errorf("settings: write %s: %w", s.path, err)
	}
	return nil
}

// Settings returns a copy of the current settings.
func (s *Store) Settings() Settings {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cur
}

func (s *Store) CheckUnderground() bool { return s.Settings().CheckUnderground }

func (s *Store) AutoUpdatePaths() bool { return s.Settings().AutoUpdatePaths }

// SetAutoUpdatePaths changes the toggle and saves the file.
func (s *Store) SetAutoUpdatePaths(enabled bool) error {
	s.mu.Lock()
	s.cur.AutoUpdatePaths = enabled
	s.mu.Unlock()
	return s.Save()
}

// SetCheckUnderground changes the clamp setting and saves the file.
func (s *Store) SetCheckUnderground(enabled bool) error {
	s.mu.Lock()
	s.cur.CheckUnderground = enabled
	s.mu.Unlock()
	return s.Save()
}

// Watch reloads the store whenever the file changes, until ctx is done.
// The directory is watched rather than the file so that editors which
// replace the file on save are followed.
func (s *Store) Watch(ctx context.Context) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("settings: watch: %w", err)
	}
	defer w.Close()

	dir := filepath.Dir(s.path)
	if err := w.Add(dir); err != nil {
		return fmt.Errorf("settings: watch %s: %w", dir, err)
	}
	target := filepath.Clean(s.path)
	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-w.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != target {
				continue
			}
			if event.Op&fsnotify.Write == fsnotify.Write ||
				event.Op&fsnotify.Create == fsnotify.Create ||
				event.Op&fsnotify.Rename == fsnotify.Rename {
				if err := s.Load(); err != nil {
					s.logger.Warn("settings reload failed, using defaults", "path", s.path, "err", err)
				} else {
					s.logger.Debug("settings reloaded", "path", s.path)
				}
				if s.OnChange != nil {
					s.OnChange(s.Settings())
				}
			}
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			s.logger.Warn("settings watcher error", "err", err)
		}
	}
}
