// Package settings provides the user preferences the viewer consults while
// editing: whether objects are kept above ground and whether pipe paths
// are regenerated after every edit.
package settings

import (
	"log/slog"
	"sync"
)

// Settings are the persisted user preferences.
type Settings struct {
	// CheckUnderground clamps objects dropped below the ground plane
	// back to it.
	CheckUnderground bool `toml:"checkUnderground" json:"checkUnderground" yaml:"checkUnderground"`
	// AutoUpdatePaths regenerates pipe routes after every edit.
	AutoUpdatePaths bool `toml:"autoUpdatePaths" json:"autoUpdatePaths" yaml:"autoUpdatePaths"`
}

// Default returns the settings used when nothing is stored or the store
// cannot be read: both checks on.
func Default() Settings {
	return Settings{CheckUnderground: true, AutoUpdatePaths: true}
}

// Provider answers settings queries at the moment they are needed.
type Provider interface {
	CheckUnderground() bool
	AutoUpdatePaths() bool
}

// CheckUnderground reads p's clamp setting. A nil or panicking provider
// yields the default, true.
func CheckUnderground(p Provider, log *slog.Logger) bool {
	if p == nil {
		return true
	}
	return read(log, "checkUnderground", p.CheckUnderground)
}

// AutoUpdatePaths reads p's path toggle. A nil or panicking provider
// yields the default, true.
func AutoUpdatePaths(p Provider, log *slog.Logger) bool {
	if p == nil {
		return true
	}
	return read(log, "autoUpdatePaths", p.AutoUpdatePaths)
}

func read(log *slog.Logger, name string, get func() bool) (v bool) {
	defer func() {
		if rec := recover(); rec != nil {
			if log == nil {
				log = slog.Default()
			}
			log.Warn("settings read failed, using default", "setting", name, "panic", rec)
			v = true
		}
	}()
	return get()
}

// Writer is implemented by providers that can persist a path toggle.
type Writer interface {
	SetAutoUpdatePaths(enabled bool) error
}

// Memory is an in-process Provider.
type Memory struct {
	mu sync.RWMutex
	s  Settings
}

var (
	_ Provider = (*Memory)(nil)
	_ Writer   = (*Memory)(nil)
)

// NewMemory returns a provider holding s.
func NewMemory(s Settings) *Memory {
	return &Memory{s: s}
}

func (m *Memory) CheckUnderground() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.s.CheckUnderground
}

func (m *Memory) AutoUpdatePaths() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.s.AutoUpdatePaths
}

func (m *Memory) SetAutoUpdatePaths(enabled bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.s.AutoUpdatePaths = enabled
	return nil
}
