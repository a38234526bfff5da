// Package settings persists user preferences and the selected tenant in a
// small JSON key/value file.
package settings

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/rs/zerolog"
)

const (
	KeySettings = "alignwork:settings"
	KeyTenant   = "alignwork:tenantId"

	DefaultTenant = "default-tenant"
)

var ErrInvalidTheme = errors.New("theme must be system, light or dark")

type Theme string

const (
	ThemeSystem Theme = "system"
	ThemeLight  Theme = "light"
	ThemeDark   Theme = "dark"
)

// Settings are the user preferences shown on the settings page.
type Settings struct {
	NotificationsEnabled bool   `json:"notificationsEnabled"`
	EmailReminders       bool   `json:"emailReminders"`
	Theme                Theme  `json:"theme"`
	Language             string `json:"language,omitempty"`
}

func Defaults() Settings {
	return Settings{
		NotificationsEnabled: true,
		EmailReminders:       true,
		Theme:                ThemeSystem,
		Language:             "pt-br",
	}
}

func (s Settings) Validate() error {
	switch s.Theme {
	case ThemeSystem, ThemeLight, ThemeDark:
		return nil
	}
	return ErrInvalidTheme
}

// Store is a file-backed key/value store. Unreadable or corrupt content
// falls back to defaults; it is never fatal.
type Store struct {
	mu            sync.RWMutex
	path          string
	defaultTenant string
	data          map[string]json.RawMessage
	logger        zerolog.Logger
}

// Open loads path if it exists. An empty path keeps everything in memory.
func Open(path, defaultTenant string, logger zerolog.Logger) *Store {
	if defaultTenant == "" {
		defaultTenant = DefaultTenant
	}
	s := &Store{
		path:          path,
		defaultTenant: defaultTenant,
		data:          make(map[string]json.RawMessage),
		logger:        logger.With().Str("component", "settings").Logger(),
	}
	if path == "" {
		return s
	}
	raw, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
	case err != nil:
		s.logger.Warn().Err(err).Str("path", path).Msg("reading state file, using defaults")
	default:
		if err := json.Unmarshal(raw, &s.data); err != nil {
			s.logger.Warn().Err(err).Str("path", path).Msg("corrupt state file, using defaults")
			s.data = make(map[string]json.RawMessage)
		}
	}
	return s
}

// Settings returns the saved preferences or the defaults.
func (s *Store) Settings() Settings {
	s.mu.RLock()
	raw, ok := s.data[KeySettings]
	s.mu.RUnlock()

	out := Defaults()
	if !ok {
		return out
	}
	if err := json.Unmarshal(raw, &out); err != nil || out.Validate() != nil {
		s.logger.Warn().Err(err).Msg("stored settings unreadable, using defaults")
		return Defaults()
	}
	return out
}

func (s *Store) SaveSettings(v Settings) error {
	if err := v.Validate(); err != nil {
		return err
	}
	return s.put(KeySettings, v)
}

// Tenant returns the selected tenant, or the default when none is saved.
func (s *Store) Tenant() string {
	s.mu.RLock()
	raw, ok := s.data[KeyTenant]
	s.mu.RUnlock()

	var tenant string
	if ok {
		_ = json.Unmarshal(raw, &tenant)
	}
	if strings.TrimSpace(tenant) == "" {
		return s.defaultTenant
	}
	return tenant
}

// SetTenant saves the selection; an empty id resets to the default.
func (s *Store) SetTenant(id string) error {
	id = strings.TrimSpace(id)
	if id == "" {
		id = s.defaultTenant
	}
	return s.put(KeyTenant, id)
}

func (s *Store) put(key string, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encoding %s: %w", key, err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	prev, had := s.data[key]
	s.data[key] = raw
	if err := s.flushLocked(); err != nil {
		if had {
			s.data[key] = prev
		} else {
			delete(s.data, key)
		}
		return err
	}
	return nil
}

// flushLocked writes through a temp file and rename.
func (s *Store) flushLocked() error {
	if s.path == "" {
		return nil
	}
	buf, err := json.MarshalIndent(s.data, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding state: %w", err)
	}
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating state dir: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".state-*")
	if err != nil {
		return fmt.Errorf("creating temp state file: %w", err)
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(buf); err != nil {
		tmp.Close()
		return fmt.Errorf("writing state: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing state: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("replacing state file: %w", err)
	}
	return nil
}
