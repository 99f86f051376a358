package prefs

import (
	"context"
	"slices"
	"strings"
	"sync"

	"tripsocial/internal/models"
	"tripsocial/internal/notifications"
	"tripsocial/internal/observability"
)

// Preference keys.
const (
	KeyTheme    = "theme"
	KeyLanguage = "language"
)

// Themes lists the accepted theme values.
var Themes = []string{"light", "dark", "system"}

// Languages lists the supported language tags.
var Languages = []string{"en", "es", "fr", "de", "it", "pt", "ja"}

// Defaults applied when a key was never stored or holds a value no longer accepted.
const (
	DefaultTheme    = "system"
	DefaultLanguage = "en"
)

// Preferences is the loaded pair of values.
type Preferences struct {
	Theme    string `json:"theme"`
	Language string `json:"language"`
}

// Publisher receives a preference.changed event after every successful Set.
type Publisher interface {
	Publish(ctx context.Context, userID, eventType string, payload any)
}

// Service validates and caches preferences over a Store.
type Service struct {
	store  Store
	events Publisher
	userID string
	logger *observability.StoreLogger

	mu      sync.RWMutex
	current Preferences
}

// NewService returns a Service holding the defaults until Load runs. events may be nil.
func NewService(store Store, events Publisher, userID string) *Service {
	return &Service{
		store:   store,
		events:  events,
		userID:  userID,
		logger:  observability.NewStoreLogger("preferences"),
		current: Preferences{Theme: DefaultTheme, Language: DefaultLanguage},
	}
}

// Load reads both keys from the store. Missing or invalid values fall back to defaults.
func (s *Service) Load(ctx context.Context) (Preferences, error) {
	loaded := Preferences{Theme: DefaultTheme, Language: DefaultLanguage}
	for _, key := range []string{KeyTheme, KeyLanguage} {
		v, ok, err := s.store.Get(ctx, key)
		if err != nil {
			s.logger.LogError(ctx, err, "load")
			return s.Current(), err
		}
		if !ok {
			continue
		}
		if normalized, valid := normalize(key, v); valid {
			loaded.set(key, normalized)
		} else {
			observability.GlobalLogger.WarnContext(ctx, "ignoring stored preference", "key", key, "value", v)
		}
	}

	s.mu.Lock()
	s.current = loaded
	s.mu.Unlock()
	return loaded, nil
}

// Current returns the cached values.
func (s *Service) Current() Preferences {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

// Get returns the cached value of key.
func (s *Service) Get(key string) (string, error) {
	p := s.Current()
	switch key {
	case KeyTheme:
		return p.Theme, nil
	case KeyLanguage:
		return p.Language, nil
	}
	return "", models.NewValidationError("Unknown preference " + key)
}

// Set validates and stores value under key.
func (s *Service) Set(ctx context.Context, key, value string) error {
	normalized, valid := normalize(key, value)
	if !valid {
		if key != KeyTheme && key != KeyLanguage {
			return models.NewValidationError("Unknown preference " + key)
		}
		return models.NewValidationError("Unsupported " + key + " " + value)
	}

	if err := s.store.Set(ctx, key, normalized); err != nil {
		s.logger.LogError(ctx, err, "set")
		return err
	}

	s.mu.Lock()
	s.current.set(key, normalized)
	s.mu.Unlock()

	s.logger.LogUpdate(ctx, map[string]interface{}{"key": key, "value": normalized})
	if s.events != nil {
		s.events.Publish(ctx, s.userID, notifications.EventPreferenceChanged, map[string]string{key: normalized})
	}
	return nil
}

// Reset removes the stored value of key so it reads as its default again.
func (s *Service) Reset(ctx context.Context, key string) error {
	def, ok := defaultFor(key)
	if !ok {
		return models.NewValidationError("Unknown preference " + key)
	}

	if err := s.store.Delete(ctx, key); err != nil {
		s.logger.LogError(ctx, err, "reset")
		return err
	}

	s.mu.Lock()
	s.current.set(key, def)
	s.mu.Unlock()

	s.logger.LogDelete(ctx, map[string]interface{}{"key": key})
	if s.events != nil {
		s.events.Publish(ctx, s.userID, notifications.EventPreferenceChanged, map[string]string{key: def})
	}
	return nil
}

// SetTheme stores the theme.
func (s *Service) SetTheme(ctx context.Context, theme string) error {
	return s.Set(ctx, KeyTheme, theme)
}

// SetLanguage stores the language tag.
func (s *Service) SetLanguage(ctx context.Context, lang string) error {
	return s.Set(ctx, KeyLanguage, lang)
}

func (p *Preferences) set(key, value string) {
	switch key {
	case KeyTheme:
		p.Theme = value
	case KeyLanguage:
		p.Language = value
	}
}

func defaultFor(key string) (string, bool) {
	switch key {
	case KeyTheme:
		return DefaultTheme, true
	case KeyLanguage:
		return DefaultLanguage, true
	}
	return "", false
}

// normalize lowercases value and reports whether it is accepted for key. Language tags
// with a region ("pt-BR") are reduced to their base language.
func normalize(key, value string) (string, bool) {
	v := strings.ToLower(strings.TrimSpace(value))
	switch key {
	case KeyTheme:
		return v, slices.Contains(Themes, v)
	case KeyLanguage:
		if base, _, found := strings.Cut(strings.ReplaceAll(v, "_", "-"), "-"); found {
			v = base
		}
		return v, slices.Contains(Languages, v)
	}
	return "", false
}
