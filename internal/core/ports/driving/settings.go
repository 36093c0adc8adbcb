package driving

import "github.com/custodia-labs/kbquery/internal/core/domain"

// SettingsService manages application settings.
type SettingsService interface {
	// Get returns the effective settings: defaults, then file, then environment.
	Get() (*domain.AppSettings, error)

	// Set stores a single key in the config file.
	Set(key, value string) error

	// Keys returns every recognised setting key.
	Keys() []string
}
