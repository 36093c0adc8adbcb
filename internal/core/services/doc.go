// Package services implements the driving port interfaces.
// Services contain the core business logic and orchestrate
// calls to driven ports (adapters).
//
// QueryService owns the resident index/metadata snapshot; IngestService
// prepares record files; SettingsService resolves configuration.
package services
