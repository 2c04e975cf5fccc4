// Package config provides configuration loading for the forecasting
// service behind a backend-agnostic provider interface.
package config

import "time"

// ConfigProvider abstracts the configuration backend.
type ConfigProvider interface {
	// LoadConfig loads the complete configuration.
	LoadConfig() (*ConfigData, error)

	// Close releases any resources held by the provider.
	Close() error
}

// ConfigData is the complete internal configuration.
type ConfigData struct {
	Database DatabaseData
	Forecast ForecastData
	HTTP     HTTPData
}

// DatabaseData selects the store backend. Exactly one of Postgres or SQLite
// should be set; Postgres wins when both are.
type DatabaseData struct {
	Postgres *PostgresData
	SQLite   *SQLiteData
}

// PostgresData configures the Postgres-backed event and forecast stores.
type PostgresData struct {
	ConnectionString string
}

// SQLiteData configures the single-file store backend for small installs.
type SQLiteData struct {
	Path string
}

// ForecastData tunes the forecasting pipeline.
type ForecastData struct {
	// HorizonDays is the number of future days every forecast covers.
	HorizonDays int

	// ValidationStrategy selects how MAPE is computed: "backtest",
	// "recalibration", or "auto".
	ValidationStrategy string

	// RefreshCron schedules background regeneration and persistence of the
	// forecast. Empty uses the default daily schedule.
	RefreshCron string

	// CacheTTL bounds how long a generated forecast is memoized.
	CacheTTL time.Duration
}

// HTTPData configures the REST server.
type HTTPData struct {
	ListenAddr string
	Port       int
}
