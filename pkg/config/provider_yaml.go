package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v2"
)

// YAMLProvider implements ConfigProvider for YAML configuration files
type YAMLProvider struct {
	filename string
	config   *ConfigData
}

// NewYAMLProvider creates a new YAML configuration provider
func NewYAMLProvider(filename string) *YAMLProvider {
	return &YAMLProvider{
		filename: filename,
	}
}

// LoadConfig loads the complete configuration from YAML file
func (y *YAMLProvider) LoadConfig() (*ConfigData, error) {
	cfgFile, err := os.ReadFile(y.filename)
	if err != nil {
		return nil, err
	}

	// Load into temporary struct with YAML tags
	var yamlConfig struct {
		Database DatabaseYAML `yaml:"database,omitempty"`
		Forecast ForecastYAML `yaml:"forecast,omitempty"`
		HTTP     HTTPYAML     `yaml:"http,omitempty"`
	}

	err = yaml.Unmarshal(cfgFile, &yamlConfig)
	if err != nil {
		return nil, err
	}

	// Convert to our internal format
	config := &ConfigData{}

	if yamlConfig.Database.Postgres != nil {
		config.Database.Postgres = &PostgresData{
			ConnectionString: yamlConfig.Database.Postgres.ConnectionString,
		}
	}
	if yamlConfig.Database.SQLite != nil {
		config.Database.SQLite = &SQLiteData{
			Path: yamlConfig.Database.SQLite.Path,
		}
	}

	config.Forecast = ForecastData{
		HorizonDays:        yamlConfig.Forecast.HorizonDays,
		ValidationStrategy: yamlConfig.Forecast.ValidationStrategy,
		RefreshCron:        yamlConfig.Forecast.RefreshCron,
	}
	if yamlConfig.Forecast.CacheTTL != "" {
		ttl, err := time.ParseDuration(yamlConfig.Forecast.CacheTTL)
		if err != nil {
			return nil, fmt.Errorf("invalid forecast.cache-ttl %q: %w", yamlConfig.Forecast.CacheTTL, err)
		}
		config.Forecast.CacheTTL = ttl
	}

	config.HTTP = HTTPData{
		ListenAddr: yamlConfig.HTTP.ListenAddr,
		Port:       yamlConfig.HTTP.Port,
	}

	y.config = config
	return config, nil
}

// Close is a no-op for YAML provider
func (y *YAMLProvider) Close() error {
	return nil
}

// YAML-specific structs with proper YAML tags for parsing the on-disk format
type DatabaseYAML struct {
	Postgres *PostgresYAML `yaml:"postgres,omitempty"`
	SQLite   *SQLiteYAML   `yaml:"sqlite,omitempty"`
}

type PostgresYAML struct {
	ConnectionString string `yaml:"connection-string"`
}

type SQLiteYAML struct {
	Path string `yaml:"path"`
}

type ForecastYAML struct {
	HorizonDays        int    `yaml:"horizon-days,omitempty"`
	ValidationStrategy string `yaml:"validation-strategy,omitempty"`
	RefreshCron        string `yaml:"refresh-cron,omitempty"`
	CacheTTL           string `yaml:"cache-ttl,omitempty"`
}

type HTTPYAML struct {
	ListenAddr string `yaml:"listen-addr,omitempty"`
	Port       int    `yaml:"port,omitempty"`
}
