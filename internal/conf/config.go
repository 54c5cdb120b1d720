// Package conf loads ctags settings from a YAML file, environment variables
// and command-line flags using viper.
package conf

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/spf13/viper"

	"github.com/canonicaltags/ctags/internal/logger"
)

// Database backends.
const (
	DatabaseSQLite = "sqlite"
	DatabaseMySQL  = "mysql"
)

// Cloud distributions accepted in settings.
const (
	DistributionLinear      = "linear"
	DistributionLogarithmic = "logarithmic"
)

// MySQLSettings holds connection parameters for the MySQL backend.
type MySQLSettings struct {
	Host     string `yaml:"host" mapstructure:"host"`
	Port     string `yaml:"port" mapstructure:"port"`
	Username string `yaml:"username" mapstructure:"username"`
	Password string `yaml:"password" mapstructure:"password"`
	Database string `yaml:"database" mapstructure:"database"`
}

// DatabaseSettings selects and configures the storage backend.
type DatabaseSettings struct {
	Type          string        `yaml:"type" mapstructure:"type"`                     // sqlite or mysql
	Path          string        `yaml:"path" mapstructure:"path"`                     // sqlite database file
	MySQL         MySQLSettings `yaml:"mysql" mapstructure:"mysql"`                   // mysql connection
	TablePrefix   string        `yaml:"table_prefix" mapstructure:"table_prefix"`     // prepended to every table name
	SlowThreshold time.Duration `yaml:"slow_threshold" mapstructure:"slow_threshold"` // statements slower than this are logged at WARN
}

// TaggingSettings tunes engine defaults used by the host CLI.
type TaggingSettings struct {
	DefaultLocale     string `yaml:"default_locale" mapstructure:"default_locale"`
	CloudSteps        int    `yaml:"cloud_steps" mapstructure:"cloud_steps"`
	CloudDistribution string `yaml:"cloud_distribution" mapstructure:"cloud_distribution"`
	RelatedLimit      int    `yaml:"related_limit" mapstructure:"related_limit"`
	AliasSuggestLimit int    `yaml:"alias_suggest_limit" mapstructure:"alias_suggest_limit"`
	AdminPageSize     int    `yaml:"admin_page_size" mapstructure:"admin_page_size"`
}

// CatalogSource maps an entity type token to the host table holding its
// entities.
type CatalogSource struct {
	Table      string   `yaml:"table" mapstructure:"table"`
	PrimaryKey string   `yaml:"primary_key" mapstructure:"primary_key"` // defaults to id
	Columns    []string `yaml:"columns" mapstructure:"columns"`         // hydrated columns, empty selects all
}

// CatalogSettings configures the entity catalog. Source keys are entity type
// tokens; viper lowercases them.
type CatalogSettings struct {
	TokenTTL time.Duration            `yaml:"token_ttl" mapstructure:"token_ttl"`
	Sources  map[string]CatalogSource `yaml:"sources" mapstructure:"sources"`
}

// TelemetrySettings controls optional error reporting to Sentry.
type TelemetrySettings struct {
	Enabled bool   `yaml:"enabled" mapstructure:"enabled"`
	DSN     string `yaml:"dsn" mapstructure:"dsn"`
}

// MetricsSettings controls Prometheus textfile export.
type MetricsSettings struct {
	Enabled  bool   `yaml:"enabled" mapstructure:"enabled"`
	Textfile string `yaml:"textfile" mapstructure:"textfile"` // node_exporter textfile collector target
}

// Settings contains all configuration options for ctags.
type Settings struct {
	Debug     bool                 `yaml:"debug" mapstructure:"debug"`
	Database  DatabaseSettings     `yaml:"database" mapstructure:"database"`
	Logging   logger.LoggingConfig `yaml:"logging" mapstructure:"logging"`
	Tagging   TaggingSettings      `yaml:"tagging" mapstructure:"tagging"`
	Catalog   CatalogSettings      `yaml:"catalog" mapstructure:"catalog"`
	Telemetry TelemetrySettings    `yaml:"telemetry" mapstructure:"telemetry"`
	Metrics   MetricsSettings      `yaml:"metrics" mapstructure:"metrics"`
}

var (
	settingsMutex    sync.RWMutex
	settingsInstance *Settings
)

// Load reads settings into the global viper instance and validates them.
// configFile overrides the search path when non-empty. A missing config file
// in the search path is not an error; defaults and environment apply.
func Load(configFile string) (*Settings, error) {
	settingsMutex.Lock()
	defer settingsMutex.Unlock()

	settings, err := load(viper.GetViper(), configFile)
	if err != nil {
		return nil, err
	}

	settingsInstance = settings
	return settingsInstance, nil
}

// load is Load against an explicit viper instance.
func load(v *viper.Viper, configFile string) (*Settings, error) {
	if err := initViper(v, configFile); err != nil {
		return nil, fmt.Errorf("error initializing viper: %w", err)
	}

	settings := &Settings{}
	if err := v.Unmarshal(settings); err != nil {
		return nil, fmt.Errorf("error unmarshaling config into struct: %w", err)
	}

	normalizeSettings(settings)

	if err := ValidateSettings(settings); err != nil {
		return nil, fmt.Errorf("error validating settings: %w", err)
	}

	return settings, nil
}

// initViper sets defaults, binds the environment and reads the config file.
func initViper(v *viper.Viper, configFile string) error {
	setDefaultConfig(v)

	if err := bindEnvVars(v); err != nil {
		return err
	}

	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return fmt.Errorf("fatal error reading config file %s: %w", configFile, err)
		}
		return nil
	}

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	for _, path := range GetDefaultConfigPaths() {
		v.AddConfigPath(path)
	}

	if err := v.ReadInConfig(); err != nil {
		var configFileNotFoundError viper.ConfigFileNotFoundError
		if errors.As(err, &configFileNotFoundError) {
			return nil
		}
		return fmt.Errorf("fatal error reading config file: %w", err)
	}

	return nil
}

// GetDefaultConfigPaths returns the directories searched for config.yaml,
// in priority order.
func GetDefaultConfigPaths() []string {
	paths := []string{"."}
	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(home, ".config", "ctags"))
	}
	return append(paths, "/etc/ctags")
}

// GetSettings returns the most recently loaded settings, or nil.
func GetSettings() *Settings {
	settingsMutex.RLock()
	defer settingsMutex.RUnlock()
	return settingsInstance
}
