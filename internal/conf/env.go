// env.go - Environment variable configuration and validation for ctags
package conf

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// envBinding holds metadata for environment variable bindings (internal use)
type envBinding struct {
	ConfigKey string             // Viper config key
	EnvVar    string             // Environment variable name
	Validate  func(string) error // Optional validation function
}

// getEnvBindings returns all environment variable bindings with validation
func getEnvBindings() []envBinding {
	return []envBinding{
		{"debug", "CTAGS_DEBUG", validateEnvBool},

		// Database
		{"database.type", "CTAGS_DATABASE_TYPE", validateEnvDatabaseType},
		{"database.path", "CTAGS_DATABASE_PATH", nil},
		{"database.table_prefix", "CTAGS_TABLE_PREFIX", validateEnvTablePrefix},
		{"database.slow_threshold", "CTAGS_SLOW_THRESHOLD", validateEnvDuration},
		{"database.mysql.host", "CTAGS_MYSQL_HOST", nil},
		{"database.mysql.port", "CTAGS_MYSQL_PORT", validateEnvPort},
		{"database.mysql.username", "CTAGS_MYSQL_USERNAME", nil},
		{"database.mysql.password", "CTAGS_MYSQL_PASSWORD", nil},
		{"database.mysql.database", "CTAGS_MYSQL_DATABASE", nil},

		// Logging
		{"logging.default_level", "CTAGS_LOG_LEVEL", validateEnvLogLevel},

		// Tagging
		{"tagging.default_locale", "CTAGS_DEFAULT_LOCALE", validateEnvLocale},

		// Telemetry
		{"telemetry.enabled", "CTAGS_TELEMETRY_ENABLED", validateEnvBool},
		{"telemetry.dsn", "CTAGS_SENTRY_DSN", nil},
	}
}

// bindEnvVars sets up environment variable bindings with validation (internal)
func bindEnvVars(v *viper.Viper) error {
	var warnings []string

	for _, binding := range getEnvBindings() {
		if err := v.BindEnv(binding.ConfigKey, binding.EnvVar); err != nil {
			warnings = append(warnings, fmt.Sprintf("Failed to bind %s: %v", binding.EnvVar, err))
			continue
		}

		if binding.Validate != nil {
			if envValue := os.Getenv(binding.EnvVar); envValue != "" {
				if err := binding.Validate(envValue); err != nil {
					warnings = append(warnings, fmt.Sprintf("Invalid %s value '%s': %v", binding.EnvVar, envValue, err))
				}
			}
		}
	}

	if len(warnings) > 0 {
		return fmt.Errorf("environment variable issues:\n  - %s", strings.Join(warnings, "\n  - "))
	}

	return nil
}

// Environment variable validation functions

func validateEnvBool(value string) error {
	if _, err := strconv.ParseBool(strings.TrimSpace(value)); err != nil {
		return fmt.Errorf("invalid boolean value '%s': must be true/false, 1/0, t/f", value)
	}
	return nil
}

func validateEnvDatabaseType(value string) error {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case DatabaseSQLite, DatabaseMySQL:
		return nil
	}
	return fmt.Errorf("must be one of: %s, %s", DatabaseSQLite, DatabaseMySQL)
}

func validateEnvTablePrefix(value string) error {
	if !tablePrefixPattern.MatchString(value) {
		return fmt.Errorf("table prefix may only contain letters, digits and underscores")
	}
	return nil
}

func validateEnvDuration(value string) error {
	d, err := time.ParseDuration(strings.TrimSpace(value))
	if err != nil {
		return fmt.Errorf("invalid duration: %w", err)
	}
	if d < 0 {
		return fmt.Errorf("duration must be non-negative, got %s", d)
	}
	return nil
}

func validateEnvPort(value string) error {
	port, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return fmt.Errorf("invalid port: %w", err)
	}
	if port < 1 || port > 65535 {
		return fmt.Errorf("port must be between 1 and 65535, got %d", port)
	}
	return nil
}

func validateEnvLogLevel(value string) error {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "trace", "debug", "info", "warn", "warning", "error":
		return nil
	}
	return fmt.Errorf("must be one of: trace, debug, info, warn, error")
}

func validateEnvLocale(value string) error {
	_, err := NormalizeLocale(value)
	return err
}
