// conf/defaults.go default values for settings
package conf

import (
	"time"

	"github.com/spf13/viper"

	"github.com/canonicaltags/ctags/internal/logger"
)

// Default tagging values.
const (
	DefaultCloudSteps        = 4
	DefaultRelatedLimit      = 10
	DefaultAliasSuggestLimit = 10
	DefaultAdminPageSize     = 100
	DefaultSlowThreshold     = 200 * time.Millisecond
	DefaultTokenTTL          = 30 * time.Minute
)

// setDefaultConfig registers default values for every configuration key.
func setDefaultConfig(v *viper.Viper) {
	v.SetDefault("debug", false)

	v.SetDefault("database.type", DatabaseSQLite)
	v.SetDefault("database.path", "ctags.db")
	v.SetDefault("database.table_prefix", "")
	v.SetDefault("database.slow_threshold", DefaultSlowThreshold)
	v.SetDefault("database.mysql.host", "localhost")
	v.SetDefault("database.mysql.port", "3306")
	v.SetDefault("database.mysql.username", "")
	v.SetDefault("database.mysql.password", "")
	v.SetDefault("database.mysql.database", "ctags")

	v.SetDefault("logging.default_level", logger.DefaultLogLevel)
	v.SetDefault("logging.timezone", "Local")
	v.SetDefault("logging.console.enabled", true)
	v.SetDefault("logging.console.level", logger.DefaultLogLevel)
	v.SetDefault("logging.file_output.enabled", false)
	v.SetDefault("logging.file_output.path", logger.DefaultLogPath)
	v.SetDefault("logging.file_output.max_size", logger.DefaultMaxSize)
	v.SetDefault("logging.file_output.max_age", logger.DefaultMaxAge)
	v.SetDefault("logging.file_output.max_rotated_files", logger.DefaultMaxRotatedFiles)
	v.SetDefault("logging.file_output.compress", true)
	v.SetDefault("logging.file_output.level", logger.DefaultLogLevel)

	v.SetDefault("tagging.default_locale", "en")
	v.SetDefault("tagging.cloud_steps", DefaultCloudSteps)
	v.SetDefault("tagging.cloud_distribution", DistributionLogarithmic)
	v.SetDefault("tagging.related_limit", DefaultRelatedLimit)
	v.SetDefault("tagging.alias_suggest_limit", DefaultAliasSuggestLimit)
	v.SetDefault("tagging.admin_page_size", DefaultAdminPageSize)

	v.SetDefault("catalog.token_ttl", DefaultTokenTTL)

	v.SetDefault("telemetry.enabled", false)
	v.SetDefault("telemetry.dsn", "")

	v.SetDefault("metrics.enabled", false)
	v.SetDefault("metrics.textfile", "ctags.prom")
}
