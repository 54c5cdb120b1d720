// conf/validate.go

package conf

import (
	"fmt"
	"regexp"
	"slices"
	"strings"

	"github.com/canonicaltags/ctags/internal/datastore/entities"
)

// tablePrefixPattern restricts prefixes to characters that need no quoting.
var tablePrefixPattern = regexp.MustCompile(`^[A-Za-z0-9_]*$`)

// ValidationError represents a collection of validation errors
type ValidationError struct {
	Errors []string
}

// Error returns a string representation of the validation errors
func (ve ValidationError) Error() string {
	return fmt.Sprintf("Validation errors: %v", ve.Errors)
}

// normalizeSettings canonicalizes case-insensitive values before validation.
func normalizeSettings(settings *Settings) {
	settings.Database.Type = strings.ToLower(strings.TrimSpace(settings.Database.Type))
	settings.Tagging.CloudDistribution = strings.ToLower(strings.TrimSpace(settings.Tagging.CloudDistribution))
	if settings.Tagging.CloudDistribution == "log" {
		settings.Tagging.CloudDistribution = DistributionLogarithmic
	}
	if l, err := NormalizeLocale(settings.Tagging.DefaultLocale); err == nil {
		settings.Tagging.DefaultLocale = string(l)
	}
}

// ValidateSettings validates the entire Settings struct
func ValidateSettings(settings *Settings) error {
	ve := ValidationError{}

	if err := validateDatabaseSettings(&settings.Database); err != nil {
		ve.Errors = append(ve.Errors, err.Error())
	}

	if err := validateTaggingSettings(&settings.Tagging); err != nil {
		ve.Errors = append(ve.Errors, err.Error())
	}

	if err := validateCatalogSettings(&settings.Catalog); err != nil {
		ve.Errors = append(ve.Errors, err.Error())
	}

	if settings.Telemetry.Enabled && settings.Telemetry.DSN == "" {
		ve.Errors = append(ve.Errors, "telemetry is enabled but no DSN is configured")
	}

	if settings.Metrics.Enabled && settings.Metrics.Textfile == "" {
		ve.Errors = append(ve.Errors, "metrics are enabled but no textfile path is configured")
	}

	if len(ve.Errors) > 0 {
		return ve
	}
	return nil
}

func validateDatabaseSettings(settings *DatabaseSettings) error {
	var errs []string

	switch settings.Type {
	case DatabaseSQLite:
		if settings.Path == "" {
			errs = append(errs, "database.path is required for sqlite")
		}
	case DatabaseMySQL:
		if settings.MySQL.Host == "" || settings.MySQL.Database == "" {
			errs = append(errs, "database.mysql host and database are required for mysql")
		}
		if settings.MySQL.Port != "" {
			if err := validateEnvPort(settings.MySQL.Port); err != nil {
				errs = append(errs, "database.mysql."+err.Error())
			}
		}
	default:
		errs = append(errs, fmt.Sprintf("database.type must be %s or %s, got %q", DatabaseSQLite, DatabaseMySQL, settings.Type))
	}

	if !tablePrefixPattern.MatchString(settings.TablePrefix) {
		errs = append(errs, fmt.Sprintf("database.table_prefix %q may only contain letters, digits and underscores", settings.TablePrefix))
	}

	if settings.SlowThreshold < 0 {
		errs = append(errs, "database.slow_threshold must be non-negative")
	}

	if len(errs) > 0 {
		return fmt.Errorf("%s", strings.Join(errs, "; "))
	}
	return nil
}

func validateTaggingSettings(settings *TaggingSettings) error {
	var errs []string

	if _, err := entities.ParseLocale(settings.DefaultLocale); err != nil {
		errs = append(errs, "tagging.default_locale: "+err.Error())
	}

	if settings.CloudSteps < 1 {
		errs = append(errs, fmt.Sprintf("tagging.cloud_steps must be at least 1, got %d", settings.CloudSteps))
	}

	switch settings.CloudDistribution {
	case DistributionLinear, DistributionLogarithmic:
	default:
		errs = append(errs, fmt.Sprintf("tagging.cloud_distribution must be %s or %s, got %q",
			DistributionLinear, DistributionLogarithmic, settings.CloudDistribution))
	}

	if settings.RelatedLimit < 0 {
		errs = append(errs, "tagging.related_limit must be non-negative")
	}
	if settings.AliasSuggestLimit < 1 {
		errs = append(errs, "tagging.alias_suggest_limit must be at least 1")
	}
	if settings.AdminPageSize < 1 {
		errs = append(errs, "tagging.admin_page_size must be at least 1")
	}

	if len(errs) > 0 {
		return fmt.Errorf("%s", strings.Join(errs, "; "))
	}
	return nil
}

func validateCatalogSettings(settings *CatalogSettings) error {
	var errs []string

	if settings.TokenTTL < 0 {
		errs = append(errs, "catalog.token_ttl must be non-negative")
	}

	tokens := make([]string, 0, len(settings.Sources))
	for token := range settings.Sources {
		tokens = append(tokens, token)
	}
	slices.Sort(tokens)

	for _, token := range tokens {
		src := settings.Sources[token]
		if strings.TrimSpace(token) == "" {
			errs = append(errs, "catalog.sources has an empty entity type token")
		}
		if src.Table == "" {
			errs = append(errs, fmt.Sprintf("catalog.sources.%s.table is required", token))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("%s", strings.Join(errs, "; "))
	}
	return nil
}
