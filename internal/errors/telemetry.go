// Package errors - telemetry integration (optional)
package errors

import (
	"fmt"
	"regexp"
	"strings"
	"sync"

	"github.com/getsentry/sentry-go"
)

// TelemetryReporter is an interface for reporting errors to telemetry systems
type TelemetryReporter interface {
	ReportError(err *EnhancedError)
	IsEnabled() bool
}

// SentryReporter implements TelemetryReporter for Sentry
type SentryReporter struct {
	enabled bool
}

// NewSentryReporter creates a new Sentry telemetry reporter
func NewSentryReporter(enabled bool) *SentryReporter {
	return &SentryReporter{enabled: enabled}
}

// IsEnabled returns whether Sentry telemetry is enabled
func (sr *SentryReporter) IsEnabled() bool {
	return sr.enabled
}

// ReportError reports an enhanced error to Sentry with privacy protection
func (sr *SentryReporter) ReportError(ee *EnhancedError) {
	if !sr.enabled || ee.IsReported() {
		return
	}

	message := ScrubMessage(fmt.Sprintf("[%s] %s", ee.Category, ee.Err.Error()))
	title := errorTitle(ee)
	component := ee.GetComponent()

	sentry.WithScope(func(scope *sentry.Scope) {
		scope.SetTag("error_title", title)
		scope.SetTag("component", component)
		scope.SetTag("category", string(ee.Category))
		scope.SetTag("error_type", fmt.Sprintf("%T", ee.Err))

		for key, value := range ee.GetContext() {
			if s, ok := value.(string); ok {
				value = ScrubMessage(s)
			}
			scope.SetContext(key, map[string]any{"value": value})
		}

		level := errorLevel(ee)
		if p := ee.GetPriority(); p != "" {
			scope.SetTag("priority", p)
		}
		scope.SetLevel(level)
		scope.SetFingerprint([]string{title, component, string(ee.Category)})

		event := sentry.NewEvent()
		event.Message = message
		event.Level = level
		event.Timestamp = ee.GetTimestamp()
		event.Exception = []sentry.Exception{{Type: title, Value: message}}
		sentry.CaptureEvent(event)
	})

	ee.MarkReported()
}

// errorTitle builds a grouping title such as "Tagging Not Found Replace Tags".
func errorTitle(ee *EnhancedError) string {
	parts := []string{titleCase(ee.GetComponent())}
	parts = append(parts, titleCase(string(ee.Category)))
	if op, ok := ee.GetContext()["operation"].(string); ok && op != "" {
		parts = append(parts, titleCase(op))
	}
	return strings.Join(parts, " ")
}

func titleCase(s string) string {
	words := strings.FieldsFunc(s, func(r rune) bool {
		return r == '-' || r == '_' || r == '.' || r == ' '
	})
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}

// errorLevel honors an explicit priority before falling back to the category.
func errorLevel(ee *EnhancedError) sentry.Level {
	switch ee.GetPriority() {
	case PriorityCritical:
		return sentry.LevelFatal
	case PriorityHigh:
		return sentry.LevelError
	case PriorityMedium:
		return sentry.LevelWarning
	case PriorityLow:
		return sentry.LevelInfo
	}

	switch ee.Category {
	case CategoryNotFound, CategoryValidation:
		return sentry.LevelInfo
	case CategoryConflict:
		return sentry.LevelWarning
	case CategoryDatabase, CategoryAdapter, CategoryConfiguration:
		return sentry.LevelError
	default:
		return sentry.LevelError
	}
}

var (
	telemetryReporter TelemetryReporter
	reporterMutex     sync.RWMutex
)

// SetTelemetryReporter installs the global reporter. Passing nil disables reporting.
func SetTelemetryReporter(reporter TelemetryReporter) {
	reporterMutex.Lock()
	defer reporterMutex.Unlock()
	telemetryReporter = reporter
	hasActiveReporting.Store(reporter != nil && reporter.IsEnabled())
}

// GetTelemetryReporter returns the current telemetry reporter
func GetTelemetryReporter() TelemetryReporter {
	reporterMutex.RLock()
	defer reporterMutex.RUnlock()
	return telemetryReporter
}

// reportToTelemetry skips not-found and validation errors since they describe
// caller input rather than faults.
func reportToTelemetry(ee *EnhancedError) {
	if ee.Category == CategoryNotFound || ee.Category == CategoryValidation {
		return
	}
	reporter := GetTelemetryReporter()
	if reporter == nil || !reporter.IsEnabled() {
		return
	}
	reporter.ReportError(ee)
}

var (
	dsnCredentialsPattern = regexp.MustCompile(`([a-zA-Z0-9_.-]+):([^@\s/]+)@`)
	urlQueryPattern       = regexp.MustCompile(`(https?://[^\s?]+)\?\S*`)
	filePathPattern       = regexp.MustCompile(`(/[A-Za-z0-9_.-]+){2,}`)
)

// ScrubMessage removes credentials, query strings and absolute file paths
// from a message before it leaves the process.
func ScrubMessage(message string) string {
	message = dsnCredentialsPattern.ReplaceAllString(message, "$1:[REDACTED]@")
	message = urlQueryPattern.ReplaceAllString(message, "$1?[REDACTED]")
	message = filePathPattern.ReplaceAllString(message, "[PATH]")
	return message
}
