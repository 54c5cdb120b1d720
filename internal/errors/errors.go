// Package errors provides centralized error handling with optional telemetry integration
package errors

import (
	stderrors "errors"
	"fmt"
	"maps"
	"runtime"
	"strings"
	"sync"
	"sync/atomic"
	"time"
)

// ErrorCategory represents the type of error for better categorization
type ErrorCategory string

// CategorizedError is an interface for errors that can specify their own category
type CategorizedError interface {
	error
	ErrorCategory() ErrorCategory
}

const (
	// CategoryNotFound marks lookups that found no exact match.
	CategoryNotFound ErrorCategory = "not-found"
	// CategoryValidation marks malformed input (InvalidArgument).
	CategoryValidation ErrorCategory = "validation"
	// CategoryConflict marks unique constraint violations (ConstraintViolation).
	CategoryConflict ErrorCategory = "conflict"
	// CategoryAdapter marks failures returned by the entity catalog adapter.
	CategoryAdapter ErrorCategory = "catalog-adapter"
	// CategoryDatabase marks storage backend failures.
	CategoryDatabase ErrorCategory = "database"

	CategoryConfiguration ErrorCategory = "configuration"
	CategoryFileIO        ErrorCategory = "file-io"
	CategoryFileParsing   ErrorCategory = "file-parsing"
	CategoryGeneric       ErrorCategory = "generic"
)

// Priority constants for error prioritization
const (
	PriorityLow      = "low"
	PriorityMedium   = "medium"
	PriorityHigh     = "high"
	PriorityCritical = "critical"
)

// ComponentUnknown is used when the component cannot be determined.
const ComponentUnknown = "unknown"

// hasActiveReporting is flipped on when a telemetry reporter is installed, so
// Build can skip stack walking on the hot path.
var hasActiveReporting atomic.Bool

// EnhancedError wraps an error with additional context and metadata
type EnhancedError struct {
	Err       error          // Original error
	component string         // Component where error occurred (lazily detected)
	Category  ErrorCategory  // Error category for better grouping
	Priority  string         // Explicit priority override (optional)
	Context   map[string]any // Additional context data
	Timestamp time.Time      // When the error occurred
	reported  bool           // Whether telemetry has been sent
	mu        sync.RWMutex   // Mutex to protect concurrent access
	detected  bool           // Whether component has been auto-detected
}

// Error implements the error interface
func (ee *EnhancedError) Error() string {
	return ee.Err.Error()
}

// Unwrap implements the error unwrapping interface
func (ee *EnhancedError) Unwrap() error {
	return ee.Err
}

// Is implements error type checking
func (ee *EnhancedError) Is(target error) bool {
	if ee2, ok := target.(*EnhancedError); ok {
		return ee.Category == ee2.Category
	}
	return Is(ee.Err, target)
}

// GetComponent returns the component name, detecting it lazily if needed
func (ee *EnhancedError) GetComponent() string {
	ee.mu.RLock()
	if ee.detected || ee.component != "" {
		component := ee.component
		ee.mu.RUnlock()
		return component
	}
	ee.mu.RUnlock()

	ee.mu.Lock()
	defer ee.mu.Unlock()

	if ee.component == "" && !ee.detected {
		ee.component = detectComponent()
		ee.detected = true
		if ee.component == "" {
			ee.component = ComponentUnknown
		}
	}

	return ee.component
}

// GetCategory returns the error category
func (ee *EnhancedError) GetCategory() string {
	return string(ee.Category)
}

// GetPriority returns the explicit priority if set, empty string otherwise
func (ee *EnhancedError) GetPriority() string {
	return ee.Priority
}

// GetContext returns a copy of the error context
func (ee *EnhancedError) GetContext() map[string]any {
	ee.mu.RLock()
	defer ee.mu.RUnlock()

	if ee.Context == nil {
		return nil
	}

	contextCopy := make(map[string]any, len(ee.Context))
	maps.Copy(contextCopy, ee.Context)
	return contextCopy
}

// GetTimestamp returns when the error occurred
func (ee *EnhancedError) GetTimestamp() time.Time {
	return ee.Timestamp
}

// GetError returns the underlying error
func (ee *EnhancedError) GetError() error {
	return ee.Err
}

// MarkReported marks this error as reported to telemetry
func (ee *EnhancedError) MarkReported() {
	ee.mu.Lock()
	defer ee.mu.Unlock()
	ee.reported = true
}

// IsReported returns whether this error has been reported
func (ee *EnhancedError) IsReported() bool {
	ee.mu.RLock()
	defer ee.mu.RUnlock()
	return ee.reported
}

// ErrorBuilder provides a fluent interface for creating enhanced errors
type ErrorBuilder struct {
	err       error
	component string
	category  ErrorCategory
	priority  string
	context   map[string]any
}

// New creates a new error with enhanced context
func New(err error) *ErrorBuilder {
	return &ErrorBuilder{err: err}
}

// Newf creates a new formatted error with enhanced context
func Newf(format string, args ...any) *ErrorBuilder {
	return New(fmt.Errorf(format, args...))
}

// Component sets the component name (auto-detected if not set)
func (eb *ErrorBuilder) Component(component string) *ErrorBuilder {
	eb.component = component
	return eb
}

// Category sets the error category for better grouping
func (eb *ErrorBuilder) Category(category ErrorCategory) *ErrorBuilder {
	eb.category = category
	return eb
}

// Priority sets the explicit priority override for the error
func (eb *ErrorBuilder) Priority(priority string) *ErrorBuilder {
	switch priority {
	case PriorityLow, PriorityMedium, PriorityHigh, PriorityCritical:
		eb.priority = priority
	default:
		if priority != "" {
			eb.priority = PriorityMedium
		}
	}
	return eb
}

// Context adds context data to the error
func (eb *ErrorBuilder) Context(key string, value any) *ErrorBuilder {
	if eb.context == nil {
		eb.context = make(map[string]any)
	}
	eb.context[key] = value
	return eb
}

// Timing adds performance timing context
func (eb *ErrorBuilder) Timing(operation string, duration time.Duration) *ErrorBuilder {
	if eb.context == nil {
		eb.context = make(map[string]any)
	}
	eb.context["operation"] = operation
	eb.context["duration_ms"] = duration.Milliseconds()
	return eb
}

// Build creates the EnhancedError and triggers optional telemetry reporting
func (eb *ErrorBuilder) Build() *EnhancedError {
	if !hasActiveReporting.Load() {
		ee := &EnhancedError{
			Err:       eb.err,
			component: eb.component,
			Category:  eb.category,
			Priority:  eb.priority,
			Context:   eb.context,
			Timestamp: time.Now(),
			detected:  eb.component != "",
		}
		if ee.component == "" {
			ee.component = ComponentUnknown
			ee.detected = true
		}
		if ee.Category == "" {
			ee.Category = detectCategory(eb.err, ee.component)
		}
		return ee
	}

	if eb.component == "" {
		eb.component = detectComponent()
	}
	if eb.category == "" {
		eb.category = detectCategory(eb.err, eb.component)
	}

	ee := &EnhancedError{
		Err:       eb.err,
		component: eb.component,
		Category:  eb.category,
		Priority:  eb.priority,
		Context:   eb.context,
		Timestamp: time.Now(),
		detected:  true,
	}

	reportToTelemetry(ee)

	return ee
}

// Component registry for dynamic component detection
var (
	componentRegistry = make(map[string]string)
	registryMutex     sync.RWMutex
)

// RegisterComponent registers a package path pattern with a component name
func RegisterComponent(packagePattern, componentName string) {
	registryMutex.Lock()
	defer registryMutex.Unlock()
	componentRegistry[packagePattern] = componentName
}

func init() {
	RegisterComponent("internal/tagging", "tagging")
	RegisterComponent("internal/catalog", "catalog")
	RegisterComponent("internal/datastore/repository", "datastore.repository")
	RegisterComponent("internal/datastore", "datastore")
	RegisterComponent("internal/fixtures", "fixtures")
	RegisterComponent("internal/conf", "configuration")
	RegisterComponent("internal/runtime", "runtime")
}

// quickComponentLookup tries to detect component from a specific caller depth
func quickComponentLookup(depth int) string {
	pc, _, _, ok := runtime.Caller(depth)
	if !ok {
		return ""
	}

	fn := runtime.FuncForPC(pc)
	if fn == nil {
		return ""
	}

	funcName := fn.Name()
	if strings.Contains(funcName, "github.com/canonicaltags/ctags/internal/errors") {
		return ""
	}

	return lookupComponent(funcName)
}

// detectComponent automatically detects the component based on the call stack
func detectComponent() string {
	for _, depth := range []int{4, 5, 6, 7} {
		if component := quickComponentLookup(depth); component != "" && component != ComponentUnknown {
			return component
		}
	}

	return detectComponentFull()
}

// detectComponentFull walks the entire call stack to find the component
func detectComponentFull() string {
	pcs := make([]uintptr, 16)
	n := runtime.Callers(2, pcs)
	if n == len(pcs) {
		pcs = make([]uintptr, 32)
		n = runtime.Callers(2, pcs)
	}

	for i := range n {
		fn := runtime.FuncForPC(pcs[i])
		if fn == nil {
			continue
		}

		funcName := fn.Name()
		if strings.Contains(funcName, "github.com/canonicaltags/ctags/internal/errors") {
			continue
		}

		if component := lookupComponent(funcName); component != ComponentUnknown {
			return component
		}
	}

	return ComponentUnknown
}

// lookupComponent searches the registry for a matching component.
// The longest matching pattern wins so nested packages resolve before parents.
func lookupComponent(funcName string) string {
	registryMutex.RLock()
	defer registryMutex.RUnlock()

	best, bestLen := "", 0
	for pattern, component := range componentRegistry {
		if strings.Contains(funcName, pattern) && len(pattern) > bestLen {
			best, bestLen = component, len(pattern)
		}
	}
	if best != "" {
		return best
	}

	return ComponentUnknown
}

// detectCategory automatically detects error category based on the error chain and component
func detectCategory(err error, component string) ErrorCategory {
	if err == nil {
		return CategoryGeneric
	}

	var catErr CategorizedError
	if stderrors.As(err, &catErr) {
		return catErr.ErrorCategory()
	}

	var enhErr *EnhancedError
	if stderrors.As(err, &enhErr) && enhErr.Category != "" {
		return enhErr.Category
	}

	errorMsg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(errorMsg, "not found"):
		return CategoryNotFound
	case strings.Contains(errorMsg, "duplicate"), strings.Contains(errorMsg, "unique constraint"):
		return CategoryConflict
	case strings.Contains(errorMsg, "invalid"):
		return CategoryValidation
	}

	switch component {
	case "datastore", "datastore.repository":
		return CategoryDatabase
	case "catalog":
		return CategoryAdapter
	case "configuration":
		return CategoryConfiguration
	}

	return CategoryGeneric
}

// Standard library passthrough functions
// These allow this package to be a drop-in replacement for the standard errors package

// NewStd creates a new standard error (passthrough to standard library)
func NewStd(text string) error {
	return stderrors.New(text)
}

// Is reports whether any error in err's tree matches target (passthrough to standard library)
func Is(err, target error) bool {
	return stderrors.Is(err, target)
}

// As finds the first error in err's tree that matches target (passthrough to standard library)
func As(err error, target any) bool {
	return stderrors.As(err, target)
}

// Unwrap returns the result of calling the Unwrap method on err (passthrough to standard library)
func Unwrap(err error) error {
	return stderrors.Unwrap(err)
}

// Join returns an error that wraps the given errors (passthrough to standard library)
func Join(errs ...error) error {
	return stderrors.Join(errs...)
}

// IsCategory checks if an error is an EnhancedError with the specified category.
func IsCategory(err error, category ErrorCategory) bool {
	var enhancedErr *EnhancedError
	return As(err, &enhancedErr) && enhancedErr.Category == category
}

// IsNotFound checks if an error is an EnhancedError with CategoryNotFound.
func IsNotFound(err error) bool {
	return IsCategory(err, CategoryNotFound)
}

// IsInvalidArgument checks if an error is an EnhancedError with CategoryValidation.
func IsInvalidArgument(err error) bool {
	return IsCategory(err, CategoryValidation)
}

// IsConstraintViolation checks if an error is an EnhancedError with CategoryConflict.
func IsConstraintViolation(err error) bool {
	return IsCategory(err, CategoryConflict)
}

// IsAdapterFailure checks if an error is an EnhancedError with CategoryAdapter.
func IsAdapterFailure(err error) bool {
	return IsCategory(err, CategoryAdapter)
}
