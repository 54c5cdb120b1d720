package tagging

import (
	"time"

	"github.com/canonicaltags/ctags/internal/datastore/repository"
	"github.com/canonicaltags/ctags/internal/errors"
	"github.com/canonicaltags/ctags/internal/observability/metrics"
)

const componentTagging = "tagging"

func invalidArgument(format string, args ...any) error {
	return errors.Newf(format, args...).
		Component(componentTagging).
		Category(errors.CategoryValidation).
		Build()
}

// adapterFailure keeps the adapter error in the chain so callers can still
// match it with errors.Is and errors.As.
func adapterFailure(op, entityType string, err error) error {
	var ee *errors.EnhancedError
	if errors.As(err, &ee) && ee.Category == errors.CategoryAdapter {
		return err
	}
	return errors.New(err).
		Component(componentTagging).
		Category(errors.CategoryAdapter).
		Context("operation", op).
		Context("entity_type", entityType).
		Build()
}

// classify maps repository sentinels onto the engine's error categories.
// Errors already categorized pass through untouched.
func classify(op string, elapsed time.Duration, err error) error {
	if err == nil {
		return nil
	}

	var ee *errors.EnhancedError
	if errors.As(err, &ee) {
		return err
	}

	category := errors.CategoryDatabase
	switch {
	case errors.Is(err, repository.ErrTagNotFound),
		errors.Is(err, repository.ErrAliasNotFound),
		errors.Is(err, repository.ErrEntityTypeNotFound):
		category = errors.CategoryNotFound
	case errors.Is(err, repository.ErrDuplicateKey):
		category = errors.CategoryConflict
	case errors.Is(err, repository.ErrInvalidInput):
		category = errors.CategoryValidation
	}

	builder := errors.New(err).
		Component(componentTagging).
		Category(category).
		Timing(op, elapsed)
	if category == errors.CategoryDatabase && isWrite(op) {
		// A failed write loses the caller's change.
		builder = builder.Priority(errors.PriorityHigh)
	}
	return builder.Build()
}

func isWrite(op string) bool {
	switch op {
	case metrics.OpReplaceTags, metrics.OpAddTagByName, metrics.OpLink, metrics.OpUnlink,
		metrics.OpDeleteEntity, metrics.OpDeleteTag, metrics.OpAliasWrite, metrics.OpTagAdmin:
		return true
	}
	return false
}

// errorType returns the metrics label for err.
func errorType(err error) string {
	var ee *errors.EnhancedError
	if errors.As(err, &ee) {
		return string(ee.Category)
	}
	return string(errors.CategoryGeneric)
}
