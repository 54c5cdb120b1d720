package repository

import (
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/canonicaltags/ctags/internal/errors"
)

// Sentinel errors for repository operations.
var (
	// ErrTagNotFound indicates the requested tag does not exist.
	ErrTagNotFound = errors.NewStd("tag not found")

	// ErrAliasNotFound indicates the requested alias does not exist.
	ErrAliasNotFound = errors.NewStd("tag alias not found")

	// ErrEntityTypeNotFound indicates the entity type token is not registered.
	ErrEntityTypeNotFound = errors.NewStd("entity type not found")

	// ErrDuplicateKey indicates a unique constraint violation.
	ErrDuplicateKey = errors.NewStd("duplicate key")

	// ErrInvalidInput indicates invalid input parameters.
	ErrInvalidInput = errors.NewStd("invalid input")
)

// translate maps GORM errors onto repository sentinels. The original error
// stays in the chain for logging.
func translate(err, notFound error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound) && notFound != nil:
		return notFound
	case isDuplicateKey(err):
		return fmt.Errorf("%w: %w", ErrDuplicateKey, err)
	default:
		return err
	}
}

// isDuplicateKey recognizes unique violations whether or not the dialector
// translated them.
func isDuplicateKey(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") ||
		strings.Contains(msg, "Duplicate entry")
}
