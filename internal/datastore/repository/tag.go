package repository

import (
	"context"

	"github.com/canonicaltags/ctags/internal/datastore/entities"
)

// TagRepository provides access to the tags table.
type TagRepository interface {
	// GetOrCreate returns the tag with id, creating it with blank names when
	// absent. created reports whether this call inserted the row.
	GetOrCreate(ctx context.Context, id uint) (tag *entities.Tag, created bool, err error)

	// Create inserts a tag. A zero ID lets the database assign one.
	// Returns ErrDuplicateKey when a localized name is already taken.
	Create(ctx context.Context, tag *entities.Tag) error

	// GetByID retrieves a tag by its ID.
	// Returns ErrTagNotFound if not found.
	GetByID(ctx context.Context, id uint) (*entities.Tag, error)

	// GetByIDs retrieves multiple tags keyed by id. Missing ids are omitted.
	// Handles large ID sets by chunking to avoid SQL parameter limits.
	GetByIDs(ctx context.Context, ids []uint) (map[uint]*entities.Tag, error)

	// GetByLocaleName finds the tag whose name in locale equals name exactly.
	// Returns ErrTagNotFound if not found.
	GetByLocaleName(ctx context.Context, locale entities.Locale, name string) (*entities.Tag, error)

	// List returns a page of tags ordered case-insensitively by their name in
	// locale, then by id.
	List(ctx context.Context, locale entities.Locale, offset, limit int) ([]*entities.Tag, error)

	// Count returns the total number of tags.
	Count(ctx context.Context) (int64, error)

	// UpdateName sets one localized name; an empty name clears it.
	// Returns ErrTagNotFound or ErrDuplicateKey.
	UpdateName(ctx context.Context, id uint, locale entities.Locale, name string) error

	// UpdateApproved sets one approval flag.
	// Returns ErrTagNotFound if not found.
	UpdateApproved(ctx context.Context, id uint, locale entities.Locale, approved bool) error

	// Upsert inserts the tag or overwrites every column of an existing row.
	Upsert(ctx context.Context, tag *entities.Tag) error

	// Delete removes a tag by ID.
	// Returns ErrTagNotFound if not found.
	Delete(ctx context.Context, id uint) error
}
