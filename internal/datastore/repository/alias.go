package repository

import (
	"context"

	"github.com/canonicaltags/ctags/internal/datastore/entities"
)

// AliasRepository provides access to the tag_aliases table.
type AliasRepository interface {
	// Create inserts an alias. Returns ErrDuplicateKey when the name is taken.
	Create(ctx context.Context, alias *entities.TagAlias) error

	// Upsert inserts the alias or repoints an existing alias of the same name.
	Upsert(ctx context.Context, alias *entities.TagAlias) error

	// GetByName retrieves an alias by exact name.
	// Returns ErrAliasNotFound if not found.
	GetByName(ctx context.Context, name string) (*entities.TagAlias, error)

	// Suggest returns aliases whose name starts with prefix, ordered by name.
	Suggest(ctx context.Context, prefix string, limit int) ([]*entities.TagAlias, error)

	// ListForTag returns every alias pointing at tagID, ordered by name.
	ListForTag(ctx context.Context, tagID uint) ([]*entities.TagAlias, error)

	// List returns all aliases ordered by name.
	List(ctx context.Context) ([]*entities.TagAlias, error)

	// Delete removes an alias by ID.
	// Returns ErrAliasNotFound if not found.
	Delete(ctx context.Context, id uint) error

	// DeleteForTag removes every alias pointing at tagID.
	DeleteForTag(ctx context.Context, tagID uint) (int64, error)
}
