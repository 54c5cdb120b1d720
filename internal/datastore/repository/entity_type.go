package repository

import (
	"context"

	"github.com/canonicaltags/ctags/internal/datastore/entities"
)

// EntityTypeRepository provides access to the entity_types registry.
type EntityTypeRepository interface {
	// GetOrCreate returns the entity type registered under token, registering it if needed.
	GetOrCreate(ctx context.Context, token string) (*entities.EntityType, error)

	// GetByToken retrieves an entity type by token.
	// Returns ErrEntityTypeNotFound if not found.
	GetByToken(ctx context.Context, token string) (*entities.EntityType, error)

	// GetByID retrieves an entity type by id.
	// Returns ErrEntityTypeNotFound if not found.
	GetByID(ctx context.Context, id uint) (*entities.EntityType, error)

	// LockForUpdate takes a row lock on the entity type until the enclosing
	// transaction ends. Backends without row locks ignore it.
	// Returns ErrEntityTypeNotFound if not found.
	LockForUpdate(ctx context.Context, id uint) error

	// List returns all registered entity types ordered by token.
	List(ctx context.Context) ([]*entities.EntityType, error)
}
