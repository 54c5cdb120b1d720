// Package catalog defines the entity catalog the tagging engine consumes and
// a GORM-backed implementation over host application tables.
//
// The engine never reads entity content. It asks the catalog to resolve an
// entity type token to a numeric id, to narrow association queries with a
// caller-supplied predicate, and to hydrate ranked id lists into records.
package catalog

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Predicate narrows a query over an entity type's backing table. It receives
// a query selecting the table's primary key and returns the refined query.
// Predicates must not change the selected column.
type Predicate func(q *gorm.DB) *gorm.DB

// Existing keeps every row of the backing table. Passing it instead of nil
// restricts a query to entities the host store still holds.
func Existing(q *gorm.DB) *gorm.DB {
	return q
}

// Record is one hydrated entity.
type Record struct {
	ID     uint
	Fields map[string]any
}

// Adapter is the entity catalog contract.
type Adapter interface {
	// ResolveEntityType maps a type token to its numeric id, registering
	// the token on first use.
	ResolveEntityType(ctx context.Context, token string) (uint, error)

	// BulkFetch loads the records of token for ids. The result follows the
	// order of ids; ids missing from the backing store are omitted.
	BulkFetch(ctx context.Context, token string, ids []uint) ([]Record, error)

	// ApplyPredicate restricts base to rows whose entity column references an
	// entity of token matching pred. The filter is composed as a subquery so
	// the filtered entity set is never materialized in memory.
	ApplyPredicate(ctx context.Context, base *gorm.DB, entity clause.Column, token string, pred Predicate) (*gorm.DB, error)
}
