// Package repository provides repository interfaces and GORM implementations
// for the tagging schema.
//
// Repositories are thin: they translate GORM errors into the sentinel errors
// of this package and express every aggregate as a parameterized query-builder
// call (Group, Having, subqueries). Table names carry the configured prefix
// and are always quoted through clause.Table and clause.Column.
//
// Every constructor takes a *gorm.DB, so a repository bound to a transaction
// is obtained by passing the transaction handle:
//
//	err := db.Transaction(func(tx *gorm.DB) error {
//	    assoc := repository.NewAssociationRepository(tx, prefix)
//	    return assoc.Link(ctx, tagID, typeID, entityID)
//	})
package repository
