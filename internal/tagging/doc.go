// Package tagging implements the tag registry and the tag-association query
// engine.
//
// An Engine links tags from a shared, localized vocabulary to entities owned
// by a host application. Entities are opaque (type token, id) pairs; the
// engine resolves type tokens, composes host predicates and hydrates ranked
// results through a catalog.Adapter and never reads entity content itself.
//
// Every query runs as an aggregate over the association table. Only
// ReplaceTags and the cleanup hooks write, each inside a single transaction.
package tagging
