package repository

import "gorm.io/gorm/clause"

// Base table names. GORM's naming strategy derives the same names from the
// entity structs; aggregate queries that alias tables need them explicitly.
const (
	tableTags        = "tags"
	tableTagAliases  = "tag_aliases"
	tableEntityTypes = "entity_types"
	tableTaggedItems = "tagged_items"
)

// queryBatchSize keeps IN lists below SQLite's bound-parameter limit.
const queryBatchSize = 400

// tables resolves prefixed table names.
type tables struct {
	prefix string
}

func newTables(prefix string) tables {
	return tables{prefix: prefix}
}

func (t tables) as(base, alias string) clause.Table {
	return clause.Table{Name: t.prefix + base, Alias: alias}
}

func (t tables) taggedItems(alias string) clause.Table {
	return t.as(tableTaggedItems, alias)
}

func (t tables) tags(alias string) clause.Table {
	return t.as(tableTags, alias)
}

// chunk splits ids into batches of at most size.
func chunk(ids []uint, size int) [][]uint {
	var out [][]uint
	for start := 0; start < len(ids); start += size {
		end := min(start+size, len(ids))
		out = append(out, ids[start:end])
	}
	return out
}
