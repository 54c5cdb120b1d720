// Package entities defines the GORM models for the tagging schema.
//
// # Entities
//
//   - Tag: canonical vocabulary entry with one name and one approval flag per locale
//   - TagAlias: alternate display string pointing at a tag, used for suggestions
//   - EntityType: registry of entity type tokens ("article", "video")
//   - TaggedItem: one association between a tag and an (entity type, entity id) pair
//
// Models carry no TableName overrides so the datastore managers can apply a
// table prefix through GORM's naming strategy.
package entities
