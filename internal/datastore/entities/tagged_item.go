package entities

import "time"

// EntityType registers an entity type token. Associations reference the
// numeric id so tokens can be long without bloating the association table.
type EntityType struct {
	ID        uint      `gorm:"primaryKey"`
	Token     string    `gorm:"size:100;not null;uniqueIndex"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
}

// TaggedItem links one tag to one entity. The composite primary key enforces
// at most one association per (tag, entity type, entity id).
type TaggedItem struct {
	TagID        uint `gorm:"primaryKey;autoIncrement:false"`
	EntityTypeID uint `gorm:"primaryKey;autoIncrement:false;index:idx_tagged_items_entity,priority:1"`
	EntityID     uint `gorm:"primaryKey;autoIncrement:false;index:idx_tagged_items_entity,priority:2"`

	Tag        *Tag        `gorm:"foreignKey:TagID;constraint:OnDelete:CASCADE"`
	EntityType *EntityType `gorm:"foreignKey:EntityTypeID;constraint:OnDelete:CASCADE"`
}

// All returns every model in migration order.
func All() []any {
	return []any{
		&Tag{},
		&TagAlias{},
		&EntityType{},
		&TaggedItem{},
	}
}
