package repository

import (
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// TagCount is one row of a usage aggregate: a tag id and the number of
// entities carrying it.
type TagCount struct {
	TagID uint  `gorm:"column:tag_id"`
	Count int64 `gorm:"column:cnt"`
}

// EntityScore ranks an entity by the number of tags it shares with a source entity.
type EntityScore struct {
	EntityID uint  `gorm:"column:entity_id"`
	Shared   int64 `gorm:"column:shared"`
}

// Refiner narrows an association query before it is aggregated. entity is
// the qualified entity id column of the association table in q. A nil
// Refiner leaves the query untouched.
type Refiner func(q *gorm.DB, entity clause.Column) (*gorm.DB, error)

func (r Refiner) apply(q *gorm.DB, entity clause.Column) (*gorm.DB, error) {
	if r == nil {
		return q, nil
	}
	return r(q, entity)
}
