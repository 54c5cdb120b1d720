package repository

import (
	"context"

	"github.com/canonicaltags/ctags/internal/datastore/entities"
)

// AssociationRepository provides access to the tagged_items table: the links
// between tags and (entity type, entity id) pairs, and every aggregate the
// query engine runs over them.
type AssociationRepository interface {
	// TagIDsForEntity returns the ids of the tags linked to an entity, ascending.
	TagIDsForEntity(ctx context.Context, entityTypeID, entityID uint) ([]uint, error)

	// TagsForEntity returns the tags linked to an entity in display order for locale.
	TagsForEntity(ctx context.Context, entityTypeID, entityID uint, locale entities.Locale) ([]*entities.Tag, error)

	// Link associates a tag with an entity. Linking twice is a no-op.
	Link(ctx context.Context, tagID, entityTypeID, entityID uint) error

	// LinkMany associates several tags with an entity. Existing links are kept.
	LinkMany(ctx context.Context, tagIDs []uint, entityTypeID, entityID uint) error

	// Create inserts a link and reports ErrDuplicateKey if it already exists.
	Create(ctx context.Context, tagID, entityTypeID, entityID uint) error

	// UnlinkMany removes the links between the given tags and an entity.
	UnlinkMany(ctx context.Context, tagIDs []uint, entityTypeID, entityID uint) (int64, error)

	// DeleteForEntity removes every link of an entity.
	DeleteForEntity(ctx context.Context, entityTypeID, entityID uint) (int64, error)

	// DeleteForTag removes every link of a tag.
	DeleteForTag(ctx context.Context, tagID uint) (int64, error)

	// DistinctTagIDs returns the ids of all tags used by entities of a type.
	DistinctTagIDs(ctx context.Context, entityTypeID uint) ([]uint, error)

	// UsageCounts groups the links of a type by tag and counts entities per tag.
	// refine may narrow the entities considered. minCount > 0 drops groups
	// smaller than minCount after grouping. Rows are ordered by tag id.
	UsageCounts(ctx context.Context, entityTypeID uint, refine Refiner, minCount int64) ([]TagCount, error)

	// CoOccurringCounts counts, per tag outside tagIDs, the entities of a type
	// that carry every tag in tagIDs and also that tag. Rows are ordered by the
	// tag's name in locale, then tag id. minCount > 0 filters after grouping.
	CoOccurringCounts(ctx context.Context, entityTypeID uint, tagIDs []uint, minCount int64, locale entities.Locale) ([]TagCount, error)

	// EntitiesWithAll returns, ascending, the ids of entities of a type that
	// carry every tag in tagIDs. An empty tagIDs yields no entities.
	EntitiesWithAll(ctx context.Context, entityTypeID uint, tagIDs []uint, refine Refiner) ([]uint, error)

	// EntitiesWithAny returns, ascending, the ids of entities of a type that
	// carry at least one tag in tagIDs. An empty tagIDs yields no entities.
	EntitiesWithAny(ctx context.Context, entityTypeID uint, tagIDs []uint, refine Refiner) ([]uint, error)

	// RelatedEntities ranks entities of targetTypeID by the number of tags they
	// share with the source entity, descending, ties by entity id. The source
	// itself is excluded when the types match. limit > 0 truncates after ranking.
	RelatedEntities(ctx context.Context, sourceTypeID, sourceID, targetTypeID uint, refine Refiner, limit int) ([]EntityScore, error)
}
