package repository

import (
	"context"
	"slices"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/canonicaltags/ctags/internal/datastore/entities"
)

// associationRepository implements AssociationRepository.
type associationRepository struct {
	db *gorm.DB
	t  tables
}

// NewAssociationRepository creates a new AssociationRepository.
func NewAssociationRepository(db *gorm.DB, tablePrefix string) AssociationRepository {
	return &associationRepository{db: db, t: newTables(tablePrefix)}
}

// items starts a query over the association table under alias.
func (r *associationRepository) items(ctx context.Context, alias string) *gorm.DB {
	return r.db.WithContext(ctx).Table("?", r.t.taggedItems(alias))
}

func col(table, name string) clause.Column {
	return clause.Column{Table: table, Name: name}
}

func (r *associationRepository) TagIDsForEntity(ctx context.Context, entityTypeID, entityID uint) ([]uint, error) {
	var ids []uint
	err := r.db.WithContext(ctx).Model(&entities.TaggedItem{}).
		Where("entity_type_id = ? AND entity_id = ?", entityTypeID, entityID).
		Order("tag_id ASC").
		Pluck("tag_id", &ids).Error
	return ids, err
}

func (r *associationRepository) TagsForEntity(ctx context.Context, entityTypeID, entityID uint, locale entities.Locale) ([]*entities.Tag, error) {
	if !locale.Valid() {
		return nil, ErrInvalidInput
	}

	linked := r.db.Model(&entities.TaggedItem{}).
		Select("tag_id").
		Where("entity_type_id = ? AND entity_id = ?", entityTypeID, entityID)

	var tags []*entities.Tag
	err := r.db.WithContext(ctx).
		Where("id IN (?)", linked).
		Order(nameOrder("", locale)).
		Find(&tags).Error
	return tags, err
}

func (r *associationRepository) Link(ctx context.Context, tagID, entityTypeID, entityID uint) error {
	return r.LinkMany(ctx, []uint{tagID}, entityTypeID, entityID)
}

func (r *associationRepository) LinkMany(ctx context.Context, tagIDs []uint, entityTypeID, entityID uint) error {
	if len(tagIDs) == 0 {
		return nil
	}

	items := make([]entities.TaggedItem, 0, len(tagIDs))
	for _, id := range tagIDs {
		items = append(items, entities.TaggedItem{TagID: id, EntityTypeID: entityTypeID, EntityID: entityID})
	}

	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		CreateInBatches(items, queryBatchSize).Error
	return translate(err, nil)
}

func (r *associationRepository) Create(ctx context.Context, tagID, entityTypeID, entityID uint) error {
	item := entities.TaggedItem{TagID: tagID, EntityTypeID: entityTypeID, EntityID: entityID}
	return translate(r.db.WithContext(ctx).Create(&item).Error, nil)
}

func (r *associationRepository) UnlinkMany(ctx context.Context, tagIDs []uint, entityTypeID, entityID uint) (int64, error) {
	var removed int64
	for _, batch := range chunk(tagIDs, queryBatchSize) {
		result := r.db.WithContext(ctx).
			Where("entity_type_id = ? AND entity_id = ? AND tag_id IN ?", entityTypeID, entityID, batch).
			Delete(&entities.TaggedItem{})
		if result.Error != nil {
			return removed, result.Error
		}
		removed += result.RowsAffected
	}
	return removed, nil
}

func (r *associationRepository) DeleteForEntity(ctx context.Context, entityTypeID, entityID uint) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("entity_type_id = ? AND entity_id = ?", entityTypeID, entityID).
		Delete(&entities.TaggedItem{})
	return result.RowsAffected, result.Error
}

func (r *associationRepository) DeleteForTag(ctx context.Context, tagID uint) (int64, error) {
	result := r.db.WithContext(ctx).Where("tag_id = ?", tagID).Delete(&entities.TaggedItem{})
	return result.RowsAffected, result.Error
}

func (r *associationRepository) DistinctTagIDs(ctx context.Context, entityTypeID uint) ([]uint, error) {
	var ids []uint
	err := r.db.WithContext(ctx).Model(&entities.TaggedItem{}).
		Where("entity_type_id = ?", entityTypeID).
		Group("tag_id").
		Order("tag_id ASC").
		Pluck("tag_id", &ids).Error
	return ids, err
}

// UsageCounts is the GROUP BY tag_id / HAVING COUNT >= min aggregate behind
// usage and cloud queries.
func (r *associationRepository) UsageCounts(ctx context.Context, entityTypeID uint, refine Refiner, minCount int64) ([]TagCount, error) {
	q := r.items(ctx, "ti").
		Select("ti.tag_id AS tag_id, COUNT(*) AS cnt").
		Where("ti.entity_type_id = ?", entityTypeID)

	q, err := refine.apply(q, col("ti", "entity_id"))
	if err != nil {
		return nil, err
	}

	q = q.Group("ti.tag_id")
	if minCount > 0 {
		q = q.Having("COUNT(*) >= ?", minCount)
	}

	var rows []TagCount
	if err := q.Order("ti.tag_id ASC").Scan(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// withAllSubquery selects the entities of a type carrying every tag in ids.
func (r *associationRepository) withAllSubquery(entityTypeID uint, ids []uint) *gorm.DB {
	return r.db.Table("?", r.t.taggedItems("m")).
		Select("m.entity_id").
		Where("m.entity_type_id = ? AND m.tag_id IN ?", entityTypeID, ids).
		Group("m.entity_id").
		Having("COUNT(*) = ?", len(ids))
}

func (r *associationRepository) CoOccurringCounts(ctx context.Context, entityTypeID uint, tagIDs []uint, minCount int64, locale entities.Locale) ([]TagCount, error) {
	ids := dedupe(tagIDs)
	if len(ids) == 0 {
		return nil, nil
	}
	if !locale.Valid() {
		return nil, ErrInvalidInput
	}

	members := r.withAllSubquery(entityTypeID, ids)
	name := col("t", locale.NameColumn())

	q := r.items(ctx, "ti").
		Select("ti.tag_id AS tag_id, COUNT(*) AS cnt").
		Joins("JOIN ? ON t.id = ti.tag_id", r.t.tags("t")).
		Where("ti.entity_type_id = ?", entityTypeID).
		Where("ti.entity_id IN (?)", members).
		Where("ti.tag_id NOT IN ?", ids).
		Group("ti.tag_id").
		Clauses(clause.GroupBy{Columns: []clause.Column{name}})
	if minCount > 0 {
		q = q.Having("COUNT(*) >= ?", minCount)
	}
	q = q.Order(clause.OrderBy{Expression: clause.Expr{
		SQL:  "LOWER(?) ASC, ti.tag_id ASC",
		Vars: []any{name},
	}})

	var rows []TagCount
	if err := q.Scan(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *associationRepository) EntitiesWithAll(ctx context.Context, entityTypeID uint, tagIDs []uint, refine Refiner) ([]uint, error) {
	ids := dedupe(tagIDs)
	if len(ids) == 0 {
		return nil, nil
	}

	q := r.items(ctx, "ti").Where("ti.entity_type_id = ?", entityTypeID)
	if len(ids) == 1 {
		q = q.Where("ti.tag_id = ?", ids[0])
	} else {
		q = q.Where("ti.tag_id IN ?", ids).
			Group("ti.entity_id").
			Having("COUNT(*) = ?", len(ids))
	}

	return r.pluckEntities(q, refine)
}

func (r *associationRepository) EntitiesWithAny(ctx context.Context, entityTypeID uint, tagIDs []uint, refine Refiner) ([]uint, error) {
	ids := dedupe(tagIDs)
	if len(ids) == 0 {
		return nil, nil
	}

	q := r.items(ctx, "ti").
		Where("ti.entity_type_id = ? AND ti.tag_id IN ?", entityTypeID, ids).
		Group("ti.entity_id")

	return r.pluckEntities(q, refine)
}

func (r *associationRepository) pluckEntities(q *gorm.DB, refine Refiner) ([]uint, error) {
	q, err := refine.apply(q, col("ti", "entity_id"))
	if err != nil {
		return nil, err
	}

	var out []uint
	if err := q.Order("ti.entity_id ASC").Pluck("ti.entity_id", &out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

// RelatedEntities self-joins the association table on tag id: every row pairs
// one of the source's tags with another entity carrying the same tag.
func (r *associationRepository) RelatedEntities(ctx context.Context, sourceTypeID, sourceID, targetTypeID uint, refine Refiner, limit int) ([]EntityScore, error) {
	if limit < 0 {
		return nil, ErrInvalidInput
	}

	q := r.items(ctx, "s").
		Select("o.entity_id AS entity_id, COUNT(*) AS shared").
		Joins("JOIN ? ON o.tag_id = s.tag_id", r.t.taggedItems("o")).
		Where("s.entity_type_id = ? AND s.entity_id = ?", sourceTypeID, sourceID).
		Where("o.entity_type_id = ?", targetTypeID)
	if sourceTypeID == targetTypeID {
		q = q.Where("o.entity_id <> ?", sourceID)
	}

	q, err := refine.apply(q, col("o", "entity_id"))
	if err != nil {
		return nil, err
	}

	q = q.Group("o.entity_id").
		Order("shared DESC").
		Order("o.entity_id ASC")
	if limit > 0 {
		q = q.Limit(limit)
	}

	var rows []EntityScore
	if err := q.Scan(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// dedupe returns the distinct non-zero ids in ascending order.
func dedupe(ids []uint) []uint {
	out := make([]uint, 0, len(ids))
	for _, id := range ids {
		if id != 0 {
			out = append(out, id)
		}
	}
	slices.Sort(out)
	return slices.Compact(out)
}
