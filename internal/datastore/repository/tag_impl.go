package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/canonicaltags/ctags/internal/datastore/entities"
	"github.com/canonicaltags/ctags/internal/errors"
)

// tagRepository implements TagRepository.
type tagRepository struct {
	db *gorm.DB
	t  tables
}

// NewTagRepository creates a new TagRepository.
func NewTagRepository(db *gorm.DB, tablePrefix string) TagRepository {
	return &tagRepository{db: db, t: newTables(tablePrefix)}
}

// GetOrCreate retrieves an existing tag or creates a blank one.
func (r *tagRepository) GetOrCreate(ctx context.Context, id uint) (*entities.Tag, bool, error) {
	if id == 0 {
		return nil, false, ErrInvalidInput
	}

	var tag entities.Tag
	err := r.db.WithContext(ctx).First(&tag, id).Error
	if err == nil {
		return &tag, false, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, err
	}

	tag = entities.Tag{ID: id}
	createErr := r.db.WithContext(ctx).Create(&tag).Error
	if createErr != nil {
		// Another writer may have created it between the lookup and the insert.
		if findErr := r.db.WithContext(ctx).First(&tag, id).Error; findErr != nil {
			return nil, false, translate(createErr, nil)
		}
		return &tag, false, nil
	}

	return &tag, true, nil
}

// Create inserts a tag.
func (r *tagRepository) Create(ctx context.Context, tag *entities.Tag) error {
	return translate(r.db.WithContext(ctx).Create(tag).Error, nil)
}

// GetByID retrieves a tag by its ID.
func (r *tagRepository) GetByID(ctx context.Context, id uint) (*entities.Tag, error) {
	var tag entities.Tag
	if err := r.db.WithContext(ctx).First(&tag, id).Error; err != nil {
		return nil, translate(err, ErrTagNotFound)
	}
	return &tag, nil
}

// GetByIDs retrieves multiple tags in chunks.
func (r *tagRepository) GetByIDs(ctx context.Context, ids []uint) (map[uint]*entities.Tag, error) {
	result := make(map[uint]*entities.Tag, len(ids))
	for _, batch := range chunk(ids, queryBatchSize) {
		var tags []*entities.Tag
		if err := r.db.WithContext(ctx).Where("id IN ?", batch).Find(&tags).Error; err != nil {
			return nil, err
		}
		for _, tag := range tags {
			result[tag.ID] = tag
		}
	}
	return result, nil
}

// GetByLocaleName finds a tag by exact localized name.
func (r *tagRepository) GetByLocaleName(ctx context.Context, locale entities.Locale, name string) (*entities.Tag, error) {
	if !locale.Valid() || name == "" {
		return nil, ErrInvalidInput
	}

	var tag entities.Tag
	err := r.db.WithContext(ctx).
		Where(clause.Eq{Column: clause.Column{Name: locale.NameColumn()}, Value: name}).
		First(&tag).Error
	if err != nil {
		return nil, translate(err, ErrTagNotFound)
	}
	return &tag, nil
}

// List returns a page of tags in display order.
func (r *tagRepository) List(ctx context.Context, locale entities.Locale, offset, limit int) ([]*entities.Tag, error) {
	if !locale.Valid() || offset < 0 || limit < 0 {
		return nil, ErrInvalidInput
	}

	var tags []*entities.Tag
	q := r.db.WithContext(ctx).
		Order(nameOrder("", locale)).
		Offset(offset)
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&tags).Error; err != nil {
		return nil, err
	}
	return tags, nil
}

// Count returns the total number of tags.
func (r *tagRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&entities.Tag{}).Count(&count).Error
	return count, err
}

// UpdateName sets one localized name.
func (r *tagRepository) UpdateName(ctx context.Context, id uint, locale entities.Locale, name string) error {
	if !locale.Valid() {
		return ErrInvalidInput
	}

	var value any
	if name != "" {
		value = name
	}
	return r.updateColumn(ctx, id, locale.NameColumn(), value)
}

// UpdateApproved sets one approval flag.
func (r *tagRepository) UpdateApproved(ctx context.Context, id uint, locale entities.Locale, approved bool) error {
	if !locale.Valid() {
		return ErrInvalidInput
	}
	return r.updateColumn(ctx, id, locale.ApprovedColumn(), approved)
}

func (r *tagRepository) updateColumn(ctx context.Context, id uint, column string, value any) error {
	result := r.db.WithContext(ctx).Model(&entities.Tag{}).
		Where("id = ?", id).
		Update(column, value)
	if result.Error != nil {
		return translate(result.Error, nil)
	}
	if result.RowsAffected == 0 {
		// MySQL reports zero affected rows when the value is unchanged.
		if _, err := r.GetByID(ctx, id); err != nil {
			return err
		}
	}
	return nil
}

// Upsert inserts the tag or overwrites an existing row with the same id.
func (r *tagRepository) Upsert(ctx context.Context, tag *entities.Tag) error {
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"name_en", "name_ja", "name_es", "name_pt",
			"approved_en", "approved_ja", "approved_es", "approved_pt",
			"updated_at",
		}),
	}).Create(tag).Error
	return translate(err, nil)
}

// Delete removes a tag by ID.
func (r *tagRepository) Delete(ctx context.Context, id uint) error {
	result := r.db.WithContext(ctx).Delete(&entities.Tag{}, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrTagNotFound
	}
	return nil
}

// nameOrder sorts tags case-insensitively by their name in locale with id as
// tie-breaker. table is the alias qualifying the columns, or "" for none.
func nameOrder(table string, locale entities.Locale) clause.OrderBy {
	return clause.OrderBy{Expression: clause.Expr{
		SQL: "LOWER(?) ASC, ? ASC",
		Vars: []any{
			clause.Column{Table: table, Name: locale.NameColumn()},
			clause.Column{Table: table, Name: "id"},
		},
	}}
}
