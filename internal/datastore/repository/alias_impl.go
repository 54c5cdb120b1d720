package repository

import (
	"context"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/canonicaltags/ctags/internal/datastore/entities"
)

// aliasRepository implements AliasRepository.
type aliasRepository struct {
	db *gorm.DB
}

// NewAliasRepository creates a new AliasRepository. The table prefix is
// applied by the database naming strategy.
func NewAliasRepository(db *gorm.DB) AliasRepository {
	return &aliasRepository{db: db}
}

func (r *aliasRepository) Create(ctx context.Context, alias *entities.TagAlias) error {
	return translate(r.db.WithContext(ctx).Create(alias).Error, nil)
}

func (r *aliasRepository) Upsert(ctx context.Context, alias *entities.TagAlias) error {
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "name"}},
		DoUpdates: clause.AssignmentColumns([]string{"target_id"}),
	}).Create(alias).Error
	return translate(err, nil)
}

func (r *aliasRepository) GetByName(ctx context.Context, name string) (*entities.TagAlias, error) {
	var alias entities.TagAlias
	if err := r.db.WithContext(ctx).Where("name = ?", name).First(&alias).Error; err != nil {
		return nil, translate(err, ErrAliasNotFound)
	}
	return &alias, nil
}

// likeEscaper escapes LIKE wildcards so user input matches literally.
var likeEscaper = strings.NewReplacer("!", "!!", "%", "!%", "_", "!_")

func (r *aliasRepository) Suggest(ctx context.Context, prefix string, limit int) ([]*entities.TagAlias, error) {
	if limit < 0 {
		return nil, ErrInvalidInput
	}

	var aliases []*entities.TagAlias
	q := r.db.WithContext(ctx).
		Where("name LIKE ? ESCAPE '!'", likeEscaper.Replace(prefix)+"%").
		Order("name ASC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&aliases).Error; err != nil {
		return nil, err
	}
	return aliases, nil
}

func (r *aliasRepository) ListForTag(ctx context.Context, tagID uint) ([]*entities.TagAlias, error) {
	var aliases []*entities.TagAlias
	err := r.db.WithContext(ctx).
		Where("target_id = ?", tagID).
		Order("name ASC").
		Find(&aliases).Error
	return aliases, err
}

func (r *aliasRepository) List(ctx context.Context) ([]*entities.TagAlias, error) {
	var aliases []*entities.TagAlias
	err := r.db.WithContext(ctx).Order("name ASC").Find(&aliases).Error
	return aliases, err
}

func (r *aliasRepository) Delete(ctx context.Context, id uint) error {
	result := r.db.WithContext(ctx).Delete(&entities.TagAlias{}, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrAliasNotFound
	}
	return nil
}

func (r *aliasRepository) DeleteForTag(ctx context.Context, tagID uint) (int64, error) {
	result := r.db.WithContext(ctx).Where("target_id = ?", tagID).Delete(&entities.TagAlias{})
	return result.RowsAffected, result.Error
}
