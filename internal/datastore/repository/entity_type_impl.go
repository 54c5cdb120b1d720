package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/canonicaltags/ctags/internal/datastore/entities"
	"github.com/canonicaltags/ctags/internal/errors"
)

type entityTypeRepository struct {
	db *gorm.DB
}

// NewEntityTypeRepository creates a new EntityTypeRepository.
func NewEntityTypeRepository(db *gorm.DB) EntityTypeRepository {
	return &entityTypeRepository{db: db}
}

func (r *entityTypeRepository) GetOrCreate(ctx context.Context, token string) (*entities.EntityType, error) {
	if token == "" {
		return nil, ErrInvalidInput
	}

	et, err := r.GetByToken(ctx, token)
	if err == nil {
		return et, nil
	}
	if !errors.Is(err, ErrEntityTypeNotFound) {
		return nil, err
	}

	created := entities.EntityType{Token: token}
	if createErr := r.db.WithContext(ctx).Create(&created).Error; createErr != nil {
		// Lost a registration race; the other writer's row is just as good.
		if existing, findErr := r.GetByToken(ctx, token); findErr == nil {
			return existing, nil
		}
		return nil, translate(createErr, nil)
	}
	return &created, nil
}

func (r *entityTypeRepository) GetByToken(ctx context.Context, token string) (*entities.EntityType, error) {
	var et entities.EntityType
	if err := r.db.WithContext(ctx).Where("token = ?", token).First(&et).Error; err != nil {
		return nil, translate(err, ErrEntityTypeNotFound)
	}
	return &et, nil
}

func (r *entityTypeRepository) GetByID(ctx context.Context, id uint) (*entities.EntityType, error) {
	var et entities.EntityType
	if err := r.db.WithContext(ctx).First(&et, id).Error; err != nil {
		return nil, translate(err, ErrEntityTypeNotFound)
	}
	return &et, nil
}

func (r *entityTypeRepository) LockForUpdate(ctx context.Context, id uint) error {
	var et entities.EntityType
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: clause.LockingStrengthUpdate}).
		Select("id").
		First(&et, id).Error
	return translate(err, ErrEntityTypeNotFound)
}

func (r *entityTypeRepository) List(ctx context.Context) ([]*entities.EntityType, error) {
	var types []*entities.EntityType
	err := r.db.WithContext(ctx).Order("token ASC").Find(&types).Error
	return types, err
}
