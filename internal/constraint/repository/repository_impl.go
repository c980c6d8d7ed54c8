package repository

import (
	"context"

	"github.com/keepsakelabs/keepsake/internal/constraint/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Create(ctx context.Context, db *gorm.DB, constraint *domain.ItemConstraint) error {
	return db.WithContext(ctx).Create(constraint).Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id int64) (*domain.ItemConstraint, error) {
	var constraint domain.ItemConstraint
	err := db.WithContext(ctx).
		Where("id = ?", id).
		Take(&constraint).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &constraint, nil
}

func (r *repo) ListTouching(ctx context.Context, db *gorm.DB, itemIDs []int64) ([]domain.ItemConstraint, error) {
	if len(itemIDs) == 0 {
		return nil, nil
	}
	var constraints []domain.ItemConstraint
	err := db.WithContext(ctx).
		Where("target_item_id IN ? OR related_item_id IN ?", itemIDs, itemIDs).
		Order("created_at ASC, id ASC").
		Find(&constraints).Error
	if err != nil {
		return nil, err
	}
	return constraints, nil
}

func (r *repo) Delete(ctx context.Context, db *gorm.DB, id int64) error {
	return db.WithContext(ctx).
		Where("id = ?", id).
		Delete(&domain.ItemConstraint{}).Error
}
