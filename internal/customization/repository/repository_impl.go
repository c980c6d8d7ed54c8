package repository

import (
	"context"

	"github.com/keepsakelabs/keepsake/internal/customization/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Create(ctx context.Context, db *gorm.DB, rule *domain.ProductRule) error {
	return db.WithContext(ctx).Create(rule).Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id int64) (*domain.ProductRule, error) {
	var rule domain.ProductRule
	err := db.WithContext(ctx).
		Where("id = ?", id).
		Take(&rule).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &rule, nil
}

func (r *repo) ListByProductType(ctx context.Context, db *gorm.DB, productTypeID int64) ([]domain.ProductRule, error) {
	var rules []domain.ProductRule
	err := db.WithContext(ctx).
		Where("product_type_id = ?", productTypeID).
		Order("display_order ASC, id ASC").
		Find(&rules).Error
	if err != nil {
		return nil, err
	}
	return rules, nil
}

func (r *repo) Update(ctx context.Context, db *gorm.DB, rule *domain.ProductRule) error {
	if rule == nil {
		return gorm.ErrInvalidData
	}
	return db.WithContext(ctx).
		Model(&domain.ProductRule{}).
		Where("id = ?", rule.ID).
		Updates(map[string]any{
			"title":             rule.Title,
			"required":          rule.Required,
			"max_items":         rule.MaxItems,
			"conflict_with":     rule.ConflictWith,
			"dependencies":      rule.Dependencies,
			"available_options": rule.AvailableOptions,
			"display_order":     rule.DisplayOrder,
			"updated_at":        rule.UpdatedAt,
		}).Error
}

func (r *repo) Delete(ctx context.Context, db *gorm.DB, id int64) error {
	return db.WithContext(ctx).
		Where("id = ?", id).
		Delete(&domain.ProductRule{}).Error
}
