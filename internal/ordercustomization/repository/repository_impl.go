package repository

import (
	"context"

	"github.com/keepsakelabs/keepsake/internal/ordercustomization/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Create(ctx context.Context, db *gorm.DB, row *domain.OrderItemCustomization) error {
	return db.WithContext(ctx).Create(row).Error
}

func (r *repo) ListByOrderItem(ctx context.Context, db *gorm.DB, orderItemID int64) ([]domain.OrderItemCustomization, error) {
	var rows []domain.OrderItemCustomization
	err := db.WithContext(ctx).
		Where("order_item_id = ?", orderItemID).
		Order("id ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *repo) DeleteByOrderItem(ctx context.Context, db *gorm.DB, orderItemID int64) error {
	return db.WithContext(ctx).
		Where("order_item_id = ?", orderItemID).
		Delete(&domain.OrderItemCustomization{}).Error
}
