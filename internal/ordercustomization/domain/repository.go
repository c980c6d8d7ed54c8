package domain

import (
	"context"

	"gorm.io/gorm"
)

type Repository interface {
	Create(ctx context.Context, db *gorm.DB, row *OrderItemCustomization) error
	ListByOrderItem(ctx context.Context, db *gorm.DB, orderItemID int64) ([]OrderItemCustomization, error)
	DeleteByOrderItem(ctx context.Context, db *gorm.DB, orderItemID int64) error
}
