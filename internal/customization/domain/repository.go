package domain

import (
	"context"

	"gorm.io/gorm"
)

type Repository interface {
	Create(ctx context.Context, db *gorm.DB, rule *ProductRule) error
	FindByID(ctx context.Context, db *gorm.DB, id int64) (*ProductRule, error)
	ListByProductType(ctx context.Context, db *gorm.DB, productTypeID int64) ([]ProductRule, error)
	Update(ctx context.Context, db *gorm.DB, rule *ProductRule) error
	Delete(ctx context.Context, db *gorm.DB, id int64) error
}
