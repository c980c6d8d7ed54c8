package domain

import (
	"context"

	"gorm.io/gorm"
)

type Repository interface {
	CreateProductType(ctx context.Context, db *gorm.DB, productType *ProductType) error
	FindProductTypeByID(ctx context.Context, db *gorm.DB, id int64) (*ProductType, error)
	ListProductTypes(ctx context.Context, db *gorm.DB) ([]ProductType, error)
	FindProductByID(ctx context.Context, db *gorm.DB, id int64) (*Product, error)
	FindAdditionalItemByID(ctx context.Context, db *gorm.DB, id int64) (*AdditionalItem, error)
}
