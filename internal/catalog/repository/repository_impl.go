package repository

import (
	"context"

	"github.com/keepsakelabs/keepsake/internal/catalog/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) CreateProductType(ctx context.Context, db *gorm.DB, productType *domain.ProductType) error {
	return db.WithContext(ctx).Create(productType).Error
}

func (r *repo) FindProductTypeByID(ctx context.Context, db *gorm.DB, id int64) (*domain.ProductType, error) {
	var pt domain.ProductType
	err := db.WithContext(ctx).
		Where("id = ?", id).
		Take(&pt).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &pt, nil
}

func (r *repo) ListProductTypes(ctx context.Context, db *gorm.DB) ([]domain.ProductType, error) {
	var items []domain.ProductType
	err := db.WithContext(ctx).
		Order("created_at ASC").
		Find(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

func (r *repo) FindProductByID(ctx context.Context, db *gorm.DB, id int64) (*domain.Product, error) {
	var p domain.Product
	err := db.WithContext(ctx).
		Where("id = ?", id).
		Take(&p).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *repo) FindAdditionalItemByID(ctx context.Context, db *gorm.DB, id int64) (*domain.AdditionalItem, error) {
	var item domain.AdditionalItem
	err := db.WithContext(ctx).
		Where("id = ?", id).
		Take(&item).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &item, nil
}
