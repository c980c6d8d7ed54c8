package domain

import (
	"context"

	"gorm.io/gorm"
)

type Repository interface {
	Create(ctx context.Context, db *gorm.DB, constraint *ItemConstraint) error
	FindByID(ctx context.Context, db *gorm.DB, id int64) (*ItemConstraint, error)
	// ListTouching returns every constraint with any of the given item ids on
	// either endpoint. Endpoint type matching is done by the caller.
	ListTouching(ctx context.Context, db *gorm.DB, itemIDs []int64) ([]ItemConstraint, error)
	Delete(ctx context.Context, db *gorm.DB, id int64) error
}
