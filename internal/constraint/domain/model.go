package domain

import (
	"time"

	catalogdomain "github.com/keepsakelabs/keepsake/internal/catalog/domain"
)

// ConstraintType is how two catalog items relate.
type ConstraintType string

const (
	// ConstraintMutuallyExclusive blocks a cart holding both endpoints.
	// Stored as one directed row but logically symmetric.
	ConstraintMutuallyExclusive ConstraintType = "MUTUALLY_EXCLUSIVE"
	// ConstraintRequires is directional: the target item requires the
	// related item to also be in the cart.
	ConstraintRequires ConstraintType = "REQUIRES"
)

func (t ConstraintType) Valid() bool {
	switch t {
	case ConstraintMutuallyExclusive, ConstraintRequires:
		return true
	default:
		return false
	}
}

// ItemConstraint is an admin-defined compatibility rule between two catalog
// items. The cached display names are advisory, for admin UI listings only;
// validation always works off the live ids.
type ItemConstraint struct {
	ID              int64                  `json:"id" gorm:"primaryKey"`
	TargetItemID    int64                  `json:"target_item_id" gorm:"not null;index"`
	TargetItemType  catalogdomain.ItemType `json:"target_item_type" gorm:"type:text;not null"`
	ConstraintType  ConstraintType         `json:"constraint_type" gorm:"type:text;not null"`
	RelatedItemID   int64                  `json:"related_item_id" gorm:"not null;index"`
	RelatedItemType catalogdomain.ItemType `json:"related_item_type" gorm:"type:text;not null"`
	Message         *string                `json:"message,omitempty" gorm:"type:text"`
	TargetItemName  string                 `json:"target_item_name" gorm:"type:text;not null;default:''"`
	RelatedItemName string                 `json:"related_item_name" gorm:"type:text;not null;default:''"`
	CreatedAt       time.Time              `json:"created_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt       time.Time              `json:"updated_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
}

func (ItemConstraint) TableName() string { return "item_constraints" }
