package domain

import (
	"time"

	"gorm.io/datatypes"
)

// RuleType identifies what kind of customization input a rule collects.
type RuleType string

const (
	RuleTypePhotoUpload      RuleType = "PHOTO_UPLOAD"
	RuleTypeLayoutPreset     RuleType = "LAYOUT_PRESET"
	RuleTypeLayoutWithPhotos RuleType = "LAYOUT_WITH_PHOTOS"
	RuleTypeTextInput        RuleType = "TEXT_INPUT"
	RuleTypeOptionSelect     RuleType = "OPTION_SELECT"
	RuleTypeItemSubstitution RuleType = "ITEM_SUBSTITUTION"
)

func (t RuleType) Valid() bool {
	switch t {
	case RuleTypePhotoUpload, RuleTypeLayoutPreset, RuleTypeLayoutWithPhotos,
		RuleTypeTextInput, RuleTypeOptionSelect, RuleTypeItemSubstitution:
		return true
	default:
		return false
	}
}

// AcceptsMultipleItems reports whether selections for this rule carry an
// item array that MaxItems bounds.
func (t RuleType) AcceptsMultipleItems() bool {
	return t == RuleTypePhotoUpload || t == RuleTypeLayoutWithPhotos
}

// ProductRule is an admin-defined customization requirement scoped to a
// product type. ConflictWith and Dependencies hold ids of other rules of the
// same product type; conflicts are symmetric, dependencies directional.
type ProductRule struct {
	ID               int64                      `json:"id" gorm:"primaryKey"`
	ProductTypeID    int64                      `json:"product_type_id" gorm:"not null;index"`
	RuleType         RuleType                   `json:"rule_type" gorm:"type:text;not null"`
	Title            string                     `json:"title" gorm:"type:text;not null"`
	Required         bool                       `json:"required" gorm:"not null;default:false"`
	MaxItems         *int                       `json:"max_items,omitempty"`
	ConflictWith     datatypes.JSONSlice[string] `json:"conflict_with" gorm:"type:jsonb"`
	Dependencies     datatypes.JSONSlice[string] `json:"dependencies" gorm:"type:jsonb"`
	AvailableOptions datatypes.JSON             `json:"available_options,omitempty" gorm:"type:jsonb"`
	DisplayOrder     int                        `json:"display_order" gorm:"not null;default:0"`
	CreatedAt        time.Time                  `json:"created_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt        time.Time                  `json:"updated_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
}

func (ProductRule) TableName() string { return "product_rules" }
