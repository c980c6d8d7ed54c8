package domain

import (
	"time"

	"gorm.io/datatypes"
)

// OrderItemCustomization is the persisted snapshot of one customization
// applied to an order line item. Data is the materialized payload: every
// embedded image has been extracted to a file and replaced by its URL, so
// the column never stores raw base64 bytes.
type OrderItemCustomization struct {
	ID                int64          `json:"id" gorm:"primaryKey"`
	OrderID           int64          `json:"order_id" gorm:"not null;index"`
	OrderItemID       int64          `json:"order_item_id" gorm:"not null;index"`
	RuleID            *int64         `json:"rule_id,omitempty" gorm:"index"`
	CustomizationType string         `json:"customization_type" gorm:"type:text;not null"`
	Title             string         `json:"title" gorm:"type:text;not null"`
	Data              datatypes.JSON `json:"data" gorm:"type:jsonb"`
	SelectedLayoutID  *int64         `json:"selected_layout_id,omitempty"`
	CreatedAt         time.Time      `json:"created_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt         time.Time      `json:"updated_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
}

func (OrderItemCustomization) TableName() string { return "order_item_customizations" }
