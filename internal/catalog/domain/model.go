package domain

import "time"

// ItemType distinguishes the two kinds of catalog items a cart can hold.
type ItemType string

const (
	ItemTypeProduct    ItemType = "PRODUCT"
	ItemTypeAdditional ItemType = "ADDITIONAL"
)

func (t ItemType) Valid() bool {
	switch t {
	case ItemTypeProduct, ItemTypeAdditional:
		return true
	default:
		return false
	}
}

// DeliveryType is how a finished product reaches the customer.
type DeliveryType string

const (
	DeliveryTypeShipping DeliveryType = "SHIPPING"
	DeliveryTypePickup   DeliveryType = "PICKUP"
	DeliveryTypeDigital  DeliveryType = "DIGITAL"
)

// ProductType groups products that share a customization rule set.
type ProductType struct {
	ID            int64        `json:"id" gorm:"primaryKey"`
	Category      string       `json:"category" gorm:"type:text;not null"`
	DeliveryType  DeliveryType `json:"delivery_type" gorm:"type:text;not null;default:SHIPPING"`
	StockQuantity int          `json:"stock_quantity" gorm:"not null;default:0"`
	Has3DPreview  bool         `json:"has_3d_preview" gorm:"column:has_3d_preview;not null;default:false"`
	CreatedAt     time.Time    `json:"created_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt     time.Time    `json:"updated_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
}

func (ProductType) TableName() string { return "product_types" }

// Product is a sellable catalog entry bound to a product type.
type Product struct {
	ID            int64     `json:"id" gorm:"primaryKey"`
	ProductTypeID int64     `json:"product_type_id" gorm:"not null;index"`
	Name          string    `json:"name" gorm:"type:text;not null"`
	Description   *string   `json:"description,omitempty" gorm:"type:text"`
	Active        bool      `json:"active" gorm:"not null;default:true"`
	CreatedAt     time.Time `json:"created_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt     time.Time `json:"updated_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
}

func (Product) TableName() string { return "products" }

// AdditionalItem is a non-product add-on (ribbons, cards, basket fillers)
// that can appear in a cart alongside products.
type AdditionalItem struct {
	ID          int64     `json:"id" gorm:"primaryKey"`
	Name        string    `json:"name" gorm:"type:text;not null"`
	Description *string   `json:"description,omitempty" gorm:"type:text"`
	Active      bool      `json:"active" gorm:"not null;default:true"`
	CreatedAt   time.Time `json:"created_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt   time.Time `json:"updated_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
}

func (AdditionalItem) TableName() string { return "additional_items" }
