package domain

import (
	"context"
	"errors"
	"time"
)

type Service interface {
	CreateProductType(ctx context.Context, req CreateProductTypeRequest) (*ProductTypeResponse, error)
	ListProductTypes(ctx context.Context) ([]ProductTypeResponse, error)
	GetProductType(ctx context.Context, id string) (*ProductTypeResponse, error)

	// ResolveProductType maps a product id to its owning product type.
	ResolveProductType(ctx context.Context, productID string) (*ProductTypeResponse, error)

	// DisplayName returns the customer-facing name for a catalog item of
	// either kind. Used when constraints are created, to cache endpoint names.
	DisplayName(ctx context.Context, itemID string, itemType ItemType) (string, error)
}

type CreateProductTypeRequest struct {
	Category      string `json:"category"`
	DeliveryType  string `json:"delivery_type"`
	StockQuantity int    `json:"stock_quantity"`
	Has3DPreview  bool   `json:"has_3d_preview"`
}

type ProductTypeResponse struct {
	ID            string    `json:"id"`
	Category      string    `json:"category"`
	DeliveryType  string    `json:"delivery_type"`
	StockQuantity int       `json:"stock_quantity"`
	Has3DPreview  bool      `json:"has_3d_preview"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

var (
	ErrInvalidCategory     = errors.New("invalid_category")
	ErrInvalidDeliveryType = errors.New("invalid_delivery_type")
	ErrInvalidItemType     = errors.New("invalid_item_type")
	ErrInvalidID           = errors.New("invalid_id")
	ErrNotFound            = errors.New("not_found")
)
