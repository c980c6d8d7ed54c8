package domain

import (
	"context"
	"errors"
	"time"
)

type Service interface {
	// SaveCustomizations runs the full intake pipeline for one order line
	// item: validate the selections against the product's rule set, extract
	// embedded artwork into files, persist the materialized snapshot, then
	// pin the referenced files to the order. Validation failures come back
	// on the result, not as an error; nothing is written to disk or to the
	// database before validation passes.
	SaveCustomizations(ctx context.Context, req SaveRequest) (*SaveResult, error)

	// ListByOrderItem returns the persisted customizations of a line item.
	ListByOrderItem(ctx context.Context, orderItemID string) ([]CustomizationResponse, error)
}

// SaveRequest carries the customer's selections for one order line item.
type SaveRequest struct {
	OrderID        string               `json:"-"`
	OrderItemID    string               `json:"-"`
	ProductID      string               `json:"product_id"`
	Customizations []InputCustomization `json:"customizations"`
}

type InputCustomization struct {
	RuleID           *string        `json:"customization_id,omitempty"`
	Type             string         `json:"customization_type"`
	Title            string         `json:"title"`
	Data             map[string]any `json:"data"`
	SelectedLayoutID *string        `json:"selected_layout_id,omitempty"`
}

// SaveResult reports either the persisted snapshot or the rule violations
// that blocked it.
type SaveResult struct {
	Valid          bool                    `json:"valid"`
	Errors         []string                `json:"errors"`
	Customizations []CustomizationResponse `json:"customizations,omitempty"`
}

type CustomizationResponse struct {
	ID               string         `json:"id"`
	OrderID          string         `json:"order_id"`
	OrderItemID      string         `json:"order_item_id"`
	RuleID           *string        `json:"customization_id,omitempty"`
	Type             string         `json:"customization_type"`
	Title            string         `json:"title"`
	Data             map[string]any `json:"data"`
	SelectedLayoutID *string        `json:"selected_layout_id,omitempty"`
	CreatedAt        time.Time      `json:"created_at"`
}

var (
	ErrInvalidOrderID     = errors.New("invalid_order_id")
	ErrInvalidOrderItemID = errors.New("invalid_order_item_id")
	ErrInvalidProduct     = errors.New("invalid_product")
	ErrInvalidRuleID      = errors.New("invalid_rule_id")
	ErrEmptyCustomization = errors.New("empty_customization")
	ErrNotFound           = errors.New("not_found")
)
