package domain

import (
	"context"
	"errors"
	"time"
)

type Service interface {
	CreateConstraint(ctx context.Context, req CreateRequest) (*Response, error)
	GetItemConstraints(ctx context.Context, itemID, itemType string) ([]Response, error)
	DeleteConstraint(ctx context.Context, id string) error

	// ValidateCart evaluates a cart's item set against every constraint
	// touching it. Constraint violations come back as data on the result;
	// the error return is for infrastructure failures only.
	ValidateCart(ctx context.Context, items []CartItem) (*CartValidationResult, error)
}

// CartItem is one entry of the cart under validation.
type CartItem struct {
	ItemID   string `json:"item_id"`
	ItemType string `json:"item_type"`
	Quantity int    `json:"quantity"`
}

type Violation struct {
	Message      string `json:"message"`
	ConstraintID string `json:"constraint_id"`
}

type CartValidationResult struct {
	Valid      bool        `json:"valid"`
	Violations []Violation `json:"violations"`
}

type CreateRequest struct {
	TargetItemID    string  `json:"target_item_id"`
	TargetItemType  string  `json:"target_item_type"`
	ConstraintType  string  `json:"constraint_type"`
	RelatedItemID   string  `json:"related_item_id"`
	RelatedItemType string  `json:"related_item_type"`
	Message         *string `json:"message"`
}

type Response struct {
	ID              string    `json:"id"`
	TargetItemID    string    `json:"target_item_id"`
	TargetItemType  string    `json:"target_item_type"`
	ConstraintType  string    `json:"constraint_type"`
	RelatedItemID   string    `json:"related_item_id"`
	RelatedItemType string    `json:"related_item_type"`
	Message         *string   `json:"message,omitempty"`
	TargetItemName  string    `json:"target_item_name"`
	RelatedItemName string    `json:"related_item_name"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

var (
	ErrInvalidID             = errors.New("invalid_id")
	ErrInvalidItemType       = errors.New("invalid_item_type")
	ErrInvalidConstraintType = errors.New("invalid_constraint_type")
	ErrSelfConstraint        = errors.New("self_constraint")
	ErrUnknownItem           = errors.New("unknown_item")
	ErrNotFound              = errors.New("not_found")
)
