package domain

import (
	"context"
	"errors"
	"time"
)

type Service interface {
	CreateRule(ctx context.Context, req CreateRuleRequest) (*RuleResponse, error)
	UpdateRule(ctx context.Context, req UpdateRuleRequest) (*RuleResponse, error)
	DeleteRule(ctx context.Context, id string) error
	GetRule(ctx context.Context, id string) (*RuleResponse, error)
	ListRules(ctx context.Context, productTypeID string) ([]RuleResponse, error)

	// ValidateSelections evaluates a customization selection set against the
	// rule set of a product type. Rule violations come back as data on the
	// result, never as an error; the error return is for infrastructure
	// failures only.
	ValidateSelections(ctx context.Context, productTypeID string, selections []Selection) (*ValidationResult, error)
}

// Selection is one customization choice submitted by a customer. Data is the
// raw nested payload for the rule; it is not interpreted during validation
// beyond item counting.
type Selection struct {
	RuleID string         `json:"customization_id"`
	Type   string         `json:"customization_type"`
	Data   map[string]any `json:"data"`
}

// ValidationResult aggregates every violation found in one pass.
type ValidationResult struct {
	Valid  bool     `json:"valid"`
	Errors []string `json:"errors"`
}

type CreateRuleRequest struct {
	ProductTypeID    string         `json:"product_type_id"`
	RuleType         string         `json:"rule_type"`
	Title            string         `json:"title"`
	Required         bool           `json:"required"`
	MaxItems         *int           `json:"max_items"`
	ConflictWith     []string       `json:"conflict_with"`
	Dependencies     []string       `json:"dependencies"`
	AvailableOptions map[string]any `json:"available_options"`
	DisplayOrder     int            `json:"display_order"`
}

type UpdateRuleRequest struct {
	ID               string         `json:"-"`
	Title            *string        `json:"title"`
	Required         *bool          `json:"required"`
	MaxItems         *int           `json:"max_items"`
	ConflictWith     []string       `json:"conflict_with"`
	Dependencies     []string       `json:"dependencies"`
	AvailableOptions map[string]any `json:"available_options"`
	DisplayOrder     *int           `json:"display_order"`
}

type RuleResponse struct {
	ID               string         `json:"id"`
	ProductTypeID    string         `json:"product_type_id"`
	RuleType         string         `json:"rule_type"`
	Title            string         `json:"title"`
	Required         bool           `json:"required"`
	MaxItems         *int           `json:"max_items,omitempty"`
	ConflictWith     []string       `json:"conflict_with"`
	Dependencies     []string       `json:"dependencies"`
	AvailableOptions map[string]any `json:"available_options,omitempty"`
	DisplayOrder     int            `json:"display_order"`
	CreatedAt        time.Time      `json:"created_at"`
	UpdatedAt        time.Time      `json:"updated_at"`
}

var (
	ErrInvalidTitle       = errors.New("invalid_title")
	ErrInvalidRuleType    = errors.New("invalid_rule_type")
	ErrInvalidProductType = errors.New("invalid_product_type")
	ErrInvalidMaxItems    = errors.New("invalid_max_items")
	ErrInvalidID          = errors.New("invalid_id")
	ErrCrossTypeReference = errors.New("cross_type_reference")
	ErrSelfReference      = errors.New("self_reference")
	ErrNotFound           = errors.New("not_found")
)
