package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	catalogdomain "github.com/keepsakelabs/keepsake/internal/catalog/domain"
	"github.com/keepsakelabs/keepsake/internal/constraint/domain"
	obsmetrics "github.com/keepsakelabs/keepsake/internal/observability/metrics"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB         *gorm.DB
	Log        *zap.Logger
	GenID      *snowflake.Node
	Repo       domain.Repository
	CatalogSvc catalogdomain.Service
	Metrics    *obsmetrics.Metrics `optional:"true"`
}

type Service struct {
	db         *gorm.DB
	log        *zap.Logger
	repo       domain.Repository
	genID      *snowflake.Node
	catalogSvc catalogdomain.Service
	metrics    *obsmetrics.Metrics
}

func New(p Params) domain.Service {
	return &Service{
		db:         p.DB,
		log:        p.Log.Named("constraint.service"),
		repo:       p.Repo,
		genID:      p.GenID,
		catalogSvc: p.CatalogSvc,
		metrics:    p.Metrics,
	}
}

func (s *Service) CreateConstraint(ctx context.Context, req domain.CreateRequest) (*domain.Response, error) {
	targetID, err := snowflake.ParseString(strings.TrimSpace(req.TargetItemID))
	if err != nil {
		return nil, domain.ErrInvalidID
	}
	relatedID, err := snowflake.ParseString(strings.TrimSpace(req.RelatedItemID))
	if err != nil {
		return nil, domain.ErrInvalidID
	}

	targetType := catalogdomain.ItemType(strings.ToUpper(strings.TrimSpace(req.TargetItemType)))
	relatedType := catalogdomain.ItemType(strings.ToUpper(strings.TrimSpace(req.RelatedItemType)))
	if !targetType.Valid() || !relatedType.Valid() {
		return nil, domain.ErrInvalidItemType
	}

	constraintType := domain.ConstraintType(strings.ToUpper(strings.TrimSpace(req.ConstraintType)))
	if !constraintType.Valid() {
		return nil, domain.ErrInvalidConstraintType
	}

	if targetID == relatedID && targetType == relatedType {
		return nil, domain.ErrSelfConstraint
	}

	// Snapshot display names for admin listings. The cache is advisory:
	// renames go stale until the constraint is recreated, and validation
	// never reads it.
	targetName, err := s.catalogSvc.DisplayName(ctx, targetID.String(), targetType)
	if err != nil {
		if err == catalogdomain.ErrNotFound {
			return nil, domain.ErrUnknownItem
		}
		return nil, err
	}
	relatedName, err := s.catalogSvc.DisplayName(ctx, relatedID.String(), relatedType)
	if err != nil {
		if err == catalogdomain.ErrNotFound {
			return nil, domain.ErrUnknownItem
		}
		return nil, err
	}

	var message *string
	if req.Message != nil {
		trimmed := strings.TrimSpace(*req.Message)
		if trimmed != "" {
			message = &trimmed
		}
	}

	now := time.Now().UTC()
	constraint := &domain.ItemConstraint{
		ID:              s.genID.Generate().Int64(),
		TargetItemID:    targetID.Int64(),
		TargetItemType:  targetType,
		ConstraintType:  constraintType,
		RelatedItemID:   relatedID.Int64(),
		RelatedItemType: relatedType,
		Message:         message,
		TargetItemName:  targetName,
		RelatedItemName: relatedName,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if err := s.repo.Create(ctx, s.db, constraint); err != nil {
		return nil, err
	}
	resp := toResponse(constraint)
	return &resp, nil
}

func (s *Service) GetItemConstraints(ctx context.Context, itemID, itemType string) ([]domain.Response, error) {
	id, err := snowflake.ParseString(strings.TrimSpace(itemID))
	if err != nil {
		return nil, domain.ErrInvalidID
	}
	parsedType := catalogdomain.ItemType(strings.ToUpper(strings.TrimSpace(itemType)))
	if !parsedType.Valid() {
		return nil, domain.ErrInvalidItemType
	}

	constraints, err := s.repo.ListTouching(ctx, s.db, []int64{id.Int64()})
	if err != nil {
		return nil, err
	}

	resp := make([]domain.Response, 0, len(constraints))
	for i := range constraints {
		c := &constraints[i]
		// An item can sit on either side of a row.
		if (c.TargetItemID == id.Int64() && c.TargetItemType == parsedType) ||
			(c.RelatedItemID == id.Int64() && c.RelatedItemType == parsedType) {
			resp = append(resp, toResponse(c))
		}
	}
	return resp, nil
}

func (s *Service) DeleteConstraint(ctx context.Context, id string) error {
	constraintID, err := snowflake.ParseString(strings.TrimSpace(id))
	if err != nil {
		return domain.ErrInvalidID
	}
	constraint, err := s.repo.FindByID(ctx, s.db, constraintID.Int64())
	if err != nil {
		return err
	}
	if constraint == nil {
		return domain.ErrNotFound
	}
	return s.repo.Delete(ctx, s.db, constraintID.Int64())
}

// ValidateCart checks the cart's item set against every constraint touching
// it. Mutually-exclusive rows violate when both endpoints are present,
// regardless of which side the cart item was stored as; requires rows
// violate when the target is present without the related item.
func (s *Service) ValidateCart(ctx context.Context, items []domain.CartItem) (*domain.CartValidationResult, error) {
	present := make(map[endpoint]bool, len(items))
	ids := make([]int64, 0, len(items))
	for _, item := range items {
		id, err := snowflake.ParseString(strings.TrimSpace(item.ItemID))
		if err != nil {
			return nil, domain.ErrInvalidID
		}
		itemType := catalogdomain.ItemType(strings.ToUpper(strings.TrimSpace(item.ItemType)))
		if !itemType.Valid() {
			return nil, domain.ErrInvalidItemType
		}
		key := endpoint{id: id.Int64(), itemType: itemType}
		if !present[key] {
			present[key] = true
			ids = append(ids, id.Int64())
		}
	}

	constraints, err := s.repo.ListTouching(ctx, s.db, ids)
	if err != nil {
		return nil, err
	}

	var violations []domain.Violation
	for i := range constraints {
		c := &constraints[i]
		target := endpoint{id: c.TargetItemID, itemType: c.TargetItemType}
		related := endpoint{id: c.RelatedItemID, itemType: c.RelatedItemType}

		switch c.ConstraintType {
		case domain.ConstraintMutuallyExclusive:
			if present[target] && present[related] {
				violations = append(violations, s.violationFor(ctx, c))
			}
		case domain.ConstraintRequires:
			if present[target] && !present[related] {
				violations = append(violations, s.violationFor(ctx, c))
			}
		}
	}

	result := &domain.CartValidationResult{
		Valid:      len(violations) == 0,
		Violations: violations,
	}
	if result.Violations == nil {
		result.Violations = []domain.Violation{}
	}

	s.metrics.IncConstraintCheck(ctx, result.Valid)
	if !result.Valid {
		s.log.Debug("cart rejected", zap.Int("violations", len(violations)))
	}
	return result, nil
}

type endpoint struct {
	id       int64
	itemType catalogdomain.ItemType
}

func (s *Service) violationFor(ctx context.Context, c *domain.ItemConstraint) domain.Violation {
	s.metrics.IncConstraintViolation(ctx, string(c.ConstraintType))

	message := ""
	if c.Message != nil {
		message = *c.Message
	}
	if message == "" {
		// Default messages name both items with live lookups, falling back
		// to the cached names if an item vanished since the row was written.
		targetName := s.liveName(ctx, c.TargetItemID, c.TargetItemType, c.TargetItemName)
		relatedName := s.liveName(ctx, c.RelatedItemID, c.RelatedItemType, c.RelatedItemName)
		switch c.ConstraintType {
		case domain.ConstraintMutuallyExclusive:
			message = fmt.Sprintf("%s cannot be combined with %s", targetName, relatedName)
		case domain.ConstraintRequires:
			message = fmt.Sprintf("%s requires %s", targetName, relatedName)
		}
	}

	return domain.Violation{
		Message:      message,
		ConstraintID: snowflake.ID(c.ID).String(),
	}
}

func (s *Service) liveName(ctx context.Context, itemID int64, itemType catalogdomain.ItemType, cached string) string {
	name, err := s.catalogSvc.DisplayName(ctx, snowflake.ID(itemID).String(), itemType)
	if err == nil && name != "" {
		return name
	}
	if cached != "" {
		return cached
	}
	return snowflake.ID(itemID).String()
}

func toResponse(c *domain.ItemConstraint) domain.Response {
	return domain.Response{
		ID:              snowflake.ID(c.ID).String(),
		TargetItemID:    snowflake.ID(c.TargetItemID).String(),
		TargetItemType:  string(c.TargetItemType),
		ConstraintType:  string(c.ConstraintType),
		RelatedItemID:   snowflake.ID(c.RelatedItemID).String(),
		RelatedItemType: string(c.RelatedItemType),
		Message:         c.Message,
		TargetItemName:  c.TargetItemName,
		RelatedItemName: c.RelatedItemName,
		CreatedAt:       c.CreatedAt,
		UpdatedAt:       c.UpdatedAt,
	}
}
