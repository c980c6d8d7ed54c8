package service

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	catalogdomain "github.com/keepsakelabs/keepsake/internal/catalog/domain"
	"github.com/keepsakelabs/keepsake/internal/customization/domain"
	obsmetrics "github.com/keepsakelabs/keepsake/internal/observability/metrics"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
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
		log:        p.Log.Named("customization.service"),
		repo:       p.Repo,
		genID:      p.GenID,
		catalogSvc: p.CatalogSvc,
		metrics:    p.Metrics,
	}
}

func (s *Service) CreateRule(ctx context.Context, req domain.CreateRuleRequest) (*domain.RuleResponse, error) {
	typeID, err := snowflake.ParseString(strings.TrimSpace(req.ProductTypeID))
	if err != nil {
		return nil, domain.ErrInvalidProductType
	}
	if _, err := s.catalogSvc.GetProductType(ctx, typeID.String()); err != nil {
		if err == catalogdomain.ErrNotFound {
			return nil, domain.ErrInvalidProductType
		}
		return nil, err
	}

	title := strings.TrimSpace(req.Title)
	if title == "" {
		return nil, domain.ErrInvalidTitle
	}

	ruleType := domain.RuleType(strings.ToUpper(strings.TrimSpace(req.RuleType)))
	if !ruleType.Valid() {
		return nil, domain.ErrInvalidRuleType
	}

	if req.MaxItems != nil && *req.MaxItems <= 0 {
		return nil, domain.ErrInvalidMaxItems
	}

	ruleID := s.genID.Generate().Int64()
	conflictWith, err := s.normalizeEdges(ctx, req.ConflictWith, typeID.Int64(), ruleID)
	if err != nil {
		return nil, err
	}
	dependencies, err := s.normalizeEdges(ctx, req.Dependencies, typeID.Int64(), ruleID)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	rule := &domain.ProductRule{
		ID:            ruleID,
		ProductTypeID: typeID.Int64(),
		RuleType:      ruleType,
		Title:         title,
		Required:      req.Required,
		MaxItems:      req.MaxItems,
		ConflictWith:  conflictWith,
		Dependencies:  dependencies,
		DisplayOrder:  req.DisplayOrder,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if req.AvailableOptions != nil {
		raw, err := json.Marshal(req.AvailableOptions)
		if err != nil {
			return nil, err
		}
		rule.AvailableOptions = datatypes.JSON(raw)
	}

	if err := s.repo.Create(ctx, s.db, rule); err != nil {
		return nil, err
	}
	resp := toResponse(rule)
	return &resp, nil
}

func (s *Service) UpdateRule(ctx context.Context, req domain.UpdateRuleRequest) (*domain.RuleResponse, error) {
	ruleID, err := snowflake.ParseString(strings.TrimSpace(req.ID))
	if err != nil {
		return nil, domain.ErrInvalidID
	}

	rule, err := s.repo.FindByID(ctx, s.db, ruleID.Int64())
	if err != nil {
		return nil, err
	}
	if rule == nil {
		return nil, domain.ErrNotFound
	}

	if req.Title != nil {
		title := strings.TrimSpace(*req.Title)
		if title == "" {
			return nil, domain.ErrInvalidTitle
		}
		rule.Title = title
	}
	if req.Required != nil {
		rule.Required = *req.Required
	}
	if req.MaxItems != nil {
		if *req.MaxItems <= 0 {
			return nil, domain.ErrInvalidMaxItems
		}
		rule.MaxItems = req.MaxItems
	}
	if req.ConflictWith != nil {
		conflictWith, err := s.normalizeEdges(ctx, req.ConflictWith, rule.ProductTypeID, rule.ID)
		if err != nil {
			return nil, err
		}
		rule.ConflictWith = conflictWith
	}
	if req.Dependencies != nil {
		dependencies, err := s.normalizeEdges(ctx, req.Dependencies, rule.ProductTypeID, rule.ID)
		if err != nil {
			return nil, err
		}
		rule.Dependencies = dependencies
	}
	if req.AvailableOptions != nil {
		raw, err := json.Marshal(req.AvailableOptions)
		if err != nil {
			return nil, err
		}
		rule.AvailableOptions = datatypes.JSON(raw)
	}
	if req.DisplayOrder != nil {
		rule.DisplayOrder = *req.DisplayOrder
	}

	rule.UpdatedAt = time.Now().UTC()
	if err := s.repo.Update(ctx, s.db, rule); err != nil {
		return nil, err
	}
	resp := toResponse(rule)
	return &resp, nil
}

func (s *Service) DeleteRule(ctx context.Context, id string) error {
	ruleID, err := snowflake.ParseString(strings.TrimSpace(id))
	if err != nil {
		return domain.ErrInvalidID
	}
	rule, err := s.repo.FindByID(ctx, s.db, ruleID.Int64())
	if err != nil {
		return err
	}
	if rule == nil {
		return domain.ErrNotFound
	}
	return s.repo.Delete(ctx, s.db, ruleID.Int64())
}

func (s *Service) GetRule(ctx context.Context, id string) (*domain.RuleResponse, error) {
	ruleID, err := snowflake.ParseString(strings.TrimSpace(id))
	if err != nil {
		return nil, domain.ErrInvalidID
	}
	rule, err := s.repo.FindByID(ctx, s.db, ruleID.Int64())
	if err != nil {
		return nil, err
	}
	if rule == nil {
		return nil, domain.ErrNotFound
	}
	resp := toResponse(rule)
	return &resp, nil
}

func (s *Service) ListRules(ctx context.Context, productTypeID string) ([]domain.RuleResponse, error) {
	typeID, err := snowflake.ParseString(strings.TrimSpace(productTypeID))
	if err != nil {
		return nil, domain.ErrInvalidProductType
	}
	rules, err := s.repo.ListByProductType(ctx, s.db, typeID.Int64())
	if err != nil {
		return nil, err
	}
	resp := make([]domain.RuleResponse, 0, len(rules))
	for i := range rules {
		resp = append(resp, toResponse(&rules[i]))
	}
	return resp, nil
}

// normalizeEdges parses and verifies conflict/dependency ids: every id must
// reference an existing rule of the same product type and must not point at
// the rule itself. Admin entry of cross-type edges is rejected here so the
// validator never has to defend against them.
func (s *Service) normalizeEdges(ctx context.Context, ids []string, productTypeID, selfID int64) (datatypes.JSONSlice[string], error) {
	if len(ids) == 0 {
		return datatypes.NewJSONSlice([]string{}), nil
	}

	out := make([]string, 0, len(ids))
	seen := make(map[string]bool, len(ids))
	for _, raw := range ids {
		id, err := snowflake.ParseString(strings.TrimSpace(raw))
		if err != nil {
			return nil, domain.ErrInvalidID
		}
		if id.Int64() == selfID {
			return nil, domain.ErrSelfReference
		}
		if seen[id.String()] {
			continue
		}
		seen[id.String()] = true

		ref, err := s.repo.FindByID(ctx, s.db, id.Int64())
		if err != nil {
			return nil, err
		}
		if ref == nil || ref.ProductTypeID != productTypeID {
			return nil, domain.ErrCrossTypeReference
		}
		out = append(out, id.String())
	}
	return datatypes.NewJSONSlice(out), nil
}

func toResponse(rule *domain.ProductRule) domain.RuleResponse {
	resp := domain.RuleResponse{
		ID:            snowflake.ID(rule.ID).String(),
		ProductTypeID: snowflake.ID(rule.ProductTypeID).String(),
		RuleType:      string(rule.RuleType),
		Title:         rule.Title,
		Required:      rule.Required,
		MaxItems:      rule.MaxItems,
		ConflictWith:  []string(rule.ConflictWith),
		Dependencies:  []string(rule.Dependencies),
		DisplayOrder:  rule.DisplayOrder,
		CreatedAt:     rule.CreatedAt,
		UpdatedAt:     rule.UpdatedAt,
	}
	if resp.ConflictWith == nil {
		resp.ConflictWith = []string{}
	}
	if resp.Dependencies == nil {
		resp.Dependencies = []string{}
	}
	if len(rule.AvailableOptions) > 0 {
		var options map[string]any
		if err := json.Unmarshal(rule.AvailableOptions, &options); err == nil {
			resp.AvailableOptions = options
		}
	}
	return resp
}
