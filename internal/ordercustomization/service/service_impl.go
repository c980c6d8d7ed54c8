package service

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/keepsakelabs/keepsake/internal/artwork"
	catalogdomain "github.com/keepsakelabs/keepsake/internal/catalog/domain"
	"github.com/keepsakelabs/keepsake/internal/config"
	customizationdomain "github.com/keepsakelabs/keepsake/internal/customization/domain"
	"github.com/keepsakelabs/keepsake/internal/ordercustomization/domain"
	tempfiledomain "github.com/keepsakelabs/keepsake/internal/tempfile/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB               *gorm.DB
	Log              *zap.Logger
	GenID            *snowflake.Node
	Repo             domain.Repository
	CatalogSvc       catalogdomain.Service
	CustomizationSvc customizationdomain.Service
	Materializer     artwork.Materializer
	Files            tempfiledomain.Store
	Storage          *config.StorageConfigHolder
}

type Service struct {
	db               *gorm.DB
	log              *zap.Logger
	genID            *snowflake.Node
	repo             domain.Repository
	catalogSvc       catalogdomain.Service
	customizationSvc customizationdomain.Service
	materializer     artwork.Materializer
	files            tempfiledomain.Store
	storage          *config.StorageConfigHolder
}

func New(p Params) domain.Service {
	return &Service{
		db:               p.DB,
		log:              p.Log.Named("ordercustomization.service"),
		genID:            p.GenID,
		repo:             p.Repo,
		catalogSvc:       p.CatalogSvc,
		customizationSvc: p.CustomizationSvc,
		materializer:     p.Materializer,
		files:            p.Files,
		storage:          p.Storage,
	}
}

// SaveCustomizations is strictly staged: validate, materialize, persist,
// promote. File writes only start after the whole selection set passed
// rule validation, so an invalid request leaves no artifacts behind.
func (s *Service) SaveCustomizations(ctx context.Context, req domain.SaveRequest) (*domain.SaveResult, error) {
	orderID, err := snowflake.ParseString(strings.TrimSpace(req.OrderID))
	if err != nil {
		return nil, domain.ErrInvalidOrderID
	}
	orderItemID, err := snowflake.ParseString(strings.TrimSpace(req.OrderItemID))
	if err != nil {
		return nil, domain.ErrInvalidOrderItemID
	}
	if len(req.Customizations) == 0 {
		return nil, domain.ErrEmptyCustomization
	}

	productType, err := s.catalogSvc.ResolveProductType(ctx, req.ProductID)
	if err != nil {
		if err == catalogdomain.ErrNotFound || err == catalogdomain.ErrInvalidID {
			return nil, domain.ErrInvalidProduct
		}
		return nil, err
	}

	selections := make([]customizationdomain.Selection, 0, len(req.Customizations))
	for _, c := range req.Customizations {
		sel := customizationdomain.Selection{Type: c.Type, Data: c.Data}
		if c.RuleID != nil {
			sel.RuleID = *c.RuleID
		}
		selections = append(selections, sel)
	}

	result, err := s.customizationSvc.ValidateSelections(ctx, productType.ID, selections)
	if err != nil {
		return nil, err
	}
	if !result.Valid {
		return &domain.SaveResult{Valid: false, Errors: result.Errors}, nil
	}

	rows := make([]*domain.OrderItemCustomization, 0, len(req.Customizations))
	for _, c := range req.Customizations {
		row, err := s.buildRow(ctx, orderID.Int64(), orderItemID.Int64(), c)
		if err != nil {
			return nil, err
		}
		rows = append(rows, row)
	}

	// Re-saving a line item replaces its previous snapshot atomically.
	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := s.repo.DeleteByOrderItem(ctx, tx, orderItemID.Int64()); err != nil {
			return err
		}
		for _, row := range rows {
			if err := s.repo.Create(ctx, tx, row); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.promoteReferencedFiles(ctx, orderID.Int64(), rows)

	out := make([]domain.CustomizationResponse, 0, len(rows))
	for _, row := range rows {
		out = append(out, toResponse(row))
	}
	s.log.Info("order item customizations saved",
		zap.Int64("order_id", orderID.Int64()),
		zap.Int64("order_item_id", orderItemID.Int64()),
		zap.Int("count", len(out)),
	)
	return &domain.SaveResult{Valid: true, Errors: []string{}, Customizations: out}, nil
}

func (s *Service) buildRow(ctx context.Context, orderID, orderItemID int64, c domain.InputCustomization) (*domain.OrderItemCustomization, error) {
	var ruleID *int64
	if c.RuleID != nil {
		parsed, err := snowflake.ParseString(strings.TrimSpace(*c.RuleID))
		if err != nil {
			return nil, domain.ErrInvalidRuleID
		}
		v := parsed.Int64()
		ruleID = &v
	}
	var layoutID *int64
	if c.SelectedLayoutID != nil {
		parsed, err := snowflake.ParseString(strings.TrimSpace(*c.SelectedLayoutID))
		if err != nil {
			return nil, domain.ErrInvalidRuleID
		}
		v := parsed.Int64()
		layoutID = &v
	}

	materialized := s.materializer.Materialize(ctx, c.Data)
	raw, err := json.Marshal(materialized)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	return &domain.OrderItemCustomization{
		ID:                s.genID.Generate().Int64(),
		OrderID:           orderID,
		OrderItemID:       orderItemID,
		RuleID:            ruleID,
		CustomizationType: strings.ToUpper(strings.TrimSpace(c.Type)),
		Title:             strings.TrimSpace(c.Title),
		Data:              datatypes.JSON(raw),
		SelectedLayoutID:  layoutID,
		CreatedAt:         now,
		UpdatedAt:         now,
	}, nil
}

// promoteReferencedFiles pins every temp file the persisted snapshot points
// at, so the TTL sweep cannot reclaim artwork an order depends on. Failures
// are logged and left to the next save; the snapshot itself is already
// committed.
func (s *Service) promoteReferencedFiles(ctx context.Context, orderID int64, rows []*domain.OrderItemCustomization) {
	prefix := s.storage.Current().ServePathPrefix + "/"
	seen := map[string]struct{}{}
	for _, row := range rows {
		var data map[string]any
		if err := json.Unmarshal(row.Data, &data); err != nil {
			continue
		}
		for _, url := range collectPreviewURLs(data, nil) {
			if !strings.HasPrefix(url, prefix) {
				continue
			}
			filename := strings.TrimPrefix(url, prefix)
			if _, dup := seen[filename]; dup {
				continue
			}
			seen[filename] = struct{}{}
			if err := s.files.Promote(ctx, filename, orderID); err != nil {
				s.log.Warn("temp file promotion failed",
					zap.String("filename", filename),
					zap.Int64("order_id", orderID),
					zap.Error(err),
				)
			}
		}
	}
}

func collectPreviewURLs(value any, acc []string) []string {
	switch v := value.(type) {
	case map[string]any:
		if url, ok := v["preview_url"].(string); ok {
			acc = append(acc, url)
		}
		for _, child := range v {
			acc = collectPreviewURLs(child, acc)
		}
	case []any:
		for _, child := range v {
			acc = collectPreviewURLs(child, acc)
		}
	}
	return acc
}

func (s *Service) ListByOrderItem(ctx context.Context, orderItemID string) ([]domain.CustomizationResponse, error) {
	id, err := snowflake.ParseString(strings.TrimSpace(orderItemID))
	if err != nil {
		return nil, domain.ErrInvalidOrderItemID
	}
	rows, err := s.repo.ListByOrderItem(ctx, s.db, id.Int64())
	if err != nil {
		return nil, err
	}
	out := make([]domain.CustomizationResponse, 0, len(rows))
	for _, row := range rows {
		out = append(out, toResponse(&row))
	}
	return out, nil
}

func toResponse(row *domain.OrderItemCustomization) domain.CustomizationResponse {
	resp := domain.CustomizationResponse{
		ID:          snowflake.ID(row.ID).String(),
		OrderID:     snowflake.ID(row.OrderID).String(),
		OrderItemID: snowflake.ID(row.OrderItemID).String(),
		Type:        row.CustomizationType,
		Title:       row.Title,
		CreatedAt:   row.CreatedAt,
	}
	if row.RuleID != nil {
		v := snowflake.ID(*row.RuleID).String()
		resp.RuleID = &v
	}
	if row.SelectedLayoutID != nil {
		v := snowflake.ID(*row.SelectedLayoutID).String()
		resp.SelectedLayoutID = &v
	}
	if len(row.Data) > 0 {
		var data map[string]any
		if err := json.Unmarshal(row.Data, &data); err == nil {
			resp.Data = data
		}
	}
	return resp
}
