package service

import (
	"context"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/keepsakelabs/keepsake/internal/catalog/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB    *gorm.DB
	Log   *zap.Logger
	GenID *snowflake.Node
	Repo  domain.Repository
}

type Service struct {
	db    *gorm.DB
	log   *zap.Logger
	repo  domain.Repository
	genID *snowflake.Node
}

func New(p Params) domain.Service {
	return &Service{
		db:    p.DB,
		log:   p.Log.Named("catalog.service"),
		repo:  p.Repo,
		genID: p.GenID,
	}
}

func (s *Service) CreateProductType(ctx context.Context, req domain.CreateProductTypeRequest) (*domain.ProductTypeResponse, error) {
	category := strings.TrimSpace(req.Category)
	if category == "" {
		return nil, domain.ErrInvalidCategory
	}

	deliveryType := domain.DeliveryType(strings.ToUpper(strings.TrimSpace(req.DeliveryType)))
	if deliveryType == "" {
		deliveryType = domain.DeliveryTypeShipping
	}
	switch deliveryType {
	case domain.DeliveryTypeShipping, domain.DeliveryTypePickup, domain.DeliveryTypeDigital:
	default:
		return nil, domain.ErrInvalidDeliveryType
	}

	now := time.Now().UTC()
	pt := &domain.ProductType{
		ID:            s.genID.Generate().Int64(),
		Category:      category,
		DeliveryType:  deliveryType,
		StockQuantity: req.StockQuantity,
		Has3DPreview:  req.Has3DPreview,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := s.repo.CreateProductType(ctx, s.db, pt); err != nil {
		return nil, err
	}
	resp := toResponse(pt)
	return &resp, nil
}

func (s *Service) ListProductTypes(ctx context.Context) ([]domain.ProductTypeResponse, error) {
	items, err := s.repo.ListProductTypes(ctx, s.db)
	if err != nil {
		return nil, err
	}
	resp := make([]domain.ProductTypeResponse, 0, len(items))
	for i := range items {
		resp = append(resp, toResponse(&items[i]))
	}
	return resp, nil
}

func (s *Service) GetProductType(ctx context.Context, id string) (*domain.ProductTypeResponse, error) {
	typeID, err := snowflake.ParseString(strings.TrimSpace(id))
	if err != nil {
		return nil, domain.ErrInvalidID
	}
	pt, err := s.repo.FindProductTypeByID(ctx, s.db, typeID.Int64())
	if err != nil {
		return nil, err
	}
	if pt == nil {
		return nil, domain.ErrNotFound
	}
	resp := toResponse(pt)
	return &resp, nil
}

func (s *Service) ResolveProductType(ctx context.Context, productID string) (*domain.ProductTypeResponse, error) {
	id, err := snowflake.ParseString(strings.TrimSpace(productID))
	if err != nil {
		return nil, domain.ErrInvalidID
	}
	product, err := s.repo.FindProductByID(ctx, s.db, id.Int64())
	if err != nil {
		return nil, err
	}
	if product == nil {
		return nil, domain.ErrNotFound
	}
	pt, err := s.repo.FindProductTypeByID(ctx, s.db, product.ProductTypeID)
	if err != nil {
		return nil, err
	}
	if pt == nil {
		return nil, domain.ErrNotFound
	}
	resp := toResponse(pt)
	return &resp, nil
}

func (s *Service) DisplayName(ctx context.Context, itemID string, itemType domain.ItemType) (string, error) {
	id, err := snowflake.ParseString(strings.TrimSpace(itemID))
	if err != nil {
		return "", domain.ErrInvalidID
	}

	switch itemType {
	case domain.ItemTypeProduct:
		product, err := s.repo.FindProductByID(ctx, s.db, id.Int64())
		if err != nil {
			return "", err
		}
		if product == nil {
			return "", domain.ErrNotFound
		}
		return product.Name, nil
	case domain.ItemTypeAdditional:
		item, err := s.repo.FindAdditionalItemByID(ctx, s.db, id.Int64())
		if err != nil {
			return "", err
		}
		if item == nil {
			return "", domain.ErrNotFound
		}
		return item.Name, nil
	default:
		return "", domain.ErrInvalidItemType
	}
}

func toResponse(pt *domain.ProductType) domain.ProductTypeResponse {
	return domain.ProductTypeResponse{
		ID:            snowflake.ID(pt.ID).String(),
		Category:      pt.Category,
		DeliveryType:  string(pt.DeliveryType),
		StockQuantity: pt.StockQuantity,
		Has3DPreview:  pt.Has3DPreview,
		CreatedAt:     pt.CreatedAt,
		UpdatedAt:     pt.UpdatedAt,
	}
}
