package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	"github.com/keepsakelabs/keepsake/internal/catalog/domain"
	"github.com/keepsakelabs/keepsake/internal/catalog/repository"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func setupCatalogService(t *testing.T) (domain.Service, *gorm.DB, *snowflake.Node) {
	t.Helper()

	node, err := snowflake.NewNode(1)
	if err != nil {
		t.Fatalf("new node: %v", err)
	}

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("db handle: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	sqlDB.SetMaxIdleConns(1)
	if err := db.AutoMigrate(&domain.ProductType{}, &domain.Product{}, &domain.AdditionalItem{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	svc := New(Params{
		DB:    db,
		Log:   zap.NewNop(),
		GenID: node,
		Repo:  repository.Provide(),
	})
	return svc, db, node
}

func TestCreateProductTypeValidation(t *testing.T) {
	svc, _, _ := setupCatalogService(t)
	ctx := context.Background()

	if _, err := svc.CreateProductType(ctx, domain.CreateProductTypeRequest{Category: "  "}); err != domain.ErrInvalidCategory {
		t.Fatalf("expected ErrInvalidCategory, got %v", err)
	}
	if _, err := svc.CreateProductType(ctx, domain.CreateProductTypeRequest{
		Category:     "mugs",
		DeliveryType: "TELEPORT",
	}); err != domain.ErrInvalidDeliveryType {
		t.Fatalf("expected ErrInvalidDeliveryType, got %v", err)
	}

	// Delivery type defaults to shipping when left empty.
	created, err := svc.CreateProductType(ctx, domain.CreateProductTypeRequest{Category: "mugs"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if created.DeliveryType != string(domain.DeliveryTypeShipping) {
		t.Fatalf("expected default delivery type, got %q", created.DeliveryType)
	}

	got, err := svc.GetProductType(ctx, created.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Category != "mugs" {
		t.Fatalf("unexpected product type: %+v", got)
	}
}

func TestGetProductTypeBadID(t *testing.T) {
	svc, _, node := setupCatalogService(t)
	ctx := context.Background()

	if _, err := svc.GetProductType(ctx, "not-a-snowflake"); err != domain.ErrInvalidID {
		t.Fatalf("expected ErrInvalidID, got %v", err)
	}
	if _, err := svc.GetProductType(ctx, node.Generate().String()); err != domain.ErrNotFound {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestResolveProductType(t *testing.T) {
	svc, db, node := setupCatalogService(t)
	ctx := context.Background()

	created, err := svc.CreateProductType(ctx, domain.CreateProductTypeRequest{Category: "baskets"})
	if err != nil {
		t.Fatalf("create type: %v", err)
	}
	typeID, err := snowflake.ParseString(created.ID)
	if err != nil {
		t.Fatalf("parse type id: %v", err)
	}

	product := domain.Product{
		ID:            node.Generate().Int64(),
		ProductTypeID: typeID.Int64(),
		Name:          "Gift basket",
		Active:        true,
		CreatedAt:     time.Now().UTC(),
		UpdatedAt:     time.Now().UTC(),
	}
	if err := db.Create(&product).Error; err != nil {
		t.Fatalf("seed product: %v", err)
	}

	resolved, err := svc.ResolveProductType(ctx, snowflake.ID(product.ID).String())
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if resolved.ID != created.ID {
		t.Fatalf("expected type %s, got %s", created.ID, resolved.ID)
	}

	if _, err := svc.ResolveProductType(ctx, node.Generate().String()); err != domain.ErrNotFound {
		t.Fatalf("expected ErrNotFound for unknown product, got %v", err)
	}
}

func TestDisplayNameByItemType(t *testing.T) {
	svc, db, node := setupCatalogService(t)
	ctx := context.Background()

	product := domain.Product{
		ID:            node.Generate().Int64(),
		ProductTypeID: node.Generate().Int64(),
		Name:          "Red wine",
		Active:        true,
	}
	if err := db.Create(&product).Error; err != nil {
		t.Fatalf("seed product: %v", err)
	}
	addon := domain.AdditionalItem{
		ID:     node.Generate().Int64(),
		Name:   "Greeting card",
		Active: true,
	}
	if err := db.Create(&addon).Error; err != nil {
		t.Fatalf("seed additional item: %v", err)
	}

	name, err := svc.DisplayName(ctx, snowflake.ID(product.ID).String(), domain.ItemTypeProduct)
	if err != nil {
		t.Fatalf("product name: %v", err)
	}
	if name != "Red wine" {
		t.Fatalf("expected product name, got %q", name)
	}

	name, err = svc.DisplayName(ctx, snowflake.ID(addon.ID).String(), domain.ItemTypeAdditional)
	if err != nil {
		t.Fatalf("additional item name: %v", err)
	}
	if name != "Greeting card" {
		t.Fatalf("expected additional item name, got %q", name)
	}

	// The lookup does not cross kinds.
	if _, err := svc.DisplayName(ctx, snowflake.ID(addon.ID).String(), domain.ItemTypeProduct); err != domain.ErrNotFound {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if _, err := svc.DisplayName(ctx, snowflake.ID(product.ID).String(), "BUNDLE"); err != domain.ErrInvalidItemType {
		t.Fatalf("expected ErrInvalidItemType, got %v", err)
	}
}
