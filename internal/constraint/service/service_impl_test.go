package service

import (
	"context"
	"fmt"
	"testing"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	catalogdomain "github.com/keepsakelabs/keepsake/internal/catalog/domain"
	"github.com/keepsakelabs/keepsake/internal/constraint/domain"
	"github.com/keepsakelabs/keepsake/internal/constraint/repository"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type namesStub struct {
	names map[string]string
}

func (n *namesStub) CreateProductType(ctx context.Context, req catalogdomain.CreateProductTypeRequest) (*catalogdomain.ProductTypeResponse, error) {
	return nil, nil
}

func (n *namesStub) ListProductTypes(ctx context.Context) ([]catalogdomain.ProductTypeResponse, error) {
	return nil, nil
}

func (n *namesStub) GetProductType(ctx context.Context, id string) (*catalogdomain.ProductTypeResponse, error) {
	return nil, catalogdomain.ErrNotFound
}

func (n *namesStub) ResolveProductType(ctx context.Context, productID string) (*catalogdomain.ProductTypeResponse, error) {
	return nil, catalogdomain.ErrNotFound
}

func (n *namesStub) DisplayName(ctx context.Context, itemID string, itemType catalogdomain.ItemType) (string, error) {
	if name, ok := n.names[itemID]; ok {
		return name, nil
	}
	return "", catalogdomain.ErrNotFound
}

func setupConstraintService(t *testing.T, node *snowflake.Node, names map[string]string) domain.Service {
	t.Helper()

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
	if err := db.AutoMigrate(&domain.ItemConstraint{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	return New(Params{
		DB:         db,
		Log:        zap.NewNop(),
		GenID:      node,
		Repo:       repository.Provide(),
		CatalogSvc: &namesStub{names: names},
	})
}

func cartItem(id snowflake.ID, itemType catalogdomain.ItemType) domain.CartItem {
	return domain.CartItem{ItemID: id.String(), ItemType: string(itemType), Quantity: 1}
}

func TestValidateCartMutuallyExclusive(t *testing.T) {
	node := mustNode(t)
	wineID := node.Generate()
	kidsID := node.Generate()
	svc := setupConstraintService(t, node, map[string]string{
		wineID.String(): "Red wine",
		kidsID.String(): "Kids basket",
	})
	ctx := context.Background()

	if _, err := svc.CreateConstraint(ctx, domain.CreateRequest{
		TargetItemID:    wineID.String(),
		TargetItemType:  "ADDITIONAL",
		ConstraintType:  "MUTUALLY_EXCLUSIVE",
		RelatedItemID:   kidsID.String(),
		RelatedItemType: "PRODUCT",
	}); err != nil {
		t.Fatalf("create constraint: %v", err)
	}

	// The rule fires no matter which endpoint the cart lists first.
	for _, items := range [][]domain.CartItem{
		{cartItem(wineID, catalogdomain.ItemTypeAdditional), cartItem(kidsID, catalogdomain.ItemTypeProduct)},
		{cartItem(kidsID, catalogdomain.ItemTypeProduct), cartItem(wineID, catalogdomain.ItemTypeAdditional)},
	} {
		result, err := svc.ValidateCart(ctx, items)
		if err != nil {
			t.Fatalf("validate cart: %v", err)
		}
		if result.Valid {
			t.Fatal("expected mutually exclusive pair to fail")
		}
		if len(result.Violations) != 1 {
			t.Fatalf("expected one violation, got %v", result.Violations)
		}
		if result.Violations[0].Message != "Red wine cannot be combined with Kids basket" {
			t.Fatalf("unexpected message: %q", result.Violations[0].Message)
		}
	}

	result, err := svc.ValidateCart(ctx, []domain.CartItem{
		cartItem(wineID, catalogdomain.ItemTypeAdditional),
	})
	if err != nil {
		t.Fatalf("validate cart: %v", err)
	}
	if !result.Valid {
		t.Fatalf("single endpoint should pass, got %v", result.Violations)
	}
}

func TestValidateCartRequiresIsDirectional(t *testing.T) {
	node := mustNode(t)
	vaseID := node.Generate()
	flowersID := node.Generate()
	svc := setupConstraintService(t, node, map[string]string{
		vaseID.String():    "Crystal vase",
		flowersID.String(): "Flower bouquet",
	})
	ctx := context.Background()

	if _, err := svc.CreateConstraint(ctx, domain.CreateRequest{
		TargetItemID:    vaseID.String(),
		TargetItemType:  "ADDITIONAL",
		ConstraintType:  "REQUIRES",
		RelatedItemID:   flowersID.String(),
		RelatedItemType: "PRODUCT",
	}); err != nil {
		t.Fatalf("create constraint: %v", err)
	}

	result, err := svc.ValidateCart(ctx, []domain.CartItem{
		cartItem(vaseID, catalogdomain.ItemTypeAdditional),
	})
	if err != nil {
		t.Fatalf("validate cart: %v", err)
	}
	if result.Valid {
		t.Fatal("expected missing requirement to fail")
	}
	if result.Violations[0].Message != "Crystal vase requires Flower bouquet" {
		t.Fatalf("unexpected message: %q", result.Violations[0].Message)
	}

	// The related item alone carries no requirement.
	result, err = svc.ValidateCart(ctx, []domain.CartItem{
		cartItem(flowersID, catalogdomain.ItemTypeProduct),
	})
	if err != nil {
		t.Fatalf("validate cart: %v", err)
	}
	if !result.Valid {
		t.Fatalf("requires must be directional, got %v", result.Violations)
	}

	result, err = svc.ValidateCart(ctx, []domain.CartItem{
		cartItem(vaseID, catalogdomain.ItemTypeAdditional),
		cartItem(flowersID, catalogdomain.ItemTypeProduct),
	})
	if err != nil {
		t.Fatalf("validate cart: %v", err)
	}
	if !result.Valid {
		t.Fatalf("satisfied requirement should pass, got %v", result.Violations)
	}
}

func TestValidateCartCustomMessage(t *testing.T) {
	node := mustNode(t)
	aID := node.Generate()
	bID := node.Generate()
	svc := setupConstraintService(t, node, map[string]string{
		aID.String(): "A",
		bID.String(): "B",
	})
	ctx := context.Background()

	message := "these two never ship together"
	if _, err := svc.CreateConstraint(ctx, domain.CreateRequest{
		TargetItemID:    aID.String(),
		TargetItemType:  "PRODUCT",
		ConstraintType:  "MUTUALLY_EXCLUSIVE",
		RelatedItemID:   bID.String(),
		RelatedItemType: "PRODUCT",
		Message:         &message,
	}); err != nil {
		t.Fatalf("create constraint: %v", err)
	}

	result, err := svc.ValidateCart(ctx, []domain.CartItem{
		cartItem(aID, catalogdomain.ItemTypeProduct),
		cartItem(bID, catalogdomain.ItemTypeProduct),
	})
	if err != nil {
		t.Fatalf("validate cart: %v", err)
	}
	if result.Violations[0].Message != message {
		t.Fatalf("expected custom message, got %q", result.Violations[0].Message)
	}
}

func TestCreateConstraintRejectsSelfAndUnknown(t *testing.T) {
	node := mustNode(t)
	aID := node.Generate()
	svc := setupConstraintService(t, node, map[string]string{aID.String(): "A"})
	ctx := context.Background()

	_, err := svc.CreateConstraint(ctx, domain.CreateRequest{
		TargetItemID:    aID.String(),
		TargetItemType:  "PRODUCT",
		ConstraintType:  "REQUIRES",
		RelatedItemID:   aID.String(),
		RelatedItemType: "PRODUCT",
	})
	if err != domain.ErrSelfConstraint {
		t.Fatalf("expected ErrSelfConstraint, got %v", err)
	}

	_, err = svc.CreateConstraint(ctx, domain.CreateRequest{
		TargetItemID:    aID.String(),
		TargetItemType:  "PRODUCT",
		ConstraintType:  "REQUIRES",
		RelatedItemID:   node.Generate().String(),
		RelatedItemType: "PRODUCT",
	})
	if err != domain.ErrUnknownItem {
		t.Fatalf("expected ErrUnknownItem, got %v", err)
	}
}

func TestGetItemConstraintsBothEndpoints(t *testing.T) {
	node := mustNode(t)
	aID := node.Generate()
	bID := node.Generate()
	cID := node.Generate()
	svc := setupConstraintService(t, node, map[string]string{
		aID.String(): "A",
		bID.String(): "B",
		cID.String(): "C",
	})
	ctx := context.Background()

	for _, req := range []domain.CreateRequest{
		{TargetItemID: aID.String(), TargetItemType: "PRODUCT", ConstraintType: "REQUIRES", RelatedItemID: bID.String(), RelatedItemType: "PRODUCT"},
		{TargetItemID: cID.String(), TargetItemType: "PRODUCT", ConstraintType: "MUTUALLY_EXCLUSIVE", RelatedItemID: bID.String(), RelatedItemType: "PRODUCT"},
	} {
		if _, err := svc.CreateConstraint(ctx, req); err != nil {
			t.Fatalf("create constraint: %v", err)
		}
	}

	// B sits on the related side of both rows and must see both.
	constraints, err := svc.GetItemConstraints(ctx, bID.String(), "PRODUCT")
	if err != nil {
		t.Fatalf("get constraints: %v", err)
	}
	if len(constraints) != 2 {
		t.Fatalf("expected both constraints, got %d", len(constraints))
	}
}

func mustNode(t *testing.T) *snowflake.Node {
	t.Helper()
	node, err := snowflake.NewNode(1)
	if err != nil {
		t.Fatalf("new node: %v", err)
	}
	return node
}
