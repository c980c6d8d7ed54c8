package service

import (
	"context"
	"testing"

	"github.com/keepsakelabs/keepsake/internal/customization/domain"
)

func TestCreateRuleRejectsBadInput(t *testing.T) {
	node := mustNode(t)
	typeID := node.Generate()
	svc, _ := setupValidationService(t, node, typeID)
	ctx := context.Background()

	cases := []struct {
		name string
		req  domain.CreateRuleRequest
		want error
	}{
		{
			name: "empty title",
			req: domain.CreateRuleRequest{
				ProductTypeID: typeID.String(),
				RuleType:      "TEXT_INPUT",
				Title:         "   ",
			},
			want: domain.ErrInvalidTitle,
		},
		{
			name: "unknown rule type",
			req: domain.CreateRuleRequest{
				ProductTypeID: typeID.String(),
				RuleType:      "HOLOGRAM",
				Title:         "Hologram",
			},
			want: domain.ErrInvalidRuleType,
		},
		{
			name: "non positive max items",
			req: domain.CreateRuleRequest{
				ProductTypeID: typeID.String(),
				RuleType:      "PHOTO_UPLOAD",
				Title:         "Photos",
				MaxItems:      intPtr(0),
			},
			want: domain.ErrInvalidMaxItems,
		},
		{
			name: "unknown product type",
			req: domain.CreateRuleRequest{
				ProductTypeID: node.Generate().String(),
				RuleType:      "TEXT_INPUT",
				Title:         "Text",
			},
			want: domain.ErrInvalidProductType,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := svc.CreateRule(ctx, tc.req); err != tc.want {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
		})
	}
}

func TestCreateRuleRejectsDanglingEdges(t *testing.T) {
	node := mustNode(t)
	typeID := node.Generate()
	svc, _ := setupValidationService(t, node, typeID)
	ctx := context.Background()

	_, err := svc.CreateRule(ctx, domain.CreateRuleRequest{
		ProductTypeID: typeID.String(),
		RuleType:      "PHOTO_UPLOAD",
		Title:         "Photos",
		ConflictWith:  []string{node.Generate().String()},
	})
	if err != domain.ErrCrossTypeReference {
		t.Fatalf("expected ErrCrossTypeReference, got %v", err)
	}
}

func TestUpdateRuleRejectsSelfReference(t *testing.T) {
	node := mustNode(t)
	typeID := node.Generate()
	svc, _ := setupValidationService(t, node, typeID)
	ctx := context.Background()

	created, err := svc.CreateRule(ctx, domain.CreateRuleRequest{
		ProductTypeID: typeID.String(),
		RuleType:      "PHOTO_UPLOAD",
		Title:         "Photos",
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	_, err = svc.UpdateRule(ctx, domain.UpdateRuleRequest{
		ID:           created.ID,
		Dependencies: []string{created.ID},
	})
	if err != domain.ErrSelfReference {
		t.Fatalf("expected ErrSelfReference, got %v", err)
	}
}

func TestListRulesOrdering(t *testing.T) {
	node := mustNode(t)
	typeID := node.Generate()
	svc, _ := setupValidationService(t, node, typeID)
	ctx := context.Background()

	for i, title := range []string{"Third", "First", "Second"} {
		order := []int{3, 1, 2}[i]
		if _, err := svc.CreateRule(ctx, domain.CreateRuleRequest{
			ProductTypeID: typeID.String(),
			RuleType:      "TEXT_INPUT",
			Title:         title,
			DisplayOrder:  order,
		}); err != nil {
			t.Fatalf("create %s: %v", title, err)
		}
	}

	rules, err := svc.ListRules(ctx, typeID.String())
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	titles := make([]string, 0, len(rules))
	for _, rule := range rules {
		titles = append(titles, rule.Title)
	}
	want := []string{"First", "Second", "Third"}
	for i := range want {
		if titles[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, titles)
		}
	}
}

func TestDeleteRuleNotFound(t *testing.T) {
	node := mustNode(t)
	typeID := node.Generate()
	svc, _ := setupValidationService(t, node, typeID)

	if err := svc.DeleteRule(context.Background(), node.Generate().String()); err != domain.ErrNotFound {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func intPtr(v int) *int { return &v }
