package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/keepsakelabs/keepsake/internal/customization/domain"
	"go.uber.org/zap"
)

// ValidateSelections runs the full rule evaluation for one selection set:
// required rules, conflict edges (checked symmetrically), dependency edges
// (checked directionally) and per-rule item limits. Violations accumulate so
// the caller sees every problem in a single pass; the function is pure over
// the rule snapshot read at the start.
func (s *Service) ValidateSelections(ctx context.Context, productTypeID string, selections []domain.Selection) (*domain.ValidationResult, error) {
	typeID, err := snowflake.ParseString(strings.TrimSpace(productTypeID))
	if err != nil {
		return nil, domain.ErrInvalidProductType
	}

	rules, err := s.repo.ListByProductType(ctx, s.db, typeID.Int64())
	if err != nil {
		return nil, err
	}

	byID := make(map[string]*domain.ProductRule, len(rules))
	for i := range rules {
		byID[snowflake.ID(rules[i].ID).String()] = &rules[i]
	}

	// A selection referencing a rule that no longer exists is not an error:
	// a rule deleted mid-checkout surfaces as an ordinary miss, not a crash.
	selected := make(map[string]bool, len(selections))
	selectionByRule := make(map[string]*domain.Selection, len(selections))
	for i := range selections {
		id := strings.TrimSpace(selections[i].RuleID)
		if id == "" {
			continue
		}
		selected[id] = true
		if _, ok := selectionByRule[id]; !ok {
			selectionByRule[id] = &selections[i]
		}
	}

	var violations []string

	for i := range rules {
		rule := &rules[i]
		if rule.Required && !selected[snowflake.ID(rule.ID).String()] {
			violations = append(violations, fmt.Sprintf("rule %s is required", rule.Title))
			s.countViolation(ctx, "required")
		}
	}

	// Conflicts are flagged when either side lists the other, defending
	// against asymmetric admin entry; each pair is reported once.
	reported := make(map[string]bool)
	for i := range rules {
		rule := &rules[i]
		ruleID := snowflake.ID(rule.ID).String()
		if !selected[ruleID] {
			continue
		}
		for _, otherID := range rule.ConflictWith {
			if !selected[otherID] {
				continue
			}
			other, ok := byID[otherID]
			if !ok {
				continue
			}
			key := pairKey(ruleID, otherID)
			if reported[key] {
				continue
			}
			reported[key] = true
			violations = append(violations, fmt.Sprintf("conflict between %s and %s", rule.Title, other.Title))
			s.countViolation(ctx, "conflict")
		}
	}

	for i := range rules {
		rule := &rules[i]
		if !selected[snowflake.ID(rule.ID).String()] {
			continue
		}
		for _, depID := range rule.Dependencies {
			if selected[depID] {
				continue
			}
			depTitle := depID
			if dep, ok := byID[depID]; ok {
				depTitle = dep.Title
			}
			violations = append(violations, fmt.Sprintf("%s requires %s to also be selected", rule.Title, depTitle))
			s.countViolation(ctx, "dependency")
		}
	}

	for id, sel := range selectionByRule {
		rule, ok := byID[id]
		if !ok || !rule.RuleType.AcceptsMultipleItems() || rule.MaxItems == nil {
			continue
		}
		if count := countPayloadItems(sel.Data); count > *rule.MaxItems {
			violations = append(violations, fmt.Sprintf("rule %s accepts at most %d items, got %d", rule.Title, *rule.MaxItems, count))
			s.countViolation(ctx, "max_items")
		}
	}

	result := &domain.ValidationResult{
		Valid:  len(violations) == 0,
		Errors: violations,
	}
	if result.Errors == nil {
		result.Errors = []string{}
	}

	s.metrics.IncRuleValidation(ctx, result.Valid)
	if !result.Valid {
		s.log.Debug("selection rejected",
			zap.String("product_type_id", typeID.String()),
			zap.Int("violations", len(violations)),
		)
	}
	return result, nil
}

func (s *Service) countViolation(ctx context.Context, kind string) {
	s.metrics.IncRuleViolation(ctx, kind)
}

func pairKey(a, b string) string {
	if b < a {
		a, b = b, a
	}
	return a + ":" + b
}

// countPayloadItems counts the entries of the item array a multi-item rule
// carries in its selection data.
func countPayloadItems(data map[string]any) int {
	if data == nil {
		return 0
	}
	photos, ok := data["photos"].([]any)
	if !ok {
		return 0
	}
	return len(photos)
}
