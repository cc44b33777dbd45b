// Package seed bootstraps the starter routing rules.
package seed

import (
	"context"
	"fmt"

	"github.com/samber/lo"

	"tweetrouter/internal/config"
	"tweetrouter/internal/models"
	"tweetrouter/internal/store"
	"tweetrouter/internal/validation"
)

// Seeder inserts a starter rule set into an empty rule store.
type Seeder struct {
	store store.RuleStore
	rules []models.RoutingRule
}

// New creates a seeder for rules. A nil or empty list uses DefaultRules.
func New(s store.RuleStore, rules []models.RoutingRule) *Seeder {
	if len(rules) == 0 {
		rules = DefaultRules()
	}
	return &Seeder{store: s, rules: rules}
}

// Run inserts the starter rules in one operation and returns how many were
// inserted. If any rule already exists it writes nothing and returns
// store.ErrAlreadyInitialized.
//
// The existence check and the insert are not one transaction; two concurrent
// runs against an empty store can both insert.
func (s *Seeder) Run(ctx context.Context) (int, error) {
	count, err := s.store.CountRules(ctx)
	if err != nil {
		return 0, fmt.Errorf("counting rules: %w", err)
	}
	if count > 0 {
		return 0, store.ErrAlreadyInitialized
	}

	rules := lo.Map(s.rules, func(r models.RoutingRule, _ int) *models.RoutingRule {
		clone := r.Clone()
		return &clone
	})
	if err := s.store.CreateRules(ctx, rules); err != nil {
		return 0, fmt.Errorf("inserting starter rules: %w", err)
	}
	return len(rules), nil
}

// DefaultRules returns the built-in starter rules, highest priority first.
func DefaultRules() []models.RoutingRule {
	return []models.RoutingRule{
		{
			Name:             "Medical Emergency",
			Keywords:         []string{"medical", "emergency", "sick", "doctor", "ambulance"},
			Priority:         10,
			ResponseTemplate: "We're sorry to hear that. Please alert the nearest crew member right away. Our medical team has been notified and will contact you shortly.",
			IsActive:         true,
		},
		{
			Name:             "Lost Baggage",
			Keywords:         []string{"lost bag", "lost luggage", "missing bag", "baggage"},
			Priority:         8,
			ResponseTemplate: "We're sorry your bag hasn't arrived. Please DM us your file reference number and we'll track it down for you.",
			IsActive:         true,
		},
		{
			Name:             "Flight Delay",
			Keywords:         []string{"delay", "delayed", "late", "cancelled"},
			Priority:         6,
			ResponseTemplate: "We apologize for the disruption to your trip. Please DM us your booking reference so we can look into rebooking options.",
			IsActive:         true,
		},
	}
}

// RulesFromFile converts a parsed seed file into starter rules, validating
// each entry the same way the admin API does.
func RulesFromFile(file *config.SeedFile) ([]models.RoutingRule, error) {
	if file == nil {
		return nil, nil
	}
	rules := make([]models.RoutingRule, 0, len(file.Rules))
	for i, r := range file.Rules {
		in := validation.RuleInput{
			Name:             r.Name,
			Keywords:         r.Keywords,
			Priority:         r.Priority,
			ResponseTemplate: r.ResponseTemplate,
		}
		if err := validation.ValidateRuleInput(&in); err != nil {
			return nil, fmt.Errorf("seed rule %d: %w", i+1, err)
		}
		rules = append(rules, *in.ToRule())
	}
	return rules, nil
}
