// Package matcher picks the routing rule that applies to a piece of text.
//
// A rule matches when any of its keywords occurs in the text as a
// case-insensitive substring. There is no tokenizing or stemming: "bag"
// matches "baggage". A keyword equal to the empty string therefore matches
// any non-empty text; rule creation rejects such keywords, but rules written
// directly to the store are matched as-is.
package matcher

import (
	"cmp"
	"slices"
	"strings"

	"github.com/samber/lo"

	"tweetrouter/internal/models"
)

// Match returns the highest-priority rule among rules that matches text.
// Rules with equal priority keep their input order, so the caller's ordering
// decides ties. Rules are assumed to be active already.
func Match(text string, rules []models.RoutingRule) (*models.RoutingRule, bool) {
	matches := Matches(text, rules)
	if len(matches) == 0 {
		return nil, false
	}
	best := matches[0]
	return &best, true
}

// Matches returns every rule that matches text, best priority first.
func Matches(text string, rules []models.RoutingRule) []models.RoutingRule {
	if text == "" {
		return nil
	}
	lower := strings.ToLower(text)

	matches := lo.Filter(rules, func(rule models.RoutingRule, _ int) bool {
		return matchesAny(lower, rule.Keywords)
	})
	slices.SortStableFunc(matches, func(a, b models.RoutingRule) int {
		return cmp.Compare(b.Priority, a.Priority)
	})
	return matches
}

// matchesAny reports whether any keyword is a substring of lowerText.
func matchesAny(lowerText string, keywords []string) bool {
	return lo.SomeBy(keywords, func(keyword string) bool {
		return strings.Contains(lowerText, strings.ToLower(keyword))
	})
}
