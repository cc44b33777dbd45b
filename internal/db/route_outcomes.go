package db

import (
	"context"

	"tweetrouter/internal/models"
)

// IncrementRouteOutcome upserts a route outcome count for a rule.
func (d *DB) IncrementRouteOutcome(ctx context.Context, ruleName, outcome string) error {
	_, err := d.Pool.Exec(ctx, `
		INSERT INTO route_outcomes (rule_name, outcome, count, last_seen_at)
		VALUES ($1, $2, 1, NOW())
		ON CONFLICT (rule_name, outcome) DO UPDATE
		SET count = route_outcomes.count + 1, last_seen_at = NOW()
	`, ruleName, outcome)
	return err
}

// ListRouteOutcomes returns all route outcome rows for metrics export.
func (d *DB) ListRouteOutcomes(ctx context.Context) ([]models.RouteOutcome, error) {
	rows, err := d.Pool.Query(ctx, `SELECT rule_name, outcome, count, last_seen_at FROM route_outcomes`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var outcomes []models.RouteOutcome
	for rows.Next() {
		var o models.RouteOutcome
		if err := rows.Scan(&o.RuleName, &o.Outcome, &o.Count, &o.LastSeenAt); err != nil {
			return nil, err
		}
		outcomes = append(outcomes, o)
	}
	return outcomes, rows.Err()
}
