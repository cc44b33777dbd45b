package db

import (
	"context"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"tweetrouter/internal/models"
	"tweetrouter/internal/store"
)

// ruleColumns is the standard column list for routing rule queries.
const ruleColumns = `id, name, keywords, priority, response_template, is_active, created_at, updated_at`

// scanRule scans a row into a RoutingRule struct.
func scanRule(row pgx.Row) (*models.RoutingRule, error) {
	var rule models.RoutingRule
	err := row.Scan(
		&rule.ID,
		&rule.Name,
		&rule.Keywords,
		&rule.Priority,
		&rule.ResponseTemplate,
		&rule.IsActive,
		&rule.CreatedAt,
		&rule.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, store.ErrRuleNotFound
	}
	if err != nil {
		return nil, err
	}
	return &rule, nil
}

// scanRules scans multiple rows into a slice of RoutingRules.
func scanRules(rows pgx.Rows) ([]models.RoutingRule, error) {
	defer rows.Close()

	var rules []models.RoutingRule
	for rows.Next() {
		var rule models.RoutingRule
		if err := rows.Scan(
			&rule.ID,
			&rule.Name,
			&rule.Keywords,
			&rule.Priority,
			&rule.ResponseTemplate,
			&rule.IsActive,
			&rule.CreatedAt,
			&rule.UpdatedAt,
		); err != nil {
			return nil, err
		}
		rules = append(rules, rule)
	}

	return rules, rows.Err()
}

// ListRules retrieves all routing rules in creation order.
func (d *DB) ListRules(ctx context.Context) ([]models.RoutingRule, error) {
	query := `SELECT ` + ruleColumns + ` FROM routing_rules ORDER BY created_at ASC, id ASC`
	rows, err := d.Pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	return scanRules(rows)
}

// ListActiveRules retrieves active rules, best priority first.
// Equal priorities are ordered by name so matching ties are deterministic.
func (d *DB) ListActiveRules(ctx context.Context) ([]models.RoutingRule, error) {
	return listActiveRules(ctx, d.Pool)
}

func listActiveRules(ctx context.Context, q querier) ([]models.RoutingRule, error) {
	query := `
		SELECT ` + ruleColumns + `
		FROM routing_rules
		WHERE is_active
		ORDER BY priority DESC, name ASC, id ASC
	`
	rows, err := q.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	return scanRules(rows)
}

// GetRule retrieves a routing rule by its ID.
func (d *DB) GetRule(ctx context.Context, id uuid.UUID) (*models.RoutingRule, error) {
	query := `SELECT ` + ruleColumns + ` FROM routing_rules WHERE id = $1`
	return scanRule(d.Pool.QueryRow(ctx, query, id))
}

// CreateRule inserts a routing rule and fills in its ID and timestamps.
func (d *DB) CreateRule(ctx context.Context, rule *models.RoutingRule) error {
	return insertRule(ctx, d.Pool, rule)
}

// CreateRules inserts all rules in one transaction.
func (d *DB) CreateRules(ctx context.Context, rules []*models.RoutingRule) error {
	return pgx.BeginFunc(ctx, d.Pool, func(tx pgx.Tx) error {
		for _, rule := range rules {
			if err := insertRule(ctx, tx, rule); err != nil {
				return fmt.Errorf("failed to insert rule %q: %w", rule.Name, err)
			}
		}
		return nil
	})
}

func insertRule(ctx context.Context, q querier, rule *models.RoutingRule) error {
	query := `
		INSERT INTO routing_rules (name, keywords, priority, response_template, is_active)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at, updated_at
	`
	keywords := rule.Keywords
	if keywords == nil {
		keywords = []string{}
	}
	return q.QueryRow(ctx, query,
		rule.Name,
		keywords,
		rule.Priority,
		rule.ResponseTemplate,
		rule.IsActive,
	).Scan(&rule.ID, &rule.CreatedAt, &rule.UpdatedAt)
}

// UpdateRule overwrites only the supplied fields and always refreshes updated_at.
func (d *DB) UpdateRule(ctx context.Context, id uuid.UUID, upd models.RuleUpdate) (*models.RoutingRule, error) {
	builder := psql.Update("routing_rules").Set("updated_at", sq.Expr("NOW()"))

	if upd.Name != nil {
		builder = builder.Set("name", *upd.Name)
	}
	if upd.Keywords != nil {
		builder = builder.Set("keywords", *upd.Keywords)
	}
	if upd.Priority != nil {
		builder = builder.Set("priority", *upd.Priority)
	}
	if upd.ResponseTemplate != nil {
		builder = builder.Set("response_template", *upd.ResponseTemplate)
	}
	if upd.IsActive != nil {
		builder = builder.Set("is_active", *upd.IsActive)
	}

	query, args, err := builder.
		Where("id = ?", id).
		Suffix("RETURNING " + ruleColumns).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build rule update: %w", err)
	}

	return scanRule(d.Pool.QueryRow(ctx, query, args...))
}

// ToggleRule flips is_active in one statement, so concurrent toggles never
// both write the same value.
func (d *DB) ToggleRule(ctx context.Context, id uuid.UUID) (*models.RoutingRule, error) {
	query := `
		UPDATE routing_rules
		SET is_active = NOT is_active, updated_at = NOW()
		WHERE id = $1
		RETURNING ` + ruleColumns
	return scanRule(d.Pool.QueryRow(ctx, query, id))
}

// DeleteRule deletes a routing rule. Tweets and responses that reference it
// keep the dangling id as a historical record.
func (d *DB) DeleteRule(ctx context.Context, id uuid.UUID) error {
	result, err := d.Pool.Exec(ctx, `DELETE FROM routing_rules WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return store.ErrRuleNotFound
	}
	return nil
}

// CountRules returns the total number of routing rules.
func (d *DB) CountRules(ctx context.Context) (int, error) {
	var count int
	err := d.Pool.QueryRow(ctx, `SELECT COUNT(*) FROM routing_rules`).Scan(&count)
	return count, err
}
