package db

import (
	"context"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"

	"tweetrouter/internal/models"
	"tweetrouter/internal/store"
)

const responseColumns = `id, original_tweet_id, routing_rule_id, response_text, status, created_at`

func scanResponse(row pgx.Row) (*models.TweetResponse, error) {
	var resp models.TweetResponse
	err := row.Scan(
		&resp.ID,
		&resp.OriginalTweetID,
		&resp.RoutingRuleID,
		&resp.ResponseText,
		&resp.Status,
		&resp.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, store.ErrResponseNotFound
	}
	if err != nil {
		return nil, err
	}
	return &resp, nil
}

// CreateResponse queues a tweet response.
func (d *DB) CreateResponse(ctx context.Context, resp *models.TweetResponse) error {
	return insertResponse(ctx, d.Pool, resp)
}

func insertResponse(ctx context.Context, q querier, resp *models.TweetResponse) error {
	if resp.Status == "" {
		resp.Status = models.ResponsePending
	}
	query := `
		INSERT INTO tweet_responses (original_tweet_id, routing_rule_id, response_text, status)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at
	`
	return q.QueryRow(ctx, query,
		resp.OriginalTweetID,
		resp.RoutingRuleID,
		resp.ResponseText,
		resp.Status,
	).Scan(&resp.ID, &resp.CreatedAt)
}

// GetResponseByOriginalTweet retrieves the first response queued for a tweet.
func (d *DB) GetResponseByOriginalTweet(ctx context.Context, tweetID string) (*models.TweetResponse, error) {
	query := `
		SELECT ` + responseColumns + `
		FROM tweet_responses
		WHERE original_tweet_id = $1
		ORDER BY created_at ASC
		LIMIT 1
	`
	return scanResponse(d.Pool.QueryRow(ctx, query, tweetID))
}

// ListResponses retrieves responses newest first, optionally filtered by status.
func (d *DB) ListResponses(ctx context.Context, status string, limit int) ([]models.TweetResponse, error) {
	builder := psql.Select(responseColumns).From("tweet_responses")
	if status != "" {
		builder = builder.Where(sq.Eq{"status": status})
	}
	builder = builder.OrderBy("created_at DESC")
	if limit > 0 {
		builder = builder.Limit(uint64(limit))
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build response query: %w", err)
	}

	rows, err := d.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var responses []models.TweetResponse
	for rows.Next() {
		var resp models.TweetResponse
		if err := rows.Scan(
			&resp.ID,
			&resp.OriginalTweetID,
			&resp.RoutingRuleID,
			&resp.ResponseText,
			&resp.Status,
			&resp.CreatedAt,
		); err != nil {
			return nil, err
		}
		responses = append(responses, resp)
	}
	return responses, rows.Err()
}
