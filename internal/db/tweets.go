package db

import (
	"context"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"tweetrouter/internal/models"
	"tweetrouter/internal/store"
)

// tweetColumns is the standard column list for tweet queries.
// A NULL routing_status reads back as the empty string.
const tweetColumns = `id, tweet_id, author_handle, text, COALESCE(routing_status, ''), matched_rule_id, created_at`

func scanTweet(row pgx.Row) (*models.Tweet, error) {
	var tweet models.Tweet
	err := row.Scan(
		&tweet.ID,
		&tweet.TweetID,
		&tweet.AuthorHandle,
		&tweet.Text,
		&tweet.RoutingStatus,
		&tweet.MatchedRuleID,
		&tweet.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, store.ErrTweetNotFound
	}
	if err != nil {
		return nil, err
	}
	return &tweet, nil
}

func scanTweets(rows pgx.Rows) ([]models.Tweet, error) {
	defer rows.Close()

	var tweets []models.Tweet
	for rows.Next() {
		var tweet models.Tweet
		if err := rows.Scan(
			&tweet.ID,
			&tweet.TweetID,
			&tweet.AuthorHandle,
			&tweet.Text,
			&tweet.RoutingStatus,
			&tweet.MatchedRuleID,
			&tweet.CreatedAt,
		); err != nil {
			return nil, err
		}
		tweets = append(tweets, tweet)
	}

	return tweets, rows.Err()
}

// CreateTweet stores an ingested tweet.
func (d *DB) CreateTweet(ctx context.Context, tweet *models.Tweet) error {
	query := `
		INSERT INTO tweets (tweet_id, author_handle, text, routing_status, created_at)
		VALUES ($1, $2, $3, NULLIF($4, ''), COALESCE($5, NOW()))
		RETURNING id, created_at
	`

	var createdAt *time.Time
	if !tweet.CreatedAt.IsZero() {
		createdAt = &tweet.CreatedAt
	}

	err := d.Pool.QueryRow(ctx, query,
		tweet.TweetID,
		tweet.AuthorHandle,
		tweet.Text,
		tweet.RoutingStatus,
		createdAt,
	).Scan(&tweet.ID, &tweet.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return store.ErrDuplicateTweet
		}
		return err
	}
	return nil
}

// GetTweet retrieves a tweet by its ID.
func (d *DB) GetTweet(ctx context.Context, id uuid.UUID) (*models.Tweet, error) {
	return getTweet(ctx, d.Pool, id, false)
}

func getTweet(ctx context.Context, q querier, id uuid.UUID, forUpdate bool) (*models.Tweet, error) {
	query := `SELECT ` + tweetColumns + ` FROM tweets WHERE id = $1`
	if forUpdate {
		query += ` FOR UPDATE`
	}
	return scanTweet(q.QueryRow(ctx, query, id))
}

// UpdateTweet patches a tweet's routing fields.
func (d *DB) UpdateTweet(ctx context.Context, id uuid.UUID, upd models.TweetUpdate) error {
	return updateTweet(ctx, d.Pool, id, upd)
}

func updateTweet(ctx context.Context, q querier, id uuid.UUID, upd models.TweetUpdate) error {
	if upd.RoutingStatus == nil && upd.MatchedRuleID == nil {
		_, err := getTweet(ctx, q, id, false)
		return err
	}

	builder := psql.Update("tweets")
	if upd.RoutingStatus != nil {
		builder = builder.Set("routing_status", *upd.RoutingStatus)
	}
	if upd.MatchedRuleID != nil {
		builder = builder.Set("matched_rule_id", *upd.MatchedRuleID)
	}

	query, args, err := builder.Where("id = ?", id).ToSql()
	if err != nil {
		return fmt.Errorf("failed to build tweet update: %w", err)
	}

	result, err := q.Exec(ctx, query, args...)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return store.ErrTweetNotFound
	}
	return nil
}

// ListTweets retrieves tweets newest first, optionally filtered by routing status.
func (d *DB) ListTweets(ctx context.Context, status string, limit int) ([]models.Tweet, error) {
	builder := psql.Select(tweetColumns).From("tweets")
	switch status {
	case "":
	case models.RoutingPending:
		// an unset status is still awaiting routing
		builder = builder.Where(sq.Or{
			sq.Eq{"routing_status": models.RoutingPending},
			sq.Eq{"routing_status": nil},
		})
	default:
		builder = builder.Where(sq.Eq{"routing_status": status})
	}
	builder = builder.OrderBy("created_at DESC", "id ASC")
	if limit > 0 {
		builder = builder.Limit(uint64(limit))
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build tweet query: %w", err)
	}

	rows, err := d.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	return scanTweets(rows)
}
