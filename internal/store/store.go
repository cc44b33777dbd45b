// Package store defines the persistence contract used by the routing core.
//
// Implementations must make InTx atomic: the read-check-write sequence
// performed on a tweet inside fn must not interleave with another InTx
// touching the same tweet. Without that guarantee the batch router's
// once-per-tweet response degrades to best effort and duplicate responses
// become possible.
package store

import (
	"context"

	"github.com/google/uuid"

	"tweetrouter/internal/models"
)

// RuleStore manages routing rules.
type RuleStore interface {
	ListRules(ctx context.Context) ([]models.RoutingRule, error)
	ListActiveRules(ctx context.Context) ([]models.RoutingRule, error)
	GetRule(ctx context.Context, id uuid.UUID) (*models.RoutingRule, error)
	CreateRule(ctx context.Context, rule *models.RoutingRule) error
	CreateRules(ctx context.Context, rules []*models.RoutingRule) error
	UpdateRule(ctx context.Context, id uuid.UUID, upd models.RuleUpdate) (*models.RoutingRule, error)
	// ToggleRule flips is_active in a single atomic step and returns the result.
	ToggleRule(ctx context.Context, id uuid.UUID) (*models.RoutingRule, error)
	DeleteRule(ctx context.Context, id uuid.UUID) error
	CountRules(ctx context.Context) (int, error)
}

// TweetStore manages ingested tweets.
type TweetStore interface {
	CreateTweet(ctx context.Context, tweet *models.Tweet) error
	GetTweet(ctx context.Context, id uuid.UUID) (*models.Tweet, error)
	UpdateTweet(ctx context.Context, id uuid.UUID, upd models.TweetUpdate) error
	// ListTweets returns tweets newest first. An empty status lists all tweets;
	// "pending" also selects tweets whose status was never set.
	ListTweets(ctx context.Context, status string, limit int) ([]models.Tweet, error)
}

// ResponseStore manages queued tweet responses.
type ResponseStore interface {
	CreateResponse(ctx context.Context, resp *models.TweetResponse) error
	GetResponseByOriginalTweet(ctx context.Context, tweetID string) (*models.TweetResponse, error)
	ListResponses(ctx context.Context, status string, limit int) ([]models.TweetResponse, error)
}

// OutcomeStore keeps route outcome counters for metrics export.
type OutcomeStore interface {
	IncrementRouteOutcome(ctx context.Context, ruleName, outcome string) error
	ListRouteOutcomes(ctx context.Context) ([]models.RouteOutcome, error)
}

// Tx is the view of the store available inside a transaction.
type Tx interface {
	ListActiveRules(ctx context.Context) ([]models.RoutingRule, error)
	// GetTweetForUpdate reads a tweet and holds it until the transaction ends.
	GetTweetForUpdate(ctx context.Context, id uuid.UUID) (*models.Tweet, error)
	UpdateTweet(ctx context.Context, id uuid.UUID, upd models.TweetUpdate) error
	CreateResponse(ctx context.Context, resp *models.TweetResponse) error
}

// Store is the full persistence contract.
type Store interface {
	RuleStore
	TweetStore
	ResponseStore
	OutcomeStore

	// InTx runs fn in a single transaction. fn's error rolls everything back.
	InTx(ctx context.Context, fn func(tx Tx) error) error
	Ping(ctx context.Context) error
	Close()
}
