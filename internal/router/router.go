// Package router routes batches of tweets to canned responses.
package router

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/samber/lo"

	"tweetrouter/internal/matcher"
	"tweetrouter/internal/metrics"
	"tweetrouter/internal/models"
	"tweetrouter/internal/store"
)

// ErrMsgTweetNotFound is reported for ids that do not resolve to a tweet.
const ErrMsgTweetNotFound = "Tweet not found"

// Router matches tweets against the active rule set and queues responses.
type Router struct {
	store  store.Store
	logger *slog.Logger
}

// New creates a router over s. A nil logger uses slog.Default().
func New(s store.Store, logger *slog.Logger) *Router {
	if logger == nil {
		logger = slog.Default()
	}
	return &Router{store: s, logger: logger}
}

// Route processes ids sequentially, each in its own store transaction, and
// returns exactly one result per id in input order. A failure on one id is
// captured in its result and never aborts the rest of the batch.
func (r *Router) Route(ctx context.Context, ids []string) []models.RouteResult {
	results := make([]models.RouteResult, 0, len(ids))
	for _, id := range ids {
		result := r.routeOne(ctx, id)
		results = append(results, result)

		outcome := result.Status
		if !result.Success {
			outcome = models.OutcomeFailed
		}
		metrics.RecordRouteOutcome(result.MatchedRule, outcome)
	}

	routed := lo.CountBy(results, func(res models.RouteResult) bool {
		return res.Status == models.OutcomeRouted
	})
	r.logger.Info("routed tweet batch", "size", len(ids), "routed", routed)
	return results
}

// RoutePending routes up to limit tweets that are still pending.
func (r *Router) RoutePending(ctx context.Context, limit int) ([]models.RouteResult, error) {
	tweets, err := r.store.ListTweets(ctx, models.RoutingPending, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list pending tweets: %w", err)
	}
	if len(tweets) == 0 {
		return nil, nil
	}

	ids := lo.Map(tweets, func(t models.Tweet, _ int) string {
		return t.ID.String()
	})
	return r.Route(ctx, ids), nil
}

func (r *Router) routeOne(ctx context.Context, rawID string) models.RouteResult {
	result := models.RouteResult{TweetID: rawID}

	id, err := uuid.Parse(rawID)
	if err != nil {
		result.Error = ErrMsgTweetNotFound
		return result
	}

	err = r.store.InTx(ctx, func(tx store.Tx) error {
		var txErr error
		result, txErr = routeTweet(ctx, tx, rawID, id)
		return txErr
	})
	if err != nil {
		result = models.RouteResult{TweetID: rawID}
		if errors.Is(err, store.ErrTweetNotFound) {
			result.Error = ErrMsgTweetNotFound
		} else {
			r.logger.Error("failed to route tweet", "tweet_id", rawID, "error", err)
			result.Error = err.Error()
		}
	}
	return result
}

// routeTweet performs the read-check-write sequence for one tweet inside tx.
func routeTweet(ctx context.Context, tx store.Tx, rawID string, id uuid.UUID) (models.RouteResult, error) {
	result := models.RouteResult{TweetID: rawID}

	tweet, err := tx.GetTweetForUpdate(ctx, id)
	if err != nil {
		return result, err
	}

	if !tweet.IsRoutable() {
		result.Success = true
		result.Status = models.OutcomeAlreadyProcessed
		return result, nil
	}

	rules, err := tx.ListActiveRules(ctx)
	if err != nil {
		return result, fmt.Errorf("failed to load active rules: %w", err)
	}

	rule, ok := matcher.Match(tweet.Text, rules)
	if !ok {
		skipped := models.RoutingSkipped
		if err := tx.UpdateTweet(ctx, id, models.TweetUpdate{RoutingStatus: &skipped}); err != nil {
			return result, fmt.Errorf("failed to mark tweet skipped: %w", err)
		}
		result.Success = true
		result.Status = models.OutcomeSkipped
		return result, nil
	}

	resp := &models.TweetResponse{
		OriginalTweetID: tweet.TweetID,
		RoutingRuleID:   rule.ID,
		ResponseText:    rule.ResponseTemplate,
		Status:          models.ResponsePending,
	}
	if err := tx.CreateResponse(ctx, resp); err != nil {
		return result, fmt.Errorf("failed to queue response: %w", err)
	}

	routed := models.RoutingRouted
	if err := tx.UpdateTweet(ctx, id, models.TweetUpdate{
		RoutingStatus: &routed,
		MatchedRuleID: &rule.ID,
	}); err != nil {
		return result, fmt.Errorf("failed to mark tweet routed: %w", err)
	}

	result.Success = true
	result.Status = models.OutcomeRouted
	result.MatchedRule = rule.Name
	return result, nil
}
