package db

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"tweetrouter/internal/models"
)

// txStore is the store.Tx view of an open transaction.
type txStore struct {
	tx pgx.Tx
}

func (t *txStore) ListActiveRules(ctx context.Context) ([]models.RoutingRule, error) {
	return listActiveRules(ctx, t.tx)
}

// GetTweetForUpdate locks the tweet row until the transaction ends, so a
// concurrent router blocks and then observes the finalized status.
func (t *txStore) GetTweetForUpdate(ctx context.Context, id uuid.UUID) (*models.Tweet, error) {
	return getTweet(ctx, t.tx, id, true)
}

func (t *txStore) UpdateTweet(ctx context.Context, id uuid.UUID, upd models.TweetUpdate) error {
	return updateTweet(ctx, t.tx, id, upd)
}

func (t *txStore) CreateResponse(ctx context.Context, resp *models.TweetResponse) error {
	return insertResponse(ctx, t.tx, resp)
}
