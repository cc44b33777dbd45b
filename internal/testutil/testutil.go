// Package testutil provides test utilities and helpers.
package testutil

import (
	"context"
	"os"
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"

	"tweetrouter/internal/db"
	"tweetrouter/internal/models"
	"tweetrouter/internal/store"
)

// TestDB connects to TEST_DATABASE_URL, runs migrations and empties every
// table. The test is skipped when the variable is unset. The connection is
// cleaned and closed when the test ends.
func TestDB(t *testing.T) *db.DB {
	t.Helper()

	connString := os.Getenv("TEST_DATABASE_URL")
	if connString == "" {
		t.Skip("Skipping integration test: TEST_DATABASE_URL not set")
	}

	ctx := context.Background()
	database, err := db.New(ctx, connString)
	if err != nil {
		t.Fatalf("failed to connect to test database: %v", err)
	}

	// Run migrations
	if err := database.RunMigrations(connString); err != nil {
		database.Close()
		t.Fatalf("failed to run migrations: %v", err)
	}

	cleanupTestData(ctx, database.Pool)
	t.Cleanup(func() {
		cleanupTestData(ctx, database.Pool)
		database.Close()
	})
	return database
}

// cleanupTestData removes all test data from the database.
func cleanupTestData(ctx context.Context, pool *pgxpool.Pool) {
	pool.Exec(ctx, "DELETE FROM tweet_responses")
	pool.Exec(ctx, "DELETE FROM tweets")
	pool.Exec(ctx, "DELETE FROM routing_rules")
	pool.Exec(ctx, "DELETE FROM route_outcomes")
}

// CreateTestRule creates an active rule and returns it.
func CreateTestRule(t *testing.T, s store.RuleStore, name string, priority int, keywords ...string) *models.RoutingRule {
	t.Helper()

	rule := &models.RoutingRule{
		Name:             name,
		Keywords:         keywords,
		Priority:         priority,
		ResponseTemplate: "Response for " + name,
		IsActive:         true,
	}
	if err := s.CreateRule(context.Background(), rule); err != nil {
		t.Fatalf("failed to create test rule: %v", err)
	}
	return rule
}

// CreateTestTweet creates a tweet with the given routing status and returns it.
func CreateTestTweet(t *testing.T, s store.TweetStore, tweetID, text, status string) *models.Tweet {
	t.Helper()

	tweet := &models.Tweet{
		TweetID:       tweetID,
		AuthorHandle:  "@tester",
		Text:          text,
		RoutingStatus: status,
	}
	if err := s.CreateTweet(context.Background(), tweet); err != nil {
		t.Fatalf("failed to create test tweet: %v", err)
	}
	return tweet
}
