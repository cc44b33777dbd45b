package router

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"tweetrouter/internal/models"
	"tweetrouter/internal/store"
	"tweetrouter/internal/testutil"
)

func seedRules(t *testing.T, s store.Store) (medical, baggage *models.RoutingRule) {
	t.Helper()
	medical = &models.RoutingRule{
		Name:             "Medical",
		Keywords:         []string{"sick"},
		Priority:         10,
		ResponseTemplate: "We're sorry you're unwell. Please contact crew.",
		IsActive:         true,
	}
	baggage = &models.RoutingRule{
		Name:             "Baggage",
		Keywords:         []string{"lost bag"},
		Priority:         8,
		ResponseTemplate: "Please file a baggage report.",
		IsActive:         true,
	}
	require.NoError(t, s.CreateRules(context.Background(), []*models.RoutingRule{medical, baggage}))
	return medical, baggage
}

func addTweet(t *testing.T, s store.Store, tweetID, text, status string) *models.Tweet {
	t.Helper()
	return testutil.CreateTestTweet(t, s, tweetID, text, status)
}

func TestRoute_MixedBatch(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	mem := store.NewMemory()
	medical, _ := seedRules(t, mem)

	missing := uuid.New().String()
	noMatch := addTweet(t, mem, "t2", "lovely flight, thanks!", models.RoutingPending)
	match := addTweet(t, mem, "t3", "my bag is lost and I feel sick", models.RoutingPending)

	results := New(mem, nil).Route(ctx, []string{missing, noMatch.ID.String(), match.ID.String()})
	req.Len(results, 3)

	req.Equal(models.RouteResult{TweetID: missing, Success: false, Error: "Tweet not found"}, results[0])
	req.Equal(models.RouteResult{TweetID: noMatch.ID.String(), Success: true, Status: models.OutcomeSkipped}, results[1])
	req.Equal(models.RouteResult{
		TweetID:     match.ID.String(),
		Success:     true,
		Status:      models.OutcomeRouted,
		MatchedRule: "Medical",
	}, results[2])

	skipped, err := mem.GetTweet(ctx, noMatch.ID)
	req.NoError(err)
	req.Equal(models.RoutingSkipped, skipped.RoutingStatus)
	req.Nil(skipped.MatchedRuleID)

	routed, err := mem.GetTweet(ctx, match.ID)
	req.NoError(err)
	req.Equal(models.RoutingRouted, routed.RoutingStatus)
	req.NotNil(routed.MatchedRuleID)
	req.Equal(medical.ID, *routed.MatchedRuleID)

	resp, err := mem.GetResponseByOriginalTweet(ctx, "t3")
	req.NoError(err)
	req.Equal(medical.ID, resp.RoutingRuleID)
	req.Equal(medical.ResponseTemplate, resp.ResponseText)
	req.Equal(models.ResponsePending, resp.Status)
}

func TestRoute_UnparseableIDIsNotFound(t *testing.T) {
	results := New(store.NewMemory(), nil).Route(context.Background(), []string{"not-a-uuid"})
	require.Len(t, results, 1)
	require.False(t, results[0].Success)
	require.Equal(t, ErrMsgTweetNotFound, results[0].Error)
}

func TestRoute_EmptyBatch(t *testing.T) {
	results := New(store.NewMemory(), nil).Route(context.Background(), nil)
	require.Empty(t, results)
}

func TestRoute_Idempotent(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	mem := store.NewMemory()
	seedRules(t, mem)
	tweet := addTweet(t, mem, "idem", "feeling sick", models.RoutingPending)

	r := New(mem, nil)
	first := r.Route(ctx, []string{tweet.ID.String()})
	req.Equal(models.OutcomeRouted, first[0].Status)

	second := r.Route(ctx, []string{tweet.ID.String()})
	req.True(second[0].Success)
	req.Equal(models.OutcomeAlreadyProcessed, second[0].Status)
	req.Empty(second[0].MatchedRule)

	responses, err := mem.ListResponses(ctx, "", 0)
	req.NoError(err)
	req.Len(responses, 1)
}

func TestRoute_SameIDTwiceInOneBatch(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	mem := store.NewMemory()
	seedRules(t, mem)
	tweet := addTweet(t, mem, "twice", "sick", "")

	results := New(mem, nil).Route(ctx, []string{tweet.ID.String(), tweet.ID.String()})
	req.Len(results, 2)
	req.Equal(models.OutcomeRouted, results[0].Status)
	req.Equal(models.OutcomeAlreadyProcessed, results[1].Status)
}

func TestRoute_TerminalStatusesNeverMutated(t *testing.T) {
	ctx := context.Background()
	mem := store.NewMemory()
	seedRules(t, mem)

	for _, status := range []string{models.RoutingRouted, models.RoutingSkipped, "escalated", "spam"} {
		t.Run(status, func(t *testing.T) {
			req := require.New(t)
			tweet := addTweet(t, mem, "terminal-"+status, "I am sick", status)

			results := New(mem, nil).Route(ctx, []string{tweet.ID.String()})
			req.True(results[0].Success)
			req.Equal(models.OutcomeAlreadyProcessed, results[0].Status)

			got, err := mem.GetTweet(ctx, tweet.ID)
			req.NoError(err)
			req.Equal(*tweet, *got)

			_, err = mem.GetResponseByOriginalTweet(ctx, tweet.TweetID)
			req.ErrorIs(err, store.ErrResponseNotFound)
		})
	}
}

func TestRoute_InactiveRulesIgnored(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	mem := store.NewMemory()
	medical, _ := seedRules(t, mem)

	inactive := false
	_, err := mem.UpdateRule(ctx, medical.ID, models.RuleUpdate{IsActive: &inactive})
	req.NoError(err)

	tweet := addTweet(t, mem, "inactive", "so sick", models.RoutingPending)
	results := New(mem, nil).Route(ctx, []string{tweet.ID.String()})
	req.Equal(models.OutcomeSkipped, results[0].Status)
}

func TestRoute_ResponseTextIsSnapshot(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	mem := store.NewMemory()
	medical, _ := seedRules(t, mem)

	tweet := addTweet(t, mem, "snap", "sick", models.RoutingPending)
	New(mem, nil).Route(ctx, []string{tweet.ID.String()})

	changed := "new template"
	_, err := mem.UpdateRule(ctx, medical.ID, models.RuleUpdate{ResponseTemplate: &changed})
	req.NoError(err)
	req.NoError(mem.DeleteRule(ctx, medical.ID))

	resp, err := mem.GetResponseByOriginalTweet(ctx, "snap")
	req.NoError(err)
	req.Equal(medical.ResponseTemplate, resp.ResponseText)
	req.Equal(medical.ID, resp.RoutingRuleID)
}

// failingStore fails tweet updates for one tweet after the response insert,
// so the transaction must roll the response back.
type failingStore struct {
	*store.Memory
	failID uuid.UUID
}

func (f *failingStore) InTx(ctx context.Context, fn func(tx store.Tx) error) error {
	return f.Memory.InTx(ctx, func(tx store.Tx) error {
		return fn(&failingTx{Tx: tx, failID: f.failID})
	})
}

type failingTx struct {
	store.Tx
	failID uuid.UUID
}

func (t *failingTx) UpdateTweet(ctx context.Context, id uuid.UUID, upd models.TweetUpdate) error {
	if id == t.failID {
		return errors.New("connection reset by peer")
	}
	return t.Tx.UpdateTweet(ctx, id, upd)
}

func TestRoute_StoreFailureIsPerItem(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	mem := store.NewMemory()
	seedRules(t, mem)

	bad := addTweet(t, mem, "bad", "sick", models.RoutingPending)
	good := addTweet(t, mem, "good", "sick", models.RoutingPending)

	fs := &failingStore{Memory: mem, failID: bad.ID}
	results := New(fs, nil).Route(ctx, []string{bad.ID.String(), good.ID.String()})
	req.Len(results, 2)

	req.False(results[0].Success)
	req.Contains(results[0].Error, "connection reset by peer")
	req.True(results[1].Success)
	req.Equal(models.OutcomeRouted, results[1].Status)

	// the failed tweet's response insert was rolled back
	_, err := mem.GetResponseByOriginalTweet(ctx, "bad")
	req.ErrorIs(err, store.ErrResponseNotFound)
	got, err := mem.GetTweet(ctx, bad.ID)
	req.NoError(err)
	req.Equal(models.RoutingPending, got.RoutingStatus)
}

// TestRoute_ConcurrentBatchesSameTweet relies on the store's per-call
// transaction: at most one concurrent call may route the tweet.
func TestRoute_ConcurrentBatchesSameTweet(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	mem := store.NewMemory()
	seedRules(t, mem)
	tweet := addTweet(t, mem, "race", "sick", models.RoutingPending)

	r := New(mem, nil)
	const callers = 8

	var wg sync.WaitGroup
	results := make([][]models.RouteResult, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = r.Route(ctx, []string{tweet.ID.String()})
		}(i)
	}
	wg.Wait()

	routed := 0
	for _, res := range results {
		req.Len(res, 1)
		req.True(res[0].Success)
		if res[0].Status == models.OutcomeRouted {
			routed++
		} else {
			req.Equal(models.OutcomeAlreadyProcessed, res[0].Status)
		}
	}
	req.Equal(1, routed)

	responses, err := mem.ListResponses(ctx, "", 0)
	req.NoError(err)
	req.Len(responses, 1)
}

func TestRoutePending(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	mem := store.NewMemory()
	seedRules(t, mem)

	addTweet(t, mem, "p1", "sick", models.RoutingPending)
	addTweet(t, mem, "p2", "all good", models.RoutingPending)
	addTweet(t, mem, "done", "sick", models.RoutingSkipped)
	unset := addTweet(t, mem, "unset", "I feel sick", "")

	r := New(mem, nil)
	results, err := r.RoutePending(ctx, 10)
	req.NoError(err)
	req.Len(results, 3)

	got, err := mem.GetTweet(ctx, unset.ID)
	req.NoError(err)
	req.Equal(models.RoutingRouted, got.RoutingStatus)

	pending, err := mem.ListTweets(ctx, models.RoutingPending, 0)
	req.NoError(err)
	req.Empty(pending)

	again, err := r.RoutePending(ctx, 10)
	req.NoError(err)
	req.Empty(again)
}
