package store

import (
	"cmp"
	"context"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"

	"tweetrouter/internal/models"
)

type outcomeKey struct {
	ruleName string
	outcome  string
}

// Memory is an in-process Store. A single mutex serializes every call, and
// InTx holds it for the whole transaction, which satisfies the atomicity
// contract of InTx.
type Memory struct {
	mu  sync.Mutex
	now func() time.Time

	rules     map[uuid.UUID]*models.RoutingRule
	ruleOrder []uuid.UUID

	tweets     map[uuid.UUID]*models.Tweet
	tweetOrder []uuid.UUID
	tweetIDs   map[string]uuid.UUID

	responses []*models.TweetResponse
	outcomes  map[outcomeKey]*models.RouteOutcome
}

var _ Store = (*Memory)(nil)

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{
		now:      time.Now,
		rules:    make(map[uuid.UUID]*models.RoutingRule),
		tweets:   make(map[uuid.UUID]*models.Tweet),
		tweetIDs: make(map[string]uuid.UUID),
		outcomes: make(map[outcomeKey]*models.RouteOutcome),
	}
}

// Rule methods

func (m *Memory) ListRules(ctx context.Context) ([]models.RoutingRule, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	rules := make([]models.RoutingRule, 0, len(m.ruleOrder))
	for _, id := range m.ruleOrder {
		rules = append(rules, m.rules[id].Clone())
	}
	return rules, nil
}

func (m *Memory) ListActiveRules(ctx context.Context) ([]models.RoutingRule, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.listActiveRules(), nil
}

func (m *Memory) listActiveRules() []models.RoutingRule {
	active := lo.FilterMap(m.ruleOrder, func(id uuid.UUID, _ int) (models.RoutingRule, bool) {
		rule := m.rules[id]
		return rule.Clone(), rule.IsActive
	})
	slices.SortStableFunc(active, func(a, b models.RoutingRule) int {
		if c := cmp.Compare(b.Priority, a.Priority); c != 0 {
			return c
		}
		if c := cmp.Compare(a.Name, b.Name); c != 0 {
			return c
		}
		return cmp.Compare(a.ID.String(), b.ID.String())
	})
	return active
}

func (m *Memory) GetRule(ctx context.Context, id uuid.UUID) (*models.RoutingRule, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	rule, ok := m.rules[id]
	if !ok {
		return nil, ErrRuleNotFound
	}
	clone := rule.Clone()
	return &clone, nil
}

func (m *Memory) CreateRule(ctx context.Context, rule *models.RoutingRule) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.insertRule(rule)
	return nil
}

// CreateRules inserts all rules under one lock acquisition.
func (m *Memory) CreateRules(ctx context.Context, rules []*models.RoutingRule) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, rule := range rules {
		m.insertRule(rule)
	}
	return nil
}

func (m *Memory) insertRule(rule *models.RoutingRule) {
	now := m.now()
	rule.ID = uuid.New()
	rule.CreatedAt = now
	rule.UpdatedAt = now

	stored := rule.Clone()
	m.rules[rule.ID] = &stored
	m.ruleOrder = append(m.ruleOrder, rule.ID)
}

func (m *Memory) UpdateRule(ctx context.Context, id uuid.UUID, upd models.RuleUpdate) (*models.RoutingRule, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	rule, ok := m.rules[id]
	if !ok {
		return nil, ErrRuleNotFound
	}
	upd.Apply(rule)
	rule.UpdatedAt = m.now()

	clone := rule.Clone()
	return &clone, nil
}

func (m *Memory) ToggleRule(ctx context.Context, id uuid.UUID) (*models.RoutingRule, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	rule, ok := m.rules[id]
	if !ok {
		return nil, ErrRuleNotFound
	}
	rule.IsActive = !rule.IsActive
	rule.UpdatedAt = m.now()

	clone := rule.Clone()
	return &clone, nil
}

func (m *Memory) DeleteRule(ctx context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.rules[id]; !ok {
		return ErrRuleNotFound
	}
	delete(m.rules, id)
	m.ruleOrder = lo.Without(m.ruleOrder, id)
	return nil
}

func (m *Memory) CountRules(ctx context.Context) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.rules), nil
}

// Tweet methods

func (m *Memory) CreateTweet(ctx context.Context, tweet *models.Tweet) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.tweetIDs[tweet.TweetID]; exists {
		return ErrDuplicateTweet
	}
	if tweet.ID == uuid.Nil {
		tweet.ID = uuid.New()
	}
	if tweet.CreatedAt.IsZero() {
		tweet.CreatedAt = m.now()
	}

	stored := *tweet
	m.tweets[tweet.ID] = &stored
	m.tweetOrder = append(m.tweetOrder, tweet.ID)
	m.tweetIDs[tweet.TweetID] = tweet.ID
	return nil
}

func (m *Memory) GetTweet(ctx context.Context, id uuid.UUID) (*models.Tweet, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.getTweet(id)
}

func (m *Memory) getTweet(id uuid.UUID) (*models.Tweet, error) {
	tweet, ok := m.tweets[id]
	if !ok {
		return nil, ErrTweetNotFound
	}
	clone := *tweet
	return &clone, nil
}

func (m *Memory) UpdateTweet(ctx context.Context, id uuid.UUID, upd models.TweetUpdate) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	_, err := m.updateTweet(id, upd)
	return err
}

// updateTweet applies upd and returns the previous state for undo.
func (m *Memory) updateTweet(id uuid.UUID, upd models.TweetUpdate) (models.Tweet, error) {
	tweet, ok := m.tweets[id]
	if !ok {
		return models.Tweet{}, ErrTweetNotFound
	}
	prev := *tweet
	upd.Apply(tweet)
	return prev, nil
}

func (m *Memory) ListTweets(ctx context.Context, status string, limit int) ([]models.Tweet, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var tweets []models.Tweet
	for i := len(m.tweetOrder) - 1; i >= 0; i-- {
		tweet := m.tweets[m.tweetOrder[i]]
		if !matchesStatus(tweet, status) {
			continue
		}
		tweets = append(tweets, *tweet)
	}
	slices.SortStableFunc(tweets, func(a, b models.Tweet) int {
		return b.CreatedAt.Compare(a.CreatedAt)
	})
	return truncate(tweets, limit), nil
}

// Response methods

func (m *Memory) CreateResponse(ctx context.Context, resp *models.TweetResponse) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.insertResponse(resp)
	return nil
}

func (m *Memory) insertResponse(resp *models.TweetResponse) {
	resp.ID = uuid.New()
	resp.CreatedAt = m.now()
	if resp.Status == "" {
		resp.Status = models.ResponsePending
	}
	stored := *resp
	m.responses = append(m.responses, &stored)
}

func (m *Memory) GetResponseByOriginalTweet(ctx context.Context, tweetID string) (*models.TweetResponse, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	resp, ok := lo.Find(m.responses, func(r *models.TweetResponse) bool {
		return r.OriginalTweetID == tweetID
	})
	if !ok {
		return nil, ErrResponseNotFound
	}
	clone := *resp
	return &clone, nil
}

func (m *Memory) ListResponses(ctx context.Context, status string, limit int) ([]models.TweetResponse, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var responses []models.TweetResponse
	for i := len(m.responses) - 1; i >= 0; i-- {
		if status != "" && m.responses[i].Status != status {
			continue
		}
		responses = append(responses, *m.responses[i])
	}
	return truncate(responses, limit), nil
}

// Outcome methods

func (m *Memory) IncrementRouteOutcome(ctx context.Context, ruleName, outcome string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	key := outcomeKey{ruleName: ruleName, outcome: outcome}
	o, ok := m.outcomes[key]
	if !ok {
		o = &models.RouteOutcome{RuleName: ruleName, Outcome: outcome}
		m.outcomes[key] = o
	}
	o.Count++
	o.LastSeenAt = m.now()
	return nil
}

func (m *Memory) ListRouteOutcomes(ctx context.Context) ([]models.RouteOutcome, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	outcomes := lo.MapToSlice(m.outcomes, func(_ outcomeKey, o *models.RouteOutcome) models.RouteOutcome {
		return *o
	})
	return outcomes, nil
}

// Transactions

// InTx runs fn with the store lock held. Writes made through the Tx are
// undone in reverse order if fn returns an error.
func (m *Memory) InTx(ctx context.Context, fn func(tx Tx) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	tx := &memoryTx{m: m}
	if err := fn(tx); err != nil {
		for i := len(tx.undo) - 1; i >= 0; i-- {
			tx.undo[i]()
		}
		return err
	}
	return nil
}

func (m *Memory) Ping(ctx context.Context) error { return nil }

func (m *Memory) Close() {}

type memoryTx struct {
	m    *Memory
	undo []func()
}

func (tx *memoryTx) ListActiveRules(ctx context.Context) ([]models.RoutingRule, error) {
	return tx.m.listActiveRules(), nil
}

func (tx *memoryTx) GetTweetForUpdate(ctx context.Context, id uuid.UUID) (*models.Tweet, error) {
	return tx.m.getTweet(id)
}

func (tx *memoryTx) UpdateTweet(ctx context.Context, id uuid.UUID, upd models.TweetUpdate) error {
	prev, err := tx.m.updateTweet(id, upd)
	if err != nil {
		return err
	}
	tx.undo = append(tx.undo, func() {
		*tx.m.tweets[id] = prev
	})
	return nil
}

func (tx *memoryTx) CreateResponse(ctx context.Context, resp *models.TweetResponse) error {
	tx.m.insertResponse(resp)
	n := len(tx.m.responses)
	tx.undo = append(tx.undo, func() {
		tx.m.responses = tx.m.responses[:n-1]
	})
	return nil
}

// matchesStatus reports whether tweet passes the ListTweets status filter.
// The pending filter also selects tweets whose status was never set.
func matchesStatus(tweet *models.Tweet, status string) bool {
	switch status {
	case "":
		return true
	case models.RoutingPending:
		return tweet.IsRoutable()
	default:
		return tweet.RoutingStatus == status
	}
}

func truncate[T any](items []T, limit int) []T {
	if limit > 0 && len(items) > limit {
		return items[:limit]
	}
	return items
}
