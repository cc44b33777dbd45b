package models

import (
	"time"

	"github.com/google/uuid"
)

// Routing status constants. Upstream processing may set other terminal values.
const (
	RoutingPending = "pending"
	RoutingRouted  = "routed"
	RoutingSkipped = "skipped"
)

// Tweet is an ingested social-media message awaiting or past routing.
type Tweet struct {
	ID            uuid.UUID  `json:"id"`
	TweetID       string     `json:"tweet_id"` // platform-level id
	AuthorHandle  string     `json:"author_handle"`
	Text          string     `json:"text"`
	RoutingStatus string     `json:"routing_status"` // empty when never set
	MatchedRuleID *uuid.UUID `json:"matched_rule_id"`
	CreatedAt     time.Time  `json:"created_at"`
}

// IsRoutable reports whether the tweet has not been finalized yet.
func (t *Tweet) IsRoutable() bool {
	return t.RoutingStatus == "" || t.RoutingStatus == RoutingPending
}

// TweetUpdate is a partial update of a Tweet's routing fields.
type TweetUpdate struct {
	RoutingStatus *string
	MatchedRuleID *uuid.UUID
}

// Apply copies the supplied fields onto tweet.
func (u TweetUpdate) Apply(tweet *Tweet) {
	if u.RoutingStatus != nil {
		tweet.RoutingStatus = *u.RoutingStatus
	}
	if u.MatchedRuleID != nil {
		id := *u.MatchedRuleID
		tweet.MatchedRuleID = &id
	}
}
