package models

import (
	"time"

	"github.com/google/uuid"
)

// Response status constants.
const (
	ResponsePending = "pending"
	ResponseSent    = "sent"
)

// TweetResponse is a queued reply produced by a routing match.
// ResponseText is a snapshot of the rule template at match time.
type TweetResponse struct {
	ID              uuid.UUID `json:"id"`
	OriginalTweetID string    `json:"original_tweet_id"`
	RoutingRuleID   uuid.UUID `json:"routing_rule_id"`
	ResponseText    string    `json:"response_text"`
	Status          string    `json:"status"`
	CreatedAt       time.Time `json:"created_at"`
}
