package models

// RouteResult is the per-tweet result of a batch routing call.
type RouteResult struct {
	TweetID     string `json:"tweet_id"`
	Success     bool   `json:"success"`
	Status      string `json:"status,omitempty"`
	Error       string `json:"error,omitempty"`
	MatchedRule string `json:"matched_rule,omitempty"`
}

// RouteRequest is the body accepted by the batch routing entry points.
type RouteRequest struct {
	TweetIDs []string `json:"tweet_ids"`
}

// SeedResult reports the outcome of a default-rule seeding attempt.
type SeedResult struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Count   int    `json:"count,omitempty"`
}
