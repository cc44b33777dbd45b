package models

import "time"

// Route outcome constants reported per tweet by the batch router.
const (
	OutcomeAlreadyProcessed = "already_processed"
	OutcomeSkipped          = "skipped"
	OutcomeRouted           = "routed"
	OutcomeFailed           = "failed"
)

// RouteOutcome is a per-rule count of routing outcomes.
// RuleName is empty for outcomes that matched no rule.
type RouteOutcome struct {
	RuleName   string
	Outcome    string
	Count      int64
	LastSeenAt time.Time
}
