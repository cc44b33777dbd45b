package models

import (
	"time"

	"github.com/google/uuid"
)

// Priority bounds for routing rules. Priority only orders rules relative to
// each other; higher wins.
const (
	MinPriority = 1
	MaxPriority = 10
)

// RoutingRule maps a set of trigger keywords to a canned response.
type RoutingRule struct {
	ID               uuid.UUID `json:"id"`
	Name             string    `json:"name"`
	Keywords         []string  `json:"keywords"` // compared case-insensitively as substrings
	Priority         int       `json:"priority"`
	ResponseTemplate string    `json:"response_template"`
	IsActive         bool      `json:"is_active"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// RuleUpdate is a partial update of a RoutingRule. Nil fields are left unchanged.
type RuleUpdate struct {
	Name             *string   `json:"name,omitempty"`
	Keywords         *[]string `json:"keywords,omitempty"`
	Priority         *int      `json:"priority,omitempty"`
	ResponseTemplate *string   `json:"response_template,omitempty"`
	IsActive         *bool     `json:"is_active,omitempty"`
}

// IsEmpty reports whether the update carries no fields.
func (u RuleUpdate) IsEmpty() bool {
	return u.Name == nil && u.Keywords == nil && u.Priority == nil &&
		u.ResponseTemplate == nil && u.IsActive == nil
}

// Apply copies the supplied fields onto rule. It does not touch timestamps.
func (u RuleUpdate) Apply(rule *RoutingRule) {
	if u.Name != nil {
		rule.Name = *u.Name
	}
	if u.Keywords != nil {
		rule.Keywords = append([]string(nil), (*u.Keywords)...)
	}
	if u.Priority != nil {
		rule.Priority = *u.Priority
	}
	if u.ResponseTemplate != nil {
		rule.ResponseTemplate = *u.ResponseTemplate
	}
	if u.IsActive != nil {
		rule.IsActive = *u.IsActive
	}
}

// Clone returns a deep copy of the rule.
func (r RoutingRule) Clone() RoutingRule {
	r.Keywords = append([]string(nil), r.Keywords...)
	return r
}
