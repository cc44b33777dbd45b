// Package validation checks admin input at the API boundary.
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"tweetrouter/internal/models"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return fld.Name
		}
		return name
	})
	return v
}

// Field rules shared by create and update.
const (
	nameRules     = "required,max=200"
	keywordsRules = "required,min=1,max=50,dive,required,max=100"
	priorityRules = "min=1,max=10"
	templateRules = "required,max=1000"
)

// ValidationError describes the first invalid field of an input.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// RuleInput is the body accepted when creating a routing rule.
type RuleInput struct {
	Name             string   `json:"name" validate:"required,max=200"`
	Keywords         []string `json:"keywords" validate:"required,min=1,max=50,dive,required,max=100"`
	Priority         int      `json:"priority" validate:"min=1,max=10"`
	ResponseTemplate string   `json:"response_template" validate:"required,max=1000"`
	IsActive         *bool    `json:"is_active"`
}

// TweetInput is the body accepted when ingesting a tweet.
type TweetInput struct {
	TweetID      string `json:"tweet_id" validate:"required,max=64"`
	AuthorHandle string `json:"author_handle" validate:"max=50"`
	Text         string `json:"text" validate:"max=4000"`
}

// NormalizeKeywords trims surrounding whitespace from each keyword, keeping order.
// Case is preserved; matching lowercases both sides.
func NormalizeKeywords(keywords []string) []string {
	if keywords == nil {
		return nil
	}
	out := make([]string, len(keywords))
	for i, k := range keywords {
		out[i] = strings.TrimSpace(k)
	}
	return out
}

// ValidateRuleInput normalizes and validates a create request.
func ValidateRuleInput(in *RuleInput) error {
	in.Name = strings.TrimSpace(in.Name)
	in.Keywords = NormalizeKeywords(in.Keywords)
	return translate(validate.Struct(in))
}

// ToRule builds a RoutingRule from a validated input. New rules are active
// unless is_active is explicitly false.
func (in *RuleInput) ToRule() *models.RoutingRule {
	active := true
	if in.IsActive != nil {
		active = *in.IsActive
	}
	return &models.RoutingRule{
		Name:             in.Name,
		Keywords:         in.Keywords,
		Priority:         in.Priority,
		ResponseTemplate: in.ResponseTemplate,
		IsActive:         active,
	}
}

// ValidateRuleUpdate normalizes and validates only the fields present in upd.
func ValidateRuleUpdate(upd *models.RuleUpdate) error {
	if upd.Name != nil {
		name := strings.TrimSpace(*upd.Name)
		upd.Name = &name
		if err := checkVar("name", name, nameRules); err != nil {
			return err
		}
	}
	if upd.Keywords != nil {
		keywords := NormalizeKeywords(*upd.Keywords)
		upd.Keywords = &keywords
		if err := checkVar("keywords", keywords, keywordsRules); err != nil {
			return err
		}
	}
	if upd.Priority != nil {
		if err := checkVar("priority", *upd.Priority, priorityRules); err != nil {
			return err
		}
	}
	if upd.ResponseTemplate != nil {
		if err := checkVar("response_template", *upd.ResponseTemplate, templateRules); err != nil {
			return err
		}
	}
	return nil
}

// ValidateTweetInput validates an ingestion request.
func ValidateTweetInput(in *TweetInput) error {
	in.TweetID = strings.TrimSpace(in.TweetID)
	return translate(validate.Struct(in))
}

func checkVar(field string, value any, rules string) error {
	err := validate.Var(value, rules)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		fe := verrs[0]
		name := field
		// dive errors carry the element index in Field(), e.g. "[2]"
		if strings.HasPrefix(fe.Field(), "[") {
			name = field + fe.Field()
		}
		return &ValidationError{Field: field, Message: message(name, fe)}
	}
	return err
}

func translate(err error) error {
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return err
	}
	fe := verrs[0]
	field := fe.Field()
	root := strings.SplitN(field, "[", 2)[0]
	return &ValidationError{Field: root, Message: message(field, fe)}
}

func message(field string, fe validator.FieldError) string {
	if strings.HasPrefix(field, "priority") && (fe.Tag() == "min" || fe.Tag() == "max") {
		return fmt.Sprintf("priority must be between %d and %d", models.MinPriority, models.MaxPriority)
	}

	isList := fe.Kind() == reflect.Slice
	switch fe.Tag() {
	case "required":
		if strings.Contains(field, "[") {
			return field + " must not be empty"
		}
		if isList {
			return field + " must contain at least one entry"
		}
		return field + " is required"
	case "min":
		if isList && fe.Param() == "1" {
			return field + " must contain at least one entry"
		}
		if isList {
			return fmt.Sprintf("%s must contain at least %s entries", field, fe.Param())
		}
		return fmt.Sprintf("%s must be at least %s", field, fe.Param())
	case "max":
		if isList {
			return fmt.Sprintf("%s must contain at most %s entries", field, fe.Param())
		}
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("%s must be at most %s characters", field, fe.Param())
		}
		return fmt.Sprintf("%s must be at most %s", field, fe.Param())
	default:
		return field + " is invalid"
	}
}
