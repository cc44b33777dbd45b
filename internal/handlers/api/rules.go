package api

import (
	"encoding/json"
	"errors"

	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"

	"tweetrouter/internal/models"
	"tweetrouter/internal/seed"
	"tweetrouter/internal/store"
	"tweetrouter/internal/validation"
)

// RuleHandler handles routing rule administration via JSON API.
type RuleHandler struct {
	store     store.RuleStore
	seedRules []models.RoutingRule
}

// NewRuleHandler creates a new rule handler. seedRules is the starter set used
// by Seed; nil falls back to the built-in defaults.
func NewRuleHandler(s store.RuleStore, seedRules []models.RoutingRule) *RuleHandler {
	return &RuleHandler{store: s, seedRules: seedRules}
}

// List returns all routing rules.
func (h *RuleHandler) List(c fiber.Ctx) error {
	rules, err := h.store.ListRules(c.Context())
	if err != nil {
		return jsonError(c, fiber.StatusInternalServerError, "failed to fetch rules")
	}
	if rules == nil {
		rules = []models.RoutingRule{}
	}
	return jsonSuccess(c, rules)
}

// Get returns a single rule by ID.
func (h *RuleHandler) Get(c fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return jsonError(c, fiber.StatusBadRequest, "invalid rule id")
	}

	rule, err := h.store.GetRule(c.Context(), id)
	if err != nil {
		return h.ruleError(c, err, "failed to fetch rule")
	}
	return jsonSuccess(c, rule)
}

// Create validates and inserts a new rule.
func (h *RuleHandler) Create(c fiber.Ctx) error {
	var in validation.RuleInput
	if err := json.Unmarshal(c.Body(), &in); err != nil {
		return jsonError(c, fiber.StatusBadRequest, "invalid request body")
	}
	if err := validation.ValidateRuleInput(&in); err != nil {
		return validationError(c, err)
	}

	rule := in.ToRule()
	if err := h.store.CreateRule(c.Context(), rule); err != nil {
		return jsonError(c, fiber.StatusInternalServerError, "failed to create rule")
	}
	return jsonCreated(c, rule)
}

// Update applies a partial update. Only fields present in the body change.
func (h *RuleHandler) Update(c fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return jsonError(c, fiber.StatusBadRequest, "invalid rule id")
	}

	var upd models.RuleUpdate
	if err := json.Unmarshal(c.Body(), &upd); err != nil {
		return jsonError(c, fiber.StatusBadRequest, "invalid request body")
	}
	if upd.IsEmpty() {
		return jsonError(c, fiber.StatusBadRequest, "no fields to update")
	}
	if err := validation.ValidateRuleUpdate(&upd); err != nil {
		return validationError(c, err)
	}

	rule, err := h.store.UpdateRule(c.Context(), id, upd)
	if err != nil {
		return h.ruleError(c, err, "failed to update rule")
	}
	return jsonSuccess(c, rule)
}

// Delete removes a rule.
func (h *RuleHandler) Delete(c fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return jsonError(c, fiber.StatusBadRequest, "invalid rule id")
	}

	if err := h.store.DeleteRule(c.Context(), id); err != nil {
		return h.ruleError(c, err, "failed to delete rule")
	}
	return jsonSuccess(c, fiber.Map{"message": "rule deleted"})
}

// Toggle flips a rule's active flag.
func (h *RuleHandler) Toggle(c fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return jsonError(c, fiber.StatusBadRequest, "invalid rule id")
	}

	rule, err := h.store.ToggleRule(c.Context(), id)
	if err != nil {
		return h.ruleError(c, err, "failed to toggle rule")
	}
	return jsonSuccess(c, rule)
}

// Seed inserts the starter rules once. A repeat call is a soft failure.
func (h *RuleHandler) Seed(c fiber.Ctx) error {
	n, err := seed.New(h.store, h.seedRules).Run(c.Context())
	if errors.Is(err, store.ErrAlreadyInitialized) {
		return jsonSuccess(c, models.SeedResult{
			Success: false,
			Message: "Routing rules already initialized",
		})
	}
	if err != nil {
		return jsonError(c, fiber.StatusInternalServerError, "failed to seed rules")
	}
	return jsonSuccess(c, models.SeedResult{
		Success: true,
		Message: "Default routing rules created",
		Count:   n,
	})
}

func (h *RuleHandler) ruleError(c fiber.Ctx, err error, fallback string) error {
	if errors.Is(err, store.ErrRuleNotFound) {
		return jsonError(c, fiber.StatusNotFound, "rule not found")
	}
	return jsonError(c, fiber.StatusInternalServerError, fallback)
}

func validationError(c fiber.Ctx, err error) error {
	var verr *validation.ValidationError
	if errors.As(err, &verr) {
		return jsonError(c, fiber.StatusBadRequest, verr.Message)
	}
	return jsonError(c, fiber.StatusBadRequest, "invalid request body")
}
