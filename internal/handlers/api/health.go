package api

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v3"

	"tweetrouter/internal/store"
)

// HealthHandler reports service readiness.
type HealthHandler struct {
	store store.Store
}

// NewHealthHandler creates a new health handler.
func NewHealthHandler(s store.Store) *HealthHandler {
	return &HealthHandler{store: s}
}

// Check pings the store.
func (h *HealthHandler) Check(c fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.Context(), 2*time.Second)
	defer cancel()

	if err := h.store.Ping(ctx); err != nil {
		return jsonError(c, fiber.StatusServiceUnavailable, "store unavailable")
	}
	return jsonSuccess(c, fiber.Map{"store": "ok"})
}
