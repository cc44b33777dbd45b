package api

import (
	"encoding/json"

	"github.com/gofiber/fiber/v3"

	"tweetrouter/internal/models"
	"tweetrouter/internal/router"
)

// maxBatchSize caps the number of tweet ids accepted per routing call.
const maxBatchSize = 500

// RouteHandler exposes the batch router.
type RouteHandler struct {
	router *router.Router
}

// NewRouteHandler creates a new route handler.
func NewRouteHandler(r *router.Router) *RouteHandler {
	return &RouteHandler{router: r}
}

// Route routes a batch of tweet ids and returns one result per id, in order.
// Per-tweet failures are reported inside the results, not as an HTTP error.
func (h *RouteHandler) Route(c fiber.Ctx) error {
	var body models.RouteRequest
	if err := json.Unmarshal(c.Body(), &body); err != nil {
		return jsonError(c, fiber.StatusBadRequest, "invalid request body")
	}
	if len(body.TweetIDs) > maxBatchSize {
		return jsonError(c, fiber.StatusBadRequest, "too many tweet ids in one batch")
	}

	return jsonSuccess(c, h.router.Route(c.Context(), body.TweetIDs))
}
