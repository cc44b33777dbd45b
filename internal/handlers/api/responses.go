package api

import (
	"github.com/gofiber/fiber/v3"

	"tweetrouter/internal/models"
	"tweetrouter/internal/store"
)

// ResponseHandler lists queued tweet responses.
type ResponseHandler struct {
	store store.ResponseStore
}

// NewResponseHandler creates a new response handler.
func NewResponseHandler(s store.ResponseStore) *ResponseHandler {
	return &ResponseHandler{store: s}
}

// List returns responses newest first, optionally filtered by status.
func (h *ResponseHandler) List(c fiber.Ctx) error {
	responses, err := h.store.ListResponses(c.Context(), c.Query("status"), queryLimit(c))
	if err != nil {
		return jsonError(c, fiber.StatusInternalServerError, "failed to fetch responses")
	}
	if responses == nil {
		responses = []models.TweetResponse{}
	}
	return jsonSuccess(c, responses)
}
