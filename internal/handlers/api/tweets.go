package api

import (
	"encoding/json"
	"errors"

	"github.com/gofiber/fiber/v3"

	"tweetrouter/internal/models"
	"tweetrouter/internal/store"
	"tweetrouter/internal/validation"
)

// TweetHandler handles tweet ingestion and lookup via JSON API.
type TweetHandler struct {
	store store.Store
}

// NewTweetHandler creates a new tweet handler.
func NewTweetHandler(s store.Store) *TweetHandler {
	return &TweetHandler{store: s}
}

// Create ingests one tweet in pending state.
func (h *TweetHandler) Create(c fiber.Ctx) error {
	var in validation.TweetInput
	if err := json.Unmarshal(c.Body(), &in); err != nil {
		return jsonError(c, fiber.StatusBadRequest, "invalid request body")
	}
	if err := validation.ValidateTweetInput(&in); err != nil {
		return validationError(c, err)
	}

	tweet := &models.Tweet{
		TweetID:       in.TweetID,
		AuthorHandle:  in.AuthorHandle,
		Text:          in.Text,
		RoutingStatus: models.RoutingPending,
	}
	if err := h.store.CreateTweet(c.Context(), tweet); err != nil {
		if errors.Is(err, store.ErrDuplicateTweet) {
			return jsonError(c, fiber.StatusConflict, "a tweet with this tweet_id already exists")
		}
		return jsonError(c, fiber.StatusInternalServerError, "failed to create tweet")
	}
	return jsonCreated(c, tweet)
}

// List returns tweets newest first, optionally filtered by routing status.
func (h *TweetHandler) List(c fiber.Ctx) error {
	tweets, err := h.store.ListTweets(c.Context(), c.Query("status"), queryLimit(c))
	if err != nil {
		return jsonError(c, fiber.StatusInternalServerError, "failed to fetch tweets")
	}
	if tweets == nil {
		tweets = []models.Tweet{}
	}
	return jsonSuccess(c, tweets)
}

// Response returns the queued response for a tweet, looked up by the
// platform-level tweet id.
func (h *TweetHandler) Response(c fiber.Ctx) error {
	resp, err := h.store.GetResponseByOriginalTweet(c.Context(), c.Params("id"))
	if err != nil {
		if errors.Is(err, store.ErrResponseNotFound) {
			return jsonError(c, fiber.StatusNotFound, "response not found")
		}
		return jsonError(c, fiber.StatusInternalServerError, "failed to fetch response")
	}
	return jsonSuccess(c, resp)
}
