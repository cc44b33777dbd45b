package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v3"
	"github.com/stretchr/testify/require"

	"tweetrouter/internal/models"
	"tweetrouter/internal/router"
	"tweetrouter/internal/store"
)

type envelope struct {
	Status string          `json:"status"`
	Data   json.RawMessage `json:"data"`
	Error  string          `json:"error"`
}

func newTestApp(t *testing.T) (*fiber.App, *store.Memory) {
	t.Helper()
	mem := store.NewMemory()
	app := fiber.New()

	rules := NewRuleHandler(mem, nil)
	tweets := NewTweetHandler(mem)
	responses := NewResponseHandler(mem)
	route := NewRouteHandler(router.New(mem, nil))
	health := NewHealthHandler(mem)

	app.Get("/healthz", health.Check)
	app.Get("/api/rules", rules.List)
	app.Post("/api/rules", rules.Create)
	app.Post("/api/rules/seed", rules.Seed)
	app.Get("/api/rules/:id", rules.Get)
	app.Patch("/api/rules/:id", rules.Update)
	app.Delete("/api/rules/:id", rules.Delete)
	app.Post("/api/rules/:id/toggle", rules.Toggle)
	app.Post("/api/tweets", tweets.Create)
	app.Get("/api/tweets", tweets.List)
	app.Get("/api/tweets/:id/response", tweets.Response)
	app.Post("/api/route", route.Route)
	app.Get("/api/responses", responses.List)

	return app, mem
}

func doJSON(t *testing.T, app *fiber.App, method, path string, body any) (int, envelope) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var env envelope
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&env))
	return resp.StatusCode, env
}

func decode[T any](t *testing.T, raw json.RawMessage) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(raw, &v))
	return v
}

func TestRules_CRUD(t *testing.T) {
	req := require.New(t)
	app, _ := newTestApp(t)

	status, env := doJSON(t, app, http.MethodPost, "/api/rules", map[string]any{
		"name":              "Refunds",
		"keywords":          []string{" refund ", "money back"},
		"priority":          5,
		"response_template": "DM us your booking reference.",
	})
	req.Equal(http.StatusCreated, status)
	created := decode[models.RoutingRule](t, env.Data)
	req.Equal([]string{"refund", "money back"}, created.Keywords)
	req.True(created.IsActive)

	status, env = doJSON(t, app, http.MethodGet, "/api/rules/"+created.ID.String(), nil)
	req.Equal(http.StatusOK, status)
	req.Equal("Refunds", decode[models.RoutingRule](t, env.Data).Name)

	status, env = doJSON(t, app, http.MethodPatch, "/api/rules/"+created.ID.String(), map[string]any{
		"priority": 9,
	})
	req.Equal(http.StatusOK, status)
	updated := decode[models.RoutingRule](t, env.Data)
	req.Equal(9, updated.Priority)
	req.Equal("Refunds", updated.Name, "unsupplied fields must not change")
	req.Equal(created.Keywords, updated.Keywords)

	status, env = doJSON(t, app, http.MethodPost, "/api/rules/"+created.ID.String()+"/toggle", nil)
	req.Equal(http.StatusOK, status)
	req.False(decode[models.RoutingRule](t, env.Data).IsActive)

	status, _ = doJSON(t, app, http.MethodDelete, "/api/rules/"+created.ID.String(), nil)
	req.Equal(http.StatusOK, status)

	status, env = doJSON(t, app, http.MethodGet, "/api/rules/"+created.ID.String(), nil)
	req.Equal(http.StatusNotFound, status)
	req.Equal("error", env.Status)

	status, env = doJSON(t, app, http.MethodGet, "/api/rules", nil)
	req.Equal(http.StatusOK, status)
	req.Empty(decode[[]models.RoutingRule](t, env.Data))
}

func TestRules_Validation(t *testing.T) {
	app, _ := newTestApp(t)

	tests := []struct {
		name    string
		method  string
		path    string
		body    any
		status  int
		message string
	}{
		{
			name:    "priority out of range",
			method:  http.MethodPost,
			path:    "/api/rules",
			body:    map[string]any{"name": "X", "keywords": []string{"x"}, "priority": 11, "response_template": "t"},
			status:  http.StatusBadRequest,
			message: "priority must be between 1 and 10",
		},
		{
			name:    "empty keyword list",
			method:  http.MethodPost,
			path:    "/api/rules",
			body:    map[string]any{"name": "X", "keywords": []string{}, "priority": 1, "response_template": "t"},
			status:  http.StatusBadRequest,
			message: "keywords must contain at least one entry",
		},
		{
			name:    "blank keyword",
			method:  http.MethodPost,
			path:    "/api/rules",
			body:    map[string]any{"name": "X", "keywords": []string{"x", "  "}, "priority": 1, "response_template": "t"},
			status:  http.StatusBadRequest,
			message: "keywords[1] must not be empty",
		},
		{
			name:    "invalid id",
			method:  http.MethodGet,
			path:    "/api/rules/not-a-uuid",
			status:  http.StatusBadRequest,
			message: "invalid rule id",
		},
		{
			name:    "empty patch",
			method:  http.MethodPatch,
			path:    "/api/rules/6f1c6f9e-8d4c-4a8e-9a53-1f0c3f1c2a10",
			body:    map[string]any{},
			status:  http.StatusBadRequest,
			message: "no fields to update",
		},
		{
			name:    "patch missing rule",
			method:  http.MethodPatch,
			path:    "/api/rules/6f1c6f9e-8d4c-4a8e-9a53-1f0c3f1c2a10",
			body:    map[string]any{"priority": 3},
			status:  http.StatusNotFound,
			message: "rule not found",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, env := doJSON(t, app, tt.method, tt.path, tt.body)
			require.Equal(t, tt.status, status)
			require.Equal(t, "error", env.Status)
			require.Equal(t, tt.message, env.Error)
		})
	}
}

func TestRules_SeedTwice(t *testing.T) {
	req := require.New(t)
	app, mem := newTestApp(t)

	status, env := doJSON(t, app, http.MethodPost, "/api/rules/seed", nil)
	req.Equal(http.StatusOK, status)
	first := decode[models.SeedResult](t, env.Data)
	req.True(first.Success)
	req.Equal(3, first.Count)

	status, env = doJSON(t, app, http.MethodPost, "/api/rules/seed", nil)
	req.Equal(http.StatusOK, status)
	second := decode[models.SeedResult](t, env.Data)
	req.False(second.Success)
	req.Equal("Routing rules already initialized", second.Message)

	count, err := mem.CountRules(context.Background())
	req.NoError(err)
	req.Equal(3, count)
}

func TestRoute_EndToEnd(t *testing.T) {
	req := require.New(t)
	app, _ := newTestApp(t)

	status, _ := doJSON(t, app, http.MethodPost, "/api/rules", map[string]any{
		"name": "Medical", "keywords": []string{"sick"}, "priority": 10, "response_template": "Help is coming.",
	})
	req.Equal(http.StatusCreated, status)
	status, _ = doJSON(t, app, http.MethodPost, "/api/rules", map[string]any{
		"name": "Baggage", "keywords": []string{"lost bag"}, "priority": 8, "response_template": "File a report.",
	})
	req.Equal(http.StatusCreated, status)

	_, env := doJSON(t, app, http.MethodPost, "/api/tweets", map[string]any{
		"tweet_id": "100", "author_handle": "@amy", "text": "lovely flight",
	})
	quiet := decode[models.Tweet](t, env.Data)
	req.Equal(models.RoutingPending, quiet.RoutingStatus)

	_, env = doJSON(t, app, http.MethodPost, "/api/tweets", map[string]any{
		"tweet_id": "101", "author_handle": "@bo", "text": "my lost bag is gone and I feel SICK",
	})
	urgent := decode[models.Tweet](t, env.Data)

	status, env = doJSON(t, app, http.MethodPost, "/api/tweets", map[string]any{
		"tweet_id": "101", "text": "dupe",
	})
	req.Equal(http.StatusConflict, status)

	missing := "6f1c6f9e-8d4c-4a8e-9a53-1f0c3f1c2a10"
	status, env = doJSON(t, app, http.MethodPost, "/api/route", models.RouteRequest{
		TweetIDs: []string{missing, quiet.ID.String(), urgent.ID.String()},
	})
	req.Equal(http.StatusOK, status)
	results := decode[[]models.RouteResult](t, env.Data)
	req.Equal([]models.RouteResult{
		{TweetID: missing, Success: false, Error: "Tweet not found"},
		{TweetID: quiet.ID.String(), Success: true, Status: models.OutcomeSkipped},
		{TweetID: urgent.ID.String(), Success: true, Status: models.OutcomeRouted, MatchedRule: "Medical"},
	}, results)

	status, env = doJSON(t, app, http.MethodGet, "/api/tweets/101/response", nil)
	req.Equal(http.StatusOK, status)
	resp := decode[models.TweetResponse](t, env.Data)
	req.Equal("Help is coming.", resp.ResponseText)
	req.Equal(models.ResponsePending, resp.Status)

	status, _ = doJSON(t, app, http.MethodGet, "/api/tweets/100/response", nil)
	req.Equal(http.StatusNotFound, status)

	_, env = doJSON(t, app, http.MethodGet, "/api/tweets?status=routed", nil)
	routed := decode[[]models.Tweet](t, env.Data)
	req.Len(routed, 1)
	req.Equal("101", routed[0].TweetID)

	_, env = doJSON(t, app, http.MethodGet, "/api/responses?status=pending", nil)
	req.Len(decode[[]models.TweetResponse](t, env.Data), 1)

	// second pass is idempotent
	_, env = doJSON(t, app, http.MethodPost, "/api/route", models.RouteRequest{
		TweetIDs: []string{urgent.ID.String()},
	})
	again := decode[[]models.RouteResult](t, env.Data)
	req.Equal(models.OutcomeAlreadyProcessed, again[0].Status)

	_, env = doJSON(t, app, http.MethodGet, "/api/responses", nil)
	req.Len(decode[[]models.TweetResponse](t, env.Data), 1)
}

func TestRoute_BadBody(t *testing.T) {
	app, _ := newTestApp(t)

	req := httptest.NewRequest(http.MethodPost, "/api/route", bytes.NewReader([]byte("{")))
	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestHealth(t *testing.T) {
	app, _ := newTestApp(t)

	status, env := doJSON(t, app, http.MethodGet, "/healthz", nil)
	require.Equal(t, http.StatusOK, status)
	require.Equal(t, "ok", env.Status)
}
