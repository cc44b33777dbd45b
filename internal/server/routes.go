package server

import (
	"github.com/gofiber/fiber/v3/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"tweetrouter/internal/handlers/api"
	"tweetrouter/internal/middleware"
	"tweetrouter/internal/models"
	"tweetrouter/internal/router"
	"tweetrouter/internal/store"
)

// Deps are the collaborators the HTTP routes are built from.
type Deps struct {
	Store     store.Store
	Router    *router.Router
	Auth      *middleware.AdminAuth
	SeedRules []models.RoutingRule
}

// RegisterRoutes registers all application routes.
func (s *Server) RegisterRoutes(deps Deps) {
	ruleHandler := api.NewRuleHandler(deps.Store, deps.SeedRules)
	tweetHandler := api.NewTweetHandler(deps.Store)
	responseHandler := api.NewResponseHandler(deps.Store)
	routeHandler := api.NewRouteHandler(deps.Router)
	healthHandler := api.NewHealthHandler(deps.Store)

	// Operational endpoints are unauthenticated
	s.App.Get("/healthz", healthHandler.Check)
	s.App.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	apiGroup := s.App.Group("/api", deps.Auth.Require)

	// Rule administration
	apiGroup.Get("/rules", ruleHandler.List)
	apiGroup.Post("/rules", ruleHandler.Create)
	apiGroup.Post("/rules/seed", ruleHandler.Seed)
	apiGroup.Get("/rules/:id", ruleHandler.Get)
	apiGroup.Patch("/rules/:id", ruleHandler.Update)
	apiGroup.Delete("/rules/:id", ruleHandler.Delete)
	apiGroup.Post("/rules/:id/toggle", ruleHandler.Toggle)

	// Tweets and routing
	apiGroup.Post("/tweets", tweetHandler.Create)
	apiGroup.Get("/tweets", tweetHandler.List)
	apiGroup.Get("/tweets/:id/response", tweetHandler.Response)
	apiGroup.Post("/route", routeHandler.Route)
	apiGroup.Get("/responses", responseHandler.List)
}
