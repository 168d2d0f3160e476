package server

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// RegisterRoutes registers the query API with the router group.
//
// Endpoints:
//
//	POST /v1/evaluate - Evaluate a rule against a position
//	GET  /v1/games - List the games in the book
//	GET  /v1/games/:name - Get a game's start position and rule
//	POST /v1/games/:name/moves - Successors of a position in a game
func RegisterRoutes(rg *gin.RouterGroup, h *Handlers) {
	rg.POST("/evaluate", h.HandleEvaluate)
	rg.GET("/games", h.HandleListGames)
	rg.GET("/games/:name", h.HandleGame)
	rg.POST("/games/:name/moves", h.HandleGameMoves)
}

// NewRouter builds the full router: the API under /v1, /healthz and the
// Prometheus scrape endpoint at /metrics. A nil gatherer means the
// default registry.
func NewRouter(h *Handlers, gatherer prometheus.Gatherer, debug bool) *gin.Engine {
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	router := gin.New()
	router.Use(gin.Recovery())
	if debug {
		router.Use(gin.Logger())
	}

	router.GET("/healthz", h.HandleHealth)
	router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))
	RegisterRoutes(router.Group("/v1"), h)
	return router
}
