package server

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// RegisterRoutes registers all mednerd routes with the router group.
//
//	GET  /                  - Service banner
//	POST /analyze-symptoms  - Resolve a free-text symptom query (?symptoms=)
//	POST /analyze-report    - Resolve an uploaded report (multipart "file")
//	POST /analyze-image     - Resolve an uploaded image by filename (multipart "file")
//	GET  /knowledge         - List known condition names
//	GET  /health            - Health check
//	GET  /metrics           - Prometheus metrics
func RegisterRoutes(rg *gin.RouterGroup, handlers *Handlers) {
	rg.GET("/", handlers.HandleRoot)

	rg.POST("/analyze-symptoms", handlers.HandleAnalyzeSymptoms)
	rg.POST("/analyze-report", handlers.HandleAnalyzeReport)
	rg.POST("/analyze-image", handlers.HandleAnalyzeImage)

	rg.GET("/knowledge", handlers.HandleKnowledge)
	rg.GET("/health", handlers.HandleHealth)
	rg.GET("/metrics", gin.WrapH(promhttp.Handler()))
}

// NewRouter builds the gin engine with recovery, request IDs and CORS applied.
func NewRouter(handlers *Handlers, debug bool) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(RequestIDMiddleware())
	router.Use(CORSMiddleware())
	if debug {
		router.Use(gin.Logger())
	}
	RegisterRoutes(&router.RouterGroup, handlers)
	return router
}
