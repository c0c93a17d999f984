package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"househunt/internal/database"
	"househunt/internal/geocoding"
	"househunt/internal/metrics"
	"househunt/internal/queue"
	"househunt/internal/telegram"
)

// Dependencies wires the HTTP layer. Geocoder, Queue, Notifier and Metrics
// are optional.
type Dependencies struct {
	Context        context.Context
	DB             *database.Database
	Logger         *logrus.Logger
	Geocoder       *geocoding.Geocoder
	Queue          *queue.PropertyQueue
	Notifier       *telegram.Service
	Metrics        *metrics.Metrics
	BatchSize      int
	AllowedOrigins []string
}

// NewRouter builds the gin engine with middleware and every route
func NewRouter(deps Dependencies) (*gin.Engine, error) {
	if err := RegisterValidators(); err != nil {
		return nil, err
	}

	router := gin.New()
	router.Use(gin.Recovery())

	handler := NewHandler(deps)
	router.Use(RequestLogger(handler.logger, deps.Metrics))

	corsConfig := cors.DefaultConfig()
	if len(deps.AllowedOrigins) > 0 {
		corsConfig.AllowOrigins = deps.AllowedOrigins
	} else {
		corsConfig.AllowAllOrigins = true
	}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	corsConfig.MaxAge = 12 * time.Hour
	router.Use(cors.New(corsConfig))

	SetupRoutes(router, handler, NewCriteriaHandler(deps.DB, handler.logger))

	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	if deps.Metrics != nil {
		router.GET("/metrics", gin.WrapH(deps.Metrics.Handler()))
	}

	return router, nil
}

func SetupRoutes(router *gin.Engine, handler *Handler, criteria *CriteriaHandler) {
	api := router.Group("/api")
	{
		api.GET("/properties", handler.GetAllProperties)
		api.POST("/properties", handler.CreateProperty)
		api.POST("/properties/rescore", handler.RescoreAll)
		api.GET("/properties/:id", handler.GetProperty)
		api.PUT("/properties/:id", handler.UpdateProperty)
		api.DELETE("/properties/:id", handler.DeleteProperty)
		api.PATCH("/properties/:id/ratings", handler.UpdateRatings)
		api.GET("/properties/:id/breakdown", handler.GetBreakdown)

		api.GET("/criteria", criteria.ListCriteria)
		api.POST("/criteria", criteria.CreateCriterion)
		api.PUT("/criteria/:id", criteria.UpdateCriterion)
		api.DELETE("/criteria/:id", criteria.DeleteCriterion)

		api.POST("/score", handler.Score)
		api.GET("/compare", handler.Compare)
		api.GET("/stats", handler.GetPropertyStats)
		api.GET("/map", handler.GetMap)
		api.POST("/update-coordinates", handler.UpdateCoordinates)
	}
}
