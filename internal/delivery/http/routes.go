package http

import (
	"github.com/gin-gonic/gin"

	"github.com/fittrack/backend/config"
)

// SetupRouter creates and configures the Gin router
func SetupRouter(cfg *config.Config, handler *Handler) *gin.Engine {
	// Set Gin mode based on environment
	if cfg.Server.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	// Global middleware
	router.Use(RecoveryMiddleware())
	router.Use(LoggerMiddleware())
	router.Use(CORSMiddleware(cfg.Server.AllowedOrigins))

	// Health check endpoint
	router.GET("/health", handler.HealthCheck)

	// API v1 routes
	v1 := router.Group("/api/v1")
	{
		food := v1.Group("/food")
		{
			food.GET("/search", handler.SearchFood)
			food.GET("/barcode/:barcode", handler.SearchByBarcode)
			food.POST("/custom", handler.AddCustomFood)

			// Diary endpoints need an identified user; authentication
			// itself happens upstream.
			diary := food.Group("")
			diary.Use(RequireUserMiddleware())
			{
				diary.POST("/entries", handler.CreateEntry)
				diary.GET("/entries", handler.ListEntries)
				diary.GET("/entries/:id", handler.GetEntry)
				diary.PUT("/entries/:id", handler.UpdateEntry)
				diary.DELETE("/entries/:id", handler.DeleteEntry)
				diary.GET("/summary", handler.DailySummary)
			}
		}
	}

	return router
}
