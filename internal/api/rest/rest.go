package rest

import (
	"github.com/gin-gonic/gin"
)

// SetupRoutes configures all REST API routes
func SetupRoutes(router *gin.Engine, handler Handler) {
	// Health check endpoint (no version prefix)
	router.GET("/health", handler.HealthCheck)

	// API v1 routes
	v1 := router.Group("/api/v1")
	{
		// Report endpoints (public)
		v1.POST("/reports", handler.SubmitReport)
		v1.GET("/reports", handler.ListReports)
		v1.GET("/reports/stats", handler.GetStats)

		// Admin endpoints. Destructive, but the wipe confirmation phrase is
		// the gate: the board runs on a trusted network.
		v1.POST("/admin/purge", handler.PurgeOld)
		v1.POST("/admin/wipe", handler.WipeAll)
	}
}
