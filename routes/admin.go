package routes

import (
	"github.com/gin-gonic/gin"

	activityControllers "github.com/adilind/coffee-shop-api/controllers/activity"
	"github.com/adilind/coffee-shop-api/middleware"
)

// SetupAdminRoutes registers all "/admin/*" endpoints. Requires API-key middleware.
func SetupAdminRoutes(r *gin.Engine, deps Deps) {
	adminGroup := r.Group("/admin")
	adminGroup.Use(middleware.ValidateAPIKey)
	{
		activityGroup := adminGroup.Group("/activity")
		{
			activityGroup.GET("", activityControllers.QueryActivity(deps.Activity))
			activityGroup.GET("/export", activityControllers.ExportActivityToExcel(deps.Activity))
		}

		// Websocket feed of order state transitions
		adminGroup.GET("/orders/ws", deps.OrderFeed.Handler)
	}
}
