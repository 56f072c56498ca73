package routes

import (
	"github.com/gin-gonic/gin"

	orderControllers "github.com/adilind/coffee-shop-api/controllers/order"
	"github.com/adilind/coffee-shop-api/middleware"
)

func SetupOrderRoutes(r *gin.Engine, deps Deps) {
	orders := r.Group("/orders")
	orders.Use(middleware.ValidateToken)
	{
		// Snapshot the cart into a pending order
		orders.POST("/checkout", orderControllers.CheckoutHandler(deps.Checkout))

		// Charge a pending order (by order id or checkout token)
		orders.POST("/pay", orderControllers.PayHandler(deps.Payment))

		// Fetch the caller's orders, newest first
		orders.GET("", orderControllers.ListOrdersHandler(deps.Orders))

		// Fetch a single order (ownership enforced)
		orders.GET("/:order_id", orderControllers.GetOrderHandler(deps.Orders))

		// Cancel a pending order
		orders.POST("/:order_id/cancel", orderControllers.CancelOrderHandler(deps.Orders))
	}
}
