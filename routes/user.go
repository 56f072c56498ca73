package routes

import (
	"github.com/gin-gonic/gin"

	cartControllers "github.com/adilind/coffee-shop-api/controllers/cart"
	"github.com/adilind/coffee-shop-api/middleware"
)

// SetupUserRoutes registers all "/user/*" endpoints. Requires JWT middleware.
func SetupUserRoutes(r *gin.Engine, deps Deps) {
	userGroup := r.Group("/user")
	userGroup.Use(middleware.ValidateToken)
	{
		cartGroup := userGroup.Group("/cart")
		{
			cartGroup.GET("", cartControllers.GetUserCart(deps.Cart))                               // GET /user/cart
			cartGroup.POST("/items", cartControllers.AddCartItem(deps.Cart))                        // POST /user/cart/items
			cartGroup.PUT("/items/:product_id", cartControllers.SetCartItemQuantity(deps.Cart))     // PUT /user/cart/items/:product_id
			cartGroup.DELETE("/items/:product_id", cartControllers.DeleteCartItem(deps.Cart))       // DELETE /user/cart/items/:product_id
			cartGroup.DELETE("", cartControllers.ClearUserCart(deps.Cart))                          // DELETE /user/cart
		}
	}
}
