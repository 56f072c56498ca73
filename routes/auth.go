package routes

import (
	"github.com/gin-gonic/gin"

	productControllers "github.com/adilind/coffee-shop-api/controllers/product"
	"github.com/adilind/coffee-shop-api/middleware"
)

// SetupAuthRoutes registers the public endpoints: identity plus read-only
// catalog browsing.
func SetupAuthRoutes(r *gin.Engine, deps Deps) {
	authGroup := r.Group("/auth")
	{
		authGroup.POST("/register", deps.Auth.Register())
		authGroup.POST("/login", deps.Auth.Login())
		authGroup.POST("/logout", middleware.ValidateToken, deps.Auth.Logout())
	}

	r.GET("/products", productControllers.GetProducts(deps.Catalog))
	r.GET("/products/:id", productControllers.GetProductByID(deps.Catalog))
}
