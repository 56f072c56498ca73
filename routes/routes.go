package routes

import (
	"github.com/gin-gonic/gin"

	"github.com/adilind/coffee-shop-api/auth"
	orderControllers "github.com/adilind/coffee-shop-api/controllers/order"
	"github.com/adilind/coffee-shop-api/services"
	"github.com/adilind/coffee-shop-api/stores"
)

// Deps carries everything the route groups need wired in.
type Deps struct {
	Auth      *auth.Provider
	Cart      *services.CartService
	Checkout  *services.CheckoutService
	Payment   *services.PaymentService
	Orders    *services.OrderService
	Activity  *services.ActivityService
	Catalog   stores.CatalogReader
	OrderFeed *orderControllers.EventHub
}

// SetupRoutes is the single entry-point that wires up Auth, User, Order and
// Admin route groups.
func SetupRoutes(r *gin.Engine, deps Deps) {
	// Public auth + catalog routes (no middleware)
	SetupAuthRoutes(r, deps)

	// User routes (JWT-protected)
	SetupUserRoutes(r, deps)

	// Order lifecycle routes (JWT-protected)
	SetupOrderRoutes(r, deps)

	// Admin routes (API-key-protected)
	SetupAdminRoutes(r, deps)
}
