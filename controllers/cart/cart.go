package cartControllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/adilind/coffee-shop-api/controllers/respond"
	"github.com/adilind/coffee-shop-api/middleware"
	"github.com/adilind/coffee-shop-api/services"
)

type AddItemInput struct {
	ProductID string `json:"product_id" binding:"required"`
	Quantity  int    `json:"quantity"` // validated by the service so 0 gets a typed error
}

type SetQuantityInput struct {
	Quantity *int `json:"quantity" binding:"required"`
}

// GET /user/cart
func GetUserCart(svc *services.CartService) gin.HandlerFunc {
	return func(c *gin.Context) {
		cart, err := svc.GetCart(c.Request.Context(), middleware.CurrentIdentity(c))
		if err != nil {
			respond.Error(c, err)
			return
		}
		c.JSON(http.StatusOK, cart)
	}
}

// POST /user/cart/items
func AddCartItem(svc *services.CartService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var input AddItemInput
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input: " + err.Error()})
			return
		}

		cart, err := svc.AddItem(c.Request.Context(), middleware.CurrentIdentity(c), input.ProductID, input.Quantity)
		if err != nil {
			respond.Error(c, err)
			return
		}
		c.JSON(http.StatusOK, cart)
	}
}

// PUT /user/cart/items/:product_id
func SetCartItemQuantity(svc *services.CartService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var input SetQuantityInput
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input: " + err.Error()})
			return
		}

		cart, err := svc.SetQuantity(c.Request.Context(), middleware.CurrentIdentity(c), c.Param("product_id"), *input.Quantity)
		if err != nil {
			respond.Error(c, err)
			return
		}
		c.JSON(http.StatusOK, cart)
	}
}

// DELETE /user/cart/items/:product_id
func DeleteCartItem(svc *services.CartService) gin.HandlerFunc {
	return func(c *gin.Context) {
		cart, err := svc.RemoveItem(c.Request.Context(), middleware.CurrentIdentity(c), c.Param("product_id"))
		if err != nil {
			respond.Error(c, err)
			return
		}
		c.JSON(http.StatusOK, cart)
	}
}

// DELETE /user/cart
func ClearUserCart(svc *services.CartService) gin.HandlerFunc {
	return func(c *gin.Context) {
		cart, err := svc.ClearCart(c.Request.Context(), middleware.CurrentIdentity(c))
		if err != nil {
			respond.Error(c, err)
			return
		}
		c.JSON(http.StatusOK, cart)
	}
}
