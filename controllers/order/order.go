package orderControllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/adilind/coffee-shop-api/controllers/respond"
	"github.com/adilind/coffee-shop-api/middleware"
	"github.com/adilind/coffee-shop-api/models"
	"github.com/adilind/coffee-shop-api/services"
)

// Field presence is validated by the service so missing customer info gets
// its typed error instead of a binding failure.
type CheckoutRequest struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Address string `json:"address"`
	Phone   string `json:"phone"`
}

type PayRequest struct {
	OrderID       string `json:"order_id"`
	CheckoutToken string `json:"checkout_token"`

	// Card fields are validated by the payment service so rejects are
	// typed and audited.
	CardNumber     string `json:"card_number"`
	Expiry         string `json:"expiry"`
	CVV            string `json:"cvv"`
	CardholderName string `json:"cardholder_name"`
}

// POST /orders/checkout
func CheckoutHandler(svc *services.CheckoutService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req CheckoutRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input: " + err.Error()})
			return
		}

		order, token, err := svc.CreateOrder(c.Request.Context(), middleware.CurrentIdentity(c), models.CustomerInfo{
			Name:    req.Name,
			Email:   req.Email,
			Address: req.Address,
			Phone:   req.Phone,
		})
		if err != nil {
			respond.Error(c, err)
			return
		}
		c.JSON(http.StatusCreated, gin.H{"order": order, "checkout_token": token})
	}
}

// POST /orders/pay accepts either the checkout token handed out at order
// creation or a bare order id for blind client retries.
func PayHandler(svc *services.PaymentService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req PayRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input: " + err.Error()})
			return
		}

		orderID := req.OrderID
		if orderID == "" && req.CheckoutToken != "" {
			var err error
			orderID, err = svc.ResolveToken(c.Request.Context(), req.CheckoutToken)
			if err != nil {
				respond.Error(c, err)
				return
			}
		}
		if orderID == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "order_id or checkout_token is required"})
			return
		}

		order, err := svc.ProcessPayment(c.Request.Context(), middleware.CurrentIdentity(c), orderID, services.CardInput{
			CardNumber:     req.CardNumber,
			Expiry:         req.Expiry,
			CVV:            req.CVV,
			CardholderName: req.CardholderName,
		})
		if err != nil {
			respond.Error(c, err)
			return
		}
		c.JSON(http.StatusOK, order)
	}
}

// GET /orders/:order_id
func GetOrderHandler(svc *services.OrderService) gin.HandlerFunc {
	return func(c *gin.Context) {
		order, err := svc.Get(c.Request.Context(), middleware.CurrentIdentity(c), c.Param("order_id"))
		if err != nil {
			respond.Error(c, err)
			return
		}
		c.JSON(http.StatusOK, order)
	}
}

// GET /orders
func ListOrdersHandler(svc *services.OrderService) gin.HandlerFunc {
	return func(c *gin.Context) {
		orders, err := svc.ListForUser(c.Request.Context(), middleware.CurrentIdentity(c))
		if err != nil {
			respond.Error(c, err)
			return
		}
		c.JSON(http.StatusOK, orders)
	}
}

// POST /orders/:order_id/cancel
func CancelOrderHandler(svc *services.OrderService) gin.HandlerFunc {
	return func(c *gin.Context) {
		order, err := svc.Cancel(c.Request.Context(), middleware.CurrentIdentity(c), c.Param("order_id"))
		if err != nil {
			respond.Error(c, err)
			return
		}
		c.JSON(http.StatusOK, order)
	}
}
