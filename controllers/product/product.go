package productControllers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/adilind/coffee-shop-api/stores"
)

// GET /products
func GetProducts(catalog stores.CatalogReader) gin.HandlerFunc {
	return func(c *gin.Context) {
		products, err := catalog.ListProducts(c.Request.Context())
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch products"})
			return
		}
		c.JSON(http.StatusOK, products)
	}
}

// GET /products/:id
func GetProductByID(catalog stores.CatalogReader) gin.HandlerFunc {
	return func(c *gin.Context) {
		product, err := catalog.GetProduct(c.Request.Context(), c.Param("id"))
		if errors.Is(err, stores.ErrProductNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Product not found"})
			return
		}
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch product"})
			return
		}
		c.JSON(http.StatusOK, product)
	}
}
