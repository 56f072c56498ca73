package middleware

import (
	"errors"
	"net/http"
	"os"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"github.com/adilind/coffee-shop-api/models"
	"github.com/adilind/coffee-shop-api/services"
)

// ValidateToken rejects the request before any handler runs when the
// session token is missing, invalid or expired; no cart or order operation
// ever partially executes under a dead session.
func ValidateToken(c *gin.Context) {
	tokenString := c.GetHeader("Authorization")
	if tokenString == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Authorization header is missing"})
		c.Abort()
		return
	}
	tokenString = strings.TrimPrefix(tokenString, "Bearer ")

	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("invalid token signing method")
		}
		return []byte(os.Getenv("JWT_SECRET")), nil
	})
	if err != nil || !token.Valid {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired token"})
		c.Abort()
		return
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid token claims"})
		c.Abort()
		return
	}

	userID, _ := claims["user_id"].(string)
	if userID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid token claims"})
		c.Abort()
		return
	}
	username, _ := claims["username"].(string)
	role, _ := claims["role"].(string)

	c.Set("user_id", userID)
	c.Set("username", username)
	c.Set("role", role)

	c.Next()
}

// CurrentIdentity rebuilds the caller's identity from what ValidateToken
// stored in the request context.
func CurrentIdentity(c *gin.Context) services.Identity {
	return services.Identity{
		UserID:     c.GetString("user_id"),
		Username:   c.GetString("username"),
		Role:       models.Role(c.GetString("role")),
		SourceAddr: c.ClientIP(),
	}
}
