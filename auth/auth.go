package auth

import (
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/adilind/coffee-shop-api/models"
	"github.com/adilind/coffee-shop-api/services"
	"github.com/adilind/coffee-shop-api/stores"
)

const tokenLifetime = 24 * time.Hour

// Provider is the identity boundary: it registers users, verifies
// credentials and issues the session tokens the middleware trusts. Ready()
// is closed exactly once when the provider can serve; callers wait on the
// channel instead of polling.
type Provider struct {
	users    stores.UserStore
	activity *services.ActivityService
	secret   []byte
	ready    chan struct{}
}

func NewProvider(users stores.UserStore, activity *services.ActivityService, secret string) *Provider {
	p := &Provider{
		users:    users,
		activity: activity,
		secret:   []byte(secret),
		ready:    make(chan struct{}),
	}
	close(p.ready)
	return p
}

func (p *Provider) Ready() <-chan struct{} {
	return p.ready
}

func (p *Provider) Secret() []byte {
	return p.secret
}

// IssueToken mints an HS256 session token carrying the identity the
// middleware re-establishes on every request.
func (p *Provider) IssueToken(user models.User) (string, error) {
	claims := jwt.MapClaims{
		"user_id":  user.ID,
		"username": user.Username,
		"role":     string(user.Role),
		"exp":      time.Now().Add(tokenLifetime).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(p.secret)
}

type registerInput struct {
	Username string `json:"username" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=6"`
}

type loginInput struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// POST /auth/register
func (p *Provider) Register() gin.HandlerFunc {
	return func(c *gin.Context) {
		var input registerInput
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input: " + err.Error()})
			return
		}

		hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to hash password"})
			return
		}

		user := models.User{
			ID:           uuid.NewString(),
			Username:     input.Username,
			Email:        input.Email,
			PasswordHash: string(hash),
			Role:         models.RoleCustomer,
			CreatedAt:    time.Now(),
		}
		if err := p.users.Create(c.Request.Context(), &user); err != nil {
			if err == stores.ErrUserExists {
				c.JSON(http.StatusConflict, gin.H{"error": "Username or email already taken", "code": services.CodeUserExists})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create user"})
			return
		}

		token, err := p.IssueToken(user)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Token generation failed"})
			return
		}

		p.record(c, user, models.ActivityRegister)
		c.JSON(http.StatusCreated, gin.H{"token": token, "user": user})
	}
}

// POST /auth/login
func (p *Provider) Login() gin.HandlerFunc {
	return func(c *gin.Context) {
		var input loginInput
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input: " + err.Error()})
			return
		}

		user, err := p.users.GetByUsername(c.Request.Context(), input.Username)
		if err != nil ||
			bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(input.Password)) != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid username or password", "code": services.CodeInvalidCredentials})
			return
		}

		token, err := p.IssueToken(user)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Token generation failed"})
			return
		}

		p.record(c, user, models.ActivityLogin)
		c.JSON(http.StatusOK, gin.H{"token": token, "user": user})
	}
}

// POST /auth/logout only audits, since sessions are stateless JWTs.
func (p *Provider) Logout() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := services.Identity{
			UserID:     c.GetString("user_id"),
			Username:   c.GetString("username"),
			Role:       models.Role(c.GetString("role")),
			SourceAddr: c.ClientIP(),
		}
		if err := p.activity.Record(c.Request.Context(), id, models.ActivityLogout, nil); err != nil {
			log.Printf("activity record error: %v", err)
		}
		c.JSON(http.StatusOK, gin.H{"message": "Logged out"})
	}
}

func (p *Provider) record(c *gin.Context, user models.User, activityType models.ActivityType) {
	id := services.Identity{
		UserID:     user.ID,
		Username:   user.Username,
		Role:       user.Role,
		SourceAddr: c.ClientIP(),
	}
	if err := p.activity.Record(c.Request.Context(), id, activityType, nil); err != nil {
		log.Printf("activity record error: %v", err)
	}
}
