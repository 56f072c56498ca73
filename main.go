package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	authProvider "github.com/adilind/coffee-shop-api/auth"
	orderControllers "github.com/adilind/coffee-shop-api/controllers/order"
	"github.com/adilind/coffee-shop-api/models"
	"github.com/adilind/coffee-shop-api/routes"
	"github.com/adilind/coffee-shop-api/services"
	"github.com/adilind/coffee-shop-api/stores"
)

func main() {
	log.Println("Starting coffee shop API...")

	// Load environment variables
	_ = godotenv.Load()

	carts, orders, activity, catalog, users := initStores()
	tokens := initTokenStore()

	// Wire services; the websocket hub receives order transitions
	hub := orderControllers.NewEventHub()
	activitySvc := services.NewActivityService(activity)
	cartSvc := services.NewCartService(carts, catalog, activitySvc)
	checkoutSvc := services.NewCheckoutService(carts, orders, tokens, activitySvc, hub)
	paymentSvc := services.NewPaymentService(orders, carts, tokens, activitySvc, hub)
	orderSvc := services.NewOrderService(orders, hub)
	provider := authProvider.NewProvider(users, activitySvc, os.Getenv("JWT_SECRET"))

	// Gin setup
	r := gin.Default()

	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", "X-API-KEY"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	routes.SetupRoutes(r, routes.Deps{
		Auth:      provider,
		Cart:      cartSvc,
		Checkout:  checkoutSvc,
		Payment:   paymentSvc,
		Orders:    orderSvc,
		Activity:  activitySvc,
		Catalog:   catalog,
		OrderFeed: hub,
	})

	// Serve only once the identity provider signals readiness
	<-provider.Ready()

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	log.Printf("Server running on port %s...", port)
	if err := r.Run(":" + port); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}

// initStores picks the persistence driver. Postgres is the default;
// STORE_DRIVER=memory runs without external dependencies.
func initStores() (stores.CartStore, stores.OrderStore, stores.ActivityStore, stores.CatalogReader, stores.UserStore) {
	if os.Getenv("STORE_DRIVER") == "memory" {
		log.Println("Using in-memory stores")
		mem := stores.NewMemoryStores()
		mem.Catalog.Seed(seedProducts())
		return mem.Carts, mem.Orders, mem.Activity, mem.Catalog, mem.Users
	}

	db := initDatabase()
	if err := db.AutoMigrate(
		&models.User{},
		&models.Product{},
		&models.Cart{},
		&models.CartItem{},
		&models.Order{},
		&models.OrderItem{},
		&models.ActivityLog{},
	); err != nil {
		log.Fatalf("AutoMigrate failed: %v", err)
	}
	seedCatalog(db)

	g := stores.NewGormStores(db)
	return g.Carts, g.Orders, g.Activity, g.Catalog, g.Users
}

// initDatabase sets up the GORM DB connection
func initDatabase() *gorm.DB {
	if databaseURL := os.Getenv("DATABASE_URL"); databaseURL != "" {
		db, err := gorm.Open(postgres.Open(databaseURL), &gorm.Config{})
		if err != nil {
			log.Fatalf("DB connection failed: %v", err)
		}
		return db
	}

	host := os.Getenv("DB_HOST")
	port := os.Getenv("DB_PORT")
	user := os.Getenv("DB_USER")
	password := os.Getenv("DB_PASSWORD")
	dbname := os.Getenv("DB_NAME")

	dsn := fmt.Sprintf(
		"host=%s user=%s password=%s dbname=%s port=%s sslmode=disable",
		host, user, password, dbname, port,
	)

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		log.Fatalf("Failed to connect DB: %v", err)
	}
	return db
}

// initTokenStore uses Redis when configured so checkout tokens survive
// restarts, and falls back to the in-process store otherwise.
func initTokenStore() stores.TokenStore {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		log.Println("REDIS_ADDR not set, using in-memory checkout tokens")
		return stores.NewMemoryTokenStore()
	}

	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: os.Getenv("REDIS_PASSWORD"),
	})
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		log.Fatalf("Redis connection failed: %v", err)
	}
	return stores.NewRedisTokenStore(client)
}

// seedCatalog inserts the starter products once on an empty database.
func seedCatalog(db *gorm.DB) {
	var count int64
	if err := db.Model(&models.Product{}).Count(&count).Error; err != nil {
		log.Printf("Catalog count failed: %v", err)
		return
	}
	if count > 0 {
		return
	}
	products := seedProducts()
	if err := db.Create(&products).Error; err != nil {
		log.Printf("Catalog seed failed: %v", err)
	}
}

func seedProducts() []models.Product {
	now := time.Now()
	price := func(v float64) decimal.Decimal { return decimal.NewFromFloat(v) }
	return []models.Product{
		{ID: "espresso-classic", Title: "Classic Espresso Beans 250g", Description: "Dark roast, chocolate notes", Price: price(12.50), InStock: true, CreatedAt: now, UpdatedAt: now},
		{ID: "colombia-single", Title: "Colombia Single Origin 500g", Description: "Washed, caramel and citrus", Price: price(18.90), InStock: true, CreatedAt: now, UpdatedAt: now},
		{ID: "decaf-house", Title: "House Decaf 250g", Description: "Swiss water process", Price: price(11.00), InStock: true, CreatedAt: now, UpdatedAt: now},
		{ID: "moka-pot-3", Title: "Moka Pot, 3 Cup", Description: "Aluminium stovetop brewer", Price: price(29.99), InStock: true, CreatedAt: now, UpdatedAt: now},
		{ID: "grinder-manual", Title: "Manual Burr Grinder", Description: "Ceramic burrs, 40 clicks", Price: price(54.00), InStock: true, CreatedAt: now, UpdatedAt: now},
		{ID: "mug-stoneware", Title: "Stoneware Mug 350ml", Description: "Matte glaze", Price: price(14.25), InStock: false, CreatedAt: now, UpdatedAt: now},
	}
}
