package main

import (
	"log"
	"net/http"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/asante-farms/chickorder-api/config"
	"github.com/asante-farms/chickorder-api/controllers"
	"github.com/asante-farms/chickorder-api/middleware"
	"github.com/asante-farms/chickorder-api/models"
	"github.com/asante-farms/chickorder-api/services"
)

func main() {
	log.Println("Starting ChickOrder API server...")

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Connect to database
	if err := config.ConnectDatabase(); err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	// Auto-migrate database models
	db := config.GetDB()
	if err := db.AutoMigrate(
		&models.User{},
		&models.Product{},
		&models.Order{},
		&models.OrderItem{},
		&models.Notification{},
	); err != nil {
		log.Fatalf("Failed to migrate database: %v", err)
	}
	log.Println("Database migration completed successfully")

	if err := seedAdminUser(db, cfg); err != nil {
		log.Fatalf("Failed to seed admin user: %v", err)
	}

	// Product images are optional; without a bucket the catalog simply
	// serves no photo URLs.
	if cfg.AWSS3Bucket != "" {
		s3Service, err := services.InitS3Service(cfg)
		if err != nil {
			log.Fatalf("Failed to initialize S3 service: %v", err)
		}
		services.InitImageService(s3Service)
		log.Println("Image storage initialized")
	} else {
		log.Println("AWS_S3_BUCKET not set, product images disabled")
	}

	services.InitPaymentService(cfg)

	notifier := services.InitNotificationService(db, services.NewSenderFromConfig(cfg))
	defer notifier.Close()

	router := setupRouter(cfg)

	port := ":" + cfg.Port
	log.Printf("Server is running on http://localhost%s", port)
	if err := router.Run(port); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}

// setupRouter builds the Gin engine with middleware and all API routes
func setupRouter(cfg *config.Config) *gin.Engine {
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.Default()

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowAllOrigins = true
	corsConfig.AllowHeaders = append(corsConfig.AllowHeaders, "Authorization")
	router.Use(cors.New(corsConfig))

	v1 := router.Group("/api/v1")
	{
		v1.GET("/health", healthCheck)
		v1.GET("/database/status", databaseStatus)

		auth := v1.Group("/auth")
		{
			auth.POST("/register", controllers.Register)
			auth.POST("/login", controllers.Login)
			auth.GET("/me", middleware.RequireAuth(cfg), controllers.GetMe)
		}

		products := v1.Group("/products")
		{
			products.GET("", controllers.ListProducts)
			products.GET("/:id", controllers.GetProduct)
			products.POST("", middleware.RequireAuth(cfg), middleware.RequireAdmin(), controllers.CreateProduct)
			products.PUT("/:id", middleware.RequireAuth(cfg), middleware.RequireAdmin(), controllers.UpdateProduct)
			products.DELETE("/:id", middleware.RequireAuth(cfg), middleware.RequireAdmin(), controllers.DeleteProduct)
			products.POST("/:id/image", middleware.RequireAuth(cfg), middleware.RequireAdmin(), controllers.UploadProductImage)
		}

		orders := v1.Group("/orders")
		{
			orders.POST("", middleware.OptionalAuth(cfg), controllers.CreateOrder)
			orders.GET("", middleware.RequireAuth(cfg), controllers.ListOrders)
			orders.GET("/:id", middleware.OptionalAuth(cfg), controllers.GetOrder)
			orders.PUT("/:id/status", middleware.RequireAuth(cfg), middleware.RequireAdmin(), controllers.UpdateOrderStatus)
			orders.POST("/:id/payment", controllers.InitiatePayment)
		}

		payments := v1.Group("/payments")
		payments.Use(middleware.RequireAuth(cfg), middleware.RequireAdmin())
		{
			payments.POST("/verify/:id", controllers.VerifyPayment)
			payments.POST("/complete/:id", controllers.CompletePayment)
		}

		admin := v1.Group("/admin")
		admin.Use(middleware.RequireAuth(cfg), middleware.RequireAdmin())
		{
			admin.GET("/dashboard", controllers.GetDashboardStats)
			admin.GET("/orders/pending", controllers.ListPendingOrders)
		}
	}

	return router
}

// seedAdminUser creates the configured admin account on first boot.
// Subsequent boots find the existing account and leave it untouched.
func seedAdminUser(db *gorm.DB, cfg *config.Config) error {
	if cfg.AdminPhone == "" || cfg.AdminPassword == "" {
		log.Println("ADMIN_PHONE or ADMIN_PASSWORD not set, skipping admin seed")
		return nil
	}

	var existing models.User
	if err := db.Where("phone = ?", cfg.AdminPhone).First(&existing).Error; err == nil {
		return nil
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(cfg.AdminPassword), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	hashStr := string(hash)

	admin := models.User{
		Name:         cfg.AdminName,
		Phone:        cfg.AdminPhone,
		PasswordHash: &hashStr,
		IsAdmin:      true,
		IsActive:     true,
	}
	if cfg.AdminEmail != "" {
		admin.Email = &cfg.AdminEmail
	}

	if err := db.Create(&admin).Error; err != nil {
		return err
	}
	log.Printf("Seeded admin account for %s", cfg.AdminPhone)
	return nil
}

// healthCheck handles the health check endpoint
func healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "ChickOrder API is running",
	})
}

// databaseStatus checks database connectivity
func databaseStatus(c *gin.Context) {
	db := config.GetDB()

	sqlDB, err := db.DB()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "DATABASE_ERROR",
				"message": "Failed to get database instance",
			},
		})
		return
	}

	if err := sqlDB.Ping(); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "DATABASE_CONNECTION_ERROR",
				"message": "Database connection failed",
			},
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Database connected",
	})
}
