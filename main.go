package main

import (
	"log"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/Aditya-Garg10/Listygo/internal/cache"
	"github.com/Aditya-Garg10/Listygo/internal/config"
	"github.com/Aditya-Garg10/Listygo/internal/database"
	"github.com/Aditya-Garg10/Listygo/internal/handlers"
	"github.com/Aditya-Garg10/Listygo/internal/images"
	"github.com/Aditya-Garg10/Listygo/internal/middleware"
	"github.com/Aditya-Garg10/Listygo/internal/storage"
)

func main() {
	config.Load()

	logger, err := newLogger()
	if err != nil {
		log.Fatal(err)
	}
	defer logger.Sync()
	zap.ReplaceGlobals(logger)

	if config.AppEnv.JWTSecret == "" {
		zap.S().Fatal("JWT_SECRET is required")
	}

	client, err := database.Connect(config.AppEnv.MongoURI)
	if err != nil {
		zap.S().Fatalw("mongodb connection failed", "error", err)
	}

	db := client.Database(config.AppEnv.DBName)
	zap.S().Infow("mongodb connected", "db", db.Name())

	if err := database.EnsureListingIndexes(db); err != nil {
		zap.S().Warnw("listing index warning", "error", err)
	}
	if err := database.EnsureUserIndexes(db); err != nil {
		zap.S().Warnw("user index warning", "error", err)
	}
	if err := database.EnsureAdminIndexes(db); err != nil {
		zap.S().Warnw("admin index warning", "error", err)
	}
	if err := database.EnsureCategoryIndexes(db); err != nil {
		zap.S().Warnw("category index warning", "error", err)
	}

	backend, err := newBackend()
	if err != nil {
		zap.S().Fatalw("storage backend init failed", "error", err)
	}

	ing := storage.Ingestor{
		Backend:  backend,
		Prefix:   "listings",
		MaxFiles: config.AppEnv.MaxUploadFiles,
		MaxBytes: config.AppEnv.MaxUploadBytes,
	}
	layoutIngestor := ing
	layoutIngestor.Prefix = "layout"
	layoutIngestor.MaxFiles = 1

	matcher := images.Matcher{VolatileHosts: config.AppEnv.VolatileHosts}

	var listingCache *cache.ListingCache
	if config.AppEnv.RedisAddr != "" {
		listingCache, err = cache.NewListingCache(config.AppEnv.RedisAddr)
		if err != nil {
			zap.S().Warnw("redis unavailable, listing cache disabled", "error", err)
			listingCache = nil
		} else {
			zap.S().Infow("redis connected", "addr", config.AppEnv.RedisAddr)
		}
	}

	if config.AppEnv.IsProd() {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.Default()

	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{config.AppEnv.FrontendURL},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		AllowCredentials: true,
	}))

	if config.AppEnv.StorageDriver == "local" {
		r.Static("/uploads", config.AppEnv.UploadDir)
	}

	protect := middleware.Protect(config.AppEnv.JWTSecret)
	adminOnly := middleware.Authorize("admin", "super-admin")

	api := r.Group("/api")

	adminAuth := api.Group("/admin")
	{
		adminAuth.POST("/register", protect, middleware.Authorize("super-admin"), handlers.RegisterAdmin(db))
		adminAuth.POST("/login", handlers.LoginAdmin(db))
		adminAuth.POST("/logout", handlers.LogoutAdmin())
		adminAuth.GET("/me", protect, adminOnly, handlers.GetAdminMe(db))
		adminAuth.PUT("/updatedetails", protect, adminOnly, handlers.UpdateAdminDetails(db))
		adminAuth.PUT("/updatepassword", protect, adminOnly, handlers.UpdateAdminPassword(db))
		adminAuth.GET("/dashboard", protect, adminOnly, handlers.AdminDashboard(db))
	}

	users := api.Group("/users")
	{
		users.POST("/register", handlers.RegisterUser(db))
		users.POST("/login", handlers.LoginUser(db))
		users.POST("/logout", handlers.LogoutUser())
		users.GET("/me", protect, handlers.GetUserMe(db))
		users.PUT("/updatedetails", protect, handlers.UpdateUserDetails(db))
		users.PUT("/updatepassword", protect, handlers.UpdateUserPassword(db))
	}

	listings := api.Group("/listings")
	{
		listings.GET("", handlers.GetListings(db))
		listings.GET("/featured", handlers.GetFeaturedListings(db))
		listings.GET("/category/:categoryId", handlers.GetListingsByCategory(db))
		listings.GET("/:id", handlers.GetListing(db, listingCache))

		listings.POST("", protect, adminOnly, handlers.CreateListing(db, ing, matcher))
		listings.PUT("/:id", protect, handlers.UpdateListing(db, ing, matcher, listingCache))
		listings.DELETE("/:id", protect, handlers.DeleteListing(db, backend, listingCache))
		listings.DELETE("/:id/images", protect, handlers.DeleteListingImage(db, backend, matcher, listingCache))
	}

	categories := api.Group("/categories")
	{
		categories.GET("", handlers.GetCategories(db))
		categories.GET("/:id", handlers.GetCategory(db))
		categories.POST("", protect, adminOnly, handlers.CreateCategory(db))
		categories.PUT("/:id", protect, adminOnly, handlers.UpdateCategory(db))
		categories.DELETE("/:id", protect, adminOnly, handlers.DeleteCategory(db))
	}

	layout := api.Group("/layout")
	{
		layout.GET("", handlers.GetLayout(db))
		layout.PUT("", protect, adminOnly, handlers.UpdateLayout(db))
		layout.POST("/image", protect, adminOnly, handlers.UploadLayoutImage(layoutIngestor))
	}

	proxy := api.Group("/proxy")
	{
		proxy.GET("/geocode", handlers.GeocodeSearch())
		proxy.GET("/coordinates", handlers.GeocodeReverse())
	}

	zap.S().Infow("server starting", "port", config.AppEnv.Port)
	if err := r.Run(":" + config.AppEnv.Port); err != nil {
		zap.S().Fatalw("server exited", "error", err)
	}
}

func newLogger() (*zap.Logger, error) {
	if config.AppEnv.IsProd() {
		return zap.NewProduction()
	}
	return zap.NewDevelopment()
}
