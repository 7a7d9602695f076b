package main

import (
	"context"
	"net/http"
	"os"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"docuvault/config"
	"docuvault/jobs"
	"docuvault/middleware"
	"docuvault/routes"
	"docuvault/services"
	"docuvault/stores"
	"docuvault/utils"
)

func main() {
	loadEnvFile()

	config.LoadConfig()
	cfg := config.AppConfig

	ctx, cancel := config.CreateContext(10 * time.Second)
	defer cancel()

	mongoClient, db, err := stores.Connect(ctx, cfg.MongoURI, cfg.DatabaseName)
	if err != nil {
		utils.LogFatal("Failed to connect to MongoDB", err)
	}
	defer func() {
		disconnectCtx, disconnectCancel := config.CreateContext(5 * time.Second)
		defer disconnectCancel()
		if err := mongoClient.Disconnect(disconnectCtx); err != nil {
			utils.LogError("Failed to disconnect MongoDB", err)
		}
	}()
	utils.LogInfo("Connected to MongoDB successfully")

	if err := stores.EnsureIndexes(ctx, db); err != nil {
		utils.LogFatal("Failed to ensure indexes", err)
	}

	if err := os.MkdirAll(cfg.StorageBasePath, 0o755); err != nil {
		utils.LogFatal("Failed to create storage base path", err)
	}

	container := routes.NewServiceContainer(
		mongoClient,
		db,
		cfg.JWTSecret,
		cfg.StorageBasePath,
		cfg.MaxFileSize,
		cfg.MirrorEnabled(),
	)

	router := gin.Default()
	router.Use(corsMiddleware(cfg.AllowedOrigins))
	router.Use(middleware.RequestID())

	api := router.Group("/api")
	routes.SetupRoutes(api, container)

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status": "ok",
			"time":   time.Now().UTC(),
		})
	})

	if cfg.MirrorEnabled() {
		mirrorService, err := services.NewMirrorService(ctx,
			cfg.B2ApplicationKeyID, cfg.B2ApplicationKey, cfg.B2BucketName,
			container.MirrorQueue)
		if err != nil {
			utils.LogFatal("Failed to initialize mirror service", err)
		}
		go jobs.NewMirrorJob(mirrorService, cfg.MirrorInterval).Start(context.Background())
		utils.LogInfo("Started mirror job running every %v", cfg.MirrorInterval)
	}

	utils.LogInfo("Starting docuvault server on port %s", cfg.Port)
	if err := router.Run(":" + cfg.Port); err != nil {
		utils.LogFatal("Failed to start server", err)
	}
}

// loadEnvFile loads a .env file when one is present; system environment
// variables win otherwise.
func loadEnvFile() {
	for _, envPath := range []string{".env", "../.env"} {
		if _, err := os.Stat(envPath); err == nil {
			if err := godotenv.Load(envPath); err == nil {
				utils.LogInfo("Loaded environment variables from %s", envPath)
				return
			}
		}
	}
	utils.LogInfo("No .env file found, using system environment variables")
}

func corsMiddleware(allowedOrigins []string) gin.HandlerFunc {
	return func(c *gin.Context) {
		requestOrigin := c.Request.Header.Get("Origin")

		var allowOrigin string
		if len(allowedOrigins) == 0 {
			allowOrigin = "*"
		} else {
			for _, allowed := range allowedOrigins {
				if allowed == "*" || allowed == requestOrigin {
					allowOrigin = allowed
					break
				}
			}
		}

		if allowOrigin != "" {
			c.Header("Access-Control-Allow-Origin", allowOrigin)
			c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
			c.Header("Access-Control-Allow-Headers", "Authorization, Content-Type, X-Request-Id")
			c.Header("Access-Control-Expose-Headers", "X-Request-Id, Content-Disposition")
		}

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}
