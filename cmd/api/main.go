package main

import (
	"context"
	"log"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/chanhnguyen91/go-auth-boilerplate/api/swagger" // swagger docs
	"github.com/chanhnguyen91/go-auth-boilerplate/internal/config"
	"github.com/chanhnguyen91/go-auth-boilerplate/internal/database"
	"github.com/chanhnguyen91/go-auth-boilerplate/internal/handler"
	"github.com/chanhnguyen91/go-auth-boilerplate/internal/logger"
	"github.com/chanhnguyen91/go-auth-boilerplate/internal/oauth"
	"github.com/chanhnguyen91/go-auth-boilerplate/internal/repository"
	"github.com/chanhnguyen91/go-auth-boilerplate/internal/service"
	"github.com/chanhnguyen91/go-auth-boilerplate/internal/websocket"
)

// @title           Auth Boilerplate API
// @version         1.0
// @description     REST backend providing registration, login (local, Google, Apple), JWT refresh-token rotation and role-based permission management.
// @host            localhost:8080
// @BasePath        /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Config load failed: %v", err)
	}

	logger.Init(cfg.Env)
	defer func() { _ = logger.Sync() }()
	mainLog := logger.Named("main")

	db, err := database.NewConnection(cfg.DSN())
	if err != nil {
		mainLog.Fatal("database connection failed", zap.Error(err))
	}
	mainLog.Info("connected to PostgreSQL")

	// Set up WebSocket Hub
	wsHub := websocket.NewHub()
	go wsHub.Run()

	// Set up dependencies (Repository -> Service -> Handler)
	txManager := repository.NewTransactionManager(db)
	userRepo := repository.NewUserRepository(db)
	roleRepo := repository.NewRoleRepository(db)
	tokenRepo := repository.NewRefreshTokenRepository(db)
	planRepo := repository.NewPlanRepository(db)

	authService := service.NewAuthService(userRepo, roleRepo, tokenRepo, txManager, cfg)
	userService := service.NewUserService(userRepo, roleRepo, wsHub)
	roleService := service.NewRoleService(roleRepo, wsHub)
	planService := service.NewPlanService(planRepo)

	if err := roleService.SeedDefaults(context.Background()); err != nil {
		mainLog.Fatal("seeding roles and permissions failed", zap.Error(err))
	}

	google := oauth.NewGoogleProvider(cfg.GoogleClientID, cfg.GoogleClientSecret, cfg.GoogleRedirectURL, nil)

	authHandler := handler.NewAuthHandler(authService, userRepo, google, cfg)
	userHandler := handler.NewUserHandler(userService, userRepo, roleRepo, cfg)
	roleHandler := handler.NewRoleHandler(roleService, userRepo, roleRepo, cfg)
	planHandler := handler.NewPlanHandler(planService, userRepo, roleRepo, cfg)

	// Set up Gin Router
	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.Default()

	// CORS configuration
	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = cfg.CORSOrigins
	corsConfig.AllowCredentials = true
	corsConfig.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Authorization", "Accept"}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	router.Use(cors.New(corsConfig))

	// Swagger route
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// Health check
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "OK"})
	})

	// WebSocket endpoint
	router.GET("/ws", func(c *gin.Context) {
		websocket.ServeWs(wsHub, c, cfg.JWTSecret)
	})

	// Register API Routes
	root := router.Group("")
	authHandler.RegisterRoutes(root)
	userHandler.RegisterRoutes(root)
	roleHandler.RegisterRoutes(root)
	planHandler.RegisterRoutes(root)

	mainLog.Info("server listening", zap.String("port", cfg.Port))
	if err := router.Run(":" + cfg.Port); err != nil {
		mainLog.Fatal("server failed", zap.Error(err))
	}
}
