package main

import (
	"context"
	defError "errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"scibind/internal/auth"
	"scibind/internal/binder"
	"scibind/internal/cache"
	"scibind/internal/config"
	"scibind/internal/db"
	"scibind/internal/docmodel"
	"scibind/internal/docmodel/export"
	"scibind/internal/document"
	"scibind/internal/event"
	"scibind/internal/logger"
	"scibind/internal/middleware"
	"scibind/internal/relay"
	"scibind/internal/user"
	"scibind/internal/worker"
)

func main() {
	// Load configuration
	config.LoadConfig()
	cfg := config.AppConfig
	appLog := logger.Setup(cfg.Environment, cfg.LogLevel)
	auth.SetSecret(cfg.JWTSecret)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Connect to database
	if err := db.ConnectDb(cfg); err != nil {
		log.Fatal().Err(err).Msg("database unavailable")
	}
	defer db.CloseDb()

	if err := db.Migrate(); err != nil {
		log.Fatal().Err(err).Msg("migration failed")
	}

	// redis is optional; without it the list cache is bypassed
	redisClient := cache.Connect(ctx, cfg.RedisAddress)
	if redisClient != nil {
		defer redisClient.Close()
	}

	// Collaboration relay
	hub := relay.NewHub(appLog)
	var broadcaster relay.Broadcaster = hub
	if cfg.RelayTransport == "redis" {
		if redisClient == nil {
			log.Fatal().Msg("RELAY_TRANSPORT=redis requires a reachable redis")
		}
		rb, err := relay.NewRedisBroadcaster(ctx, redisClient, hub, appLog)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to start redis relay")
		}
		defer rb.Close()
		broadcaster = rb
	}

	jobs := worker.NewWorkerPool(cfg.WorkerPoolSize, 1024)

	// Initialize repositories
	userRepo := user.NewRepository(db.AppDb)
	eventRepo := event.NewRepository(db.AppDb)
	docRepo := document.NewRepository(db.AppDb)
	binderRepo := binder.NewRepository(db.AppDb)

	// Initialize services
	eventService := event.NewService(eventRepo)
	userService := user.NewService(userRepo, eventService)
	docService := document.NewService(
		docmodel.NewManager(),
		docRepo,
		export.NewRegistry(),
		cache.New(redisClient),
		jobs,
		broadcaster,
	)
	if err := docService.Load(ctx); err != nil {
		log.Fatal().Err(err).Msg("failed to load documents")
	}
	binderService := binder.NewService(binderRepo, eventService, docService)

	// Initialize handlers
	userHandler := user.NewHandler(userService)
	eventHandler := event.NewHandler(eventService)
	docHandler := document.NewHandler(docService)
	binderHandler := binder.NewHandler(binderService)
	relayHandler := relay.NewHandler(broadcaster, docService, relay.Config{
		MaxMessageBytes: cfg.RelayMaxMessageBytes,
		QueueSize:       cfg.RelayQueueSize,
		IdleTimeout:     cfg.RelayIdleTimeout,
	}, appLog)

	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery(), logger.Gin(appLog))

	// cors setting
	corsConfig := cors.Config{
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{"Content-Length", "Content-Disposition"},
		AllowCredentials: false,
	}
	if cfg.Environment == "development" {
		// Allow all origins in development
		corsConfig.AllowAllOrigins = true
	} else {
		corsConfig.AllowOrigins = []string{cfg.FrontendAddress}
	}
	router.Use(cors.New(corsConfig))
	router.Use(middleware.ErrorHandler())

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// User routes
	router.POST("/register", userHandler.Register)
	router.POST("/login", userHandler.Login)

	authMiddleware := &middleware.Auth{Users: userService}
	authed := router.Group("/", authMiddleware.AuthMiddleWare())
	authed.DELETE("/logout", userHandler.Logout)
	authed.GET("/profile", userHandler.GetProfile)

	authed.GET("/events", eventHandler.List)
	authed.GET("/events/mine", userHandler.MyEvents)
	authed.POST("/events/select", userHandler.SelectEvents)
	authed.GET("/events/:id", eventHandler.Show)

	authed.GET("/binders", binderHandler.List)
	authed.POST("/binders", binderHandler.Create)

	docHandler.RegisterRoutes(authed)
	authed.GET("/ws/documents/:id", relayHandler.Connect)

	// Server configuration
	server := &http.Server{
		Addr:              fmt.Sprintf(":%s", cfg.ServerPort),
		Handler:           router.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Start server
	go func() {
		log.Info().Str("port", cfg.ServerPort).Msg("server listening")
		err := server.ListenAndServe()
		if err != nil && !defError.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server failed to start")
		}
	}()

	// Graceful shutdown
	<-ctx.Done()
	log.Info().Msg("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server shutdown error")
	}
	// pending document saves drain before the db closes
	jobs.Shutdown()
	log.Info().Msg("server shutdown complete")
}
