package main

import (
	"log"

	"github.com/gin-gonic/gin"

	"github.com/anonboard/backend/config"
	"github.com/anonboard/backend/internal/auth"
	"github.com/anonboard/backend/internal/cache"
	"github.com/anonboard/backend/internal/database"
	"github.com/anonboard/backend/internal/halls"
	"github.com/anonboard/backend/internal/handlers"
	"github.com/anonboard/backend/internal/middleware"
	"github.com/anonboard/backend/internal/moderation"
	"github.com/anonboard/backend/internal/repository"
	"github.com/anonboard/backend/internal/sweeper"
	"github.com/anonboard/backend/internal/websocket"
)

const (
	defaultAdminUsername = "admin"
	defaultAdminPassword = "admin123"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Connect to database
	db, err := database.NewPostgresDB(cfg.GetDSN())
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	// Run migrations
	log.Println("Running database migrations...")
	if err := database.RunMigrations(db.DB); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}
	log.Println("Migrations completed successfully")

	// Connect to Redis
	redis, err := cache.NewRedisClient(cfg.GetRedisAddr(), cfg.Redis.Password, cfg.Redis.DB)
	if err != nil {
		log.Printf("Warning: Failed to connect to Redis: %v", err)
		log.Println("Running without Redis - realtime chat will be unavailable")
		redis = nil
	} else {
		defer redis.Close()
	}

	// Initialize repositories
	hallRepo := repository.NewHallRepository(db)
	msgRepo := repository.NewHallMessageRepository(db)
	adminRepo := repository.NewAdminRepository(db)
	wordRepo := repository.NewBannedWordRepository(db)
	postRepo := repository.NewPostRepository(db)
	imageRepo := repository.NewSiteImageRepository(db)

	// Seed the default admin account if none exists yet
	if err := auth.EnsureDefaultAdmin(adminRepo, defaultAdminUsername, defaultAdminPassword); err != nil {
		log.Fatalf("Failed to ensure default admin: %v", err)
	}

	// Initialize services
	verifier := auth.NewVerifier(adminRepo)
	jwtService := auth.NewJWTService(cfg.JWT.Secret, cfg.JWT.ExpiryHours)

	// Moderation gate: blocklist plus optional external toxicity scoring
	var scorer moderation.Scorer
	if cfg.Moderation.ScoringURL != "" {
		scorer = moderation.NewScoringClient(cfg.Moderation.ScoringURL, cfg.Moderation.ScoringAPIKey, cfg.Moderation.ScoringTimeout)
	} else {
		log.Println("No toxicity scoring endpoint configured - moderation uses the blocklist only")
	}

	gate := moderation.NewGate(wordRepo, scorer)
	if err := gate.LoadBlocklist(); err != nil {
		log.Printf("Warning: failed to load blocklist: %v", err)
	}

	stop := make(chan struct{})
	defer close(stop)
	gate.StartRefresh(cfg.Moderation.BlocklistRefresh, stop)

	hallService := halls.NewService(hallRepo, msgRepo, verifier)

	// Background sweeper flips overdue halls to expired
	go sweeper.New(hallRepo, cfg.Sweeper.Interval).Run(stop)

	// Initialize WebSocket hub (only if Redis is available)
	var wsHandler *websocket.Handler
	if redis != nil {
		hub := websocket.NewHub(hallService, redis)
		go hub.Run()

		pubsub := redis.SubscribeToHallMessages()
		go func() {
			for msg := range pubsub.Channel() {
				hub.Dispatch([]byte(msg.Payload))
			}
		}()

		wsHandler = websocket.NewHandler(hub, gate, redis, cfg.API.RateLimitPerSec, cfg.CORS.AllowedOrigins)
	}

	// Initialize handlers
	hallHandler := handlers.NewHallHandler(hallService, redis)
	postHandler := handlers.NewPostHandler(postRepo, gate)
	adminHandler := handlers.NewAdminHandler(verifier, jwtService, imageRepo, wordRepo, gate)

	// Initialize rate limiter
	rateLimiter := middleware.NewRateLimiter(cfg.API.RateLimitPerSec)
	rateLimiter.Cleanup()

	// Setup Gin router
	if cfg.Server.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.Default()

	// Middleware
	router.Use(middleware.CORSMiddleware(cfg.CORS.AllowedOrigins))

	// Health check
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	// WebSocket endpoint (only if Redis is available)
	if wsHandler != nil {
		router.GET("/ws", wsHandler.HandleWebSocket)
	}

	api := router.Group("/api")
	{
		// Hall routes (credentials for mutations travel in the body)
		api.POST("/halls", hallHandler.CreateHall)
		api.GET("/halls", hallHandler.ListHalls)
		api.GET("/halls/:id", hallHandler.GetHall)
		api.DELETE("/halls/:id", hallHandler.DeleteHall)
		api.GET("/halls/:id/messages", hallHandler.ListMessages)
		api.GET("/halls/:id/online", hallHandler.OnlineCount)

		// Anonymous board
		api.GET("/posts", postHandler.ListPosts)
		api.POST("/posts", middleware.RateLimitMiddleware(rateLimiter), postHandler.CreatePost)
		api.POST("/posts/:id/like", postHandler.LikePost)
		api.GET("/posts/:id/comments", postHandler.ListComments)
		api.POST("/posts/:id/comments", middleware.RateLimitMiddleware(rateLimiter), postHandler.CreateComment)

		// Site images
		api.GET("/banner", adminHandler.GetBanner)
		api.GET("/background", adminHandler.GetBackground)

		api.POST("/admin/login", adminHandler.Login)

		// Token-protected admin routes
		admin := api.Group("/admin")
		admin.Use(middleware.AdminAuthMiddleware(jwtService))
		{
			admin.POST("/banner", adminHandler.SetBanner)
			admin.POST("/background", adminHandler.SetBackground)
			admin.GET("/banned-words", adminHandler.ListBannedWords)
			admin.POST("/banned-words", adminHandler.AddBannedWord)
			admin.DELETE("/banned-words/:word", adminHandler.RemoveBannedWord)
		}
	}

	// Start server
	addr := ":" + cfg.Server.Port
	log.Printf("Starting server on %s (env: %s)", addr, cfg.Server.Env)
	if err := router.Run(addr); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
