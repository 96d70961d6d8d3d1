// Package server contains HTTP and WebSocket handlers for the application's API endpoints.
package server

import (
	"context"
	"log/slog"
	"strconv"
	"strings"
	"time"

	_ "pixelgram/docs" // swagger docs
	"pixelgram/internal/cache"
	"pixelgram/internal/config"
	"pixelgram/internal/middleware"
	"pixelgram/internal/models"
	"pixelgram/internal/notifications"
	"pixelgram/internal/observability"
	"pixelgram/internal/repository"
	"pixelgram/internal/service"

	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/monitor"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/gofiber/swagger"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

const wsTicketPrefix = "ws_ticket:"

// Server holds all dependencies and provides handlers
type Server struct {
	config         *config.Config
	db             *gorm.DB
	redis          *redis.Client
	app            *fiber.App
	promMiddleware *fiberprometheus.FiberPrometheus
	limiter        *middleware.RateLimiter
	shutdownCtx    context.Context
	shutdownFn     context.CancelFunc

	presence   *notifications.Presence
	registry   *notifications.Registry
	dispatcher *notifications.Dispatcher

	userRepo repository.UserRepository

	authService         *service.AuthService
	userService         *service.UserService
	socialService       *service.SocialService
	notificationService *service.NotificationService
	postService         *service.PostService
	feedService         *service.FeedService
	chatService         *service.ChatService
}

// NewServerWithDeps creates a Server using already-initialized dependencies.
// redisClient may be nil; the server then runs single-instance without
// cache, presence mirror, rate limits or ws tickets.
func NewServerWithDeps(cfg *config.Config, db *gorm.DB, redisClient *redis.Client) (*Server, error) {
	instanceID := cfg.InstanceID
	if instanceID == "" {
		instanceID = uuid.NewString()
	}

	store := cache.NewStore(redisClient)
	userRepo := repository.NewUserRepository(db, store)
	followRepo := repository.NewFollowRepository(db)
	postRepo := repository.NewPostRepository(db)
	commentRepo := repository.NewCommentRepository(db)
	likeRepo := repository.NewLikeRepository(db)
	notifRepo := repository.NewNotificationRepository(db)
	chatRepo := repository.NewChatRepository(db)
	searchRepo := repository.NewRecentSearchRepository(db, 20)

	wsLog := observability.NewWSLogger("presence")
	presence := notifications.NewPresence(redisClient, notifications.PresenceConfig{
		InstanceID: instanceID,
		OnOffline:  func(userID uint) {
			wsLog.LogLifecycle(context.Background(), "user_offline", slog.Uint64("user_id", uint64(userID)))
		},
	})
	registry := notifications.NewRegistry(notifications.RegistryConfig{
		MaxConnsPerUser: cfg.WSMaxConnsPerUser,
		MaxTotalConns:   cfg.WSMaxTotalConns,
		FramesPerSecond: cfg.WSFramesPerSecond,
	}, presence)
	dispatcher := notifications.NewDispatcher(registry, notifications.NewNotifier(redisClient, instanceID))

	s := &Server{
		config:         cfg,
		db:             db,
		redis:          redisClient,
		promMiddleware: middleware.InitMetrics("pixelgram-api"),
		limiter:        middleware.NewRateLimiter(redisClient, redisClient != nil && cfg.Env != "test"),
		presence:       presence,
		registry:       registry,
		dispatcher:     dispatcher,
		userRepo:       userRepo,
	}

	s.notificationService = service.NewNotificationService(notifRepo, userRepo, dispatcher)
	s.socialService = service.NewSocialService(userRepo, followRepo, postRepo, commentRepo, likeRepo, s.notificationService, store)
	s.userService = service.NewUserService(userRepo, followRepo, searchRepo, s.socialService, s.notificationService, presence, presence)
	s.postService = service.NewPostService(postRepo, commentRepo, userRepo)
	s.feedService = service.NewFeedService(followRepo, postRepo, cfg.FeedPageSize)
	s.chatService = service.NewChatService(chatRepo, userRepo, dispatcher)
	s.authService = service.NewAuthService(userRepo, cfg.JWTSecret)

	return s, nil
}

// NewApp builds the Fiber app with middleware and routes installed.
func (s *Server) NewApp() *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:   "Pixelgram API",
		BodyLimit: 4 * 1024 * 1024,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			if fe, ok := err.(*fiber.Error); ok {
				return c.Status(fe.Code).JSON(models.ErrorResponse{Error: fe.Message})
			}
			middleware.Logger.ErrorContext(c.UserContext(), "unhandled error", slog.String("error", err.Error()))
			return models.RespondWithError(c, fiber.StatusInternalServerError, models.NewInternalError(err))
		},
	})
	s.SetupMiddleware(app)
	s.SetupRoutes(app)
	return app
}

// SetupMiddleware configures middleware for the Fiber app
func (s *Server) SetupMiddleware(app *fiber.App) {
	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(middleware.TracingMiddleware())
	app.Use(middleware.ContextMiddleware())

	if s.promMiddleware != nil {
		app.Use(middleware.MetricsMiddleware(s.promMiddleware))
	}

	app.Use(helmet.New())
	app.Use(middleware.StructuredLogger())

	// CORS sits ahead of the limiter so 429 responses keep their headers.
	origins := s.config.AllowedOrigins
	if origins == "" {
		origins = "http://localhost:5173,http://localhost:3000,http://127.0.0.1:5173"
	}
	app.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization, Upgrade, Connection, Sec-WebSocket-Key, Sec-WebSocket-Version",
		AllowCredentials: true,
		MaxAge:           86400,
	}))

	app.Use(limiter.New(limiter.Config{
		Max:        100,
		Expiration: time.Minute,
		Next: func(c *fiber.Ctx) bool {
			return c.Method() == fiber.MethodOptions
		},
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"error": "Too many requests, please try again later.",
			})
		},
	}))
}

// SetupRoutes configures all routes for the application
func (s *Server) SetupRoutes(app *fiber.App) {
	app.Get("/health/live", s.LivenessCheck)
	app.Get("/health/ready", s.ReadinessCheck)

	if s.promMiddleware != nil {
		s.promMiddleware.RegisterAt(app, "/metrics")
	}

	api := app.Group("/api")
	api.Get("/metrics/dashboard", monitor.New(monitor.Config{Title: "Pixelgram Metrics"}))
	api.Get("/swagger/*", swagger.HandlerDefault)

	auth := api.Group("/auth")
	auth.Post("/signup", s.limiter.Middleware("signup", 3, 10*time.Minute, middleware.FailOpen), s.Signup)
	auth.Post("/login", s.limiter.Middleware("login", 10, 5*time.Minute, middleware.FailOpen), s.Login)

	// Public routes must be registered before the protected group.
	api.Get("/users/:username/posts.rss", s.GetUserPostsRSS)

	protected := api.Group("", s.AuthRequired())

	protected.Post("/ws/ticket", s.IssueWSTicket)
	protected.Get("/ws", s.WebsocketHandler())

	users := protected.Group("/users")
	users.Get("/me", s.GetMyProfile)
	users.Patch("/me", s.UpdateMyProfile)
	users.Get("/me/searches", s.GetRecentSearches)
	users.Post("/me/searches", s.AddRecentSearch)
	users.Delete("/me/searches", s.ClearRecentSearches)
	users.Get("/search", s.SearchUsers)
	users.Get("/:username/followers", s.GetFollowers)
	users.Get("/:username/following", s.GetFollowing)
	users.Post("/:username/follow", s.limiter.Middleware("follow", 60, time.Minute, middleware.FailOpen), s.FollowUser)
	users.Delete("/:username/follow", s.UnfollowUser)
	users.Get("/:username", s.GetUserProfile)

	protected.Get("/notifications", s.GetNotifications)

	posts := protected.Group("/posts")
	posts.Post("/", s.limiter.Middleware("create_post", 10, time.Minute, middleware.FailOpen), s.CreatePost)
	posts.Get("/feed", s.GetFeed)
	posts.Get("/explore", s.GetExplore)
	// Specific /:id/:resource routes before the generic /:id routes.
	posts.Post("/:id/like", s.LikePost)
	posts.Delete("/:id/like", s.UnlikePost)
	posts.Get("/:id/comments", s.GetComments)
	posts.Post("/:id/comments", s.limiter.Middleware("create_comment", 30, time.Minute, middleware.FailOpen), s.CreateComment)
	posts.Get("/:id", s.GetPost)
	posts.Patch("/:id", s.UpdatePost)
	posts.Delete("/:id", s.DeletePost)

	comments := protected.Group("/comments")
	comments.Post("/:id/like", s.LikeComment)
	comments.Delete("/:id/like", s.UnlikeComment)

	chats := protected.Group("/chats")
	chats.Post("/", s.StartChat)
	chats.Get("/", s.GetChats)
	chats.Get("/:id/messages", s.GetMessages)
	chats.Post("/:id/messages", s.limiter.Middleware("send_chat", 30, time.Minute, middleware.FailOpen), s.SendMessage)
}

// LivenessCheck handles liveness probe requests
func (s *Server) LivenessCheck(c *fiber.Ctx) error {
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"status": "up",
		"time":   time.Now(),
	})
}

// ReadinessCheck handles readiness probe requests
func (s *Server) ReadinessCheck(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), 5*time.Second)
	defer cancel()

	dbStatus := "healthy"
	sqlDB, err := s.db.DB()
	if err != nil {
		dbStatus = "unhealthy"
	} else if err := sqlDB.PingContext(ctx); err != nil {
		dbStatus = "unhealthy"
	}

	// Redis is optional: without it the instance still serves, alone.
	redisStatus := "disabled"
	if s.redis != nil {
		redisStatus = "healthy"
		if err := s.redis.Ping(ctx).Err(); err != nil {
			redisStatus = "unhealthy"
		}
	}

	status := fiber.StatusOK
	overallStatus := "healthy"
	if dbStatus == "unhealthy" || redisStatus == "unhealthy" {
		status = fiber.StatusServiceUnavailable
		overallStatus = "unhealthy"
	}

	return c.Status(status).JSON(fiber.Map{
		"status": overallStatus,
		"checks": fiber.Map{
			"database": dbStatus,
			"redis":    redisStatus,
		},
		"connections": s.registry.TotalConnections(),
		"time":        time.Now(),
	})
}

// AuthRequired returns the authentication middleware
func (s *Server) AuthRequired() fiber.Handler {
	return func(c *fiber.Ctx) error {
		isWSPath := c.Path() == "/api/ws"

		// Single-use websocket ticket first.
		if ticket := c.Query("ticket"); ticket != "" && s.redis != nil {
			userIDStr, err := s.redis.GetDel(c.UserContext(), wsTicketPrefix+ticket).Result()
			if err == nil {
				if userID, parseErr := strconv.ParseUint(userIDStr, 10, 64); parseErr == nil {
					return s.authenticated(c, uint(userID))
				}
			}
			if isWSPath {
				return models.RespondWithError(c, fiber.StatusUnauthorized,
					models.NewUnauthorizedError("Invalid or expired WebSocket ticket"))
			}
		}

		// Tokens in the query string are refused on the websocket path; use a ticket.
		tokenString := middleware.BearerToken(c.Get(fiber.HeaderAuthorization))
		if tokenString == "" && !isWSPath {
			tokenString = strings.TrimSpace(c.Query("token"))
		}
		if tokenString == "" {
			return models.RespondWithError(c, fiber.StatusUnauthorized,
				models.NewUnauthorizedError("Authorization required"))
		}

		claims, err := middleware.ParseToken(s.config.JWTSecret, tokenString)
		if err != nil {
			return models.RespondWithError(c, fiber.StatusUnauthorized,
				models.NewUnauthorizedError("Invalid or expired token"))
		}
		return s.authenticated(c, claims.UserID)
	}
}

func (s *Server) authenticated(c *fiber.Ctx, userID uint) error {
	c.Locals("userID", userID)
	c.SetUserContext(middleware.WithUserID(c.UserContext(), userID))
	return c.Next()
}

// Start builds the app, starts the cross-instance relay and listens.
func (s *Server) Start() error {
	ctx, cancel := context.WithCancel(context.Background())
	s.shutdownCtx = ctx
	s.shutdownFn = cancel

	s.app = s.NewApp()

	go func() {
		if err := s.dispatcher.Start(s.shutdownCtx); err != nil {
			middleware.Logger.Error("failed to start notification relay", slog.String("error", err.Error()))
		}
	}()

	middleware.Logger.Info("Server starting", slog.String("port", s.config.Port))
	return s.app.Listen(":" + s.config.Port)
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	if s.shutdownFn != nil {
		s.shutdownFn()
	}

	if s.app != nil {
		if err := s.app.ShutdownWithContext(ctx); err != nil {
			middleware.Logger.Error("error shutting down HTTP server", slog.String("error", err.Error()))
		}
	}

	if err := s.registry.Shutdown(ctx); err != nil {
		middleware.Logger.Error("error closing websocket connections", slog.String("error", err.Error()))
	}
	s.presence.Stop()

	if sqlDB, err := s.db.DB(); err == nil {
		if cerr := sqlDB.Close(); cerr != nil {
			middleware.Logger.Error("error closing sql DB", slog.String("error", cerr.Error()))
		}
	}

	if s.redis != nil {
		if rerr := s.redis.Close(); rerr != nil {
			middleware.Logger.Error("error closing redis", slog.String("error", rerr.Error()))
		}
	}

	middleware.Logger.Info("Server shutdown complete")
	return nil
}
