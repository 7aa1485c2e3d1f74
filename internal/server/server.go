// Package server contains HTTP handlers for the application's API endpoints.
package server

import (
	"context"
	"fmt"
	"time"

	"stuverflow/internal/cache"
	"stuverflow/internal/config"
	"stuverflow/internal/database"
	"stuverflow/internal/featureflags"
	"stuverflow/internal/middleware"
	"stuverflow/internal/notifications"
	"stuverflow/internal/repository"
	"stuverflow/internal/service"

	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Server holds all dependencies and provides handlers.
type Server struct {
	config         *config.Config
	db             *gorm.DB
	redis          *redis.Client
	promMiddleware *fiberprometheus.FiberPrometheus
	featureFlags   *featureflags.Manager

	userRepo      repository.UserRepository
	questionRepo  repository.QuestionRepository
	answerRepo    repository.AnswerRepository
	bookmarkRepo  repository.BookmarkRepository
	notifRepo     repository.NotificationRepository
	communityRepo repository.CommunityRepository
	messageRepo   repository.MessageRepository

	notifier            *notifications.Notifier
	userService         *service.UserService
	questionService     *service.QuestionService
	answerService       *service.AnswerService
	notificationService *service.NotificationService
	communityService    *service.CommunityService
	messageService      *service.MessageService
	trendingService     *service.TrendingService
	searchService       *service.SearchService
}

// NewServer creates a server instance, connecting the database and Redis.
func NewServer(cfg *config.Config) (*Server, error) {
	db, err := database.Connect(cfg)
	if err != nil {
		return nil, fmt.Errorf("database connection failed: %w", err)
	}

	cache.InitRedis(cfg.RedisURL)
	return NewServerWithDeps(cfg, db, cache.GetClient())
}

// NewServerWithDeps creates a Server using already-initialized dependencies.
// Tests use this with an in-memory database and miniredis.
func NewServerWithDeps(cfg *config.Config, db *gorm.DB, redisClient *redis.Client) (*Server, error) {
	s := &Server{
		config:         cfg,
		db:             db,
		redis:          redisClient,
		promMiddleware: middleware.InitMetrics("stuverflow-api"),
		featureFlags:   featureflags.NewManager(cfg.FeatureFlags),
	}

	s.userRepo = repository.NewUserRepository(db)
	s.questionRepo = repository.NewQuestionRepository(db)
	s.answerRepo = repository.NewAnswerRepository(db)
	s.bookmarkRepo = repository.NewBookmarkRepository(db)
	s.notifRepo = repository.NewNotificationRepository(db)
	s.communityRepo = repository.NewCommunityRepository(db)
	s.messageRepo = repository.NewMessageRepository(db)

	if redisClient != nil {
		s.notifier = notifications.NewNotifier(redisClient)
	}

	s.notificationService = service.NewNotificationService(s.notifRepo, s.notifier, s.featureFlags)
	s.userService = service.NewUserService(s.userRepo)
	s.questionService = service.NewQuestionService(s.questionRepo, s.bookmarkRepo, s.userRepo, s.notificationService)
	s.answerService = service.NewAnswerService(s.answerRepo, s.questionRepo, s.userRepo, s.notificationService)
	s.communityService = service.NewCommunityService(s.communityRepo, s.questionRepo, s.userRepo, s.notificationService)
	s.messageService = service.NewMessageService(s.messageRepo, s.communityRepo, s.userRepo, s.notificationService)
	s.trendingService = service.NewTrendingService(s.questionRepo, s.answerRepo, s.userRepo, s.featureFlags)
	s.searchService = service.NewSearchService(s.questionRepo, s.answerRepo, s.userRepo)

	return s, nil
}

// SetupMiddleware configures middleware for the Fiber app.
func (s *Server) SetupMiddleware(app *fiber.App) {
	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(middleware.ContextMiddleware())

	if s.promMiddleware != nil {
		app.Use(middleware.MetricsMiddleware(s.promMiddleware))
	}

	app.Use(helmet.New())
	app.Use(middleware.StructuredLogger())
	app.Use(middleware.TracingMiddleware())

	origins := s.config.AllowedOrigins
	if origins == "" {
		origins = "http://localhost:5173,http://localhost:3000"
	}
	// CORS runs before middlewares that can short-circuit (e.g. limiter) so
	// browser clients still get CORS headers on error responses.
	app.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization",
		AllowCredentials: true,
		MaxAge:           86400,
	}))

	// Global rate limiting (100 requests per minute per IP)
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
				"status":  "error",
				"message": "Too many requests, please try again later.",
			})
		},
	}))
}

// SetupRoutes configures all routes for the application.
func (s *Server) SetupRoutes(app *fiber.App) {
	app.Get("/health/live", s.LivenessCheck)
	app.Get("/health/ready", s.ReadinessCheck)

	if s.promMiddleware != nil {
		s.promMiddleware.RegisterAt(app, "/metrics")
	}

	api := app.Group("/api")

	auth := api.Group("/auth")
	auth.Post("/signup", middleware.RateLimit(s.redis, 3, 10*time.Minute, "signup"), s.Signup)
	auth.Post("/login", middleware.RateLimit(s.redis, 10, 5*time.Minute, "login"), s.Login)
	auth.Post("/logout", s.Logout)
	auth.Post("/reset-password/request", middleware.RateLimit(s.redis, 3, 10*time.Minute, "reset_request"), s.RequestPasswordReset)
	auth.Post("/reset-password", s.ResetPassword)

	protected := api.Group("", middleware.AuthRequired)

	users := protected.Group("/users")
	users.Get("/new", s.GetNewUsers)
	// Specific /:id/:resource routes before the generic /:id route.
	users.Get("/:id/questions/interests", s.GetUserQuestionsByInterests)
	users.Get("/:id/questions", s.GetUserQuestions)
	users.Get("/:id/bookmarks", s.GetUserBookmarks)
	users.Put("/:id", s.UpdateProfile)
	users.Get("/:id", s.GetProfile)

	questions := protected.Group("/questions")
	questions.Get("/", s.GetQuestions)
	questions.Post("/", s.CreateQuestion)
	questions.Get("/hot", s.GetHotQuestions)
	questions.Get("/trending", s.GetTrendingQuestions)
	questions.Post("/:id/vote", middleware.RateLimit(s.redis, 30, time.Minute, "vote"), s.VoteQuestion)
	questions.Post("/:id/bookmark", s.ToggleBookmark)
	questions.Get("/:id/answers", s.GetAnswers)
	questions.Post("/:id/answers", s.CreateAnswer)
	questions.Get("/:id", s.GetQuestion)
	questions.Delete("/:id", s.DeleteQuestion)

	answers := protected.Group("/answers")
	answers.Put("/:id", s.UpdateAnswer)
	answers.Delete("/:id", s.DeleteAnswer)
	answers.Post("/:id/vote", middleware.RateLimit(s.redis, 30, time.Minute, "vote"), s.VoteAnswer)
	answers.Post("/:id/accept", s.AcceptAnswer)

	notifs := protected.Group("/notifications")
	notifs.Get("/", s.GetNotifications)
	notifs.Get("/summary", s.GetNotificationSummary)
	notifs.Post("/mark-all-read", s.MarkAllNotificationsRead)
	notifs.Post("/:id/read", s.MarkNotificationRead)
	notifs.Delete("/:id", s.DeleteNotification)

	trending := protected.Group("/trending")
	trending.Get("/tags", s.GetTrendingTags)
	trending.Get("/topics", s.GetTrendingTopics)
	trending.Get("/users", s.GetTrendingUsers)

	search := protected.Group("/search")
	search.Get("/questions", middleware.RateLimit(s.redis, 20, time.Minute, "search"), s.SearchQuestions)
	search.Get("/users", middleware.RateLimit(s.redis, 20, time.Minute, "search"), s.SearchUsers)

	communities := protected.Group("/communities")
	communities.Get("/", s.GetCommunities)
	communities.Post("/", s.CreateCommunity)
	communities.Post("/:id/join", s.JoinCommunity)
	communities.Post("/:id/leave", s.LeaveCommunity)
	communities.Get("/:id/membership", s.GetMembership)
	communities.Get("/:id/members/:userID", s.CheckMember)
	communities.Get("/:id/members", s.GetMembers)
	communities.Get("/:id/admin/join-requests", s.GetJoinRequests)
	communities.Post("/:id/admin/join-requests/:membershipID/approve", s.ApproveJoinRequest)
	communities.Post("/:id/admin/join-requests/:membershipID/decline", s.DeclineJoinRequest)
	communities.Get("/:id/questions", s.GetCommunityQuestions)
	communities.Post("/:id/questions/ask", s.AskCommunityQuestion)
	communities.Post("/:id/questions", s.AddCommunityQuestion)
	communities.Delete("/:id/questions/:questionID", s.RemoveCommunityQuestion)
	communities.Get("/:id/messages", s.GetCommunityMessages)
	communities.Post("/:id/messages", middleware.RateLimit(s.redis, 15, time.Minute, "post_message"), s.PostCommunityMessage)
	communities.Post("/:id/messages/:messageID/reply", s.ReplyCommunityMessage)
	communities.Post("/:id/messages/:messageID/like", s.LikeCommunityMessage)
	communities.Delete("/:id/messages/:messageID", s.DeleteCommunityMessage)
	communities.Get("/:id", s.GetCommunity)
	communities.Delete("/:id", s.DeleteCommunity)
}

// LivenessCheck handles liveness probe requests.
func (s *Server) LivenessCheck(c *fiber.Ctx) error {
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"status": "up",
		"time":   time.Now(),
	})
}

// ReadinessCheck reports database and Redis health.
func (s *Server) ReadinessCheck(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.Context(), 5*time.Second)
	defer cancel()

	dbStatus := "healthy"
	sqlDB, err := s.db.DB()
	if err != nil {
		dbStatus = "unhealthy"
	} else if err := sqlDB.PingContext(ctx); err != nil {
		dbStatus = "unhealthy"
	}

	redisStatus := "healthy"
	if s.redis != nil {
		if err := s.redis.Ping(ctx).Err(); err != nil {
			redisStatus = "unhealthy"
		}
	} else {
		// The cache is optional; readiness only degrades on a broken client.
		redisStatus = "unavailable"
	}

	status := fiber.StatusOK
	overall := "healthy"
	if dbStatus == "unhealthy" || redisStatus == "unhealthy" {
		status = fiber.StatusServiceUnavailable
		overall = "unhealthy"
	}

	return c.Status(status).JSON(fiber.Map{
		"status": overall,
		"checks": fiber.Map{
			"database": dbStatus,
			"redis":    redisStatus,
		},
		"time": time.Now(),
	})
}
