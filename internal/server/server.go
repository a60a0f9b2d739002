// Package server contains the HTTP and WebSocket handlers of the Scrolla API.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	_ "scrolla/docs" // swagger docs
	"scrolla/internal/bootstrap"
	"scrolla/internal/cache"
	"scrolla/internal/config"
	"scrolla/internal/database"
	"scrolla/internal/featureflags"
	"scrolla/internal/media"
	"scrolla/internal/middleware"
	"scrolla/internal/models"
	"scrolla/internal/notifications"
	"scrolla/internal/repository"
	"scrolla/internal/service"

	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/gofiber/swagger"
	"github.com/redis/go-redis/v9"
)

// Server holds all dependencies and provides handlers
type Server struct {
	config         *config.Config
	runtime        *bootstrap.Runtime
	store          *database.Store
	redis          *redis.Client
	app            *fiber.App
	promMiddleware *fiberprometheus.FiberPrometheus
	shutdownCtx    context.Context
	shutdownFn     context.CancelFunc

	userRepo     repository.UserRepository
	notifier     *notifications.Notifier
	natsPub      *notifications.NatsPublisher
	hub          *notifications.Hub
	featureFlags *featureflags.Manager
	rateLimiter  *middleware.RateLimiter
	uploader     *media.Uploader

	postService    *service.PostService
	commentService *service.CommentService
	userService    *service.UserService
	followService  *service.FollowService
	journeyService *service.JourneyService
}

// NewServer builds a Server on top of the connections opened by
// bootstrap.InitRuntime. The runtime is owned by the server from here on and
// released in Shutdown.
func NewServer(cfg *config.Config, rt *bootstrap.Runtime) (*Server, error) {
	if rt == nil || rt.Store == nil {
		return nil, errors.New("server: runtime without a database store")
	}
	db := rt.Store.DB()

	userRepo := repository.NewUserRepository(db)
	postRepo := repository.NewPostRepository(db)
	commentRepo := repository.NewCommentRepository(db)
	followRepo := repository.NewFollowRepository(db)
	journeyRepo := rt.Journeys
	if journeyRepo == nil {
		journeyRepo = repository.NewJourneyRepository(db)
	}
	storage := rt.Storage
	if storage == nil {
		storage = media.NewLocalStorage(cfg.MediaLocalDir, cfg.MediaPublicBase)
	}

	// redis.Cmdable must stay a nil interface when Redis is absent.
	var cmdable redis.Cmdable
	if rt.Redis != nil {
		cmdable = rt.Redis
	}
	feed := cache.New(cmdable)
	flags := featureflags.NewManager(cfg.FeatureFlags)

	s := &Server{
		config:         cfg,
		runtime:        rt,
		store:          rt.Store,
		redis:          rt.Redis,
		promMiddleware: middleware.InitMetrics("scrolla-api"),
		userRepo:       userRepo,
		notifier:       notifications.NewNotifier(rt.Redis),
		natsPub:        notifications.NewNatsPublisher(rt.NATS),
		hub:            notifications.NewHub(rt.Redis),
		featureFlags:   flags,
		rateLimiter:    middleware.NewRateLimiter(cmdable, cfg.Env),
		uploader:       media.NewUploader(media.NewProcessor(cfg.MediaMaxSizeMB), storage),
	}
	s.postService = service.NewPostService(postRepo, commentRepo, userRepo, feed, flags)
	s.commentService = service.NewCommentService(commentRepo, postRepo, feed)
	s.userService = service.NewUserService(userRepo, followRepo, feed)
	s.followService = service.NewFollowService(followRepo, userRepo)
	s.journeyService = service.NewJourneyService(journeyRepo)

	return s, nil
}

// FeatureFlags exposes the live flag set so callers can hot-reload it.
func (s *Server) FeatureFlags() *featureflags.Manager {
	return s.featureFlags
}

// SetupMiddleware configures middleware for the Fiber app
func (s *Server) SetupMiddleware(app *fiber.App) {
	// Panic recovery
	app.Use(recover.New())

	// Request ID for tracing
	app.Use(requestid.New())

	app.Use(middleware.TracingMiddleware())

	// Context Middleware to propagate Request ID, Trace ID and User ID
	app.Use(middleware.ContextMiddleware())

	// Prometheus Metrics
	if s.promMiddleware != nil {
		app.Use(middleware.MetricsMiddleware(s.promMiddleware))
	}

	// Security headers. Uploaded images are served cross-origin to the web client.
	app.Use(helmet.New(helmet.Config{
		CrossOriginResourcePolicy: "cross-origin",
	}))

	// Structured Logging middleware (after requestid and context middleware)
	app.Use(middleware.StructuredLogger())

	// CORS runs before anything that can short-circuit so error responses
	// still carry CORS headers.
	origins := s.config.AllowedOrigins
	if origins == "" {
		origins = "http://localhost:5173,http://localhost:3000,http://127.0.0.1:5173"
	}

	app.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization, Upgrade, Connection, Sec-WebSocket-Key, Sec-WebSocket-Version",
		AllowCredentials: origins != "*",
		MaxAge:           86400, // 24 hours
	}))

	// Global rate limiting (100 requests per minute per IP)
	app.Use(limiter.New(limiter.Config{
		Max:        100,
		Expiration: 1 * time.Minute,
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
	api := app.Group("/api")

	// Health checks
	app.Get("/health/live", s.LivenessCheck)
	app.Get("/health/ready", s.ReadinessCheck)
	app.Get("/health", s.ReadinessCheck)

	if s.promMiddleware != nil {
		s.promMiddleware.RegisterAt(app, "/metrics")
	}
	app.Get("/swagger/*", swagger.HandlerDefault)

	if s.config.MediaDriver == "local" && s.config.MediaLocalDir != "" {
		app.Static(s.config.MediaPublicBase, s.config.MediaLocalDir, fiber.Static{
			MaxAge: 86400,
		})
	}

	// Auth routes
	auth := api.Group("/auth")
	auth.Post("/register", s.rateLimiter.Limit(5, 10*time.Minute, "register", middleware.FailOpen), s.Register)
	auth.Post("/login", s.rateLimiter.Limit(10, 5*time.Minute, "login", middleware.FailOpen), s.Login)
	auth.Get("/me", s.AuthRequired(), s.Me)
	auth.Post("/logout", s.AuthRequired(), s.Logout)

	api.Get("/feature-flags", s.OptionalAuth(), s.GetFeatureFlags)

	// User routes. Specific routes come before the generic /:id routes.
	users := api.Group("/users")
	users.Get("/me/saved", s.AuthRequired(), s.GetSavedPosts)
	users.Get("/:id/followers", s.GetFollowers)
	users.Get("/:id/following", s.GetFollowing)
	users.Post("/:id/follow", s.AuthRequired(),
		s.rateLimiter.Limit(30, time.Minute, "follow", middleware.FailOpen), s.FollowUser)
	users.Delete("/:id/follow", s.AuthRequired(), s.UnfollowUser)
	users.Get("/:id", s.OptionalAuth(), s.GetUserProfile)
	users.Put("/:id", s.AuthRequired(), s.UpdateUserProfile)

	// Post routes
	posts := api.Group("/posts")
	posts.Get("/", s.OptionalAuth(), s.GetPosts)
	posts.Get("/user/:userId", s.OptionalAuth(), s.GetUserPosts)
	posts.Get("/:id/comments", s.GetComments)
	posts.Get("/:id", s.OptionalAuth(), s.GetPost)
	posts.Post("/", s.AuthRequired(),
		s.rateLimiter.Limit(10, time.Minute, "create_post", middleware.FailOpen), s.CreatePost)
	posts.Post("/:id/like", s.AuthRequired(), s.LikePost)
	posts.Post("/:id/save", s.AuthRequired(), s.SavePost)
	posts.Post("/:id/hide", s.AuthRequired(), s.HidePost)
	posts.Post("/:id/report", s.AuthRequired(),
		s.rateLimiter.Limit(10, 10*time.Minute, "report", middleware.FailOpen), s.ReportPost)
	posts.Post("/:id/comments", s.AuthRequired(),
		s.rateLimiter.Limit(20, time.Minute, "create_comment", middleware.FailOpen), s.CreateComment)
	posts.Put("/:id", s.AuthRequired(), s.UpdatePost)
	posts.Delete("/:id", s.AuthRequired(), s.DeletePost)

	comments := api.Group("/comments", s.AuthRequired())
	comments.Put("/:id", s.UpdateComment)
	comments.Delete("/:id", s.DeleteComment)

	journeys := api.Group("/journeys", s.AuthRequired())
	journeys.Post("/start", s.StartJourney)
	journeys.Put("/:id/complete", s.CompleteJourney)
	journeys.Get("/history", s.GetJourneyHistory)

	upload := api.Group("/upload", s.AuthRequired(),
		s.rateLimiter.Limit(30, 10*time.Minute, "upload", middleware.FailOpen))
	upload.Post("/", s.UploadImage)
	upload.Post("/multiple", s.UploadImages)

	// WebSocket ticket issuance and the live feed
	api.Post("/ws/ticket", s.AuthRequired(), s.IssueWSTicket)
	api.Get("/ws/feed", s.OptionalAuth(), s.FeedWebsocketHandler())
}

// LivenessCheck handles liveness probe requests
// @Summary Liveness probe
// @Tags ops
// @Produce json
// @Success 200 {object} object{status=string,time=string}
// @Router /health/live [get]
func (s *Server) LivenessCheck(c *fiber.Ctx) error {
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"status": "up",
		"time":   time.Now(),
	})
}

// ReadinessCheck handles readiness probe requests. Redis is optional: when
// it is not configured it is reported but does not fail readiness.
// @Summary Readiness probe
// @Tags ops
// @Produce json
// @Success 200 {object} object{status=string}
// @Failure 503 {object} object{status=string}
// @Router /health/ready [get]
func (s *Server) ReadinessCheck(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), 5*time.Second)
	defer cancel()

	dbStatus := "healthy"
	if err := s.store.Ping(ctx); err != nil {
		dbStatus = "unhealthy"
	}

	redisStatus := "unavailable"
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
		"time": time.Now(),
	})
}

// newApp builds the Fiber app with middleware and routes installed.
func (s *Server) newApp() *fiber.App {
	bodyLimit := (s.config.MediaMaxSizeMB*media.MaxFilesPerRequest + 1) << 20
	app := fiber.New(fiber.Config{
		AppName:   "Scrolla API",
		BodyLimit: bodyLimit,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			var fe *fiber.Error
			if errors.As(err, &fe) {
				return c.Status(fe.Code).JSON(models.ErrorResponse{Error: fe.Message})
			}
			middleware.Logger.ErrorContext(c.UserContext(), "unhandled error", slog.String("error", err.Error()))
			return models.RespondWithError(c, fiber.StatusInternalServerError,
				models.NewInternalError(err))
		},
	})
	s.SetupMiddleware(app)
	s.SetupRoutes(app)
	return app
}

// Start wires realtime delivery and blocks serving HTTP.
func (s *Server) Start() error {
	ctx, cancel := context.WithCancel(context.Background())
	s.shutdownCtx = ctx
	s.shutdownFn = cancel

	s.app = s.newApp()

	if s.notifier.Enabled() {
		if err := s.hub.StartWiring(s.shutdownCtx, s.notifier); err != nil {
			middleware.Logger.Error("failed to start feed hub wiring", slog.String("error", err.Error()))
		}
	}

	middleware.Logger.Info("server starting", slog.String("port", s.config.Port))
	return s.app.Listen(":" + s.config.Port)
}

// Shutdown gracefully shuts down the server and releases the runtime.
func (s *Server) Shutdown(ctx context.Context) error {
	// Cancel the server-scoped context to stop the pub/sub subscriber
	if s.shutdownFn != nil {
		s.shutdownFn()
	}

	if s.app != nil {
		if err := s.app.ShutdownWithContext(ctx); err != nil {
			middleware.Logger.Error("error shutting down HTTP server", slog.String("error", err.Error()))
		}
	}

	if err := s.hub.Shutdown(ctx); err != nil {
		middleware.Logger.Error("error shutting down feed hub", slog.String("error", err.Error()))
	}

	if err := s.runtime.Close(ctx); err != nil {
		return fmt.Errorf("close runtime: %w", err)
	}

	middleware.Logger.Info("server shutdown complete")
	return nil
}
