// Package server contains the HTTP handlers for the application's API endpoints.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	_ "talenthub/docs" // swagger docs
	"talenthub/internal/bootstrap"
	"talenthub/internal/cache"
	"talenthub/internal/config"
	"talenthub/internal/featureflags"
	"talenthub/internal/middleware"
	"talenthub/internal/models"
	"talenthub/internal/repository"
	"talenthub/internal/service"

	"github.com/ansrivas/fiberprometheus/v2"
	sentryfiber "github.com/getsentry/sentry-go/fiber"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/monitor"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/gofiber/swagger"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// BodyLimit admits the largest video upload plus multipart overhead.
const BodyLimit = 110 * 1024 * 1024

// Server holds all dependencies and provides handlers
type Server struct {
	config         *config.Config
	db             *gorm.DB
	readDB         *gorm.DB
	redis          *redis.Client
	app            *fiber.App
	promMiddleware *fiberprometheus.FiberPrometheus
	tokens         *middleware.TokenManager
	featureFlags   *featureflags.Manager

	userRepo      repository.UserRepository
	challengeRepo repository.ChallengeRepository
	imageRepo     repository.MediaRepository[models.Image]
	videoRepo     repository.MediaRepository[models.Video]

	authService      *service.AuthService
	userService      *service.UserService
	challengeService *service.ChallengeService
	mediaService     *service.MediaService

	users      *crudHandler[models.User]
	challenges *crudHandler[models.Challenge]
	videos     *crudHandler[models.Video]
}

// NewServer opens the runtime connections and builds the server.
func NewServer(ctx context.Context, cfg *config.Config) (*Server, error) {
	rt, err := bootstrap.InitRuntime(ctx, cfg, bootstrap.Options{})
	if err != nil {
		return nil, err
	}
	return newServer(cfg, rt.DB, rt.ReadDB, rt.Redis), nil
}

// NewServerWithDeps creates a Server using already-initialized dependencies.
// readDB and redisClient may be nil.
func NewServerWithDeps(cfg *config.Config, db, readDB *gorm.DB, redisClient *redis.Client) (*Server, error) {
	if db == nil {
		return nil, fmt.Errorf("database handle is required")
	}
	return newServer(cfg, db, readDB, redisClient), nil
}

func newServer(cfg *config.Config, db, readDB *gorm.DB, redisClient *redis.Client) *Server {
	handles := repository.Handles{DB: db, Read: readDB, Cache: cache.New(redisClient)}

	s := &Server{
		config:         cfg,
		db:             db,
		readDB:         readDB,
		redis:          redisClient,
		promMiddleware: middleware.InitMetrics("talenthub-api"),
		tokens:         middleware.NewTokenManager(cfg.JWTSecret, cfg.JWTExpiresIn),
		featureFlags:   featureflags.NewManager(cfg.FeatureFlags),
		userRepo:       repository.NewUserRepository(handles),
		challengeRepo:  repository.NewChallengeRepository(handles),
		imageRepo:      repository.NewImageRepository(handles),
		videoRepo:      repository.NewVideoRepository(handles),
	}

	s.authService = service.NewAuthService(s.userRepo, s.tokens, redisClient)
	s.userService = service.NewUserService(s.userRepo)
	s.challengeService = service.NewChallengeService(s.challengeRepo, s.userRepo, s.featureFlags)
	s.mediaService = service.NewMediaService(s.imageRepo, s.videoRepo, cfg)

	s.users = newCRUDHandler[models.User](s.userRepo, "User")
	s.challenges = newCRUDHandler[models.Challenge](s.challengeRepo, "Challenge")
	s.videos = newCRUDHandler[models.Video](s.videoRepo, "Video")

	return s
}

// SetupMiddleware configures middleware for the Fiber app
func (s *Server) SetupMiddleware(app *fiber.App) {
	app.Use(recover.New())
	app.Use(requestid.New())

	// Context Middleware to propagate Request ID and User ID
	app.Use(middleware.ContextMiddleware())
	app.Use(middleware.TracingMiddleware())

	if s.config.SentryDSN != "" {
		app.Use(sentryfiber.New(sentryfiber.Options{
			Repanic:         true,
			WaitForDelivery: false,
		}))
	}

	if s.promMiddleware != nil {
		app.Use(middleware.MetricsMiddleware(s.promMiddleware))
	}

	// Uploaded files are served cross-origin by the frontend.
	app.Use(helmet.New(helmet.Config{
		CrossOriginResourcePolicy: "cross-origin",
	}))

	app.Use(middleware.StructuredLogger())

	// CORS must run before the limiter so error responses still carry CORS headers.
	origins := s.config.AllowedOrigins
	if origins == "" {
		origins = "http://localhost:5173,http://localhost:3000,http://127.0.0.1:5173"
	}
	app.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization",
		AllowMethods:     "GET,POST,PUT,PATCH,DELETE,OPTIONS",
		AllowCredentials: true,
		MaxAge:           86400,
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
			return c.Status(fiber.StatusTooManyRequests).JSON(models.ErrorResponse{
				Error: "Too many requests, please try again later.",
			})
		},
	}))
}

// SetupRoutes configures all routes for the application
func (s *Server) SetupRoutes(app *fiber.App) {
	app.Get("/health/live", s.LivenessCheck)
	app.Get("/health/ready", s.ReadinessCheck)
	app.Get("/health", s.ReadinessCheck)

	if s.promMiddleware != nil {
		s.promMiddleware.RegisterAt(app, "/metrics")
	}

	app.Static(service.PublicUploadPrefix, s.mediaService.UploadDir(), fiber.Static{
		Browse: false,
	})

	api := app.Group("/api")
	api.Get("/", s.ReadinessCheck)
	api.Get("/metrics/dashboard", monitor.New(monitor.Config{
		Title: "TalentHub Metrics Dashboard",
	}))
	api.Get("/swagger/*", swagger.HandlerDefault)

	auth := s.AuthRequired()
	adminTier := s.RequireRoles(models.RoleAdmin, models.RoleSuperAdmin)
	superAdmin := s.SuperAdminRequired()

	// User routes. Fixed paths are registered before /:id.
	users := api.Group("/users")
	users.Post("/register", middleware.RateLimit(s.redis, middleware.RateLimitPolicy{
		Name: "register", Limit: 5, Window: 10 * time.Minute,
	}), s.Register)
	users.Post("/login", middleware.RateLimit(s.redis, middleware.RateLimitPolicy{
		Name: "login", Limit: 10, Window: 5 * time.Minute,
	}), s.Login)
	users.Post("/logout", auth, s.Logout)
	users.Get("/profile", auth, s.GetProfile)
	users.Patch("/profile", auth, s.UpdateProfile)
	users.Get("/stats", auth, s.GetMyStats)
	users.Post("/request-admin", auth, s.RequestAdminRole)
	users.Get("/pending-admin-requests", auth, superAdmin, s.GetPendingAdminRequests)
	users.Patch("/process-admin-request/:userId", auth, superAdmin, s.ProcessAdminRequest)
	users.Get("/search", auth, adminTier, middleware.RateLimit(s.redis, middleware.RateLimitPolicy{
		Name: "user_search", Limit: 30, Window: time.Minute,
	}), s.SearchUsers)
	users.Get("/", auth, adminTier, s.users.List)
	users.Patch("/:id/stats", auth, adminTier, s.SetUserChallengeLists)
	users.Get("/:id", auth, adminTier, s.users.Get)
	users.Patch("/:id", auth, adminTier, s.UpdateUser)
	users.Delete("/:id", auth, adminTier, s.DeleteUser)

	// Challenge routes
	challenges := api.Group("/challenges")
	challenges.Get("/", s.challenges.List)
	challenges.Get("/stats", s.GetChallengeStats)
	challenges.Get("/search", middleware.RateLimit(s.redis, middleware.RateLimitPolicy{
		Name: "challenge_search", Limit: 30, Window: time.Minute,
	}), s.SearchChallenges)
	challenges.Get("/user/:userId", auth, s.GetCreatorChallengeStats)
	challenges.Post("/", auth, middleware.RateLimit(s.redis, middleware.RateLimitPolicy{
		Name: "create_challenge", Limit: 10, Window: 10 * time.Minute,
	}), s.CreateChallenge)
	challenges.Post("/:id/participate", auth, s.Participate)
	challenges.Patch("/:id/status", auth, adminTier, s.UpdateChallengeStatus)
	challenges.Get("/:id", s.challenges.Get)
	challenges.Patch("/:id", auth, adminTier, s.UpdateChallenge)
	challenges.Delete("/:id", auth, adminTier, s.challenges.Delete)

	// Media routes
	images := api.Group("/images", auth)
	images.Post("/upload", middleware.RateLimit(s.redis, middleware.RateLimitPolicy{
		Name: "image_upload", Limit: 20, Window: 10 * time.Minute,
	}), s.UploadImage)
	images.Get("/", s.GetMyImages)
	images.Delete("/:id", s.DeleteImage)

	videos := api.Group("/videos", auth)
	videos.Post("/upload", middleware.RateLimit(s.redis, middleware.RateLimitPolicy{
		Name: "video_upload", Limit: 5, Window: 10 * time.Minute,
	}), s.UploadVideo)
	videos.Get("/", s.videos.List)
	videos.Delete("/:id", s.DeleteVideo)

	admin := api.Group("/admin", auth, adminTier)
	admin.Get("/feature-flags", s.GetFeatureFlags)
}

// LivenessCheck handles liveness probe requests
func (s *Server) LivenessCheck(c *fiber.Ctx) error {
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"status": "up",
		"time":   time.Now(),
	})
}

// ReadinessCheck handles readiness probe requests. Redis is optional: the API
// degrades without it, so its absence does not fail readiness.
func (s *Server) ReadinessCheck(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), 5*time.Second)
	defer cancel()

	dbStatus := pingDB(ctx, s.db)
	replicaStatus := "unconfigured"
	if s.readDB != nil {
		replicaStatus = pingDB(ctx, s.readDB)
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
	if dbStatus != "healthy" {
		status = fiber.StatusServiceUnavailable
		overallStatus = "unhealthy"
	} else if redisStatus == "unhealthy" || replicaStatus == "unhealthy" {
		overallStatus = "degraded"
	}

	return c.Status(status).JSON(fiber.Map{
		"status": overallStatus,
		"checks": fiber.Map{
			"database": dbStatus,
			"replica":  replicaStatus,
			"redis":    redisStatus,
		},
		"time": time.Now(),
	})
}

func pingDB(ctx context.Context, db *gorm.DB) string {
	sqlDB, err := db.DB()
	if err != nil {
		return "unhealthy"
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		return "unhealthy"
	}
	return "healthy"
}

// NewApp returns a fiber app configured with the API's error handler and
// body limit.
func NewApp() *fiber.App {
	return fiber.New(fiber.Config{
		AppName:   "TalentHub API",
		BodyLimit: BodyLimit,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			if fe, ok := err.(*fiber.Error); ok {
				return c.Status(fe.Code).JSON(models.ErrorResponse{Error: fe.Message})
			}
			middleware.Logger.ErrorContext(c.UserContext(), "unhandled error", slog.String("error", err.Error()))
			return models.RespondWithError(c, fiber.StatusInternalServerError, models.NewInternalError(err))
		},
	})
}

// Start builds the app and listens on the configured port.
func (s *Server) Start() error {
	s.app = NewApp()
	s.SetupMiddleware(s.app)
	s.SetupRoutes(s.app)

	middleware.Logger.Info("server starting", slog.String("port", s.config.Port))
	return s.app.Listen(":" + s.config.Port)
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	if s.app != nil {
		if err := s.app.ShutdownWithContext(ctx); err != nil {
			middleware.Logger.Error("error shutting down HTTP server", slog.String("error", err.Error()))
		}
	}

	for _, db := range []*gorm.DB{s.db, s.readDB} {
		if db == nil {
			continue
		}
		if sqlDB, err := db.DB(); err == nil {
			if cerr := sqlDB.Close(); cerr != nil {
				middleware.Logger.Error("error closing sql DB", slog.String("error", cerr.Error()))
			}
		}
	}

	if s.redis != nil {
		if rerr := s.redis.Close(); rerr != nil {
			middleware.Logger.Error("error closing redis", slog.String("error", rerr.Error()))
		}
	}

	middleware.Logger.Info("server shutdown complete")
	return nil
}
