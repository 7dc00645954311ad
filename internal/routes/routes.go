package routes

import (
	"context"
	"fmt"
	"time"

	"github.com/amalxloop/EatFlex/internal/config"
	"github.com/amalxloop/EatFlex/internal/handlers"
	"github.com/amalxloop/EatFlex/internal/metrics"
	"github.com/amalxloop/EatFlex/internal/middleware"
	"github.com/amalxloop/EatFlex/internal/repository"
	"github.com/amalxloop/EatFlex/internal/services"
	notifyws "github.com/amalxloop/EatFlex/internal/websocket"
	websocket "github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
)

const (
	analyzeBurst           = 3
	limiterCleanupInterval = time.Minute
	limiterMaxIdle         = 10 * time.Minute
)

type Dependencies struct {
	DB       *pgxpool.Pool
	Hub      *notifyws.Hub
	Metrics  *metrics.Metrics
	Gatherer prometheus.Gatherer
	Logger   logrus.FieldLogger
}

func RegisterRoutes(ctx context.Context, app *fiber.App, cfg *config.Config, deps Dependencies) error {
	userRepo := repository.NewUserRepository(deps.DB)
	mealRepo := repository.NewMealRepository(deps.DB)
	postRepo := repository.NewPostRepository(deps.DB)
	commentRepo := repository.NewCommentRepository(deps.DB)
	graphRepo := repository.NewGraphRepository(deps.DB)

	storageService, err := newStorageService(ctx, cfg, deps.Logger)
	if err != nil {
		return err
	}

	analysisService := services.NewAnalysisService(services.AnalysisConfig{
		BaseURL: cfg.AIBaseURL,
		APIKey:  cfg.OpenRouterAPIKey,
		Model:   cfg.AIModel,
		Timeout: cfg.AITimeout,
	}, deps.Logger, deps.Metrics)
	mealService := services.NewMealService(mealRepo, analysisService, deps.Metrics)
	socialService := services.NewSocialService(graphRepo, userRepo, deps.Hub, deps.Metrics)
	postService := services.NewPostService(graphRepo, postRepo, commentRepo, mealRepo, storageService, deps.Hub, deps.Metrics)
	accountService := services.NewAccountService(userRepo, postRepo, mealRepo, cfg.JWTSecret)

	authHandler := handlers.NewAuthHandler(accountService, deps.Logger)
	profileHandler := handlers.NewProfileHandler(accountService, socialService, deps.Logger)
	mealHandler := handlers.NewMealHandler(mealService, deps.Logger)
	postHandler := handlers.NewPostHandler(postService, deps.Logger)
	notificationHandler := handlers.NewNotificationHandler(deps.Hub, accountService, cfg.JWTSecret, deps.Logger)

	requireUser := []fiber.Handler{
		middleware.AuthRequired(cfg.JWTSecret),
		middleware.LoadCurrentUser(accountService, deps.Logger),
	}
	analyzeLimiter := middleware.NewRateLimiter(cfg.AnalyzeRatePerMinute, analyzeBurst)
	analyzeLimiter.StartCleanup(ctx, limiterCleanupInterval, limiterMaxIdle)

	if deps.Gatherer != nil {
		app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(deps.Gatherer, promhttp.HandlerOpts{})))
	}
	if err := registerDocsRoutes(app, cfg); err != nil {
		return err
	}

	api := app.Group("/api")
	api.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "healthy", "app": "EatFlex API"})
	})

	auth := api.Group("/auth")
	auth.Post("/signup", authHandler.Signup)
	auth.Post("/login", authHandler.Login)
	auth.Get("/me", append(requireUser, authHandler.Me)...)

	profile := api.Group("/profile", requireUser...)
	profile.Put("", profileHandler.UpdateProfile)
	profile.Post("/follow/:id", profileHandler.ToggleFollow)
	profile.Get("/followers/:id", profileHandler.ListFollowers)
	profile.Get("/following/:id", profileHandler.ListFollowing)
	profile.Get("/:id", profileHandler.GetProfile)

	meals := api.Group("/meals", requireUser...)
	meals.Post("/log", mealHandler.LogMeal)
	meals.Post("/analyze", analyzeLimiter.Handler(), mealHandler.AnalyzeMeal)
	meals.Get("/today", mealHandler.GetToday)
	meals.Get("/history", mealHandler.GetHistory)

	posts := api.Group("/posts", requireUser...)
	posts.Post("/create", postHandler.CreatePost)
	posts.Get("/feed", postHandler.GetFeed)
	posts.Get("/discover", postHandler.GetDiscover)
	posts.Get("/user/:id", postHandler.GetUserPosts)
	posts.Post("/share-meal/:meal_id", postHandler.ShareMeal)
	posts.Post("/:id/like", postHandler.ToggleLike)
	posts.Post("/:id/comment", postHandler.AddComment)
	posts.Get("/:id/comments", postHandler.GetComments)
	posts.Post("/:id/upload-image", postHandler.UploadImage)

	api.Use("/ws", notificationHandler.WebSocketAuth)
	api.Get("/ws", websocket.New(notificationHandler.HandleWebSocket))

	return nil
}

// newStorageService prefers Supabase, then S3, then placeholder URLs.
func newStorageService(ctx context.Context, cfg *config.Config, logger logrus.FieldLogger) (services.StorageService, error) {
	switch {
	case cfg.SupabaseConfigured():
		logger.WithField("bucket", cfg.SupabaseBucket).Info("Using Supabase storage for post images")
		return services.NewSupabaseStorageService(cfg.SupabaseURL, cfg.SupabaseBucket, cfg.SupabaseServiceKey), nil
	case cfg.S3Configured():
		s3Storage, err := services.NewS3StorageService(ctx, cfg.S3Bucket, cfg.S3Region, cfg.S3PublicURL)
		if err != nil {
			return nil, fmt.Errorf("init s3 storage: %w", err)
		}
		logger.WithField("bucket", cfg.S3Bucket).Info("Using S3 storage for post images")
		return s3Storage, nil
	default:
		logger.Warn("No image storage configured, post images get placeholder URLs")
		return services.PlaceholderStorageService{}, nil
	}
}
