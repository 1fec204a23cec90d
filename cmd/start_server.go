package server

import (
	"context"
	"log"
	"os"
	"time"

	"github.com/abisalde/marketplace-service/internal/agreement"
	"github.com/abisalde/marketplace-service/internal/auth/cookies"
	authhttp "github.com/abisalde/marketplace-service/internal/auth/handler/http"
	"github.com/abisalde/marketplace-service/internal/auth/repository"
	"github.com/abisalde/marketplace-service/internal/auth/service"
	"github.com/abisalde/marketplace-service/internal/category"
	"github.com/abisalde/marketplace-service/internal/configs"
	"github.com/abisalde/marketplace-service/internal/database"
	customErrors "github.com/abisalde/marketplace-service/internal/errors"
	"github.com/abisalde/marketplace-service/internal/message"
	"github.com/abisalde/marketplace-service/internal/middleware"
	"github.com/abisalde/marketplace-service/internal/region"
	"github.com/abisalde/marketplace-service/internal/salepost"
	"github.com/abisalde/marketplace-service/pkg/logger"
	"github.com/abisalde/marketplace-service/pkg/mail"
	"github.com/abisalde/marketplace-service/pkg/sms"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/healthcheck"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
)

// Cache is what the HTTP stack needs from Redis.
type Cache interface {
	database.CacheService
	database.CounterStore
	Ping(ctx context.Context) error
}

// Deps are the collaborators the HTTP app is built from.
type Deps struct {
	Config   *configs.Config
	DB       *database.Database
	Cache    Cache
	Notifier service.Notifier
	Google   service.TokenVerifier
}

func InitConfig() (*configs.Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	cfg, err := configs.Load(os.Getenv("APP_ENV"))
	if err != nil {
		return nil, err
	}
	if port := os.Getenv("PORT"); port != "" {
		cfg.App.Port = port
	}

	if err := logger.Init(logger.LogConfig{
		Level:       cfg.Log.Level,
		Environment: cfg.App.Env,
		ServiceName: cfg.App.Name,
	}); err != nil {
		return nil, err
	}
	return cfg, nil
}

func SetupDatabase(cfg *configs.Config) (*database.Database, *database.RedisCache, error) {
	db, err := database.Connect(cfg)
	if err != nil {
		return nil, nil, err
	}
	ctx := context.Background()

	if err := db.HealthCheck(ctx); err != nil {
		db.Close()
		return nil, nil, err
	}

	if cfg.DB.Migrate {
		if err := db.Migrate(ctx); err != nil {
			db.Close()
			return nil, nil, err
		}
	}

	ctxWithTimeout, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	redisCache, redisErr := database.InitRedis(ctxWithTimeout, cfg)
	if redisErr != nil {
		db.Close()
		return nil, nil, redisErr
	}

	return db, redisCache, nil
}

// NewDeps wires the production notifier and Google verifier.
func NewDeps(cfg *configs.Config, db *database.Database, cache Cache) Deps {
	return Deps{
		Config:   cfg,
		DB:       db,
		Cache:    cache,
		Notifier: service.NewNotifier(mail.NewMailerService(cfg), sms.NewSenderService(cfg), cfg.Auth.OTPExpiryMinutes),
		Google:   service.GoogleVerifier{},
	}
}

func SetupFiberApp(deps Deps) *fiber.App {
	cfg, store := deps.Config, deps.DB.Store

	app := fiber.New(fiber.Config{
		AppName:       cfg.App.Name,
		CaseSensitive: true,
		ErrorHandler:  middleware.ErrorHandler,
	})

	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(middleware.RequestLogger())
	app.Use(middleware.Metrics())
	app.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.App.AllowOrigins,
		AllowMethods:     "GET,POST,PUT,PATCH,DELETE,OPTIONS",
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization",
		AllowCredentials: cfg.App.AllowOrigins != "" && cfg.App.AllowOrigins != "*",
	}))
	app.Use(middleware.SecurityHeaders())

	app.Use(healthcheck.New(healthcheck.Config{
		LivenessProbe: func(c *fiber.Ctx) bool {
			return true
		},
		LivenessEndpoint: "/health",
		ReadinessProbe: func(c *fiber.Ctx) bool {
			ctx, cancel := context.WithTimeout(c.UserContext(), 2*time.Second)
			defer cancel()
			if err := deps.DB.HealthCheck(ctx); err != nil {
				logger.L().Warn("database not ready", zap.Error(err))
				return false
			}
			if err := deps.Cache.Ping(ctx); err != nil {
				logger.L().Warn("cache not ready", zap.Error(err))
				return false
			}
			return true
		},
		ReadinessEndpoint: "/ready",
	}))
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	users := repository.NewUserRepository(store)
	authService := service.NewAuthService(
		store,
		users,
		repository.NewOTPRepository(store),
		cfg,
		deps.Cache,
		deps.Notifier,
		deps.Google,
	)
	app.Use(middleware.Authenticate(authService, cfg.Auth.AccessCookieName))

	ips := middleware.NewClientIPResolver(cfg.App.TrustedProxies)
	limiter := middleware.NewRateLimiter(deps.Cache, ips)
	throttle := func(scope string) fiber.Handler {
		return limiter.Limit(scope, cfg.RateLimit.AuthPerMinute, time.Minute)
	}

	categories := category.NewService(category.NewRepository(store), deps.Cache)
	regions := region.NewService(region.NewRepository(store))
	posts := salepost.NewRepository(store)

	api := app.Group("/api")

	authRouter := api.Group("/auth")
	authhttp.NewAuthHandler(authService, cookies.NewJar(cfg)).RegisterRoutes(authRouter, throttle)
	agreement.NewHandler(agreement.NewService(agreement.NewRepository(store)), ips.ClientIP).RegisterRoutes(authRouter)

	category.NewHandler(categories).RegisterRoutes(api.Group("/category"))
	region.NewHandler(regions).RegisterRoutes(api.Group("/region"))
	salepost.NewHandler(salepost.NewService(posts, categories, regions)).RegisterRoutes(api.Group("/salepost"))
	message.NewHandler(message.NewService(store, message.NewRepository(store), users, posts)).
		RegisterRoutes(api.Group("/messages/conversations"))

	app.Use(func(c *fiber.Ctx) error {
		return customErrors.NotFound("Not found.")
	})

	return app
}
