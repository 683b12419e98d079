package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"

	"babyshop/auth"
	"babyshop/config"
	controller "babyshop/controllers"
	"babyshop/dashboard"
	"babyshop/fakeapi"
	"babyshop/gateway"
	"babyshop/imagehost"
	"babyshop/middleware"
	"babyshop/models"
	"babyshop/routes"
	"babyshop/store"
	"babyshop/utils"
	"babyshop/worker"
)

func main() {
	// Load configuration
	if err := config.LoadConfig(); err != nil {
		logrus.Fatalf("Failed to load configuration: %v", err)
	}
	cfg := config.AppConfig

	utils.InitLogger(cfg.Environment)
	if err := utils.InitSentry(cfg.SentryDSN, cfg.Environment); err != nil {
		logrus.WithError(err).Warn("Sentry initialization failed")
	}
	defer sentry.Flush(2 * time.Second)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Key-value storage for the team list and profile extras
	if err := config.ConnectRedis(ctx); err != nil {
		logrus.Fatalf("Failed to connect to Redis: %v", err)
	}
	var kv store.KV = store.NewMemoryKV()
	var loginStorage fiber.Storage
	if config.Redis != nil {
		kv = store.NewRedisKV(config.Redis, "babyshop:")
		loginStorage = middleware.NewRedisStorage(config.Redis, "limiter:")
	}

	// Initialize database connection
	var products *store.ProductStore
	if cfg.DBEnabled {
		if err := config.ConnectDB(); err != nil {
			logrus.Fatalf("Failed to connect to database: %v", err)
		}
		if cfg.SeedDemo {
			if err := models.SeedProducts(config.DB, "demo"); err != nil {
				logrus.WithError(err).Warn("Failed to seed demo products")
			}
		}
		products = store.NewProductStore(config.DB)
	}

	// Remote clients
	apiBase := cfg.APIBaseURL
	var demo *fakeapi.Server
	if cfg.DemoAPI {
		demo = fakeapi.New()
		apiBase = "http://localhost:" + cfg.ServerPort
	}
	api := gateway.NewClient(apiBase, logrus.WithField("component", "api"))
	identity := auth.NewIdentityToolkit(
		gateway.NewClient(cfg.IdentityBaseURL, logrus.WithField("component", "identity")),
		cfg.FirebaseAPIKey,
	)
	google := auth.NewGoogle(cfg.Google, identity)

	imageClient := gateway.NewClient("", logrus.WithField("component", "imgbb"))
	productImages := imagehost.NewImgbb(imageClient, cfg.ImgbbURL, cfg.ImgbbKey)
	profileImages := imagehost.NewImgbb(imageClient, cfg.ImgbbURL, cfg.ImgbbKey).
		WithLimit(controller.MaxProfilePhotoBytes)

	factory := dashboard.Factory{
		API:          api,
		Team:         store.NewLocalBackend(kv, models.TeamStorageKey, "id"),
		Uploader:     productImages,
		PageSize:     cfg.PageSize,
		BlogPageSize: cfg.BlogPageSize,
		ToastTimeout: cfg.ToastTimeout,
		Logger:       logrus.WithField("component", "dashboard"),
		Products:     products,
	}
	registry := dashboard.NewRegistry(ctx, factory)
	defer registry.Close()

	// Background workers
	if products != nil {
		productWorker := worker.NewProductWatchWorker(products, cfg.ProductPollInterval,
			logrus.WithField("component", "product_watch"))
		go productWorker.Start(ctx)
	}
	sweeper := worker.NewDashboardSweeper(registry, cfg.DashboardIdleTTL,
		logrus.WithField("component", "dashboard_sweeper"))
	go sweeper.Start(ctx)

	// Create Fiber app
	app := fiber.New(fiber.Config{
		AppName:   "babyshop admin",
		BodyLimit: 32 << 20,
	})

	corsConfig := middleware.DefaultCORSConfig()
	corsConfig.AllowedOrigins = middleware.ParseOrigins(cfg.CORSOrigins)
	app.Use(middleware.CORS(corsConfig))

	routes.SetupRoutes(app, routes.Deps{
		Registry:       registry,
		Provider:       identity,
		Google:         google,
		KV:             kv,
		ProfileImages:  profileImages,
		LoginStorage:   loginStorage,
		LoginRateLimit: cfg.LoginRateLimit,
		DemoAPI:        demo,
	})

	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
		<-quit
		logrus.Info("Shutting down server...")
		cancel()
		if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
			logrus.WithError(err).Error("Server shutdown failed")
		}
	}()

	// Start server
	logrus.Infof("🚀 Server starting on port %s", cfg.ServerPort)
	if err := app.Listen(":" + cfg.ServerPort); err != nil {
		logrus.Fatalf("Failed to start server: %v", err)
	}
}
