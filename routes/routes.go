package routes

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/websocket/v2"
	"github.com/sirupsen/logrus"

	"babyshop/auth"
	controller "babyshop/controllers"
	"babyshop/dashboard"
	"babyshop/fakeapi"
	"babyshop/middleware"
	"babyshop/store"
)

// Deps are the collaborators the handlers are built from.
type Deps struct {
	Registry      *dashboard.Registry
	Provider      auth.Provider
	Google        *auth.Google
	KV            store.KV
	ProfileImages store.Uploader
	// LoginStorage backs the sign-in limiter; nil keeps counters in memory.
	LoginStorage   fiber.Storage
	LoginRateLimit int
	// DemoAPI, when set, serves the remote API from this process.
	DemoAPI *fakeapi.Server
}

var requestLog = logger.Config{
	Format: "[${time}] ${status} - ${latency} ${method} ${path}\n",
}

func SetupAuthRoutes(app *fiber.App, deps Deps) {
	authController := controller.NewAuthController(deps.Registry, deps.Provider, deps.Google,
		logrus.WithField("component", "auth"))

	authGroup := app.Group("/auth", logger.New(requestLog))

	// Public auth endpoints, throttled per client IP
	limited := middleware.LoginRateLimiter(deps.LoginRateLimit, deps.LoginStorage)
	authGroup.Post("/register", limited, authController.Register)
	authGroup.Post("/login", limited, authController.Login)

	// Google OAuth routes
	authGroup.Get("/google", authController.GoogleOAuth)
	authGroup.Get("/google/callback", authController.GoogleOAuthCallback)

	// Protected auth endpoints
	protectedAuth := authGroup.Group("", middleware.Protected(deps.Registry))
	protectedAuth.Post("/logout", authController.Logout)
	protectedAuth.Get("/me", authController.GetCurrentUser)

	app.Get("/login", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"message": "Sign in with POST /auth/login or GET /auth/google",
		})
	})

	logrus.Info("Authentication routes initialized successfully")
}

func SetupAPIRoutes(app *fiber.App, deps Deps) {
	resourceController := controller.NewResourceController(logrus.WithField("component", "resources"))
	profileController := controller.NewProfileController(deps.Provider, deps.KV, deps.ProfileImages,
		logrus.WithField("component", "profile"))
	dashboardController := controller.NewDashboardController(deps.Registry, logrus.WithField("component", "dashboard"))

	protected := middleware.Protected(deps.Registry)
	app.Get("/dashboard", protected, dashboardController.GetOverview)

	// API group with versioning and protection
	api := app.Group("/api/v1", protected, logger.New(requestLog))

	api.Get("/dashboard", dashboardController.GetOverview)

	profile := api.Group("/profile")
	profile.Get("/", profileController.GetProfile)
	profile.Put("/", profileController.UpdateProfile)
	profile.Post("/photo", profileController.UploadPhoto)

	api.Get("/resources", resourceController.Screens)
	screen := api.Group("/resources/:resource")
	screen.Get("/", resourceController.State)
	screen.Post("/load", resourceController.Load)
	screen.Post("/search", resourceController.Search)
	screen.Post("/page", resourceController.Page)
	screen.Post("/page-size", resourceController.PageSize)
	screen.Post("/clear", resourceController.Clear)

	form := screen.Group("/form")
	form.Post("/new", resourceController.NewForm)
	form.Post("/edit/:id", resourceController.EditForm)
	form.Put("/fields", resourceController.SetFields)
	form.Post("/images", resourceController.StageImages)
	form.Delete("/images/:index", resourceController.RemoveImage)
	form.Post("/submit", resourceController.Submit)
	form.Post("/close", resourceController.CloseForm)

	del := screen.Group("/delete")
	del.Post("/confirm", resourceController.ConfirmDelete)
	del.Post("/cancel", resourceController.CancelDelete)
	del.Post("/:id", resourceController.RequestDelete)

	api.Post("/toast/dismiss", resourceController.DismissToast)

	// WebSocket route for toast updates
	app.Get("/ws/toasts", protected, controller.ToastUpgrade,
		websocket.New(controller.HandleToastWS(logrus.WithField("component", "toast_ws"))))

	logrus.Info("API routes initialized successfully")
}

func SetupRoutes(app *fiber.App, deps Deps) {
	dashboardController := controller.NewDashboardController(deps.Registry, logrus.WithField("component", "dashboard"))
	app.Get("/health", dashboardController.Health)

	if deps.DemoAPI != nil {
		deps.DemoAPI.Register(app)
		logrus.Warn("Serving the demo API from this process")
	}

	SetupAuthRoutes(app, deps)
	SetupAPIRoutes(app, deps)

	// Setup 404 handler
	app.Use(func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error":   "Not Found",
			"message": "The requested resource was not found",
		})
	})
}
