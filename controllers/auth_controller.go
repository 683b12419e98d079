package controller

import (
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"

	"babyshop/auth"
	"babyshop/config"
	"babyshop/dashboard"
	"babyshop/middleware"
	"babyshop/models"
	"babyshop/utils"
)

type RegisterRequest struct {
	Name     string `json:"name" validate:"required,max=100"`
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type AuthResponse struct {
	Token     string       `json:"token"`
	ExpiresAt time.Time    `json:"expires_at"`
	User      *models.User `json:"user"`
	Screens   []string     `json:"screens"`
}

type AuthController struct {
	Registry *dashboard.Registry
	Provider auth.Provider
	Google   *auth.Google
	Logger   *logrus.Entry
}

func NewAuthController(reg *dashboard.Registry, provider auth.Provider, google *auth.Google, logger *logrus.Entry) *AuthController {
	return &AuthController{
		Registry: reg,
		Provider: provider,
		Google:   google,
		Logger:   logger,
	}
}

func (ac *AuthController) Register(c *fiber.Ctx) error {
	var req RegisterRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}
	req.Name = strings.TrimSpace(req.Name)
	if err := utils.ValidateStruct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	}
	if err := utils.ValidateEmail(req.Email); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	acc, err := ac.Provider.SignUp(c.UserContext(), req.Name, strings.TrimSpace(req.Email), req.Password)
	if err != nil {
		ac.Logger.WithError(err).Warn("sign-up failed")
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": auth.Message(err),
		})
	}
	return ac.openSession(c, acc, fiber.StatusCreated)
}

func (ac *AuthController) Login(c *fiber.Ctx) error {
	var req LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}
	if err := utils.ValidateStruct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	}
	if err := utils.ValidateEmail(req.Email); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	acc, err := ac.Provider.SignIn(c.UserContext(), strings.TrimSpace(req.Email), req.Password)
	if err != nil {
		ac.Logger.WithError(err).Info("sign-in rejected")
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": auth.Message(err),
		})
	}
	return ac.openSession(c, acc, fiber.StatusOK)
}

// openSession signs the account in and answers with the token for
// non-browser clients.
func (ac *AuthController) openSession(c *fiber.Ctx, acc *auth.Account, status int) error {
	d, token, expiresAt, err := ac.startSession(c, acc)
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to open session", err)
	}
	user := acc.User
	return c.Status(status).JSON(AuthResponse{
		Token:     token,
		ExpiresAt: expiresAt,
		User:      &user,
		Screens:   d.Names(),
	})
}

// startSession creates the dashboard and sets the session cookie.
func (ac *AuthController) startSession(c *fiber.Ctx, acc *auth.Account) (*dashboard.Dashboard, string, time.Time, error) {
	d, err := ac.Registry.Create(acc)
	if err != nil {
		return nil, "", time.Time{}, err
	}
	token, expiresAt, err := utils.GenerateSessionToken(&acc.User, d.ID)
	if err != nil {
		ac.Registry.Drop(d.ID)
		return nil, "", time.Time{}, err
	}

	c.Cookie(&fiber.Cookie{
		Name:     middleware.SessionCookie,
		Value:    token,
		Expires:  expiresAt,
		HTTPOnly: true,
		Secure:   config.AppConfig.Environment == "production",
		SameSite: "Lax",
	})
	return d, token, expiresAt, nil
}

func (ac *AuthController) GoogleOAuth(c *fiber.Ctx) error {
	if ac.Google == nil || !ac.Google.Enabled() {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
			"error": "Google sign-in is not configured",
		})
	}
	state, err := utils.GenerateSecureToken()
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to generate state token",
		})
	}

	c.Cookie(&fiber.Cookie{
		Name:     "oauth_state",
		Value:    state,
		Expires:  time.Now().Add(10 * time.Minute),
		HTTPOnly: true,
		Secure:   config.AppConfig.Environment == "production",
		SameSite: "Lax",
	})
	return c.Redirect(ac.Google.AuthCodeURL(state), fiber.StatusTemporaryRedirect)
}

func (ac *AuthController) GoogleOAuthCallback(c *fiber.Ctx) error {
	state := c.Query("state")
	cookieState := c.Cookies("oauth_state")
	if state == "" || cookieState == "" || state != cookieState {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid state parameter",
		})
	}
	c.ClearCookie("oauth_state")

	code := c.Query("code")
	if code == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Authorization code not provided",
		})
	}

	acc, err := ac.Google.Exchange(c.UserContext(), code)
	if err != nil {
		utils.LogError("google_sign_in", err, nil)
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": auth.Message(err),
		})
	}
	if _, _, _, err := ac.startSession(c, acc); err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to open session", err)
	}
	return c.Redirect("/dashboard", fiber.StatusSeeOther)
}

func (ac *AuthController) Logout(c *fiber.Ctx) error {
	if id, ok := c.Locals("sessionID").(string); ok {
		ac.Registry.Drop(id)
	}
	c.ClearCookie(middleware.SessionCookie)
	return c.JSON(fiber.Map{
		"message": "Signed out",
	})
}

// GetCurrentUser refreshes the user from the provider, falling back to the
// session copy when the provider cannot be reached.
func (ac *AuthController) GetCurrentUser(c *fiber.Ctx) error {
	d := middleware.CurrentDashboard(c)
	user, err := ac.Provider.Lookup(c.UserContext(), d.Session.Credentials())
	if err != nil {
		ac.Logger.WithError(err).Debug("profile refresh failed")
		return c.JSON(middleware.CurrentUser(c))
	}
	d.Session.Update(*user)
	return c.JSON(user)
}
