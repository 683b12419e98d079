package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"babyshop/dashboard"
	"babyshop/models"
	"babyshop/utils"
)

// SessionCookie carries the dashboard session token for browsers.
const SessionCookie = "babyshop_session"

// Protected admits requests carrying a valid session token whose dashboard is
// still open. Browsers are sent to the login page, API callers get a 401.
func Protected(reg *dashboard.Registry) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var token string
		authHeader := c.Get(fiber.HeaderAuthorization)
		if authHeader != "" {
			tokenParts := strings.Split(authHeader, " ")
			if len(tokenParts) != 2 || tokenParts[0] != "Bearer" {
				return deny(c, "Invalid authorization format")
			}
			token = tokenParts[1]
		} else {
			token = c.Cookies(SessionCookie)
			if token == "" {
				return deny(c, "Authorization required")
			}
		}

		claims, err := utils.ParseSessionToken(token)
		if err != nil {
			return deny(c, "Invalid or expired token")
		}

		d, ok := reg.Get(claims.SessionID)
		if !ok {
			return deny(c, "Session expired")
		}
		user, signedIn := d.Session.Snapshot()
		if !signedIn || user.UID != claims.UserID {
			return deny(c, "Session expired")
		}

		c.Locals("dashboard", d)
		c.Locals("user", &user)
		c.Locals("sessionID", claims.SessionID)

		return c.Next()
	}
}

func deny(c *fiber.Ctx, msg string) error {
	if wantsHTML(c) {
		return c.Redirect("/login", fiber.StatusSeeOther)
	}
	return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
		"error": msg,
	})
}

// wantsHTML is true for page navigations, false for fetch and API clients.
func wantsHTML(c *fiber.Ctx) bool {
	return c.Method() == fiber.MethodGet &&
		strings.Contains(c.Get(fiber.HeaderAccept), fiber.MIMETextHTML) &&
		!strings.HasPrefix(c.Path(), "/api/")
}

// CurrentDashboard returns the dashboard set by Protected.
func CurrentDashboard(c *fiber.Ctx) *dashboard.Dashboard {
	d, _ := c.Locals("dashboard").(*dashboard.Dashboard)
	return d
}

// CurrentUser returns the user set by Protected.
func CurrentUser(c *fiber.Ctx) *models.User {
	u, _ := c.Locals("user").(*models.User)
	return u
}
