package utils

import (
	"github.com/gofiber/fiber/v2"

	"babyshop/config"
)

// ErrorResponse answers with {success:false, error}. The underlying error is
// only echoed outside production; server-side failures are also reported.
func ErrorResponse(c *fiber.Ctx, status int, message string, err error) error {
	response := fiber.Map{
		"success": false,
		"error":   message,
	}
	if err != nil {
		if config.AppConfig.Environment != "production" {
			response["details"] = err.Error()
		}
		if status >= fiber.StatusInternalServerError {
			LogError("http_error", err, map[string]interface{}{
				"path":   c.Path(),
				"method": c.Method(),
				"status": status,
			})
		}
	}
	return c.Status(status).JSON(response)
}

// SuccessResponse wraps data as {success:true, data}.
func SuccessResponse(data interface{}) fiber.Map {
	return fiber.Map{
		"success": true,
		"data":    data,
	}
}
