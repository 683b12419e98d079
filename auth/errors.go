package auth

import (
	"errors"
	"strings"

	"babyshop/gateway"
)

// Error is a failure reported by the identity provider.
type Error struct {
	Code    string
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

// friendly maps provider codes to the copy shown on the login screen.
var friendly = map[string]string{
	"EMAIL_EXISTS":              "This email is already registered",
	"WEAK_PASSWORD":             "Password must be at least 6 characters",
	"INVALID_EMAIL":             "Invalid email address",
	"MISSING_EMAIL":             "Invalid email address",
	"EMAIL_NOT_FOUND":           "No account found with this email",
	"USER_NOT_FOUND":            "No account found with this email",
	"INVALID_PASSWORD":          "Incorrect email or password",
	"INVALID_LOGIN_CREDENTIALS": "Incorrect email or password",
	"OPERATION_NOT_ALLOWED":     "Email/Password login is not enabled",
	"PASSWORD_LOGIN_DISABLED":   "Email/Password login is not enabled",
}

// providerError turns a gateway failure into an *Error. The provider answers
// {"error": {"message": "CODE : detail"}}.
func providerError(err error) error {
	var reqErr *gateway.RequestError
	if !errors.As(err, &reqErr) {
		return err
	}
	body, _ := reqErr.Body.(map[string]any)
	inner, _ := body["error"].(map[string]any)
	raw, _ := inner["message"].(string)
	if raw == "" {
		return err
	}
	code := raw
	if i := strings.IndexAny(raw, " :"); i > 0 {
		code = raw[:i]
	}
	msg, ok := friendly[code]
	if !ok {
		msg = raw
	}
	return &Error{Code: code, Message: msg}
}

// Message returns the copy to show for err.
func Message(err error) string {
	var authErr *Error
	if errors.As(err, &authErr) && authErr.Message != "" {
		return authErr.Message
	}
	return gateway.Message(err, "Something went wrong")
}
