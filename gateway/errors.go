package gateway

import (
	"errors"
	"fmt"
)

// RequestError is returned for every response outside the 2xx range.
type RequestError struct {
	Status  int
	Message string
	// Body is the decoded response body, kept for callers that understand a
	// richer error shape than {"message": "..."}.
	Body any
}

func (e *RequestError) Error() string {
	return e.Message
}

// newRequestError picks the message in priority order: the "message" field of
// an object body, a plain string body, then a synthesized status message.
func newRequestError(status int, body any) *RequestError {
	msg := ""
	switch v := body.(type) {
	case map[string]any:
		if m, ok := v["message"].(string); ok {
			msg = m
		}
	case string:
		msg = v
	}
	if msg == "" {
		msg = fmt.Sprintf("Request failed (%d)", status)
	}
	return &RequestError{Status: status, Message: msg, Body: body}
}

// Message returns the user-facing text for err: the server's message for HTTP
// failures and fallback for anything else (transport errors included).
func Message(err error, fallback string) string {
	var reqErr *RequestError
	if errors.As(err, &reqErr) && reqErr.Message != "" {
		return reqErr.Message
	}
	return fallback
}

// StatusOf returns the HTTP status carried by err, or 0.
func StatusOf(err error) int {
	var reqErr *RequestError
	if errors.As(err, &reqErr) {
		return reqErr.Status
	}
	return 0
}
