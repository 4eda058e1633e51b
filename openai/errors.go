package openai

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/randalmurphal/chatkit/provider"
)

// APIError is a non-2xx response from the API.
// Message comes from the body's error.message; Body keeps the raw payload.
type APIError struct {
	StatusCode int
	Message    string
	Type       string
	Param      string
	Code       string
	Body       []byte
}

// Error implements the error interface.
func (e *APIError) Error() string {
	if e.Type != "" {
		return fmt.Sprintf("openai: %d %s (%s)", e.StatusCode, e.Message, e.Type)
	}
	return fmt.Sprintf("openai: %d %s", e.StatusCode, e.Message)
}

// Unwrap maps the status code onto the provider sentinel errors.
func (e *APIError) Unwrap() error {
	switch {
	case e.StatusCode == http.StatusUnauthorized || e.StatusCode == http.StatusForbidden:
		return provider.ErrUnauthorized
	case e.StatusCode == http.StatusNotFound:
		return provider.ErrNotFound
	case e.StatusCode == http.StatusTooManyRequests:
		return provider.ErrRateLimited
	case e.StatusCode == http.StatusRequestTimeout || e.StatusCode == http.StatusGatewayTimeout:
		return provider.ErrTimeout
	case e.Code == "context_length_exceeded":
		return provider.ErrContextTooLong
	case e.StatusCode >= 500:
		return provider.ErrUnavailable
	case e.StatusCode >= 400:
		return provider.ErrInvalidRequest
	}
	return nil
}

// Retryable reports whether the request is worth repeating unchanged.
func (e *APIError) Retryable() bool {
	return e.StatusCode == http.StatusTooManyRequests ||
		e.StatusCode == http.StatusRequestTimeout ||
		e.StatusCode >= 500
}

// RawJSON returns the raw error body when it is valid JSON, nil otherwise.
func (e *APIError) RawJSON() json.RawMessage {
	if json.Valid(e.Body) {
		return json.RawMessage(e.Body)
	}
	return nil
}

// AsAPIError extracts an *APIError from err.
func AsAPIError(err error) (*APIError, bool) {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr, true
	}
	return nil, false
}

// parseAPIError builds an APIError from a failed response body.
// Bodies that are not the {"error": {...}} envelope fall back to the
// trimmed body text, then to the status text.
func parseAPIError(status int, body []byte) *APIError {
	apiErr := &APIError{StatusCode: status, Body: body}

	var env errorEnvelope
	if err := json.Unmarshal(body, &env); err == nil && env.Error != nil && env.Error.Message != "" {
		apiErr.Message = env.Error.Message
		apiErr.Type = env.Error.Type
		apiErr.Param = env.Error.Param
		apiErr.Code = codeString(env.Error.Code)
		return apiErr
	}

	if text := strings.TrimSpace(string(body)); text != "" && len(text) <= 512 {
		apiErr.Message = text
	} else {
		apiErr.Message = http.StatusText(status)
	}
	return apiErr
}

// codeString normalizes error.code, which the API sends as a string,
// a number, or null.
func codeString(v any) string {
	switch c := v.(type) {
	case nil:
		return ""
	case string:
		return c
	case float64:
		return fmt.Sprintf("%.0f", c)
	default:
		return fmt.Sprint(c)
	}
}
