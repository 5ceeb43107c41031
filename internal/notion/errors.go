package notion

import (
	"encoding/json"
	"fmt"
	"time"
)

// RetryableError indicates a transient failure that can be retried:
// rate limiting or a server-side error.
type RetryableError struct {
	StatusCode int
	Message    string
	RetryAfter time.Duration // Zero when the server sent no hint.
}

func (e *RetryableError) Error() string {
	return fmt.Sprintf("retryable error (status %d): %s", e.StatusCode, truncate(e.Message, 200))
}

// APIError is a non-retryable error response.
type APIError struct {
	StatusCode int    `json:"status"`
	Code       string `json:"code"`
	Message    string `json:"message"`
}

func (e *APIError) Error() string {
	if e.Code == "" {
		return fmt.Sprintf("notion api status %d: %s", e.StatusCode, truncate(e.Message, 200))
	}
	return fmt.Sprintf("notion api status %d: %s: %s", e.StatusCode, e.Code, truncate(e.Message, 200))
}

func decodeAPIError(status int, body []byte) *APIError {
	apiErr := &APIError{}
	if err := json.Unmarshal(body, apiErr); err != nil || apiErr.Message == "" {
		apiErr.Message = string(body)
	}
	apiErr.StatusCode = status
	return apiErr
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
