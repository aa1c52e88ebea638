package openai

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// StatusError reports a non-2xx response from the API with its body preserved
// for message extraction and classification.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("openai: http %d: %s", e.StatusCode, ErrorMessage(e))
}

// StatusCodeOf extracts the HTTP status carried by err, or 0 when none.
func StatusCodeOf(err error) int {
	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		return statusErr.StatusCode
	}
	return 0
}

// ErrorMessage extracts the most specific message text from an API failure.
// API error bodies nest the message under {"error": {"message": …}}; fall back
// to a flat "message" field, then to the raw body.
func ErrorMessage(err error) string {
	if err == nil {
		return ""
	}
	var statusErr *StatusError
	if !errors.As(err, &statusErr) {
		return err.Error()
	}

	body := strings.TrimSpace(statusErr.Body)
	if body == "" {
		return fmt.Sprintf("http %d", statusErr.StatusCode)
	}

	var nested struct {
		Error struct {
			Message string `json:"message"`
		} `json:"error"`
		Message string `json:"message"`
	}
	if json.Unmarshal([]byte(body), &nested) == nil {
		if msg := strings.TrimSpace(nested.Error.Message); msg != "" {
			return msg
		}
		if msg := strings.TrimSpace(nested.Message); msg != "" {
			return msg
		}
	}
	return body
}

var modelIssueHints = []string{
	"not found",
	"does not exist",
	"not available",
	"unsupported",
	"access",
	"permission",
}

// ModelUnavailable reports whether err indicates the requested model itself is
// unusable, meaning the next candidate in the fallback chain should be tried.
// Any other failure is fatal for the fallback loop.
func ModelUnavailable(err error) bool {
	status := StatusCodeOf(err)
	if status != http.StatusBadRequest && status != http.StatusForbidden && status != http.StatusNotFound {
		return false
	}
	message := strings.ToLower(ErrorMessage(err))
	if !strings.Contains(message, "model") {
		return false
	}
	for _, hint := range modelIssueHints {
		if strings.Contains(message, hint) {
			return true
		}
	}
	return false
}
