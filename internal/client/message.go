package client

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"
)

// errorMessageLimit caps how much of an arbitrary body is surfaced to the
// user.
const errorMessageLimit = 220

var htmlTagPattern = regexp.MustCompile(`<[^>]*>`)

// extractErrorMessage pulls the most useful message out of a non-200 body.
// JSON "error" or "message" fields win; otherwise the raw body is stripped of
// HTML, whitespace-collapsed, and truncated; an unusable body falls back to a
// status-specific string.
func extractErrorMessage(status int, body []byte) string {
	if !utf8.Valid(body) {
		return statusFallback(status)
	}

	trimmed := strings.TrimSpace(string(body))
	if trimmed == "" {
		return statusFallback(status)
	}

	var structured struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	if json.Unmarshal([]byte(trimmed), &structured) == nil {
		if msg := strings.TrimSpace(structured.Error); msg != "" {
			return truncateMessage(msg)
		}
		if msg := strings.TrimSpace(structured.Message); msg != "" {
			return truncateMessage(msg)
		}
	}

	plain := htmlTagPattern.ReplaceAllString(trimmed, " ")
	plain = strings.Join(strings.Fields(plain), " ")
	if plain == "" {
		return statusFallback(status)
	}
	return truncateMessage(plain)
}

func truncateMessage(message string) string {
	runes := []rune(message)
	if len(runes) <= errorMessageLimit {
		return message
	}
	return strings.TrimSpace(string(runes[:errorMessageLimit])) + "…"
}

func statusFallback(status int) string {
	switch status {
	case 400:
		return "The server rejected the recording as invalid."
	case 413:
		return "Recording is too large. Please keep recordings under 60 seconds."
	case 503:
		return "The server is temporarily unavailable. Please try again."
	default:
		return fmt.Sprintf("The server failed with status %d.", status)
	}
}
