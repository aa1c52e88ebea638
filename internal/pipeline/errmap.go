package pipeline

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"

	"murmur/internal/services"
	"murmur/internal/services/openai"
)

// Error is the single {status, message} pair surfaced to the client for any
// pipeline failure. Errors built from a known failure class carry the
// matching services sentinel, so callers can classify with errors.Is.
type Error struct {
	Status  int
	Message string
	marker  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("process memory: http %d: %s", e.Status, e.Message)
}

func (e *Error) Unwrap() error {
	return e.marker
}

func requestError(status int, message string) *Error {
	return &Error{Status: status, Message: message}
}

func classifiedError(marker error, status int, message string) *Error {
	return &Error{Status: status, Message: message, marker: marker}
}

const (
	msgMissingCredentials = "Server OpenAI API key is missing or invalid. Set OPENAI_API_KEY (or MURMUR_OPENAI_API_KEY) and restart the server."
	msgRateLimited        = "OpenAI rate limit reached. Please try again in a moment."
	msgQuotaExceeded      = "OpenAI quota exceeded for this key. Add billing/credits or use a different key."
	msgTranscoderFailed   = "Audio conversion failed on the server. Install ffmpeg or use wav/mp3/webm/mp4/m4a audio."
	msgCannotTranscribe   = "Could not transcribe audio. Please try again."
	msgUnreachable        = "Backend could not reach OpenAI. Check internet connectivity and firewall/proxy settings."
)

var networkFailureHints = []string{
	"connection refused",
	"no such host",
	"network is unreachable",
	"i/o timeout",
	"tls handshake timeout",
	"fetch failed",
	"network",
}

// MapError classifies an underlying capability failure into the client-facing
// {status, message} pair. Precedence: credentials, rate limit, quota,
// transcoder, audio-specific 400, network reachability, then a generic 500
// carrying the underlying message.
func MapError(err error) *Error {
	var reqErr *Error
	if errors.As(err, &reqErr) {
		return reqErr
	}

	status := openai.StatusCodeOf(err)
	message := openai.ErrorMessage(err)
	lowered := strings.ToLower(message)

	switch {
	case errors.Is(err, services.ErrConfiguration),
		status == http.StatusUnauthorized,
		strings.Contains(lowered, "missing api key"),
		strings.Contains(lowered, "incorrect api key"),
		strings.Contains(lowered, "invalid api key"),
		strings.Contains(lowered, "api key required"):
		return classifiedError(services.ErrConfiguration, http.StatusInternalServerError, msgMissingCredentials)

	case status == http.StatusTooManyRequests, strings.Contains(lowered, "rate limit"):
		return classifiedError(services.ErrTransient, http.StatusServiceUnavailable, msgRateLimited)

	case strings.Contains(lowered, "insufficient_quota"), strings.Contains(lowered, "quota"):
		return classifiedError(services.ErrTransient, http.StatusServiceUnavailable, msgQuotaExceeded)

	case errors.Is(err, services.ErrExternalTool),
		strings.Contains(lowered, "ffmpeg"),
		strings.Contains(lowered, "exit status"),
		strings.Contains(lowered, "executable file not found"):
		return classifiedError(services.ErrExternalTool, http.StatusInternalServerError, msgTranscoderFailed)

	case errors.Is(err, services.ErrValidation),
		status == http.StatusBadRequest &&
			(strings.Contains(lowered, "audio") || strings.Contains(lowered, "transcrib")):
		return classifiedError(services.ErrValidation, http.StatusBadRequest, msgCannotTranscribe)

	case errors.Is(err, services.ErrTransient), isNetworkFailure(err, lowered):
		return classifiedError(services.ErrTransient, http.StatusServiceUnavailable, msgUnreachable)

	default:
		return requestError(http.StatusInternalServerError, "Failed to process memory. "+message)
	}
}

func isNetworkFailure(err error, lowered string) bool {
	var netErr net.Error
	if errors.As(err, &netErr) && !errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	for _, hint := range networkFailureHints {
		if strings.Contains(lowered, hint) {
			return true
		}
	}
	return false
}
