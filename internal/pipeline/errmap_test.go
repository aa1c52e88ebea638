package pipeline_test

import (
	"errors"
	"net/http"
	"strings"
	"testing"

	"murmur/internal/pipeline"
	"murmur/internal/services"
	"murmur/internal/services/openai"
)

func TestMapErrorPrecedence(t *testing.T) {
	cases := []struct {
		name        string
		err         error
		wantStatus  int
		wantKeyword string
	}{
		{
			"unauthorized status",
			&openai.StatusError{StatusCode: http.StatusUnauthorized, Body: `{"error":{"message":"bad key"}}`},
			http.StatusInternalServerError, "API key",
		},
		{
			"invalid api key text",
			errors.New("Incorrect API key provided"),
			http.StatusInternalServerError, "API key",
		},
		{
			"rate limited",
			&openai.StatusError{StatusCode: http.StatusTooManyRequests, Body: `{"error":{"message":"Rate limit reached"}}`},
			http.StatusServiceUnavailable, "rate limit",
		},
		{
			"quota",
			&openai.StatusError{StatusCode: http.StatusForbidden, Body: `{"error":{"message":"insufficient_quota"}}`},
			http.StatusServiceUnavailable, "quota",
		},
		{
			"transcoder",
			services.Wrap(services.ErrExternalTool, "transcoder", "ffmpeg", "audio conversion failed", errors.New("exit status 1")),
			http.StatusInternalServerError, "ffmpeg",
		},
		{
			"audio 400 passthrough",
			&openai.StatusError{StatusCode: http.StatusBadRequest, Body: `{"error":{"message":"The audio file could not be decoded"}}`},
			http.StatusBadRequest, "transcribe",
		},
		{
			"network",
			errors.New("dial tcp: connection refused"),
			http.StatusServiceUnavailable, "reach",
		},
		{
			"generic",
			errors.New("something odd happened"),
			http.StatusInternalServerError, "something odd happened",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			mapped := pipeline.MapError(tc.err)
			if mapped.Status != tc.wantStatus {
				t.Fatalf("expected status %d, got %d (%s)", tc.wantStatus, mapped.Status, mapped.Message)
			}
			if !strings.Contains(strings.ToLower(mapped.Message), strings.ToLower(tc.wantKeyword)) {
				t.Fatalf("expected message mentioning %q, got %q", tc.wantKeyword, mapped.Message)
			}
		})
	}
}

func TestMapErrorPassesThroughPipelineErrors(t *testing.T) {
	original := &pipeline.Error{Status: http.StatusRequestEntityTooLarge, Message: "too big"}
	mapped := pipeline.MapError(original)
	if mapped != original {
		t.Fatalf("expected identity mapping, got %#v", mapped)
	}
}

func TestMapErrorClassifiesByMarker(t *testing.T) {
	cases := []struct {
		name       string
		err        error
		wantStatus int
		marker     error
	}{
		{
			"configuration marker",
			services.Wrap(services.ErrConfiguration, "openai", "auth", "key rejected", nil),
			http.StatusInternalServerError, services.ErrConfiguration,
		},
		{
			"validation marker",
			services.Wrap(services.ErrValidation, "transcription", "decode", "unusable recording", nil),
			http.StatusBadRequest, services.ErrValidation,
		},
		{
			"transient marker",
			services.Wrap(services.ErrTransient, "openai", "request", "connection reset by peer", nil),
			http.StatusServiceUnavailable, services.ErrTransient,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			mapped := pipeline.MapError(tc.err)
			if mapped.Status != tc.wantStatus {
				t.Fatalf("expected status %d, got %d (%s)", tc.wantStatus, mapped.Status, mapped.Message)
			}
			if !errors.Is(mapped, tc.marker) {
				t.Fatalf("mapped error lost its %v classification", tc.marker)
			}
		})
	}
}
