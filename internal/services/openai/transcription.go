package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"

	"murmur/internal/logging"
)

// Transcribe converts audio bytes to text using the first usable candidate
// model. Candidates are tried in order; a model-unavailability failure moves to
// the next candidate, any other failure propagates immediately. Exhausting the
// list propagates the last model-unavailability error.
func (c *Client) Transcribe(ctx context.Context, audio []byte, format string, candidates []string, logger *slog.Logger) (string, error) {
	if len(audio) == 0 {
		return "", errors.New("openai transcribe: audio required")
	}
	if len(candidates) == 0 {
		return "", errors.New("openai transcribe: no candidate models")
	}
	if !c.HasCredentials() {
		return "", errors.New("openai transcribe: api key required")
	}

	var lastModelErr error
	for _, model := range candidates {
		text, err := c.transcribeOnce(ctx, audio, format, model)
		if err == nil {
			return text, nil
		}
		if ModelUnavailable(err) {
			if logger != nil {
				logger.Warn("transcription model unavailable, trying fallback",
					logging.String("model", model))
			}
			lastModelErr = err
			continue
		}
		return "", err
	}

	if lastModelErr == nil {
		lastModelErr = errors.New("openai transcribe: no available transcription model")
	}
	return "", lastModelErr
}

func (c *Client) transcribeOnce(ctx context.Context, audio []byte, format, model string) (string, error) {
	endpoint, err := url.JoinPath(c.cfg.BaseURL, "audio", "transcriptions")
	if err != nil {
		return "", fmt.Errorf("openai transcribe: build url: %w", err)
	}

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	if err := writer.WriteField("model", model); err != nil {
		return "", fmt.Errorf("openai transcribe: write model field: %w", err)
	}
	part, err := writer.CreateFormFile("file", "audio."+format)
	if err != nil {
		return "", fmt.Errorf("openai transcribe: create form file: %w", err)
	}
	if _, err := part.Write(audio); err != nil {
		return "", fmt.Errorf("openai transcribe: write audio: %w", err)
	}
	if err := writer.Close(); err != nil {
		return "", fmt.Errorf("openai transcribe: finalize form: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, &buf)
	if err != nil {
		return "", fmt.Errorf("openai transcribe: new request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("openai transcribe: http error: %w", err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("openai transcribe: read body: %w", err)
	}
	if resp.StatusCode >= http.StatusMultipleChoices {
		return "", &StatusError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(body))}
	}

	var parsed struct {
		Text string `json:"text"`
	}
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", fmt.Errorf("openai transcribe: decode response: %w", err)
	}
	return parsed.Text, nil
}
