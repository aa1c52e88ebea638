package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"murmur/internal/logging"
)

const structuringMaxCompletionTokens = 1024

// Structure asks a chat completion model to extract structured fields from a
// transcript, returning the raw JSON content produced by the model. The same
// ordered-candidate fallback discipline as Transcribe applies.
func (c *Client) Structure(ctx context.Context, systemPrompt, transcript string, candidates []string, logger *slog.Logger) (string, error) {
	systemPrompt = strings.TrimSpace(systemPrompt)
	if systemPrompt == "" {
		return "", errors.New("openai structure: system prompt required")
	}
	if strings.TrimSpace(transcript) == "" {
		return "", errors.New("openai structure: transcript required")
	}
	if len(candidates) == 0 {
		return "", errors.New("openai structure: no candidate models")
	}
	if !c.HasCredentials() {
		return "", errors.New("openai structure: api key required")
	}

	var lastModelErr error
	for _, model := range candidates {
		content, err := c.structureOnce(ctx, systemPrompt, transcript, model)
		if err == nil {
			return content, nil
		}
		if ModelUnavailable(err) {
			if logger != nil {
				logger.Warn("structuring model unavailable, trying fallback",
					logging.String("model", model))
			}
			lastModelErr = err
			continue
		}
		return "", err
	}

	if lastModelErr == nil {
		lastModelErr = errors.New("openai structure: no available structuring model")
	}
	return "", lastModelErr
}

type chatCompletionRequest struct {
	Model               string            `json:"model"`
	Messages            []chatMessage     `json:"messages"`
	ResponseFormat      map[string]string `json:"response_format"`
	MaxCompletionTokens int               `json:"max_completion_tokens"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatCompletionResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

func (c *Client) structureOnce(ctx context.Context, systemPrompt, transcript, model string) (string, error) {
	endpoint, err := url.JoinPath(c.cfg.BaseURL, "chat", "completions")
	if err != nil {
		return "", fmt.Errorf("openai structure: build url: %w", err)
	}
	payload := chatCompletionRequest{
		Model: model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: transcript},
		},
		ResponseFormat:      map[string]string{"type": jsonResponseType},
		MaxCompletionTokens: structuringMaxCompletionTokens,
	}
	encoded, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("openai structure: encode body: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(encoded))
	if err != nil {
		return "", fmt.Errorf("openai structure: new request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("openai structure: http error: %w", err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("openai structure: read body: %w", err)
	}
	if resp.StatusCode >= http.StatusMultipleChoices {
		return "", &StatusError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(body))}
	}

	var completion chatCompletionResponse
	if err := json.Unmarshal(body, &completion); err != nil {
		return "", fmt.Errorf("openai structure: decode response: %w", err)
	}
	if completion.Error != nil {
		return "", fmt.Errorf("openai structure: api error: %s", strings.TrimSpace(completion.Error.Message))
	}
	if len(completion.Choices) == 0 {
		return "{}", nil
	}
	content := strings.TrimSpace(completion.Choices[0].Message.Content)
	if content == "" {
		return "{}", nil
	}
	return content, nil
}
