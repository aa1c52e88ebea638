// Package client performs the memo processing round trip against the murmur
// server and maps HTTP outcomes to a typed error set.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"murmur/internal/api"
	"murmur/internal/config"
)

const (
	defaultTimeout = 30 * time.Second

	// devFallbackBaseURL is used only when dev mode is enabled and nothing
	// else resolves a base URL.
	devFallbackBaseURL = "http://127.0.0.1:5000"

	envDevMode = "MURMUR_DEV"
)

// Client performs one POST /api/process-memory round trip per memo.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

// Option customizes the client.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		if httpClient != nil {
			c.httpClient = httpClient
		}
	}
}

// New resolves the processing endpoint once and builds a client around it.
// Resolution order: MURMUR_API_BASE_URL environment override, configured base
// URL, then a localhost fallback when MURMUR_DEV is set. With none of those,
// construction fails with ErrInvalidConfiguration.
func New(cfg *config.Config, opts ...Option) (*Client, error) {
	baseURL, err := resolveBaseURL(cfg)
	if err != nil {
		return nil, err
	}

	timeout := defaultTimeout
	token := ""
	if cfg != nil {
		if cfg.Client.TimeoutSeconds > 0 {
			timeout = time.Duration(cfg.Client.TimeoutSeconds) * time.Second
		}
		token = strings.TrimSpace(cfg.Paths.APIToken)
	}

	client := &Client{
		baseURL:    baseURL,
		token:      token,
		httpClient: &http.Client{Timeout: timeout},
	}
	for _, opt := range opts {
		opt(client)
	}
	return client, nil
}

func resolveBaseURL(cfg *config.Config) (string, error) {
	if env := strings.TrimSpace(os.Getenv(config.EnvClientBaseURL)); env != "" {
		return strings.TrimRight(env, "/"), nil
	}
	if cfg != nil {
		if configured := strings.TrimSpace(cfg.Client.BaseURL); configured != "" {
			return strings.TrimRight(configured, "/"), nil
		}
	}
	if strings.TrimSpace(os.Getenv(envDevMode)) != "" {
		return devFallbackBaseURL, nil
	}
	return "", NewRequestError(ErrInvalidConfiguration,
		"No processing endpoint configured. Set client.base_url in the config file or the MURMUR_API_BASE_URL environment variable.")
}

// BaseURL reports the endpoint the client resolved at construction.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// ProcessMemory sends a base64 audio payload for processing and returns the
// structured result. Failures come back as *RequestError wrapping one of the
// package's sentinel markers.
func (c *Client) ProcessMemory(ctx context.Context, audioBase64 string) (api.ProcessMemoryResponse, error) {
	var empty api.ProcessMemoryResponse

	encoded, err := json.Marshal(api.ProcessMemoryRequest{Audio: audioBase64})
	if err != nil {
		return empty, NewRequestError(ErrDecoding, "Could not encode the request body: "+err.Error())
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/process-memory", bytes.NewReader(encoded))
	if err != nil {
		return empty, NewRequestError(ErrTransport, err.Error())
	}
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return empty, NewRequestError(ErrTransport, transportMessage(c.baseURL, err))
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return empty, NewRequestError(ErrTransport, transportMessage(c.baseURL, err))
	}

	switch {
	case resp.StatusCode == http.StatusOK:
		var result api.ProcessMemoryResponse
		if err := json.Unmarshal(body, &result); err != nil {
			return empty, NewRequestError(ErrDecoding, "The server returned a response that could not be decoded.")
		}
		return result, nil
	case resp.StatusCode == http.StatusBadRequest:
		return empty, NewRequestError(ErrBadRequest, extractErrorMessage(resp.StatusCode, body))
	case resp.StatusCode == http.StatusRequestEntityTooLarge:
		return empty, NewRequestError(ErrTooLarge, extractErrorMessage(resp.StatusCode, body))
	default:
		return empty, NewRequestError(ErrServerError, extractErrorMessage(resp.StatusCode, body))
	}
}

// transportMessage rewrites common low-level transport failures into a hint
// the user can act on.
func transportMessage(baseURL string, err error) string {
	lowered := strings.ToLower(err.Error())
	switch {
	case strings.Contains(lowered, "context deadline exceeded"),
		strings.Contains(lowered, "timeout"):
		return "The request timed out. The server may be busy or unreachable."
	case strings.Contains(lowered, "connection refused"),
		strings.Contains(lowered, "no such host"),
		strings.Contains(lowered, "network is unreachable"):
		return fmt.Sprintf("Could not reach the backend at %s. Is the server running?", baseURL)
	default:
		return err.Error()
	}
}
