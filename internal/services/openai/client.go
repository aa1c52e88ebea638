package openai

import (
	"net/http"
	"strings"
	"time"
)

const (
	defaultBaseURL     = "https://api.openai.com/v1"
	defaultHTTPTimeout = 60 * time.Second
	jsonResponseType   = "json_object"
)

// Config captures the runtime settings required to talk to the OpenAI API.
type Config struct {
	APIKey         string
	BaseURL        string
	TimeoutSeconds int
}

// Client wraps the OpenAI transcription and chat completion APIs.
type Client struct {
	cfg        Config
	httpClient *http.Client
}

// Option customizes the client.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// NewClient constructs an OpenAI client using the supplied configuration.
func NewClient(cfg Config, opts ...Option) *Client {
	timeout := defaultHTTPTimeout
	if cfg.TimeoutSeconds > 0 {
		timeout = time.Duration(cfg.TimeoutSeconds) * time.Second
	}
	client := &Client{
		cfg: Config{
			APIKey:         strings.TrimSpace(cfg.APIKey),
			BaseURL:        strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/"),
			TimeoutSeconds: cfg.TimeoutSeconds,
		},
		httpClient: &http.Client{Timeout: timeout},
	}
	for _, opt := range opts {
		opt(client)
	}
	if client.cfg.BaseURL == "" {
		client.cfg.BaseURL = defaultBaseURL
	}
	if client.httpClient == nil {
		client.httpClient = &http.Client{Timeout: defaultHTTPTimeout}
	}
	return client
}

// HasCredentials reports whether an API key is configured.
func (c *Client) HasCredentials() bool {
	return strings.TrimSpace(c.cfg.APIKey) != ""
}
