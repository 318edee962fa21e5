// Package ai talks to an OpenAI-compatible chat completion endpoint to
// generate character field suggestions. The upstream is optional: an
// unconfigured client fails every call with a descriptive error instead of
// an opaque network failure, and a circuit breaker keeps a flapping upstream
// from stalling every editor action.
package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/andreaspandu8619/mastercreator/pkg/logger"
	"github.com/andreaspandu8619/mastercreator/pkg/resilience"
)

// Settings configures the completion client.
type Settings struct {
	Endpoint    string
	APIKey      string
	Model       string
	MaxTokens   int
	Temperature float64
}

// Client is a chat completion client for one configured endpoint.
type Client struct {
	settings   Settings
	httpClient *http.Client
	breaker    *resilience.CircuitBreaker
	log        *logger.Logger
}

// NewClient builds a completion client. httpClient may be nil, in which case
// http.DefaultClient is used; callers pass a client with the configured
// generation timeout.
func NewClient(settings Settings, httpClient *http.Client, log *logger.Logger) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{
		settings:   settings,
		httpClient: httpClient,
		breaker:    resilience.NewCircuitBreaker(resilience.DefaultCircuitBreakerConfig("generation"), log),
		log:        log.WithComponent("ai"),
	}
}

// Configured reports whether the client has enough settings to attempt a
// call. An API key is not required; local endpoints often have none.
func (c *Client) Configured() bool {
	return c.settings.Endpoint != "" && c.settings.Model != ""
}

// ConfigError explains what is missing when Configured is false.
func (c *Client) ConfigError() error {
	missing := []string{}
	if c.settings.Endpoint == "" {
		missing = append(missing, "GENERATION_ENDPOINT")
	}
	if c.settings.Model == "" {
		missing = append(missing, "GENERATION_MODEL")
	}
	if len(missing) == 0 {
		return nil
	}
	return fmt.Errorf("generation is not configured: set %s", strings.Join(missing, " and "))
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
	Temperature float64       `json:"temperature,omitempty"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// Complete sends one system+user prompt pair and returns the raw completion
// text. Upstream failures count against the circuit breaker.
func (c *Client) Complete(ctx context.Context, system, user string) (string, error) {
	if err := c.ConfigError(); err != nil {
		return "", err
	}

	var content string
	err := c.breaker.Execute(func() error {
		out, err := c.complete(ctx, system, user)
		if err != nil {
			return err
		}
		content = out
		return nil
	})
	return content, err
}

func (c *Client) complete(ctx context.Context, system, user string) (string, error) {
	body, err := json.Marshal(chatRequest{
		Model: c.settings.Model,
		Messages: []chatMessage{
			{Role: "system", Content: system},
			{Role: "user", Content: user},
		},
		MaxTokens:   c.settings.MaxTokens,
		Temperature: c.settings.Temperature,
	})
	if err != nil {
		return "", fmt.Errorf("error marshaling request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.settings.Endpoint, bytes.NewBuffer(body))
	if err != nil {
		return "", fmt.Errorf("error creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.settings.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.settings.APIKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("error calling generation endpoint: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("error reading response body: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("generation endpoint returned status %d: %s", resp.StatusCode, truncate(string(raw), 200))
	}

	var parsed chatResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return "", fmt.Errorf("error unmarshaling response: %w", err)
	}
	if parsed.Error != nil {
		return "", fmt.Errorf("generation endpoint error: %s", parsed.Error.Message)
	}
	if len(parsed.Choices) == 0 {
		return "", fmt.Errorf("generation endpoint returned no choices")
	}
	return parsed.Choices[0].Message.Content, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
