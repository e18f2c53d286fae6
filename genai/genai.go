// Package genai is the client for the external text-generation service.
// The pipeline treats the service as a producer of opaque text: prompt in,
// text out. The only post-processing offered is a best-effort structured
// extraction that falls back to the raw text.
package genai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"
)

// Config is the construction-time configuration. There are no environment
// reads at call time.
type Config struct {
	BaseURL     string  `yaml:"base_url"`
	APIKey      string  `yaml:"api_key"`
	Model       string  `yaml:"model"`
	Temperature float32 `yaml:"temperature"`
	MaxTokens   int     `yaml:"max_tokens"`

	Logger *slog.Logger `yaml:"-"`
}

func (c *Config) defaults() {
	if c.Model == "" {
		c.Model = "gpt-4o-mini"
	}
	if c.MaxTokens <= 0 {
		c.MaxTokens = 8192
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
}

// Client talks to an OpenAI-compatible chat-completions endpoint.
type Client struct {
	cfg    Config
	client *http.Client
}

// NewClient creates a generation client.
func NewClient(cfg Config) *Client {
	cfg.defaults()
	return &Client{
		cfg: cfg,
		client: &http.Client{
			Timeout: 120 * time.Second,
		},
	}
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	MaxTokens   int           `json:"max_tokens"`
	Temperature float32       `json:"temperature"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Model   string `json:"model"`
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
	Usage struct {
		TotalTokens int `json:"total_tokens"`
	} `json:"usage"`
}

// Generate sends one system+user prompt pair and returns the generated text.
func (c *Client) Generate(ctx context.Context, system, user string) (string, error) {
	req := chatRequest{
		Model: c.cfg.Model,
		Messages: []chatMessage{
			{Role: "system", Content: system},
			{Role: "user", Content: user},
		},
		MaxTokens:   c.cfg.MaxTokens,
		Temperature: c.cfg.Temperature,
	}

	reqJSON, err := json.Marshal(req)
	if err != nil {
		return "", fmt.Errorf("genai: marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, "POST",
		strings.TrimRight(c.cfg.BaseURL, "/")+"/v1/chat/completions", bytes.NewReader(reqJSON))
	if err != nil {
		return "", fmt.Errorf("genai: create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if c.cfg.APIKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	}

	start := time.Now()
	resp, err := c.client.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("genai: request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("genai: provider returned status %d: %s", resp.StatusCode, string(body))
	}

	var chat chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&chat); err != nil {
		return "", fmt.Errorf("genai: decode response: %w", err)
	}
	if len(chat.Choices) == 0 {
		return "", fmt.Errorf("genai: provider returned no choices")
	}

	c.cfg.Logger.Debug("genai: generation complete",
		"model", c.cfg.Model,
		"duration", time.Since(start),
		"tokens", chat.Usage.TotalTokens)

	return chat.Choices[0].Message.Content, nil
}

// ParseStructured attempts to extract a JSON payload from generated text,
// stripping markdown code fences first. The boolean reports success; on
// failure the caller keeps the raw text.
func ParseStructured(text string) (json.RawMessage, bool) {
	candidate := strings.TrimSpace(text)

	if i := strings.Index(candidate, "```"); i >= 0 {
		rest := candidate[i+3:]
		rest = strings.TrimPrefix(rest, "json")
		if j := strings.Index(rest, "```"); j >= 0 {
			candidate = strings.TrimSpace(rest[:j])
		}
	}

	if start := strings.IndexAny(candidate, "{["); start >= 0 {
		candidate = candidate[start:]
	}

	var v any
	if err := json.Unmarshal([]byte(candidate), &v); err != nil {
		return nil, false
	}
	return json.RawMessage(candidate), true
}
