package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/federicoviola/AppTwitter/internal/config"
	"github.com/rs/zerolog"
)

// TextGenerator is the single generation capability the rest of the
// application depends on. One concrete backend is resolved at startup;
// business logic never branches on provider identity.
type TextGenerator interface {
	Generate(ctx context.Context, prompt string, maxTokens int, systemInstruction string) (string, error)
	Available() bool
}

// Client implements TextGenerator backed by an OpenAI-compatible chat
// completions endpoint
type Client struct {
	endpoint    string
	model       string
	apiKey      string
	temperature float64
	httpClient  *http.Client
	log         zerolog.Logger
}

var _ TextGenerator = (*Client)(nil)

// NewClient builds a client from configuration. temperature comes from
// the voice profile.
func NewClient(cfg config.LLMConfig, temperature float64, log zerolog.Logger) *Client {
	return &Client{
		endpoint:    cfg.Endpoint,
		model:       cfg.Model,
		apiKey:      cfg.APIKey,
		temperature: temperature,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		log: log.With().Str("component", "llm").Logger(),
	}
}

// Available reports whether the backend is configured
func (c *Client) Available() bool {
	return c != nil && c.apiKey != "" && c.endpoint != "" && c.model != ""
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// Generate sends the prompt as a user message and returns the trimmed
// completion text
func (c *Client) Generate(ctx context.Context, prompt string, maxTokens int, systemInstruction string) (string, error) {
	if !c.Available() {
		return "", fmt.Errorf("llm client not configured")
	}

	messages := []map[string]string{}
	if systemInstruction != "" {
		messages = append(messages, map[string]string{"role": "system", "content": systemInstruction})
	}
	messages = append(messages, map[string]string{"role": "user", "content": prompt})

	body, err := json.Marshal(map[string]any{
		"model":       c.model,
		"messages":    messages,
		"temperature": c.temperature,
		"max_tokens":  maxTokens,
	})
	if err != nil {
		return "", fmt.Errorf("marshal llm payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("llm request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return "", fmt.Errorf("llm error %s: %s", resp.Status, strings.TrimSpace(string(payload)))
	}

	var parsed chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", fmt.Errorf("decode llm response: %w", err)
	}
	if len(parsed.Choices) == 0 {
		return "", fmt.Errorf("llm response has no choices")
	}

	return strings.TrimSpace(parsed.Choices[0].Message.Content), nil
}
