package platform

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
	"github.com/federicoviola/AppTwitter/internal/models"
	"github.com/rs/zerolog"
)

const xPostEndpoint = "https://api.twitter.com/2/tweets"

// XClient implements Client against the X v2 API
type XClient struct {
	bearerToken string
	endpoint    string
	httpClient  *http.Client
	log         zerolog.Logger
}

var _ Client = (*XClient)(nil)

// NewXClient builds a client from configuration
func NewXClient(cfg config.XConfig, log zerolog.Logger) *XClient {
	return &XClient{
		bearerToken: cfg.BearerToken,
		endpoint:    xPostEndpoint,
		httpClient: &http.Client{
			Timeout: 20 * time.Second,
		},
		log: log.With().Str("component", "x_client").Logger(),
	}
}

// Available reports whether credentials are configured
func (c *XClient) Available() bool {
	return c != nil && c.bearerToken != ""
}

type xPostResponse struct {
	Data struct {
		ID   string `json:"id"`
		Text string `json:"text"`
	} `json:"data"`
}

// Publish posts the text as a single tweet
func (c *XClient) Publish(ctx context.Context, post *models.PendingPost) (*PostResult, error) {
	if !c.Available() {
		return nil, fmt.Errorf("x client not configured")
	}

	body, err := json.Marshal(map[string]string{"text": post.Content})
	if err != nil {
		return nil, fmt.Errorf("marshal tweet payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.bearerToken)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("post tweet: %w", err)
	}
	defer resp.Body.Close()

	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	if resp.StatusCode >= http.StatusBadRequest {
		return nil, fmt.Errorf("x error %s: %s", resp.Status, strings.TrimSpace(string(raw)))
	}

	var parsed xPostResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return nil, fmt.Errorf("decode x response: %w", err)
	}

	c.log.Info().Str("post_id", parsed.Data.ID).Msg("Tweet published")

	return &PostResult{
		PostID:      parsed.Data.ID,
		RawResponse: string(raw),
	}, nil
}
