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

const linkedInPostEndpoint = "https://api.linkedin.com/v2/ugcPosts"

// LinkedInClient implements Client against the LinkedIn UGC posts API.
// Token acquisition is out of scope; an already issued access token
// comes from configuration.
type LinkedInClient struct {
	accessToken string
	authorURN   string
	endpoint    string
	httpClient  *http.Client
	log         zerolog.Logger
}

var _ Client = (*LinkedInClient)(nil)

// NewLinkedInClient builds a client from configuration
func NewLinkedInClient(cfg config.LinkedInConfig, log zerolog.Logger) *LinkedInClient {
	return &LinkedInClient{
		accessToken: cfg.AccessToken,
		authorURN:   cfg.AuthorURN,
		endpoint:    linkedInPostEndpoint,
		httpClient: &http.Client{
			Timeout: 20 * time.Second,
		},
		log: log.With().Str("component", "linkedin_client").Logger(),
	}
}

// Available reports whether credentials are configured
func (c *LinkedInClient) Available() bool {
	return c != nil && c.accessToken != "" && c.authorURN != ""
}

// Publish posts the text as a UGC share. When the pending post carries
// an article link it is attached as ARTICLE media rather than inlined.
func (c *LinkedInClient) Publish(ctx context.Context, post *models.PendingPost) (*PostResult, error) {
	if !c.Available() {
		return nil, fmt.Errorf("linkedin client not configured")
	}

	shareContent := map[string]any{
		"shareCommentary":    map[string]string{"text": post.Content},
		"shareMediaCategory": "NONE",
	}
	if post.ArticleURL != "" {
		shareContent["shareMediaCategory"] = "ARTICLE"
		shareContent["media"] = []map[string]any{
			{
				"status":      "READY",
				"originalUrl": post.ArticleURL,
				"title":       map[string]string{"text": post.ArticleTitle},
			},
		}
	}

	body, err := json.Marshal(map[string]any{
		"author":         c.authorURN,
		"lifecycleState": "PUBLISHED",
		"specificContent": map[string]any{
			"com.linkedin.ugc.ShareContent": shareContent,
		},
		"visibility": map[string]string{
			"com.linkedin.ugc.MemberNetworkVisibility": "PUBLIC",
		},
	})
	if err != nil {
		return nil, fmt.Errorf("marshal linkedin payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.accessToken)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Restli-Protocol-Version", "2.0.0")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("post to linkedin: %w", err)
	}
	defer resp.Body.Close()

	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	if resp.StatusCode >= http.StatusBadRequest {
		return nil, fmt.Errorf("linkedin error %s: %s", resp.Status, strings.TrimSpace(string(raw)))
	}

	postID := resp.Header.Get("X-RestLi-Id")
	if postID == "" {
		var parsed struct {
			ID string `json:"id"`
		}
		json.Unmarshal(raw, &parsed)
		postID = parsed.ID
	}

	c.log.Info().Str("post_id", postID).Msg("LinkedIn post published")

	return &PostResult{
		PostID:      postID,
		RawResponse: string(raw),
	}, nil
}
