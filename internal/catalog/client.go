package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"jobRadar/internal/config"
)

// Client 负责从外部职位目录拉取当前有效的职位列表。
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient 构造目录客户端，超时由配置给出。
func NewClient(cfg config.CatalogConfig) *Client {
	return &Client{
		baseURL:    strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/"),
		httpClient: &http.Client{Timeout: cfg.Timeout},
	}
}

// ActivePostings fetches every currently active posting from the feed.
// Failures are returned to the caller: an empty result with a non-nil error
// must never be confused with "no new postings".
func (c *Client) ActivePostings(ctx context.Context) ([]Posting, error) {
	if c.baseURL == "" {
		return nil, fmt.Errorf("catalog base url missing")
	}

	targetURL := c.baseURL + "/v1/postings/active"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, targetURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build catalog request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request active postings: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 8*1024))
		return nil, fmt.Errorf("catalog status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var postings []Posting
	if err := json.NewDecoder(resp.Body).Decode(&postings); err != nil {
		return nil, fmt.Errorf("decode active postings: %w", err)
	}

	return postings, nil
}
