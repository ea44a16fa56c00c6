package httpapi

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/johnrirwin/marketwire/internal/models"
)

// APIError is a non-200 /rss-news response.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("news api returned status %d", e.StatusCode)
	}
	return fmt.Sprintf("news api returned status %d: %s", e.StatusCode, e.Message)
}

// Client calls a remote /rss-news endpoint. It satisfies
// orchestrator.NewsClient.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient builds a client for baseURL. A nil httpClient gets a 30s timeout.
func NewClient(baseURL string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: httpClient,
	}
}

func (c *Client) Aggregate(ctx context.Context, category string, limit int) (models.AggregationReport, error) {
	q := url.Values{}
	q.Set("category", category)
	q.Set("limit", strconv.Itoa(limit))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/rss-news?"+q.Encode(), nil)
	if err != nil {
		return models.AggregationReport{}, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return models.AggregationReport{}, fmt.Errorf("request news: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		var body NewsErrorResponse
		_ = json.NewDecoder(resp.Body).Decode(&body)
		return models.AggregationReport{}, &APIError{StatusCode: resp.StatusCode, Message: body.Error}
	}

	var body NewsResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return models.AggregationReport{}, fmt.Errorf("decode news: %w", err)
	}

	return models.AggregationReport{
		Category:        category,
		Articles:        body.Articles,
		Sources:         body.Sources,
		FeedsAttempted:  body.FeedsAttempted,
		FeedsSuccessful: body.FeedsSuccessful,
		FetchedAt:       time.Now(),
	}, nil
}
