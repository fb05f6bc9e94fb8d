/*
Package searchtool wraps the Serper.dev Google-search API. The advisor's
research agents invoke it as a tool; results come back flattened to a text
block the model can read directly.
*/
package searchtool

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

const (
	defaultBaseURL = "https://google.serper.dev"
	requestTimeout = 30 * time.Second
	maxResults     = 5
)

// Client calls the Serper search endpoint. BaseURL and HTTP default to the
// production endpoint and a timeout-bounded client when left zero. Limiter,
// when set, paces outgoing queries; the model decides how often to search,
// so the pace is not under our control otherwise.
type Client struct {
	APIKey  string
	BaseURL string
	HTTP    *http.Client
	Limiter *rate.Limiter
}

type searchRequest struct {
	Query string `json:"q"`
}

type searchResponse struct {
	Organic []organicResult `json:"organic"`
}

type organicResult struct {
	Title   string `json:"title"`
	Link    string `json:"link"`
	Snippet string `json:"snippet"`
}

// Search runs one web search and returns the top organic results as a
// readable text block.
func (c *Client) Search(ctx context.Context, query string) (string, error) {
	if c.Limiter != nil {
		if err := c.Limiter.Wait(ctx); err != nil {
			return "", err
		}
	}

	body, err := json.Marshal(searchRequest{Query: query})
	if err != nil {
		return "", fmt.Errorf("failed to marshal search request: %w", err)
	}

	baseURL := c.BaseURL
	if baseURL == "" {
		baseURL = defaultBaseURL
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, baseURL+"/search", bytes.NewBuffer(body))
	if err != nil {
		return "", fmt.Errorf("failed to create search request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-API-KEY", c.APIKey)

	client := c.HTTP
	if client == nil {
		client = &http.Client{Timeout: requestTimeout}
	}

	resp, err := client.Do(req)
	if err != nil {
		return "", fmt.Errorf("search request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("search API returned non-200 status: %s", resp.Status)
	}

	var parsed searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", fmt.Errorf("failed to decode search response: %w", err)
	}

	return flatten(parsed.Organic), nil
}

func flatten(results []organicResult) string {
	if len(results) == 0 {
		return "No results found."
	}
	if len(results) > maxResults {
		results = results[:maxResults]
	}

	var b strings.Builder
	for i, r := range results {
		fmt.Fprintf(&b, "%d. %s\n%s\n%s\n", i+1, r.Title, r.Link, r.Snippet)
		if i < len(results)-1 {
			b.WriteString("\n")
		}
	}
	return b.String()
}
