package search

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/ppiankov/incidentcheck/internal/util"
)

// WebResult is one raw hit from a web search provider
type WebResult struct {
	Title       string `json:"title"`
	URL         string `json:"url"`
	Description string `json:"description"`
	Age         string `json:"age,omitempty"` // Free-form ("3 days ago", "March 3, 2024", RFC3339)
	Domain      string `json:"domain,omitempty"`
}

// WebSearcher runs one web search query
type WebSearcher interface {
	Search(ctx context.Context, query string, count int) ([]WebResult, error)
}

// StatusError is a non-2xx answer from the search provider
type StatusError struct {
	StatusCode int
	Message    string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("search API error (%d): %s", e.StatusCode, e.Message)
}

// BraveClient queries the Brave Web Search API
type BraveClient struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	userAgent  string
}

// BraveConfig configures a BraveClient
type BraveConfig struct {
	APIKey     string
	BaseURL    string
	UserAgent  string
	Timeout    time.Duration
	HTTPProxy  string
	HTTPSProxy string
	NoProxy    string
}

type braveResponse struct {
	Web struct {
		Results []braveResult `json:"results"`
	} `json:"web"`
}

type braveResult struct {
	Title       string `json:"title"`
	URL         string `json:"url"`
	Description string `json:"description"`
	Age         string `json:"age"`
	PageAge     string `json:"page_age"`
	MetaURL     struct {
		Hostname string `json:"hostname"`
	} `json:"meta_url"`
}

// NewBraveClient creates a Brave search client
func NewBraveClient(cfg BraveConfig) (*BraveClient, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("Brave search API key is required")
	}
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = "https://api.search.brave.com/res/v1/web/search"
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 15 * time.Second
	}

	return &BraveClient{
		httpClient: util.NewHTTPClient(timeout, cfg.HTTPProxy, cfg.HTTPSProxy, cfg.NoProxy),
		baseURL:    baseURL,
		apiKey:     cfg.APIKey,
		userAgent:  cfg.UserAgent,
	}, nil
}

// Search runs one query and returns at most count results
func (c *BraveClient) Search(ctx context.Context, query string, count int) ([]WebResult, error) {
	params := url.Values{}
	params.Set("q", query)
	if count > 0 {
		params.Set("count", strconv.Itoa(count))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Subscription-Token", c.apiKey)
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("execute request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 2*1024*1024))
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, &StatusError{StatusCode: resp.StatusCode, Message: strings.TrimSpace(string(body))}
	}

	var parsed braveResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("unmarshal response: %w", err)
	}

	results := make([]WebResult, 0, len(parsed.Web.Results))
	for _, r := range parsed.Web.Results {
		age := r.Age
		if age == "" {
			age = r.PageAge
		}
		results = append(results, WebResult{
			Title:       r.Title,
			URL:         r.URL,
			Description: r.Description,
			Age:         age,
			Domain:      r.MetaURL.Hostname,
		})
	}
	return results, nil
}
