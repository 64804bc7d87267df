package corpus

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/ppiankov/incidentcheck/internal/util"
)

// GitHubStore reads the corpus through the GitHub contents API
type GitHubStore struct {
	httpClient *http.Client
	apiBase    string
	owner      string
	repo       string
	ref        string
	token      string
	userAgent  string
	maxBytes   int64
}

// GitHubConfig configures a GitHubStore
type GitHubConfig struct {
	Repo       string // "owner/name"
	Ref        string // Branch, tag or commit; empty uses the default branch
	Token      string // Optional; raises the anonymous rate limit
	APIBase    string // Defaults to https://api.github.com
	UserAgent  string
	Timeout    time.Duration
	MaxBytes   int64
	HTTPProxy  string
	HTTPSProxy string
	NoProxy    string
}

type contentItem struct {
	Name string `json:"name"`
	Path string `json:"path"`
	Type string `json:"type"` // "file", "dir", "symlink", "submodule"
}

// NewGitHubStore creates a store for one repository
func NewGitHubStore(cfg GitHubConfig) (*GitHubStore, error) {
	owner, repo, ok := strings.Cut(strings.Trim(cfg.Repo, "/"), "/")
	if !ok || owner == "" || repo == "" || strings.Contains(repo, "/") {
		return nil, fmt.Errorf("invalid GitHub repository %q (expected owner/name)", cfg.Repo)
	}

	apiBase := cfg.APIBase
	if apiBase == "" {
		apiBase = "https://api.github.com"
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	maxBytes := cfg.MaxBytes
	if maxBytes <= 0 {
		maxBytes = 5 * 1024 * 1024
	}

	return &GitHubStore{
		httpClient: util.NewHTTPClient(timeout, cfg.HTTPProxy, cfg.HTTPSProxy, cfg.NoProxy),
		apiBase:    strings.TrimSuffix(apiBase, "/"),
		owner:      owner,
		repo:       repo,
		ref:        cfg.Ref,
		token:      cfg.Token,
		userAgent:  cfg.UserAgent,
		maxBytes:   maxBytes,
	}, nil
}

// Fetch returns the raw content of a file
func (s *GitHubStore) Fetch(ctx context.Context, p string) (string, error) {
	body, err := s.get(ctx, p, "application/vnd.github.raw+json")
	if err != nil {
		return "", err
	}
	return string(body), nil
}

// List returns the entries of a directory in the order GitHub lists them
func (s *GitHubStore) List(ctx context.Context, dir string) ([]Entry, error) {
	body, err := s.get(ctx, dir, "application/vnd.github+json")
	if err != nil {
		return nil, err
	}

	var items []contentItem
	if err := json.Unmarshal(body, &items); err != nil {
		return nil, fmt.Errorf("list %s: not a directory listing: %w", dir, err)
	}

	entries := make([]Entry, 0, len(items))
	for _, item := range items {
		if item.Type != "file" && item.Type != "dir" {
			continue
		}
		entries = append(entries, Entry{
			Name: item.Name,
			Path: item.Path,
			Dir:  item.Type == "dir",
		})
	}
	return entries, nil
}

func (s *GitHubStore) get(ctx context.Context, p, accept string) ([]byte, error) {
	reqURL := s.contentsURL(p)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("Accept", accept)
	req.Header.Set("X-GitHub-Api-Version", "2022-11-28")
	if s.userAgent != "" {
		req.Header.Set("User-Agent", s.userAgent)
	}
	if s.token != "" {
		req.Header.Set("Authorization", "Bearer "+s.token)
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", p, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode == http.StatusNotFound {
		return nil, fmt.Errorf("%s: %w", p, ErrNotFound)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("fetch %s: unexpected status: %d %s", p, resp.StatusCode, strings.TrimSpace(string(msg)))
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, s.maxBytes))
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", p, err)
	}
	return body, nil
}

func (s *GitHubStore) contentsURL(p string) string {
	clean := cleanPath(p)
	segments := []string{"repos", url.PathEscape(s.owner), url.PathEscape(s.repo), "contents"}
	if clean != "." {
		for _, seg := range strings.Split(clean, "/") {
			segments = append(segments, url.PathEscape(seg))
		}
	}

	u := s.apiBase + "/" + strings.Join(segments, "/")
	if s.ref != "" {
		u += "?ref=" + url.QueryEscape(s.ref)
	}
	return u
}
