package util

import (
	"net/http"
	"net/url"
	"testing"
	"time"
)

func proxyFor(t *testing.T, fn func(*http.Request) (*url.URL, error), target string) string {
	t.Helper()
	req, err := http.NewRequest(http.MethodGet, target, nil)
	if err != nil {
		t.Fatal(err)
	}
	u, err := fn(req)
	if err != nil {
		t.Fatalf("proxy func failed: %v", err)
	}
	if u == nil {
		return ""
	}
	return u.String()
}

func TestNewProxyFunc(t *testing.T) {
	tests := []struct {
		name                  string
		httpProxy, httpsProxy string
		noProxy               string
		target                string
		want                  string
	}{
		{
			name:      "http target uses http proxy",
			httpProxy: "http://proxy:3128",
			target:    "http://example.com/a",
			want:      "http://proxy:3128",
		},
		{
			name:      "https falls back to http proxy",
			httpProxy: "http://proxy:3128",
			target:    "https://api.github.com/repos",
			want:      "http://proxy:3128",
		},
		{
			name:       "explicit https proxy",
			httpProxy:  "http://proxy:3128",
			httpsProxy: "http://secure:3129",
			target:     "https://api.search.brave.com/res/v1/web/search",
			want:       "http://secure:3129",
		},
		{
			name:      "no_proxy domain bypasses",
			httpProxy: "http://proxy:3128",
			noProxy:   "internal.example,localhost",
			target:    "http://ollama.internal.example:11434/api/generate",
			want:      "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fn := NewProxyFunc(tt.httpProxy, tt.httpsProxy, tt.noProxy)
			if got := proxyFor(t, fn, tt.target); got != tt.want {
				t.Errorf("proxy = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestNewHTTPClient(t *testing.T) {
	c := NewHTTPClient(5*time.Second, "http://proxy:3128", "", "")
	if c.Timeout != 5*time.Second {
		t.Errorf("expected 5s timeout, got %v", c.Timeout)
	}
	tr, ok := c.Transport.(*http.Transport)
	if !ok || tr.Proxy == nil {
		t.Fatal("expected transport with proxy func")
	}
	if got := proxyFor(t, tr.Proxy, "http://example.com"); got != "http://proxy:3128" {
		t.Errorf("proxy = %q", got)
	}
}
