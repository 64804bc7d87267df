package corpus

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

func newTestGitHub(t *testing.T, handler http.HandlerFunc) *GitHubStore {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	s, err := NewGitHubStore(GitHubConfig{
		Repo:      "acme/incidents",
		Ref:       "main",
		Token:     "ghp_test",
		APIBase:   server.URL,
		UserAgent: "incidentcheck-test",
		Timeout:   5 * time.Second,
	})
	if err != nil {
		t.Fatalf("NewGitHubStore failed: %v", err)
	}
	return s
}

func TestGitHubStore_List(t *testing.T) {
	s := newTestGitHub(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/repos/acme/incidents/contents/articles" {
			t.Errorf("Unexpected path %s", r.URL.Path)
		}
		if r.URL.Query().Get("ref") != "main" {
			t.Errorf("Expected ref=main, got %q", r.URL.RawQuery)
		}
		if r.Header.Get("Authorization") != "Bearer ghp_test" {
			t.Errorf("Unexpected Authorization header %q", r.Header.Get("Authorization"))
		}
		if r.Header.Get("User-Agent") != "incidentcheck-test" {
			t.Errorf("Unexpected User-Agent %q", r.Header.Get("User-Agent"))
		}
		_, _ = w.Write([]byte(`[
			{"name": "2024", "path": "articles/2024", "type": "dir"},
			{"name": "bybit-hack.md", "path": "articles/bybit-hack.md", "type": "file"},
			{"name": "vendor", "path": "articles/vendor", "type": "submodule"}
		]`))
	})

	entries, err := s.List(context.Background(), "articles")
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	want := []Entry{
		{Name: "2024", Path: "articles/2024", Dir: true},
		{Name: "bybit-hack.md", Path: "articles/bybit-hack.md"},
	}
	if diff := cmp.Diff(want, entries); diff != "" {
		t.Errorf("entries mismatch (-want +got):\n%s", diff)
	}
}

func TestGitHubStore_FetchRaw(t *testing.T) {
	s := newTestGitHub(t, func(w http.ResponseWriter, r *http.Request) {
		if !strings.Contains(r.Header.Get("Accept"), "raw") {
			t.Errorf("Expected raw Accept header, got %q", r.Header.Get("Accept"))
		}
		if r.URL.Path != "/repos/acme/incidents/contents/articles/2024/bybit%20hack.md" && r.URL.Path != "/repos/acme/incidents/contents/articles/2024/bybit hack.md" {
			t.Errorf("Unexpected path %s", r.URL.Path)
		}
		_, _ = w.Write([]byte("---\ntitle: Bybit\n---\n"))
	})

	content, err := s.Fetch(context.Background(), "articles/2024/bybit hack.md")
	if err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}
	if content != "---\ntitle: Bybit\n---\n" {
		t.Errorf("Unexpected content %q", content)
	}
}

func TestGitHubStore_Errors(t *testing.T) {
	s := newTestGitHub(t, func(w http.ResponseWriter, r *http.Request) {
		if strings.HasSuffix(r.URL.Path, "missing.md") {
			http.NotFound(w, r)
			return
		}
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte(`{"message": "API rate limit exceeded"}`))
	})

	ctx := context.Background()
	if _, err := s.Fetch(ctx, "articles/missing.md"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}

	_, err := s.List(ctx, "articles")
	if err == nil || !strings.Contains(err.Error(), "403") {
		t.Errorf("Expected 403 error, got %v", err)
	}
}

func TestNewGitHubStore_InvalidRepo(t *testing.T) {
	for _, repo := range []string{"", "acme", "acme/", "/incidents", "a/b/c"} {
		if _, err := NewGitHubStore(GitHubConfig{Repo: repo}); err == nil {
			t.Errorf("Expected error for repo %q", repo)
		}
	}
}
