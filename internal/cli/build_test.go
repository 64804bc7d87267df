package cli

import (
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/spf13/cobra"

	"github.com/ppiankov/incidentcheck/internal/model"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestBuildPipeline_NoProvider(t *testing.T) {
	cfg := model.DefaultConfig()
	cfg.LLM.Provider = ""

	p, err := buildPipeline(cfg, quietLogger())
	if err != nil {
		t.Fatalf("buildPipeline failed: %v", err)
	}
	if p.FactCheckEnabled() {
		t.Error("fact check needs a provider")
	}
}

func TestBuildPipeline_FactCheckToggle(t *testing.T) {
	cfg := model.DefaultConfig()
	cfg.LLM.Provider = "ollama"
	cfg.LLM.Model = "llama3.1:8b"
	cfg.Corpus.Dir = t.TempDir()

	p, err := buildPipeline(cfg, quietLogger())
	if err != nil {
		t.Fatalf("buildPipeline failed: %v", err)
	}
	if !p.FactCheckEnabled() {
		t.Error("expected fact check to be enabled")
	}

	cfg.Validation.FactCheck = false
	p, err = buildPipeline(cfg, quietLogger())
	if err != nil {
		t.Fatalf("buildPipeline failed: %v", err)
	}
	if p.FactCheckEnabled() {
		t.Error("expected fact check to be disabled")
	}
}

func TestBuildPipeline_Errors(t *testing.T) {
	cfg := model.DefaultConfig()
	cfg.LLM.Provider = "ollama"
	cfg.Corpus.GitHubRepo = "not-a-repo"
	if _, err := buildPipeline(cfg, quietLogger()); err == nil {
		t.Error("expected error for malformed GitHub repository")
	}

	cfg = model.DefaultConfig()
	cfg.LLM.Provider = "gemini"
	if _, err := buildPipeline(cfg, quietLogger()); err == nil {
		t.Error("expected error for unknown provider")
	}
}

func TestBuildSearcher(t *testing.T) {
	cfg := model.DefaultConfig()
	s, err := buildSearcher(cfg, nil, quietLogger())
	if err != nil || s != nil {
		t.Errorf("expected no searcher without a key, got %v, %v", s, err)
	}

	cfg.Search.APIKey = "brave"
	s, err = buildSearcher(cfg, nil, quietLogger())
	if err != nil || s == nil {
		t.Errorf("expected searcher, got %v, %v", s, err)
	}
}

func TestRetryPolicy(t *testing.T) {
	rc := model.DefaultConfig().Retry
	rc.MaxAttempts = 5
	p := retryPolicy(rc)
	if p.MaxAttempts != 5 || p.MaxTotal != rc.MaxTotal || p.Multiplier != 2 {
		t.Errorf("unexpected policy: %+v", p)
	}
}

func TestSanitizeFilename(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"articles/2025/bybit.md", "articles_2025_bybit"},
		{"./draft one.md", "draft-one"},
		{"../x/a:b.md", "x_a_b"},
		{".md", "draft"},
	}
	for _, tt := range tests {
		if got := sanitizeFilename(tt.in); got != tt.want {
			t.Errorf("sanitizeFilename(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestApplyValidationFlags(t *testing.T) {
	cmd := &cobra.Command{Use: "x"}
	addValidationFlags(cmd)

	cfg := model.DefaultConfig()
	applyValidationFlags(cmd, cfg)
	if cfg.LLM.Provider != "anthropic" || cfg.Corpus.GitHubRef != "main" || !cfg.Validation.FactCheck {
		t.Errorf("unset flags must not override config: %+v", cfg.LLM)
	}

	for name, val := range map[string]string{
		"llm-provider":  "ollama",
		"github-repo":   "org/incidents",
		"no-fact-check": "true",
	} {
		if err := cmd.Flags().Set(name, val); err != nil {
			t.Fatal(err)
		}
	}
	applyValidationFlags(cmd, cfg)
	if cfg.LLM.Provider != "ollama" || cfg.Corpus.GitHubRepo != "org/incidents" || cfg.Validation.FactCheck {
		t.Errorf("flags not applied: provider=%q repo=%q factcheck=%v", cfg.LLM.Provider, cfg.Corpus.GitHubRepo, cfg.Validation.FactCheck)
	}
}

func TestApplyBatchFlags(t *testing.T) {
	cmd := &cobra.Command{Use: "x"}
	cmd.Flags().Duration(lockTimeoutFlag, 0, "")

	cfg := model.DefaultConfig()
	applyBatchFlags(cmd, cfg)
	if cfg.Sequencer.LockTimeout != time.Minute {
		t.Errorf("unset flag must keep the configured timeout, got %v", cfg.Sequencer.LockTimeout)
	}

	if err := cmd.Flags().Set(lockTimeoutFlag, "5m"); err != nil {
		t.Fatal(err)
	}
	applyBatchFlags(cmd, cfg)
	if cfg.Sequencer.LockTimeout != 5*time.Minute {
		t.Errorf("expected 5m lock timeout, got %v", cfg.Sequencer.LockTimeout)
	}
}
