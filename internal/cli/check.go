package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/ppiankov/incidentcheck/internal/model"
	"github.com/ppiankov/incidentcheck/internal/pipeline"
)

// ErrInvalid is returned when at least one draft failed validation
var ErrInvalid = errors.New("validation failed")

var (
	outJSON      string
	outMD        string
	checkTimeout time.Duration
)

// checkCmd represents the check command
var checkCmd = &cobra.Command{
	Use:   "check <draft.md>",
	Short: "Validate a single incident report draft",
	Long: `Check runs one draft through every validation gate:
- Compare it with published reports of the same name
- Validate front matter and required sections
- Extract its statements and verify them against web sources
- Print a one-line verdict and optionally write JSON/Markdown reports

The command exits non-zero when the draft is invalid.

Example:
  incidentcheck check articles/2025/bybit.md
  incidentcheck check draft.md --corpus-dir ../reports --json verdict.json
  incidentcheck check draft.md --github-repo org/incidents --md verdict.md
  incidentcheck check draft.md --no-fact-check`,
	Args: cobra.ExactArgs(1),
	RunE: runCheck,
}

func init() {
	rootCmd.AddCommand(checkCmd)

	// Output flags
	checkCmd.Flags().StringVar(&outJSON, "json", "", "output JSON path (optional)")
	checkCmd.Flags().StringVar(&outMD, "md", "", "output Markdown path (optional)")
	checkCmd.Flags().DurationVar(&checkTimeout, "timeout", 10*time.Minute, "overall validation timeout")

	addValidationFlags(checkCmd)
}

// addValidationFlags registers the flags check and batch share
func addValidationFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.String("corpus-dir", "", "local checkout of the published corpus")
	f.String("github-repo", "", "GitHub repository holding the corpus (owner/name)")
	f.String("github-ref", "", "branch, tag or commit of the corpus repository")
	f.String("llm-provider", "", "LLM provider (openai, anthropic, ollama)")
	f.String("llm-model", "", "LLM model name")
	f.Bool("no-fact-check", false, "skip claim extraction and fact verification")
}

// applyValidationFlags overrides cfg with the flags the user actually set
func applyValidationFlags(cmd *cobra.Command, cfg *model.Config) {
	f := cmd.Flags()
	str := func(name string, dst *string) {
		if f.Changed(name) {
			*dst, _ = f.GetString(name)
		}
	}
	str("corpus-dir", &cfg.Corpus.Dir)
	str("github-repo", &cfg.Corpus.GitHubRepo)
	str("github-ref", &cfg.Corpus.GitHubRef)
	str("llm-provider", &cfg.LLM.Provider)
	str("llm-model", &cfg.LLM.Model)
	if off, _ := f.GetBool("no-fact-check"); off {
		cfg.Validation.FactCheck = false
	}
}

// loadForCommand loads, overrides and validates the configuration
func loadForCommand(cmd *cobra.Command) (*model.Config, error) {
	cfg, err := loadConfig(viper.GetViper())
	if err != nil {
		return nil, err
	}
	applyValidationFlags(cmd, cfg)
	applyEnvSecrets(cfg, os.Getenv)
	if err := validateConfig(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func runCheck(cmd *cobra.Command, args []string) error {
	path := args[0]
	ctx, cancel := context.WithTimeout(context.Background(), checkTimeout)
	defer cancel()

	cfg, err := loadForCommand(cmd)
	if err != nil {
		return err
	}

	p, err := buildPipeline(cfg, nil)
	if err != nil {
		return err
	}

	content, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read draft: %w", err)
	}

	if verbose {
		fmt.Fprintf(os.Stderr, "Checking: %s\n", path)
		fmt.Fprintf(os.Stderr, "Fact check: %v\n", p.FactCheckEnabled())
		fmt.Fprintln(os.Stderr)
	}

	verdict := p.ValidateArticle(ctx, string(content), filepath.Base(path))

	renderer := pipeline.NewRenderer()
	renderer.RenderSummary(cmd.OutOrStdout(), verdict)
	if outJSON != "" {
		if err := renderer.RenderJSON(verdict, outJSON); err != nil {
			return fmt.Errorf("render JSON: %w", err)
		}
	}
	if outMD != "" {
		if err := renderer.RenderMarkdownFile(verdict, outMD); err != nil {
			return fmt.Errorf("render Markdown: %w", err)
		}
	}

	if !verdict.IsValid {
		return ErrInvalid
	}
	return nil
}
