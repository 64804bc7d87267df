package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/ppiankov/incidentcheck/internal/model"
	"github.com/ppiankov/incidentcheck/internal/pipeline"
	"github.com/ppiankov/incidentcheck/internal/worker"
)

var (
	concurrency  int
	outputDir    string
	batchTimeout time.Duration
	listFile     string
)

const lockTimeoutFlag = "lock-timeout"

// batchCmd represents the batch command
var batchCmd = &cobra.Command{
	Use:   "batch [draft.md...]",
	Short: "Validate many drafts, one at a time",
	Long: `Batch validates several drafts:
- Read drafts from the arguments or from a list file (one path per line)
- Read files concurrently, but validate one draft at a time so the
  oracle's rate budget is never shared
- Write a JSON and a Markdown verdict per draft

A draft that holds the validation slot longer than the lock timeout
(sequencer.lock_timeout, 60s by default) is cancelled and reported as failed
so a stalled run cannot block the batch. Fact checks of long drafts make
several oracle calls, each retried under a 60s budget when the oracle is
overloaded; raise --lock-timeout for such batches.

Example:
  incidentcheck batch drafts/*.md
  incidentcheck batch --list drafts.txt --output-dir ./verdicts
  incidentcheck batch drafts/*.md --lock-timeout 5m`,
	RunE: runBatch,
}

func init() {
	rootCmd.AddCommand(batchCmd)

	batchCmd.Flags().StringVar(&listFile, "list", "", "file with one draft path per line")
	batchCmd.Flags().IntVar(&concurrency, "concurrency", runtime.NumCPU(), "number of concurrent file readers")
	batchCmd.Flags().StringVar(&outputDir, "output-dir", "./incidentcheck-reports", "output directory for verdicts")
	batchCmd.Flags().DurationVar(&batchTimeout, "timeout", 30*time.Minute, "total timeout for batch processing")

	batchCmd.Flags().Duration(lockTimeoutFlag, 0, "how long one draft may hold the validation slot (default: sequencer.lock_timeout)")

	addValidationFlags(batchCmd)
}

// applyBatchFlags overrides cfg with batch-only flags the user set
func applyBatchFlags(cmd *cobra.Command, cfg *model.Config) {
	if cmd.Flags().Changed(lockTimeoutFlag) {
		if d, err := cmd.Flags().GetDuration(lockTimeoutFlag); err == nil && d > 0 {
			cfg.Sequencer.LockTimeout = d
		}
	}
}

func runBatch(cmd *cobra.Command, args []string) error {
	paths := args
	if listFile != "" {
		listed, err := worker.ReadPathsFromFile(listFile)
		if err != nil {
			return fmt.Errorf("read list: %w", err)
		}
		paths = append(paths, listed...)
	}
	if len(paths) == 0 {
		return fmt.Errorf("no drafts given (pass paths or --list)")
	}

	ctx, cancel := context.WithTimeout(context.Background(), batchTimeout)
	defer cancel()

	cfg, err := loadForCommand(cmd)
	if err != nil {
		return err
	}
	applyBatchFlags(cmd, cfg)

	p, err := buildPipeline(cfg, nil)
	if err != nil {
		return err
	}

	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "  incidentcheck Batch Validation\n")
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "  Drafts:       %d\n", len(paths))
	fmt.Fprintf(os.Stderr, "  Readers:      %d\n", concurrency)
	fmt.Fprintf(os.Stderr, "  Fact check:   %v\n", p.FactCheckEnabled())
	fmt.Fprintf(os.Stderr, "  Lock timeout: %v\n", cfg.Sequencer.LockTimeout)
	fmt.Fprintf(os.Stderr, "  Output dir:   %s\n", outputDir)
	fmt.Fprintf(os.Stderr, "  Timeout:      %v\n", batchTimeout)
	fmt.Fprintf(os.Stderr, "\n")

	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}

	sequencer := worker.NewSequencer(cfg.Sequencer.LockTimeout, nil)
	defer sequencer.Close()

	results := worker.NewBatchProcessor(p, sequencer, concurrency).ProcessPaths(ctx, paths)

	renderer := pipeline.NewRenderer()
	valid, invalid, failed := 0, 0, 0
	for _, result := range results {
		if result.Error != nil {
			failed++
			fmt.Fprintf(os.Stderr, "✗ %s: %v\n", result.Path, result.Error)
			continue
		}

		renderer.RenderSummary(os.Stderr, result.Verdict)
		if result.Verdict.IsValid {
			valid++
		} else {
			invalid++
		}

		slug := sanitizeFilename(result.Path)
		if err := renderer.RenderJSON(result.Verdict, filepath.Join(outputDir, slug+".json")); err != nil {
			fmt.Fprintf(os.Stderr, "✗ %s: failed to write JSON: %v\n", result.Path, err)
		}
		if err := renderer.RenderMarkdownFile(result.Verdict, filepath.Join(outputDir, slug+".md")); err != nil {
			fmt.Fprintf(os.Stderr, "✗ %s: failed to write Markdown: %v\n", result.Path, err)
		}
	}

	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "  Batch Complete\n")
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "  Total:     %d drafts\n", len(results))
	fmt.Fprintf(os.Stderr, "  Valid:     %d\n", valid)
	fmt.Fprintf(os.Stderr, "  Invalid:   %d\n", invalid)
	fmt.Fprintf(os.Stderr, "  Failures:  %d\n", failed)
	fmt.Fprintf(os.Stderr, "  Output:    %s\n", outputDir)
	fmt.Fprintf(os.Stderr, "\n")

	if invalid+failed > 0 {
		return ErrInvalid
	}
	return nil
}

// sanitizeFilename turns a draft path into a flat, filesystem-safe name
func sanitizeFilename(s string) string {
	s = strings.TrimSuffix(filepath.ToSlash(filepath.Clean(s)), filepath.Ext(s))
	s = strings.TrimLeft(s, "./")

	replacer := strings.NewReplacer(
		"/", "_",
		"\\", "_",
		":", "_",
		"*", "_",
		"?", "_",
		"\"", "_",
		"<", "_",
		">", "_",
		"|", "_",
		" ", "-",
	)
	s = replacer.Replace(s)

	if len(s) > 100 {
		s = s[len(s)-100:]
	}
	if s == "" {
		s = "draft"
	}
	return s
}
