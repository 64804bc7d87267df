package worker

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/ppiankov/incidentcheck/internal/model"
)

// Validator validates one draft
type Validator interface {
	ValidateArticle(ctx context.Context, content, filename string) *model.ValidationVerdict
}

// FileJob reads one draft and validates it through the sequencer
type FileJob struct {
	Path      string
	Validator Validator
	Sequencer *Sequencer
}

// Execute executes the file job
func (j *FileJob) Execute(ctx context.Context) Result {
	data, err := os.ReadFile(j.Path)
	if err != nil {
		return &FileResult{Path: j.Path, Error: fmt.Errorf("read draft: %w", err)}
	}

	res, err := j.Sequencer.Submit(ctx, &validationJob{
		path:      j.Path,
		content:   string(data),
		validator: j.Validator,
	})
	if err != nil {
		return &FileResult{Path: j.Path, Error: err}
	}
	return res
}

// validationJob is the part of a FileJob that holds the sequencer slot
type validationJob struct {
	path      string
	content   string
	validator Validator
}

func (j *validationJob) Execute(ctx context.Context) Result {
	return &FileResult{
		Path:    j.path,
		Verdict: j.validator.ValidateArticle(ctx, j.content, j.path),
	}
}

// FileResult represents the result of a file job
type FileResult struct {
	Path    string
	Verdict *model.ValidationVerdict
	Error   error // Read or scheduling failure; validation failures live in Verdict
}

// GetError returns the error from the file result
func (r *FileResult) GetError() error {
	return r.Error
}

// BatchProcessor validates many drafts. Files are read concurrently but
// validation runs one draft at a time through the sequencer.
type BatchProcessor struct {
	validator   Validator
	sequencer   *Sequencer
	concurrency int
}

// NewBatchProcessor creates a new batch processor
func NewBatchProcessor(validator Validator, sequencer *Sequencer, concurrency int) *BatchProcessor {
	return &BatchProcessor{
		validator:   validator,
		sequencer:   sequencer,
		concurrency: concurrency,
	}
}

// ProcessPaths validates every path and returns results in input order
func (b *BatchProcessor) ProcessPaths(ctx context.Context, paths []string) []*FileResult {
	if len(paths) == 0 {
		return []*FileResult{}
	}

	pool := NewPool(ctx, b.concurrency)
	pool.Start()

	for _, p := range paths {
		if !pool.Submit(&FileJob{Path: p, Validator: b.validator, Sequencer: b.sequencer}) {
			break
		}
	}

	results := pool.Wait()

	out := make([]*FileResult, len(paths))
	for i, p := range paths {
		if i < len(results) && results[i] != nil {
			out[i] = results[i].(*FileResult)
			continue
		}
		err := ctx.Err()
		if err == nil {
			err = fmt.Errorf("not processed")
		}
		out[i] = &FileResult{Path: p, Error: err}
	}
	return out
}

// ProcessFile reads draft paths from a list file and validates them
func (b *BatchProcessor) ProcessFile(ctx context.Context, listPath string) ([]*FileResult, error) {
	paths, err := ReadPathsFromFile(listPath)
	if err != nil {
		return nil, fmt.Errorf("read paths: %w", err)
	}

	return b.ProcessPaths(ctx, paths), nil
}

// ReadPathsFromFile reads draft paths from a file (one per line)
func ReadPathsFromFile(filePath string) ([]string, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("open file: %w", err)
	}
	defer func() { _ = file.Close() }()

	var paths []string
	seen := make(map[string]bool)

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())

		// Skip empty lines and comments
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		if !seen[line] {
			seen[line] = true
			paths = append(paths, line)
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan file: %w", err)
	}

	return paths, nil
}
