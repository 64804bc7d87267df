// Package dedupe decides whether a draft repeats an incident already in the corpus.
package dedupe

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path"
	"regexp"

	"github.com/ppiankov/incidentcheck/internal/corpus"
	"github.com/ppiankov/incidentcheck/internal/model"
)

// ErrDuplicateContent marks a draft that repeats a published report
var ErrDuplicateContent = errors.New("duplicate content")

// DefaultSimilarityThreshold is the score a comparison must exceed to count as a duplicate
const DefaultSimilarityThreshold = 0.8

var yearDir = regexp.MustCompile(`^(19|20)\d{2}$`)

// Comparer judges semantic overlap between a draft and a published report
type Comparer interface {
	Compare(ctx context.Context, newContent, existingContent string) (*model.ComparisonOutcome, error)
}

// Detector finds same-named reports in the corpus and compares them with the draft
type Detector struct {
	store     corpus.Store
	comparer  Comparer
	dirs      []string
	threshold float64
	logger    *slog.Logger
}

// Options configures a Detector
type Options struct {
	Dirs      []string // Corpus directories to search; defaults to "articles"
	Threshold float64  // Similarity threshold in (0,1]; <= 0 uses DefaultSimilarityThreshold
	Logger    *slog.Logger
}

// NewDetector creates a detector over store using comparer
func NewDetector(store corpus.Store, comparer Comparer, opts Options) *Detector {
	dirs := opts.Dirs
	if len(dirs) == 0 {
		dirs = []string{"articles"}
	}
	threshold := opts.Threshold
	if threshold <= 0 {
		threshold = DefaultSimilarityThreshold
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Detector{
		store:     store,
		comparer:  comparer,
		dirs:      dirs,
		threshold: threshold,
		logger:    logger,
	}
}

// FindCandidates lists corpus paths whose base filename equals the submission's,
// in listing order. Year sub-directories are searched where they appear.
func (d *Detector) FindCandidates(ctx context.Context, filename string) ([]string, error) {
	base := path.Base(filename)

	var candidates []string
	for _, dir := range d.dirs {
		found, err := d.scan(ctx, dir, base, true)
		if err != nil {
			if errors.Is(err, corpus.ErrNotFound) {
				d.logger.Warn("corpus directory not found", slog.String("dir", dir))
				continue
			}
			return nil, fmt.Errorf("list corpus %s: %w", dir, err)
		}
		candidates = append(candidates, found...)
	}
	return candidates, nil
}

func (d *Detector) scan(ctx context.Context, dir, base string, descend bool) ([]string, error) {
	entries, err := d.store.List(ctx, dir)
	if err != nil {
		return nil, err
	}

	var found []string
	for _, e := range entries {
		switch {
		case e.Dir && descend && yearDir.MatchString(e.Name):
			sub, err := d.scan(ctx, e.Path, base, false)
			if err != nil {
				return nil, err
			}
			found = append(found, sub...)
		case !e.Dir && e.Name == base:
			found = append(found, e.Path)
		}
	}
	return found, nil
}

// CheckDuplication compares the draft with each candidate and stops at the first
// conclusive comparison. Zero candidates means the comparer is never called.
func (d *Detector) CheckDuplication(ctx context.Context, content, filename string) (*model.DuplicationVerdict, error) {
	candidates, err := d.FindCandidates(ctx, filename)
	if err != nil {
		return nil, err
	}

	verdict := &model.DuplicationVerdict{}
	if len(candidates) == 0 {
		d.logger.Debug("no same-named reports in corpus", slog.String("filename", filename))
		return verdict, nil
	}

	for _, candidate := range candidates {
		existing, err := d.store.Fetch(ctx, candidate)
		if err != nil {
			if errors.Is(err, corpus.ErrNotFound) {
				d.logger.Warn("listed candidate vanished, skipping", slog.String("path", candidate))
				continue
			}
			return nil, fmt.Errorf("fetch candidate %s: %w", candidate, err)
		}

		outcome, err := d.comparer.Compare(ctx, content, existing)
		if err != nil {
			return nil, fmt.Errorf("compare with %s: %w", candidate, err)
		}

		d.logger.Info("compared with published report",
			slog.String("path", candidate),
			slog.Float64("similarity", outcome.SimilarityScore),
			slog.Bool("new_information", outcome.HasNewInformation))

		switch {
		case outcome.SimilarityScore > d.threshold && !outcome.HasNewInformation:
			verdict.IsDuplicate = true
			verdict.MatchedPath = candidate
			verdict.Comparison = outcome
			return verdict, nil
		case outcome.HasNewInformation:
			verdict.MatchedPath = candidate
			verdict.Comparison = outcome
			return verdict, nil
		}
	}

	return verdict, nil
}

// DuplicateError returns an ErrDuplicateContent error for a duplicate verdict, nil otherwise
func DuplicateError(v *model.DuplicationVerdict) error {
	if v == nil || !v.IsDuplicate {
		return nil
	}
	score := 0.0
	if v.Comparison != nil {
		score = v.Comparison.SimilarityScore
	}
	return fmt.Errorf("%w: matches %s (similarity %.2f)", ErrDuplicateContent, v.MatchedPath, score)
}
