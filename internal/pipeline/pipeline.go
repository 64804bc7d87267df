// Package pipeline runs a draft through duplication, structure and fact
// checks and turns every outcome into a ValidationVerdict.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/ppiankov/incidentcheck/internal/dedupe"
	"github.com/ppiankov/incidentcheck/internal/model"
	"github.com/ppiankov/incidentcheck/internal/validate"
)

// DuplicationChecker compares a draft against the published corpus
type DuplicationChecker interface {
	CheckDuplication(ctx context.Context, content, filename string) (*model.DuplicationVerdict, error)
}

// ClaimExtractor pulls verifiable statements out of a draft
type ClaimExtractor interface {
	Extract(ctx context.Context, content string) (*model.ExtractedClaims, error)
}

// SourceFinder discovers web sources for search queries
type SourceFinder interface {
	FindSources(ctx context.Context, queries []string) ([]model.SourceRecord, error)
}

// FactVerifier cross-checks statements against sources
type FactVerifier interface {
	VerifyFacts(ctx context.Context, claims *model.ExtractedClaims, sources []model.SourceRecord) (*model.FactCheckVerdict, error)
}

// Options wires the stages. A nil Duplication skips the corpus check; a nil
// Extractor or Verifier skips fact checking.
type Options struct {
	Duplication DuplicationChecker
	Extractor   ClaimExtractor
	Searcher    SourceFinder
	Verifier    FactVerifier

	// MinConfidence is the fact-check confidence a valid draft needs
	MinConfidence float64

	Logger *slog.Logger
}

// Pipeline orchestrates the complete validation of one draft
type Pipeline struct {
	dedupe        DuplicationChecker
	extractor     ClaimExtractor
	searcher      SourceFinder
	verifier      FactVerifier
	minConfidence float64
	logger        *slog.Logger
	now           func() time.Time
}

// NewPipeline creates a pipeline from its stages
func NewPipeline(opts Options) *Pipeline {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Pipeline{
		dedupe:        opts.Duplication,
		extractor:     opts.Extractor,
		searcher:      opts.Searcher,
		verifier:      opts.Verifier,
		minConfidence: opts.MinConfidence,
		logger:        logger,
		now:           time.Now,
	}
}

// FactCheckEnabled reports whether the fact-check stages are wired
func (p *Pipeline) FactCheckEnabled() bool {
	return p.extractor != nil && p.verifier != nil
}

// ValidateArticle runs every stage on content in order: duplication, then
// structure, then fact checking. It never returns an error; every failure,
// including a panic inside a stage, becomes an invalid verdict.
func (p *Pipeline) ValidateArticle(ctx context.Context, content, filename string) *model.ValidationVerdict {
	v := &model.ValidationVerdict{
		Filename:  filename,
		CheckedAt: p.now().UTC(),
	}
	log := p.logger.With(slog.String("filename", filename))

	// 1. Duplication check (before anything costly)
	if p.dedupe != nil {
		v.Stage = string(StageDuplication)
		log.Debug("stage started", slog.String("stage", v.Stage))

		err := runStage(StageDuplication, func() error {
			dup, err := p.dedupe.CheckDuplication(ctx, content, filename)
			if err != nil {
				return err
			}
			v.Duplication = dup
			return dedupe.DuplicateError(dup)
		})
		if err != nil {
			if errors.Is(err, dedupe.ErrDuplicateContent) {
				return p.duplicate(v, log)
			}
			return p.fail(v, err, log)
		}
	}

	// 2. Structural validation
	v.Stage = string(StageStructure)
	log.Debug("stage started", slog.String("stage", v.Stage))

	var report *validate.Report
	if err := runStage(StageStructure, func() error {
		report = validate.Check(content)
		return nil
	}); err != nil {
		return p.fail(v, err, log)
	}
	applyStructure(v, report)

	if !report.Valid() {
		v.Message = fmt.Sprintf("Structural validation failed with %d error(s)", len(v.Errors))
		log.Info("structural validation failed", slog.Int("errors", len(v.Errors)))
		return v
	}

	// 3. Fact checking
	if !p.FactCheckEnabled() {
		log.Debug("fact check disabled")
		return p.finish(v, log)
	}

	if err := p.factCheck(ctx, v, content, log); err != nil {
		return p.fail(v, err, log)
	}

	return p.finish(v, log)
}

func (p *Pipeline) factCheck(ctx context.Context, v *model.ValidationVerdict, content string, log *slog.Logger) error {
	v.Stage = string(StageExtraction)
	log.Debug("stage started", slog.String("stage", v.Stage))
	if err := runStage(StageExtraction, func() error {
		claims, err := p.extractor.Extract(ctx, content)
		v.Claims = claims
		return err
	}); err != nil {
		return err
	}

	var sources []model.SourceRecord
	if p.searcher != nil {
		v.Stage = string(StageSearch)
		log.Debug("stage started", slog.String("stage", v.Stage))
		err := runStage(StageSearch, func() error {
			var err error
			sources, err = p.searcher.FindSources(ctx, v.Claims.SearchQueries)
			return err
		})
		if err != nil {
			// Verification still runs; it scores an empty source list
			log.Warn("source search failed, verifying without sources", slog.String("error", err.Error()))
			v.Warnings = append(v.Warnings, fmt.Sprintf("source search failed: %v", errors.Unwrap(err)))
			sources = nil
		}
	}

	v.Stage = string(StageVerification)
	log.Debug("stage started", slog.String("stage", v.Stage), slog.Int("sources", len(sources)))
	return runStage(StageVerification, func() error {
		fc, err := p.verifier.VerifyFacts(ctx, v.Claims, sources)
		v.FactCheck = fc
		return err
	})
}

// finish applies the validity formula to a verdict that reached the end
func (p *Pipeline) finish(v *model.ValidationVerdict, log *slog.Logger) *model.ValidationVerdict {
	v.Stage = string(StageComplete)
	v.IsValid = v.FrontMatterValid && v.SectionsValid && len(v.Errors) == 0 &&
		(v.FactCheck == nil || v.FactCheck.Confidence >= p.minConfidence)

	switch {
	case v.IsValid && v.FactCheck != nil:
		v.Message = fmt.Sprintf("Article passed validation (fact-check confidence %.2f)", v.FactCheck.Confidence)
	case v.IsValid:
		v.Message = "Article passed structural validation (fact check skipped)"
	case v.FactCheck != nil:
		v.Message = fmt.Sprintf("Fact-check confidence %.2f is below the required %.2f", v.FactCheck.Confidence, p.minConfidence)
	default:
		v.Message = "Article failed validation"
	}

	log.Info("validation finished",
		slog.Bool("valid", v.IsValid),
		slog.String("message", v.Message))
	return v
}

func (p *Pipeline) duplicate(v *model.ValidationVerdict, log *slog.Logger) *model.ValidationVerdict {
	v.IsValid = false
	v.Message = fmt.Sprintf("Duplicate of existing article %s", v.Duplication.MatchedPath)
	v.Details = map[string]any{
		"error_type":   errorKind(dedupe.ErrDuplicateContent),
		"matched_path": v.Duplication.MatchedPath,
	}
	if c := v.Duplication.Comparison; c != nil {
		v.Message = fmt.Sprintf("%s (similarity %.2f)", v.Message, c.SimilarityScore)
		v.Details["similarity"] = c.SimilarityScore
		v.Details["differences"] = c.Differences
	}
	log.Info("duplicate draft", slog.String("matched_path", v.Duplication.MatchedPath))
	return v
}

func (p *Pipeline) fail(v *model.ValidationVerdict, err error, log *slog.Logger) *model.ValidationVerdict {
	stage := Stage(v.Stage)
	var pe *PipelineError
	if errors.As(err, &pe) {
		stage = pe.Stage
	}

	v.IsValid = false
	v.Stage = string(stage)
	v.Message = fmt.Sprintf("Validation failed during %s: %v", stage, errors.Unwrap(err))
	v.Errors = append(v.Errors, err.Error())
	v.Details = map[string]any{
		"stage":      string(stage),
		"error":      err.Error(),
		"error_type": errorKind(err),
	}

	log.Error("validation failed",
		slog.String("stage", string(stage)),
		slog.String("error", err.Error()))
	return v
}

// runStage calls fn and wraps any failure, panics included, in a PipelineError
func runStage(stage Stage, fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &PipelineError{Stage: stage, Err: fmt.Errorf("%w: %v", errPanic, r)}
		}
	}()
	if err := fn(); err != nil {
		return &PipelineError{Stage: stage, Err: err}
	}
	return nil
}

func applyStructure(v *model.ValidationVerdict, r *validate.Report) {
	v.FrontMatter = r.FrontMatter
	v.FrontMatterValid = r.FrontMatterValid
	v.SectionsValid = r.SectionsValid
	v.Sections = r.Sections.Titles()
	v.MissingSections = r.Missing
	v.AdditionalSections = r.Additional
	v.Errors = append(v.Errors, r.ErrorStrings()...)
	v.Warnings = append(v.Warnings, r.WarningStrings()...)
}
