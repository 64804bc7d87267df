// Package verify cross-checks extracted statements against discovered
// sources through the verification oracle.
package verify

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"github.com/ppiankov/incidentcheck/internal/llm"
	"github.com/ppiankov/incidentcheck/internal/model"
	"github.com/ppiankov/incidentcheck/internal/score"
)

const verificationOracle = "verification"

// Caller sends one oracle request with budgeting and retries applied
type Caller interface {
	Call(ctx context.Context, req llm.CompletionRequest) (*llm.CompletionResponse, error)
}

// Options tunes fact verification
type Options struct {
	ChunkSize     int     // Statements per oracle call
	MinConfidence float64 // Verified facts below this are dropped
	MaxSources    int     // Sources shown to the oracle, most reliable first
	SnippetChars  int     // Snippet length in the prompt
	Model         string  // Overrides the provider's configured model
	Logger        *slog.Logger
}

// DefaultOptions returns the calibrated defaults
func DefaultOptions() Options {
	return Options{
		ChunkSize:     5,
		MinConfidence: 0.7,
		MaxSources:    8,
		SnippetChars:  300,
	}
}

// Verifier runs fact verification one chunk at a time
type Verifier struct {
	caller Caller
	opts   Options
	logger *slog.Logger
}

// NewVerifier creates a verifier. Zero option fields take their defaults.
func NewVerifier(caller Caller, opts Options) *Verifier {
	def := DefaultOptions()
	if opts.ChunkSize <= 0 {
		opts.ChunkSize = def.ChunkSize
	}
	if opts.MaxSources <= 0 {
		opts.MaxSources = def.MaxSources
	}
	if opts.SnippetChars <= 0 {
		opts.SnippetChars = def.SnippetChars
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Verifier{caller: caller, opts: opts, logger: logger}
}

// chunkResult is one post-processed oracle answer
type chunkResult struct {
	isFactual  bool
	verified   []model.VerifiedClaim
	unverified []model.UnverifiedClaim
	sources    []model.SourceRecord
	blend      score.Result
}

// VerifyFacts checks the statements in claims against sources. Statements
// are split into chunks that are verified strictly in order; any chunk
// failure fails the whole verification.
func (v *Verifier) VerifyFacts(ctx context.Context, claims *model.ExtractedClaims, sources []model.SourceRecord) (*model.FactCheckVerdict, error) {
	if claims == nil || len(claims.KeyStatements) == 0 {
		v.logger.Info("no statements to verify")
		return &model.FactCheckVerdict{
			IsFactual:        false,
			VerifiedClaims:   []model.VerifiedClaim{},
			UnverifiedClaims: []model.UnverifiedClaim{},
			SourcesUsed:      []model.SourceRecord{},
			Confidence:       0,
		}, nil
	}

	chunks := ChunkStatements(claims.KeyStatements, v.opts.ChunkSize)
	prompted := topSources(sources, v.opts.MaxSources)
	index := newSourceIndex(sources)

	results := make([]chunkResult, 0, len(chunks))
	for i, statements := range chunks {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		v.logger.Debug("verifying chunk",
			slog.Int("chunk", i+1),
			slog.Int("chunks", len(chunks)),
			slog.Int("statements", len(statements)))

		res, err := v.verifyChunk(ctx, claims.Chunk(statements), prompted, index)
		if err != nil {
			if len(chunks) == 1 {
				return nil, err
			}
			return nil, fmt.Errorf("chunk %d/%d: %w", i+1, len(chunks), err)
		}
		results = append(results, res)
	}

	verdict := merge(results)
	v.logger.Info("facts verified",
		slog.Bool("factual", verdict.IsFactual),
		slog.Int("verified", len(verdict.VerifiedClaims)),
		slog.Int("unverified", len(verdict.UnverifiedClaims)),
		slog.Int("sources", len(verdict.SourcesUsed)),
		slog.Float64("confidence", verdict.Confidence))

	return verdict, nil
}

func (v *Verifier) verifyChunk(ctx context.Context, chunk model.ExtractedClaims, sources []model.SourceRecord, index *sourceIndex) (chunkResult, error) {
	resp, err := v.caller.Call(ctx, llm.CompletionRequest{
		Prompt:    buildVerificationPrompt(chunk, sources, v.opts.SnippetChars),
		Model:     v.opts.Model,
		MaxTokens: 4000,
		JSON:      true,
	})
	if err != nil {
		return chunkResult{}, fmt.Errorf("verification oracle: %w", err)
	}

	answer, err := ParseFactCheck(resp.Text)
	if err != nil {
		return chunkResult{}, err
	}

	return v.postProcess(answer, index), nil
}

// postProcess resolves source references, drops weak facts and recomputes
// confidence. The oracle's own confidence is discarded.
func (v *Verifier) postProcess(a *FactCheckAnswer, index *sourceIndex) chunkResult {
	res := chunkResult{
		isFactual:  a.IsFactual,
		verified:   make([]model.VerifiedClaim, 0, len(a.VerifiedFacts)),
		unverified: a.UnreliableFacts,
	}
	if res.unverified == nil {
		res.unverified = []model.UnverifiedClaim{}
	}

	used := newSourceSet()
	for _, ref := range a.SourcesUsed {
		used.add(index.resolve(ref))
	}

	dropped := 0
	for _, f := range a.VerifiedFacts {
		if f.Confidence < v.opts.MinConfidence {
			dropped++
			continue
		}
		supporting := make([]model.SourceRecord, 0, len(f.Sources))
		for _, ref := range f.Sources {
			rec := index.resolve(ref)
			supporting = append(supporting, rec)
			used.add(rec)
		}
		res.verified = append(res.verified, model.VerifiedClaim{
			Statement:         f.Statement,
			Confidence:        f.Confidence,
			SupportingSources: supporting,
		})
	}
	if dropped > 0 {
		v.logger.Debug("dropped low-confidence facts",
			slog.Int("dropped", dropped),
			slog.Float64("threshold", v.opts.MinConfidence))
	}

	sortByConfidence(res.verified)
	res.sources = used.records()
	res.blend = score.Blend(res.verified, len(res.unverified), res.sources)
	return res
}

// merge combines chunk results: factual only if every chunk is, claims
// concatenated, sources unioned by URL, confidence averaged
func merge(results []chunkResult) *model.FactCheckVerdict {
	verdict := &model.FactCheckVerdict{
		IsFactual:        true,
		VerifiedClaims:   []model.VerifiedClaim{},
		UnverifiedClaims: []model.UnverifiedClaim{},
	}

	used := newSourceSet()
	confidences := make([]float64, 0, len(results))
	for _, r := range results {
		verdict.IsFactual = verdict.IsFactual && r.isFactual
		verdict.VerifiedClaims = append(verdict.VerifiedClaims, r.verified...)
		verdict.UnverifiedClaims = append(verdict.UnverifiedClaims, r.unverified...)
		for _, s := range r.sources {
			used.add(s)
		}
		confidences = append(confidences, r.blend.Confidence)
	}
	verdict.SourcesUsed = used.records()
	sortByConfidence(verdict.VerifiedClaims)

	if len(results) == 1 {
		verdict.Confidence = results[0].blend.Confidence
		verdict.Signals = results[0].blend.Signals
		return verdict
	}

	mean := score.MeanOfChunks(confidences)
	verdict.Confidence = mean.Confidence
	verdict.Signals = mean.Signals
	return verdict
}

// ChunkStatements splits statements into consecutive groups of at most size
func ChunkStatements(statements []string, size int) [][]string {
	if size <= 0 {
		size = len(statements)
	}
	var chunks [][]string
	for start := 0; start < len(statements); start += size {
		end := min(start+size, len(statements))
		chunks = append(chunks, statements[start:end])
	}
	return chunks
}

// NormalizeConfidence reads values above 1 as percentages and clamps to [0,1]
func NormalizeConfidence(c float64) float64 {
	if c > 1 {
		c /= 100
	}
	if c < 0 {
		return 0
	}
	if c > 1 {
		return 1
	}
	return c
}

func sortByConfidence(claims []model.VerifiedClaim) {
	sort.SliceStable(claims, func(i, j int) bool {
		return claims[i].Confidence > claims[j].Confidence
	})
}
