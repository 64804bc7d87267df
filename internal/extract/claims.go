// Package extract pulls key statements, entities and search queries out of a
// draft through the inference oracle.
package extract

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/ppiankov/incidentcheck/internal/llm"
	"github.com/ppiankov/incidentcheck/internal/model"
	"github.com/ppiankov/incidentcheck/internal/validate"
)

const extractionOracle = "extraction"

// Caller sends one oracle request with budgeting and retries applied
type Caller interface {
	Call(ctx context.Context, req llm.CompletionRequest) (*llm.CompletionResponse, error)
}

// Options tunes extraction
type Options struct {
	MaxSearchQueries int    // Queries kept after de-duplication; 0 keeps all
	LargeInputBytes  int    // Inputs above this size are logged as a risk
	Model            string // Overrides the provider's configured model
	Logger           *slog.Logger
}

// ClaimExtractor turns a draft into ExtractedClaims with one oracle call
type ClaimExtractor struct {
	caller Caller
	opts   Options
	logger *slog.Logger
}

// NewClaimExtractor creates an extractor
func NewClaimExtractor(caller Caller, opts Options) *ClaimExtractor {
	if opts.LargeInputBytes <= 0 {
		opts.LargeInputBytes = 150_000
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &ClaimExtractor{caller: caller, opts: opts, logger: logger}
}

// Extract asks the oracle for the claims in content. Oversized input is not
// chunked here; the verifier chunks statements.
func (e *ClaimExtractor) Extract(ctx context.Context, content string) (*model.ExtractedClaims, error) {
	body := strings.TrimSpace(validate.StripFrontMatter(content))
	if body == "" {
		return nil, fmt.Errorf("nothing to extract: document body is empty")
	}

	if size := len(content); size > e.opts.LargeInputBytes {
		e.logger.Warn("large input may exceed the oracle context window",
			slog.Int("bytes", size),
			slog.Int("threshold", e.opts.LargeInputBytes))
	}

	resp, err := e.caller.Call(ctx, llm.CompletionRequest{
		Prompt:    buildExtractionPrompt(body),
		Model:     e.opts.Model,
		MaxTokens: 4000,
		JSON:      true,
	})
	if err != nil {
		return nil, fmt.Errorf("extraction oracle: %w", err)
	}

	claims, err := ParseClaims(resp.Text)
	if err != nil {
		return nil, err
	}

	claims.KeyStatements = cleanList(claims.KeyStatements, 0)
	claims.SearchQueries = cleanList(claims.SearchQueries, e.opts.MaxSearchQueries)

	e.logger.Info("claims extracted",
		slog.Int("statements", len(claims.KeyStatements)),
		slog.Int("queries", len(claims.SearchQueries)))

	return claims, nil
}

// ParseClaims validates an extraction answer before any typed access
func ParseClaims(text string) (*model.ExtractedClaims, error) {
	obj, err := llm.DecodeObject(text)
	if err != nil {
		return nil, &llm.SchemaError{Oracle: extractionOracle, Reasons: []string{err.Error()}}
	}
	return checkClaims(obj).Unwrap(extractionOracle)
}

func checkClaims(obj map[string]any) llm.Validated[*model.ExtractedClaims] {
	c := llm.NewChecker()

	entities := c.Object(obj, "entities")
	ec := c.At("entities")
	technical := c.Object(obj, "technicalDetails")
	tc := c.At("technicalDetails")

	claims := &model.ExtractedClaims{
		KeyStatements: c.Strings(obj, "keyStatements"),
		Entities: model.Entities{
			Organizations: ec.Strings(entities, "organizations"),
			People:        ec.Strings(entities, "people"),
			Locations:     ec.Strings(entities, "locations"),
			Dates:         ec.Strings(entities, "dates"),
			Amounts:       ec.Strings(entities, "amounts"),
		},
		SearchQueries: c.Strings(obj, "searchQueries"),
		TechnicalDetails: model.TechnicalDetails{
			AttackVectors:   tc.Strings(technical, "attackVectors"),
			Vulnerabilities: tc.Strings(technical, "vulnerabilities"),
			ImpactedSystems: tc.Strings(technical, "impactedSystems"),
		},
	}

	return llm.Validated[*model.ExtractedClaims]{Value: claims, Reasons: c.Reasons()}
}

// cleanList trims entries, drops blanks and case-insensitive repeats, and caps the result
func cleanList(items []string, limit int) []string {
	seen := make(map[string]bool, len(items))
	out := make([]string, 0, len(items))
	for _, item := range items {
		item = strings.Join(strings.Fields(item), " ")
		key := strings.ToLower(item)
		if item == "" || seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, item)
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out
}

func buildExtractionPrompt(body string) string {
	var b strings.Builder
	b.WriteString("Extract the verifiable facts from the security incident report below.\n\n")
	b.WriteString("Rules:\n")
	b.WriteString("- keyStatements: atomic factual assertions (who, what, when, how much), one fact each\n")
	b.WriteString("- entities: names exactly as written in the report\n")
	b.WriteString("- searchQueries: web search queries that would find independent coverage of the incident\n")
	b.WriteString("- technicalDetails: how the attack worked and what it hit\n")
	b.WriteString("- use empty arrays when nothing applies\n\n")
	b.WriteString("Respond with a JSON object of exactly this shape:\n")
	b.WriteString(`{
  "keyStatements": [string],
  "entities": {"organizations": [string], "people": [string], "locations": [string], "dates": [string], "amounts": [string]},
  "searchQueries": [string],
  "technicalDetails": {"attackVectors": [string], "vulnerabilities": [string], "impactedSystems": [string]}
}`)
	b.WriteString("\n\n=== REPORT ===\n")
	b.WriteString(body)
	b.WriteString("\n")
	return b.String()
}
