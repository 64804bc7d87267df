package dedupe

import (
	"context"
	"fmt"
	"strings"

	"github.com/ppiankov/incidentcheck/internal/llm"
	"github.com/ppiankov/incidentcheck/internal/model"
)

const comparisonOracle = "comparison"

// LLMComparer asks an inference provider to compare two reports.
// It calls the provider directly; comparisons are not retried.
type LLMComparer struct {
	provider llm.Provider
	model    string
}

// NewLLMComparer creates a comparer; model may be empty to use the provider default
func NewLLMComparer(provider llm.Provider, model string) *LLMComparer {
	return &LLMComparer{provider: provider, model: model}
}

// Compare returns the oracle's judgment of the draft against an existing report
func (c *LLMComparer) Compare(ctx context.Context, newContent, existingContent string) (*model.ComparisonOutcome, error) {
	resp, err := c.provider.Complete(ctx, llm.CompletionRequest{
		Prompt:    buildComparisonPrompt(newContent, existingContent),
		Model:     c.model,
		MaxTokens: 1000,
		JSON:      true,
	})
	if err != nil {
		return nil, fmt.Errorf("comparison oracle: %w", err)
	}

	return ParseComparison(resp.Text)
}

// ParseComparison strictly decodes a comparison answer. The object must carry
// exactly hasNewInformation, differences and similarityScore.
func ParseComparison(text string) (*model.ComparisonOutcome, error) {
	obj, err := llm.DecodeObject(text)
	if err != nil {
		return nil, &llm.SchemaError{Oracle: comparisonOracle, Reasons: []string{err.Error()}}
	}
	return checkComparison(obj).Unwrap(comparisonOracle)
}

func checkComparison(obj map[string]any) llm.Validated[*model.ComparisonOutcome] {
	c := llm.NewChecker()
	c.Exactly(obj, "hasNewInformation", "differences", "similarityScore")

	out := &model.ComparisonOutcome{
		HasNewInformation: c.Bool(obj, "hasNewInformation"),
		Differences:       c.Strings(obj, "differences"),
		SimilarityScore:   c.Number(obj, "similarityScore"),
	}
	if _, ok := obj["similarityScore"].(float64); ok && (out.SimilarityScore < 0 || out.SimilarityScore > 1) {
		c.At("similarityScore").Failf("must be within [0,1], got %v", out.SimilarityScore)
	}

	return llm.Validated[*model.ComparisonOutcome]{Value: out, Reasons: c.Reasons()}
}

func buildComparisonPrompt(newContent, existingContent string) string {
	var b strings.Builder
	b.WriteString("Compare a newly submitted security incident report with a report already published under the same filename.\n\n")
	b.WriteString("Decide whether the new report adds material information (new facts, corrected figures, later developments) ")
	b.WriteString("and how similar the two reports are overall.\n\n")
	b.WriteString("Respond with a JSON object with exactly these fields and nothing else:\n")
	b.WriteString(`{"hasNewInformation": boolean, "differences": [string, ...], "similarityScore": number between 0 and 1}`)
	b.WriteString("\n\n=== NEW REPORT ===\n")
	b.WriteString(newContent)
	b.WriteString("\n\n=== EXISTING REPORT ===\n")
	b.WriteString(existingContent)
	b.WriteString("\n")
	return b.String()
}
