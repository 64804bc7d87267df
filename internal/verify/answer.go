package verify

import (
	"github.com/ppiankov/incidentcheck/internal/llm"
	"github.com/ppiankov/incidentcheck/internal/model"
)

// FactCheckAnswer is a schema-checked verification answer with confidences
// already normalized
type FactCheckAnswer struct {
	IsFactual       bool
	VerifiedFacts   []VerifiedFact
	UnreliableFacts []model.UnverifiedClaim
	SourcesUsed     []string // URLs
	Confidence      float64
}

// VerifiedFact is one supported statement as the oracle reported it
type VerifiedFact struct {
	Statement  string
	Confidence float64
	Sources    []string // URLs
}

// ParseFactCheck validates a verification answer before any typed access
func ParseFactCheck(text string) (*FactCheckAnswer, error) {
	obj, err := llm.DecodeObject(text)
	if err != nil {
		return nil, &llm.SchemaError{Oracle: verificationOracle, Reasons: []string{err.Error()}}
	}
	return checkFactCheck(obj).Unwrap(verificationOracle)
}

func checkFactCheck(obj map[string]any) llm.Validated[*FactCheckAnswer] {
	c := llm.NewChecker()

	a := &FactCheckAnswer{
		IsFactual:   c.Bool(obj, "isFactual"),
		SourcesUsed: sourceRefs(c, obj, "sourcesUsed"),
		Confidence:  NormalizeConfidence(c.Number(obj, "confidence")),
	}

	facts := c.Array(obj, "verifiedFacts")
	a.VerifiedFacts = make([]VerifiedFact, 0, len(facts))
	for i, item := range facts {
		fc := c.At("verifiedFacts").Index(i)
		m, ok := item.(map[string]any)
		if !ok {
			fc.Failf("expected object, got %T", item)
			continue
		}
		a.VerifiedFacts = append(a.VerifiedFacts, VerifiedFact{
			Statement:  fc.String(m, "statement", true),
			Confidence: NormalizeConfidence(fc.Number(m, "confidence")),
			Sources:    sourceRefs(fc, m, "sources"),
		})
	}

	unreliable := c.Array(obj, "unreliableFacts")
	a.UnreliableFacts = make([]model.UnverifiedClaim, 0, len(unreliable))
	for i, item := range unreliable {
		uc := c.At("unreliableFacts").Index(i)
		m, ok := item.(map[string]any)
		if !ok {
			uc.Failf("expected object, got %T", item)
			continue
		}
		a.UnreliableFacts = append(a.UnreliableFacts, model.UnverifiedClaim{
			Statement:           uc.String(m, "statement", true),
			Reason:              uc.String(m, "reason", true),
			SuggestedCorrection: uc.OptionalString(m, "suggestedCorrection"),
		})
	}

	return llm.Validated[*FactCheckAnswer]{Value: a, Reasons: c.Reasons()}
}

// sourceRefs reads a required array of source references. A reference is
// either a URL string or an object carrying a url field.
func sourceRefs(c *llm.Checker, obj map[string]any, key string) []string {
	arr := c.Array(obj, key)
	refs := make([]string, 0, len(arr))
	for i, item := range arr {
		switch ref := item.(type) {
		case string:
			refs = append(refs, ref)
		case map[string]any:
			u, ok := ref["url"].(string)
			if !ok {
				c.At(key).Index(i).Failf("source object without url")
				continue
			}
			refs = append(refs, u)
		default:
			c.At(key).Index(i).Failf("expected URL string or object, got %T", item)
		}
	}
	return refs
}
