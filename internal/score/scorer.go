// Package score blends fact-check evidence into a single confidence value
// and explains the result with signals.
package score

import (
	"fmt"

	"github.com/ppiankov/incidentcheck/internal/model"
)

// Blend weights. They sum to 1.
const (
	ClaimConfidenceWeight   = 0.4
	VerificationRatioWeight = 0.3
	SourceReliabilityWeight = 0.3

	// DefaultSourceReliability stands in when no source was used
	DefaultSourceReliability = 0.5
)

// Result is a blended confidence and the signals it was computed from
type Result struct {
	Confidence float64
	Signals    []model.Signal
}

// Blend computes the overall confidence of a fact check:
// 40% mean confidence of verified facts, 30% verified/(verified+unverified),
// 30% mean reliability of sources used. Zero verified facts force 0.
func Blend(verified []model.VerifiedClaim, unverifiedCount int, sources []model.SourceRecord) Result {
	if len(verified) == 0 {
		return Result{
			Confidence: 0,
			Signals: []model.Signal{{
				Type:        model.SignalNoVerifiedFacts,
				Severity:    model.SeverityCritical,
				Description: "No facts verified above the confidence threshold",
				Data: map[string]interface{}{
					"unverified": unverifiedCount,
					"sources":    len(sources),
				},
			}},
		}
	}

	claimScore, claimSignal := claimConfidence(verified)
	ratioScore, ratioSignal := verificationRatio(len(verified), unverifiedCount)
	sourceScore, sourceSignal := sourceReliability(sources)

	confidence := ClaimConfidenceWeight*claimScore +
		VerificationRatioWeight*ratioScore +
		SourceReliabilityWeight*sourceScore

	return Result{
		Confidence: clamp01(confidence),
		Signals:    []model.Signal{claimSignal, ratioSignal, sourceSignal},
	}
}

// MeanOfChunks averages per-chunk confidences and explains it with a signal
func MeanOfChunks(confidences []float64) Result {
	if len(confidences) == 0 {
		return Result{}
	}
	var sum float64
	for _, c := range confidences {
		sum += c
	}
	mean := sum / float64(len(confidences))

	return Result{
		Confidence: clamp01(mean),
		Signals: []model.Signal{{
			Type:        model.SignalChunkMean,
			Severity:    severityFor(mean, 0.7, 0.4),
			Description: fmt.Sprintf("Mean confidence across %d chunks: %.2f", len(confidences), mean),
			Data: map[string]interface{}{
				"chunks":     confidences,
				"confidence": mean,
				"formula":    "sum(chunk_confidence) / chunk_count",
			},
		}},
	}
}

func claimConfidence(verified []model.VerifiedClaim) (float64, model.Signal) {
	var sum float64
	for _, v := range verified {
		sum += v.Confidence
	}
	mean := sum / float64(len(verified))

	return mean, model.Signal{
		Type:        model.SignalClaimConfidence,
		Severity:    severityFor(mean, 0.8, 0.7),
		Description: fmt.Sprintf("Mean confidence of %d verified facts: %.2f", len(verified), mean),
		Data: map[string]interface{}{
			"verified": len(verified),
			"mean":     mean,
			"weight":   ClaimConfidenceWeight,
			"formula":  "sum(fact_confidence) / verified_count",
		},
	}
}

func verificationRatio(verified, unverified int) (float64, model.Signal) {
	total := verified + unverified
	ratio := float64(verified) / float64(total)

	return ratio, model.Signal{
		Type:        model.SignalVerificationRatio,
		Severity:    severityFor(ratio, 0.8, 0.5),
		Description: fmt.Sprintf("Verified %d of %d facts", verified, total),
		Data: map[string]interface{}{
			"verified":   verified,
			"unverified": unverified,
			"ratio":      ratio,
			"weight":     VerificationRatioWeight,
			"formula":    "verified_count / (verified_count + unverified_count)",
		},
	}
}

func sourceReliability(sources []model.SourceRecord) (float64, model.Signal) {
	if len(sources) == 0 {
		return DefaultSourceReliability, model.Signal{
			Type:        model.SignalSourceReliability,
			Severity:    model.SeverityWarning,
			Description: "No sources used (assuming moderate reliability)",
			Data: map[string]interface{}{
				"sources": 0,
				"mean":    DefaultSourceReliability,
				"weight":  SourceReliabilityWeight,
			},
		}
	}

	var sum float64
	for _, s := range sources {
		sum += s.Reliability
	}
	mean := sum / float64(len(sources))

	return mean, model.Signal{
		Type:        model.SignalSourceReliability,
		Severity:    severityFor(mean, 0.8, 0.6),
		Description: fmt.Sprintf("Mean reliability of %d sources: %.2f", len(sources), mean),
		Data: map[string]interface{}{
			"sources": len(sources),
			"mean":    mean,
			"weight":  SourceReliabilityWeight,
			"formula": "sum(source_reliability) / source_count",
		},
	}
}

// severityFor maps a value to info at or above good, warning at or above poor, critical below
func severityFor(v, good, poor float64) model.SignalSeverity {
	switch {
	case v >= good:
		return model.SeverityInfo
	case v >= poor:
		return model.SeverityWarning
	default:
		return model.SeverityCritical
	}
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
