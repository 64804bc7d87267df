package model

import "time"

// ComparisonOutcome is the comparison oracle's judgement of two articles
type ComparisonOutcome struct {
	HasNewInformation bool     `json:"hasNewInformation"`
	Differences       []string `json:"differences"`
	SimilarityScore   float64  `json:"similarityScore"` // 0..1
}

// DuplicationVerdict is the result of checking a draft against the corpus
type DuplicationVerdict struct {
	IsDuplicate bool               `json:"is_duplicate"`
	MatchedPath string             `json:"matched_path,omitempty"`
	Comparison  *ComparisonOutcome `json:"comparison,omitempty"`
}

// ValidationVerdict is the final output of one pipeline run
// Stages own the records they produce; the verdict only references them
type ValidationVerdict struct {
	IsValid   bool      `json:"is_valid"`
	Filename  string    `json:"filename"`
	Message   string    `json:"message"` // Human-readable one-liner
	Stage     string    `json:"stage"`   // Last stage reached
	CheckedAt time.Time `json:"checked_at"`

	FrontMatter        *FrontMatter `json:"front_matter,omitempty"`
	FrontMatterValid   bool         `json:"front_matter_valid"`
	SectionsValid      bool         `json:"sections_valid"`
	Sections           []string     `json:"sections,omitempty"` // Titles found, document order
	MissingSections    []string     `json:"missing_sections,omitempty"`
	AdditionalSections []string     `json:"additional_sections,omitempty"`
	Errors             []string     `json:"errors,omitempty"`
	Warnings           []string     `json:"warnings,omitempty"`

	Duplication *DuplicationVerdict `json:"duplication,omitempty"`
	Claims      *ExtractedClaims    `json:"claims,omitempty"`
	FactCheck   *FactCheckVerdict   `json:"fact_check,omitempty"`

	Details map[string]any `json:"details,omitempty"` // Failure payload
}

// Signal is a transparent scoring component
type Signal struct {
	Type        SignalType             `json:"type"`
	Severity    SignalSeverity         `json:"severity"`
	Description string                 `json:"description"`
	Data        map[string]interface{} `json:"data,omitempty"` // Formula inputs
}

// SignalType classifies a scoring signal
type SignalType string

const (
	SignalClaimConfidence   SignalType = "claim_confidence"   // Mean confidence of retained facts
	SignalVerificationRatio SignalType = "verification_ratio" // Verified vs. total facts
	SignalSourceReliability SignalType = "source_reliability" // Mean reliability of sources used
	SignalNoVerifiedFacts   SignalType = "no_verified_facts"  // Confidence forced to zero
	SignalChunkMean         SignalType = "chunk_mean"         // Mean of per-chunk confidences
)

// SignalSeverity indicates the importance of the signal
type SignalSeverity string

const (
	SeverityInfo     SignalSeverity = "info"
	SeverityWarning  SignalSeverity = "warning"
	SeverityCritical SignalSeverity = "critical"
)
