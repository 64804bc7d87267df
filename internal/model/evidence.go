package model

import "time"

// SourceRecord is a discovered web source used as evidence
type SourceRecord struct {
	URL         string     `json:"url"`
	Title       string     `json:"title"`
	Snippet     string     `json:"snippet"`
	PublishDate *time.Time `json:"publish_date,omitempty"`
	Domain      string     `json:"domain"`
	Reliability float64    `json:"reliability"` // Derived at ingestion, never recomputed
}

// VerifiedClaim is a statement the oracle found support for
type VerifiedClaim struct {
	Statement         string         `json:"statement"`
	Confidence        float64        `json:"confidence"`
	SupportingSources []SourceRecord `json:"supporting_sources"`
}

// UnverifiedClaim is a statement that could not be supported
type UnverifiedClaim struct {
	Statement           string `json:"statement"`
	Reason              string `json:"reason"`
	SuggestedCorrection string `json:"suggested_correction,omitempty"`
}

// FactCheckVerdict is the merged result of fact verification
type FactCheckVerdict struct {
	IsFactual        bool              `json:"is_factual"`
	VerifiedClaims   []VerifiedClaim   `json:"verified_claims"`
	UnverifiedClaims []UnverifiedClaim `json:"unverified_claims"`
	SourcesUsed      []SourceRecord    `json:"sources_used"` // Unique by URL
	Confidence       float64           `json:"confidence"`
	Signals          []Signal          `json:"signals,omitempty"` // Confidence breakdown
}
