package search

import (
	"math"
	"net/url"
	"strings"
	"time"
	"unicode/utf8"
)

// Reliability score components
const (
	baseReliability    = 0.5
	govEduBonus        = 0.3
	orgBonus           = 0.2
	reliableBonus      = 0.25
	mediumTrustBonus   = 0.15
	recentBonus        = 0.1  // age <= 180 days
	lastYearBonus      = 0.05 // age <= 365 days
	longSnippetBonus   = 0.15 // > 200 characters
	mediumSnippetBonus = 0.1  // > 100 characters
)

// ReliabilityScorer derives a [0,1] trust estimate for a search result from its
// domain, age and snippet length
type ReliabilityScorer struct {
	reliable map[string]bool
	medium   map[string]bool
}

// NewReliabilityScorer creates a scorer from the two allow-lists
func NewReliabilityScorer(reliableDomains, mediumTrustDomains []string) *ReliabilityScorer {
	s := &ReliabilityScorer{
		reliable: make(map[string]bool, len(reliableDomains)),
		medium:   make(map[string]bool, len(mediumTrustDomains)),
	}
	for _, d := range reliableDomains {
		s.reliable[normalizeHost(d)] = true
	}
	for _, d := range mediumTrustDomains {
		s.medium[normalizeHost(d)] = true
	}
	return s
}

// Score computes the reliability of a result. A missing or malformed domain
// gets the base score with no bonuses.
func (s *ReliabilityScorer) Score(r WebResult, now time.Time) float64 {
	host := ResultDomain(r)
	if !validHost(host) {
		return baseReliability
	}

	score := baseReliability
	switch {
	case strings.HasSuffix(host, ".gov") || strings.HasSuffix(host, ".edu"):
		score += govEduBonus
	case strings.HasSuffix(host, ".org"):
		score += orgBonus
	case matchDomain(s.reliable, host):
		score += reliableBonus
	case matchDomain(s.medium, host):
		score += mediumTrustBonus
	}

	if published, ok := ParseAge(r.Age, now); ok {
		age := now.Sub(published)
		switch {
		case age <= 180*24*time.Hour:
			score += recentBonus
		case age <= 365*24*time.Hour:
			score += lastYearBonus
		}
	}

	snippetLen := utf8.RuneCountInString(StripHTML(r.Description))
	switch {
	case snippetLen > 200:
		score += longSnippetBonus
	case snippetLen > 100:
		score += mediumSnippetBonus
	}

	return clamp(score)
}

// ResultDomain returns the result's host, falling back to its URL
func ResultDomain(r WebResult) string {
	if r.Domain != "" {
		return normalizeHost(r.Domain)
	}
	parsed, err := url.Parse(r.URL)
	if err != nil {
		return ""
	}
	return normalizeHost(parsed.Hostname())
}

// matchDomain reports whether host or one of its parent domains is listed
func matchDomain(list map[string]bool, host string) bool {
	for h := host; h != ""; {
		if list[h] {
			return true
		}
		_, parent, ok := strings.Cut(h, ".")
		if !ok {
			return false
		}
		h = parent
	}
	return false
}

func normalizeHost(h string) string {
	h = strings.ToLower(strings.TrimSpace(h))
	h = strings.TrimSuffix(h, ".")
	if i := strings.LastIndex(h, ":"); i > 0 && !strings.Contains(h[i:], "]") {
		h = h[:i]
	}
	return strings.TrimPrefix(h, "www.")
}

func validHost(h string) bool {
	if h == "" || !strings.Contains(h, ".") || strings.HasPrefix(h, ".") || strings.Contains(h, "..") {
		return false
	}
	for _, r := range h {
		if !(r == '.' || r == '-' || (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9')) {
			return false
		}
	}
	return true
}

// clamp bounds a score to [0,1], rounding away float noise from the additions
func clamp(v float64) float64 {
	v = math.Round(v*1e6) / 1e6
	return math.Max(0, math.Min(1, v))
}
