package model

import "strings"

// ArticleDraft is a submitted incident report before any validation
type ArticleDraft struct {
	Filename string `json:"filename"` // Path of the submission (e.g., "articles/2024/bybit-hack.md")
	Content  string `json:"-"`        // Raw markdown including front matter
}

// FrontMatter holds the recognized metadata keys of a draft
type FrontMatter struct {
	Date  string `json:"date" yaml:"date" validate:"required,yyyymmdd"`
	Title string `json:"title" yaml:"title" validate:"required"`

	// Target lists the attacked entities
	Target []string `json:"target" yaml:"target" validate:"required,min=1"`

	// EntityTypes classifies the targets (e.g., "exchange", "bridge")
	EntityTypes []string `json:"entity_types" yaml:"entity_types" validate:"required,min=1"`

	AttackType string `json:"attack_type" yaml:"attack_type" validate:"required"`

	// Loss is the numeric loss in USD; RawLoss keeps the value as written
	// so a non-numeric entry can be told apart from a missing one
	Loss    *float64 `json:"loss,omitempty" yaml:"loss,omitempty"`
	RawLoss any      `json:"-" yaml:"-"`

	// Extra keeps unrecognized keys verbatim
	Extra map[string]any `json:"extra,omitempty" yaml:"-"`
}

// RequiredSections is the fixed set of level-2 sections a complete report has
var RequiredSections = []string{
	"Summary",
	"Attackers",
	"Losses",
	"Timeline",
	"Security Failure Causes",
}

// Section is one level-2 heading and the text beneath it
type Section struct {
	Title string `json:"title"`
	Body  string `json:"body"`
}

// SectionMap is an ordered title → body mapping
type SectionMap []Section

// Get returns the body of the named section (case-insensitive title match)
func (m SectionMap) Get(title string) (string, bool) {
	for _, s := range m {
		if strings.EqualFold(s.Title, title) {
			return s.Body, true
		}
	}
	return "", false
}

// Has reports whether the named section exists
func (m SectionMap) Has(title string) bool {
	_, ok := m.Get(title)
	return ok
}

// Titles returns section titles in document order
func (m SectionMap) Titles() []string {
	titles := make([]string, 0, len(m))
	for _, s := range m {
		titles = append(titles, s.Title)
	}
	return titles
}
