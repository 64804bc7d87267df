package pipeline

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/ppiankov/incidentcheck/internal/model"
)

// Renderer turns verdicts into JSON files, Markdown status messages and
// one-line summaries
type Renderer struct {
	// MaxClaims caps the verified and unverified claims listed in Markdown
	MaxClaims int
}

// NewRenderer creates a renderer
func NewRenderer() *Renderer {
	return &Renderer{MaxClaims: 20}
}

// RenderJSON writes the verdict as indented JSON to path
func (r *Renderer) RenderJSON(v *model.ValidationVerdict, path string) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal verdict: %w", err)
	}
	return writeFile(path, append(data, '\n'))
}

// RenderMarkdownFile writes the Markdown status message to path
func (r *Renderer) RenderMarkdownFile(v *model.ValidationVerdict, path string) error {
	return writeFile(path, []byte(r.RenderMarkdown(v)))
}

// RenderMarkdown returns the human-readable status message for a verdict
func (r *Renderer) RenderMarkdown(v *model.ValidationVerdict) string {
	var b strings.Builder

	if v.IsValid {
		fmt.Fprintf(&b, "# ✅ Validation passed: %s\n\n", v.Filename)
	} else {
		fmt.Fprintf(&b, "# ❌ Validation failed: %s\n\n", v.Filename)
	}
	fmt.Fprintf(&b, "%s\n\n", v.Message)
	fmt.Fprintf(&b, "- Stage reached: `%s`\n", v.Stage)
	fmt.Fprintf(&b, "- Checked at: %s\n\n", v.CheckedAt.Format("2006-01-02 15:04:05 UTC"))

	if v.Duplication != nil {
		r.writeDuplication(&b, v.Duplication)
	}

	if v.Stage != string(StageDuplication) || v.FrontMatter != nil {
		r.writeStructure(&b, v)
	}

	if v.FactCheck != nil {
		r.writeFactCheck(&b, v.FactCheck)
	}

	if len(v.Errors) > 0 {
		b.WriteString("## Errors\n\n")
		for _, e := range v.Errors {
			fmt.Fprintf(&b, "- %s\n", e)
		}
		b.WriteString("\n")
	}

	if len(v.Warnings) > 0 {
		b.WriteString("## Warnings\n\n")
		for _, w := range v.Warnings {
			fmt.Fprintf(&b, "- %s\n", w)
		}
		b.WriteString("\n")
	}

	return b.String()
}

func (r *Renderer) writeDuplication(b *strings.Builder, d *model.DuplicationVerdict) {
	b.WriteString("## Duplication\n\n")
	switch {
	case d.IsDuplicate:
		fmt.Fprintf(b, "Duplicate of `%s`.\n", d.MatchedPath)
	case d.MatchedPath != "":
		fmt.Fprintf(b, "Similar to `%s` but adds new information.\n", d.MatchedPath)
	default:
		b.WriteString("No matching article in the corpus.\n")
	}
	if c := d.Comparison; c != nil {
		fmt.Fprintf(b, "\nSimilarity: %.2f\n", c.SimilarityScore)
		if len(c.Differences) > 0 {
			b.WriteString("\nDifferences:\n")
			for _, diff := range c.Differences {
				fmt.Fprintf(b, "- %s\n", diff)
			}
		}
	}
	b.WriteString("\n")
}

func (r *Renderer) writeStructure(b *strings.Builder, v *model.ValidationVerdict) {
	b.WriteString("## Structure\n\n")
	fmt.Fprintf(b, "- Front matter: %s\n", passFail(v.FrontMatterValid))
	fmt.Fprintf(b, "- Sections: %s\n", passFail(v.SectionsValid))
	if len(v.MissingSections) > 0 {
		fmt.Fprintf(b, "- Missing sections: %s\n", strings.Join(v.MissingSections, ", "))
	}
	if len(v.AdditionalSections) > 0 {
		fmt.Fprintf(b, "- Additional sections: %s\n", strings.Join(v.AdditionalSections, ", "))
	}
	b.WriteString("\n")
}

func (r *Renderer) writeFactCheck(b *strings.Builder, fc *model.FactCheckVerdict) {
	b.WriteString("## Fact check\n\n")
	fmt.Fprintf(b, "- Confidence: %.2f\n", fc.Confidence)
	fmt.Fprintf(b, "- Factual: %t\n", fc.IsFactual)
	fmt.Fprintf(b, "- Verified: %d, unverified: %d, sources: %d\n\n",
		len(fc.VerifiedClaims), len(fc.UnverifiedClaims), len(fc.SourcesUsed))

	if len(fc.Signals) > 0 {
		b.WriteString("| Signal | Severity | Description |\n|---|---|---|\n")
		for _, s := range fc.Signals {
			fmt.Fprintf(b, "| %s | %s | %s |\n", s.Type, s.Severity, s.Description)
		}
		b.WriteString("\n")
	}

	if len(fc.VerifiedClaims) > 0 {
		b.WriteString("### Verified claims\n\n")
		for i, c := range fc.VerifiedClaims {
			if i == r.MaxClaims {
				fmt.Fprintf(b, "- … and %d more\n", len(fc.VerifiedClaims)-i)
				break
			}
			fmt.Fprintf(b, "- %s (%.2f)", c.Statement, c.Confidence)
			for _, s := range c.SupportingSources {
				fmt.Fprintf(b, " [%s](%s)", displayDomain(s), s.URL)
			}
			b.WriteString("\n")
		}
		b.WriteString("\n")
	}

	if len(fc.UnverifiedClaims) > 0 {
		b.WriteString("### Unverified claims\n\n")
		for i, c := range fc.UnverifiedClaims {
			if i == r.MaxClaims {
				fmt.Fprintf(b, "- … and %d more\n", len(fc.UnverifiedClaims)-i)
				break
			}
			fmt.Fprintf(b, "- %s: %s", c.Statement, c.Reason)
			if c.SuggestedCorrection != "" {
				fmt.Fprintf(b, " (suggested: %s)", c.SuggestedCorrection)
			}
			b.WriteString("\n")
		}
		b.WriteString("\n")
	}
}

// RenderSummary writes a one-line summary of the verdict to w
func (r *Renderer) RenderSummary(w io.Writer, v *model.ValidationVerdict) {
	mark := "✓"
	if !v.IsValid {
		mark = "✗"
	}
	line := fmt.Sprintf("%s %s [%s] %s", mark, v.Filename, v.Stage, v.Message)
	if v.FactCheck != nil {
		line += fmt.Sprintf(" | confidence %.2f, %d verified, %d unverified",
			v.FactCheck.Confidence, len(v.FactCheck.VerifiedClaims), len(v.FactCheck.UnverifiedClaims))
	}
	_, _ = fmt.Fprintln(w, line)
}

func passFail(ok bool) string {
	if ok {
		return "pass"
	}
	return "fail"
}

func displayDomain(s model.SourceRecord) string {
	if s.Domain != "" {
		return s.Domain
	}
	return "source"
}

func writeFile(path string, data []byte) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("create output directory: %w", err)
		}
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
