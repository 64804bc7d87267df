package verify

import (
	"fmt"
	"strings"

	"github.com/ppiankov/incidentcheck/internal/model"
)

func buildVerificationPrompt(chunk model.ExtractedClaims, sources []model.SourceRecord, snippetChars int) string {
	var b strings.Builder

	b.WriteString("Verify the statements from a security incident report against the sources below.\n\n")

	b.WriteString("=== STATEMENTS ===\n")
	for i, s := range chunk.KeyStatements {
		fmt.Fprintf(&b, "%d. %s\n", i+1, s)
	}

	b.WriteString("\n=== TECHNICAL DETAILS ===\n")
	writeList(&b, "Attack vectors", chunk.TechnicalDetails.AttackVectors)
	writeList(&b, "Vulnerabilities", chunk.TechnicalDetails.Vulnerabilities)
	writeList(&b, "Impacted systems", chunk.TechnicalDetails.ImpactedSystems)

	b.WriteString("\n=== ENTITIES ===\n")
	writeList(&b, "Organizations", chunk.Entities.Organizations)
	writeList(&b, "People", chunk.Entities.People)
	writeList(&b, "Locations", chunk.Entities.Locations)
	writeList(&b, "Dates", chunk.Entities.Dates)
	writeList(&b, "Amounts", chunk.Entities.Amounts)

	b.WriteString("\n=== SOURCES ===\n")
	if len(sources) == 0 {
		b.WriteString("(no sources found; rely on well-established public reporting only)\n")
	}
	for i, s := range sources {
		fmt.Fprintf(&b, "[%d] %s\n    URL: %s\n    Reliability: %.2f\n", i+1, s.Title, s.URL, s.Reliability)
		if s.PublishDate != nil {
			fmt.Fprintf(&b, "    Published: %s\n", s.PublishDate.Format("2006-01-02"))
		}
		if snippet := truncateRunes(s.Snippet, snippetChars); snippet != "" {
			fmt.Fprintf(&b, "    Snippet: %s\n", snippet)
		}
	}

	b.WriteString("\nRules:\n")
	b.WriteString("- a statement is verified only if a source supports it; cite the source URLs\n")
	b.WriteString("- confidence is a number between 0 and 1\n")
	b.WriteString("- list contradicted or unsupported statements as unreliable with a reason\n")
	b.WriteString("- suggest a correction when a source states the fact differently\n\n")
	b.WriteString("Respond with a JSON object of exactly this shape:\n")
	b.WriteString(`{
  "isFactual": boolean,
  "verifiedFacts": [{"statement": string, "confidence": number, "sources": [string]}],
  "unreliableFacts": [{"statement": string, "reason": string, "suggestedCorrection": string}],
  "sourcesUsed": [string],
  "confidence": number
}`)
	b.WriteString("\n")
	return b.String()
}

func writeList(b *strings.Builder, label string, items []string) {
	if len(items) == 0 {
		return
	}
	fmt.Fprintf(b, "%s: %s\n", label, strings.Join(items, "; "))
}

func truncateRunes(s string, n int) string {
	s = strings.TrimSpace(s)
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}
