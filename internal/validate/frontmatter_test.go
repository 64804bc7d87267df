package validate

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

const validFrontMatter = `---
date: 2024-02-21
title: Bybit cold wallet compromise
target: Bybit
entity_types:
  - exchange
attack_type: Supply chain
loss: 1460000000
---
`

func errorStrings(errs []error) []string {
	var out []string
	for _, err := range errs {
		out = append(out, err.Error())
	}
	return out
}

func TestParseFrontMatter_Valid(t *testing.T) {
	fm, errs := ParseFrontMatter(validFrontMatter + "\n## Summary\nText\n")
	if len(errs) != 0 {
		t.Fatalf("Unexpected errors: %v", errs)
	}

	if fm.Date != "2024-02-21" {
		t.Errorf("Expected date 2024-02-21, got %q", fm.Date)
	}
	if fm.Title != "Bybit cold wallet compromise" {
		t.Errorf("Unexpected title: %q", fm.Title)
	}
	if diff := cmp.Diff([]string{"Bybit"}, fm.Target); diff != "" {
		t.Errorf("target mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"exchange"}, fm.EntityTypes); diff != "" {
		t.Errorf("entity_types mismatch (-want +got):\n%s", diff)
	}
	if fm.Loss == nil || *fm.Loss != 1460000000 {
		t.Errorf("Unexpected loss: %v", fm.Loss)
	}

	valid, errs := ValidateFrontMatter(fm)
	if !valid || len(errs) != 0 {
		t.Errorf("Expected valid front matter, got %v", errs)
	}
}

func TestParseFrontMatter_AlternateKeys(t *testing.T) {
	doc := `---
date: "2023-11-10"
title: Poloniex hot wallet drain
entities: [Poloniex, Justin Sun]
entity-types: exchange
attack-type: Private key compromise
amount_lost: 126.5
source: https://example.com
---
body`

	fm, errs := ParseFrontMatter(doc)
	if len(errs) != 0 {
		t.Fatalf("Unexpected errors: %v", errs)
	}
	if diff := cmp.Diff([]string{"Poloniex", "Justin Sun"}, fm.Target); diff != "" {
		t.Errorf("target mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"exchange"}, fm.EntityTypes); diff != "" {
		t.Errorf("entity_types mismatch (-want +got):\n%s", diff)
	}
	if fm.AttackType != "Private key compromise" {
		t.Errorf("Unexpected attack type: %q", fm.AttackType)
	}
	if fm.Loss == nil || *fm.Loss != 126.5 {
		t.Errorf("Unexpected loss: %v", fm.Loss)
	}
	if fm.Extra["source"] != "https://example.com" {
		t.Errorf("Expected unrecognized key kept in Extra, got %v", fm.Extra)
	}
}

func TestParseFrontMatter_Missing(t *testing.T) {
	for _, doc := range []string{
		"## Summary\nNo front matter here",
		"",
		"---\ndate: 2024-01-01\nnever closed",
	} {
		fm, errs := ParseFrontMatter(doc)
		if fm != nil {
			t.Errorf("Expected nil record for %q", doc)
		}
		if len(errs) != 1 {
			t.Errorf("Expected one error for %q, got %v", doc, errs)
		}
	}
}

func TestParseFrontMatter_InvalidYAML(t *testing.T) {
	fm, errs := ParseFrontMatter("---\ndate: [unclosed\n---\n")
	if fm != nil {
		t.Error("Expected nil record")
	}
	if len(errs) != 1 || !strings.Contains(errs[0].Error(), "invalid front matter YAML") {
		t.Errorf("Unexpected errors: %v", errs)
	}
}

func TestParseFrontMatter_CRLF(t *testing.T) {
	doc := strings.ReplaceAll(validFrontMatter, "\n", "\r\n")
	fm, errs := ParseFrontMatter(doc)
	if len(errs) != 0 || fm == nil {
		t.Fatalf("Unexpected result: %v %v", fm, errs)
	}
	if fm.Title != "Bybit cold wallet compromise" {
		t.Errorf("Unexpected title: %q", fm.Title)
	}
}

func TestValidateFrontMatter_MissingEachField(t *testing.T) {
	tests := []struct {
		drop string
		want string
	}{
		{"date", "missing required field: date"},
		{"title", "missing required field: title"},
		{"target", "missing required field: target"},
		{"entity_types", "missing required field: entity_types"},
		{"attack_type", "missing required field: attack_type"},
		{"loss", "missing required field: loss"},
	}

	for _, tt := range tests {
		t.Run(tt.drop, func(t *testing.T) {
			doc := dropKey(validFrontMatter, tt.drop)
			fm, errs := ParseFrontMatter(doc)
			if len(errs) != 0 {
				t.Fatalf("Unexpected parse errors: %v", errs)
			}

			valid, errs := ValidateFrontMatter(fm)
			if valid {
				t.Error("Expected invalid front matter")
			}
			if diff := cmp.Diff([]string{tt.want}, errorStrings(errs)); diff != "" {
				t.Errorf("errors mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestValidateFrontMatter_Invariants(t *testing.T) {
	tests := []struct {
		name    string
		replace [2]string
		want    string
	}{
		{"bad date", [2]string{"date: 2024-02-21", "date: 21/02/2024"}, "invalid date format: 21/02/2024 (expected YYYY-MM-DD)"},
		{"impossible date", [2]string{"date: 2024-02-21", "date: 2024-02-30"}, "invalid date format: 2024-02-30 (expected YYYY-MM-DD)"},
		{"empty entity types", [2]string{"entity_types:\n  - exchange", "entity_types: []"}, "entity_types must be a non-empty list"},
		{"string loss", [2]string{"loss: 1460000000", "loss: about 1.4B"}, "loss must be a number"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := strings.Replace(validFrontMatter, tt.replace[0], tt.replace[1], 1)
			fm, errs := ParseFrontMatter(doc)
			if len(errs) != 0 {
				t.Fatalf("Unexpected parse errors: %v", errs)
			}

			valid, errs := ValidateFrontMatter(fm)
			if valid {
				t.Error("Expected invalid front matter")
			}
			if diff := cmp.Diff([]string{tt.want}, errorStrings(errs)); diff != "" {
				t.Errorf("errors mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestValidateFrontMatter_Nil(t *testing.T) {
	valid, errs := ValidateFrontMatter(nil)
	if valid || len(errs) != 1 {
		t.Errorf("Expected a single error for nil record, got %v", errs)
	}
}

func TestSplitFrontMatter(t *testing.T) {
	block, body, ok, err := SplitFrontMatter("---\na: 1\n---\n# Body\n")
	if err != nil || !ok {
		t.Fatalf("Unexpected result: ok=%v err=%v", ok, err)
	}
	if block != "a: 1\n" {
		t.Errorf("Unexpected block: %q", block)
	}
	if body != "# Body\n" {
		t.Errorf("Unexpected body: %q", body)
	}

	_, body, ok, err = SplitFrontMatter("# Only body")
	if ok || err != nil || body != "# Only body" {
		t.Errorf("Unexpected result for plain body: %q %v %v", body, ok, err)
	}
}

// dropKey removes a top-level key and any indented lines beneath it
func dropKey(doc, key string) string {
	var out []string
	skipping := false
	for _, line := range strings.Split(doc, "\n") {
		if strings.HasPrefix(line, key+":") {
			skipping = true
			continue
		}
		if skipping && strings.HasPrefix(line, "  ") {
			continue
		}
		skipping = false
		out = append(out, line)
	}
	return strings.Join(out, "\n")
}
