package llm

import (
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestChecker_ValidObject(t *testing.T) {
	obj := map[string]any{
		"isFactual":  true,
		"confidence": 0.8,
		"name":       "x",
		"tags":       []any{"a", "b"},
		"nested":     map[string]any{"k": "v"},
		"items":      []any{map[string]any{}},
	}

	c := NewChecker()
	c.Exactly(obj, "isFactual", "confidence", "name", "tags", "nested", "items")
	if !c.Bool(obj, "isFactual") {
		t.Error("Expected isFactual=true")
	}
	if got := c.Number(obj, "confidence"); got != 0.8 {
		t.Errorf("Expected 0.8, got %v", got)
	}
	if got := c.String(obj, "name", true); got != "x" {
		t.Errorf("Expected x, got %q", got)
	}
	if diff := cmp.Diff([]string{"a", "b"}, c.Strings(obj, "tags")); diff != "" {
		t.Errorf("tags mismatch (-want +got):\n%s", diff)
	}
	if got := c.At("nested").String(c.Object(obj, "nested"), "k", false); got != "v" {
		t.Errorf("Expected v, got %q", got)
	}
	if got := c.Array(obj, "items"); len(got) != 1 {
		t.Errorf("Expected 1 item, got %d", len(got))
	}
	if got := c.OptionalString(obj, "missing"); got != "" {
		t.Errorf("Expected empty optional string, got %q", got)
	}

	if len(c.Reasons()) != 0 {
		t.Errorf("Expected no reasons, got %v", c.Reasons())
	}
}

func TestChecker_CollectsAllViolations(t *testing.T) {
	obj := map[string]any{
		"isFactual":  "yes",
		"confidence": nil,
		"tags":       []any{"a", 3.0},
		"extra":      1.0,
		"name":       "",
	}

	c := NewChecker()
	c.Exactly(obj, "isFactual", "confidence", "tags", "name")
	c.Bool(obj, "isFactual")
	c.Number(obj, "confidence")
	c.Strings(obj, "tags")
	c.String(obj, "name", true)
	c.At("claims").Index(2).String(map[string]any{}, "statement", true)

	want := []string{
		"extra: unexpected field",
		"isFactual: expected boolean, got string",
		"confidence: missing required field",
		"tags[1]: expected string, got float64",
		"name: must not be empty",
		"claims[2].statement: missing required field",
	}
	if diff := cmp.Diff(want, c.Reasons()); diff != "" {
		t.Errorf("reasons mismatch (-want +got):\n%s", diff)
	}
}

func TestChecker_StringRejectsBlank(t *testing.T) {
	tests := []struct {
		value    string
		nonEmpty bool
		wantFail bool
	}{
		{"", true, true},
		{"   ", true, true},
		{"\t\n", true, true},
		{" x ", true, false},
		{"   ", false, false},
	}

	for _, tt := range tests {
		c := NewChecker()
		got := c.String(map[string]any{"statement": tt.value}, "statement", tt.nonEmpty)
		if failed := len(c.Reasons()) > 0; failed != tt.wantFail {
			t.Errorf("String(%q, nonEmpty=%v) failed=%v, want %v (reasons %v)", tt.value, tt.nonEmpty, failed, tt.wantFail, c.Reasons())
		}
		if got != tt.value {
			t.Errorf("String(%q) returned %q", tt.value, got)
		}
	}
}

func TestValidated_Unwrap(t *testing.T) {
	ok := Validated[int]{Value: 7}
	v, err := ok.Unwrap("verify")
	if err != nil || v != 7 {
		t.Errorf("Unwrap() = %d, %v", v, err)
	}

	bad := Validated[int]{Value: 7, Reasons: []string{"x: missing required field"}}
	v, err = bad.Unwrap("verify")
	if v != 0 {
		t.Errorf("Expected zero value, got %d", v)
	}
	var schemaErr *SchemaError
	if !errors.As(err, &schemaErr) {
		t.Fatalf("Expected *SchemaError, got %T", err)
	}
	if schemaErr.Oracle != "verify" {
		t.Errorf("Unexpected oracle: %s", schemaErr.Oracle)
	}
	if !strings.Contains(err.Error(), "x: missing required field") {
		t.Errorf("Unexpected message: %v", err)
	}
	if IsTransient(err) {
		t.Error("Schema errors must not be transient")
	}
}
