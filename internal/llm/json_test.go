package llm

import "testing"

func TestStripCodeFences(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain", `{"a":1}`, `{"a":1}`},
		{"json fence", "```json\n{\"a\":1}\n```", `{"a":1}`},
		{"bare fence", "```\n{\"a\":1}\n```\n", `{"a":1}`},
		{"single line", "```{\"a\":1}```", `{"a":1}`},
		{"single line json", "```json{\"a\":1}```", `{"a":1}`},
		{"whitespace", "   {\"a\":1}  \n", `{"a":1}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := StripCodeFences(tt.in); got != tt.want {
				t.Errorf("StripCodeFences(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestDecodeObject(t *testing.T) {
	obj, err := DecodeObject("```json\n{\"isFactual\": true, \"confidence\": 0.9}\n```")
	if err != nil {
		t.Fatalf("DecodeObject failed: %v", err)
	}
	if obj["isFactual"] != true {
		t.Errorf("Expected isFactual=true, got %v", obj["isFactual"])
	}
	if obj["confidence"] != 0.9 {
		t.Errorf("Expected confidence=0.9, got %v", obj["confidence"])
	}
}

func TestDecodeObject_SurroundingProse(t *testing.T) {
	obj, err := DecodeObject("Here is the result:\n{\"ok\": true}\nHope this helps.")
	if err != nil {
		t.Fatalf("DecodeObject failed: %v", err)
	}
	if obj["ok"] != true {
		t.Errorf("Expected ok=true, got %v", obj)
	}
}

func TestDecodeObject_Errors(t *testing.T) {
	for _, in := range []string{"", "   ", "not json", "[1,2,3]", "null", "```\n```"} {
		if _, err := DecodeObject(in); err == nil {
			t.Errorf("DecodeObject(%q) expected error", in)
		}
	}
}
