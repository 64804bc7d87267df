package llm

import (
	"fmt"
	"math"
	"sort"
	"strings"
)

// Validated is the tagged result of a schema pass: Valid(T) or Invalid(reasons)
type Validated[T any] struct {
	Value   T
	Reasons []string
}

// Valid reports whether the schema pass found no problems
func (v Validated[T]) Valid() bool {
	return len(v.Reasons) == 0
}

// Unwrap returns the value, or a *SchemaError naming the oracle
func (v Validated[T]) Unwrap(oracle string) (T, error) {
	if !v.Valid() {
		var zero T
		return zero, &SchemaError{Oracle: oracle, Reasons: v.Reasons}
	}
	return v.Value, nil
}

// Checker reads fields out of an untyped oracle object and records every
// violation instead of stopping at the first
type Checker struct {
	path    string
	reasons *[]string
}

// NewChecker creates a root checker
func NewChecker() *Checker {
	return &Checker{reasons: new([]string)}
}

// Reasons returns all recorded violations
func (c *Checker) Reasons() []string {
	return *c.reasons
}

// Failf records a violation at the checker's path
func (c *Checker) Failf(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	if c.path != "" {
		msg = c.path + ": " + msg
	}
	*c.reasons = append(*c.reasons, msg)
}

// At returns a checker for a nested path sharing the same violation list
func (c *Checker) At(elem string) *Checker {
	path := elem
	if c.path != "" {
		path = c.path + "." + elem
	}
	return &Checker{path: path, reasons: c.reasons}
}

// Index returns a checker for an array element
func (c *Checker) Index(i int) *Checker {
	return &Checker{path: fmt.Sprintf("%s[%d]", c.path, i), reasons: c.reasons}
}

func (c *Checker) lookup(obj map[string]any, key string) (any, bool) {
	v, ok := obj[key]
	if !ok || v == nil {
		c.At(key).Failf("missing required field")
		return nil, false
	}
	return v, true
}

// Bool reads a required boolean
func (c *Checker) Bool(obj map[string]any, key string) bool {
	v, ok := c.lookup(obj, key)
	if !ok {
		return false
	}
	b, ok := v.(bool)
	if !ok {
		c.At(key).Failf("expected boolean, got %T", v)
	}
	return b
}

// Number reads a required finite number
func (c *Checker) Number(obj map[string]any, key string) float64 {
	v, ok := c.lookup(obj, key)
	if !ok {
		return 0
	}
	f, ok := v.(float64)
	if !ok || math.IsNaN(f) || math.IsInf(f, 0) {
		c.At(key).Failf("expected number, got %T", v)
		return 0
	}
	return f
}

// String reads a required string; blank strings are rejected when nonEmpty is set
func (c *Checker) String(obj map[string]any, key string, nonEmpty bool) string {
	v, ok := c.lookup(obj, key)
	if !ok {
		return ""
	}
	s, ok := v.(string)
	if !ok {
		c.At(key).Failf("expected string, got %T", v)
		return ""
	}
	if nonEmpty && strings.TrimSpace(s) == "" {
		c.At(key).Failf("must not be empty")
	}
	return s
}

// OptionalString reads a string that may be absent or null
func (c *Checker) OptionalString(obj map[string]any, key string) string {
	v, ok := obj[key]
	if !ok || v == nil {
		return ""
	}
	s, ok := v.(string)
	if !ok {
		c.At(key).Failf("expected string, got %T", v)
	}
	return s
}

// Array reads a required array
func (c *Checker) Array(obj map[string]any, key string) []any {
	v, ok := c.lookup(obj, key)
	if !ok {
		return nil
	}
	arr, ok := v.([]any)
	if !ok {
		c.At(key).Failf("expected array, got %T", v)
		return nil
	}
	return arr
}

// Strings reads a required array of strings
func (c *Checker) Strings(obj map[string]any, key string) []string {
	v, ok := obj[key]
	if !ok || v == nil {
		c.At(key).Failf("missing required field")
		return nil
	}
	arr, ok := v.([]any)
	if !ok {
		c.At(key).Failf("expected array, got %T", v)
		return nil
	}
	out := make([]string, 0, len(arr))
	for i, item := range arr {
		s, ok := item.(string)
		if !ok {
			c.At(key).Index(i).Failf("expected string, got %T", item)
			continue
		}
		out = append(out, s)
	}
	return out
}

// Object reads a required nested object
func (c *Checker) Object(obj map[string]any, key string) map[string]any {
	v, ok := c.lookup(obj, key)
	if !ok {
		return map[string]any{}
	}
	m, ok := v.(map[string]any)
	if !ok {
		c.At(key).Failf("expected object, got %T", v)
		return map[string]any{}
	}
	return m
}

// Exactly records a violation for every key outside allowed
func (c *Checker) Exactly(obj map[string]any, allowed ...string) {
	set := make(map[string]bool, len(allowed))
	for _, k := range allowed {
		set[k] = true
	}
	var unexpected []string
	for k := range obj {
		if !set[k] {
			unexpected = append(unexpected, k)
		}
	}
	sort.Strings(unexpected)
	for _, k := range unexpected {
		c.At(k).Failf("unexpected field")
	}
}
