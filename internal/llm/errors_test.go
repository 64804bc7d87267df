package llm

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"testing"
)

func TestIsTransient(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"429", &StatusError{StatusCode: http.StatusTooManyRequests}, true},
		{"408", &StatusError{StatusCode: http.StatusRequestTimeout}, true},
		{"500", &StatusError{StatusCode: http.StatusInternalServerError}, true},
		{"503", &StatusError{StatusCode: http.StatusServiceUnavailable}, true},
		{"529", &StatusError{StatusCode: StatusOverloaded}, true},
		{"400", &StatusError{StatusCode: http.StatusBadRequest}, false},
		{"401", &StatusError{StatusCode: http.StatusUnauthorized}, false},
		{"wrapped 429", fmt.Errorf("extract: %w", &StatusError{StatusCode: 429}), true},
		{"read timeout", fmt.Errorf("read response: %w", ErrReadTimeout), true},
		{"deadline", context.DeadlineExceeded, true},
		{"canceled", context.Canceled, false},
		{"unexpected eof", io.ErrUnexpectedEOF, true},
		{"connection reset", errors.New("read tcp: connection reset by peer"), true},
		{"connection refused", errors.New("dial tcp: connection refused"), true},
		{"schema", &SchemaError{Oracle: "extract", Reasons: []string{"x"}}, false},
		{"other", errors.New("boom"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsTransient(tt.err); got != tt.want {
				t.Errorf("IsTransient(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}

func TestStatusError_Error(t *testing.T) {
	err := &StatusError{Provider: "Anthropic", StatusCode: 529, Type: "overloaded_error", Message: "Overloaded"}
	want := "Anthropic API error (529): overloaded_error - Overloaded"
	if err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}
}
